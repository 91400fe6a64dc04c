package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"stuffbox-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowUpdatesBothUsers(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	bob := f.user("bob")

	view, err := f.relations.Follow(f.ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Followers)
	require.NotNil(t, view.IsFollowing)
	assert.True(t, *view.IsFollowing)

	assert.Equal(t, []string{alice.ID}, f.reloadUser(bob.ID).Followers)
	assert.Equal(t, []string{bob.ID}, f.reloadUser(alice.ID).Following)

	assert.Eventually(t, func() bool {
		for _, n := range f.notes.sent() {
			if n.userID == bob.ID && n.msg.Type == EventFollowed && n.msg.ActorID == alice.ID {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)

	view, err = f.relations.Unfollow(f.ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, view.Followers)
	assert.False(t, *view.IsFollowing)
	assert.Empty(t, f.reloadUser(bob.ID).Followers)
	assert.Empty(t, f.reloadUser(alice.ID).Following)
}

func TestFollowTwiceIsRejected(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	bob := f.user("bob")

	_, err := f.relations.Follow(f.ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = f.relations.Follow(f.ctx, alice.ID, bob.ID)
	assert.ErrorIs(t, err, ErrAlreadyInRelation)
	assert.Equal(t, []string{alice.ID}, f.reloadUser(bob.ID).Followers)
	assert.Equal(t, []string{bob.ID}, f.reloadUser(alice.ID).Following)
}

func TestUnfollowWithoutFollowIsRejected(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	bob := f.user("bob")

	_, err := f.relations.Unfollow(f.ctx, alice.ID, bob.ID)
	assert.ErrorIs(t, err, ErrNotInRelation)
	assert.Empty(t, f.reloadUser(bob.ID).Followers)
	assert.Empty(t, f.reloadUser(alice.ID).Following)
}

// concurrently runs n calls of fn and returns their errors
func concurrently(n int, fn func() error) []error {
	errs := make([]error, n)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs[i] = fn()
		}()
	}
	close(start)
	wg.Wait()
	return errs
}

func assertOneWinner(t *testing.T, errs []error) {
	t.Helper()
	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyInRelation)
	}
	assert.Equal(t, 1, ok)
}

func TestConcurrentTogglesKeepSetsIntact(t *testing.T) {
	const n = 16

	t.Run("like stuff", func(t *testing.T) {
		f := newFixture(t)
		owner := f.user("owner")
		viewer := f.user("viewer")
		item := f.item(owner.ID, "lamp")

		assertOneWinner(t, concurrently(n, func() error {
			_, err := f.relations.LikeStuff(f.ctx, viewer.ID, item.ID)
			return err
		}))
		assert.Equal(t, []string{viewer.ID}, f.reloadStuff(item.ID).Likes)
		assert.Equal(t, []string{item.ID}, f.reloadUser(viewer.ID).LikedStuff)
	})

	t.Run("follow", func(t *testing.T) {
		f := newFixture(t)
		alice := f.user("alice")
		bob := f.user("bob")

		assertOneWinner(t, concurrently(n, func() error {
			_, err := f.relations.Follow(f.ctx, alice.ID, bob.ID)
			return err
		}))
		assert.Equal(t, []string{alice.ID}, f.reloadUser(bob.ID).Followers)
		assert.Equal(t, []string{bob.ID}, f.reloadUser(alice.ID).Following)
	})

	t.Run("like and unlike interleaved", func(t *testing.T) {
		f := newFixture(t)
		owner := f.user("owner")
		viewer := f.user("viewer")
		item := f.item(owner.ID, "lamp")

		var i int
		var mu sync.Mutex
		concurrently(n, func() error {
			mu.Lock()
			i++
			like := i%2 == 0
			mu.Unlock()
			if like {
				_, err := f.relations.LikeStuff(f.ctx, viewer.ID, item.ID)
				return err
			}
			_, err := f.relations.UnlikeStuff(f.ctx, viewer.ID, item.ID)
			return err
		})

		likes := f.reloadStuff(item.ID).Likes
		liked := f.reloadUser(viewer.ID).LikedStuff
		assert.LessOrEqual(t, len(likes), 1)
		assert.LessOrEqual(t, len(liked), 1)
	})
}

func TestSelfFollowWritesNothing(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")

	view, err := f.relations.Follow(f.ctx, alice.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, view.Followers)
	assert.True(t, *view.IsFollowing)

	u := f.reloadUser(alice.ID)
	assert.Empty(t, u.Followers)
	assert.Empty(t, u.Following)

	_, err = f.relations.Unfollow(f.ctx, alice.ID, alice.ID)
	assert.NoError(t, err)
}

func TestFollowUnknownUser(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")

	_, err := f.relations.Follow(f.ctx, alice.ID, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.reloadUser(alice.ID).Following)
}

func TestLikeStuffToggle(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner")
	viewer := f.user("viewer")
	item := f.item(owner.ID, "lamp")

	view, err := f.relations.LikeStuff(f.ctx, viewer.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Likes)
	assert.True(t, view.IsLiked)
	assert.Equal(t, []string{viewer.ID}, f.reloadStuff(item.ID).Likes)
	assert.Equal(t, []string{item.ID}, f.reloadUser(viewer.ID).LikedStuff)

	_, err = f.relations.LikeStuff(f.ctx, viewer.ID, item.ID)
	assert.ErrorIs(t, err, ErrAlreadyInRelation)
	assert.Equal(t, []string{viewer.ID}, f.reloadStuff(item.ID).Likes)

	view, err = f.relations.UnlikeStuff(f.ctx, viewer.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, view.Likes)
	assert.False(t, view.IsLiked)
	assert.Empty(t, f.reloadUser(viewer.ID).LikedStuff)

	_, err = f.relations.UnlikeStuff(f.ctx, viewer.ID, item.ID)
	assert.ErrorIs(t, err, ErrNotInRelation)
}

func TestLikeOwnStuffIsNoop(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner")
	item := f.item(owner.ID, "lamp")

	view, err := f.relations.LikeStuff(f.ctx, owner.ID, item.ID)
	require.NoError(t, err)
	assert.True(t, view.IsLiked)
	assert.Equal(t, 0, view.Likes)
	assert.Empty(t, f.reloadStuff(item.ID).Likes)
	assert.Empty(t, f.reloadUser(owner.ID).LikedStuff)
}

func TestLikedListKeepsNewestFirst(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner")
	viewer := f.user("viewer")
	first := f.item(owner.ID, "first")
	second := f.item(owner.ID, "second")

	_, err := f.relations.LikeStuff(f.ctx, viewer.ID, first.ID)
	require.NoError(t, err)
	_, err = f.relations.LikeStuff(f.ctx, viewer.ID, second.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{second.ID, first.ID}, f.reloadUser(viewer.ID).LikedStuff)
}

func TestLikeCollectionToggle(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner")
	viewer := f.user("viewer")
	item := f.item(owner.ID, "lamp")
	c := f.collection(owner.ID, item.ID)

	view, err := f.relations.LikeCollection(f.ctx, viewer.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Likes)
	assert.True(t, view.IsLiked)
	assert.Equal(t, []string{c.ID}, f.reloadUser(viewer.ID).LikedCollections)

	_, err = f.relations.LikeCollection(f.ctx, viewer.ID, c.ID)
	assert.ErrorIs(t, err, ErrAlreadyInRelation)

	_, err = f.relations.UnlikeCollection(f.ctx, viewer.ID, c.ID)
	require.NoError(t, err)
	assert.Empty(t, f.reloadUser(viewer.ID).LikedCollections)

	_, err = f.relations.UnlikeCollection(f.ctx, viewer.ID, c.ID)
	assert.ErrorIs(t, err, ErrNotInRelation)
}

func TestLikeViewerSideFailureIsPartial(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner")
	viewer := f.user("viewer")
	item := f.item(owner.ID, "lamp")

	f.store.FailOn("users.AddToList", errors.New("boom"))
	_, err := f.relations.LikeStuff(f.ctx, viewer.ID, item.ID)

	var pf *PartialFailureError
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "like_stuff", pf.Op)
	assert.Equal(t, "viewer", pf.Step)
	assert.Equal(t, []string{"target"}, pf.Completed)
	assert.Equal(t, []string{viewer.ID}, f.reloadStuff(item.ID).Likes)
	assert.Empty(t, f.reloadUser(viewer.ID).LikedStuff)

	// a retry reports the duplicate but repairs the viewer side
	f.store.FailOn("users.AddToList", nil)
	_, err = f.relations.LikeStuff(f.ctx, viewer.ID, item.ID)
	assert.ErrorIs(t, err, ErrAlreadyInRelation)
	assert.Equal(t, []string{item.ID}, f.reloadUser(viewer.ID).LikedStuff)
}

func TestLikeTargetSideFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner")
	viewer := f.user("viewer")
	item := f.item(owner.ID, "lamp")

	f.store.FailOn("stuff.AddLike", errors.New("boom"))
	_, err := f.relations.LikeStuff(f.ctx, viewer.ID, item.ID)
	require.Error(t, err)
	assert.False(t, isPartial(err))
	assert.Empty(t, f.reloadUser(viewer.ID).LikedStuff)
}

func TestUnlikeHealsHalfAppliedLike(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner")
	viewer := f.user("viewer")
	item := f.item(owner.ID, "lamp")

	_, err := f.stores.Users.AddToList(f.ctx, viewer.ID, repository.ListLikedStuff, item.ID)
	require.NoError(t, err)

	_, err = f.relations.UnlikeStuff(f.ctx, viewer.ID, item.ID)
	require.NoError(t, err)
	assert.Empty(t, f.reloadUser(viewer.ID).LikedStuff)
}
