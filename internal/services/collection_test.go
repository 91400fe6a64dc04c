package services

import (
	"context"
	"sync"
	"testing"

	"stuffbox-backend/internal/models"
	"stuffbox-backend/internal/pagination"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCollectionChecksMembers(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner")
	item := f.item(owner.ID, "lamp")

	view, err := f.collections.Create(f.ctx, owner.ID, CreateCollectionRequest{Title: " Desk ", Stuff: []string{item.ID}})
	require.NoError(t, err)
	assert.Equal(t, "Desk", view.Title)
	assert.Equal(t, "This collection has no description", view.Description)
	assert.Equal(t, 1, view.TotalStuff)

	var verr *ValidationError
	_, err = f.collections.Create(f.ctx, owner.ID, CreateCollectionRequest{Title: "Empty"})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "stuff")

	_, err = f.collections.Create(f.ctx, owner.ID, CreateCollectionRequest{Title: "Ghost", Stuff: []string{uuid.New().String()}})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "exists", verr.Fields["stuff"])

	_, err = f.collections.Create(f.ctx, owner.ID, CreateCollectionRequest{Title: "Twice", Stuff: []string{item.ID, item.ID}})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "unique", verr.Fields["stuff"])
}

func TestCollectionMembership(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner")
	other := f.user("other")
	a := f.item(owner.ID, "a")
	b := f.item(owner.ID, "b")
	c := f.collection(owner.ID, a.ID)

	_, err := f.collections.AddStuff(f.ctx, other.ID, c.ID, MembersRequest{Stuff: []string{b.ID}})
	assert.ErrorIs(t, err, ErrNotFound)

	view, err := f.collections.AddStuff(f.ctx, owner.ID, c.ID, MembersRequest{Stuff: []string{b.ID}})
	require.NoError(t, err)
	assert.Equal(t, 2, view.TotalStuff)

	_, err = f.collections.AddStuff(f.ctx, owner.ID, c.ID, MembersRequest{Stuff: []string{b.ID}})
	assert.ErrorIs(t, err, ErrAlreadyInRelation)

	view, err = f.collections.RemoveStuff(f.ctx, owner.ID, c.ID, a.ID)
	require.NoError(t, err)
	require.Len(t, view.Stuff, 1)
	assert.Equal(t, b.ID, view.Stuff[0].ID)

	_, err = f.collections.RemoveStuff(f.ctx, owner.ID, c.ID, b.ID)
	assert.ErrorIs(t, err, ErrInvalidUpdate)

	_, err = f.collections.RemoveStuff(f.ctx, owner.ID, c.ID, a.ID)
	assert.ErrorIs(t, err, ErrNotInRelation)
}

func TestGetCollectionFiltersAndPagesMembers(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner")

	var ids []string
	for i := range 12 {
		item := f.item(owner.ID, "lamp")
		if i%2 == 1 {
			item.Title = "chair"
			require.NoError(t, f.stores.Stuff.Update(f.ctx, item))
		}
		ids = append(ids, item.ID)
	}
	c := f.collection(owner.ID, ids...)

	view, err := f.collections.Get(f.ctx, owner.ID, c.ID, MemberQuery{}, pagination.Params{Limit: 5, Skip: 7})
	require.NoError(t, err)
	assert.Equal(t, 12, view.TotalStuff)
	require.Len(t, view.Stuff, 5)
	assert.Equal(t, ids[5], view.Stuff[0].ID)

	view, err = f.collections.Get(f.ctx, owner.ID, c.ID, MemberQuery{Text: "chair"}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 6, view.TotalStuff)
	assert.Len(t, view.Stuff, 6)
}

func TestListCollectionsRestartsPastTheEnd(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner")
	viewer := f.user("viewer")
	item := f.item(owner.ID, "lamp")
	f.collection(owner.ID, item.ID)
	f.collection(owner.ID, item.ID)

	views, total, err := f.collections.List(f.ctx, viewer.ID, CollectionQuery{}, pagination.Params{Limit: 10, Skip: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, views, 2)

	views, total, err = f.collections.List(f.ctx, owner.ID, CollectionQuery{}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, views)

	views, total, err = f.collections.List(f.ctx, owner.ID, CollectionQuery{IsMine: true}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.True(t, views[0].IsLiked)
}

func TestUpdateCollection(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner")
	a := f.item(owner.ID, "a")
	b := f.item(owner.ID, "b")
	c := f.collection(owner.ID, a.ID)

	title := "Renamed"
	members := []string{b.ID, a.ID}
	view, err := f.collections.Update(f.ctx, owner.ID, c.ID, UpdateCollectionRequest{Title: &title, Stuff: &members})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", view.Title)
	require.Len(t, view.Stuff, 2)
	assert.Equal(t, b.ID, view.Stuff[0].ID)

	_, err = f.collections.Update(f.ctx, f.user("other").ID, c.ID, UpdateCollectionRequest{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}

// interleavedCollections runs hook once, right after the first GetByID has
// returned its snapshot
type interleavedCollections struct {
	CollectionStore
	once sync.Once
	hook func()
}

func (c *interleavedCollections) GetByID(ctx context.Context, id string) (*models.Collection, error) {
	col, err := c.CollectionStore.GetByID(ctx, id)
	c.once.Do(c.hook)
	return col, err
}

func (f *fixture) collectionsWithHook(hook func()) *CollectionService {
	stores := f.stores
	stores.Collections = &interleavedCollections{CollectionStore: f.stores.Collections, hook: hook}
	return NewCollectionService(stores, f.projector, nil)
}

func TestRenameKeepsConcurrentDelete(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner")
	a := f.item(owner.ID, "a")
	b := f.item(owner.ID, "b")
	c := f.collection(owner.ID, a.ID, b.ID)

	collections := f.collectionsWithHook(func() {
		require.NoError(t, f.cascade.DeleteStuff(f.ctx, a.ID, owner.ID))
	})

	title := "Renamed"
	view, err := collections.Update(f.ctx, owner.ID, c.ID, UpdateCollectionRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", view.Title)

	stored, err := f.stores.Collections.GetByID(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, stored.Stuff)
	assert.Equal(t, "Renamed", stored.Title)
}

func TestReplaceMembersRejectsStaleSnapshot(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner")
	a := f.item(owner.ID, "a")
	b := f.item(owner.ID, "b")
	added := f.item(owner.ID, "added")
	c := f.collection(owner.ID, a.ID)

	collections := f.collectionsWithHook(func() {
		_, err := f.collections.AddStuff(f.ctx, owner.ID, c.ID, MembersRequest{Stuff: []string{added.ID}})
		require.NoError(t, err)
	})

	title := "Renamed"
	members := []string{b.ID}
	_, err := collections.Update(f.ctx, owner.ID, c.ID, UpdateCollectionRequest{Title: &title, Stuff: &members})
	assert.ErrorIs(t, err, ErrConflict)

	stored, err := f.stores.Collections.GetByID(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, added.ID}, stored.Stuff)
	assert.Equal(t, "collection", stored.Title)
}

func TestReplaceMembersRejectsDeletedItem(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner")
	a := f.item(owner.ID, "a")
	b := f.item(owner.ID, "b")
	c := f.collection(owner.ID, a.ID)

	require.NoError(t, f.cascade.DeleteStuff(f.ctx, b.ID, owner.ID))

	// the swap itself refuses ids that no longer exist, even with a current snapshot
	changed, err := f.stores.Collections.ReplaceStuff(f.ctx, c.ID, owner.ID, []string{a.ID}, []string{a.ID, b.ID})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, []string{a.ID}, f.collectionMembers(c.ID))
}

func (f *fixture) collectionMembers(id string) []string {
	f.t.Helper()
	c, err := f.stores.Collections.GetByID(f.ctx, id)
	require.NoError(f.t, err)
	return c.Stuff
}

func TestCollectionViewWithoutGateAlwaysCounts(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner")
	c := f.collection(owner.ID, f.item(owner.ID, "a").ID)

	for range 2 {
		_, err := f.collections.View(f.ctx, owner.ID, c.ID)
		require.NoError(t, err)
	}
	got, err := f.stores.Collections.GetByID(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Views)
}
