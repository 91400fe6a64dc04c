//go:build integration

package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"stuffbox-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a PostgreSQL container, applies the schema and returns a pool
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("stuffbox"),
		postgres.WithUsername("stuffbox"),
		postgres.WithPassword("stuffbox"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool))
	// the schema is idempotent
	require.NoError(t, Migrate(ctx, pool))
	return pool
}

func seedUser(t *testing.T, repo *UserRepository, nick string) *models.User {
	t.Helper()
	now := time.Now().UTC()
	u := &models.User{
		ID:           uuid.NewString(),
		FirstName:    "First",
		LastName:     "Last",
		NickName:     nick,
		Email:        nick + "@example.com",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func seedStuff(t *testing.T, repo *StuffRepository, ownerID, title string) *models.Stuff {
	t.Helper()
	now := time.Now().UTC()
	s := &models.Stuff{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Title:        title,
		Price:        10,
		ShoppingLink: "https://shop.example.com/" + title,
		Category:     models.CategoryBooks,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repo.Create(context.Background(), s))
	return s
}

func seedCollection(t *testing.T, repo *CollectionRepository, ownerID string, stuff ...string) *models.Collection {
	t.Helper()
	now := time.Now().UTC()
	c := &models.Collection{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     "Desk",
		Stuff:     stuff,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.Create(context.Background(), c))
	return c
}

func TestPostgresStores(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := setupTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	stuff := NewStuffRepository(db)
	collections := NewCollectionRepository(db)

	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")

	t.Run("duplicate email", func(t *testing.T) {
		dup := *alice
		dup.ID = uuid.NewString()
		dup.NickName = "alice2"
		assert.ErrorIs(t, users.Create(ctx, &dup), ErrDuplicate)
	})

	t.Run("malformed id reads as not found", func(t *testing.T) {
		_, err := users.GetByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("guarded list writes", func(t *testing.T) {
		changed, err := users.AddToList(ctx, alice.ID, ListFollowing, bob.ID)
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = users.AddToList(ctx, alice.ID, ListFollowing, bob.ID)
		require.NoError(t, err)
		assert.False(t, changed)

		changed, err = users.RemoveFromList(ctx, alice.ID, ListFollowing, bob.ID)
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = users.RemoveFromList(ctx, alice.ID, ListFollowing, bob.ID)
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("liked list is newest first", func(t *testing.T) {
		first := seedStuff(t, stuff, bob.ID, "first")
		second := seedStuff(t, stuff, bob.ID, "second")
		for _, id := range []string{first.ID, second.ID} {
			_, err := users.AddToList(ctx, alice.ID, ListLikedStuff, id)
			require.NoError(t, err)
		}

		u, err := users.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{second.ID, first.ID}, u.LikedStuff)

		items, err := stuff.GetByIDs(ctx, u.LikedStuff)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, second.ID, items[0].ID)

		n, err := users.StripLikedStuff(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("stuff likes", func(t *testing.T) {
		item := seedStuff(t, stuff, bob.ID, "lamp")
		changed, err := stuff.AddLike(ctx, item.ID, alice.ID)
		require.NoError(t, err)
		assert.True(t, changed)
		changed, err = stuff.AddLike(ctx, item.ID, alice.ID)
		require.NoError(t, err)
		assert.False(t, changed)

		views, err := stuff.IncrementViews(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), views)

		n, err := stuff.StripLikesBy(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("collection membership", func(t *testing.T) {
		a := seedStuff(t, stuff, alice.ID, "a")
		b := seedStuff(t, stuff, alice.ID, "b")
		c := seedCollection(t, collections, alice.ID, a.ID, b.ID)

		changed, err := collections.AddStuff(ctx, c.ID, []string{a.ID})
		require.NoError(t, err)
		assert.False(t, changed)

		containing, err := collections.ListContaining(ctx, a.ID)
		require.NoError(t, err)
		require.Len(t, containing, 1)
		assert.Equal(t, c.ID, containing[0].ID)

		deleted, err := collections.DeleteIfOnlyMember(ctx, c.ID, a.ID)
		require.NoError(t, err)
		assert.False(t, deleted)

		remaining, present, err := collections.RemoveStuff(ctx, c.ID, a.ID)
		require.NoError(t, err)
		assert.True(t, present)
		assert.Equal(t, 1, remaining)

		_, present, err = collections.RemoveStuff(ctx, c.ID, a.ID)
		require.NoError(t, err)
		assert.False(t, present)

		deleted, err = collections.DeleteIfEmpty(ctx, c.ID)
		require.NoError(t, err)
		assert.False(t, deleted)

		deleted, err = collections.DeleteIfOnlyMember(ctx, c.ID, b.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = collections.GetByID(ctx, c.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("text search and paging", func(t *testing.T) {
		owner := seedUser(t, users, "carol")
		for _, title := range []string{"Red Chair", "Blue chair", "Table"} {
			seedStuff(t, stuff, owner.ID, title)
		}

		items, total, err := stuff.List(ctx, StuffFilter{OwnerID: owner.ID, Text: "chair", Sort: ParseSort("title:asc", false)}, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, items, 2)
		assert.Equal(t, "Blue chair", items[0].Title)

		items, total, err = stuff.List(ctx, StuffFilter{OwnerID: owner.ID}, 2, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Len(t, items, 1)
	})

	t.Run("concurrent guarded adds", func(t *testing.T) {
		const n = 16
		item := seedStuff(t, stuff, bob.ID, "contested")
		target := seedUser(t, users, "dave")

		var likes, liked, follows atomic.Int32
		var wg sync.WaitGroup
		start := make(chan struct{})
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				if ok, err := stuff.AddLike(ctx, item.ID, alice.ID); assert.NoError(t, err) && ok {
					likes.Add(1)
				}
				if ok, err := users.AddToList(ctx, alice.ID, ListLikedStuff, item.ID); assert.NoError(t, err) && ok {
					liked.Add(1)
				}
				if ok, err := users.AddToList(ctx, target.ID, ListFollowers, alice.ID); assert.NoError(t, err) && ok {
					follows.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()

		assert.Equal(t, int32(1), likes.Load())
		assert.Equal(t, int32(1), liked.Load())
		assert.Equal(t, int32(1), follows.Load())

		reloaded, err := stuff.GetByID(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{alice.ID}, reloaded.Likes)

		u, err := users.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		var count int
		for _, id := range u.LikedStuff {
			if id == item.ID {
				count++
			}
		}
		assert.Equal(t, 1, count)

		followed, err := users.GetByID(ctx, target.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{alice.ID}, followed.Followers)
	})

	t.Run("membership swap and metadata", func(t *testing.T) {
		a := seedStuff(t, stuff, alice.ID, "swap-a")
		b := seedStuff(t, stuff, alice.ID, "swap-b")
		c := seedCollection(t, collections, alice.ID, a.ID)

		changed, err := collections.ReplaceStuff(ctx, c.ID, alice.ID, []string{b.ID}, []string{b.ID})
		require.NoError(t, err)
		assert.False(t, changed, "stale snapshot")

		changed, err = collections.ReplaceStuff(ctx, c.ID, alice.ID, []string{a.ID}, []string{a.ID, uuid.NewString()})
		require.NoError(t, err)
		assert.False(t, changed, "missing member")

		changed, err = collections.ReplaceStuff(ctx, c.ID, bob.ID, []string{a.ID}, []string{b.ID})
		require.NoError(t, err)
		assert.False(t, changed, "not the owner")

		changed, err = collections.ReplaceStuff(ctx, c.ID, alice.ID, []string{a.ID}, []string{b.ID, a.ID})
		require.NoError(t, err)
		assert.True(t, changed)

		c.Title = "Renamed"
		c.Stuff = []string{uuid.NewString()}
		require.NoError(t, collections.UpdateMeta(ctx, c))

		stored, err := collections.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", stored.Title)
		assert.Equal(t, []string{b.ID, a.ID}, stored.Stuff)
	})

	t.Run("delete missing", func(t *testing.T) {
		assert.ErrorIs(t, stuff.Delete(ctx, uuid.NewString()), ErrNotFound)
		assert.ErrorIs(t, collections.Delete(ctx, uuid.NewString()), ErrNotFound)
	})
}
