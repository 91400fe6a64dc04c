package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"stuffbox-backend/internal/models"
	"stuffbox-backend/internal/storetest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *storetest.Store

	stores    Stores
	projector *Projector
	files     *memFiles
	notes     *recordingNotifier

	users       *UserService
	relations   *RelationService
	cascade     *CascadeService
	stuff       *StuffService
	collections *CollectionService
	comments    *CommentService
	uploads     *UploadService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := storetest.New()
	stores := Stores{
		Users:       store.Users(),
		Stuff:       store.Stuff(),
		Collections: store.Collections(),
		Comments:    store.Comments(),
	}
	projector := NewProjector(stores.Users, stores.Stuff, "https://cdn.example.com")
	files := &memFiles{}
	notes := &recordingNotifier{}

	return &fixture{
		t:           t,
		ctx:         context.Background(),
		store:       store,
		stores:      stores,
		projector:   projector,
		files:       files,
		notes:       notes,
		users:       NewUserService(stores, projector, files, "test-secret"),
		relations:   NewRelationService(stores, projector, notes),
		cascade:     NewCascadeService(stores, files),
		stuff:       NewStuffService(stores, projector, nil, files),
		collections: NewCollectionService(stores, projector, nil),
		comments:    NewCommentService(stores, projector, notes),
		uploads:     NewUploadService(stores.Users, files),
	}
}

func (f *fixture) user(nick string) *models.User {
	f.t.Helper()
	u := &models.User{
		ID:        uuid.New().String(),
		FirstName: "First " + nick,
		LastName:  "Last",
		NickName:  nick,
		Email:     nick + "@example.com",
		Avatar:    models.DefaultAvatar,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(f.t, f.stores.Users.Create(f.ctx, u))
	return u
}

func (f *fixture) item(ownerID, title string) *models.Stuff {
	f.t.Helper()
	s := &models.Stuff{
		ID:           uuid.New().String(),
		OwnerID:      ownerID,
		Title:        title,
		Description:  "description",
		Image:        models.DefaultStuffImage,
		Price:        10,
		ShoppingLink: "https://shop.example.com/" + title,
		Category:     models.CategoryOther,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	require.NoError(f.t, f.stores.Stuff.Create(f.ctx, s))
	return s
}

func (f *fixture) collection(ownerID string, stuffIDs ...string) *models.Collection {
	f.t.Helper()
	c := &models.Collection{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Title:     "collection",
		Stuff:     stuffIDs,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(f.t, f.stores.Collections.Create(f.ctx, c))
	return c
}

func (f *fixture) reloadUser(id string) *models.User {
	f.t.Helper()
	u, err := f.stores.Users.GetByID(f.ctx, id)
	require.NoError(f.t, err)
	return u
}

func (f *fixture) reloadStuff(id string) *models.Stuff {
	f.t.Helper()
	s, err := f.stores.Stuff.GetByID(f.ctx, id)
	require.NoError(f.t, err)
	return s
}

// memFiles records presigned and deleted keys
type memFiles struct {
	mu      sync.Mutex
	deleted []string
}

func (m *memFiles) PresignUpload(_ context.Context, key, contentType string) (string, error) {
	return "https://bucket.example.com/" + key + "?content-type=" + contentType, nil
}

func (m *memFiles) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *memFiles) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

type note struct {
	userID string
	msg    WSMessage
}

// recordingNotifier collects notifications, which are sent from goroutines
type recordingNotifier struct {
	mu    sync.Mutex
	notes []note
}

func (r *recordingNotifier) Notify(_ context.Context, userID string, msg WSMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note{userID: userID, msg: msg})
}

func (r *recordingNotifier) sent() []note {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]note(nil), r.notes...)
}
