package services

import (
	"context"
	"strings"
	"time"

	"stuffbox-backend/internal/models"
	"stuffbox-backend/internal/pagination"
	"stuffbox-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CreateCollectionRequest creates a collection with at least one member
type CreateCollectionRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=5000"`
	Stuff       []string `json:"stuff" validate:"required,min=1,unique,dive,uuid"`
}

// UpdateCollectionRequest edits a collection; nil fields are left alone
type UpdateCollectionRequest struct {
	Title       *string   `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string   `json:"description" validate:"omitempty,max=5000"`
	Stuff       *[]string `json:"stuff" validate:"omitempty,min=1,unique,dive,uuid"`
}

// MembersRequest names the items to add to a collection
type MembersRequest struct {
	Stuff []string `json:"stuff" validate:"required,min=1,unique,dive,uuid"`
}

// CollectionQuery narrows the collection list
type CollectionQuery struct {
	Text        string
	IsMine      bool
	OtherUserID string
	SortBy      string
}

// MemberQuery narrows the members shown on a collection page
type MemberQuery struct {
	Text     string
	Category models.Category
}

// CollectionService handles collections other than their deletion
type CollectionService struct {
	stuff       StuffStore
	collections CollectionStore
	projector   *Projector
	views       *ViewGate
}

// NewCollectionService creates a new collection service
func NewCollectionService(stores Stores, projector *Projector, views *ViewGate) *CollectionService {
	return &CollectionService{
		stuff:       stores.Stuff,
		collections: stores.Collections,
		projector:   projector,
		views:       views,
	}
}

// checkMembers rejects ids with no stuff behind them
func (s *CollectionService) checkMembers(ctx context.Context, ids []string) error {
	items, err := s.stuff.GetByIDs(ctx, ids)
	if err != nil {
		return storeErr(err)
	}
	if len(items) != len(ids) {
		return validationError("stuff", "exists")
	}
	return nil
}

func (s *CollectionService) view(ctx context.Context, c *models.Collection, viewerID string) (*CollectionView, error) {
	views, err := s.projector.Collections(ctx, []*models.Collection{c}, viewerID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// owned loads a collection and hides it from anyone but its owner
func (s *CollectionService) owned(ctx context.Context, ownerID, collectionID string) (*models.Collection, error) {
	c, err := s.collections.GetByID(ctx, collectionID)
	if err != nil {
		return nil, storeErr(err)
	}
	if c.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return c, nil
}

// Create makes a new collection owned by ownerID
func (s *CollectionService) Create(ctx context.Context, ownerID string, req CreateCollectionRequest) (*CollectionView, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := s.checkMembers(ctx, req.Stuff); err != nil {
		return nil, err
	}
	if req.Description == "" {
		req.Description = "This collection has no description"
	}

	now := time.Now()
	c := &models.Collection{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Stuff:       req.Stuff,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.collections.Create(ctx, c); err != nil {
		return nil, storeErr(err)
	}

	log.Info().Str("user_id", ownerID).Str("collection_id", c.ID).Msg("Collection created")
	return s.view(ctx, c, ownerID)
}

// List returns a page of collections and the unpaged total. A skip at or past
// the total restarts at the first page.
func (s *CollectionService) List(ctx context.Context, viewerID string, q CollectionQuery, page pagination.Params) ([]CollectionView, int, error) {
	filter := repository.CollectionFilter{
		Text: q.Text,
		Sort: repository.ParseSort(q.SortBy, false),
	}
	switch {
	case q.IsMine:
		filter.OwnerID = viewerID
	case q.OtherUserID != "":
		filter.OwnerID = q.OtherUserID
	default:
		filter.ExcludeOwnerID = viewerID
	}

	cols, total, err := s.collections.List(ctx, filter, page.Limit, page.Skip)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	if clamped := page.ClampSkip(total); clamped.Skip != page.Skip && total > 0 {
		cols, total, err = s.collections.List(ctx, filter, clamped.Limit, clamped.Skip)
		if err != nil {
			return nil, 0, storeErr(err)
		}
	}

	views, err := s.projector.Collections(ctx, cols, viewerID)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// Get returns a collection with one page of its members. Members are filtered by
// q first; TotalStuff counts the filtered members.
func (s *CollectionService) Get(ctx context.Context, viewerID, collectionID string, q MemberQuery, page pagination.Params) (*CollectionView, error) {
	c, err := s.collections.GetByID(ctx, collectionID)
	if err != nil {
		return nil, storeErr(err)
	}

	members, err := s.stuff.GetByIDs(ctx, c.Stuff)
	if err != nil {
		return nil, storeErr(err)
	}
	match := repository.StuffFilter{Text: q.Text, Category: q.Category}
	filtered := make([]*models.Stuff, 0, len(members))
	for _, m := range members {
		if match.Match(m) {
			filtered = append(filtered, m)
		}
	}

	window, total := pagination.Page(filtered, page.Limit, page.Skip)
	return s.projector.Collection(ctx, c, window, total, viewerID)
}

// Update edits a collection owned by ownerID
func (s *CollectionService) Update(ctx context.Context, ownerID, collectionID string, req UpdateCollectionRequest) (*CollectionView, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	c, err := s.owned(ctx, ownerID, collectionID)
	if err != nil {
		return nil, err
	}

	// membership is swapped only against the list read above, so concurrent
	// deletes and additions are never overwritten
	if req.Stuff != nil {
		if err := s.checkMembers(ctx, *req.Stuff); err != nil {
			return nil, err
		}
		replaced, err := s.collections.ReplaceStuff(ctx, c.ID, ownerID, c.Stuff, *req.Stuff)
		if err != nil {
			return nil, storeErr(err)
		}
		if !replaced {
			return nil, ErrConflict
		}
	}

	if req.Title != nil || req.Description != nil {
		if req.Title != nil {
			c.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			c.Description = *req.Description
		}
		c.UpdatedAt = time.Now()
		if err := s.collections.UpdateMeta(ctx, c); err != nil {
			return nil, storeErr(err)
		}
	}
	return s.reload(ctx, c.ID, ownerID)
}

// AddStuff appends items to a collection. Nothing is added if any of them is
// already a member.
func (s *CollectionService) AddStuff(ctx context.Context, ownerID, collectionID string, req MembersRequest) (*CollectionView, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, ownerID, collectionID); err != nil {
		return nil, err
	}
	if err := s.checkMembers(ctx, req.Stuff); err != nil {
		return nil, err
	}

	added, err := s.collections.AddStuff(ctx, collectionID, req.Stuff)
	if err != nil {
		return nil, storeErr(err)
	}
	if !added {
		return nil, ErrAlreadyInRelation
	}
	return s.reload(ctx, collectionID, ownerID)
}

// RemoveStuff takes one item out of a collection. The last member cannot be
// removed; delete the collection instead.
func (s *CollectionService) RemoveStuff(ctx context.Context, ownerID, collectionID, stuffID string) (*CollectionView, error) {
	c, err := s.owned(ctx, ownerID, collectionID)
	if err != nil {
		return nil, err
	}
	if len(c.Stuff) == 1 && c.Stuff[0] == stuffID {
		return nil, ErrInvalidUpdate
	}

	_, removed, err := s.collections.RemoveStuff(ctx, collectionID, stuffID)
	if err != nil {
		return nil, storeErr(err)
	}
	if !removed {
		return nil, ErrNotInRelation
	}
	return s.reload(ctx, collectionID, ownerID)
}

func (s *CollectionService) reload(ctx context.Context, collectionID, viewerID string) (*CollectionView, error) {
	c, err := s.collections.GetByID(ctx, collectionID)
	if err != nil {
		return nil, storeErr(err)
	}
	return s.view(ctx, c, viewerID)
}

// View counts a view of the collection, at most once per viewer per gate window
func (s *CollectionService) View(ctx context.Context, viewerID, collectionID string) (*CollectionView, error) {
	c, err := s.collections.GetByID(ctx, collectionID)
	if err != nil {
		return nil, storeErr(err)
	}
	if s.views.Allow(ctx, "collection", collectionID, viewerID) {
		views, err := s.collections.IncrementViews(ctx, collectionID)
		if err != nil {
			return nil, storeErr(err)
		}
		c.Views = views
	}
	return s.view(ctx, c, viewerID)
}
