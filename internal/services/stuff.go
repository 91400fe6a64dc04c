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

// CreateStuffRequest posts a new item
type CreateStuffRequest struct {
	Title        string          `json:"title" validate:"required,max=200"`
	Description  string          `json:"description" validate:"max=5000"`
	Image        string          `json:"image"`
	Price        float64         `json:"price" validate:"gte=0"`
	HasOffer     bool            `json:"has_offer"`
	OfferPrice   *float64        `json:"offer_price" validate:"omitempty,gte=0"`
	ShoppingLink string          `json:"shopping_link" validate:"required"`
	Category     models.Category `json:"category" validate:"omitempty,oneof=Music Photography Technology Clothes Kitchen Sports Decoration Books Other"`
}

// UpdateStuffRequest edits an item; nil fields are left alone
type UpdateStuffRequest struct {
	Title        *string          `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string          `json:"description" validate:"omitempty,max=5000"`
	Image        *string          `json:"image"`
	Price        *float64         `json:"price" validate:"omitempty,gte=0"`
	HasOffer     *bool            `json:"has_offer"`
	OfferPrice   *float64         `json:"offer_price" validate:"omitempty,gte=0"`
	ShoppingLink *string          `json:"shopping_link" validate:"omitempty,min=1"`
	Category     *models.Category `json:"category" validate:"omitempty,oneof=Music Photography Technology Clothes Kitchen Sports Decoration Books Other"`
}

// StuffQuery narrows the item list
type StuffQuery struct {
	Text        string
	Category    models.Category
	Price       *float64
	HasOffer    *bool
	OfferPrice  *float64
	IsMine      bool
	OtherUserID string
	SortBy      string
}

// StuffService handles items other than their deletion
type StuffService struct {
	users     UserStore
	stuff     StuffStore
	comments  CommentStore
	projector *Projector
	views     *ViewGate
	files     FileStore
}

// NewStuffService creates a new stuff service
func NewStuffService(stores Stores, projector *Projector, views *ViewGate, files FileStore) *StuffService {
	return &StuffService{
		users:     stores.Users,
		stuff:     stores.Stuff,
		comments:  stores.Comments,
		projector: projector,
		views:     views,
		files:     files,
	}
}

// checkImage accepts the placeholder, an absolute URL or one of the owner's uploads
func (s *StuffService) checkImage(ctx context.Context, ownerID, image string) error {
	if image == models.DefaultStuffImage || strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return nil
	}
	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		return storeErr(err)
	}
	if !ownsUpload(owner, image) {
		return validationError("image", "owned_upload")
	}
	return nil
}

// Create posts a new item owned by ownerID
func (s *StuffService) Create(ctx context.Context, ownerID string, req CreateStuffRequest) (*StuffView, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.ShoppingLink = strings.TrimSpace(req.ShoppingLink)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.HasOffer && req.OfferPrice == nil {
		return nil, validationError("offer_price", "required_if")
	}

	if req.Image == "" {
		req.Image = models.DefaultStuffImage
	}
	if err := s.checkImage(ctx, ownerID, req.Image); err != nil {
		return nil, err
	}
	if req.Description == "" {
		req.Description = "This product has no description"
	}
	if req.Category == "" {
		req.Category = models.CategoryOther
	}

	now := time.Now()
	item := &models.Stuff{
		ID:           uuid.New().String(),
		OwnerID:      ownerID,
		Title:        req.Title,
		Description:  req.Description,
		Image:        req.Image,
		Price:        req.Price,
		HasOffer:     req.HasOffer,
		ShoppingLink: req.ShoppingLink,
		Category:     req.Category,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.OfferPrice != nil {
		item.OfferPrice = *req.OfferPrice
	}

	if err := s.stuff.Create(ctx, item); err != nil {
		return nil, storeErr(err)
	}

	log.Info().Str("user_id", ownerID).Str("stuff_id", item.ID).Msg("Stuff created")
	return s.projector.StuffOne(ctx, item, ownerID)
}

// List returns a page of items and the unpaged total
func (s *StuffService) List(ctx context.Context, viewerID string, q StuffQuery, page pagination.Params) ([]StuffView, int, error) {
	filter := repository.StuffFilter{
		Text:     q.Text,
		Category: q.Category,
		Price:    q.Price,
		HasOffer: q.HasOffer,
		Sort:     repository.ParseSort(q.SortBy, false),
	}
	if q.HasOffer != nil && *q.HasOffer {
		filter.OfferPrice = q.OfferPrice
	}
	switch {
	case q.IsMine:
		filter.OwnerID = viewerID
	case q.OtherUserID != "":
		filter.OwnerID = q.OtherUserID
	default:
		filter.ExcludeOwnerID = viewerID
	}

	items, total, err := s.stuff.List(ctx, filter, page.Limit, page.Skip)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	views, err := s.projector.Stuff(ctx, items, viewerID)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// Get returns an item with its ratings, questions and answers
func (s *StuffService) Get(ctx context.Context, viewerID, stuffID string) (*StuffDetail, error) {
	item, err := s.stuff.GetByID(ctx, stuffID)
	if err != nil {
		return nil, storeErr(err)
	}

	ratings, err := s.comments.RatingsByStuff(ctx, stuffID)
	if err != nil {
		return nil, storeErr(err)
	}
	questions, err := s.comments.QuestionsByStuff(ctx, stuffID)
	if err != nil {
		return nil, storeErr(err)
	}
	questionIDs := make([]string, 0, len(questions))
	for _, q := range questions {
		questionIDs = append(questionIDs, q.ID)
	}
	answers, err := s.comments.AnswersByQuestions(ctx, questionIDs)
	if err != nil {
		return nil, storeErr(err)
	}

	return s.projector.StuffDetail(ctx, item, ratings, questions, answers, viewerID)
}

// Update edits an item owned by ownerID
func (s *StuffService) Update(ctx context.Context, ownerID, stuffID string, req UpdateStuffRequest) (*StuffView, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	item, err := s.stuff.GetByID(ctx, stuffID)
	if err != nil {
		return nil, storeErr(err)
	}
	if item.OwnerID != ownerID {
		return nil, ErrNotFound
	}

	// an offer switched on must come with its price
	if req.HasOffer != nil && *req.HasOffer && !item.HasOffer && req.OfferPrice == nil {
		return nil, validationError("offer_price", "required_if")
	}

	oldImage := item.Image
	if req.Title != nil {
		item.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Image != nil {
		item.Image = *req.Image
		if item.Image == "" {
			item.Image = models.DefaultStuffImage
		}
		if err := s.checkImage(ctx, ownerID, item.Image); err != nil {
			return nil, err
		}
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.HasOffer != nil {
		item.HasOffer = *req.HasOffer
	}
	if req.OfferPrice != nil {
		item.OfferPrice = *req.OfferPrice
	}
	if req.ShoppingLink != nil {
		item.ShoppingLink = strings.TrimSpace(*req.ShoppingLink)
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	item.UpdatedAt = time.Now()

	if err := s.stuff.Update(ctx, item); err != nil {
		return nil, storeErr(err)
	}
	if oldImage != item.Image {
		releaseFile(ctx, s.files, oldImage)
	}

	log.Info().Str("user_id", ownerID).Str("stuff_id", stuffID).Msg("Stuff updated")
	return s.projector.StuffOne(ctx, item, ownerID)
}

// View counts a view of the item, at most once per viewer per gate window
func (s *StuffService) View(ctx context.Context, viewerID, stuffID string) (*StuffView, error) {
	item, err := s.stuff.GetByID(ctx, stuffID)
	if err != nil {
		return nil, storeErr(err)
	}
	if s.views.Allow(ctx, "stuff", stuffID, viewerID) {
		views, err := s.stuff.IncrementViews(ctx, stuffID)
		if err != nil {
			return nil, storeErr(err)
		}
		item.Views = views
	}
	return s.projector.StuffOne(ctx, item, viewerID)
}
