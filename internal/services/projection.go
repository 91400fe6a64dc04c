package services

import (
	"context"
	"slices"
	"strings"
	"time"

	"stuffbox-backend/internal/models"
)

// OwnerSummary replaces an owner/from reference in responses
type OwnerSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	NickName    string `json:"nick_name"`
	AvatarURL   string `json:"avatar_url"`
}

// UserView is the public shape of a user
type UserView struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	NickName    string    `json:"nick_name"`
	Email       string    `json:"email"`
	AvatarURL   string    `json:"avatar_url"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	IsFollowing *bool     `json:"is_following,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StuffView is the public shape of a stuff item
type StuffView struct {
	ID           string          `json:"id"`
	Owner        OwnerSummary    `json:"owner"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	ImageURL     string          `json:"image_url"`
	Price        float64         `json:"price"`
	HasOffer     bool            `json:"has_offer"`
	OfferPrice   float64         `json:"offer_price"`
	ShoppingLink string          `json:"shopping_link"`
	Category     models.Category `json:"category"`
	Views        int64           `json:"views"`
	Likes        int             `json:"likes"`
	IsLiked      bool            `json:"is_liked"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// RatingView is a projected rating comment
type RatingView struct {
	ID        string       `json:"id"`
	From      OwnerSummary `json:"from"`
	Rating    int          `json:"rating"`
	Comment   string       `json:"comment"`
	CreatedAt time.Time    `json:"created_at"`
}

// AnswerView is a projected answer
type AnswerView struct {
	ID        string       `json:"id"`
	From      OwnerSummary `json:"from"`
	Body      string       `json:"body"`
	CreatedAt time.Time    `json:"created_at"`
}

// QuestionView is a projected question with its answers
type QuestionView struct {
	ID        string       `json:"id"`
	From      OwnerSummary `json:"from"`
	Question  string       `json:"question"`
	Answers   []AnswerView `json:"answers"`
	CreatedAt time.Time    `json:"created_at"`
}

// StuffDetail is a stuff item with its comment threads
type StuffDetail struct {
	StuffView
	Ratings   []RatingView   `json:"ratings"`
	Questions []QuestionView `json:"questions"`
}

// CollectionView is the public shape of a collection
type CollectionView struct {
	ID          string       `json:"id"`
	Owner       OwnerSummary `json:"owner"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Stuff       []StuffView  `json:"stuff"`
	TotalStuff  int          `json:"total_stuff"`
	Views       int64        `json:"views"`
	Likes       int          `json:"likes"`
	IsLiked     bool         `json:"is_liked"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Projector builds response documents from stored entities and the viewer's id
type Projector struct {
	users         UserStore
	stuff         StuffStore
	assetsBaseURL string
}

// NewProjector creates a projector. Relative asset keys are prefixed with assetsBaseURL.
func NewProjector(users UserStore, stuff StuffStore, assetsBaseURL string) *Projector {
	return &Projector{users: users, stuff: stuff, assetsBaseURL: assetsBaseURL}
}

// isMember reports viewer-relative membership. Owners always count as members of
// their own content even though they are never stored in its sets.
func isMember(set []string, ownerID, viewerID string) bool {
	if viewerID == ownerID {
		return true
	}
	return slices.Contains(set, viewerID)
}

func (p *Projector) assetURL(key string) string {
	if key == "" || strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key
	}
	return strings.TrimSuffix(p.assetsBaseURL, "/") + "/" + strings.TrimPrefix(key, "/")
}

// Owner builds the embedded summary of a user
func (p *Projector) Owner(u *models.User) OwnerSummary {
	return OwnerSummary{
		ID:          u.ID,
		DisplayName: u.DisplayName(),
		NickName:    u.NickName,
		AvatarURL:   p.assetURL(u.Avatar),
	}
}

// owners loads the summaries of ids in one round trip. Missing users keep only their id.
func (p *Projector) owners(ctx context.Context, ids []string) (map[string]OwnerSummary, error) {
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(unique, id) {
			unique = append(unique, id)
		}
	}
	users, err := p.users.GetByIDs(ctx, unique)
	if err != nil {
		return nil, storeErr(err)
	}
	out := make(map[string]OwnerSummary, len(unique))
	for _, id := range unique {
		out[id] = OwnerSummary{ID: id}
	}
	for _, u := range users {
		out[u.ID] = p.Owner(u)
	}
	return out, nil
}

// User projects u. A non-empty viewerID adds isFollowing.
func (p *Projector) User(u *models.User, viewerID string) UserView {
	view := UserView{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		NickName:  u.NickName,
		Email:     u.Email,
		AvatarURL: p.assetURL(u.Avatar),
		Followers: len(u.Followers),
		Following: len(u.Following),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if viewerID != "" {
		following := isMember(u.Followers, u.ID, viewerID)
		view.IsFollowing = &following
	}
	return view
}

// Users projects a list of users for viewerID
func (p *Projector) Users(users []*models.User, viewerID string) []UserView {
	out := make([]UserView, 0, len(users))
	for _, u := range users {
		out = append(out, p.User(u, viewerID))
	}
	return out
}

func (p *Projector) stuffView(s *models.Stuff, owner OwnerSummary, viewerID string) StuffView {
	return StuffView{
		ID:           s.ID,
		Owner:        owner,
		Title:        s.Title,
		Description:  s.Description,
		ImageURL:     p.assetURL(s.Image),
		Price:        s.Price,
		HasOffer:     s.HasOffer,
		OfferPrice:   s.OfferPrice,
		ShoppingLink: s.ShoppingLink,
		Category:     s.Category,
		Views:        s.Views,
		Likes:        len(s.Likes),
		IsLiked:      isMember(s.Likes, s.OwnerID, viewerID),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// Stuff projects items for viewerID, loading their owners
func (p *Projector) Stuff(ctx context.Context, items []*models.Stuff, viewerID string) ([]StuffView, error) {
	ids := make([]string, 0, len(items))
	for _, s := range items {
		ids = append(ids, s.OwnerID)
	}
	owners, err := p.owners(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]StuffView, 0, len(items))
	for _, s := range items {
		out = append(out, p.stuffView(s, owners[s.OwnerID], viewerID))
	}
	return out, nil
}

// StuffOne projects a single item
func (p *Projector) StuffOne(ctx context.Context, item *models.Stuff, viewerID string) (*StuffView, error) {
	views, err := p.Stuff(ctx, []*models.Stuff{item}, viewerID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func newestFirst[T any](items []T, created func(T) time.Time) {
	slices.SortStableFunc(items, func(a, b T) int {
		return created(b).Compare(created(a))
	})
}

// StuffDetail projects an item with its ratings and questions. Every nested
// list is ordered newest first.
func (p *Projector) StuffDetail(
	ctx context.Context,
	item *models.Stuff,
	ratings []*models.RatingComment,
	questions []*models.QuestionComment,
	answers []*models.Answer,
	viewerID string,
) (*StuffDetail, error) {
	ids := []string{item.OwnerID}
	for _, r := range ratings {
		ids = append(ids, r.FromID)
	}
	for _, q := range questions {
		ids = append(ids, q.FromID)
	}
	for _, a := range answers {
		ids = append(ids, a.FromID)
	}
	owners, err := p.owners(ctx, ids)
	if err != nil {
		return nil, err
	}

	detail := &StuffDetail{
		StuffView: p.stuffView(item, owners[item.OwnerID], viewerID),
		Ratings:   make([]RatingView, 0, len(ratings)),
		Questions: make([]QuestionView, 0, len(questions)),
	}
	for _, r := range ratings {
		detail.Ratings = append(detail.Ratings, RatingView{
			ID: r.ID, From: owners[r.FromID], Rating: r.Rating, Comment: r.Comment, CreatedAt: r.CreatedAt,
		})
	}
	newestFirst(detail.Ratings, func(r RatingView) time.Time { return r.CreatedAt })

	byQuestion := make(map[string][]AnswerView)
	for _, a := range answers {
		byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], AnswerView{
			ID: a.ID, From: owners[a.FromID], Body: a.Body, CreatedAt: a.CreatedAt,
		})
	}
	for _, q := range questions {
		qa := byQuestion[q.ID]
		if qa == nil {
			qa = []AnswerView{}
		}
		newestFirst(qa, func(a AnswerView) time.Time { return a.CreatedAt })
		detail.Questions = append(detail.Questions, QuestionView{
			ID: q.ID, From: owners[q.FromID], Question: q.Question, Answers: qa, CreatedAt: q.CreatedAt,
		})
	}
	newestFirst(detail.Questions, func(q QuestionView) time.Time { return q.CreatedAt })

	return detail, nil
}

// Collection projects c with an already windowed member page. totalStuff is the
// size of the full membership the page was cut from.
func (p *Projector) Collection(ctx context.Context, c *models.Collection, members []*models.Stuff, totalStuff int, viewerID string) (*CollectionView, error) {
	owner, err := p.owners(ctx, []string{c.OwnerID})
	if err != nil {
		return nil, err
	}
	stuff, err := p.Stuff(ctx, members, viewerID)
	if err != nil {
		return nil, err
	}
	view := p.collectionView(c, owner[c.OwnerID], stuff, viewerID)
	view.TotalStuff = totalStuff
	return &view, nil
}

// Collections projects a list of collections with every member expanded
func (p *Projector) Collections(ctx context.Context, cols []*models.Collection, viewerID string) ([]CollectionView, error) {
	var memberIDs, ownerIDs []string
	for _, c := range cols {
		ownerIDs = append(ownerIDs, c.OwnerID)
		for _, id := range c.Stuff {
			if !slices.Contains(memberIDs, id) {
				memberIDs = append(memberIDs, id)
			}
		}
	}

	members, err := p.stuff.GetByIDs(ctx, memberIDs)
	if err != nil {
		return nil, storeErr(err)
	}
	memberViews, err := p.Stuff(ctx, members, viewerID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]StuffView, len(memberViews))
	for _, v := range memberViews {
		byID[v.ID] = v
	}

	owners, err := p.owners(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}

	out := make([]CollectionView, 0, len(cols))
	for _, c := range cols {
		stuff := make([]StuffView, 0, len(c.Stuff))
		for _, id := range c.Stuff {
			if v, ok := byID[id]; ok {
				stuff = append(stuff, v)
			}
		}
		out = append(out, p.collectionView(c, owners[c.OwnerID], stuff, viewerID))
	}
	return out, nil
}

func (p *Projector) collectionView(c *models.Collection, owner OwnerSummary, stuff []StuffView, viewerID string) CollectionView {
	return CollectionView{
		ID:          c.ID,
		Owner:       owner,
		Title:       c.Title,
		Description: c.Description,
		Stuff:       stuff,
		TotalStuff:  len(c.Stuff),
		Views:       c.Views,
		Likes:       len(c.Likes),
		IsLiked:     isMember(c.Likes, c.OwnerID, viewerID),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
