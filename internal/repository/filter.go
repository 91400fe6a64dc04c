package repository

import (
	"stuffbox-backend/internal/models"
)

// UserFilter narrows user searches
type UserFilter struct {
	Text      string // matches first, last or nick name
	NickName  string
	FirstName string
	LastName  string
	Email     string
	OnlyID    string
	ExcludeID string
	Sort      Sort
}

// Match applies the filter to a loaded user
func (f UserFilter) Match(u *models.User) bool {
	if f.Text != "" && !containsFold(u.FirstName, f.Text) && !containsFold(u.LastName, f.Text) && !containsFold(u.NickName, f.Text) {
		return false
	}
	if f.NickName != "" && u.NickName != f.NickName {
		return false
	}
	if f.FirstName != "" && u.FirstName != f.FirstName {
		return false
	}
	if f.LastName != "" && u.LastName != f.LastName {
		return false
	}
	if f.Email != "" && u.Email != f.Email {
		return false
	}
	if f.OnlyID != "" && u.ID != f.OnlyID {
		return false
	}
	if f.ExcludeID != "" && u.ID == f.ExcludeID {
		return false
	}
	return true
}

func (f UserFilter) build(b *queryBuilder) {
	if f.Text != "" {
		p := b.arg(likePattern(f.Text))
		b.where("(first_name ILIKE " + p + " OR last_name ILIKE " + p + " OR nick_name ILIKE " + p + ")")
	}
	if f.NickName != "" {
		b.where("nick_name = " + b.arg(f.NickName))
	}
	if f.FirstName != "" {
		b.where("first_name = " + b.arg(f.FirstName))
	}
	if f.LastName != "" {
		b.where("last_name = " + b.arg(f.LastName))
	}
	if f.Email != "" {
		b.where("email = " + b.arg(f.Email))
	}
	if f.OnlyID != "" {
		b.where("id = " + b.arg(f.OnlyID) + "::uuid")
	}
	if f.ExcludeID != "" {
		b.where("id <> " + b.arg(f.ExcludeID) + "::uuid")
	}
}

// StuffFilter narrows stuff searches
type StuffFilter struct {
	Text           string // matches title or description
	Category       models.Category
	Price          *float64
	HasOffer       *bool
	OfferPrice     *float64
	OwnerID        string
	ExcludeOwnerID string
	Sort           Sort
}

// Match applies the filter to a loaded item
func (f StuffFilter) Match(s *models.Stuff) bool {
	if f.Text != "" && !containsFold(s.Title, f.Text) && !containsFold(s.Description, f.Text) {
		return false
	}
	if f.Category != "" && s.Category != f.Category {
		return false
	}
	if f.Price != nil && s.Price != *f.Price {
		return false
	}
	if f.HasOffer != nil && s.HasOffer != *f.HasOffer {
		return false
	}
	if f.OfferPrice != nil && s.OfferPrice != *f.OfferPrice {
		return false
	}
	if f.OwnerID != "" && s.OwnerID != f.OwnerID {
		return false
	}
	if f.ExcludeOwnerID != "" && s.OwnerID == f.ExcludeOwnerID {
		return false
	}
	return true
}

func (f StuffFilter) build(b *queryBuilder) {
	if f.Text != "" {
		p := b.arg(likePattern(f.Text))
		b.where("(title ILIKE " + p + " OR description ILIKE " + p + ")")
	}
	if f.Category != "" {
		b.where("category = " + b.arg(string(f.Category)))
	}
	if f.Price != nil {
		b.where("price = " + b.arg(*f.Price))
	}
	if f.HasOffer != nil {
		b.where("has_offer = " + b.arg(*f.HasOffer))
	}
	if f.OfferPrice != nil {
		b.where("offer_price = " + b.arg(*f.OfferPrice))
	}
	if f.OwnerID != "" {
		b.where("owner_id = " + b.arg(f.OwnerID) + "::uuid")
	}
	if f.ExcludeOwnerID != "" {
		b.where("owner_id <> " + b.arg(f.ExcludeOwnerID) + "::uuid")
	}
}

// CollectionFilter narrows collection searches
type CollectionFilter struct {
	Text           string // matches title or description
	OwnerID        string
	ExcludeOwnerID string
	Sort           Sort
}

// Match applies the filter to a loaded collection
func (f CollectionFilter) Match(c *models.Collection) bool {
	if f.Text != "" && !containsFold(c.Title, f.Text) && !containsFold(c.Description, f.Text) {
		return false
	}
	if f.OwnerID != "" && c.OwnerID != f.OwnerID {
		return false
	}
	if f.ExcludeOwnerID != "" && c.OwnerID == f.ExcludeOwnerID {
		return false
	}
	return true
}

func (f CollectionFilter) build(b *queryBuilder) {
	if f.Text != "" {
		p := b.arg(likePattern(f.Text))
		b.where("(title ILIKE " + p + " OR description ILIKE " + p + ")")
	}
	if f.OwnerID != "" {
		b.where("owner_id = " + b.arg(f.OwnerID) + "::uuid")
	}
	if f.ExcludeOwnerID != "" {
		b.where("owner_id <> " + b.arg(f.ExcludeOwnerID) + "::uuid")
	}
}

var (
	userSortColumns = map[string]string{
		"createdAt": "created_at",
		"updatedAt": "updated_at",
		"firstName": "first_name",
		"lastName":  "last_name",
		"nickName":  "nick_name",
	}
	stuffSortColumns = map[string]string{
		"createdAt":  "created_at",
		"updatedAt":  "updated_at",
		"title":      "title",
		"price":      "price",
		"offerPrice": "offer_price",
		"views":      "views",
		"likes":      "cardinality(likes)",
	}
	collectionSortColumns = map[string]string{
		"createdAt": "created_at",
		"updatedAt": "updated_at",
		"title":     "title",
		"views":     "views",
		"likes":     "cardinality(likes)",
	}
)
