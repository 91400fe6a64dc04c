package storetest

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"stuffbox-backend/internal/models"
	"stuffbox-backend/internal/repository"
)

// Stuff is the in-memory stuff store
type Stuff struct {
	s *Store
}

func stuffID(s *models.Stuff) string { return s.ID }

func cloneStuff(s *models.Stuff) *models.Stuff {
	c := *s
	c.Likes = clone(s.Likes)
	return &c
}

func compareStuff(a, b *models.Stuff, field string) (int, bool) {
	switch field {
	case "createdAt":
		return a.CreatedAt.Compare(b.CreatedAt), true
	case "updatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt), true
	case "title":
		return strings.Compare(a.Title, b.Title), true
	case "price":
		return cmp.Compare(a.Price, b.Price), true
	case "offerPrice":
		return cmp.Compare(a.OfferPrice, b.OfferPrice), true
	case "views":
		return cmp.Compare(a.Views, b.Views), true
	case "likes":
		return cmp.Compare(len(a.Likes), len(b.Likes)), true
	}
	return 0, false
}

func (r *Stuff) Create(_ context.Context, item *models.Stuff) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("stuff.Create"); err != nil {
		return err
	}
	if i, _ := find(r.s.stuff, stuffID, item.ID); i >= 0 {
		return fmt.Errorf("create stuff: %w", repository.ErrDuplicate)
	}
	r.s.stuff = append(r.s.stuff, cloneStuff(item))
	return nil
}

func (r *Stuff) GetByID(_ context.Context, id string) (*models.Stuff, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("stuff.GetByID"); err != nil {
		return nil, err
	}
	if _, item := find(r.s.stuff, stuffID, id); item != nil {
		return cloneStuff(item), nil
	}
	return nil, notFound("get stuff")
}

func (r *Stuff) GetByIDs(_ context.Context, ids []string) ([]*models.Stuff, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("stuff.GetByIDs"); err != nil {
		return nil, err
	}
	var out []*models.Stuff
	for _, id := range ids {
		if _, item := find(r.s.stuff, stuffID, id); item != nil {
			out = append(out, cloneStuff(item))
		}
	}
	return out, nil
}

func (r *Stuff) List(_ context.Context, filter repository.StuffFilter, limit, skip int) ([]*models.Stuff, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("stuff.List"); err != nil {
		return nil, 0, err
	}
	var matched []*models.Stuff
	for _, item := range r.s.stuff {
		if filter.Match(item) {
			matched = append(matched, cloneStuff(item))
		}
	}
	orderItems(matched, filter.Sort, compareStuff)
	return window(matched, limit, skip), len(matched), nil
}

func (r *Stuff) Update(_ context.Context, item *models.Stuff) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("stuff.Update"); err != nil {
		return err
	}
	_, stored := find(r.s.stuff, stuffID, item.ID)
	if stored == nil || stored.OwnerID != item.OwnerID {
		return notFound("update stuff")
	}
	stored.Title, stored.Description, stored.Image = item.Title, item.Description, item.Image
	stored.Price, stored.HasOffer, stored.OfferPrice = item.Price, item.HasOffer, item.OfferPrice
	stored.ShoppingLink, stored.Category = item.ShoppingLink, item.Category
	stored.UpdatedAt = item.UpdatedAt
	return nil
}

func (r *Stuff) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("stuff.Delete"); err != nil {
		return err
	}
	i, _ := find(r.s.stuff, stuffID, id)
	if i < 0 {
		return notFound("delete stuff")
	}
	r.s.stuff = slices.Delete(r.s.stuff, i, i+1)
	return nil
}

func (r *Stuff) IncrementViews(_ context.Context, id string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("stuff.IncrementViews"); err != nil {
		return 0, err
	}
	_, item := find(r.s.stuff, stuffID, id)
	if item == nil {
		return 0, notFound("increment stuff views")
	}
	item.Views++
	return item.Views, nil
}

func (r *Stuff) likes(op, id string, fn func([]string) ([]string, bool)) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail(op); err != nil {
		return false, err
	}
	_, item := find(r.s.stuff, stuffID, id)
	if item == nil {
		return false, nil
	}
	var changed bool
	item.Likes, changed = fn(item.Likes)
	return changed, nil
}

func (r *Stuff) AddLike(_ context.Context, id, userID string) (bool, error) {
	return r.likes("stuff.AddLike", id, func(set []string) ([]string, bool) { return addTo(set, userID, false) })
}

func (r *Stuff) RemoveLike(_ context.Context, id, userID string) (bool, error) {
	return r.likes("stuff.RemoveLike", id, func(set []string) ([]string, bool) { return removeFrom(set, userID) })
}

func (r *Stuff) IDsByOwner(_ context.Context, ownerID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("stuff.IDsByOwner"); err != nil {
		return nil, err
	}
	var ids []string
	for _, item := range r.s.stuff {
		if item.OwnerID == ownerID {
			ids = append(ids, item.ID)
		}
	}
	return ids, nil
}

func (r *Stuff) StripLikesBy(_ context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("stuff.StripLikesBy"); err != nil {
		return 0, err
	}
	var n int64
	for _, item := range r.s.stuff {
		var changed bool
		if item.Likes, changed = removeFrom(item.Likes, userID); changed {
			n++
		}
	}
	return n, nil
}
