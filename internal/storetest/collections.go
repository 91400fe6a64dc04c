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

// Collections is the in-memory collection store
type Collections struct {
	s *Store
}

func collectionID(c *models.Collection) string { return c.ID }

func cloneCollection(c *models.Collection) *models.Collection {
	out := *c
	out.Stuff = clone(c.Stuff)
	out.Likes = clone(c.Likes)
	return &out
}

func compareCollections(a, b *models.Collection, field string) (int, bool) {
	switch field {
	case "createdAt":
		return a.CreatedAt.Compare(b.CreatedAt), true
	case "updatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt), true
	case "title":
		return strings.Compare(a.Title, b.Title), true
	case "views":
		return cmp.Compare(a.Views, b.Views), true
	case "likes":
		return cmp.Compare(len(a.Likes), len(b.Likes)), true
	}
	return 0, false
}

func (r *Collections) Create(_ context.Context, c *models.Collection) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("collections.Create"); err != nil {
		return err
	}
	if i, _ := find(r.s.collections, collectionID, c.ID); i >= 0 {
		return fmt.Errorf("create collection: %w", repository.ErrDuplicate)
	}
	r.s.collections = append(r.s.collections, cloneCollection(c))
	return nil
}

func (r *Collections) GetByID(_ context.Context, id string) (*models.Collection, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("collections.GetByID"); err != nil {
		return nil, err
	}
	if _, c := find(r.s.collections, collectionID, id); c != nil {
		return cloneCollection(c), nil
	}
	return nil, notFound("get collection")
}

func (r *Collections) GetByIDs(_ context.Context, ids []string) ([]*models.Collection, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Collection
	for _, id := range ids {
		if _, c := find(r.s.collections, collectionID, id); c != nil {
			out = append(out, cloneCollection(c))
		}
	}
	return out, nil
}

func (r *Collections) List(_ context.Context, filter repository.CollectionFilter, limit, skip int) ([]*models.Collection, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("collections.List"); err != nil {
		return nil, 0, err
	}
	var matched []*models.Collection
	for _, c := range r.s.collections {
		if filter.Match(c) {
			matched = append(matched, cloneCollection(c))
		}
	}
	orderItems(matched, filter.Sort, compareCollections)
	return window(matched, limit, skip), len(matched), nil
}

func (r *Collections) UpdateMeta(_ context.Context, c *models.Collection) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("collections.UpdateMeta"); err != nil {
		return err
	}
	_, stored := find(r.s.collections, collectionID, c.ID)
	if stored == nil || stored.OwnerID != c.OwnerID {
		return notFound("update collection")
	}
	stored.Title, stored.Description = c.Title, c.Description
	stored.UpdatedAt = c.UpdatedAt
	return nil
}

func (r *Collections) ReplaceStuff(_ context.Context, id, ownerID string, prev, next []string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("collections.ReplaceStuff"); err != nil {
		return false, err
	}
	_, stored := find(r.s.collections, collectionID, id)
	if stored == nil || stored.OwnerID != ownerID || !slices.Equal(stored.Stuff, prev) {
		return false, nil
	}
	for _, m := range next {
		if i, _ := find(r.s.stuff, stuffID, m); i < 0 {
			return false, nil
		}
	}
	stored.Stuff = clone(next)
	return true, nil
}

func (r *Collections) deleteWhere(op, id string, guard func(*models.Collection) bool) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail(op); err != nil {
		return false, err
	}
	i, c := find(r.s.collections, collectionID, id)
	if i < 0 || !guard(c) {
		return false, nil
	}
	r.s.collections = slices.Delete(r.s.collections, i, i+1)
	return true, nil
}

func (r *Collections) Delete(_ context.Context, id string) error {
	deleted, err := r.deleteWhere("collections.Delete", id, func(*models.Collection) bool { return true })
	if err == nil && !deleted {
		err = notFound("delete collection")
	}
	return err
}

func (r *Collections) IncrementViews(_ context.Context, id string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("collections.IncrementViews"); err != nil {
		return 0, err
	}
	_, c := find(r.s.collections, collectionID, id)
	if c == nil {
		return 0, notFound("increment collection views")
	}
	c.Views++
	return c.Views, nil
}

func (r *Collections) mutate(op, id string, fn func(c *models.Collection) bool) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail(op); err != nil {
		return false, err
	}
	_, c := find(r.s.collections, collectionID, id)
	if c == nil {
		return false, nil
	}
	return fn(c), nil
}

func (r *Collections) AddLike(_ context.Context, id, userID string) (bool, error) {
	return r.mutate("collections.AddLike", id, func(c *models.Collection) bool {
		var changed bool
		c.Likes, changed = addTo(c.Likes, userID, false)
		return changed
	})
}

func (r *Collections) RemoveLike(_ context.Context, id, userID string) (bool, error) {
	return r.mutate("collections.RemoveLike", id, func(c *models.Collection) bool {
		var changed bool
		c.Likes, changed = removeFrom(c.Likes, userID)
		return changed
	})
}

func (r *Collections) AddStuff(_ context.Context, id string, stuffIDs []string) (bool, error) {
	return r.mutate("collections.AddStuff", id, func(c *models.Collection) bool {
		for _, s := range stuffIDs {
			if slices.Contains(c.Stuff, s) {
				return false
			}
		}
		c.Stuff = append(clone(c.Stuff), stuffIDs...)
		return true
	})
}

func (r *Collections) RemoveStuff(_ context.Context, id, stuffID string) (int, bool, error) {
	var remaining int
	removed, err := r.mutate("collections.RemoveStuff", id, func(c *models.Collection) bool {
		var changed bool
		c.Stuff, changed = removeFrom(c.Stuff, stuffID)
		remaining = len(c.Stuff)
		return changed
	})
	if !removed {
		remaining = 0
	}
	return remaining, removed, err
}

func (r *Collections) ListContaining(_ context.Context, stuffID string) ([]*models.Collection, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("collections.ListContaining"); err != nil {
		return nil, err
	}
	var out []*models.Collection
	for _, c := range r.s.collections {
		if slices.Contains(c.Stuff, stuffID) {
			out = append(out, cloneCollection(c))
		}
	}
	return out, nil
}

func (r *Collections) DeleteIfOnlyMember(_ context.Context, id, stuffID string) (bool, error) {
	return r.deleteWhere("collections.DeleteIfOnlyMember", id, func(c *models.Collection) bool {
		for _, s := range c.Stuff {
			if s != stuffID {
				return false
			}
		}
		return true
	})
}

func (r *Collections) DeleteIfEmpty(_ context.Context, id string) (bool, error) {
	return r.deleteWhere("collections.DeleteIfEmpty", id, func(c *models.Collection) bool {
		return len(c.Stuff) == 0
	})
}

func (r *Collections) IDsByOwner(_ context.Context, ownerID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("collections.IDsByOwner"); err != nil {
		return nil, err
	}
	var ids []string
	for _, c := range r.s.collections {
		if c.OwnerID == ownerID {
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

func (r *Collections) StripLikesBy(_ context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("collections.StripLikesBy"); err != nil {
		return 0, err
	}
	var n int64
	for _, c := range r.s.collections {
		var changed bool
		if c.Likes, changed = removeFrom(c.Likes, userID); changed {
			n++
		}
	}
	return n, nil
}
