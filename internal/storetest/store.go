// Package storetest provides an in-memory entity store with the same set
// semantics as the Postgres repositories, for package tests.
package storetest

import (
	"fmt"
	"slices"
	"sync"

	"stuffbox-backend/internal/models"
	"stuffbox-backend/internal/repository"
)

// Store holds every entity kind behind one mutex. Each method call is the
// equivalent of one single-row statement.
type Store struct {
	mu sync.Mutex

	users       []*models.User
	stuff       []*models.Stuff
	collections []*models.Collection
	ratings     []*models.RatingComment
	questions   []*models.QuestionComment
	answers     []*models.Answer

	failures map[string]error
}

// New creates an empty store
func New() *Store {
	return &Store{failures: make(map[string]error)}
}

// FailOn makes every call of op (for example "users.AddToList") return err
// until cleared with a nil err.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *Store) fail(op string) error {
	if err, ok := s.failures[op]; ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Users returns the user half of the store
func (s *Store) Users() *Users { return &Users{s: s} }

// Stuff returns the stuff half of the store
func (s *Store) Stuff() *Stuff { return &Stuff{s: s} }

// Collections returns the collection half of the store
func (s *Store) Collections() *Collections { return &Collections{s: s} }

// Comments returns the comment half of the store
func (s *Store) Comments() *Comments { return &Comments{s: s} }

func notFound(op string) error {
	return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
}

func find[T any](items []T, id func(T) string, want string) (int, T) {
	for i, item := range items {
		if id(item) == want {
			return i, item
		}
	}
	var zero T
	return -1, zero
}

// addTo inserts v into set unless present, reporting whether it changed
func addTo(set []string, v string, front bool) ([]string, bool) {
	if slices.Contains(set, v) {
		return set, false
	}
	if front {
		return append([]string{v}, set...), true
	}
	return append(slices.Clone(set), v), true
}

// removeFrom deletes every occurrence of v, reporting whether it changed
func removeFrom(set []string, v string) ([]string, bool) {
	if !slices.Contains(set, v) {
		return set, false
	}
	return slices.DeleteFunc(slices.Clone(set), func(x string) bool { return x == v }), true
}

func window[T any](items []T, limit, skip int) []T {
	if skip >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	return items[skip:end]
}

// orderItems sorts by a whitelisted field. Unknown fields keep creation order.
func orderItems[T any](items []T, sort repository.Sort, compare func(a, b T, field string) (int, bool)) {
	if len(items) < 2 {
		return
	}
	if _, ok := compare(items[0], items[0], sort.Field); !ok {
		return
	}
	slices.SortStableFunc(items, func(a, b T) int {
		c, _ := compare(a, b, sort.Field)
		if sort.Desc {
			return -c
		}
		return c
	})
}

func clone(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return slices.Clone(ids)
}
