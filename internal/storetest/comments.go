package storetest

import (
	"context"
	"slices"

	"stuffbox-backend/internal/models"
)

// Comments is the in-memory comment store
type Comments struct {
	s *Store
}

// newestFirst returns the matching items, latest created first
func newestFirst[T any](items []*T, keep func(*T) bool, created func(*T) int64) []*T {
	var out []*T
	for i := len(items) - 1; i >= 0; i-- {
		if keep(items[i]) {
			c := *items[i]
			out = append(out, &c)
		}
	}
	slices.SortStableFunc(out, func(a, b *T) int {
		switch ca, cb := created(a), created(b); {
		case ca > cb:
			return -1
		case ca < cb:
			return 1
		}
		return 0
	})
	return out
}

func (r *Comments) CreateRating(_ context.Context, c *models.RatingComment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("comments.CreateRating"); err != nil {
		return err
	}
	stored := *c
	r.s.ratings = append(r.s.ratings, &stored)
	return nil
}

func (r *Comments) CreateQuestion(_ context.Context, q *models.QuestionComment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("comments.CreateQuestion"); err != nil {
		return err
	}
	stored := *q
	r.s.questions = append(r.s.questions, &stored)
	return nil
}

func (r *Comments) CreateAnswer(_ context.Context, a *models.Answer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("comments.CreateAnswer"); err != nil {
		return err
	}
	stored := *a
	r.s.answers = append(r.s.answers, &stored)
	return nil
}

func (r *Comments) GetQuestion(_ context.Context, id string) (*models.QuestionComment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, q := range r.s.questions {
		if q.ID == id {
			c := *q
			return &c, nil
		}
	}
	return nil, notFound("get question comment")
}

// Answer looks up an answer by id; tests use it to check nothing was orphaned
func (r *Comments) Answer(id string) (*models.Answer, bool) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.answers {
		if a.ID == id {
			c := *a
			return &c, true
		}
	}
	return nil, false
}

func (r *Comments) RatingsByStuff(_ context.Context, stuffID string) ([]*models.RatingComment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("comments.RatingsByStuff"); err != nil {
		return nil, err
	}
	return newestFirst(r.s.ratings,
		func(c *models.RatingComment) bool { return c.StuffID == stuffID },
		func(c *models.RatingComment) int64 { return c.CreatedAt.UnixNano() },
	), nil
}

func (r *Comments) QuestionsByStuff(_ context.Context, stuffID string) ([]*models.QuestionComment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("comments.QuestionsByStuff"); err != nil {
		return nil, err
	}
	return newestFirst(r.s.questions,
		func(q *models.QuestionComment) bool { return q.StuffID == stuffID },
		func(q *models.QuestionComment) int64 { return q.CreatedAt.UnixNano() },
	), nil
}

func (r *Comments) AnswersByQuestions(_ context.Context, questionIDs []string) ([]*models.Answer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("comments.AnswersByQuestions"); err != nil {
		return nil, err
	}
	return newestFirst(r.s.answers,
		func(a *models.Answer) bool { return slices.Contains(questionIDs, a.QuestionID) },
		func(a *models.Answer) int64 { return a.CreatedAt.UnixNano() },
	), nil
}

func (r *Comments) questionIDs(keep func(*models.QuestionComment) bool) []string {
	var ids []string
	for _, q := range r.s.questions {
		if keep(q) {
			ids = append(ids, q.ID)
		}
	}
	return ids
}

func (r *Comments) QuestionIDsByStuff(_ context.Context, stuffID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("comments.QuestionIDsByStuff"); err != nil {
		return nil, err
	}
	return r.questionIDs(func(q *models.QuestionComment) bool { return q.StuffID == stuffID }), nil
}

func (r *Comments) QuestionIDsByAuthor(_ context.Context, fromID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("comments.QuestionIDsByAuthor"); err != nil {
		return nil, err
	}
	return r.questionIDs(func(q *models.QuestionComment) bool { return q.FromID == fromID }), nil
}

// remove deletes the matching items in place and returns how many went
func remove[T any](items *[]*T, drop func(*T) bool) int64 {
	before := len(*items)
	*items = slices.DeleteFunc(*items, drop)
	return int64(before - len(*items))
}

func (r *Comments) DeleteAnswersByQuestions(_ context.Context, questionIDs []string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("comments.DeleteAnswersByQuestions"); err != nil {
		return 0, err
	}
	return remove(&r.s.answers, func(a *models.Answer) bool { return slices.Contains(questionIDs, a.QuestionID) }), nil
}

func (r *Comments) DeleteQuestions(_ context.Context, questionIDs []string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("comments.DeleteQuestions"); err != nil {
		return 0, err
	}
	return remove(&r.s.questions, func(q *models.QuestionComment) bool { return slices.Contains(questionIDs, q.ID) }), nil
}

func (r *Comments) DeleteQuestionsByStuff(_ context.Context, stuffID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("comments.DeleteQuestionsByStuff"); err != nil {
		return 0, err
	}
	return remove(&r.s.questions, func(q *models.QuestionComment) bool { return q.StuffID == stuffID }), nil
}

func (r *Comments) DeleteRatingsByStuff(_ context.Context, stuffID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("comments.DeleteRatingsByStuff"); err != nil {
		return 0, err
	}
	return remove(&r.s.ratings, func(c *models.RatingComment) bool { return c.StuffID == stuffID }), nil
}

func (r *Comments) DeleteAnswersByAuthor(_ context.Context, fromID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("comments.DeleteAnswersByAuthor"); err != nil {
		return 0, err
	}
	return remove(&r.s.answers, func(a *models.Answer) bool { return a.FromID == fromID }), nil
}

func (r *Comments) DeleteRatingsByAuthor(_ context.Context, fromID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("comments.DeleteRatingsByAuthor"); err != nil {
		return 0, err
	}
	return remove(&r.s.ratings, func(c *models.RatingComment) bool { return c.FromID == fromID }), nil
}
