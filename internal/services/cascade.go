package services

import (
	"context"
	"errors"
	"slices"

	"stuffbox-backend/internal/models"
	"stuffbox-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

// pipeline runs the ordered steps of one cascade. Nothing is rolled back: once a
// write step has committed, any later failure is reported as a partial failure.
type pipeline struct {
	op   string
	id   string
	done []string
}

// read runs a step that commits nothing
func (p *pipeline) read(step string, fn func() error) error {
	if err := fn(); err != nil {
		return p.fail(step, err)
	}
	return nil
}

// write runs a step that commits a change and records it
func (p *pipeline) write(step string, fn func() (int64, error)) error {
	n, err := fn()
	if err != nil {
		return p.fail(step, err)
	}
	p.done = append(p.done, step)
	log.Debug().Str("op", p.op).Str("id", p.id).Str("step", step).Int64("affected", n).Msg("Cascade step applied")
	return nil
}

func (p *pipeline) fail(step string, err error) error {
	err = storeErr(err)
	if len(p.done) == 0 {
		return err
	}
	partialFailures.WithLabelValues(p.op, step).Inc()
	log.Error().
		Err(err).
		Str("op", p.op).
		Str("id", p.id).
		Str("step", step).
		Strs("completed", p.done).
		Msg("Cascade stopped after partial commit")
	return &PartialFailureError{Op: p.op, Step: step, Completed: slices.Clone(p.done), Err: err}
}

// CascadeService deletes entities together with every document that depends on
// or references them
type CascadeService struct {
	users       UserStore
	stuff       StuffStore
	collections CollectionStore
	comments    CommentStore
	files       FileStore
}

// NewCascadeService creates a new cascade service. files may be nil.
func NewCascadeService(stores Stores, files FileStore) *CascadeService {
	return &CascadeService{
		users:       stores.Users,
		stuff:       stores.Stuff,
		collections: stores.Collections,
		comments:    stores.Comments,
		files:       files,
	}
}

// gone treats a store not-found on the final delete as success; a concurrent
// run of the same cascade got there first
func gone(n int64, err error) (int64, error) {
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	return n, err
}

func one(err error) (int64, error) {
	err = storeErr(err)
	if err != nil {
		return 0, err
	}
	return 1, nil
}

// DeleteStuff removes an item owned by requesterID and everything hanging off it
func (s *CascadeService) DeleteStuff(ctx context.Context, stuffID, requesterID string) error {
	item, err := s.stuff.GetByID(ctx, stuffID)
	if err != nil {
		return storeErr(err)
	}
	if item.OwnerID != requesterID {
		return ErrNotFound
	}

	err = s.deleteStuff(ctx, item)
	cascadeRuns.WithLabelValues("stuff", outcome(err)).Inc()
	if err == nil {
		log.Info().Str("user_id", requesterID).Str("stuff_id", stuffID).Msg("Stuff deleted")
	}
	return err
}

func (s *CascadeService) deleteStuff(ctx context.Context, item *models.Stuff) error {
	p := &pipeline{op: "delete_stuff", id: item.ID}

	var questionIDs []string
	if err := p.read("list_questions", func() (err error) {
		questionIDs, err = s.comments.QuestionIDsByStuff(ctx, item.ID)
		return err
	}); err != nil {
		return err
	}

	// answers reference questions, so they go first
	if err := p.write("answers", func() (int64, error) {
		return s.comments.DeleteAnswersByQuestions(ctx, questionIDs)
	}); err != nil {
		return err
	}
	if err := p.write("questions", func() (int64, error) {
		return s.comments.DeleteQuestionsByStuff(ctx, item.ID)
	}); err != nil {
		return err
	}
	if err := p.write("ratings", func() (int64, error) {
		return s.comments.DeleteRatingsByStuff(ctx, item.ID)
	}); err != nil {
		return err
	}

	var containing []*models.Collection
	if err := p.read("list_collections", func() (err error) {
		containing, err = s.collections.ListContaining(ctx, item.ID)
		return err
	}); err != nil {
		return err
	}
	for _, c := range containing {
		if err := s.detachFromCollection(ctx, p, c, item.ID); err != nil {
			return err
		}
	}

	if err := p.write("liked_stuff", func() (int64, error) {
		return s.users.StripLikedStuff(ctx, item.ID)
	}); err != nil {
		return err
	}

	releaseFile(ctx, s.files, item.Image)

	return p.write("stuff", func() (int64, error) {
		return gone(one(s.stuff.Delete(ctx, item.ID)))
	})
}

// detachFromCollection removes stuffID from c. A collection left without members
// is deleted and unliked everywhere.
func (s *CascadeService) detachFromCollection(ctx context.Context, p *pipeline, c *models.Collection, stuffID string) error {
	step := "collection:" + c.ID

	onlyMember := !slices.ContainsFunc(c.Stuff, func(id string) bool { return id != stuffID })
	if onlyMember {
		// unlike first so a retry still finds the collection when this fails
		if err := p.write(step+":liked_collections", func() (int64, error) {
			return s.users.StripLikedCollection(ctx, c.ID)
		}); err != nil {
			return err
		}
		var deleted bool
		if err := p.write(step+":delete", func() (n int64, err error) {
			deleted, err = s.collections.DeleteIfOnlyMember(ctx, c.ID, stuffID)
			if deleted {
				n = 1
			}
			return n, err
		}); err != nil {
			return err
		}
		if deleted {
			return nil
		}
		// a member was added since the collection was read, so it survives: hand its
		// likers their liked_collections entry back and fall through to removal
		if err := p.write(step+":relike", func() (int64, error) {
			return s.restoreLikedCollection(ctx, c.ID)
		}); err != nil {
			return err
		}
	}

	var remaining int
	var removed bool
	if err := p.write(step+":remove", func() (n int64, err error) {
		remaining, removed, err = s.collections.RemoveStuff(ctx, c.ID, stuffID)
		if removed {
			n = 1
		}
		return n, err
	}); err != nil {
		return err
	}
	if !removed || remaining > 0 {
		return nil
	}

	var deleted bool
	if err := p.write(step+":delete", func() (n int64, err error) {
		deleted, err = s.collections.DeleteIfEmpty(ctx, c.ID)
		if deleted {
			n = 1
		}
		return n, err
	}); err != nil {
		return err
	}
	if !deleted {
		return nil
	}
	return p.write(step+":liked_collections", func() (int64, error) {
		return s.users.StripLikedCollection(ctx, c.ID)
	})
}

// restoreLikedCollection re-adds collectionID to the liked list of every user the
// collection still lists in its likes
func (s *CascadeService) restoreLikedCollection(ctx context.Context, collectionID string) (int64, error) {
	current, err := s.collections.GetByID(ctx, collectionID)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var n int64
	for _, userID := range current.Likes {
		added, err := s.users.AddToList(ctx, userID, repository.ListLikedCollections, collectionID)
		if err != nil {
			return n, err
		}
		if added {
			n++
		}
	}
	return n, nil
}

// DeleteCollection removes a collection owned by requesterID and unlikes it everywhere.
// Member items are not touched.
func (s *CascadeService) DeleteCollection(ctx context.Context, collectionID, requesterID string) error {
	c, err := s.collections.GetByID(ctx, collectionID)
	if err != nil {
		return storeErr(err)
	}
	if c.OwnerID != requesterID {
		return ErrNotFound
	}

	err = s.deleteCollection(ctx, c)
	cascadeRuns.WithLabelValues("collection", outcome(err)).Inc()
	if err == nil {
		log.Info().Str("user_id", requesterID).Str("collection_id", collectionID).Msg("Collection deleted")
	}
	return err
}

func (s *CascadeService) deleteCollection(ctx context.Context, c *models.Collection) error {
	p := &pipeline{op: "delete_collection", id: c.ID}

	// references go before the document so a failed run can be retried
	if err := p.write("liked_collections", func() (int64, error) {
		return s.users.StripLikedCollection(ctx, c.ID)
	}); err != nil {
		return err
	}
	return p.write("collection", func() (int64, error) {
		return gone(one(s.collections.Delete(ctx, c.ID)))
	})
}

// DeleteQuestionComment removes a question written by requesterID together with its answers
func (s *CascadeService) DeleteQuestionComment(ctx context.Context, questionID, requesterID string) error {
	q, err := s.comments.GetQuestion(ctx, questionID)
	if err != nil {
		return storeErr(err)
	}
	if q.FromID != requesterID {
		return ErrNotFound
	}

	p := &pipeline{op: "delete_question", id: questionID}
	ids := []string{questionID}
	err = p.write("answers", func() (int64, error) {
		return s.comments.DeleteAnswersByQuestions(ctx, ids)
	})
	if err == nil {
		err = p.write("question", func() (int64, error) {
			return s.comments.DeleteQuestions(ctx, ids)
		})
	}
	cascadeRuns.WithLabelValues("question", outcome(err)).Inc()
	return err
}

// DeleteUser removes an account with all of its content and every reference other
// documents hold to it. The user row goes last so a failed run can be repeated.
func (s *CascadeService) DeleteUser(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return storeErr(err)
	}

	err = s.deleteUser(ctx, user)
	cascadeRuns.WithLabelValues("user", outcome(err)).Inc()
	if err == nil {
		log.Info().Str("user_id", userID).Msg("User deleted")
	}
	return err
}

func (s *CascadeService) deleteUser(ctx context.Context, user *models.User) error {
	p := &pipeline{op: "delete_user", id: user.ID}

	var stuffIDs []string
	if err := p.read("list_stuff", func() (err error) {
		stuffIDs, err = s.stuff.IDsByOwner(ctx, user.ID)
		return err
	}); err != nil {
		return err
	}
	for _, id := range stuffIDs {
		if err := p.write("stuff:"+id, func() (int64, error) {
			item, err := s.stuff.GetByID(ctx, id)
			if err != nil {
				return gone(0, storeErr(err))
			}
			return one(s.deleteStuff(ctx, item))
		}); err != nil {
			return err
		}
	}

	var collectionIDs []string
	if err := p.read("list_collections", func() (err error) {
		collectionIDs, err = s.collections.IDsByOwner(ctx, user.ID)
		return err
	}); err != nil {
		return err
	}
	for _, id := range collectionIDs {
		if err := p.write("collection:"+id, func() (int64, error) {
			c, err := s.collections.GetByID(ctx, id)
			if err != nil {
				return gone(0, storeErr(err))
			}
			return one(s.deleteCollection(ctx, c))
		}); err != nil {
			return err
		}
	}

	steps := []struct {
		name string
		fn   func() (int64, error)
	}{
		{"stuff_likes", func() (int64, error) { return s.stuff.StripLikesBy(ctx, user.ID) }},
		{"collection_likes", func() (int64, error) { return s.collections.StripLikesBy(ctx, user.ID) }},
		{"follow_refs", func() (int64, error) { return s.users.StripFollowRefs(ctx, user.ID) }},
		{"answers", func() (int64, error) { return s.comments.DeleteAnswersByAuthor(ctx, user.ID) }},
	}
	for _, st := range steps {
		if err := p.write(st.name, st.fn); err != nil {
			return err
		}
	}

	var questionIDs []string
	if err := p.read("list_questions", func() (err error) {
		questionIDs, err = s.comments.QuestionIDsByAuthor(ctx, user.ID)
		return err
	}); err != nil {
		return err
	}
	if err := p.write("question_answers", func() (int64, error) {
		return s.comments.DeleteAnswersByQuestions(ctx, questionIDs)
	}); err != nil {
		return err
	}
	if err := p.write("questions", func() (int64, error) {
		return s.comments.DeleteQuestions(ctx, questionIDs)
	}); err != nil {
		return err
	}
	if err := p.write("ratings", func() (int64, error) {
		return s.comments.DeleteRatingsByAuthor(ctx, user.ID)
	}); err != nil {
		return err
	}

	releaseFile(ctx, s.files, user.Avatar)

	return p.write("user", func() (int64, error) {
		return gone(one(s.users.Delete(ctx, user.ID)))
	})
}
