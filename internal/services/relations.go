package services

import (
	"context"
	"errors"

	"stuffbox-backend/internal/models"
	"stuffbox-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

// mirror is one relation fact stored on two documents. Each side is a single
// guarded update that reports whether the row changed.
type mirror struct {
	op     string
	target func(ctx context.Context) (bool, error)
	viewer func(ctx context.Context) (bool, error)
}

// RelationService maintains likes and follows on both sides of the relation
type RelationService struct {
	users       UserStore
	stuff       StuffStore
	collections CollectionStore
	projector   *Projector
	notifier    Notifier
}

// NewRelationService creates a new relation service
func NewRelationService(stores Stores, projector *Projector, notifier Notifier) *RelationService {
	return &RelationService{
		users:       stores.Users,
		stuff:       stores.Stuff,
		collections: stores.Collections,
		projector:   projector,
		notifier:    notifier,
	}
}

// selfRelation is the single guard for relations a user would hold with their
// own content or account. Such toggles write nothing and report success.
func selfRelation(viewerID, ownerID string) bool {
	return viewerID == ownerID
}

// add writes the target side first. When the target already holds the fact the
// viewer side is still applied, which heals an earlier failed second write.
func (s *RelationService) add(ctx context.Context, m mirror) error {
	added, err := m.target(ctx)
	if err != nil {
		return s.record(m.op, storeErr(err))
	}

	if _, err := m.viewer(ctx); err != nil {
		if !added {
			return s.record(m.op, storeErr(err))
		}
		return s.record(m.op, &PartialFailureError{
			Op:        m.op,
			Step:      "viewer",
			Completed: []string{"target"},
			Err:       storeErr(err),
		})
	}

	if !added {
		return s.record(m.op, ErrAlreadyInRelation)
	}
	return s.record(m.op, nil)
}

// remove clears both sides. It fails with ErrNotInRelation only when neither
// side held the fact.
func (s *RelationService) remove(ctx context.Context, m mirror) error {
	removed, err := m.target(ctx)
	if err != nil {
		return s.record(m.op, storeErr(err))
	}

	viewerRemoved, err := m.viewer(ctx)
	if err != nil {
		if !removed {
			return s.record(m.op, storeErr(err))
		}
		return s.record(m.op, &PartialFailureError{
			Op:        m.op,
			Step:      "viewer",
			Completed: []string{"target"},
			Err:       storeErr(err),
		})
	}

	if !removed && !viewerRemoved {
		return s.record(m.op, ErrNotInRelation)
	}
	return s.record(m.op, nil)
}

func (s *RelationService) record(op string, err error) error {
	result := outcome(err)
	if errors.Is(err, ErrAlreadyInRelation) || errors.Is(err, ErrNotInRelation) {
		result = "rejected"
	}
	relationToggles.WithLabelValues(op, result).Inc()

	var pf *PartialFailureError
	if errors.As(err, &pf) {
		partialFailures.WithLabelValues(pf.Op, pf.Step).Inc()
		log.Error().Err(pf.Err).Str("op", pf.Op).Str("step", pf.Step).Strs("completed", pf.Completed).Msg("Relation left half applied")
	}
	return err
}

// LikeStuff adds the viewer to the item's likes and the item to the viewer's liked list
func (s *RelationService) LikeStuff(ctx context.Context, viewerID, stuffID string) (*StuffView, error) {
	item, err := s.stuff.GetByID(ctx, stuffID)
	if err != nil {
		return nil, storeErr(err)
	}

	if !selfRelation(viewerID, item.OwnerID) {
		err := s.add(ctx, mirror{
			op: "like_stuff",
			target: func(ctx context.Context) (bool, error) {
				return s.stuff.AddLike(ctx, stuffID, viewerID)
			},
			viewer: func(ctx context.Context) (bool, error) {
				return s.users.AddToList(ctx, viewerID, repository.ListLikedStuff, stuffID)
			},
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("user_id", viewerID).Str("stuff_id", stuffID).Msg("Stuff liked")
		notify(ctx, s.notifier, item.OwnerID, WSMessage{Type: EventStuffLiked, ActorID: viewerID, TargetID: stuffID})
	}

	return s.stuffView(ctx, stuffID, viewerID)
}

// UnlikeStuff removes the like from both sides
func (s *RelationService) UnlikeStuff(ctx context.Context, viewerID, stuffID string) (*StuffView, error) {
	item, err := s.stuff.GetByID(ctx, stuffID)
	if err != nil {
		return nil, storeErr(err)
	}

	if !selfRelation(viewerID, item.OwnerID) {
		err := s.remove(ctx, mirror{
			op: "unlike_stuff",
			target: func(ctx context.Context) (bool, error) {
				return s.stuff.RemoveLike(ctx, stuffID, viewerID)
			},
			viewer: func(ctx context.Context) (bool, error) {
				return s.users.RemoveFromList(ctx, viewerID, repository.ListLikedStuff, stuffID)
			},
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("user_id", viewerID).Str("stuff_id", stuffID).Msg("Stuff unliked")
	}

	return s.stuffView(ctx, stuffID, viewerID)
}

func (s *RelationService) stuffView(ctx context.Context, stuffID, viewerID string) (*StuffView, error) {
	item, err := s.stuff.GetByID(ctx, stuffID)
	if err != nil {
		return nil, storeErr(err)
	}
	return s.projector.StuffOne(ctx, item, viewerID)
}

// LikeCollection adds the viewer to the collection's likes and the collection to
// the viewer's liked list
func (s *RelationService) LikeCollection(ctx context.Context, viewerID, collectionID string) (*CollectionView, error) {
	c, err := s.collections.GetByID(ctx, collectionID)
	if err != nil {
		return nil, storeErr(err)
	}

	if !selfRelation(viewerID, c.OwnerID) {
		err := s.add(ctx, mirror{
			op: "like_collection",
			target: func(ctx context.Context) (bool, error) {
				return s.collections.AddLike(ctx, collectionID, viewerID)
			},
			viewer: func(ctx context.Context) (bool, error) {
				return s.users.AddToList(ctx, viewerID, repository.ListLikedCollections, collectionID)
			},
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("user_id", viewerID).Str("collection_id", collectionID).Msg("Collection liked")
		notify(ctx, s.notifier, c.OwnerID, WSMessage{Type: EventCollectionLiked, ActorID: viewerID, TargetID: collectionID})
	}

	return s.collectionView(ctx, collectionID, viewerID)
}

// UnlikeCollection removes the like from both sides
func (s *RelationService) UnlikeCollection(ctx context.Context, viewerID, collectionID string) (*CollectionView, error) {
	c, err := s.collections.GetByID(ctx, collectionID)
	if err != nil {
		return nil, storeErr(err)
	}

	if !selfRelation(viewerID, c.OwnerID) {
		err := s.remove(ctx, mirror{
			op: "unlike_collection",
			target: func(ctx context.Context) (bool, error) {
				return s.collections.RemoveLike(ctx, collectionID, viewerID)
			},
			viewer: func(ctx context.Context) (bool, error) {
				return s.users.RemoveFromList(ctx, viewerID, repository.ListLikedCollections, collectionID)
			},
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("user_id", viewerID).Str("collection_id", collectionID).Msg("Collection unliked")
	}

	return s.collectionView(ctx, collectionID, viewerID)
}

func (s *RelationService) collectionView(ctx context.Context, collectionID, viewerID string) (*CollectionView, error) {
	c, err := s.collections.GetByID(ctx, collectionID)
	if err != nil {
		return nil, storeErr(err)
	}
	views, err := s.projector.Collections(ctx, []*models.Collection{c}, viewerID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Follow adds targetID to the follower's following set and the follower to the
// target's followers set
func (s *RelationService) Follow(ctx context.Context, followerID, targetID string) (*UserView, error) {
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return nil, storeErr(err)
	}

	if !selfRelation(followerID, targetID) {
		err := s.add(ctx, mirror{
			op: "follow",
			target: func(ctx context.Context) (bool, error) {
				return s.users.AddToList(ctx, targetID, repository.ListFollowers, followerID)
			},
			viewer: func(ctx context.Context) (bool, error) {
				return s.users.AddToList(ctx, followerID, repository.ListFollowing, targetID)
			},
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("user_id", followerID).Str("target_id", targetID).Msg("User followed")
		notify(ctx, s.notifier, targetID, WSMessage{Type: EventFollowed, ActorID: followerID, TargetID: targetID})
	}

	return s.userView(ctx, targetID, followerID)
}

// Unfollow removes the follow from both users
func (s *RelationService) Unfollow(ctx context.Context, followerID, targetID string) (*UserView, error) {
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return nil, storeErr(err)
	}

	if !selfRelation(followerID, targetID) {
		err := s.remove(ctx, mirror{
			op: "unfollow",
			target: func(ctx context.Context) (bool, error) {
				return s.users.RemoveFromList(ctx, targetID, repository.ListFollowers, followerID)
			},
			viewer: func(ctx context.Context) (bool, error) {
				return s.users.RemoveFromList(ctx, followerID, repository.ListFollowing, targetID)
			},
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("user_id", followerID).Str("target_id", targetID).Msg("User unfollowed")
	}

	return s.userView(ctx, targetID, followerID)
}

func (s *RelationService) userView(ctx context.Context, userID, viewerID string) (*UserView, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	view := s.projector.User(u, viewerID)
	return &view, nil
}
