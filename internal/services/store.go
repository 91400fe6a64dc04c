package services

import (
	"context"

	"stuffbox-backend/internal/models"
	"stuffbox-backend/internal/repository"
)

// UserStore is the user half of the entity store
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	List(ctx context.Context, filter repository.UserFilter, limit, skip int) ([]*models.User, int, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdateAvatar(ctx context.Context, userID, avatar string) error
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
	Delete(ctx context.Context, id string) error

	AddToken(ctx context.Context, userID, token string) error
	RemoveToken(ctx context.Context, userID, token string) error
	ClearTokens(ctx context.Context, userID string) error
	HasToken(ctx context.Context, userID, token string) (bool, error)

	AddToList(ctx context.Context, userID string, list repository.UserList, value string) (bool, error)
	RemoveFromList(ctx context.Context, userID string, list repository.UserList, value string) (bool, error)
	StripLikedStuff(ctx context.Context, stuffID string) (int64, error)
	StripLikedCollection(ctx context.Context, collectionID string) (int64, error)
	StripFollowRefs(ctx context.Context, userID string) (int64, error)
}

// StuffStore persists stuff items
type StuffStore interface {
	Create(ctx context.Context, s *models.Stuff) error
	GetByID(ctx context.Context, id string) (*models.Stuff, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.Stuff, error)
	List(ctx context.Context, filter repository.StuffFilter, limit, skip int) ([]*models.Stuff, int, error)
	Update(ctx context.Context, s *models.Stuff) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) (int64, error)
	AddLike(ctx context.Context, stuffID, userID string) (bool, error)
	RemoveLike(ctx context.Context, stuffID, userID string) (bool, error)
	IDsByOwner(ctx context.Context, ownerID string) ([]string, error)
	StripLikesBy(ctx context.Context, userID string) (int64, error)
}

// CollectionStore persists collections
type CollectionStore interface {
	Create(ctx context.Context, c *models.Collection) error
	GetByID(ctx context.Context, id string) (*models.Collection, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.Collection, error)
	List(ctx context.Context, filter repository.CollectionFilter, limit, skip int) ([]*models.Collection, int, error)
	UpdateMeta(ctx context.Context, c *models.Collection) error
	ReplaceStuff(ctx context.Context, collectionID, ownerID string, prev, next []string) (bool, error)
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) (int64, error)
	AddLike(ctx context.Context, collectionID, userID string) (bool, error)
	RemoveLike(ctx context.Context, collectionID, userID string) (bool, error)
	AddStuff(ctx context.Context, collectionID string, stuffIDs []string) (bool, error)
	RemoveStuff(ctx context.Context, collectionID, stuffID string) (int, bool, error)
	ListContaining(ctx context.Context, stuffID string) ([]*models.Collection, error)
	DeleteIfOnlyMember(ctx context.Context, collectionID, stuffID string) (bool, error)
	DeleteIfEmpty(ctx context.Context, collectionID string) (bool, error)
	IDsByOwner(ctx context.Context, ownerID string) ([]string, error)
	StripLikesBy(ctx context.Context, userID string) (int64, error)
}

// CommentStore persists ratings, questions and answers
type CommentStore interface {
	CreateRating(ctx context.Context, c *models.RatingComment) error
	CreateQuestion(ctx context.Context, q *models.QuestionComment) error
	CreateAnswer(ctx context.Context, a *models.Answer) error
	GetQuestion(ctx context.Context, id string) (*models.QuestionComment, error)
	RatingsByStuff(ctx context.Context, stuffID string) ([]*models.RatingComment, error)
	QuestionsByStuff(ctx context.Context, stuffID string) ([]*models.QuestionComment, error)
	AnswersByQuestions(ctx context.Context, questionIDs []string) ([]*models.Answer, error)
	QuestionIDsByStuff(ctx context.Context, stuffID string) ([]string, error)
	QuestionIDsByAuthor(ctx context.Context, fromID string) ([]string, error)
	DeleteAnswersByQuestions(ctx context.Context, questionIDs []string) (int64, error)
	DeleteQuestions(ctx context.Context, questionIDs []string) (int64, error)
	DeleteQuestionsByStuff(ctx context.Context, stuffID string) (int64, error)
	DeleteRatingsByStuff(ctx context.Context, stuffID string) (int64, error)
	DeleteAnswersByAuthor(ctx context.Context, fromID string) (int64, error)
	DeleteRatingsByAuthor(ctx context.Context, fromID string) (int64, error)
}

// Stores bundles the entity store halves
type Stores struct {
	Users       UserStore
	Stuff       StuffStore
	Collections CollectionStore
	Comments    CommentStore
}
