package services

import (
	"context"
	"strings"
	"time"

	"stuffbox-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RatingRequest rates an item
type RatingRequest struct {
	StuffID string `json:"stuff_id" validate:"required,uuid"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// QuestionRequest asks a question on an item
type QuestionRequest struct {
	StuffID  string `json:"stuff_id" validate:"required,uuid"`
	Question string `json:"question" validate:"required,max=2000"`
}

// AnswerRequest answers a question
type AnswerRequest struct {
	Body string `json:"body" validate:"required,max=2000"`
}

// CommentService handles ratings, questions and answers
type CommentService struct {
	users     UserStore
	stuff     StuffStore
	comments  CommentStore
	projector *Projector
	notifier  Notifier
}

// NewCommentService creates a new comment service
func NewCommentService(stores Stores, projector *Projector, notifier Notifier) *CommentService {
	return &CommentService{
		users:     stores.Users,
		stuff:     stores.Stuff,
		comments:  stores.Comments,
		projector: projector,
		notifier:  notifier,
	}
}

func (s *CommentService) author(ctx context.Context, userID string) (OwnerSummary, error) {
	owners, err := s.projector.owners(ctx, []string{userID})
	if err != nil {
		return OwnerSummary{}, err
	}
	return owners[userID], nil
}

// Rate leaves a rating on an existing item
func (s *CommentService) Rate(ctx context.Context, fromID string, req RatingRequest) (*RatingView, error) {
	req.Comment = strings.TrimSpace(req.Comment)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if _, err := s.stuff.GetByID(ctx, req.StuffID); err != nil {
		return nil, storeErr(err)
	}

	now := time.Now()
	c := &models.RatingComment{
		ID:        uuid.New().String(),
		FromID:    fromID,
		StuffID:   req.StuffID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.comments.CreateRating(ctx, c); err != nil {
		return nil, storeErr(err)
	}

	from, err := s.author(ctx, fromID)
	if err != nil {
		return nil, err
	}
	return &RatingView{ID: c.ID, From: from, Rating: c.Rating, Comment: c.Comment, CreatedAt: c.CreatedAt}, nil
}

// Ask posts a question on an existing item and notifies its owner
func (s *CommentService) Ask(ctx context.Context, fromID string, req QuestionRequest) (*QuestionView, error) {
	req.Question = strings.TrimSpace(req.Question)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	item, err := s.stuff.GetByID(ctx, req.StuffID)
	if err != nil {
		return nil, storeErr(err)
	}

	now := time.Now()
	q := &models.QuestionComment{
		ID:        uuid.New().String(),
		FromID:    fromID,
		StuffID:   req.StuffID,
		Question:  req.Question,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.comments.CreateQuestion(ctx, q); err != nil {
		return nil, storeErr(err)
	}

	log.Info().Str("user_id", fromID).Str("stuff_id", req.StuffID).Str("question_id", q.ID).Msg("Question asked")
	notify(ctx, s.notifier, item.OwnerID, WSMessage{Type: EventQuestionAsked, ActorID: fromID, TargetID: q.ID})

	from, err := s.author(ctx, fromID)
	if err != nil {
		return nil, err
	}
	return &QuestionView{ID: q.ID, From: from, Question: q.Question, Answers: []AnswerView{}, CreatedAt: q.CreatedAt}, nil
}

// Answer replies to an existing question and notifies whoever asked it
func (s *CommentService) Answer(ctx context.Context, fromID, questionID string, req AnswerRequest) (*AnswerView, error) {
	req.Body = strings.TrimSpace(req.Body)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	q, err := s.comments.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, storeErr(err)
	}

	now := time.Now()
	a := &models.Answer{
		ID:         uuid.New().String(),
		FromID:     fromID,
		QuestionID: q.ID,
		Body:       req.Body,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.comments.CreateAnswer(ctx, a); err != nil {
		return nil, storeErr(err)
	}

	notify(ctx, s.notifier, q.FromID, WSMessage{Type: EventAnswered, ActorID: fromID, TargetID: q.ID})

	from, err := s.author(ctx, fromID)
	if err != nil {
		return nil, err
	}
	return &AnswerView{ID: a.ID, From: from, Body: a.Body, CreatedAt: a.CreatedAt}, nil
}
