package repository

import (
	"context"

	"stuffbox-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CommentRepository handles rating comments, question comments and their answers
type CommentRepository struct {
	db *pgxpool.Pool
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{db: db}
}

// CreateRating creates a new rating comment
func (r *CommentRepository) CreateRating(ctx context.Context, c *models.RatingComment) error {
	query := `
		INSERT INTO rating_comments (id, from_id, stuff_id, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.db.Exec(ctx, query, c.ID, c.FromID, c.StuffID, c.Rating, c.Comment, c.CreatedAt, c.UpdatedAt); err != nil {
		return wrapErr("create rating comment", err)
	}
	return nil
}

// CreateQuestion creates a new question comment
func (r *CommentRepository) CreateQuestion(ctx context.Context, q *models.QuestionComment) error {
	query := `
		INSERT INTO question_comments (id, from_id, stuff_id, question, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.Exec(ctx, query, q.ID, q.FromID, q.StuffID, q.Question, q.CreatedAt, q.UpdatedAt); err != nil {
		return wrapErr("create question comment", err)
	}
	return nil
}

// CreateAnswer creates a new answer
func (r *CommentRepository) CreateAnswer(ctx context.Context, a *models.Answer) error {
	query := `
		INSERT INTO answers (id, from_id, question_id, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.Exec(ctx, query, a.ID, a.FromID, a.QuestionID, a.Body, a.CreatedAt, a.UpdatedAt); err != nil {
		return wrapErr("create answer", err)
	}
	return nil
}

// GetQuestion retrieves a question comment by ID
func (r *CommentRepository) GetQuestion(ctx context.Context, id string) (*models.QuestionComment, error) {
	query := `SELECT id, from_id, stuff_id, question, created_at, updated_at FROM question_comments WHERE id = $1`
	var q models.QuestionComment
	err := r.db.QueryRow(ctx, query, id).Scan(&q.ID, &q.FromID, &q.StuffID, &q.Question, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, wrapErr("get question comment", err)
	}
	return &q, nil
}

// RatingsByStuff lists the rating comments left on an item, newest first
func (r *CommentRepository) RatingsByStuff(ctx context.Context, stuffID string) ([]*models.RatingComment, error) {
	query := `
		SELECT id, from_id, stuff_id, rating, comment, created_at, updated_at
		FROM rating_comments WHERE stuff_id = $1 ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, stuffID)
	if err != nil {
		return nil, wrapErr("list rating comments", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.RatingComment, error) {
		var c models.RatingComment
		err := row.Scan(&c.ID, &c.FromID, &c.StuffID, &c.Rating, &c.Comment, &c.CreatedAt, &c.UpdatedAt)
		return &c, err
	})
	if err != nil {
		return nil, wrapErr("scan rating comments", err)
	}
	return out, nil
}

// QuestionsByStuff lists the question comments asked on an item, newest first
func (r *CommentRepository) QuestionsByStuff(ctx context.Context, stuffID string) ([]*models.QuestionComment, error) {
	query := `
		SELECT id, from_id, stuff_id, question, created_at, updated_at
		FROM question_comments WHERE stuff_id = $1 ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, stuffID)
	if err != nil {
		return nil, wrapErr("list question comments", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.QuestionComment, error) {
		var q models.QuestionComment
		err := row.Scan(&q.ID, &q.FromID, &q.StuffID, &q.Question, &q.CreatedAt, &q.UpdatedAt)
		return &q, err
	})
	if err != nil {
		return nil, wrapErr("scan question comments", err)
	}
	return out, nil
}

// AnswersByQuestions lists the answers to any of the given questions, newest first
func (r *CommentRepository) AnswersByQuestions(ctx context.Context, questionIDs []string) ([]*models.Answer, error) {
	if len(questionIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT id, from_id, question_id, body, created_at, updated_at
		FROM answers WHERE question_id = ANY($1::uuid[]) ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, questionIDs)
	if err != nil {
		return nil, wrapErr("list answers", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Answer, error) {
		var a models.Answer
		err := row.Scan(&a.ID, &a.FromID, &a.QuestionID, &a.Body, &a.CreatedAt, &a.UpdatedAt)
		return &a, err
	})
	if err != nil {
		return nil, wrapErr("scan answers", err)
	}
	return out, nil
}

// QuestionIDsByStuff lists the ids of the questions asked on an item
func (r *CommentRepository) QuestionIDsByStuff(ctx context.Context, stuffID string) ([]string, error) {
	return queryIDs(ctx, r.db, "list question ids", `SELECT id FROM question_comments WHERE stuff_id = $1`, stuffID)
}

// QuestionIDsByAuthor lists the ids of the questions asked by a user
func (r *CommentRepository) QuestionIDsByAuthor(ctx context.Context, fromID string) ([]string, error) {
	return queryIDs(ctx, r.db, "list authored question ids", `SELECT id FROM question_comments WHERE from_id = $1`, fromID)
}

// DeleteAnswersByQuestions deletes every answer attached to the given questions
func (r *CommentRepository) DeleteAnswersByQuestions(ctx context.Context, questionIDs []string) (int64, error) {
	if len(questionIDs) == 0 {
		return 0, nil
	}
	return r.exec(ctx, "delete answers", `DELETE FROM answers WHERE question_id = ANY($1::uuid[])`, questionIDs)
}

// DeleteQuestions deletes the given question comments
func (r *CommentRepository) DeleteQuestions(ctx context.Context, questionIDs []string) (int64, error) {
	if len(questionIDs) == 0 {
		return 0, nil
	}
	return r.exec(ctx, "delete questions", `DELETE FROM question_comments WHERE id = ANY($1::uuid[])`, questionIDs)
}

// DeleteQuestionsByStuff deletes every question asked on an item
func (r *CommentRepository) DeleteQuestionsByStuff(ctx context.Context, stuffID string) (int64, error) {
	return r.exec(ctx, "delete item questions", `DELETE FROM question_comments WHERE stuff_id = $1`, stuffID)
}

// DeleteRatingsByStuff deletes every rating left on an item
func (r *CommentRepository) DeleteRatingsByStuff(ctx context.Context, stuffID string) (int64, error) {
	return r.exec(ctx, "delete item ratings", `DELETE FROM rating_comments WHERE stuff_id = $1`, stuffID)
}

// DeleteAnswersByAuthor deletes every answer written by a user
func (r *CommentRepository) DeleteAnswersByAuthor(ctx context.Context, fromID string) (int64, error) {
	return r.exec(ctx, "delete authored answers", `DELETE FROM answers WHERE from_id = $1`, fromID)
}

// DeleteRatingsByAuthor deletes every rating written by a user
func (r *CommentRepository) DeleteRatingsByAuthor(ctx context.Context, fromID string) (int64, error) {
	return r.exec(ctx, "delete authored ratings", `DELETE FROM rating_comments WHERE from_id = $1`, fromID)
}

func (r *CommentRepository) exec(ctx context.Context, op, query string, args ...any) (int64, error) {
	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, wrapErr(op, err)
	}
	return result.RowsAffected(), nil
}
