package repository

import (
	"context"
	"fmt"

	"stuffbox-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const stuffColumns = `id, owner_id, title, description, image, price, has_offer, offer_price,
	shopping_link, category, views, likes, created_at, updated_at`

// StuffRepository handles database operations for stuff items
type StuffRepository struct {
	db *pgxpool.Pool
}

// NewStuffRepository creates a new stuff repository
func NewStuffRepository(db *pgxpool.Pool) *StuffRepository {
	return &StuffRepository{db: db}
}

func scanStuff(row pgx.Row) (*models.Stuff, error) {
	var s models.Stuff
	err := row.Scan(
		&s.ID, &s.OwnerID, &s.Title, &s.Description, &s.Image, &s.Price, &s.HasOffer, &s.OfferPrice,
		&s.ShoppingLink, &s.Category, &s.Views, &s.Likes, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectStuff(rows pgx.Rows) ([]*models.Stuff, error) {
	defer rows.Close()
	var items []*models.Stuff
	for rows.Next() {
		s, err := scanStuff(rows)
		if err != nil {
			return nil, wrapErr("scan stuff", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate stuff", err)
	}
	return items, nil
}

// Create creates a new stuff item
func (r *StuffRepository) Create(ctx context.Context, s *models.Stuff) error {
	query := `
		INSERT INTO stuff (id, owner_id, title, description, image, price, has_offer, offer_price,
			shopping_link, category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.Exec(ctx, query,
		s.ID, s.OwnerID, s.Title, s.Description, s.Image, s.Price, s.HasOffer, s.OfferPrice,
		s.ShoppingLink, string(s.Category), s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return wrapErr("create stuff", err)
	}
	return nil
}

// GetByID retrieves a stuff item by ID
func (r *StuffRepository) GetByID(ctx context.Context, id string) (*models.Stuff, error) {
	s, err := scanStuff(r.db.QueryRow(ctx, `SELECT `+stuffColumns+` FROM stuff WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr("get stuff", err)
	}
	return s, nil
}

// GetByIDs retrieves items in ids order, skipping ids that no longer exist
func (r *StuffRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Stuff, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+stuffColumns+` FROM stuff WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, wrapErr("get stuff list", err)
	}
	items, err := collectStuff(rows)
	if err != nil {
		return nil, err
	}
	return reorder(ids, items, func(s *models.Stuff) string { return s.ID }), nil
}

// List retrieves items matching filter with pagination, plus the unpaged total
func (r *StuffRepository) List(ctx context.Context, filter StuffFilter, limit, skip int) ([]*models.Stuff, int, error) {
	var b queryBuilder
	filter.build(&b)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM stuff`+b.clause(), b.args...).Scan(&total); err != nil {
		return nil, 0, wrapErr("count stuff", err)
	}

	query := `SELECT ` + stuffColumns + ` FROM stuff` + b.clause() +
		orderBy(filter.Sort, stuffSortColumns, "created_at, id") +
		fmt.Sprintf(" LIMIT %s OFFSET %s", b.arg(limit), b.arg(skip))
	rows, err := r.db.Query(ctx, query, b.args...)
	if err != nil {
		return nil, 0, wrapErr("list stuff", err)
	}
	items, err := collectStuff(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Update persists editable fields; only the owner's row matches
func (r *StuffRepository) Update(ctx context.Context, s *models.Stuff) error {
	query := `
		UPDATE stuff
		SET title = $3, description = $4, image = $5, price = $6, has_offer = $7, offer_price = $8,
			shopping_link = $9, category = $10, updated_at = now()
		WHERE id = $1 AND owner_id = $2
	`
	result, err := r.db.Exec(ctx, query,
		s.ID, s.OwnerID, s.Title, s.Description, s.Image, s.Price, s.HasOffer, s.OfferPrice,
		s.ShoppingLink, string(s.Category),
	)
	if err != nil {
		return wrapErr("update stuff", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("update stuff: %w", ErrNotFound)
	}
	return nil
}

// Delete deletes a stuff item by ID
func (r *StuffRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM stuff WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete stuff", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete stuff: %w", ErrNotFound)
	}
	return nil
}

// IncrementViews bumps the view counter and returns the new value
func (r *StuffRepository) IncrementViews(ctx context.Context, id string) (int64, error) {
	var views int64
	err := r.db.QueryRow(ctx, `UPDATE stuff SET views = views + 1 WHERE id = $1 RETURNING views`, id).Scan(&views)
	if err != nil {
		return 0, wrapErr("increment stuff views", err)
	}
	return views, nil
}

// AddLike adds userID to the item's like set unless already present
func (r *StuffRepository) AddLike(ctx context.Context, stuffID, userID string) (bool, error) {
	query := `UPDATE stuff SET likes = array_append(likes, $2::uuid) WHERE id = $1 AND NOT (likes @> ARRAY[$2::uuid])`
	result, err := r.db.Exec(ctx, query, stuffID, userID)
	if err != nil {
		return false, wrapErr("like stuff", err)
	}
	return result.RowsAffected() > 0, nil
}

// RemoveLike removes userID from the item's like set
func (r *StuffRepository) RemoveLike(ctx context.Context, stuffID, userID string) (bool, error) {
	query := `UPDATE stuff SET likes = array_remove(likes, $2::uuid) WHERE id = $1 AND likes @> ARRAY[$2::uuid]`
	result, err := r.db.Exec(ctx, query, stuffID, userID)
	if err != nil {
		return false, wrapErr("unlike stuff", err)
	}
	return result.RowsAffected() > 0, nil
}

// IDsByOwner lists the ids of every item owned by ownerID
func (r *StuffRepository) IDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	return queryIDs(ctx, r.db, "list owned stuff", `SELECT id FROM stuff WHERE owner_id = $1 ORDER BY created_at`, ownerID)
}

// StripLikesBy removes userID from every item's like set
func (r *StuffRepository) StripLikesBy(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.Exec(ctx, `UPDATE stuff SET likes = array_remove(likes, $1::uuid) WHERE likes @> ARRAY[$1::uuid]`, userID)
	if err != nil {
		return 0, wrapErr("strip stuff likes", err)
	}
	return result.RowsAffected(), nil
}

func queryIDs(ctx context.Context, db *pgxpool.Pool, op, query string, args ...any) ([]string, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return ids, nil
}
