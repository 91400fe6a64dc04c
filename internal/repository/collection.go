package repository

import (
	"context"
	"errors"
	"fmt"

	"stuffbox-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const collectionColumns = `id, owner_id, title, description, stuff, likes, views, created_at, updated_at`

// CollectionRepository handles database operations for collections
type CollectionRepository struct {
	db *pgxpool.Pool
}

// NewCollectionRepository creates a new collection repository
func NewCollectionRepository(db *pgxpool.Pool) *CollectionRepository {
	return &CollectionRepository{db: db}
}

func scanCollection(row pgx.Row) (*models.Collection, error) {
	var c models.Collection
	err := row.Scan(&c.ID, &c.OwnerID, &c.Title, &c.Description, &c.Stuff, &c.Likes, &c.Views, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCollections(rows pgx.Rows) ([]*models.Collection, error) {
	defer rows.Close()
	var out []*models.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, wrapErr("scan collection", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate collections", err)
	}
	return out, nil
}

// Create creates a new collection
func (r *CollectionRepository) Create(ctx context.Context, c *models.Collection) error {
	query := `
		INSERT INTO collections (id, owner_id, title, description, stuff, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::uuid[], $6, $7)
	`
	_, err := r.db.Exec(ctx, query, c.ID, c.OwnerID, c.Title, c.Description, nonNil(c.Stuff), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return wrapErr("create collection", err)
	}
	return nil
}

// GetByID retrieves a collection by ID
func (r *CollectionRepository) GetByID(ctx context.Context, id string) (*models.Collection, error) {
	c, err := scanCollection(r.db.QueryRow(ctx, `SELECT `+collectionColumns+` FROM collections WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr("get collection", err)
	}
	return c, nil
}

// GetByIDs retrieves collections in ids order, skipping ids that no longer exist
func (r *CollectionRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Collection, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+collectionColumns+` FROM collections WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, wrapErr("get collections", err)
	}
	out, err := collectCollections(rows)
	if err != nil {
		return nil, err
	}
	return reorder(ids, out, func(c *models.Collection) string { return c.ID }), nil
}

// List retrieves collections matching filter with pagination, plus the unpaged total
func (r *CollectionRepository) List(ctx context.Context, filter CollectionFilter, limit, skip int) ([]*models.Collection, int, error) {
	var b queryBuilder
	filter.build(&b)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM collections`+b.clause(), b.args...).Scan(&total); err != nil {
		return nil, 0, wrapErr("count collections", err)
	}

	query := `SELECT ` + collectionColumns + ` FROM collections` + b.clause() +
		orderBy(filter.Sort, collectionSortColumns, "created_at, id") +
		fmt.Sprintf(" LIMIT %s OFFSET %s", b.arg(limit), b.arg(skip))
	rows, err := r.db.Query(ctx, query, b.args...)
	if err != nil {
		return nil, 0, wrapErr("list collections", err)
	}
	out, err := collectCollections(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// UpdateMeta persists title and description; only the owner's row matches. Membership
// is never written here.
func (r *CollectionRepository) UpdateMeta(ctx context.Context, c *models.Collection) error {
	query := `
		UPDATE collections
		SET title = $3, description = $4, updated_at = now()
		WHERE id = $1 AND owner_id = $2
	`
	result, err := r.db.Exec(ctx, query, c.ID, c.OwnerID, c.Title, c.Description)
	if err != nil {
		return wrapErr("update collection", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("update collection: %w", ErrNotFound)
	}
	return nil
}

// ReplaceStuff swaps the whole membership list for next, but only while it still
// equals prev and every id in next names an existing item. The result reports
// whether the row changed.
func (r *CollectionRepository) ReplaceStuff(ctx context.Context, collectionID, ownerID string, prev, next []string) (bool, error) {
	query := `
		UPDATE collections SET stuff = $4::uuid[], updated_at = now()
		WHERE id = $1 AND owner_id = $2 AND stuff = $3::uuid[]
			AND NOT EXISTS (
				SELECT 1 FROM unnest($4::uuid[]) AS m(id)
				WHERE NOT EXISTS (SELECT 1 FROM stuff s WHERE s.id = m.id)
			)
	`
	result, err := r.db.Exec(ctx, query, collectionID, ownerID, nonNil(prev), nonNil(next))
	if err != nil {
		return false, wrapErr("replace collection stuff", err)
	}
	return result.RowsAffected() > 0, nil
}

// Delete deletes a collection by ID
func (r *CollectionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM collections WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete collection", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete collection: %w", ErrNotFound)
	}
	return nil
}

// IncrementViews bumps the view counter and returns the new value
func (r *CollectionRepository) IncrementViews(ctx context.Context, id string) (int64, error) {
	var views int64
	err := r.db.QueryRow(ctx, `UPDATE collections SET views = views + 1 WHERE id = $1 RETURNING views`, id).Scan(&views)
	if err != nil {
		return 0, wrapErr("increment collection views", err)
	}
	return views, nil
}

// AddLike adds userID to the collection's like set unless already present
func (r *CollectionRepository) AddLike(ctx context.Context, collectionID, userID string) (bool, error) {
	query := `UPDATE collections SET likes = array_append(likes, $2::uuid) WHERE id = $1 AND NOT (likes @> ARRAY[$2::uuid])`
	result, err := r.db.Exec(ctx, query, collectionID, userID)
	if err != nil {
		return false, wrapErr("like collection", err)
	}
	return result.RowsAffected() > 0, nil
}

// RemoveLike removes userID from the collection's like set
func (r *CollectionRepository) RemoveLike(ctx context.Context, collectionID, userID string) (bool, error) {
	query := `UPDATE collections SET likes = array_remove(likes, $2::uuid) WHERE id = $1 AND likes @> ARRAY[$2::uuid]`
	result, err := r.db.Exec(ctx, query, collectionID, userID)
	if err != nil {
		return false, wrapErr("unlike collection", err)
	}
	return result.RowsAffected() > 0, nil
}

// AddStuff appends stuffIDs to the membership list. Nothing is written if any of
// them is already a member; the result reports whether the row changed.
func (r *CollectionRepository) AddStuff(ctx context.Context, collectionID string, stuffIDs []string) (bool, error) {
	query := `
		UPDATE collections SET stuff = stuff || $2::uuid[], updated_at = now()
		WHERE id = $1 AND NOT (stuff && $2::uuid[])
	`
	result, err := r.db.Exec(ctx, query, collectionID, stuffIDs)
	if err != nil {
		return false, wrapErr("add collection stuff", err)
	}
	return result.RowsAffected() > 0, nil
}

// RemoveStuff removes stuffID from the membership list. It returns the remaining
// member count and whether the id was present.
func (r *CollectionRepository) RemoveStuff(ctx context.Context, collectionID, stuffID string) (int, bool, error) {
	query := `
		UPDATE collections SET stuff = array_remove(stuff, $2::uuid), updated_at = now()
		WHERE id = $1 AND stuff @> ARRAY[$2::uuid]
		RETURNING cardinality(stuff)
	`
	var remaining int
	err := r.db.QueryRow(ctx, query, collectionID, stuffID).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, wrapErr("remove collection stuff", err)
	}
	return remaining, true, nil
}

// ListContaining returns every collection whose membership includes stuffID
func (r *CollectionRepository) ListContaining(ctx context.Context, stuffID string) ([]*models.Collection, error) {
	rows, err := r.db.Query(ctx, `SELECT `+collectionColumns+` FROM collections WHERE stuff @> ARRAY[$1::uuid]`, stuffID)
	if err != nil {
		return nil, wrapErr("list collections containing stuff", err)
	}
	return collectCollections(rows)
}

// DeleteIfOnlyMember deletes the collection only while stuffID is its sole member
func (r *CollectionRepository) DeleteIfOnlyMember(ctx context.Context, collectionID, stuffID string) (bool, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM collections WHERE id = $1 AND stuff <@ ARRAY[$2::uuid]`, collectionID, stuffID)
	if err != nil {
		return false, wrapErr("delete single-member collection", err)
	}
	return result.RowsAffected() > 0, nil
}

// DeleteIfEmpty deletes the collection only while it has no members
func (r *CollectionRepository) DeleteIfEmpty(ctx context.Context, collectionID string) (bool, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM collections WHERE id = $1 AND cardinality(stuff) = 0`, collectionID)
	if err != nil {
		return false, wrapErr("delete empty collection", err)
	}
	return result.RowsAffected() > 0, nil
}

// IDsByOwner lists the ids of every collection owned by ownerID
func (r *CollectionRepository) IDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	return queryIDs(ctx, r.db, "list owned collections", `SELECT id FROM collections WHERE owner_id = $1 ORDER BY created_at`, ownerID)
}

// StripLikesBy removes userID from every collection's like set
func (r *CollectionRepository) StripLikesBy(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.Exec(ctx, `UPDATE collections SET likes = array_remove(likes, $1::uuid) WHERE likes @> ARRAY[$1::uuid]`, userID)
	if err != nil {
		return 0, wrapErr("strip collection likes", err)
	}
	return result.RowsAffected(), nil
}
