package repository

import (
	"context"
	"fmt"

	"stuffbox-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserList names one of the id sets embedded in a user row
type UserList string

const (
	ListFollowers        UserList = "followers"
	ListFollowing        UserList = "following"
	ListLikedStuff       UserList = "liked_stuff"
	ListLikedCollections UserList = "liked_collections"
)

// Prepends reports whether new entries go to the front of the list.
// Liked lists are newest first; follow sets have no meaningful order.
func (l UserList) Prepends() bool {
	return l == ListLikedStuff || l == ListLikedCollections
}

func (l UserList) column() (string, error) {
	switch l {
	case ListFollowers, ListFollowing, ListLikedStuff, ListLikedCollections:
		return string(l), nil
	}
	return "", fmt.Errorf("unknown user list %q", string(l))
}

const userColumns = `id, first_name, last_name, nick_name, email, password_hash, avatar, push_token,
	followers, following, liked_stuff, liked_collections, tokens, created_at, updated_at`

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.NickName, &u.Email, &u.PasswordHash, &u.Avatar, &u.PushToken,
		&u.Followers, &u.Following, &u.LikedStuff, &u.LikedCollections, &u.Tokens, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func collectUsers(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()
	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, wrapErr("scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate users", err)
	}
	return users, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, first_name, last_name, nick_name, email, password_hash, avatar, push_token, tokens, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.FirstName, user.LastName, user.NickName, user.Email, user.PasswordHash,
		user.Avatar, user.PushToken, nonNil(user.Tokens), user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return wrapErr("create user", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, wrapErr("get user", err)
	}
	return u, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, wrapErr("get user by email", err)
	}
	return u, nil
}

// GetByIDs retrieves users in ids order, skipping ids that no longer exist
func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1::uuid[])`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, wrapErr("get users", err)
	}
	users, err := collectUsers(rows)
	if err != nil {
		return nil, err
	}
	return reorder(ids, users, func(u *models.User) string { return u.ID }), nil
}

// List retrieves users matching filter with pagination, plus the unpaged total
func (r *UserRepository) List(ctx context.Context, filter UserFilter, limit, skip int) ([]*models.User, int, error) {
	var b queryBuilder
	filter.build(&b)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`+b.clause(), b.args...).Scan(&total); err != nil {
		return nil, 0, wrapErr("count users", err)
	}

	query := `SELECT ` + userColumns + ` FROM users` + b.clause() +
		orderBy(filter.Sort, userSortColumns, "created_at, id") +
		fmt.Sprintf(" LIMIT %s OFFSET %s", b.arg(limit), b.arg(skip))
	rows, err := r.db.Query(ctx, query, b.args...)
	if err != nil {
		return nil, 0, wrapErr("list users", err)
	}
	users, err := collectUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// UpdateProfile persists the editable profile fields
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, nick_name = $4, email = $5, password_hash = $6, updated_at = now()
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query, user.ID, user.FirstName, user.LastName, user.NickName, user.Email, user.PasswordHash)
	if err != nil {
		return wrapErr("update user", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("update user: %w", ErrNotFound)
	}
	return nil
}

// UpdateAvatar sets the avatar key
func (r *UserRepository) UpdateAvatar(ctx context.Context, userID, avatar string) error {
	result, err := r.db.Exec(ctx, `UPDATE users SET avatar = $2, updated_at = now() WHERE id = $1`, userID, avatar)
	if err != nil {
		return wrapErr("update avatar", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("update avatar: %w", ErrNotFound)
	}
	return nil
}

// UpdatePushToken updates the push token for a user
func (r *UserRepository) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET push_token = $1 WHERE id = $2`, pushToken, userID)
	if err != nil {
		return wrapErr("update push token", err)
	}
	return nil
}

// Delete deletes a user by ID
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete user", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete user: %w", ErrNotFound)
	}
	return nil
}

// AddToken records an issued auth token
func (r *UserRepository) AddToken(ctx context.Context, userID, token string) error {
	query := `UPDATE users SET tokens = array_append(tokens, $2) WHERE id = $1 AND NOT (tokens @> ARRAY[$2::text])`
	if _, err := r.db.Exec(ctx, query, userID, token); err != nil {
		return wrapErr("add token", err)
	}
	return nil
}

// RemoveToken revokes a single auth token
func (r *UserRepository) RemoveToken(ctx context.Context, userID, token string) error {
	if _, err := r.db.Exec(ctx, `UPDATE users SET tokens = array_remove(tokens, $2::text) WHERE id = $1`, userID, token); err != nil {
		return wrapErr("remove token", err)
	}
	return nil
}

// ClearTokens revokes every auth token of the user
func (r *UserRepository) ClearTokens(ctx context.Context, userID string) error {
	if _, err := r.db.Exec(ctx, `UPDATE users SET tokens = '{}' WHERE id = $1`, userID); err != nil {
		return wrapErr("clear tokens", err)
	}
	return nil
}

// HasToken checks that token is still live for the user
func (r *UserRepository) HasToken(ctx context.Context, userID, token string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND tokens @> ARRAY[$2::text])`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, token).Scan(&exists); err != nil {
		return false, wrapErr("check token", err)
	}
	return exists, nil
}

// AddToList inserts value into one of the user's id sets. The update is guarded so the
// value is never duplicated; the result reports whether the row changed.
func (r *UserRepository) AddToList(ctx context.Context, userID string, list UserList, value string) (bool, error) {
	col, err := list.column()
	if err != nil {
		return false, err
	}
	expr := fmt.Sprintf("array_append(%s, $2::uuid)", col)
	if list.Prepends() {
		expr = fmt.Sprintf("array_prepend($2::uuid, %s)", col)
	}
	query := fmt.Sprintf(`UPDATE users SET %s = %s, updated_at = now() WHERE id = $1 AND NOT (%s @> ARRAY[$2::uuid])`, col, expr, col)
	result, err := r.db.Exec(ctx, query, userID, value)
	if err != nil {
		return false, wrapErr("add to "+col, err)
	}
	return result.RowsAffected() > 0, nil
}

// RemoveFromList removes value from one of the user's id sets, reporting whether the row changed
func (r *UserRepository) RemoveFromList(ctx context.Context, userID string, list UserList, value string) (bool, error) {
	col, err := list.column()
	if err != nil {
		return false, err
	}
	query := fmt.Sprintf(`UPDATE users SET %s = array_remove(%s, $2::uuid), updated_at = now() WHERE id = $1 AND %s @> ARRAY[$2::uuid]`, col, col, col)
	result, err := r.db.Exec(ctx, query, userID, value)
	if err != nil {
		return false, wrapErr("remove from "+col, err)
	}
	return result.RowsAffected() > 0, nil
}

// StripLikedStuff removes a stuff id from every user's liked list
func (r *UserRepository) StripLikedStuff(ctx context.Context, stuffID string) (int64, error) {
	return r.strip(ctx, ListLikedStuff, stuffID)
}

// StripLikedCollection removes a collection id from every user's liked list
func (r *UserRepository) StripLikedCollection(ctx context.Context, collectionID string) (int64, error) {
	return r.strip(ctx, ListLikedCollections, collectionID)
}

func (r *UserRepository) strip(ctx context.Context, list UserList, value string) (int64, error) {
	col, err := list.column()
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`UPDATE users SET %s = array_remove(%s, $1::uuid) WHERE %s @> ARRAY[$1::uuid]`, col, col, col)
	result, err := r.db.Exec(ctx, query, value)
	if err != nil {
		return 0, wrapErr("strip "+col, err)
	}
	return result.RowsAffected(), nil
}

// StripFollowRefs removes userID from everyone's followers and following sets
func (r *UserRepository) StripFollowRefs(ctx context.Context, userID string) (int64, error) {
	query := `
		UPDATE users
		SET followers = array_remove(followers, $1::uuid), following = array_remove(following, $1::uuid)
		WHERE followers @> ARRAY[$1::uuid] OR following @> ARRAY[$1::uuid]
	`
	result, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return 0, wrapErr("strip follow refs", err)
	}
	return result.RowsAffected(), nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
