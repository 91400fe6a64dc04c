package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a row does not exist (or a guarded write matched nothing)
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned on unique constraint violations
	ErrDuplicate = errors.New("duplicate")
	// ErrUnavailable marks connection-level failures that are safe to retry
	ErrUnavailable = errors.New("store unavailable")
)

// wrapErr translates driver errors into the store error set
func wrapErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s: %w", op, ErrDuplicate)
		case "22P02": // invalid_text_representation, e.g. a malformed uuid
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return fmt.Errorf("failed to %s: %w: %w", op, ErrUnavailable, err)
	}

	return fmt.Errorf("failed to %s: %w", op, err)
}

// Sort is a requested ordering, parsed from "field:asc|desc"
type Sort struct {
	Field string
	Desc  bool
}

// ParseSort parses the sortBy query value. descDefault decides the direction
// when the value carries no recognised direction.
func ParseSort(value string, descDefault bool) Sort {
	if value == "" {
		return Sort{}
	}
	field, dir, _ := strings.Cut(value, ":")
	desc := descDefault
	switch dir {
	case "desc":
		desc = true
	case "asc":
		desc = false
	}
	return Sort{Field: field, Desc: desc}
}

// orderBy renders an ORDER BY clause for whitelisted fields only
func orderBy(s Sort, columns map[string]string, fallback string) string {
	col, ok := columns[s.Field]
	if !ok {
		return " ORDER BY " + fallback
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id", col, dir)
}

// queryBuilder accumulates WHERE conditions with positional arguments
type queryBuilder struct {
	conds []string
	args  []any
}

func (b *queryBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *queryBuilder) where(cond string) {
	b.conds = append(b.conds, cond)
}

func (b *queryBuilder) clause() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

// likePattern escapes s for a case-insensitive substring ILIKE match
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// containsFold is the in-memory equivalent of an ILIKE substring match
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// reorder returns the items whose ids appear in ids, in ids order
func reorder[T any](ids []string, items []T, id func(T) string) []T {
	byID := make(map[string]T, len(items))
	for _, item := range items {
		byID[id(item)] = item
	}
	out := make([]T, 0, len(ids))
	for _, v := range ids {
		if item, ok := byID[v]; ok {
			out = append(out, item)
		}
	}
	return out
}
