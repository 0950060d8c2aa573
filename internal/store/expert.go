// ABOUTME: Store methods for expert directory entries, limited to the fields that decide visibility.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/hassandayeh/NRE-sub001/internal/visibility"
)

// CreateExpert inserts e after validating its visibility. The returned
// expert carries the database-assigned ID.
func (s *Store) CreateExpert(ctx context.Context, e visibility.Expert) (*visibility.Expert, error) {
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("create expert: %w", err)
	}
	query, args, err := s.psql.
		Insert("experts").
		Columns("display_name", "visibility", "exclusive_org_id").
		Values(e.DisplayName, e.Visibility.String(), e.ExclusiveOrgID).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("create expert: build query: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&e.ID); err != nil {
		return nil, fmt.Errorf("create expert: %w", mapConstraintErr(err))
	}
	return &e, nil
}

// GetExpert returns the expert with the given ID, or (nil, nil) if not found.
// Callers decide visibility; the store does not filter.
func (s *Store) GetExpert(ctx context.Context, id uuid.UUID) (*visibility.Expert, error) {
	query, args, err := s.psql.
		Select("id", "display_name", "visibility", "exclusive_org_id").
		From("experts").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("get expert: build query: %w", err)
	}
	var (
		e   visibility.Expert
		vis string
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&e.ID, &e.DisplayName, &vis, &e.ExclusiveOrgID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get expert: %w", err)
	}
	if e.Visibility, err = visibility.Parse(vis); err != nil {
		return nil, fmt.Errorf("get expert: %w", err)
	}
	return &e, nil
}
