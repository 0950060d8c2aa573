// ABOUTME: Store methods for booking access configuration and participant records.
// ABOUTME: Each booking carries one config per pool (guest, host); pools are stored and loaded separately.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/hassandayeh/NRE-sub001/internal/access"
)

// CreateBooking inserts a booking together with both pools' configurations
// and participants. Both pools are validated against opts before anything
// is written. Participant IDs are assigned by the database and returned in
// the result.
func (s *Store) CreateBooking(ctx context.Context, orgID uuid.UUID, title string, guests, hosts access.Pool, opts access.Options) (*access.Booking, error) {
	guests.Kind, hosts.Kind = access.PoolGuests, access.PoolHosts
	if err := guests.Validate(opts); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	if err := hosts.Validate(opts); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	b := &access.Booking{OrgID: orgID}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query, args, err := s.psql.
			Insert("bookings").
			Columns("org_id", "title").
			Values(orgID, title).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return fmt.Errorf("build query: %w", err)
		}
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&b.ID); err != nil {
			return mapConstraintErr(err)
		}
		if b.Guests, err = s.insertPool(ctx, tx, b.ID, guests); err != nil {
			return err
		}
		if b.Hosts, err = s.insertPool(ctx, tx, b.ID, hosts); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	return b, nil
}

func (s *Store) insertPool(ctx context.Context, tx *sql.Tx, bookingID uuid.UUID, p access.Pool) (access.Pool, error) {
	cfg := p.Config
	var unified sql.NullString
	if cfg.UnifiedType.Valid() {
		unified = nullString(cfg.UnifiedType.String())
	}
	query, args, err := s.psql.
		Insert("booking_access_configs").
		Columns("booking_id", "pool", "appearance_scope", "access_provisioning", "unified_type",
			"default_join_url", "default_venue_name", "default_venue_address", "default_dial_info").
		Values(bookingID, p.Kind.String(), cfg.Scope.String(), cfg.Provisioning.String(), unified,
			nullString(cfg.Defaults.JoinURL), nullString(cfg.Defaults.VenueName),
			nullString(cfg.Defaults.VenueAddress), nullString(cfg.Defaults.DialInfo)).
		ToSql()
	if err != nil {
		return p, fmt.Errorf("%s config: build query: %w", p.Kind, err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return p, fmt.Errorf("%s config: %w", p.Kind, mapConstraintErr(err))
	}

	out := p
	out.Participants = make([]access.Participant, 0, len(p.Participants))
	for i, pt := range p.Participants {
		var appearance sql.NullString
		if pt.Appearance.Valid() {
			appearance = nullString(pt.Appearance.String())
		}
		query, args, err := s.psql.
			Insert("booking_participants").
			Columns("booking_id", "pool", "position", "display_name", "appearance_type",
				"join_url", "venue_name", "venue_address", "dial_info").
			Values(bookingID, p.Kind.String(), i, pt.DisplayName, appearance,
				nullString(pt.Contact.JoinURL), nullString(pt.Contact.VenueName),
				nullString(pt.Contact.VenueAddress), nullString(pt.Contact.DialInfo)).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return p, fmt.Errorf("%s participant: build query: %w", p.Kind, err)
		}
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&pt.ID); err != nil {
			return p, fmt.Errorf("%s participant: %w", p.Kind, mapConstraintErr(err))
		}
		out.Participants = append(out.Participants, pt)
	}
	return out, nil
}

// RemoveParticipant deletes a participant record entirely. Reports whether a
// row was removed.
func (s *Store) RemoveParticipant(ctx context.Context, bookingID, participantID uuid.UUID) (bool, error) {
	query, args, err := s.psql.
		Delete("booking_participants").
		Where(sq.Eq{"id": participantID, "booking_id": bookingID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("remove participant: build query: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("remove participant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove participant: rows affected: %w", err)
	}
	return n > 0, nil
}

// LoadBookingAccess loads both pools of bookingID. Returns (nil, nil) if the
// booking does not exist or belongs to a different organization.
func (s *Store) LoadBookingAccess(ctx context.Context, orgID, bookingID uuid.UUID) (*access.Booking, error) {
	query, args, err := s.psql.
		Select("id").
		From("bookings").
		Where(sq.Eq{"id": bookingID, "org_id": orgID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("load booking access: build query: %w", err)
	}
	b := &access.Booking{OrgID: orgID}
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&b.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load booking access: %w", err)
	}
	b.Guests.Kind, b.Hosts.Kind = access.PoolGuests, access.PoolHosts
	pools := map[access.PoolKind]*access.Pool{access.PoolGuests: &b.Guests, access.PoolHosts: &b.Hosts}

	if err := s.loadPoolConfigs(ctx, bookingID, pools); err != nil {
		return nil, fmt.Errorf("load booking access: %w", err)
	}
	if err := s.loadParticipants(ctx, bookingID, pools); err != nil {
		return nil, fmt.Errorf("load booking access: %w", err)
	}
	return b, nil
}

func (s *Store) loadPoolConfigs(ctx context.Context, bookingID uuid.UUID, pools map[access.PoolKind]*access.Pool) error {
	query, args, err := s.psql.
		Select("pool", "appearance_scope", "access_provisioning", "unified_type",
			"default_join_url", "default_venue_name", "default_venue_address", "default_dial_info").
		From("booking_access_configs").
		Where(sq.Eq{"booking_id": bookingID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("configs: build query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("configs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var (
			pool, scope, provisioning   string
			unified, joinURL, venueName sql.NullString
			venueAddress, dialInfo      sql.NullString
		)
		if err := rows.Scan(&pool, &scope, &provisioning, &unified,
			&joinURL, &venueName, &venueAddress, &dialInfo); err != nil {
			return fmt.Errorf("configs: scan: %w", err)
		}
		kind, err := access.ParsePoolKind(pool)
		if err != nil {
			return fmt.Errorf("configs: %w", err)
		}
		cfg := access.BookingConfig{
			Defaults: access.Contact{
				JoinURL:      joinURL.String,
				VenueName:    venueName.String,
				VenueAddress: venueAddress.String,
				DialInfo:     dialInfo.String,
			},
		}
		if cfg.Scope, err = access.ParseScope(scope); err != nil {
			return fmt.Errorf("configs %s: %w", pool, err)
		}
		if cfg.Provisioning, err = access.ParseProvisioning(provisioning); err != nil {
			return fmt.Errorf("configs %s: %w", pool, err)
		}
		if unified.Valid {
			if cfg.UnifiedType, err = access.ParseAppearanceType(unified.String); err != nil {
				return fmt.Errorf("configs %s: %w", pool, err)
			}
		}
		pools[kind].Config = cfg
	}
	return rows.Err()
}

func (s *Store) loadParticipants(ctx context.Context, bookingID uuid.UUID, pools map[access.PoolKind]*access.Pool) error {
	query, args, err := s.psql.
		Select("id", "pool", "display_name", "appearance_type",
			"join_url", "venue_name", "venue_address", "dial_info").
		From("booking_participants").
		Where(sq.Eq{"booking_id": bookingID}).
		OrderBy("pool", "position", "created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("participants: build query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("participants: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var (
			pt                      access.Participant
			pool                    string
			appearance, joinURL     sql.NullString
			venueName, venueAddress sql.NullString
			dialInfo                sql.NullString
		)
		if err := rows.Scan(&pt.ID, &pool, &pt.DisplayName, &appearance,
			&joinURL, &venueName, &venueAddress, &dialInfo); err != nil {
			return fmt.Errorf("participants: scan: %w", err)
		}
		kind, err := access.ParsePoolKind(pool)
		if err != nil {
			return fmt.Errorf("participants: %w", err)
		}
		if appearance.Valid {
			if pt.Appearance, err = access.ParseAppearanceType(appearance.String); err != nil {
				return fmt.Errorf("participant %s: %w", pt.ID, err)
			}
		}
		pt.Contact = access.Contact{
			JoinURL:      joinURL.String,
			VenueName:    venueName.String,
			VenueAddress: venueAddress.String,
			DialInfo:     dialInfo.String,
		}
		pools[kind].Participants = append(pools[kind].Participants, pt)
	}
	return rows.Err()
}
