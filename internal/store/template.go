// ABOUTME: Store methods for the global role template catalog.
// ABOUTME: Seeding replaces the stored catalog in one transaction; loading feeds permission.NewCatalog.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hassandayeh/NRE-sub001/internal/permission"
)

// LoadRoleTemplates returns the stored templates in slot order. An empty
// result means the catalog has never been seeded.
func (s *Store) LoadRoleTemplates(ctx context.Context) ([]permission.Template, error) {
	query, args, err := s.psql.
		Select("s.slot", "s.name", "t.capability", "t.granted").
		From("role_template_slots s").
		LeftJoin("role_templates t ON t.slot = s.slot").
		OrderBy("s.slot", "t.capability").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("load role templates: build query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load role templates: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var result []permission.Template
	for rows.Next() {
		var (
			slot       int
			name       string
			capability sql.NullString
			granted    sql.NullBool
		)
		if err := rows.Scan(&slot, &name, &capability, &granted); err != nil {
			return nil, fmt.Errorf("load role templates: scan: %w", err)
		}
		if n := len(result); n == 0 || result[n-1].Slot != permission.Slot(slot) {
			result = append(result, permission.Template{
				Slot:   permission.Slot(slot),
				Name:   name,
				Grants: map[permission.Capability]bool{},
			})
		}
		if capability.Valid {
			result[len(result)-1].Grants[permission.Capability(capability.String)] = granted.Bool
		}
	}
	return result, rows.Err()
}

// SeedRoleTemplates replaces the stored catalog with c. Running it twice with
// the same catalog leaves the same rows.
func (s *Store) SeedRoleTemplates(ctx context.Context, c *permission.Catalog) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		slots := s.psql.Insert("role_template_slots").Columns("slot", "name")
		for _, t := range c.Templates() {
			slots = slots.Values(int(t.Slot), t.Name)
		}
		query, args, err := slots.Suffix("ON CONFLICT (slot) DO UPDATE SET name = EXCLUDED.name").ToSql()
		if err != nil {
			return fmt.Errorf("seed role templates: build slots: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("seed role templates: slots: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM role_templates"); err != nil {
			return fmt.Errorf("seed role templates: clear: %w", err)
		}

		grants := c.Grants()
		if len(grants) == 0 {
			return nil
		}
		ib := s.psql.Insert("role_templates").Columns("slot", "capability", "granted")
		for _, g := range grants {
			ib = ib.Values(int(g.Slot), string(g.Capability), g.Granted)
		}
		query, args, err = ib.ToSql()
		if err != nil {
			return fmt.Errorf("seed role templates: build grants: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("seed role templates: grants: %w", err)
		}
		return nil
	})
}
