// Command nre is the newsroom booking server binary.
//
// Subcommands:
//
//	serve: HTTP server
//	migrate: run pending database migrations and exit
//	seed-templates: write the role template catalog to the database
//	templates: print the effective role template catalog as YAML
//	check: resolve one capability for a user in an org
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	// Embeds the IANA timezone database for distroless containers.
	_ "time/tzdata"

	// Sets GOMEMLIMIT from the cgroup memory limit.
	_ "github.com/KimMachineGun/automemlimit"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hassandayeh/NRE-sub001/internal/api"
	"github.com/hassandayeh/NRE-sub001/internal/config"
	"github.com/hassandayeh/NRE-sub001/internal/permission"
	"github.com/hassandayeh/NRE-sub001/internal/store"
	"github.com/hassandayeh/NRE-sub001/migrations"
)

func main() {
	root := &cobra.Command{
		Use:   "nre",
		Short: "Newsroom expert booking: roles, participant access, expert directory",
		// Silence default error printing; we print it ourselves with slog.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(
		serveCmd(),
		migrateCmd(),
		seedTemplatesCmd(),
		templatesCmd(),
		checkCmd(),
	)

	if err := root.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// ── serve ─────────────────────────────────────────────────────────────────────

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	db, err := newPool(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	st := store.New(db)
	catalog, err := loadCatalog(ctx, cfg, st)
	if err != nil {
		return fmt.Errorf("role templates: %w", err)
	}

	handler := api.NewServer(st, cfg, catalog).Handler()

	srv := &http.Server{ //nolint:exhaustruct // WriteTimeout left to handlers
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server started", "addr", cfg.ListenAddr, "phone_enabled", cfg.AccessPhoneEnabled)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		stop() // release signal notification
	}

	slog.Info("shutting down", "timeout_seconds", cfg.ShutdownTimeoutSeconds)
	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// ── migrate ───────────────────────────────────────────────────────────────────

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run pending database migrations and exit",
		RunE:  runMigrate,
	}
}

func runMigrate(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	slog.SetDefault(newLogger(cfg))

	slog.Info("running migrations")

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	// golang-migrate requires a *sql.DB; use pgx's stdlib adapter so one
	// driver is used project-wide.
	connCfg, err := pgx.ParseConfig(cfg.MigrateURL())
	if err != nil {
		return fmt.Errorf("parse db url: %w", err)
	}
	db := stdlib.OpenDB(*connCfg)
	defer db.Close() //nolint:errcheck

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}

	version, _, _ := m.Version() //nolint:errcheck
	slog.Info("migrations complete", "version", version)
	return nil
}

// ── seed-templates ────────────────────────────────────────────────────────────

func seedTemplatesCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed-templates",
		Short: "Replace the stored role template catalog",
		Long: "Writes the role template catalog to the database. Uses --file, then " +
			"ROLE_TEMPLATES_FILE, then the built-in catalog.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			slog.SetDefault(newLogger(cfg))

			if file == "" {
				file = cfg.RoleTemplatesFile
			}
			catalog := permission.DefaultCatalog()
			if file != "" {
				if catalog, err = permission.LoadCatalogFile(file); err != nil {
					return err
				}
			}

			db, err := newPool(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer db.Close()

			if err := store.New(db).SeedRoleTemplates(cmd.Context(), catalog); err != nil {
				return err
			}
			slog.Info("role templates seeded", "source", catalogSource(file), "grants", len(catalog.Grants()))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML catalog to seed instead of the built-in one")
	return cmd
}

// ── templates ─────────────────────────────────────────────────────────────────

func templatesCmd() *cobra.Command {
	var builtin bool
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Print the role template catalog as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog := permission.DefaultCatalog()
			if !builtin {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("config: %w", err)
				}
				slog.SetDefault(newLogger(cfg))
				db, err := newPool(cmd.Context(), cfg)
				if err != nil {
					return fmt.Errorf("database: %w", err)
				}
				defer db.Close()
				if catalog, err = loadCatalog(cmd.Context(), cfg, store.New(db)); err != nil {
					return err
				}
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close() //nolint:errcheck
			enc.SetIndent(2)
			return enc.Encode(catalog)
		},
	}
	cmd.Flags().BoolVar(&builtin, "builtin", false, "print the built-in catalog without connecting to the database")
	return cmd
}

// ── check ─────────────────────────────────────────────────────────────────────

func checkCmd() *cobra.Command {
	var orgFlag, userFlag, capFlag string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Resolve a capability for a user in an organization",
		RunE: func(cmd *cobra.Command, _ []string) error {
			orgID, err := uuid.Parse(orgFlag)
			if err != nil {
				return fmt.Errorf("--org: %w", err)
			}
			userID, err := uuid.Parse(userFlag)
			if err != nil {
				return fmt.Errorf("--user: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			slog.SetDefault(newLogger(cfg))
			db, err := newPool(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer db.Close()

			st := store.New(db)
			catalog, err := loadCatalog(cmd.Context(), cfg, st)
			if err != nil {
				return err
			}
			checker := permission.NewChecker(permission.NewResolver(catalog), st, st)
			d, err := checker.Authorize(cmd.Context(), orgID, userID, permission.Capability(capFlag))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Capability string `json:"capability"`
				permission.Decision
			}{capFlag, d})
		},
	}
	cmd.Flags().StringVar(&orgFlag, "org", "", "organization ID")
	cmd.Flags().StringVar(&userFlag, "user", "", "user ID")
	cmd.Flags().StringVar(&capFlag, "capability", "", "capability key, e.g. booking:view")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("capability")
	return cmd
}

// ── helpers ───────────────────────────────────────────────────────────────────

// loadCatalog returns the role template catalog in precedence order:
// ROLE_TEMPLATES_FILE, the seeded role_templates table, the built-in catalog.
func loadCatalog(ctx context.Context, cfg *config.Config, st *store.Store) (*permission.Catalog, error) {
	if cfg.RoleTemplatesFile != "" {
		c, err := permission.LoadCatalogFile(cfg.RoleTemplatesFile)
		if err != nil {
			return nil, err
		}
		slog.Info("role templates loaded", "source", cfg.RoleTemplatesFile)
		return c, nil
	}
	templates, err := st.LoadRoleTemplates(ctx)
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		slog.Warn("role_templates is empty, using built-in catalog — run `nre seed-templates`")
		return permission.DefaultCatalog(), nil
	}
	c, err := permission.NewCatalog(templates)
	if err != nil {
		return nil, fmt.Errorf("stored role templates: %w", err)
	}
	slog.Info("role templates loaded", "source", "database")
	return c, nil
}

func catalogSource(file string) string {
	if file == "" {
		return "builtin"
	}
	return file
}

// newPool creates and validates a pgxpool. Retries up to 10 times with
// linear backoff to ride out a database that is still starting.
func newPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// PgBouncer transaction-pooling compatibility.
	if cfg.DBQueryExecMode == "simple_protocol" {
		poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}

	poolCfg.ConnConfig.RuntimeParams["statement_timeout"] = strconv.Itoa(cfg.DBStatementTimeoutMS)
	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MaxConnIdleTime = cfg.DBMaxConnIdleTime

	var (
		db      *pgxpool.Pool
		connErr error
	)
	for attempt := 1; attempt <= 10; attempt++ {
		db, connErr = pgxpool.NewWithConfig(ctx, poolCfg)
		if connErr == nil {
			if connErr = db.Ping(ctx); connErr == nil {
				break
			}
			db.Close()
		}
		slog.Warn("database not ready, retrying",
			"attempt", attempt,
			"error", connErr,
		)
		timer := time.NewTimer(time.Duration(attempt) * time.Second)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if connErr != nil {
		return nil, fmt.Errorf("database unavailable after retries: %w", connErr)
	}

	// Warn if the applied schema is behind this binary.
	var schemaVersion int
	err = db.QueryRow(ctx,
		"SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1",
	).Scan(&schemaVersion)
	if err == nil && schemaVersion != expectedSchemaVersion {
		slog.Warn("schema version mismatch — run `nre migrate`",
			"applied_version", schemaVersion,
			"expected_version", expectedSchemaVersion,
		)
	}

	return db, nil
}

// expectedSchemaVersion is the database migration version this binary requires.
const expectedSchemaVersion = 1

// newLogger creates a slog.Logger based on the configured log level and format.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" || cfg.IsDevelopment() {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
