package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrSchemaTooNew is returned when the database was migrated by a newer build.
var ErrSchemaTooNew = errors.New("database schema is newer than this binary")

// Migration is one forward-only schema step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

var defaultMigrations = []Migration{
	{
		Version:     1,
		Description: "create sample records",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE TABLE IF NOT EXISTS sample_records (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				value INTEGER NOT NULL,
				updated_at TEXT NOT NULL
			)`)
			if err != nil {
				return fmt.Errorf("create sample_records: %w", err)
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "refresh updated_at on mutation",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE TRIGGER IF NOT EXISTS sample_records_touch
				AFTER UPDATE OF name, value ON sample_records
				FOR EACH ROW WHEN NEW.updated_at = OLD.updated_at
				BEGIN
					UPDATE sample_records
					SET updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
					WHERE id = NEW.id;
				END`)
			if err != nil {
				return fmt.Errorf("create sample_records_touch trigger: %w", err)
			}
			return nil
		},
	},
}

// DefaultMigrations returns a copy of the built-in migrations.
func DefaultMigrations() []Migration {
	out := make([]Migration, len(defaultMigrations))
	copy(out, defaultMigrations)
	return out
}

// CurrentSchemaVersion is the highest built-in migration version.
func CurrentSchemaVersion() int {
	return maxMigrationVersion(defaultMigrations)
}

// RunMigrations applies every migration newer than the recorded schema
// version, each in its own transaction.
func RunMigrations(ctx context.Context, db *sql.DB, migrations []Migration) error {
	if db == nil {
		return fmt.Errorf("run migrations: db is nil")
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	ordered := make([]Migration, len(migrations))
	copy(ordered, migrations)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Version < ordered[j].Version })

	current, err := SchemaVersion(ctx, db)
	if err != nil {
		return err
	}
	maxVersion := maxMigrationVersion(ordered)
	if current > maxVersion {
		return fmt.Errorf("%w: db=%d code=%d", ErrSchemaTooNew, current, maxVersion)
	}

	for _, migration := range ordered {
		if migration.Version <= current {
			continue
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration v%d: %w", migration.Version, err)
		}
		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration v%d (%s): %w", migration.Version, migration.Description, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version, description, applied_at) VALUES (?, ?, ?)`,
			migration.Version, migration.Description, fmtTime(time.Now())); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record schema migration v%d: %w", migration.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", migration.Version, err)
		}
	}
	return nil
}

// SchemaVersion reads the highest applied migration version.
func SchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&version); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}

func maxMigrationVersion(migrations []Migration) int {
	highest := 0
	for _, migration := range migrations {
		if migration.Version > highest {
			highest = migration.Version
		}
	}
	return highest
}
