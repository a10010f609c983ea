package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migration is one forward/backward schema transformation pair. Up and
// Down each run inside a single transaction together with the
// schema_migrations bookkeeping, so a failed step leaves the schema at
// the previous version.
type Migration struct {
	Version int
	Name    string
	Up      []string
	Down    []string
}

// Migrations is the ordered schema history. Version numbers are
// contiguous and start at 1.
var Migrations = []Migration{
	{
		Version: 1,
		Name:    "initial schema",
		Up: []string{
			`CREATE TABLE people (
				id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
				first_name text NOT NULL,
				pref_name text,
				surname text NOT NULL,
				email text NOT NULL UNIQUE,
				hashed_password text,
				password_is_default boolean NOT NULL DEFAULT false,
				access_token text
			)`,
			`CREATE TABLE staff (
				person_id uuid PRIMARY KEY REFERENCES people(id) ON DELETE CASCADE
			)`,
			`CREATE TABLE admins (
				person_id uuid PRIMARY KEY REFERENCES people(id) ON DELETE CASCADE
			)`,
			`CREATE TABLE developers (
				person_id uuid PRIMARY KEY REFERENCES people(id) ON DELETE CASCADE
			)`,
			`CREATE TABLE houses (
				id serial PRIMARY KEY,
				name text NOT NULL
			)`,
			`CREATE TABLE forms (
				id serial PRIMARY KEY,
				name text NOT NULL
			)`,
			`CREATE TABLE students (
				person_id uuid PRIMARY KEY REFERENCES people(id) ON DELETE CASCADE,
				form_id integer REFERENCES forms(id) ON DELETE SET NULL,
				house_id integer REFERENCES houses(id) ON DELETE SET NULL
			)`,
			`CREATE TABLE events (
				id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
				name text NOT NULL,
				date timestamp NOT NULL,
				tz text NOT NULL DEFAULT 'UTC',
				location text,
				extra_info text,
				owner_staff_id uuid REFERENCES staff(person_id) ON DELETE SET NULL
			)`,
			`CREATE TABLE participation (
				event_id uuid NOT NULL REFERENCES events(id) ON DELETE CASCADE,
				student_id uuid NOT NULL REFERENCES students(person_id) ON DELETE CASCADE,
				is_verified boolean NOT NULL DEFAULT false,
				PRIMARY KEY (event_id, student_id)
			)`,
			`CREATE TABLE sessions (
				id text PRIMARY KEY,
				data bytea NOT NULL,
				expiry_date timestamptz NOT NULL
			)`,
		},
		Down: []string{
			`DROP TABLE sessions`,
			`DROP TABLE participation`,
			`DROP TABLE events`,
			`DROP TABLE students`,
			`DROP TABLE forms`,
			`DROP TABLE houses`,
			`DROP TABLE developers`,
			`DROP TABLE admins`,
			`DROP TABLE staff`,
			`DROP TABLE people`,
		},
	},
	{
		Version: 2,
		Name:    "replace forms with tutor groups",
		Up: []string{
			`ALTER TABLE students DROP COLUMN form_id`,
			`DROP TABLE forms`,
			`CREATE TABLE tutor_groups (
				id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
				staff_id uuid NOT NULL REFERENCES staff(person_id) ON DELETE CASCADE,
				house_id integer NOT NULL REFERENCES houses(id) ON DELETE CASCADE
			)`,
			`ALTER TABLE students ADD COLUMN tutor_group_id uuid`,
			`ALTER TABLE students ADD CONSTRAINT students_tutor_group_id_fkey
				FOREIGN KEY (tutor_group_id) REFERENCES tutor_groups(id) ON DELETE CASCADE`,
			// house membership is derived via tutor_group -> house from here on
			`ALTER TABLE students DROP COLUMN house_id`,
			`ALTER TABLE students ALTER COLUMN tutor_group_id SET NOT NULL`,
		},
		Down: []string{
			`ALTER TABLE students ADD COLUMN house_id integer REFERENCES houses(id) ON DELETE SET NULL`,
			`ALTER TABLE students DROP CONSTRAINT students_tutor_group_id_fkey`,
			`ALTER TABLE students DROP COLUMN tutor_group_id`,
			`DROP TABLE tutor_groups`,
			`CREATE TABLE forms (
				id serial PRIMARY KEY,
				name text NOT NULL
			)`,
			`ALTER TABLE students ADD COLUMN form_id integer REFERENCES forms(id) ON DELETE SET NULL`,
		},
	},
}

// Migrator applies the schema history against a pool, tracking state
// in the schema_migrations table.
type Migrator struct {
	pool       *pgxpool.Pool
	migrations []Migration
}

func NewMigrator(pool *pgxpool.Pool) *Migrator {
	return &Migrator{pool: pool, migrations: Migrations}
}

func (m *Migrator) ensureStateTable(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version integer PRIMARY KEY,
		name text NOT NULL,
		applied_at timestamptz NOT NULL DEFAULT now()
	)`)
	return err
}

// Version returns the highest applied migration version, zero when the
// schema is empty.
func (m *Migrator) Version(ctx context.Context) (int, error) {
	if err := m.ensureStateTable(ctx); err != nil {
		return 0, err
	}
	var version int
	row := m.pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
	if err := row.Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}

// Up applies every migration past the current version, in order.
// Returns the number of migrations applied.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	current, err := m.Version(ctx)
	if err != nil {
		return 0, err
	}
	applied := 0
	for _, migration := range m.migrations {
		if migration.Version <= current {
			continue
		}
		if migration.Version != current+1 {
			return applied, fmt.Errorf("migration gap: at version %d, next is %d", current, migration.Version)
		}
		if err := m.apply(ctx, migration, true); err != nil {
			return applied, fmt.Errorf("migration %d (%s) up: %w", migration.Version, migration.Name, err)
		}
		current = migration.Version
		applied++
	}
	return applied, nil
}

// Down rolls the schema back until the current version equals target.
func (m *Migrator) Down(ctx context.Context, target int) (int, error) {
	if target < 0 {
		return 0, fmt.Errorf("invalid target version %d", target)
	}
	current, err := m.Version(ctx)
	if err != nil {
		return 0, err
	}
	reverted := 0
	for current > target {
		migration, ok := m.byVersion(current)
		if !ok {
			return reverted, fmt.Errorf("no migration recorded for version %d", current)
		}
		if err := m.apply(ctx, migration, false); err != nil {
			return reverted, fmt.Errorf("migration %d (%s) down: %w", migration.Version, migration.Name, err)
		}
		current--
		reverted++
	}
	return reverted, nil
}

func (m *Migrator) byVersion(version int) (Migration, bool) {
	for _, migration := range m.migrations {
		if migration.Version == version {
			return migration, true
		}
	}
	return Migration{}, false
}

func (m *Migrator) apply(ctx context.Context, migration Migration, up bool) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	statements := migration.Up
	if !up {
		statements = migration.Down
	}
	for _, statement := range statements {
		if _, err := tx.Exec(ctx, statement); err != nil {
			return err
		}
	}
	if up {
		_, err = tx.Exec(ctx, `INSERT INTO schema_migrations (version, name, applied_at) VALUES ($1, $2, $3)`,
			migration.Version, migration.Name, time.Now().UTC())
	} else {
		_, err = tx.Exec(ctx, `DELETE FROM schema_migrations WHERE version = $1`, migration.Version)
	}
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}
