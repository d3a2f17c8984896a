// Package postgres persists the administrator and client aggregates in
// PostgreSQL. Aggregate versions live in a dedicated table; saves take a row
// lock on the version so conflicting writers are serialized and the loser is
// reported as a conflict.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"custodia/internal/identity"
	"custodia/internal/subject"
	"custodia/pkg/platform/sentinel"
	"custodia/pkg/platform/tx"
)

const (
	adminsAggregate  = "admins"
	clientsAggregate = "clients"
)

// Store is the PostgreSQL persistence adapter.
type Store struct {
	db     *sql.DB
	hasher identity.PasswordHasher
}

func New(db *sql.DB, hasher identity.PasswordHasher) *Store {
	return &Store{db: db, hasher: hasher}
}

// EnsureSchema creates the tables if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS aggregate_versions (
	name    TEXT PRIMARY KEY,
	version INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS admins (
	id              SERIAL PRIMARY KEY,
	name            TEXT NOT NULL UNIQUE,
	email           TEXT NOT NULL,
	password_hash   TEXT NOT NULL,
	enabled         BOOLEAN NOT NULL DEFAULT TRUE,
	created_clients INTEGER NOT NULL DEFAULT 0,
	created_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS admin_roles (
	admin_id INTEGER NOT NULL REFERENCES admins(id) ON DELETE CASCADE,
	role_id  INTEGER NOT NULL,
	PRIMARY KEY (admin_id, role_id)
);

CREATE TABLE IF NOT EXISTS clients (
	id         SERIAL PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	admin_id   INTEGER NOT NULL,
	address    TEXT NOT NULL DEFAULT '',
	phones     TEXT NOT NULL DEFAULT '',
	emails     TEXT NOT NULL DEFAULT '',
	enabled    BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL
);`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// querier routes statements through the transaction stored in the context, if
// the call happens inside RunInTx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) querier(ctx context.Context) querier {
	if txn, ok := tx.From(ctx); ok {
		return txn
	}
	return s.db
}

// RunInTx executes fn inside one database transaction; any error rolls the
// whole unit of work back.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx.WithTx(ctx, txn)); err != nil {
		_ = txn.Rollback()
		return err
	}
	if err := txn.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) version(ctx context.Context, q querier, aggregate string, forUpdate bool) (int, error) {
	query := `SELECT version FROM aggregate_versions WHERE name = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var version int
	err := q.QueryRowContext(ctx, query, aggregate).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load %s version: %w", aggregate, err)
	}
	return version, nil
}

func (s *Store) storeVersion(ctx context.Context, q querier, aggregate string, version int) error {
	_, err := q.ExecContext(ctx, `
INSERT INTO aggregate_versions (name, version) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET version = EXCLUDED.version`, aggregate, version)
	if err != nil {
		return fmt.Errorf("store %s version: %w", aggregate, err)
	}
	return nil
}

func (s *Store) LoadAdmins(ctx context.Context) (*identity.Aggregate, error) {
	q := s.querier(ctx)
	version, err := s.version(ctx, q, adminsAggregate, false)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
SELECT a.id, a.name, a.email, a.password_hash, a.enabled, a.created_clients, a.created_at,
       COALESCE(array_agg(r.role_id) FILTER (WHERE r.role_id IS NOT NULL), '{}')
FROM admins a
LEFT JOIN admin_roles r ON r.admin_id = a.id
GROUP BY a.id`)
	if err != nil {
		return nil, fmt.Errorf("load admins: %w", err)
	}
	defer rows.Close()

	var members []*identity.Administrator
	for rows.Next() {
		var (
			row struct {
				id             int
				name           string
				email          string
				passwordHash   string
				enabled        bool
				createdClients int
			}
			createdAt sql.NullTime
			roleIDs   pq.Int64Array
		)
		if err := rows.Scan(&row.id, &row.name, &row.email, &row.passwordHash,
			&row.enabled, &row.createdClients, &createdAt, &roleIDs); err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		ids := make([]int, 0, len(roleIDs))
		for _, roleID := range roleIDs {
			ids = append(ids, int(roleID))
		}
		members = append(members, identity.RehydrateAdministrator(
			row.id, row.name, row.email, row.passwordHash, row.enabled,
			ids, row.createdClients, createdAt.Time))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load admins: %w", err)
	}
	return identity.LoadAggregate(s.hasher, members, version)
}

func (s *Store) SaveAdmins(ctx context.Context, aggregate *identity.Aggregate) error {
	q := s.querier(ctx)
	persisted, err := s.version(ctx, q, adminsAggregate, true)
	if err != nil {
		return err
	}
	if aggregate.Version() == aggregate.BaseVersion() {
		return nil
	}
	if aggregate.BaseVersion() != persisted {
		return fmt.Errorf("save admins: loaded at version %d, persisted is %d: %w",
			aggregate.BaseVersion(), persisted, sentinel.ErrConflict)
	}

	for _, admin := range aggregate.All() {
		if admin.ID() != 0 {
			continue
		}
		var id int
		err := q.QueryRowContext(ctx, `
INSERT INTO admins (name, email, password_hash, enabled, created_clients, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`,
			admin.Name(), admin.Email(), admin.PasswordHash(), admin.Enabled(),
			admin.CreatedClients(), admin.CreatedAt()).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert admin: %w", err)
		}
		if err := aggregate.AssignID(admin.Name(), id); err != nil {
			return err
		}
	}

	keptIDs := make([]int64, 0, aggregate.Count())
	for _, admin := range aggregate.All() {
		keptIDs = append(keptIDs, int64(admin.ID()))
		if _, err := q.ExecContext(ctx, `
UPDATE admins SET name = $2, email = $3, password_hash = $4, enabled = $5, created_clients = $6
WHERE id = $1`,
			admin.ID(), admin.Name(), admin.Email(), admin.PasswordHash(),
			admin.Enabled(), admin.CreatedClients()); err != nil {
			return fmt.Errorf("update admin: %w", err)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM admin_roles WHERE admin_id = $1`, admin.ID()); err != nil {
			return fmt.Errorf("clear admin roles: %w", err)
		}
		for _, roleID := range admin.RoleIDs() {
			if _, err := q.ExecContext(ctx,
				`INSERT INTO admin_roles (admin_id, role_id) VALUES ($1, $2)`,
				admin.ID(), roleID); err != nil {
				return fmt.Errorf("insert admin role: %w", err)
			}
		}
	}
	if _, err := q.ExecContext(ctx,
		`DELETE FROM admins WHERE NOT (id = ANY($1))`, pq.Array(keptIDs)); err != nil {
		return fmt.Errorf("prune admins: %w", err)
	}

	return s.storeVersion(ctx, q, adminsAggregate, aggregate.Version())
}

func (s *Store) LoadClients(ctx context.Context) (*subject.Aggregate, error) {
	q := s.querier(ctx)
	version, err := s.version(ctx, q, clientsAggregate, false)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
SELECT id, name, admin_id, address, phones, emails, enabled, created_at
FROM clients`)
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}
	defer rows.Close()

	var members []*subject.Client
	for rows.Next() {
		var (
			id, adminID                   int
			name, address, phones, emails string
			enabled                       bool
			createdAt                     sql.NullTime
		)
		if err := rows.Scan(&id, &name, &adminID, &address, &phones, &emails, &enabled, &createdAt); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		members = append(members, subject.RehydrateClient(
			id, name, adminID, address, phones, emails, enabled, createdAt.Time))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}
	return subject.LoadAggregate(members, version)
}

func (s *Store) SaveClients(ctx context.Context, aggregate *subject.Aggregate) error {
	q := s.querier(ctx)
	persisted, err := s.version(ctx, q, clientsAggregate, true)
	if err != nil {
		return err
	}
	if aggregate.Version() == aggregate.BaseVersion() {
		return nil
	}
	if aggregate.BaseVersion() != persisted {
		return fmt.Errorf("save clients: loaded at version %d, persisted is %d: %w",
			aggregate.BaseVersion(), persisted, sentinel.ErrConflict)
	}

	for _, client := range aggregate.NewClients() {
		var id int
		err := q.QueryRowContext(ctx, `
INSERT INTO clients (name, admin_id, address, phones, emails, enabled, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`,
			client.Name(), client.AdminID(), client.Address(), client.Phones(),
			client.Emails(), client.Enabled(), client.CreatedAt()).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert client: %w", err)
		}
		if err := aggregate.AssignID(client.Name(), id); err != nil {
			return err
		}
	}

	keptIDs := make([]int64, 0, aggregate.Count())
	for _, client := range aggregate.All() {
		keptIDs = append(keptIDs, int64(client.ID()))
		if _, err := q.ExecContext(ctx, `
UPDATE clients SET name = $2, admin_id = $3, address = $4, phones = $5, emails = $6, enabled = $7
WHERE id = $1`,
			client.ID(), client.Name(), client.AdminID(), client.Address(),
			client.Phones(), client.Emails(), client.Enabled()); err != nil {
			return fmt.Errorf("update client: %w", err)
		}
	}
	if _, err := q.ExecContext(ctx,
		`DELETE FROM clients WHERE NOT (id = ANY($1))`, pq.Array(keptIDs)); err != nil {
		return fmt.Errorf("prune clients: %w", err)
	}

	return s.storeVersion(ctx, q, clientsAggregate, aggregate.Version())
}
