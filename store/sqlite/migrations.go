package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the rampart store (SQLite).
var Migrations = migrate.NewGroup("rampart")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_roles",
			Version: "20250301000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS rampart_roles (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    is_system   INTEGER NOT NULL DEFAULT 0,
    is_global   INTEGER NOT NULL DEFAULT 0,
    org_id      TEXT NOT NULL DEFAULT '',
    is_active   INTEGER NOT NULL DEFAULT 1,
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now')),

    UNIQUE (org_id, name),
    CHECK (org_id = '' OR (is_system = 0 AND is_global = 0))
);

CREATE INDEX IF NOT EXISTS idx_rampart_roles_org ON rampart_roles (org_id);
CREATE INDEX IF NOT EXISTS idx_rampart_roles_kind ON rampart_roles (is_system, is_global);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS rampart_roles`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_permissions",
			Version: "20250301000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS rampart_permissions (
    id          TEXT PRIMARY KEY,
    slug        TEXT NOT NULL UNIQUE,
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    category    TEXT NOT NULL DEFAULT '',
    is_active   INTEGER NOT NULL DEFAULT 1,
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_rampart_permissions_category ON rampart_permissions (category, slug);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS rampart_permissions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_role_permissions",
			Version: "20250301000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS rampart_role_permissions (
    role_id       TEXT NOT NULL REFERENCES rampart_roles(id) ON DELETE CASCADE,
    permission_id TEXT NOT NULL REFERENCES rampart_permissions(id) ON DELETE CASCADE,
    org_id        TEXT NOT NULL DEFAULT '',

    PRIMARY KEY (role_id, permission_id, org_id)
);

CREATE INDEX IF NOT EXISTS idx_rampart_role_permissions_perm ON rampart_role_permissions (permission_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS rampart_role_permissions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_user_roles",
			Version: "20250301000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS rampart_user_roles (
    id          TEXT PRIMARY KEY,
    user_id     TEXT NOT NULL,
    role_id     TEXT NOT NULL REFERENCES rampart_roles(id) ON DELETE CASCADE,
    org_id      TEXT NOT NULL DEFAULT '',
    is_active   INTEGER NOT NULL DEFAULT 1,
    assigned_by TEXT NOT NULL DEFAULT '',
    assigned_at TEXT NOT NULL DEFAULT (datetime('now')),

    UNIQUE (user_id, org_id, role_id)
);

CREATE INDEX IF NOT EXISTS idx_rampart_user_roles_role ON rampart_user_roles (role_id, is_active);
CREATE INDEX IF NOT EXISTS idx_rampart_user_roles_user ON rampart_user_roles (user_id, org_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS rampart_user_roles`)
				return err
			},
		},
	)
}
