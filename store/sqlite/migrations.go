package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Bastion store (SQLite).
var Migrations = migrate.NewGroup("bastion")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_roles",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bastion_roles (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL UNIQUE,
    description     TEXT NOT NULL DEFAULT '',
    is_system       INTEGER NOT NULL DEFAULT 0,
    is_active       INTEGER NOT NULL DEFAULT 1,
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_bastion_roles_active ON bastion_roles (is_active);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bastion_roles`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_permissions",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bastion_permissions (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL UNIQUE,
    resource        TEXT NOT NULL,
    action          TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    is_system       INTEGER NOT NULL DEFAULT 0,
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now')),

    UNIQUE(resource, action)
);

CREATE INDEX IF NOT EXISTS idx_bastion_permissions_resource ON bastion_permissions (resource);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bastion_permissions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_role_permissions",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bastion_role_permissions (
    role_id         TEXT NOT NULL REFERENCES bastion_roles(id) ON DELETE CASCADE,
    permission_id   TEXT NOT NULL REFERENCES bastion_permissions(id) ON DELETE CASCADE,
    granted_by      TEXT NOT NULL DEFAULT '',
    granted_at      TEXT NOT NULL DEFAULT (datetime('now')),

    PRIMARY KEY (role_id, permission_id)
);

CREATE INDEX IF NOT EXISTS idx_bastion_role_perms_role ON bastion_role_permissions (role_id);
CREATE INDEX IF NOT EXISTS idx_bastion_role_perms_perm ON bastion_role_permissions (permission_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bastion_role_permissions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_assignments",
			Version: "20240101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bastion_assignments (
    id              TEXT PRIMARY KEY,
    role_id         TEXT NOT NULL REFERENCES bastion_roles(id) ON DELETE CASCADE,
    user_id         TEXT NOT NULL,
    assigned_by     TEXT NOT NULL DEFAULT '',
    assigned_at     TEXT NOT NULL DEFAULT (datetime('now')),

    UNIQUE(user_id, role_id)
);

CREATE INDEX IF NOT EXISTS idx_bastion_assign_user ON bastion_assignments (user_id);
CREATE INDEX IF NOT EXISTS idx_bastion_assign_role ON bastion_assignments (role_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bastion_assignments`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_resources",
			Version: "20240101000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bastion_resources (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL UNIQUE,
    description     TEXT NOT NULL DEFAULT '',
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bastion_resources`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_menus",
			Version: "20240101000006",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bastion_menus (
    id              TEXT PRIMARY KEY,
    parent_id       TEXT NOT NULL DEFAULT '',
    title           TEXT NOT NULL,
    href            TEXT NOT NULL DEFAULT '',
    icon            TEXT NOT NULL DEFAULT '',
    target          TEXT NOT NULL DEFAULT '',
    order_index     INTEGER NOT NULL DEFAULT 0,
    is_active       INTEGER NOT NULL DEFAULT 1,
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_bastion_menus_parent ON bastion_menus (parent_id);
CREATE INDEX IF NOT EXISTS idx_bastion_menus_order ON bastion_menus (parent_id, order_index);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bastion_menus`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_menu_permissions",
			Version: "20240101000007",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bastion_menu_permissions (
    menu_id         TEXT NOT NULL REFERENCES bastion_menus(id) ON DELETE CASCADE,
    role_id         TEXT NOT NULL REFERENCES bastion_roles(id) ON DELETE CASCADE,
    can_view        INTEGER NOT NULL DEFAULT 0,
    can_edit        INTEGER NOT NULL DEFAULT 0,
    can_delete      INTEGER NOT NULL DEFAULT 0,
    can_export      INTEGER NOT NULL DEFAULT 0,

    PRIMARY KEY (menu_id, role_id)
);

CREATE INDEX IF NOT EXISTS idx_bastion_menu_perms_role ON bastion_menu_permissions (role_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bastion_menu_permissions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_audit_logs",
			Version: "20240101000008",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bastion_audit_logs (
    id              TEXT PRIMARY KEY,
    user_id         TEXT NOT NULL,
    action          TEXT NOT NULL,
    resource        TEXT NOT NULL,
    resource_id     TEXT NOT NULL DEFAULT '',
    details         TEXT NOT NULL DEFAULT '{}',
    request_ip      TEXT NOT NULL DEFAULT '',
    created_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_bastion_audit_user ON bastion_audit_logs (user_id);
CREATE INDEX IF NOT EXISTS idx_bastion_audit_resource ON bastion_audit_logs (resource, resource_id);
CREATE INDEX IF NOT EXISTS idx_bastion_audit_created ON bastion_audit_logs (created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bastion_audit_logs`)
				return err
			},
		},
	)
}
