package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// DDL per migration. Hoisted to consts so integration tests can replay the
// schema against a raw connection.
const (
	ddlRoles = `
CREATE TABLE IF NOT EXISTS bastion_roles (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL UNIQUE,
    description     TEXT NOT NULL DEFAULT '',
    is_system       BOOLEAN NOT NULL DEFAULT FALSE,
    is_active       BOOLEAN NOT NULL DEFAULT TRUE,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_bastion_roles_active ON bastion_roles (is_active);
`

	ddlPermissions = `
CREATE TABLE IF NOT EXISTS bastion_permissions (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL UNIQUE,
    resource        TEXT NOT NULL,
    action          TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    is_system       BOOLEAN NOT NULL DEFAULT FALSE,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),

    UNIQUE(resource, action)
);

CREATE INDEX IF NOT EXISTS idx_bastion_permissions_resource ON bastion_permissions (resource);
`

	ddlRolePermissions = `
CREATE TABLE IF NOT EXISTS bastion_role_permissions (
    role_id         TEXT NOT NULL REFERENCES bastion_roles(id) ON DELETE CASCADE,
    permission_id   TEXT NOT NULL REFERENCES bastion_permissions(id) ON DELETE CASCADE,
    granted_by      TEXT NOT NULL DEFAULT '',
    granted_at      TIMESTAMPTZ NOT NULL DEFAULT now(),

    PRIMARY KEY (role_id, permission_id)
);

CREATE INDEX IF NOT EXISTS idx_bastion_role_perms_role ON bastion_role_permissions (role_id);
CREATE INDEX IF NOT EXISTS idx_bastion_role_perms_perm ON bastion_role_permissions (permission_id);
`

	ddlAssignments = `
CREATE TABLE IF NOT EXISTS bastion_assignments (
    id              TEXT PRIMARY KEY,
    role_id         TEXT NOT NULL REFERENCES bastion_roles(id) ON DELETE CASCADE,
    user_id         TEXT NOT NULL,
    assigned_by     TEXT NOT NULL DEFAULT '',
    assigned_at     TIMESTAMPTZ NOT NULL DEFAULT now(),

    UNIQUE(user_id, role_id)
);

CREATE INDEX IF NOT EXISTS idx_bastion_assign_user ON bastion_assignments (user_id);
CREATE INDEX IF NOT EXISTS idx_bastion_assign_role ON bastion_assignments (role_id);
`

	ddlResources = `
CREATE TABLE IF NOT EXISTS bastion_resources (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL UNIQUE,
    description     TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

	ddlMenus = `
CREATE TABLE IF NOT EXISTS bastion_menus (
    id              TEXT PRIMARY KEY,
    parent_id       TEXT NOT NULL DEFAULT '',
    title           TEXT NOT NULL,
    href            TEXT NOT NULL DEFAULT '',
    icon            TEXT NOT NULL DEFAULT '',
    target          TEXT NOT NULL DEFAULT '',
    order_index     INTEGER NOT NULL DEFAULT 0,
    is_active       BOOLEAN NOT NULL DEFAULT TRUE,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_bastion_menus_parent ON bastion_menus (parent_id);
CREATE INDEX IF NOT EXISTS idx_bastion_menus_order ON bastion_menus (parent_id, order_index);
`

	ddlMenuPermissions = `
CREATE TABLE IF NOT EXISTS bastion_menu_permissions (
    menu_id         TEXT NOT NULL REFERENCES bastion_menus(id) ON DELETE CASCADE,
    role_id         TEXT NOT NULL REFERENCES bastion_roles(id) ON DELETE CASCADE,
    can_view        BOOLEAN NOT NULL DEFAULT FALSE,
    can_edit        BOOLEAN NOT NULL DEFAULT FALSE,
    can_delete      BOOLEAN NOT NULL DEFAULT FALSE,
    can_export      BOOLEAN NOT NULL DEFAULT FALSE,

    PRIMARY KEY (menu_id, role_id)
);

CREATE INDEX IF NOT EXISTS idx_bastion_menu_perms_role ON bastion_menu_permissions (role_id);
`

	ddlAuditLogs = `
CREATE TABLE IF NOT EXISTS bastion_audit_logs (
    id              TEXT PRIMARY KEY,
    user_id         TEXT NOT NULL,
    action          TEXT NOT NULL,
    resource        TEXT NOT NULL,
    resource_id     TEXT NOT NULL DEFAULT '',
    details         JSONB NOT NULL DEFAULT '{}',
    request_ip      TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_bastion_audit_user ON bastion_audit_logs (user_id);
CREATE INDEX IF NOT EXISTS idx_bastion_audit_resource ON bastion_audit_logs (resource, resource_id);
CREATE INDEX IF NOT EXISTS idx_bastion_audit_created ON bastion_audit_logs (created_at);
`
)

// allDDL lists the schema statements in dependency order.
var allDDL = []string{
	ddlRoles,
	ddlPermissions,
	ddlRolePermissions,
	ddlAssignments,
	ddlResources,
	ddlMenus,
	ddlMenuPermissions,
	ddlAuditLogs,
}

// Migrations is the grove migration group for the Bastion store (PostgreSQL).
var Migrations = migrate.NewGroup("bastion")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_roles",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, ddlRoles)
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
				_, err := exec.Exec(ctx, ddlPermissions)
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
				_, err := exec.Exec(ctx, ddlRolePermissions)
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
				_, err := exec.Exec(ctx, ddlAssignments)
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
				_, err := exec.Exec(ctx, ddlResources)
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
				_, err := exec.Exec(ctx, ddlMenus)
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
				_, err := exec.Exec(ctx, ddlMenuPermissions)
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
				_, err := exec.Exec(ctx, ddlAuditLogs)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bastion_audit_logs`)
				return err
			},
		},
	)
}
