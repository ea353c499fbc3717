//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xraph/bastion/id"
)

// startPostgres boots a throwaway PostgreSQL container and returns a pgx
// pool connected to it. Skips when Docker is unavailable.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	if _, err := testcontainers.ProviderDocker.GetProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("bastion_test"),
		tcpostgres.WithUsername("bastion"),
		tcpostgres.WithPassword("bastion_test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	for _, ddl := range allDDL {
		if _, err := pool.Exec(ctx, ddl); err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return pool
}

func TestSchemaRoundTrip(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()

	roleID := id.NewRoleID().String()
	permID := id.NewPermissionID().String()

	if _, err := pool.Exec(ctx,
		`INSERT INTO bastion_roles (id, name) VALUES ($1, $2)`,
		roleID, "editor"); err != nil {
		t.Fatalf("insert role: %v", err)
	}
	if _, err := pool.Exec(ctx,
		`INSERT INTO bastion_permissions (id, name, resource, action) VALUES ($1, $2, $3, $4)`,
		permID, "order:read", "order", "read"); err != nil {
		t.Fatalf("insert permission: %v", err)
	}
	if _, err := pool.Exec(ctx,
		`INSERT INTO bastion_role_permissions (role_id, permission_id) VALUES ($1, $2)`,
		roleID, permID); err != nil {
		t.Fatalf("insert grant: %v", err)
	}

	var name string
	err := pool.QueryRow(ctx, `
SELECT p.name FROM bastion_permissions p
JOIN bastion_role_permissions rp ON rp.permission_id = p.id
WHERE rp.role_id = $1`, roleID).Scan(&name)
	if err != nil {
		t.Fatalf("query grant: %v", err)
	}
	if name != "order:read" {
		t.Errorf("granted permission = %q, want %q", name, "order:read")
	}
}

func TestSchemaUniqueConstraints(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()

	if _, err := pool.Exec(ctx,
		`INSERT INTO bastion_roles (id, name) VALUES ($1, $2)`,
		id.NewRoleID().String(), "viewer"); err != nil {
		t.Fatalf("insert role: %v", err)
	}
	if _, err := pool.Exec(ctx,
		`INSERT INTO bastion_roles (id, name) VALUES ($1, $2)`,
		id.NewRoleID().String(), "viewer"); err == nil {
		t.Error("duplicate role name accepted, want unique violation")
	}

	if _, err := pool.Exec(ctx,
		`INSERT INTO bastion_permissions (id, name, resource, action) VALUES ($1, $2, $3, $4)`,
		id.NewPermissionID().String(), "user:read", "user", "read"); err != nil {
		t.Fatalf("insert permission: %v", err)
	}
	if _, err := pool.Exec(ctx,
		`INSERT INTO bastion_permissions (id, name, resource, action) VALUES ($1, $2, $3, $4)`,
		id.NewPermissionID().String(), "user:read2", "user", "read"); err == nil {
		t.Error("duplicate (resource, action) accepted, want unique violation")
	}
}

func TestSchemaCascadesOnRoleDelete(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()

	roleID := id.NewRoleID().String()
	permID := id.NewPermissionID().String()

	mustExec := func(sql string, args ...any) {
		t.Helper()
		if _, err := pool.Exec(ctx, sql, args...); err != nil {
			t.Fatalf("exec %s: %v", sql, err)
		}
	}
	mustExec(`INSERT INTO bastion_roles (id, name) VALUES ($1, $2)`, roleID, "ops")
	mustExec(`INSERT INTO bastion_permissions (id, name, resource, action) VALUES ($1, $2, $3, $4)`,
		permID, "report:export", "report", "export")
	mustExec(`INSERT INTO bastion_role_permissions (role_id, permission_id) VALUES ($1, $2)`, roleID, permID)
	mustExec(`INSERT INTO bastion_assignments (id, role_id, user_id) VALUES ($1, $2, $3)`,
		id.NewAssignmentID().String(), roleID, "u1")
	mustExec(`INSERT INTO bastion_menus (id, title) VALUES ($1, $2)`, "dashboard", "Dashboard")
	mustExec(`INSERT INTO bastion_menu_permissions (menu_id, role_id, can_view) VALUES ($1, $2, TRUE)`,
		"dashboard", roleID)

	mustExec(`DELETE FROM bastion_roles WHERE id = $1`, roleID)

	for _, table := range []string{"bastion_role_permissions", "bastion_assignments", "bastion_menu_permissions"} {
		var n int
		if err := pool.QueryRow(ctx, `SELECT count(*) FROM `+table).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != 0 {
			t.Errorf("%s has %d rows after role delete, want 0", table, n)
		}
	}
}
