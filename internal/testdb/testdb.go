// README: Test helper that connects to SAWARI_TEST_DSN, applies migrations, and truncates tables.
package testdb

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Open skips the test when SAWARI_TEST_DSN is unset.
func Open(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("SAWARI_TEST_DSN")
	if dsn == "" {
		t.Skip("SAWARI_TEST_DSN not set; skipping DB-backed test")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := applyMigrations(ctx, db); err != nil {
		t.Fatalf("apply migration: %v", err)
	}
	if _, err := db.Exec(ctx, "TRUNCATE TABLE booking_events, bookings, vehicles, drivers, tariffs"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return db
}

// SeedVehicle inserts an approved vehicle with an active driver.
func SeedVehicle(t *testing.T, db *pgxpool.Pool, vehicleID, driverID, category, vehicleType string) {
	t.Helper()
	ctx := context.Background()
	if _, err := db.Exec(ctx, `
		INSERT INTO drivers (id, name, is_active, is_online) VALUES ($1, $2, TRUE, TRUE)
		ON CONFLICT (id) DO NOTHING`, driverID, "Driver "+driverID); err != nil {
		t.Fatalf("seed driver: %v", err)
	}
	if _, err := db.Exec(ctx, `
		INSERT INTO vehicles (id, driver_id, category, vehicle_type, is_active, is_approved)
		VALUES ($1, $2, $3, $4, TRUE, TRUE)`, vehicleID, driverID, category, vehicleType); err != nil {
		t.Fatalf("seed vehicle: %v", err)
	}
}

func applyMigrations(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	paths, err := filepath.Glob(filepath.Join(root, "migrations", "*.sql"))
	if err != nil {
		return err
	}
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, stmt := range splitSQL(stripSQLComments(string(content))) {
			if _, err := db.Exec(ctx, stmt); err != nil {
				return err
			}
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	parts := strings.Split(input, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
