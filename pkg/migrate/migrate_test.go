package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chatwave/chat-backend/pkg/migrate"
)

func TestRepositoryMigrationsAreValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestRedPacketMigrationsContainGuards(t *testing.T) {
	cases := map[string][]string{
		"*_create_red_packets_table.sql": {
			"CREATE TABLE IF NOT EXISTS red_packets",
			"CHECK (stock >= 0 AND stock <= share_count)",
			"CREATE INDEX IF NOT EXISTS idx_red_packets_refund_pending",
		},
		"*_create_money_flow_logs_table.sql": {
			"CREATE TABLE IF NOT EXISTS money_flow_logs",
			"CREATE UNIQUE INDEX IF NOT EXISTS uq_money_flow_logs_red_packet_claim",
			"WHERE type = 'red_packet' AND change_type = 'incr'",
		},
		"*_create_users_and_social_tables.sql": {
			"CHECK (balance >= 0)",
			"CREATE TABLE IF NOT EXISTS friends",
			"CREATE TABLE IF NOT EXISTS group_users",
		},
	}

	for pattern, checks := range cases {
		matches, err := filepath.Glob(filepath.Join("migrations", pattern))
		if err != nil {
			t.Fatalf("glob %s: %v", pattern, err)
		}
		if len(matches) != 1 {
			t.Fatalf("expected one migration for %s, got %d", pattern, len(matches))
		}
		data, err := os.ReadFile(matches[0])
		if err != nil {
			t.Fatalf("read %s: %v", matches[0], err)
		}
		for _, sub := range checks {
			if !strings.Contains(string(data), sub) {
				t.Errorf("%s missing %q", matches[0], sub)
			}
		}
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()

	path, err := migrate.CreateSQLMigration(dir, "Add Packet Index!")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasSuffix(path, "_add_packet_index.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}

	if _, err := migrate.CreateSQLMigration(dir, "!!!"); err == nil {
		t.Fatal("expected empty sanitized name to fail")
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "init.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := migrate.ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename error")
	}
}
