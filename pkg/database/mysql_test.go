package database

import (
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"

	"github.com/onurcolak/lead-notification-service/environments"
)

func TestDSN_ParsesWithExpectedOptions(t *testing.T) {
	dsn := DSN(environments.DatabaseConfig{
		Host:     "db.internal",
		Port:     "3307",
		User:     "crm",
		Password: "s3cret",
		DBName:   "lead_notifications",
	})

	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("ParseDSN failed: %v", err)
	}

	if cfg.Addr != "db.internal:3307" || cfg.DBName != "lead_notifications" || cfg.User != "crm" {
		t.Fatalf("unexpected parsed config: addr=%s db=%s user=%s", cfg.Addr, cfg.DBName, cfg.User)
	}
	if !cfg.ParseTime {
		t.Fatalf("expected parseTime=true")
	}
	if !cfg.ClientFoundRows {
		t.Fatalf("expected clientFoundRows=true")
	}
}

func TestMigrations_CreateEveryTable(t *testing.T) {
	tables := []string{"projects", "leads", "lead_projects", "call_records", "message_records"}

	for _, table := range tables {
		found := false
		for _, stmt := range migrations {
			if strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS "+table+" ") {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("no migration creates table %q", table)
		}
	}
}
