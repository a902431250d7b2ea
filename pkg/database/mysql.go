package database

import (
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/onurcolak/lead-notification-service/environments"
	"github.com/onurcolak/lead-notification-service/pkg/logger"
)

func DSN(cfg environments.DatabaseConfig) string {
	// clientFoundRows makes RowsAffected count matched rows, so re-marking an
	// already processed call is not reported as missing.
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC&clientFoundRows=true&charset=utf8mb4&collation=utf8mb4_unicode_ci",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName,
	)
}

func NewMySQLDB(cfg environments.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("mysql", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Infof("Connected to MySQL database")
	return db, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(200) NOT NULL,
		ivr_number VARCHAR(32) NULL,
		brochure_url VARCHAR(500) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_projects_ivr_number (ivr_number),
		INDEX idx_projects_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS leads (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(200) NOT NULL,
		phone VARCHAR(20) NOT NULL,
		email VARCHAR(254) NOT NULL DEFAULT '',
		source VARCHAR(50) NOT NULL DEFAULT '',
		current_stage_id VARCHAR(50) NOT NULL DEFAULT '',
		quality_score INT NOT NULL DEFAULT 0,
		notes TEXT NOT NULL,
		opted_out_of_messaging BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_leads_phone (phone),
		INDEX idx_leads_created_at (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS lead_projects (
		lead_id BIGINT NOT NULL,
		project_id BIGINT NOT NULL,
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		PRIMARY KEY (lead_id, project_id),
		INDEX idx_lead_projects_project (project_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS call_records (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		from_phone VARCHAR(32) NOT NULL,
		to_number VARCHAR(32) NOT NULL DEFAULT '',
		start_time DATETIME NOT NULL,
		duration_seconds INT NOT NULL DEFAULT 0,
		raw_payload TEXT NOT NULL,
		processed BOOLEAN NOT NULL DEFAULT FALSE,
		lead_id BIGINT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_call_records_pending (processed, start_time)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS message_records (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		lead_id BIGINT NULL,
		phone VARCHAR(20) NOT NULL,
		template_name VARCHAR(200) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'queued',
		transport_message_id VARCHAR(200) NULL,
		via VARCHAR(20) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		sent_at DATETIME NULL,
		delivered_at DATETIME NULL,
		read_at DATETIME NULL,
		failed_at DATETIME NULL,
		failure_reason TEXT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_message_records_transport_id (transport_message_id),
		INDEX idx_message_records_status (status),
		INDEX idx_message_records_created_at (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
}

func RunMigrations(db *sqlx.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run migration %d: %w", i+1, err)
		}
	}

	logger.Infof("Database migrations completed")

	return nil
}

func SeedTestData(db *sqlx.DB) error {
	var count int

	err := db.Get(&count, "SELECT COUNT(*) FROM projects")
	if err != nil {
		return err
	}

	if count > 0 {
		logger.Infof("Database already has %d projects, skipping seed", count)
		return nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	projects := []struct {
		name      string
		ivrNumber string
		brochure  string
	}{
		{"Skyline Towers", "08047112233", "https://cdn.example.com/brochures/skyline.pdf"},
		{"Green Meadows", "08047114455", "https://cdn.example.com/brochures/meadows.pdf"},
		{"Lakeview Residency", "08047116677", ""},
	}

	projectIDs := make([]int64, 0, len(projects))
	for _, p := range projects {
		res, err := tx.Exec(
			"INSERT INTO projects (name, ivr_number, brochure_url) VALUES (?, ?, ?)",
			p.name, p.ivrNumber, p.brochure,
		)
		if err != nil {
			return fmt.Errorf("failed to seed projects: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to seed projects: %w", err)
		}
		projectIDs = append(projectIDs, id)
	}

	now := time.Now().UTC()

	leads := []struct {
		name     string
		phone    string
		stage    string
		score    int
		optedOut bool
		project  int
		age      time.Duration
	}{
		{"Asha Rao", "+919876543210", "ivr_lead", 8, false, 0, 2 * time.Hour},
		{"Vikram Mehta", "+919812345678", "ivr_lead", 7, false, 1, 26 * time.Hour},
		{"IVR Caller 4455", "+919900114455", "junk_lead", 2, false, 0, 50 * time.Hour},
		{"Neha Kapoor", "+919845098450", "site_visit", 9, true, 2, 72 * time.Hour},
	}

	for _, l := range leads {
		created := now.Add(-l.age)
		res, err := tx.Exec(
			`INSERT INTO leads (name, phone, source, current_stage_id, quality_score, notes,
				opted_out_of_messaging, created_at, updated_at)
			VALUES (?, ?, 'ivr_call', ?, ?, '', ?, ?, ?)`,
			l.name, l.phone, l.stage, l.score, l.optedOut, created, created,
		)
		if err != nil {
			return fmt.Errorf("failed to seed leads: %w", err)
		}
		leadID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to seed leads: %w", err)
		}
		if _, err := tx.Exec(
			"INSERT INTO lead_projects (lead_id, project_id) VALUES (?, ?)",
			leadID, projectIDs[l.project],
		); err != nil {
			return fmt.Errorf("failed to seed lead projects: %w", err)
		}
	}

	calls := []struct {
		from     string
		to       string
		duration int
		age      time.Duration
	}{
		{"9123456780", "08047112233", 145, 10 * time.Minute},
		{"+91 91234 56780", "08047112233", 12, 40 * time.Minute},
		{"9988776655", "08047114455", 0, time.Hour},
		{"9900114455", "08047112233", 210, 90 * time.Minute},
		{"12345", "08047116677", 75, 2 * time.Hour},
	}

	for _, c := range calls {
		if _, err := tx.Exec(
			`INSERT INTO call_records (from_phone, to_number, start_time, duration_seconds, raw_payload)
			VALUES (?, ?, ?, ?, '{}')`,
			c.from, c.to, now.Add(-c.age), c.duration,
		); err != nil {
			return fmt.Errorf("failed to seed call records: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed data: %w", err)
	}

	logger.Infof("Seeded %d projects, %d leads and %d pending calls", len(projects), len(leads), len(calls))
	return nil
}
