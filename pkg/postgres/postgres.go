package postgres

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/venuedesk/backend/config"

	_ "github.com/lib/pq"
)

func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to PostgreSQL")
	return db, nil
}

func RunMigrations(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS companies (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS layouts (
			id VARCHAR(64) PRIMARY KEY,
			company_id VARCHAR(64) REFERENCES companies(id),
			name VARCHAR(255) NOT NULL,
			items JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS categories (
			id VARCHAR(64) PRIMARY KEY,
			company_id VARCHAR(64) REFERENCES companies(id),
			name VARCHAR(255) NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS club_cards (
			id VARCHAR(64) PRIMARY KEY,
			company_id VARCHAR(64) REFERENCES companies(id),
			name VARCHAR(255) NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS genres (
			id VARCHAR(64) PRIMARY KEY,
			company_id VARCHAR(64) REFERENCES companies(id),
			name VARCHAR(255) NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS events (
			id VARCHAR(64) PRIMARY KEY,
			company_id VARCHAR(64) NOT NULL REFERENCES companies(id),
			name VARCHAR(255) NOT NULL,
			start_time TIMESTAMPTZ NOT NULL,
			end_time TIMESTAMPTZ NOT NULL,
			table_layouts JSONB NOT NULL DEFAULT '[]',
			categories JSONB NOT NULL DEFAULT '[]',
			club_cards JSONB NOT NULL DEFAULT '[]',
			genres JSONB NOT NULL DEFAULT '[]',
			recurring JSONB,
			created_by VARCHAR(64) NOT NULL,
			created_by_name VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			updated_by VARCHAR(64),
			updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT events_time_order CHECK (start_time < end_time)
		)`,

		`CREATE TABLE IF NOT EXISTS table_lists (
			event_id VARCHAR(64) NOT NULL REFERENCES events(id),
			id VARCHAR(64) NOT NULL,
			name VARCHAR(255) NOT NULL DEFAULT '',
			PRIMARY KEY (event_id, id)
		)`,

		`CREATE TABLE IF NOT EXISTS table_items (
			event_id VARCHAR(64) NOT NULL,
			list_id VARCHAR(64) NOT NULL,
			item_id VARCHAR(64) NOT NULL,
			item_type VARCHAR(32) NOT NULL DEFAULT 'table',
			shape VARCHAR(32) NOT NULL DEFAULT '',
			label VARCHAR(255) NOT NULL DEFAULT '',
			booked_by VARCHAR(255) NOT NULL DEFAULT '',
			pos_x DOUBLE PRECISION NOT NULL DEFAULT 0,
			pos_y DOUBLE PRECISION NOT NULL DEFAULT 0,
			width DOUBLE PRECISION NOT NULL DEFAULT 0,
			height DOUBLE PRECISION NOT NULL DEFAULT 0,
			rotation DOUBLE PRECISION NOT NULL DEFAULT 0,
			guests INTEGER NOT NULL DEFAULT 0,
			checked_in INTEGER NOT NULL DEFAULT 0,
			table_limit INTEGER NOT NULL DEFAULT 0,
			spend NUMERIC(12,2) NOT NULL DEFAULT 0,
			logs JSONB NOT NULL DEFAULT '[]',
			ord INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (event_id, list_id, item_id),
			FOREIGN KEY (event_id, list_id) REFERENCES table_lists(event_id, id)
		)`,

		`CREATE TABLE IF NOT EXISTS table_summaries (
			event_id VARCHAR(64) PRIMARY KEY REFERENCES events(id),
			total_tables INTEGER NOT NULL DEFAULT 0,
			total_guests INTEGER NOT NULL DEFAULT 0,
			total_checked_in INTEGER NOT NULL DEFAULT 0,
			total_booked INTEGER NOT NULL DEFAULT 0,
			total_table_limit INTEGER NOT NULL DEFAULT 0,
			total_spend NUMERIC(12,2) NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS guest_lists (
			event_id VARCHAR(64) NOT NULL REFERENCES events(id),
			id VARCHAR(64) NOT NULL,
			name VARCHAR(255) NOT NULL DEFAULT '',
			PRIMARY KEY (event_id, id)
		)`,

		`CREATE TABLE IF NOT EXISTS guests (
			event_id VARCHAR(64) NOT NULL,
			list_id VARCHAR(64) NOT NULL,
			guest_id VARCHAR(64) NOT NULL,
			guest_name VARCHAR(255) NOT NULL,
			normal_guests INTEGER NOT NULL DEFAULT 0,
			free_guests INTEGER NOT NULL DEFAULT 0,
			normal_checked_in INTEGER NOT NULL DEFAULT 0,
			free_checked_in INTEGER NOT NULL DEFAULT 0,
			comment TEXT NOT NULL DEFAULT '',
			categories JSONB NOT NULL DEFAULT '[]',
			logs JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (event_id, list_id, guest_id),
			FOREIGN KEY (event_id, list_id) REFERENCES guest_lists(event_id, id),
			CONSTRAINT guests_normal_range CHECK (normal_checked_in >= 0 AND normal_checked_in <= normal_guests),
			CONSTRAINT guests_free_range CHECK (free_checked_in >= 0 AND free_checked_in <= free_guests)
		)`,

		`CREATE TABLE IF NOT EXISTS guest_list_summaries (
			event_id VARCHAR(64) PRIMARY KEY REFERENCES events(id),
			total_guests INTEGER NOT NULL DEFAULT 0,
			total_checked_in INTEGER NOT NULL DEFAULT 0,
			normal_guests INTEGER NOT NULL DEFAULT 0,
			free_guests INTEGER NOT NULL DEFAULT 0,
			normal_checked_in INTEGER NOT NULL DEFAULT 0,
			free_checked_in INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS guest_list_log (
			id SERIAL PRIMARY KEY,
			event_id VARCHAR(64) NOT NULL REFERENCES events(id),
			guest_name VARCHAR(255) NOT NULL,
			status VARCHAR(32) NOT NULL,
			user_id VARCHAR(64) NOT NULL,
			user_name VARCHAR(255) NOT NULL DEFAULT '',
			added_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS tickets (
			id VARCHAR(64) PRIMARY KEY,
			event_id VARCHAR(64) NOT NULL REFERENCES events(id),
			name VARCHAR(255) NOT NULL,
			price NUMERIC(12,2) NOT NULL DEFAULT 0,
			total_tickets INTEGER NOT NULL DEFAULT 0,
			tickets_left INTEGER NOT NULL DEFAULT 0,
			sale_start TIMESTAMPTZ NOT NULL,
			sale_end TIMESTAMPTZ NOT NULL,
			is_free BOOLEAN NOT NULL DEFAULT FALSE,
			buyer_pays_fee BOOLEAN NOT NULL DEFAULT FALSE,
			category VARCHAR(255) NOT NULL DEFAULT '',
			max_per_user INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT tickets_left_range CHECK (tickets_left >= 0 AND tickets_left <= total_tickets)
		)`,

		`CREATE TABLE IF NOT EXISTS ticket_summaries (
			event_id VARCHAR(64) PRIMARY KEY REFERENCES events(id),
			total_tickets INTEGER NOT NULL DEFAULT 0,
			tickets_sold INTEGER NOT NULL DEFAULT 0,
			tickets_left INTEGER NOT NULL DEFAULT 0,
			revenue NUMERIC(12,2) NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS activity_log (
			id SERIAL PRIMARY KEY,
			company_id VARCHAR(64) NOT NULL,
			event_id VARCHAR(64) NOT NULL,
			action VARCHAR(64) NOT NULL,
			detail JSONB NOT NULL DEFAULT '{}',
			actor_id VARCHAR(64) NOT NULL,
			actor_name VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_events_company ON events(company_id)`,
		`CREATE INDEX IF NOT EXISTS idx_guests_event ON guests(event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_guests_event_list ON guests(event_id, list_id)`,
		`CREATE INDEX IF NOT EXISTS idx_guest_list_log_event ON guest_list_log(event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_table_items_event_list ON table_items(event_id, list_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tickets_event ON tickets(event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_log_event ON activity_log(event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_layouts_company ON layouts(company_id)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration: %v", err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}
