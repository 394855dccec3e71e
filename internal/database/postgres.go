package database

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"
)

var PostgresDB *sql.DB

// ConnectPostgres connects to PostgreSQL and initializes the schema.
func ConnectPostgres(postgresURI string) error {
	var err error

	PostgresDB, err = sql.Open("postgres", postgresURI)
	if err != nil {
		return err
	}

	// Connection pool settings
	PostgresDB.SetMaxOpenConns(25)
	PostgresDB.SetMaxIdleConns(5)
	PostgresDB.SetConnMaxLifetime(5 * time.Minute)

	if err = PostgresDB.Ping(); err != nil {
		return err
	}

	log.Println("✅ Connected to PostgreSQL")

	if err = InitPostgresTables(); err != nil {
		return err
	}

	return nil
}

// InitPostgresTables creates all necessary tables if they don't exist.
func InitPostgresTables() error {
	queries := []string{
		// Users table. Points only ever grow through the visit transaction;
		// the admin correction endpoint is the single exception.
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			phone VARCHAR(50),
			points INTEGER NOT NULL DEFAULT 0
		)`,

		// Friend requests: directed rows, one per ordered pair. The unordered
		// pair invariant is enforced by looking up both orderings before insert.
		`CREATE TABLE IF NOT EXISTS friend_requests (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			from_user UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			to_user UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			status VARCHAR(8) NOT NULL DEFAULT 'pending',
			UNIQUE(from_user, to_user)
		)`,

		// Landmark catalog. Coordinates kept as text, same as the seed data.
		`CREATE TABLE IF NOT EXISTS locations (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			name VARCHAR(100) NOT NULL,
			latitude VARCHAR(50) NOT NULL,
			longitude VARCHAR(50) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			points INTEGER NOT NULL,
			default_image_url TEXT
		)`,

		// Visits: at most one per (user, location). The unique constraint is
		// what makes the points award idempotent under concurrent check-ins.
		`CREATE TABLE IF NOT EXISTS visits (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			location_id UUID NOT NULL REFERENCES locations(id) ON DELETE CASCADE,
			visited_at TIMESTAMP NOT NULL DEFAULT NOW(),
			note TEXT NOT NULL DEFAULT '',
			UNIQUE(user_id, location_id)
		)`,

		// Images belong to exactly one visit and die with it.
		`CREATE TABLE IF NOT EXISTS images (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			visit_id UUID NOT NULL REFERENCES visits(id) ON DELETE CASCADE,
			description TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL,
			likes INTEGER NOT NULL DEFAULT 0
		)`,

		// Achievements catalog
		`CREATE TABLE IF NOT EXISTS achievements (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(100) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			points INTEGER NOT NULL
		)`,

		// Admins table (console accounts are created directly in the database)
		`CREATE TABLE IF NOT EXISTS admins (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL
		)`,

		// Indexes for the hot lookups
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_friend_requests_from_user ON friend_requests(from_user)`,
		`CREATE INDEX IF NOT EXISTS idx_friend_requests_to_user ON friend_requests(to_user)`,
		`CREATE INDEX IF NOT EXISTS idx_friend_requests_status ON friend_requests(status)`,
		`CREATE INDEX IF NOT EXISTS idx_visits_user_id ON visits(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_visits_location_id ON visits(location_id)`,
		`CREATE INDEX IF NOT EXISTS idx_images_visit_id ON images(visit_id)`,
		`CREATE INDEX IF NOT EXISTS idx_admins_email ON admins(email)`,
	}

	for _, query := range queries {
		if _, err := PostgresDB.Exec(query); err != nil {
			return err
		}
	}

	log.Println("✅ PostgreSQL tables initialized")
	return nil
}

// DisconnectPostgres closes the PostgreSQL connection.
func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}
