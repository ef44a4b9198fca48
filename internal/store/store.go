// Package store provides SQLite storage for push-up analysis configuration.
//
// Only configuration is persisted: named strictness profiles bundling the
// counter and posture thresholds. Per-rep history is deliberately not
// stored.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store represents a SQLite database connection.
type Store struct {
	db   *sql.DB
	path string
}

// New creates a Store backed by the database at dbPath. It opens the
// connection, runs migrations and seeds the built-in profiles.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := s.Profiles().seedBuiltins(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed built-in profiles: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Profiles table - named strictness profiles for the analyzer.
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			down_angle REAL NOT NULL,
			angle_tolerance REAL NOT NULL,
			up_threshold REAL NOT NULL,
			parallel_threshold REAL NOT NULL,
			min_down_frames INTEGER NOT NULL,
			min_up_frames INTEGER NOT NULL,
			min_knee_angle REAL NOT NULL,
			max_torso_tilt REAL NOT NULL,
			min_face_down_ratio REAL NOT NULL,
			min_visibility REAL NOT NULL DEFAULT 0.3,
			builtin INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_profiles_name ON profiles(name)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
