// Package store persists completed-match records in SQLite. Live game
// state never touches the database; a restart always starts from an empty
// lobby.
package store

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection.
type DB struct {
	conn *sql.DB
}

// MatchRow represents a completed match.
type MatchRow struct {
	ID        int64     `json:"id"`
	Prefix    string    `json:"prefix"`
	Winner    string    `json:"winner"`
	Players   []string  `json:"players"`
	Shots     int       `json:"shots"`
	Duration  float64   `json:"duration"`
	CreatedAt time.Time `json:"created_at"`
}

// Open opens (or creates) the SQLite database.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist.
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		prefix TEXT NOT NULL,
		winner TEXT NOT NULL,
		players TEXT NOT NULL DEFAULT '[]',
		shots INTEGER NOT NULL DEFAULT 0,
		duration REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// RecordMatch stores one completed match and returns its row id.
func (db *DB) RecordMatch(prefix, winner string, players []string, shots int, duration float64) (int64, error) {
	list, err := json.Marshal(players)
	if err != nil {
		return 0, err
	}
	res, err := db.conn.Exec(
		"INSERT INTO matches (prefix, winner, players, shots, duration) VALUES (?, ?, ?, ?, ?)",
		prefix, winner, string(list), shots, duration)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RecentMatches lists the latest completed matches, newest first.
func (db *DB) RecentMatches(limit int) ([]MatchRow, error) {
	rows, err := db.conn.Query(
		"SELECT id, prefix, winner, players, shots, duration, created_at FROM matches ORDER BY id DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []MatchRow
	for rows.Next() {
		var m MatchRow
		var players string
		if err := rows.Scan(&m.ID, &m.Prefix, &m.Winner, &players, &m.Shots, &m.Duration, &m.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(players), &m.Players); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
