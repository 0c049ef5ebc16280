package database

import (
	"database/sql"
	"time"

	"github.com/blackhouse/concursobot/models"
	_ "github.com/mattn/go-sqlite3"
)

// maxStoredFingerprints caps the on-disk fingerprint log. The in-memory
// cache enforces the exact recency ceiling; this only keeps the file from
// growing without bound.
const maxStoredFingerprints = 2000

// DB handles all database operations
type DB struct {
	conn *sql.DB
}

// New creates a new database connection and initializes tables
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err = createTables(db); err != nil {
		return nil, err
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	// Fingerprints of questions already delivered to the channel
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sent_fingerprints (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			question_text TEXT NOT NULL,
			correct_index INTEGER NOT NULL,
			sent_at INTEGER NOT NULL,
			UNIQUE(question_text, correct_index)
		)
	`)
	if err != nil {
		return err
	}

	// One row per published batch
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS deliveries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			topic TEXT NOT NULL,
			origin TEXT NOT NULL,
			question_count INTEGER NOT NULL,
			sent_at INTEGER NOT NULL
		)
	`)
	return err
}

// SaveFingerprint appends a delivered fingerprint to the history log. A
// re-delivery refreshes the fingerprint's position so it counts as recent
// again.
func (db *DB) SaveFingerprint(fp models.Fingerprint) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO sent_fingerprints (question_text, correct_index, sent_at) VALUES (?, ?, ?)",
		fp.Text, fp.CorrectIndex, time.Now().Unix(),
	)
	if err != nil {
		return err
	}

	_, err = db.conn.Exec(`
		DELETE FROM sent_fingerprints
		WHERE id NOT IN (SELECT id FROM sent_fingerprints ORDER BY id DESC LIMIT ?)
	`, maxStoredFingerprints)
	return err
}

// LoadFingerprints returns up to limit of the most recently stored
// fingerprints, oldest first, so they can be replayed into the in-memory
// cache in insertion order.
func (db *DB) LoadFingerprints(limit int) ([]models.Fingerprint, error) {
	rows, err := db.conn.Query(`
		SELECT question_text, correct_index
		FROM sent_fingerprints
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fingerprints []models.Fingerprint
	for rows.Next() {
		var fp models.Fingerprint
		if err := rows.Scan(&fp.Text, &fp.CorrectIndex); err != nil {
			return nil, err
		}
		fingerprints = append(fingerprints, fp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Rows came newest first; reverse to insertion order.
	for i, j := 0, len(fingerprints)-1; i < j; i, j = i+1, j-1 {
		fingerprints[i], fingerprints[j] = fingerprints[j], fingerprints[i]
	}
	return fingerprints, nil
}

// RecordDelivery logs one published batch
func (db *DB) RecordDelivery(topic, origin string, questionCount int) error {
	_, err := db.conn.Exec(
		"INSERT INTO deliveries (topic, origin, question_count, sent_at) VALUES (?, ?, ?, ?)",
		topic, origin, questionCount, time.Now().Unix(),
	)
	return err
}

// GetDeliveryStats aggregates the delivery log for the /stat command
func (db *DB) GetDeliveryStats() (models.DeliveryStats, error) {
	var stats models.DeliveryStats

	err := db.conn.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(question_count), 0) FROM deliveries",
	).Scan(&stats.TotalBatches, &stats.TotalQuestions)
	if err != nil {
		return stats, err
	}

	err = db.conn.QueryRow(
		"SELECT COUNT(*) FROM deliveries WHERE origin = ?", models.OriginScheduled,
	).Scan(&stats.Scheduled)
	if err != nil {
		return stats, err
	}

	err = db.conn.QueryRow(
		"SELECT COUNT(*) FROM deliveries WHERE origin = ?", models.OriginManual,
	).Scan(&stats.Manual)
	return stats, err
}

// GetTopDeliveredTopics returns the topics with the most published batches
func (db *DB) GetTopDeliveredTopics(limit int) ([]models.TopicCount, error) {
	rows, err := db.conn.Query(`
		SELECT topic, COUNT(*) as batches
		FROM deliveries
		GROUP BY topic
		ORDER BY batches DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.TopicCount
	for rows.Next() {
		var tc models.TopicCount
		if err := rows.Scan(&tc.Topic, &tc.Batches); err != nil {
			return nil, err
		}
		result = append(result, tc)
	}
	return result, rows.Err()
}
