// Package storage is the SQLite persistence sink behind the copilot: session
// snapshots, captured leads, drafted proposals, scheduled events and the
// conversation log. Everything here is written after the user reply is
// already decided; a storage failure is logged upstream, never propagated to
// the user.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/yourusername/revenue-copilot/models"
)

// SQLiteDB represents a SQLite database connection.
type SQLiteDB struct {
	db   *sql.DB
	path string
}

// NewSQLiteDB opens (creating if needed) the copilot database.
func NewSQLiteDB(dbPath string) (*SQLiteDB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteDB{db: db, path: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteDB) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS sessions (
        user_id TEXT PRIMARY KEY,
        data TEXT NOT NULL,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS leads (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        name TEXT DEFAULT '',
        company TEXT DEFAULT '',
        budget INTEGER DEFAULT 0,
        timeline TEXT DEFAULT '',
        email TEXT DEFAULT '',
        phone TEXT DEFAULT '',
        quality_score INTEGER DEFAULT 0,
        created_at DATETIME NOT NULL,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_leads_user ON leads(user_id);

    CREATE TABLE IF NOT EXISTS proposals (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        lead_id TEXT NOT NULL,
        title TEXT NOT NULL,
        body TEXT NOT NULL,
        created_at DATETIME NOT NULL,
        FOREIGN KEY (lead_id) REFERENCES leads(id) ON DELETE CASCADE
    );

    CREATE TABLE IF NOT EXISTS events (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id TEXT NOT NULL,
        title TEXT NOT NULL,
        start_at DATETIME NOT NULL,
        end_at DATETIME NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS deal_status (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id TEXT NOT NULL,
        note TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS conversation_log (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id TEXT NOT NULL,
        text TEXT NOT NULL,
        intent TEXT NOT NULL,
        confidence REAL NOT NULL,
        route TEXT NOT NULL,
        request_id TEXT DEFAULT '',
        timestamp DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_conversation_user ON conversation_log(user_id);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// SaveSession upserts a serialized session snapshot.
func (s *SQLiteDB) SaveSession(userID string, data []byte) error {
	_, err := s.db.Exec(`
        INSERT INTO sessions (user_id, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(user_id) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		userID, string(data))
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", userID, err)
	}
	return nil
}

// LoadSession returns the serialized snapshot for a user, or nil when absent.
func (s *SQLiteDB) LoadSession(userID string) ([]byte, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM sessions WHERE user_id = ?`, userID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", userID, err)
	}
	return []byte(data), nil
}

// SaveLead upserts a lead record.
func (s *SQLiteDB) SaveLead(lead *models.Lead) error {
	_, err := s.db.Exec(`
        INSERT INTO leads (id, user_id, name, company, budget, timeline, email, phone, quality_score, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            name = excluded.name, company = excluded.company, budget = excluded.budget,
            timeline = excluded.timeline, email = excluded.email, phone = excluded.phone,
            quality_score = excluded.quality_score, updated_at = CURRENT_TIMESTAMP`,
		lead.ID, lead.UserID, lead.Name, lead.Company, lead.Budget,
		lead.Timeline, lead.Email, lead.Phone, lead.QualityScore, lead.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save lead %s: %w", lead.ID, err)
	}
	return nil
}

// GetLead fetches a lead by id.
func (s *SQLiteDB) GetLead(id string) (*models.Lead, error) {
	lead := &models.Lead{}
	err := s.db.QueryRow(`
        SELECT id, user_id, name, company, budget, timeline, email, phone, quality_score, created_at
        FROM leads WHERE id = ?`, id).Scan(
		&lead.ID, &lead.UserID, &lead.Name, &lead.Company, &lead.Budget,
		&lead.Timeline, &lead.Email, &lead.Phone, &lead.QualityScore, &lead.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lead %s: %w", id, err)
	}
	return lead, nil
}

// SaveProposal stores drafted proposal copy for a lead.
func (s *SQLiteDB) SaveProposal(p *models.ProposalContent) error {
	_, err := s.db.Exec(`INSERT INTO proposals (lead_id, title, body, created_at) VALUES (?, ?, ?, ?)`,
		p.LeadID, p.Title, p.Body, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save proposal for lead %s: %w", p.LeadID, err)
	}
	return nil
}

// SaveEvent stores a scheduled calendar event.
func (s *SQLiteDB) SaveEvent(userID string, c *models.CalendarConfirmation) error {
	_, err := s.db.Exec(`INSERT INTO events (user_id, title, start_at, end_at) VALUES (?, ?, ?, ?)`,
		userID, c.Title, c.StartAt, c.EndAt)
	if err != nil {
		return fmt.Errorf("failed to save event for user %s: %w", userID, err)
	}
	return nil
}

// SaveStatus appends a deal status note for a user.
func (s *SQLiteDB) SaveStatus(userID, note string) error {
	_, err := s.db.Exec(`INSERT INTO deal_status (user_id, note) VALUES (?, ?)`, userID, note)
	if err != nil {
		return fmt.Errorf("failed to save status for user %s: %w", userID, err)
	}
	return nil
}

// LogConversation appends one dispatch record to the conversation log.
func (s *SQLiteDB) LogConversation(rec *models.ConversationRecord) error {
	_, err := s.db.Exec(`
        INSERT INTO conversation_log (user_id, text, intent, confidence, route, request_id, timestamp)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.UserID, rec.Text, string(rec.Intent), rec.Confidence, string(rec.Route), rec.RequestID, rec.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to log conversation: %w", err)
	}
	return nil
}

// CountLeads returns the number of captured leads, for the metrics command.
func (s *SQLiteDB) CountLeads() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM leads`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count leads: %w", err)
	}
	return n, nil
}

// CountConversations returns the number of logged dispatches.
func (s *SQLiteDB) CountConversations() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM conversation_log`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count conversations: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
