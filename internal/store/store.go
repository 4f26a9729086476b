// Package store persists chat history and plan state in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/glebarez/go-sqlite"
	"github.com/rahul/kestrel/internal/plan"
	"github.com/tmc/langchaingo/llms"
)

type Store struct {
	DB *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id TEXT,
			role TEXT,
			content TEXT,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS plans (
			chat_id TEXT PRIMARY KEY,
			plan_id TEXT,
			title TEXT,
			goal TEXT,
			language TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS steps (
			plan_id TEXT,
			seq INTEGER,
			step_id TEXT,
			description TEXT,
			status TEXT,
			success INTEGER,
			result TEXT,
			error TEXT,
			attachments TEXT,
			PRIMARY KEY (plan_id, seq)
		);`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return nil, err
		}
	}

	return &Store{DB: db}, nil
}

func (s *Store) AddMessage(chatID string, role string, content string) error {
	_, err := s.DB.Exec(
		`INSERT INTO messages (chat_id, role, content) VALUES (?, ?, ?)`,
		chatID, role, content,
	)
	return err
}

// SavePlan stores the current plan for a chat, replacing the previous
// one. Steps are rewritten wholesale; the row set is small.
func (s *Store) SavePlan(chatID string, pl *plan.Plan) error {
	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// A replaced plan carries a new id; drop the superseded plan's step
	// rows or they linger unreachable.
	var prevID string
	err = tx.QueryRow(`SELECT plan_id FROM plans WHERE chat_id = ?`, chatID).Scan(&prevID)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	if prevID != "" && prevID != pl.ID {
		if _, err := tx.Exec(`DELETE FROM steps WHERE plan_id = ?`, prevID); err != nil {
			return err
		}
	}

	_, err = tx.Exec(
		`INSERT INTO plans (chat_id, plan_id, title, goal, language) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(chat_id) DO UPDATE SET plan_id=excluded.plan_id, title=excluded.title, goal=excluded.goal, language=excluded.language`,
		chatID, pl.ID, pl.Title, pl.Goal, pl.Language,
	)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM steps WHERE plan_id = ?`, pl.ID); err != nil {
		return err
	}
	for i, st := range pl.Steps {
		attachments, err := json.Marshal(st.Attachments)
		if err != nil {
			return err
		}
		_, err = tx.Exec(
			`INSERT INTO steps (plan_id, seq, step_id, description, status, success, result, error, attachments)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			pl.ID, i, st.ID, st.Description, string(st.Status), st.Success, st.Result, st.Error, string(attachments),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadPlan returns the stored plan for a chat, or nil when none exists.
func (s *Store) LoadPlan(chatID string) (*plan.Plan, error) {
	pl := &plan.Plan{}
	err := s.DB.QueryRow(
		`SELECT plan_id, title, goal, language FROM plans WHERE chat_id = ?`, chatID,
	).Scan(&pl.ID, &pl.Title, &pl.Goal, &pl.Language)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.Query(
		`SELECT step_id, description, status, success, result, error, attachments
		 FROM steps WHERE plan_id = ? ORDER BY seq`, pl.ID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		st := &plan.Step{}
		var status, attachments string
		if err := rows.Scan(&st.ID, &st.Description, &status, &st.Success, &st.Result, &st.Error, &attachments); err != nil {
			return nil, err
		}
		st.Status = plan.Status(status)
		if attachments != "" {
			if err := json.Unmarshal([]byte(attachments), &st.Attachments); err != nil {
				return nil, fmt.Errorf("decode attachments for step %s: %w", st.ID, err)
			}
		}
		pl.Steps = append(pl.Steps, st)
	}
	return pl, rows.Err()
}

// GetHistory returns the most recent messages of a chat in chronological
// order, shaped for the model.
func (s *Store) GetHistory(chatID string, limit int) ([]llms.MessageContent, error) {
	rows, err := s.DB.Query(
		`SELECT role, content FROM messages WHERE chat_id = ? ORDER BY id DESC LIMIT ?`,
		chatID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []llms.MessageContent
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, err
		}

		var msgRole llms.ChatMessageType
		switch role {
		case "human":
			msgRole = llms.ChatMessageTypeHuman
		case "ai":
			msgRole = llms.ChatMessageTypeAI
		case "system":
			msgRole = llms.ChatMessageTypeSystem
		default:
			msgRole = llms.ChatMessageTypeHuman
		}

		history = append(history, llms.MessageContent{
			Role:  msgRole,
			Parts: []llms.ContentPart{llms.TextPart(content)},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to chronological order.
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return history, nil
}
