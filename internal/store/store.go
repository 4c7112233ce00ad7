// Package store implements the durable key-value store backing the dashboard
// using SQLite. Each persisted collection (agents, settings, missions, chat
// messages) is a table keyed by its natural id with the record serialized as
// JSON, mirroring the keyPath object stores the UI state was designed around.
// Chat messages additionally support lookup by mission id.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"a2aclient/internal/logging"
	"a2aclient/internal/types"
)

// Store wraps a single SQLite connection. All writes are serialized through
// one connection; readers share it under an RWMutex.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Open initializes the SQLite database at the given path.
func Open(path string) (*Store, error) {
	logging.Store("Opening store at path: %s", path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logging.Store("Store ready (agents, settings, missions, chat_messages)")
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS agents (
		id   TEXT PRIMARY KEY,
		data TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS settings (
		name TEXT PRIMARY KEY,
		data TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS missions (
		id   TEXT PRIMARY KEY,
		data TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS chat_messages (
		id         INTEGER PRIMARY KEY,
		mission_id TEXT,
		data       TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chat_messages_mission ON chat_messages(mission_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// =============================================================================
// AGENTS
// =============================================================================

// PutAgent inserts or replaces one agent record.
func (s *Store) PutAgent(a types.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal agent %s: %w", a.ID, err)
	}
	_, err = s.db.Exec("INSERT OR REPLACE INTO agents (id, data) VALUES (?, ?)", a.ID, string(data))
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to put agent %s: %v", a.ID, err)
		return err
	}
	logging.StoreDebug("Agent persisted: %s", a.ID)
	return nil
}

// Agents returns all persisted agents in insertion (rowid) order.
func (s *Store) Agents() ([]types.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT data FROM agents ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []types.Agent
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			continue
		}
		var a types.Agent
		if err := json.Unmarshal([]byte(data), &a); err != nil {
			logging.Get(logging.CategoryStore).Warn("Skipping corrupt agent record: %v", err)
			continue
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// =============================================================================
// SETTINGS
// =============================================================================

// PutSetting stores a named settings bundle (apiKeys, customInstructions).
func (s *Store) PutSetting(name string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal setting %s: %w", name, err)
	}
	_, err = s.db.Exec("INSERT OR REPLACE INTO settings (name, data) VALUES (?, ?)", name, string(data))
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to put setting %s: %v", name, err)
	}
	return err
}

// GetSetting loads a named settings bundle into dest. The boolean reports
// whether the setting existed.
func (s *Store) GetSetting(name string, dest interface{}) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data string
	err := s.db.QueryRow("SELECT data FROM settings WHERE name = ?", name).Scan(&data)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, fmt.Errorf("failed to decode setting %s: %w", name, err)
	}
	return true, nil
}

// =============================================================================
// MISSIONS
// =============================================================================

// PutMission inserts or replaces one mission record.
func (s *Store) PutMission(m types.Mission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal mission %s: %w", m.ID, err)
	}
	_, err = s.db.Exec("INSERT OR REPLACE INTO missions (id, data) VALUES (?, ?)", m.ID, string(data))
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to put mission %s: %v", m.ID, err)
	}
	return err
}

// Missions returns all persisted missions in creation (rowid) order.
func (s *Store) Missions() ([]types.Mission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT data FROM missions ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var missions []types.Mission
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			continue
		}
		var m types.Mission
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			logging.Get(logging.CategoryStore).Warn("Skipping corrupt mission record: %v", err)
			continue
		}
		missions = append(missions, m)
	}
	return missions, rows.Err()
}

// GetMission loads one mission by id. The boolean reports existence.
func (s *Store) GetMission(id string) (types.Mission, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data string
	err := s.db.QueryRow("SELECT data FROM missions WHERE id = ?", id).Scan(&data)
	if err == sql.ErrNoRows {
		return types.Mission{}, false, nil
	}
	if err != nil {
		return types.Mission{}, false, err
	}
	var m types.Mission
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return types.Mission{}, false, err
	}
	return m, true, nil
}

// =============================================================================
// CHAT MESSAGES
// =============================================================================

// PutMessage inserts or replaces one chat message by id. Updates (a hint
// arriving after the message was appended) reuse the original id.
func (s *Store) PutMessage(m types.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message %d: %w", m.ID, err)
	}
	var missionID interface{}
	if m.MissionID != nil {
		missionID = *m.MissionID
	}
	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO chat_messages (id, mission_id, data) VALUES (?, ?, ?)",
		m.ID, missionID, string(data),
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to put message %d: %v", m.ID, err)
	}
	return err
}

// GetMessage loads one chat message by id. The boolean reports existence.
func (s *Store) GetMessage(id int64) (types.ChatMessage, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data string
	err := s.db.QueryRow("SELECT data FROM chat_messages WHERE id = ?", id).Scan(&data)
	if err == sql.ErrNoRows {
		return types.ChatMessage{}, false, nil
	}
	if err != nil {
		return types.ChatMessage{}, false, err
	}
	var m types.ChatMessage
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return types.ChatMessage{}, false, err
	}
	return m, true, nil
}

// MessagesByMission returns the messages scoped to a mission in send order.
func (s *Store) MessagesByMission(missionID string) ([]types.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT data FROM chat_messages WHERE mission_id = ? ORDER BY id", missionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []types.ChatMessage
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			continue
		}
		var m types.ChatMessage
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			logging.Get(logging.CategoryStore).Warn("Skipping corrupt message record: %v", err)
			continue
		}
		messages = append(messages, m)
	}
	logging.StoreDebug("Loaded %d messages for mission=%s", len(messages), missionID)
	return messages, rows.Err()
}

// MessagesUnscoped returns the messages with no mission, i.e. the secondary
// provider thread, in send order.
func (s *Store) MessagesUnscoped() ([]types.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT data FROM chat_messages WHERE mission_id IS NULL ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []types.ChatMessage
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			continue
		}
		var m types.ChatMessage
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			logging.Get(logging.CategoryStore).Warn("Skipping corrupt message record: %v", err)
			continue
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// MaxMessageID returns the largest persisted message id, or zero when no
// messages exist. New sessions resume the id sequence from here.
func (s *Store) MaxMessageID() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var max sql.NullInt64
	if err := s.db.QueryRow("SELECT MAX(id) FROM chat_messages").Scan(&max); err != nil {
		return 0, err
	}
	return max.Int64, nil
}
