package checkpoint

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/agentgraph/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	conversation_id TEXT PRIMARY KEY,
	state           BLOB NOT NULL,
	updated_at      TIMESTAMP NOT NULL
);
`

// SQLiteSaver stores snapshots in an SQLite database, one row per
// conversation. WAL mode is enabled for concurrent reads.
type SQLiteSaver struct {
	conn *sql.DB
	path string
}

// OpenSQLite opens (or creates) the database at the given path, creating
// parent directories if they don't exist.
func OpenSQLite(path string) (*SQLiteSaver, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteSaver{conn: conn, path: path}, nil
}

// Save implements Saver.
func (s *SQLiteSaver) Save(state *core.AgentState) error {
	if state == nil || state.ConversationID == "" {
		return fmt.Errorf("save checkpoint: missing conversation id")
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	_, err = s.conn.Exec(`
		INSERT INTO checkpoints (conversation_id, state, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(conversation_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		state.ConversationID, data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}

	return nil
}

// Load implements Saver.
func (s *SQLiteSaver) Load(conversationID string) (*core.AgentState, error) {
	var data []byte

	err := s.conn.QueryRow(
		"SELECT state FROM checkpoints WHERE conversation_id = ?", conversationID,
	).Scan(&data)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load checkpoint %q: %w", conversationID, ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}

	var state core.AgentState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
	}

	return &state, nil
}

// Close closes the database connection.
func (s *SQLiteSaver) Close() error {
	return s.conn.Close()
}
