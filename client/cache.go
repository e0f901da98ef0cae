package client

import (
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

var ErrNotCached = errors.New("no cached state")

// Cache keeps the last known state of a client so it survives restarts and
// can be reconciled with the server when the connection comes back.
type Cache interface {
	Load(sessionId, clientId string) (*State, error)
	Save(state *State) error
	Delete(sessionId, clientId string) error
	Close() error
}

type MemoryCache struct {
	rw     sync.Mutex
	states map[string][]byte
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{states: map[string][]byte{}}
}

func (c *MemoryCache) Load(sessionId, clientId string) (*State, error) {
	c.rw.Lock()
	defer c.rw.Unlock()

	raw, found := c.states[workKey(sessionId, clientId)]
	if !found {
		return nil, ErrNotCached
	}
	state := NewState(sessionId, clientId)
	if err := json.Unmarshal(raw, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (c *MemoryCache) Save(state *State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}

	c.rw.Lock()
	defer c.rw.Unlock()
	c.states[workKey(state.SessionId, state.ClientId)] = raw
	return nil
}

func (c *MemoryCache) Delete(sessionId, clientId string) error {
	c.rw.Lock()
	defer c.rw.Unlock()
	delete(c.states, workKey(sessionId, clientId))
	return nil
}

func (c *MemoryCache) Close() error {
	return nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS states (
	session_id TEXT NOT NULL,
	client_id  TEXT NOT NULL,
	state      TEXT NOT NULL,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (session_id, client_id)
)`

// SQLiteCache stores states in a local sqlite database file.
type SQLiteCache struct {
	db *sqlx.DB
}

func NewSQLiteCache(path string) (*SQLiteCache, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open cache %s", path)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create cache schema")
	}
	return &SQLiteCache{db: db}, nil
}

func (c *SQLiteCache) Load(sessionId, clientId string) (*State, error) {
	var raw string
	err := c.db.Get(&raw, `SELECT state FROM states WHERE session_id = ? AND client_id = ?`, sessionId, clientId)
	if err == sql.ErrNoRows {
		return nil, ErrNotCached
	}
	if err != nil {
		return nil, errors.Wrap(err, "load cached state")
	}

	state := NewState(sessionId, clientId)
	if err := json.Unmarshal([]byte(raw), state); err != nil {
		return nil, errors.Wrap(err, "decode cached state")
	}
	return state, nil
}

func (c *SQLiteCache) Save(state *State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = c.db.Exec(`INSERT INTO states (session_id, client_id, state, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (session_id, client_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		state.SessionId, state.ClientId, string(raw), time.Now().UTC())
	return errors.Wrap(err, "save cached state")
}

func (c *SQLiteCache) Delete(sessionId, clientId string) error {
	_, err := c.db.Exec(`DELETE FROM states WHERE session_id = ? AND client_id = ?`, sessionId, clientId)
	return errors.Wrap(err, "delete cached state")
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
