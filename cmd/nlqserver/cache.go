package main

import (
	"database/sql"
	"encoding/json"

	_ "modernc.org/sqlite"

	"github.com/dekarrin/nlquery/internal/result"
)

// queryCache persists {query, k} -> ParseResults so repeat requests against
// the same grammar skip re-running the search. Grounded on
// server/dao/sqlite's sql.Open("sqlite", path) usage, simplified from a
// multi-table domain store down to one cache table since this is a demo
// front-end concern, not the core.
type queryCache struct {
	db *sql.DB
}

func newQueryCache(path string) (*queryCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS parse_cache (
		cache_key TEXT PRIMARY KEY,
		results   BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, err
	}
	return &queryCache{db: db}, nil
}

func (c *queryCache) get(key string) (result.ParseResults, bool) {
	var blob []byte
	row := c.db.QueryRow(`SELECT results FROM parse_cache WHERE cache_key = ?`, key)
	if err := row.Scan(&blob); err != nil {
		return result.ParseResults{}, false
	}
	var pr result.ParseResults
	if err := json.Unmarshal(blob, &pr); err != nil {
		return result.ParseResults{}, false
	}
	return pr, true
}

func (c *queryCache) put(key string, pr result.ParseResults) error {
	blob, err := json.Marshal(pr)
	if err != nil {
		return err
	}
	_, err = c.db.Exec(`INSERT INTO parse_cache (cache_key, results) VALUES (?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET results = excluded.results`, key, blob)
	return err
}

func (c *queryCache) Close() error {
	return c.db.Close()
}
