// Package mappedstore implements the mapped-request store (C10): a
// single-file relational store of mapped requests awaiting hand-off to the
// control plane, ordered for pull by (priority, generation timestamp).
package mappedstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vorgateway/gateway/pkg/contracts"
)

// ErrEmpty is returned by PullHighest when no mapped request is queued.
var ErrEmpty = errors.New("mappedstore: no mapped requests queued")

// Store is a sqlite-backed store of mapped requests pending hand-off.
// Schema: mapped_requests(request_id PK, generation_timestamp, description,
// impact, priority, tags, affected_endpoint_list_json).
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the sqlite-backed mapped-request
// database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("mappedstore: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // single-file writer; avoid sqlite lock contention

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS mapped_requests (
			request_id                  TEXT PRIMARY KEY,
			generation_timestamp        TEXT NOT NULL,
			description                 TEXT NOT NULL,
			impact                      TEXT NOT NULL,
			priority                    INTEGER NOT NULL,
			tags                        TEXT,
			affected_endpoint_list_json TEXT NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("mappedstore: migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertOrReplace persists req, replacing any existing row with the same
// request id.
func (s *Store) InsertOrReplace(ctx context.Context, req contracts.MappedRequest, description, tags string) error {
	endpointsJSON, err := json.Marshal(req.AffectedEndpoints)
	if err != nil {
		return fmt.Errorf("%w: marshal affected endpoints: %v", contracts.ErrMappingPersistFailed, err)
	}

	generationTimestamp := req.GenerationTime
	if generationTimestamp.IsZero() {
		generationTimestamp = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO mapped_requests
			(request_id, generation_timestamp, description, impact, priority, tags, affected_endpoint_list_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(request_id) DO UPDATE SET
			generation_timestamp        = excluded.generation_timestamp,
			description                 = excluded.description,
			impact                      = excluded.impact,
			priority                    = excluded.priority,
			tags                        = excluded.tags,
			affected_endpoint_list_json = excluded.affected_endpoint_list_json
	`,
		req.Request.RequestID,
		generationTimestamp.Format(time.RFC3339Nano),
		description,
		req.Request.Impact,
		req.Request.Priority,
		tags,
		string(endpointsJSON),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", contracts.ErrMappingPersistFailed, err)
	}
	return nil
}

// Entry is a read-only view of a queued mapped request, as returned by
// List. It never removes anything from the store.
type Entry struct {
	Request     contracts.MappedRequest
	Description string
	Tags        string
}

// List returns every mapped request currently queued, ordered the same way
// PullHighest would drain them, without removing anything. It backs the
// admin API's read-only /mapped-requests endpoint.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT request_id, generation_timestamp, description, impact, priority, tags, affected_endpoint_list_json
		FROM mapped_requests
		ORDER BY priority, generation_timestamp`)
	if err != nil {
		return nil, fmt.Errorf("mappedstore: list: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			requestID, generationTimestamp, description, impact, tags, endpointsJSON string
			priority                                                                 int
		)
		if err := rows.Scan(&requestID, &generationTimestamp, &description, &impact, &priority, &tags, &endpointsJSON); err != nil {
			return nil, fmt.Errorf("mappedstore: scan: %w", err)
		}

		var affected []contracts.AffectedEndpoint
		if err := json.Unmarshal([]byte(endpointsJSON), &affected); err != nil {
			return nil, fmt.Errorf("mappedstore: unmarshal affected endpoints: %w", err)
		}
		genTime, err := time.Parse(time.RFC3339Nano, generationTimestamp)
		if err != nil {
			return nil, fmt.Errorf("mappedstore: parse generation timestamp: %w", err)
		}

		entries = append(entries, Entry{
			Request: contracts.MappedRequest{
				Request: contracts.Request{
					RequestID: requestID,
					Impact:    impact,
					Priority:  priority,
				},
				AffectedEndpoints: affected,
				GenerationTime:    genTime,
			},
			Description: description,
			Tags:        tags,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mappedstore: list rows: %w", err)
	}
	return entries, nil
}

// PullHighest atomically selects and removes the mapped request with the
// lowest (priority, generation_timestamp) ordering — i.e. the highest
// priority, oldest-first on ties — in a single transaction so a crash
// between the select and the delete cannot duplicate or lose a pull.
func (s *Store) PullHighest(ctx context.Context) (contracts.MappedRequest, string, string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return contracts.MappedRequest{}, "", "", fmt.Errorf("mappedstore: begin: %w", err)
	}
	defer tx.Rollback()

	var (
		requestID, generationTimestamp, description, impact, tags, endpointsJSON string
		priority                                                                 int
	)
	row := tx.QueryRowContext(ctx, `
		SELECT request_id, generation_timestamp, description, impact, priority, tags, affected_endpoint_list_json
		FROM mapped_requests
		ORDER BY priority, generation_timestamp
		LIMIT 1`)
	if err := row.Scan(&requestID, &generationTimestamp, &description, &impact, &priority, &tags, &endpointsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contracts.MappedRequest{}, "", "", ErrEmpty
		}
		return contracts.MappedRequest{}, "", "", fmt.Errorf("mappedstore: select: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM mapped_requests WHERE request_id = ?`, requestID); err != nil {
		return contracts.MappedRequest{}, "", "", fmt.Errorf("mappedstore: delete: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return contracts.MappedRequest{}, "", "", fmt.Errorf("mappedstore: commit: %w", err)
	}

	var affected []contracts.AffectedEndpoint
	if err := json.Unmarshal([]byte(endpointsJSON), &affected); err != nil {
		return contracts.MappedRequest{}, "", "", fmt.Errorf("mappedstore: unmarshal affected endpoints: %w", err)
	}

	genTime, err := time.Parse(time.RFC3339Nano, generationTimestamp)
	if err != nil {
		return contracts.MappedRequest{}, "", "", fmt.Errorf("mappedstore: parse generation timestamp: %w", err)
	}

	mapped := contracts.MappedRequest{
		Request: contracts.Request{
			RequestID: requestID,
			Impact:    impact,
			Priority:  priority,
		},
		AffectedEndpoints: affected,
		GenerationTime:    genTime,
	}
	return mapped, description, tags, nil
}
