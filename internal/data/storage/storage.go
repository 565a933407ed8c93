package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/songzhibin97/tokenflux/internal/data"
	"github.com/songzhibin97/tokenflux/internal/models"

	_ "github.com/lib/pq"
)

// PostgresStore is the durable cache tier. Entries have no expiry and are
// cleared only by explicit invalidation; results are stored as opaque JSON
// blobs keyed by token identity.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{db: db}

	err = s.initTables()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	return s, nil
}

// SaveEmissions implements EmissionsStore interface
func (s *PostgresStore) SaveEmissions(ctx context.Context, result *models.ProjectEmissions) error {
	blob, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal emissions: %w", err)
	}

	query := `
        INSERT INTO emissions_cache (token_id, category, payload, updated_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (token_id, category) DO UPDATE SET
            payload = EXCLUDED.payload,
            updated_at = EXCLUDED.updated_at
    `

	_, err = s.db.ExecContext(ctx, query, result.TokenID, categoryEmissions, blob, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save emissions: %w", err)
	}

	return nil
}

// GetEmissions implements EmissionsStore interface
func (s *PostgresStore) GetEmissions(ctx context.Context, tokenID string) (*models.ProjectEmissions, time.Time, error) {
	query := `
        SELECT payload, updated_at
        FROM emissions_cache
        WHERE token_id = $1 AND category = $2
    `

	var blob []byte
	var updatedAt time.Time

	err := s.db.QueryRowContext(ctx, query, tokenID, categoryEmissions).Scan(&blob, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, data.ErrNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to get emissions: %w", err)
	}

	var result models.ProjectEmissions
	if err := json.Unmarshal(blob, &result); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to unmarshal emissions: %w", err)
	}

	return &result, updatedAt, nil
}

// DeleteEmissions implements EmissionsStore interface
func (s *PostgresStore) DeleteEmissions(ctx context.Context, tokenID string) error {
	query := `DELETE FROM emissions_cache WHERE token_id = $1 AND category = $2`

	_, err := s.db.ExecContext(ctx, query, tokenID, categoryEmissions)
	if err != nil {
		return fmt.Errorf("failed to delete emissions: %w", err)
	}

	return nil
}

// SaveResearch implements EmissionsStore interface
func (s *PostgresStore) SaveResearch(ctx context.Context, tokenID string, research *models.AllocationResearch) error {
	blob, err := json.Marshal(research)
	if err != nil {
		return fmt.Errorf("failed to marshal research: %w", err)
	}

	query := `
        INSERT INTO emissions_cache (token_id, category, payload, updated_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (token_id, category) DO UPDATE SET
            payload = EXCLUDED.payload,
            updated_at = EXCLUDED.updated_at
    `

	_, err = s.db.ExecContext(ctx, query, tokenID, categoryResearch, blob, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save research: %w", err)
	}

	return nil
}

// GetResearch implements EmissionsStore interface
func (s *PostgresStore) GetResearch(ctx context.Context, tokenID string) (*models.AllocationResearch, error) {
	query := `
        SELECT payload
        FROM emissions_cache
        WHERE token_id = $1 AND category = $2
    `

	var blob []byte

	err := s.db.QueryRowContext(ctx, query, tokenID, categoryResearch).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, data.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get research: %w", err)
	}

	var research models.AllocationResearch
	if err := json.Unmarshal(blob, &research); err != nil {
		return nil, fmt.Errorf("failed to unmarshal research: %w", err)
	}

	return &research, nil
}

const (
	categoryEmissions = "emissions"
	categoryResearch  = "research"
)

func (s *PostgresStore) initTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS emissions_cache (
			token_id VARCHAR(100) NOT NULL,
			category VARCHAR(50) NOT NULL,
			payload JSONB NOT NULL,
			updated_at TIMESTAMP DEFAULT NOW(),
			PRIMARY KEY (token_id, category)
		)`,
	}

	for _, query := range queries {
		_, err := s.db.Exec(query)
		if err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}
