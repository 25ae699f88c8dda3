package sqlite

import (
	"context"
	"fmt"

	"github.com/rezkam/queuectl/internal/domain"
	"github.com/rezkam/queuectl/internal/queue"
)

// GetConfig implements queue.Store.
func (s *Store) GetConfig(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM config`)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	defer rows.Close()

	cfg := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan config row: %w", err)
		}
		cfg[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Fill in anything the migrations haven't seeded yet so callers always
	// see every recognized key.
	for k, v := range domain.DefaultConfig() {
		if _, ok := cfg[k]; !ok {
			cfg[k] = v
		}
	}
	return cfg, nil
}

// SetConfig implements queue.Store. An unrecognized key is a returned
// error rather than a panic or silent no-op; the CLI decides how to surface it.
func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	if !domain.RecognizedConfigKeys(key) {
		return fmt.Errorf("%w: %s", queue.ErrUnknownConfigKey, key)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value=excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set config %s: %w", key, err)
	}
	return nil
}
