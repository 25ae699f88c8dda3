package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rezkam/queuectl/internal/clock"
	"github.com/rezkam/queuectl/internal/domain"
	"github.com/rezkam/queuectl/internal/idgen"
	"github.com/rezkam/queuectl/internal/queue"
)

type enqueueRequest struct {
	Command    string `json:"command"`
	ID         string `json:"id"`
	MaxRetries *int   `json:"max_retries"`
	RunAt      string `json:"run_at"`
	Priority   int    `json:"priority"`
}

func runEnqueue(ctx context.Context, store queue.Store, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("enqueue: expected exactly one JSON argument")
	}

	var req enqueueRequest
	if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
		return fmt.Errorf("enqueue: invalid JSON: %w", err)
	}
	if req.Command == "" {
		return fmt.Errorf(`enqueue: "command" is required`)
	}

	clk := clock.System{}
	now := clk.Now()

	id := req.ID
	if id == "" {
		id = idgen.NewJobID(now)
	}

	dueAt := now
	if req.RunAt != "" {
		t, err := time.Parse(clock.ISOFormat, req.RunAt)
		if err != nil {
			return fmt.Errorf("enqueue: invalid run_at %q: %w", req.RunAt, err)
		}
		dueAt = t
	}

	maxRetries, err := resolveMaxRetries(ctx, store, req.MaxRetries)
	if err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}

	job := &domain.Job{
		ID:         id,
		Command:    req.Command,
		State:      domain.JobPending,
		MaxRetries: maxRetries,
		Priority:   req.Priority,
		CreatedAt:  now,
		UpdatedAt:  now,
		DueAt:      dueAt,
	}

	if err := store.InsertJob(ctx, job); err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}

	fmt.Println(job.ID)
	return nil
}

// resolveMaxRetries honors an explicit override, falling back to the
// configured default ceiling for jobs that don't supply one.
func resolveMaxRetries(ctx context.Context, store queue.Store, override *int) (int, error) {
	if override != nil {
		return *override, nil
	}
	cfg, err := store.GetConfig(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read config: %w", err)
	}
	n, err := strconv.Atoi(cfg[domain.ConfigMaxRetries])
	if err != nil {
		return 0, fmt.Errorf("invalid %s in config: %w", domain.ConfigMaxRetries, err)
	}
	return n, nil
}
