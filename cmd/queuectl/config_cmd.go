package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/rezkam/queuectl/internal/queue"
)

func runConfig(ctx context.Context, store queue.Store, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("config: expected 'get' or 'set'")
	}
	switch args[0] {
	case "get":
		return runConfigGet(ctx, store)
	case "set":
		if len(args) != 3 {
			return fmt.Errorf("config set: expected <key> <value>")
		}
		return runConfigSet(ctx, store, args[1], args[2])
	default:
		return fmt.Errorf("config: unknown subcommand %q", args[0])
	}
}

func runConfigGet(ctx context.Context, store queue.Store) error {
	cfg, err := store.GetConfig(ctx)
	if err != nil {
		return fmt.Errorf("config get: %w", err)
	}
	keys := make([]string, 0, len(cfg))
	for k := range cfg {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%s=%s\n", k, cfg[k])
	}
	return nil
}

func runConfigSet(ctx context.Context, store queue.Store, key, value string) error {
	if err := store.SetConfig(ctx, key, value); err != nil {
		return fmt.Errorf("config set: %w", err)
	}
	return nil
}
