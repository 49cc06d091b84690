package main

import (
	"context"
	"encoding/json"
	"io"

	"stockengine/internal/app"
	"stockengine/internal/config"
	"stockengine/internal/logger"
)

// 設定を読んでDBとusecaseを組み立てる
func boot(ctx context.Context) (*app.App, error) {
	cfg, err := config.LoadForCLI()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, logger.New(cfg.GoEnv, cfg.LogLevel))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
