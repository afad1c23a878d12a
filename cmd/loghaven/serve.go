// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/elastic/loghaven/internal/config"
	"github.com/elastic/loghaven/internal/pgstore"
	"github.com/elastic/loghaven/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the query API over HTTP",
	Long: `Serve GET /events and GET /counts against the logs table.

With auto_restart enabled and a config file given, the server reloads
itself when the file changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		for {
			restart, err := serveOnce(cmd)
			if err != nil || !restart {
				return err
			}
			logger.Info("configuration changed, restarting")
		}
	},
}

func init() {
	serveCmd.Flags().String("listen", config.DefaultListenAddress, "listen address (env: LOGHAVEN_HTTP_SETTINGS_LISTEN_ADDRESS)")
	serveCmd.Flags().Bool("auto-restart", false, "restart when the config file changes")
	rootCmd.AddCommand(serveCmd)
}

// serveOnce runs the server until shutdown. It reloads the configuration on
// every call so a restart picks up changes.
func serveOnce(cmd *cobra.Command) (restart bool, err error) {
	cfg, err := config.Load(cmd, configFile)
	if err != nil {
		return false, err
	}
	ctx := cmd.Context()

	db, err := pgstore.Open(ctx, cfg.DSN(), pgstore.DefaultPoolSize)
	if err != nil {
		return false, err
	}
	defer db.Close()
	if err := pgstore.EnsureHelpers(ctx, db); err != nil {
		return false, err
	}

	httpSrv := &http.Server{
		Addr: cfg.HTTP.ListenAddress,
		Handler: (&server.Server{
			DB:     db,
			Table:  cfg.RootTableName,
			Logger: logger,
		}).Handler(),
	}
	if opts := cfg.TLSOptions(); opts != nil {
		if httpSrv.TLSConfig, err = opts.Config(); err != nil {
			return false, err
		}
	}

	changed := make(chan struct{}, 1)
	g, ctx := errgroup.WithContext(ctx)

	if cfg.AutoRestart && configFile != "" {
		g.Go(func() error {
			return watchConfig(ctx, configFile, changed)
		})
	}

	g.Go(func() error {
		logger.Info("listening", zap.String("address", httpSrv.Addr),
			zap.Bool("tls", httpSrv.TLSConfig != nil))
		var err error
		if httpSrv.TLSConfig != nil {
			err = httpSrv.ListenAndServeTLS("", "")
		} else {
			err = httpSrv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		select {
		case <-ctx.Done():
		case <-changed:
			restart = true
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return false, err
	}
	return restart, nil
}

// watchConfig signals once when the config file is written or replaced. The
// directory is watched because editors typically rename over the file.
func watchConfig(ctx context.Context, path string, changed chan<- struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch config directory: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-watcher.Events:
			if ev.Name == abs && ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				select {
				case changed <- struct{}{}:
				default:
				}
				return nil
			}
		case err := <-watcher.Errors:
			return fmt.Errorf("watch config: %w", err)
		}
	}
}
