package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/nibzard/mapmylife/internal/appdir"
	"github.com/nibzard/mapmylife/internal/config"
	"github.com/nibzard/mapmylife/internal/duedate"
	"github.com/nibzard/mapmylife/internal/logging"
	"github.com/nibzard/mapmylife/internal/render"
	"github.com/nibzard/mapmylife/internal/session"
	"github.com/nibzard/mapmylife/internal/storage"
	"github.com/nibzard/mapmylife/internal/todo"
)

// app is everything one command needs: the run log, the storage backend and
// a session over the loaded store.
type app struct {
	cfg        *config.Config
	runLog     *logging.RunLogger
	logger     *log.Logger
	kv         storage.KV
	adapter    *todo.Adapter
	dates      *duedate.Parser
	renderOpts render.Options
	sess       *session.Session
}

// openApp wires config, logging, storage and the persistence adapter, then
// loads the store into a session that draws with renderer.
func openApp(ctx context.Context, cfg *config.Config, renderer render.Renderer) (*app, error) {
	a, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sess, err := session.Open(ctx, a.adapter, renderer,
		session.WithLogger(a.logger),
		session.WithDates(a.dates),
	)
	if err != nil {
		a.logger.Error("startup failed", "err", err)
		a.Close()
		return nil, err
	}
	a.sess = sess
	a.logger.Info("session opened", "tasks", sess.Store().Len())
	return a, nil
}

// openStorage does everything openApp does except loading the store.
func openStorage(ctx context.Context, cfg *config.Config, adapterOpts ...todo.AdapterOption) (*app, error) {
	runLog, err := logging.NewRunLogger(cfg.LogDir, logging.Options{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		Timestamps: cfg.LogTimestamps,
		Caller:     cfg.LogCaller,
		Prefix:     "mapmylife",
	})
	if err != nil {
		return nil, fmt.Errorf("opening log: %w", err)
	}
	logger := runLog.Logger()

	loc, err := cfg.Location()
	if err != nil {
		runLog.Close()
		return nil, err
	}
	dates := &duedate.Parser{Location: loc, Layout: cfg.Display.DateLayout}

	opts := cfg.StorageOptions()
	kv, err := storage.Open(ctx, opts)
	if err != nil {
		logger.Error("storage open failed", "backend", opts.Backend, "err", err)
		runLog.Close()
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	logger.Debug("storage opened", "backend", opts.Backend)

	adapterOpts = append([]todo.AdapterOption{todo.WithValidation(cfg.ValidateState)}, adapterOpts...)
	return &app{
		cfg:     cfg,
		runLog:  runLog,
		logger:  logger,
		kv:      kv,
		adapter: todo.NewAdapter(kv, appdir.StorageKey, adapterOpts...),
		dates:   dates,
		renderOpts: render.Options{
			SortBy:   todo.Field(cfg.Display.SortBy),
			SortDesc: cfg.Display.SortDesc,
			Dates:    dates,
		},
	}, nil
}

// Close releases the storage backend and the log file.
func (a *app) Close() error {
	var errs []error
	if a.kv != nil {
		errs = append(errs, a.kv.Close())
	}
	errs = append(errs, a.runLog.Close())
	return errors.Join(errs...)
}
