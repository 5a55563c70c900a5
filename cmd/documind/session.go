package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"documind/internal/config"
	"documind/internal/connectivity"
	"documind/internal/localstore"
	"documind/internal/logging"
	"documind/internal/remote"
	"documind/internal/state"
	docsync "documind/internal/sync"
)

// session wires the client components for one command.
type session struct {
	cfg       *config.ClientConfig
	logger    zerolog.Logger
	logCloser io.Closer
	store     *localstore.Store
	gateway   *remote.Gateway
	monitor   *connectivity.Monitor
	engine    *docsync.Engine
	ctrl      *state.Controller
}

func openSession(ctx context.Context, cfg *config.ClientConfig, offline bool) (*session, error) {
	logger, closer := logging.New(logging.Options{
		Level:    cfg.Log.Level,
		File:     cfg.Log.File,
		Location: cfg.Log.Location(),
	})

	s := &session{
		cfg:       cfg,
		logger:    logger,
		logCloser: closer,
		store:     localstore.New(cfg.DatabasePath()),
	}
	if cfg.RemoteURL != "" {
		s.gateway = remote.New(cfg.RemoteURL,
			remote.WithLogger(logger.With().Str("component", "remote").Logger()),
		)
	}

	online := !offline && connectivity.Detect(ctx, s.probe)
	s.monitor = connectivity.NewMonitor(online).
		WithLogger(logger.With().Str("component", "connectivity").Logger())

	var r docsync.Remote
	if s.gateway != nil {
		r = s.gateway
	}
	s.engine = docsync.New(s.store, r, s.monitor,
		docsync.WithLogger(logger.With().Str("component", "sync").Logger()),
	)
	s.ctrl = state.New(state.Deps{
		Store:   s.store,
		Engine:  s.engine,
		Monitor: s.monitor,
		Logger:  logger.With().Str("component", "state").Logger(),
	})

	if err := s.ctrl.Bootstrap(ctx); err != nil {
		_ = s.Close()
		if errors.Is(err, localstore.ErrLocked) {
			return nil, fmt.Errorf("another DocuMind session is using %s", cfg.DataDir)
		}
		return nil, err
	}
	return s, nil
}

// probe asks the bridge API liveness endpoint, bounded by the probe timeout.
func (s *session) probe(ctx context.Context) error {
	if s.gateway == nil {
		return remote.ErrUnavailable
	}
	if s.cfg.ProbeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ProbeTimeout)
		defer cancel()
	}
	return s.gateway.Ping(ctx)
}

func (s *session) Close() error {
	if s.ctrl != nil {
		s.ctrl.Close()
	}
	err := s.store.Close()
	if cerr := s.logCloser.Close(); err == nil {
		err = cerr
	}
	return err
}
