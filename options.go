// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package aioloop

import (
	"fmt"

	"github.com/joeycumines/go-aioloop/osio"
	"github.com/joeycumines/logiface"
)

// reactorOptions holds configuration options for Reactor creation.
type reactorOptions struct {
	backend           Backend
	logger            *logiface.Logger[logiface.Event]
	maxInFlight       int
	atomicSubmissions bool
	asyncSubmissions  bool
	metricsEnabled    bool
}

// Option configures a Reactor instance.
type Option interface {
	applyReactor(*reactorOptions) error
}

// reactorOptionImpl implements Option.
type reactorOptionImpl struct {
	applyReactorFunc func(*reactorOptions) error
}

func (r *reactorOptionImpl) applyReactor(opts *reactorOptions) error {
	return r.applyReactorFunc(opts)
}

// WithAtomicSubmissions sets whether Read and Write may be called from a
// goroutine other than the one calling Run. When enabled, a mutex guards the
// table of pending operations during submission and dequeue.
func WithAtomicSubmissions(enabled bool) Option {
	return &reactorOptionImpl{func(opts *reactorOptions) error {
		opts.atomicSubmissions = enabled
		return nil
	}}
}

// WithAsyncSubmissions sets whether an operation may be submitted while Run
// is blocked waiting. It reserves one wait slot for an event that submission
// signals, so that Run notices the new operation. Requires
// WithAtomicSubmissions(true).
func WithAsyncSubmissions(enabled bool) Option {
	return &reactorOptionImpl{func(opts *reactorOptions) error {
		opts.asyncSubmissions = enabled
		return nil
	}}
}

// WithMaxInFlight sets the maximum number of simultaneously pending
// operations. Zero (the default) selects the backend's limit, which is one
// less with WithAsyncSubmissions(true).
func WithMaxInFlight(n int) Option {
	return &reactorOptionImpl{func(opts *reactorOptions) error {
		if n < 0 {
			return fmt.Errorf("%w: negative max in-flight %d", ErrInvalidConfig, n)
		}
		opts.maxInFlight = n
		return nil
	}}
}

// WithBackend replaces the default [osio.System] backend.
func WithBackend(backend Backend) Option {
	return &reactorOptionImpl{func(opts *reactorOptions) error {
		if backend == nil {
			return fmt.Errorf("%w: nil backend", ErrInvalidConfig)
		}
		opts.backend = backend
		return nil
	}}
}

// WithLogger sets the structured logger. A nil logger (the default) disables
// logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &reactorOptionImpl{func(opts *reactorOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithMetrics enables metrics collection, see [Reactor.Metrics].
func WithMetrics(enabled bool) Option {
	return &reactorOptionImpl{func(opts *reactorOptions) error {
		opts.metricsEnabled = enabled
		return nil
	}}
}

// resolveOptions applies Option instances to reactorOptions, then validates
// the result.
func resolveOptions(opts []Option) (*reactorOptions, error) {
	cfg := &reactorOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue // Skip nil options gracefully
		}
		if err := opt.applyReactor(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.asyncSubmissions && !cfg.atomicSubmissions {
		return nil, fmt.Errorf("%w: async submissions require atomic submissions", ErrInvalidConfig)
	}

	if cfg.backend == nil {
		sys, err := osio.New()
		if err != nil {
			return nil, err
		}
		cfg.backend = sys
	}

	limit := cfg.backend.MaxWaitObjects()
	if cfg.asyncSubmissions {
		limit-- // wake slot
	}
	if limit < 1 {
		return nil, fmt.Errorf("%w: backend supports %d wait objects", ErrInvalidConfig, cfg.backend.MaxWaitObjects())
	}
	switch {
	case cfg.maxInFlight == 0:
		cfg.maxInFlight = limit
	case cfg.maxInFlight > limit:
		return nil, fmt.Errorf("%w: max in-flight %d exceeds limit %d", ErrInvalidConfig, cfg.maxInFlight, limit)
	}

	return cfg, nil
}
