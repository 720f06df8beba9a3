package di

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/Sanchous98/go-ioc/index"
	"github.com/Sanchous98/go-ioc/scan"
)

type Option = func(*Manager)

func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithScanner replaces the process-wide scanner Initialize discovers components with.
func WithScanner(s *scan.Scanner) Option {
	return func(m *Manager) { m.scanner = s }
}

// WithAllocator replaces the process-wide type index allocator of indexed stores.
func WithAllocator(a *index.Allocator) Option {
	return func(m *Manager) { m.alloc = a }
}

// WithMetrics registers the manager's collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(m *Manager) { m.metrics = newMetrics(reg) }
}

// WithEnv seeds the variables env-tagged fields are filled from.
func WithEnv(vars map[string]string) Option {
	return func(m *Manager) {
		for k, v := range vars {
			m.env.Store(k, v)
		}
	}
}
