package store

import "phishguard/internal/platform/logger"

// Option mutates the Store during Open
type Option func(*Store) error

// WithLogger sets the logger handed to subclients
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log
		return nil
	}
}
