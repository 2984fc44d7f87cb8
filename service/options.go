package service

import (
	"time"

	"go.uber.org/zap"
)

const (
	DefaultChallengeTTL = 5 * time.Minute
	DefaultAccessTTL    = 5 * time.Minute
	DefaultRefreshTTL   = 5 * 24 * time.Hour // 5 days
)

type options struct {
	logger       *zap.Logger
	now          func() time.Time
	challengeTTL time.Duration
	accessTTL    time.Duration
	refreshTTL   time.Duration
}

// Option configures the services in this package
type Option func(*options)

// WithLogger sets the logger used to record failures
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithChallengeTTL sets how long an issued challenge stays valid
func WithChallengeTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.challengeTTL = d
		}
	}
}

// WithSessionTTL sets the lifetimes of access and refresh tokens
func WithSessionTTL(access, refresh time.Duration) Option {
	return func(o *options) {
		if access > 0 {
			o.accessTTL = access
		}
		if refresh > 0 {
			o.refreshTTL = refresh
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:       zap.NewNop(),
		now:          time.Now,
		challengeTTL: DefaultChallengeTTL,
		accessTTL:    DefaultAccessTTL,
		refreshTTL:   DefaultRefreshTTL,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
