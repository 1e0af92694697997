package djconf

import (
	"go.uber.org/zap"
)

// Option configures a Resolver.
type Option func(*options)

type options struct {
	prefix  string
	sep     string
	environ map[string]string
	dotenv  []string
	caps    Capabilities
	profile *Profile
	logger  *zap.Logger
}

func newOptions(opts []Option) *options {
	o := &options{
		prefix: DefaultPrefix,
		sep:    ",",
		caps:   Capabilities{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithPrefix sets the environment variable prefix (default "DJCORE_").
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithListSeparator sets the separator for list, map and emails kinds.
func WithListSeparator(sep string) Option {
	return func(o *options) {
		o.sep = sep
	}
}

// WithEnviron replaces the process environment with vars.
func WithEnviron(vars map[string]string) Option {
	return func(o *options) {
		o.environ = vars
	}
}

// WithDotenv layers .env files under the environment.
func WithDotenv(paths ...string) Option {
	return func(o *options) {
		o.dotenv = append(o.dotenv, paths...)
	}
}

// WithCapabilities declares optional modules the host provides.
func WithCapabilities(names ...string) Option {
	return func(o *options) {
		for _, n := range names {
			o.caps[n] = true
		}
	}
}

// WithProfile uses p instead of importing the profile named by APP_CONF.
func WithProfile(p Profile) Option {
	return func(o *options) {
		o.profile = &p
	}
}

// WithLogger sets the logger (default: no-op).
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
