package djconf

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// DefaultAppName is the application whose profile resolves when APP_NAME
// and APP_CONF are unset.
const DefaultAppName = "dj_core"

// Where a resolved value came from.
const (
	sourceEnvironment = "environment"
	sourceDefault     = "default"
	sourceProxy       = "proxy"
)

// Resolver evaluates a profile's default value table against the
// environment. It performs one pass per Resolve call and keeps no state
// between passes.
type Resolver struct {
	env  *Env
	opts *options
	log  *zap.Logger
}

// New creates a Resolver. It fails only when a dotenv file is unreadable.
func New(opts ...Option) (*Resolver, error) {
	o := newOptions(opts)
	env := NewEnv(o.prefix)
	if o.environ != nil {
		env = NewEnvFromMap(o.prefix, o.environ)
	}
	env.WithSeparator(o.sep)
	if err := env.LoadDotenv(o.dotenv...); err != nil {
		return nil, err
	}
	return &Resolver{env: env, opts: o, log: o.logger}, nil
}

// Env returns the accessor the resolver reads overrides from.
func (r *Resolver) Env() *Env { return r.env }

// Bootstrap holds the settings that pick the profile and the debug overlay.
type Bootstrap struct {
	AppName string
	AppConf string
	Debug   bool
	Profile Profile
}

// ProfilePath returns the dotted path of the profile to import.
func (b Bootstrap) ProfilePath() string {
	if b.AppConf != "" {
		return b.AppConf
	}
	return b.AppName + ".config.Config"
}

// Bootstrap reads APP_NAME and APP_CONF, selects the profile, then decides
// DEBUG from the environment or, when unset, the profile's non-debug layers.
func (r *Resolver) Bootstrap() (Bootstrap, error) {
	var b Bootstrap
	name, err := r.env.Get("APP_NAME", KindString, DefaultAppName)
	if err != nil {
		return b, err
	}
	conf, err := r.env.Get("APP_CONF", KindString, "")
	if err != nil {
		return b, err
	}
	b.AppName, b.AppConf = name.(string), conf.(string)

	if b.Profile, err = r.Profile(b); err != nil {
		return b, err
	}
	if b.Debug, err = r.debugFlag(b.Profile); err != nil {
		return b, err
	}
	return b, nil
}

// debugFlag resolves DEBUG ahead of the pass, since it picks the layers.
// The default must be a literal bool: a computed DEBUG could depend on
// settings the debug overlay itself replaces.
func (r *Resolver) debugFlag(p Profile) (bool, error) {
	v, ok, err := r.env.Lookup("DEBUG", KindBool)
	if err != nil {
		return false, err
	}
	if ok {
		return v.(bool), nil
	}
	e, ok := p.Table(false, r.opts.caps).Get("DEBUG")
	if !ok {
		return false, nil
	}
	debug, ok := e.Default.(bool)
	if !ok {
		return false, &Error{
			Setting: r.env.Prefix("DEBUG"),
			Err:     fmt.Errorf("%w: default must be a literal bool, got %T", ErrInvalidConfigValue, e.Default),
		}
	}
	return debug, nil
}

// Profile returns the profile the next pass uses.
func (r *Resolver) Profile(b Bootstrap) (Profile, error) {
	if r.opts.profile != nil {
		return *r.opts.profile, nil
	}
	p, err := importProfile(b.ProfilePath())
	if err != nil {
		return Profile{}, settingError(r.env.Prefix("APP_CONF"), err)
	}
	return p, nil
}

// Table returns the ordered effective table for the current environment.
func (r *Resolver) Table() ([]Entry, error) {
	b, err := r.Bootstrap()
	if err != nil {
		return nil, err
	}
	return order(b.Profile.Table(b.Debug, r.opts.caps).Entries())
}

// Resolve runs one resolution pass. Any coercion, computation or
// assignment failure aborts the pass; no partial namespace is returned.
func (r *Resolver) Resolve() (*Namespace, error) {
	b, err := r.Bootstrap()
	if err != nil {
		return nil, err
	}
	profile := b.Profile
	entries, err := order(profile.Table(b.Debug, r.opts.caps).Entries())
	if err != nil {
		return nil, err
	}

	ns := NewNamespace()
	ns.Set(metaProfile, profile.Name)
	for _, e := range entries {
		v, source, err := r.evaluate(e, ns)
		if err != nil {
			return nil, err
		}
		if err := ns.SetNested(strings.Trim(e.Key, "_"), v); err != nil {
			return nil, err
		}
		if source == sourceEnvironment {
			ns.markOverridden(e.Path())
		}
		if e.Secret {
			ns.MarkSecret(e.Path())
		}
		r.log.Debug("setting resolved",
			zap.String("key", e.Key),
			zap.String("source", source),
		)
	}

	for _, step := range profile.Post {
		if err := step.Apply(ns); err != nil {
			return nil, settingError(step.Name, err)
		}
	}

	r.log.Info("settings resolved",
		zap.String("profile", profile.Name),
		zap.Bool("debug", b.Debug),
		zap.Int("settings", len(entries)),
	)
	return ns, nil
}

// evaluate picks the environment override, else the proxy result, else
// the literal default.
func (r *Resolver) evaluate(e Entry, ns *Namespace) (any, string, error) {
	v, ok, err := r.env.Lookup(e.Key, e.ResolvedKind())
	if err != nil {
		return nil, "", err
	}
	if ok {
		return v, sourceEnvironment, nil
	}
	p, ok := e.Proxy()
	if !ok {
		return cloneValue(e.Default), sourceDefault, nil
	}
	v, err = p.Eval(ns, r.opts.caps)
	if err != nil {
		if !isClassified(err) {
			err = fmt.Errorf("%w: %w", ErrUnresolvableReference, err)
		}
		return nil, "", settingError(r.env.Prefix(e.Key), err)
	}
	return v, sourceProxy, nil
}
