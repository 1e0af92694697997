package djconf

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// DefaultPrefix is prepended to every setting name when reading the environment.
const DefaultPrefix = "DJCORE_"

// Undefined marks a value that was not supplied at all, as opposed to one
// supplied as the empty string.
type Undefined struct{}

func (Undefined) String() string { return "<Undefined>" }

// undefined is the shared Undefined marker.
var undefined = Undefined{}

// IsUndefined reports whether v is the Undefined marker.
func IsUndefined(v any) bool {
	_, ok := v.(Undefined)
	return ok
}

// Env reads prefixed settings from the process environment, falling back
// to values read from dotenv files. It never writes to the environment.
type Env struct {
	prefix string
	sep    string
	lookup func(string) (string, bool)
	dotenv map[string]string
}

// NewEnv creates an accessor over the process environment.
func NewEnv(prefix string) *Env {
	return &Env{prefix: prefix, sep: ",", lookup: os.LookupEnv}
}

// NewEnvFromMap creates an accessor over a fixed set of variables.
func NewEnvFromMap(prefix string, vars map[string]string) *Env {
	e := NewEnv(prefix)
	e.lookup = func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
	return e
}

// WithSeparator sets the list separator (default ",").
func (e *Env) WithSeparator(sep string) *Env {
	e.sep = sep
	return e
}

// LoadDotenv layers the variables of the given files under the process
// environment. Missing files are ignored; malformed ones are an error.
func (e *Env) LoadDotenv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		vars, err := godotenv.Read(path)
		if err != nil {
			return fmt.Errorf("read dotenv %s: %w", path, err)
		}
		if e.dotenv == nil {
			e.dotenv = make(map[string]string, len(vars))
		}
		for k, v := range vars {
			// earlier files win, like godotenv.Load
			if _, ok := e.dotenv[k]; !ok {
				e.dotenv[k] = v
			}
		}
	}
	return nil
}

// Prefix returns the full variable name for a setting.
func (e *Env) Prefix(name string) string {
	return e.prefix + name
}

// Raw returns the raw string for a setting, or Undefined when absent.
func (e *Env) Raw(name string) any {
	key := e.Prefix(name)
	if v, ok := e.lookup(key); ok {
		return v
	}
	if v, ok := e.dotenv[key]; ok {
		return v
	}
	return undefined
}

// Lookup returns the coerced value of a setting and whether it was supplied.
// An empty string counts as supplied.
func (e *Env) Lookup(name string, k Kind) (any, bool, error) {
	raw, ok := e.Raw(name).(string)
	if !ok {
		return nil, false, nil
	}
	v, err := Coerce(raw, k, e.sep)
	if err != nil {
		return nil, true, &Error{Setting: e.Prefix(name), Err: err}
	}
	return v, true, nil
}

// Get returns the coerced value of a setting, or def unchanged when absent.
func (e *Env) Get(name string, k Kind, def any) (any, error) {
	v, ok, err := e.Lookup(name, k)
	if err != nil {
		return nil, err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}
