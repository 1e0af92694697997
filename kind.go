package djconf

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/api/resource"
)

// Kind names the type a raw environment string is coerced to.
type Kind string

// Built-in kinds.
const (
	KindString   Kind = "string"
	KindBool     Kind = "bool"
	KindInt      Kind = "int"
	KindFloat    Kind = "float"
	KindList     Kind = "list"
	KindMap      Kind = "map"
	KindJSON     Kind = "json"
	KindURL      Kind = "url"
	KindDuration Kind = "duration"
	KindDecimal  Kind = "decimal"
	KindUUID     Kind = "uuid"
	KindQuantity Kind = "quantity"
	KindLogLevel Kind = "loglevel"
	KindEmails   Kind = "emails"
)

// Contact is one "Name:address" entry of an ADMINS or MANAGERS list.
type Contact struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

// ParserFunc takes the raw string and returns the coerced value or an error.
// sep is the accessor's list separator.
type ParserFunc func(raw, sep string) (any, error)

var (
	parsersMu sync.RWMutex
	parsers   = map[Kind]ParserFunc{}
)

// RegisterKind lets hosts plug in parsers for their own kinds.
// Call this in init() or main() before resolving.
func RegisterKind(k Kind, fn ParserFunc) {
	parsersMu.Lock()
	defer parsersMu.Unlock()
	parsers[k] = fn
}

// Coerce converts raw to kind k using the registered parser.
// Failures wrap ErrInvalidConfigValue.
func Coerce(raw string, k Kind, sep string) (any, error) {
	parsersMu.RLock()
	fn, ok := parsers[k]
	parsersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unsupported kind %q", ErrInvalidConfigValue, k)
	}
	v, err := fn(raw, sep)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfigValue, err)
	}
	return v, nil
}

// KindOf infers the kind of a literal default value.
func KindOf(v any) Kind {
	switch v := v.(type) {
	case *Proxy:
		return v.Kind
	case string:
		return KindString
	case bool:
		return KindBool
	case int, int8, int16, int32, int64:
		return KindInt
	case float32, float64:
		return KindFloat
	case []string:
		return KindList
	case map[string]any, map[string]string:
		return KindMap
	case *url.URL, url.URL:
		return KindURL
	case time.Duration:
		return KindDuration
	case decimal.Decimal:
		return KindDecimal
	case uuid.UUID:
		return KindUUID
	case resource.Quantity:
		return KindQuantity
	case slog.Level:
		return KindLogLevel
	case []Contact:
		return KindEmails
	default:
		return KindJSON
	}
}

// conform checks that a computed value has the Go type kind k coerces
// to, converting only where nothing is lost. Custom kinds are not checked.
func conform(k Kind, v any) (any, error) {
	mismatch := func() (any, error) {
		return nil, fmt.Errorf("%w: computed a %T for a %s setting", ErrUnresolvableReference, v, k)
	}
	switch k {
	case KindString:
		if _, ok := v.(string); !ok {
			return mismatch()
		}
	case KindBool:
		if _, ok := v.(bool); !ok {
			return mismatch()
		}
	case KindInt:
		switch n := v.(type) {
		case int:
		case int8:
			return int(n), nil
		case int16:
			return int(n), nil
		case int32:
			return int(n), nil
		case int64:
			return int(n), nil
		default:
			return mismatch()
		}
	case KindFloat:
		switch n := v.(type) {
		case float64:
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		default:
			return mismatch()
		}
	case KindList:
		switch l := v.(type) {
		case []string:
		case []any:
			out := make([]string, len(l))
			for i, e := range l {
				s, ok := e.(string)
				if !ok {
					return mismatch()
				}
				out[i] = s
			}
			return out, nil
		default:
			return mismatch()
		}
	case KindMap:
		switch v.(type) {
		case map[string]any, map[string]string, *Namespace:
		default:
			return mismatch()
		}
	case KindURL:
		if _, ok := v.(*url.URL); !ok {
			return mismatch()
		}
	case KindDuration:
		if _, ok := v.(time.Duration); !ok {
			return mismatch()
		}
	case KindDecimal:
		if _, ok := v.(decimal.Decimal); !ok {
			return mismatch()
		}
	case KindUUID:
		if _, ok := v.(uuid.UUID); !ok {
			return mismatch()
		}
	case KindQuantity:
		if _, ok := v.(resource.Quantity); !ok {
			return mismatch()
		}
	case KindLogLevel:
		if _, ok := v.(slog.Level); !ok {
			return mismatch()
		}
	case KindEmails:
		if _, ok := v.([]Contact); !ok {
			return mismatch()
		}
	}
	return v, nil
}

var (
	trueTokens  = []string{"true", "on", "ok", "y", "yes", "1"}
	falseTokens = []string{"false", "off", "n", "no", "0", ""}
)

func parseBool(raw, _ string) (any, error) {
	token := strings.ToLower(strings.TrimSpace(raw))
	for _, t := range trueTokens {
		if token == t {
			return true, nil
		}
	}
	for _, f := range falseTokens {
		if token == f {
			return false, nil
		}
	}
	return nil, fmt.Errorf("%q is not a boolean", raw)
}

// splitList splits raw on sep, trimming parts and dropping empty ones.
func splitList(raw, sep string) []string {
	if sep == "" {
		sep = ","
	}
	out := []string{}
	for _, part := range strings.Split(raw, sep) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func parseMap(raw, sep string) (any, error) {
	trimmed := strings.TrimSpace(raw)
	out := map[string]any{}
	if trimmed == "" {
		return out, nil
	}
	if strings.HasPrefix(trimmed, "{") {
		if err := yaml.Unmarshal([]byte(trimmed), &out); err != nil {
			return nil, fmt.Errorf("malformed mapping %q: %w", raw, err)
		}
		return out, nil
	}
	for _, part := range splitList(trimmed, sep) {
		key, val, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("malformed mapping entry %q: want key=value", part)
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(val)
	}
	return out, nil
}

func parseURL(raw, _ string) (any, error) {
	if strings.TrimSpace(raw) == "" {
		return (*url.URL)(nil), nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Scheme == "" || (u.Host == "" && u.Opaque == "" && u.Path == "") {
		return nil, fmt.Errorf("invalid URL %q: scheme and location required", raw)
	}
	return u, nil
}

func parseLogLevel(raw, _ string) (any, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		if level, err := strconv.Atoi(raw); err == nil {
			return slog.Level(level), nil
		}
		return nil, fmt.Errorf("invalid log level %q: must be debug|info|warn|error or integer", raw)
	}
}

func parseEmails(raw, sep string) (any, error) {
	out := []Contact{}
	for _, part := range splitList(raw, sep) {
		name, addr, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("malformed contact %q: want Name:address", part)
		}
		out = append(out, Contact{Name: strings.TrimSpace(name), Email: strings.TrimSpace(addr)})
	}
	return out, nil
}

func init() {
	RegisterKind(KindString, func(raw, _ string) (any, error) {
		return raw, nil
	})

	RegisterKind(KindBool, parseBool)

	RegisterKind(KindInt, func(raw, _ string) (any, error) {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", raw)
		}
		return n, nil
	})

	RegisterKind(KindFloat, func(raw, _ string) (any, error) {
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q", raw)
		}
		return f, nil
	})

	RegisterKind(KindList, func(raw, sep string) (any, error) {
		return splitList(raw, sep), nil
	})

	RegisterKind(KindMap, parseMap)

	RegisterKind(KindJSON, func(raw, _ string) (any, error) {
		var out any
		if err := yaml.Unmarshal([]byte(raw), &out); err != nil {
			return nil, fmt.Errorf("malformed document %q: %w", raw, err)
		}
		return out, nil
	})

	RegisterKind(KindURL, parseURL)

	RegisterKind(KindDuration, func(raw, _ string) (any, error) {
		// Bare integers are seconds.
		if secs, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			return time.Duration(secs) * time.Second, nil
		}
		d, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q: %w", raw, err)
		}
		return d, nil
	})

	RegisterKind(KindDecimal, func(raw, _ string) (any, error) {
		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid decimal %q: %w", raw, err)
		}
		return d, nil
	})

	RegisterKind(KindUUID, func(raw, _ string) (any, error) {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid UUID %q: %w", raw, err)
		}
		return id, nil
	})

	RegisterKind(KindQuantity, func(raw, _ string) (any, error) {
		q, err := resource.ParseQuantity(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid quantity %q: %w", raw, err)
		}
		return q, nil
	})

	RegisterKind(KindLogLevel, parseLogLevel)
	RegisterKind(KindEmails, parseEmails)
}
