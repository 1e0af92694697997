package djconf

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"k8s.io/apimachinery/pkg/api/resource"
)

// mask returns a masked version of the secret string.
// It keeps the first 3 characters visible and replaces the rest with asterisks.
// For strings with 3 or fewer characters, all characters are replaced with asterisks.
//
// Examples:
//   - mask("") returns ""
//   - mask("a") returns "*"
//   - mask("abc") returns "***"
//   - mask("secret123") returns "sec******"
func mask(secret string) string {
	const keep = 3
	n := len(secret)
	if n <= keep {
		return strings.Repeat("*", n)
	}
	return secret[:keep] + strings.Repeat("*", n-keep)
}

// maskValue masks strings with mask and anything else wholesale.
func maskValue(v any) any {
	switch v := v.(type) {
	case string:
		return mask(v)
	case nil:
		return nil
	default:
		return "***"
	}
}

// maskURLPassword masks the password of a URL, or of a string holding one.
// Anything else is returned unchanged.
func maskURLPassword(val any) any {
	switch u := val.(type) {
	case *url.URL:
		if u == nil || u.User == nil {
			return u
		}
		if _, hasPassword := u.User.Password(); hasPassword {
			masked := *u
			masked.User = url.UserPassword(u.User.Username(), "***")
			return &masked
		}
		return u
	case string:
		if !strings.Contains(u, "://") {
			return u
		}
		parsed, err := url.Parse(u)
		if err != nil || parsed.User == nil {
			return u
		}
		if _, hasPassword := parsed.User.Password(); !hasPassword {
			return u
		}
		parsed.User = url.UserPassword(parsed.User.Username(), "***")
		return parsed.String()
	default:
		return val
	}
}

// cloneValue deep-copies the mutable shapes settings take.
func cloneValue(v any) any {
	switch v := v.(type) {
	case *Namespace:
		return v.Clone()
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = cloneValue(e)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(v))
		for k, e := range v {
			out[k] = e
		}
		return out
	case map[string]bool:
		out := make(map[string]bool, len(v))
		for k, e := range v {
			out[k] = e
		}
		return out
	case []string:
		return append([]string{}, v...)
	case []Contact:
		return append([]Contact{}, v...)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e).(map[string]any)
		}
		return out
	case *url.URL:
		if v == nil {
			return v
		}
		c := *v
		return &c
	default:
		return v
	}
}

// renderValue turns values without a useful serialised form into strings.
func renderValue(v any) any {
	switch v := v.(type) {
	case *url.URL:
		if v == nil {
			return nil
		}
		return v.String()
	case time.Duration:
		return v.String()
	case resource.Quantity:
		return v.String()
	case decimal.Decimal:
		return v.String()
	case uuid.UUID:
		return v.String()
	case slog.Level:
		return v.String()
	default:
		return v
	}
}

// appendOnce appends each item not already present, keeping order.
func appendOnce(list []string, items ...string) []string {
	for _, item := range items {
		found := false
		for _, existing := range list {
			if existing == item {
				found = true
				break
			}
		}
		if !found {
			list = append(list, item)
		}
	}
	return list
}

// Render formats a setting value as JSON, the way PrettyString does.
func Render(v any) string {
	b, err := json.Marshal(renderValue(v))
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
