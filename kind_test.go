package djconf

import (
	"errors"
	"log/slog"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/api/resource"
)

func TestCoerceBool(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"true", true},
		{"True", true},
		{"on", true},
		{"ok", true},
		{"y", true},
		{"yes", true},
		{"1", true},
		{"false", false},
		{"off", false},
		{"n", false},
		{"no", false},
		{"0", false},
		{"", false},
	}
	for _, c := range cases {
		got, err := Coerce(c.input, KindBool, ",")
		if err != nil {
			t.Errorf("Coerce(%q, bool) error: %v", c.input, err)
			continue
		}
		if got != c.want {
			t.Errorf("Coerce(%q, bool) = %v; want %v", c.input, got, c.want)
		}
	}
}

func TestCoerceInvalid(t *testing.T) {
	cases := []struct {
		input string
		kind  Kind
	}{
		{"maybe", KindBool},
		{"abc", KindInt},
		{"1.2.3", KindFloat},
		{"a=1,b", KindMap},
		{"not a url", KindURL},
		{"soon", KindDuration},
		{"12,5", KindDecimal},
		{"xyz", KindUUID},
		{"lots", KindQuantity},
		{"loud", KindLogLevel},
		{"nobody@example.com", KindEmails},
		{"x", Kind("unknown")},
	}
	for _, c := range cases {
		_, err := Coerce(c.input, c.kind, ",")
		if !errors.Is(err, ErrInvalidConfigValue) {
			t.Errorf("Coerce(%q, %s) error = %v; want ErrInvalidConfigValue", c.input, c.kind, err)
		}
	}
}

func TestCoerceList(t *testing.T) {
	got, err := Coerce(" a, b ,,c ", KindList, ",")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)

	got, err = Coerce("", KindList, ",")
	require.NoError(t, err)
	assert.Equal(t, []string{}, got)

	got, err = Coerce("a;b", KindList, ";")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestCoerceMap(t *testing.T) {
	got, err := Coerce("email=a@example.com, password=pw", KindMap, ",")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"email": "a@example.com", "password": "pw"}, got)

	got, err = Coerce(`{"visibility_timeout": 60, "nested": {"a": true}}`, KindMap, ",")
	require.NoError(t, err)
	want := map[string]any{"visibility_timeout": 60, "nested": map[string]any{"a": true}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("map mismatch (-want +got):\n%s", diff)
	}

	got, err = Coerce("", KindMap, ",")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, got)
}

func TestCoerceURL(t *testing.T) {
	got, err := Coerce("https://user:pw@example.org:8443/app", KindURL, ",")
	require.NoError(t, err)
	u := got.(*url.URL)
	assert.Equal(t, "example.org:8443", u.Host)
	assert.Equal(t, "example.org", u.Hostname())

	got, err = Coerce("", KindURL, ",")
	require.NoError(t, err)
	assert.Nil(t, got.(*url.URL))
}

func TestCoerceTyped(t *testing.T) {
	d, err := Coerce("90", KindDuration, ",")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	d, err = Coerce("1h30m", KindDuration, ",")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d)

	dec, err := Coerce("19.99", KindDecimal, ",")
	require.NoError(t, err)
	assert.True(t, dec.(decimal.Decimal).Equal(decimal.RequireFromString("19.99")))

	id, err := Coerce("6ba7b810-9dad-11d1-80b4-00c04fd430c8", KindUUID, ",")
	require.NoError(t, err)
	assert.Equal(t, uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"), id)

	q, err := Coerce("2560Ki", KindQuantity, ",")
	require.NoError(t, err)
	qty := q.(resource.Quantity)
	assert.Equal(t, int64(2621440), qty.Value())

	lvl, err := Coerce("warning", KindLogLevel, ",")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)

	lvl, err = Coerce("-8", KindLogLevel, ",")
	require.NoError(t, err)
	assert.Equal(t, slog.Level(-8), lvl)
}

func TestCoerceEmails(t *testing.T) {
	got, err := Coerce("Admin:admin@example.com, Ops:ops@example.com", KindEmails, ",")
	require.NoError(t, err)
	assert.Equal(t, []Contact{
		{Name: "Admin", Email: "admin@example.com"},
		{Name: "Ops", Email: "ops@example.com"},
	}, got)

	got, err = Coerce("", KindEmails, ",")
	require.NoError(t, err)
	assert.Equal(t, []Contact{}, got)
}

func TestCoerceJSON(t *testing.T) {
	got, err := Coerce(`[{"BACKEND": "x"}]`, KindJSON, ",")
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"BACKEND": "x"}}, got)
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		value any
		want  Kind
	}{
		{"", KindString},
		{true, KindBool},
		{-1, KindInt},
		{1.5, KindFloat},
		{[]string{}, KindList},
		{map[string]any{}, KindMap},
		{time.Second, KindDuration},
		{resource.MustParse("1Ki"), KindQuantity},
		{slog.LevelInfo, KindLogLevel},
		{[]Contact{}, KindEmails},
		{[]map[string]any{}, KindJSON},
		{Ref(KindURL, "X"), KindURL},
	}
	for _, c := range cases {
		if got := KindOf(c.value); got != c.want {
			t.Errorf("KindOf(%T) = %s; want %s", c.value, got, c.want)
		}
	}
}

func TestRegisterKind(t *testing.T) {
	const kindUpper Kind = "test-upper"
	RegisterKind(kindUpper, func(raw, _ string) (any, error) {
		if raw == "" {
			return nil, errors.New("empty")
		}
		return raw + "!", nil
	})

	got, err := Coerce("hi", kindUpper, ",")
	require.NoError(t, err)
	assert.Equal(t, "hi!", got)

	_, err = Coerce("", kindUpper, ",")
	assert.ErrorIs(t, err, ErrInvalidConfigValue)
}
