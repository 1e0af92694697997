package djconf

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/api/resource"
)

func TestDiff(t *testing.T) {
	base := NewNamespace()
	require.NoError(t, base.SetNested("TIME_ZONE", "UTC"))
	require.NoError(t, base.SetNested("DJCORE__URL", &url.URL{Scheme: "https", Host: "localhost"}))
	require.NoError(t, base.SetNested("ALLOWED_HOSTS", []string{"localhost"}))
	require.NoError(t, base.SetNested("LEGACY", true))

	other := NewNamespace()
	require.NoError(t, other.SetNested("TIME_ZONE", "UTC"))
	require.NoError(t, other.SetNested("DJCORE__URL", &url.URL{Scheme: "https", Host: "example.org"}))
	require.NoError(t, other.SetNested("ALLOWED_HOSTS", []string{"localhost"}))
	require.NoError(t, other.SetNested("ANYMAIL__MAILGUN_SENDER_DOMAIN", "mailgun.example.org"))

	got := Diff(base, other)

	var summary []string
	for _, c := range got {
		summary = append(summary, string(c.Type)+" "+c.Key)
	}
	want := []string{"changed DJCORE", "added ANYMAIL", "removed LEGACY"}
	if diff := cmp.Diff(want, summary); diff != "" {
		t.Errorf("Diff mismatch (-want +got):\n%s", diff)
	}
	if got[2].Old != true || got[2].New != nil {
		t.Errorf("removed change = %+v", got[2])
	}
}

func TestDiffIdentical(t *testing.T) {
	a := resolve(t, map[string]string{"DJCORE_DEBUG": "true"})
	b := resolve(t, map[string]string{"DJCORE_DEBUG": "true"})
	if changes := Diff(a, b); len(changes) != 0 {
		t.Errorf("expected no changes, got %+v", changes)
	}
}

func TestDiffResolved(t *testing.T) {
	a := resolve(t, nil)
	b := resolve(t, map[string]string{"DJCORE_TIME_ZONE": "Australia/Sydney"})

	changes := Diff(a, b)
	if len(changes) != 1 {
		t.Fatalf("expected one change, got %+v", changes)
	}
	if changes[0].Key != "TIME_ZONE" || changes[0].New != "Australia/Sydney" {
		t.Errorf("unexpected change %+v", changes[0])
	}
}

func TestDiffComparesValues(t *testing.T) {
	base := NewNamespace()
	base.Set("PRICE", decimal.RequireFromString("1.0"))
	base.Set("UPLOAD_LIMIT", resource.MustParse("1Gi"))
	base.Set("DJCORE", NewNamespace())
	require.NoError(t, base.SetNested("DJCORE__URL", &url.URL{Scheme: "https", Host: "example.org"}))
	base.Set("DATABASE_URL", (*url.URL)(nil))

	other := NewNamespace()
	other.Set("PRICE", decimal.RequireFromString("1.00"))
	other.Set("UPLOAD_LIMIT", resource.MustParse("1024Mi"))
	require.NoError(t, other.SetNested("DJCORE__URL", &url.URL{Scheme: "https", Host: "example.org"}))
	other.Set("DATABASE_URL", (*url.URL)(nil))

	if changes := Diff(base, other); len(changes) != 0 {
		t.Errorf("expected equal values to compare equal, got %+v", changes)
	}

	other.Set("DATABASE_URL", &url.URL{Scheme: "postgres", Host: "db"})
	changes := Diff(base, other)
	if len(changes) != 1 || changes[0].Key != "DATABASE_URL" || changes[0].Type != Changed {
		t.Errorf("unexpected changes %+v", changes)
	}
}
