package djconf

import (
	"net/url"

	"github.com/google/go-cmp/cmp"
)

// ChangeType classifies a difference between two resolved namespaces.
type ChangeType string

const (
	Added   ChangeType = "added"
	Changed ChangeType = "changed"
	Removed ChangeType = "removed"
)

// Change is one top-level setting that differs.
type Change struct {
	Key  string
	Type ChangeType
	Old  any
	New  any
}

// Diff compares two resolved namespaces key by key. Changes follow the key
// order of other, then removed keys in the order of base.
func Diff(base, other *Namespace) []Change {
	var changes []Change
	for k, v := range other.All() {
		old, ok := base.Get(k)
		switch {
		case !ok:
			changes = append(changes, Change{Key: k, Type: Added, New: v})
		case !sameValue(old, v):
			changes = append(changes, Change{Key: k, Type: Changed, Old: old, New: v})
		}
	}
	for k, v := range base.All() {
		if !other.Has(k) {
			changes = append(changes, Change{Key: k, Type: Removed, Old: v})
		}
	}
	return changes
}

func sameValue(a, b any) bool {
	return cmp.Equal(a, b, valueOptions()...)
}

// valueOptions compares types with unexported state by what they hold.
// Decimals and quantities compare through their own Equal methods.
func valueOptions() []cmp.Option {
	return []cmp.Option{
		cmp.Comparer(func(a, b *url.URL) bool {
			if a == nil || b == nil {
				return a == b
			}
			return a.String() == b.String()
		}),
		cmp.Comparer(func(a, b *Namespace) bool {
			if a == nil || b == nil {
				return a == b
			}
			return cmp.Equal(a.Keys(), b.Keys()) && cmp.Equal(a.Map(), b.Map(), valueOptions()...)
		}),
	}
}
