package djconf

import (
	"slices"
	"strings"
)

// Entry is one default specification: a literal or a *Proxy.
type Entry struct {
	// Key is the flat setting name; "__" places it inside a group.
	Key string
	// Default is a literal value or a *Proxy.
	Default any
	// Kind overrides the kind inferred from Default.
	Kind Kind
	// Requires names a capability the entry is gated on.
	Requires string
	// Secret masks the value when printed.
	Secret bool
}

// ResolvedKind returns the kind environment overrides are coerced to.
func (e Entry) ResolvedKind() Kind {
	if e.Kind != "" {
		return e.Kind
	}
	return KindOf(e.Default)
}

// Proxy returns the deferred default, if the entry has one.
func (e Entry) Proxy() (*Proxy, bool) {
	p, ok := e.Default.(*Proxy)
	return p, ok
}

// Path returns the dotted path the entry resolves to.
func (e Entry) Path() string {
	return keyPath(e.Key)
}

// keyPath converts a table key into a dotted namespace path.
func keyPath(key string) string {
	return strings.ReplaceAll(strings.Trim(key, "_"), GroupDelimiter, ".")
}

// Table is an ordered default value table. Setting an existing key
// replaces its specification in place; new keys append.
type Table struct {
	entries []Entry
	index   map[string]int
}

// NewTable builds a table from entries, later duplicates winning.
func NewTable(entries ...Entry) *Table {
	t := &Table{index: make(map[string]int)}
	for _, e := range entries {
		t.Set(e)
	}
	return t
}

// Set adds or replaces an entry.
func (t *Table) Set(e Entry) {
	if i, ok := t.index[e.Key]; ok {
		t.entries[i] = e
		return
	}
	t.index[e.Key] = len(t.entries)
	t.entries = append(t.entries, e)
}

// Get returns the entry for key.
func (t *Table) Get(key string) (Entry, bool) {
	i, ok := t.index[key]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i], true
}

// Entries returns the entries in table order.
func (t *Table) Entries() []Entry {
	return slices.Clone(t.entries)
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// Capabilities is the set of optional modules the host provides.
type Capabilities map[string]bool

// NewCapabilities builds a set from names.
func NewCapabilities(names ...string) Capabilities {
	c := make(Capabilities, len(names))
	for _, n := range names {
		c[n] = true
	}
	return c
}

// Has reports whether name is provided.
func (c Capabilities) Has(name string) bool {
	return c[name]
}

// Layer is a named group of default specifications.
type Layer struct {
	Name string
	// Debug layers apply only when DEBUG resolves true.
	Debug   bool
	Entries []Entry
}

// PostStep derives composite settings from the fully resolved namespace.
type PostStep struct {
	Name  string
	Apply func(ns *Namespace) error
}

// Profile is a complete set of layers and post-processing steps.
type Profile struct {
	Name   string
	Layers []Layer
	Post   []PostStep
}

// Extend returns a copy of p with layers and post steps appended.
// Appended layers override earlier ones key by key.
func (p Profile) Extend(name string, layers []Layer, post ...PostStep) Profile {
	return Profile{
		Name:   name,
		Layers: append(slices.Clone(p.Layers), layers...),
		Post:   append(slices.Clone(p.Post), post...),
	}
}

// Table composes the effective table: layers in order, debug layers only
// when debug is set, gated entries only when their capability is present.
// The last applied layer wins for a key, keeping the key's first position.
func (p Profile) Table(debug bool, caps Capabilities) *Table {
	t := NewTable()
	for _, l := range p.Layers {
		if l.Debug && !debug {
			continue
		}
		for _, e := range l.Entries {
			if e.Requires != "" && !caps.Has(e.Requires) {
				continue
			}
			t.Set(e)
		}
	}
	return t
}
