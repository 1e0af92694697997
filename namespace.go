package djconf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"
)

// GroupDelimiter separates path segments in a flat setting key.
// DJCORE__SITE_URL is stored as key SITE_URL of group DJCORE.
const GroupDelimiter = "__"

// privateMarker prefixes bookkeeping keys that live outside the mapping.
const privateMarker = "_"

const (
	metaOverridden = "_overridden"
	metaSecrets    = "_secrets"
	metaProfile    = "_profile"
)

// Namespace is an insertion-ordered mapping of settings. Values may be
// nested namespaces (groups). Keys starting with "_" are bookkeeping
// fields: they are readable with Get but never iterated or serialised.
type Namespace struct {
	keys   []string
	values map[string]any
	meta   map[string]any
}

// NewNamespace returns an empty namespace.
func NewNamespace() *Namespace {
	return &Namespace{values: make(map[string]any)}
}

func isPrivate(key string) bool {
	return strings.HasPrefix(key, privateMarker)
}

// Get returns the value stored under key.
func (n *Namespace) Get(key string) (any, bool) {
	if isPrivate(key) {
		v, ok := n.meta[key]
		return v, ok
	}
	v, ok := n.values[key]
	return v, ok
}

// Has reports whether key is present, regardless of its value.
func (n *Namespace) Has(key string) bool {
	_, ok := n.Get(key)
	return ok
}

// Set stores v under key, keeping the position of an existing key.
func (n *Namespace) Set(key string, v any) {
	if isPrivate(key) {
		if n.meta == nil {
			n.meta = make(map[string]any)
		}
		n.meta[key] = v
		return
	}
	if _, ok := n.values[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.values[key] = v
}

// Group returns the sub-namespace stored under key.
func (n *Namespace) Group(key string) (*Namespace, bool) {
	v, ok := n.values[key]
	if !ok {
		return nil, false
	}
	g, ok := v.(*Namespace)
	return g, ok
}

// SetNested stores v under key, splitting it on GroupDelimiter and creating
// intermediate groups on demand. Descending through a non-group value fails
// with ErrConfigKeyCollision.
func (n *Namespace) SetNested(key string, v any) error {
	parts := strings.Split(key, GroupDelimiter)
	parent := n
	for i, part := range parts[:len(parts)-1] {
		existing, ok := parent.values[part]
		if !ok {
			g := NewNamespace()
			parent.Set(part, g)
			parent = g
			continue
		}
		g, isGroup := existing.(*Namespace)
		if !isGroup {
			return &Error{
				Setting: key,
				Err: fmt.Errorf("%w: %s holds a %T, not a group",
					ErrConfigKeyCollision, strings.Join(parts[:i+1], "."), existing),
			}
		}
		parent = g
	}
	parent.Set(parts[len(parts)-1], v)
	return nil
}

// Lookup resolves a dotted path through groups and plain maps.
// A missing segment fails with ErrKeyNotFound.
func (n *Namespace) Lookup(path string) (any, error) {
	var cur any = n
	for i, seg := range strings.Split(path, ".") {
		var (
			next any
			ok   bool
		)
		switch c := cur.(type) {
		case *Namespace:
			next, ok = c.Get(seg)
		case map[string]any:
			next, ok = c[seg]
		case map[string]string:
			next, ok = c[seg]
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, strings.Join(strings.Split(path, ".")[:i+1], "."))
		}
		cur = next
	}
	return cur, nil
}

// Keys returns the keys in insertion order.
func (n *Namespace) Keys() []string {
	return append([]string(nil), n.keys...)
}

// Len returns the number of keys.
func (n *Namespace) Len() int { return len(n.keys) }

// All iterates keys and values in insertion order.
func (n *Namespace) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, k := range n.keys {
			if !yield(k, n.values[k]) {
				return
			}
		}
	}
}

// Map converts the namespace into plain nested maps.
func (n *Namespace) Map() map[string]any {
	out := make(map[string]any, len(n.keys))
	for k, v := range n.All() {
		if g, ok := v.(*Namespace); ok {
			out[k] = g.Map()
			continue
		}
		out[k] = v
	}
	return out
}

// Clone returns a deep copy, bookkeeping included.
func (n *Namespace) Clone() *Namespace {
	c := NewNamespace()
	for k, v := range n.All() {
		c.Set(k, cloneValue(v))
	}
	for k, v := range n.meta {
		c.Set(k, cloneValue(v))
	}
	return c
}

// Overridden reports whether the setting at path was supplied by the environment.
func (n *Namespace) Overridden(path string) bool {
	set, _ := n.meta[metaOverridden].(map[string]bool)
	return set[path]
}

func (n *Namespace) markOverridden(path string) {
	set, _ := n.meta[metaOverridden].(map[string]bool)
	if set == nil {
		set = make(map[string]bool)
		n.Set(metaOverridden, set)
	}
	set[path] = true
}

// Secrets returns the dotted paths masked by Masked.
func (n *Namespace) Secrets() []string {
	s, _ := n.meta[metaSecrets].([]string)
	return append([]string(nil), s...)
}

// MarkSecret records path for masking by Masked.
func (n *Namespace) MarkSecret(path string) {
	s, _ := n.meta[metaSecrets].([]string)
	for _, p := range s {
		if p == path {
			return
		}
	}
	n.Set(metaSecrets, append(s, path))
}

// Masked returns a copy safe for printing: secret paths are masked and
// URL passwords replaced.
func (n *Namespace) Masked() *Namespace {
	c := n.Clone()
	c.maskURLs()
	for _, path := range c.Secrets() {
		maskPath(c, strings.Split(path, "."))
	}
	return c
}

func (n *Namespace) maskURLs() {
	for k, v := range n.All() {
		switch v := v.(type) {
		case *Namespace:
			v.maskURLs()
		case *url.URL, string:
			n.values[k] = maskURLPassword(v)
		}
	}
}

// maskPath masks the value found at segs, descending through groups and maps.
func maskPath(cur any, segs []string) {
	key, rest := segs[0], segs[1:]
	switch c := cur.(type) {
	case *Namespace:
		v, ok := c.values[key]
		if !ok {
			return
		}
		if len(rest) == 0 {
			c.values[key] = maskValue(v)
			return
		}
		maskPath(v, rest)
	case map[string]any:
		v, ok := c[key]
		if !ok {
			return
		}
		if len(rest) == 0 {
			c[key] = maskValue(v)
			return
		}
		maskPath(v, rest)
	}
}

// MarshalJSON renders the namespace as an object with keys in insertion order.
func (n *Namespace) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range n.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(renderValue(n.values[k]))
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML renders the namespace as a mapping with keys in insertion order.
func (n *Namespace) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for k, v := range n.All() {
		key := &yaml.Node{Kind: yaml.ScalarNode, Value: k}
		val := &yaml.Node{}
		if g, ok := v.(*Namespace); ok {
			gv, err := g.MarshalYAML()
			if err != nil {
				return nil, err
			}
			val = gv.(*yaml.Node)
		} else if err := val.Encode(renderValue(v)); err != nil {
			return nil, fmt.Errorf("marshal %s: %w", k, err)
		}
		node.Content = append(node.Content, key, val)
	}
	return node, nil
}
