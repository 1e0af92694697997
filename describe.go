package djconf

import (
	"encoding/json"
	"fmt"
)

// SettingInfo describes one entry of a composed default table.
type SettingInfo struct {
	Key      string // Table key (e.g. "DJCORE__SITE_URL")
	Path     string // Dotted namespace path (e.g. "DJCORE.SITE_URL")
	EnvVar   string // Environment variable overriding the setting
	Kind     Kind   // Kind overrides are coerced to
	Layer    string // Name of the layer the entry came from
	Default  string // Rendered literal, expression source, or empty when computed
	Computed bool   // Whether the default is deferred
	Requires string // Capability the entry is gated on
	Required bool   // Whether the environment must supply the value
	Secret   bool   // Whether the value is masked when printed
}

// Describe lists the entries of profile composed for debug and caps, in
// table order, with env var names built from prefix.
func Describe(profile Profile, prefix string, debug bool, caps Capabilities) []SettingInfo {
	var (
		infos []SettingInfo
		index = make(map[string]int)
	)
	for _, l := range profile.Layers {
		if l.Debug && !debug {
			continue
		}
		for _, e := range l.Entries {
			if e.Requires != "" && !caps.Has(e.Requires) {
				continue
			}
			info := describeEntry(e, prefix, l.Name)
			if i, ok := index[e.Key]; ok {
				infos[i] = info
				continue
			}
			index[e.Key] = len(infos)
			infos = append(infos, info)
		}
	}
	return infos
}

func describeEntry(e Entry, prefix, layer string) SettingInfo {
	info := SettingInfo{
		Key:      e.Key,
		Path:     e.Path(),
		EnvVar:   prefix + e.Key,
		Kind:     e.ResolvedKind(),
		Layer:    layer,
		Requires: e.Requires,
		Secret:   e.Secret,
	}
	if p, ok := e.Proxy(); ok {
		info.Computed = true
		info.Default = p.Source()
		info.Required = p.fn == nil && p.src == ""
		return info
	}
	switch {
	case e.Secret:
		info.Default = fmt.Sprint(maskValue(e.Default))
	default:
		info.Default = renderDefault(e.Default)
	}
	return info
}

func renderDefault(v any) string {
	v = renderValue(v)
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// FilterSettings returns settings matching the given predicate function
func FilterSettings(settings []SettingInfo, predicate func(SettingInfo) bool) []SettingInfo {
	var filtered []SettingInfo
	for _, setting := range settings {
		if predicate(setting) {
			filtered = append(filtered, setting)
		}
	}
	return filtered
}

// SecretSettings returns all settings marked as secrets
func SecretSettings(settings []SettingInfo) []SettingInfo {
	return FilterSettings(settings, func(s SettingInfo) bool {
		return s.Secret
	})
}

// RequiredSettings returns all settings the environment must supply
func RequiredSettings(settings []SettingInfo) []SettingInfo {
	return FilterSettings(settings, func(s SettingInfo) bool {
		return s.Required
	})
}
