package djconf

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Database engines by URL scheme.
var dbEngines = map[string]string{
	"postgres":   "django.db.backends.postgresql",
	"postgresql": "django.db.backends.postgresql",
	"pgsql":      "django.db.backends.postgresql",
	"postgis":    "django.contrib.gis.db.backends.postgis",
	"mysql":      "django.db.backends.mysql",
	"mysqlgis":   "django.contrib.gis.db.backends.mysql",
	"sqlite":     "django.db.backends.sqlite3",
	"spatialite": "django.contrib.gis.db.backends.spatialite",
}

// Query parameters naming connection settings rather than driver options.
var dbBaseOptions = []string{
	"CONN_MAX_AGE",
	"ATOMIC_REQUESTS",
	"AUTOCOMMIT",
	"DISABLE_SERVER_SIDE_CURSORS",
	"CONN_HEALTH_CHECKS",
}

// DatabaseConfig turns a database URL into a connection mapping with
// ENGINE, NAME, USER, PASSWORD, HOST and PORT. An empty URL yields an
// empty mapping. Query parameters become driver OPTIONS, except the
// connection settings in dbBaseOptions, which are set upper-cased on the
// mapping itself.
//
//	postgis://django:django@db:5432/django?sslmode=require&CONN_MAX_AGE=600
//	sqlite:////var/db.sqlite3
//	sqlite://:memory:
func DatabaseConfig(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}
	if raw == "sqlite://:memory:" {
		return map[string]any{"ENGINE": dbEngines["sqlite"], "NAME": ":memory:"}, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid database URL: %w", ErrInvalidConfigValue, err)
	}
	engine, ok := dbEngines[u.Scheme]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported database scheme %q", ErrInvalidConfigValue, u.Scheme)
	}

	name := strings.TrimPrefix(u.Path, "/")
	if u.Scheme == "sqlite" || u.Scheme == "spatialite" {
		if name == "" {
			name = ":memory:"
		}
	}

	var port any = ""
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid database port %q", ErrInvalidConfigValue, p)
		}
		port = n
	}

	var user, password string
	if u.User != nil {
		user = u.User.Username()
		password, _ = u.User.Password()
	}
	config := map[string]any{
		"ENGINE":   engine,
		"NAME":     name,
		"USER":     user,
		"PASSWORD": password,
		"HOST":     u.Hostname(),
		"PORT":     port,
	}

	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid database URL query: %w", ErrInvalidConfigValue, err)
	}
	if len(query) == 0 {
		return config, nil
	}
	options := map[string]any{}
	for k, vs := range query {
		v := vs[0]
		if key := strings.ToUpper(k); slices.Contains(dbBaseOptions, key) {
			config[key] = literalOption(v)
			continue
		}
		if n, err := strconv.Atoi(v); err == nil {
			options[k] = n
			continue
		}
		options[k] = v
	}
	config["OPTIONS"] = options
	return config, nil
}

// literalOption reads an integer or boolean, else keeps the string.
func literalOption(v string) any {
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	switch v {
	case "True", "true":
		return true
	case "False", "false":
		return false
	}
	return v
}
