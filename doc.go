// Package djconf resolves the settings of a dj_core web application from
// layered defaults and environment variables.
//
// # Features
//
//   - Ordered default value tables composed from named layers
//   - A debug overlay applied only when DEBUG resolves true
//   - Deferred defaults (proxies) computed from other settings after they resolve
//   - Environment overrides coerced to the kind of the default they replace
//   - Optional .env file support
//   - Capability gating for optional modules such as corsheaders or storages
//   - Post-processing steps for composite settings
//   - Secret masking for sensitive configuration values
//   - A typed Settings struct with an extension namespace for host settings
//
// # Layers and Profiles
//
// A Profile is a list of Layers plus post-processing steps. Layers apply
// in order and a later layer replaces an earlier layer's entry key by key,
// keeping the key's first position. The core profile is registered as
// "dj_core.config.Config"; a host application registers its own profile
// under "<APP_NAME>.config.Config" (or any path named by APP_CONF):
//
//	func init() {
//		djconf.Register("myapp.config.Config", djconf.DefaultProfile().Extend(
//			"myapp.config.Config",
//			[]djconf.Layer{{Name: "myapp", Entries: []djconf.Entry{
//				{Key: "APP_NAME", Default: "myapp"},
//				{Key: "MYAPP__FEATURE_FLAGS", Default: []string{}},
//			}}},
//		))
//	}
//
// # Environment Variables
//
// Every table key is overridable through the prefixed environment
// variable of the same name. With the default prefix "DJCORE_":
//
//	DJCORE_DEBUG=true
//	DJCORE_DJCORE__SITE_URL=https://example.org
//	DJCORE_ALLOWED_HOSTS=example.org,api.example.org
//
// A "__" in a key places the setting inside a group, so DJCORE__SITE_URL
// resolves to the SITE_URL member of the DJCORE group.
//
// # Kinds
//
// Raw strings are coerced to the kind of the default they override:
//   - string, bool, int, float
//   - list (separator-delimited), map (key=value pairs), json
//   - url (*url.URL), duration (time.Duration), loglevel (slog.Level)
//   - decimal (decimal.Decimal), uuid (uuid.UUID), quantity (resource.Quantity)
//   - emails ("Name:address" pairs)
//
// Hosts add kinds with RegisterKind.
//
// # Proxies
//
// A Proxy is a default computed from other settings. The resolver orders
// entries so every proxy runs after the settings it reads, and reports
// ErrDependencyCycle when no such order exists:
//
//	{Key: "DJCORE__SITE_DOMAIN", Default: djconf.Ref(djconf.KindString, "DJCORE.URL.Host")}
//	{Key: "STATIC_ROOT", Default: djconf.Join("DOCUMENT_ROOT", "static")}
//	{Key: "EMAIL_SUBJECT_PREFIX", Default: djconf.Expr(djconf.KindString, `"[" + DJCORE.SITE_NAME + "] "`)}
//
// An environment override always wins over the proxy.
//
// # Loading
//
//	s, err := djconf.Load(
//		djconf.WithDotenv(".env"),
//		djconf.WithCapabilities("corsheaders", "storages"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(s.PrettyString()) // secrets are masked
//
// Settings no Settings field binds are kept in s.Extra; Bind decodes a
// namespace into any struct tagged with `setting:"KEY"`.
//
// # Error Handling
//
// Resolution stops at the first failure and returns no partial settings.
// Errors wrap one of the sentinel errors and name the setting concerned:
//   - ErrInvalidConfigValue: a raw value does not coerce to its kind
//   - ErrUnresolvableReference: a proxy could not compute its value
//   - ErrConfigKeyCollision: a nested key descends through a non-group value
//   - ErrImportResolution: a dotted path has nothing registered
//   - ErrDependencyCycle: proxies depend on each other
package djconf
