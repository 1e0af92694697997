package djconf

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"reflect"
	"strings"

	"k8s.io/apimachinery/pkg/api/resource"
)

// Settings is the resolved configuration of a dj_core application.
// Settings no field binds, such as those added by a host profile, are kept
// in Extra.
type Settings struct {
	AppName string `setting:"APP_NAME"`
	AppConf string `setting:"APP_CONF"`
	Debug   bool   `setting:"DEBUG"`
	DJCore  DJCore `setting:"DJCORE"`

	InstalledApps []string         `setting:"INSTALLED_APPS"`
	Databases     map[string]any   `setting:"DATABASES"`
	Middleware    []string         `setting:"MIDDLEWARE"`
	Templates     []map[string]any `setting:"TEMPLATES"`
	AllowedHosts  []string         `setting:"ALLOWED_HOSTS"`

	Admins                 []Contact `setting:"ADMINS"`
	Managers               []Contact `setting:"MANAGERS"`
	AnonymousUserID        int       `setting:"ANONYMOUS_USER_ID"`
	AuthenticationBackends []string  `setting:"AUTHENTICATION_BACKENDS"`
	AuthUserModel          string    `setting:"AUTH_USER_MODEL"`

	AWSAccessKeyID       string `setting:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey   string `setting:"AWS_SECRET_ACCESS_KEY" secret:"true"`
	AWSS3EndpointURL     string `setting:"AWS_S3_ENDPOINT_URL"`
	AWSS3RegionName      string `setting:"AWS_S3_REGION_NAME"`
	AWSS3CustomDomain    string `setting:"AWS_S3_CUSTOM_DOMAIN"`
	AWSStorageBucketName string `setting:"AWS_STORAGE_BUCKET_NAME"`

	CeleryAppName                string         `setting:"CELERY_APP_NAME"`
	CeleryBrokerURL              string         `setting:"CELERY_BROKER_URL"`
	CeleryBrokerTransportOptions map[string]any `setting:"CELERY_BROKER_TRANSPORT_OPTIONS"`
	CeleryResultBackend          string         `setting:"CELERY_RESULT_BACKEND"`

	CORSOriginAllowAll  bool     `setting:"CORS_ORIGIN_ALLOW_ALL"`
	CORSOriginWhitelist []string `setting:"CORS_ORIGIN_WHITELIST"`
	CSRFCookiePath      string   `setting:"CSRF_COOKIE_PATH"`
	CSRFCookieSecure    bool     `setting:"CSRF_COOKIE_SECURE"`
	CSRFTrustedOrigins  []string `setting:"CSRF_TRUSTED_ORIGINS"`

	DataUploadMaxMemorySize resource.Quantity `setting:"DATA_UPLOAD_MAX_MEMORY_SIZE"`
	FileUploadMaxMemorySize resource.Quantity `setting:"FILE_UPLOAD_MAX_MEMORY_SIZE"`

	DefaultFileStorage  string `setting:"DEFAULT_FILE_STORAGE"`
	StaticfilesStorage  string `setting:"STATICFILES_STORAGE"`
	DefaultFromEmail    string `setting:"DEFAULT_FROM_EMAIL"`
	ServerEmail         string `setting:"SERVER_EMAIL"`
	EmailBackend        string `setting:"EMAIL_BACKEND"`
	EmailSubjectPrefix  string `setting:"EMAIL_SUBJECT_PREFIX"`
	MailgunAPIKey       string `setting:"MAILGUN_API_KEY" secret:"true"`
	MailgunSenderDomain string `setting:"MAILGUN_SENDER_DOMAIN"`

	InternalIPs          []string   `setting:"INTERNAL_IPS"`
	LanguageCode         string     `setting:"LANGUAGE_CODE"`
	LogLevel             slog.Level `setting:"LOG_LEVEL"`
	LoginURL             string     `setting:"LOGIN_URL"`
	RootURLConf          string     `setting:"ROOT_URLCONF"`
	SecretKey            string     `setting:"SECRET_KEY" secret:"true"`
	SecureProxySSLHeader []string   `setting:"SECURE_PROXY_SSL_HEADER"`
	SessionCookiePath    string     `setting:"SESSION_COOKIE_PATH"`
	SessionCookieSecure  bool       `setting:"SESSION_COOKIE_SECURE"`
	SiteID               int        `setting:"SITE_ID"`
	TimeZone             string     `setting:"TIME_ZONE"`
	UseI18N              bool       `setting:"USE_I18N"`
	UseL10N              bool       `setting:"USE_L10N"`
	UseTZ                bool       `setting:"USE_TZ"`
	WSGIApplication      string     `setting:"WSGI_APPLICATION"`

	VarRoot      string `setting:"VAR_ROOT"`
	CacheRoot    string `setting:"CACHE_ROOT"`
	LogRoot      string `setting:"LOG_ROOT"`
	DocumentRoot string `setting:"DOCUMENT_ROOT"`
	StaticRoot   string `setting:"STATIC_ROOT"`
	StaticURL    string `setting:"STATIC_URL"`
	MediaRoot    string `setting:"MEDIA_ROOT"`
	MediaURL     string `setting:"MEDIA_URL"`

	Extra *Namespace `setting:",extra"`

	ns *Namespace
}

// DJCore holds the dj_core internal settings of the DJCORE group.
type DJCore struct {
	AppName          string         `setting:"APP_NAME"`
	AppConf          string         `setting:"APP_CONF"`
	AdminEnabled     bool           `setting:"ADMIN_ENABLED"`
	AdminUser        map[string]any `setting:"ADMIN_USER" secret:"true"`
	AdminEmail       string         `setting:"ADMIN_EMAIL"`
	SiteURL          string         `setting:"SITE_URL"`
	FrontendURL      string         `setting:"FRONTEND_URL"`
	WhitelistSiteURL bool           `setting:"WHITELIST_SITE_URL"`
	URL              *url.URL       `setting:"URL"`
	SiteName         string         `setting:"SITE_NAME"`
	SiteDomain       string         `setting:"SITE_DOMAIN"`
	UseDJDT          bool           `setting:"USE_DJDT"`
	DJDTEnabled      bool           `setting:"DJDT_ENABLED"`
}

// Load resolves settings with a new Resolver and binds them.
//
// Example:
//
//	s, err := djconf.Load(djconf.WithCapabilities("corsheaders", "storages"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(s.PrettyString())
func Load(opts ...Option) (*Settings, error) {
	r, err := New(opts...)
	if err != nil {
		return nil, err
	}
	ns, err := r.Resolve()
	if err != nil {
		return nil, err
	}
	s, err := Bind(ns, &Settings{})
	if err != nil {
		return nil, err
	}
	s.ns = ns
	return s, nil
}

// MustLoad is Load that panics on error.
func MustLoad(opts ...Option) *Settings {
	s, err := Load(opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Namespace returns the resolved namespace the settings were bound from.
func (s *Settings) Namespace() *Namespace { return s.ns }

// Get returns the resolved value at a dotted path, including settings
// that have no field.
func (s *Settings) Get(path string) (any, error) {
	if s.ns == nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, path)
	}
	return s.ns.Lookup(path)
}

// RootURL returns the root URL of the site.
func (s *Settings) RootURL() string { return s.DJCore.SiteURL }

// AsAbsolute prefixes path with the root URL.
func (s *Settings) AsAbsolute(path string) string { return s.RootURL() + path }

// FileStorage returns the backend selected by DEFAULT_FILE_STORAGE.
func (s *Settings) FileStorage() (StorageBackend, error) {
	b, err := ImportStorage(s.DefaultFileStorage)
	return b, settingOrNil("DEFAULT_FILE_STORAGE", err)
}

// StaticStorage returns the backend selected by STATICFILES_STORAGE.
func (s *Settings) StaticStorage() (StorageBackend, error) {
	b, err := ImportStorage(s.StaticfilesStorage)
	return b, settingOrNil("STATICFILES_STORAGE", err)
}

func settingOrNil(setting string, err error) error {
	if err == nil {
		return nil
	}
	return settingError(setting, err)
}

// PrettyString renders the settings as indented JSON in resolution order,
// with secrets and URL passwords masked.
func (s *Settings) PrettyString() string {
	if s.ns != nil {
		return PrettyString(s.ns)
	}
	return PrettyString(s)
}

// PrettyString renders a namespace or settings struct as indented JSON
// with secrets and URL passwords masked.
//
// Example:
//
//	fmt.Println(PrettyString(ns))
//	// Output: {"SECRET_KEY": "sup********************", ...}
func PrettyString(c any) string {
	var obj any
	switch c := c.(type) {
	case *Namespace:
		obj = c.Masked()
	default:
		rv := reflect.ValueOf(c)
		if rv.Kind() == reflect.Pointer {
			rv = rv.Elem()
		}
		if rv.Kind() != reflect.Struct {
			return fmt.Sprintf("%T is not a struct", c)
		}
		obj = buildSafeMap(rv)
	}
	b, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return fmt.Sprintf("error pretty-printing settings: %v", err)
	}
	return string(b)
}

// buildSafeMap walks a settings struct, masking fields tagged secret.
func buildSafeMap(val reflect.Value) map[string]any {
	typ := val.Type()
	out := make(map[string]any, typ.NumField())

	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		fv := val.Field(i)
		if !fv.CanInterface() {
			continue
		}
		key, extra := settingKey(sf)
		if key == "" && !extra {
			continue
		}

		switch {
		case extra:
			if ns, ok := fv.Interface().(*Namespace); ok && ns != nil {
				for k, v := range ns.Masked().All() {
					out[k] = renderValue(v)
				}
			}
		case sf.Tag.Get("secret") == "true":
			if s, ok := fv.Interface().(string); ok {
				out[key] = mask(s)
			} else {
				out[key] = "***"
			}
		case fv.Kind() == reflect.Struct && isGroupStruct(fv.Type()):
			out[key] = buildSafeMap(fv)
		default:
			out[key] = renderValue(maskURLPassword(fv.Interface()))
		}
	}
	return out
}

// Bind copies the values of ns into the fields of cfg, a struct or a
// pointer to one. Fields are matched by their `setting` tag; nested
// structs bind groups. A *Namespace field tagged `setting:",extra"`
// receives the top-level settings no field claimed.
//
// Values are assigned directly when the types match and converted
// through JSON otherwise; a value that fits neither way fails with
// ErrInvalidConfigValue.
func Bind[T any](ns *Namespace, cfg T) (T, error) {
	rv := reflect.ValueOf(cfg)

	if rv.Kind() == reflect.Pointer && rv.Elem().Kind() == reflect.Struct {
		err := bindStruct(ns, rv.Elem(), "")
		return cfg, err
	}

	if rv.Kind() == reflect.Struct {
		c := &cfg
		err := bindStruct(ns, reflect.ValueOf(c).Elem(), "")
		return cfg, err
	}

	var zero T
	return zero, fmt.Errorf("settings must be struct or pointer to struct, got %T", cfg)
}

func bindStruct(ns *Namespace, val reflect.Value, prefix string) error {
	typ := val.Type()
	claimed := make(map[string]bool, typ.NumField())
	var extra reflect.Value

	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		fv := val.Field(i)
		if !fv.CanSet() {
			continue
		}
		key, isExtra := settingKey(sf)
		if isExtra {
			extra = fv
			continue
		}
		if key == "" {
			continue
		}
		claimed[key] = true

		v, ok := ns.Get(key)
		if !ok {
			continue
		}
		path := prefix + key
		if g, ok := v.(*Namespace); ok {
			if fv.Kind() == reflect.Struct {
				if err := bindStruct(g, fv, path+"."); err != nil {
					return err
				}
				continue
			}
			v = g.Map()
		}
		if err := assign(fv, v); err != nil {
			return &Error{Setting: path, Err: fmt.Errorf("%w: %w", ErrInvalidConfigValue, err)}
		}
	}

	if extra.IsValid() && extra.Type() == reflect.TypeOf((*Namespace)(nil)) {
		rest := NewNamespace()
		for k, v := range ns.All() {
			if !claimed[k] {
				rest.Set(k, cloneValue(v))
			}
		}
		extra.Set(reflect.ValueOf(rest))
	}
	return nil
}

// assign stores v in fv.
func assign(fv reflect.Value, v any) error {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(fv.Type()) {
		fv.Set(rv)
		return nil
	}
	if isScalar(rv.Kind()) && isScalar(fv.Kind()) && rv.Kind() != reflect.String && fv.Kind() != reflect.String &&
		rv.Type().ConvertibleTo(fv.Type()) {
		fv.Set(rv.Convert(fv.Type()))
		return nil
	}
	b, err := json.Marshal(renderValue(v))
	if err != nil {
		return fmt.Errorf("cannot bind %T to %s: %w", v, fv.Type(), err)
	}
	ptr := reflect.New(fv.Type())
	if err := json.Unmarshal(b, ptr.Interface()); err != nil {
		return fmt.Errorf("cannot bind %T to %s: %w", v, fv.Type(), err)
	}
	fv.Set(ptr.Elem())
	return nil
}

func isScalar(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// settingKey returns the setting name of a field and whether it collects
// unclaimed settings.
func settingKey(sf reflect.StructField) (string, bool) {
	tag, ok := sf.Tag.Lookup("setting")
	if !ok || tag == "-" {
		return "", false
	}
	name, opt, _ := strings.Cut(tag, ",")
	return name, opt == "extra"
}

// isGroupStruct reports whether t binds a group rather than a single value.
func isGroupStruct(t reflect.Type) bool {
	for i := 0; i < t.NumField(); i++ {
		if _, ok := t.Field(i).Tag.Lookup("setting"); ok {
			return true
		}
	}
	return false
}
