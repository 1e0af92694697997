package djconf

import (
	"fmt"
	"log/slog"
	"net/url"

	"k8s.io/apimachinery/pkg/api/resource"
)

// DefaultProfilePath is the dotted path the core profile registers under.
const DefaultProfilePath = "dj_core.config.Config"

const mailgunBackend = "anymail.backends.mailgun.EmailBackend"

func init() {
	Register(DefaultProfilePath, DefaultProfile)
}

// DefaultProfile returns the core profile: the base layer, the debug
// overlay and the post-processing steps.
func DefaultProfile() Profile {
	return Profile{
		Name:   DefaultProfilePath,
		Layers: []Layer{baseLayer(), debugLayer()},
		Post: []PostStep{
			WhitelistSiteURL(),
			MailDefaults(),
			DebugToolbar(),
			SecretPaths("DATABASES.default.PASSWORD"),
		},
	}
}

func baseLayer() Layer {
	return Layer{Name: "base", Entries: []Entry{
		{Key: "APP_NAME", Default: DefaultAppName},
		{Key: "APP_CONF", Default: ""},
		{Key: "DEBUG", Default: false},

		// dj_core internal settings
		{Key: "DJCORE__APP_NAME", Default: Ref(KindString, "APP_NAME")},
		{Key: "DJCORE__APP_CONF", Default: Ref(KindString, "APP_CONF")},
		{Key: "DJCORE__ADMIN_ENABLED", Default: true},
		{Key: "DJCORE__ADMIN_USER", Default: map[string]any{}, Secret: true},
		{Key: "DJCORE__ADMIN_EMAIL", Default: Func(KindString, []string{"DJCORE.ADMIN_USER"}, adminEmail)},
		{Key: "DJCORE__SITE_URL", Default: "https://localhost"},
		{Key: "DJCORE__FRONTEND_URL", Default: Ref(KindString, "DJCORE.SITE_URL")},
		{Key: "DJCORE__WHITELIST_SITE_URL", Default: true},
		{Key: "DJCORE__URL", Default: Func(KindURL, []string{"DJCORE.SITE_URL"}, siteURL)},
		{Key: "DJCORE__SITE_NAME", Default: Ref(KindString, "DJCORE.APP_NAME")},
		{Key: "DJCORE__SITE_DOMAIN", Default: Expr(KindString, "DJCORE.URL.Host")},
		{Key: "DJCORE__USE_DJDT", Default: false},
		{Key: "DJCORE__DJDT_ENABLED", Default: Expr(KindBool,
			`DEBUG && capable("debug_toolbar") && DJCORE.USE_DJDT`)},

		// core settings
		{Key: "INSTALLED_APPS_REQUIRED", Default: []string{
			"dj_core",
			"django.contrib.admin",
			"django.contrib.auth",
			"django.contrib.contenttypes",
			"django.contrib.sessions",
			"django.contrib.messages",
			"django.contrib.staticfiles",
			"django.contrib.sites",
		}},
		{Key: "INSTALLED_APPS_OPTIONAL", Default: []string{
			"minimal_user",
			"corsheaders",
			"anymail",
			"django_extensions",
			storageCapabilityS3,
		}},
		{Key: "DATABASE_URL", Default: ""},
		{Key: "INSTALLED_APPS", Default: CapabilityFunc(KindList, []string{
			"DJCORE.APP_NAME", "INSTALLED_APPS_REQUIRED", "INSTALLED_APPS_OPTIONAL",
		}, installedApps)},
		{Key: "DATABASES", Default: Func(KindMap, []string{"DATABASE_URL"}, databases)},
		{Key: "MIDDLEWARE", Default: Func(KindList, []string{"INSTALLED_APPS"}, middleware)},
		{Key: "TEMPLATES", Default: Func(KindJSON, nil, templates)},
		{Key: "ALLOWED_HOSTS", Default: Func(KindList, []string{
			"DJCORE.URL", "DJCORE.WHITELIST_SITE_URL",
		}, allowedHosts)},

		// simple settings
		{Key: "ADMINS", Default: []Contact{}},
		{Key: "ANONYMOUS_USER_ID", Default: -1},
		{Key: "AUTHENTICATION_BACKENDS", Default: []string{"django.contrib.auth.backends.ModelBackend"}},
		{Key: "AWS_ACCESS_KEY_ID", Default: ""},
		{Key: "AWS_S3_ENDPOINT_URL", Default: ""},
		{Key: "AWS_S3_REGION_NAME", Default: ""},
		{Key: "AWS_S3_CUSTOM_DOMAIN", Default: ""},
		{Key: "AWS_SECRET_ACCESS_KEY", Default: "", Secret: true},
		{Key: "AWS_STORAGE_BUCKET_NAME", Default: ""},
		{Key: "CELERY_BROKER_TRANSPORT_OPTIONS", Default: map[string]any{"visibility_timeout": 3600}}, // 1 hour.
		{Key: "CELERY_BROKER_URL", Default: "redis://"},
		{Key: "CORS_ORIGIN_ALLOW_ALL", Default: false},
		{Key: "CSRF_COOKIE_PATH", Default: "/backend/"},
		{Key: "CSRF_COOKIE_SECURE", Default: true},
		{Key: "DATA_UPLOAD_MAX_MEMORY_SIZE", Default: resource.MustParse("2560Ki")},
		{Key: "FILE_UPLOAD_MAX_MEMORY_SIZE", Default: resource.MustParse("2560Ki")},
		{Key: "INTERNAL_IPS", Default: []string{"127.0.0.1"}},
		{Key: "LANGUAGE_CODE", Default: "en-AU"},
		{Key: "LOG_LEVEL", Default: slog.LevelInfo},
		{Key: "LOGIN_URL", Default: "/backend/login/"},
		{Key: "MAILGUN_API_KEY", Default: "", Secret: true},
		{Key: "MANAGERS", Default: []Contact{}},
		{Key: "MEDIA_URL", Default: "/assets/media/"},
		{Key: "ROOT_URLCONF", Default: "dj_core.urls"},
		{Key: "SECRET_KEY", Default: "", Secret: true},
		{Key: "SECURE_PROXY_SSL_HEADER", Default: []string{"HTTP_X_FORWARDED_PROTO", "https"}},
		{Key: "SESSION_COOKIE_PATH", Default: "/backend/"},
		{Key: "SESSION_COOKIE_SECURE", Default: true},
		{Key: "SITE_ID", Default: 1},
		{Key: "STATIC_URL", Default: "/assets/static/"},
		{Key: "TIME_ZONE", Default: "UTC"},
		{Key: "USE_I18N", Default: true},
		{Key: "USE_L10N", Default: true},
		{Key: "USE_TZ", Default: true},
		{Key: "VAR_ROOT", Default: "/var"},
		{Key: "WSGI_APPLICATION", Default: "dj_core.wsgi.application"},

		// proxied settings
		{Key: "CELERY_APP_NAME", Default: Expr(KindString, "DJCORE.APP_NAME")},
		{Key: "CELERY_RESULT_BACKEND", Default: Ref(KindString, "CELERY_BROKER_URL")},
		{Key: "CORS_ORIGIN_WHITELIST", Default: Ref(KindList, "ALLOWED_HOSTS")},
		{Key: "CSRF_TRUSTED_ORIGINS", Default: Ref(KindList, "CORS_ORIGIN_WHITELIST")},
		{Key: "CACHE_ROOT", Default: Join("VAR_ROOT", "cache")},
		{Key: "LOG_ROOT", Default: Join("VAR_ROOT", "log")},
		{Key: "DOCUMENT_ROOT", Default: Join("VAR_ROOT", "www")},
		{Key: "STATIC_ROOT", Default: Join("DOCUMENT_ROOT", "static")},
		{Key: "MEDIA_ROOT", Default: Join("DOCUMENT_ROOT", "media")},
		{Key: "EMAIL_SUBJECT_PREFIX", Default: Expr(KindString, `"[Django - " + DJCORE.APP_NAME + "] "`)},
		{Key: "DEFAULT_FROM_EMAIL", Default: siteMail("no-reply@%s")},
		{Key: "SERVER_EMAIL", Default: siteMail("no-reply+system@%s")},
		{Key: "MAILGUN_SENDER_DOMAIN", Default: siteMail("mailgun.%s")},
		{Key: "AUTH_USER_MODEL", Default: Installed("minimal_user", "minimal_user.User", "auth.User")},
		{Key: "EMAIL_BACKEND", Default: Installed("anymail",
			mailgunBackend,
			"django.core.mail.backends.smtp.EmailBackend")},
		{Key: "DEFAULT_FILE_STORAGE", Default: Installed(storageCapabilityS3, StorageMediaS3, StorageFileSystem)},
		{Key: "STATICFILES_STORAGE", Default: Installed(storageCapabilityS3, StorageStaticS3, StorageStaticFiles)},
	}}
}

func debugLayer() Layer {
	return Layer{Name: "debug", Debug: true, Entries: []Entry{
		{Key: "ALLOWED_HOSTS", Default: Func(KindList, []string{
			"DJCORE.URL", "DJCORE.WHITELIST_SITE_URL",
		}, debugAllowedHosts)},
		{Key: "AWS_ACCESS_KEY_ID", Default: "djangos3"},
		{Key: "AWS_S3_ENDPOINT_URL", Default: "http://minio:9000"},
		{Key: "AWS_SECRET_ACCESS_KEY", Default: "djangos3", Secret: true},
		{Key: "AWS_STORAGE_BUCKET_NAME", Default: "django"},
		{Key: "CELERY_BROKER_URL", Default: "redis://redis"},
		{Key: "CELERY_RESULT_BACKEND", Default: "redis://redis"},
		{Key: "CORS_ORIGIN_ALLOW_ALL", Default: true},
		{Key: "CSRF_COOKIE_SECURE", Default: false},
		{Key: "DATABASE_URL", Default: "postgis://django:django@db:5432/django"},
		{Key: "DJCORE__ADMIN_USER", Default: map[string]any{
			"email":    "test@example.com",
			"password": "password",
		}, Secret: true},
		{Key: "DJCORE__USE_DJDT", Default: true},
		{Key: "EMAIL_BACKEND", Default: "django.core.mail.backends.console.EmailBackend"},
		{Key: "LOG_LEVEL", Default: slog.LevelDebug},
		{Key: "SECRET_KEY", Default: "super_secret_secret_key", Secret: true},
		{Key: "SESSION_COOKIE_SECURE", Default: false},
	}}
}

// siteMail formats an address on the site's hostname.
func siteMail(template string) *Proxy {
	return Func(KindString, []string{"DJCORE.URL"}, func(ns *Namespace) (any, error) {
		u, err := lookupURL(ns, "DJCORE.URL")
		if err != nil {
			return nil, err
		}
		return fmt.Sprintf(template, u.Hostname()), nil
	})
}

func lookupURL(ns *Namespace, path string) (*url.URL, error) {
	v, err := ns.Lookup(path)
	if err != nil {
		return nil, err
	}
	u, ok := v.(*url.URL)
	if !ok || u == nil {
		return nil, fmt.Errorf("%s is a %T, not a URL", path, v)
	}
	return u, nil
}

func siteURL(ns *Namespace) (any, error) {
	raw, err := lookupString(ns, "DJCORE.SITE_URL")
	if err != nil {
		return nil, err
	}
	v, err := Coerce(raw, KindURL, ",")
	if err != nil {
		return nil, fmt.Errorf("DJCORE.SITE_URL: %w", err)
	}
	if v.(*url.URL) == nil {
		return nil, fmt.Errorf("%w: DJCORE.SITE_URL is empty", ErrInvalidConfigValue)
	}
	return v, nil
}

// adminEmail requires an email on any non-empty admin user.
func adminEmail(ns *Namespace) (any, error) {
	v, err := ns.Lookup("DJCORE.ADMIN_USER")
	if err != nil {
		return nil, err
	}
	user, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("DJCORE.ADMIN_USER is a %T, not a mapping", v)
	}
	if len(user) == 0 {
		return "", nil
	}
	email, ok := user["email"].(string)
	if !ok || email == "" {
		return nil, fmt.Errorf("DJCORE.ADMIN_USER has no email")
	}
	return email, nil
}

func allowedHosts(ns *Namespace) (any, error) {
	hosts := []string{"localhost"}
	whitelist, err := ns.Lookup("DJCORE.WHITELIST_SITE_URL")
	if err != nil {
		return nil, err
	}
	if on, _ := whitelist.(bool); on {
		u, err := lookupURL(ns, "DJCORE.URL")
		if err != nil {
			return nil, err
		}
		hosts = appendOnce(hosts, u.Host)
	}
	return hosts, nil
}

func debugAllowedHosts(ns *Namespace) (any, error) {
	v, err := allowedHosts(ns)
	if err != nil {
		return nil, err
	}
	return appendOnce(v.([]string), "*"), nil
}

// installedApps lists the application, the required apps and the optional
// apps the host provides.
func installedApps(ns *Namespace, caps Capabilities) (any, error) {
	appName, err := lookupString(ns, "DJCORE.APP_NAME")
	if err != nil {
		return nil, err
	}
	required, err := lookupList(ns, "INSTALLED_APPS_REQUIRED")
	if err != nil {
		return nil, err
	}
	optional, err := lookupList(ns, "INSTALLED_APPS_OPTIONAL")
	if err != nil {
		return nil, err
	}
	apps := append([]string{}, required...)
	for _, app := range optional {
		if caps.Has(app) {
			apps = append(apps, app)
		}
	}
	for _, app := range apps {
		if app == appName {
			return apps, nil
		}
	}
	return append([]string{appName}, apps...), nil
}

func lookupList(ns *Namespace, path string) ([]string, error) {
	v, err := ns.Lookup(path)
	if err != nil {
		return nil, err
	}
	list, ok := v.([]string)
	if !ok {
		return nil, fmt.Errorf("%s is a %T, not a list", path, v)
	}
	return list, nil
}

func databases(ns *Namespace) (any, error) {
	raw, err := lookupString(ns, "DATABASE_URL")
	if err != nil {
		return nil, err
	}
	db, err := DatabaseConfig(raw)
	if err != nil {
		return nil, err
	}
	return map[string]any{"default": db}, nil
}

func middleware(ns *Namespace) (any, error) {
	cors, err := isInstalled(ns, "corsheaders")
	if err != nil {
		return nil, err
	}
	mw := []string{"django.contrib.sessions.middleware.SessionMiddleware"}
	if cors {
		mw = append(mw, "corsheaders.middleware.CorsMiddleware")
	}
	return append(mw,
		"django.middleware.common.CommonMiddleware",
		"django.middleware.csrf.CsrfViewMiddleware",
		"django.contrib.auth.middleware.AuthenticationMiddleware",
		"django.contrib.messages.middleware.MessageMiddleware",
		"django.middleware.clickjacking.XFrameOptionsMiddleware",
		"django.middleware.security.SecurityMiddleware",
	), nil
}

func templates(*Namespace) (any, error) {
	return []map[string]any{{
		"BACKEND":  "django.template.backends.django.DjangoTemplates",
		"APP_DIRS": true,
		"OPTIONS": map[string]any{
			"context_processors": []string{
				"django.contrib.auth.context_processors.auth",
				"django.template.context_processors.debug",
				"django.template.context_processors.i18n",
				"django.template.context_processors.media",
				"django.template.context_processors.static",
				"django.template.context_processors.tz",
				"django.template.context_processors.request",
				"django.contrib.messages.context_processors.messages",
			},
		},
	}}, nil
}
