package djconf

import (
	"fmt"
	"net/url"
	"slices"
)

const (
	debugToolbarApp        = "debug_toolbar"
	debugToolbarMiddleware = "debug_toolbar.middleware.DebugToolbarMiddleware"
)

// WhitelistSiteURL adds the site's host to ALLOWED_HOSTS,
// CORS_ORIGIN_WHITELIST and CSRF_TRUSTED_ORIGINS when
// DJCORE.WHITELIST_SITE_URL is set. Hosts already listed are not repeated
// and lists supplied by the environment are left alone.
func WhitelistSiteURL() PostStep {
	return PostStep{Name: "whitelist_site_url", Apply: func(ns *Namespace) error {
		on, err := lookupBool(ns, "DJCORE.WHITELIST_SITE_URL")
		if err != nil || !on {
			return err
		}
		v, err := ns.Lookup("DJCORE.URL")
		if err != nil {
			return err
		}
		if u, ok := v.(*url.URL); ok && u == nil {
			return nil
		}
		u, err := lookupURL(ns, "DJCORE.URL")
		if err != nil {
			return err
		}
		for _, key := range []string{"ALLOWED_HOSTS", "CORS_ORIGIN_WHITELIST", "CSRF_TRUSTED_ORIGINS"} {
			if err := updateList(ns, key, func(list []string) []string {
				return appendOnce(list, u.Host)
			}); err != nil {
				return err
			}
		}
		return nil
	}}
}

// MailDefaults configures the mailgun backend from the resolved site.
func MailDefaults() PostStep {
	return PostStep{Name: "mail_defaults", Apply: func(ns *Namespace) error {
		backend, err := lookupString(ns, "EMAIL_BACKEND")
		if err != nil || backend != mailgunBackend {
			return err
		}
		key, err := lookupString(ns, "MAILGUN_API_KEY")
		if err != nil {
			return err
		}
		domain, err := lookupString(ns, "MAILGUN_SENDER_DOMAIN")
		if err != nil {
			return err
		}
		if err := ns.SetNested("ANYMAIL__MAILGUN_API_KEY", key); err != nil {
			return err
		}
		if err := ns.SetNested("ANYMAIL__MAILGUN_SENDER_DOMAIN", domain); err != nil {
			return err
		}
		ns.MarkSecret("ANYMAIL.MAILGUN_API_KEY")
		return nil
	}}
}

// DebugToolbar installs the debug toolbar app and middleware when
// DJCORE.DJDT_ENABLED resolved true.
func DebugToolbar() PostStep {
	return PostStep{Name: "debug_toolbar", Apply: func(ns *Namespace) error {
		on, err := lookupBool(ns, "DJCORE.DJDT_ENABLED")
		if err != nil || !on {
			return err
		}
		if err := updateList(ns, "INSTALLED_APPS", func(apps []string) []string {
			return appendOnce(apps, debugToolbarApp)
		}); err != nil {
			return err
		}
		if err := updateList(ns, "MIDDLEWARE", func(mw []string) []string {
			if slices.Contains(mw, debugToolbarMiddleware) {
				return mw
			}
			return append([]string{debugToolbarMiddleware}, mw...)
		}); err != nil {
			return err
		}
		if !ns.Has("DEBUG_TOOLBAR_CONFIG") {
			ns.Set("DEBUG_TOOLBAR_CONFIG", map[string]any{"SHOW_COLLAPSED": true})
		}
		return nil
	}}
}

// SecretPaths marks values nested inside settings as secret.
func SecretPaths(paths ...string) PostStep {
	return PostStep{Name: "secret_paths", Apply: func(ns *Namespace) error {
		for _, p := range paths {
			ns.MarkSecret(p)
		}
		return nil
	}}
}

// updateList rewrites the list stored at top-level key unless the
// environment supplied it.
func updateList(ns *Namespace, key string, fn func([]string) []string) error {
	if ns.Overridden(key) {
		return nil
	}
	list, err := lookupList(ns, key)
	if err != nil {
		return err
	}
	ns.Set(key, fn(list))
	return nil
}

func lookupBool(ns *Namespace, path string) (bool, error) {
	v, err := ns.Lookup(path)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%s is a %T, not a bool", path, v)
	}
	return b, nil
}
