package djconf

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func proxyNamespace(t *testing.T) *Namespace {
	t.Helper()
	ns := NewNamespace()
	require.NoError(t, ns.SetNested("DEBUG", true))
	require.NoError(t, ns.SetNested("VAR_ROOT", "/var"))
	require.NoError(t, ns.SetNested("DJCORE__APP_NAME", "myapp"))
	require.NoError(t, ns.SetNested("DJCORE__URL", &url.URL{Scheme: "https", Host: "example.org:8443"}))
	require.NoError(t, ns.SetNested("DJCORE__USE_DJDT", true))
	require.NoError(t, ns.SetNested("INSTALLED_APPS", []string{"myapp", "anymail"}))
	return ns
}

func TestProxyRef(t *testing.T) {
	ns := proxyNamespace(t)
	p := Ref(KindList, "INSTALLED_APPS")
	assert.Equal(t, []string{"INSTALLED_APPS"}, p.Deps)

	v, err := p.Eval(ns, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"myapp", "anymail"}, v)

	// the result is a copy
	v.([]string)[0] = "changed"
	apps, _ := ns.Lookup("INSTALLED_APPS")
	assert.Equal(t, "myapp", apps.([]string)[0])
}

func TestProxyFormatAndJoin(t *testing.T) {
	ns := proxyNamespace(t)

	v, err := Format("DJCORE.APP_NAME", "[Django - %v] ").Eval(ns, nil)
	require.NoError(t, err)
	assert.Equal(t, "[Django - myapp] ", v)

	v, err = Join("VAR_ROOT", "cache").Eval(ns, nil)
	require.NoError(t, err)
	assert.Equal(t, "/var/cache", v)
}

func TestProxyInstalled(t *testing.T) {
	ns := proxyNamespace(t)

	v, err := Installed("anymail", "mailgun", "smtp").Eval(ns, nil)
	require.NoError(t, err)
	assert.Equal(t, "mailgun", v)

	v, err = Installed("minimal_user", "minimal_user.User", "auth.User").Eval(ns, nil)
	require.NoError(t, err)
	assert.Equal(t, "auth.User", v)
}

func TestProxyRequired(t *testing.T) {
	_, err := Required(KindString).Eval(NewNamespace(), nil)
	assert.ErrorIs(t, err, ErrUnresolvableReference)
}

func TestProxyMissingDependency(t *testing.T) {
	_, err := Ref(KindString, "DJCORE.NOPE").Eval(proxyNamespace(t), nil)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestProxyExpr(t *testing.T) {
	ns := proxyNamespace(t)
	caps := NewCapabilities("debug_toolbar")

	cases := []struct {
		name string
		src  string
		caps Capabilities
		want any
	}{
		{"member chain", "DJCORE.URL.Host", nil, "example.org:8443"},
		{"concat", `"[Django - " + DJCORE.APP_NAME + "] "`, nil, "[Django - myapp] "},
		{"capable", `DEBUG && capable("debug_toolbar") && DJCORE.USE_DJDT`, caps, true},
		{"not capable", `DEBUG && capable("debug_toolbar") && DJCORE.USE_DJDT`, nil, false},
		{"installed", `installed("anymail") ? "mailgun" : "smtp"`, nil, "mailgun"},
		{"path_join", `path_join(VAR_ROOT, "log")`, nil, "/var/log"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v, err := Expr(KindJSON, c.src).Eval(ns, c.caps)
			require.NoError(t, err)
			assert.Equal(t, c.want, v)
		})
	}
}

func TestProxyExprDeps(t *testing.T) {
	p := Expr(KindBool, `DEBUG && capable("debug_toolbar") && DJCORE.USE_DJDT`)
	assert.Contains(t, p.Deps, "DEBUG")
	assert.Contains(t, p.Deps, "DJCORE.USE_DJDT")
	assert.NotContains(t, p.Deps, "DJCORE")

	p = Expr(KindString, "DJCORE.URL.Host")
	assert.Equal(t, []string{"DJCORE.URL.Host"}, p.Deps)
	assert.Equal(t, "DJCORE.URL.Host", p.Source())
}

func TestProxyExprErrors(t *testing.T) {
	p := Expr(KindString, "DJCORE.(")
	_, err := p.Eval(proxyNamespace(t), nil)
	assert.Error(t, err)

	_, err = Expr(KindString, "DJCORE.MISSING.Host").Eval(proxyNamespace(t), nil)
	assert.Error(t, err)
}

func TestCapabilityFunc(t *testing.T) {
	p := CapabilityFunc(KindBool, nil, func(_ *Namespace, caps Capabilities) (any, error) {
		return caps.Has("storages"), nil
	})

	v, err := p.Eval(NewNamespace(), NewCapabilities("storages"))
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = p.Eval(NewNamespace(), nil)
	require.NoError(t, err)
	assert.Equal(t, false, v)
}

func TestProxyKindChecked(t *testing.T) {
	ns := proxyNamespace(t)
	require.NoError(t, ns.SetNested("SITE_ID", 1))

	_, err := Expr(KindString, "SITE_ID").Eval(ns, nil)
	assert.ErrorIs(t, err, ErrUnresolvableReference)
	assert.Contains(t, err.Error(), "computed a int for a string setting")

	_, err = Func(KindList, nil, func(*Namespace) (any, error) {
		return "not-a-list", nil
	}).Eval(ns, nil)
	assert.ErrorIs(t, err, ErrUnresolvableReference)

	// lossless conversions are applied
	v, err := Expr(KindList, `["a", "b"]`).Eval(ns, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, v)

	v, err = Expr(KindFloat, "SITE_ID").Eval(ns, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	// custom kinds pass through
	v, err = Func(Kind("plan"), nil, func(*Namespace) (any, error) {
		return 42, nil
	}).Eval(ns, nil)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestProxyExprResultIsCopy(t *testing.T) {
	ns := proxyNamespace(t)

	v, err := Expr(KindList, "INSTALLED_APPS").Eval(ns, nil)
	require.NoError(t, err)
	v.([]string)[0] = "changed"

	apps, _ := ns.Lookup("INSTALLED_APPS")
	assert.Equal(t, "myapp", apps.([]string)[0])
}
