package djconf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type mapAppSource map[string]any

func (m mapAppSource) Submodule(app, name string) (any, bool) {
	v, ok := m[app+"."+name]
	return v, ok
}

func TestSubmodules(t *testing.T) {
	s := &Settings{InstalledApps: []string{"myapp", "dj_core", "django.contrib.admin", "anymail"}}
	src := mapAppSource{
		"anymail.urls": "anymail-routes",
		"myapp.urls":   "myapp-routes",
		"dj_core.api":  "not-urls",
	}

	got := Submodules(s, src, "urls")
	assert.Equal(t, []AppModule{
		{App: "myapp", Module: "myapp-routes"},
		{App: "anymail", Module: "anymail-routes"},
	}, got)

	assert.Empty(t, Submodules(s, src, "signals"))
}
