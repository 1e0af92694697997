package djconf

// AppSource finds named submodules of installed applications. The host
// framework implements it; djconf only decides the order.
type AppSource interface {
	Submodule(app, name string) (any, bool)
}

// AppModule is a submodule found in an installed application.
type AppModule struct {
	App    string
	Module any
}

// Submodules returns the submodule called name of every installed app that
// has one, in INSTALLED_APPS order.
func Submodules(s *Settings, src AppSource, name string) []AppModule {
	var out []AppModule
	for _, app := range s.InstalledApps {
		if m, ok := src.Submodule(app, name); ok {
			out = append(out, AppModule{App: app, Module: m})
		}
	}
	return out
}
