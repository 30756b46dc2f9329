package launcher

import "github.com/petervdpas/smartpad/internal/config"

// ResolveMode picks the startup mode. Forcing the browser overrides and
// immediately persists Browser so later plain launches keep it. A save error
// is returned alongside Browser; startup goes on regardless.
func ResolveMode(store Store, forceBrowser bool) (config.Mode, error) {
	if !forceBrowser {
		return store.Load().Mode, nil
	}

	if err := store.Save(config.Config{Mode: config.Browser}); err != nil {
		return config.Browser, &PersistError{Mode: config.Browser, Err: err}
	}
	return config.Browser, nil
}
