package taskengine

import (
	"sync"

	"github.com/RichardKnop/taskengine/config"
)

var (
	defaultApp *App
	defaultMu  sync.Mutex
)

// Default returns the process wide App. It is created from the environment
// on first use and lives until the process exits, unless replaced with
// SetDefault.
func Default() (*App, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultApp != nil {
		return defaultApp, nil
	}

	cnf, err := config.NewFromEnvironment()
	if err != nil {
		return nil, err
	}

	app, err := NewApp(cnf)
	if err != nil {
		return nil, err
	}

	defaultApp = app
	return defaultApp, nil
}

// SetDefault replaces the process wide App. The previous one is not closed.
func SetDefault(app *App) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	defaultApp = app
}
