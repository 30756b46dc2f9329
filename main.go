// main.go
package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	logging "github.com/ipfs/go-log/v2"
	"github.com/spf13/pflag"

	"github.com/petervdpas/smartpad/internal/backend"
	"github.com/petervdpas/smartpad/internal/cli"
	"github.com/petervdpas/smartpad/internal/config"
	"github.com/petervdpas/smartpad/internal/instance"
	"github.com/petervdpas/smartpad/internal/launcher"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
)

//go:embed all:frontend/dist
var assets embed.FS

// appVersion is set at build time via -ldflags "-X main.appVersion=x.y.z"
var appVersion = "dev"

var log = logging.Logger("smartpad")

func main() {
	opts, err := cli.Parse(os.Args[1:], os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if opts.Version {
		fmt.Printf("smartpad v%s\n", appVersion)
		return
	}

	dir, err := config.ResolveDir(opts.ConfigDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "smartpad: config dir: %v\n", err)
		os.Exit(1)
	}
	settings, err := config.LoadSettings(filepath.Join(dir, config.SettingsFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "smartpad: %v\n", err)
		os.Exit(1)
	}

	level := settings.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	setupLogging(level)

	app := NewApp()
	session, err := launcher.Boot(context.Background(), launcher.BootOptions{
		Dir:          dir,
		ForceBrowser: opts.Browser,
		Backend:      settings.Backend,
		Host:         wailsHost{app: app},
	})
	if errors.Is(err, instance.ErrAlreadyRunning) {
		log.Infow("smartpad is already running, asked it to come forward")
		return
	}
	if err != nil {
		exitStartup(err)
	}
	app.attach(session)

	runDesktopApp(app, session.Controller.Mode() == config.Browser)
}

func setupLogging(level string) {
	lvl, err := logging.LevelFromString(level)
	if err != nil {
		lvl = logging.LevelInfo
	}
	logging.SetupLogging(logging.Config{
		Format: logging.PlaintextOutput,
		Stderr: true,
		Level:  lvl,
	})
	if err != nil {
		log.Warnw("unknown log level, using info", "level", level)
	}
}

// exitStartup reports a failure that leaves nothing to present and exits
// before any window is created.
func exitStartup(err error) {
	log.Errorw("startup failed", "err", err)
	var se *backend.StartError
	if errors.As(err, &se) {
		for _, line := range se.Stderr {
			log.Errorw("backend stderr", "line", line)
		}
	}
	fmt.Fprintf(os.Stderr, "smartpad: %v\n", err)
	os.Exit(1)
}

func runDesktopApp(app *App, hidden bool) {
	err := wails.Run(&options.App{
		Title:  "SmartPad",
		Width:  1200,
		Height: 800,

		// Browser mode keeps the window around, hidden, for a later toggle.
		StartHidden: hidden,

		AssetServer: &assetserver.Options{
			Assets: assets,
		},

		Linux: &linux.Options{
			ProgramName: "smartpad",
		},

		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
		Bind:       []any{app},
	})
	if err != nil {
		if cerr := app.session.Close(); cerr != nil {
			log.Errorw("cleanup after window failure", "err", cerr)
		}
		log.Errorw("window runtime failed", "err", err)
		os.Exit(1)
	}
}
