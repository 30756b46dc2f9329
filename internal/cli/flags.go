// Package cli parses the launcher's command line.
package cli

import (
	"fmt"
	"io"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"github.com/spf13/pflag"
)

// Options is the parsed command line. Browser forces browser mode for this
// and every later launch; LogLevel, when set, overrides launcher.toml.
type Options struct {
	Browser   bool
	ConfigDir string
	LogLevel  string
	Version   bool
}

// Parse reads args (without the program name). It returns pflag.ErrHelp
// after printing usage to out when -h/--help is given.
func Parse(args []string, out io.Writer) (Options, error) {
	var o Options

	fs := pflag.NewFlagSet("smartpad", pflag.ContinueOnError)
	fs.SetOutput(out)
	fs.BoolVar(&o.Browser, "browser", false, "open in the system browser and remember that choice")
	fs.StringVar(&o.ConfigDir, "config-dir", "", "directory for config.json and launcher.toml (default ~/.smartpad)")
	fs.StringVar(&o.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.BoolVar(&o.Version, "version", false, "show version information")
	fs.Usage = func() {
		fmt.Fprintln(out, "smartpad - launch the backend and show it in a window or browser")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Usage:")
		fmt.Fprintln(out, "  smartpad [flags]")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Flags:")
		fmt.Fprint(out, fs.FlagUsages())
	}

	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}
	if fs.NArg() > 0 {
		return Options{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if o.LogLevel != "" {
		if _, err := logging.LevelFromString(o.LogLevel); err != nil {
			return Options{}, fmt.Errorf("invalid --log-level %q: %w", o.LogLevel, err)
		}
	}
	return o, nil
}
