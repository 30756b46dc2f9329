package launcher

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/petervdpas/smartpad/internal/config"
)

// fakeHost records presentation requests.
type fakeHost struct {
	mu      sync.Mutex
	windows int
	urls    []string
	err     error
}

func (h *fakeHost) ShowWindow() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.windows++
	return h.err
}

func (h *fakeHost) OpenURL(url string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.urls = append(h.urls, url)
	return h.err
}

func (h *fakeHost) calls() (int, []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.windows, append([]string(nil), h.urls...)
}

// failingStore loads like a fresh install and refuses every save.
type failingStore struct{ err error }

func (s failingStore) Load() config.Config { return config.Default() }
func (s failingStore) Save(config.Config) error { return s.err }

func TestPresent_DesktopShowsWindowOnly(t *testing.T) {
	h := &fakeHost{}
	if err := Present(h, config.Desktop, 54231); err != nil {
		t.Fatalf("Present: %v", err)
	}
	windows, urls := h.calls()
	if windows != 1 || len(urls) != 0 {
		t.Fatalf("windows=%d urls=%v, want one window and no browser", windows, urls)
	}
}

func TestPresent_BrowserOpensBackendURL(t *testing.T) {
	h := &fakeHost{}
	if err := Present(h, config.Browser, 54231); err != nil {
		t.Fatalf("Present: %v", err)
	}
	windows, urls := h.calls()
	if windows != 0 || len(urls) != 1 || urls[0] != "http://127.0.0.1:54231" {
		t.Fatalf("windows=%d urls=%v", windows, urls)
	}
}

func TestPresent_WrapsHostFailure(t *testing.T) {
	boom := errors.New("no display")
	err := Present(&fakeHost{err: boom}, config.Browser, 1)

	var he *HostError
	if !errors.As(err, &he) || he.Mode != config.Browser {
		t.Fatalf("err = %v, want *HostError for browser", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v does not wrap the host error", err)
	}
}

func TestToggle_Involution(t *testing.T) {
	for _, start := range []config.Mode{config.Desktop, config.Browser} {
		c := New(54231, start, config.NewStore(t.TempDir()), &fakeHost{})
		if _, err := c.Toggle(); err != nil {
			t.Fatalf("first Toggle: %v", err)
		}
		if _, err := c.Toggle(); err != nil {
			t.Fatalf("second Toggle: %v", err)
		}
		if c.Mode() != start {
			t.Fatalf("Mode after two toggles = %v, want %v", c.Mode(), start)
		}
	}
}

func TestToggle_PersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	c := New(54231, config.Desktop, config.NewStore(dir), &fakeHost{})

	name, err := c.Toggle()
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if name != "browser" {
		t.Fatalf("Toggle = %q, want browser", name)
	}

	b, err := os.ReadFile(filepath.Join(dir, config.ConfigFile))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got := config.NewStore(dir).Load().Mode; got != config.Browser {
		t.Fatalf("reloaded mode = %v (file %s), want Browser", got, b)
	}

	if name, _ := c.Toggle(); name != "desktop" {
		t.Fatalf("second Toggle = %q, want desktop", name)
	}
	if got := config.NewStore(dir).Load().Mode; got != config.Desktop {
		t.Fatalf("reloaded mode = %v, want Desktop", got)
	}
}

func TestToggle_PersistFailureStillSwitches(t *testing.T) {
	disk := errors.New("disk full")
	c := New(54231, config.Desktop, failingStore{err: disk}, &fakeHost{})

	name, err := c.Toggle()
	var pe *PersistError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *PersistError", err)
	}
	if !errors.Is(err, disk) {
		t.Fatalf("err = %v does not wrap the save error", err)
	}
	if name != "browser" || pe.Mode != config.Browser {
		t.Fatalf("name=%q pe.Mode=%v, want browser", name, pe.Mode)
	}
	// memory and disk now disagree until the next successful save
	if c.Mode() != config.Browser {
		t.Fatalf("in-memory mode = %v, want Browser", c.Mode())
	}
}

func TestToggle_PersistFailureOnRealStore(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := config.NewStore(blocker)
	c := New(54231, config.Desktop, store, &fakeHost{})

	if _, err := c.Toggle(); err == nil {
		t.Fatal("expected persistence error")
	}
	if c.Mode() != config.Browser {
		t.Fatalf("in-memory mode = %v, want Browser", c.Mode())
	}
	if got := store.Load().Mode; got != config.Desktop {
		t.Fatalf("persisted mode = %v, want Desktop", got)
	}
}

func TestToggle_ConcurrentWithRelaunch(t *testing.T) {
	h := &fakeHost{}
	c := New(54231, config.Desktop, config.NewStore(t.TempDir()), h)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := c.Toggle(); err != nil {
				t.Errorf("Toggle: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			_ = c.Relaunch()
		}()
	}
	wg.Wait()

	// an even number of flips lands back where it started
	if c.Mode() != config.Desktop {
		t.Fatalf("Mode = %v after %d toggles, want Desktop", c.Mode(), n)
	}
	windows, urls := h.calls()
	if windows+len(urls) != n {
		t.Fatalf("presentations = %d, want %d", windows+len(urls), n)
	}
}

func TestResolveMode(t *testing.T) {
	t.Run("persisted mode without flag", func(t *testing.T) {
		dir := t.TempDir()
		store := config.NewStore(dir)
		if err := store.Save(config.Config{Mode: config.Browser}); err != nil {
			t.Fatal(err)
		}
		mode, err := ResolveMode(store, false)
		if err != nil || mode != config.Browser {
			t.Fatalf("ResolveMode = %v, %v", mode, err)
		}
	})

	t.Run("fresh install defaults to desktop", func(t *testing.T) {
		mode, err := ResolveMode(config.NewStore(t.TempDir()), false)
		if err != nil || mode != config.Desktop {
			t.Fatalf("ResolveMode = %v, %v", mode, err)
		}
	})

	t.Run("flag forces and persists browser", func(t *testing.T) {
		dir := t.TempDir()
		mode, err := ResolveMode(config.NewStore(dir), true)
		if err != nil || mode != config.Browser {
			t.Fatalf("ResolveMode = %v, %v", mode, err)
		}
		if got := config.NewStore(dir).Load().Mode; got != config.Browser {
			t.Fatalf("persisted mode = %v, want Browser", got)
		}
	})

	t.Run("flag with failing store still resolves browser", func(t *testing.T) {
		mode, err := ResolveMode(failingStore{err: errors.New("read-only")}, true)
		var pe *PersistError
		if !errors.As(err, &pe) {
			t.Fatalf("err = %v, want *PersistError", err)
		}
		if mode != config.Browser {
			t.Fatalf("mode = %v, want Browser", mode)
		}
	})
}

// A plain launch with no saved state opens the native window.
func TestStartup_DesktopShowsWindow(t *testing.T) {
	store := config.NewStore(t.TempDir())
	mode, err := ResolveMode(store, false)
	if err != nil {
		t.Fatal(err)
	}
	h := &fakeHost{}
	if err := New(54231, mode, store, h).Present(); err != nil {
		t.Fatalf("Present: %v", err)
	}
	windows, urls := h.calls()
	if windows != 1 || len(urls) != 0 {
		t.Fatalf("windows=%d urls=%v, want a window and no browser", windows, urls)
	}
}

// --browser opens the backend address and remembers the choice.
func TestStartup_ForcedBrowserOpensAndPersists(t *testing.T) {
	dir := t.TempDir()
	store := config.NewStore(dir)
	mode, err := ResolveMode(store, true)
	if err != nil {
		t.Fatal(err)
	}
	h := &fakeHost{}
	if err := New(54231, mode, store, h).Present(); err != nil {
		t.Fatalf("Present: %v", err)
	}
	_, urls := h.calls()
	if len(urls) != 1 || urls[0] != "http://127.0.0.1:54231" {
		t.Fatalf("urls = %v", urls)
	}
	if got := config.NewStore(dir).Load().Mode; got != config.Browser {
		t.Fatalf("persisted mode = %v, want Browser", got)
	}
}

// The toggle command reports the new mode and writes it to disk.
func TestToggleCommand_DesktopToBrowser(t *testing.T) {
	dir := t.TempDir()
	c := New(54231, config.Desktop, config.NewStore(dir), &fakeHost{})
	name, err := c.Toggle()
	if err != nil || name != "browser" {
		t.Fatalf("Toggle = %q, %v", name, err)
	}
	b, err := os.ReadFile(filepath.Join(dir, config.ConfigFile))
	if err != nil {
		t.Fatal(err)
	}
	if !containsMode(b, "Browser") {
		t.Fatalf("config file %s does not record Browser", b)
	}
}

func TestRelaunch_UsesLiveMode(t *testing.T) {
	h := &fakeHost{}
	c := New(54231, config.Desktop, config.NewStore(t.TempDir()), h)
	if _, err := c.Toggle(); err != nil {
		t.Fatal(err)
	}
	if err := c.Relaunch(); err != nil {
		t.Fatalf("Relaunch: %v", err)
	}
	windows, urls := h.calls()
	if windows != 0 || len(urls) != 1 || urls[0] != "http://127.0.0.1:54231" {
		t.Fatalf("windows=%d urls=%v, want browser after toggle", windows, urls)
	}
}

func TestRelaunch_ReportsHostFailure(t *testing.T) {
	c := New(54231, config.Desktop, config.NewStore(t.TempDir()), &fakeHost{err: errors.New("no window")})
	var he *HostError
	if err := c.Relaunch(); !errors.As(err, &he) {
		t.Fatalf("Relaunch err = %v, want *HostError", err)
	}
	if c.Mode() != config.Desktop {
		t.Fatalf("mode changed by a failed presentation: %v", c.Mode())
	}
}

func containsMode(b []byte, name string) bool {
	var cfg struct {
		Mode string `json:"mode"`
	}
	return json.Unmarshal(b, &cfg) == nil && cfg.Mode == name
}
