package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cjennings/adrenaline/internal/config"
	"github.com/cjennings/adrenaline/internal/term"
)

// newTestApp builds an application on a memory screen. The config
// path defaults to a nonexistent file in a temp dir, so tests never
// read a real user configuration.
func newTestApp(t *testing.T, opts Options) (*Application, *term.Memory) {
	t.Helper()

	mem := term.NewMemory(80, 24)
	opts.Screen = mem
	if opts.ConfigPath == "" {
		opts.ConfigPath = filepath.Join(t.TempDir(), "config.toml")
	}

	app, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(app.Shutdown)
	return app, mem
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestNewInitializesComponents(t *testing.T) {
	app, _ := newTestApp(t, Options{})

	if app.editor == nil {
		t.Error("expected editor to be initialized")
	}
	if app.scripts == nil {
		t.Error("expected script engine to be initialized")
	}
	if app.loop == nil {
		t.Error("expected status line loop to be initialized")
	}
	if app.tracker == nil {
		t.Error("expected vcs tracker to be initialized")
	}
	if app.Config().Interval != 0.5 {
		t.Errorf("expected default interval 0.5, got %v", app.Config().Interval)
	}
	if got := app.Loop().Interval(); got != 500*time.Millisecond {
		t.Errorf("expected loop interval 500ms, got %v", got)
	}
}

func TestNewAppliesConfigFile(t *testing.T) {
	path := writeConfig(t, `
interval = 1.0
enabled = false

[[fragment]]
kind = "static"
source = "ready"
`)
	app, _ := newTestApp(t, Options{ConfigPath: path})

	if app.Config().Enabled {
		t.Error("expected enabled=false from config")
	}
	if got := app.Loop().Interval(); got != time.Second {
		t.Errorf("expected loop interval 1s, got %v", got)
	}
	if got := app.Loop().Registry().Len(); got != 1 {
		t.Errorf("expected 1 fragment, got %d", got)
	}
}

func TestNewBrokenConfigKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "interval = ]")
	app, _ := newTestApp(t, Options{ConfigPath: path})

	if app.Config().Interval != 0.5 {
		t.Errorf("expected default config, got interval %v", app.Config().Interval)
	}
	if !strings.HasPrefix(app.notice, "config: ") {
		t.Errorf("expected startup notice, got %q", app.notice)
	}
}

func TestNewLogSettingsFromConfig(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "adrenaline.log")
	path := writeConfig(t, "log_file = '"+logPath+"'\nlog_level = 'debug'\n")
	app, _ := newTestApp(t, Options{ConfigPath: path})

	app.Logger().Debug("tracing %d", 7)

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "tracing 7") {
		t.Errorf("expected debug line in log file, got: %s", data)
	}
	if !strings.Contains(string(data), "adrenaline:") {
		t.Errorf("expected prefix in log file, got: %s", data)
	}
}

func TestLogFileOptionWinsOverConfig(t *testing.T) {
	optPath := filepath.Join(t.TempDir(), "opt.log")
	cfgPath := filepath.Join(t.TempDir(), "cfg.log")
	path := writeConfig(t, "log_file = '"+cfgPath+"'\n")
	app, _ := newTestApp(t, Options{ConfigPath: path, LogFile: optPath})

	app.Logger().Info("hello")

	data, err := os.ReadFile(optPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("expected message in option log file, got: %s", data)
	}
	if _, err := os.Stat(cfgPath); !errors.Is(err, os.ErrNotExist) {
		t.Error("expected config log file to stay untouched")
	}
}

func TestShutdownIdempotent(t *testing.T) {
	app, _ := newTestApp(t, Options{})

	app.Shutdown()
	app.Shutdown()
	app.Shutdown()
}

func TestRunQuit(t *testing.T) {
	app, mem := newTestApp(t, Options{})

	mem.PostKey(term.KeyCtrl, 'q')
	err := app.Run()
	if !errors.Is(err, ErrQuit) {
		t.Fatalf("Run = %v, expected ErrQuit", err)
	}
	if app.IsRunning() {
		t.Error("expected IsRunning false after Run returns")
	}

	// The loop was active, so the transient line holds the composed
	// default fragments.
	if got := mem.RowText(23); got != "[   1:1 ] *scratch*" {
		t.Errorf("echo row = %q", got)
	}

	app.Shutdown()
	if !mem.Finished() {
		t.Error("expected screen finalized by Shutdown")
	}
}

func TestRequestQuitStopsRunFromAnotherGoroutine(t *testing.T) {
	app, _ := newTestApp(t, Options{})

	done := make(chan error, 1)
	go func() { done <- app.Run() }()

	for !app.IsRunning() {
		time.Sleep(time.Millisecond)
	}
	app.RequestQuit()

	select {
	case err := <-done:
		if !errors.Is(err, ErrQuit) {
			t.Fatalf("Run = %v, expected ErrQuit", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after RequestQuit")
	}

	// Teardown only starts once the loop has exited.
	app.Shutdown()
	if app.Loop().Active() {
		t.Error("expected loop deactivated by Shutdown")
	}
}

func TestRunDisabledKeepsStatusBar(t *testing.T) {
	path := writeConfig(t, "enabled = false\n")
	app, mem := newTestApp(t, Options{ConfigPath: path})

	mem.PostKey(term.KeyCtrl, 'q')
	if err := app.Run(); !errors.Is(err, ErrQuit) {
		t.Fatalf("Run: %v", err)
	}

	if app.Loop().Active() {
		t.Error("expected loop idle with enabled=false")
	}
	if got := mem.RowText(22); !strings.Contains(got, "*scratch*") {
		t.Errorf("expected permanent bar on row 22, got %q", got)
	}
	if got := mem.RowText(23); got != "" {
		t.Errorf("expected empty echo row, got %q", got)
	}
}

func TestToggleKeyFlipsLoop(t *testing.T) {
	app, mem := newTestApp(t, Options{})

	mem.PostKey(term.KeyF2, 0)
	mem.PostKey(term.KeyCtrl, 'q')
	if err := app.Run(); !errors.Is(err, ErrQuit) {
		t.Fatalf("Run: %v", err)
	}

	if app.Loop().Active() {
		t.Error("expected loop toggled off")
	}
	if got := mem.RowText(22); !strings.Contains(got, "*scratch*") {
		t.Errorf("expected restored bar on row 22, got %q", got)
	}
}

func TestRunOpensInitialFiles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(file, []byte("hello\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	app, mem := newTestApp(t, Options{Files: []string{file}})

	mem.PostKey(term.KeyCtrl, 'q')
	if err := app.Run(); !errors.Is(err, ErrQuit) {
		t.Fatalf("Run: %v", err)
	}

	if got := app.Editor().Buffer().Name(); got != "notes.txt" {
		t.Errorf("buffer name = %q", got)
	}
	if got := mem.RowText(0); got != "hello" {
		t.Errorf("row 0 = %q", got)
	}
}

func TestReadOnlyOptionDiscardsEdits(t *testing.T) {
	app, mem := newTestApp(t, Options{ReadOnly: true})

	mem.PostKey(term.KeyRune, 'x')
	mem.PostKey(term.KeyCtrl, 'q')
	if err := app.Run(); !errors.Is(err, ErrQuit) {
		t.Fatalf("Run: %v", err)
	}

	if app.Editor().Buffer().Modified() {
		t.Error("expected read-only buffer to stay unmodified")
	}
}

func TestApplyConfigSwapsLoopState(t *testing.T) {
	app, mem := newTestApp(t, Options{})
	if err := mem.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}

	cfg := config.Default()
	cfg.Interval = 2.0
	cfg.Enabled = false
	cfg.Fragments = []config.Fragment{{Kind: config.KindStatic, Source: "hi"}}
	app.applyConfig(cfg)

	if got := app.Loop().Interval(); got != 2*time.Second {
		t.Errorf("expected interval 2s, got %v", got)
	}
	if got := app.Loop().Registry().Len(); got != 1 {
		t.Errorf("expected 1 fragment, got %d", got)
	}

	// Flipping enabled through a reload drives the loop state machine.
	cfg.Enabled = true
	app.applyConfig(cfg)
	if !app.Loop().Active() {
		t.Error("expected loop activated by reload")
	}
	if got := mem.RowText(23); got != "hi" {
		t.Errorf("echo row = %q", got)
	}
}

func TestConfigChangeArrivesThroughEventQueue(t *testing.T) {
	app, mem := newTestApp(t, Options{})
	if err := mem.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}

	cfg := config.Default()
	cfg.Interval = 3.0
	app.onConfigChange(cfg)

	ev := mem.PollEvent()
	if ev.Type != term.EventFunc || ev.Fn == nil {
		t.Fatalf("expected func event, got %+v", ev)
	}
	ev.Fn()

	if got := app.Loop().Interval(); got != 3*time.Second {
		t.Errorf("expected interval 3s after reload, got %v", got)
	}
}

func TestConfigReloadErrorShowsOnEchoLine(t *testing.T) {
	app, mem := newTestApp(t, Options{})
	if err := mem.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}

	app.onConfigError(errors.New("boom"))

	ev := mem.PollEvent()
	if ev.Type != term.EventFunc || ev.Fn == nil {
		t.Fatalf("expected func event, got %+v", ev)
	}
	ev.Fn()

	if got := mem.RowText(23); got != "config: boom" {
		t.Errorf("echo row = %q", got)
	}
	if !app.Editor().TransientOccupied() {
		t.Error("expected reload error to block render ticks")
	}
}

func TestInitError(t *testing.T) {
	cause := errors.New("no tty")
	err := &InitError{Component: "screen", Err: cause}

	if got := err.Error(); got != "init screen: no tty" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
}
