// Package app wires the editor, the status line and their supporting
// services into one runnable application and manages its lifecycle.
package app

import (
	"os"
	"sync"
	"sync/atomic"

	"github.com/cjennings/adrenaline/internal/config"
	"github.com/cjennings/adrenaline/internal/editor"
	"github.com/cjennings/adrenaline/internal/script"
	"github.com/cjennings/adrenaline/internal/statusline"
	"github.com/cjennings/adrenaline/internal/term"
	"github.com/cjennings/adrenaline/internal/vcs"
)

// Application is the central coordinator for all components. It owns
// the terminal screen and runs the event loop every other part of the
// system is marshaled onto.
type Application struct {
	opts Options

	logger  *Logger
	logFile *os.File

	cfgPath string
	cfg     config.Config

	screen   term.Screen
	screenUp atomic.Bool

	editor  *editor.Editor
	tracker *vcs.Tracker
	scripts *script.Engine
	loop    *statusline.Loop

	cfgWatcher  *config.Watcher
	headWatcher *vcs.HeadWatcher

	// notice is a bootstrap diagnostic shown on the echo line once
	// the screen is up.
	notice string

	running   atomic.Bool
	quitReq   atomic.Bool
	closeOnce sync.Once
}

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the configuration file. Empty means
	// the default location.
	ConfigPath string

	// LogFile overrides the configured log file.
	LogFile string

	// LogLevel overrides the configured log verbosity.
	LogLevel string

	// ReadOnly discards buffer edits.
	ReadOnly bool

	// Files are files to open on startup.
	Files []string

	// Screen is the terminal to run on. Nil means the real terminal;
	// tests inject a memory screen here.
	Screen term.Screen
}

// New creates a new Application with the given options. A partially
// built application is torn down before the error returns.
func New(opts Options) (*Application, error) {
	app := &Application{opts: opts}

	if err := app.bootstrap(); err != nil {
		app.Shutdown()
		return nil, err
	}

	return app, nil
}

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Logger
	app.logger = NewLogger(DefaultLoggerConfig())
	SetLogger(app.logger)

	// 2. Configuration. A broken file falls back to the defaults and
	// surfaces on the echo line rather than keeping the editor from
	// starting.
	app.cfgPath = app.opts.ConfigPath
	if app.cfgPath == "" {
		app.cfgPath = config.DefaultPath()
	}
	cfg, err := config.Load(app.cfgPath)
	if err != nil {
		app.logger.Warn("config: %v", err)
		app.notice = "config: " + err.Error()
	}
	app.cfg = cfg
	app.applyLogSettings()

	// 3. Screen
	if app.opts.Screen != nil {
		app.screen = app.opts.Screen
	} else {
		screen, err := term.NewTerminal()
		if err != nil {
			return &InitError{Component: "screen", Err: err}
		}
		app.screen = screen
	}

	// 4. Editor
	app.editor = editor.New(app.screen, editor.WithReadOnly(app.opts.ReadOnly))
	for _, file := range app.opts.Files {
		if err := app.editor.OpenFile(file); err != nil {
			// File open errors are non-fatal for startup.
			app.logger.Warn("open %s: %v", file, err)
		}
	}

	// 5. Version control. A bad [vcs] command only costs the branch
	// fragments.
	tracker, err := vcs.NewTracker(trackerConfig(app.cfg),
		vcs.WithLogger(app.logger.WithComponent("vcs")))
	if err != nil {
		app.logger.Warn("vcs: %v", err)
	} else {
		app.tracker = tracker
	}
	if app.tracker != nil && app.cfg.VCS.Watch {
		app.watchHead()
	}

	// 6. Script engine
	app.scripts, err = script.New(app.editor,
		script.WithBranches(app.branches()),
		script.WithWidth(app.editor.DisplayWidth),
	)
	if err != nil {
		return &InitError{Component: "script engine", Err: err}
	}

	// 7. Status line
	registry, err := app.buildRegistry(app.cfg)
	if err != nil {
		return &InitError{Component: "fragments", Err: err}
	}
	app.loop = statusline.NewLoop(app.editor, registry,
		statusline.WithInterval(app.cfg.TickInterval()),
		statusline.WithLoopLogger(app.logger.WithComponent("statusline")),
	)

	// 8. Configuration reload
	if app.cfgPath != "" {
		watcher, err := config.Watch(app.cfgPath, app.onConfigChange, app.onConfigError)
		if err != nil {
			app.logger.Warn("config watch: %v", err)
		} else {
			app.cfgWatcher = watcher
		}
	}

	return nil
}

// applyLogSettings points the logger at the configured sink and level.
// Command line options win over the configuration file.
func (app *Application) applyLogSettings() {
	level := app.cfg.LogLevel
	if app.opts.LogLevel != "" {
		level = app.opts.LogLevel
	}
	app.logger.SetLevel(ParseLogLevel(level))

	path := app.cfg.LogFile
	if app.opts.LogFile != "" {
		path = app.opts.LogFile
	}
	if path == "" {
		return
	}
	if app.logFile != nil && app.logFile.Name() == path {
		return
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		app.logger.Warn("open log file: %v", err)
		return
	}
	if app.logFile != nil {
		app.logFile.Close()
	}
	app.logFile = f
	app.logger.SetOutput(f)
}

// watchHead points a HEAD watcher at the repository around the working
// directory, so a branch switch shows up before the lookup cache
// expires.
func (app *Application) watchHead() {
	wd, err := os.Getwd()
	if err != nil {
		return
	}
	repo, ok := app.tracker.Lookup(wd)
	if !ok {
		return
	}
	watcher, err := vcs.WatchHead(repo.Root, func() {
		app.screen.PostFunc(app.refreshBranches)
	})
	if err != nil {
		app.logger.Warn("vcs watch: %v", err)
		return
	}
	app.headWatcher = watcher
	app.logger.Debug("watching HEAD of %s", repo.Root)
}

// Run initializes the screen and blocks in the event loop until quit
// is requested or the screen is torn down.
func (app *Application) Run() error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	if err := app.screen.Init(); err != nil {
		return &InitError{Component: "screen", Err: err}
	}
	app.screenUp.Store(true)

	app.editor.Render()
	if app.notice != "" {
		app.editor.Echo(app.notice)
		app.notice = ""
	}
	if app.cfg.Enabled {
		app.loop.Activate()
	}

	app.logger.Info("running, interval=%s", app.loop.Interval())
	return app.eventLoop()
}

// RequestQuit asks the event loop to exit as if the quit key had been
// pressed. Safe to call from any goroutine: it only sets a flag and
// posts a wake-up, so teardown itself stays on the loop's caller. The
// signal handler uses this instead of calling Shutdown directly, which
// would race the loop's own rendering.
func (app *Application) RequestQuit() {
	app.quitReq.Store(true)
	app.screen.PostFunc(func() {})
}

// eventLoop polls and dispatches terminal events. Everything that
// touches the editor or the status line runs here; background
// goroutines only hand work in through PostFunc.
func (app *Application) eventLoop() error {
	for {
		ev := app.screen.PollEvent()
		if app.quitReq.Load() {
			app.logger.Info("quit requested by signal")
			return ErrQuit
		}
		switch ev.Type {
		case term.EventNone:
			// The screen was finalized under us.
			return nil

		case term.EventKey:
			switch app.editor.HandleKey(ev) {
			case editor.ActionQuit:
				app.logger.Info("quit requested")
				return ErrQuit
			case editor.ActionToggleStatusline:
				app.loop.Toggle()
			}

		case term.EventResize:
			app.editor.Render()

		case term.EventFocus:
			app.editor.FocusChanged(ev.Focused)

		case term.EventFunc:
			if ev.Fn != nil {
				ev.Fn()
			}
		}
	}
}

// Shutdown releases every component in reverse initialization order.
// It is idempotent and works on a partially built application, but it
// must not run concurrently with the event loop: deactivating the
// status line and closing the editor render and mutate loop-owned
// state. Callers on other goroutines use RequestQuit and let Run
// return first.
func (app *Application) Shutdown() {
	app.closeOnce.Do(func() {
		if app.logger != nil {
			app.logger.Info("shutting down")
		}
		if app.cfgWatcher != nil {
			quietly(func() { app.cfgWatcher.Close() })
		}
		if app.loop != nil {
			quietly(app.loop.Deactivate)
		}
		if app.scripts != nil {
			quietly(func() { app.scripts.Close() })
		}
		if app.headWatcher != nil {
			quietly(func() { app.headWatcher.Close() })
		}
		if app.editor != nil {
			quietly(app.editor.Close)
		}
		if app.screenUp.CompareAndSwap(true, false) {
			quietly(app.screen.Fini)
		}
		if app.logFile != nil {
			quietly(func() { app.logFile.Close() })
		}
	})
}

// quietly runs fn and discards any panic, so one failing teardown step
// cannot abort the steps after it.
func quietly(fn func()) {
	defer func() { _ = recover() }()
	fn()
}

// IsRunning returns true if the event loop is running.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Config returns the active configuration.
func (app *Application) Config() config.Config {
	return app.cfg
}

// Logger returns the application's logger instance.
func (app *Application) Logger() *Logger {
	if app.logger == nil {
		return GetLogger()
	}
	return app.logger
}

// Editor returns the editor host.
func (app *Application) Editor() *editor.Editor {
	return app.editor
}

// Loop returns the status line render loop.
func (app *Application) Loop() *statusline.Loop {
	return app.loop
}

// InitError represents an initialization error.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}
