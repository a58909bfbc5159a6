package app

import (
	"github.com/cjennings/adrenaline/internal/config"
	"github.com/cjennings/adrenaline/internal/vcs"
)

// onConfigChange receives freshly loaded configurations from the
// watcher goroutine and marshals them onto the event loop.
func (app *Application) onConfigChange(cfg config.Config) {
	app.screen.PostFunc(func() { app.applyConfig(cfg) })
}

// onConfigError surfaces a failed reload. The previous configuration
// stays in effect.
func (app *Application) onConfigError(err error) {
	app.logger.Warn("config reload: %v", err)
	app.screen.PostFunc(func() {
		app.editor.Echo("config: " + err.Error())
	})
}

// applyConfig swaps in a new configuration. Runs on the event loop.
func (app *Application) applyConfig(cfg config.Config) {
	registry, err := app.buildRegistry(cfg)
	if err != nil {
		app.logger.Warn("config reload: %v", err)
		app.editor.Echo("config: " + err.Error())
		return
	}

	app.cfg = cfg
	app.applyLogSettings()
	app.rebuildTracker(cfg)
	app.loop.SetRegistry(registry)
	app.loop.SetInterval(cfg.TickInterval())
	if cfg.Enabled != app.loop.Active() {
		app.loop.Toggle()
	}
	app.logger.Info("configuration reloaded from %s", app.cfgPath)
}

// rebuildTracker rebuilds the branch tracker for new VCS settings,
// keeping the old one when the new command does not parse. Starting to
// watch HEAD can be enabled by a reload; an already running watcher is
// left alone.
func (app *Application) rebuildTracker(cfg config.Config) {
	tracker, err := vcs.NewTracker(trackerConfig(cfg),
		vcs.WithLogger(app.logger.WithComponent("vcs")))
	if err != nil {
		app.logger.Warn("vcs: %v", err)
		return
	}
	app.tracker = tracker
	if app.headWatcher == nil && cfg.VCS.Watch {
		app.watchHead()
	}
}

// trackerConfig maps the VCS section onto the tracker configuration.
func trackerConfig(cfg config.Config) vcs.Config {
	return vcs.Config{
		Command:  cfg.VCS.Command,
		CacheTTL: cfg.VCS.TTL(),
	}
}

// refreshBranches drops cached branch lookups and forces a render.
// The HEAD watcher posts this onto the event loop.
func (app *Application) refreshBranches() {
	if app.tracker != nil {
		app.tracker.Invalidate()
	}
	if app.loop != nil {
		app.loop.Tick()
	}
}
