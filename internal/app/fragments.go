package app

import (
	"fmt"
	"strconv"

	"github.com/cjennings/adrenaline/internal/config"
	"github.com/cjennings/adrenaline/internal/statusline"
)

// branchProvider adapts the version-control tracker to the
// BranchProvider consumed by the producers and the script bindings.
// The indirection keeps producers valid across tracker rebuilds on
// configuration reload.
type branchProvider struct {
	app *Application
}

func (p branchProvider) BranchInfo(dir string) (statusline.Info, bool) {
	tracker := p.app.tracker
	if tracker == nil {
		return statusline.Info{}, false
	}
	repo, ok := tracker.Lookup(dir)
	if !ok {
		return statusline.Info{}, false
	}
	return statusline.Info{Project: repo.Project, Branch: repo.Branch}, true
}

// branches returns the BranchProvider view of the application.
func (app *Application) branches() statusline.BranchProvider {
	return branchProvider{app: app}
}

// buildRegistry turns the configured fragment list into a registry of
// producers bound to the editor. A lua chunk that fails to load
// becomes a producer reporting the load error, so the render loop
// surfaces it instead of the application refusing to start.
func (app *Application) buildRegistry(cfg config.Config) (*statusline.Registry, error) {
	registry := statusline.NewRegistry()
	for i, frag := range cfg.Fragments {
		producer, err := app.producerFor(frag, strconv.Itoa(i+1))
		if err != nil {
			return nil, fmt.Errorf("fragment %d: %w", i+1, err)
		}
		registry.Append(statusline.New(producer, descriptorOptions(frag)...))
	}
	return registry, nil
}

// producerFor builds the producer for one fragment. name labels lua
// fragments in diagnostics.
func (app *Application) producerFor(f config.Fragment, name string) (statusline.Producer, error) {
	switch f.Kind {
	case config.KindLineNumber:
		return statusline.LineNumber(app.editor), nil
	case config.KindColumnNumber:
		return statusline.ColumnNumber(app.editor), nil
	case config.KindBufferName:
		return statusline.BufferName(app.editor), nil
	case config.KindFileDirectory:
		return statusline.FileDirectory(app.editor), nil
	case config.KindModifiedStar:
		return statusline.ModifiedStar(app.editor), nil
	case config.KindMajorMode:
		return statusline.MajorMode(app.editor), nil
	case config.KindGitBranch:
		return statusline.GitBranch(app.editor, app.branches()), nil
	case config.KindGitProject:
		return statusline.GitProject(app.editor, app.branches()), nil
	case config.KindClock:
		return statusline.Clock(), nil
	case config.KindStatic:
		return statusline.Static(f.Source), nil
	case config.KindLua:
		producer, err := app.scripts.Compile(name, f.Source)
		if err != nil {
			return statusline.ProducerFunc(func() (string, error) {
				return "", err
			}), nil
		}
		return producer, nil
	default:
		return nil, fmt.Errorf("unknown fragment kind %q", f.Kind)
	}
}

// descriptorOptions maps the decoration fields of a fragment onto
// descriptor options.
func descriptorOptions(f config.Fragment) []statusline.Option {
	opts := []statusline.Option{statusline.WithPost(f.PostOr(" "))}
	if f.Pre != "" {
		opts = append(opts, statusline.WithPre(f.Pre))
	}
	if f.Format != "" {
		opts = append(opts, statusline.WithFormat(f.Format))
	}
	if f.Style != "" {
		opts = append(opts, statusline.WithStyle(statusline.Style(f.Style)))
	}
	if f.AlignRight() {
		opts = append(opts, statusline.AlignedRight())
	}
	return opts
}
