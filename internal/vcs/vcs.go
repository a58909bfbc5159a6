// Package vcs tracks the version-control context of directories: which
// repository they belong to, and what is checked out there. Lookups
// shell out to the configured command and are cached briefly, so a
// status line can ask every tick without forking git every tick.
package vcs

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kballard/go-shellquote"
)

// Errors returned by tracker construction.
var (
	// ErrEmptyCommand indicates the configured command parsed to
	// nothing.
	ErrEmptyCommand = errors.New("vcs: empty command")

	// ErrNotRepository indicates the path is not inside a repository.
	ErrNotRepository = errors.New("vcs: not a repository")
)

// DefaultCacheTTL is how long lookups are cached when the
// configuration does not say otherwise.
const DefaultCacheTTL = 2 * time.Second

// Repo describes the repository a directory belongs to.
type Repo struct {
	// Root is the repository root directory.
	Root string

	// Project is the repository name, the base name of Root.
	Project string

	// Branch is the checked-out branch, or the short commit hash when
	// HEAD is detached.
	Branch string

	// Detached indicates detached HEAD state.
	Detached bool
}

// Config configures a Tracker.
type Config struct {
	// Command is the version-control executable with any base
	// arguments, in shell quoting syntax. Defaults to "git".
	Command string

	// CacheTTL is how long lookup results stay fresh. Defaults to
	// DefaultCacheTTL.
	CacheTTL time.Duration
}

// Logger is the slice of the application logger the tracker uses.
type Logger interface {
	Debug(format string, args ...any)
}

// Tracker answers "what branch is checked out here" for arbitrary
// directories. Results, including negative ones, are cached per
// directory for the configured TTL.
//
// A Tracker is safe for concurrent use. The cache lock is not held
// while the command runs, so an Invalidate from the HEAD watcher never
// waits on a slow lookup.
type Tracker struct {
	argv   []string
	ttl    time.Duration
	logger Logger

	mu    sync.Mutex
	cache map[string]entry
}

type entry struct {
	repo Repo
	ok   bool
	at   time.Time
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithLogger attaches a debug logger to the tracker.
func WithLogger(lg Logger) TrackerOption {
	return func(t *Tracker) { t.logger = lg }
}

// NewTracker builds a tracker from the given configuration.
func NewTracker(cfg Config, opts ...TrackerOption) (*Tracker, error) {
	command := cfg.Command
	if command == "" {
		command = "git"
	}
	argv, err := shellquote.Split(command)
	if err != nil {
		return nil, fmt.Errorf("parse vcs command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	t := &Tracker{
		argv:  argv,
		ttl:   ttl,
		cache: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Lookup returns the repository context of the directory. ok is false
// for directories outside any repository and when the context cannot
// be determined; both answers are cached for the TTL.
func (t *Tracker) Lookup(dir string) (Repo, bool) {
	if dir == "" {
		return Repo{}, false
	}

	t.mu.Lock()
	if e, hit := t.cache[dir]; hit && time.Since(e.at) < t.ttl {
		t.mu.Unlock()
		return e.repo, e.ok
	}
	t.mu.Unlock()

	repo, ok := t.lookup(dir)

	t.mu.Lock()
	t.cache[dir] = entry{repo: repo, ok: ok, at: time.Now()}
	t.mu.Unlock()

	return repo, ok
}

// Invalidate drops every cached lookup. The HEAD watcher calls this on
// checkout so the next lookup sees the new branch.
func (t *Tracker) Invalidate() {
	t.mu.Lock()
	t.cache = make(map[string]entry)
	t.mu.Unlock()
}

func (t *Tracker) lookup(dir string) (Repo, bool) {
	root, ok := discover(dir)
	if !ok {
		return Repo{}, false
	}
	branch, detached, ok := t.branch(root)
	if !ok {
		return Repo{}, false
	}
	return Repo{
		Root:     root,
		Project:  filepath.Base(root),
		Branch:   branch,
		Detached: detached,
	}, true
}

// branch resolves what is checked out at root. The configured command
// is asked first; when it cannot run at all, HEAD is read directly so
// a missing executable only costs the detached short hash length.
func (t *Tracker) branch(root string) (name string, detached, ok bool) {
	out, err := t.run(root, "symbolic-ref", "--short", "HEAD")
	if err == nil && out != "" {
		return out, false, true
	}
	out, err = t.run(root, "rev-parse", "--short", "HEAD")
	if err == nil && out != "" {
		return out, true, true
	}
	if t.logger != nil {
		t.logger.Debug("vcs: %s lookup failed in %s: %v", t.argv[0], root, err)
	}
	return headFile(root)
}

// run executes the configured command with the given arguments in dir.
func (t *Tracker) run(dir string, args ...string) (string, error) {
	argv := append(append([]string{}, t.argv...), args...)
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("%s %s: %s", t.argv[0], strings.Join(args, " "), msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// discover walks up from dir looking for a .git entry and returns the
// repository root.
func discover(dir string) (string, bool) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	current := abs
	for {
		if _, err := os.Stat(filepath.Join(current, ".git")); err == nil {
			return current, true
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}

// headFile reads HEAD straight from the git directory. It covers
// hosts without the configured executable installed.
func headFile(root string) (string, bool, bool) {
	dir, ok := gitDir(root)
	if !ok {
		return "", false, false
	}
	content, err := os.ReadFile(filepath.Join(dir, "HEAD"))
	if err != nil {
		return "", false, false
	}
	line := strings.TrimSpace(string(content))
	if ref, found := strings.CutPrefix(line, "ref: "); found {
		return strings.TrimPrefix(ref, "refs/heads/"), false, true
	}
	if len(line) >= 7 {
		return line[:7], true, true
	}
	return "", false, false
}

// gitDir resolves the repository's git directory. A .git file instead
// of a directory marks a worktree and points at the real location.
func gitDir(root string) (string, bool) {
	path := filepath.Join(root, ".git")
	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}
	if info.IsDir() {
		return path, true
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	dir, found := strings.CutPrefix(strings.TrimSpace(string(content)), "gitdir: ")
	if !found {
		return "", false
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	return dir, true
}
