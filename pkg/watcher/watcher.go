// Package watcher polls a source tree for content changes and triggers
// debounced rebuilds through pkg/generator.
//
// No fsnotify-equivalent dependency exists anywhere in the retrieved
// example pack, so change detection is done by polling: walk the tree
// on a ticker, hash each file's content, and compare against the
// previous round's hashes. A real event-driven watch is left as future
// work if such a dependency ever shows up in the pack this module draws
// from.
package watcher

import (
	"context"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/kbrandt/sitecc/pkg/generator"
)

// DefaultPollInterval is used when Options.PollInterval is zero.
const DefaultPollInterval = 300 * time.Millisecond

// Options configures a watch session.
type Options struct {
	Source       string
	Output       string
	Ignore       []string
	PollInterval time.Duration

	// OnBuild, if set, is called after every build attempt (initial and
	// triggered) with its Report and error, for the caller to log.
	OnBuild func(generator.Report, error)
}

// Watcher polls Source for content changes and debounces rebuilds into
// Output. The zero value is not usable; construct with New.
type Watcher struct {
	opts Options

	mu           sync.Mutex
	isBuilding   bool
	needsRebuild bool
	lastTrigger  time.Time

	hashes map[string]uint64
}

// New returns a Watcher for the given options, applying DefaultPollInterval
// if PollInterval is unset.
func New(opts Options) *Watcher {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &Watcher{opts: opts, hashes: make(map[string]uint64)}
}

// Watch runs an initial build, then polls Source every PollInterval until
// ctx is cancelled. It returns nil on cancellation. Build errors are passed
// to OnBuild and do not stop the watch; the only error returned is one from
// the initial scan of Source.
func (w *Watcher) Watch(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if err := w.snapshotHashes(); err != nil {
		return err
	}
	w.mu.Lock()
	w.isBuilding = true
	w.lastTrigger = time.Now()
	w.mu.Unlock()
	w.runBuild(ctx, g)

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = g.Wait()
			return nil
		case <-ticker.C:
			changed, err := w.pollForChanges()
			if err != nil {
				continue
			}
			if changed {
				w.trigger(ctx, g)
			}
		}
	}
}

// trigger coalesces rebuilds: a single mutex guards {isBuilding,
// needsRebuild, lastTrigger}. If a build is already running, flag
// needsRebuild and return; the running build's completion will schedule
// another. Otherwise start one now. lastTrigger is recorded but not
// consulted: there is no time-window check between builds.
func (w *Watcher) trigger(ctx context.Context, g *errgroup.Group) {
	w.mu.Lock()
	if w.isBuilding {
		w.needsRebuild = true
		w.mu.Unlock()
		return
	}
	w.isBuilding = true
	w.lastTrigger = time.Now()
	w.mu.Unlock()

	w.runBuild(ctx, g)
}

// runBuild launches one generate() pass on a worker goroutine managed by
// an errgroup, and on completion checks whether another rebuild was
// requested while this one ran.
func (w *Watcher) runBuild(ctx context.Context, g *errgroup.Group) {
	g.Go(func() error {
		report, err := generator.Generate(ctx, generator.Options{
			Source: w.opts.Source,
			Output: w.opts.Output,
			Ignore: w.opts.Ignore,
		})
		if w.opts.OnBuild != nil {
			w.opts.OnBuild(report, err)
		}

		w.mu.Lock()
		again := w.needsRebuild
		w.needsRebuild = false
		w.isBuilding = again
		w.mu.Unlock()

		if again {
			w.runBuild(ctx, g)
		}
		return nil
	})
}

// pollForChanges walks Source, hashes every non-ignored, non-.go file,
// and reports whether any hash differs from the previous round's.
func (w *Watcher) pollForChanges() (bool, error) {
	current := make(map[string]uint64)
	sourceAbs, err := filepath.Abs(w.opts.Source)
	if err != nil {
		return false, err
	}
	outputAbs, err := filepath.Abs(w.opts.Output)
	if err != nil {
		return false, err
	}

	err = filepath.WalkDir(sourceAbs, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path == outputAbs || strings.HasPrefix(path, outputAbs+string(filepath.Separator)) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(sourceAbs, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if strings.EqualFold(filepath.Ext(rel), ".go") || w.isIgnored(rel) {
			return nil
		}

		h, err := hashFile(path)
		if err != nil {
			return nil
		}
		current[rel] = h
		return nil
	})
	if err != nil {
		return false, err
	}

	w.mu.Lock()
	changed := !sameHashes(w.hashes, current)
	w.hashes = current
	w.mu.Unlock()
	return changed, nil
}

func (w *Watcher) snapshotHashes() error {
	_, err := w.pollForChanges()
	return err
}

func (w *Watcher) isIgnored(rel string) bool {
	for _, pattern := range w.opts.Ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func sameHashes(a, b map[string]uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

func hashFile(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := fnv.New64a()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
