// Package watch ingests files dropped into a directory.
//
// A Watcher listens for create and write events with fsnotify, waits until a
// file has been quiet for the debounce interval and then hands it to the
// import service. Failures are logged and reported; the watcher keeps running
// until its context ends.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragindex/internal/core/domain"
	"github.com/custodia-labs/ragindex/internal/core/ports/driving"
	"github.com/custodia-labs/ragindex/internal/logger"
)

// DefaultDebounce is how long a file must be quiet before it is imported.
const DefaultDebounce = 1500 * time.Millisecond

// Result describes one import attempt.
type Result struct {
	Path     string
	Document *domain.Document
	Err      error
}

// Config configures a Watcher.
type Config struct {
	// Dir is the watched directory. Subdirectories are not watched.
	Dir string

	// UploadedBy and ProjectID are passed to every import.
	UploadedBy string
	ProjectID  int

	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration

	// ImportExisting also imports supported files already in Dir at start.
	ImportExisting bool

	// Report, when set, is called after every import attempt.
	Report func(Result)
}

// Watcher imports files as they appear in a directory.
type Watcher struct {
	importer driving.ImportService
	cfg      Config
	fsw      *fsnotify.Watcher

	mu     sync.Mutex
	timers map[string]*time.Timer
	wg     sync.WaitGroup
}

// New starts watching cfg.Dir. Events are only processed once Run is called.
func New(importer driving.ImportService, cfg Config) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("%w: watch directory is required", domain.ErrInvalidInput)
	}
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, cfg.Dir)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(cfg.Dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", cfg.Dir, err)
	}

	return &Watcher{
		importer: importer,
		cfg:      cfg,
		fsw:      fsw,
		timers:   make(map[string]*time.Timer),
	}, nil
}

// Run processes events until ctx is cancelled. Pending imports are dropped
// and running ones are waited for before it returns.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	if w.cfg.ImportExisting {
		if err := w.scheduleExisting(ctx); err != nil {
			logger.Warn("watch: scanning %s: %v", w.cfg.Dir, err)
		}
	}

	logger.Info("watch: watching %s", w.cfg.Dir)
	for {
		select {
		case <-ctx.Done():
			w.stop()
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				w.stop()
				return nil
			}
			if w.shouldImport(event) {
				w.schedule(ctx, event.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				w.stop()
				return nil
			}
			logger.Warn("watch: %v", err)
		}
	}
}

// shouldImport accepts create and write events for visible regular files
// with a supported extension.
func (w *Watcher) shouldImport(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	if isHidden(event.Name) || !w.importer.Supports(event.Name) {
		return false
	}
	info, err := os.Stat(event.Name)
	return err == nil && info.Mode().IsRegular()
}

func (w *Watcher) scheduleExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		path := filepath.Join(w.cfg.Dir, e.Name())
		if e.Type().IsRegular() && !isHidden(path) && w.importer.Supports(path) {
			w.schedule(ctx, path)
		}
	}
	return nil
}

// schedule (re)starts the quiet-period timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok && t.Stop() {
		t.Reset(w.cfg.Debounce)
		return
	}

	w.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.cfg.Debounce, func() {
		defer w.wg.Done()

		w.mu.Lock()
		if w.timers[path] == t {
			delete(w.timers, path)
		}
		w.mu.Unlock()

		w.importFile(ctx, path)
	})
	w.timers[path] = t
}

func (w *Watcher) importFile(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}

	doc, err := w.importer.ImportFile(ctx, path, w.cfg.UploadedBy, w.cfg.ProjectID)
	switch {
	case err == nil:
		logger.Info("watch: imported %s as %s (%d chunks)", filepath.Base(path), doc.ID, len(doc.ChunkIDs))
	case errors.Is(err, os.ErrNotExist):
		logger.Debug("watch: %s vanished before import", path)
	default:
		logger.Error("watch: importing %s: %v", path, err)
	}

	if w.cfg.Report != nil {
		w.cfg.Report(Result{Path: path, Document: doc, Err: err})
	}
}

func (w *Watcher) stop() {
	w.mu.Lock()
	for path, t := range w.timers {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.timers, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

// isHidden reports whether the file name starts with a dot.
func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
