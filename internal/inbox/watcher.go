// Package inbox transforms archives dropped into a watched directory.
package inbox

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	derrors "git.home.luguber.info/inful/dotrewrite/internal/foundation/errors"
	"git.home.luguber.info/inful/dotrewrite/internal/logfields"
	"git.home.luguber.info/inful/dotrewrite/internal/metrics"
	"git.home.luguber.info/inful/dotrewrite/internal/pipeline"
)

const defaultDebounce = 500 * time.Millisecond

// Transformer rewrites one archive stream.
type Transformer interface {
	TransformArchive(ctx context.Context, src io.Reader, originalName string, dst io.Writer) (pipeline.Result, error)
}

// Watcher processes *.zip files appearing in an inbox directory and writes
// the results to an outbox directory. Inputs are deleted once transformed.
type Watcher struct {
	inbox    string
	outbox   string
	tf       Transformer
	debounce time.Duration
	recorder metrics.Recorder

	mu      sync.Mutex
	pending map[string]*time.Timer
	ready   chan string
	stop    chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long a file must stay quiet before it is processed.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithRecorder injects a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(w *Watcher) {
		if r != nil {
			w.recorder = r
		}
	}
}

// New creates a watcher. inbox and outbox must differ.
func New(inbox, outbox string, tf Transformer, opts ...Option) (*Watcher, error) {
	if inbox == "" || outbox == "" {
		return nil, derrors.ValidationError("inbox and outbox directories are required").Build()
	}
	in, err := filepath.Abs(inbox)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve inbox path: %w", err)
	}
	out, err := filepath.Abs(outbox)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve outbox path: %w", err)
	}
	if in == out {
		return nil, derrors.ValidationError("inbox and outbox must be different directories").
			WithContext("path", in).
			Build()
	}
	w := &Watcher{
		inbox:    in,
		outbox:   out,
		tf:       tf,
		debounce: defaultDebounce,
		recorder: metrics.NoopRecorder{},
		pending:  make(map[string]*time.Timer),
		ready:    make(chan string, 16),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches the inbox until ctx is done. Archives already present are
// processed first. Run may be called once.
func (w *Watcher) Run(ctx context.Context) error {
	for _, dir := range []string{w.inbox, w.outbox} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to create directory").
				WithContext("path", dir).
				Build()
		}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()
	defer close(w.stop)
	if err := fw.Add(w.inbox); err != nil {
		return fmt.Errorf("failed to watch inbox %s: %w", w.inbox, err)
	}

	slog.Info("Watching inbox", logfields.Path(w.inbox), slog.String("outbox", w.outbox))

	existing, err := os.ReadDir(w.inbox)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to list inbox").Build()
	}
	for _, e := range existing {
		if !e.IsDir() && isArchive(e.Name()) {
			w.schedule(filepath.Join(w.inbox, e.Name()))
		}
	}

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !isArchive(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				slog.Debug("Inbox change detected", logfields.File(ev.Name), slog.String("op", ev.Op.String()))
				w.schedule(ev.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Error("Inbox watcher error", logfields.Error(err))
		case path := <-w.ready:
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if err := w.ProcessFile(ctx, path); err != nil {
				slog.Error("Failed to transform inbox archive", logfields.File(path), logfields.Error(err))
			}
		}
	}
}

// schedule (re)starts the quiet-period timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		select {
		case w.ready <- path:
		case <-w.stop:
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

// ProcessFile transforms one inbox archive into the outbox. The output is
// written under a temporary name and renamed into place; on failure it is
// removed and the input is kept.
func (w *Watcher) ProcessFile(ctx context.Context, path string) error {
	start := time.Now()
	in, err := os.Open(path) // #nosec G304 -- path comes from the watched inbox
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to open inbox archive").Build()
	}
	defer func() { _ = in.Close() }()

	name := pipeline.DownloadName(filepath.Base(path))
	tmp, err := os.CreateTemp(w.outbox, "."+name+".*.partial")
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to create output file").Build()
	}
	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		w.recorder.ObserveJobDuration(time.Since(start))
		w.recorder.IncJobOutcome(metrics.OutcomeFailed)
		return err
	}

	res, err := w.tf.TransformArchive(ctx, in, filepath.Base(path), tmp)
	if err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(derrors.WrapError(err, derrors.CategoryOutputWrite, "failed to close output file").Build())
	}
	dst := filepath.Join(w.outbox, name)
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fail(derrors.WrapError(err, derrors.CategoryFileSystem, "failed to move output into outbox").Build())
	}
	_ = in.Close()
	if err := os.Remove(path); err != nil {
		slog.Warn("Failed to remove processed inbox archive", logfields.File(path), logfields.Error(err))
	}

	d := time.Since(start)
	w.recorder.ObserveJobDuration(d)
	w.recorder.IncJobOutcome(metrics.OutcomeCompleted)
	slog.Info("Transformed inbox archive",
		logfields.File(path),
		logfields.OutputEntry(dst),
		logfields.Entries(res.Entries),
		logfields.DurationMS(float64(d.Microseconds())/1000.0))
	return nil
}

func isArchive(name string) bool {
	base := filepath.Base(name)
	return !strings.HasPrefix(base, ".") && strings.EqualFold(filepath.Ext(base), ".zip")
}
