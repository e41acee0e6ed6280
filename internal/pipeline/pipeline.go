package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/dotrewrite/internal/archive"
	derrors "git.home.luguber.info/inful/dotrewrite/internal/foundation/errors"
	"git.home.luguber.info/inful/dotrewrite/internal/logfields"
	"git.home.luguber.info/inful/dotrewrite/internal/metrics"
	"git.home.luguber.info/inful/dotrewrite/internal/observability"
	"git.home.luguber.info/inful/dotrewrite/internal/rewrite"
	"git.home.luguber.info/inful/dotrewrite/internal/workspace"
)

// Result summarizes a successful run.
type Result struct {
	Entries      int
	Files        int
	Directories  int
	Verbatim     int // files copied without content rewriting
	Renamed      int // entries whose name changed
	BytesIn      int64
	BytesOut     int64
	Duration     time.Duration
	DownloadName string
}

// Spooler copies a non-seekable stream to a temporary file. release closes
// and removes the file.
type Spooler interface {
	Spool(r io.Reader) (f *os.File, size int64, release func() error, err error)
}

// Pipeline holds immutable run settings and is safe for concurrent use.
type Pipeline struct {
	rewriter      *rewrite.Rewriter
	skip          rewrite.ExtensionSet
	maxEntryBytes int64
	level         int
	recorder      metrics.Recorder
	spooler       Spooler
	observer      func(State)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRewriter sets the content and name rewriter.
func WithRewriter(r *rewrite.Rewriter) Option {
	return func(p *Pipeline) { p.rewriter = r }
}

// WithSkipExtensions sets the file extensions whose content is copied verbatim.
func WithSkipExtensions(exts rewrite.ExtensionSet) Option {
	return func(p *Pipeline) { p.skip = exts }
}

// WithMaxEntryBytes caps the size of any single entry. Zero disables the cap.
func WithMaxEntryBytes(n int64) Option {
	return func(p *Pipeline) { p.maxEntryBytes = n }
}

// WithCompressionLevel sets the deflate level for the output archive.
func WithCompressionLevel(level int) Option {
	return func(p *Pipeline) { p.level = level }
}

// WithRecorder injects a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithSpooler sets where non-seekable input is buffered.
func WithSpooler(s Spooler) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.spooler = s
		}
	}
}

// WithStateObserver registers fn to be called on every state transition.
func WithStateObserver(fn func(State)) Option {
	return func(p *Pipeline) { p.observer = fn }
}

// New returns a Pipeline with the default rewriter, deflate level 9 and no entry cap.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		rewriter: rewrite.New(),
		skip:     rewrite.NewExactExtensionSet(),
		level:    9,
		recorder: metrics.NoopRecorder{},
		spooler:  workspace.TempSpooler{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// TransformArchive consumes a complete archive stream and writes the rewritten
// archive to dst. originalName is the uploaded file name used to derive the
// download name. Inputs that are not seekable are spooled first; the spool
// file is removed on every exit path.
func (p *Pipeline) TransformArchive(ctx context.Context, src io.Reader, originalName string, dst io.Writer) (Result, error) {
	ra, size, release, err := p.seekable(src)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if rerr := release(); rerr != nil {
			observability.WarnContext(ctx, "Failed to release spooled input", logfields.Error(rerr))
		}
	}()

	res, err := p.Run(ctx, ra, size, dst)
	if err != nil {
		return Result{}, err
	}
	res.DownloadName = DownloadName(originalName)
	return res, nil
}

type sizedReaderAt interface {
	io.ReaderAt
	Size() int64
}

func (p *Pipeline) seekable(src io.Reader) (io.ReaderAt, int64, func() error, error) {
	noop := func() error { return nil }
	switch v := src.(type) {
	case sizedReaderAt:
		return v, v.Size(), noop, nil
	case *os.File:
		if info, err := v.Stat(); err == nil && info.Mode().IsRegular() {
			return v, info.Size(), noop, nil
		}
	}

	f, size, release, err := p.spooler.Spool(src)
	if err != nil {
		if derrors.IsClassified(err) {
			return nil, 0, nil, err
		}
		return nil, 0, nil, derrors.InputStreamError("failed to read archive stream").WithCause(err).Build()
	}
	return f, size, release, nil
}

// run carries the mutable state of one Run call.
type run struct {
	p     *Pipeline
	ctx   context.Context
	state State
	res   Result
}

func (r *run) transition(s State) {
	r.state = s
	r.ctx = observability.WithStage(r.ctx, s.String())
	if r.p.observer != nil {
		r.p.observer(s)
	}
}

// Run transforms the size-byte archive at src into dst.
// dst receives a complete archive only when Run returns nil.
func (p *Pipeline) Run(ctx context.Context, src io.ReaderAt, size int64, dst io.Writer) (res Result, err error) {
	start := time.Now()
	r := &run{p: p, ctx: ctx}
	r.transition(StateIdle)

	defer func() {
		if err != nil {
			r.transition(StateErrored)
			observability.WarnContext(r.ctx, "Archive transformation failed",
				logfields.Entries(r.res.Entries), logfields.Error(err))
			res = Result{}
		}
	}()

	r.transition(StateReading)
	reader, err := archive.NewReader(src, size, archive.WithMaxEntryBytes(p.maxEntryBytes))
	if err != nil {
		return Result{}, classifyRead(err, "")
	}
	defer func() { _ = reader.Close() }()

	writer := archive.NewWriter(dst, archive.WithCompressionLevel(p.level))

	for {
		if cerr := ctx.Err(); cerr != nil {
			return Result{}, derrors.WrapError(cerr, derrors.CategoryRuntime, "archive transformation canceled").Build()
		}
		r.transition(StateReading)
		entry, nerr := reader.Next()
		if errors.Is(nerr, io.EOF) {
			break
		}
		if nerr != nil {
			return Result{}, classifyRead(nerr, "")
		}
		if perr := r.process(entry, writer); perr != nil {
			return Result{}, perr
		}
	}

	r.transition(StateDraining)
	if cerr := reader.Close(); cerr != nil {
		return Result{}, classifyRead(cerr, "")
	}

	r.transition(StateFinalizing)
	if ferr := writer.Finalize(); ferr != nil {
		return Result{}, derrors.OutputWriteError("failed to finalize output archive").WithCause(ferr).Build()
	}

	r.transition(StateDone)
	r.res.Duration = time.Since(start)
	observability.DebugContext(r.ctx, "Archive transformed",
		logfields.Entries(r.res.Entries),
		logfields.Bytes(r.res.BytesOut),
		logfields.DurationMS(float64(r.res.Duration.Microseconds())/1000.0))
	return r.res, nil
}

func (r *run) process(entry *archive.Entry, w *archive.Writer) error {
	r.transition(StateClassifying)
	name := r.p.rewriter.EntryName(entry.Path, entry.IsDir())
	if name != entry.Path {
		r.res.Renamed++
	}
	if w.Contains(name) {
		observability.WarnContext(r.ctx, "Rewritten entry name collides with an earlier entry",
			logfields.Entry(entry.Path), logfields.OutputEntry(name))
	}

	r.transition(StateTransforming)
	if entry.IsDir() {
		if _, err := entry.Drain(); err != nil {
			return classifyRead(err, entry.Path)
		}
		r.transition(StateAppending)
		if err := w.AddDirectory(name, entry.Modified); err != nil {
			return classifyWrite(err, name)
		}
		r.res.Directories++
	} else {
		content, err := entry.ReadAll()
		if err != nil {
			return classifyRead(err, entry.Path)
		}
		out := content
		if r.p.skip.HasSuffix(entry.Path) {
			r.res.Verbatim++
		} else {
			out = r.p.rewriter.Rewrite(content)
		}
		r.transition(StateAppending)
		if err := w.AddFile(name, out, entry.Modified, entry.Mode); err != nil {
			return classifyWrite(err, name)
		}
		r.res.Files++
		r.res.BytesIn += int64(len(content))
		r.res.BytesOut += int64(len(out))
		r.p.recorder.AddContentBytes(metrics.DirectionIn, int64(len(content)))
		r.p.recorder.AddContentBytes(metrics.DirectionOut, int64(len(out)))
	}

	r.res.Entries++
	r.p.recorder.IncEntry(entry.Kind.String())
	if slog.Default().Enabled(r.ctx, slog.LevelDebug) {
		observability.DebugContext(r.ctx, "Entry rewritten",
			logfields.Entry(entry.Path),
			logfields.OutputEntry(name),
			logfields.EntryKind(entry.Kind.String()))
	}
	return nil
}

func classifyRead(err error, entry string) error {
	msg := "archive could not be decoded"
	if errors.Is(err, archive.ErrEntryTooLarge) {
		msg = "archive entry exceeds the size limit"
	}
	b := derrors.InputStreamError(msg).WithCause(err)
	if entry != "" {
		b = b.WithContext("entry", entry)
	}
	return b.Build()
}

func classifyWrite(err error, entry string) error {
	return derrors.OutputWriteError("failed to write output archive").
		WithCause(err).
		WithContext("entry", entry).
		Build()
}
