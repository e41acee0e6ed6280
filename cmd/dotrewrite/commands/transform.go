package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"git.home.luguber.info/inful/dotrewrite/internal/config"
	derrors "git.home.luguber.info/inful/dotrewrite/internal/foundation/errors"
	"git.home.luguber.info/inful/dotrewrite/internal/logfields"
	"git.home.luguber.info/inful/dotrewrite/internal/metrics"
	"git.home.luguber.info/inful/dotrewrite/internal/pipeline"
	"git.home.luguber.info/inful/dotrewrite/internal/workspace"
)

const stdio = "-"

// TransformCmd implements the 'transform' command.
type TransformCmd struct {
	Input  string `arg:"" help:"Archive to transform, or - to read stdin"`
	Output string `short:"o" help:"Output path, or - for stdout. Stdout receives nothing unless the whole archive was built (default: derived name in the current directory)"`
	Name   string `help:"Original file name used to derive the output name when reading stdin" default:"archive.zip"`
}

func (t *TransformCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	res, out, err := RunTransform(ctx, cfg, t.Input, t.Output, t.Name, os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	if out != stdio {
		fmt.Printf("Wrote %s (%d entries, %d renamed)\n", out, res.Entries, res.Renamed)
	}
	return nil
}

// RunTransform rewrites input into output and returns the output path.
// The output is written to a temporary file next to it and renamed into
// place, so a failed run leaves no partial archive behind.
func RunTransform(ctx context.Context, cfg *config.Config, input, output, stdinName string, stdin io.Reader, stdout io.Writer) (pipeline.Result, string, error) {
	ws := workspace.NewManager("")
	if err := ws.Create(); err != nil {
		return pipeline.Result{}, "", err
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			slog.Warn("Failed to cleanup workspace", logfields.Error(err))
		}
	}()
	p := newPipeline(cfg, metrics.NoopRecorder{}, ws)

	var src io.Reader
	name := stdinName
	if input == stdio {
		src = stdin
	} else {
		f, err := os.Open(input) // #nosec G304 -- user-supplied CLI argument
		if err != nil {
			return pipeline.Result{}, "", derrors.WrapError(err, derrors.CategoryNotFound, "failed to open input archive").
				WithContext("path", input).
				Build()
		}
		defer func() { _ = f.Close() }()
		src = f
		name = filepath.Base(input)
	}

	if output == stdio {
		res, err := transformToStream(ctx, p, ws, src, name, stdout)
		return res, stdio, err
	}
	if output == "" {
		output = pipeline.DownloadName(name)
	}
	if input != stdio && sameFile(input, output) {
		return pipeline.Result{}, "", derrors.ValidationError("output would overwrite the input archive").
			WithContext("path", output).
			Build()
	}

	tmp, err := os.CreateTemp(filepath.Dir(output), "."+filepath.Base(output)+".*.partial")
	if err != nil {
		return pipeline.Result{}, "", derrors.WrapError(err, derrors.CategoryFileSystem, "failed to create output file").Build()
	}
	res, err := p.TransformArchive(ctx, src, name, tmp)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = derrors.WrapError(cerr, derrors.CategoryOutputWrite, "failed to close output file").Build()
	}
	if err == nil {
		if rerr := os.Rename(tmp.Name(), output); rerr != nil {
			err = derrors.WrapError(rerr, derrors.CategoryFileSystem, "failed to move output into place").Build()
		}
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return pipeline.Result{}, "", err
	}
	slog.Info("Archive transformed",
		logfields.File(name),
		logfields.OutputEntry(output),
		logfields.Entries(res.Entries),
		logfields.DurationMS(float64(res.Duration.Microseconds())/1000.0))
	return res, output, nil
}

// transformToStream builds the archive in the workspace first so a failed run
// writes nothing to dst.
func transformToStream(ctx context.Context, p *pipeline.Pipeline, ws *workspace.Manager, src io.Reader, name string, dst io.Writer) (pipeline.Result, error) {
	tmp, err := os.CreateTemp(ws.GetPath(), "output-*.zip")
	if err != nil {
		return pipeline.Result{}, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to create output file").Build()
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	res, err := p.TransformArchive(ctx, src, name, tmp)
	if err != nil {
		return pipeline.Result{}, err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return pipeline.Result{}, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to rewind output file").Build()
	}
	if _, err := io.Copy(dst, tmp); err != nil {
		return pipeline.Result{}, derrors.WrapError(err, derrors.CategoryOutputWrite, "failed to write archive to stdout").Build()
	}
	return res, nil
}

func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
