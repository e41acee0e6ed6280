// Package commands implements the dotrewrite subcommands.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/dotrewrite/internal/config"
	"git.home.luguber.info/inful/dotrewrite/internal/metrics"
	"git.home.luguber.info/inful/dotrewrite/internal/pipeline"
	"git.home.luguber.info/inful/dotrewrite/internal/rewrite"
)

// Global carries state shared by subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"dotrewrite.yaml" env:"DOTREWRITE_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve     ServeCmd     `cmd:"" help:"Run the upload/download HTTP service"`
	Transform TransformCmd `cmd:"" help:"Transform one archive from the command line"`
	Watch     WatchCmd     `cmd:"" help:"Transform archives dropped into an inbox directory"`
	Init      InitCmd      `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; sets up logging until a config is loaded.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// loadConfig reads the configuration file when present, otherwise defaults,
// and reconfigures logging from it.
func loadConfig(root *CLI) (*config.Config, error) {
	cfg, warnings, err := config.LoadOrDefault(root.Config)
	if err != nil {
		return nil, err
	}
	setupLogging(os.Stderr, cfg.Monitoring.Logging, root.Verbose)
	for _, w := range warnings {
		slog.Warn("Configuration normalized", slog.String("detail", w))
	}
	return cfg, nil
}

func setupLogging(w io.Writer, lc config.MonitoringLogging, verbose bool) {
	level := lc.Level.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if lc.Format == config.LogFormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
}

// newRewriter builds the reference rewriter described by cfg.
func newRewriter(cfg *config.Config) *rewrite.Rewriter {
	mode := rewrite.DirectoryLegacy
	if cfg.Rewrite.DirectoryMode == config.DirectoryModeExtensionAware {
		mode = rewrite.DirectoryExtensionAware
	}
	return rewrite.New(
		rewrite.WithExtensions(rewrite.NewExtensionSet(cfg.Rewrite.Extensions...)),
		rewrite.WithDirectoryMode(mode),
	)
}

// newPipeline builds an archive pipeline from cfg.
func newPipeline(cfg *config.Config, rec metrics.Recorder, spooler pipeline.Spooler) *pipeline.Pipeline {
	return pipeline.New(
		pipeline.WithRewriter(newRewriter(cfg)),
		pipeline.WithSkipExtensions(rewrite.NewExactExtensionSet(cfg.Rewrite.SkipExtensions...)),
		pipeline.WithMaxEntryBytes(cfg.Archive.EntryLimit()),
		pipeline.WithCompressionLevel(cfg.Archive.Level()),
		pipeline.WithRecorder(rec),
		pipeline.WithSpooler(spooler),
	)
}
