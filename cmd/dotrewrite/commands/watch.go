package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/dotrewrite/internal/inbox"
	"git.home.luguber.info/inful/dotrewrite/internal/metrics"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Inbox    string        `required:"" help:"Directory watched for *.zip archives"`
	Outbox   string        `required:"" help:"Directory receiving transformed archives"`
	Debounce time.Duration `default:"500ms" help:"Quiet period before a new archive is processed"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p := newPipeline(cfg, metrics.NoopRecorder{}, nil)
	watcher, err := inbox.New(w.Inbox, w.Outbox, p, inbox.WithDebounce(w.Debounce))
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}
