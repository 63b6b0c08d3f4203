package cli

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/ewholloway/slackline/internal/history"
)

// HistoryCommand returns a command that prints a conversation's backlog,
// oldest first.
func HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:      "history",
		Usage:     "Fetch a conversation's recent backlog",
		ArgsUsage: "<channel>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "count",
				Usage: "Number of messages to fetch (defaults to the configured backlog)",
			},
		},
		Action: historyAction,
	}
}

func historyAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected exactly one channel, got %d", ctx.NArg())
	}
	channel := ctx.Args().First()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	log := getLogger(ctx)
	gw, dir, _ := buildDirectory(cfg, log)
	fetcher := history.NewFetcher(gw, dir, log)

	count := ctx.Int("count")
	if count <= 0 {
		count = cfg.History.Backlog
	}

	msgs, err := fetcher.FetchLog(ctx.Context, channel, count)
	if err != nil {
		if errors.Is(err, history.ErrUnimplemented) {
			return fmt.Errorf("%s is a direct-message target; no backlog available", channel)
		}
		return err
	}

	for _, m := range msgs {
		fmt.Printf("[%s] %s: %s\n", m.Timestamp, m.User, m.Text)
	}
	return nil
}
