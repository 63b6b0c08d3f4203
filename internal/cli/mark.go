package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ewholloway/slackline/internal/marker"
)

// MarkCommand returns a command that pushes a read marker for a
// conversation at a given timestamp.
func MarkCommand() *cli.Command {
	return &cli.Command{
		Name:      "mark",
		Usage:     "Push a conversation's read marker to the given timestamp",
		ArgsUsage: "<channel> <ts>",
		Action:    markAction,
	}
}

func markAction(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return fmt.Errorf("expected <channel> <ts>, got %d arguments", ctx.NArg())
	}
	channel, ts := ctx.Args().Get(0), ctx.Args().Get(1)

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	log := getLogger(ctx)
	gw, dir, m := buildDirectory(cfg, log)
	rec := marker.NewReconciler(gw, dir, log, m)

	// A single-line viewport whose candidate is exactly the requested
	// timestamp.
	lines := []marker.Line{{Rows: 1, Timestamp: ts}}
	if err := rec.Reconcile(ctx.Context, channel, lines, 1); err != nil {
		return err
	}

	if pushed, ok := rec.LastPushed(channel); ok {
		fmt.Printf("marked %s at %s\n", channel, pushed)
	} else {
		fmt.Printf("nothing to mark for %s\n", channel)
	}
	return nil
}
