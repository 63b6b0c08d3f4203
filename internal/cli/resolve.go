package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ewholloway/slackline/internal/directory"
)

// ResolveCommand returns a command that classifies a conversation name or
// resolves a user ID against the workspace directory.
func ResolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Resolve a conversation name (or a user ID with --user) to its Slack identifier",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "user",
				Usage: "Treat the argument as a user ID and resolve its display name",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Refresh the directory before resolving",
			},
		},
		Action: resolveAction,
	}
}

func resolveAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected exactly one name, got %d", ctx.NArg())
	}
	name := ctx.Args().First()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	_, dir, _ := buildDirectory(cfg, getLogger(ctx))

	if ctx.Bool("user") {
		display, ok := dir.UserName(ctx.Context, name, ctx.Bool("force"))
		if !ok {
			return fmt.Errorf("unknown user %s", name)
		}
		fmt.Println(display)
		return nil
	}

	cls := dir.Classify(ctx.Context, name)
	if cls.Kind == directory.KindDirectMessage {
		fmt.Printf("%s: %s\n", name, cls.Kind)
		return nil
	}
	fmt.Printf("%s: %s %s\n", name, cls.Kind, cls.ID)
	return nil
}
