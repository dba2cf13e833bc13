// submodule cmd contains command definitions
package main

import (
	"context"

	"github.com/desertthunder/wardrobe/internal/models"
	"github.com/urfave/cli/v3"
)

// newApp builds the root command. A fresh tree is built per run.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "wardrobe",
		Usage:   "Browse and manage your digital wardrobe",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("WARDROBE_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file with WARDROBE_* overrides",
				Value: ".env",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, r.configure(ctx, cmd)
		},
		Commands: r.register(),
	}
}

// setupCommand handles setup operations for the database and configuration file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize the session database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write a configuration file with the default values",
				Action: r.SetupConfig,
			},
		},
	}
}

// authCommand handles the stored session
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the signed-in account",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with LINE in the browser",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: loginTimeout,
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the login URL instead of opening a browser",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "status",
				Usage: "Show the stored session",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "check",
						Usage: "Resolve the session through the identity provider",
					},
				},
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored session and token",
				Action: r.AuthLogout,
			},
			{
				Name:  "use",
				Usage: "Store a session for a user id without LINE Login",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "user-id"},
					&cli.StringArg{Name: "name"},
				},
				Action: r.AuthUse,
			},
		},
	}
}

// boardCommands returns list/upload/delete for one board.
func boardCommands(r *Runner, kind models.PageKind) []*cli.Command {
	listFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, json, yaml or csv",
			Value:   "text",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the listing to a file instead of stdout",
		},
	}
	uploadFlags := []cli.Flag{}

	if kind == models.PageMain {
		category := &cli.StringFlag{
			Name:  "category",
			Usage: "Category: top, bottom, skirt, dress or shoes",
		}
		listFlags = append(listFlags, category)
		uploadFlags = append(uploadFlags, &cli.StringFlag{
			Name:     "category",
			Usage:    "Category for the uploaded images",
			Required: true,
		})
	}

	return []*cli.Command{
		{
			Name:    "list",
			Aliases: []string{"ls"},
			Usage:   "List the board grouped by category",
			Flags:   listFlags,
			Action:  r.BoardList(kind),
		},
		{
			Name:      "upload",
			Usage:     "Upload one or more images",
			ArgsUsage: "<file>...",
			Flags:     uploadFlags,
			Action:    r.BoardUpload(kind),
		},
		{
			Name:      "delete",
			Aliases:   []string{"rm"},
			Usage:     "Delete items by path",
			ArgsUsage: "<path>...",
			Action:    r.BoardDelete(kind),
		},
	}
}

// wardrobeCommand handles the main board
func wardrobeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "wardrobe",
		Aliases:  []string{"w"},
		Usage:    "My Wardrobe board",
		Commands: boardCommands(r, models.PageMain),
	}
}

// wannabeCommand handles the wannabe board
func wannabeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "wannabe",
		Usage:    "Who I Want To Be board",
		Commands: boardCommands(r, models.PageWannabe),
	}
}

// historyCommand lists recent uploads from the local upload log.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent uploads for the signed-in account",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of uploads to show",
				Value: 20,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, yaml or csv",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:  "batch",
				Usage: "Show a single upload batch",
			},
		},
		Action: r.History,
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive board",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "board",
				Usage: "Board to open: wardrobe or wannabe",
				Value: "wardrobe",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "File that receives logs while the TUI runs",
				Value: "./tmp/wardrobe-tui.log",
			},
		},
		Action: r.TUI,
	}
}

// serveCommand starts the web pages.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the boards as web pages",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (defaults to server.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (defaults to server.port)",
			},
		},
		Action: r.Serve,
	}
}
