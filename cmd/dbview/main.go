package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/quantumsheep/dbview/drivers"
	"github.com/quantumsheep/dbview/view"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
)

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:        "dbview",
		Description: "Create, drop, list and synchronize database views",
		UsageText:   "dbview [global options] <command> [command options]",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a view",
				UsageText: "dbview create [options] <url> <alias> <query>",
				Action:    createAction,
				Flags: append(sharedFlags(),
					&cli.BoolFlag{
						Name:  "temporary",
						Usage: "Create a temporary view",
					},
					&cli.StringFlag{
						Name:  "database",
						Usage: "Database or schema the view is created in",
					},
				),
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "url", UsageText: "Database connection URL or path"},
					&cli.StringArg{Name: "alias", UsageText: "Name of the view"},
					&cli.StringArg{Name: "query", UsageText: "SELECT statement the view is defined by"},
				},
			},
			{
				Name:      "drop",
				Usage:     "Drop a view",
				UsageText: "dbview drop [options] <url> <alias>",
				Action:    dropAction,
				Flags: append(sharedFlags(),
					&cli.StringFlag{
						Name:  "database",
						Usage: "Database or schema the view is dropped from",
					},
				),
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "url", UsageText: "Database connection URL or path"},
					&cli.StringArg{Name: "alias", UsageText: "Name of the view"},
				},
			},
			{
				Name:      "list",
				Usage:     "List views",
				UsageText: "dbview list [options] <url>",
				Action:    listAction,
				Flags:     sharedFlags(),
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "url", UsageText: "Database connection URL or path"},
				},
			},
			{
				Name:      "diff",
				Usage:     "Print the statements that bring the target views in line with the source",
				UsageText: "dbview diff [options] <source> <target>",
				Action:    diffAction,
				Flags: append(sharedFlags(),
					&cli.BoolFlag{
						Name:  "apply",
						Usage: "Execute the statements on the target database",
					},
				),
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "source", UsageText: "Database connection URL or path for the source database"},
					&cli.StringArg{Name: "target", UsageText: "Database connection URL or path for the target database"},
				},
			},
		},
	}
}

func sharedFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "driver",
			Usage:   "Database driver to use. Supported drivers: sqlite3, postgres",
			Value:   "sqlite3",
			Sources: cli.EnvVars("DBVIEW_DRIVER"),
			Validator: func(s string) error {
				if slices.Contains([]string{"sqlite3", "postgres"}, s) {
					return nil
				}
				return fmt.Errorf("unsupported driver: %s", s)
			},
		},
		&cli.StringSliceFlag{
			Name:  "attach",
			Usage: "Attach a sqlite database as alias=path, can be repeated",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Usage:   "Log every executed statement",
			Sources: cli.EnvVars("DBVIEW_VERBOSE"),
		},
	}
}

func output(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func setupLogging(cmd *cli.Command) {
	level := slog.LevelInfo
	if cmd.Bool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func parseAttach(values []string) (map[string]string, error) {
	attach := make(map[string]string, len(values))
	for _, value := range values {
		alias, path, ok := strings.Cut(value, "=")
		if !ok || alias == "" || path == "" {
			return nil, fmt.Errorf("invalid attach %q, expected alias=path", value)
		}
		attach[alias] = path
	}
	return attach, nil
}

func openDriver(ctx context.Context, cmd *cli.Command, url string) (drivers.Driver, error) {
	if url == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	attach, err := parseAttach(cmd.StringSlice("attach"))
	if err != nil {
		return nil, err
	}

	switch driverFlag := cmd.String("driver"); driverFlag {
	case "sqlite3":
		driver, err := drivers.NewSQLiteDriver(ctx, &drivers.SQLiteDriverConfig{
			DatabasePath: url,
			Attach:       attach,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create sqlite3 driver: %w", err)
		}
		return driver, nil
	case "postgres":
		if len(attach) > 0 {
			return nil, fmt.Errorf("--attach is only supported by the sqlite3 driver")
		}
		driver, err := drivers.NewPostgresDriver(&drivers.PostgresDriverConfig{
			ConnectionString: url,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres driver: %w", err)
		}
		return driver, nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driverFlag)
	}
}

func createAction(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	alias := cmd.StringArg("alias")
	query := cmd.StringArg("query")
	if alias == "" || query == "" {
		return fmt.Errorf("alias and query are required")
	}

	driver, err := openDriver(ctx, cmd, cmd.StringArg("url"))
	if err != nil {
		return err
	}
	defer driver.Close()

	builder := view.New(driver.Conn())

	if database := cmd.String("database"); database != "" {
		err = builder.CreateViewIn(ctx, cmd.Bool("temporary"), database, alias, query)
	} else {
		err = builder.CreateView(ctx, cmd.Bool("temporary"), alias, query)
	}
	if err != nil {
		return fmt.Errorf("failed to create view: %w", err)
	}

	slog.Info("View created", "alias", alias)
	return nil
}

func dropAction(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	alias := cmd.StringArg("alias")
	if alias == "" {
		return fmt.Errorf("alias is required")
	}

	driver, err := openDriver(ctx, cmd, cmd.StringArg("url"))
	if err != nil {
		return err
	}
	defer driver.Close()

	builder := view.New(driver.Conn())

	if database := cmd.String("database"); database != "" {
		err = builder.DropViewIn(ctx, database, alias)
	} else {
		err = builder.DropView(ctx, alias)
	}
	if err != nil {
		return fmt.Errorf("failed to drop view: %w", err)
	}

	slog.Info("View dropped", "alias", alias)
	return nil
}

func listAction(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	driver, err := openDriver(ctx, cmd, cmd.StringArg("url"))
	if err != nil {
		return err
	}
	defer driver.Close()

	views, err := driver.GetViews(ctx)
	if err != nil {
		return fmt.Errorf("failed to list views: %w", err)
	}

	lines := lo.Map(views, func(v *drivers.View, _ int) string {
		return v.Qualified() + "\t" + v.Query
	})
	if len(lines) > 0 {
		fmt.Fprintln(output(cmd), strings.Join(lines, "\n"))
	}

	return nil
}

func diffAction(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	source, err := openDriver(ctx, cmd, cmd.StringArg("source"))
	if err != nil {
		return fmt.Errorf("source: %w", err)
	}
	defer source.Close()

	target, err := openDriver(ctx, cmd, cmd.StringArg("target"))
	if err != nil {
		return fmt.Errorf("target: %w", err)
	}
	defer target.Close()

	plan, err := drivers.DiffViews(ctx, source, target)
	if err != nil {
		return fmt.Errorf("failed to diff views: %w", err)
	}

	if len(plan) > 0 {
		fmt.Fprintln(output(cmd), plan)
	}

	if !cmd.Bool("apply") {
		return nil
	}

	if err := plan.Apply(ctx, view.New(target.Conn())); err != nil {
		return fmt.Errorf("failed to apply diff: %w", err)
	}

	slog.Info("Diff applied", "statements", len(plan))
	return nil
}
