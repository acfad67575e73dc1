package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/raido/internal"
	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/mcpserver"
	"github.com/starford/raido/internal/scaffold"
	pkgconfig "github.com/starford/raido/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func runBuild(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := internal.NewLogger(cfg)

	_, builder, err := internal.NewBuilder(cfg, logger, false)
	if err != nil {
		return err
	}
	rep, err := builder.Build(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("built %d post(s) (%d draft(s) skipped), %d page(s), %d tag(s) in %s\n",
		rep.Posts, rep.Drafts, rep.Pages, rep.Tags, rep.Duration.Round(time.Millisecond))
	return nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runNew(ctx context.Context, cmd *cli.Command) error {
	title := cmd.Args().First()
	if title == "" {
		return cli.Exit("usage: raido new <title>", 2)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := internal.NewLogger(cfg)

	store, _, err := internal.NewBuilder(cfg, logger, false)
	if err != nil {
		return err
	}

	filename, content, err := scaffold.NewPost(title, cfg.Site.Author, time.Now())
	if err != nil {
		return err
	}
	if _, err := store.Read(filename); err == nil {
		return cli.Exit(fmt.Sprintf("%s: %v", filename, apperr.ErrAlreadyExists), 1)
	}
	if err := store.Write(filename, content); err != nil {
		return err
	}
	fmt.Printf("created draft: %s\n", filename)
	return nil
}

func runCheck(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := internal.NewLogger(cfg)

	_, builder, err := internal.NewBuilder(cfg, logger, false)
	if err != nil {
		return err
	}
	issues, err := builder.Check()
	if err != nil {
		return err
	}
	if len(issues) > 0 {
		for _, is := range issues {
			fmt.Printf("%s: %s\n", is.Path, is.Message)
		}
		return cli.Exit(fmt.Sprintf("%d content issue(s)", len(issues)), 1)
	}
	fmt.Println("content is clean")
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := internal.NewLogger(cfg)

	store, _, err := internal.NewBuilder(cfg, logger, false)
	if err != nil {
		return err
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	return mcpserver.New(store, db, cfg.Site.Author).ServeStdio()
}

func main() {
	cmd := &cli.Command{
		Name:  "raido",
		Usage: "Markdown blog engine: static site generation with live-reload preview, content index, and MCP tooling",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "raido.yaml",
				Value:       "raido.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Render the content directory into a static site",
				Action: runBuild,
			},
			{
				Name:   "serve",
				Usage:  "Build, watch, and serve the site with live reload",
				Action: runServe,
			},
			{
				Name:      "new",
				Usage:     "Scaffold a new draft post",
				ArgsUsage: "<title>",
				Action:    runNew,
			},
			{
				Name:   "check",
				Usage:  "Lint the content set: slugs, datetimes, required fields",
				Action: runCheck,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the content set over MCP (stdio)",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
