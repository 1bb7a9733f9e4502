package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cnosuke/mcp-upstream/aggregator"
	"github.com/cnosuke/mcp-upstream/catalog"
	"github.com/cnosuke/mcp-upstream/config"
	"github.com/cnosuke/mcp-upstream/server"
	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	name     = "mcp-upstream"
	version  = "0.1.0"
	revision = "xxx"
)

func main() {
	app := &cli.App{
		Name:    name,
		Usage:   "Normalized access to unreliable upstream data APIs",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"CONFIG_PATH"},
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the MCP server on stdio",
				Action: func(c *cli.Context) error {
					cfg, err := setup(c)
					if err != nil {
						return err
					}
					defer func() { _ = zap.L().Sync() }()
					return server.Run(cfg, name, version, revision)
				},
			},
			{
				Name:      "query",
				Usage:     "Run one operation and print the result as JSON",
				ArgsUsage: "<trending|search|user_info|diagnose>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "keyword", Aliases: []string{"k"}, Usage: "search keyword"},
					&cli.IntFlag{Name: "count", Value: aggregator.DefaultSearchCount, Usage: "search result count"},
					&cli.StringFlag{Name: "unique-id", Aliases: []string{"u"}, Usage: "creator unique id"},
					&cli.StringFlag{Name: "api-key", EnvVars: []string{"UPSTREAM_API_KEY"}, Usage: "upstream API key"},
				},
				Action: query,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func setup(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if c.Bool("debug") {
		level = "debug"
	}
	if err := initLogger(level, cfg.Log.Path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// initLogger installs the global zap logger. Logs never go to stdout,
// which carries the MCP transport and query output.
func initLogger(level, path string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", level)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	if path != "" {
		zc.OutputPaths = []string{path}
		zc.ErrorOutputPaths = []string{path}
	}
	logger, err := zc.Build()
	if err != nil {
		return errors.Wrap(err, "failed to build logger")
	}
	zap.ReplaceGlobals(logger)
	return nil
}

func query(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}
	defer func() { _ = zap.L().Sync() }()

	svc, err := aggregator.NewHTTPService(cfg)
	if err != nil {
		return err
	}
	key, err := svc.Credential(c.String("api-key"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var result any
	switch op := c.Args().First(); op {
	case catalog.OpTrending:
		result, err = svc.Trending(ctx, key)
	case catalog.OpSearch:
		result, err = svc.Search(ctx, key, c.String("keyword"), c.Int("count"))
	case catalog.OpUserInfo:
		result, err = svc.UserInfo(ctx, key, c.String("unique-id"))
	case catalog.OpDiagnose:
		result, err = svc.Diagnose(ctx, key, c.String("keyword"))
	default:
		return errors.Newf("unknown operation %q", op)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(result)
}
