package main

import (
	"WordlistGrep/internal"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:      "wordgrep",
		Usage:     "Print the lines of wordlist files matching a regular expression",
		ArgsUsage: "FILE... ('-' for standard input)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "pattern",
				Aliases:  []string{"e"},
				Usage:    "Regular expression, or 're:<regex>', 'plain:<text>', 'plain:i:<text>'",
				Required: true,
			},
			&cli.BoolFlag{
				Name:    "line-number",
				Aliases: []string{"n"},
				Usage:   "Prefix each matched line with its 1-based line number",
			},
			&cli.StringFlag{
				Name:  "mmap",
				Usage: "Memory-mapping policy: auto, never, always",
				Value: "auto",
			},
			&cli.Int64Flag{
				Name:  "mmap-threshold",
				Usage: "With --mmap=auto, map files with at least this many unread bytes (0 = default; use --mmap=always to map every file)",
				Value: 1 << 20,
			},
			&cli.IntFlag{
				Name:  "buffer-size",
				Usage: "Read buffer size for buffered scanning",
				Value: 64 * 1024,
			},
			&cli.IntFlag{
				Name:  "threads",
				Usage: "Max files searched concurrently (default scales with CPU)",
				Value: 0,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Stop waiting for results after this long (e.g. 10s, 1m)",
			},
			&cli.StringFlag{
				Name:  "save-matches-file",
				Usage: "Append all matched lines into a single file",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "YAML file with defaults for the flags above",
			},
			&cli.StringFlag{
				Name:  "logfile",
				Usage: "Write logs into file instead of stderr",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
				Value: "warn",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func run(c *cli.Context) error {
	var cfg internal.FileConfig
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = internal.LoadConfig(path); err != nil {
			return cli.Exit(fmt.Sprintf("config: %v", err), 2)
		}
	}
	level := c.String("log-level")
	if cfg.LogLevel != nil && !c.IsSet("log-level") {
		level = *cfg.LogLevel
	}
	internal.InitLogger(c.String("logfile"), level)

	policy, err := internal.ParseMmapPolicy(c.String("mmap"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	opts := internal.RunOptions{
		Files:           c.Args().Slice(),
		Pattern:         c.String("pattern"),
		Threads:         c.Int("threads"),
		LineNumbers:     c.Bool("line-number"),
		Timeout:         c.Duration("timeout"),
		SaveMatchesFile: c.String("save-matches-file"),
		Engine: internal.Options{
			Mmap:          policy,
			MmapThreshold: c.Int64("mmap-threshold"),
			BufferSize:    c.Int("buffer-size"),
		},
	}
	if err := cfg.Apply(&opts, c.IsSet); err != nil {
		return cli.Exit(fmt.Sprintf("config: %v", err), 2)
	}
	if err := opts.Validate(); err != nil {
		return cli.Exit(err.Error(), 2)
	}
	opts.Prepare()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var stats internal.AppStats
	if err := internal.Grep(ctx, opts, internal.NewResultSink(os.Stdout, opts, &stats)); err != nil {
		switch {
		case errors.Is(err, internal.ErrInvalidPattern):
			return cli.Exit(err.Error(), 2)
		case ctx.Err() != nil, errors.Is(err, context.DeadlineExceeded):
			logrus.WithError(err).Warn("Search cancelled")
			return cli.Exit("search cancelled", 2)
		default:
			return cli.Exit(err.Error(), 2)
		}
	}

	logrus.WithFields(logrus.Fields{
		"files":   stats.FilesSearched.Load(),
		"matched": stats.FilesMatched.Load(),
		"matches": stats.Matches.Load(),
		"errors":  stats.Errors.Load(),
		"elapsed": stats.Elapsed(),
	}).Info("Search finished")

	switch {
	case stats.Errors.Load() > 0:
		return cli.Exit("", 2)
	case stats.Matches.Load() == 0:
		return cli.Exit("", 1)
	}
	return nil
}
