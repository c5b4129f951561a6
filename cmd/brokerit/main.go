// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/poiesic/brokerit"
	"github.com/poiesic/brokerit/agent"
	"github.com/poiesic/brokerit/ai"
	"github.com/poiesic/brokerit/whatsapp"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "brokerit",
		Usage: "WhatsApp AI assistant for real estate brokerages",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the webhook gateway and response pipeline",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "host",
						Usage: "Gateway listen host",
					},
					&cli.IntFlag{
						Name:  "port",
						Usage: "Gateway listen port",
						Value: 8080,
					},
					&cli.StringFlag{
						Name:    "openai-api-key",
						Usage:   "OpenAI API key",
						EnvVars: []string{"OPENAI_API_KEY"},
					},
					&cli.StringFlag{
						Name:  "openai-host",
						Usage: "OpenAI-compatible API host URL",
					},
					&cli.StringFlag{
						Name:    "evolution-url",
						Usage:   "Evolution API base URL",
						EnvVars: []string{"EVOLUTION_API_URL"},
					},
					&cli.StringFlag{
						Name:    "evolution-api-key",
						Usage:   "Evolution API key",
						EnvVars: []string{"EVOLUTION_API_KEY"},
					},
					&cli.StringFlag{
						Name:    "evolution-instance",
						Usage:   "Evolution API instance name",
						EnvVars: []string{"EVOLUTION_INSTANCE_NAME"},
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of documents retrieved per query",
						Value: agent.DefaultTopK,
					},
					&cli.IntFlag{
						Name:  "history-limit",
						Usage: "Number of recent messages fetched for context",
						Value: agent.DefaultHistoryLimit,
					},
					&cli.DurationFlag{
						Name:  "call-timeout",
						Usage: "Timeout for each external call in the pipeline",
						Value: agent.DefaultCallTimeout,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Queue worker pool size (0 uses half the CPUs)",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts per queued message",
					},
					&cli.DurationFlag{
						Name:  "stale-after",
						Usage: "Age after which a stuck queue entry is re-queued",
					},
				},
			},
			{
				Name:   "seed",
				Usage:  "Populate the database with sample broker and property data",
				Action: seedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serveCommand(c *cli.Context) error {
	aiOpts := []ai.ConfigOption{ai.WithAPIKey(c.String("openai-api-key"))}
	if host := c.String("openai-host"); host != "" {
		aiOpts = append(aiOpts, ai.WithHost(host))
	}
	aiConfig := ai.NewConfig(aiOpts...)

	app, err := brokerit.NewApp(c.String("db"),
		brokerit.WithAIConfig(aiConfig),
		brokerit.WithEvolutionConfig(whatsapp.EvolutionConfig{
			BaseURL:  c.String("evolution-url"),
			APIKey:   c.String("evolution-api-key"),
			Instance: c.String("evolution-instance"),
		}),
		brokerit.WithAddr(c.String("host"), c.Int("port")),
		brokerit.WithTopK(c.Int("top-k")),
		brokerit.WithHistoryLimit(c.Int("history-limit")),
		brokerit.WithCallTimeout(c.Duration("call-timeout")),
		brokerit.WithPoolSize(c.Int("pool-size")),
		brokerit.WithMaxRetries(c.Int("max-retries")),
		brokerit.WithStaleAfter(c.Duration("stale-after")),
	)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.Run(ctx)
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
