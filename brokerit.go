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

package brokerit

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/brokerit/agent"
	"github.com/poiesic/brokerit/ai"
	"github.com/poiesic/brokerit/ai/openai"
	"github.com/poiesic/brokerit/gateway"
	"github.com/poiesic/brokerit/ingestion"
	"github.com/poiesic/brokerit/queue"
	"github.com/poiesic/brokerit/storage/badger"
	"github.com/poiesic/brokerit/whatsapp"
)

// ErrChannelRequired is returned when no WhatsApp channel is configured or
// injected.
var ErrChannelRequired = errors.New("whatsapp channel configuration required")

// App wires storage, the AI provider, the WhatsApp channel, the response
// pipeline, the queue worker and the HTTP gateway into one runnable unit.
type App struct {
	repos      *badger.Repositories
	provider   ai.AIProvider
	channel    whatsapp.Client
	pipeline   *ingestion.Pipeline
	worker     *queue.Worker
	reconciler *queue.Reconciler
	server     *gateway.Server
	logger     *slog.Logger
}

// AppOption configures an App.
type AppOption func(*appOptions)

type appOptions struct {
	aiConfig        *ai.Config
	provider        ai.AIProvider
	channel         whatsapp.Client
	evolutionConfig *whatsapp.EvolutionConfig
	host            string
	port            int
	topK            int
	historyLimit    int
	callTimeout     time.Duration
	poolSize        int
	maxRetries      int
	staleAfter      time.Duration
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(config *ai.Config) AppOption {
	return func(o *appOptions) { o.aiConfig = config }
}

// WithProvider injects an AI provider, bypassing the OpenAI one. Used by
// tests.
func WithProvider(provider ai.AIProvider) AppOption {
	return func(o *appOptions) { o.provider = provider }
}

// WithEvolutionConfig sets the Evolution API configuration for the WhatsApp
// channel.
func WithEvolutionConfig(config whatsapp.EvolutionConfig) AppOption {
	return func(o *appOptions) { o.evolutionConfig = &config }
}

// WithChannel injects a WhatsApp client, bypassing the Evolution one. Used
// by tests.
func WithChannel(channel whatsapp.Client) AppOption {
	return func(o *appOptions) { o.channel = channel }
}

// WithAddr sets the gateway listen host and port.
func WithAddr(host string, port int) AppOption {
	return func(o *appOptions) {
		o.host = host
		o.port = port
	}
}

// WithTopK sets how many documents retrieval returns per query.
func WithTopK(topK int) AppOption {
	return func(o *appOptions) { o.topK = topK }
}

// WithHistoryLimit sets how many recent messages are fetched for context.
func WithHistoryLimit(limit int) AppOption {
	return func(o *appOptions) { o.historyLimit = limit }
}

// WithCallTimeout bounds each external call made by the pipeline.
func WithCallTimeout(timeout time.Duration) AppOption {
	return func(o *appOptions) { o.callTimeout = timeout }
}

// WithPoolSize sets the queue worker pool size.
func WithPoolSize(size int) AppOption {
	return func(o *appOptions) { o.poolSize = size }
}

// WithMaxRetries sets how many attempts a queue entry gets.
func WithMaxRetries(maxRetries int) AppOption {
	return func(o *appOptions) { o.maxRetries = maxRetries }
}

// WithStaleAfter sets how long a claimed queue entry may run before the
// reconciler returns it to pending.
func WithStaleAfter(staleAfter time.Duration) AppOption {
	return func(o *appOptions) { o.staleAfter = staleAfter }
}

// NewApp opens storage at filePath and assembles the full service.
func NewApp(filePath string, opts ...AppOption) (*App, error) {
	options := &appOptions{
		aiConfig: ai.DefaultConfig(),
		topK:     agent.DefaultTopK,
	}
	for _, opt := range opts {
		opt(options)
	}

	repos, err := badger.OpenRepositories(filePath, filePath == "")
	if err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			repos.Close()
			return nil, err
		}
	}

	channel := options.channel
	if channel == nil {
		if options.evolutionConfig == nil {
			repos.Close()
			provider.Close()
			return nil, ErrChannelRequired
		}
		channel, err = whatsapp.NewEvolutionClient(*options.evolutionConfig)
		if err != nil {
			repos.Close()
			provider.Close()
			return nil, err
		}
	}

	app := &App{
		repos:    repos,
		provider: provider,
		channel:  channel,
		logger:   slog.Default().With("component", "app"),
	}

	normalizer := agent.NewNormalizer(repos.Messages, provider.Transcriber(), provider.VisionAnalyzer())
	retriever := agent.NewRetriever(repos.Documents, options.topK)

	var agentOpts []agent.Option
	if options.historyLimit > 0 {
		agentOpts = append(agentOpts, agent.WithHistoryLimit(options.historyLimit))
	}
	if options.callTimeout > 0 {
		agentOpts = append(agentOpts, agent.WithCallTimeout(options.callTimeout))
	}
	orchestrator, err := agent.NewOrchestrator(
		repos.Conversations,
		repos.Messages,
		repos.Interactions,
		normalizer,
		retriever,
		provider.Embedder(),
		provider.Responder(),
		channel,
		agentOpts...,
	)
	if err != nil {
		app.Close()
		return nil, err
	}

	var workerOpts []queue.Option
	if options.poolSize > 0 {
		workerOpts = append(workerOpts, queue.WithPoolSize(options.poolSize))
	}
	if options.maxRetries > 0 {
		workerOpts = append(workerOpts, queue.WithMaxRetries(options.maxRetries))
	}
	worker, err := queue.NewWorker(repos.Queue, orchestrator, workerOpts...)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.worker = worker

	var reconcilerOpts []queue.ReconcilerOption
	if options.staleAfter > 0 {
		reconcilerOpts = append(reconcilerOpts, queue.WithStaleAfter(options.staleAfter))
	}
	reconciler, err := queue.NewReconciler(repos.Queue, reconcilerOpts...)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.reconciler = reconciler

	pipeline, err := ingestion.NewPipeline(repos.Documents, provider.Embedder())
	if err != nil {
		app.Close()
		return nil, err
	}
	app.pipeline = pipeline

	var gatewayOpts []gateway.Option
	if options.port > 0 {
		gatewayOpts = append(gatewayOpts, gateway.WithAddr(options.host, options.port))
	}
	server, err := gateway.NewServer(repos.Brokers, repos.Conversations, repos.Messages, repos.Queue, pipeline, gatewayOpts...)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.server = server

	return app, nil
}

// Repositories exposes the underlying repository set.
func (a *App) Repositories() *badger.Repositories {
	return a.repos
}

// Pipeline exposes the document ingestion pipeline.
func (a *App) Pipeline() *ingestion.Pipeline {
	return a.pipeline
}

// Handler exposes the gateway's HTTP handler, used by tests.
func (a *App) Handler() http.Handler {
	return a.server.Handler()
}

// Worker exposes the queue worker, used by tests.
func (a *App) Worker() *queue.Worker {
	return a.worker
}

// Run starts the queue worker, the reconciler and the HTTP gateway, then
// blocks until the context is cancelled. Any unprocessed documents left
// from a previous run are re-submitted for embedding first.
func (a *App) Run(ctx context.Context) error {
	if _, err := a.pipeline.Reprocess(ctx); err != nil {
		a.logger.Error("error reprocessing documents", "err", err)
	}

	if err := a.worker.Start(ctx); err != nil {
		return err
	}
	defer a.worker.Stop()

	if err := a.reconciler.Start(); err != nil {
		return err
	}
	defer a.reconciler.Stop()

	return a.server.Run(ctx)
}

// Close releases every component. The App should not be used afterwards.
func (a *App) Close() error {
	if a.worker != nil {
		a.worker.Stop()
	}
	if a.reconciler != nil {
		a.reconciler.Stop()
	}
	if a.pipeline != nil {
		a.pipeline.Release()
	}
	if err := a.provider.Close(); err != nil {
		a.logger.Error("error closing AI provider", "err", err)
	}
	return a.repos.Close()
}
