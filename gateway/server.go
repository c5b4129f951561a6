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

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/brokerit/ingestion"
	"github.com/poiesic/brokerit/storage"
)

// DefaultPort is the port the gateway listens on when none is configured.
const DefaultPort = 8080

// Server is the HTTP gateway. It terminates provider webhooks and the
// document upload API.
type Server struct {
	brokers       storage.BrokerRepository
	conversations storage.ConversationRepository
	messages      storage.MessageRepository
	queue         storage.QueueRepository
	pipeline      *ingestion.Pipeline
	engine        *gin.Engine
	host          string
	port          int
	logger        *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithAddr sets the listen host and port.
func WithAddr(host string, port int) Option {
	return func(s *Server) error {
		s.host = host
		if port > 0 {
			s.port = port
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewServer creates the HTTP gateway over the given repositories and
// ingestion pipeline.
func NewServer(
	brokers storage.BrokerRepository,
	conversations storage.ConversationRepository,
	messages storage.MessageRepository,
	queue storage.QueueRepository,
	pipeline *ingestion.Pipeline,
	opts ...Option,
) (*Server, error) {
	if brokers == nil || conversations == nil || messages == nil || queue == nil {
		return nil, ErrRepositoriesRequired
	}
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}

	s := &Server{
		brokers:       brokers,
		conversations: conversations,
		messages:      messages,
		queue:         queue,
		pipeline:      pipeline,
		port:          DefaultPort,
		logger:        slog.Default().With("component", "gateway"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	s.registerRoutes(engine)
	s.engine = engine

	return s, nil
}

func (s *Server) registerRoutes(engine *gin.Engine) {
	engine.GET("/health", s.handleHealth)
	engine.POST("/whatsapp/webhook", s.handleWebhook)
	engine.POST("/documents", s.handleAddDocument)
}

// Handler exposes the underlying HTTP handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run starts the server and blocks until the context is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.host, s.port),
		Handler: s.engine,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error shutting down gateway", "err", err)
		}
	}()

	s.logger.Info("gateway listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
