// Package server provides the recipe assistant HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/sous/pkg/feedback"
	"github.com/papercomputeco/sous/pkg/llm"
	"github.com/papercomputeco/sous/pkg/logger"
)

const (
	defaultTopK = 3
	minRating   = 1
	maxRating   = 5
)

// Answerer produces an answer and its sources for a question.
type Answerer interface {
	Answer(ctx context.Context, question string, topK int) (string, []string, error)
}

// Server is the recipe assistant API. Every answered question is recorded in
// a feedback.Store under a fresh query ID so later ratings can be tied to it.
type Server struct {
	config   Config
	answerer Answerer
	store    feedback.Store
	logger   *zap.Logger
	server   *fiber.App
}

// New creates a new Server.
func New(config Config, answerer Answerer, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var store feedback.Store
	var err error

	if config.DBPath != "" {
		store, err = feedback.NewSQLiteStore(config.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite store: %w", err)
		}
		logger.Info("using SQLite feedback storage", zap.String("path", config.DBPath))
	} else {
		store = feedback.NewMemoryStore()
		logger.Info("using in-memory feedback storage")
	}

	if config.DefaultTopK <= 0 {
		config.DefaultTopK = defaultTopK
	}

	s := &Server{
		config:   config,
		answerer: answerer,
		store:    store,
		logger:   logger,
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	app.Use(processTime)
	app.Use(recover.New())
	app.Use(cors.New())

	app.Post("/api/chat", s.handleChat)
	app.Post("/api/feedback", s.handleFeedback)
	app.Get("/api/feedback", s.handleListFeedback)
	app.Get("/health", s.handleHealth)
	app.Get("/", s.handleIndex)

	s.server = app
	return s, nil
}

// Handler exposes the API as a net/http handler.
func (s *Server) Handler() http.Handler {
	return adaptor.FiberApp(s.server)
}

// Run starts the server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting recipe API server", zap.String("listen", s.config.ListenAddr))
	return s.server.Listen(s.config.ListenAddr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.ShutdownWithContext(ctx)
}

// Close releases the feedback store.
func (s *Server) Close() error {
	return s.store.Close()
}

// processTime reports the handling time in seconds as X-Process-Time.
func processTime(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	c.Set("X-Process-Time", strconv.FormatFloat(time.Since(start).Seconds(), 'f', -1, 64))
	return err
}

// handleError renders every error as {"detail": ...}. Errors that are not
// fiber errors are unexpected and their text is not exposed.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(llm.ErrorResponse{Detail: fe.Message})
	}

	s.logger.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Detail: "An unexpected error occurred"})
}

// handleChat answers a question and records it under a new query ID.
func (s *Server) handleChat(c *fiber.Ctx) error {
	startTime := time.Now()

	var req llm.ChatRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		s.logger.Error("failed to parse request", zap.Error(err))
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if strings.TrimSpace(req.Message) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "message is required")
	}

	// A missing or zero top_k means the default; the index clamps large
	// values to the number of recipes it holds.
	topK := s.config.DefaultTopK
	if req.TopK != nil && *req.TopK != 0 {
		topK = *req.TopK
	}
	if topK < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "top_k must not be negative")
	}

	queryID := "query-" + uuid.NewString()
	s.logger.Info("processing chat request",
		zap.String("query_id", queryID),
		zap.String("message_preview", logger.Truncate(req.Message, 100)),
		zap.Int("top_k", topK),
	)

	answer, sources, err := s.answerer.Answer(c.Context(), req.Message, topK)
	if err != nil {
		s.logger.Error("failed to answer", zap.String("query_id", queryID), zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if sources == nil {
		sources = []string{}
	}

	elapsed := time.Since(startTime)

	// Don't fail the request just because recording failed
	if err := s.store.PutQuery(c.Context(), &feedback.Query{
		ID:           queryID,
		Question:     req.Message,
		Answer:       answer,
		SourceCount:  len(sources),
		ResponseTime: elapsed,
		CreatedAt:    startTime,
	}); err != nil {
		s.logger.Error("failed to record query", zap.String("query_id", queryID), zap.Error(err))
	}

	s.logger.Debug("answered chat request",
		zap.String("query_id", queryID),
		zap.Int("source_count", len(sources)),
		zap.Duration("duration", elapsed),
	)

	return c.JSON(llm.ChatResponse{
		Answer:       answer,
		Sources:      sources,
		QueryID:      queryID,
		ResponseTime: elapsed.Seconds(),
	})
}

// handleFeedback stores a rating. Ratings for unknown query IDs are accepted
// and logged, since the query may have been answered by an earlier process.
func (s *Server) handleFeedback(c *fiber.Ctx) error {
	var req llm.FeedbackRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		s.logger.Error("failed to parse request", zap.Error(err))
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.QueryID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "query_id is required")
	}
	if req.Rating < minRating || req.Rating > maxRating {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("rating must be between %d and %d", minRating, maxRating))
	}

	ctx := c.Context()
	if _, err := s.store.GetQuery(ctx, req.QueryID); err != nil {
		var nf feedback.ErrNotFound
		if !errors.As(err, &nf) {
			return err
		}
		s.logger.Warn("feedback for unknown query", zap.String("query_id", req.QueryID))
	}

	if err := s.store.Put(ctx, &feedback.Entry{
		QueryID:   req.QueryID,
		Rating:    req.Rating,
		Comment:   req.Feedback,
		CreatedAt: time.Now(),
	}); err != nil {
		return err
	}

	s.logger.Info("received feedback",
		zap.String("query_id", req.QueryID),
		zap.Int("rating", req.Rating),
	)

	return c.Status(fiber.StatusCreated).JSON(llm.FeedbackResponse{
		Status:  "Feedback received",
		QueryID: req.QueryID,
	})
}

// handleListFeedback returns stored ratings, oldest first. The optional
// query_id parameter narrows the list to one query.
func (s *Server) handleListFeedback(c *fiber.Ctx) error {
	var (
		entries []*feedback.Entry
		err     error
	)
	if queryID := c.Query("query_id"); queryID != "" {
		entries, err = s.store.ListByQuery(c.Context(), queryID)
	} else {
		entries, err = s.store.List(c.Context())
	}
	if err != nil {
		return err
	}

	resp := llm.FeedbackListResponse{
		Count:   len(entries),
		Entries: make([]llm.FeedbackEntry, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, llm.FeedbackEntry{
			QueryID:   e.QueryID,
			Rating:    e.Rating,
			Feedback:  e.Comment,
			CreatedAt: e.CreatedAt,
		})
	}

	return c.JSON(resp)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	now := time.Now()
	return c.JSON(llm.HealthResponse{
		Status:    "healthy",
		Timestamp: float64(now.UnixNano()) / float64(time.Second),
	})
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	return c.JSON(map[string]any{
		"message": "Welcome to Recipe Assistant API",
		"endpoints": map[string]string{
			"/api/chat":     "POST - Submit recipe questions",
			"/api/feedback": "POST - Submit feedback, GET - List feedback",
			"/health":       "GET - Service health check",
		},
	})
}
