// Package server exposes a small local review API over the post store so
// an operator can browse the queue and mark posts without the CLI. It is a
// read/mark convenience surface, not a processing path.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/harryila/redPull/db"
	"github.com/harryila/redPull/models"
	"github.com/harryila/redPull/pipeline"
)

// Server wraps the echo instance and its collaborators
type Server struct {
	echo     *echo.Echo
	database *db.Database
	pipe     *pipeline.Pipeline
	log      *logrus.Logger
}

// New creates the review API server
func New(database *db.Database, pipe *pipeline.Pipeline, log *logrus.Logger) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(10),
				Burst:     20,
				ExpiresIn: 3 * time.Minute,
			},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(ctx echo.Context, err error) error {
			return ctx.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded, please try again later",
			})
		},
		DenyHandler: func(ctx echo.Context, identifier string, err error) error {
			return ctx.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded, please try again later",
			})
		},
	}))

	s := &Server{echo: e, database: database, pipe: pipe, log: log}

	e.GET("/healthz", s.health)
	e.GET("/api/stats", s.stats)
	e.GET("/api/posts", s.listPosts)
	e.GET("/api/posts/:id", s.showPost)
	e.POST("/api/posts/:id/replied", s.markReplied)
	e.POST("/api/posts/:id/skipped", s.markSkipped)

	return s
}

// Start runs the server until ctx is cancelled
func (s *Server) Start(ctx context.Context, port int) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("port", port).Info("Starting review API server")
		if err := s.echo.Start(fmt.Sprintf(":%d", port)); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("review API server failed: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("Shutting down review API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

func (s *Server) health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) stats(c echo.Context) error {
	stats, err := s.database.GetStats()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) listPosts(c echo.Context) error {
	statuses := []models.PostStatus{models.StatusNew, models.StatusQueued}
	if raw := c.QueryParam("status"); raw != "" {
		statuses = nil
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			status, err := models.ParseStatus(part)
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
			}
			statuses = append(statuses, status)
		}
	}

	var minScore *float64
	if raw := c.QueryParam("min_score"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid min_score"})
		}
		minScore = &value
	}

	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 1 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid limit"})
		}
		limit = value
	}

	posts, err := s.database.GetPostsByStatus(statuses, minScore, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, posts)
}

func (s *Server) showPost(c echo.Context) error {
	redditID := c.Param("id")

	post, err := s.database.GetPost(redditID)
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": fmt.Sprintf("post not found: %s", redditID),
		})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	actions, err := s.database.GetActions(redditID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"post":    post,
		"actions": actions,
	})
}

func (s *Server) markReplied(c echo.Context) error {
	return s.mark(c, s.pipe.MarkReplied)
}

func (s *Server) markSkipped(c echo.Context) error {
	return s.mark(c, s.pipe.MarkSkipped)
}

func (s *Server) mark(c echo.Context, fn func(redditID, notes string) error) error {
	redditID := c.Param("id")
	notes := c.QueryParam("notes")

	err := fn(redditID, notes)
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": fmt.Sprintf("post not found: %s", redditID),
		})
	}
	if errors.Is(err, db.ErrInvalidTransition) {
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"reddit_id": redditID, "status": "updated"})
}
