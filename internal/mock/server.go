// Package mock is a local stand-in for the portfolio assistant backend. It
// speaks the same wire format as the hosted service so the widget can be
// exercised without network access.
package mock

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	InvalidQuestion = "Invalid question"
	AskQuestion     = "Please ask a question."

	DefaultAnswer = "Thanks for asking! This reply comes from the local mock backend, streamed one word at a time."
)

type Options struct {
	// Answer is streamed word by word for every valid question.
	Answer string
	// Delay is the pause between two streamed words.
	Delay  time.Duration
	Logger zerolog.Logger
}

type Server struct {
	answer string
	delay  time.Duration
	log    zerolog.Logger
	router *gin.Engine
}

type chatRequest struct {
	Question string `json:"question"`
}

func New(opts Options) *Server {
	answer := strings.TrimSpace(opts.Answer)
	if answer == "" {
		answer = DefaultAnswer
	}

	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		answer: answer,
		delay:  opts.Delay,
		log:    opts.Logger,
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), cors())

	r.POST("/chat/stream", s.chatStream)
	r.POST("/chat", s.chat)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.router = r
	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("mock backend listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("mock backend: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// chatStream answers with text/event-stream frames, one word per frame.
// A blank question gets a single frame, as the hosted backend does.
func (s *Server) chatStream(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	question := strings.TrimSpace(req.Question)
	if question == "" {
		fmt.Fprintf(c.Writer, "data:%s\n\n", InvalidQuestion)
		c.Writer.Flush()
		return
	}

	words := strings.Fields(s.answer)
	ctx := c.Request.Context()
	for i, word := range words {
		if i > 0 && s.delay > 0 {
			select {
			case <-ctx.Done():
				s.log.Debug().Int("sent", i).Msg("client went away")
				return
			case <-time.After(s.delay):
			}
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", word)
		c.Writer.Flush()
	}
	s.log.Debug().Str("request_id", c.GetHeader("X-Request-ID")).Int("words", len(words)).Msg("stream complete")
}

// chat is the non-streaming variant returning the whole answer at once.
func (s *Server) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"answer": AskQuestion})
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": s.answer})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// cors allows any origin, like the hosted backend.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Accept, Cache-Control, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
