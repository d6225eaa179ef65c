// Package listener receives doorbird_audio events over HTTP and runs one
// upload per accepted event.
package listener

import (
	"context"
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bft-labs/birdcall/internal/devices"
	"github.com/bft-labs/birdcall/internal/domain"
	"github.com/bft-labs/birdcall/pkg/log"
)

// DefaultShutdownTimeout bounds how long Stop waits for in-flight uploads.
const DefaultShutdownTimeout = 2 * time.Minute

// cancelGrace is how long Stop waits for cancelled uploads to return.
const cancelGrace = 5 * time.Second

// Uploader plays one audio source on one device.
type Uploader interface {
	UploadAudio(ctx context.Context, ep domain.Endpoint, source string) error
}

// Config configures the listener.
type Config struct {
	Addr            string
	AuthKey         string
	ShutdownTimeout time.Duration
}

// Server is the HTTP event listener.
type Server struct {
	cfg      Config
	uploader Uploader
	registry *devices.Registry
	logger   log.Logger

	engine *gin.Engine
	life   *lifecycle

	mu     sync.Mutex
	srv    *http.Server
	ln     net.Listener
	ctx    context.Context
	cancel context.CancelFunc
	served chan error
}

// New builds a listener. A nil registry means events must carry complete
// endpoints.
func New(cfg Config, uploader Uploader, registry *devices.Registry, logger log.Logger) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if registry == nil {
		registry = devices.NewRegistry(nil)
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	s := &Server{
		cfg:      cfg,
		uploader: uploader,
		registry: registry,
		logger:   logger,
		life:     newLifecycle(logger),
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	api := engine.Group("/api", s.authenticate())
	api.POST("/events/:name", s.handleEvent)
	s.engine = engine

	return s
}

// Handler exposes the routes without a network listener. Events are only
// accepted while the server is running.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	return s.life.State()
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return s.cfg.Addr
	}
	return s.ln.Addr().String()
}

// Start binds the address and serves in the background.
func (s *Server) Start() error {
	if err := s.life.transitionTo(StateStarting, "start requested"); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		_ = s.life.transitionTo(StateStopped, "listen failed")
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	served := make(chan error, 1)

	s.mu.Lock()
	s.ln = ln
	s.srv = srv
	s.served = served
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	go func() {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		served <- err
	}()

	s.logger.Info("listener started", log.String("addr", ln.Addr().String()))
	return s.life.transitionTo(StateRunning, "listening")
}

// Stop closes the listener and waits for in-flight uploads. Both share one
// shutdown deadline; uploads still running at the deadline are cancelled
// and given cancelGrace to return.
func (s *Server) Stop() error {
	if err := s.life.transitionTo(StateStopping, "stop requested"); err != nil {
		return err
	}

	s.mu.Lock()
	srv, served, cancelUploads := s.srv, s.served, s.cancel
	s.mu.Unlock()

	deadline := time.Now().Add(s.cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithDeadline(context.Background(), deadline)
	err := srv.Shutdown(shutdownCtx)
	cancel()
	if serveErr := <-served; serveErr != nil && err == nil {
		err = serveErr
	}

	waitErr := s.life.waitUntil(deadline)
	cancelUploads()
	if waitErr != nil {
		s.logger.Warn("shutdown timeout, cancelling uploads",
			log.Duration("timeout", s.cfg.ShutdownTimeout))
		if s.life.waitUntil(time.Now().Add(cancelGrace)) != nil {
			s.logger.Error("uploads did not return after cancel")
		}
		err = waitErr
	}

	_ = s.life.transitionTo(StateStopped, "stopped")
	s.logger.Info("listener stopped")
	return err
}

type errorResponse struct {
	Error string `json:"error"`
}

type acceptedResponse struct {
	ID string `json:"id"`
}

func (s *Server) handleEvent(c *gin.Context) {
	name := c.Param("name")
	if name != domain.EventDoorbirdAudio {
		c.AbortWithStatusJSON(http.StatusNotFound, errorResponse{Error: "unknown event " + name})
		return
	}

	var ev domain.AudioEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "invalid event body: " + err.Error()})
		return
	}
	if ev.AudioURL == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "audio_url is required"})
		return
	}
	ep, err := s.registry.Resolve(ev)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if !s.life.begin() {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, errorResponse{Error: "shutting down"})
		return
	}

	id := uuid.NewString()
	go s.upload(s.uploadContext(), id, ep, ev.AudioURL)

	c.JSON(http.StatusAccepted, acceptedResponse{ID: id})
}

// upload runs detached from the request; its outcome only reaches the log.
func (s *Server) upload(ctx context.Context, id string, ep domain.Endpoint, source string) {
	defer s.life.done()

	start := time.Now()
	err := s.uploader.UploadAudio(ctx, ep, source)
	if err != nil {
		s.logger.Error("upload failed",
			log.String("id", id),
			log.String("device", ep.Address),
			log.String("source", source),
			log.Err(err),
		)
		return
	}
	s.logger.Info("upload finished",
		log.String("id", id),
		log.String("device", ep.Address),
		log.Duration("elapsed", time.Since(start)),
	)
}

// uploadContext is cancelled only when Stop gives up waiting.
func (s *Server) uploadContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// authenticate enforces the static bearer token when one is configured.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.AuthKey == "" {
			c.Next()
			return
		}
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AuthKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []log.Field{
			log.String("method", c.Request.Method),
			log.String("path", c.Request.URL.Path),
			log.Int("status", c.Writer.Status()),
			log.Duration("elapsed", time.Since(start)),
		}
		if c.Writer.Status() >= 400 {
			s.logger.Warn("request completed", fields...)
			return
		}
		s.logger.Debug("request completed", fields...)
	}
}
