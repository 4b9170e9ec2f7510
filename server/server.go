// Package server exposes stored experiments over HTTP: listing, quality
// summaries and route replays.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zeu5/rlpath/analysis"
	"github.com/zeu5/rlpath/rl"
	"github.com/zeu5/rlpath/store"
	"github.com/zeu5/rlpath/types"
	"go.uber.org/zap"
)

type Server struct {
	Addr   string
	server *http.Server
	router *gin.Engine

	// route executions mutate the decoded environment, one at a time
	lock        *sync.Mutex
	experiments *store.Experiments
	maxSteps    int
	logger      *zap.Logger
}

func New(addr string, experiments *store.Experiments, maxSteps int, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		Addr:        addr,
		lock:        new(sync.Mutex),
		experiments: experiments,
		maxSteps:    maxSteps,
		logger:      logger.Named("server"),
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
	r.GET("/experiments", s.handleList)
	r.GET("/experiments/:name", s.handleGet)
	r.GET("/experiments/:name/route", s.handleRoute)
	s.router = r
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	return s
}

// Handler is the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the context is cancelled
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.Addr))
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.logger.Debug("request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("took", time.Since(start)),
	)
}

func (s *Server) handleList(c *gin.Context) {
	names, err := s.experiments.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"experiments": names})
}

type experimentView struct {
	Name    string                `json:"name"`
	ID      string                `json:"id"`
	Quality analysis.QualityStats `json:"quality"`
}

func (s *Server) handleGet(c *gin.Context) {
	exp, err := s.experiments.Load(c.Request.Context(), c.Param("name"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, experimentView{
		Name:    exp.Name,
		ID:      exp.State.ID,
		Quality: analysis.Quality(exp.State.QualityMatrix),
	})
}

type stepView struct {
	State  string `json:"state"`
	Action string `json:"action"`
	Result string `json:"result,omitempty"`
}

type routeView struct {
	Outcome types.RouteOutcome `json:"outcome"`
	States  []string           `json:"states"`
	Steps   []stepView         `json:"steps"`
}

func newRouteView(w *types.WalkResult) routeView {
	v := routeView{Outcome: w.Outcome, States: w.States(), Steps: make([]stepView, len(w.Steps))}
	for i, step := range w.Steps {
		v.Steps[i] = stepView{State: step.State.Hash(), Action: step.Action.String()}
		if step.ResultState != nil {
			v.Steps[i].Result = step.ResultState.Hash()
		}
	}
	return v
}

// handleRoute replays the learned route from the environment's initial
// state. With execute=true the actions run against the stored environment.
func (s *Server) handleRoute(c *gin.Context) {
	maxSteps := s.maxSteps
	if raw := c.Query("max_steps"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_steps must be a positive integer"})
			return
		}
		maxSteps = n
	}
	execute := c.Query("execute") == "true"

	ctx := c.Request.Context()
	exp, err := s.experiments.Load(ctx, c.Param("name"))
	if err != nil {
		s.fail(c, err)
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	start, err := exp.Environment.InitialState(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	pf := rl.NewPathFinder(exp.Environment, exp.State, s.logger)
	var route *types.WalkResult
	if execute {
		if route, err = pf.FindRoute(ctx, start, exp.Goal, maxSteps); err != nil {
			s.fail(c, err)
			return
		}
	} else {
		if route, err = pf.FindRouteWithoutApplyingActions(ctx, start, exp.Goal, maxSteps); err != nil {
			s.fail(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, newRouteView(route))
}

func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrInvalidName):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
