package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/zeu5/miniblocks/blocks"
)

var ErrUnknownSession = errors.New("unknown session")

type Config struct {
	Addr    string
	GinMode string
	// Env is the base config of new sessions, requests may override the
	// seed, layout, agent mode and view size
	Env blocks.Config
}

// session is one environment, steps on it are serialized
type session struct {
	lock    *sync.Mutex
	env     *blocks.Env
	created time.Time
}

// Server drives environments over HTTP and websockets
type Server struct {
	config   Config
	router   *gin.Engine
	server   *http.Server
	upgrader websocket.Upgrader

	lock     *sync.Mutex
	sessions map[string]*session
}

func NewServer(config Config) *Server {
	if config.GinMode != "" {
		gin.SetMode(config.GinMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		config:   config,
		lock:     new(sync.Mutex),
		sessions: make(map[string]*session),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.POST("/envs", s.handleCreate)
	r.POST("/envs/:id/reset", s.handleReset)
	r.POST("/envs/:id/step", s.handleStep)
	r.GET("/envs/:id/render", s.handleRender)
	r.GET("/envs/:id/metadata", s.handleMetadata)
	r.GET("/envs/:id/ws", s.handleStream)
	r.DELETE("/envs/:id", s.handleDelete)
	s.router = r
	s.server = &http.Server{
		Addr:    config.Addr,
		Handler: r,
	}
	return s
}

// Handler exposes the router, used by tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks until the server is shut down
func (s *Server) Start() error {
	log.Printf("[SERVER] [INFO] listening on %s", s.config.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Sessions is the number of live environments
func (s *Server) Sessions() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.sessions)
}

func (s *Server) get(id string) (*session, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return sess, nil
}

// bind decodes an optional JSON body, an empty body keeps the zero value
func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "failed to unmarshal request: " + err.Error()})
		return false
	}
	return true
}

// status maps environment errors to http codes
func status(err error) int {
	switch {
	case errors.Is(err, ErrUnknownSession):
		return http.StatusNotFound
	case errors.Is(err, blocks.ErrInvalidAction), errors.Is(err, blocks.ErrConfig):
		return http.StatusBadRequest
	case errors.Is(err, blocks.ErrEpisodeTerminated):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func abort(c *gin.Context, err error) {
	code := status(err)
	if code == http.StatusInternalServerError {
		log.Printf("[SERVER] [ERROR] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(code, errorResponse{Error: err.Error()})
}

func (s *Server) envConfig(req createRequest) (blocks.Config, error) {
	config := s.config.Env
	if req.Seed != nil {
		config.Seed = *req.Seed
	}
	if req.Layout != "" {
		config.Layout = blocks.LayoutKind(req.Layout)
	}
	if req.AgentMode != "" {
		mode, err := blocks.ParseAgentMode(req.AgentMode)
		if err != nil {
			return config, err
		}
		config.AgentMode = mode
	}
	if req.ViewSize != nil {
		config.ViewSize = *req.ViewSize
	}
	config.RandomStart = req.RandomStart
	return config, config.Validate()
}

func (s *Server) handleCreate(c *gin.Context) {
	req := createRequest{}
	if !bind(c, &req) {
		return
	}
	config, err := s.envConfig(req)
	if err != nil {
		abort(c, err)
		return
	}
	env, err := blocks.NewEnv(config)
	if err != nil {
		abort(c, err)
		return
	}
	obs := env.Observe()

	id := uuid.NewString()
	s.lock.Lock()
	s.sessions[id] = &session{
		lock:    new(sync.Mutex),
		env:     env,
		created: time.Now(),
	}
	s.lock.Unlock()
	log.Printf("[SERVER] [INFO] created env %s (layout=%s, seed=%d)", id, config.Layout, config.Seed)

	c.JSON(http.StatusCreated, createResponse{
		ID:          id,
		Observation: newObservation(obs),
		Metadata:    env.Metadata(),
	})
}

func (s *Server) handleReset(c *gin.Context) {
	sess, err := s.get(c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	req := resetRequest{}
	if !bind(c, &req) {
		return
	}
	sess.lock.Lock()
	obs, err := sess.env.Reset(req.RandomStart)
	sess.lock.Unlock()
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resetResponse{Observation: newObservation(obs)})
}

func (s *Server) handleStep(c *gin.Context) {
	sess, err := s.get(c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	req := stepRequest{}
	if !bind(c, &req) {
		return
	}
	resp, err := sess.step(req)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleRender(c *gin.Context) {
	sess, err := s.get(c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	sess.lock.Lock()
	out := sess.env.String()
	sess.lock.Unlock()
	c.String(http.StatusOK, out)
}

func (s *Server) handleMetadata(c *gin.Context) {
	sess, err := s.get(c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	sess.lock.Lock()
	meta := sess.env.Metadata()
	sess.lock.Unlock()
	c.JSON(http.StatusOK, meta)
}

func (s *Server) handleDelete(c *gin.Context) {
	id := c.Param("id")
	s.lock.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.lock.Unlock()
	if !ok {
		abort(c, fmt.Errorf("%w: %s", ErrUnknownSession, id))
		return
	}
	log.Printf("[SERVER] [INFO] deleted env %s after %s", id, time.Since(sess.created).Round(time.Millisecond))
	c.Status(http.StatusNoContent)
}

// step applies a reset or an action under the session lock
func (sess *session) step(req stepRequest) (stepResponse, error) {
	sess.lock.Lock()
	defer sess.lock.Unlock()

	if req.Reset {
		obs, err := sess.env.Reset(req.RandomStart)
		if err != nil {
			return stepResponse{}, err
		}
		return stepResponse{
			Observation: newObservation(obs),
			Info:        map[string]any{},
			Event:       blocks.EventNone.String(),
		}, nil
	}

	action, err := blocks.ParseAction(req.Action)
	if err != nil {
		return stepResponse{}, err
	}
	res, err := sess.env.Step(action)
	if err != nil {
		return stepResponse{}, err
	}
	return stepResponse{
		Observation: newObservation(res.Obs),
		Reward:      res.Reward,
		Done:        res.Done,
		Info:        res.Info,
		Step:        sess.env.StepCount(),
		Event:       sess.env.LastEvent().String(),
	}, nil
}
