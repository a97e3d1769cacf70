// Package server exposes environments built by a registry over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/zeu5/gymkit/convert"
	"github.com/zeu5/gymkit/core"
	"github.com/zeu5/gymkit/gymerr"
	"github.com/zeu5/gymkit/registry"
	"github.com/zeu5/gymkit/specs"
)

// instance is a wrapper chain owned by the server, calls on it are serialized
type instance struct {
	lock *sync.Mutex
	env  core.Env
}

type Server struct {
	Addr string

	registry  *registry.Registry
	funcs     registry.FuncTable
	lock      *sync.RWMutex
	instances map[string]*instance
	toSlice   *convert.Converter

	router *gin.Engine
	server *http.Server
}

type Option func(*Server)

// WithFuncs lets clients rebuild spec stacks referencing these callables
func WithFuncs(funcs registry.FuncTable) Option {
	return func(s *Server) {
		s.funcs = funcs
	}
}

func New(addr string, r *registry.Registry, opts ...Option) *Server {
	s := &Server{
		Addr:      addr,
		registry:  r,
		funcs:     registry.FuncTable{},
		lock:      new(sync.RWMutex),
		instances: make(map[string]*instance),
		toSlice:   convert.VecToSlice(),
	}
	for _, o := range opts {
		o(s)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	v1 := router.Group("/v1")
	v1.GET("/envs", s.handleEnvs)
	v1.POST("/instances", s.handleCreate)
	v1.GET("/instances", s.handleList)
	v1.POST("/instances/:id/reset", s.handleReset)
	v1.POST("/instances/:id/step", s.handleStep)
	v1.GET("/instances/:id/spec_stack", s.handleSpecStack)
	v1.GET("/instances/:id/spaces", s.handleSpaces)
	v1.DELETE("/instances/:id", s.handleDelete)
	s.router = router
	s.server = &http.Server{
		Addr:    addr,
		Handler: router,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then closes every instance
func (s *Server) Start(ctx context.Context) {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server: %s", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.server.Shutdown(shutdownCtx)
		s.closeAll()
	}()
}

func (s *Server) closeAll() {
	s.lock.Lock()
	defer s.lock.Unlock()
	for id, inst := range s.instances {
		inst.lock.Lock()
		inst.env.Close()
		inst.lock.Unlock()
		delete(s.instances, id)
	}
}

type wrapperRequest struct {
	Name    string         `json:"name"`
	Version int            `json:"version"`
	Kwargs  map[string]any `json:"kwargs"`
}

type createRequest struct {
	ID        string           `json:"id"`
	Kwargs    map[string]any   `json:"kwargs"`
	Wrappers  []wrapperRequest `json:"wrappers"`
	SpecStack json.RawMessage  `json:"spec_stack"`
}

type resetRequest struct {
	Seed *int64 `json:"seed"`
}

type stepRequest struct {
	Action any `json:"action"`
}

func (s *Server) handleEnvs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"envs": s.registry.IDs()})
}

func (s *Server) handleList(c *gin.Context) {
	s.lock.RLock()
	ids := make([]string, 0, len(s.instances))
	for id := range s.instances {
		ids = append(ids, id)
	}
	s.lock.RUnlock()
	c.JSON(http.StatusOK, gin.H{"instances": ids})
}

func (s *Server) handleCreate(c *gin.Context) {
	req := &createRequest{}
	// numbers keep their literal form so 3 stays an int argument
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to unmarshal request"})
		return
	}
	env, err := s.build(req)
	if err != nil {
		respondError(c, err)
		return
	}

	id := uuid.New().String()
	s.lock.Lock()
	s.instances[id] = &instance{lock: new(sync.Mutex), env: env}
	s.lock.Unlock()
	c.JSON(http.StatusOK, gin.H{"instance_id": id})
}

func (s *Server) build(req *createRequest) (core.Env, error) {
	if len(req.SpecStack) > 0 && string(req.SpecStack) != "null" {
		text := string(req.SpecStack)
		// the stack may also be sent as a json string holding the text
		var quoted string
		if err := json.Unmarshal(req.SpecStack, &quoted); err == nil {
			text = quoted
		}
		var opts []specs.DeserializeOption
		if len(s.funcs) > 0 {
			opts = append(opts, specs.AllowUnsafe())
		}
		stack, err := specs.Deserialize(text, opts...)
		if err != nil {
			return nil, err
		}
		return s.registry.MakeFromStack(stack, registry.WithFuncs(s.funcs))
	}
	if req.ID == "" {
		return nil, gymerr.Argument("server", "id", "either id or spec_stack is required")
	}
	kwargs, err := specs.NewKwargs(req.Kwargs)
	if err != nil {
		return nil, err
	}
	env, err := s.registry.Make(req.ID, kwargs, registry.WithFuncs(s.funcs))
	if err != nil {
		return nil, err
	}
	for _, w := range req.Wrappers {
		wkwargs, err := specs.NewKwargs(w.Kwargs)
		if err != nil {
			env.Close()
			return nil, err
		}
		wrapped, err := s.registry.Catalog().Build(env, *specs.NewWrapperSpec(w.Name, w.Version, wkwargs))
		if err != nil {
			env.Close()
			return nil, err
		}
		env = wrapped
	}
	return env, nil
}

// withInstance runs f holding the instance lock
func (s *Server) withInstance(c *gin.Context, f func(env core.Env)) {
	s.lock.RLock()
	inst, ok := s.instances[c.Param("id")]
	s.lock.RUnlock()
	if !ok {
		respondError(c, fmt.Errorf("%w: %s", gymerr.ErrInstanceNotFound, c.Param("id")))
		return
	}
	inst.lock.Lock()
	defer inst.lock.Unlock()
	f(inst.env)
}

func (s *Server) handleReset(c *gin.Context) {
	req := &resetRequest{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to unmarshal request"})
			return
		}
	}
	s.withInstance(c, func(env core.Env) {
		obs, info, err := env.Reset(core.ResetOptions{Seed: req.Seed})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"observation": s.jsonValue(obs),
			"info":        s.jsonValue(map[string]any(info)),
		})
	})
}

func (s *Server) handleStep(c *gin.Context) {
	req := &stepRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to unmarshal request"})
		return
	}
	s.withInstance(c, func(env core.Env) {
		action, err := decodeAction(env.ActionSpace(), req.Action)
		if err != nil {
			respondError(c, err)
			return
		}
		tr, err := env.Step(action)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"observation": s.jsonValue(tr.Observation),
			"reward":      tr.Reward,
			"terminated":  tr.Terminated,
			"truncated":   tr.Truncated,
			"info":        s.jsonValue(map[string]any(tr.Info)),
		})
	})
}

func (s *Server) handleSpecStack(c *gin.Context) {
	s.withInstance(c, func(env core.Env) {
		stack, err := core.SpecStack(env)
		if err != nil {
			respondError(c, err)
			return
		}
		text, err := specs.Serialize(stack)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"spec_stack": json.RawMessage(text)})
	})
}

func (s *Server) handleSpaces(c *gin.Context) {
	s.withInstance(c, func(env core.Env) {
		c.JSON(http.StatusOK, gin.H{
			"observation_space": env.ObservationSpace().String(),
			"action_space":      env.ActionSpace().String(),
		})
	})
}

func (s *Server) handleDelete(c *gin.Context) {
	id := c.Param("id")
	s.lock.Lock()
	inst, ok := s.instances[id]
	delete(s.instances, id)
	s.lock.Unlock()
	if !ok {
		respondError(c, fmt.Errorf("%w: %s", gymerr.ErrInstanceNotFound, id))
		return
	}
	inst.lock.Lock()
	defer inst.lock.Unlock()
	if err := inst.env.Close(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// jsonValue converts gonum vectors to slices so responses carry plain arrays
func (s *Server) jsonValue(x any) any {
	out, err := s.toSlice.Convert(x)
	if err != nil {
		return fmt.Sprint(x)
	}
	return out
}

func respondError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, gymerr.ErrLookup) {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
