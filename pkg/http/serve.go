package xhttp

import (
	"os"
	"os/signal"
	"reflect"
	"runtime"
	"slices"
	"syscall"
	"time"

	"github.com/nimasrn/review-runner/pkg/logger"
	"github.com/valyala/fasthttp"
)

var DefaultServerOption = ServerOption{
	Name:                  "review-runner",
	IdleTimeout:           time.Second * 10,
	MaxIdleWorkerDuration: time.Minute * 1,
	TCPKeepalivePeriod:    time.Minute * 120, // linux default
	// customer imports are the largest bodies we accept
	MaxRequestBodySize: 8 * 1024 * 1024,
	ReadBufferSize:     1024 * 16, // also max header size, session cookies included
	WriteBufferSize:    1024 * 4,
	ReadTimeout:        time.Second * 5,
	WriteTimeout:       time.Second * 10,
	Concurrency:        10_000,
	MaxConnsPerIP:      1_000,
}

type RequestHeader = fasthttp.RequestHeader
type ResponseHeader = fasthttp.ResponseHeader
type Server = fasthttp.Server

type ServerOption struct {
	Name string

	// idle keep-alive connections are closed after this long
	IdleTimeout time.Duration

	MaxIdleWorkerDuration time.Duration
	TCPKeepalivePeriod    time.Duration

	MaxRequestBodySize int
	ReadBufferSize     int
	WriteBufferSize    int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Concurrency   int
	MaxConnsPerIP int
}

// WithTimeouts overrides read/write timeouts given in seconds; zero keeps the default.
func (o ServerOption) WithTimeouts(readSeconds, writeSeconds int) ServerOption {
	if readSeconds > 0 {
		o.ReadTimeout = time.Duration(readSeconds) * time.Second
	}
	if writeSeconds > 0 {
		o.WriteTimeout = time.Duration(writeSeconds) * time.Second
	}
	return o
}

type Engine struct {
	*Router
	*Server
	option ServerOption
	middle []MiddlewareFunc
}

func newServer(options ServerOption) *fasthttp.Server {
	return &fasthttp.Server{
		Handler: NotFoundHandler,
		ErrorHandler: func(ctx *RequestCtx, err error) {
			logger.Warn("[xhttp] connection error", "error", err)
		},
		Name:                         options.Name,
		Concurrency:                  options.Concurrency,
		ReadBufferSize:               options.ReadBufferSize,
		WriteBufferSize:              options.WriteBufferSize,
		ReadTimeout:                  options.ReadTimeout,
		WriteTimeout:                 options.WriteTimeout,
		IdleTimeout:                  options.IdleTimeout,
		MaxConnsPerIP:                options.MaxConnsPerIP,
		MaxIdleWorkerDuration:        options.MaxIdleWorkerDuration,
		TCPKeepalivePeriod:           options.TCPKeepalivePeriod,
		MaxRequestBodySize:           options.MaxRequestBodySize,
		TCPKeepalive:                 true,
		DisablePreParseMultipartForm: true,
		NoDefaultServerHeader:        true,
		NoDefaultContentType:         true,
		CloseOnShutdown:              true,
		Logger:                       logger.GetLogger(),
	}
}

func NewServer(options ServerOption) *Engine {
	return &Engine{
		Server: newServer(options),
		Router: CreateDefaultRouter(),
		option: options,
	}
}

func (e *Engine) ListenAndServe(addr string) error {
	if err := e.DoRouting(); err != nil {
		return err
	}
	logger.Info("[xhttp] server is listening", "addr", addr)
	return e.Server.ListenAndServe(addr)
}

func (e *Engine) DoRouting() error {
	for method, route := range e.Router.List() {
		for _, r := range route {
			logger.Debug("[xhttp] route registered", "method", method, "path", r)
		}
	}
	e.Server.Handler = e.Router.Handler
	// wrap in reverse so the first registered middleware runs first
	slices.Reverse(e.middle)
	for i, m := range e.middle {
		e.Server.Handler = m(e.Server.Handler)
		logger.Debug("[xhttp] middleware registered", "index", i+1, "name", runtime.FuncForPC(reflect.ValueOf(m).Pointer()).Name())
	}
	return nil
}

// Use adds middleware to the chain which is run for every request.
func (e *Engine) Use(middleware MiddlewareFunc) {
	e.middle = append(e.middle, middleware)
}

// Handler returns the composed handler. DoRouting must have been called.
func (e *Engine) Handler() RequestHandler {
	return e.Server.Handler
}

// CloseOnSignal shuts the server down on SIGINT/SIGTERM and closes done afterwards.
func (e *Engine) CloseOnSignal() <-chan struct{} {
	done := make(chan struct{})
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig
		e.Shutdown()
		close(done)
	}()
	return done
}

// Shutdown gracefully shuts down the server without interrupting any active connections.
func (e *Engine) Shutdown() {
	logger.Info("[xhttp] server is shutting down", "pid", os.Getpid())
	if err := e.Server.Shutdown(); err != nil {
		logger.Error("[xhttp] error while shutting down", "error", err)
	}
}
