package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-sqlite-browser/auth"
	"github.com/jrsteele09/go-sqlite-browser/databases"
	"github.com/jrsteele09/go-sqlite-browser/internal/config"
	"github.com/rs/zerolog/log"
)

// Server routes browser and API traffic. Every route except the OAuth
// callback and logout sits behind the auth gate.
type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	gate    *auth.Gate
	catalog *databases.Catalog
	limiter *RateLimiter
}

func New(cfg config.Config, gate *auth.Gate, catalog *databases.Catalog) *Server {
	s := &Server{
		env:     cfg.GetEnv(),
		mux:     http.NewServeMux(),
		config:  cfg,
		gate:    gate,
		catalog: catalog,
		limiter: NewRateLimiter(cfg.Security.RateLimitRPS, cfg.Security.RateLimitBurst, rateLimiterCleanup),
	}

	s.initRoutes()
	s.logRoutes()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Close stops background work owned by the server
func (s *Server) Close() {
	s.limiter.Close()
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		method, path, found := strings.Cut(route, " ")
		if !found {
			method, path = "", route
		}
		log.Debug().Msgf("[%-17s] %s", colourMethod(method), path)
	}
}
