package server

import (
	"net/http"
)

func (s *Server) initRoutes() {
	// OAuth routes are reachable without a session
	s.RegisterRouteFunc("GET "+RouteCallback, ChainMiddleware(s.gate.OAuthCallbackHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("GET "+RouteLogout, ChainMiddleware(s.gate.LogoutHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("POST "+RouteLogout, ChainMiddleware(s.gate.LogoutHandler(), s.HTMLMiddleWare()...))

	// Everything else requires an authenticated session
	s.RegisterRouteFunc("GET "+RouteIndex, ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare(s.gate.RequireSession())...))

	s.RegisterRouteFunc("GET "+RouteAPIDatabases, ChainMiddleware(s.DatabasesHandler(), s.APIMiddleware(s.gate.RequireSession())...))
	s.RegisterRouteFunc("POST "+RouteAPITables, ChainMiddleware(s.TablesHandler(), s.APIMiddleware(s.gate.RequireSession())...))
	s.RegisterRouteFunc("POST "+RouteAPIRecords, ChainMiddleware(s.RecordsHandler(), s.APIMiddleware(s.gate.RequireSession())...))

	// CORS preflight never carries cookies, so it is answered before the gate
	s.RegisterRouteFunc("OPTIONS "+RouteAPIPrefix, ChainMiddleware(noContent, s.APIMiddleware()...))
}

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
