package server

import "github.com/jrsteele09/go-sqlite-browser/auth"

// Route path constants
const (
	RouteIndex = "/{$}"

	// OAuth routes, the only ones outside the gate
	RouteCallback = auth.CallbackPath
	RouteLogout   = auth.LogoutPath

	// API routes
	RouteAPIDatabases = "/api/databases"
	RouteAPITables    = "/api/tables"
	RouteAPIRecords   = "/api/records"
	RouteAPIPrefix    = "/api/"

	// Served on the metrics listener
	RouteMetrics = "/metrics"
)
