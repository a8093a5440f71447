package server

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/jrsteele09/go-sqlite-browser/databases"
	"github.com/jrsteele09/go-sqlite-browser/internal/errors"
	"github.com/rs/zerolog"
)

type databasesResponse struct {
	Databases []string `json:"databases"`
}

type tablesResponse struct {
	Tables []databases.Table `json:"tables"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// DatabasesHandler lists every database file under the root
func (s *Server) DatabasesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paths, err := s.catalog.ListDatabases(r.Context())
		if err != nil {
			s.writeCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, databasesResponse{Databases: paths})
	}
}

// TablesHandler lists the tables of the database named by the db_path form field
func (s *Server) TablesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := parseForm(r); err != nil {
			writeDetail(w, http.StatusBadRequest, "invalid form body")
			return
		}
		dbPath, ok := requiredField(w, r, "db_path")
		if !ok {
			return
		}

		tables, err := s.catalog.ListTables(r.Context(), dbPath)
		if err != nil {
			s.writeCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, tablesResponse{Tables: tables})
	}
}

// RecordsHandler runs a filtered SELECT against one table
func (s *Server) RecordsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := parseForm(r); err != nil {
			writeDetail(w, http.StatusBadRequest, "invalid form body")
			return
		}
		dbPath, ok := requiredField(w, r, "db_path")
		if !ok {
			return
		}
		table, ok := requiredField(w, r, "table_name")
		if !ok {
			return
		}

		set, err := s.catalog.Records(r.Context(), dbPath, table, r.PostForm.Get("where_clause"))
		if err != nil {
			s.writeCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, set)
	}
}

const maxFormMemory = 1 << 20

// parseForm accepts both urlencoded and multipart bodies
func parseForm(r *http.Request) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return r.ParseMultipartForm(maxFormMemory)
	}
	return r.ParseForm()
}

func requiredField(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	if _, present := r.PostForm[name]; !present {
		writeDetail(w, http.StatusUnprocessableEntity, "missing form field: "+name)
		return "", false
	}
	return r.PostForm.Get(name), true
}

func (s *Server) writeCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errors.ErrDatabaseNotFound):
		writeDetail(w, http.StatusNotFound, "Database file not found")
	case errors.Is(err, errors.ErrPathOutsideRoot):
		writeDetail(w, http.StatusBadRequest, "Database path must be inside the database root")
	case errors.Is(err, errors.ErrInvalidTableName):
		writeDetail(w, http.StatusBadRequest, "Invalid table name")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Catalog request failed")
		writeDetail(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
