package server

import (
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/zakazai/csvdb/internal/executor"
	"github.com/zakazai/csvdb/internal/parser"
	"github.com/zakazai/csvdb/internal/types"
)

// APIResponse wraps all API responses with success/error info.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// TableListResponse contains the list of tables.
type TableListResponse struct {
	Tables []string `json:"tables"`
}

// QueryRequest is the body for query execution.
type QueryRequest struct {
	SQL string `json:"sql"`
}

// QueryResponse contains the result of one statement.
type QueryResponse struct {
	Columns      []string   `json:"columns,omitempty"`
	Rows         [][]string `json:"rows,omitempty"`
	RowsAffected int        `json:"rows_affected"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		types.GlobalLogger.Warning("failed to encode response: %v", err)
	}
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   message,
	})
}

// statusFor maps engine errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case types.IsKind(err, types.Syntax), types.IsKind(err, types.Column):
		return http.StatusBadRequest
	case types.IsKind(err, types.Table):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleTables lists the tables of the storage.
// GET /api/tables
func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.storage.ShowTables()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if tables == nil {
		tables = []string{}
	}
	writeSuccess(w, TableListResponse{Tables: tables})
}

// handleQuery parses and executes one statement.
// POST /api/query
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.SQL) == "" {
		writeError(w, http.StatusBadRequest, "sql is required")
		return
	}

	stmt, err := parser.Parse(req.SQL)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	result, err := s.execute(stmt)
	if err != nil {
		types.GlobalLogger.Debug("query %q failed: %v", req.SQL, err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeSuccess(w, QueryResponse{
		Columns:      result.Columns,
		Rows:         result.Rows,
		RowsAffected: result.RowsAffected,
	})
}

func (s *Server) execute(stmt parser.Statement) (*executor.Result, error) {
	if _, ok := stmt.(*parser.SelectStatement); ok {
		s.mu.RLock()
		defer s.mu.RUnlock()
	} else {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return s.executor.Execute(stmt)
}
