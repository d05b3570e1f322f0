// Control routes exposing the state of the mock.

package engine

import (
	"net/http"
	"time"

	"github.com/getmockd/specmock/pkg/httputil"
)

// ControlPrefix is the path prefix of the built-in control routes. It is
// never mounted under the base path.
const ControlPrefix = "/__specmock"

// OperationInfo describes one served operation.
type OperationInfo struct {
	ID         string   `json:"operationId,omitempty"`
	Method     string   `json:"method"`
	Path       string   `json:"path"`
	Summary    string   `json:"summary,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Deprecated bool     `json:"deprecated,omitempty"`
}

// OperationsResponse is the body of GET /__specmock/operations.
type OperationsResponse struct {
	Title      string          `json:"title,omitempty"`
	Version    string          `json:"version,omitempty"`
	OpenAPI    string          `json:"openapi"`
	Operations []OperationInfo `json:"operations"`
}

// handleHealth handles the liveness probe endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startTime).Round(time.Second).String(),
		"requests":  s.handler.Requests(),
	})
}

// handleOperations lists the operations of the active document.
func (s *Server) handleOperations(w http.ResponseWriter, _ *http.Request) {
	doc := s.handler.Document()
	resp := OperationsResponse{
		Title:      doc.Title,
		Version:    doc.Version,
		OpenAPI:    doc.OpenAPI,
		Operations: make([]OperationInfo, 0, len(doc.Operations)),
	}
	for _, op := range doc.Operations {
		resp.Operations = append(resp.Operations, OperationInfo{
			ID:         op.ID,
			Method:     op.Method,
			Path:       s.basePath + op.Path,
			Summary:    op.Summary,
			Tags:       op.Tags,
			Deprecated: op.Deprecated,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
