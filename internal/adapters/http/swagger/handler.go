// Package swagger serves the OpenAPI description of the HTTP API.
package swagger

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Path is where the document is served.
const Path = "/openapi.yaml"

// Register attaches GET /openapi.yaml to r.
func Register(r chi.Router) {
	r.Get(Path, Handle)
}

// Handle writes the embedded document.
func Handle(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	_, _ = w.Write(OpenAPI)
}
