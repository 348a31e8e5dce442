package server

import (
	_ "embed"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed openapi.yml
var openAPISpec []byte

const mimeYAML = "application/yaml"

// serveOpenAPISpec handles GET /api/openapi.yml.
func (s *Server) serveOpenAPISpec(ctx echo.Context) error {
	return ctx.Blob(http.StatusOK, mimeYAML, openAPISpec)
}
