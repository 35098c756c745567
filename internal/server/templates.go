package server

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spigell/jobmatch/internal/errors"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

func (s *Server) render(c *fiber.Ctx, name string, data any) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return apperrors.Internal("rendering "+name, err)
	}

	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}
