package web

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/ar1701/demo-tedx/internal/server/models"
	"github.com/ar1701/demo-tedx/internal/server/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// dobDisplayLayout is how dates of birth are shown to the user.
const dobDisplayLayout = "Jan 02 2006"

// pageData is the single shape every template receives; unused fields stay nil.
type pageData struct {
	Notice       *session.Notice
	Identity     *models.Identity
	Profile      *models.Profile
	FormattedDOB string
}

func parseTemplates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

// render executes the named page template, attaching the session's pending
// notice (consuming it).
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data pageData) {
	if sess := sessionFrom(r); sess != nil {
		if n, ok := sess.PopNotice(); ok {
			data.Notice = &n
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error(r.Context(), "error rendering template", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
