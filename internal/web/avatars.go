package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/assetdesk/assetdesk/internal/avatar"
)

// Avatar handles GET /avatars/{file}, where file is "<initials>.png".
// The optional s parameter sets the edge length in pixels.
func (s *Server) Avatar(w http.ResponseWriter, r *http.Request) {
	initials, ok := strings.CutSuffix(r.PathValue("file"), ".png")
	if !ok || initials == "" {
		http.NotFound(w, r)
		return
	}

	size := avatar.DefaultSize
	if v := r.URL.Query().Get("s"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid size", http.StatusBadRequest)
			return
		}
		size = n
	}

	data, err := avatar.Render(initials, size)
	if err != nil {
		s.logger.Error("failed to render avatar", "initials", initials, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(data)
}
