package web

import (
	"errors"
	"net/http"

	"github.com/assetdesk/assetdesk/internal/client"
	"github.com/assetdesk/assetdesk/internal/config"
	"github.com/assetdesk/assetdesk/internal/importer"
	"github.com/assetdesk/assetdesk/internal/inventory"
)

// importRedirect returns where to go after an import: back to the
// dashboard when the upload came from there, the inventory otherwise.
func importRedirect(r *http.Request) string {
	if r.FormValue("next") == "/" {
		return "/"
	}
	return "/inventory"
}

// ImportSubmit handles POST /import. The upload is checked before it is
// forwarded to the backend. Afterwards the list is refetched or the created
// items are appended, depending on the import policy.
func (s *Server) ImportSubmit(w http.ResponseWriter, r *http.Request, sess *session) {
	r.Body = http.MaxBytesReader(w, r.Body, importer.MaxFileSize+64<<10)
	if err := r.ParseMultipartForm(importer.MaxFileSize); err != nil {
		var tooLarge *http.MaxBytesError
		msg := "The upload could not be read."
		if errors.As(err, &tooLarge) {
			msg = "The file is larger than the 5 MiB limit."
		}
		sess.setFlash(inventory.ErrorNotice("Upload rejected", msg))
		http.Redirect(w, r, importRedirect(r), http.StatusSeeOther)
		return
	}
	next := importRedirect(r)

	file, header, err := r.FormFile("file")
	if err != nil {
		sess.setFlash(inventory.ErrorNotice("Upload rejected", "Choose a CSV or XLSX file."))
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if err := importer.CheckUpload(header.Filename, contentType, header.Size); err != nil {
		sess.setFlash(inventory.ErrorNotice("Upload rejected", err.Error()))
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = importer.ContentType(header.Filename)
	}

	result, err := sess.api.ImportItems(r.Context(), header.Filename, contentType, file)
	if err != nil {
		s.backendFailed(w, r, sess, "Import failed", err, next)
		return
	}

	if s.cfg.ImportPolicy == config.PolicyAppend {
		sess.view.Append(result.Created...)
	} else if st := s.refreshInventory(r.Context(), sess); client.IsUnauthorized(st.Err) {
		s.endSession(w, r, sess)
		return
	}

	s.logger.Info("items imported", "user", sess.user.Email, "file", header.Filename,
		"created", len(result.Created), "errors", len(result.Errors), "policy", s.cfg.ImportPolicy)

	sess.mu.Lock()
	notice := inventory.ImportNotice(*result)
	sess.flash = &notice
	sess.importErrors = result.Errors
	sess.mu.Unlock()
	http.Redirect(w, r, next, http.StatusSeeOther)
}
