package controller

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unclebandit/membercast/internal/importer"
	"github.com/unclebandit/membercast/internal/service"
	"github.com/unclebandit/membercast/internal/session"
)

const defaultMaxUpload = 10 << 20

// ImportController runs the two-step import: a preview stored in the
// session store, then a commit with the user's duplicate choice.
type ImportController struct {
	MemberService  *service.MemberService
	Sessions       session.Store
	MaxUploadBytes int64
	Logger         *zap.Logger
}

func (c *ImportController) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

type previewResponse struct {
	SessionID string `json:"session_id"`
	importer.Result
}

func (c *ImportController) savePreview(w http.ResponseWriter, r *http.Request, filename string, res importer.Result) {
	p := session.NewPreview(filename, res)
	if err := c.Sessions.Save(r.Context(), p); err != nil {
		c.logger().Error("save import preview", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, previewResponse{SessionID: p.ID, Result: res})
}

// UploadFile previews a multipart upload in the "file" field.
func (c *ImportController) UploadFile(w http.ResponseWriter, r *http.Request) {
	limit := c.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUpload
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	res, err := c.MemberService.PreviewFile(r.Context(), header.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}
	c.savePreview(w, r, header.Filename, res)
}

// ParseText previews pasted CSV text.
func (c *ImportController) ParseText(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	res, err := c.MemberService.PreviewText(r.Context(), body.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	c.savePreview(w, r, "", res)
}

// Commit writes a stored preview. The session is claimed before the import
// runs, so a repeated or concurrent commit of the same ID gets 404. If the
// import itself fails the preview is saved again for a retry.
func (c *ImportController) Commit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session")
	var body struct {
		DuplicateHandling string `json:"duplicate_handling"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
	}
	policy, err := importer.ParseDuplicateHandling(body.DuplicateHandling)
	if err != nil {
		writeError(w, err)
		return
	}

	p, err := c.Sessions.Take(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := c.MemberService.CommitImport(r.Context(), p.Result, policy)
	if err != nil {
		if serr := c.Sessions.Save(r.Context(), p); serr != nil {
			c.logger().Warn("restore import session", zap.String("session_id", id), zap.Error(serr))
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
