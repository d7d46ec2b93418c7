package handlers

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"p9e.in/sitebook/pkg/blob"
	"p9e.in/sitebook/pkg/metrics"
)

type UploadHandler struct {
	Deps
}

func NewUploadHandler(d Deps) *UploadHandler {
	return &UploadHandler{Deps: d}
}

// UploadImages stores the "files" parts of a multipart form under the
// "folder" field and returns their URLs in upload order.
func (h *UploadHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	// Parse the multipart form (max 50MB)
	if err := r.ParseMultipartForm(50 << 20); err != nil {
		badRequest(w, "bad multipart form: "+err.Error())
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		badRequest(w, "missing files field")
		return
	}
	if h.MaxFiles > 0 && len(files) > h.MaxFiles {
		badRequest(w, fmt.Sprintf("at most %d images per upload", h.MaxFiles))
		return
	}
	folder := r.FormValue("folder")
	if folder == "" {
		folder = "uploads"
	}

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		contentType := fh.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			badRequest(w, fmt.Sprintf("%s is not an image", path.Base(fh.Filename)))
			return
		}
		f, err := fh.Open()
		if err != nil {
			badRequest(w, "cannot read "+fh.Filename)
			return
		}
		url, err := h.Blobs.Put(r.Context(), blob.Key(folder, fh.Filename, h.now()), f, contentType)
		f.Close()
		if err != nil {
			metrics.Uploads.WithLabelValues(h.Blobs.Driver(), "failed").Inc()
			h.fail(w, r, "Upload failed", err)
			return
		}
		metrics.Uploads.WithLabelValues(h.Blobs.Driver(), "ok").Inc()
		urls = append(urls, url)
	}

	h.Log.Info("uploaded images", "folder", folder, "count", len(urls), "driver", h.Blobs.Driver())
	h.Notifier.Success("Upload complete", fmt.Sprintf("%d image(s)", len(urls)))
	writeJSON(w, http.StatusCreated, map[string]interface{}{"urls": urls})
}
