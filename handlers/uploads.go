package handlers

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/zedemy/zedemy/backend/go-services/internal/slug"
	"github.com/zedemy/zedemy/backend/go-services/internal/storage"
)

// UploadHandler stores post media (title images, bullet point images,
// videos) and returns their public URL.
type UploadHandler struct {
	Store   storage.ObjectStore
	MaxSize int64
}

var uploadTypes = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".svg": true,
	".mp4": true, ".webm": true,
}

func (h *UploadHandler) Register(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	rg.POST("/uploads", auth, h.Upload)
}

func (h *UploadHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "No file uploaded")
		return
	}
	if h.MaxSize > 0 && fh.Size > h.MaxSize {
		badRequest(c, "File too large")
		return
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !uploadTypes[ext] {
		badRequest(c, "Unsupported file type")
		return
	}
	ctype := fh.Header.Get("Content-Type")
	if ctype == "" || ctype == "application/octet-stream" {
		if t := mime.TypeByExtension(ext); t != "" {
			ctype = t
		}
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, err, "")
		return
	}
	defer f.Close()

	base := slug.Fallback(strings.TrimSuffix(fh.Filename, filepath.Ext(fh.Filename)), "file")
	key := "uploads/" + uuid.NewString() + "_" + base + ext
	if err := h.Store.Put(c.Request.Context(), key, f, fh.Size, ctype); err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": h.Store.PublicURL(key), "key": key})
}
