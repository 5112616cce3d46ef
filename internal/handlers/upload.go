package handlers

import (
	"net/http"
	"strings"

	"velora_back_end/internal/storage"

	"github.com/gin-gonic/gin"
)

const maxUploadSize = 5 << 20 // 5 Mo

// UploadHandler pousse les images produits dans MinIO
type UploadHandler struct {
	store *storage.ObjectStore
}

func NewUploadHandler(store *storage.ObjectStore) *UploadHandler {
	return &UploadHandler{store: store}
}

func (h *UploadHandler) UploadImage(c *gin.Context) {
	if !h.store.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Stockage d'images non configuré"})
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier image requis (champ 'image')"})
		return
	}
	if file.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image trop volumineuse (5 Mo max)"})
		return
	}
	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le fichier doit être une image"})
		return
	}

	url, err := h.store.UploadImage(c.Request.Context(), file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
