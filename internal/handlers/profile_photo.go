package handlers

import (
	"bytes"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/yovohub/hub/internal/logging"
	"github.com/yovohub/hub/internal/models"
	"github.com/yovohub/hub/internal/storage"
)

const maxPhotoBytes = 2 << 20

var photoExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
}

type PhotoResponse struct {
	Success bool   `json:"success"`
	Photo   string `json:"photo"`
	Message string `json:"message"`
}

// UploadPhoto replaces the profile photo with a multipart "photo" file.
func (h *AuthHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes+(64<<10))
	file, _, err := r.FormFile("photo")
	if err != nil {
		writeFieldError(w, "photo", "A JPEG or PNG photo of at most 2MB is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes+1))
	if err != nil {
		writeFieldError(w, "photo", "A JPEG or PNG photo of at most 2MB is required")
		return
	}
	h.savePhoto(w, r, user, data, "Photo de profil mise à jour avec succès")
}

// CapturePhoto replaces the profile photo with a base64 camera capture.
func (h *AuthHandler) CapturePhoto(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		PhotoData string `json:"photo_data"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes*2)
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PhotoData == "" {
		writeFieldError(w, "photo_data", "photo_data is required")
		return
	}

	data, err := decodeDataURL(req.PhotoData)
	if err != nil {
		writeFieldError(w, "photo_data", "photo_data must be a base64 encoded image")
		return
	}
	h.savePhoto(w, r, user, data, "Photo de profil capturée avec succès")
}

// decodeDataURL accepts either a data URL or bare base64.
func decodeDataURL(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		_, payload, ok := strings.Cut(s, ",")
		if !ok {
			return nil, errors.New("malformed data URL")
		}
		s = payload
	}
	// Form encoding turns '+' into spaces.
	s = strings.ReplaceAll(s, " ", "+")
	return base64.StdEncoding.DecodeString(s)
}

func (h *AuthHandler) savePhoto(w http.ResponseWriter, r *http.Request, user *models.User, data []byte, message string) {
	if len(data) == 0 || len(data) > maxPhotoBytes {
		writeFieldError(w, "photo", "A JPEG or PNG photo of at most 2MB is required")
		return
	}
	contentType := http.DetectContentType(data)
	ext, ok := photoExtensions[contentType]
	if !ok {
		writeFieldError(w, "photo", "A JPEG or PNG photo of at most 2MB is required")
		return
	}

	ctx := r.Context()
	key := storage.PhotoKey(user.ID, ext)
	if err := h.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		writeInternalError(w, r, "Error storing profile photo", err)
		return
	}

	previous, err := h.userService.UpdatePhoto(ctx, user.ID, key)
	if err != nil {
		if rmErr := h.store.Remove(ctx, key); rmErr != nil {
			logging.FromContext(ctx).Warn("Failed to remove orphaned photo", logging.Fields{"key": key, "error": rmErr.Error()})
		}
		writeInternalError(w, r, "Error updating profile photo", err)
		return
	}
	if previous != nil && *previous != "" && *previous != key {
		if err := h.store.Remove(ctx, *previous); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			logging.FromContext(ctx).Warn("Failed to remove previous photo", logging.Fields{"key": *previous, "error": err.Error()})
		}
	}

	url, err := h.store.URL(ctx, key)
	if err != nil {
		writeInternalError(w, r, "Error resolving photo URL", err)
		return
	}
	writeJSON(w, http.StatusOK, PhotoResponse{Success: true, Photo: url, Message: message})
}
