package handlers

import (
	"net/http"

	"github.com/maplequest/maplequest-backend/internal/config"
	"github.com/maplequest/maplequest-backend/internal/services"
	"github.com/maplequest/maplequest-backend/pkg/apierror"
)

var cloudinaryService *services.CloudinaryService

func InitCloudinaryService(cfg *config.Config) error {
	service, err := services.NewCloudinaryService(
		cfg.CloudinaryName,
		cfg.CloudinaryAPIKey,
		cfg.CloudinaryAPISecret,
	)
	if err != nil {
		return err
	}
	cloudinaryService = service
	return nil
}

type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
}

// UploadImage uploads a photo and returns its public URL. The caller then
// attaches the URL to a visit via the check-in endpoint.
func UploadImage(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(r)
	if !ok {
		writeError(w, apierror.ErrUnauthorized)
		return
	}

	if cloudinaryService == nil {
		writeError(w, apierror.New("UPLOADS_UNAVAILABLE", "File uploads are not available", http.StatusServiceUnavailable))
		return
	}

	// Max 10MB
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, apierror.Validation("Invalid multipart form"))
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, apierror.Validation("No file provided"))
		return
	}
	defer file.Close()

	// Per-user folder, mirroring how seed images are organized
	folder := "visits/" + actor.String()

	url, err := cloudinaryService.UploadFileFromHeader(r.Context(), fileHeader, folder)
	if err != nil {
		writeError(w, apierror.Wrap(err, "UPLOAD_FAILED", "Failed to upload file", http.StatusInternalServerError))
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		Success: true,
		Message: "File uploaded successfully",
		URL:     url,
	})
}
