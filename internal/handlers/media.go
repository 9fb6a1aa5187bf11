package handlers

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"refyn-backend/internal/middleware"
	"refyn-backend/internal/models"
	"refyn-backend/internal/repository"
	"refyn-backend/internal/services"
)

type MediaHandler struct {
	mediaRepo   mediaRepository
	userRepo    *repository.UserRepo
	plans       *services.PlanService
	storagePath string
}

type mediaRepository interface {
	Create(ctx context.Context, m *models.MediaFile) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.MediaFile, error)
	ListByUser(ctx context.Context, userID uuid.UUID, kind string, limit, offset int) ([]*models.MediaFile, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

func NewMediaHandler(mediaRepo mediaRepository, userRepo *repository.UserRepo, plans *services.PlanService, storagePath string) *MediaHandler {
	return &MediaHandler{
		mediaRepo:   mediaRepo,
		userRepo:    userRepo,
		plans:       plans,
		storagePath: storagePath,
	}
}

var allowedUploadMimes = map[string]bool{
	"image/jpeg":                true,
	"image/png":                 true,
	"image/webp":                true,
	"image/gif":                 true,
	"audio/mpeg":                true,
	"audio/wav":                 true,
	"audio/wave":                true,
	"audio/x-wav":               true,
	"audio/ogg":                 true,
	"video/mp4":                 true,
	"video/webm":                true,
	"application/pdf":           true,
	"text/plain; charset=utf-8": true,
	"application/zip":           true, // docx detects as zip
	"application/octet-stream":  true, // checked against extension below
}

var allowedUploadExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true,
	".mp3": true, ".wav": true, ".ogg": true,
	".mp4": true, ".webm": true,
	".pdf": true, ".txt": true, ".md": true, ".docx": true,
}

func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load user", r))
		return
	}

	maxBytes := services.LimitsFor(user.Plan).MaxUploadBytes
	if r.ContentLength > maxBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "File exceeds your plan's upload limit", r))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "No file provided", r))
		return
	}
	defer file.Close()

	if err := h.plans.CheckUploadAllowed(r.Context(), user, header.Size); err != nil {
		handleServiceError(w, r, err)
		return
	}

	// Read first 512 bytes for magic byte check
	buf := make([]byte, 512)
	n, _ := file.Read(buf)
	buf = buf[:n]

	mimeType := http.DetectContentType(buf)
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedUploadMimes[mimeType] || !allowedUploadExts[ext] {
		writeJSON(w, http.StatusUnsupportedMediaType, errorResp("UNSUPPORTED_FORMAT", "File type not supported", r))
		return
	}
	if mimeType == "application/zip" && ext != ".docx" {
		writeJSON(w, http.StatusUnsupportedMediaType, errorResp("UNSUPPORTED_FORMAT", "File type not supported", r))
		return
	}

	// Reset file reader
	file.Seek(0, io.SeekStart)

	fileID := uuid.New().String()
	relPath := filepath.Join("users", userID.String(), "uploads", fileID+ext)
	fullPath := filepath.Join(h.storagePath, relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to store file", r))
		return
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to store file", r))
		return
	}
	written, err := io.Copy(dst, file)
	dst.Close()
	if err != nil {
		os.Remove(fullPath)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to store file", r))
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}

	media := &models.MediaFile{
		UserID:       userID,
		Kind:         models.MediaKindForMime(mimeType),
		Status:       models.MediaPending,
		FilePath:     fullPath,
		OriginalName: header.Filename,
		MimeType:     mimeType,
		SizeBytes:    written,
		Title:        title,
	}
	if err := h.mediaRepo.Create(r.Context(), media); err != nil {
		os.Remove(fullPath)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create media record", r))
		return
	}

	writeJSON(w, http.StatusCreated, media)
}

func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	kind := r.URL.Query().Get("kind")
	limit, offset := paginationParams(r)

	files, total, err := h.mediaRepo.ListByUser(r.Context(), userID, kind, limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list media", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"media":  files,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	media, ok := h.ownedMedia(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, media)
}

// ServeFile streams the raw uploaded file back to its owner.
func (h *MediaHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	media, ok := h.ownedMedia(w, r)
	if !ok {
		return
	}

	f, err := os.Open(media.FilePath)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "File is no longer available", r))
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", media.MimeType)
	w.Header().Set("Content-Disposition", `inline; filename="`+media.OriginalName+`"`)
	io.Copy(w, f)
}

func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	media, ok := h.ownedMedia(w, r)
	if !ok {
		return
	}

	if err := h.mediaRepo.Delete(r.Context(), media.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete media", r))
		return
	}
	os.Remove(media.FilePath)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Media deleted"})
}

func (h *MediaHandler) ownedMedia(w http.ResponseWriter, r *http.Request) (*models.MediaFile, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid media ID", r))
		return nil, false
	}

	media, err := h.mediaRepo.GetByID(r.Context(), id)
	if err != nil || media.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Media not found", r))
		return nil, false
	}
	return media, true
}
