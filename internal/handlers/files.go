package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"securevault/internal/middleware"
	"securevault/internal/models"
	"securevault/internal/store"
	"securevault/internal/validator"
)

func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes+1024)
	if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "upload too large")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unreadable upload")
		return
	}
	if err := validator.ValidateUpload(content, header.Filename, h.cfg.MaxUploadBytes); err != nil {
		h.audit.Record(r.Context(), store.AuditEntryInput{
			ActorUserID: &user.ID,
			Username:    user.Username,
			Action:      models.AuditValidationFailed,
			Detail:      "file upload rejected",
			Status:      models.AuditFailed,
		})
		respondClassified(w, err)
		return
	}
	digest := sha256.Sum256(content)
	input := store.UploadInput{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		StoredName:   validator.StoredFilename(header.Filename),
		OriginalName: header.Filename,
		Extension:    strings.ToLower(path.Ext(header.Filename)),
		SizeBytes:    int64(len(content)),
		SHA256:       hex.EncodeToString(digest[:]),
	}
	if err := h.uploads.Create(r.Context(), h.db, input); err != nil {
		respondError(w, http.StatusInternalServerError, "upload failed")
		return
	}
	h.audit.Record(r.Context(), store.AuditEntryInput{
		ActorUserID: &user.ID,
		Username:    user.Username,
		Action:      models.AuditFileUpload,
		Detail:      "file uploaded as " + input.StoredName,
	})
	respondJSON(w, http.StatusCreated, map[string]any{
		"id":          input.ID,
		"stored_name": input.StoredName,
		"sha256":      input.SHA256,
	})
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	files, err := h.uploads.ListByUser(r.Context(), h.db, user.ID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list files")
		return
	}
	respondJSON(w, http.StatusOK, files)
}
