package store

import (
	"context"

	"securevault/internal/models"
)

type UploadStore struct {
	db DB
}

func NewUploadStore(db DB) *UploadStore {
	return &UploadStore{db: db}
}

type UploadInput struct {
	ID           string
	UserID       string
	StoredName   string
	OriginalName string
	Extension    string
	SizeBytes    int64
	SHA256       string
}

func (s *UploadStore) Create(ctx context.Context, tx Execer, input UploadInput) error {
	query := `
		INSERT INTO uploaded_files (id, user_id, stored_name, original_name, extension, size_bytes, sha256)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.UserID, input.StoredName, input.OriginalName, input.Extension, input.SizeBytes, input.SHA256)
	return err
}

func (s *UploadStore) ListByUser(ctx context.Context, q Selecter, userID string, limit, offset int) ([]models.UploadedFile, error) {
	var rows []models.UploadedFile
	err := q.SelectContext(ctx, &rows, `
		SELECT id, user_id, stored_name, original_name, extension, size_bytes, sha256, created_at
		FROM uploaded_files
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return rows, err
}
