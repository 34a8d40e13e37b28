package db

import (
	"database/sql"
	"errors"
	"fmt"

	"viewtube/internal/models"
)

type BlobRepository struct {
	db *DB
}

func NewBlobRepository(db *DB) *BlobRepository {
	return &BlobRepository{db: db}
}

func (r *BlobRepository) Create(blob *models.Blob) error {
	_, err := r.db.Exec(
		`INSERT INTO blobs (id, kind, storage_path, mime_type, size_bytes, original_name, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		blob.ID, blob.Kind, blob.StoragePath, blob.MimeType, blob.SizeBytes, blob.OriginalName, blob.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating blob record: %w", err)
	}
	return nil
}

func (r *BlobRepository) FindByID(id string) (*models.Blob, error) {
	var b models.Blob

	err := r.db.QueryRow(
		`SELECT id, kind, storage_path, mime_type, size_bytes, original_name, created_at FROM blobs WHERE id = ?`,
		id,
	).Scan(&b.ID, &b.Kind, &b.StoragePath, &b.MimeType, &b.SizeBytes, &b.OriginalName, &b.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying blob: %w", err)
	}

	return &b, nil
}

func (r *BlobRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM blobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting blob record: %w", err)
	}
	return checkRowsAffected(result)
}
