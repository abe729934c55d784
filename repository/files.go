package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pawanx64/File-Sharing-Backend/models"
)

type FileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Create(ctx context.Context, f *models.File) error {
	return translate(r.db.WithContext(ctx).Create(f).Error)
}

func (r *FileRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.File, error) {
	var file models.File
	if err := r.db.WithContext(ctx).First(&file, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &file, nil
}

// FindOwned looks a file up by id and owner together, so a file owned by
// someone else is indistinguishable from a missing one.
func (r *FileRepository) FindOwned(ctx context.Context, id, owner uuid.UUID) (*models.File, error) {
	var file models.File
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, owner).
		First(&file).Error; err != nil {
		return nil, translate(err)
	}
	return &file, nil
}

// ListByOwner returns the owner's files, newest upload first.
func (r *FileRepository) ListByOwner(ctx context.Context, owner uuid.UUID) ([]models.File, error) {
	files := []models.File{}
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", owner).
		Order("upload_time DESC").
		Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

// DeleteOwned removes the record and its download history. ErrNotFound
// means another request removed it first, or it was never the owner's.
func (r *FileRepository) DeleteOwned(ctx context.Context, id, owner uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, owner).Delete(&models.File{})
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("file_id = ?", id).Delete(&models.DownloadEvent{}).Error
	})
}

// ListAll returns the id, public id and upload time of every record.
func (r *FileRepository) ListAll(ctx context.Context) ([]models.File, error) {
	var files []models.File
	if err := r.db.WithContext(ctx).
		Select("id", "public_id", "upload_time").
		Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

func (r *FileRepository) RecordDownload(ctx context.Context, ev *models.DownloadEvent) error {
	return translate(r.db.WithContext(ctx).Create(ev).Error)
}

func (r *FileRepository) CountDownloads(ctx context.Context, fileID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.DownloadEvent{}).Where("file_id = ?", fileID).Count(&n).Error
	return n, err
}
