package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DownloadEvent records one fetch of a file's download info.
type DownloadEvent struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	FileID    uuid.UUID `gorm:"type:uuid;index;not null"`
	File      File      `gorm:"foreignKey:FileID;constraint:OnDelete:CASCADE"`
	IPAddress string
	UserAgent string
	CreatedAt time.Time
}

func (e *DownloadEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
