package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// File is the metadata record of one uploaded blob. PublicID is the object
// store key; the bytes themselves live only in the store.
type File struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      *uuid.UUID `gorm:"type:uuid;index" json:"user,omitempty"`
	Filename    string     `gorm:"not null" json:"filename"`
	SecureURL   string     `gorm:"not null" json:"secure_url"`
	PublicID    string     `gorm:"column:public_id;uniqueIndex;not null" json:"public_id"`
	SizeInBytes int64      `gorm:"not null" json:"sizeInBytes"`
	ContentType string     `json:"contentType,omitempty"`
	UploadTime  time.Time  `gorm:"index" json:"uploadTime"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
}

func (f *File) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
