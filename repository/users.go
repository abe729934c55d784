package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pawanx64/File-Sharing-Backend/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts u. A taken e-mail yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	return translate(r.db.WithContext(ctx).Create(u).Error)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("password_hash", hash)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetOTP overwrites any previous code. Both columns are written from the
// model so the pair never goes out of step.
func (r *UserRepository) SetOTP(ctx context.Context, id uuid.UUID, otp models.OTP) error {
	user := models.User{ID: id}
	user.SetOTP(otp)

	res := r.db.WithContext(ctx).Model(&user).
		Select("otp", "otp_expires").
		Updates(&user)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetPassword replaces the hash and clears the OTP in one statement, but
// only while the user still holds a code that is valid at now. Otherwise it
// returns ErrNotFound and changes nothing.
func (r *UserRepository) ResetPassword(ctx context.Context, id uuid.UUID, hash string, now time.Time) error {
	update := models.User{PasswordHash: hash}
	update.ClearOTP()

	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND otp IS NOT NULL AND otp_expires > ?", id, now).
		Select("password_hash", "otp", "otp_expires").
		Updates(&update)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
