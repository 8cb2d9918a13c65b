package store

import (
	"context"
	"errors"
	"fmt"
	"scaffold-api/app/server/models"
	"scaffold-api/app/server/password"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NewUser struct {
	Username     string
	Email        string
	Password     string
	FirstName    string
	LastName     string
	Role         string // 留空则为 user
	ProfileImage *string
}

// UserPatch holds the fields an update may change. Nil means unchanged.
type UserPatch struct {
	Username     *string
	Email        *string
	FirstName    *string
	LastName     *string
	Role         *string
	IsActive     *bool
	ProfileImage *string // 空字符串表示清除
}

func (s *UserStore) Create(ctx context.Context, in NewUser) (*models.User, error) {
	now := s.now()

	user := models.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		ProfileImage: emptyToNil(in.ProfileImage),
		Role:         in.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	normalize(&user)

	if err := s.validateRecord(&user, &in.Password); err != nil {
		return nil, err
	}

	// 显式检查重复，唯一索引兜底并发写入
	if exists, err := s.Exists(ctx, user.Email, user.Username); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrDuplicateIdentity
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return &user, nil
}

// Exists reports whether a record already uses email (case-insensitively) or username.
func (s *UserStore) Exists(ctx context.Context, email, username string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ? OR username = ?", strings.ToLower(strings.TrimSpace(email)), strings.TrimSpace(username)).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return count > 0, nil
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	return &user, nil
}

// FindByEmailOrUsername matches identifier against the lower-cased email or
// the exact username.
func (s *UserStore) FindByEmailOrUsername(ctx context.Context, identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrNotFound
	}

	var user models.User
	if err := s.db.WithContext(ctx).
		Where("email = ? OR username = ?", strings.ToLower(identifier), identifier).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user by identifier: %w", err)
	}
	return &user, nil
}

// Update applies patch atomically: every field is validated before anything
// is written. id, timestamps and the password hash are never touched here.
func (s *UserStore) Update(ctx context.Context, id string, patch UserPatch) (*models.User, error) {
	var updated models.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.User
		if err := tx.First(&current, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("find user %s: %w", id, err)
		}

		next := current
		applyPatch(&next, patch)
		normalize(&next)

		if err := s.validateRecord(&next, nil); err != nil {
			return err
		}

		columns := changedColumns(&current, &next)
		if len(columns) == 0 {
			updated = current
			return nil
		}

		if next.Username != current.Username || next.Email != current.Email {
			var count int64
			if err := tx.Model(&models.User{}).
				Where("(email = ? OR username = ?) AND id <> ?", next.Email, next.Username, id).
				Count(&count).Error; err != nil {
				return fmt.Errorf("count users: %w", err)
			}
			if count > 0 {
				return ErrDuplicateIdentity
			}
		}

		if err := tx.Model(&models.User{ID: id}).Updates(columns).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateIdentity
			}
			return fmt.Errorf("update user %s: %w", id, err)
		}

		return tx.First(&updated, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// UpdatePassword replaces the stored hash with one derived from plain.
func (s *UserStore) UpdatePassword(ctx context.Context, id, plain string) error {
	var violations []FieldViolation
	if err := s.collect(passwordField{Password: plain}, &violations); err != nil {
		return err
	}
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}

	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("password_hash", hash)
	if res.Error != nil {
		return fmt.Errorf("update password %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the record permanently.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete user %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ComparePassword reports whether candidate matches the stored hash. A
// mismatch is not an error.
func (s *UserStore) ComparePassword(user *models.User, candidate string) (bool, error) {
	match, err := password.Compare(user.PasswordHash, candidate)
	if err != nil {
		return false, fmt.Errorf("compare password: %w", err)
	}
	return match, nil
}

// RecordLogin stamps lastLogin with the current time.
func (s *UserStore) RecordLogin(ctx context.Context, id string) (time.Time, error) {
	now := s.now()

	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login", now)
	if res.Error != nil {
		return time.Time{}, fmt.Errorf("record login %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return time.Time{}, ErrNotFound
	}
	return now, nil
}

func applyPatch(u *models.User, p UserPatch) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}
	if p.ProfileImage != nil {
		u.ProfileImage = emptyToNil(p.ProfileImage)
	}
}

func changedColumns(before, after *models.User) map[string]any {
	columns := make(map[string]any)
	if before.Username != after.Username {
		columns["username"] = after.Username
	}
	if before.Email != after.Email {
		columns["email"] = after.Email
	}
	if before.FirstName != after.FirstName {
		columns["first_name"] = after.FirstName
	}
	if before.LastName != after.LastName {
		columns["last_name"] = after.LastName
	}
	if before.Role != after.Role {
		columns["role"] = after.Role
	}
	if before.IsActive != after.IsActive {
		columns["is_active"] = after.IsActive
	}
	if !equalStringPtr(before.ProfileImage, after.ProfileImage) {
		columns["profile_image"] = after.ProfileImage
	}
	return columns
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
