package inits

import (
	"context"
	"fmt"
	"scaffold-api/app/server/models"
	"scaffold-api/app/server/password"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func DB(driver, conn string, quiet bool) (db *gorm.DB, err error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(conn)
	case "sqlite":
		dialector = sqlite.Open(conn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	gormCfg := &gorm.Config{
		TranslateError: true, // 将唯一约束冲突翻译为 gorm.ErrDuplicatedKey
	}
	if quiet {
		gormCfg.Logger = logger.Default.LogMode(logger.Silent)
	}

	// 打开连接
	if db, err = gorm.Open(dialector, gormCfg); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 迁移
	if err = Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// 返回
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
	)
}

// SeedAdmin creates an admin account when the users table is empty. It does
// nothing when adminPassword is empty. It reports whether a record was created.
func SeedAdmin(ctx context.Context, db *gorm.DB, hasher password.Hasher, adminPassword string) (bool, error) {
	if adminPassword == "" {
		return false, nil
	}

	// 查询现有记录数量
	var counter int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&counter).Error; err != nil {
		return false, fmt.Errorf("failed to get user count: %w", err)
	} else if counter > 0 {
		return false, nil
	}

	if len(adminPassword) > password.MaxBytes {
		return false, fmt.Errorf("admin password exceeds %d bytes", password.MaxBytes)
	}

	// 创建密码
	hash, err := hasher.Hash(adminPassword)
	if err != nil {
		return false, fmt.Errorf("failed to generate password: %w", err)
	}

	// 插入记录
	now := time.Now()
	if err = db.WithContext(ctx).Create(&models.User{
		ID:           uuid.NewString(),
		Username:     "admin",
		Email:        "admin@localhost.localdomain",
		FirstName:    "Scaffold",
		LastName:     "Admin",
		Role:         models.RoleAdmin,
		IsActive:     true,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}).Error; err != nil {
		return false, fmt.Errorf("failed to create admin user: %w", err)
	}

	return true, nil
}
