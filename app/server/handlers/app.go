package handlers

import (
	"scaffold-api/app/server/cache"
	"scaffold-api/app/server/config"
	"scaffold-api/app/server/jwt"
	"scaffold-api/app/server/store"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	l     *zap.Logger      // 日志
	db    *gorm.DB         // 数据库，只用于健康检查
	rdb   *redis.Client    // Redis ，可以为 nil
	jwt   *jwt.JWT         // JWT ，用于无状态验证
	users *store.UserStore // 用户数据
	roles *cache.UserRoles // 用户当前角色（带缓存）

	env     string
	isProd  bool
	started time.Time
}

func NewApp(l *zap.Logger, db *gorm.DB, rdb *redis.Client, j *jwt.JWT, users *store.UserStore, roles *cache.UserRoles, cfg *config.Config) *App {
	return &App{
		l:       l,
		db:      db,
		rdb:     rdb,
		jwt:     j,
		users:   users,
		roles:   roles,
		env:     cfg.System.Environment,
		isProd:  cfg.System.IsProd,
		started: time.Now(),
	}
}
