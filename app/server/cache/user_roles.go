// Package cache keeps short-lived copies of authorization data in redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"scaffold-api/app/server/constants"
	"scaffold-api/app/server/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RoleInfo is the authorization-relevant part of a user record.
type RoleInfo struct {
	Role     string `json:"role"`
	IsActive bool   `json:"isActive"`
}

// UserFinder loads a user record by id.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// UserRoles resolves the current role of a user, reading through redis when
// a client is configured.
type UserRoles struct {
	rdb   *redis.Client // 可以为 nil ，此时每次都查询数据库
	users UserFinder
	l     *zap.Logger
}

func NewUserRoles(rdb *redis.Client, users UserFinder, l *zap.Logger) *UserRoles {
	return &UserRoles{rdb: rdb, users: users, l: l}
}

// Lookup returns the role information of user id. Errors of the finder (such
// as not-found) are returned unchanged.
func (r *UserRoles) Lookup(ctx context.Context, id string) (*RoleInfo, error) {
	cacheKey := fmt.Sprintf(constants.CacheKeyUserRole, id)

	// 查询缓存
	if r.rdb != nil {
		if cacheBytes, err := r.rdb.Get(ctx, cacheKey).Bytes(); err != nil {
			if !errors.Is(err, redis.Nil) {
				r.l.Error("failed to query cache for user role", zap.String("id", id), zap.Error(err))
			}
		} else {
			var info RoleInfo
			if err = json.Unmarshal(cacheBytes, &info); err != nil {
				r.l.Error("failed to unmarshal user role", zap.String("id", id), zap.ByteString("cacheBytes", cacheBytes), zap.Error(err))
				// 可能是无效的缓存，清理掉
				r.rdb.Del(ctx, cacheKey)
			} else {
				return &info, nil
			}
		}
	}

	// 查询数据库
	user, err := r.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	info := &RoleInfo{Role: user.Role, IsActive: user.IsActive}

	// 加入缓存，方便下一次查询
	if r.rdb != nil {
		if cacheBytes, err := json.Marshal(info); err != nil {
			r.l.Error("failed to marshal user role", zap.String("id", id), zap.Error(err))
		} else if err = r.rdb.Set(ctx, cacheKey, cacheBytes, constants.CacheExpireUserRole).Err(); err != nil {
			r.l.Error("failed to cache user role", zap.String("id", id), zap.Error(err))
		}
	}

	return info, nil
}

// Invalidate drops the cached entry of user id.
func (r *UserRoles) Invalidate(ctx context.Context, id string) {
	if r.rdb == nil {
		return
	}
	if err := r.rdb.Del(ctx, fmt.Sprintf(constants.CacheKeyUserRole, id)).Err(); err != nil {
		r.l.Error("failed to invalidate user role", zap.String("id", id), zap.Error(err))
	}
}
