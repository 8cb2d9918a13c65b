package models

import "time"

const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

// Roles lists every role a user record may carry.
var Roles = []string{RoleUser, RoleAdmin, RoleModerator}

type User struct {
	ID string `gorm:"column:id;primaryKey;size:36"` // UUID ，创建时生成，不可修改

	// 基础信息
	Username     string  `gorm:"column:username;size:30;uniqueIndex;not null"` // 用户名，全局唯一
	Email        string  `gorm:"column:email;size:255;uniqueIndex;not null"`   // 邮箱，全局唯一，小写储存
	FirstName    string  `gorm:"column:first_name;size:50"`
	LastName     string  `gorm:"column:last_name;size:50"`
	ProfileImage *string `gorm:"column:profile_image"`

	// 权限与状态
	Role     string `gorm:"column:role;size:16;not null;index"` // user / admin / moderator
	IsActive bool   `gorm:"column:is_active;not null"`

	// 登录与授权认证相关
	PasswordHash string     `gorm:"column:password_hash;not null" json:"-"` // 密码哈希，绝不输出
	LastLogin    *time.Time `gorm:"column:last_login"`                      // 只由登录记录更新

	CreatedAt time.Time `gorm:"column:created_at;index"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}

// PublicProfile is the projection of a user record that is safe to expose.
type PublicProfile struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"isActive"`
	ProfileImage *string    `json:"profileImage"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLogin    *time.Time `json:"lastLogin"`
}

func (u *User) PublicProfile() PublicProfile {
	return PublicProfile{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Role:         u.Role,
		IsActive:     u.IsActive,
		ProfileImage: u.ProfileImage,
		CreatedAt:    u.CreatedAt,
		LastLogin:    u.LastLogin,
	}
}

func PublicProfiles(users []User) []PublicProfile {
	res := make([]PublicProfile, 0, len(users))
	for i := range users {
		res = append(res, users[i].PublicProfile())
	}
	return res
}

func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}
