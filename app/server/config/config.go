package config

import "time"

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

type Config struct {
	System struct {
		Environment           string // 运行环境： development / production / test
		IsProd                bool   // 是否为生产环境
		Listen                string // 监听地址
		LogLevel              string // 日志等级，silent 表示不输出
		DBDriver              string // 数据库驱动： postgres / sqlite
		DBConnectionString    string // 数据库的连接字符串
		RedisConnectionString string // Redis 的连接 URL ，留空则不启用角色缓存
		FrontendURL           string // 前端地址，用于 CORS
	}
	Security struct {
		SignatureSecretKey string        // 签名密钥，用于签发 JWT ，更新会导致旧有会话失效
		TokenTTL           time.Duration // JWT 有效期
		PasswordHasher     string        // 新密码使用的哈希算法： bcrypt / argon2id
		InitAdminPassword  string        // 用户表为空时创建的 admin 账户密码，留空则不创建
	}
}
