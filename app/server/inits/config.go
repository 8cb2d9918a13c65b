package inits

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"scaffold-api/app/server/config"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// 各环境的默认值
type envDefaults struct {
	listen   string
	logLevel string
	dbDriver string
	dbConn   string
	secret   string
	tokenTTL time.Duration
}

var defaults = map[string]envDefaults{
	config.EnvDevelopment: {
		listen:   ":3000",
		logLevel: "debug",
		dbDriver: "postgres",
		dbConn:   "postgres://localhost:5432/scaffold_dev?sslmode=disable",
		secret:   "dev-secret-key",
		tokenTTL: 24 * time.Hour,
	},
	config.EnvProduction: {
		listen:   ":8080",
		logLevel: "error",
		dbDriver: "postgres",
		tokenTTL: 1 * time.Hour,
	},
	config.EnvTest: {
		listen:   ":3001",
		logLevel: "silent",
		dbDriver: "sqlite",
		dbConn:   "file:scaffold_test?mode=memory&cache=shared",
		secret:   "test-secret-key",
		tokenTTL: 1 * time.Hour,
	},
}

// 生产环境必须显式提供的变量
var requiredInProd = []string{"DB_CONN", "SIGNATURE_SECRET_KEY", "FRONTEND_URL"}

func Config() (*config.Config, error) {
	// .env 文件可选
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &config.Config{}

	env, err := environment()
	if err != nil {
		return nil, err
	}
	d := defaults[env]

	cfg.System.Environment = env
	cfg.System.IsProd = env == config.EnvProduction

	if env == config.EnvProduction {
		var missing []string
		for _, key := range requiredInProd {
			if v, exist := os.LookupEnv(key); !exist || v == "" {
				missing = append(missing, key)
			}
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("missing required environment variables for %s: %s", env, strings.Join(missing, ", "))
		}
	}

	cfg.System.Listen = lookup("LISTEN", d.listen)
	cfg.System.LogLevel = strings.ToLower(lookup("LOG_LEVEL", d.logLevel))
	cfg.System.DBDriver = strings.ToLower(lookup("DB_DRIVER", d.dbDriver))
	cfg.System.DBConnectionString = lookup("DB_CONN", d.dbConn)
	cfg.System.RedisConnectionString = lookup("REDIS_CONN", "")
	cfg.System.FrontendURL = lookup("FRONTEND_URL", "http://localhost:5173")

	if cfg.System.DBDriver != "postgres" && cfg.System.DBDriver != "sqlite" {
		return nil, fmt.Errorf("DB_DRIVER should be postgres or sqlite, got %q", cfg.System.DBDriver)
	}
	if cfg.System.DBConnectionString == "" {
		return nil, fmt.Errorf("DB_CONN environment variable not set")
	}

	cfg.Security.SignatureSecretKey = lookup("SIGNATURE_SECRET_KEY", d.secret)
	if cfg.Security.SignatureSecretKey == "" {
		return nil, fmt.Errorf("SIGNATURE_SECRET_KEY environment variable not set")
	}

	if ttlStr, exist := os.LookupEnv("JWT_EXPIRES_IN"); !exist {
		cfg.Security.TokenTTL = d.tokenTTL
	} else if ttl, err := time.ParseDuration(ttlStr); err != nil || ttl <= 0 {
		return nil, fmt.Errorf("JWT_EXPIRES_IN should be a positive duration")
	} else {
		cfg.Security.TokenTTL = ttl
	}

	cfg.Security.PasswordHasher = strings.ToLower(lookup("PASSWORD_HASHER", "bcrypt"))
	cfg.Security.InitAdminPassword = lookup("INIT_ADMIN_PASSWORD", "")

	return cfg, nil
}

func environment() (string, error) {
	mode, exist := os.LookupEnv("MODE")
	if !exist || mode == "" {
		return config.EnvDevelopment, nil
	}

	mode = strings.ToLower(mode)
	switch {
	case strings.HasPrefix(mode, "p"):
		return config.EnvProduction, nil
	case strings.HasPrefix(mode, "d"):
		return config.EnvDevelopment, nil
	case strings.HasPrefix(mode, "t"):
		return config.EnvTest, nil
	}

	return "", fmt.Errorf("unknown environment: %s", mode)
}

func lookup(key, fallback string) string {
	if v, exist := os.LookupEnv(key); exist && v != "" {
		return v
	}
	return fallback
}
