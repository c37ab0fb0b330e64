package app

import (
	"time"

	"github.com/pybook/pybook-backend/internal/pkg/logger"
	"github.com/pybook/pybook-backend/internal/utils"
)

type Config struct {
	Port           string
	ServiceName    string
	Version        string
	Environment    string
	AllowedOrigins string

	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTLSeconds := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTLSeconds := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	return Config{
		Port:            utils.GetEnv("PORT", "8080", log),
		ServiceName:     utils.GetEnv("SERVICE_NAME", "pybook-backend", log),
		Version:         utils.GetEnv("SERVICE_VERSION", "dev", log),
		Environment:     utils.GetEnv("ENVIRONMENT", "development", log),
		AllowedOrigins:  utils.GetEnv("CORS_ALLOWED_ORIGINS", "", log),
		JWTSecretKey:    jwtSecretKey,
		AccessTokenTTL:  time.Duration(accessTokenTTLSeconds) * time.Second,
		RefreshTokenTTL: time.Duration(refreshTokenTTLSeconds) * time.Second,
	}
}
