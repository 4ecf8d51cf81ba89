package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "dev-only-secret-change-me"

type Config struct {
	Port    string
	DBDSN   string
	LogFile string

	JWTSecret string
	TokenTTL  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
}

func Load() Config {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "shopapi.db"
	} // sqlite file in working dir
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Printf("[warn] JWT_SECRET not set, using development secret")
		secret = devJWTSecret
	}

	cfg := Config{
		Port:          port,
		DBDSN:         dsn,
		LogFile:       os.Getenv("LOG_FILE"),
		JWTSecret:     secret,
		TokenTTL:      time.Duration(envInt("TOKEN_TTL_MINUTES", 30)) * time.Minute,
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),
		CacheTTL:      time.Duration(envInt("CACHE_TTL_SECONDS", 600)) * time.Second,
	}
	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s TOKEN_TTL=%s REDIS_ADDR=%s CACHE_TTL=%s",
		cfg.Port, cfg.DBDSN, cfg.LogFile, cfg.TokenTTL, cfg.RedisAddr, cfg.CacheTTL)
	return cfg
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		log.Printf("[warn] invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}
