package config

import (
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	ListenAddr string
	DBDSN      string
	KVBackend  string // "gorm" or "redis"

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	APISecret string
	APIToken  string

	DataDir             string
	ModelsDir           string
	MaxContextLength    int
	AutoSaveSeconds     int
	DownloadConcurrency int

	// fleet notification bridge (optional)
	AMQPURL   string
	AMQPQueue string
}

func Load() Config {
	listenAddr := os.Getenv("LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = "127.0.0.1:8090"
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dataDir = filepath.Join(home, ".continuum")
		} else {
			dataDir = ".continuum"
		}
	}

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = filepath.Join(dataDir, "continuum.db")
	}

	kvBackend := os.Getenv("KV_BACKEND")
	if kvBackend == "" {
		kvBackend = "gorm"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "127.0.0.1:6379"
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	secret := os.Getenv("API_SECRET")
	if secret == "" {
		secret = "dev-secret-change-me"
	}

	apiToken := os.Getenv("API_TOKEN")
	if apiToken == "" {
		apiToken = "dev-token"
	}

	modelsDir := os.Getenv("MODELS_DIR")
	if modelsDir == "" {
		modelsDir = filepath.Join(dataDir, "models")
	}

	maxContext := 8192
	if v := os.Getenv("MAX_CONTEXT_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxContext = n
		}
	}

	autoSave := 30
	if v := os.Getenv("AUTO_SAVE_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			autoSave = n
		}
	}

	downloadConcurrency := 2
	if v := os.Getenv("DOWNLOAD_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			downloadConcurrency = n
		}
	}

	amqpQueue := os.Getenv("AMQP_QUEUE")
	if amqpQueue == "" {
		amqpQueue = "continuum_notifications"
	}

	return Config{
		ListenAddr: listenAddr,
		DBDSN:      dsn,
		KVBackend:  kvBackend,

		RedisAddr:     redisAddr,
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		APISecret: secret,
		APIToken:  apiToken,

		DataDir:             dataDir,
		ModelsDir:           modelsDir,
		MaxContextLength:    maxContext,
		AutoSaveSeconds:     autoSave,
		DownloadConcurrency: downloadConcurrency,

		AMQPURL:   os.Getenv("AMQP_URL"),
		AMQPQueue: amqpQueue,
	}
}
