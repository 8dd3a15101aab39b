package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	API        APIConfig
	Extractor  ExtractorConfig
	MediaHost  MediaHostConfig
	S3         S3Config
	Upload     UploadConfig
	Scheduler  SchedulerConfig
	DBPath     string
	LogPath    string
	Localities []string
}

type APIConfig struct {
	BaseURL string
}

type ExtractorConfig struct {
	Endpoint string
	APIKey   string
}

// MediaHostConfig points at the unsigned-upload media host.
type MediaHostConfig struct {
	Endpoint  string
	Namespace string
	Policy    string
}

// S3Config is the alternate self-hosted storage backend. When Bucket is
// empty the media host is used instead.
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PublicURL string
}

type UploadConfig struct {
	MaxFiles      int
	MaxFileSizeMB int
	Concurrency   int
	MaxAttempts   int
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		API: APIConfig{
			BaseURL: getEnv("LISTINGS_API_URL", "https://api.roomlister.example.com"),
		},
		Extractor: ExtractorConfig{
			Endpoint: os.Getenv("EXTRACTOR_URL"),
			APIKey:   os.Getenv("EXTRACTOR_API_KEY"),
		},
		MediaHost: MediaHostConfig{
			Endpoint:  os.Getenv("MEDIA_HOST_URL"),
			Namespace: os.Getenv("MEDIA_HOST_NAMESPACE"),
			Policy:    os.Getenv("MEDIA_HOST_POLICY"),
		},
		S3: S3Config{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			Region:    getEnv("S3_REGION", "auto"),
			Bucket:    os.Getenv("S3_BUCKET"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			PublicURL: os.Getenv("S3_PUBLIC_URL"),
		},
		Upload: UploadConfig{
			MaxFiles:      getEnvInt("UPLOAD_MAX_FILES", 8),
			MaxFileSizeMB: getEnvInt("UPLOAD_MAX_FILE_SIZE_MB", 5),
			Concurrency:   getEnvInt("UPLOAD_CONCURRENCY", 3),
			MaxAttempts:   getEnvInt("UPLOAD_MAX_ATTEMPTS", 2),
		},
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("SYNC_CRON"),
		},
		DBPath:  getEnv("DB_PATH", "roomlister.db"),
		LogPath: getEnv("LOG_PATH", "roomlister.log"),
	}

	if interval := os.Getenv("SYNC_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	if err := cfg.loadLocalities(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadLocalities reads the known locality names used for area matching.
// A missing file is not an error; area normalization then passes user input
// through trimmed.
func (c *Config) loadLocalities() error {
	path := getEnv("LOCALITIES_PATH", "config/localities.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var doc struct {
		Localities []string `yaml:"localities"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	c.Localities = doc.Localities
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
