package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Redis    RedisConfig
	AWS      AWSConfig
	Spotify  SpotifyConfig
	Genius   GeniusConfig
	Services ServicesConfig
	Matcher  MatcherConfig
	Batch    BatchConfig
	Worker   WorkerConfig
	Metrics  MetricsConfig
	Log      LogConfig
}

type RedisConfig struct {
	URL         string
	Host        string
	Port        int
	Password    string
	DB          int
	PoolSize    int
	DialTimeout time.Duration
	IOTimeout   time.Duration
	CacheTTL    time.Duration
}

type AWSConfig struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	DocumentsTable  string
	QueueURL        string
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
}

type GeniusConfig struct {
	AccessToken string
	BaseURL     string
	ProxyURL    string
	RequestRate float64
	Timeout     time.Duration
}

type ServicesConfig struct {
	Analyzer ServiceConfig
	Renderer ServiceConfig
}

type ServiceConfig struct {
	BaseURL string
	Timeout time.Duration
}

type MatcherConfig struct {
	MaxRetries    int
	BaseBackoff   time.Duration
	SearchTimeout time.Duration
	FailedLogPath string
}

type BatchConfig struct {
	MaxTracks   int
	Concurrency int
}

type WorkerConfig struct {
	PollWait   time.Duration
	JobTimeout time.Duration
}

// visibilityMargin covers the detached persist and ack that may run after
// JobTimeout has fired.
const visibilityMargin = time.Minute

// VisibilityTimeout is how long a received job stays hidden from other
// consumers. It outlasts a full run so the job is not redelivered mid-run.
func (c WorkerConfig) VisibilityTimeout() time.Duration {
	return c.JobTimeout + visibilityMargin
}

type MetricsConfig struct {
	Address string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Redis: RedisConfig{
			URL:         getEnv("REDIS_URL", ""),
			Host:        getEnv("REDIS_HOST", "localhost"),
			Port:        getEnvInt("REDIS_PORT", 6379),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvInt("REDIS_DB", 0),
			PoolSize:    getEnvInt("REDIS_POOL_SIZE", 20),
			DialTimeout: getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			IOTimeout:   getEnvDuration("REDIS_IO_TIMEOUT", 3*time.Second),
			CacheTTL:    getEnvDuration("LYRICS_CACHE_TTL", 7*24*time.Hour),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "ap-northeast-2"),
			Endpoint:        getEnv("AWS_ENDPOINT_URL", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			DocumentsTable:  getEnv("DOCUMENTS_TABLE", "lyrixmatch-playlists"),
			QueueURL:        getEnv("CRAWL_QUEUE_URL", ""),
		},
		Spotify: SpotifyConfig{
			ClientID:     getEnv("SPOTIFY_CLIENT_ID", ""),
			ClientSecret: getEnv("SPOTIFY_CLIENT_SECRET", ""),
			BaseURL:      getEnv("SPOTIFY_BASE_URL", ""),
		},
		Genius: GeniusConfig{
			AccessToken: getEnv("GENIUS_ACCESS_TOKEN", ""),
			BaseURL:     getEnv("GENIUS_BASE_URL", "https://api.genius.com"),
			ProxyURL:    getEnv("GENIUS_PROXY_URL", ""),
			RequestRate: getEnvFloat("GENIUS_REQUESTS_PER_SECOND", 2),
			Timeout:     getEnvDuration("GENIUS_TIMEOUT", 15*time.Second),
		},
		Services: ServicesConfig{
			Analyzer: ServiceConfig{
				BaseURL: getEnv("ANALYZER_SERVICE_URL", "http://localhost:8090"),
				Timeout: getEnvDuration("ANALYZER_SERVICE_TIMEOUT", 60*time.Second),
			},
			Renderer: ServiceConfig{
				BaseURL: getEnv("RENDERER_SERVICE_URL", "http://localhost:8091"),
				Timeout: getEnvDuration("RENDERER_SERVICE_TIMEOUT", 60*time.Second),
			},
		},
		Matcher: MatcherConfig{
			MaxRetries:    getEnvInt("MATCHER_MAX_RETRIES", 3),
			BaseBackoff:   getEnvDuration("MATCHER_BASE_BACKOFF", 5*time.Second),
			SearchTimeout: getEnvDuration("MATCHER_SEARCH_TIMEOUT", 15*time.Second),
			FailedLogPath: getEnv("FAILED_MATCH_LOG", "failed_tracks.log"),
		},
		Batch: BatchConfig{
			MaxTracks:   getEnvInt("MAX_TRACKS_LIMIT", 30),
			Concurrency: getEnvInt("BATCH_CONCURRENCY", 5),
		},
		Worker: WorkerConfig{
			PollWait:   getEnvDuration("WORKER_POLL_WAIT", 20*time.Second),
			JobTimeout: getEnvDuration("WORKER_JOB_TIMEOUT", 10*time.Minute),
		},
		Metrics: MetricsConfig{
			Address: getEnv("METRICS_ADDRESS", ":9090"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

func (c *RedisConfig) Address() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
