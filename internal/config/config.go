package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config aggregates application settings sourced from environment variables.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Clamd    ClamdConfig    `mapstructure:"clamd"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port int `mapstructure:"port"`
	// PublicBaseURL 是招聘页对外访问的根地址，用于 canonical 与 og:url。
	PublicBaseURL string `mapstructure:"public_base_url"`
	// AssetBaseURL 用于把 "/uploads/..." 这类相对路径补全为绝对地址。
	AssetBaseURL     string   `mapstructure:"asset_base_url"`
	CORSOrigins      []string `mapstructure:"cors_origins"`
	MaxUploadBytes   int64    `mapstructure:"max_upload_bytes"`
	MaxImageWidth    int      `mapstructure:"max_image_width"`
	JobsPageSize     int      `mapstructure:"jobs_page_size"`
	LoginRateLimit   int      `mapstructure:"login_rate_limit"`
	LoginMaxFailures int      `mapstructure:"login_max_failures"`
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	// AutoMigrate 为 true 时 API 启动前执行内嵌的 goose 迁移。
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// RedisConfig 包含 Redis 连接配置。
type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr 返回 host:port 形式的地址。
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	PublicEndpoint  string `mapstructure:"public_endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	BucketLookup    string `mapstructure:"bucket_lookup"`
	AutoCreate      bool   `mapstructure:"auto_create_bucket"`
}

// AuthConfig 包含 JWT 签名密钥与令牌有效期。
// 密钥可以直接通过环境变量给出 PEM，也可以给出文件路径。
type AuthConfig struct {
	PrivateKeyPEM  string        `mapstructure:"private_key"`
	PublicKeyPEM   string        `mapstructure:"public_key"`
	PrivateKeyPath string        `mapstructure:"private_key_path"`
	PublicKeyPath  string        `mapstructure:"public_key_path"`
	AccessTTL      time.Duration `mapstructure:"access_ttl"`
	RefreshTTL     time.Duration `mapstructure:"refresh_ttl"`
	CookieDomain   string        `mapstructure:"cookie_domain"`
	CookieSecure   bool          `mapstructure:"cookie_secure"`
}

// Keys 返回 PEM 编码的私钥与公钥，优先使用内联值。
func (a AuthConfig) Keys() (privPEM, pubPEM []byte, err error) {
	privPEM, err = pemFrom(a.PrivateKeyPEM, a.PrivateKeyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load private key: %w", err)
	}
	pubPEM, err = pemFrom(a.PublicKeyPEM, a.PublicKeyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load public key: %w", err)
	}
	return privPEM, pubPEM, nil
}

func pemFrom(inline, path string) ([]byte, error) {
	if strings.TrimSpace(inline) != "" {
		// 环境变量里的换行常被写成字面量 \n
		return []byte(strings.ReplaceAll(inline, `\n`, "\n")), nil
	}
	if path == "" {
		return nil, errors.New("neither key nor key path configured")
	}
	return os.ReadFile(path)
}

// ClamdConfig 配置可选的 ClamAV 扫描；Address 为空时跳过扫描。
type ClamdConfig struct {
	Address string `mapstructure:"address"`
}

// Enabled reports whether uploads are virus scanned.
func (c ClamdConfig) Enabled() bool {
	return strings.TrimSpace(c.Address) != ""
}

// WorkerConfig 包含快照 worker 的并发与截图参数。
type WorkerConfig struct {
	Concurrency     int    `mapstructure:"concurrency"`
	SnapshotQuality int    `mapstructure:"snapshot_quality"`
	BrowserBin      string `mapstructure:"browser_bin"`
}

// Validate 检查连接数据库所需的字段。
func (d DatabaseConfig) Validate() error {
	switch {
	case d.Host == "":
		return errors.New("database host is required")
	case d.Port <= 0:
		return errors.New("database port must be positive")
	case d.Name == "":
		return errors.New("database name is required")
	case d.User == "":
		return errors.New("database user is required")
	case d.Password == "":
		return errors.New("database password is required")
	case d.SSLMode == "":
		return errors.New("database sslmode is required")
	}
	return nil
}

// DSN builds a libpq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Load reads configuration from environment variables (with optional
// defaults). A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	cfg, err := unmarshal()
	if err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDatabase 只读取并校验数据库配置，供 migrate、admin 等不依赖 MinIO/Redis 的命令使用。
func LoadDatabase() (DatabaseConfig, error) {
	cfg, err := unmarshal()
	if err != nil {
		return DatabaseConfig{}, err
	}
	if err := cfg.Database.Validate(); err != nil {
		return DatabaseConfig{}, err
	}
	return cfg.Database, nil
}

func unmarshal() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.API.CORSOrigins = splitList(cfg.API.CORSOrigins)
	return cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// splitList 兼容逗号分隔的单个环境变量值。
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.public_base_url", "http://localhost:8080")
	v.SetDefault("api.asset_base_url", "http://localhost:8080")
	v.SetDefault("api.cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("api.max_upload_bytes", 5<<20)
	v.SetDefault("api.max_image_width", 2400)
	v.SetDefault("api.jobs_page_size", 9)
	v.SetDefault("api.login_rate_limit", 20)
	v.SetDefault("api.login_max_failures", 5)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "careersite")
	v.SetDefault("database.user", "careersite")
	v.SetDefault("database.password", "careersite")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "careers")
	v.SetDefault("minio.region", "us-east-1")
	v.SetDefault("minio.bucket_lookup", "auto")
	v.SetDefault("minio.auto_create_bucket", true)
	v.SetDefault("auth.access_ttl", 15*time.Minute)
	v.SetDefault("auth.refresh_ttl", 7*24*time.Hour)
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("worker.concurrency", 4)
	v.SetDefault("worker.snapshot_quality", 80)
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                 "API_PORT",
		"api.public_base_url":      "PUBLIC_BASE_URL",
		"api.asset_base_url":       "ASSET_BASE_URL",
		"api.cors_origins":         "CORS_ORIGINS",
		"api.max_upload_bytes":     "MAX_UPLOAD_BYTES",
		"api.max_image_width":      "MAX_IMAGE_WIDTH",
		"api.jobs_page_size":       "JOBS_PAGE_SIZE",
		"api.login_rate_limit":     "LOGIN_RATE_LIMIT",
		"api.login_max_failures":   "LOGIN_MAX_FAILURES",
		"database.host":            "DATABASE_HOST",
		"database.port":            "DATABASE_PORT",
		"database.name":            "POSTGRES_DB",
		"database.user":            "POSTGRES_USER",
		"database.password":        "POSTGRES_PASSWORD",
		"database.sslmode":         "DATABASE_SSLMODE",
		"database.auto_migrate":    "DATABASE_AUTO_MIGRATE",
		"redis.host":               "REDIS_HOST",
		"redis.port":               "REDIS_PORT",
		"minio.endpoint":           "MINIO_ENDPOINT",
		"minio.public_endpoint":    "MINIO_PUBLIC_ENDPOINT",
		"minio.access_key_id":      "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key":  "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":            "MINIO_USE_SSL",
		"minio.bucket":             "MINIO_BUCKET",
		"minio.region":             "MINIO_REGION",
		"minio.bucket_lookup":      "MINIO_BUCKET_LOOKUP",
		"minio.auto_create_bucket": "MINIO_AUTO_CREATE_BUCKET",
		"auth.private_key":         "JWT_PRIVATE_KEY",
		"auth.public_key":          "JWT_PUBLIC_KEY",
		"auth.private_key_path":    "JWT_PRIVATE_KEY_PATH",
		"auth.public_key_path":     "JWT_PUBLIC_KEY_PATH",
		"auth.access_ttl":          "JWT_ACCESS_TTL",
		"auth.refresh_ttl":         "JWT_REFRESH_TTL",
		"auth.cookie_domain":       "AUTH_COOKIE_DOMAIN",
		"auth.cookie_secure":       "AUTH_COOKIE_SECURE",
		"clamd.address":            "CLAMD_ADDRESS",
		"worker.concurrency":       "WORKER_CONCURRENCY",
		"worker.snapshot_quality":  "SNAPSHOT_QUALITY",
		"worker.browser_bin":       "ROD_BROWSER_BIN",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	if cfg.API.MaxUploadBytes <= 0 {
		return errors.New("api max upload bytes must be positive")
	}
	if cfg.API.JobsPageSize <= 0 {
		return errors.New("api jobs page size must be positive")
	}
	if err := cfg.Database.Validate(); err != nil {
		return err
	}
	if cfg.Redis.Host == "" {
		return errors.New("redis host is required")
	}
	if cfg.Redis.Port <= 0 {
		return errors.New("redis port must be positive")
	}
	if cfg.MinIO.Endpoint == "" {
		return errors.New("minio endpoint is required")
	}
	if cfg.MinIO.AccessKeyID == "" {
		return errors.New("minio access key id is required")
	}
	if cfg.MinIO.SecretAccessKey == "" {
		return errors.New("minio secret access key is required")
	}
	if cfg.MinIO.Bucket == "" {
		return errors.New("minio bucket is required")
	}
	if cfg.Auth.AccessTTL <= 0 {
		return errors.New("auth access ttl must be positive")
	}
	if cfg.Worker.Concurrency <= 0 {
		return errors.New("worker concurrency must be positive")
	}
	if q := cfg.Worker.SnapshotQuality; q <= 0 || q > 100 {
		return errors.New("worker snapshot quality must be within 1..100")
	}
	return nil
}
