package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// SysConfig system settings
type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
}

// WebConfig http api settings
type WebConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	ApiPrefix   string   `yaml:"api_prefix"`
	PublicURL   string   `yaml:"public_url"` // used for absolute image urls, falls back to the request host
	CorsOrigins []string `yaml:"cors_origins"`
}

// DBConfig database settings, type is postgres or sqlite
type DBConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
}

// LogConfig logger settings
type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// AuthConfig token signing and the seeded staff account
type AuthConfig struct {
	Secret        string        `yaml:"secret"`
	AccessTTL     time.Duration `yaml:"access_ttl"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl"`
	AdminUsername string        `yaml:"admin_username"`
	AdminPassword string        `yaml:"admin_password"`
}

// MediaConfig uploaded images
type MediaConfig struct {
	Root string `yaml:"root"`
	URL  string `yaml:"url"`
}

type AppConfig struct {
	System   SysConfig   `yaml:"system"`
	Web      WebConfig   `yaml:"web"`
	Database DBConfig    `yaml:"database"`
	Logger   LogConfig   `yaml:"logger"`
	Auth     AuthConfig  `yaml:"auth"`
	Media    MediaConfig `yaml:"media"`
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetMediaDir() string {
	if path.IsAbs(c.Media.Root) {
		return c.Media.Root
	}
	return path.Join(c.System.Workdir, c.Media.Root)
}

// Addr web listen address
func (c *AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Web.Host, c.Web.Port)
}

// DefaultAppConfig returns the built-in settings, overridden by the yaml file and the environment.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		System: SysConfig{
			Appid:    "infinite",
			Location: "Asia/Kolkata",
			Workdir:  "/var/infinite",
		},
		Web: WebConfig{
			Host:      "0.0.0.0",
			Port:      8000,
			ApiPrefix: "/api",
		},
		Database: DBConfig{
			Type:     "postgres",
			Host:     "localhost",
			Port:     5432,
			Name:     "infinite_db",
			User:     "postgres",
			MaxConn:  100,
			IdleConn: 10,
		},
		Logger: LogConfig{
			Mode:     "development",
			Filename: "/var/infinite/logs/infinite.log",
		},
		Auth: AuthConfig{
			AccessTTL:     5 * time.Minute,
			RefreshTTL:    24 * time.Hour,
			AdminUsername: "admin",
		},
		Media: MediaConfig{
			Root: "media",
			URL:  "/media/",
		},
	}
}

// LoadConfig reads the yaml file (optional) and applies environment overrides.
func LoadConfig(cfile string) (*AppConfig, error) {
	cfg := DefaultAppConfig()
	if cfile != "" {
		data, err := os.ReadFile(cfile)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfile, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfile, err)
		}
	}
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ErrMissingSecret no token signing secret was configured
var ErrMissingSecret = errors.New("auth.secret (or SECRET_KEY) must be set")

// Validate rejects settings the server cannot run safely with
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.Auth.Secret) == "" {
		return ErrMissingSecret
	}
	return nil
}

func setEnvValue(name string, val *string) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		*val = v
	}
}

func setEnvIntValue(name string, val *int) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		if i, err := cast.ToIntE(v); err == nil {
			*val = i
		}
	}
}

func setEnvBoolValue(name string, val *bool) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		if b, err := cast.ToBoolE(v); err == nil {
			*val = b
		}
	}
}

func setEnvDurationValue(name string, val *time.Duration) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		if d, err := cast.ToDurationE(v); err == nil {
			*val = d
		}
	}
}

func applyEnv(cfg *AppConfig) {
	setEnvValue("INFINITE_WORKDIR", &cfg.System.Workdir)
	setEnvBoolValue("INFINITE_DEBUG", &cfg.System.Debug)

	setEnvValue("INFINITE_WEB_HOST", &cfg.Web.Host)
	setEnvIntValue("INFINITE_WEB_PORT", &cfg.Web.Port)
	setEnvValue("INFINITE_PUBLIC_URL", &cfg.Web.PublicURL)
	if v := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); v != "" {
		origins := cast.ToStringSlice(strings.Split(v, ","))
		cfg.Web.CorsOrigins = cfg.Web.CorsOrigins[:0]
		for _, o := range origins {
			if o = strings.TrimSpace(o); o != "" {
				cfg.Web.CorsOrigins = append(cfg.Web.CorsOrigins, o)
			}
		}
	}

	setEnvValue("INFINITE_DB_TYPE", &cfg.Database.Type)
	setEnvValue("DB_HOST", &cfg.Database.Host)
	setEnvIntValue("DB_PORT", &cfg.Database.Port)
	setEnvValue("DB_NAME", &cfg.Database.Name)
	setEnvValue("DB_USER", &cfg.Database.User)
	setEnvValue("DB_PASSWORD", &cfg.Database.Passwd)
	setEnvBoolValue("INFINITE_DB_DEBUG", &cfg.Database.Debug)

	setEnvValue("INFINITE_LOGGER_MODE", &cfg.Logger.Mode)
	setEnvBoolValue("INFINITE_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)

	setEnvValue("SECRET_KEY", &cfg.Auth.Secret)
	setEnvDurationValue("INFINITE_ACCESS_TTL", &cfg.Auth.AccessTTL)
	setEnvDurationValue("INFINITE_REFRESH_TTL", &cfg.Auth.RefreshTTL)
	setEnvValue("INFINITE_ADMIN_USERNAME", &cfg.Auth.AdminUsername)
	setEnvValue("INFINITE_ADMIN_PASSWORD", &cfg.Auth.AdminPassword)

	setEnvValue("INFINITE_MEDIA_ROOT", &cfg.Media.Root)
}
