package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissing is returned by the Validate* methods when a required value is unset.
var ErrMissing = errors.New("missing required configuration")

const defaultCampaignConfig = "config/campaigns.yaml"

type Config struct {
	EnvName   string
	LogLevel  string
	Location  *time.Location
	Database  DatabaseConfig
	Apify     ApifyConfig
	Slack     SlackConfig
	S3        S3Config
	Campaigns map[string]*CampaignConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type ApifyConfig struct {
	Token           string
	BaseURL         string
	ProfileTaskID   string
	PostTaskID      string
	ProxyURL        string
	Timeout         time.Duration
	BreakerFailures int
}

type SlackConfig struct {
	Webhook string
	Channel string
}

type S3Config struct {
	Region          string
	Endpoint        string // optional, for MinIO/LocalStack
	// Static credentials are only used when both are set; otherwise the
	// default AWS chain (the Lambda role) applies.
	AccessKeyID     string
	SecretAccessKey string
}

// CampaignConfig holds the per-kind knobs that can be overridden from YAML.
// CapMin/CapMax bound the randomized candidate cap; Cron drives daemon mode.
type CampaignConfig struct {
	Kind   string `yaml:"kind"`
	CapMin int    `yaml:"cap_min"`
	CapMax int    `yaml:"cap_max"`
	Cron   string `yaml:"cron"`
}

type campaignFile struct {
	Campaigns []CampaignConfig `yaml:"campaigns"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "Asia/Tokyo"))
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	cfg := &Config{
		EnvName:  getEnv("ENV_NAME", "local"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Location: loc,
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_DATABASE"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Apify: ApifyConfig{
			Token:           os.Getenv("APIFY_TOKEN"),
			BaseURL:         getEnv("APIFY_BASE_URL", "https://api.apify.com"),
			ProfileTaskID:   os.Getenv("PROFILE_SCRAPER_ID"),
			PostTaskID:      os.Getenv("POST_SCRAPER_ID"),
			ProxyURL:        os.Getenv("PROXY_URL"),
			Timeout:         time.Duration(getEnvInt("APIFY_TIMEOUT_SEC", 30)) * time.Second,
			BreakerFailures: getEnvInt("APIFY_BREAKER_FAILURES", 3),
		},
		Slack: SlackConfig{
			Webhook: os.Getenv("SLACK_WEBHOOK"),
			Channel: os.Getenv("SLACK_CHANNEL"),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "ap-northeast-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		},
		Campaigns: map[string]*CampaignConfig{
			"profile": {Kind: "profile", CapMin: 80, CapMax: 100, Cron: os.Getenv("PROFILE_DISPATCH_CRON")},
			"post":    {Kind: "post", CapMin: 250, CapMax: 300, Cron: os.Getenv("POST_DISPATCH_CRON")},
		},
	}

	if err := cfg.loadCampaignConfigs(getEnv("CAMPAIGN_CONFIG", defaultCampaignConfig)); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadCampaignConfigs(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var file campaignFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	for _, override := range file.Campaigns {
		current, ok := c.Campaigns[override.Kind]
		if !ok {
			return fmt.Errorf("%s: unknown campaign kind %q", path, override.Kind)
		}
		if override.CapMin > 0 {
			current.CapMin = override.CapMin
		}
		if override.CapMax > 0 {
			current.CapMax = override.CapMax
		}
		if override.Cron != "" {
			current.Cron = override.Cron
		}
		if current.CapMax <= current.CapMin {
			return fmt.Errorf("%s: %s cap_max must be greater than cap_min", path, override.Kind)
		}
	}

	return nil
}

// DSN builds a pgx connection string from the discrete DB_* values.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	q.Set("TimeZone", "UTC")
	u.RawQuery = q.Encode()
	return u.String()
}

// ValidateIngest checks the values every ingest function needs.
func (c *Config) ValidateIngest() error {
	return requireAll(map[string]string{
		"ENV_NAME":      c.EnvName,
		"DB_HOST":       c.Database.Host,
		"DB_USER":       c.Database.User,
		"DB_DATABASE":   c.Database.Name,
		"SLACK_WEBHOOK": c.Slack.Webhook,
		"SLACK_CHANNEL": c.Slack.Channel,
	})
}

// ValidateDispatch checks the values every dispatch function needs.
func (c *Config) ValidateDispatch() error {
	if err := c.ValidateIngest(); err != nil {
		return err
	}
	return requireAll(map[string]string{
		"APIFY_TOKEN":        c.Apify.Token,
		"PROFILE_SCRAPER_ID": c.Apify.ProfileTaskID,
		"POST_SCRAPER_ID":    c.Apify.PostTaskID,
		"PROXY_URL":          c.Apify.ProxyURL,
	})
}

func requireAll(values map[string]string) error {
	var missing []string
	for key, val := range values {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
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
