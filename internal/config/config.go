// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/navstats/internal/domain"
	"github.com/aristath/navstats/internal/engine"
	"github.com/aristath/navstats/internal/modules/navdata"
	"github.com/aristath/navstats/internal/modules/reporting"
	"github.com/aristath/navstats/internal/modules/series"
	"github.com/aristath/navstats/internal/utils"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Config holds application configuration
type Config struct {
	DataDir          string // Base directory for the NAV database (always absolute)
	DBPath           string // NAV database file, defaults to <DataDir>/navdata.db
	EngineConfigPath string // optional YAML engine settings
	LogLevel         string
	LogPretty        bool
	Port             int
	DevMode          bool
	CacheSize        int
	S3               *S3Config // nil unless NAVSTATS_S3_BUCKET is set
	Engine           *EngineFile
}

// S3Config locates an externally supplied NAV table in object storage
type S3Config struct {
	Bucket          string
	Key             string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// FeeAdjustmentFile is one fee correction entry of the engine file
type FeeAdjustmentFile struct {
	Entity                string  `yaml:"entity"`
	PerformanceFee        float64 `yaml:"performance_fee"`
	PerformanceFeeCutover string  `yaml:"performance_fee_cutover"` // YYYY-MM-DD
	ManagementFee         float64 `yaml:"management_fee"`
}

// EngineFile holds the engine settings read from YAML
type EngineFile struct {
	RateCodes      []string            `yaml:"rate_codes"`
	RiskFree       map[string]string   `yaml:"risk_free"`
	Precision      *int                `yaml:"precision"`
	FeeAdjustments []FeeAdjustmentFile `yaml:"fee_adjustments"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("NAVSTATS_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:          absDataDir,
		DBPath:           getEnv("NAVSTATS_DB_PATH", filepath.Join(absDataDir, "navdata.db")),
		EngineConfigPath: getEnv("NAVSTATS_ENGINE_CONFIG", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogPretty:        getEnvAsBool("LOG_PRETTY", false),
		Port:             getEnvAsInt("GO_PORT", 8001),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		CacheSize:        getEnvAsInt("NAVSTATS_CACHE_SIZE", navdata.DefaultCacheSize),
	}

	if bucket := getEnv("NAVSTATS_S3_BUCKET", ""); bucket != "" {
		cfg.S3 = &S3Config{
			Bucket:          bucket,
			Key:             getEnv("NAVSTATS_S3_KEY", "navdata.csv"),
			Region:          getEnv("NAVSTATS_S3_REGION", "eu-west-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		}
	}

	cfg.Engine = DefaultEngineFile()
	if cfg.EngineConfigPath != "" {
		file, err := LoadEngineFile(cfg.EngineConfigPath)
		if err != nil {
			return nil, err
		}
		cfg.Engine = file
	}
	if codes := utils.SplitList(getEnv("NAVSTATS_RATE_CODES", "")); len(codes) > 0 {
		cfg.Engine.RateCodes = codes
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultEngineFile returns the built-in engine settings
func DefaultEngineFile() *EngineFile {
	riskFree := make(map[string]string, len(navdata.DefaultRiskFree))
	for c, id := range navdata.DefaultRiskFree {
		riskFree[string(c)] = id
	}
	precision := reporting.DefaultPrecision
	return &EngineFile{
		RateCodes: append([]string(nil), engine.DefaultRateCodes...),
		RiskFree:  riskFree,
		Precision: &precision,
	}
}

// LoadEngineFile reads engine settings from a YAML file. Sections left out keep their defaults.
func LoadEngineFile(path string) (*EngineFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read engine config %s: %w", path, err)
	}
	return ParseEngineFile(data)
}

// ParseEngineFile decodes YAML engine settings over the defaults
func ParseEngineFile(data []byte) (*EngineFile, error) {
	var file EngineFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse engine config: %w", err)
	}

	defaults := DefaultEngineFile()
	if len(file.RateCodes) == 0 {
		file.RateCodes = defaults.RateCodes
	}
	if len(file.RiskFree) == 0 {
		file.RiskFree = defaults.RiskFree
	}
	if file.Precision == nil {
		file.Precision = defaults.Precision
	}
	return &file, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return &domain.ConfigurationError{Setting: "port", Value: strconv.Itoa(c.Port)}
	}
	if c.CacheSize <= 0 {
		return &domain.ConfigurationError{Setting: "cache size", Value: strconv.Itoa(c.CacheSize)}
	}
	if c.S3 != nil && c.S3.Key == "" {
		return &domain.ConfigurationError{Setting: "s3 key", Value: ""}
	}
	if c.Engine == nil {
		return &domain.ConfigurationError{Setting: "engine config", Value: ""}
	}
	if len(c.Engine.RiskFree) == 0 {
		return &domain.ConfigurationError{Setting: "risk-free indices", Value: ""}
	}
	if c.Engine.Precision != nil && *c.Engine.Precision < 0 {
		return &domain.ConfigurationError{Setting: "precision", Value: strconv.Itoa(*c.Engine.Precision)}
	}
	// Unknown log levels fall back to info in the logger
	return nil
}

// EngineConfig converts the engine file into the value passed to engine.New
func (c *Config) EngineConfig() (engine.Config, error) {
	file := c.Engine
	if file == nil {
		file = DefaultEngineFile()
	}

	cfg := engine.Config{
		RateCodes:   append([]string(nil), file.RateCodes...),
		RiskFree:    make(map[domain.Currency]string, len(file.RiskFree)),
		Adjustments: series.NewRegistry(),
		Precision:   reporting.DefaultPrecision,
	}
	if file.Precision != nil {
		cfg.Precision = *file.Precision
	}

	for code, index := range file.RiskFree {
		currency, err := domain.ParseCurrency(code)
		if err != nil {
			return engine.Config{}, err
		}
		cfg.RiskFree[currency] = strings.TrimSpace(index)
	}

	for _, adj := range file.FeeAdjustments {
		if adj.Entity == "" {
			return engine.Config{}, &domain.ConfigurationError{Setting: "fee adjustment entity", Value: ""}
		}
		fee := series.FeeAdjustment{
			PerformanceFee: adj.PerformanceFee,
			ManagementFee:  adj.ManagementFee,
		}
		if adj.PerformanceFeeCutover != "" {
			cutover, err := time.Parse(time.DateOnly, adj.PerformanceFeeCutover)
			if err != nil {
				return engine.Config{}, &domain.ConfigurationError{
					Setting: "performance fee cutover",
					Value:   adj.PerformanceFeeCutover,
				}
			}
			fee.PerformanceFeeCutover = cutover
		}
		cfg.Adjustments.Register(adj.Entity, fee)
	}

	return cfg, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
