package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Store      StoreConfig      `yaml:"store"`
	Auth       AuthConfig       `yaml:"auth"`
	Email      EmailConfig      `yaml:"email"`
	Log        LogConfig        `yaml:"log"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Simulation SimulationConfig `yaml:"simulation"`
	Reset      ResetConfig      `yaml:"reset"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StoreConfig selects the document store backend
type StoreConfig struct {
	Type            string `yaml:"type"` // "memory" or "firestore"
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

// AuthConfig contains identity verification settings
type AuthConfig struct {
	Mode              string `yaml:"mode"` // "jwt" or "firebase"
	JWTSecret         string `yaml:"jwt_secret"`
	InternalAPISecret string `yaml:"internal_api_secret"`
}

// EmailConfig contains SendGrid notification settings
type EmailConfig struct {
	Enabled   bool   `yaml:"enabled"`
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig contains cron schedule settings (six-field specs, UTC)
type SchedulerConfig struct {
	SimulateProfits   string `yaml:"simulate_profits"`
	RunMaintenance    string `yaml:"run_maintenance"`
	ResetMonthlyStats string `yaml:"reset_monthly_stats"`
}

// TierConfig is one segment of a package's piecewise earning distribution.
type TierConfig struct {
	Chance float64 `yaml:"chance"`
	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
}

// PackageConfig is the pricing/speed profile selected by a port's package.
type PackageConfig struct {
	Slow     TierConfig `yaml:"slow"`
	Standard TierConfig `yaml:"standard"`
	Busy     TierConfig `yaml:"busy"`
	RatedKw  float64    `yaml:"rated_kw"`
}

// VehicleConfig is one entry of the weighted vehicle-model distribution.
// Weights are probabilities; entries that do not sum to 1 leave the
// remainder to the engine's fallback.
type VehicleConfig struct {
	Model  string  `yaml:"model"`
	Weight float64 `yaml:"weight"`
}

// SimulationConfig contains the accrual engine's probability tables and
// physical constants. These are configuration data, not engine logic.
type SimulationConfig struct {
	IntervalMinutes int                      `yaml:"interval_minutes"`
	PeakStartHour   int                      `yaml:"peak_start_hour"`
	PeakEndHour     int                      `yaml:"peak_end_hour"`
	PeakMultiplier  float64                  `yaml:"peak_multiplier"`
	IdleProbability float64                  `yaml:"idle_probability"`
	Packages        map[string]PackageConfig `yaml:"packages"`
	RegionPriceKwh  map[string]float64       `yaml:"region_price_kwh"`
	DefaultPriceKwh float64                  `yaml:"default_price_kwh"`
	Co2KgPerKwh     float64                  `yaml:"co2_kg_per_kwh"`
	MilesPerKwh     float64                  `yaml:"miles_per_kwh"`
	Vehicles        []VehicleConfig          `yaml:"vehicles"`
}

// ResetConfig contains bulk reset settings
type ResetConfig struct {
	// ChunkSize must stay strictly below the store's 500-op batch ceiling.
	ChunkSize int `yaml:"chunk_size"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Store
	if val := os.Getenv("STORE_TYPE"); val != "" {
		c.Store.Type = val
	}
	if val := os.Getenv("FIREBASE_PROJECT_ID"); val != "" {
		c.Store.ProjectID = val
	}
	if val := os.Getenv("FIREBASE_CREDENTIALS_FILE"); val != "" {
		c.Store.CredentialsFile = val
	}

	// Auth
	if val := os.Getenv("AUTH_MODE"); val != "" {
		c.Auth.Mode = val
	}
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.Auth.JWTSecret = val
	}
	if val := os.Getenv("INTERNAL_API_SECRET"); val != "" {
		c.Auth.InternalAPISecret = val
	}

	// Email
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Email.APIKey = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}
}

// Validate checks the configuration and fills in defaults
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Store defaults and validation
	if c.Store.Type == "" {
		c.Store.Type = "memory"
	}
	if c.Store.Type != "memory" && c.Store.Type != "firestore" {
		return fmt.Errorf("unsupported store type: %s", c.Store.Type)
	}
	if c.Store.Type == "firestore" && c.Store.ProjectID == "" {
		return fmt.Errorf("firestore store requires a project id")
	}

	// Auth defaults and validation
	if c.Auth.Mode == "" {
		c.Auth.Mode = "jwt"
	}
	if c.Auth.Mode != "jwt" && c.Auth.Mode != "firebase" {
		return fmt.Errorf("unsupported auth mode: %s", c.Auth.Mode)
	}
	if c.Auth.Mode == "jwt" {
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT secret is required")
		}
		if len(c.Auth.JWTSecret) < 32 {
			return fmt.Errorf("JWT secret must be at least 32 characters")
		}
	}
	if c.Auth.InternalAPISecret == "" {
		return fmt.Errorf("internal API secret is required")
	}

	// Email validation
	if c.Email.Enabled {
		if c.Email.APIKey == "" {
			return fmt.Errorf("email is enabled but no SendGrid API key is set")
		}
		if c.Email.FromEmail == "" {
			return fmt.Errorf("email is enabled but no from address is set")
		}
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	// Scheduler defaults
	if c.Scheduler.SimulateProfits == "" {
		c.Scheduler.SimulateProfits = "0 0 * * * *" // Hourly
	}
	if c.Scheduler.RunMaintenance == "" {
		c.Scheduler.RunMaintenance = "0 0 6 * * 1" // Mondays at 6 AM UTC
	}
	if c.Scheduler.ResetMonthlyStats == "" {
		c.Scheduler.ResetMonthlyStats = "0 0 0 1 * *" // 1st of month at 12 AM UTC
	}

	c.Simulation.applyDefaults()
	if err := c.Simulation.validate(); err != nil {
		return err
	}

	// Reset defaults; the chunk size must leave headroom under the store's
	// 500-op batch commit limit.
	if c.Reset.ChunkSize == 0 {
		c.Reset.ChunkSize = 450
	}
	if c.Reset.ChunkSize < 1 || c.Reset.ChunkSize >= 500 {
		return fmt.Errorf("reset chunk size must be between 1 and 499, got %d", c.Reset.ChunkSize)
	}

	return nil
}

func (s *SimulationConfig) applyDefaults() {
	if s.IntervalMinutes == 0 {
		s.IntervalMinutes = 60
	}
	if s.PeakStartHour == 0 && s.PeakEndHour == 0 {
		s.PeakStartHour = 16 // 4 PM UTC
		s.PeakEndHour = 22   // 10 PM UTC
	}
	if s.PeakMultiplier == 0 {
		s.PeakMultiplier = 1.25
	}
	if s.IdleProbability == 0 {
		s.IdleProbability = 0.1
	}
	if len(s.Packages) == 0 {
		s.Packages = map[string]PackageConfig{
			"Standard Port": {
				Slow:     TierConfig{Chance: 0.2, Min: 7.00, Max: 11.00},
				Standard: TierConfig{Chance: 0.6, Min: 11.00, Max: 16.00},
				Busy:     TierConfig{Chance: 0.2, Min: 16.00, Max: 22.00},
				RatedKw:  7.2,
			},
			"High-Traffic Pro Port": {
				Slow:     TierConfig{Chance: 0.2, Min: 12.00, Max: 18.00},
				Standard: TierConfig{Chance: 0.6, Min: 18.00, Max: 24.00},
				Busy:     TierConfig{Chance: 0.2, Min: 24.00, Max: 32.00},
				RatedKw:  11.0,
			},
		}
	}
	if len(s.RegionPriceKwh) == 0 {
		s.RegionPriceKwh = map[string]float64{
			"CA": 0.30,
			"NY": 0.22,
			"TX": 0.14,
			"WA": 0.11,
		}
	}
	if s.DefaultPriceKwh == 0 {
		s.DefaultPriceKwh = 0.17
	}
	if s.Co2KgPerKwh == 0 {
		s.Co2KgPerKwh = 0.85
	}
	if s.MilesPerKwh == 0 {
		s.MilesPerKwh = 3.5
	}
	if len(s.Vehicles) == 0 {
		s.Vehicles = []VehicleConfig{
			{Model: "Tesla Model 3", Weight: 0.25},
			{Model: "Tesla Model Y", Weight: 0.22},
			{Model: "Chevrolet Bolt", Weight: 0.12},
			{Model: "Nissan Leaf", Weight: 0.11},
			{Model: "Ford Mustang Mach-E", Weight: 0.11},
			{Model: "Hyundai Ioniq 5", Weight: 0.10},
			{Model: "Rivian R1T", Weight: 0.09},
		}
	}
}

func (s *SimulationConfig) validate() error {
	if s.PeakStartHour < 0 || s.PeakStartHour > 23 || s.PeakEndHour < 0 || s.PeakEndHour > 23 {
		return fmt.Errorf("peak hours must be within 0-23")
	}
	if s.IdleProbability < 0 || s.IdleProbability >= 1 {
		return fmt.Errorf("idle probability must be in [0, 1)")
	}
	for name, pkg := range s.Packages {
		if pkg.RatedKw <= 0 {
			return fmt.Errorf("package %q must have a positive rated power", name)
		}
		for _, tier := range []TierConfig{pkg.Slow, pkg.Standard, pkg.Busy} {
			if tier.Min < 0 || tier.Max < tier.Min {
				return fmt.Errorf("package %q has an invalid tier range", name)
			}
		}
	}
	if s.DefaultPriceKwh <= 0 {
		return fmt.Errorf("default energy price must be positive")
	}
	return nil
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Default returns a configuration with every default applied, used when no
// config file is given (memory store, local development).
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{Host: "localhost", Port: 8080},
		Auth: AuthConfig{
			Mode:              "jwt",
			JWTSecret:         "local-development-secret-change-me!!",
			InternalAPISecret: "local-internal-secret",
		},
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}
