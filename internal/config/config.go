package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr           string        `yaml:"addr"`
	JWTSecret      string        `yaml:"jwt_secret"`
	APITimeout     time.Duration `yaml:"timeout"`
	TokenDuration  time.Duration `yaml:"token_duration"`
	DatabasePath   string        `yaml:"database_path"`
	DataDir        string        `yaml:"data_dir"`
	StorageTimeout time.Duration `yaml:"storage_timeout"`
	WorkerCount    int           `yaml:"worker_count"`
	ArcGIS         ArcGISConfig  `yaml:"arcgis"`
}

type ArcGISConfig struct {
	GeocodeURL              string        `yaml:"geocode_url"`
	ParcelURL               string        `yaml:"parcel_url"`
	Timeout                 time.Duration `yaml:"timeout"`
	Retries                 int           `yaml:"retries"`
	Backoff                 time.Duration `yaml:"backoff"`
	CircuitFailureThreshold int           `yaml:"circuit_failure_threshold"`
	CircuitReset            time.Duration `yaml:"circuit_reset"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:           getEnv("PFT_ADDR", ":8080"),
		JWTSecret:      getEnv("PFT_JWT_SECRET", "supersecretkey"),
		APITimeout:     15 * time.Second,
		TokenDuration:  1 * time.Hour,
		DatabasePath:   getEnv("PFT_DATABASE_PATH", "planfortomorrow.db"),
		DataDir:        getEnv("PFT_DATA_DIR", "data"),
		StorageTimeout: 10 * time.Second,
		WorkerCount:    1,
		ArcGIS: ArcGISConfig{
			GeocodeURL:              getEnv("PFT_ARCGIS_GEOCODE_URL", "https://portal.spatial.nsw.gov.au/server/rest/services/NSW_Geocoded_Addressing_Theme/FeatureServer/1"),
			ParcelURL:               getEnv("PFT_ARCGIS_PARCEL_URL", "https://portal.spatial.nsw.gov.au/server/rest/services/NSW_Land_Parcel_Property_Theme/FeatureServer/8"),
			Timeout:                 10 * time.Second,
			Retries:                 2,
			Backoff:                 500 * time.Millisecond,
			CircuitFailureThreshold: 5,
			CircuitReset:            30 * time.Second,
		},
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks the loaded configuration for values that are unsafe or
// unusable. The default JWT secret is only tolerated when PFT_ENV=development.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.JWTSecret == "supersecretkey" && os.Getenv("PFT_ENV") != "development" {
		return errors.New("jwt_secret is the insecure default; set PFT_JWT_SECRET")
	}
	if c.DatabasePath == "" {
		return errors.New("database_path must not be empty")
	}
	if c.DataDir == "" {
		return errors.New("data_dir must not be empty")
	}
	if c.StorageTimeout <= 0 {
		c.StorageTimeout = 10 * time.Second
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = 1
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
