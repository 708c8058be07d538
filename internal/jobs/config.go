package jobs

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the runner configuration.
type Config struct {
	APIURL         string        `envconfig:"API_URL" required:"true"`
	APIKey         string        `envconfig:"JOBS_API_KEY" required:"true"`
	OrgIDs         []string      `envconfig:"JOB_ORG_IDS" required:"true"`
	Period         string        `envconfig:"JOB_PERIOD"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
}

// LoadConfig reads the runner configuration from the environment.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if cfg.APIURL == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("API_URL and JOBS_API_KEY must not be empty")
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %v", cfg.RequestTimeout)
	}
	orgIDs := cfg.OrgIDs[:0]
	for _, id := range cfg.OrgIDs {
		if id = strings.TrimSpace(id); id != "" {
			orgIDs = append(orgIDs, id)
		}
	}
	cfg.OrgIDs = orgIDs
	if len(cfg.OrgIDs) == 0 {
		return nil, fmt.Errorf("JOB_ORG_IDS must list at least one organization")
	}
	return &cfg, nil
}
