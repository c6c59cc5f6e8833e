package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Job identifiers, matched against the JOB environment variable.
const (
	JobGitHub = "GITHUB"
	JobNeon   = "NEON"
)

type Config struct {
	Job     string        `yaml:"job"`
	GitHub  GitHubConfig  `yaml:"github"`
	Neon    NeonConfig    `yaml:"neon"`
	Datadog DatadogConfig `yaml:"datadog"`
	Upload  UploadConfig  `yaml:"upload"`
	HTTP    HTTPConfig    `yaml:"http"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type GitHubConfig struct {
	Token string `yaml:"token"`
	Org   string `yaml:"org"`
}

type NeonConfig struct {
	APIKey  string        `yaml:"api_key"`
	OrgID   string        `yaml:"org_id"`
	Pricing PricingConfig `yaml:"pricing"`
}

// PricingConfig holds per-unit rates as decimal strings. Rates change with
// the provider's plan, so they are configurable rather than compiled in.
type PricingConfig struct {
	ComputePerCUHour  string `yaml:"compute_per_cu_hour"`
	StoragePerGBMonth string `yaml:"storage_per_gb_month"`
}

type DatadogConfig struct {
	APIKey string `yaml:"api_key"`
	AppKey string `yaml:"app_key"`
	Site   string `yaml:"site"`
}

type UploadConfig struct {
	BatchSize int `yaml:"batch_size"`
}

type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url"`
}

func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		expanded := expandEnvVars(string(data))

		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Neon: NeonConfig{
			Pricing: PricingConfig{
				ComputePerCUHour:  "0.222",
				StoragePerGBMonth: "0.35",
			},
		},
		Datadog: DatadogConfig{
			Site: "datadoghq.com",
		},
		Upload: UploadConfig{
			BatchSize: 500,
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
	}
}

func expandEnvVars(s string) string {
	return os.ExpandEnv(s)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("JOB"); v != "" {
		cfg.Job = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		cfg.GitHub.Token = v
	}
	if v := os.Getenv("GITHUB_ORG"); v != "" {
		cfg.GitHub.Org = v
	}
	if v := os.Getenv("NEON_API_KEY"); v != "" {
		cfg.Neon.APIKey = v
	}
	if v := os.Getenv("NEON_ORG_ID"); v != "" {
		cfg.Neon.OrgID = v
	}
	if v := os.Getenv("DD_API_KEY"); v != "" {
		cfg.Datadog.APIKey = v
	}
	if v := os.Getenv("DD_APP_KEY"); v != "" {
		cfg.Datadog.AppKey = v
	}
	if v := os.Getenv("DD_SITE"); v != "" {
		cfg.Datadog.Site = v
	}
	if v := os.Getenv("TALLY_PUSHGATEWAY_URL"); v != "" {
		cfg.Metrics.PushgatewayURL = v
	}
}

// Validate checks the configuration for the selected job. Provider credentials
// are only required for that provider; Datadog credentials are only required
// when the run will actually upload. All checks run before any network call.
func (c *Config) Validate(job string, dryRun bool) error {
	switch job {
	case JobGitHub:
		if c.GitHub.Token == "" {
			return fmt.Errorf("GitHub token required: set GITHUB_TOKEN")
		}
		if c.GitHub.Org == "" {
			return fmt.Errorf("GitHub organization required: set GITHUB_ORG")
		}
	case JobNeon:
		if c.Neon.APIKey == "" {
			return fmt.Errorf("Neon API key required: set NEON_API_KEY")
		}
		if c.Neon.OrgID == "" {
			return fmt.Errorf("Neon organization ID required: set NEON_ORG_ID")
		}
	default:
		return fmt.Errorf("unknown job %q: expected %s or %s", job, JobGitHub, JobNeon)
	}

	if !dryRun {
		if c.Datadog.APIKey == "" {
			return fmt.Errorf("Datadog API key required: set DD_API_KEY")
		}
		if c.Datadog.AppKey == "" {
			return fmt.Errorf("Datadog application key required: set DD_APP_KEY")
		}
	}

	if c.Upload.BatchSize <= 0 {
		return fmt.Errorf("upload batch size must be positive")
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}

	return nil
}
