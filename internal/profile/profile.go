package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Addr is the binding address for the server
	Addr string
	// Port is the binding port for the server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where miscio stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of the server
	Version string

	// Secret signs access tokens
	Secret string
	// TokenTTL is the lifetime of issued access tokens
	TokenTTL time.Duration

	// Assistant platform configuration
	OpenAIAPIKey  string // MISCIO_OPENAI_API_KEY
	OpenAIBaseURL string // MISCIO_OPENAI_BASE_URL (default: https://api.openai.com/v1)
	OpenAIModel   string // MISCIO_OPENAI_MODEL (default: gpt-4o-mini)

	// Messaging provider configuration
	TwilioAccountSID string // MISCIO_TWILIO_ACCOUNT_SID
	TwilioAuthToken  string // MISCIO_TWILIO_AUTH_TOKEN
	TwilioFromNumber string // MISCIO_TWILIO_FROM_NUMBER
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAssistantEnabled returns true if the assistant platform is configured.
func (p *Profile) IsAssistantEnabled() bool {
	return p.OpenAIAPIKey != ""
}

// IsMessagingEnabled returns true if the messaging provider is configured.
func (p *Profile) IsMessagingEnabled() bool {
	return p.TwilioAccountSID != "" && p.TwilioAuthToken != "" && p.TwilioFromNumber != ""
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from MISCIO_* environment variables.
func (p *Profile) FromEnv() {
	p.Secret = getEnvOrDefault("MISCIO_SECRET", p.Secret)
	p.OpenAIAPIKey = getEnvOrDefault("MISCIO_OPENAI_API_KEY", p.OpenAIAPIKey)
	p.OpenAIBaseURL = getEnvOrDefault("MISCIO_OPENAI_BASE_URL", "https://api.openai.com/v1")
	p.OpenAIModel = getEnvOrDefault("MISCIO_OPENAI_MODEL", "gpt-4o-mini")
	p.TwilioAccountSID = getEnvOrDefault("MISCIO_TWILIO_ACCOUNT_SID", p.TwilioAccountSID)
	p.TwilioAuthToken = getEnvOrDefault("MISCIO_TWILIO_AUTH_TOKEN", p.TwilioAuthToken)
	p.TwilioFromNumber = getEnvOrDefault("MISCIO_TWILIO_FROM_NUMBER", p.TwilioFromNumber)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}
	// Trim trailing "/" in case the user supplies one.
	dataDir = strings.TrimRight(dataDir, "/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

// Validate normalizes the profile and fills in driver-dependent defaults.
func (p *Profile) Validate() error {
	if p.Mode != "prod" && p.Mode != "dev" {
		p.Mode = "dev"
	}
	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported driver %q: only 'sqlite' and 'postgres' are supported", p.Driver)
	}
	if p.TokenTTL <= 0 {
		p.TokenTTL = 24 * time.Hour
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("miscio_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for postgres driver")
	}
	return nil
}
