package licensor

import (
	"crypto"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of the environment variables read by LoadConfig.
const EnvPrefix = "LICENSOR"

// Config holds environment-driven settings shared by issuers and verifiers.
type Config struct {
	Algorithm             string        `envconfig:"SIGNATURE_ALGORITHM" default:"Ed25519"`
	Encoding              string        `envconfig:"CANONICAL_ENCODING" default:"line"`
	RevocationForceOnline bool          `envconfig:"REVOCATION_FORCE_ONLINE" default:"false"`
	RevocationTimeout     time.Duration `envconfig:"REVOCATION_TIMEOUT" default:"0s"`
	UserAgent             string        `envconfig:"USER_AGENT" default:"licensor-go/1.0"`
	PublicKeyFile         string        `envconfig:"PUBLIC_KEY_FILE"`
}

// LoadConfig reads LICENSOR_* environment variables and validates them.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the algorithm and encoding names.
func (c *Config) Validate() error {
	if _, err := ParseAlgorithm(c.Algorithm); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := EncoderByName(c.Encoding); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.RevocationTimeout < 0 {
		return fmt.Errorf("invalid config: negative revocation timeout %s", c.RevocationTimeout)
	}
	return nil
}

// DocumentOptions returns the options that make new documents use the
// configured algorithm and encoding.
func (c *Config) DocumentOptions() ([]DocumentOption, error) {
	alg, err := ParseAlgorithm(c.Algorithm)
	if err != nil {
		return nil, err
	}
	enc, err := EncoderByName(c.Encoding)
	if err != nil {
		return nil, err
	}
	return []DocumentOption{WithAlgorithm(alg), WithEncoder(enc)}, nil
}

// RevocationOptions returns the options for a RevocationChecker.
func (c *Config) RevocationOptions() []RevocationOption {
	return []RevocationOption{
		WithForceOnline(c.RevocationForceOnline),
		WithTimeout(c.RevocationTimeout),
		WithUserAgent(c.UserAgent),
	}
}

// PublicKey loads the PEM public key named by PublicKeyFile.
func (c *Config) PublicKey() (crypto.PublicKey, error) {
	if c.PublicKeyFile == "" {
		return nil, fmt.Errorf("%w: %s_PUBLIC_KEY_FILE is not set", ErrPublicKeyInvalid, EnvPrefix)
	}
	raw, err := os.ReadFile(c.PublicKeyFile)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	return ParsePublicKeyPEM(raw)
}
