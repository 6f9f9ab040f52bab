// Package config loads relayer settings: code defaults, then an optional YAML
// file, then RELAYER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// ErrConfiguration marks a missing or invalid startup setting. It is fatal.
var ErrConfiguration = errors.New("relayer configuration invalid")

const EnvPrefix = "RELAYER_"

type Config struct {
	Chain     ChainConfig     `yaml:"chain"`
	HTTP      HTTPConfig      `yaml:"http" envPrefix:"HTTP_"`
	Queue     QueueConfig     `yaml:"queue" envPrefix:"QUEUE_"`
	RateLimit RateLimitConfig `yaml:"rateLimit" envPrefix:"RATE_LIMIT_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
}

type ChainConfig struct {
	// PrivateKey is only read from the environment.
	PrivateKey       string `yaml:"-" env:"PK"`
	RPCURL           string `yaml:"rpcUrl" env:"RPC_URL"`
	ChainID          int64  `yaml:"chainId" env:"CHAIN_ID"`
	ContractAddress  string `yaml:"contractAddress" env:"CONTRACT_ADDRESS"`
	GasLimit         uint64 `yaml:"gasLimit" env:"GAS_LIMIT"`
	GasMarginPercent uint64 `yaml:"gasMarginPercent" env:"GAS_MARGIN_PERCENT"`
}

type HTTPConfig struct {
	Addr              string        `yaml:"addr" env:"ADDR"`
	RelayPath         string        `yaml:"relayPath" env:"RELAY_PATH"`
	MaxBodyBytes      int64         `yaml:"maxBodyBytes" env:"MAX_BODY_BYTES"`
	ReadHeaderTimeout time.Duration `yaml:"readHeaderTimeout" env:"READ_HEADER_TIMEOUT"`
	ShutdownTimeout   time.Duration `yaml:"shutdownTimeout" env:"SHUTDOWN_TIMEOUT"`
	TrustProxy        bool          `yaml:"trustProxy" env:"TRUST_PROXY"`
}

type QueueConfig struct {
	SubmitTimeout time.Duration `yaml:"submitTimeout" env:"SUBMIT_TIMEOUT"`
	// WaitTimeout bounds how long an HTTP caller waits for its outcome.
	WaitTimeout time.Duration `yaml:"waitTimeout" env:"WAIT_TIMEOUT"`
}

type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled" env:"ENABLED"`
	RPS     float64       `yaml:"rps" env:"RPS"`
	Burst   int           `yaml:"burst" env:"BURST"`
	IdleTTL time.Duration `yaml:"idleTTL" env:"IDLE_TTL"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

func Default() Config {
	return Config{
		Chain: ChainConfig{
			GasMarginPercent: 20,
		},
		HTTP: HTTPConfig{
			Addr:              "0.0.0.0:8080",
			RelayPath:         "/api/relayInteraction",
			MaxBodyBytes:      64 << 10,
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Queue: QueueConfig{
			SubmitTimeout: 30 * time.Second,
			WaitTimeout:   2 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     10,
			Burst:   20,
			IdleTTL: 10 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load resolves the configuration and validates it. configPath may be empty,
// in which case the conventional locations are tried.
func Load(configPath string) (Config, error) {
	cfg := Default()
	if err := mergeFile(&cfg, configPath); err != nil {
		return Config{}, err
	}
	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeFile(cfg *Config, configPath string) error {
	candidates := []string{configPath}
	if configPath == "" {
		candidates = []string{
			"configs/relayer.yaml",
			"go-backend/configs/relayer.yaml",
		}
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			if configPath != "" {
				return fmt.Errorf("%w: read %s: %v", ErrConfiguration, path, err)
			}
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("%w: parse %s: %v", ErrConfiguration, path, err)
		}
		return nil
	}
	return nil
}

// ApplyEnv overrides fields whose RELAYER_* variable is set; unset variables
// leave the current value alone.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("%w: parse env: %v", ErrConfiguration, err)
	}
	return nil
}

// Validate reports every missing or malformed required value at once.
func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Chain.PrivateKey) == "" {
		problems = append(problems, EnvPrefix+"PK is required")
	}
	if strings.TrimSpace(c.Chain.RPCURL) == "" {
		problems = append(problems, EnvPrefix+"RPC_URL is required")
	}
	if c.Chain.ChainID <= 0 {
		problems = append(problems, EnvPrefix+"CHAIN_ID must be a positive integer")
	}
	switch addr := strings.TrimSpace(c.Chain.ContractAddress); {
	case addr == "":
		problems = append(problems, EnvPrefix+"CONTRACT_ADDRESS is required")
	case !common.IsHexAddress(addr):
		problems = append(problems, EnvPrefix+"CONTRACT_ADDRESS is not a hex address")
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		problems = append(problems, "http.maxBodyBytes must be positive")
	}
	if !strings.HasPrefix(c.HTTP.RelayPath, "/") {
		problems = append(problems, "http.relayPath must start with /")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		problems = append(problems, "rateLimit.rps and rateLimit.burst must be positive when enabled")
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(problems, "; "))
}

// Contract returns the validated contract address.
func (c ChainConfig) Contract() common.Address {
	return common.HexToAddress(strings.TrimSpace(c.ContractAddress))
}
