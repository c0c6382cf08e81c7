package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultProvider = ProviderRPC
	defaultPollMS   = int(DefaultPollInterval / time.Millisecond)

	configFile      = "config.json"
	deploymentsFile = "deployments.yaml"
	walletsFile     = "wallets.json"
)

// Environment overrides.
const (
	EnvConfigDir   = "W3TOKEN_CONFIG_DIR"
	EnvContract    = "W3TOKEN_CONTRACT"
	EnvRPCURL      = "W3TOKEN_RPC_URL"
	EnvArtifact    = "W3TOKEN_ARTIFACT"
	EnvProviderURL = "W3TOKEN_PROVIDER_URL"
)

// Load reads config from dir (or creates defaults). dir defaults to ~/.w3token.
func Load(dir string) (*Config, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".w3token")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	data, err := os.ReadFile(filepath.Join(dir, configFile))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
		cfg.configDir = dir
	}

	cfg.providerURLEnv = os.Getenv(EnvProviderURL)
	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// Set assigns a config value by its JSON key.
func (c *Config) Set(key, value string) error {
	switch key {
	case "deployment":
		c.Deployment = value
	case "provider":
		if value != ProviderRPC && value != ProviderKeystore {
			return fmt.Errorf("provider must be %q or %q, got %q", ProviderRPC, ProviderKeystore, value)
		}
		c.Provider = value
	case "provider_url":
		c.ProviderURL = value
	case "default_wallet":
		c.DefaultWallet = value
	case "poll_interval_ms":
		ms, err := strconv.Atoi(value)
		if err != nil || ms <= 0 {
			return fmt.Errorf("poll_interval_ms must be a positive integer, got %q", value)
		}
		c.PollIntervalMS = ms
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// WalletsPath returns the path of the keystore wallet list.
func (c *Config) WalletsPath() string {
	return filepath.Join(c.configDir, walletsFile)
}

// LogDir returns the directory log files are written to.
func (c *Config) LogDir() string {
	return filepath.Join(c.configDir, "logs")
}

// WalletURL returns the rpc provider endpoint. W3TOKEN_PROVIDER_URL takes
// precedence over provider_url.
func (c *Config) WalletURL() string {
	if c.providerURLEnv != "" {
		return c.providerURLEnv
	}
	return c.ProviderURL
}

// PollInterval returns the receipt polling interval.
func (c *Config) PollInterval() time.Duration {
	if c.PollIntervalMS <= 0 {
		return DefaultPollInterval
	}
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// LoadDeployments reads deployments.yaml. The built-in localhost deployment is
// always present unless the file redefines it.
func (c *Config) LoadDeployments() ([]Deployment, error) {
	deployments := []Deployment{localDeployment()}

	data, err := os.ReadFile(filepath.Join(c.configDir, deploymentsFile))
	if os.IsNotExist(err) {
		return deployments, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading deployments: %w", err)
	}

	var df DeploymentsFile
	if err := yaml.Unmarshal(data, &df); err != nil {
		return nil, fmt.Errorf("parsing deployments: %w", err)
	}

	for _, d := range df.Deployments {
		d.RPCURL = expandEnv(d.RPCURL)
		d.Contract = expandEnv(d.Contract)
		d.Artifact = expandEnv(d.Artifact)
		if d.Name == LocalDeploymentName {
			deployments[0] = d
			continue
		}
		deployments = append(deployments, d)
	}
	return deployments, nil
}

// SaveDeployments writes deployments.yaml, leaving out the built-in entry
// when it is unchanged.
func (c *Config) SaveDeployments(deployments []Deployment) error {
	var df DeploymentsFile
	for _, d := range deployments {
		if d == localDeployment() {
			continue
		}
		df.Deployments = append(df.Deployments, d)
	}
	data, err := yaml.Marshal(&df)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, deploymentsFile), data, 0o600)
}

// PutDeployment adds d to deployments.yaml or replaces the entry with the
// same name. Other entries are written back as found, without expanding
// environment references.
func (c *Config) PutDeployment(d Deployment) error {
	var df DeploymentsFile
	data, err := os.ReadFile(filepath.Join(c.configDir, deploymentsFile))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading deployments: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &df); err != nil {
			return fmt.Errorf("parsing deployments: %w", err)
		}
	}

	replaced := false
	for i := range df.Deployments {
		if df.Deployments[i].Name == d.Name {
			df.Deployments[i] = d
			replaced = true
		}
	}
	if !replaced {
		df.Deployments = append(df.Deployments, d)
	}
	return c.SaveDeployments(df.Deployments)
}

// ActiveDeployment resolves name (or the configured deployment when name is
// empty) and applies environment overrides.
func (c *Config) ActiveDeployment(name string) (*Deployment, error) {
	if name == "" {
		name = c.Deployment
	}
	deployments, err := c.LoadDeployments()
	if err != nil {
		return nil, err
	}

	var found *Deployment
	for i := range deployments {
		if deployments[i].Name == name {
			found = &deployments[i]
			break
		}
	}
	if found == nil {
		return nil, fmt.Errorf("unknown deployment %q (run `w3token deployments` to list them)", name)
	}

	if v := os.Getenv(EnvContract); v != "" {
		found.Contract = v
	}
	if v := os.Getenv(EnvRPCURL); v != "" {
		found.RPCURL = v
	}
	if v := os.Getenv(EnvArtifact); v != "" {
		found.Artifact = v
	}
	if found.Contract == "" {
		return nil, fmt.Errorf("deployment %q has no contract address", found.Name)
	}
	if found.RPCURL == "" {
		return nil, fmt.Errorf("deployment %q has no rpc_url", found.Name)
	}
	return found, nil
}

// --- helpers ---

func defaults(dir string) *Config {
	return &Config{
		Deployment:     LocalDeploymentName,
		Provider:       defaultProvider,
		ProviderURL:    LocalRPCURL,
		PollIntervalMS: defaultPollMS,
		configDir:      dir,
	}
}

func localDeployment() Deployment {
	return Deployment{
		Name:     LocalDeploymentName,
		ChainID:  LocalChainID,
		RPCURL:   LocalRPCURL,
		Contract: LocalContract,
	}
}

// expandEnv replaces ${VAR} and $VAR references. A value that is exactly one
// reference to an unset variable is returned unchanged.
func expandEnv(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	expanded := os.ExpandEnv(s)
	if expanded == "" {
		return s
	}
	return expanded
}
