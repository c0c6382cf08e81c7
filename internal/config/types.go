package config

// Config holds all w3token configuration.
type Config struct {
	Deployment     string `json:"deployment"`       // name in deployments.yaml (or "localhost")
	Provider       string `json:"provider"`         // "rpc" | "keystore"
	ProviderURL    string `json:"provider_url"`     // wallet endpoint for the rpc provider
	DefaultWallet  string `json:"default_wallet"`   // keystore wallet offered on connect
	PollIntervalMS int    `json:"poll_interval_ms"` // receipt polling interval

	// internal: config dir path used for Save()
	configDir string
	// W3TOKEN_PROVIDER_URL; never saved
	providerURLEnv string
}

// Deployment is one deployed token contract and the network it lives on.
type Deployment struct {
	Name     string `yaml:"name"     json:"name"`
	ChainID  int64  `yaml:"chain_id" json:"chain_id"`
	RPCURL   string `yaml:"rpc_url"  json:"rpc_url"`
	Contract string `yaml:"contract" json:"contract"`
	Artifact string `yaml:"artifact" json:"artifact,omitempty"` // empty = built-in descriptor
	Explorer string `yaml:"explorer" json:"explorer,omitempty"`
}

// DeploymentsFile is the structure of deployments.yaml.
type DeploymentsFile struct {
	Deployments []Deployment `yaml:"deployments"`
}
