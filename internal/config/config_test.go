package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Mohsinsiddi/w3token/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Deployment)
	assert.Equal(t, config.ProviderRPC, cfg.Provider)
	assert.Equal(t, config.LocalRPCURL, cfg.ProviderURL)
	assert.Equal(t, 2*time.Second, cfg.PollInterval())
	assert.Equal(t, dir, cfg.Dir())
}

func TestSaveAndReloadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	cfg.Deployment = "sepolia"
	cfg.Provider = config.ProviderKeystore
	cfg.DefaultWallet = "deployer"

	require.NoError(t, cfg.Save())

	reloaded, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "sepolia", reloaded.Deployment)
	assert.Equal(t, config.ProviderKeystore, reloaded.Provider)
	assert.Equal(t, "deployer", reloaded.DefaultWallet)
	assert.Equal(t, dir, reloaded.Dir())
}

func TestLoadInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{nope"), 0o600))

	_, err := config.Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestProviderURLEnvOverride(t *testing.T) {
	t.Setenv(config.EnvProviderURL, "http://127.0.0.1:1248")
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:1248", cfg.WalletURL())
	assert.Equal(t, config.LocalRPCURL, cfg.ProviderURL)
}

func TestProviderURLEnvOverrideIsNotSaved(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvProviderURL, "http://127.0.0.1:1248")
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	require.NoError(t, cfg.Set("default_wallet", "alice"))
	require.NoError(t, cfg.Save())

	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "1248")

	t.Setenv(config.EnvProviderURL, "")
	reloaded, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, config.LocalRPCURL, reloaded.WalletURL())
	assert.Equal(t, "alice", reloaded.DefaultWallet)
}

func TestSetKnownKeys(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cfg.Set("deployment", "mainnet"))
	require.NoError(t, cfg.Set("provider", "keystore"))
	require.NoError(t, cfg.Set("provider_url", "http://wallet:1248"))
	require.NoError(t, cfg.Set("default_wallet", "alice"))
	require.NoError(t, cfg.Set("poll_interval_ms", "500"))

	assert.Equal(t, "mainnet", cfg.Deployment)
	assert.Equal(t, "keystore", cfg.Provider)
	assert.Equal(t, "http://wallet:1248", cfg.ProviderURL)
	assert.Equal(t, "alice", cfg.DefaultWallet)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval())
}

func TestSetRejectsBadValues(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, cfg.Set("provider", "metamask"))
	assert.Error(t, cfg.Set("poll_interval_ms", "0"))
	assert.Error(t, cfg.Set("poll_interval_ms", "fast"))
	assert.Error(t, cfg.Set("colour", "blue"))
}

func TestBuiltinLocalDeployment(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	d, err := cfg.ActiveDeployment("")
	require.NoError(t, err)
	assert.Equal(t, "localhost", d.Name)
	assert.Equal(t, config.LocalContract, d.Contract)
	assert.Equal(t, int64(31337), d.ChainID)
	assert.Empty(t, d.Artifact)
}

func TestDeploymentsYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SEPOLIA_RPC", "https://rpc.sepolia.example")
	yml := `deployments:
  - name: sepolia
    chain_id: 11155111
    rpc_url: ${SEPOLIA_RPC}
    contract: "0x1111111111111111111111111111111111111111"
    artifact: artifacts/contracts/IbramizyToken.sol/IbramizyToken.json
    explorer: https://sepolia.etherscan.io
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deployments.yaml"), []byte(yml), 0o600))

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	all, err := cfg.LoadDeployments()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "localhost", all[0].Name)

	d, err := cfg.ActiveDeployment("sepolia")
	require.NoError(t, err)
	assert.Equal(t, "https://rpc.sepolia.example", d.RPCURL)
	assert.Equal(t, int64(11155111), d.ChainID)
	assert.Equal(t, "https://sepolia.etherscan.io", d.Explorer)
}

func TestDeploymentsYAMLOverridesLocalhost(t *testing.T) {
	dir := t.TempDir()
	yml := `deployments:
  - name: localhost
    chain_id: 31337
    rpc_url: http://127.0.0.1:9545
    contract: "0x2222222222222222222222222222222222222222"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deployments.yaml"), []byte(yml), 0o600))
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	all, err := cfg.LoadDeployments()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "http://127.0.0.1:9545", all[0].RPCURL)
}

func TestDeploymentsInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deployments.yaml"), []byte("deployments: [oops"), 0o600))
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	_, err = cfg.LoadDeployments()
	require.Error(t, err)
}

func TestActiveDeploymentUnknown(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	_, err = cfg.ActiveDeployment("nowhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown deployment")
}

func TestActiveDeploymentEnvOverrides(t *testing.T) {
	t.Setenv(config.EnvContract, "0x3333333333333333333333333333333333333333")
	t.Setenv(config.EnvRPCURL, "http://node:8545")
	t.Setenv(config.EnvArtifact, "/tmp/Token.json")

	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	d, err := cfg.ActiveDeployment("")
	require.NoError(t, err)
	assert.Equal(t, "0x3333333333333333333333333333333333333333", d.Contract)
	assert.Equal(t, "http://node:8545", d.RPCURL)
	assert.Equal(t, "/tmp/Token.json", d.Artifact)
}

func TestSaveDeploymentsRoundTrip(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	all, err := cfg.LoadDeployments()
	require.NoError(t, err)
	all = append(all, config.Deployment{
		Name:     "base",
		ChainID:  8453,
		RPCURL:   "https://mainnet.base.org",
		Contract: "0x4444444444444444444444444444444444444444",
	})
	require.NoError(t, cfg.SaveDeployments(all))

	reloaded, err := cfg.LoadDeployments()
	require.NoError(t, err)
	assert.Equal(t, all, reloaded)
}

func TestPutDeploymentKeepsEnvReferences(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	yml := "deployments:\n  - name: sepolia\n    chain_id: 11155111\n    rpc_url: ${SEPOLIA_TEST_RPC}\n    contract: \"0x1111111111111111111111111111111111111111\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deployments.yaml"), []byte(yml), 0o600))
	t.Setenv("SEPOLIA_TEST_RPC", "https://rpc.example")

	require.NoError(t, cfg.PutDeployment(config.Deployment{
		Name:     "base",
		ChainID:  8453,
		RPCURL:   "https://mainnet.base.org",
		Contract: "0x4444444444444444444444444444444444444444",
	}))

	raw, err := os.ReadFile(filepath.Join(dir, "deployments.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "${SEPOLIA_TEST_RPC}")

	all, err := cfg.LoadDeployments()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "https://rpc.example", all[1].RPCURL)
	assert.Equal(t, "base", all[2].Name)
}

func TestPutDeploymentReplacesByName(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	d := config.Deployment{Name: "base", ChainID: 8453, RPCURL: "https://a", Contract: "0x4444444444444444444444444444444444444444"}
	require.NoError(t, cfg.PutDeployment(d))
	d.RPCURL = "https://b"
	require.NoError(t, cfg.PutDeployment(d))

	got, err := cfg.ActiveDeployment("base")
	require.NoError(t, err)
	assert.Equal(t, "https://b", got.RPCURL)
}
