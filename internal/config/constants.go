package config

import "time"

// GasLimitFallback is used when the node cannot estimate gas for a reason
// other than a revert. Covers mint, burn and transfer on a standard ERC20.
const GasLimitFallback = uint64(100_000)

const (
	DefaultPollInterval   = 2 * time.Second
	ProviderDetectTimeout = 5 * time.Second
)

// Provider kinds.
const (
	ProviderRPC      = "rpc"
	ProviderKeystore = "keystore"
)

// Built-in deployment: the first contract a fresh Hardhat node deploys.
const (
	LocalDeploymentName = "localhost"
	LocalContract       = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	LocalRPCURL         = "http://127.0.0.1:8545"
	LocalChainID        = 31337
)
