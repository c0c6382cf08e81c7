package contract

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Builtin describes a contract interface embedded in the binary.
type Builtin struct {
	ID          string // machine key, e.g. "token", "erc20"
	Name        string // human label
	Description string // one-line summary shown by `descriptor --builtins`
	Entries     []ABIEntry
}

// DefaultBuiltin is used when a deployment names no artifact.
const DefaultBuiltin = "token"

var builtins = map[string]Builtin{
	// OpenZeppelin v5 ERC20 + ERC20Burnable + Ownable with an onlyOwner mint.
	//
	//	owner()             → 0x8da5cb5b
	//	mint(a,u256)        → 0x40c10f19
	//	burn(u256)          → 0x42966c68
	//	transfer(a,u256)    → 0xa9059cbb
	DefaultBuiltin: {
		ID:          DefaultBuiltin,
		Name:        "Mintable+Burnable ERC-20",
		Description: "ERC-20 with owner-only mint and holder burn",
		Entries:     tokenABI,
	},
	"erc20": {
		ID:          "erc20",
		Name:        "ERC-20",
		Description: "plain ERC-20, no mint, burn or owner",
		Entries:     erc20Entries(),
	},
}

// BuiltinDescriptor returns the embedded mintable/burnable/ownable token
// interface.
func BuiltinDescriptor() *Descriptor {
	d, err := LoadBuiltin(DefaultBuiltin)
	if err != nil {
		panic(err) // the embedded ABI is static
	}
	return d
}

// LoadBuiltin parses a built-in interface by ID.
func LoadBuiltin(id string) (*Descriptor, error) {
	b, ok := builtins[id]
	if !ok {
		return nil, fmt.Errorf("unknown built-in descriptor %q", id)
	}
	data, err := json.Marshal(b.Entries)
	if err != nil {
		return nil, err
	}
	return ParseDescriptor(data, "builtin:"+id)
}

// AllBuiltins returns all built-ins sorted by ID.
func AllBuiltins() []Builtin {
	out := make([]Builtin, 0, len(builtins))
	for _, b := range builtins {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// erc20Entries is tokenABI without the Ownable, Burnable and mint parts.
func erc20Entries() []ABIEntry {
	extra := map[string]bool{
		"burn": true, "burnFrom": true, "owner": true, "mint": true,
		"transferOwnership": true, "renounceOwnership": true, "OwnershipTransferred": true,
	}
	var out []ABIEntry
	for _, e := range tokenABI {
		if !extra[e.Name] {
			out = append(out, e)
		}
	}
	return out
}

var tokenABI = []ABIEntry{
	// ── ERC-20 read ──────────────────────────────────────────────────────────
	{
		Name: "name", Type: "function",
		Inputs: nil, Outputs: []ABIParam{{Name: "", Type: "string"}},
		StateMutability: "view",
	},
	{
		Name: "symbol", Type: "function",
		Inputs: nil, Outputs: []ABIParam{{Name: "", Type: "string"}},
		StateMutability: "view",
	},
	{
		Name: "decimals", Type: "function",
		Inputs: nil, Outputs: []ABIParam{{Name: "", Type: "uint8"}},
		StateMutability: "view",
	},
	{
		Name: "totalSupply", Type: "function",
		Inputs: nil, Outputs: []ABIParam{{Name: "", Type: "uint256"}},
		StateMutability: "view",
	},
	{
		Name: "balanceOf", Type: "function",
		Inputs:          []ABIParam{{Name: "account", Type: "address"}},
		Outputs:         []ABIParam{{Name: "", Type: "uint256"}},
		StateMutability: "view",
	},
	{
		Name: "allowance", Type: "function",
		Inputs:          []ABIParam{{Name: "owner", Type: "address"}, {Name: "spender", Type: "address"}},
		Outputs:         []ABIParam{{Name: "", Type: "uint256"}},
		StateMutability: "view",
	},
	// ── ERC-20 write ─────────────────────────────────────────────────────────
	{
		Name: "transfer", Type: "function",
		Inputs:          []ABIParam{{Name: "to", Type: "address"}, {Name: "value", Type: "uint256"}},
		Outputs:         []ABIParam{{Name: "", Type: "bool"}},
		StateMutability: "nonpayable",
	},
	{
		Name: "approve", Type: "function",
		Inputs:          []ABIParam{{Name: "spender", Type: "address"}, {Name: "value", Type: "uint256"}},
		Outputs:         []ABIParam{{Name: "", Type: "bool"}},
		StateMutability: "nonpayable",
	},
	{
		Name: "transferFrom", Type: "function",
		Inputs:          []ABIParam{{Name: "from", Type: "address"}, {Name: "to", Type: "address"}, {Name: "value", Type: "uint256"}},
		Outputs:         []ABIParam{{Name: "", Type: "bool"}},
		StateMutability: "nonpayable",
	},
	// ── ERC20Burnable ────────────────────────────────────────────────────────
	{
		Name: "burn", Type: "function",
		Inputs:          []ABIParam{{Name: "value", Type: "uint256"}},
		Outputs:         nil,
		StateMutability: "nonpayable",
	},
	{
		Name: "burnFrom", Type: "function",
		Inputs:          []ABIParam{{Name: "account", Type: "address"}, {Name: "value", Type: "uint256"}},
		Outputs:         nil,
		StateMutability: "nonpayable",
	},
	// ── Ownable ──────────────────────────────────────────────────────────────
	{
		Name: "owner", Type: "function",
		Inputs: nil, Outputs: []ABIParam{{Name: "", Type: "address"}},
		StateMutability: "view",
	},
	{
		Name: "transferOwnership", Type: "function",
		Inputs:          []ABIParam{{Name: "newOwner", Type: "address"}},
		Outputs:         nil,
		StateMutability: "nonpayable",
	},
	{
		Name: "renounceOwnership", Type: "function",
		Inputs:          nil,
		Outputs:         nil,
		StateMutability: "nonpayable",
	},
	// ── Custom: mint ─────────────────────────────────────────────────────────
	{
		Name: "mint", Type: "function",
		Inputs:          []ABIParam{{Name: "to", Type: "address"}, {Name: "amount", Type: "uint256"}},
		Outputs:         nil,
		StateMutability: "nonpayable",
	},
	// ── Events ───────────────────────────────────────────────────────────────
	{
		Name:   "Transfer",
		Type:   "event",
		Inputs: []ABIParam{{Name: "from", Type: "address", Indexed: true}, {Name: "to", Type: "address", Indexed: true}, {Name: "value", Type: "uint256"}},
	},
	{
		Name:   "Approval",
		Type:   "event",
		Inputs: []ABIParam{{Name: "owner", Type: "address", Indexed: true}, {Name: "spender", Type: "address", Indexed: true}, {Name: "value", Type: "uint256"}},
	},
	{
		Name:   "OwnershipTransferred",
		Type:   "event",
		Inputs: []ABIParam{{Name: "previousOwner", Type: "address", Indexed: true}, {Name: "newOwner", Type: "address", Indexed: true}},
	},
}
