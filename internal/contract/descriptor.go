package contract

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"golang.org/x/crypto/sha3"
)

// ABIEntry is one ABI entry (function, event, etc.).
type ABIEntry struct {
	Name            string     `json:"name,omitempty"`
	Type            string     `json:"type"`
	Inputs          []ABIParam `json:"inputs"`
	Outputs         []ABIParam `json:"outputs,omitempty"`
	StateMutability string     `json:"stateMutability,omitempty"`
	Anonymous       bool       `json:"anonymous,omitempty"`
}

// ABIParam is a parameter in an ABI entry.
type ABIParam struct {
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Indexed    bool       `json:"indexed,omitempty"`
	Components []ABIParam `json:"components,omitempty"`
}

// IsReadFunction returns true if the function is read-only (view/pure).
func (e ABIEntry) IsReadFunction() bool {
	return e.Type == "function" &&
		(e.StateMutability == "view" || e.StateMutability == "pure")
}

// IsWriteFunction returns true if the function modifies state.
func (e ABIEntry) IsWriteFunction() bool {
	return e.Type == "function" &&
		(e.StateMutability == "nonpayable" || e.StateMutability == "payable")
}

// Signature returns the canonical form, e.g. "transfer(address,uint256)".
func (e ABIEntry) Signature() string {
	types := make([]string, len(e.Inputs))
	for i, p := range e.Inputs {
		types[i] = p.canonicalType()
	}
	return e.Name + "(" + strings.Join(types, ",") + ")"
}

func (p ABIParam) canonicalType() string {
	if !strings.HasPrefix(p.Type, "tuple") {
		return p.Type
	}
	inner := make([]string, len(p.Components))
	for i, c := range p.Components {
		inner[i] = c.canonicalType()
	}
	return "(" + strings.Join(inner, ",") + ")" + strings.TrimPrefix(p.Type, "tuple")
}

// RequiredFunctions lists what the token client calls on the contract.
var RequiredFunctions = []string{
	"owner()",
	"name()",
	"symbol()",
	"decimals()",
	"totalSupply()",
	"balanceOf(address)",
	"mint(address,uint256)",
	"burn(uint256)",
	"transfer(address,uint256)",
}

// Descriptor is a parsed contract interface description.
type Descriptor struct {
	Source  string
	Entries []ABIEntry
	ABI     abi.ABI
}

// LoadDescriptor loads an interface description from a local file that is either:
//   - a raw ABI JSON array: [{"type":"function",...}, ...]
//   - a Hardhat/Foundry artifact: {"abi":[...],"bytecode":"0x...",...}
//
// Functions the token needs are not checked here; a mismatch surfaces when
// the function is called.
func LoadDescriptor(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read descriptor: %w", err)
	}
	return ParseDescriptor(data, path)
}

// ParseDescriptor parses artifact or raw ABI bytes. source names the origin in
// error messages.
func ParseDescriptor(data []byte, source string) (*Descriptor, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("descriptor is empty: %s", source)
	}

	raw := data
	if data[0] == '{' {
		var artifact struct {
			ABI json.RawMessage `json:"abi"`
		}
		if err := json.Unmarshal(data, &artifact); err != nil {
			return nil, fmt.Errorf("invalid artifact JSON in %s: %w", source, err)
		}
		if len(artifact.ABI) < 2 || artifact.ABI[0] != '[' {
			return nil, fmt.Errorf("artifact has no \"abi\" array: %s", source)
		}
		raw = artifact.ABI
	}

	var entries []ABIEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("invalid ABI JSON in %s: expected an array of function/event definitions: %w", source, err)
	}
	if err := validateEntries(entries, source); err != nil {
		return nil, err
	}

	parsed, err := abi.JSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing ABI in %s: %w", source, err)
	}
	return &Descriptor{Source: source, Entries: entries, ABI: parsed}, nil
}

// validateEntries checks that the parsed ABI has at least one function or event.
func validateEntries(entries []ABIEntry, source string) error {
	if len(entries) == 0 {
		return fmt.Errorf("ABI is empty (no functions or events found): %s", source)
	}
	for _, e := range entries {
		if e.Type == "function" || e.Type == "event" || e.Type == "constructor" {
			return nil
		}
	}
	return fmt.Errorf("ABI has %d entries but none are functions or events: %s", len(entries), source)
}

// Functions returns the function entries in declaration order.
func (d *Descriptor) Functions() []ABIEntry {
	var out []ABIEntry
	for _, e := range d.Entries {
		if e.Type == "function" {
			out = append(out, e)
		}
	}
	return out
}

// Has reports whether a function with the given signature is declared.
func (d *Descriptor) Has(sig string) bool {
	for _, e := range d.Entries {
		if e.Type == "function" && e.Signature() == sig {
			return true
		}
	}
	return false
}

// Missing returns the signatures in required that the descriptor lacks.
func (d *Descriptor) Missing(required []string) []string {
	var out []string
	for _, sig := range required {
		if !d.Has(sig) {
			out = append(out, sig)
		}
	}
	return out
}

// Selector returns the 4-byte function selector for a canonical signature.
func Selector(sig string) [4]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(sig))
	var sel [4]byte
	copy(sel[:], h.Sum(nil))
	return sel
}

// SelectorHex is Selector formatted as 0x-prefixed hex.
func SelectorHex(sig string) string {
	sel := Selector(sig)
	return "0x" + hex.EncodeToString(sel[:])
}
