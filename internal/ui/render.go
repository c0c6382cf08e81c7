package ui

import (
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/w3token/internal/session"
)

// PendingTx is a submitted transaction that has not been confirmed yet.
type PendingTx struct {
	Action string
	Hash   string
}

// PageView is everything RenderPage needs. It is built from a session
// snapshot and never read back.
type PageView struct {
	HasProvider bool
	Provider    string
	Deployment  string
	Snapshot    session.Snapshot
	Pending     []PendingTx
	Notice      string
	Err         string
	// Interactive shows key bindings instead of CLI commands.
	Interactive bool
}

// RenderPage renders the token page for a view.
func RenderPage(v PageView) string {
	var sb strings.Builder

	title := "w3token"
	if v.Deployment != "" {
		title += " · " + v.Deployment
	}
	sb.WriteString(StyleTitle.Render(title) + "\n")

	switch {
	case !v.HasProvider:
		sb.WriteString(Warn("No wallet provider detected. Install a wallet to use this page.") + "\n")
		sb.WriteString(Hint("Point w3token at a wallet with `w3token config set provider_url <url>`, "+
			"or add a local key with `w3token wallet add <name>` and `w3token config set provider keystore`.") + "\n")

	case !v.Snapshot.Connected:
		sb.WriteString(Info("Connect your wallet to see your token balance.") + "\n")
		if v.Interactive {
			sb.WriteString(Hint("Press "+Key("c")+" to connect.") + "\n")
		} else {
			sb.WriteString(Hint("Run `w3token connect` or `w3token info --connect`.") + "\n")
		}

	default:
		sb.WriteString(tokenPanel(v.Snapshot) + "\n")
		sb.WriteString(actionsLine(v) + "\n")
	}

	for _, p := range v.Pending {
		sb.WriteString(Warn(fmt.Sprintf("%s submitted, not yet confirmed: %s", p.Action, p.Hash)) + "\n")
	}
	if v.Notice != "" {
		sb.WriteString(Success(v.Notice) + "\n")
	}
	if v.Err != "" {
		sb.WriteString(Err(v.Err) + "\n")
	}
	return sb.String()
}

const placeholder = "…"

func tokenPanel(s session.Snapshot) string {
	name, symbol, decimals, supply := placeholder, placeholder, placeholder, placeholder
	if m := s.Metadata; m != nil {
		name = m.Name
		symbol = m.Symbol
		decimals = fmt.Sprintf("%d", m.Decimals)
		supply = m.Supply() + " " + m.Symbol
	}

	balance := placeholder
	if s.Balance != nil {
		balance = s.BalanceText()
		if s.Metadata != nil {
			balance += " " + s.Metadata.Symbol
		}
	}

	role := placeholder
	if s.OwnerKnown {
		role = "holder"
		if s.IsOwner {
			role = "owner"
		}
	}

	contractAddr := placeholder
	if s.Bound {
		contractAddr = s.Contract.Hex()
	}

	return KeyValueBlock("Token", [][2]string{
		{"Account", s.Account.Hex()},
		{"Contract", contractAddr},
		{"Name", name},
		{"Symbol", symbol},
		{"Decimals", decimals},
		{"Total Supply", supply},
		{"Balance", balance},
		{"Role", role},
	})
}

// actionsLine lists what the account may do. Mint is offered to the owner only.
func actionsLine(v PageView) string {
	type action struct{ key, label, cmd string }
	var actions []action
	if v.Snapshot.IsOwner {
		actions = append(actions, action{"m", "Mint", "w3token mint --amount <n>"})
	}
	actions = append(actions,
		action{"b", "Burn", "w3token burn --amount <n>"},
		action{"t", "Transfer", "w3token transfer --to <addr> --amount <n>"},
	)

	parts := make([]string, len(actions))
	for i, a := range actions {
		if v.Interactive {
			parts[i] = Key(a.key) + " " + a.label
		} else {
			parts[i] = a.label + " " + Meta("("+a.cmd+")")
		}
	}
	sep := "  "
	if !v.Interactive {
		sep = "\n  "
	}
	return "Actions: " + strings.Join(parts, sep)
}
