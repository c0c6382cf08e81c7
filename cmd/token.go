package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3token/internal/controller"
	"github.com/Mohsinsiddi/w3token/internal/ui"
)

// ── flag vars ─────────────────────────────────────────────────────────────────

var (
	tokenTo     string
	tokenAmount string
	tokenYes    bool
)

// ── mint / burn / transfer ────────────────────────────────────────────────────

var mintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Mint tokens to your account (owner only)",
	Long: `Mint new tokens to the connected account. Only the contract owner may
mint; for anyone else nothing is sent.

Examples:
  w3token mint --amount 5000
  w3token mint --amount 0.5 --deployment sepolia`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd.Context(), controller.ActionMint)
	},
}

var burnCmd = &cobra.Command{
	Use:   "burn",
	Short: "Burn tokens from your account",
	Long: `Destroy tokens held by the connected account.

Examples:
  w3token burn --amount 100`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd.Context(), controller.ActionBurn)
	},
}

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Send tokens to another address",
	Long: `Transfer tokens from the connected account.

Mixed-case recipients must carry a valid EIP-55 checksum.

Examples:
  w3token transfer --to 0x70997970C51812dc3A010C7d01b50e0d17dc79C8 --amount 25`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd.Context(), controller.ActionTransfer)
	},
}

func runAction(ctx context.Context, action controller.Action) error {
	if action == controller.ActionTransfer && tokenTo == "" {
		tokenTo = ui.Input("Recipient address")
	}
	if tokenAmount == "" {
		tokenAmount = ui.Input("Amount (token units)")
	}

	var spin *ui.Spinner
	observe := func(_ controller.Action, status controller.Status, hash common.Hash) {
		if spin != nil && status == controller.StatusSubmitted {
			spin.Update("Waiting for confirmation of " + ui.TruncateAddr(hash.Hex()) + "...")
		}
	}

	a, err := newApp(ctx, appOptions{observer: observe})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.ensureConnected(ctx); err != nil {
		return err
	}
	snap := a.ctrl.State().Snapshot()

	symbol := ""
	if snap.Metadata != nil {
		symbol = " " + snap.Metadata.Symbol
	}
	pairs := [][2]string{
		{"Account", ui.Addr(snap.Account.Hex())},
		{"Contract", ui.Addr(snap.Contract.Hex())},
	}
	if action == controller.ActionTransfer {
		pairs = append(pairs, [2]string{"To", ui.Addr(tokenTo)})
	}
	pairs = append(pairs,
		[2]string{"Amount", ui.Val(tokenAmount) + ui.Symbol(symbol)},
		[2]string{"Balance", snap.BalanceText()},
	)
	fmt.Println(ui.KeyValueBlock(fmt.Sprintf("%s Preview · %s", actionTitle(action), a.deployment.Name), pairs))

	if !tokenYes && !ui.Confirm(fmt.Sprintf("Send %s transaction?", action)) {
		fmt.Println(ui.Meta("Cancelled."))
		return nil
	}

	spin = ui.NewSpinner(fmt.Sprintf("Submitting %s...", action))
	spin.Start()
	var out controller.Outcome
	switch action {
	case controller.ActionMint:
		out, err = a.ctrl.Mint(ctx, tokenAmount)
	case controller.ActionBurn:
		out, err = a.ctrl.Burn(ctx, tokenAmount)
	case controller.ActionTransfer:
		out, err = a.ctrl.Transfer(ctx, tokenTo, tokenAmount)
	}
	spin.Stop()

	printOutcome(a, out)
	return err
}

func printOutcome(a *app, out controller.Outcome) {
	if out.Hash == (common.Hash{}) {
		return
	}
	title := actionTitle(out.Action)
	switch out.Status {
	case controller.StatusSubmitted:
		fmt.Println(ui.Warn(fmt.Sprintf("%s submitted, not yet confirmed: %s", title, out.Hash.Hex())))
		return
	case controller.StatusConfirmed:
		title += " Confirmed ✓"
	case controller.StatusReverted:
		title += " Reverted"
	case controller.StatusDropped:
		title += " Dropped"
	}

	pairs := [][2]string{{"Hash", ui.Addr(out.Hash.Hex())}}
	if r := out.Receipt; r != nil {
		pairs = append(pairs,
			[2]string{"Block", r.BlockNumber.String()},
			[2]string{"Gas Used", fmt.Sprintf("%d", r.GasUsed)},
		)
	}
	if out.Status == controller.StatusConfirmed {
		pairs = append(pairs, [2]string{"Balance", a.ctrl.State().Snapshot().BalanceText()})
	}
	if explorer := a.deployment.Explorer; explorer != "" {
		pairs = append(pairs, [2]string{"Explorer", ui.Meta(txURL(explorer, out.Hash))})
	}
	fmt.Println()
	fmt.Println(ui.KeyValueBlock(title, pairs))
}

func actionTitle(a controller.Action) string {
	s := string(a)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func txURL(explorer string, hash common.Hash) string {
	return strings.TrimRight(explorer, "/") + "/tx/" + hash.Hex()
}

func init() {
	for _, c := range []*cobra.Command{mintCmd, burnCmd, transferCmd} {
		c.Flags().StringVar(&tokenAmount, "amount", "", "amount in token units (e.g. 1.5)")
		c.Flags().BoolVarP(&tokenYes, "yes", "y", false, "skip the confirmation prompt")
	}
	transferCmd.Flags().StringVar(&tokenTo, "to", "", "recipient address")
}
