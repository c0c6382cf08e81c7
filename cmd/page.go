package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/w3token/internal/controller"
	"github.com/Mohsinsiddi/w3token/internal/provider"
	"github.com/Mohsinsiddi/w3token/internal/ui"
)

var infoConnect bool

var pageCmd = &cobra.Command{
	Use:   "page",
	Short: "Open the interactive token page",
	Long: `Open the interactive token page.

Keys:
  c  connect wallet      r  refresh
  m  mint (owner only)   b  burn
  t  transfer            q  quit`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPage(cmd.Context())
	},
}

func runPage(ctx context.Context) error {
	var page *ui.Page
	observe := func(action controller.Action, status controller.Status, hash common.Hash) {
		if page != nil {
			page.Observe(action, status, hash)
		}
	}
	a, err := newApp(ctx, appOptions{observer: observe, consent: grantConsent})
	if err != nil {
		return err
	}
	defer a.Close()

	page = ui.NewPage(a.deployment.Name, a.providerName())
	return page.Run(ctx, a.ctrl)
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the token and your balance",
	Long: `Print the token panel for the connected account.

Accounts already authorised by the wallet are picked up silently. Pass
--connect to ask the wallet for access when none is.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		view := ui.PageView{
			HasProvider: a.ctrl.HasProvider(),
			Provider:    a.providerName(),
			Deployment:  a.deployment.Name,
		}

		spin := ui.NewSpinner("Loading token...")
		spin.Start()
		err = a.ctrl.Init(ctx)
		spin.Stop()
		if err == nil && infoConnect && !a.ctrl.State().Snapshot().Connected {
			_, err = a.ctrl.Connect(ctx)
		}

		if err != nil && !errors.Is(err, provider.ErrProviderUnavailable) {
			logger.Warn("info: session not fully loaded", zap.Error(err))
			view.Err = describeError(err)
		}
		view.Snapshot = a.ctrl.State().Snapshot()
		fmt.Print(ui.RenderPage(view))
		return nil
	},
}

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Ask the wallet for access and show the account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		account, err := a.ctrl.Connect(ctx)
		if err != nil {
			return err
		}
		snap := a.ctrl.State().Snapshot()
		fmt.Println(ui.Success("Connected " + ui.Addr(account.Hex())))
		pairs := [][2]string{
			{"Provider", a.providerName()},
			{"Contract", ui.Addr(snap.Contract.Hex())},
			{"Balance", snap.BalanceText()},
		}
		if snap.IsOwner {
			pairs = append(pairs, [2]string{"Role", ui.Symbol("owner")})
		}
		fmt.Println(ui.KeyValueBlock("Account", pairs))
		return nil
	},
}

func init() {
	infoCmd.Flags().BoolVar(&infoConnect, "connect", false, "ask the wallet for access if no account is authorised")
}
