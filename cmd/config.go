package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/w3token/internal/chain"
	"github.com/Mohsinsiddi/w3token/internal/config"
	"github.com/Mohsinsiddi/w3token/internal/contract"
	"github.com/Mohsinsiddi/w3token/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("%s\n\n", ui.StyleTitle.Render("Current Configuration"))
		fmt.Println(string(data))
		fmt.Println(ui.Meta("Config directory: " + cfg.Dir()))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value by its key.

Keys:
  deployment        deployment used when --deployment is not given
  provider          rpc | keystore
  provider_url      wallet JSON-RPC endpoint for the rpc provider
  default_wallet    keystore wallet offered first on connect
  poll_interval_ms  receipt polling interval`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := cfg.Set(key, value); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("%s set to %q", key, value)))
		return nil
	},
}

// ── deployments ───────────────────────────────────────────────────────────────

var (
	deployRPC      string
	deployContract string
	deployChainID  int64
	deployArtifact string
	deployExplorer string
	deployCheck    bool
)

var deploymentsCmd = &cobra.Command{
	Use:   "deployments",
	Short: "List the token deployments",
	RunE: func(cmd *cobra.Command, args []string) error {
		deployments, err := cfg.LoadDeployments()
		if err != nil {
			return err
		}

		active := deploymentName
		if active == "" {
			active = cfg.Deployment
		}

		cols := []ui.Column{
			{Title: "Name", Width: 14},
			{Title: "Chain", Width: 9},
			{Title: "Contract", Width: 44},
			{Title: "RPC", Width: 32},
			{Title: "Active", Width: 6},
		}
		if deployCheck {
			cols = append(cols, ui.Column{Title: "Node", Width: 24})
		}
		t := ui.NewTable(cols)

		var spin *ui.Spinner
		if deployCheck {
			spin = ui.NewSpinner(fmt.Sprintf("Checking %d node(s)...", len(deployments)))
			spin.Start()
		}
		for _, d := range deployments {
			mark := ""
			if d.Name == active {
				mark = ui.StyleSuccess.Render("✓")
			}
			row := ui.Row{ui.Val(d.Name), fmt.Sprintf("%d", d.ChainID), ui.Addr(d.Contract), ui.Meta(d.RPCURL), mark}
			if deployCheck {
				row = append(row, nodeStatus(cmd.Context(), d))
			}
			t.AddRow(row)
		}
		if spin != nil {
			spin.Stop()
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Hint("Switch with: w3token config set deployment <name>"))
		return nil
	},
}

var deploymentsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add or replace a deployment",
	Long: `Add a deployment to deployments.yaml, replacing one with the same name.

Values may reference environment variables (${RPC_URL}); they are
expanded when the file is read.

Examples:
  w3token deployments add sepolia --chain-id 11155111 \
    --rpc '${SEPOLIA_RPC}' --contract 0x... --explorer https://sepolia.etherscan.io`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Environment references are checked when the deployment is used.
		if !strings.HasPrefix(deployContract, "$") {
			if _, err := contract.ParseAddress(deployContract); err != nil {
				return fmt.Errorf("--contract: %w", err)
			}
		}
		if deployArtifact != "" {
			if _, err := contract.LoadDescriptor(deployArtifact); err != nil {
				return err
			}
		}

		d := config.Deployment{
			Name:     args[0],
			ChainID:  deployChainID,
			RPCURL:   deployRPC,
			Contract: deployContract,
			Artifact: deployArtifact,
			Explorer: deployExplorer,
		}
		if err := cfg.PutDeployment(d); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Deployment %q saved.", d.Name)))
		return nil
	},
}

func nodeStatus(ctx context.Context, d config.Deployment) string {
	ep, err := chain.HealthCheck(ctx, d.RPCURL, d.ChainID)
	switch {
	case errors.Is(err, chain.ErrChainMismatch):
		return ui.StyleWarning.Render(fmt.Sprintf("chain %d", ep.ChainID))
	case err != nil:
		logger.Debug("node check failed", zap.String("deployment", d.Name), zap.Error(err))
		return ui.StyleError.Render("unreachable")
	}
	return ui.StyleSuccess.Render(fmt.Sprintf("#%d · %dms", ep.BlockNumber, ep.Latency.Milliseconds()))
}

func init() {
	configCmd.AddCommand(configListCmd, configSetCmd)

	deploymentsCmd.Flags().BoolVar(&deployCheck, "check", false, "probe each node for chain ID, head block and latency")
	deploymentsAddCmd.Flags().StringVar(&deployRPC, "rpc", "", "node RPC URL")
	deploymentsAddCmd.Flags().StringVar(&deployContract, "contract", "", "token contract address")
	deploymentsAddCmd.Flags().Int64Var(&deployChainID, "chain-id", 0, "chain ID")
	deploymentsAddCmd.Flags().StringVar(&deployArtifact, "artifact", "", "compiled artifact or ABI file (default: built-in)")
	deploymentsAddCmd.Flags().StringVar(&deployExplorer, "explorer", "", "block explorer base URL")
	_ = deploymentsAddCmd.MarkFlagRequired("rpc")
	_ = deploymentsAddCmd.MarkFlagRequired("contract")
	deploymentsCmd.AddCommand(deploymentsAddCmd)
}
