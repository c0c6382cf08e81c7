package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3token/internal/contract"
	"github.com/Mohsinsiddi/w3token/internal/ui"
)

var (
	descriptorBuiltin  string
	descriptorArtifact string
	descriptorList     bool
)

var descriptorCmd = &cobra.Command{
	Use:   "descriptor [signature]",
	Short: "Inspect the contract interface the token is bound with",
	Long: `List the functions of the deployment's contract descriptor with their
4-byte selectors, and report any function the token page needs but the
descriptor lacks.

With a signature argument, compute its selector instead. Parameter names
are dropped before hashing.

Examples:
  w3token descriptor
  w3token descriptor --builtin erc20
  w3token descriptor --artifact ./artifacts/Token.json
  w3token descriptor --builtins
  w3token descriptor "transfer(address to, uint256 amount)"   # → 0xa9059cbb`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			sig := normalizeSignature(args[0])
			fmt.Println(ui.KeyValueBlock("Function Selector", [][2]string{
				{"Signature", sig},
				{"Selector", ui.Val(contract.SelectorHex(sig))},
			}))
			return nil
		}

		if descriptorList {
			t := ui.NewTable([]ui.Column{
				{Title: "ID", Width: 8},
				{Title: "Name", Width: 24},
				{Title: "Description", Width: 48},
			})
			for _, b := range contract.AllBuiltins() {
				t.AddRow(ui.Row{ui.Val(b.ID), b.Name, ui.Meta(b.Description)})
			}
			fmt.Println(t.Render())
			return nil
		}

		desc, err := resolveDescriptor()
		if err != nil {
			return err
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Function", Width: 36},
			{Title: "Selector", Width: 12},
			{Title: "Kind", Width: 8},
		})
		for _, fn := range desc.Functions() {
			kind := "write"
			if fn.IsReadFunction() {
				kind = "view"
			}
			t.AddRow(ui.Row{fn.Signature(), ui.Val(contract.SelectorHex(fn.Signature())), ui.Meta(kind)})
		}
		missing := desc.Missing(contract.RequiredFunctions)
		for _, sig := range missing {
			t.Dim[len(t.Rows)] = true
			t.AddRow(ui.Row{sig, contract.SelectorHex(sig), "missing"})
		}

		fmt.Printf("%s\n\n", ui.StyleTitle.Render("Descriptor · "+desc.Source))
		fmt.Println(t.Render())

		if len(missing) == 0 {
			fmt.Println(ui.Success("All required functions present."))
			return nil
		}
		fmt.Println(ui.Warn(fmt.Sprintf("%d required function(s) missing; calls to them will fail.", len(missing))))
		return nil
	},
}

// resolveDescriptor picks the descriptor named by flags, falling back to the
// active deployment's.
func resolveDescriptor() (*contract.Descriptor, error) {
	switch {
	case descriptorArtifact != "":
		return contract.LoadDescriptor(descriptorArtifact)
	case descriptorBuiltin != "":
		return contract.LoadBuiltin(descriptorBuiltin)
	}
	dep, err := cfg.ActiveDeployment(deploymentName)
	if err != nil {
		return nil, err
	}
	return loadDescriptor(dep)
}

// normalizeSignature removes parameter names, keeping only types.
// "transfer(address to, uint256 amount)" → "transfer(address,uint256)"
func normalizeSignature(sig string) string {
	sig = strings.TrimSpace(sig)
	parenIdx := strings.Index(sig, "(")
	if parenIdx < 0 || !strings.HasSuffix(sig, ")") {
		return sig
	}

	name := strings.TrimSpace(sig[:parenIdx])
	paramStr := strings.TrimSpace(sig[parenIdx+1 : len(sig)-1])

	if paramStr == "" {
		return name + "()"
	}

	params := strings.Split(paramStr, ",")
	types := make([]string, 0, len(params))
	for _, p := range params {
		// Take only the first word (the type), skip the name.
		parts := strings.Fields(p)
		if len(parts) > 0 {
			types = append(types, parts[0])
		}
	}

	return name + "(" + strings.Join(types, ",") + ")"
}

func init() {
	descriptorCmd.Flags().StringVar(&descriptorBuiltin, "builtin", "", "inspect a built-in descriptor by id")
	descriptorCmd.Flags().StringVar(&descriptorArtifact, "artifact", "", "inspect a compiled artifact or ABI file")
	descriptorCmd.Flags().BoolVar(&descriptorList, "builtins", false, "list the built-in descriptors")
	descriptorCmd.MarkFlagsMutuallyExclusive("builtin", "artifact", "builtins")
}
