package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3fund/internal/contract"
	"github.com/Mohsinsiddi/w3fund/internal/ui"
)

var contractCmd = &cobra.Command{
	Use:   "contract",
	Short: "Inspect the contract interfaces w3fund talks to",
}

// configKeys maps built-in IDs to the config key holding their address.
// Campaigns are deployed per listing and have none.
var configKeys = map[string]string{
	contract.IDGame:    "token_address",
	contract.IDFactory: "factory_address",
	contract.IDStore:   "store_address",
}

var contractBuiltinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "List the bundled contract interfaces",
	RunE: func(cmd *cobra.Command, args []string) error {
		t := ui.NewTable([]ui.Column{
			{Title: "ID", Width: 10},
			{Title: "Name", Width: 24},
			{Title: "Functions", Width: 9, Right: true},
			{Title: "Address", Width: 13},
			{Title: "Description", Width: 44},
		})
		for _, d := range contract.AllBuiltins() {
			n := 0
			for _, e := range d.Entries {
				if e.Type == "function" {
					n++
				}
			}
			addr := ui.Meta("-")
			if key, ok := configKeys[d.ID]; ok {
				if v, _ := cfg.Get(key); v != "" {
					addr = ui.Addr(ui.TruncateAddr(v))
				} else {
					addr = ui.Meta("not set")
				}
			}
			t.AddRow(ui.Row{ui.Val(d.ID), d.Name, strconv.Itoa(n), addr, ui.Meta(d.Description)})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Hint("Show functions and selectors with: w3fund contract inspect <id>"))
		return nil
	},
}

var contractInspectCmd = &cobra.Command{
	Use:   "inspect <id>",
	Short: "Show the functions of a bundled interface with their selectors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, ok := contract.GetBuiltin(args[0])
		if !ok {
			ids := make([]string, 0)
			for _, b := range contract.AllBuiltins() {
				ids = append(ids, b.ID)
			}
			return fmt.Errorf("unknown built-in %q (have: %s)", args[0], strings.Join(ids, ", "))
		}

		fmt.Println(ui.StyleTitle.Render(d.Name))
		if key, ok := configKeys[d.ID]; ok {
			if v, _ := cfg.Get(key); v != "" {
				fmt.Println(ui.Meta("Address: ") + ui.Addr(v))
			}
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Selector", Width: 10},
			{Title: "Function", Width: 40},
			{Title: "Kind", Width: 8},
			{Title: "Returns", Width: 20},
		})
		for _, e := range d.Entries {
			if e.Type != "function" {
				continue
			}
			kind := "write"
			switch {
			case e.IsReadFunction():
				kind = "read"
			case e.IsPayable():
				kind = "payable"
			}
			outs := make([]string, len(e.Outputs))
			for i, o := range e.Outputs {
				outs[i] = o.Type
			}
			t.AddRow(ui.Row{ui.Addr(contract.Selector(e)), e.Signature(), ui.Meta(kind), strings.Join(outs, ", ")})
		}
		fmt.Println(t.Render())
		return nil
	},
}

func init() {
	contractCmd.AddCommand(contractBuiltinsCmd, contractInspectCmd)
}
