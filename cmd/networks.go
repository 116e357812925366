package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3invoke/internal/chain"
	"github.com/Mohsinsiddi/w3invoke/internal/ui"
)

func newNetworksCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "networks",
		Short: "List supported networks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := chain.NewRegistry()
			t := ui.NewTable([]ui.Column{
				{Title: "Name", Width: 11},
				{Title: "Display", Width: 20},
				{Title: "Chain ID", Width: 9},
				{Title: "Currency", Width: 8},
				{Title: "Override", Width: 14},
			})
			for _, n := range reg.All() {
				name := n.Name
				if name == a.cfg.DefaultNetwork {
					name += "*"
				}
				t.AddRow(ui.Row{name, n.DisplayName, fmt.Sprintf("%d", n.ChainID), n.NativeCurrency, n.RPCEnv()})
			}
			fmt.Fprint(a.stdout, t.Render())
			fmt.Fprintln(a.stdout, ui.Meta(fmt.Sprintf("%d networks. Endpoints use ALCHEMY_API_KEY unless the override variable is set.", len(reg.All()))))
			return nil
		},
	}
}
