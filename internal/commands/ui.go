package commands

import (
	"github.com/spf13/cobra"

	"github.com/comptes-dev/comptes/internal/tui"
)

func newUICommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive list and form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := tui.NewPrompter()
			s, err := g.newSession(cmd, p)
			if err != nil {
				return err
			}
			defer s.close()

			return tui.Run(cmd.Context(), s.coord, p, s.cfg.Display.Currency)
		},
	}
}
