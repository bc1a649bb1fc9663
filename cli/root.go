package cli

import (
	"github.com/spf13/cobra"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "toxichat",
		Short: "Carbon dot toxicity prediction chat service",
	}

	root.AddCommand(
		ServeCmd(),
	)

	return root
}
