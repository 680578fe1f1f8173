package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var envFiles []string

	root := &cobra.Command{
		Use:           "edgeauth",
		Short:         "Identity token verification with a shared key cache",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files loaded before the environment is decoded")

	root.AddCommand(
		newServeCmd(&envFiles),
		newValidateCmd(&envFiles),
		newLoadtestCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
