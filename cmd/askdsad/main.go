package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/askdsa/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "askdsad",
		Short: "askdsa daemon and admin CLI",
		Long:  "askdsa daemon for running the API server and ingesting source documents",
	}

	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.IngestCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
