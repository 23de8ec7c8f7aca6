// Command orgmap serves and prints maps of the organisations registered in a
// town, placed by postcode.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "orgmap",
	Short: "Map organisations from the PEDASI directory by postcode",
	Long: `
orgmap fetches the organisations registered in a town, geocodes their
postcodes concurrently and frames the resulting markers. Failed lookups are
reported and left off the map.

Configuration is read from the environment and from a .env file in the
working directory.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if err := godotenv.Overload(); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, ".env load warning: %v\n", err)
		}
		return nil
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, resolveCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
