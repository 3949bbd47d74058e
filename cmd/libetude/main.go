// Command libetude is the CLI front end for the LibEtude runtime: model
// file inspection/verification, kernel self-benchmarking, and running a
// computation graph against a loaded model.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "libetude",
		Short: "LibEtude - on-device neural inference runtime",
		Long: `LibEtude is an on-device inference runtime for voice/speech
synthesis models: a SIMD kernel registry with runtime dispatch, the LEF
binary model-file format, and a computation-graph engine with fusion and
memory-reuse optimization passes.`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("libetude v%s (%s)\n", version, commit)
		},
	})

	rootCmd.AddCommand(newLEFCmd())
	rootCmd.AddCommand(newBenchCmd())
	rootCmd.AddCommand(newGraphCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
