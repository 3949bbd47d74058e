package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/crlotwhite/libetude-sub008/pkg/config"
	"github.com/crlotwhite/libetude-sub008/pkg/runtime"
)

func newBenchCmd() *cobra.Command {
	var iterations int
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run the kernel registry self-benchmark and print resulting scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadFromEnv()
			cfg.Kernel.BenchmarkOnInit = false

			rt, err := runtime.Open(cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.Kernels().BenchmarkAll(iterations); err != nil {
				return err
			}

			scores := rt.Kernels().Scores()
			names := make([]string, 0, len(scores))
			for name := range scores {
				names = append(names, name)
			}
			sort.Strings(names)

			fmt.Printf("host ISA: %s\n\n", rt.ISA())
			fmt.Printf("%-28s %s\n", "kernel", "score (1/avg latency)")
			for _, name := range names {
				fmt.Printf("%-28s %.2f\n", name, scores[name])
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&iterations, "iterations", 200, "timed iterations per kernel")
	return cmd
}
