package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/crlotwhite/libetude-sub008/pkg/config"
	libgraph "github.com/crlotwhite/libetude-sub008/pkg/graph"
	"github.com/crlotwhite/libetude-sub008/pkg/lef"
	"github.com/crlotwhite/libetude-sub008/pkg/runtime"
	"github.com/crlotwhite/libetude-sub008/pkg/tensor"
)

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Computation-graph operations",
	}
	cmd.AddCommand(newGraphRunCmd())
	return cmd
}

func newGraphRunCmd() *cobra.Command {
	var lefPath string
	cmd := &cobra.Command{
		Use:   "run <descriptor.yaml>",
		Short: "Load a model, build a graph from a YAML descriptor, optimize and execute it",
		Long: `Leaf nodes in the descriptor (nodes with no "inputs") are bound to a
LEF layer's tensor data by a "layer_id" param; every other node must
declare its output "shape" as a list of dimensions, since the executor
allocates each node's output before running its operator.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := libgraph.LoadYAMLFile(args[0])
			if err != nil {
				return fmt.Errorf("load descriptor: %w", err)
			}

			rounds, err := libgraph.Optimize(g)
			if err != nil {
				return fmt.Errorf("optimize: %w", err)
			}
			fmt.Printf("optimization ran %d fusion round(s); %d node(s) remain\n", rounds, g.Len())

			engine, err := runtime.Open(config.LoadFromEnv())
			if err != nil {
				return err
			}
			defer engine.Close()

			exec, err := libgraph.NewExecutor(g, engine.Operators())
			if err != nil {
				return fmt.Errorf("build executor: %w", err)
			}
			defer exec.Close()

			pool := tensor.NewPool(1 << 20)

			var reader *lef.Reader
			if lefPath != "" {
				reader, err = lef.OpenReader(lefPath, lef.DefaultCompatRange())
				if err != nil {
					return fmt.Errorf("open lef: %w", err)
				}
				defer reader.Close()
			}

			shapes := make(map[libgraph.NodeID][]int)
			for _, n := range g.Nodes() {
				if len(n.Inputs) != 0 {
					continue
				}
				layerID, ok := intParam(n.Params, "layer_id")
				if !ok {
					continue
				}
				if reader == nil {
					return fmt.Errorf("node %q references layer_id %d but no --lef model was given", n.Name, layerID)
				}
				data, err := reader.GetLayerData(uint16(layerID))
				if err != nil {
					return fmt.Errorf("node %q: load layer %d: %w", n.Name, layerID, err)
				}
				shape, ok := parseShape(n.Params)
				if !ok {
					shape = []int{len(data) / 4}
				}
				t, err := tensor.Wrap(tensor.F32, shape, data)
				if err != nil {
					return fmt.Errorf("node %q: wrap layer %d: %w", n.Name, layerID, err)
				}
				exec.BindInput(n.ID, t)
				shapes[n.ID] = shape
			}

			start := time.Now()
			outputShape := func(id libgraph.NodeID) []int {
				n, _ := g.Node(id)
				if shape, ok := parseShape(n.Params); ok {
					return shape
				}
				if s, ok := shapes[id]; ok {
					return s
				}
				return []int{1}
			}
			outs, err := exec.Run(pool, outputShape)
			if err != nil {
				return fmt.Errorf("execute: %w", err)
			}
			fmt.Printf("executed %d node(s) in %s, %d output tensor(s)\n", len(g.Nodes()), time.Since(start), len(outs))
			return nil
		},
	}
	cmd.Flags().StringVar(&lefPath, "lef", "", "LEF model file providing layer tensor data for leaf nodes")
	return cmd
}

func intParam(params map[string]any, key string) (int, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	default:
		return 0, false
	}
}

func parseShape(params map[string]any) ([]int, bool) {
	v, ok := params["shape"]
	if !ok {
		return nil, false
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, false
	}
	shape := make([]int, 0, len(raw))
	for _, d := range raw {
		switch t := d.(type) {
		case int:
			shape = append(shape, t)
		case float64:
			shape = append(shape, int(t))
		default:
			return nil, false
		}
	}
	return shape, true
}
