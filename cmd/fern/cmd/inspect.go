// Copyright 2026 Fern ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fern-ml/fern/internal/checkpoint"
	"github.com/fern-ml/fern/internal/tensor"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <checkpoint.fern>",
	Short: "Print a checkpoint's architecture and metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().Bool("yaml", false, "emit machine-readable YAML")
}

// inspectReport is the YAML shape of inspect --yaml output.
type inspectReport struct {
	Architecture string              `yaml:"architecture"`
	InputSize    int                 `yaml:"input_size"`
	OutputSize   int                 `yaml:"output_size"`
	HiddenSizes  []int               `yaml:"hidden_sizes"`
	Parameters   []inspectTensor     `yaml:"parameters"`
	Optimizer    []inspectTensor     `yaml:"optimizer_state,omitempty"`
	Training     *checkpoint.TrainingMeta `yaml:"training,omitempty"`
	RunID        string              `yaml:"run_id,omitempty"`
	CreatedAt    string              `yaml:"created_at"`
}

type inspectTensor struct {
	Name  string `yaml:"name"`
	DType string `yaml:"dtype"`
	Shape []int  `yaml:"shape"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	ck, err := checkpoint.Load(args[0])
	if err != nil {
		return err
	}

	report := inspectReport{
		Architecture: ck.Descriptor.String(),
		InputSize:    ck.Descriptor.InputSize,
		OutputSize:   ck.Descriptor.OutputSize,
		HiddenSizes:  ck.Descriptor.HiddenSizes,
		Parameters:   tensorReport(ck.State),
		Optimizer:    tensorReport(ck.OptimizerState),
		Training:     ck.Training,
		RunID:        ck.RunID,
		CreatedAt:    ck.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}

	out := cmd.OutOrStdout()
	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		data, err := yaml.Marshal(report)
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		fmt.Fprint(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "architecture: %s\n", report.Architecture)
	fmt.Fprintf(out, "created:      %s\n", report.CreatedAt)
	if report.RunID != "" {
		fmt.Fprintf(out, "run:          %s\n", report.RunID)
	}
	if report.Training != nil {
		fmt.Fprintf(out, "training:     epoch %d, step %d, loss %.4f (%s)\n",
			report.Training.Epoch, report.Training.Step, report.Training.Loss, report.Training.Optimizer)
	}
	fmt.Fprintf(out, "parameters:\n")
	for _, t := range report.Parameters {
		fmt.Fprintf(out, "  %-24s %-8s %v\n", t.Name, t.DType, t.Shape)
	}
	if len(report.Optimizer) > 0 {
		fmt.Fprintf(out, "optimizer state: %d tensors\n", len(report.Optimizer))
	}
	return nil
}

func tensorReport(state map[string]*tensor.RawTensor) []inspectTensor {
	names := make([]string, 0, len(state))
	for name := range state {
		names = append(names, name)
	}
	sort.Strings(names)

	report := make([]inspectTensor, 0, len(names))
	for _, name := range names {
		t := state[name]
		report = append(report, inspectTensor{
			Name:  name,
			DType: t.DType().String(),
			Shape: []int(t.Shape()),
		})
	}
	return report
}
