package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"photo-enhancer/internal/media"
	"photo-enhancer/internal/models"
	"photo-enhancer/internal/pipeline"
	"photo-enhancer/internal/processing/adaptive"
	"photo-enhancer/internal/report"
)

// planEntry is one row of a dry run.
type planEntry struct {
	Info   *media.Info               `json:"info,omitempty"`
	Input  string                    `json:"input"`
	Params models.AdaptiveParameters `json:"params"`
	Output string                    `json:"output,omitempty"`
	Error  string                    `json:"error,omitempty"`
}

var planCmd = &cobra.Command{
	Use:   "plan <file-or-directory>...",
	Short: "Show the parameters and outputs a photo batch would use, without processing",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	defer env.close()

	inputs, err := media.ExpandInputs(args, media.ScanOptions{MaxDepth: maxDepthFlag, Limit: limitFlag}, env.log)
	if err != nil {
		return err
	}

	entries := make([]planEntry, 0, len(inputs))
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INPUT\tSIZE\tDENOISE\tSHARPEN\tSATURATION\tCAMERA\tOUTPUT")

	for _, input := range inputs {
		entry := planEntry{Input: input}
		info, err := media.Probe(input)
		if err != nil {
			entry.Error = err.Error()
			entries = append(entries, entry)
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\tskip: %v\n", input, err)
			continue
		}

		entry.Info = info
		entry.Params = adaptive.Compute(info.Width, info.Height)
		entry.Output = pipeline.OutputPath(input, outputFlag)
		entries = append(entries, entry)

		camera := info.Camera
		if camera == "" {
			camera = "-"
		}
		fmt.Fprintf(tw, "%s\t%dx%d\t%.0f\t%.2f\t%.2f\t%s\t%s\n",
			input, info.Width, info.Height,
			entry.Params.DenoiseStrength, entry.Params.SharpenFactor, entry.Params.SaturationFactor,
			camera, entry.Output)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if reportFlag != "" {
		return report.Write(reportFlag, entries)
	}
	return nil
}
