package cmd

import (
	"encoding/json"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/migration-sim/sim/analysis"
)

var speeds []float64 // channel speeds to sweep (kB/s)

// sweepCmd runs the same workload across several channel speeds
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one migration per channel speed and summarize",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		in, err := resolveInputs(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if len(in.speeds) == 0 {
			logrus.Fatalf("No speeds to sweep")
		}

		logrus.Infof("Sweeping %d speeds: pages=%d accesses=%d location=%s",
			len(in.speeds), in.pageCount, len(in.events), in.migration.Location)

		points, err := analysis.Sweep(analysis.Scenario{
			PageCount:      in.pageCount,
			Events:         in.events,
			Config:         in.migration,
			PacketOverhead: in.overhead,
		}, in.speeds)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		summary := analysis.Summarize(points)
		analysis.Fprint(cmd.OutOrStdout(), points, summary)

		if resultsPath != "" {
			data, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				logrus.Fatalf("marshaling sweep summary: %v", err)
			}
			if err := os.WriteFile(resultsPath, data, 0644); err != nil {
				logrus.Fatalf("writing sweep summary: %v", err)
			}
		}
	},
}

func init() {
	registerInputFlags(sweepCmd)
	sweepCmd.Flags().Float64SliceVar(&speeds, "speeds", []float64{500, 1000, 2000, 5000, 10000}, "Comma-separated channel speeds (kB/s)")

	rootCmd.AddCommand(sweepCmd)
}
