package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/inference-sim/migration-sim/sim"
	"github.com/inference-sim/migration-sim/sim/trace"
	"github.com/inference-sim/migration-sim/sim/workload"
)

var (
	// Input selection
	configPath   string  // YAML run config (channel + migration sections)
	tracePath    string  // recorded access trace ("<tag> <R|W> <hex addr>" per line)
	traceGap     float64 // seconds between consecutive recorded accesses
	workloadPath string  // YAML synthetic workload spec
	seed         int64   // overrides the workload spec seed when set
	pageCount    int     // page count when no trace or workload is given

	// Channel
	speed          float64 // kB/s
	packetOverhead float64 // kB per transfer

	// Migration constants and budgets
	location          string  // source (pre-copy) or destination (post-copy)
	pageSize          float64 // kB
	pageNumberSize    float64 // kB
	downtimeThreshold float64 // seconds
	maxIterations     int     // 0 = unbounded
	maxSimTime        float64 // simulated seconds; 0 = unbounded
	prefetch          bool    // send pages near post-copy faults first

	// Output
	logLevel    string // log verbosity level
	resultsPath string // JSON results file
	traceOutput string // YAML iteration trace file
	traceLevel  string // none, iterations, faults
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "migration-sim",
	Short: "Timing simulator for live virtual machine memory migration",
}

// runInputs is everything resolved from flags and files for one invocation.
type runInputs struct {
	pageCount int
	events    []sim.AccessEvent
	migration sim.MigrationConfig
	speed     float64
	overhead  float64
	speeds    []float64
}

// runCmd executes a single migration using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one migration simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		level, err := effectiveTraceLevel(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		in, err := resolveInputs(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		channel, err := sim.NewChannel(in.speed, in.overhead)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		s, err := sim.NewMigrationSimulator(in.pageCount, in.events, channel, in.migration)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		var mt *trace.MigrationTrace
		if level != trace.TraceLevelNone {
			mt = trace.NewMigrationTrace(trace.TraceConfig{Level: level})
			s.SetTrace(mt)
		}

		logrus.Infof("Starting migration: pages=%d accesses=%d speed=%v kB/s location=%s",
			in.pageCount, len(in.events), in.speed, in.migration.Location)
		startTime := time.Now()

		res, err := s.Run()
		if err != nil {
			if !errors.Is(err, sim.ErrDidNotConverge) {
				logrus.Fatalf("%v", err)
			}
			logrus.Warnf("%v", err)
		}
		res.Fprint(cmd.OutOrStdout())

		if resultsPath != "" {
			if err := res.SaveResults(resultsPath); err != nil {
				logrus.Fatalf("%v", err)
			}
		}
		if mt != nil && traceOutput != "" {
			if err := mt.Export(traceOutput); err != nil {
				logrus.Fatalf("%v", err)
			}
			sum := trace.Summarize(mt)
			logrus.Infof("Trace: %d iterations, %d pages sent, %d faults, %d dirty pages",
				sum.Iterations, sum.TotalPagesSent, sum.TotalFaults, sum.TotalDirtyPages)
		}

		logrus.Infof("Simulation complete in %v.", time.Since(startTime))
	},
}

// effectiveTraceLevel validates --trace-level. A --trace-output without an
// explicit level records iterations; an explicit "none" writes nothing.
func effectiveTraceLevel(cmd *cobra.Command) (trace.TraceLevel, error) {
	if !trace.IsValidTraceLevel(traceLevel) {
		return "", fmt.Errorf("invalid trace level: %s", traceLevel)
	}
	level := trace.TraceLevel(traceLevel)
	if level == "" {
		level = trace.TraceLevelNone
	}
	if traceOutput == "" || level != trace.TraceLevelNone {
		return level, nil
	}
	if cmd.Flags().Changed("trace-level") {
		logrus.Warnf("--trace-output %s ignored: --trace-level is none", traceOutput)
		return level, nil
	}
	logrus.Infof("--trace-output set without --trace-level; recording %s", trace.TraceLevelIterations)
	return trace.TraceLevelIterations, nil
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// resolveInputs merges the config file with explicitly set flags and
// builds the access history. Flags set on the command line win over the
// config file, which wins over flag defaults.
func resolveInputs(cmd *cobra.Command) (*runInputs, error) {
	var cfg Config
	if configPath != "" {
		var err error
		if cfg, err = loadConfig(configPath); err != nil {
			return nil, err
		}
	}
	flags := cmd.Flags()

	section := cfg.Migration
	if flags.Changed("page-size") {
		section.PageSize = pageSize
	}
	if flags.Changed("page-number-size") {
		section.PageNumberSize = pageNumberSize
	}
	if flags.Changed("downtime-threshold") {
		section.DowntimeThreshold = downtimeThreshold
	}
	if flags.Changed("location") {
		section.Location = location
	}
	if flags.Changed("max-iterations") {
		section.MaxIterations = maxIterations
	}
	if flags.Changed("max-sim-time") {
		section.MaxSimTime = maxSimTime
	}
	if flags.Changed("prefetch") {
		section.Prefetch = prefetch
	}
	mc, err := section.MigrationConfig()
	if err != nil {
		return nil, fmt.Errorf("migration config: %w", err)
	}

	in := &runInputs{migration: mc, speed: speed, overhead: packetOverhead, speeds: cfg.Speeds}
	if cfg.Channel.Speed != 0 && !flags.Changed("speed") {
		in.speed = cfg.Channel.Speed
	}
	if cfg.Channel.PacketOverhead != nil && !flags.Changed("overhead") {
		in.overhead = *cfg.Channel.PacketOverhead
	}
	if flags.Lookup("speeds") != nil && (flags.Changed("speeds") || len(in.speeds) == 0) {
		in.speeds = speeds
	}

	switch {
	case tracePath != "" && workloadPath != "":
		return nil, fmt.Errorf("--trace and --workload are mutually exclusive")

	case tracePath != "":
		tr, err := workload.LoadAccessTrace(tracePath, traceGap)
		if err != nil {
			return nil, err
		}
		in.pageCount, in.events = tr.PageCount, tr.Events
		if flags.Changed("page-count") {
			if pageCount < tr.PageCount {
				return nil, fmt.Errorf("--page-count %d is smaller than the %d pages in %s", pageCount, tr.PageCount, tracePath)
			}
			in.pageCount = pageCount
		}
		logrus.Infof("Loaded %d accesses over %d pages from %s", len(tr.Events), tr.PageCount, tracePath)

	case workloadPath != "":
		spec, err := workload.LoadWorkloadSpec(workloadPath)
		if err != nil {
			return nil, err
		}
		if flags.Changed("seed") {
			spec.Seed = seed
		}
		if flags.Changed("page-count") {
			spec.PageCount = pageCount
		}
		events, err := workload.GenerateAccesses(spec)
		if err != nil {
			return nil, err
		}
		in.pageCount, in.events = spec.PageCount, events
		logrus.Infof("Generated %d accesses over %d pages (seed=%d)", len(events), spec.PageCount, spec.Seed)

	default:
		in.pageCount = pageCount
	}
	return in, nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registerInputFlags attaches the flags shared by run and sweep.
func registerInputFlags(c *cobra.Command) {
	c.Flags().StringVar(&configPath, "config", "", "YAML run config file")
	c.Flags().StringVar(&tracePath, "trace", "", "Recorded access trace file")
	c.Flags().Float64Var(&traceGap, "trace-gap", workload.DefaultAccessGap, "Seconds between consecutive recorded accesses")
	c.Flags().StringVar(&workloadPath, "workload", "", "YAML synthetic workload spec")
	c.Flags().Int64Var(&seed, "seed", 42, "Seed for synthetic workload generation (overrides the spec)")
	c.Flags().IntVar(&pageCount, "page-count", 1024, "Number of guest pages")

	c.Flags().Float64Var(&speed, "speed", 1000, "Channel speed (kB/s)")
	c.Flags().Float64Var(&packetOverhead, "overhead", sim.DefaultPacketOverhead, "Per-transfer packet overhead (kB)")

	c.Flags().StringVar(&location, "location", "source", "Where the guest runs during transfer (source, destination)")
	c.Flags().Float64Var(&pageSize, "page-size", sim.DefaultPageSize, "Page size (kB)")
	c.Flags().Float64Var(&pageNumberSize, "page-number-size", sim.DefaultPageNumberWireSize, "Wire size of a page number (kB)")
	c.Flags().Float64Var(&downtimeThreshold, "downtime-threshold", sim.DefaultDowntimeThreshold, "Residual transfer time below which the guest is stopped (s)")
	c.Flags().IntVar(&maxIterations, "max-iterations", 0, "Abort after this many pre-copy iterations (0 = unbounded)")
	c.Flags().Float64Var(&maxSimTime, "max-sim-time", 0, "Abort once simulated time exceeds this many seconds (0 = unbounded)")
	c.Flags().BoolVar(&prefetch, "prefetch", false, "Send pages near post-copy faults first instead of in FIFO order")

	c.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	c.Flags().StringVar(&resultsPath, "results-path", "", "File to save results as JSON")
}

// registerTraceFlags attaches the decision trace flags of run.
func registerTraceFlags(c *cobra.Command) {
	c.Flags().StringVar(&traceOutput, "trace-output", "", "File to export the iteration trace as YAML (implies --trace-level iterations)")
	c.Flags().StringVar(&traceLevel, "trace-level", "none", "Trace verbosity (none, iterations, faults)")
}

// init sets up CLI flags and subcommands
func init() {
	registerInputFlags(runCmd)
	registerTraceFlags(runCmd)

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
