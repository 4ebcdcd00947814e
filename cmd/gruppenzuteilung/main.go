// Command gruppenzuteilung reads a tutorial-group assignment problem from
// JSON, computes an assignment, and writes the result back out as JSON,
// with optional text/CSV reports alongside it.
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fsmi/gruppenzuteilung/internal/config"
	"github.com/fsmi/gruppenzuteilung/pkg/assignment/filter"
	"github.com/fsmi/gruppenzuteilung/pkg/assignment/interrupt"
	"github.com/fsmi/gruppenzuteilung/pkg/assignment/matcher"
	"github.com/fsmi/gruppenzuteilung/pkg/assignment/minsize"
	"github.com/fsmi/gruppenzuteilung/pkg/assignment/quota"
	"github.com/fsmi/gruppenzuteilung/pkg/assignment/state"
	"github.com/fsmi/gruppenzuteilung/pkg/ioformat"
	"github.com/fsmi/gruppenzuteilung/pkg/report"
	"github.com/fsmi/gruppenzuteilung/pkg/telemetry"
)

// App holds the dependencies wired up once in main and threaded explicitly
// through the run.
type App struct {
	cfg    config.Config
	logger *zap.Logger
	runID  string
}

var (
	configPath string
	inputPath  string
	outputPath string
	typesPath  string
	reportDir  string
	statsPath  string
	verbosity  int

	randomSeed                      uint64
	ratingInputType                 string
	inputPerTeam                    bool
	outputPerTeam                   bool
	disabledGroupsPerStep           int
	typeSpecificAssignmentThreshold uint32
	groupDisableThreshold           int
	maxTeamSize                     int
	useMinGroupSizes                bool
	minGroupSizeEffect              int
	allowDefaultRatings             bool
	capacityBufferFactor            float64
	edgeSparsification              bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gruppenzuteilung",
		Short: "Assign students and teams to tutorial groups",
		Long:  `Reads a set of groups, students and teams with preference ratings and computes a maximum-preference assignment honoring capacity, course/degree eligibility, minimum group sizes and per-type quotas.`,
		RunE:  run,
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&inputPath, "input", "i", "", "path to the input JSON document (required)")
	flags.StringVarP(&outputPath, "output", "o", "", "path to write the output JSON document (required)")
	flags.StringVarP(&configPath, "config", "c", "", "path to a YAML config file overlaying the defaults")
	flags.StringVarP(&typesPath, "types", "t", "", "path to the type-quota file")
	flags.StringVarP(&reportDir, "groups", "g", "", "directory to write per-group text reports into")
	flags.StringVar(&statsPath, "stats", "", "path to write Stats.csv")
	flags.IntVar(&verbosity, "verbosity", -1, "override the config's verbosity (0-5)")

	flags.Uint64Var(&randomSeed, "random-seed", 0, "override the config's random seed")
	flags.StringVar(&ratingInputType, "rating-input-type", "", "override the rating input encoding (mapping|ordered_list)")
	flags.BoolVar(&inputPerTeam, "input-per-team", false, "ratings are keyed by team id rather than by student id")
	flags.BoolVar(&outputPerTeam, "output-per-team", false, "output is keyed by team id rather than by student id")
	flags.IntVar(&disabledGroupsPerStep, "disabled-groups-per-step", 0, "override disabledGroupsPerStep")
	flags.Uint32Var(&typeSpecificAssignmentThreshold, "type-specific-assignment-threshold", 0, "override typeSpecificAssignmentThreshold")
	flags.IntVar(&groupDisableThreshold, "group-disable-threshold", 0, "override groupDisableThreshold")
	flags.IntVar(&maxTeamSize, "max-team-size", 0, "override maxTeamSize")
	flags.BoolVar(&useMinGroupSizes, "use-min-group-sizes", false, "override useMinGroupSizes")
	flags.IntVar(&minGroupSizeEffect, "min-group-size-effect", 0, "override minGroupSizeEffect (1-5)")
	flags.BoolVar(&allowDefaultRatings, "allow-default-ratings", false, "override allowDefaultRatings")
	flags.Float64Var(&capacityBufferFactor, "capacity-buffer-factor", 0, "override capacityBufferFactor (>1)")
	flags.BoolVar(&edgeSparsification, "edge-sparsification", false, "override edgeSparsification")

	rootCmd.MarkFlagRequired("input")
	rootCmd.MarkFlagRequired("output")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// overlayFlags applies every explicitly-set CLI flag onto cfg, leaving
// fields whose flag was not passed at their file/Default() value.
func overlayFlags(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	if verbosity >= 0 {
		cfg.Verbosity = uint32(verbosity)
	}
	if changed("random-seed") {
		cfg.RandomSeed = randomSeed
	}
	if changed("rating-input-type") {
		rit := config.RatingInputType(ratingInputType)
		switch rit {
		case config.RatingInputMapping, config.RatingInputOrderedList:
			cfg.RatingInputType = rit
		default:
			return fmt.Errorf("invalid --rating-input-type %q", ratingInputType)
		}
	}
	if changed("input-per-team") {
		cfg.InputPerTeam = inputPerTeam
	}
	if changed("output-per-team") {
		cfg.OutputPerTeam = outputPerTeam
	}
	if changed("disabled-groups-per-step") {
		cfg.DisabledGroupsPerStep = disabledGroupsPerStep
	}
	if changed("type-specific-assignment-threshold") {
		cfg.TypeSpecificAssignmentThreshold = typeSpecificAssignmentThreshold
	}
	if changed("group-disable-threshold") {
		cfg.GroupDisableThreshold = groupDisableThreshold
	}
	if changed("max-team-size") {
		cfg.MaxTeamSize = maxTeamSize
	}
	if changed("use-min-group-sizes") {
		cfg.UseMinGroupSizes = useMinGroupSizes
	}
	if changed("min-group-size-effect") {
		cfg.MinGroupSizeEffect = minGroupSizeEffect
	}
	if changed("allow-default-ratings") {
		cfg.AllowDefaultRatings = allowDefaultRatings
	}
	if changed("capacity-buffer-factor") {
		cfg.CapacityBufferFactor = capacityBufferFactor
	}
	if changed("edge-sparsification") {
		cfg.EdgeSparsification = edgeSparsification
	}
	return nil
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFromPath(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := overlayFlags(cmd, &cfg); err != nil {
		return err
	}
	if err := config.Validate(&cfg); err != nil {
		return err
	}

	runID := uuid.New().String()
	logger, err := telemetry.InitLogger(int(cfg.Verbosity))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = logger.With(zap.String("run_id", runID))
	defer logger.Sync()

	interrupt.Install()

	app := &App{cfg: cfg, logger: logger, runID: runID}
	return app.runAssignment()
}

func (a *App) runAssignment() error {
	inputFile, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer inputFile.Close()

	input, err := ioformat.ParseInput(inputFile, a.cfg.RatingInputType, a.cfg.AllowDefaultRatings, a.cfg.InputPerTeam, a.cfg.MaxTeamSize)
	if err != nil {
		return err
	}

	st, err := state.New(input, state.Params{
		AllowDefaultRatings:  a.cfg.AllowDefaultRatings,
		CapacityBufferFactor: a.cfg.CapacityBufferFactor,
	})
	if err != nil {
		return err
	}

	matcherParams := matcher.Params{
		MinGroupSizeEffect: a.cfg.MinGroupSizeEffect,
		UseMinGroupSizes:   a.cfg.UseMinGroupSizes,
	}

	a.logger.Info("computing initial assignment")
	if err := minsize.AssignWithMinimumNumberPerGroup(st, minsize.Params{
		MatcherParams:  matcherParams,
		MinCapacity:    a.cfg.GroupDisableThreshold,
		CapacityBuffer: a.cfg.CapacityBufferFactor,
	}, a.logger); err != nil {
		return err
	}

	var filters []filter.Filter
	if typesPath != "" {
		typesFile, err := os.Open(typesPath)
		if err != nil {
			return fmt.Errorf("failed to open types file: %w", err)
		}
		parsedFilters, minimums, err := ioformat.ParseTypesFile(typesFile)
		typesFile.Close()
		if err != nil {
			return err
		}
		filters = parsedFilters

		reqs := make([]quota.Requirement, len(parsedFilters))
		for i := range parsedFilters {
			reqs[i] = quota.Requirement{Filter: parsedFilters[i], Minimum: minimums[i]}
		}

		a.logger.Info("applying type-specific quotas")
		if err := quota.AssertMinimumNumberPerGroupForSpecificType(st, reqs, quota.Params{
			MatcherParams:         matcherParams,
			DisabledGroupsPerStep: a.cfg.DisabledGroupsPerStep,
			TypeSpecificThreshold: a.cfg.TypeSpecificAssignmentThreshold,
		}, a.logger); err != nil {
			return err
		}
	}

	outputFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer outputFile.Close()
	if err := ioformat.WriteOutput(outputFile, st, a.cfg.OutputPerTeam); err != nil {
		return err
	}

	if reportDir != "" {
		runReportDir := filepath.Join(reportDir, a.runID)
		if err := report.WriteGroupReports(runReportDir, st); err != nil {
			return err
		}
	}
	if statsPath != "" {
		statsFile, err := os.Create(statsPath)
		if err != nil {
			return fmt.Errorf("failed to create stats file: %w", err)
		}
		defer statsFile.Close()
		if err := report.WriteStats(csv.NewWriter(statsFile), st, filters); err != nil {
			return err
		}
	}

	a.logger.Info("assignment completed")
	return nil
}
