package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/skyplan/app"
	"github.com/kilianp07/skyplan/core/calendar"
	"github.com/kilianp07/skyplan/core/model"
	"github.com/kilianp07/skyplan/core/scheduler"
)

var (
	startFlag  string
	endFlag    string
	chunkFlag  time.Duration
	modeFlag   string
	clipFlag   bool
	lengthFlag time.Duration
)

var surveyCmd = &cobra.Command{
	Use:   "survey",
	Short: "Plan every nite of the calendar",
	RunE:  runSurvey,
}

var niteCmd = &cobra.Command{
	Use:   "nite <YYYYMMDD>",
	Short: "Plan a single nite",
	Args:  cobra.ExactArgs(1),
	RunE:  runNite,
}

var chunkCmd = &cobra.Command{
	Use:   "chunk",
	Short: "Plan a bounded slice of time",
	RunE:  runChunk,
}

var observeCmd = &cobra.Command{
	Use:   "observe",
	Short: "Plan a bounded slice paced by the wall clock",
	RunE:  runObserve,
}

func init() {
	surveyCmd.Flags().StringVar(&startFlag, "start", "", "first instant to plan (RFC 3339 or 2006/01/02 15:04:05)")
	surveyCmd.Flags().StringVar(&endFlag, "end", "", "last instant to plan")
	surveyCmd.Flags().DurationVar(&chunkFlag, "chunk", 0, "chunk granularity, 0 for one chunk per window")
	surveyCmd.Flags().StringVar(&modeFlag, "mode", "full", "full or bounded")
	surveyCmd.Flags().BoolVar(&clipFlag, "clip", true, "restrict bounded runs to calendar windows")

	niteCmd.Flags().DurationVar(&chunkFlag, "chunk", 0, "chunk granularity, 0 for one chunk per window")

	for _, c := range []*cobra.Command{chunkCmd, observeCmd} {
		c.Flags().StringVar(&startFlag, "start", "", "slice start (RFC 3339 or 2006/01/02 15:04:05)")
		c.Flags().DurationVar(&lengthFlag, "length", time.Hour, "slice length")
		c.Flags().BoolVar(&clipFlag, "clip", true, "restrict the slice to calendar windows")
	}
	chunkCmd.MarkFlagRequired("start") //nolint:errcheck

	rootCmd.AddCommand(surveyCmd, niteCmd, chunkCmd, observeCmd)
}

func parseOptionalTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return calendar.ParseTime(s)
}

func runSurvey(cmd *cobra.Command, _ []string) error {
	start, err := parseOptionalTime(startFlag)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	end, err := parseOptionalTime(endFlag)
	if err != nil {
		return fmt.Errorf("end: %w", err)
	}
	mode, err := scheduler.ParseMode(modeFlag)
	if err != nil {
		return err
	}
	p := scheduler.Params{Start: start, End: end, Chunk: chunkFlag, Mode: mode, Clip: clipFlag}
	return runPlan(cmd, func(ctx context.Context, svc *app.Service) (model.SurveyPlan, error) {
		return svc.Survey(ctx, p)
	})
}

func runNite(cmd *cobra.Command, args []string) error {
	nite := args[0]
	return runPlan(cmd, func(ctx context.Context, svc *app.Service) (model.SurveyPlan, error) {
		return svc.Nite(ctx, nite, chunkFlag)
	})
}

func runChunk(cmd *cobra.Command, _ []string) error {
	start, err := calendar.ParseTime(startFlag)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	return runPlan(cmd, func(ctx context.Context, svc *app.Service) (model.SurveyPlan, error) {
		return svc.Chunk(ctx, start, lengthFlag, clipFlag)
	})
}

// runObserve plans from now, or from --start, waiting for each exposure's
// planned time. SIGINT stops the run and keeps the chunks produced so far.
func runObserve(cmd *cobra.Command, _ []string) error {
	start := time.Now().UTC()
	if startFlag != "" {
		t, err := calendar.ParseTime(startFlag)
		if err != nil {
			return fmt.Errorf("start: %w", err)
		}
		start = t
	}
	return runPlan(cmd, func(ctx context.Context, svc *app.Service) (model.SurveyPlan, error) {
		return svc.Chunk(ctx, start, lengthFlag, clipFlag)
	}, app.WithPacer(scheduler.WallClockPacer{Now: time.Now}))
}
