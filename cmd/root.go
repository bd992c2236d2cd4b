package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/skyplan/app"
	"github.com/kilianp07/skyplan/config"
	"github.com/kilianp07/skyplan/core/model"
	coremon "github.com/kilianp07/skyplan/core/monitoring"
	"github.com/kilianp07/skyplan/infra/logger"
	"github.com/kilianp07/skyplan/infra/monitoring"
)

var (
	cfgPath     string
	fieldsPath  string
	windowsPath string
	outDir      string
)

var rootCmd = &cobra.Command{
	Use:           "skyplan",
	Short:         "Nightly survey field scheduler",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
	rootCmd.PersistentFlags().StringVarP(&fieldsPath, "fields", "f", "", "field table, overrides inputs.fields")
	rootCmd.PersistentFlags().StringVarP(&windowsPath, "windows", "w", "", "window table, overrides inputs.windows")
	rootCmd.PersistentFlags().StringVarP(&outDir, "out", "o", "", "plan directory, overrides output.dir")
}

// Execute runs the CLI.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		coremon.CaptureException(err, map[string]string{"module": "cli"})
		coremon.Flush(2 * time.Second)
	}
	return err
}

// loadConfig reads the configuration and applies flag overrides, logging
// and error monitoring.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if fieldsPath != "" {
		cfg.Inputs.Fields = fieldsPath
	}
	if windowsPath != "" {
		cfg.Inputs.Windows = windowsPath
	}
	if outDir != "" {
		cfg.Output.Dir = outDir
	}
	if err := logger.Setup(cfg.Log); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)
	return cfg, nil
}

type planFunc func(ctx context.Context, svc *app.Service) (model.SurveyPlan, error)

// runPlan builds the service, runs fn until done or interrupted and reports
// the outcome. An exhausted survey is a warning, not a failure.
func runPlan(cmd *cobra.Command, fn planFunc, opts ...app.Option) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New("cli")
	svc, err := app.New(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Errorf("service close: %v", err)
		}
	}()
	svc.Start(ctx)

	plan, err := fn(ctx, svc)
	if errors.Is(err, model.ErrSurveyExhausted) {
		log.Warnf("%v", err)
		err = nil
	}
	if err != nil {
		return err
	}
	if plan.Interrupted {
		log.Warnf("run interrupted after %d nights", len(plan.Nights))
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d nights, %d observations\n", len(plan.Nights), len(plan.Records()))
	return err
}
