package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/genmedia/studioctl/internal/constants"
	apperrors "github.com/genmedia/studioctl/internal/errors"
	"github.com/genmedia/studioctl/internal/logger"
	"github.com/genmedia/studioctl/internal/output"
)

var (
	debug         bool
	timeout       string
	timeoutCancel context.CancelFunc
	verbose       bool
)

var rootCmd = &cobra.Command{
	Use:   constants.ProjectName,
	Short: "Deploy the GenMedia creative studio to Google Cloud",
	Long: fmt.Sprintf(`%s provisions Google Cloud infrastructure for the GenMedia creative
studio and deploys it to Cloud Run: storage bucket, service identity, role
grants, Artifact Registry repository, container build, and service rollout.`, constants.ProjectName),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			output.Header(output.Bold(constants.ProjectName) + " " + *constants.GetVersion())
			output.Infof("verbose output enabled")
		}

		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}
		logger.Initialize(constants.CLI, logLevel)

		if timeout == "0" {
			if verbose {
				output.Infof("timeout disabled")
			}

			return nil
		}

		// Runs after flags are parsed but before the command runs.
		timeoutDuration, err := parseTimeout(timeout)
		if err != nil {
			return fmt.Errorf("error parsing timeout: %w", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeoutDuration)
		timeoutCancel = cancel // Store for cleanup in Execute()
		cmd.SetContext(ctx)

		if verbose {
			output.Infof("timeout: %s", timeoutDuration)
		}
		return nil
	},
}

func Execute() {
	err := rootCmd.Execute()
	if timeoutCancel != nil {
		timeoutCancel()
	}

	if err != nil {
		if apperrors.IsDeclined(err) {
			output.Infof("%s", apperrors.GetErrorMessage(err))
		} else {
			output.Errorf("%s", apperrors.GetErrorMessage(err))
		}
		os.Exit(apperrors.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&timeout, "timeout", "1h", "Timeout for the whole run (e.g., 30m, 1h)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debugging logs")
}

// parseTimeout parses a timeout string to time.Duration.
// Supports duration formats ("30m", "1h") and plain seconds ("3600").
func parseTimeout(timeoutStr string) (time.Duration, error) {
	if timeoutStr == "" {
		timeoutStr = "1h"
	}

	duration, err := time.ParseDuration(timeoutStr)
	if err == nil {
		return duration, nil
	}

	seconds, err := strconv.Atoi(timeoutStr)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout format: %s (use duration like '30m' or '1h', or seconds like '3600')", timeoutStr)
	}

	return time.Duration(seconds) * time.Second, nil
}
