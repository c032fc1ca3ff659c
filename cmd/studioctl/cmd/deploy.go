package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/genmedia/studioctl/internal/config"
	"github.com/genmedia/studioctl/internal/constants"
	apperrors "github.com/genmedia/studioctl/internal/errors"
	"github.com/genmedia/studioctl/internal/infra"
	"github.com/genmedia/studioctl/internal/infra/gcp"
)

var (
	deployServiceName string
	deployRegion      string
	deployMode        string
	deployBucket      string
	deployProject     string
	deploySource      string
	deployYes         bool
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Provision infrastructure and deploy the studio service",
	Long: `Deploy walks through an interactive workflow: it resolves the target
project from the environment or gcloud configuration, provisions the storage
bucket, service identity, and Artifact Registry repository (fresh mode),
builds the container image with Cloud Build, and rolls it out to Cloud Run.

Re-deploy mode skips provisioning and only rebuilds and redeploys.

Values not supplied via flags are prompted for.`,
	RunE: runDeploy,
}

func init() {
	rootCmd.AddCommand(deployCmd)

	deployCmd.Flags().StringVar(&deployServiceName, "service-name", "",
		"Cloud Run service name (default "+constants.DefaultServiceName+")")
	deployCmd.Flags().StringVar(&deployRegion, "region", "",
		"Google Cloud region (default "+constants.DefaultRegion+")")
	deployCmd.Flags().StringVar(&deployMode, "mode", "",
		"Deployment mode: fresh or re-deploy")
	deployCmd.Flags().StringVar(&deployBucket, "bucket", "",
		"Existing bucket for generated media (skips the bucket prompts)")
	deployCmd.Flags().StringVar(&deployProject, "project", "",
		"Google Cloud project ID (default: ambient configuration)")
	deployCmd.Flags().StringVar(&deploySource, "source", ".",
		"Path to the service source directory")
	deployCmd.Flags().BoolVar(&deployYes, "yes", false,
		"Skip confirmation prompts")
}

func runDeploy(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	projectID := deployProject
	if projectID == "" {
		projectID = config.ResolveProjectID()
	}

	// Flags win; STUDIO_* environment variables pre-answer remaining prompts.
	pick := func(flagValue, envSuffix string) string {
		if flagValue != "" {
			return flagValue
		}
		return config.EnvOrDefault(envSuffix, "")
	}

	console := stdConsole{}
	d, err := infra.Resolve(console, infra.Inputs{
		ProjectID:   projectID,
		ServiceName: pick(deployServiceName, "SERVICE_NAME"),
		Region:      pick(deployRegion, "REGION"),
		Mode:        pick(deployMode, "MODE"),
		Bucket:      pick(deployBucket, "BUCKET"),
		SourceDir:   deploySource,
		AutoApprove: deployYes,
	})
	if err != nil {
		return err
	}

	cfg := config.Config{
		ProjectID:   d.ProjectID,
		ServiceName: d.ServiceName,
		Region:      d.Region,
	}
	if err := cfg.Validate(); err != nil {
		return apperrors.ErrInvalidInput("invalid deployment configuration", err)
	}

	clients, err := gcp.NewServiceClients(ctx, d.Region)
	if err != nil {
		return apperrors.ErrProvider("failed to initialize Google Cloud clients", err)
	}

	return infra.NewDeployer(clients, console, slog.Default()).Run(ctx, d)
}
