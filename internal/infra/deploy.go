package infra

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/genmedia/studioctl/internal/constants"
	apperrors "github.com/genmedia/studioctl/internal/errors"
)

// ServiceSpec describes the Cloud Run service to create or update.
type ServiceSpec struct {
	Image          string
	ServiceAccount string
	EnvVars        map[string]string
	CPULimit       string
	MemoryLimit    string
	TimeoutSeconds int
}

// StorageClient provisions Cloud Storage buckets.
type StorageClient interface {
	CreateBucket(ctx context.Context, projectID, bucketName, region string) error
}

// IAMClient manages service accounts and project-level role bindings.
type IAMClient interface {
	ServiceAccountExists(ctx context.Context, projectID, email string) (bool, error)
	CreateServiceAccount(ctx context.Context, projectID, accountID, displayName, description string) (string, error)
	AddIAMBinding(ctx context.Context, projectID, member, role string) error
}

// ArtifactRegistryClient manages Docker repositories in Artifact Registry.
type ArtifactRegistryClient interface {
	RepositoryExists(ctx context.Context, projectID, location, repoID string) (bool, error)
	CreateRepository(ctx context.Context, projectID, location, repoID, description string) error
}

// ServiceUsageClient enables project APIs.
type ServiceUsageClient interface {
	EnableService(ctx context.Context, projectID, serviceID string) error
}

// CloudBuildClient submits container builds and waits for them to finish.
type CloudBuildClient interface {
	SubmitBuild(ctx context.Context, projectID, sourceDir, imageTag string) error
}

// CloudRunClient manages Cloud Run services. The region is fixed at client
// construction.
type CloudRunClient interface {
	GetService(ctx context.Context, projectID, serviceName string) (exists bool, url string, err error)
	CreateService(ctx context.Context, projectID, serviceName string, spec ServiceSpec) (url string, err error)
	UpdateService(ctx context.Context, projectID, serviceName string, spec ServiceSpec) (url string, err error)
	AllowUnauthenticated(ctx context.Context, projectID, serviceName string) error
}

// ServiceClients bundles the per-service clients the workflow depends on.
type ServiceClients struct {
	Storage      StorageClient
	IAM          IAMClient
	Registry     ArtifactRegistryClient
	ServiceUsage ServiceUsageClient
	Build        CloudBuildClient
	Run          CloudRunClient
}

// Deployer executes the deployment workflow against a set of service
// clients. Phases run in order and the first failure aborts the run.
type Deployer struct {
	services *ServiceClients
	console  Console
	logger   *slog.Logger
}

func NewDeployer(services *ServiceClients, console Console, logger *slog.Logger) *Deployer {
	return &Deployer{services: services, console: console, logger: logger}
}

// ServiceAccountEmail computes the runtime identity email for a project.
func ServiceAccountEmail(projectID string) string {
	return fmt.Sprintf("%s@%s.iam.gserviceaccount.com", constants.ServiceAccountName, projectID)
}

// ImagePath computes the fully qualified Artifact Registry image path.
func ImagePath(region, projectID, repoID, serviceName string) string {
	return fmt.Sprintf("%s-docker.pkg.dev/%s/%s/%s", region, projectID, repoID, serviceName)
}

// Run executes the deployment. Fresh mode provisions the bucket, identity,
// and registry before building; re-deploy mode goes straight to build and
// deploy against already-provisioned infrastructure.
func (dp *Deployer) Run(ctx context.Context, d *Deployment) error {
	fresh := d.Mode == ModeFresh
	total := 3
	if fresh {
		total = 5
	}
	step := 0

	if fresh {
		step++
		dp.console.Step(step, total, "Provisioning storage bucket")
		if err := dp.ensureBucket(ctx, d); err != nil {
			return err
		}

		step++
		dp.console.Step(step, total, "Provisioning service identity")
		if err := dp.ensureIdentity(ctx, d); err != nil {
			return err
		}

		if err := dp.confirmSummary(d); err != nil {
			return err
		}
	}

	step++
	dp.console.Step(step, total, "Provisioning artifact registry")
	if err := dp.ensureRegistry(ctx, d); err != nil {
		return err
	}

	image := ImagePath(d.Region, d.ProjectID, d.ServiceName, d.ServiceName)

	step++
	dp.console.Step(step, total, "Building container image")
	if err := dp.buildImage(ctx, d, image); err != nil {
		return err
	}

	step++
	dp.console.Step(step, total, "Deploying to Cloud Run")
	url, err := dp.deployService(ctx, d, image)
	if err != nil {
		return err
	}

	dp.console.Blank()
	dp.console.Successf("Deployment complete")
	dp.console.KeyValue("Service URL", url)
	return nil
}

func (dp *Deployer) ensureBucket(ctx context.Context, d *Deployment) error {
	if !d.CreateBucket {
		dp.console.Infof("Using existing bucket %s", d.BucketName)
		return nil
	}
	if err := dp.services.Storage.CreateBucket(ctx, d.ProjectID, d.BucketName, d.Region); err != nil {
		return apperrors.ErrProvider(fmt.Sprintf("failed to create bucket %s", d.BucketName), err)
	}
	dp.console.Successf("Created bucket %s", d.BucketName)
	return nil
}

func (dp *Deployer) ensureIdentity(ctx context.Context, d *Deployment) error {
	email := ServiceAccountEmail(d.ProjectID)

	exists, err := dp.services.IAM.ServiceAccountExists(ctx, d.ProjectID, email)
	if err != nil {
		return apperrors.ErrProvider("failed to check service account", err)
	}
	if exists {
		dp.console.Infof("Service account %s already exists", email)
	} else {
		if _, err := dp.services.IAM.CreateServiceAccount(ctx, d.ProjectID,
			constants.ServiceAccountName,
			constants.ServiceAccountDisplayName,
			constants.ServiceAccountDescription); err != nil {
			return apperrors.ErrProvider(fmt.Sprintf("failed to create service account %s", email), err)
		}
		dp.console.Successf("Created service account %s", email)
	}

	member := "serviceAccount:" + email
	for _, role := range []string{constants.RoleAIPlatformUser, constants.RoleStorageAdmin} {
		if err := dp.services.IAM.AddIAMBinding(ctx, d.ProjectID, member, role); err != nil {
			return apperrors.ErrProvider(fmt.Sprintf("failed to grant %s to %s", role, email), err)
		}
		dp.logger.Debug("granted role", "role", role, "member", member)
	}
	dp.console.Successf("Granted roles to %s", email)
	return nil
}

// confirmSummary shows the resolved deployment and asks for a final go-ahead.
// Declining is a clean exit, not an error.
func (dp *Deployer) confirmSummary(d *Deployment) error {
	dp.console.Blank()
	dp.console.Header("Deployment summary")
	dp.console.KeyValue("Project", d.ProjectID)
	dp.console.KeyValue("Service", d.ServiceName)
	dp.console.KeyValue("Region", d.Region)
	dp.console.KeyValue("Bucket", d.BucketName)
	dp.console.KeyValue("Identity", ServiceAccountEmail(d.ProjectID))
	dp.console.Blank()

	if d.AutoApprove {
		return nil
	}
	if !dp.console.Confirm("Proceed with deployment") {
		return apperrors.ErrDeclined("deployment cancelled")
	}
	return nil
}

func (dp *Deployer) ensureRegistry(ctx context.Context, d *Deployment) error {
	if err := dp.services.ServiceUsage.EnableService(ctx, d.ProjectID, constants.ArtifactRegistryAPI); err != nil {
		return apperrors.ErrProvider("failed to enable Artifact Registry API", err)
	}

	repoID := d.ServiceName
	exists, err := dp.services.Registry.RepositoryExists(ctx, d.ProjectID, d.Region, repoID)
	if err != nil {
		return apperrors.ErrProvider("failed to check artifact repository", err)
	}
	if exists {
		dp.console.Infof("Repository %s already exists", repoID)
		return nil
	}
	if err := dp.services.Registry.CreateRepository(ctx, d.ProjectID, d.Region, repoID,
		fmt.Sprintf("Container images for %s", d.ServiceName)); err != nil {
		return apperrors.ErrProvider(fmt.Sprintf("failed to create repository %s", repoID), err)
	}
	dp.console.Successf("Created repository %s", repoID)
	return nil
}

func (dp *Deployer) buildImage(ctx context.Context, d *Deployment, image string) error {
	dp.console.Infof("Building %s from %s", image, d.SourceDir)
	if err := dp.services.Build.SubmitBuild(ctx, d.ProjectID, d.SourceDir, image); err != nil {
		return apperrors.ErrProvider("container build failed", err)
	}
	dp.console.Successf("Image built")
	return nil
}

func (dp *Deployer) deployService(ctx context.Context, d *Deployment, image string) (string, error) {
	spec := ServiceSpec{
		Image:          image,
		ServiceAccount: ServiceAccountEmail(d.ProjectID),
		EnvVars: map[string]string{
			constants.EnvBucketName: d.BucketName,
			constants.EnvProjectID:  d.ProjectID,
		},
		CPULimit:       constants.DeployCPULimit,
		MemoryLimit:    constants.DeployMemoryLimit,
		TimeoutSeconds: constants.DeployTimeoutSeconds,
	}

	exists, _, err := dp.services.Run.GetService(ctx, d.ProjectID, d.ServiceName)
	if err != nil {
		return "", apperrors.ErrProvider("failed to check Cloud Run service", err)
	}

	var url string
	if exists {
		dp.console.Infof("Updating existing service %s", d.ServiceName)
		url, err = dp.services.Run.UpdateService(ctx, d.ProjectID, d.ServiceName, spec)
	} else {
		url, err = dp.services.Run.CreateService(ctx, d.ProjectID, d.ServiceName, spec)
	}
	if err != nil {
		return "", apperrors.ErrProvider(fmt.Sprintf("failed to deploy service %s", d.ServiceName), err)
	}

	if err := dp.services.Run.AllowUnauthenticated(ctx, d.ProjectID, d.ServiceName); err != nil {
		return "", apperrors.ErrProvider("failed to allow unauthenticated access", err)
	}
	return url, nil
}
