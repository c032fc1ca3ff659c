package infra

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genmedia/studioctl/internal/constants"
	apperrors "github.com/genmedia/studioctl/internal/errors"
)

// fakeClients implements every service client interface on one struct and
// records call names in order. Setting failOn makes that call return an
// error so fail-fast behavior can be observed.
type fakeClients struct {
	calls  []string
	failOn string

	saExists     bool
	repoExists   bool
	svcExists    bool
	builtImage   string
	deployedSpec ServiceSpec
}

func (f *fakeClients) record(name string) error {
	f.calls = append(f.calls, name)
	if name == f.failOn {
		return errors.New("simulated provider failure")
	}
	return nil
}

func (f *fakeClients) called(name string) bool {
	for _, c := range f.calls {
		if c == name {
			return true
		}
	}
	return false
}

func (f *fakeClients) CreateBucket(ctx context.Context, projectID, bucketName, region string) error {
	return f.record("storage.CreateBucket")
}

func (f *fakeClients) ServiceAccountExists(ctx context.Context, projectID, email string) (bool, error) {
	return f.saExists, f.record("iam.ServiceAccountExists")
}

func (f *fakeClients) CreateServiceAccount(ctx context.Context, projectID, accountID, displayName, description string) (string, error) {
	return accountID + "@" + projectID + ".iam.gserviceaccount.com", f.record("iam.CreateServiceAccount")
}

func (f *fakeClients) AddIAMBinding(ctx context.Context, projectID, member, role string) error {
	return f.record("iam.AddIAMBinding:" + role)
}

func (f *fakeClients) RepositoryExists(ctx context.Context, projectID, location, repoID string) (bool, error) {
	return f.repoExists, f.record("registry.RepositoryExists")
}

func (f *fakeClients) CreateRepository(ctx context.Context, projectID, location, repoID, description string) error {
	return f.record("registry.CreateRepository")
}

func (f *fakeClients) EnableService(ctx context.Context, projectID, serviceID string) error {
	return f.record("serviceusage.EnableService:" + serviceID)
}

func (f *fakeClients) SubmitBuild(ctx context.Context, projectID, sourceDir, imageTag string) error {
	f.builtImage = imageTag
	return f.record("build.SubmitBuild")
}

func (f *fakeClients) GetService(ctx context.Context, projectID, serviceName string) (bool, string, error) {
	return f.svcExists, "https://existing.run.app", f.record("run.GetService")
}

func (f *fakeClients) CreateService(ctx context.Context, projectID, serviceName string, spec ServiceSpec) (string, error) {
	f.deployedSpec = spec
	return "https://created.run.app", f.record("run.CreateService")
}

func (f *fakeClients) UpdateService(ctx context.Context, projectID, serviceName string, spec ServiceSpec) (string, error) {
	f.deployedSpec = spec
	return "https://updated.run.app", f.record("run.UpdateService")
}

func (f *fakeClients) AllowUnauthenticated(ctx context.Context, projectID, serviceName string) error {
	return f.record("run.AllowUnauthenticated")
}

func newTestDeployer(f *fakeClients, console Console) *Deployer {
	services := &ServiceClients{
		Storage:      f,
		IAM:          f,
		Registry:     f,
		ServiceUsage: f,
		Build:        f,
		Run:          f,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDeployer(services, console, logger)
}

func freshDeployment() *Deployment {
	return &Deployment{
		ProjectID:    "my-proj",
		ServiceName:  "creative-studio",
		Region:       "us-central1",
		Mode:         ModeFresh,
		BucketName:   "creative-studio-assets-my-proj",
		CreateBucket: true,
		SourceDir:    ".",
	}
}

func TestDeployer_FreshRunsAllPhases(t *testing.T) {
	f := &fakeClients{}
	console := &fakeConsole{confirmAnswers: []bool{true}} // summary go-ahead
	deployer := newTestDeployer(f, console)

	err := deployer.Run(context.Background(), freshDeployment())
	require.NoError(t, err)

	want := []string{
		"storage.CreateBucket",
		"iam.ServiceAccountExists",
		"iam.CreateServiceAccount",
		"iam.AddIAMBinding:" + constants.RoleAIPlatformUser,
		"iam.AddIAMBinding:" + constants.RoleStorageAdmin,
		"serviceusage.EnableService:" + constants.ArtifactRegistryAPI,
		"registry.RepositoryExists",
		"registry.CreateRepository",
		"build.SubmitBuild",
		"run.GetService",
		"run.CreateService",
		"run.AllowUnauthenticated",
	}
	assert.Equal(t, want, f.calls)
}

func TestDeployer_DeployedServiceConfiguration(t *testing.T) {
	f := &fakeClients{}
	console := &fakeConsole{confirmAnswers: []bool{true}}
	deployer := newTestDeployer(f, console)

	d := freshDeployment()
	require.NoError(t, deployer.Run(context.Background(), d))

	assert.Equal(t, "us-central1-docker.pkg.dev/my-proj/creative-studio/creative-studio", f.builtImage)
	assert.Equal(t, f.builtImage, f.deployedSpec.Image)

	assert.Equal(t, "sa-imagen-studio@my-proj.iam.gserviceaccount.com", f.deployedSpec.ServiceAccount)
	assert.Equal(t, map[string]string{
		"GENMEDIA_BUCKET": d.BucketName,
		"PROJECT_ID":      d.ProjectID,
	}, f.deployedSpec.EnvVars)
	assert.Equal(t, "2", f.deployedSpec.CPULimit)
	assert.Equal(t, "2Gi", f.deployedSpec.MemoryLimit)
	assert.Equal(t, 3600, f.deployedSpec.TimeoutSeconds)
}

func TestDeployer_RedeploySkipsProvisioning(t *testing.T) {
	f := &fakeClients{}
	deployer := newTestDeployer(f, &fakeConsole{})

	d := freshDeployment()
	d.Mode = ModeRedeploy
	d.CreateBucket = false
	require.NoError(t, deployer.Run(context.Background(), d))

	assert.False(t, f.called("storage.CreateBucket"))
	assert.False(t, f.called("iam.ServiceAccountExists"))
	assert.False(t, f.called("iam.CreateServiceAccount"))
	assert.True(t, f.called("serviceusage.EnableService:"+constants.ArtifactRegistryAPI))
	assert.True(t, f.called("build.SubmitBuild"))
	assert.True(t, f.called("run.CreateService"))
}

func TestDeployer_FailFastStopsPipeline(t *testing.T) {
	f := &fakeClients{failOn: "iam.AddIAMBinding:" + constants.RoleAIPlatformUser}
	console := &fakeConsole{confirmAnswers: []bool{true}}
	deployer := newTestDeployer(f, console)

	err := deployer.Run(context.Background(), freshDeployment())
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeProviderFailure, appErr.Code)
	assert.Equal(t, 1, apperrors.ExitCode(err))

	assert.False(t, f.called("serviceusage.EnableService:"+constants.ArtifactRegistryAPI))
	assert.False(t, f.called("build.SubmitBuild"))
	assert.False(t, f.called("run.CreateService"))
}

func TestDeployer_BucketCreationFailureIsFatal(t *testing.T) {
	f := &fakeClients{failOn: "storage.CreateBucket"}
	console := &fakeConsole{confirmAnswers: []bool{true}}
	deployer := newTestDeployer(f, console)

	err := deployer.Run(context.Background(), freshDeployment())
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeProviderFailure, appErr.Code)
	assert.Equal(t, 1, apperrors.ExitCode(err))

	assert.False(t, f.called("iam.ServiceAccountExists"))
	assert.False(t, f.called("build.SubmitBuild"))
	assert.False(t, f.called("run.CreateService"))
}

func TestDeployer_BuildFailureStopsDeploy(t *testing.T) {
	f := &fakeClients{failOn: "build.SubmitBuild"}
	console := &fakeConsole{confirmAnswers: []bool{true}}
	deployer := newTestDeployer(f, console)

	err := deployer.Run(context.Background(), freshDeployment())
	require.Error(t, err)
	assert.False(t, f.called("run.GetService"))
	assert.False(t, f.called("run.CreateService"))
}

func TestDeployer_DeclinedSummaryIsCleanExit(t *testing.T) {
	f := &fakeClients{}
	console := &fakeConsole{confirmAnswers: []bool{false}} // decline the summary
	deployer := newTestDeployer(f, console)

	err := deployer.Run(context.Background(), freshDeployment())
	require.Error(t, err)

	assert.True(t, apperrors.IsDeclined(err))
	assert.Equal(t, 0, apperrors.ExitCode(err))
	assert.False(t, f.called("serviceusage.EnableService:"+constants.ArtifactRegistryAPI))
	assert.False(t, f.called("build.SubmitBuild"))
}

func TestDeployer_AutoApproveSkipsSummaryConfirm(t *testing.T) {
	f := &fakeClients{}
	console := &fakeConsole{} // would answer false if asked
	deployer := newTestDeployer(f, console)

	d := freshDeployment()
	d.AutoApprove = true
	require.NoError(t, deployer.Run(context.Background(), d))
	assert.True(t, f.called("run.CreateService"))
}

func TestDeployer_IdempotentReruns(t *testing.T) {
	f := &fakeClients{saExists: true, repoExists: true, svcExists: true}
	console := &fakeConsole{confirmAnswers: []bool{true}}
	deployer := newTestDeployer(f, console)

	d := freshDeployment()
	d.CreateBucket = false
	require.NoError(t, deployer.Run(context.Background(), d))

	assert.False(t, f.called("storage.CreateBucket"))
	assert.False(t, f.called("iam.CreateServiceAccount"))
	assert.False(t, f.called("registry.CreateRepository"))
	assert.False(t, f.called("run.CreateService"))
	assert.True(t, f.called("iam.AddIAMBinding:"+constants.RoleStorageAdmin))
	assert.True(t, f.called("run.UpdateService"))
	assert.True(t, f.called("run.AllowUnauthenticated"))
}

func TestServiceAccountEmail(t *testing.T) {
	assert.Equal(t, "sa-imagen-studio@demo.iam.gserviceaccount.com", ServiceAccountEmail("demo"))
}

func TestImagePath(t *testing.T) {
	assert.Equal(t,
		"europe-west4-docker.pkg.dev/demo/studio/studio",
		ImagePath("europe-west4", "demo", "studio", "studio"))
}
