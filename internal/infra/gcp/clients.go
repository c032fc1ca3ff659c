// Package gcp implements the deployment workflow's service clients on top of
// the Google Cloud Discovery APIs.
package gcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"google.golang.org/api/artifactregistry/v1"
	"google.golang.org/api/cloudbuild/v1"
	"google.golang.org/api/cloudresourcemanager/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iam/v1"
	"google.golang.org/api/run/v2"
	"google.golang.org/api/serviceusage/v1"
	"google.golang.org/api/storage/v1"

	"github.com/genmedia/studioctl/internal/constants"
	"github.com/genmedia/studioctl/internal/infra"
)

// NewServiceClients builds concrete service clients backed by Google Cloud
// APIs, authenticated with application default credentials.
func NewServiceClients(ctx context.Context, region string) (*infra.ServiceClients, error) {
	storageSvc, err := storage.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage service: %w", err)
	}

	iamSvc, err := iam.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create iam service: %w", err)
	}

	rmSvc, err := cloudresourcemanager.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create resource manager service: %w", err)
	}

	artifactSvc, err := artifactregistry.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create artifact registry service: %w", err)
	}

	serviceUsageSvc, err := serviceusage.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create service usage service: %w", err)
	}

	buildSvc, err := cloudbuild.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create cloud build service: %w", err)
	}

	runSvc, err := run.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create run service: %w", err)
	}

	return &infra.ServiceClients{
		Storage: &defaultStorageClient{service: storageSvc},
		IAM: &defaultIAMClient{
			iamService:      iamSvc,
			resourceManager: rmSvc,
		},
		Registry:     &defaultArtifactRegistryClient{service: artifactSvc},
		ServiceUsage: &defaultServiceUsageClient{service: serviceUsageSvc},
		Build: &defaultCloudBuildClient{
			service: buildSvc,
			storage: storageSvc,
		},
		Run: &defaultCloudRunClient{
			service: runSvc,
			region:  region,
		},
	}, nil
}

type defaultStorageClient struct {
	service *storage.Service
}

func (c *defaultStorageClient) CreateBucket(ctx context.Context, projectID, bucketName, region string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.StorageOperationTimeout)
	defer cancel()

	bucket := &storage.Bucket{
		Name:         bucketName,
		Location:     region,
		StorageClass: "STANDARD",
		IamConfiguration: &storage.BucketIamConfiguration{
			UniformBucketLevelAccess: &storage.BucketIamConfigurationUniformBucketLevelAccess{
				Enabled: true,
			},
		},
	}

	// A 409 here means the name is taken, possibly by another project's
	// bucket. That is a failed creation, not convergence.
	_, err := c.service.Buckets.Insert(projectID, bucket).Context(ctx).Do()
	return wrapError("create storage bucket", err)
}

type defaultIAMClient struct {
	iamService      *iam.Service
	resourceManager *cloudresourcemanager.Service
}

func (c *defaultIAMClient) ServiceAccountExists(ctx context.Context, projectID, accountEmail string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ServiceAccountTimeout)
	defer cancel()

	name := fmt.Sprintf("projects/%s/serviceAccounts/%s", projectID, accountEmail)
	_, err := c.iamService.Projects.ServiceAccounts.Get(name).Context(ctx).Do()
	if isNotFound(err) {
		return false, nil
	}
	return err == nil, wrapError("get service account", err)
}

func (c *defaultIAMClient) CreateServiceAccount(
	ctx context.Context,
	projectID, accountID, displayName, description string,
) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ServiceAccountTimeout)
	defer cancel()

	req := &iam.CreateServiceAccountRequest{
		AccountId: accountID,
		ServiceAccount: &iam.ServiceAccount{
			DisplayName: displayName,
			Description: description,
		},
	}

	sa, err := c.iamService.Projects.ServiceAccounts.Create("projects/"+projectID, req).
		Context(ctx).
		Do()
	if err != nil {
		return "", wrapError("create service account", err)
	}
	return sa.Email, nil
}

func (c *defaultIAMClient) AddIAMBinding(ctx context.Context, projectID, member, role string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.IAMBindingTimeout)
	defer cancel()

	resource := "projects/" + projectID
	policy, err := c.resourceManager.Projects.GetIamPolicy(resource, &cloudresourcemanager.GetIamPolicyRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return wrapError("get project iam policy", err)
	}

	if !crmBindingExists(policy.Bindings, role, member) {
		policy.Bindings = append(policy.Bindings, &cloudresourcemanager.Binding{
			Role:    role,
			Members: []string{member},
		})
	}

	_, err = c.resourceManager.Projects.SetIamPolicy(
		resource,
		&cloudresourcemanager.SetIamPolicyRequest{Policy: policy},
	).Context(ctx).Do()
	return wrapError("set project iam policy", err)
}

type defaultArtifactRegistryClient struct {
	service *artifactregistry.Service
}

func (c *defaultArtifactRegistryClient) RepositoryExists(
	ctx context.Context,
	projectID, location, repoID string,
) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ArtifactRegistryTimeout)
	defer cancel()

	name := fmt.Sprintf("projects/%s/locations/%s/repositories/%s", projectID, location, repoID)
	_, err := c.service.Projects.Locations.Repositories.Get(name).Context(ctx).Do()
	if isNotFound(err) {
		return false, nil
	}
	return err == nil, wrapError("get artifact registry repository", err)
}

func (c *defaultArtifactRegistryClient) CreateRepository(
	ctx context.Context,
	projectID, location, repoID, description string,
) error {
	ctx, cancel := context.WithTimeout(ctx, constants.ArtifactRegistryTimeout)
	defer cancel()

	parent := fmt.Sprintf("projects/%s/locations/%s", projectID, location)
	repo := &artifactregistry.Repository{
		Format:      "DOCKER",
		Description: description,
	}

	op, err := c.service.Projects.Locations.Repositories.Create(parent, repo).
		RepositoryId(repoID).
		Context(ctx).
		Do()
	if isAlreadyExists(err) {
		return nil
	}
	if err != nil {
		return wrapError("create artifact registry repository", err)
	}
	return c.waitForOperation(ctx, op.Name)
}

func (c *defaultArtifactRegistryClient) waitForOperation(ctx context.Context, name string) error {
	for {
		op, err := c.service.Projects.Locations.Operations.Get(name).Context(ctx).Do()
		if err != nil {
			return wrapError("poll artifact registry operation", err)
		}
		if op.Done {
			if op.Error != nil {
				return fmt.Errorf("operation error: %s", op.Error.Message)
			}
			return nil
		}
		time.Sleep(constants.ResourcePollInterval)
	}
}

type defaultServiceUsageClient struct {
	service *serviceusage.Service
}

func (c *defaultServiceUsageClient) EnableService(ctx context.Context, projectID, serviceID string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.ServiceUsageTimeout)
	defer cancel()

	name := fmt.Sprintf("projects/%s/services/%s", projectID, serviceID)
	op, err := c.service.Services.Enable(name, &serviceusage.EnableServiceRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return wrapError("enable service", err)
	}

	if op.Done {
		if op.Error != nil {
			return fmt.Errorf("enable service: %s", op.Error.Message)
		}
		return nil
	}

	return wrapError("wait for service enablement", c.waitForOperation(ctx, op.Name))
}

func (c *defaultServiceUsageClient) waitForOperation(ctx context.Context, name string) error {
	for {
		op, err := c.service.Operations.Get(name).Context(ctx).Do()
		if err != nil {
			return wrapError("poll service usage operation", err)
		}
		if op.Done {
			if op.Error != nil {
				return fmt.Errorf("operation error: %s", op.Error.Message)
			}
			return nil
		}
		time.Sleep(constants.ResourcePollInterval)
	}
}

type defaultCloudBuildClient struct {
	service *cloudbuild.Service
	storage *storage.Service
}

func (c *defaultCloudBuildClient) SubmitBuild(ctx context.Context, projectID, sourceDir, imageTag string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.BuildOperationTimeout)
	defer cancel()

	bucket, object, err := uploadSource(ctx, c.storage, projectID, sourceDir)
	if err != nil {
		return err
	}

	build := &cloudbuild.Build{
		Source: &cloudbuild.Source{
			StorageSource: &cloudbuild.StorageSource{
				Bucket: bucket,
				Object: object,
			},
		},
		Steps: []*cloudbuild.BuildStep{
			{
				Name: "gcr.io/cloud-builders/docker",
				Args: []string{"build", "-t", imageTag, "."},
			},
		},
		Images: []string{imageTag},
	}

	op, err := c.service.Projects.Builds.Create(projectID, build).Context(ctx).Do()
	if err != nil {
		return wrapError("create build", err)
	}

	var meta cloudbuild.BuildOperationMetadata
	if err := json.Unmarshal(op.Metadata, &meta); err != nil {
		return wrapError("decode build metadata", err)
	}
	if meta.Build == nil {
		return errors.New("create build: operation metadata missing build")
	}

	return c.waitForBuild(ctx, projectID, meta.Build.Id)
}

func (c *defaultCloudBuildClient) waitForBuild(ctx context.Context, projectID, buildID string) error {
	for {
		build, err := c.service.Projects.Builds.Get(projectID, buildID).Context(ctx).Do()
		if err != nil {
			return wrapError("poll build", err)
		}
		switch build.Status {
		case "SUCCESS":
			return nil
		case "FAILURE", "INTERNAL_ERROR", "TIMEOUT", "CANCELLED", "EXPIRED":
			return fmt.Errorf("build %s finished with status %s (logs: %s)", buildID, build.Status, build.LogUrl)
		}
		time.Sleep(constants.ResourcePollInterval)
	}
}

type defaultCloudRunClient struct {
	service *run.Service
	region  string
}

func (c *defaultCloudRunClient) serviceName(projectID, service string) string {
	return fmt.Sprintf("projects/%s/locations/%s/services/%s", projectID, c.region, service)
}

func (c *defaultCloudRunClient) parent(projectID string) string {
	return fmt.Sprintf("projects/%s/locations/%s", projectID, c.region)
}

func (c *defaultCloudRunClient) GetService(
	ctx context.Context,
	projectID, serviceName string,
) (exists bool, url string, err error) {
	svc, err := c.service.Projects.Locations.Services.Get(c.serviceName(projectID, serviceName)).
		Context(ctx).
		Do()
	if isNotFound(err) {
		return false, "", nil
	}
	if err != nil {
		return false, "", wrapError("get cloud run service", err)
	}
	return true, svc.Uri, nil
}

func (c *defaultCloudRunClient) CreateService(
	ctx context.Context,
	projectID, serviceName string,
	spec infra.ServiceSpec,
) (string, error) {
	runService := &run.GoogleCloudRunV2Service{
		Name: c.serviceName(projectID, serviceName),
		Template: &run.GoogleCloudRunV2RevisionTemplate{
			Containers:     []*run.GoogleCloudRunV2Container{toRunContainer(spec)},
			ServiceAccount: spec.ServiceAccount,
			Timeout:        fmt.Sprintf("%ds", spec.TimeoutSeconds),
		},
	}

	op, err := c.service.Projects.Locations.Services.Create(
		c.parent(projectID),
		runService,
	).ServiceId(serviceName).Context(ctx).Do()
	if err != nil {
		return "", wrapError("create cloud run service", err)
	}

	if waitErr := c.waitForRunOperation(ctx, op.Name); waitErr != nil {
		return "", wrapError("wait for cloud run creation", waitErr)
	}

	created, err := c.service.Projects.Locations.Services.Get(c.serviceName(projectID, serviceName)).
		Context(ctx).
		Do()
	if err != nil {
		return "", wrapError("get cloud run service uri", err)
	}
	return created.Uri, nil
}

func (c *defaultCloudRunClient) UpdateService(
	ctx context.Context,
	projectID, serviceName string,
	spec infra.ServiceSpec,
) (string, error) {
	servicePath := c.serviceName(projectID, serviceName)

	svc, err := c.service.Projects.Locations.Services.Get(servicePath).Context(ctx).Do()
	if err != nil {
		return "", wrapError("get cloud run service", err)
	}

	if svc.Template == nil {
		svc.Template = &run.GoogleCloudRunV2RevisionTemplate{}
	}
	svc.Template.Containers = []*run.GoogleCloudRunV2Container{toRunContainer(spec)}
	svc.Template.ServiceAccount = spec.ServiceAccount
	svc.Template.Timeout = fmt.Sprintf("%ds", spec.TimeoutSeconds)

	op, err := c.service.Projects.Locations.Services.Patch(servicePath, svc).
		UpdateMask("template").
		Context(ctx).
		Do()
	if err != nil {
		return "", wrapError("update cloud run service", err)
	}

	if waitErr := c.waitForRunOperation(ctx, op.Name); waitErr != nil {
		return "", wrapError("wait for cloud run update", waitErr)
	}

	updated, err := c.service.Projects.Locations.Services.Get(servicePath).Context(ctx).Do()
	if err != nil {
		return "", wrapError("get cloud run service uri", err)
	}
	return updated.Uri, nil
}

func (c *defaultCloudRunClient) AllowUnauthenticated(
	ctx context.Context,
	projectID, serviceName string,
) error {
	resource := c.serviceName(projectID, serviceName)
	policy, err := c.service.Projects.Locations.Services.GetIamPolicy(resource).
		Context(ctx).
		Do()
	if err != nil {
		return wrapError("get cloud run iam policy", err)
	}

	const invokerRole = "roles/run.invoker"
	const member = "allUsers"

	if !bindingExists(policy.Bindings, invokerRole, member) {
		policy.Bindings = append(policy.Bindings, &run.GoogleIamV1Binding{
			Role:    invokerRole,
			Members: []string{member},
		})
	}

	_, err = c.service.Projects.Locations.Services.SetIamPolicy(
		resource,
		&run.GoogleIamV1SetIamPolicyRequest{Policy: policy},
	).Context(ctx).Do()
	return wrapError("set cloud run iam policy", err)
}

func (c *defaultCloudRunClient) waitForRunOperation(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.CloudRunOperationTimeout)
	defer cancel()

	for {
		op, err := c.service.Projects.Locations.Operations.Get(name).Context(ctx).Do()
		if err != nil {
			return wrapError("poll cloud run operation", err)
		}
		if op.Done {
			if op.Error != nil {
				return fmt.Errorf("operation error: %s", op.Error.Message)
			}
			return nil
		}
		time.Sleep(constants.ResourcePollInterval)
	}
}

func toRunContainer(spec infra.ServiceSpec) *run.GoogleCloudRunV2Container {
	return &run.GoogleCloudRunV2Container{
		Image: spec.Image,
		Env:   toRunEnvVars(spec.EnvVars),
		Resources: &run.GoogleCloudRunV2ResourceRequirements{
			Limits: map[string]string{
				"cpu":    spec.CPULimit,
				"memory": spec.MemoryLimit,
			},
		},
	}
}

func toRunEnvVars(envVars map[string]string) []*run.GoogleCloudRunV2EnvVar {
	result := make([]*run.GoogleCloudRunV2EnvVar, 0, len(envVars))
	for k, v := range envVars {
		result = append(result, &run.GoogleCloudRunV2EnvVar{
			Name:  k,
			Value: v,
		})
	}
	return result
}

func wrapError(action string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", action, err)
}

func bindingExists(bindings []*run.GoogleIamV1Binding, role, member string) bool {
	for _, b := range bindings {
		if b.Role == role && slices.Contains(b.Members, member) {
			return true
		}
	}
	return false
}

func crmBindingExists(bindings []*cloudresourcemanager.Binding, role, member string) bool {
	for _, b := range bindings {
		if b.Role == role && slices.Contains(b.Members, member) {
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound
	}
	return false
}

func isAlreadyExists(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusConflict
	}
	return false
}
