// Package constants defines global constants used throughout studioctl.
// It includes version information, defaults, and Google Cloud resource names.
package constants

var version = "0.0.0-development" // Updated by CI/CD pipeline at build time

// GetVersion returns the current version of studioctl.
func GetVersion() *string {
	return &version
}

// ProjectName is the name of the CLI tool.
const ProjectName = "studioctl"

// Environment represents the execution environment.
type Environment string

// Environment types for logger configuration
const (
	Development Environment = "development"
	Production  Environment = "production"
	CLI         Environment = "cli"
)

const (
	// DefaultServiceName is the Cloud Run service name offered when the
	// operator accepts the service-name prompt default.
	DefaultServiceName = "creative-studio"

	// DefaultRegion is the region offered when the operator accepts the
	// region prompt default.
	DefaultRegion = "us-central1"

	// DefaultBucketBase is the base bucket name offered in fresh mode; the
	// project ID is appended to it for global uniqueness.
	DefaultBucketBase = "creative-studio-assets"

	// ServiceAccountName is the fixed account ID of the workload identity.
	// The full email is <ServiceAccountName>@<project>.iam.gserviceaccount.com.
	ServiceAccountName = "sa-imagen-studio"

	// ServiceAccountDisplayName is the display name used when the identity
	// is created.
	ServiceAccountDisplayName = "Imagen Studio service account"

	// ServiceAccountDescription is the description used when the identity
	// is created.
	ServiceAccountDescription = "Runtime identity for the GenMedia creative studio Cloud Run service"
)

// Project-level roles granted to the service identity on every fresh run.
const (
	RoleAIPlatformUser = "roles/aiplatform.user"
	RoleStorageAdmin   = "roles/storage.admin"
)

// ArtifactRegistryAPI is the service enabled before registry provisioning.
const ArtifactRegistryAPI = "artifactregistry.googleapis.com"

// Environment variables injected into the deployed service.
const (
	EnvBucketName = "GENMEDIA_BUCKET"
	EnvProjectID  = "PROJECT_ID"
)

// Environment variables consulted when resolving the ambient project ID, in
// order of precedence.
const (
	EnvStudioProject = "STUDIO_PROJECT_ID"
	EnvGoogleProject = "GOOGLE_CLOUD_PROJECT"
	EnvSDKProject    = "CLOUDSDK_CORE_PROJECT"
)

// Cloud Run resource configuration for the deployed service.
const (
	DeployCPULimit       = "2"
	DeployMemoryLimit    = "2Gi"
	DeployTimeoutSeconds = 3600
)
