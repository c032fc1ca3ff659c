package constants

import "time"

const (
	// ResourcePollInterval is the interval at which long-running provider
	// operations are polled.
	ResourcePollInterval = 5 * time.Second

	// StorageOperationTimeout bounds bucket and object calls.
	StorageOperationTimeout = 2 * time.Minute

	// ServiceAccountTimeout bounds IAM service-account calls.
	ServiceAccountTimeout = 1 * time.Minute

	// IAMBindingTimeout bounds project IAM policy reads and writes.
	IAMBindingTimeout = 1 * time.Minute

	// ArtifactRegistryTimeout bounds repository calls, including the
	// creation operation wait.
	ArtifactRegistryTimeout = 5 * time.Minute

	// ServiceUsageTimeout bounds API enablement, including the operation
	// wait.
	ServiceUsageTimeout = 5 * time.Minute

	// BuildOperationTimeout is the maximum time to wait for a submitted
	// build to reach a terminal status.
	BuildOperationTimeout = 30 * time.Minute

	// CloudRunOperationTimeout is the maximum time to wait for a Cloud Run
	// create or update operation to complete.
	CloudRunOperationTimeout = 10 * time.Minute
)
