package infra

import (
	"fmt"
	"strings"

	"github.com/genmedia/studioctl/internal/constants"
	apperrors "github.com/genmedia/studioctl/internal/errors"
)

// Mode is the deployment mode selected by the operator.
type Mode string

const (
	// ModeFresh runs full provisioning before building and deploying.
	ModeFresh Mode = "fresh"
	// ModeRedeploy skips provisioning and only rebuilds and redeploys.
	ModeRedeploy Mode = "re-deploy"
)

// ParseMode validates the deployment mode. Exactly "fresh" and "re-deploy"
// are accepted, case-insensitively; anything else is a fatal input error.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeFresh:
		return ModeFresh, nil
	case ModeRedeploy:
		return ModeRedeploy, nil
	}
	return "", apperrors.ErrInvalidInput(
		fmt.Sprintf("unrecognized deployment mode %q (expected %q or %q)", s, ModeFresh, ModeRedeploy),
		nil,
	)
}

// Console defines the terminal interactions the workflow needs. It exists so
// the interactive flow can be driven by a scripted fake in tests.
type Console interface {
	Infof(format string, a ...any)
	Successf(format string, a ...any)
	Warningf(format string, a ...any)
	Header(text string)
	KeyValue(key, value string)
	Blank()
	Step(step, total int, message string)
	Prompt(prompt string) string
	PromptRequired(prompt string) string
	PromptWithDefault(prompt, def string) string
	Confirm(prompt string) bool
}

// Inputs carries pre-answered values from flags or the environment. An empty
// field means the corresponding prompt is still asked.
type Inputs struct {
	ProjectID   string
	ServiceName string
	Region      string
	Mode        string
	Bucket      string
	SourceDir   string
	AutoApprove bool
}

// Deployment is the immutable record of resolved deployment values threaded
// through each phase. All prompting happens before it is constructed.
type Deployment struct {
	ProjectID    string
	ServiceName  string
	Region       string
	Mode         Mode
	BucketName   string
	CreateBucket bool
	SourceDir    string
	AutoApprove  bool
}

// Resolve collects and validates all operator input for a deployment run.
// Prompts are only issued for values the caller did not supply.
func Resolve(console Console, in Inputs) (*Deployment, error) {
	projectID := strings.TrimSpace(in.ProjectID)
	if projectID == "" {
		return nil, apperrors.ErrMissingPrerequisite(
			"no Google Cloud project configured; set "+constants.EnvStudioProject+
				" or run 'gcloud config set project'", nil)
	}

	serviceName := strings.TrimSpace(in.ServiceName)
	if serviceName == "" {
		serviceName = console.PromptWithDefault("Service name", constants.DefaultServiceName)
	}

	region := strings.TrimSpace(in.Region)
	if region == "" {
		region = console.PromptWithDefault("Region", constants.DefaultRegion)
	}

	modeAnswer := in.Mode
	if modeAnswer == "" {
		modeAnswer = console.Prompt(fmt.Sprintf("Deployment type (%s/%s)", ModeFresh, ModeRedeploy))
	}
	mode, err := ParseMode(modeAnswer)
	if err != nil {
		return nil, err
	}

	d := &Deployment{
		ProjectID:   projectID,
		ServiceName: serviceName,
		Region:      region,
		Mode:        mode,
		SourceDir:   in.SourceDir,
		AutoApprove: in.AutoApprove,
	}
	if d.SourceDir == "" {
		d.SourceDir = "."
	}

	if err := resolveBucket(console, in, d); err != nil {
		return nil, err
	}

	return d, nil
}

// resolveBucket runs the bucket-acquisition branch. In fresh mode the
// operator either names an existing bucket or confirms creation of a new one
// whose name is the chosen base with the project ID appended. In re-deploy
// mode the bucket name is only needed for the service environment.
func resolveBucket(console Console, in Inputs, d *Deployment) error {
	if bucket := strings.TrimSpace(in.Bucket); bucket != "" {
		d.BucketName = bucket
		return nil
	}

	if d.Mode == ModeRedeploy {
		d.BucketName = console.PromptRequired("Bucket name for generated media")
		return nil
	}

	if console.Confirm("Do you already have a storage bucket for generated media") {
		// No provider-side validation of the name; a wrong name surfaces
		// at deploy time, same as the original workflow.
		d.BucketName = console.PromptRequired("Bucket name")
		return nil
	}

	base := console.PromptWithDefault("Bucket name to create", constants.DefaultBucketBase)
	name := BucketName(base, d.ProjectID)

	console.Blank()
	console.KeyValue("Bucket", name)
	console.KeyValue("Region", d.Region)
	if !d.AutoApprove && !console.Confirm("Create this bucket") {
		return apperrors.ErrInvalidInput("bucket creation declined", nil)
	}

	d.BucketName = name
	d.CreateBucket = true
	return nil
}

// BucketName computes the bucket name created in fresh mode: the base name
// with the project ID appended for global-uniqueness odds.
func BucketName(base, projectID string) string {
	return base + "-" + projectID
}
