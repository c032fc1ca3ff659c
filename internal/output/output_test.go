package output

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

// captureOutput redirects Stdout and Stderr to buffers for the duration of
// the test, with colors disabled so assertions see plain text.
func captureOutput(t *testing.T) (stdout, stderr *bytes.Buffer) {
	t.Helper()

	stdout = &bytes.Buffer{}
	stderr = &bytes.Buffer{}

	origStdout, origStderr := Stdout, Stderr
	origNoColor := color.NoColor
	Stdout, Stderr = stdout, stderr
	color.NoColor = true

	t.Cleanup(func() {
		Stdout, Stderr = origStdout, origStderr
		color.NoColor = origNoColor
	})
	return stdout, stderr
}

func TestStatusMessagesGoToStderr(t *testing.T) {
	stdout, stderr := captureOutput(t)

	Successf("bucket %s created", "demo")
	Infof("submitting build")
	Warningf("slow operation")
	Errorf("deploy failed")

	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "✓ bucket demo created\n")
	assert.Contains(t, stderr.String(), "→ submitting build\n")
	assert.Contains(t, stderr.String(), "⚠ slow operation\n")
	assert.Contains(t, stderr.String(), "✗ deploy failed\n")
}

func TestStep(t *testing.T) {
	_, stderr := captureOutput(t)

	Step(2, 5, "Provisioning service identity")

	assert.Equal(t, "[2/5] Provisioning service identity\n", stderr.String())
}

func TestHeader(t *testing.T) {
	_, stderr := captureOutput(t)

	Header("Deployment summary")

	assert.Contains(t, stderr.String(), "Deployment summary\n")
	assert.Contains(t, stderr.String(), "━━━")
}

func TestKeyValue(t *testing.T) {
	stdout, _ := captureOutput(t)

	KeyValue("Region", "us-central1")

	assert.Equal(t, "  Region: us-central1\n", stdout.String())
}

func TestPromptWritesLabel(t *testing.T) {
	stdout, _ := captureOutput(t)

	// Stdin is closed in tests, so Scanln returns immediately with an
	// empty response.
	response := Prompt("Service name")

	assert.Empty(t, response)
	assert.Contains(t, stdout.String(), "? Service name: ")
}

func TestPromptWithDefaultShowsDefault(t *testing.T) {
	stdout, _ := captureOutput(t)

	response := PromptWithDefault("Region", "us-central1")

	assert.Equal(t, "us-central1", response)
	assert.Contains(t, stdout.String(), "Region [us-central1]")
}

func TestConfirmDefaultsToNo(t *testing.T) {
	stdout, _ := captureOutput(t)

	assert.False(t, Confirm("Proceed with deployment"))
	assert.Contains(t, stdout.String(), "Proceed with deployment [y/N]: ")
}
