package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeout(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "empty defaults to one hour", input: "", want: time.Hour},
		{name: "duration minutes", input: "30m", want: 30 * time.Minute},
		{name: "duration hours", input: "2h", want: 2 * time.Hour},
		{name: "plain seconds", input: "3600", want: time.Hour},
		{name: "garbage", input: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTimeout(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeployCommandIsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["deploy"])
	assert.True(t, names["version"])
}

func TestDeployCommandFlags(t *testing.T) {
	for _, flag := range []string{"service-name", "region", "mode", "bucket", "project", "source", "yes"} {
		assert.NotNil(t, deployCmd.Flags().Lookup(flag), "missing flag %s", flag)
	}
}
