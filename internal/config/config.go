// Package config resolves ambient configuration for the studioctl CLI.
// It uses Viper to read environment variables and the gcloud SDK's
// configuration files for the active project.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/encoding/ini"
	"github.com/spf13/viper"

	"github.com/genmedia/studioctl/internal/constants"
)

// Config holds the resolved deployment configuration. Values are collected
// once, up front, and the struct is not mutated afterwards.
type Config struct {
	ProjectID   string `mapstructure:"project_id" validate:"required"`
	ServiceName string `mapstructure:"service_name" validate:"required,hostname_rfc1123,max=63"`
	Region      string `mapstructure:"region" validate:"required,max=32"`
}

var validate = validator.New()

// Validate checks the resolved configuration against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// ResolveProjectID determines the active Google Cloud project from ambient
// state: STUDIO_PROJECT_ID, then GOOGLE_CLOUD_PROJECT / CLOUDSDK_CORE_PROJECT,
// then core.project from the gcloud SDK's active configuration file.
// Returns an empty string when no source yields a project.
func ResolveProjectID() string {
	for _, key := range []string{
		constants.EnvStudioProject,
		constants.EnvGoogleProject,
		constants.EnvSDKProject,
	} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}

	project, err := readGcloudProject()
	if err != nil {
		return ""
	}
	return project
}

// EnvOrDefault returns the value of a STUDIO_-prefixed environment variable,
// or the default when unset. Used to seed prompt defaults.
func EnvOrDefault(suffix, def string) string {
	if v := strings.TrimSpace(os.Getenv("STUDIO_" + suffix)); v != "" {
		return v
	}
	return def
}

// gcloudConfigDir returns the gcloud SDK configuration directory, honoring
// the CLOUDSDK_CONFIG override the SDK itself supports.
func gcloudConfigDir() (string, error) {
	if dir := os.Getenv("CLOUDSDK_CONFIG"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "gcloud"), nil
}

// activeConfigName returns the name of the active gcloud configuration,
// defaulting to "default" when no active_config marker exists.
func activeConfigName(configDir string) string {
	data, err := os.ReadFile(filepath.Join(configDir, "active_config"))
	if err != nil {
		return "default"
	}
	name := strings.TrimSpace(string(data))
	if name == "" {
		return "default"
	}
	return name
}

// readGcloudProject reads core.project from the active gcloud configuration
// file. The file is INI-formatted, which Viper parses directly.
func readGcloudProject() (string, error) {
	configDir, err := gcloudConfigDir()
	if err != nil {
		return "", err
	}

	name := activeConfigName(configDir)
	configFile := filepath.Join(configDir, "configurations", "config_"+name)

	// Viper dropped the built-in INI codec in 1.20, so register it explicitly.
	registry := viper.NewCodecRegistry()
	if err := registry.RegisterCodec("ini", ini.Codec{}); err != nil {
		return "", fmt.Errorf("error registering ini codec: %w", err)
	}

	v := viper.NewWithOptions(viper.WithCodecRegistry(registry))
	v.SetConfigFile(configFile)
	v.SetConfigType("ini")

	if readErr := v.ReadInConfig(); readErr != nil {
		return "", fmt.Errorf("error reading gcloud configuration: %w", readErr)
	}

	return strings.TrimSpace(v.GetString("core.project")), nil
}
