// Package config loads and validates the acquisition configuration.
//
// Configuration comes from two places: a YAML file (config.yaml by default)
// for everything that is safe to commit, and the process environment for
// secrets. The loaded Config is validated before any provider call is made,
// so an empty candidate space or a missing credential fails fast.
package config

import "time"

// DefaultPath is where LoadFile looks when no path is given.
const DefaultPath = "config.yaml"

// CredentialsEnv names the environment variable holding the path to the
// service account key file, following the convention used by Google client
// libraries.
const CredentialsEnv = "GOOGLE_APPLICATION_CREDENTIALS"

// Reachability defaults. The worst-case wait before giving up is
// InitialDelay * (Multiplier^Attempts - 1) between attempts.
const (
	DefaultReachAttempts     = 10
	DefaultReachInitialDelay = 5 * time.Second
	DefaultReachMultiplier   = 2.0
	DefaultConnectTimeout    = 10 * time.Second
)

// Config is the validated configuration record for one acquisition run.
type Config struct {
	GCP      GCP      `yaml:"gcp"`
	Dispatch Dispatch `yaml:"dispatch"`
}

// GCP holds everything needed to search for and create the instance.
type GCP struct {
	ProjectID       string   `yaml:"project_id"`
	VMName          string   `yaml:"vm_name"`
	GPUType         string   `yaml:"gpu_type"`
	GPUQuotaMetric  string   `yaml:"gpu_quota_name"`
	GPUCount        int      `yaml:"gpu_count"`
	MachineTypes    []string `yaml:"machine_types"`
	DiskSourceImage string   `yaml:"disk_source_image"`
	DiskSizeGB      int      `yaml:"disk_size_gb"`

	// Zones restricts the search to an explicit ordered list. Empty means
	// discover every zone in the project.
	Zones []string `yaml:"zones"`
}

// Dispatch holds the settings for handing the instance off to the remote
// setup payload. The payload itself is opaque; only its argument contract
// is known here.
type Dispatch struct {
	PayloadPath    string `yaml:"payload_path"`
	RemoteUser     string `yaml:"remote_user"`
	PrivateKeyPath string `yaml:"private_key_path"`

	RepoURL        string `yaml:"repo_url"`
	Username       string `yaml:"username"`
	Email          string `yaml:"email"`
	RuntimeVersion string `yaml:"runtime_version"`

	// TokenEnv names the environment variable holding the access token.
	// The token is resolved at load time and never read from the file.
	TokenEnv string `yaml:"token_env"`

	// Token is populated from TokenEnv by LoadFile.
	Token string `yaml:"-"`
}
