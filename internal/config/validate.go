package config

import (
	"errors"
	"fmt"
)

// Validate checks that the configuration can produce a non-empty candidate
// space and that the dispatch settings are complete. It is called before
// any provider API call.
func (c *Config) Validate() error {
	var errs []error

	if c.GCP.ProjectID == "" {
		errs = append(errs, errors.New("gcp.project_id is required"))
	}
	if c.GCP.VMName == "" {
		errs = append(errs, errors.New("gcp.vm_name is required"))
	}
	if c.GCP.GPUType == "" {
		errs = append(errs, errors.New("gcp.gpu_type is required"))
	}
	if c.GCP.GPUQuotaMetric == "" {
		errs = append(errs, errors.New("gcp.gpu_quota_name is required"))
	}
	if c.GCP.GPUCount < 1 {
		errs = append(errs, fmt.Errorf("gcp.gpu_count must be at least 1, got %d", c.GCP.GPUCount))
	}
	if len(c.GCP.MachineTypes) == 0 {
		errs = append(errs, errors.New("gcp.machine_types must list at least one machine type"))
	}
	if c.GCP.DiskSourceImage == "" {
		errs = append(errs, errors.New("gcp.disk_source_image is required"))
	}
	if c.GCP.DiskSizeGB < 10 {
		errs = append(errs, fmt.Errorf("gcp.disk_size_gb must be at least 10, got %d", c.GCP.DiskSizeGB))
	}

	if c.Dispatch.PayloadPath == "" {
		errs = append(errs, errors.New("dispatch.payload_path is required"))
	}
	if c.Dispatch.PrivateKeyPath == "" {
		errs = append(errs, errors.New("dispatch.private_key_path is required"))
	}
	if c.Dispatch.RepoURL == "" {
		errs = append(errs, errors.New("dispatch.repo_url is required"))
	}
	if c.Dispatch.Username == "" {
		errs = append(errs, errors.New("dispatch.username is required"))
	}
	if c.Dispatch.Email == "" {
		errs = append(errs, errors.New("dispatch.email is required"))
	}
	if c.Dispatch.RuntimeVersion == "" {
		errs = append(errs, errors.New("dispatch.runtime_version is required"))
	}
	if c.Dispatch.TokenEnv == "" {
		errs = append(errs, errors.New("dispatch.token_env is required"))
	}

	return errors.Join(errs...)
}
