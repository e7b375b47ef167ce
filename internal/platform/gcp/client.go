package gcp

import (
	"context"
)

// InstanceSpec holds all parameters for creating a GPU instance.
type InstanceSpec struct {
	Name        string
	Zone        string
	MachineType string
	GPUType     string
	GPUCount    int32
	SourceImage string
	DiskSizeGB  int64
}

// Quota is one provider quota metric in a region.
type Quota struct {
	Metric string
	Usage  float64
	Limit  float64
}

// Exhausted reports whether the quota has no remaining headroom.
func (q Quota) Exhausted() bool {
	return q.Usage >= q.Limit
}

// Compute defines the operations the acquisition pipeline needs from the
// provider. The production implementation is RealClient; tests substitute
// fakes.
type Compute interface {
	// ListZones returns the names of every zone in the project, in the
	// provider's listing order.
	ListZones(ctx context.Context) ([]string, error)

	// HasAccelerator reports whether the accelerator type exists in the zone.
	HasAccelerator(ctx context.Context, zone, acceleratorType string) (bool, error)

	// HasMachineType reports whether the machine type exists in the zone.
	HasMachineType(ctx context.Context, zone, machineType string) (bool, error)

	// RegionQuota returns the named quota metric for the region, or nil if
	// the region does not expose that metric.
	RegionQuota(ctx context.Context, region, metric string) (*Quota, error)

	// CreateInstance creates the instance and waits for the insert
	// operation to complete.
	CreateInstance(ctx context.Context, spec InstanceSpec) error

	// StartInstance starts a created instance and waits for the operation.
	StartInstance(ctx context.Context, zone, name string) error

	// DeleteInstance deletes an instance and waits for the operation. Used
	// to tear down partially created instances after a failed attempt.
	DeleteInstance(ctx context.Context, zone, name string) error

	// ExternalIP returns the instance's External NAT address, or an error
	// if the instance has none.
	ExternalIP(ctx context.Context, zone, name string) (string, error)

	// Close releases the underlying API clients.
	Close() error
}
