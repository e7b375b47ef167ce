package gcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	compute "cloud.google.com/go/compute/apiv1"
	"cloud.google.com/go/compute/apiv1/computepb"
	"github.com/googleapis/gax-go/v2"
	"golang.org/x/oauth2"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/zcox10/gcp-vm-gpu-setup/internal/util/naming"
	"github.com/zcox10/gcp-vm-gpu-setup/internal/util/ptr"
)

const (
	defaultOperationTimeout = 5 * time.Minute

	// probeTimeout bounds the cheap read-only availability calls so a slow
	// probe cannot stall the candidate search.
	probeTimeout = 30 * time.Second
)

// RealClient implements Compute using the Compute Engine REST API.
type RealClient struct {
	projectID string
	opTimeout time.Duration

	zones        *compute.ZonesClient
	instances    *compute.InstancesClient
	machineTypes *compute.MachineTypesClient
	accelerators *compute.AcceleratorTypesClient
	regions      *compute.RegionsClient
}

// ClientOption configures a RealClient.
type ClientOption func(*RealClient)

// WithOperationTimeout bounds how long the client waits for a single zone
// operation (insert, start, delete) to complete.
func WithOperationTimeout(d time.Duration) ClientOption {
	return func(c *RealClient) {
		c.opTimeout = d
	}
}

// NewRealClient opens REST clients for every Compute Engine service the
// pipeline uses, authenticated with the given token source.
func NewRealClient(ctx context.Context, projectID string, ts oauth2.TokenSource, opts ...ClientOption) (*RealClient, error) {
	c := &RealClient{
		projectID: projectID,
		opTimeout: defaultOperationTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	clientOpts := []option.ClientOption{option.WithTokenSource(ts)}

	var err error
	if c.zones, err = compute.NewZonesRESTClient(ctx, clientOpts...); err != nil {
		return nil, fmt.Errorf("failed to create zones client: %w", err)
	}
	if c.instances, err = compute.NewInstancesRESTClient(ctx, clientOpts...); err != nil {
		return nil, fmt.Errorf("failed to create instances client: %w", err)
	}
	if c.machineTypes, err = compute.NewMachineTypesRESTClient(ctx, clientOpts...); err != nil {
		return nil, fmt.Errorf("failed to create machine types client: %w", err)
	}
	if c.accelerators, err = compute.NewAcceleratorTypesRESTClient(ctx, clientOpts...); err != nil {
		return nil, fmt.Errorf("failed to create accelerator types client: %w", err)
	}
	if c.regions, err = compute.NewRegionsRESTClient(ctx, clientOpts...); err != nil {
		return nil, fmt.Errorf("failed to create regions client: %w", err)
	}

	return c, nil
}

// ListZones implements Compute.
func (c *RealClient) ListZones(ctx context.Context) ([]string, error) {
	it := c.zones.List(ctx, &computepb.ListZonesRequest{
		Project: c.projectID,
	})

	var names []string
	for {
		zone, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list zones: %w", err)
		}
		names = append(names, zone.GetName())
	}
	return names, nil
}

// HasAccelerator implements Compute.
func (c *RealClient) HasAccelerator(ctx context.Context, zone, acceleratorType string) (bool, error) {
	it := c.accelerators.List(ctx, &computepb.ListAcceleratorTypesRequest{
		Project: c.projectID,
		Zone:    zone,
	})

	for {
		at, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed to list accelerator types in %s: %w", zone, err)
		}
		if at.GetName() == acceleratorType {
			return true, nil
		}
	}
}

// HasMachineType implements Compute.
func (c *RealClient) HasMachineType(ctx context.Context, zone, machineType string) (bool, error) {
	_, err := c.machineTypes.Get(ctx, &computepb.GetMachineTypeRequest{
		Project:     c.projectID,
		Zone:        zone,
		MachineType: machineType,
	}, gax.WithTimeout(probeTimeout))
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get machine type %s in %s: %w", machineType, zone, err)
	}
	return true, nil
}

// RegionQuota implements Compute.
func (c *RealClient) RegionQuota(ctx context.Context, region, metric string) (*Quota, error) {
	info, err := c.regions.Get(ctx, &computepb.GetRegionRequest{
		Project: c.projectID,
		Region:  region,
	}, gax.WithTimeout(probeTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to get region %s: %w", region, err)
	}

	for _, q := range info.GetQuotas() {
		if q.GetMetric() == metric {
			return &Quota{
				Metric: q.GetMetric(),
				Usage:  q.GetUsage(),
				Limit:  q.GetLimit(),
			}, nil
		}
	}
	return nil, nil
}

// CreateInstance implements Compute.
func (c *RealClient) CreateInstance(ctx context.Context, spec InstanceSpec) error {
	region := naming.Region(spec.Zone)

	instance := &computepb.Instance{
		Name:        ptr.String(spec.Name),
		MachineType: ptr.String(fmt.Sprintf("projects/%s/zones/%s/machineTypes/%s", c.projectID, spec.Zone, spec.MachineType)),
		GuestAccelerators: []*computepb.AcceleratorConfig{{
			AcceleratorCount: ptr.Int32(spec.GPUCount),
			AcceleratorType:  ptr.String(fmt.Sprintf("projects/%s/zones/%s/acceleratorTypes/%s", c.projectID, spec.Zone, spec.GPUType)),
		}},
		// GPU instances cannot be live-migrated.
		Scheduling: &computepb.Scheduling{
			AutomaticRestart:  ptr.Bool(true),
			OnHostMaintenance: ptr.String("TERMINATE"),
			ProvisioningModel: ptr.String("STANDARD"),
		},
		Disks: []*computepb.AttachedDisk{{
			AutoDelete: ptr.Bool(true),
			Boot:       ptr.Bool(true),
			InitializeParams: &computepb.AttachedDiskInitializeParams{
				SourceImage: ptr.String(spec.SourceImage),
				DiskSizeGb:  ptr.Int64(spec.DiskSizeGB),
				DiskType:    ptr.String(fmt.Sprintf("projects/%s/zones/%s/diskTypes/pd-balanced", c.projectID, spec.Zone)),
			},
		}},
		NetworkInterfaces: []*computepb.NetworkInterface{{
			StackType:  ptr.String("IPV4_ONLY"),
			Subnetwork: ptr.String(fmt.Sprintf("projects/%s/regions/%s/subnetworks/default", c.projectID, region)),
			AccessConfigs: []*computepb.AccessConfig{{
				Name: ptr.String(externalNATName),
				Type: ptr.String("ONE_TO_ONE_NAT"),
			}},
		}},
	}

	op, err := c.instances.Insert(ctx, &computepb.InsertInstanceRequest{
		Project:          c.projectID,
		Zone:             spec.Zone,
		InstanceResource: instance,
	})
	if err != nil {
		return fmt.Errorf("failed to insert instance %s in %s: %w", spec.Name, spec.Zone, err)
	}
	return c.waitOperation(ctx, op, "insert", spec.Name)
}

// StartInstance implements Compute.
func (c *RealClient) StartInstance(ctx context.Context, zone, name string) error {
	op, err := c.instances.Start(ctx, &computepb.StartInstanceRequest{
		Project:  c.projectID,
		Zone:     zone,
		Instance: name,
	})
	if err != nil {
		return fmt.Errorf("failed to start instance %s in %s: %w", name, zone, err)
	}
	return c.waitOperation(ctx, op, "start", name)
}

// DeleteInstance implements Compute.
func (c *RealClient) DeleteInstance(ctx context.Context, zone, name string) error {
	op, err := c.instances.Delete(ctx, &computepb.DeleteInstanceRequest{
		Project:  c.projectID,
		Zone:     zone,
		Instance: name,
	})
	if err != nil {
		return fmt.Errorf("failed to delete instance %s in %s: %w", name, zone, err)
	}
	return c.waitOperation(ctx, op, "delete", name)
}

// externalNATName is the access config name Compute Engine assigns to the
// one-to-one NAT config holding the external address.
const externalNATName = "External NAT"

// ExternalIP implements Compute.
func (c *RealClient) ExternalIP(ctx context.Context, zone, name string) (string, error) {
	instance, err := c.instances.Get(ctx, &computepb.GetInstanceRequest{
		Project:  c.projectID,
		Zone:     zone,
		Instance: name,
	}, gax.WithTimeout(probeTimeout))
	if err != nil {
		return "", fmt.Errorf("failed to get instance %s in %s: %w", name, zone, err)
	}

	for _, iface := range instance.GetNetworkInterfaces() {
		for _, ac := range iface.GetAccessConfigs() {
			if ac.GetName() == externalNATName && ac.GetNatIP() != "" {
				return ac.GetNatIP(), nil
			}
		}
	}
	return "", fmt.Errorf("instance %s in %s has no external address", name, zone)
}

// Close implements Compute.
func (c *RealClient) Close() error {
	var errs []error
	for _, closer := range []interface{ Close() error }{
		c.zones, c.instances, c.machineTypes, c.accelerators, c.regions,
	} {
		if closer != nil {
			errs = append(errs, closer.Close())
		}
	}
	return errors.Join(errs...)
}

// waitOperation blocks until the zone operation completes, converting an
// operation-level failure into an *OperationError so callers can classify
// it by code instead of matching message text.
func (c *RealClient) waitOperation(ctx context.Context, op *compute.Operation, verb, name string) error {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	err := op.Wait(ctx)
	if opErr := op.Proto().GetError(); opErr != nil && len(opErr.GetErrors()) > 0 {
		first := opErr.GetErrors()[0]
		return fmt.Errorf("%s of instance %s failed: %w", verb, name, &OperationError{
			Code:    first.GetCode(),
			Message: first.GetMessage(),
		})
	}
	if err != nil {
		return fmt.Errorf("failed waiting for %s of instance %s: %w", verb, name, err)
	}
	return nil
}
