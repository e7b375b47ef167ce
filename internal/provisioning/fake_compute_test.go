package provisioning

import (
	"context"
	"sync"

	"github.com/zcox10/gcp-vm-gpu-setup/internal/platform/gcp"
)

// fakeCompute is a scriptable gcp.Compute for provisioner tests. Every
// hook defaults to the happy path so tests only script what they exercise.
type fakeCompute struct {
	mu sync.Mutex

	listZonesFunc      func(ctx context.Context) ([]string, error)
	hasAcceleratorFunc func(ctx context.Context, zone, at string) (bool, error)
	hasMachineTypeFunc func(ctx context.Context, zone, mt string) (bool, error)
	regionQuotaFunc    func(ctx context.Context, region, metric string) (*gcp.Quota, error)
	createFunc         func(ctx context.Context, spec gcp.InstanceSpec) error
	startFunc          func(ctx context.Context, zone, name string) error
	externalIPFunc     func(ctx context.Context, zone, name string) (string, error)

	created []gcp.InstanceSpec
	deleted []string
}

func newFakeCompute() *fakeCompute {
	return &fakeCompute{}
}

func (f *fakeCompute) ListZones(ctx context.Context) ([]string, error) {
	if f.listZonesFunc != nil {
		return f.listZonesFunc(ctx)
	}
	return []string{"us-central1-a", "us-central1-b"}, nil
}

func (f *fakeCompute) HasAccelerator(ctx context.Context, zone, at string) (bool, error) {
	if f.hasAcceleratorFunc != nil {
		return f.hasAcceleratorFunc(ctx, zone, at)
	}
	return true, nil
}

func (f *fakeCompute) HasMachineType(ctx context.Context, zone, mt string) (bool, error) {
	if f.hasMachineTypeFunc != nil {
		return f.hasMachineTypeFunc(ctx, zone, mt)
	}
	return true, nil
}

func (f *fakeCompute) RegionQuota(ctx context.Context, region, metric string) (*gcp.Quota, error) {
	if f.regionQuotaFunc != nil {
		return f.regionQuotaFunc(ctx, region, metric)
	}
	return &gcp.Quota{Metric: metric, Usage: 0, Limit: 8}, nil
}

func (f *fakeCompute) CreateInstance(ctx context.Context, spec gcp.InstanceSpec) error {
	f.mu.Lock()
	f.created = append(f.created, spec)
	f.mu.Unlock()
	if f.createFunc != nil {
		return f.createFunc(ctx, spec)
	}
	return nil
}

func (f *fakeCompute) StartInstance(ctx context.Context, zone, name string) error {
	if f.startFunc != nil {
		return f.startFunc(ctx, zone, name)
	}
	return nil
}

func (f *fakeCompute) DeleteInstance(_ context.Context, zone, name string) error {
	f.mu.Lock()
	f.deleted = append(f.deleted, zone+"/"+name)
	f.mu.Unlock()
	return nil
}

func (f *fakeCompute) ExternalIP(ctx context.Context, zone, name string) (string, error) {
	if f.externalIPFunc != nil {
		return f.externalIPFunc(ctx, zone, name)
	}
	return "34.66.10.20", nil
}

func (f *fakeCompute) Close() error { return nil }

// discardLogger swallows diagnostics in tests.
type discardLogger struct{}

func (discardLogger) Printf(string, ...interface{}) {}
