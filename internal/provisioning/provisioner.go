package provisioning

import (
	"context"
	"fmt"
	"time"

	"github.com/zcox10/gcp-vm-gpu-setup/internal/config"
	"github.com/zcox10/gcp-vm-gpu-setup/internal/platform/gcp"
	"github.com/zcox10/gcp-vm-gpu-setup/internal/util/naming"
)

const (
	// cpuQuotaMetric is the regional CPU quota every machine type draws on.
	cpuQuotaMetric = "CPUS"

	defaultTransientRetries = 2
	defaultTransientDelay   = 2 * time.Second
)

// Provisioner attempts to create and start an instance for one candidate.
type Provisioner struct {
	api  gcp.Compute
	spec config.GCP
	log  Logger

	// now is the clock for instance name timestamps.
	now func() time.Time

	// transientRetries bounds how often a transient provider error is
	// retried against the same candidate before giving up on it.
	transientRetries int
	transientDelay   time.Duration
}

// ProvisionerOption configures a Provisioner.
type ProvisionerOption func(*Provisioner)

// WithClock substitutes the timestamp source used for instance names.
func WithClock(now func() time.Time) ProvisionerOption {
	return func(p *Provisioner) {
		p.now = now
	}
}

// WithTransientRetry adjusts the bounded same-candidate retry behavior.
func WithTransientRetry(retries int, delay time.Duration) ProvisionerOption {
	return func(p *Provisioner) {
		p.transientRetries = retries
		p.transientDelay = delay
	}
}

// NewProvisioner creates a provisioner for the given provider client and
// acquisition settings.
func NewProvisioner(api gcp.Compute, spec config.GCP, log Logger, opts ...ProvisionerOption) *Provisioner {
	p := &Provisioner{
		api:              api,
		spec:             spec,
		log:              log,
		now:              time.Now,
		transientRetries: defaultTransientRetries,
		transientDelay:   defaultTransientDelay,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Attempt tries to acquire an instance for the candidate. On success the
// returned instance is non-nil. On failure the attempt record carries the
// classification, and no instance created along the way is left behind.
func (p *Provisioner) Attempt(ctx context.Context, cand Candidate) (*AcquiredInstance, ProvisionAttempt) {
	if attempt, ok := p.checkAvailability(ctx, cand); !ok {
		return nil, attempt
	}

	name := naming.Instance(p.spec.VMName, p.now())

	var lastErr error
	for try := 0; try <= p.transientRetries; try++ {
		if try > 0 {
			p.log.Printf("retrying %s after transient error: %v", cand, lastErr)
			select {
			case <-ctx.Done():
				return nil, p.failure(cand, OutcomeFatalError, fmt.Sprintf("cancelled: %v", ctx.Err()))
			case <-time.After(p.transientDelay):
			}
		}

		inst, err := p.provisionOnce(ctx, cand, name)
		if err == nil {
			p.log.Printf("instantiated %s on %s as %s in %s", p.spec.GPUType, cand.MachineType, name, cand.Zone)
			return inst, ProvisionAttempt{Candidate: cand, Outcome: OutcomeSuccess}
		}

		lastErr = err
		kind := gcp.Classify(err)
		if kind != gcp.KindTransient {
			return nil, p.failure(cand, outcomeForKind(kind), err.Error())
		}
	}

	detail := fmt.Sprintf("transient errors persisted through %d retries: %v", p.transientRetries, lastErr)
	return nil, p.failure(cand, OutcomeTransientError, detail)
}

// checkAvailability runs the cheap pre-checks before paying for an insert
// call: the accelerator must be offered in the zone, the machine type must
// exist there, and the regional GPU and CPU quotas must have headroom.
func (p *Provisioner) checkAvailability(ctx context.Context, cand Candidate) (ProvisionAttempt, bool) {
	region := naming.Region(cand.Zone)

	ok, err := p.api.HasAccelerator(ctx, cand.Zone, p.spec.GPUType)
	if err != nil {
		return p.precheckError(cand, err), false
	}
	if !ok {
		return p.failure(cand, OutcomeResourceUnavailable,
			fmt.Sprintf("accelerator type %s not offered in %s", p.spec.GPUType, cand.Zone)), false
	}

	gpuQuota, err := p.api.RegionQuota(ctx, region, p.spec.GPUQuotaMetric)
	if err != nil {
		return p.precheckError(cand, err), false
	}
	if gpuQuota == nil {
		return p.failure(cand, OutcomeResourceUnavailable,
			fmt.Sprintf("region %s has no %s quota", region, p.spec.GPUQuotaMetric)), false
	}
	if gpuQuota.Exhausted() {
		return p.failure(cand, OutcomeQuotaExceeded,
			fmt.Sprintf("%s quota exhausted in %s (%.0f/%.0f)", gpuQuota.Metric, region, gpuQuota.Usage, gpuQuota.Limit)), false
	}

	ok, err = p.api.HasMachineType(ctx, cand.Zone, cand.MachineType)
	if err != nil {
		return p.precheckError(cand, err), false
	}
	if !ok {
		return p.failure(cand, OutcomeResourceUnavailable,
			fmt.Sprintf("machine type %s not offered in %s", cand.MachineType, cand.Zone)), false
	}

	cpuQuota, err := p.api.RegionQuota(ctx, region, cpuQuotaMetric)
	if err != nil {
		return p.precheckError(cand, err), false
	}
	if cpuQuota != nil && cpuQuota.Exhausted() {
		return p.failure(cand, OutcomeQuotaExceeded,
			fmt.Sprintf("CPU quota exhausted in %s (%.0f/%.0f)", region, cpuQuota.Usage, cpuQuota.Limit)), false
	}

	return ProvisionAttempt{}, true
}

// provisionOnce performs one create/start/address cycle. A failure after
// the insert may have left an instance behind; it is torn down here so a
// failed attempt never orphans a billed resource.
func (p *Provisioner) provisionOnce(ctx context.Context, cand Candidate, name string) (*AcquiredInstance, error) {
	err := p.api.CreateInstance(ctx, gcp.InstanceSpec{
		Name:        name,
		Zone:        cand.Zone,
		MachineType: cand.MachineType,
		GPUType:     p.spec.GPUType,
		GPUCount:    int32(p.spec.GPUCount),
		SourceImage: p.spec.DiskSourceImage,
		DiskSizeGB:  int64(p.spec.DiskSizeGB),
	})
	if err != nil {
		p.teardown(ctx, cand.Zone, name)
		return nil, err
	}

	if err := p.api.StartInstance(ctx, cand.Zone, name); err != nil {
		p.teardown(ctx, cand.Zone, name)
		return nil, err
	}

	addr, err := p.api.ExternalIP(ctx, cand.Zone, name)
	if err != nil {
		p.teardown(ctx, cand.Zone, name)
		return nil, err
	}

	return &AcquiredInstance{
		ProjectID:       p.spec.ProjectID,
		Zone:            cand.Zone,
		InstanceName:    name,
		ExternalAddress: addr,
	}, nil
}

// teardown best-effort deletes whatever the failed attempt created. A
// not-found error just means the insert never got that far.
func (p *Provisioner) teardown(ctx context.Context, zone, name string) {
	if err := p.api.DeleteInstance(ctx, zone, name); err != nil && !gcp.IsNotFound(err) {
		p.log.Printf("warning: failed to tear down instance %s in %s: %v", name, zone, err)
	}
}

func (p *Provisioner) failure(cand Candidate, outcome Outcome, detail string) ProvisionAttempt {
	p.log.Printf("%s failed for %s: %s", outcome, cand, detail)
	return ProvisionAttempt{Candidate: cand, Outcome: outcome, Detail: detail}
}

// precheckError classifies an error from an availability pre-check. Fatal
// errors (bad auth, bad project) abort the run like any other fatal
// failure; everything else marks the candidate unavailable and the search
// moves on, so a zone that cannot be inspected is simply skipped.
func (p *Provisioner) precheckError(cand Candidate, err error) ProvisionAttempt {
	if gcp.Classify(err) == gcp.KindFatal {
		return p.failure(cand, OutcomeFatalError, err.Error())
	}
	return p.failure(cand, OutcomeResourceUnavailable, fmt.Sprintf("availability check failed: %v", err))
}
