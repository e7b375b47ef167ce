package provisioning

import "github.com/zcox10/gcp-vm-gpu-setup/internal/platform/gcp"

// Outcome classifies how a single provision attempt ended.
type Outcome int

const (
	// OutcomeSuccess means the instance was created, started, and has an
	// external address.
	OutcomeSuccess Outcome = iota
	// OutcomeQuotaExceeded means the project lacks allocation for this
	// candidate. The operator should request more quota.
	OutcomeQuotaExceeded
	// OutcomeResourceUnavailable means the zone is stocked out right now.
	// The whole job is worth retrying later.
	OutcomeResourceUnavailable
	// OutcomeTransientError means API hiccups persisted through the
	// bounded same-candidate retries.
	OutcomeTransientError
	// OutcomeFatalError means the run cannot succeed regardless of
	// candidate.
	OutcomeFatalError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "SUCCESS"
	case OutcomeQuotaExceeded:
		return "QUOTA_EXCEEDED"
	case OutcomeResourceUnavailable:
		return "RESOURCE_UNAVAILABLE"
	case OutcomeTransientError:
		return "TRANSIENT_ERROR"
	case OutcomeFatalError:
		return "FATAL_ERROR"
	default:
		return "UNKNOWN"
	}
}

// outcomeForKind maps the provider error taxonomy onto attempt outcomes.
func outcomeForKind(kind gcp.ErrorKind) Outcome {
	switch kind {
	case gcp.KindQuota:
		return OutcomeQuotaExceeded
	case gcp.KindUnavailable:
		return OutcomeResourceUnavailable
	case gcp.KindTransient:
		return OutcomeTransientError
	default:
		return OutcomeFatalError
	}
}

// ProvisionAttempt records one candidate tried and how it ended. Retained
// for diagnosing the whole search.
type ProvisionAttempt struct {
	Candidate Candidate
	Outcome   Outcome
	Detail    string
}

// AcquiredInstance identifies the single instance a successful run owns.
// It is handed to the reachability and dispatch stages by value; nothing
// mutates it after creation.
type AcquiredInstance struct {
	ProjectID       string
	Zone            string
	InstanceName    string
	ExternalAddress string
}
