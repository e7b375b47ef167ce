package provisioning

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Record is the run's single line of machine-parseable output. Field names
// are part of the contract with downstream tooling; do not rename them.
type Record struct {
	ProjectID    string `json:"GCP_PROJECT_ID"`
	Zone         string `json:"ZONE"`
	InstanceName string `json:"INSTANCE_NAME"`
	ExternalIP   string `json:"EXTERNAL_IP"`
}

// WriteRecord serializes the acquired instance as one JSON line on w.
// Callers pipe the final stdout line to downstream tooling, so this must
// be the only thing the run ever writes to w.
func WriteRecord(w io.Writer, inst AcquiredInstance) error {
	rec := Record{
		ProjectID:    inst.ProjectID,
		Zone:         inst.Zone,
		InstanceName: inst.InstanceName,
		ExternalIP:   inst.ExternalAddress,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal result record: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// FormatAttempts renders every attempt grouped by outcome, so an operator
// can tell "request more quota" apart from "retry the whole job later"
// without reading raw API errors.
func FormatAttempts(attempts []ProvisionAttempt) string {
	groups := make(map[Outcome][]ProvisionAttempt)
	var order []Outcome
	for _, a := range attempts {
		if _, seen := groups[a.Outcome]; !seen {
			order = append(order, a.Outcome)
		}
		groups[a.Outcome] = append(groups[a.Outcome], a)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d candidates attempted:\n", len(attempts))
	for _, outcome := range order {
		fmt.Fprintf(&b, "  %s:\n", outcome)
		for _, a := range groups[outcome] {
			if a.Detail != "" {
				fmt.Fprintf(&b, "    %s: %s\n", a.Candidate, a.Detail)
			} else {
				fmt.Fprintf(&b, "    %s\n", a.Candidate)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
