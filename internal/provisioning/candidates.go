package provisioning

import (
	"context"
	"errors"
	"fmt"
)

// Candidate is a single (zone, machine type) pair considered during the
// search. Ordering across candidates is the search priority.
type Candidate struct {
	Zone        string
	MachineType string
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s/%s", c.Zone, c.MachineType)
}

// ZoneLister discovers the zones of a project.
type ZoneLister interface {
	ListZones(ctx context.Context) ([]string, error)
}

// GenerateCandidates produces the ordered candidate sequence: zones as the
// outer loop, machine types as the inner loop, so every preferred machine
// type is tried in a zone before the search pays for the next zone.
//
// An empty zone list means discover all zones via the lister; the
// provider's listing order is stable for a project, keeping runs
// reproducible. An empty result is a configuration error, never a silent
// empty search.
func GenerateCandidates(ctx context.Context, lister ZoneLister, zones, machineTypes []string) ([]Candidate, error) {
	if len(machineTypes) == 0 {
		return nil, errors.New("no machine types configured")
	}

	if len(zones) == 0 {
		discovered, err := lister.ListZones(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to discover zones: %w", err)
		}
		zones = discovered
	}
	if len(zones) == 0 {
		return nil, errors.New("no zones to search")
	}

	candidates := make([]Candidate, 0, len(zones)*len(machineTypes))
	for _, zone := range zones {
		for _, mt := range machineTypes {
			candidates = append(candidates, Candidate{Zone: zone, MachineType: mt})
		}
	}
	return candidates, nil
}
