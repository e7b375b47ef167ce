package naming

import (
	"fmt"
	"strings"
	"time"
)

// timestampLayout matches the suffix format used by prior tooling so that
// instances created by either remain sortable together.
const timestampLayout = "2006-01-02-15-04-05"

// Instance returns the name for a VM instance created at time t.
func Instance(prefix string, t time.Time) string {
	return fmt.Sprintf("%s-%s", prefix, t.UTC().Format(timestampLayout))
}

// Region derives the region name from a zone name, e.g.
// "us-central1-a" -> "us-central1".
func Region(zone string) string {
	i := strings.LastIndex(zone, "-")
	if i < 0 {
		return zone
	}
	return zone[:i]
}
