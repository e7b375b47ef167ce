// Package provisioning implements the GPU instance acquisition search.
//
// A run walks an ordered candidate space of (zone, machine type) pairs.
// For each candidate the provisioner attempts to create and start an
// instance, classifying provider failures into quota, stockout, transient
// and fatal buckets. The scheduler drives candidates strictly serially and
// stops at the first success, so at most one instance exists per run.
package provisioning
