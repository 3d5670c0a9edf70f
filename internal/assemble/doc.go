// Package assemble concatenates synced scene clips into final outputs and
// aggregates per-scene quality into the job report. Scene order is always
// preserved; split modes only decide where the cuts fall.
package assemble
