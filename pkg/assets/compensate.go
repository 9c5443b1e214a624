package assets

import (
	"context"

	"go.uber.org/zap"
)

// Outcome records one compensation attempt. Failures are kept, not hidden:
// the caller always learns what was attempted and what was skipped.
type Outcome struct {
	PublicID string
	Status   DeleteStatus
	Err      error
}

// Compensator reverses previously-successful uploads after a later failure.
// There is no two-phase commit with the relational store, so exactly-once
// cleanup is unattainable; the contract is at-least-attempted: every item is
// tried independently, nothing aborts the loop, and the caller's own failure
// path is never blocked.
type Compensator struct {
	store Store
	log   *zap.Logger
}

// NewCompensator wires a compensator over a store.
func NewCompensator(store Store, log *zap.Logger) *Compensator {
	return &Compensator{store: store, log: log}
}

// Compensate deletes each descriptor from the store, best-effort. It never
// returns an error; per-item outcomes are logged and returned for callers
// that want to aggregate them.
func (c *Compensator) Compensate(ctx context.Context, descs []Descriptor) []Outcome {
	outcomes := make([]Outcome, 0, len(descs))
	for _, d := range descs {
		status, err := c.store.Delete(ctx, d.PublicID, d.ResourceType)
		out := Outcome{PublicID: d.PublicID, Status: status, Err: err}
		outcomes = append(outcomes, out)
		if err != nil || (status != DeleteOK && status != DeleteNotFound) {
			// Orphaned remote object; preferable to blocking the caller.
			c.log.Warn("compensation left an orphan",
				zap.String("public_id", d.PublicID),
				zap.String("status", string(status)),
				zap.Error(err))
			continue
		}
		c.log.Info("compensated upload", zap.String("public_id", d.PublicID), zap.String("status", string(status)))
	}
	return outcomes
}
