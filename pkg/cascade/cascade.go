// Package cascade deletes an owning entity together with every remote and
// relational asset it owns: remote objects first (best-effort, idempotent on
// not_found), then asset rows, then dependent rows, then the entity itself,
// all inside one relational transaction.
package cascade

import (
	"context"

	"go.uber.org/zap"

	"municipio/pkg/apperr"
	"municipio/pkg/assets"
)

// AssetRow is the slice of an asset row the orchestrator needs.
type AssetRow struct {
	ID           uint
	PublicID     string
	ResourceType string
}

// Repos is the relational contract for one cascade. AssetsByOwner must
// return every asset row the entity transitively owns (a business includes
// its promotions' photos); DeleteDependents must remove every non-asset row
// referencing the entity so the final delete satisfies foreign keys.
type Repos interface {
	AssetsByOwner(ownerType string, ownerID uint) ([]AssetRow, error)
	DeleteAssets(ownerType string, ownerID uint) error
	DeleteDependents(ownerType string, ownerID uint) error
	DeleteOwner(ownerType string, ownerID uint) error
	OwnerExists(ownerType string, ownerID uint) (bool, error)
}

// TxRunner executes fn inside one relational transaction; any error rolls
// the whole transaction back.
type TxRunner interface {
	InTx(ctx context.Context, fn func(Repos) error) error
}

// Orchestrator cascades logical deletes across both systems of record.
//
// A relational failure rolls back the transaction but remote deletions
// already performed are not re-created: they are idempotent to retry, so a
// repeat invocation simply re-attempts deletes that mostly report not_found.
type Orchestrator struct {
	tx    TxRunner
	store assets.Store
	log   *zap.Logger

	// HardFail aborts the cascade when a remote delete reports a status
	// other than ok/not_found or a transport error. Default is off: a
	// single orphaned remote object must not block removing the entity
	// from the system of record.
	HardFail bool

	// Verify re-checks after the delete that the owner row is gone.
	Verify bool
}

// New wires an orchestrator.
func New(tx TxRunner, store assets.Store, log *zap.Logger) *Orchestrator {
	return &Orchestrator{tx: tx, store: store, log: log}
}

// Delete cascades the removal of owner (ownerType, ownerID). The remote
// phase runs to completion for every asset before any row is deleted, even
// when individual deletes fail under the default policy. Returned outcomes
// cover every attempted remote delete.
func (o *Orchestrator) Delete(ctx context.Context, ownerType string, ownerID uint) ([]assets.Outcome, error) {
	var outcomes []assets.Outcome

	err := o.tx.InTx(ctx, func(r Repos) error {
		rows, err := r.AssetsByOwner(ownerType, ownerID)
		if err != nil {
			return apperr.Persistence(err, "error cargando activos de %s %d", ownerType, ownerID)
		}

		hardFailure := false
		for _, row := range rows {
			status, derr := o.store.Delete(ctx, row.PublicID, row.ResourceType)
			outcomes = append(outcomes, assets.Outcome{PublicID: row.PublicID, Status: status, Err: derr})

			if derr == nil && (status == assets.DeleteOK || status == assets.DeleteNotFound) {
				continue
			}
			hardFailure = true
			o.log.Warn("remote delete not successful, continuing cascade",
				zap.String("owner_type", ownerType),
				zap.Uint("owner_id", ownerID),
				zap.String("public_id", row.PublicID),
				zap.String("status", string(status)),
				zap.Error(derr))
		}

		if o.HardFail && hardFailure {
			return apperr.Store(nil, "no se pudieron eliminar todos los archivos de %s %d", ownerType, ownerID)
		}

		if err := r.DeleteAssets(ownerType, ownerID); err != nil {
			return apperr.Persistence(err, "error eliminando filas de activos")
		}
		if err := r.DeleteDependents(ownerType, ownerID); err != nil {
			return apperr.Persistence(err, "error eliminando filas dependientes")
		}
		if err := r.DeleteOwner(ownerType, ownerID); err != nil {
			return apperr.Persistence(err, "error eliminando %s %d", ownerType, ownerID)
		}

		if o.Verify {
			exists, err := r.OwnerExists(ownerType, ownerID)
			if err == nil && exists {
				o.log.Warn("owner row still present after delete",
					zap.String("owner_type", ownerType), zap.Uint("owner_id", ownerID))
			}
		}
		return nil
	})
	if err != nil {
		return outcomes, err
	}

	o.log.Info("cascade delete completed",
		zap.String("owner_type", ownerType),
		zap.Uint("owner_id", ownerID),
		zap.Int("assets", len(outcomes)))
	return outcomes, nil
}
