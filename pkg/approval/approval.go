// Package approval implements the admin state machine over
// Business.validationStatus and AppUser.enabled. Only PENDING businesses and
// disabled users can be decided; rejecting either requires a reason.
// Rejecting a user is terminal: their document assets are cascade-deleted
// and the row is removed, so the person must re-register.
package approval

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"municipio/models"
	"municipio/pkg/apperr"
	"municipio/pkg/cascade"
	"municipio/pkg/mailer"
)

// BusinessView is the slice of a business the workflow needs.
type BusinessView struct {
	ID             uint
	CommercialName string
	Status         string
	OwnerName      string
	OwnerEmail     string
}

// UserView is the slice of a user the workflow needs.
type UserView struct {
	ID      uint
	Name    string
	Email   string
	Enabled bool
}

// Repo is the relational contract for approvals.
type Repo interface {
	FindBusiness(id uint) (BusinessView, error)
	SetBusinessStatus(id uint, status, rejectionReason string) error
	FindUser(id uint) (UserView, error)
	EnableUser(id uint) error
}

// Workflow drives approval decisions. User rejection chains into the cascade
// orchestrator so the four mandatory documents disappear with the row.
type Workflow struct {
	repo     Repo
	deleter  *cascade.Orchestrator
	notifier mailer.Notifier
	log      *zap.Logger
}

// New wires a workflow.
func New(repo Repo, deleter *cascade.Orchestrator, notifier mailer.Notifier, log *zap.Logger) *Workflow {
	return &Workflow{repo: repo, deleter: deleter, notifier: notifier, log: log}
}

// DecideBusiness approves or rejects a PENDING business. Approval clears any
// previous rejection reason; rejection requires a non-blank one. No assets
// are touched either way.
func (w *Workflow) DecideBusiness(ctx context.Context, businessID uint, approve bool, rejectionReason string) error {
	biz, err := w.repo.FindBusiness(businessID)
	if err != nil {
		return err
	}
	if biz.Status != models.ValidationPending {
		return apperr.Client("solo se pueden procesar negocios pendientes")
	}

	if approve {
		if err := w.repo.SetBusinessStatus(businessID, models.ValidationValidated, ""); err != nil {
			return apperr.Persistence(err, "error aprobando negocio %d", businessID)
		}
		w.notify(biz.OwnerEmail,
			mailer.StatusSubject("Negocio Aprobado"),
			mailer.ApprovalMessage(biz.OwnerName))
		return nil
	}

	if strings.TrimSpace(rejectionReason) == "" {
		return apperr.Client("la razón de rechazo es obligatoria")
	}
	if err := w.repo.SetBusinessStatus(businessID, models.ValidationRejected, rejectionReason); err != nil {
		return apperr.Persistence(err, "error rechazando negocio %d", businessID)
	}
	w.notify(biz.OwnerEmail,
		mailer.StatusSubject("Negocio Rechazado"),
		mailer.RejectionMessage(biz.OwnerName, rejectionReason))
	return nil
}

// DecideUser approves or rejects a pending (disabled) user. Rejection
// deletes the user's document assets and the row itself; the notification
// goes to the address captured before the row disappears.
func (w *Workflow) DecideUser(ctx context.Context, userID uint, approve bool, rejectionReason string) error {
	user, err := w.repo.FindUser(userID)
	if err != nil {
		return err
	}
	if user.Enabled {
		return apperr.Client("solo se pueden procesar usuarios pendientes")
	}

	if approve {
		if err := w.repo.EnableUser(userID); err != nil {
			return apperr.Persistence(err, "error aprobando usuario %d", userID)
		}
		w.notify(user.Email,
			mailer.StatusSubject("Aprobada"),
			mailer.ApprovalMessage(user.Name))
		return nil
	}

	if strings.TrimSpace(rejectionReason) == "" {
		return apperr.Client("la razón de rechazo es obligatoria")
	}

	email, name := user.Email, user.Name
	if _, err := w.deleter.Delete(ctx, models.OwnerUser, userID); err != nil {
		return err
	}
	w.notify(email,
		mailer.StatusSubject("Rechazada"),
		mailer.RejectionMessage(name, rejectionReason))
	return nil
}

func (w *Workflow) notify(to, subject, body string) {
	if err := w.notifier.Send(to, subject, body); err != nil {
		w.log.Warn("notification failed", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
	}
}
