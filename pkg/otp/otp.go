// Package otp implements single-use one-time-code password recovery. A user
// has at most one live code; validating it flips the row exactly once, and a
// successful password change consumes it. Codes have no expiry: a validated
// code stays usable until consumed or superseded.
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"municipio/pkg/apperr"
	"municipio/pkg/mailer"
)

// UserRef is the slice of a user the state machine needs.
type UserRef struct {
	ID       uint
	Username string
	Email    string
}

// Recovery is one OTP row. Handle is the opaque identifier returned to the
// caller; Code only travels by email.
type Recovery struct {
	Handle    string
	UserID    uint
	Code      string
	Validated bool
}

// Repo is the relational contract for recovery rows and the password column.
type Repo interface {
	FindUserByLogin(identifier string) (UserRef, error) // username or email
	FindUserByID(id uint) (UserRef, error)
	DeleteRecoveriesByUser(userID uint) error
	SaveRecovery(rec Recovery) error
	FindRecovery(handle string) (Recovery, error)
	MarkValidated(handle string) error
	FindRecoveryByUser(userID uint) (Recovery, error)
	DeleteRecovery(handle string) error
	UpdatePassword(userID uint, hash []byte) error
}

// PasswordPolicy validates a candidate password; nil means acceptable.
type PasswordPolicy func(password string) error

// StateMachine drives request → validate → change-password.
type StateMachine struct {
	repo     Repo
	notifier mailer.Notifier
	policy   PasswordPolicy
	log      *zap.Logger
}

// New wires a state machine.
func New(repo Repo, notifier mailer.Notifier, policy PasswordPolicy, log *zap.Logger) *StateMachine {
	return &StateMachine{repo: repo, notifier: notifier, policy: policy, log: log}
}

// RequestCode issues a fresh code for the user behind identifier, replacing
// any previous one, and mails it out-of-band. Only the opaque handle is
// returned.
func (m *StateMachine) RequestCode(ctx context.Context, identifier string) (handle string, err error) {
	user, err := m.repo.FindUserByLogin(identifier)
	if err != nil {
		return "", apperr.NotFound("correo inválido")
	}
	if err := m.repo.DeleteRecoveriesByUser(user.ID); err != nil {
		return "", apperr.Persistence(err, "error descartando códigos previos")
	}

	code, err := generateCode()
	if err != nil {
		return "", err
	}
	rec := Recovery{Handle: uuid.NewString(), UserID: user.ID, Code: code}
	if err := m.repo.SaveRecovery(rec); err != nil {
		return "", apperr.Persistence(err, "error guardando código de recuperación")
	}

	if err := m.notifier.Send(user.Email, mailer.RecoverySubject(), mailer.RecoveryOtpMessage(user.Username, code)); err != nil {
		m.log.Warn("recovery code email failed", zap.String("to", user.Email), zap.Error(err))
	}
	m.log.Info("recovery code issued", zap.Uint("user_id", user.ID), zap.String("handle", rec.Handle))
	return rec.Handle, nil
}

// ValidateCode checks code against the row behind handle and flips it to
// validated exactly once. The error distinguishes incorrect, already used
// and unknown handle without revealing which codes are valid. Returns the
// user ID on success.
func (m *StateMachine) ValidateCode(ctx context.Context, handle, code string) (uint, error) {
	rec, err := m.repo.FindRecovery(handle)
	if err != nil {
		return 0, apperr.Client("otp inválido")
	}
	if rec.Validated {
		return 0, apperr.Client("el código de recuperación ya ha sido utilizado")
	}
	if rec.Code != code {
		return 0, apperr.Client("código de recuperación incorrecto")
	}
	if err := m.repo.MarkValidated(handle); err != nil {
		return 0, apperr.Persistence(err, "error validando código")
	}
	return rec.UserID, nil
}

// ChangePassword applies newPassword for userID, requiring a validated
// recovery row which is consumed on success.
func (m *StateMachine) ChangePassword(ctx context.Context, userID uint, newPassword string) error {
	if err := m.policy(newPassword); err != nil {
		return err
	}
	user, err := m.repo.FindUserByID(userID)
	if err != nil {
		return apperr.NotFound("usuario inválido")
	}
	rec, err := m.repo.FindRecoveryByUser(userID)
	if err != nil {
		return apperr.Client("debe solicitar un código de recuperación antes de cambiar la clave")
	}
	if !rec.Validated {
		return apperr.Client("debe validar el código primero")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Persistence(err, "error codificando la clave")
	}
	if err := m.repo.UpdatePassword(userID, hash); err != nil {
		return apperr.Persistence(err, "error guardando la clave")
	}
	if err := m.repo.DeleteRecovery(rec.Handle); err != nil {
		return apperr.Persistence(err, "error consumiendo el código")
	}

	if err := m.notifier.Send(user.Email, mailer.PasswordChangedSubject(), mailer.PasswordChangedMessage(user.Username)); err != nil {
		m.log.Warn("password change email failed", zap.String("to", user.Email), zap.Error(err))
	}
	return nil
}

// generateCode produces a 6-digit zero-padded numeric code from a
// cryptographically secure source.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", apperr.Persistence(err, "error generando código")
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
