package otp

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var codeRE = regexp.MustCompile(`^\d{6}$`)

type fakeRepo struct {
	users      map[string]UserRef // keyed by identifier
	recoveries map[string]Recovery
	passwords  map[uint][]byte
}

func newRepo() *fakeRepo {
	return &fakeRepo{
		users:      map[string]UserRef{},
		recoveries: map[string]Recovery{},
		passwords:  map[uint][]byte{},
	}
}

func (r *fakeRepo) FindUserByLogin(identifier string) (UserRef, error) {
	u, ok := r.users[identifier]
	if !ok {
		return UserRef{}, errors.New("not found")
	}
	return u, nil
}

func (r *fakeRepo) FindUserByID(id uint) (UserRef, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return UserRef{}, errors.New("not found")
}

func (r *fakeRepo) DeleteRecoveriesByUser(userID uint) error {
	for h, rec := range r.recoveries {
		if rec.UserID == userID {
			delete(r.recoveries, h)
		}
	}
	return nil
}

func (r *fakeRepo) SaveRecovery(rec Recovery) error {
	r.recoveries[rec.Handle] = rec
	return nil
}

func (r *fakeRepo) FindRecovery(handle string) (Recovery, error) {
	rec, ok := r.recoveries[handle]
	if !ok {
		return Recovery{}, errors.New("not found")
	}
	return rec, nil
}

func (r *fakeRepo) MarkValidated(handle string) error {
	rec := r.recoveries[handle]
	rec.Validated = true
	r.recoveries[handle] = rec
	return nil
}

func (r *fakeRepo) FindRecoveryByUser(userID uint) (Recovery, error) {
	for _, rec := range r.recoveries {
		if rec.UserID == userID {
			return rec, nil
		}
	}
	return Recovery{}, errors.New("not found")
}

func (r *fakeRepo) DeleteRecovery(handle string) error {
	delete(r.recoveries, handle)
	return nil
}

func (r *fakeRepo) UpdatePassword(userID uint, hash []byte) error {
	r.passwords[userID] = hash
	return nil
}

type fakeNotifier struct {
	bodies []string
	tos    []string
}

func (n *fakeNotifier) Send(to, subject, body string) error {
	n.tos = append(n.tos, to)
	n.bodies = append(n.bodies, body)
	return nil
}

func noPolicy(string) error { return nil }

func seededMachine() (*StateMachine, *fakeRepo, *fakeNotifier) {
	repo := newRepo()
	repo.users["maria"] = UserRef{ID: 5, Username: "maria", Email: "maria@test.ec"}
	notifier := &fakeNotifier{}
	return New(repo, notifier, noPolicy, zap.NewNop()), repo, notifier
}

func TestRequestCodeIssuesSixDigitCode(t *testing.T) {
	m, repo, notifier := seededMachine()

	handle, err := m.RequestCode(context.Background(), "maria")
	require.NoError(t, err)
	require.NotEmpty(t, handle)

	rec, ok := repo.recoveries[handle]
	require.True(t, ok)
	require.Regexp(t, codeRE, rec.Code)
	require.False(t, rec.Validated)
	require.Equal(t, []string{"maria@test.ec"}, notifier.tos)
	require.Contains(t, notifier.bodies[0], rec.Code, "the code travels by email only")
	require.NotContains(t, handle, rec.Code)
}

func TestRequestCodeReplacesPreviousCode(t *testing.T) {
	m, repo, _ := seededMachine()

	first, err := m.RequestCode(context.Background(), "maria")
	require.NoError(t, err)
	second, err := m.RequestCode(context.Background(), "maria")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	_, ok := repo.recoveries[first]
	require.False(t, ok, "the superseded code must be gone")
	require.Len(t, repo.recoveries, 1)
}

func TestRequestCodeUnknownIdentifier(t *testing.T) {
	m, _, notifier := seededMachine()

	_, err := m.RequestCode(context.Background(), "nadie")
	require.Error(t, err)
	require.Empty(t, notifier.tos)
}

func TestValidateCodeSingleUse(t *testing.T) {
	m, repo, _ := seededMachine()
	handle, err := m.RequestCode(context.Background(), "maria")
	require.NoError(t, err)
	code := repo.recoveries[handle].Code

	userID, err := m.ValidateCode(context.Background(), handle, code)
	require.NoError(t, err)
	require.Equal(t, uint(5), userID)
	require.True(t, repo.recoveries[handle].Validated)

	_, err = m.ValidateCode(context.Background(), handle, code)
	require.Error(t, err, "a validated code cannot be validated again")
	require.Contains(t, err.Error(), "ya ha sido utilizado")
}

func TestValidateCodeWrongCode(t *testing.T) {
	m, repo, _ := seededMachine()
	handle, err := m.RequestCode(context.Background(), "maria")
	require.NoError(t, err)

	_, err = m.ValidateCode(context.Background(), handle, "000000x")
	require.Error(t, err)
	require.False(t, repo.recoveries[handle].Validated, "a wrong attempt leaves the code usable")

	// the right code still works afterwards
	_, err = m.ValidateCode(context.Background(), handle, repo.recoveries[handle].Code)
	require.NoError(t, err)
}

func TestValidateCodeUnknownHandle(t *testing.T) {
	m, _, _ := seededMachine()
	_, err := m.ValidateCode(context.Background(), "no-such-handle", "123456")
	require.Error(t, err)
}

func TestChangePasswordConsumesValidatedCode(t *testing.T) {
	m, repo, notifier := seededMachine()
	handle, err := m.RequestCode(context.Background(), "maria")
	require.NoError(t, err)
	_, err = m.ValidateCode(context.Background(), handle, repo.recoveries[handle].Code)
	require.NoError(t, err)

	require.NoError(t, m.ChangePassword(context.Background(), 5, "NuevaClave#2024"))

	require.NoError(t, bcrypt.CompareHashAndPassword(repo.passwords[5], []byte("NuevaClave#2024")))
	require.Empty(t, repo.recoveries, "a successful change consumes the recovery row")
	require.Len(t, notifier.tos, 2, "code email plus change confirmation")

	err = m.ChangePassword(context.Background(), 5, "OtraClave#2024")
	require.Error(t, err, "a second change needs a fresh code")
}

func TestChangePasswordRequiresValidation(t *testing.T) {
	m, _, _ := seededMachine()
	_, err := m.RequestCode(context.Background(), "maria")
	require.NoError(t, err)

	err = m.ChangePassword(context.Background(), 5, "NuevaClave#2024")
	require.Error(t, err, "an unvalidated code does not authorize a change")
}

func TestChangePasswordAppliesPolicy(t *testing.T) {
	repo := newRepo()
	repo.users["maria"] = UserRef{ID: 5, Username: "maria", Email: "maria@test.ec"}
	policy := func(p string) error {
		if len(p) < 8 {
			return errors.New("demasiado corta")
		}
		return nil
	}
	m := New(repo, &fakeNotifier{}, policy, zap.NewNop())

	err := m.ChangePassword(context.Background(), 5, "corta")
	require.Error(t, err)
	require.Empty(t, repo.passwords)
}
