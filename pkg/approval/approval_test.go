package approval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"municipio/models"
	"municipio/pkg/apperr"
	"municipio/pkg/assets"
	"municipio/pkg/cascade"
)

type fakeRepo struct {
	business BusinessView
	bizErr   error
	user     UserView
	userErr  error

	setStatus  string
	setReason  string
	enabledIDs []uint
}

func (r *fakeRepo) FindBusiness(id uint) (BusinessView, error) {
	return r.business, r.bizErr
}

func (r *fakeRepo) SetBusinessStatus(id uint, status, rejectionReason string) error {
	r.setStatus = status
	r.setReason = rejectionReason
	return nil
}

func (r *fakeRepo) FindUser(id uint) (UserView, error) {
	return r.user, r.userErr
}

func (r *fakeRepo) EnableUser(id uint) error {
	r.enabledIDs = append(r.enabledIDs, id)
	return nil
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeNotifier struct {
	sent []sentMail
	err  error
}

func (n *fakeNotifier) Send(to, subject, body string) error {
	n.sent = append(n.sent, sentMail{to, subject, body})
	return n.err
}

// cascade fakes shared by the user-rejection tests.

type fakeStore struct{ deletes []string }

func (f *fakeStore) Upload(ctx context.Context, content []byte, folder, filename, contentType string) (assets.Descriptor, error) {
	return assets.Descriptor{}, errors.New("not used")
}

func (f *fakeStore) Delete(ctx context.Context, publicID, resourceType string) (assets.DeleteStatus, error) {
	f.deletes = append(f.deletes, publicID)
	return assets.DeleteOK, nil
}

func (f *fakeStore) Download(ctx context.Context, url string) ([]byte, error) { return nil, nil }

func (f *fakeStore) ResolveURL(publicID, resourceType string) string { return publicID }

type fakeCascadeRepos struct {
	rows         []cascade.AssetRow
	ownerDeleted bool
}

func (r *fakeCascadeRepos) AssetsByOwner(ownerType string, ownerID uint) ([]cascade.AssetRow, error) {
	return r.rows, nil
}

func (r *fakeCascadeRepos) DeleteAssets(ownerType string, ownerID uint) error { return nil }

func (r *fakeCascadeRepos) DeleteDependents(ownerType string, ownerID uint) error { return nil }

func (r *fakeCascadeRepos) DeleteOwner(ownerType string, ownerID uint) error {
	r.ownerDeleted = true
	return nil
}

func (r *fakeCascadeRepos) OwnerExists(ownerType string, ownerID uint) (bool, error) {
	return !r.ownerDeleted, nil
}

type fakeTx struct{ repos *fakeCascadeRepos }

func (t fakeTx) InTx(ctx context.Context, fn func(cascade.Repos) error) error {
	return fn(t.repos)
}

func newWorkflow(repo *fakeRepo, notifier *fakeNotifier, cr *fakeCascadeRepos, st *fakeStore) *Workflow {
	deleter := cascade.New(fakeTx{repos: cr}, st, zap.NewNop())
	return New(repo, deleter, notifier, zap.NewNop())
}

func TestDecideBusinessApprove(t *testing.T) {
	repo := &fakeRepo{business: BusinessView{ID: 1, CommercialName: "Panadería", Status: models.ValidationPending, OwnerName: "Ana", OwnerEmail: "ana@test.ec"}}
	notifier := &fakeNotifier{}
	w := newWorkflow(repo, notifier, &fakeCascadeRepos{}, &fakeStore{})

	require.NoError(t, w.DecideBusiness(context.Background(), 1, true, ""))
	require.Equal(t, models.ValidationValidated, repo.setStatus)
	require.Empty(t, repo.setReason)
	require.Len(t, notifier.sent, 1)
	require.Equal(t, "ana@test.ec", notifier.sent[0].To)
}

func TestDecideBusinessRejectRequiresReason(t *testing.T) {
	repo := &fakeRepo{business: BusinessView{ID: 1, Status: models.ValidationPending}}
	w := newWorkflow(repo, &fakeNotifier{}, &fakeCascadeRepos{}, &fakeStore{})

	err := w.DecideBusiness(context.Background(), 1, false, "   ")
	require.True(t, apperr.IsClient(err))
	require.Empty(t, repo.setStatus, "a rejected decision without reason must not touch the row")
}

func TestDecideBusinessRejectStoresReason(t *testing.T) {
	repo := &fakeRepo{business: BusinessView{ID: 1, Status: models.ValidationPending, OwnerEmail: "ana@test.ec"}}
	notifier := &fakeNotifier{}
	w := newWorkflow(repo, notifier, &fakeCascadeRepos{}, &fakeStore{})

	require.NoError(t, w.DecideBusiness(context.Background(), 1, false, "documentación incompleta"))
	require.Equal(t, models.ValidationRejected, repo.setStatus)
	require.Equal(t, "documentación incompleta", repo.setReason)
	require.Len(t, notifier.sent, 1)
}

func TestDecideBusinessOnlyPending(t *testing.T) {
	for _, status := range []string{models.ValidationValidated, models.ValidationRejected} {
		repo := &fakeRepo{business: BusinessView{ID: 1, Status: status}}
		w := newWorkflow(repo, &fakeNotifier{}, &fakeCascadeRepos{}, &fakeStore{})

		err := w.DecideBusiness(context.Background(), 1, true, "")
		require.True(t, apperr.IsClient(err), "status %s must not be decidable", status)
	}
}

func TestDecideUserApproveEnables(t *testing.T) {
	repo := &fakeRepo{user: UserView{ID: 9, Name: "Luis", Email: "luis@test.ec", Enabled: false}}
	notifier := &fakeNotifier{}
	w := newWorkflow(repo, notifier, &fakeCascadeRepos{}, &fakeStore{})

	require.NoError(t, w.DecideUser(context.Background(), 9, true, ""))
	require.Equal(t, []uint{9}, repo.enabledIDs)
	require.Len(t, notifier.sent, 1)
}

func TestDecideUserAlreadyEnabled(t *testing.T) {
	repo := &fakeRepo{user: UserView{ID: 9, Enabled: true}}
	w := newWorkflow(repo, &fakeNotifier{}, &fakeCascadeRepos{}, &fakeStore{})

	err := w.DecideUser(context.Background(), 9, true, "")
	require.True(t, apperr.IsClient(err))
}

func TestDecideUserRejectCascadesDocumentsThenNotifies(t *testing.T) {
	repo := &fakeRepo{user: UserView{ID: 9, Name: "Luis", Email: "luis@test.ec", Enabled: false}}
	notifier := &fakeNotifier{}
	cr := &fakeCascadeRepos{rows: []cascade.AssetRow{
		{ID: 1, PublicID: "identificaciones/a", ResourceType: assets.ResourceRaw},
		{ID: 2, PublicID: "certificados/b", ResourceType: assets.ResourceRaw},
		{ID: 3, PublicID: "documentos-firmados/c", ResourceType: assets.ResourceRaw},
		{ID: 4, PublicID: "comprobantes-pago/d", ResourceType: assets.ResourceRaw},
	}}
	st := &fakeStore{}
	w := newWorkflow(repo, notifier, cr, st)

	require.NoError(t, w.DecideUser(context.Background(), 9, false, "datos ilegibles"))
	require.Len(t, st.deletes, 4, "every registration document is removed from the store")
	require.True(t, cr.ownerDeleted)
	require.Len(t, notifier.sent, 1, "the owner is notified at the address captured before deletion")
	require.Equal(t, "luis@test.ec", notifier.sent[0].To)
}

func TestDecideUserRejectRequiresReason(t *testing.T) {
	repo := &fakeRepo{user: UserView{ID: 9, Enabled: false}}
	cr := &fakeCascadeRepos{}
	w := newWorkflow(repo, &fakeNotifier{}, cr, &fakeStore{})

	err := w.DecideUser(context.Background(), 9, false, "")
	require.True(t, apperr.IsClient(err))
	require.False(t, cr.ownerDeleted, "nothing may be deleted without a reason")
}

func TestNotificationFailureDoesNotFailDecision(t *testing.T) {
	repo := &fakeRepo{business: BusinessView{ID: 1, Status: models.ValidationPending, OwnerEmail: "ana@test.ec"}}
	notifier := &fakeNotifier{err: errors.New("smtp down")}
	w := newWorkflow(repo, notifier, &fakeCascadeRepos{}, &fakeStore{})

	require.NoError(t, w.DecideBusiness(context.Background(), 1, true, ""))
	require.Equal(t, models.ValidationValidated, repo.setStatus)
}
