package cascade

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"municipio/pkg/assets"
)

// fakeStore serves cascades with scripted per-object delete results.
type fakeStore struct {
	deletes      []string
	deleteStatus map[string]assets.DeleteStatus
	deleteErr    map[string]error
}

func newStore() *fakeStore {
	return &fakeStore{
		deleteStatus: map[string]assets.DeleteStatus{},
		deleteErr:    map[string]error{},
	}
}

func (f *fakeStore) Upload(ctx context.Context, content []byte, folder, filename, contentType string) (assets.Descriptor, error) {
	return assets.Descriptor{}, errors.New("not used")
}

func (f *fakeStore) Delete(ctx context.Context, publicID, resourceType string) (assets.DeleteStatus, error) {
	f.deletes = append(f.deletes, publicID)
	if err, ok := f.deleteErr[publicID]; ok {
		return assets.DeleteOther, err
	}
	if st, ok := f.deleteStatus[publicID]; ok {
		return st, nil
	}
	return assets.DeleteOK, nil
}

func (f *fakeStore) Download(ctx context.Context, url string) ([]byte, error) { return nil, nil }

func (f *fakeStore) ResolveURL(publicID, resourceType string) string { return publicID }

// fakeRepos logs every relational call so ordering can be asserted.
type fakeRepos struct {
	rows    []AssetRow
	calls   []string
	failOn  string
	deleted bool
}

func (r *fakeRepos) AssetsByOwner(ownerType string, ownerID uint) ([]AssetRow, error) {
	r.calls = append(r.calls, "load")
	return r.rows, nil
}

func (r *fakeRepos) step(name string) error {
	r.calls = append(r.calls, name)
	if r.failOn == name {
		return errors.New(name + " failed")
	}
	return nil
}

func (r *fakeRepos) DeleteAssets(ownerType string, ownerID uint) error {
	return r.step("delete_assets")
}

func (r *fakeRepos) DeleteDependents(ownerType string, ownerID uint) error {
	return r.step("delete_dependents")
}

func (r *fakeRepos) DeleteOwner(ownerType string, ownerID uint) error {
	if err := r.step("delete_owner"); err != nil {
		return err
	}
	r.deleted = true
	return nil
}

func (r *fakeRepos) OwnerExists(ownerType string, ownerID uint) (bool, error) {
	r.calls = append(r.calls, "exists")
	return !r.deleted, nil
}

// fakeTx runs fn directly and records whether the transaction rolled back.
type fakeTx struct {
	repos      *fakeRepos
	rolledBack bool
}

func (t *fakeTx) InTx(ctx context.Context, fn func(Repos) error) error {
	if err := fn(t.repos); err != nil {
		t.rolledBack = true
		return err
	}
	return nil
}

func twoAssets() []AssetRow {
	return []AssetRow{
		{ID: 1, PublicID: "business/logos/a", ResourceType: assets.ResourceImage},
		{ID: 2, PublicID: "business/carrousel/b", ResourceType: assets.ResourceImage},
	}
}

func TestDeleteRemotePhaseRunsBeforeRowDeletes(t *testing.T) {
	repos := &fakeRepos{rows: twoAssets()}
	tx := &fakeTx{repos: repos}
	store := newStore()
	orch := New(tx, store, zap.NewNop())

	outcomes, err := orch.Delete(context.Background(), "business", 7)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	require.Equal(t, []string{"business/logos/a", "business/carrousel/b"}, store.deletes)
	require.Equal(t, []string{"load", "delete_assets", "delete_dependents", "delete_owner"}, repos.calls)
	require.True(t, repos.deleted)
}

func TestDeleteContinuesPastRemoteFailureByDefault(t *testing.T) {
	repos := &fakeRepos{rows: twoAssets()}
	tx := &fakeTx{repos: repos}
	store := newStore()
	store.deleteErr["business/logos/a"] = errors.New("store down")
	orch := New(tx, store, zap.NewNop())

	outcomes, err := orch.Delete(context.Background(), "business", 7)
	require.NoError(t, err, "an orphaned remote object must not block the cascade")
	require.Len(t, outcomes, 2)
	require.Error(t, outcomes[0].Err)
	require.True(t, repos.deleted)
	require.False(t, tx.rolledBack)
}

func TestDeleteHardFailAbortsBeforeRowDeletes(t *testing.T) {
	repos := &fakeRepos{rows: twoAssets()}
	tx := &fakeTx{repos: repos}
	store := newStore()
	store.deleteErr["business/carrousel/b"] = errors.New("store down")
	orch := New(tx, store, zap.NewNop())
	orch.HardFail = true

	outcomes, err := orch.Delete(context.Background(), "business", 7)
	require.Error(t, err)
	require.Len(t, outcomes, 2, "every remote delete is still attempted before aborting")
	require.Equal(t, []string{"load"}, repos.calls, "no row may be deleted after a hard failure")
	require.True(t, tx.rolledBack)
}

func TestDeleteTreatsNotFoundAsSuccess(t *testing.T) {
	// a rerun after a rolled-back first attempt finds the remote objects
	// already gone
	repos := &fakeRepos{rows: twoAssets()}
	tx := &fakeTx{repos: repos}
	store := newStore()
	store.deleteStatus["business/logos/a"] = assets.DeleteNotFound
	store.deleteStatus["business/carrousel/b"] = assets.DeleteNotFound
	orch := New(tx, store, zap.NewNop())
	orch.HardFail = true

	_, err := orch.Delete(context.Background(), "business", 7)
	require.NoError(t, err)
	require.True(t, repos.deleted)
}

func TestDeleteRelationalFailureRollsBack(t *testing.T) {
	repos := &fakeRepos{rows: twoAssets(), failOn: "delete_owner"}
	tx := &fakeTx{repos: repos}
	store := newStore()
	orch := New(tx, store, zap.NewNop())

	outcomes, err := orch.Delete(context.Background(), "business", 7)
	require.Error(t, err)
	require.True(t, tx.rolledBack)
	require.Len(t, outcomes, 2, "outcomes report the remote deletes that already happened")
}

func TestDeleteVerifyChecksOwnerGone(t *testing.T) {
	repos := &fakeRepos{rows: nil}
	tx := &fakeTx{repos: repos}
	orch := New(tx, newStore(), zap.NewNop())
	orch.Verify = true

	_, err := orch.Delete(context.Background(), "promo", 3)
	require.NoError(t, err)
	require.Equal(t, "exists", repos.calls[len(repos.calls)-1])
}
