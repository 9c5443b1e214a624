package assets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore records every call so tests can assert ordering and rollback.
type fakeStore struct {
	uploads      []string // public IDs in upload order
	deletes      []string // public IDs in delete order
	failUpload   string   // filename whose upload fails
	deleteStatus map[string]DeleteStatus
	deleteErr    map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		deleteStatus: map[string]DeleteStatus{},
		deleteErr:    map[string]error{},
	}
}

func (f *fakeStore) Upload(ctx context.Context, content []byte, folder, filename, contentType string) (Descriptor, error) {
	if filename == f.failUpload {
		return Descriptor{}, errors.New("upload refused")
	}
	publicID := folder + "/" + filename
	f.uploads = append(f.uploads, publicID)
	return Descriptor{
		URL:          "https://cdn.example/" + publicID,
		PublicID:     publicID,
		ResourceType: DetectResourceType(contentType, filename),
	}, nil
}

func (f *fakeStore) Delete(ctx context.Context, publicID, resourceType string) (DeleteStatus, error) {
	f.deletes = append(f.deletes, publicID)
	if err, ok := f.deleteErr[publicID]; ok {
		return DeleteOther, err
	}
	if st, ok := f.deleteStatus[publicID]; ok {
		return st, nil
	}
	return DeleteOK, nil
}

func (f *fakeStore) Download(ctx context.Context, url string) ([]byte, error) {
	return []byte("content"), nil
}

func (f *fakeStore) ResolveURL(publicID, resourceType string) string {
	return "https://cdn.example/" + publicID
}

func testInputs() []Input {
	return []Input{
		{Filename: "cedula.pdf", ContentType: "application/pdf", Content: []byte("a"), Folder: "identificaciones", Role: "identity-doc", Required: true},
		{Filename: "cert.pdf", ContentType: "application/pdf", Content: []byte("b"), Folder: "certificados", Role: "certificate", Required: true},
		{Filename: "firmado.pdf", ContentType: "application/pdf", Content: []byte("c"), Folder: "documentos-firmados", Role: "signed-doc", Required: true},
	}
}

func TestUploadAllOrderedDescriptors(t *testing.T) {
	fs := newFakeStore()
	coord := NewCoordinator(fs, zap.NewNop())

	descs, err := coord.UploadAll(context.Background(), testInputs())
	require.NoError(t, err)
	require.Len(t, descs, 3)
	require.Equal(t, "identificaciones/cedula.pdf", descs[0].PublicID)
	require.Equal(t, "certificados/cert.pdf", descs[1].PublicID)
	require.Equal(t, "documentos-firmados/firmado.pdf", descs[2].PublicID)
	require.Equal(t, "identity-doc", descs[0].Role)
	require.Equal(t, ResourceRaw, descs[0].ResourceType)
	require.Empty(t, fs.deletes)
}

func TestUploadAllRequiredMissingFailsBeforeAnyUpload(t *testing.T) {
	fs := newFakeStore()
	coord := NewCoordinator(fs, zap.NewNop())

	inputs := testInputs()
	inputs[2].Content = nil // third required file absent

	_, err := coord.UploadAll(context.Background(), inputs)
	require.Error(t, err)
	require.Empty(t, fs.uploads, "no upload may start when a required file is missing")
	require.Empty(t, fs.deletes)
}

func TestUploadAllSkipsEmptyOptional(t *testing.T) {
	fs := newFakeStore()
	coord := NewCoordinator(fs, zap.NewNop())

	inputs := testInputs()
	inputs = append(inputs, Input{Filename: "foto.jpg", Folder: "promociones", Role: "promotion-photo"})

	descs, err := coord.UploadAll(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, descs, 3)
	require.Len(t, fs.uploads, 3)
}

func TestUploadAllCompensatesOnMidBatchFailure(t *testing.T) {
	fs := newFakeStore()
	fs.failUpload = "firmado.pdf"
	coord := NewCoordinator(fs, zap.NewNop())

	_, err := coord.UploadAll(context.Background(), testInputs())
	require.Error(t, err)
	require.Equal(t, []string{"identificaciones/cedula.pdf", "certificados/cert.pdf"}, fs.uploads)
	require.ElementsMatch(t, []string{"identificaciones/cedula.pdf", "certificados/cert.pdf"}, fs.deletes,
		"every upload preceding the failure must be compensated")
}

func TestUploadAllCompensationFailureDoesNotMaskUploadError(t *testing.T) {
	fs := newFakeStore()
	fs.failUpload = "firmado.pdf"
	fs.deleteErr["identificaciones/cedula.pdf"] = errors.New("store down")
	coord := NewCoordinator(fs, zap.NewNop())

	_, err := coord.UploadAll(context.Background(), testInputs())
	require.Error(t, err)
	require.Len(t, fs.deletes, 2, "compensation keeps going past a failed delete")
}

func TestUploadOne(t *testing.T) {
	fs := newFakeStore()
	coord := NewCoordinator(fs, zap.NewNop())

	desc, err := coord.UploadOne(context.Background(), Input{
		Filename: "logo.png", ContentType: "image/png", Content: []byte("x"),
		Folder: "business/logos", Role: "logo",
	})
	require.NoError(t, err)
	require.Equal(t, "business/logos/logo.png", desc.PublicID)

	_, err = coord.UploadOne(context.Background(), Input{Folder: "business/logos", Role: "logo"})
	require.Error(t, err, "UploadOne treats its input as required")
}
