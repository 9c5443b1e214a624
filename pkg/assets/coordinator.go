package assets

import (
	"context"

	"go.uber.org/zap"

	"municipio/pkg/apperr"
)

// Input is one file destined for an owning entity. Folder is the
// deterministic destination path, "<domain>/<subfolder>".
type Input struct {
	Filename    string
	ContentType string
	Content     []byte
	Folder      string
	Role        string
	Required    bool
}

// Coordinator uploads batches of files for one owning entity. All uploads of
// a logical operation happen before any relational write; if one upload
// fails, everything uploaded so far in the same call is compensated before
// the error propagates, so no partially-uploaded set is ever left referenced
// by nothing.
type Coordinator struct {
	store       Store
	compensator *Compensator
	log         *zap.Logger
}

// NewCoordinator wires a coordinator over a store.
func NewCoordinator(store Store, log *zap.Logger) *Coordinator {
	return &Coordinator{
		store:       store,
		compensator: NewCompensator(store, log),
		log:         log,
	}
}

// UploadAll uploads every input and returns descriptors in input order.
// Empty optional inputs are skipped silently; a required input that is
// absent or empty fails fast before any upload starts, with zero side
// effects. Oversized images are downscaled before upload.
func (c *Coordinator) UploadAll(ctx context.Context, inputs []Input) ([]Descriptor, error) {
	for _, in := range inputs {
		if in.Required && len(in.Content) == 0 {
			return nil, apperr.Client("archivo requerido ausente o vacío: %s", in.Role)
		}
	}

	var uploaded []Descriptor
	for _, in := range inputs {
		if len(in.Content) == 0 {
			continue
		}
		content := NormalizeImage(in.Content, in.ContentType)
		desc, err := c.store.Upload(ctx, content, in.Folder, in.Filename, in.ContentType)
		if err != nil {
			c.log.Warn("upload failed, compensating batch",
				zap.String("folder", in.Folder),
				zap.String("role", in.Role),
				zap.Int("uploaded_so_far", len(uploaded)),
				zap.Error(err))
			c.compensator.Compensate(ctx, uploaded)
			return nil, apperr.Store(err, "error al subir el archivo %s", in.Role)
		}
		desc.Role = in.Role
		uploaded = append(uploaded, desc)
	}
	return uploaded, nil
}

// UploadOne is UploadAll for a single required file.
func (c *Coordinator) UploadOne(ctx context.Context, in Input) (Descriptor, error) {
	in.Required = true
	descs, err := c.UploadAll(ctx, []Input{in})
	if err != nil {
		return Descriptor{}, err
	}
	return descs[0], nil
}

// Compensate exposes the coordinator's compensator for callers reversing
// uploads after their own relational write failed.
func (c *Coordinator) Compensate(ctx context.Context, descs []Descriptor) []Outcome {
	return c.compensator.Compensate(ctx, descs)
}
