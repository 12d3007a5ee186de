package core

import (
	"fmt"

	"github.com/kraukis/substore/internal/ident"
	"github.com/kraukis/substore/internal/models"
	"github.com/kraukis/substore/internal/store"
)

// CreateGenesis installs a self-owned master program blob directly into the
// store. All other blobs are created by running program functions through
// the sandbox; the genesis master is the bootstrap exception that makes the
// first invocation possible. Its identifier is derived with the zero id as
// owner, so independently bootstrapped stores agree on genesis identities.
func CreateGenesis(st *store.Store, name string, prog *models.Program, mut models.Mutability) (models.BlobID, error) {
	contents, err := models.EncodeProgram(prog)
	if err != nil {
		return models.ZeroID, fmt.Errorf("encode genesis program: %w", err)
	}

	id := ident.Derive(models.ZeroID, models.KindProgram, []models.Argument{
		models.RawArg([]byte(name)),
	})

	if err := st.Create(&models.Blob{
		ID:         id,
		Kind:       models.KindProgram,
		Mutability: mut,
		Owner:      id,
		Contents:   contents,
	}); err != nil {
		return models.ZeroID, fmt.Errorf("create genesis %q: %w", name, err)
	}
	return id, nil
}
