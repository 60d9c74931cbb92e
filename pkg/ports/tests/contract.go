package tests

import (
	"context"
	"testing"

	"github.com/aretw0/conduit/pkg/domain"
	"github.com/aretw0/conduit/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ContractLoaderContractTest is a reusable suite that verifies an adapter
// complies with ports.ContractLoader. Every value in setup must be
// returned byte for byte under its key.
func ContractLoaderContractTest(t *testing.T, loader ports.ContractLoader, setup map[string][]byte) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetContract_Success", func(t *testing.T) {
		for id, want := range setup {
			got, err := loader.GetContract(ctx, id)
			require.NoError(t, err, id)
			assert.JSONEq(t, string(want), string(got), id)
		}
	})

	t.Run("GetContract_NotFound", func(t *testing.T) {
		_, err := loader.GetContract(ctx, "non-existent-contract")
		assert.ErrorIs(t, err, domain.ErrContractNotFound)
	})

	t.Run("ListContracts", func(t *testing.T) {
		ids, err := loader.ListContracts(ctx)
		require.NoError(t, err)
		assert.Len(t, ids, len(setup))
		for id := range setup {
			assert.Contains(t, ids, id)
		}
	})
}
