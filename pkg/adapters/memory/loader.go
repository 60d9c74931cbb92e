package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/conduit/pkg/domain"
)

// Loader implements ports.ContractLoader using an in-memory map.
type Loader struct {
	contracts map[string][]byte
}

// NewLoader creates a Loader from raw Micheline JSON keyed by contract ID.
func NewLoader(data map[string]string) *Loader {
	contracts := make(map[string][]byte, len(data))
	for k, v := range data {
		contracts[k] = []byte(v)
	}
	return &Loader{contracts: contracts}
}

// GetContract returns the raw source of a contract.
func (l *Loader) GetContract(_ context.Context, id string) ([]byte, error) {
	content, ok := l.contracts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrContractNotFound, id)
	}
	return content, nil
}

// ListContracts returns all contract IDs in sorted order.
func (l *Loader) ListContracts(_ context.Context) ([]string, error) {
	keys := make([]string, 0, len(l.contracts))
	for k := range l.contracts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
