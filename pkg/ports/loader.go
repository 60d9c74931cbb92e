package ports

import "context"

// ContractLoader retrieves contract sources by ID.
// This allows the storage layer (Loam, Memory) to be decoupled from parsing.
type ContractLoader interface {
	// GetContract returns the raw Micheline JSON of a contract.
	// Returns domain.ErrContractNotFound if the ID is unknown.
	GetContract(ctx context.Context, id string) ([]byte, error)

	// ListContracts returns the IDs of every available contract.
	ListContracts(ctx context.Context) ([]string, error)
}

// Watchable is implemented by loaders that can report changes to their
// backing storage. The channel carries the ID of each changed contract.
type Watchable interface {
	Watch(ctx context.Context) (<-chan string, error)
}
