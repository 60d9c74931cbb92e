package loam

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/conduit/pkg/domain"
	"github.com/aretw0/loam"
)

// Loader adapts a Loam repository to ports.ContractLoader.
type Loader struct {
	Repo *loam.TypedRepository[ContractMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[ContractMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initialises a read-only Loam repository at dir and wraps it.
func Open(dir string) (*Loader, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	repo, err := loam.Init(abs, loam.WithStrict(true), loam.WithReadOnly(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open contract repository: %w", err)
	}
	return New(loam.NewTypedRepository[ContractMetadata](repo)), nil
}

// GetContract returns the contract as a Micheline envelope,
// {"name": ..., "script": [...]}, ready for the parser.
func (l *Loader) GetContract(ctx context.Context, id string) ([]byte, error) {
	meta, err := l.Metadata(ctx, id)
	if err != nil {
		return nil, err
	}
	if meta.Script == nil {
		return nil, fmt.Errorf("contract %s has no script", id)
	}

	envelope := map[string]any{
		"name":   meta.Name,
		"script": normalize(meta.Script),
	}
	if meta.Name == "" {
		envelope["name"] = id
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal contract %s: %w", id, err)
	}
	return data, nil
}

// Metadata loads the document behind id with its ID normalised.
func (l *Loader) Metadata(ctx context.Context, id string) (ContractMetadata, error) {
	doc, err := l.Repo.Get(ctx, id)
	if err != nil {
		if ids, lerr := l.ListContracts(ctx); lerr == nil && !slices.Contains(ids, id) {
			return ContractMetadata{}, fmt.Errorf("%w: %s", domain.ErrContractNotFound, id)
		}
		return ContractMetadata{}, fmt.Errorf("loam get failed for %s: %w", id, err)
	}

	meta := doc.Data
	if meta.ID == "" {
		meta.ID = doc.ID
	}
	meta.ID = trimExtension(meta.ID)
	if meta.Description == "" {
		meta.Description = strings.TrimSpace(doc.Content)
	}
	return meta, nil
}

// ListContracts lists all contracts in the repository.
func (l *Loader) ListContracts(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// Watch implements ports.Watchable. Events are debounced by Loam.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// normalize turns YAML-decoded Micheline into its JSON form: map keys become
// strings and bare numbers under "int" become decimal strings.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, sub := range val {
			out[k] = normalizeEntry(k, sub)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, sub := range val {
			key := fmt.Sprintf("%v", k)
			out[key] = normalizeEntry(key, sub)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, sub := range val {
			out[i] = normalize(sub)
		}
		return out
	default:
		return val
	}
}

func normalizeEntry(key string, v any) any {
	if key == "int" {
		if _, isString := v.(string); !isString {
			return fmt.Sprintf("%v", v)
		}
	}
	return normalize(v)
}
