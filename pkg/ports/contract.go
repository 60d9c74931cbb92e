package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/conduit/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport(id string) *domain.Report {
	return &domain.Report{
		ID:        id,
		Contract:  "sample",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Nodes:     5,
		Steps:     4,
		Terminals: []domain.PathResult{{Path: []int{1, 3, 0}, Node: 0, Top: "({}, storage:int)"}},
		Failures:  []domain.PathResult{{Path: []int{1, 4}, Node: 4, Top: `FAIL("no tip")`}},
		Visits:    map[int]int{1: 1, 2: 2, 3: 1, 4: 1, 0: 1},
	}
}

// RunReportStoreContract runs a suite of tests to verify that a ReportStore
// implementation adheres to the interface contract.
func RunReportStoreContract(t *testing.T, store ReportStore) {
	ctx := context.Background()
	id := "contract-test-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		report := sampleReport(id)
		require.NoError(t, store.Save(ctx, report), "Save should not return error")

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, report.Contract, loaded.Contract)
		assert.Equal(t, report.Terminals, loaded.Terminals)
		assert.Equal(t, report.Failures, loaded.Failures)
		assert.Equal(t, report.Visits, loaded.Visits)
		assert.True(t, report.CreatedAt.Equal(loaded.CreatedAt))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+id)
		assert.ErrorIs(t, err, domain.ErrReportNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sampleReport(id)))
		require.NoError(t, store.Delete(ctx, id), "Delete should not return error")

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrReportNotFound, "Load after Delete should return ErrReportNotFound")
		assert.NoError(t, store.Delete(ctx, id), "deleting twice is harmless")
	})

	t.Run("List", func(t *testing.T) {
		id1 := id + "-1"
		id2 := id + "-2"
		_ = store.Save(ctx, sampleReport(id1))
		_ = store.Save(ctx, sampleReport(id2))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
