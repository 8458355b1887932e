package memory

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "orderdesk/internal/domain"
    "orderdesk/internal/ports"
)

func TestStore_InsertIsFirstWriteWins(t *testing.T) {
    ctx := context.Background()
    s := New()
    now := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

    inserted, err := s.Insert(ctx, domain.WorkOrder{OrderNo: "A", Status: domain.WorkOrderPendingReview, Timestamp: now})
    require.NoError(t, err)
    assert.True(t, inserted)

    s.SetStatus("A", domain.WorkOrderApproved)

    inserted, err = s.Insert(ctx, domain.WorkOrder{OrderNo: "A", Status: domain.WorkOrderPendingReview, Timestamp: now})
    require.NoError(t, err)
    assert.False(t, inserted)

    wo, err := s.GetByOrderNo(ctx, "A")
    require.NoError(t, err)
    assert.Equal(t, domain.WorkOrderApproved, wo.Status)

    _, err = s.GetByOrderNo(ctx, "missing")
    assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestStore_RunsNewestFirst(t *testing.T) {
    ctx := context.Background()
    s := New()

    _, found, err := s.LatestRun(ctx)
    require.NoError(t, err)
    assert.False(t, found)

    for _, id := range []string{"r1", "r2", "r3"} {
        require.NoError(t, s.AppendRun(ctx, domain.ImportRunResult{ID: id, Orders: []domain.MergedOrder{{}}}))
    }

    latest, found, err := s.LatestRun(ctx)
    require.NoError(t, err)
    require.True(t, found)
    assert.Equal(t, "r3", latest.ID)
    assert.Nil(t, latest.Orders)

    runs, err := s.ListRuns(ctx, 2)
    require.NoError(t, err)
    require.Len(t, runs, 2)
    assert.Equal(t, "r3", runs[0].ID)
    assert.Equal(t, "r2", runs[1].ID)
}
