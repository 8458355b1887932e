package domain

import (
    "encoding/json"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestParseProviderTime(t *testing.T) {
    want := time.Date(2025, 1, 6, 10, 30, 0, 0, time.UTC)
    tests := []struct {
        in string
        ok bool
    }{
        {"2025-01-06T10:30:00Z", true},
        {"2025-01-06T12:30:00+02:00", true},
        {"2025-01-06T10:30:00", true},
        {"2025-01-06 10:30:00", true},
        {" 2025-01-06 10:30:00Z ", true},
        {"", false},
        {"06/01/2025 10:30", false},
    }
    for _, tt := range tests {
        got, ok := ParseProviderTime(tt.in)
        assert.Equal(t, tt.ok, ok, "ParseProviderTime(%q)", tt.in)
        if tt.ok {
            assert.True(t, want.Equal(got), "ParseProviderTime(%q) = %v", tt.in, got)
        }
    }
}

func TestCompletionRecord_KeepsTimesAsSent(t *testing.T) {
    var rec CompletionRecord
    err := json.Unmarshal([]byte(`{"orderNo":"A","endTime":"2025-01-06 10:30:00"}`), &rec)
    require.NoError(t, err)

    assert.Equal(t, "2025-01-06 10:30:00", rec.EndTime)
    assert.Contains(t, string(rec.Raw), "endTime")
}

func TestNewWorkOrder_EndTime(t *testing.T) {
    now := time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC)
    search := SearchRecord{Data: SearchOrderData{OrderNo: "A"}}

    wo := NewWorkOrder(MergedOrder{Search: search, Completion: &CompletionRecord{OrderNo: "A", EndTime: "2025-01-06 10:30:00"}}, now)
    require.NotNil(t, wo.EndTime)
    assert.Equal(t, time.Date(2025, 1, 6, 10, 30, 0, 0, time.UTC), *wo.EndTime)

    wo = NewWorkOrder(MergedOrder{Search: search, Completion: &CompletionRecord{OrderNo: "A", EndTime: "soon"}}, now)
    assert.Nil(t, wo.EndTime)
    assert.Equal(t, WorkOrderPendingReview, wo.Status)
}
