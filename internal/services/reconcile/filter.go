package reconcile

import (
    "log/slog"
    "sort"

    "orderdesk/internal/domain"
)

var DefaultStatuses = []string{"success", "failed", "rejected"}

// StatusHistogram counts merged orders per resolved completion status.
type StatusHistogram map[string]int

// Keys returns the statuses in a stable order.
func (h StatusHistogram) Keys() []string {
    keys := make([]string, 0, len(h))
    for k := range h {
        keys = append(keys, k)
    }
    sort.Strings(keys)
    return keys
}

// LogValue lets the histogram be logged as a group.
func (h StatusHistogram) LogValue() slog.Value {
    attrs := make([]slog.Attr, 0, len(h))
    for _, k := range h.Keys() {
        attrs = append(attrs, slog.Int(k, h[k]))
    }
    return slog.GroupValue(attrs...)
}

// FilterByStatus keeps orders whose completion status is in statuses,
// compared case-insensitively. An empty allow-list means DefaultStatuses.
// The histogram covers every input order.
func FilterByStatus(orders []domain.MergedOrder, statuses []string) ([]domain.MergedOrder, StatusHistogram) {
    if len(statuses) == 0 {
        statuses = DefaultStatuses
    }
    allowed := make(map[string]struct{}, len(statuses))
    for _, s := range statuses {
        allowed[normalize(s)] = struct{}{}
    }

    hist := StatusHistogram{}
    kept := make([]domain.MergedOrder, 0, len(orders))
    for _, m := range orders {
        status := normalize(m.CompletionStatus)
        if status == "" {
            status = domain.StatusUnknown
        }
        hist[status]++
        if _, ok := allowed[status]; ok {
            kept = append(kept, m)
        }
    }
    return kept, hist
}
