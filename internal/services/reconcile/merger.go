// Package reconcile joins search and completion payloads and filters the
// merged orders by completion status.
package reconcile

import (
    "strings"

    "orderdesk/internal/domain"
)

// StatusResolver extracts a completion status from a merged order.
type StatusResolver struct {
    Name    string
    Resolve func(m domain.MergedOrder) string
}

// Resolvers are tried in order; the first non-empty status wins. They only
// run for orders that matched a completion record, so an unmatched order
// always resolves to "unknown".
var Resolvers = []StatusResolver{
    {Name: "completion.status", Resolve: func(m domain.MergedOrder) string {
        return m.Completion.Status
    }},
    {Name: "completion.completionDetails.status", Resolve: func(m domain.MergedOrder) string {
        if d := m.Completion.CompletionDetails; d != nil {
            return d.Status
        }
        return ""
    }},
    {Name: "search.scheduleInformation.status", Resolve: func(m domain.MergedOrder) string {
        if si := m.Search.ScheduleInformation; si != nil {
            return si.Status
        }
        return ""
    }},
}

// ResolveStatus returns the normalized completion status of m.
func ResolveStatus(m domain.MergedOrder) string {
    if m.Completion == nil {
        return domain.StatusUnknown
    }
    for _, r := range Resolvers {
        if s := normalize(r.Resolve(m)); s != "" {
            return s
        }
    }
    return domain.StatusUnknown
}

func normalize(s string) string {
    return strings.ToLower(strings.TrimSpace(s))
}

// CreateCompletionMap indexes completion records by order number. Records
// without an order number are skipped; the first record for a number wins.
func CreateCompletionMap(records []domain.CompletionRecord) map[string]domain.CompletionRecord {
    out := make(map[string]domain.CompletionRecord, len(records))
    for _, r := range records {
        if r.OrderNo == "" {
            continue
        }
        if _, seen := out[r.OrderNo]; seen {
            continue
        }
        out[r.OrderNo] = r
    }
    return out
}

// Merge pairs every search record with its completion record. Search records
// repeating an order number already seen are dropped. Records without an
// order number are kept, unmatched.
func Merge(search []domain.SearchRecord, completions map[string]domain.CompletionRecord) []domain.MergedOrder {
    out := make([]domain.MergedOrder, 0, len(search))
    seen := make(map[string]struct{}, len(search))
    for _, s := range search {
        no := s.OrderNo()
        m := domain.MergedOrder{Search: s}
        if no != "" {
            if _, dup := seen[no]; dup {
                continue
            }
            seen[no] = struct{}{}
            if c, ok := completions[no]; ok {
                m.Completion = &c
            }
        }
        m.CompletionStatus = ResolveStatus(m)
        out = append(out, m)
    }
    return out
}

// ExtractOrderNumbers returns the unique, non-empty order numbers in first-seen order.
func ExtractOrderNumbers(search []domain.SearchRecord) []string {
    seen := make(map[string]struct{}, len(search))
    var out []string
    for _, s := range search {
        no := s.OrderNo()
        if no == "" {
            continue
        }
        if _, dup := seen[no]; dup {
            continue
        }
        seen[no] = struct{}{}
        out = append(out, no)
    }
    return out
}
