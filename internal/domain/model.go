package domain

import (
    "encoding/json"
    "strings"
    "time"
)

// Provider payloads keep their raw bytes so the persisted row can carry the
// exact response for audit.

type Location struct {
    Name    string `json:"name,omitempty"`
    Address string `json:"address,omitempty"`
}

type ScheduleInformation struct {
    DriverName   string `json:"driverName,omitempty"`
    DriverSerial string `json:"driverSerial,omitempty"`
    Status       string `json:"status,omitempty"`
}

type SearchOrderData struct {
    OrderNo  string   `json:"orderNo"`
    Date     string   `json:"date,omitempty"`
    Location Location `json:"location"`
}

// SearchRecord is one order as returned by the provider's search API.
type SearchRecord struct {
    ID                  string               `json:"id"`
    Data                SearchOrderData      `json:"data"`
    ScheduleInformation *ScheduleInformation `json:"scheduleInformation,omitempty"`

    Raw json.RawMessage `json:"-"`
}

func (r *SearchRecord) UnmarshalJSON(b []byte) error {
    type plain SearchRecord
    var p plain
    if err := json.Unmarshal(b, &p); err != nil {
        return err
    }
    *r = SearchRecord(p)
    r.Raw = append(json.RawMessage(nil), b...)
    return nil
}

func (r SearchRecord) OrderNo() string { return r.Data.OrderNo }

type CompletionForm struct {
    Images    []string `json:"images,omitempty"`
    Signature string   `json:"signature,omitempty"`
    Note      string   `json:"note,omitempty"`
}

type CompletionDetails struct {
    Status string `json:"status,omitempty"`
}

// CompletionRecord is the proof-of-service payload for one order number.
// Times are kept as sent; the provider does not always use RFC 3339.
type CompletionRecord struct {
    OrderNo           string             `json:"orderNo"`
    Status            string             `json:"status,omitempty"`
    Form              CompletionForm     `json:"form"`
    StartTime         string             `json:"startTime,omitempty"`
    EndTime           string             `json:"endTime,omitempty"`
    TrackingURL       string             `json:"trackingUrl,omitempty"`
    CompletionDetails *CompletionDetails `json:"completionDetails,omitempty"`

    Raw json.RawMessage `json:"-"`
}

func (r *CompletionRecord) UnmarshalJSON(b []byte) error {
    type plain CompletionRecord
    var p plain
    if err := json.Unmarshal(b, &p); err != nil {
        return err
    }
    *r = CompletionRecord(p)
    r.Raw = append(json.RawMessage(nil), b...)
    return nil
}

var providerTimeLayouts = []string{
    time.RFC3339Nano,
    "2006-01-02T15:04:05",
    "2006-01-02 15:04:05Z07:00",
    "2006-01-02 15:04:05",
}

// ParseProviderTime parses a provider timestamp. Zone-less values are read as UTC.
func ParseProviderTime(s string) (time.Time, bool) {
    s = strings.TrimSpace(s)
    if s == "" {
        return time.Time{}, false
    }
    for _, layout := range providerTimeLayouts {
        if t, err := time.Parse(layout, s); err == nil {
            return t.UTC(), true
        }
    }
    return time.Time{}, false
}

const StatusUnknown = "unknown"

// MergedOrder joins a search record with its completion record, if any.
type MergedOrder struct {
    Search           SearchRecord      `json:"search"`
    Completion       *CompletionRecord `json:"completion"`
    CompletionStatus string            `json:"completionStatus"`
}

func (m MergedOrder) OrderNo() string { return m.Search.OrderNo() }

// WorkOrderStatus is the review workflow state, set by staff only.
type WorkOrderStatus string

const (
    WorkOrderPendingReview   WorkOrderStatus = "pending_review"
    WorkOrderApproved        WorkOrderStatus = "approved"
    WorkOrderFlagged         WorkOrderStatus = "flagged"
    WorkOrderFlaggedFollowup WorkOrderStatus = "flagged_followup"
    WorkOrderResolved        WorkOrderStatus = "resolved"
    WorkOrderRejected        WorkOrderStatus = "rejected"
)

type Transition struct {
    By *string    `json:"by,omitempty"`
    At *time.Time `json:"at,omitempty"`
}

type WorkOrder struct {
    ID                 string          `json:"id"`
    OrderNo            string          `json:"orderNo"`
    Status             WorkOrderStatus `json:"status"`
    SearchResponse     json.RawMessage `json:"searchResponse,omitempty"`
    CompletionResponse json.RawMessage `json:"completionResponse,omitempty"`
    DriverName         *string         `json:"driverName,omitempty"`
    LocationName       *string         `json:"locationName,omitempty"`
    EndTime            *time.Time      `json:"endTime,omitempty"`
    QCNotes            *string         `json:"qcNotes,omitempty"`
    ResolutionNotes    *string         `json:"resolutionNotes,omitempty"`
    Timestamp          time.Time       `json:"timestamp"`
    FetchedAt          time.Time       `json:"fetchedAt"`
    CreatedAt          time.Time       `json:"createdAt"`
    UpdatedAt          time.Time       `json:"updatedAt"`

    Approved Transition `json:"approved"`
    Flagged  Transition `json:"flagged"`
    Resolved Transition `json:"resolved"`
    Rejected Transition `json:"rejected"`
}

// NewWorkOrder builds the row inserted on first ingestion of an order.
func NewWorkOrder(m MergedOrder, now time.Time) WorkOrder {
    wo := WorkOrder{
        OrderNo:        m.OrderNo(),
        Status:         WorkOrderPendingReview,
        SearchResponse: m.Search.Raw,
        Timestamp:      now,
        FetchedAt:      now,
    }
    if si := m.Search.ScheduleInformation; si != nil && si.DriverName != "" {
        name := si.DriverName
        wo.DriverName = &name
    }
    if name := m.Search.Data.Location.Name; name != "" {
        wo.LocationName = &name
    }
    if c := m.Completion; c != nil {
        wo.CompletionResponse = c.Raw
        if t, ok := ParseProviderTime(c.EndTime); ok {
            wo.EndTime = &t
        }
    }
    return wo
}

type DateRange struct {
    StartDate string `json:"startDate"`
    EndDate   string `json:"endDate"`
}

type RunTrigger string

const (
    TriggerManual    RunTrigger = "manual"
    TriggerScheduled RunTrigger = "scheduled"
    TriggerCLI       RunTrigger = "cli"
)

type ErrorDetail struct {
    Code    string `json:"code"`
    OrderNo string `json:"orderNo,omitempty"`
    Stage   string `json:"stage,omitempty"`
    Message string `json:"message"`
}

// ImportRunResult summarises one ingestion run. It is written once to the run log.
type ImportRunResult struct {
    ID                string         `json:"id"`
    Success           bool           `json:"success"`
    Stage             string         `json:"stage"`
    Trigger           RunTrigger     `json:"trigger"`
    ConfigError       bool           `json:"configError,omitempty"`
    TotalFetched      int            `json:"totalFetched"`
    PagesFetched      int            `json:"pagesFetched"`
    Truncated         bool           `json:"truncated,omitempty"`
    ResumeAfterTag    string         `json:"resumeAfterTag,omitempty"`
    CompletionFetched int            `json:"completionFetched"`
    CompletionBatches int            `json:"completionBatches"`
    Filtered          int            `json:"filtered"`
    Imported          int            `json:"imported"`
    Duplicates        int            `json:"duplicates"`
    Errors            int            `json:"errors"`
    BatchesProcessed  int            `json:"batchesProcessed"`
    StatusHistogram   map[string]int `json:"statusHistogram,omitempty"`
    ErrorDetails      []ErrorDetail  `json:"errorDetails"`
    DateRange         DateRange      `json:"dateRange"`
    Timestamp         time.Time      `json:"timestamp"`
    DurationMs        int64          `json:"durationMs"`

    // Orders is returned to callers but never stored in the run log.
    Orders []MergedOrder `json:"orders,omitempty"`
}
