package routing

import (
    "context"
    "fmt"

    "orderdesk/internal/domain"
    "orderdesk/internal/retry"
)

const opSearch = "search_orders"

type SearchRequest struct {
    From string
    To   string
    // AfterTag resumes a window that an earlier call left truncated.
    AfterTag string
}

type SearchResult struct {
    Orders []domain.SearchRecord
    Pages  int
    // Truncated is set when the page cap stopped collection while the
    // provider still signalled more pages; ResumeAfterTag continues it.
    Truncated      bool
    ResumeAfterTag string
}

type searchDateRange struct {
    From string `json:"from"`
    To   string `json:"to"`
}

type searchBody struct {
    DateRange                  searchDateRange `json:"dateRange"`
    IncludeOrderData           bool            `json:"includeOrderData"`
    IncludeScheduleInformation bool            `json:"includeScheduleInformation"`
    AfterTag                   string          `json:"after_tag,omitempty"`
}

type searchResponse struct {
    Success  *bool                 `json:"success"`
    Orders   []domain.SearchRecord `json:"orders"`
    AfterTag string                `json:"after_tag"`
    Error    string                `json:"error"`
}

// CollectAllPages walks the search API for a date range, following after_tag
// until the provider stops returning one or the page cap is reached. Any page
// that still fails after retries fails the whole call.
func (c *Client) CollectAllPages(ctx context.Context, req SearchRequest) (SearchResult, error) {
    if err := c.Configured(); err != nil {
        return SearchResult{}, err
    }

    var out SearchResult
    tag := req.AfterTag
    for page := 1; ; page++ {
        if page > 1 {
            if err := c.pause(ctx, c.pageDelay); err != nil {
                return SearchResult{}, err
            }
        }

        body := searchBody{
            DateRange:                  searchDateRange{From: req.From, To: req.To},
            IncludeOrderData:           true,
            IncludeScheduleInformation: true,
            AfterTag:                   tag,
        }
        var resp searchResponse
        err := retry.Do(ctx, c.retry, opSearch, func(ctx context.Context) error {
            resp = searchResponse{}
            if err := c.postJSON(ctx, opSearch, opSearch, body, &resp); err != nil {
                return err
            }
            if resp.Success != nil && !*resp.Success {
                return &ProviderError{Op: opSearch, Message: resp.Error}
            }
            return nil
        })
        if err != nil {
            return SearchResult{}, fmt.Errorf("search page %d: %w", page, err)
        }

        out.Orders = append(out.Orders, resp.Orders...)
        out.Pages = page
        c.logger.Debug("search page fetched", "page", page, "orders", len(resp.Orders), "total", len(out.Orders), "has_more", resp.AfterTag != "")

        if resp.AfterTag == "" {
            return out, nil
        }
        tag = resp.AfterTag
        if page >= c.maxPages {
            out.Truncated = true
            out.ResumeAfterTag = tag
            c.logger.Warn("search page cap reached, results truncated", "pages", page, "orders", len(out.Orders), "resume_after_tag", tag)
            return out, nil
        }
    }
}
