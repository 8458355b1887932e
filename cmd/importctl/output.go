package main

import (
    "fmt"
    "io"
    "text/tabwriter"
    "time"

    "github.com/dustin/go-humanize"
    "github.com/dustin/go-humanize/english"

    "orderdesk/internal/domain"
    "orderdesk/internal/services/importer"
    "orderdesk/internal/services/reconcile"
)

func printSummary(w io.Writer, res domain.ImportRunResult) {
    state := "ok"
    switch {
    case res.Stage == string(importer.StageFailed):
        state = "FAILED"
    case res.Errors > 0:
        state = "done with errors"
    }
    fmt.Fprintf(w, "run %s (%s) %s, %s to %s, took %s\n",
        res.ID, res.Trigger, state, res.DateRange.StartDate, res.DateRange.EndDate,
        (time.Duration(res.DurationMs) * time.Millisecond).String())

    tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
    fmt.Fprintf(tw, "  fetched\t%s\t(%s)\n", humanize.Comma(int64(res.TotalFetched)), english.Plural(res.PagesFetched, "page", "pages"))
    fmt.Fprintf(tw, "  completion\t%s\t(%s)\n", humanize.Comma(int64(res.CompletionFetched)), english.Plural(res.CompletionBatches, "batch", "batches"))
    fmt.Fprintf(tw, "  kept\t%s\t\n", humanize.Comma(int64(res.Filtered)))
    fmt.Fprintf(tw, "  imported\t%s\t\n", humanize.Comma(int64(res.Imported)))
    fmt.Fprintf(tw, "  duplicates\t%s\t\n", humanize.Comma(int64(res.Duplicates)))
    fmt.Fprintf(tw, "  errors\t%s\t\n", humanize.Comma(int64(res.Errors)))
    tw.Flush()

    if hist := reconcile.StatusHistogram(res.StatusHistogram); len(hist) > 0 {
        fmt.Fprintln(w, "  statuses:")
        for _, k := range hist.Keys() {
            fmt.Fprintf(w, "    %-12s %s\n", k, humanize.Comma(int64(hist[k])))
        }
    }
    if res.Truncated {
        fmt.Fprintf(w, "  truncated after %s; resume with --after-tag %s\n", english.Plural(res.PagesFetched, "page", "pages"), res.ResumeAfterTag)
    }
    for _, d := range res.ErrorDetails {
        if d.OrderNo != "" {
            fmt.Fprintf(w, "  ! %s %s [%s]: %s\n", d.Code, d.OrderNo, d.Stage, d.Message)
        } else {
            fmt.Fprintf(w, "  ! %s [%s]: %s\n", d.Code, d.Stage, d.Message)
        }
    }
}

func printRuns(w io.Writer, runs []domain.ImportRunResult, now time.Time) {
    if len(runs) == 0 {
        fmt.Fprintln(w, "no runs recorded")
        return
    }
    tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
    fmt.Fprintln(tw, "WHEN\tTRIGGER\tSTAGE\tWINDOW\tIMPORTED\tDUPLICATES\tERRORS")
    for _, r := range runs {
        fmt.Fprintf(tw, "%s\t%s\t%s\t%s..%s\t%s\t%s\t%d\n",
            humanize.RelTime(r.Timestamp, now, "ago", "from now"),
            r.Trigger, r.Stage, r.DateRange.StartDate, r.DateRange.EndDate,
            humanize.Comma(int64(r.Imported)), humanize.Comma(int64(r.Duplicates)), r.Errors)
    }
    tw.Flush()
}

func failedStage(res domain.ImportRunResult) string {
    for _, d := range res.ErrorDetails {
        if d.Stage != "" {
            return d.Stage
        }
    }
    return res.Stage
}
