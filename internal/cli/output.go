package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"infinite-experiment/flightlog/internal/models/gorm"
	"infinite-experiment/flightlog/internal/services"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func outcomeColor(kind services.IngestKind) text.Colors {
	switch kind {
	case services.IngestInserted:
		return text.Colors{text.FgGreen}
	case services.IngestSkippedDuplicate:
		return text.Colors{text.FgYellow}
	default:
		return text.Colors{text.FgRed}
	}
}

func renderReport(w io.Writer, report *services.ImportReport) {
	if len(report.Items) == 0 {
		fmt.Fprintln(w, "No flights found.")
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Source", "Leg", "Outcome", "Flight", "Reason"})
	for _, item := range report.Items {
		flight := ""
		if item.Outcome.FlightID != 0 {
			flight = fmt.Sprintf("#%d", item.Outcome.FlightID)
		}
		t.AppendRow(table.Row{
			item.Source,
			item.Leg,
			outcomeColor(item.Outcome.Kind).Sprint(string(item.Outcome.Kind)),
			flight,
			item.Outcome.Reason,
		})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d inserted", report.Inserted()),
		fmt.Sprintf("%d duplicate", report.Duplicates()), fmt.Sprintf("%d rejected", report.Rejected())})
	t.Render()

	if report.Routes != nil {
		fmt.Fprintf(w, "Routes rebuilt: %d routes, %d skipped\n", len(report.Routes.Routes), len(report.Routes.Skipped))
	}
}

func renderRoutes(w io.Writer, routes []gorm.Route) {
	if len(routes) == 0 {
		fmt.Fprintln(w, "No routes.")
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"From", "To", "Flights", "Distance (mi)"})
	total := 0
	for _, r := range routes {
		from, to := "?", "?"
		if r.Airport1 != nil {
			from = r.Airport1.Code()
		}
		if r.Airport2 != nil {
			to = r.Airport2.Code()
		}
		t.AppendRow(table.Row{from, to, r.FlightCount, r.DistanceMi})
		total += r.FlightCount * r.DistanceMi
	}
	t.AppendFooter(table.Row{"", "Total", "", total})
	t.Render()
}

func renderSkipped(w io.Writer, set services.RouteSet) {
	for _, s := range set.Skipped {
		fmt.Fprintf(w, "Skipped airports %d-%d: %s\n", s.Airport1ID, s.Airport2ID, s.Reason)
	}
}
