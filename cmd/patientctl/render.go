package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/ehr/patients/internal/domain/patient"
	"github.com/ehr/patients/internal/query"
	"github.com/ehr/patients/pkg/pagination"
)

const emptyMessage = "No patients found"

var ansi = map[string]string{
	"blue":   "\x1b[34m",
	"yellow": "\x1b[33m",
	"green":  "\x1b[32m",
	"red":    "\x1b[31m",
	"gray":   "\x1b[90m",
}

func statusTag(s patient.Status, color bool) string {
	if !color {
		return string(s)
	}
	return ansi[s.Color()] + string(s) + "\x1b[0m"
}

// formatDOB prints the calendar date, which is stored at UTC midnight.
func formatDOB(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("01/02/2006")
}

func formatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format("Jan 2, 2006 15:04")
}

// sortHeader marks the active sort column with an arrow.
func sortHeader(label string, field query.Field, o query.Order) string {
	if o.Field != field {
		return label
	}
	switch o.Direction {
	case query.Asc:
		return label + " ↑"
	case query.Desc:
		return label + " ↓"
	}
	return label
}

func renderList(w io.Writer, view pagination.Result[patient.Patient], search string, tags []query.Tag, o query.Order, color bool, loc *time.Location) {
	if search != "" || len(tags) > 0 {
		labels := make([]string, 0, len(tags)+1)
		if search != "" {
			labels = append(labels, fmt.Sprintf("Search: %q", search))
		}
		for _, t := range tags {
			labels = append(labels, "["+t.String()+"]")
		}
		fmt.Fprintln(w, strings.Join(labels, " "))
	}

	if view.Total == 0 {
		fmt.Fprintln(w, emptyMessage)
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{
		"ID",
		sortHeader("Name", query.SortByName, o),
		sortHeader("Date of Birth", query.SortByDateOfBirth, o),
		sortHeader("Status", query.SortByStatus, o),
		"City",
		"State",
		sortHeader("Created", query.SortByCreatedAt, o),
	})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	for _, p := range view.Items {
		table.Append([]string{
			p.ID,
			p.FullName(),
			formatDOB(p.DateOfBirth),
			statusTag(p.Status, color),
			p.City,
			p.State,
			formatTime(p.CreatedAt, loc),
		})
	}
	table.Render()

	fmt.Fprintf(w, "Page %d of %d (%d patients)\n", view.Page, view.TotalPages, view.Total)
}

func renderPatient(w io.Writer, p patient.Patient, color bool, loc *time.Location) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetColumnSeparator(":")
	rows := [][]string{
		{"ID", p.ID},
		{"Name", p.FullName()},
		{"Date of Birth", formatDOB(p.DateOfBirth)},
		{"Status", statusTag(p.Status, color)},
		{"Street", p.Street},
		{"City", p.City},
		{"State", p.State},
		{"Zip Code", p.ZipCode},
		{"Country", p.Country},
		{"Created", formatTime(p.CreatedAt, loc)},
		{"Updated", formatTime(p.UpdatedAt, loc)},
	}
	table.AppendBulk(rows)
	table.Render()
}
