package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ehr/patients/internal/domain/patient"
	"github.com/ehr/patients/internal/editsession"
	"github.com/ehr/patients/internal/listing"
	"github.com/ehr/patients/internal/query"
	"github.com/ehr/patients/internal/recordstore"
	"github.com/ehr/patients/pkg/pagination"
)

func listCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List patients with search, filters, sorting and paging",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.list(cmd)
		},
	}
	f := cmd.Flags()
	f.String("search", "", "Match name or status (case-insensitive)")
	f.String("name", "", "Filter by name")
	f.String("city", "", "Filter by city")
	f.String("state", "", "Filter by state")
	f.String("status", "", "Filter by status: Inquiry, Onboarding, Active, Churned")
	f.String("dob-from", "", "Born on or after (YYYY-MM-DD or RFC 3339)")
	f.String("dob-to", "", "Born on or before")
	f.String("created-from", "", "Created on or after")
	f.String("created-to", "", "Created on or before")
	f.String("sort", "", "Sort by name, dob, status or created (server column with --server-order)")
	f.String("dir", "", "Sort direction: asc, desc or none (default asc when --sort is set)")
	f.Int("page", 1, "Page number")
	f.Int("page-size", 0, "Rows per page (env PAGE_SIZE)")
	f.Bool("server-order", false, "Let the server sort instead of sorting locally")
	f.Bool("asc", true, "Ascending server order (with --server-order)")
	return cmd
}

func (a *app) list(cmd *cobra.Command) error {
	flags := cmd.Flags()
	str := func(name string) string {
		v, _ := flags.GetString(name)
		return strings.TrimSpace(v)
	}

	filters, err := a.parseFilters(str)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	serverOrder, _ := flags.GetBool("server-order")
	order := query.Order{Field: query.SortByName}
	if serverOrder {
		asc, _ := flags.GetBool("asc")
		err = a.store.FetchOrdered(ctx, patient.ListOrder{OrderBy: str("sort"), Asc: &asc})
	} else {
		if order, err = parseOrder(str("sort"), str("dir")); err != nil {
			return err
		}
		err = a.store.FetchAll(ctx)
	}
	if err != nil {
		return err
	}

	pageSize := a.cfg.PageSize
	if flags.Changed("page-size") {
		pageSize, _ = flags.GetInt("page-size")
	}
	if pageSize < 1 || pageSize > pagination.MaxPageSize {
		return fmt.Errorf("page size must be between 1 and %d, got %d", pagination.MaxPageSize, pageSize)
	}
	page, _ := flags.GetInt("page")

	l := listing.New(a.store, pageSize)
	l.SetSearch(str("search"))
	l.SetFilters(filters)
	l.SetOrder(order)
	l.SetPage(page)

	renderList(a.out, l.View(), l.Search(), l.Filters().Tags(), l.Order(), a.color, a.loc)
	return nil
}

func (a *app) parseFilters(str func(string) string) (query.Filters, error) {
	f := query.Filters{
		Name:  str("name"),
		City:  str("city"),
		State: str("state"),
	}
	if s := str("status"); s != "" {
		st, err := patient.ParseStatus(s)
		if err != nil {
			return f, err
		}
		f.Status = st
	}

	var err error
	// Dates of birth are UTC-midnight calendar dates; creation times are
	// instants read in the user's zone.
	bounds := []struct {
		flag string
		dst  **time.Time
		to   bool
		loc  *time.Location
	}{
		{"dob-from", &f.DateOfBirth.From, false, time.UTC},
		{"dob-to", &f.DateOfBirth.To, true, time.UTC},
		{"created-from", &f.CreatedAt.From, false, a.loc},
		{"created-to", &f.CreatedAt.To, true, a.loc},
	}
	for _, b := range bounds {
		parse := query.ParseFrom
		if b.to {
			parse = query.ParseTo
		}
		if *b.dst, err = parse(str(b.flag), b.loc); err != nil {
			return f, fmt.Errorf("--%s: %w", b.flag, err)
		}
	}
	return f, nil
}

// parseOrder defaults the direction to ascending once a field is named.
func parseOrder(field, dir string) (query.Order, error) {
	if field == "" && dir == "" {
		return query.Order{Field: query.SortByName}, nil
	}
	f, err := query.ParseSortField(field)
	if err != nil {
		return query.Order{}, err
	}
	d := query.Asc
	if dir != "" {
		if d, err = query.ParseDirection(dir); err != nil {
			return query.Order{}, err
		}
	}
	return query.Order{Field: f, Direction: d}, nil
}

// parseDOB reads M/D/YYYY as UTC midnight.
func parseDOB(s string) (time.Time, error) {
	t, err := time.ParseInLocation("1/2/2006", strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date of birth %q: want M/D/YYYY", s)
	}
	return t, nil
}

func showCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.store.Refresh(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderPatient(a.out, p, a.color, a.loc)
			return nil
		},
	}
}

func createCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new patient",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			str := func(name string) string {
				v, _ := flags.GetString(name)
				return strings.TrimSpace(v)
			}

			d := patient.Draft{
				FirstName:  str("first-name"),
				MiddleName: str("middle-name"),
				LastName:   str("last-name"),
				Street:     str("street"),
				City:       str("city"),
				State:      str("state"),
				ZipCode:    str("zip"),
			}
			if s := str("status"); s != "" {
				st, err := patient.ParseStatus(s)
				if err != nil {
					return err
				}
				d.Status = st
			}
			if s := str("dob"); s != "" {
				dob, err := parseDOB(s)
				if err != nil {
					return err
				}
				d.DateOfBirth = &dob
			}

			p, err := a.store.Create(cmd.Context(), d)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Created patient %s\n", p.ID)
			renderPatient(a.out, p, a.color, a.loc)
			return nil
		},
	}
	f := cmd.Flags()
	f.String("first-name", "", "First name (required)")
	f.String("middle-name", "", "Middle name")
	f.String("last-name", "", "Last name (required)")
	f.String("dob", "", "Date of birth as M/D/YYYY")
	f.String("status", "", "Status (default Inquiry)")
	f.String("street", "", "Street")
	f.String("city", "", "City")
	f.String("state", "", "State")
	f.String("zip", "", "Zip code")
	cmd.MarkFlagRequired("first-name")
	cmd.MarkFlagRequired("last-name")
	return cmd
}

func editCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a patient's fields",
		Long: "Edit starts an edit session on the current record, applies each --set " +
			"field=value and --dob, then saves. Fields: firstName, middleName, lastName, " +
			"status, street, city, state, zipCode.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sets, _ := cmd.Flags().GetStringArray("set")
			dob, _ := cmd.Flags().GetString("dob")
			if len(sets) == 0 && dob == "" {
				return errors.New("nothing to change: pass --set field=value or --dob")
			}

			p, err := a.edit(cmd.Context(), args[0], sets, dob)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Updated patient %s\n", p.ID)
			renderPatient(a.out, p, a.color, a.loc)
			return nil
		},
	}
	cmd.Flags().StringArray("set", nil, "field=value to change (repeatable)")
	cmd.Flags().String("dob", "", "New date of birth as M/D/YYYY")
	return cmd
}

func (a *app) edit(ctx context.Context, id string, sets []string, dob string) (patient.Patient, error) {
	current, err := a.store.Refresh(ctx, id)
	if err != nil {
		return patient.Patient{}, err
	}

	session := editsession.New(a.store, editsession.WithLogger(a.logger))
	session.Start(current)

	for _, kv := range sets {
		field, value, ok := strings.Cut(kv, "=")
		if !ok {
			session.Cancel()
			return patient.Patient{}, fmt.Errorf("--set %q: want field=value", kv)
		}
		if err := session.SetField(editsession.Field(strings.TrimSpace(field)), value); err != nil {
			session.Cancel()
			return patient.Patient{}, err
		}
	}
	if dob != "" {
		month, day, year, err := editsession.SplitDate(dob)
		if err != nil {
			session.Cancel()
			return patient.Patient{}, err
		}
		for part, v := range map[editsession.DatePart]string{
			editsession.Month: month,
			editsession.Day:   day,
			editsession.Year:  year,
		} {
			if err := session.SetDatePart(part, v); err != nil {
				session.Cancel()
				return patient.Patient{}, err
			}
		}
	}

	return session.Save(ctx)
}

func deleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := a.store.Delete(cmd.Context(), args[0])
			if errors.Is(err, recordstore.ErrNotFound) {
				return fmt.Errorf("patient %s not found", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted patient %s\n", args[0])
			return nil
		},
	}
}
