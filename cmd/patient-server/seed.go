package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/spf13/cobra"

	"github.com/ehr/patients/internal/domain/patient"
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace all patients with generated ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("count")
			seed, _ := cmd.Flags().GetUint64("seed")
			if count < 0 {
				return fmt.Errorf("--count must not be negative")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg, os.Stdout)

			ctx := context.Background()
			st, err := openStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := runSeed(ctx, st, patient.NewService(st.repo, logger), fakePatients(count, seed))
			if err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d patient(s).\n", n)
			return nil
		},
	}
	cmd.Flags().Int("count", 500, "Number of patients to generate")
	cmd.Flags().Uint64("seed", 0, "Random seed (0 picks one)")
	return cmd
}

func runSeed(ctx context.Context, st *storage, svc *patient.Service, patients []*patient.Patient) (int, error) {
	var n int
	err := st.inTx(ctx, func(ctx context.Context) error {
		var err error
		n, err = svc.Reset(ctx, patients)
		return err
	})
	return n, err
}

// fakePatients generates n patients born between 1940 and 2010. The same
// non-zero seed always yields the same patients.
func fakePatients(n int, seed uint64) []*patient.Patient {
	f := gofakeit.New(seed)
	earliest := time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC)
	latest := time.Date(2010, 12, 31, 0, 0, 0, 0, time.UTC)

	out := make([]*patient.Patient, 0, n)
	for i := 0; i < n; i++ {
		dob := f.DateRange(earliest, latest)
		dob = time.Date(dob.Year(), dob.Month(), dob.Day(), 0, 0, 0, 0, time.UTC)

		p := &patient.Patient{
			ID:          f.UUID(),
			FirstName:   f.FirstName(),
			LastName:    f.LastName(),
			DateOfBirth: &dob,
			Status:      patient.Statuses[f.Number(0, len(patient.Statuses)-1)],
			Street:      f.Street(),
			City:        f.City(),
			State:       f.State(),
			ZipCode:     f.Zip(),
			Country:     patient.DefaultCountry,
		}
		if f.Bool() {
			p.MiddleName = f.FirstName()
		}
		out = append(out, p)
	}
	return out
}
