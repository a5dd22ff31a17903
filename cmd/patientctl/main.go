package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/patients/internal/config"
	"github.com/ehr/patients/internal/gateway"
	"github.com/ehr/patients/internal/recordstore"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

// app is the state shared by every subcommand, built once flags are parsed.
type app struct {
	cfg    *config.ClientConfig
	logger zerolog.Logger
	store  *recordstore.Store
	out    io.Writer
	color  bool
	loc    *time.Location
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{out: stdout, loc: time.Local}

	rootCmd := &cobra.Command{
		Use:          "patientctl",
		Short:        "Browse and edit patient records",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd, stderr)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	pf := rootCmd.PersistentFlags()
	pf.String("api-url", "", "Patient API base URL (env PATIENT_API_URL)")
	pf.Duration("timeout", 0, "Request timeout (env PATIENT_API_TIMEOUT)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.Bool("no-color", false, "Disable colored status tags")

	rootCmd.AddCommand(listCmd(a))
	rootCmd.AddCommand(showCmd(a))
	rootCmd.AddCommand(createCmd(a))
	rootCmd.AddCommand(editCmd(a))
	rootCmd.AddCommand(deleteCmd(a))
	return rootCmd
}

func (a *app) init(cmd *cobra.Command, stderr io.Writer) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL, _ = flags.GetString("api-url")
	}
	if flags.Changed("timeout") {
		cfg.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	noColor, _ := flags.GetBool("no-color")
	a.color = !noColor
	a.cfg = cfg

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}
	a.logger = zerolog.New(zerolog.ConsoleWriter{Out: stderr, NoColor: noColor}).
		Level(level).With().Timestamp().Logger()

	client, err := gateway.New(cfg.APIURL, gateway.WithTimeout(cfg.Timeout))
	if err != nil {
		return err
	}
	a.store = recordstore.New(client, recordstore.WithLogger(a.logger))
	return nil
}
