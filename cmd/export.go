package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/htl-registration/appointment-intake/internal/export"
	"github.com/htl-registration/appointment-intake/internal/service"
	"github.com/spf13/cobra"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all registrations as CSV",
	Long: `Write every registration, waiting list included, as semicolon-separated
CSV sorted by department and appointment.

Examples:
  intake export > registrations.csv
  intake export -o registrations.csv`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		if err := requirePersistent(cfg, "export"); err != nil {
			return err
		}
		st, err := openStores(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.close()

		out := cmd.OutOrStdout()
		if exportOutput != "" {
			f, ferr := os.Create(exportOutput)
			if ferr != nil {
				return fmt.Errorf("create %s: %w", exportOutput, ferr)
			}
			defer func() {
				if cerr := f.Close(); err == nil {
					err = cerr
				}
			}()
			out = f
		}

		appointments := service.NewAppointmentService(st.configs, appointmentOptions(cfg)...)
		registrations := service.NewRegistrationService(appointments, st.ledger, service.WithLedgerTimeout(cfg.StoreTimeout))
		return runExport(cmd.Context(), registrations, out)
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
}

func runExport(ctx context.Context, registrations *service.RegistrationService, out io.Writer) error {
	regs, err := registrations.ListAll(ctx)
	if err != nil {
		return err
	}
	return export.WriteCSV(out, regs)
}
