package main

import (
	"context"
	"fmt"
	"io"

	"github.com/htl-registration/appointment-intake/internal/importer"
	"github.com/htl-registration/appointment-intake/internal/service"
	"github.com/spf13/cobra"
)

var importPath string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace the appointment configuration",
	Long: `Replace the appointment configuration with the contents of a JSON file.

The file is validated before anything is written. On success the new
configuration id is printed.

Examples:
  intake import --path appointments.json
  intake import -p appointments.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requirePersistent(cfg, "import"); err != nil {
			return err
		}
		st, err := openStores(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.close()

		appointments := service.NewAppointmentService(st.configs, appointmentOptions(cfg)...)
		return runImport(cmd.Context(), appointments, importPath, cmd.OutOrStdout())
	},
}

func init() {
	importCmd.Flags().StringVarP(&importPath, "path", "p", "", "configuration file (JSON)")
	_ = importCmd.MarkFlagRequired("path")
}

func runImport(ctx context.Context, appointments *service.AppointmentService, path string, out io.Writer) error {
	doc, err := importer.ParseFile(path)
	if err != nil {
		return err
	}
	saved, err := appointments.ReplaceConfiguration(ctx, doc)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "imported configuration %s (%d appointments, total capacity %d)\n",
		saved.ID, len(saved.Appointments), saved.TotalCapacity())
	return err
}
