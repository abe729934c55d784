package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pawanx64/File-Sharing-Backend/jobs"
	"github.com/pawanx64/File-Sharing-Backend/repository"
)

var dryRun bool

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Compare stored objects with file records once and remove orphaned objects",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		r := jobs.NewReconciler(repository.NewFileRepository(a.db), a.store, jobs.ReconcileConfig{
			Folder: a.cfg.StorageFolder,
			Grace:  a.cfg.ReconcileGrace,
			DryRun: dryRun,
		}, a.log)

		report, err := r.Run(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "objects: %d, records: %d\n", report.Objects, report.Records)
		fmt.Fprintf(out, "orphaned objects: %d (removed %d, failed %d)\n", len(report.OrphanObjects), report.Swept, report.SweepFailures)
		for _, key := range report.OrphanObjects {
			fmt.Fprintf(out, "  %s\n", key)
		}
		fmt.Fprintf(out, "records without object: %d\n", len(report.DanglingFiles))
		for _, id := range report.DanglingFiles {
			fmt.Fprintf(out, "  %s\n", id)
		}
		return nil
	},
}

func init() {
	reconcileCmd.Flags().BoolVar(&dryRun, "dry-run", false, "report orphans without deleting them")
}
