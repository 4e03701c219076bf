package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tony-c3a/tony-mission-control/internal/service"
	"github.com/tony-c3a/tony-mission-control/internal/store"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Load every flat file into the database once",
	Args:  cobra.NoArgs,
	RunE:  runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	msg  string
}

func (e exitError) Error() string { return e.msg }
func (e exitError) ExitCode() int { return e.code }

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	report, _ := service.NewSyncService(openSource(cfg), st).Run(cmd.Context())
	out := cmd.OutOrStdout()
	for _, r := range report.Entities {
		if r.Error != "" {
			fmt.Fprintf(out, "%-13s FAILED  %s\n", r.Entity, r.Error)
			continue
		}
		fmt.Fprintf(out, "%-13s %6d\n", r.Entity, r.Count)
	}
	fmt.Fprintf(out, "done in %s\n", report.Duration.Round(time.Millisecond))
	if report.Failed() {
		var failed []string
		for _, r := range report.Entities {
			if r.Error != "" {
				failed = append(failed, r.Entity)
			}
		}
		return exitError{code: 2, msg: "sync failed for " + strings.Join(failed, ", ")}
	}
	return nil
}
