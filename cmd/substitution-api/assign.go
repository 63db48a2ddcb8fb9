package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/noah-isme/substitution-api/internal/models"
	"github.com/noah-isme/substitution-api/pkg/config"
	"github.com/noah-isme/substitution-api/pkg/logger"
)

var (
	assignDate   string
	assignAbsent string
	assignVerify bool
)

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Run one allocation without the HTTP server",
	RunE:  runAssign,
}

func init() {
	assignCmd.Flags().StringVar(&assignDate, "date", "", "run date (YYYY-MM-DD)")
	assignCmd.Flags().StringVar(&assignAbsent, "absent", "", "comma-separated absent teacher names")
	assignCmd.Flags().BoolVar(&assignVerify, "verify", false, "verify the run afterwards")
	_ = assignCmd.MarkFlagRequired("date")
	_ = assignCmd.MarkFlagRequired("absent")
}

func runAssign(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	engine, _, err := buildEngine(cfg, logr)
	if err != nil {
		return err
	}

	absent := splitNames(assignAbsent)
	if len(absent) == 0 {
		return fmt.Errorf("--absent must name at least one teacher")
	}

	result, err := engine.AutoAssignSubstitutes(ctx, assignDate, absent)
	if err != nil {
		return err
	}

	printRunResult(cmd, result)

	if assignVerify {
		reports, verifyErr := engine.VerifyLastRun()
		if verifyErr != nil {
			return verifyErr
		}
		cmd.Println()
		for _, report := range reports {
			cmd.Printf("%-4s %-25s %s\n", report.Status, report.Check, report.Details)
		}
	}
	return nil
}

func printRunResult(cmd *cobra.Command, result *models.RunResult) {
	cmd.Printf("Run %s (%s): %d assignments, %d warnings\n\n", result.Date, result.Day, len(result.Assignments), len(result.Warnings))
	if len(result.Assignments) > 0 {
		cmd.Printf("%-8s %-8s %-25s %-25s %s\n", "Period", "Class", "Absent", "Substitute", "Phone")
		for _, a := range result.Assignments {
			cmd.Printf("%-8d %-8s %-25s %-25s %s\n", a.Period, a.ClassName, a.OriginalTeacher, a.Substitute, a.SubstitutePhone)
		}
	}
	if len(result.Warnings) > 0 {
		cmd.Println("\nWarnings:")
		for _, w := range result.Warnings {
			cmd.Printf("  - %s\n", w)
		}
	}
}

func splitNames(raw string) []string {
	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	return names
}
