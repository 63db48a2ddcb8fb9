package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "substitution-api",
	Short: "Substitute teacher assignment service",
	Long: "Assigns substitute teachers to cover the class periods of absent " +
		"teachers, working from a weekly timetable and a substitute roster. " +
		"Runs as a local HTTP server by default; use 'assign' for one-shot runs.",
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(assignCmd)
}
