package main

import "os"

// @title Substitution API
// @version 0.1.0
// @description Local substitute-teacher assignment service
// @BasePath /
// @schemes http

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
