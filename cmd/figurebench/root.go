package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "figurebench",
	Short: "Drive the figurer anytime-planning engine against its built-in scenarios",
}

// Execute runs the root command, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("figurebench failed")
		os.Exit(1)
	}
}
