package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/mbj/siteapi/cmd/api/commands"
)

// @title siteapi
// @version 1.0
// @description Content API for a personal site. Serves posts, projects and tech arrays from JSON files and replaces them atomically.

// @license.name MIT

// @host localhost:3001
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the admin token.

func main() {
	rootCmd := &cobra.Command{
		Use:   "siteapi",
		Short: "siteapi content server",
		Long:  `siteapi serves the posts, projects and tech arrays of a personal site from JSON files and lets an admin replace them with a bearer token.`,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewBootstrapCommand())
	rootCmd.AddCommand(commands.NewCheckCommand())
	rootCmd.AddCommand(commands.NewTokenCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
