// Command migrate-gen generates SQL files creating the pupmigrate tracking tables.
//
// Usage:
//
//	go run github.com/getpup/pupmigrate/cmd/migrate-gen -output migrations -filename init.sql
//
// Or with go generate:
//
//	//go:generate go run github.com/getpup/pupmigrate/cmd/migrate-gen -output migrations
//
// Generate migrations for different database adapters:
//
//	go run github.com/getpup/pupmigrate/cmd/migrate-gen -adapter postgres -output migrations
//	go run github.com/getpup/pupmigrate/cmd/migrate-gen -adapter mysql -output migrations
//	go run github.com/getpup/pupmigrate/cmd/migrate-gen -adapter sqlite -output migrations
//
// Customize table names:
//
//	go run github.com/getpup/pupmigrate/cmd/migrate-gen -history-table app_changelog -lock-table app_changelog_lock
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/getpup/pupmigrate"
	"github.com/getpup/pupmigrate/pkg/migrations"
)

func main() {
	defaults := migrations.DefaultConfig()

	var (
		adapter        = flag.String("adapter", "postgres", "Database adapter: postgres, mysql, or sqlite")
		outputFolder   = flag.String("output", defaults.OutputFolder, "Output folder for migration file")
		outputFilename = flag.String("filename", "", "Output filename (default: timestamp-based)")
		historyTable   = flag.String("history-table", defaults.HistoryTable, "Name of the changeset history table")
		lockTable      = flag.String("lock-table", defaults.LockTable, "Name of the migration lock table")
	)

	flag.Parse()

	config := defaults
	config.OutputFolder = *outputFolder
	config.HistoryTable = *historyTable
	config.LockTable = *lockTable

	if *outputFilename != "" {
		config.OutputFilename = *outputFilename
	}

	if err := migrations.GenerateFor(*adapter, &config); err != nil {
		if errors.Is(err, pupmigrate.ErrDialectNotFound) {
			var names []string
			for _, d := range migrations.Adapters().Implemented() {
				names = append(names, d.ShortName())
			}
			fmt.Fprintf(os.Stderr, "Error: unsupported adapter '%s'. Supported adapters are: %s\n",
				*adapter, strings.Join(names, ", "))
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error generating migration: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s migration: %s/%s\n", *adapter, config.OutputFolder, config.OutputFilename)
}
