package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"hangmantrainer/internal/config"
	"hangmantrainer/internal/database"
	"hangmantrainer/internal/logging"
	"hangmantrainer/internal/report"
	"hangmantrainer/internal/repository"
	"hangmantrainer/internal/results"
	"hangmantrainer/internal/security"
	"hangmantrainer/internal/service"
)

func main() {
	// Define subcommands
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	reportCmd := flag.NewFlagSet("report", flag.ExitOnError)
	hashCmd := flag.NewFlagSet("hash-password", flag.ExitOnError)

	exportOutput := exportCmd.String("output", "", "Output file path (default: hangman_backup_YYYYMMDD_HHMMSS.json)")
	importInput := importCmd.String("input", "", "Input file path (required)")
	reportOutput := reportCmd.String("output", "", "Output file path (default: hangman_all_results_YYYY-MM-DD.txt)")
	hashPassword := hashCmd.String("password", "", "Admin password to hash (required)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()
	logging.Setup(cfg.LogLevel, "console")

	// hash-password needs no database
	if os.Args[1] == "hash-password" {
		hashCmd.Parse(os.Args[2:])
		handleHashPassword(*hashPassword)
		return
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	ctx := context.Background()
	backupService := service.NewBackupService(db)

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		handleExport(ctx, backupService, *exportOutput)

	case "import":
		importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		handleImport(ctx, backupService, *importInput)

	case "report":
		reportCmd.Parse(os.Args[2:])
		handleReport(ctx, db, *reportOutput)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleExport(ctx context.Context, backupService *service.BackupService, outputPath string) {
	if outputPath == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputPath = fmt.Sprintf("hangman_backup_%s.json", timestamp)
	}
	ensureDir(outputPath)

	if err := backupService.Export(ctx, outputPath); err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}

	fileInfo, err := os.Stat(outputPath)
	if err == nil {
		log.Info().Int64("bytes", fileInfo.Size()).Msg("Export complete")
	}
}

func handleImport(ctx context.Context, backupService *service.BackupService, inputPath string) {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		log.Fatal().Str("path", inputPath).Msg("Input file does not exist")
	}

	fmt.Print("WARNING: This replaces the word configuration and all results. Type 'yes' to confirm: ")
	var confirmation string
	fmt.Scanln(&confirmation)
	if confirmation != "yes" {
		log.Info().Msg("Import cancelled")
		return
	}

	if err := backupService.Import(ctx, inputPath); err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}

	log.Info().Msg("Import complete!")
}

func handleReport(ctx context.Context, db *database.DB, outputPath string) {
	store, err := results.NewStore(ctx, repository.NewBlobRepository(db))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load results")
	}

	now := time.Now()
	if outputPath == "" {
		outputPath = report.ConsolidatedFilename(now)
	}
	ensureDir(outputPath)

	if err := os.WriteFile(outputPath, []byte(report.Consolidated(store.All(), now)), 0644); err != nil {
		log.Fatal().Err(err).Msg("Failed to write report")
	}

	log.Info().Str("path", outputPath).Int("results", store.Len()).Msg("Report written")
}

func handleHashPassword(password string) {
	if password == "" {
		fmt.Println("Error: -password flag is required")
		os.Exit(1)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}
	fmt.Println(hash)
}

func ensureDir(path string) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatal().Err(err).Msg("Failed to create output directory")
		}
	}
}

func printUsage() {
	fmt.Println("Hangman Trainer Maintenance Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [options]          Export words and results to a JSON file")
	fmt.Println("  backup import [options]          Replace words and results from a JSON file")
	fmt.Println("  backup report [options]          Write the consolidated results report")
	fmt.Println("  backup hash-password [options]   Print a bcrypt hash for ADMIN_PASSWORD_HASH")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  export -output <file>")
	fmt.Println("  import -input <file>       (required; stop the server first)")
	fmt.Println("  report -output <file>")
	fmt.Println("  hash-password -password <password>")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DB_TYPE          Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./hangman.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
}
