package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/polyxpand-rgb/sec-insider/src/config"
	"github.com/polyxpand-rgb/sec-insider/src/database"
	"github.com/polyxpand-rgb/sec-insider/src/edgar"
	"github.com/polyxpand-rgb/sec-insider/src/logger"
	"github.com/polyxpand-rgb/sec-insider/src/parsers/form4"
	"github.com/polyxpand-rgb/sec-insider/src/services"
	"github.com/polyxpand-rgb/sec-insider/src/utils"
	"github.com/spf13/cobra"
)

var (
	flagDays   int
	flagStart  string
	flagEnd    string
	flagLimit  int
	flagSector string
	flagName   string
)

// resolveDateRange turns --days or --start/--end into an inclusive window.
func resolveDateRange() (time.Time, time.Time, error) {
	if flagStart != "" || flagEnd != "" {
		if flagStart == "" || flagEnd == "" {
			return time.Time{}, time.Time{}, errors.New("provide --days or both --start and --end")
		}
		start := utils.ParseDate(flagStart)
		end := utils.ParseDate(flagEnd)
		if start.IsZero() || end.IsZero() {
			return time.Time{}, time.Time{}, fmt.Errorf("dates must be YYYY-MM-DD (got start=%q end=%q)", flagStart, flagEnd)
		}
		return start, end, nil
	}
	end := time.Now()
	start := end.AddDate(0, 0, -flagDays)
	return start, end, nil
}

func openDB() (*sql.DB, error) {
	return database.InitDB(config.Cfg.DatabasePath)
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func addDateRangeFlags(cmd *cobra.Command, defaultDays int) {
	cmd.Flags().IntVar(&flagDays, "days", defaultDays, "Number of trailing days")
	cmd.Flags().StringVar(&flagStart, "start", "", "Start date YYYY-MM-DD")
	cmd.Flags().StringVar(&flagEnd, "end", "", "End date YYYY-MM-DD")
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sec-insider",
		Short:         "SEC insider Form 4 ingestion and reporting toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	initDbCmd := &cobra.Command{
		Use:   "init-db",
		Short: "Initialize database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Println("Database initialized")
			return nil
		},
	}

	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest Form 4 filings for a date window",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := resolveDateRange()
			if err != nil {
				return err
			}
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			client := edgar.NewClient(
				config.Cfg.UserAgent,
				config.Cfg.RateLimitPerSecond,
				config.Cfg.MaxRetries,
				config.Cfg.HTTPTimeout,
			)
			entityCache := cache.New(cache.NoExpiration, 0)
			ingestionService := services.NewIngestionService(client, form4.NewParser(), db, entityCache)

			result, err := ingestionService.Ingest(cmd.Context(), start, end)
			if err != nil {
				return err
			}
			if err := printJSON(result); err != nil {
				return err
			}
			fmt.Printf("Ingestion complete for %s to %s\n", utils.FormatDate(start), utils.FormatDate(end))
			return nil
		},
	}
	addDateRangeFlags(ingestCmd, 7)

	topTradesCmd := &cobra.Command{
		Use:   "top-trades",
		Short: "Top trades by USD value",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := resolveDateRange()
			if err != nil {
				return err
			}
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			reportService := services.NewReportService(db,
				cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval))
			results, err := reportService.TopTrades(start, end, flagLimit)
			if err != nil {
				return err
			}
			return printJSON(results)
		},
	}
	addDateRangeFlags(topTradesCmd, 7)
	topTradesCmd.Flags().IntVar(&flagLimit, "limit", 10, "Maximum rows to return")

	sectorActivityCmd := &cobra.Command{
		Use:   "sector-activity",
		Short: "Activity aggregated by sector",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := resolveDateRange()
			if err != nil {
				return err
			}
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			reportService := services.NewReportService(db,
				cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval))
			results, err := reportService.SectorActivity(start, end, flagSector)
			if err != nil {
				return err
			}
			return printJSON(results)
		},
	}
	addDateRangeFlags(sectorActivityCmd, 7)
	sectorActivityCmd.Flags().StringVar(&flagSector, "sector", "", "Optional sector filter")

	personCmd := &cobra.Command{
		Use:   "person",
		Short: "Lookup activity for an individual",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			reportService := services.NewReportService(db,
				cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval))
			results, err := reportService.PersonActivity(flagName, flagDays)
			if err != nil {
				return err
			}
			return printJSON(results)
		},
	}
	personCmd.Flags().StringVar(&flagName, "name", "", "Reporting person name (required)")
	personCmd.Flags().IntVar(&flagDays, "days", 90, "Trailing days window")
	personCmd.MarkFlagRequired("name")

	rootCmd.AddCommand(initDbCmd, ingestCmd, topTradesCmd, sectorActivityCmd, personCmd)
	return rootCmd
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("sec-insider starting...")

	if err := newRootCmd().Execute(); err != nil {
		logger.L.Error("Command failed", "error", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
