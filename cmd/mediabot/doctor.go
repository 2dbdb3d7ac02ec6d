package main

import (
	"context"
	"fmt"
	"net"
	"os"

	"mediabot/internal/catalog"
	"mediabot/internal/config"
	"mediabot/internal/filters"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on your MediaBot installation",
		Long: `Verifies that MediaBot's configuration, MongoDB connection, Telegram
token, and filter catalog are correctly set up. Reports pass/fail for each check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			fmt.Printf("MediaBot Doctor v%s\n", version)
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

			passed := 0
			failed := 0
			warned := 0

			// 1. Config file exists
			if _, err := os.Stat(cfgPath); err != nil {
				printFail("Config file", fmt.Sprintf("not found at %s", cfgPath))
				fmt.Printf("\nRun 'mediabot init' to create a default configuration.\n")
				return nil
			}
			printPass("Config file", cfgPath)
			passed++

			// 2. Config loads and validates
			cfg, err := config.Load(cfgPath)
			if err != nil {
				printFail("Config validation", err.Error())
				fmt.Printf("\nResults: %d passed, %d failed\n", passed, 1)
				return nil
			}
			printPass("Config validation", "valid")
			passed++

			// 3. Telegram token resolves to a live bot
			if cfg.Telegram.Token == "" || cfg.Telegram.Token == "${MEDIABOT_TOKEN}" {
				printFail("Telegram token", "not configured (set MEDIABOT_TOKEN)")
				failed++
			} else if api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token); err != nil {
				printFail("Telegram token", err.Error())
				failed++
			} else {
				printPass("Telegram token", "@"+api.Self.UserName)
				passed++
			}

			// 4. MongoDB reachable
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.OpTimeout())
			store, err := catalog.Connect(ctx, cfg.Database, logger)
			cancel()
			if err != nil {
				printFail("MongoDB", err.Error())
				failed++
			} else {
				printPass("MongoDB", cfg.Database.URI)
				passed++
				store.Close()
			}

			// 5. Filter catalog parses
			if cat, err := filters.Load(cfg.Search.FilterCatalog, logger); err != nil {
				printFail("Filter catalog", err.Error())
				failed++
			} else {
				src := "built-in"
				if cfg.Search.FilterCatalog != "" {
					src = cfg.Search.FilterCatalog
				}
				printPass("Filter catalog", fmt.Sprintf("%s (%d languages, %d qualities)", src, len(cat.Languages), len(cat.Qualities)))
				passed++
			}

			// 6. Metrics endpoint bindable
			if cfg.Metrics.Enabled {
				if err := checkAddr(cfg.Metrics.Endpoint); err != nil {
					printWarn("Metrics endpoint", fmt.Sprintf("%s may be in use: %v", cfg.Metrics.Endpoint, err))
					warned++
				} else {
					printPass("Metrics endpoint", cfg.Metrics.Endpoint)
					passed++
				}
			}

			// 7. Admin and index lists
			if len(cfg.Telegram.Admins) == 0 {
				printWarn("Admins", "no admin IDs configured; /link, /del, /stats are unreachable")
				warned++
			} else {
				printPass("Admins", fmt.Sprintf("%d configured", len(cfg.Telegram.Admins)))
				passed++
			}
			if len(cfg.Telegram.IndexFrom) == 0 {
				printWarn("Index sources", "no source channels configured; nothing will be ingested")
				warned++
			} else {
				printPass("Index sources", fmt.Sprintf("%d configured", len(cfg.Telegram.IndexFrom)))
				passed++
			}

			// Summary
			fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
			fmt.Printf("Results: %d passed, %d warnings, %d failed\n", passed, warned, failed)
			if failed > 0 {
				fmt.Printf("\nPlease fix the failed checks before running MediaBot.\n")
				return fmt.Errorf("%d check(s) failed", failed)
			}
			if warned > 0 {
				fmt.Printf("\nMediaBot should work but consider fixing the warnings.\n")
			} else {
				fmt.Printf("\nAll checks passed! MediaBot is ready to run.\n")
			}
			return nil
		},
	}
}

func checkAddr(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	ln.Close()
	return nil
}

func printPass(check, detail string) {
	fmt.Printf("  [PASS] %-20s %s\n", check, detail)
}

func printFail(check, detail string) {
	fmt.Printf("  [FAIL] %-20s %s\n", check, detail)
}

func printWarn(check, detail string) {
	fmt.Printf("  [WARN] %-20s %s\n", check, detail)
}
