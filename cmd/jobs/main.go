package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"sekolahpay/internal/config"
	"sekolahpay/internal/database"
	"sekolahpay/internal/health"
	"sekolahpay/internal/reminder"
	"sekolahpay/internal/services"
	"sekolahpay/internal/wablas"
)

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  jobs send-monthly [-test]     - send the blanket monthly payment reminder")
	fmt.Println("  jobs send-reminders [-force]  - send due-date reminders for unpaid mandatory fees")
	fmt.Println("                                  (runs only on the 1st of the month unless forced)")
	fmt.Println("  jobs health-check [-alert]    - run pre-flight checks; exit 1 on issues")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	switch os.Args[1] {
	case "send-monthly":
		cmd := flag.NewFlagSet("send-monthly", flag.ExitOnError)
		testMode := cmd.Bool("test", false, "log messages instead of sending them")
		cmd.Parse(os.Args[2:])

		dispatcher := mustDispatcher(cfg)
		summary, err := dispatcher.RunMonthlyBroadcast(*testMode)
		if err != nil {
			log.Fatal("Monthly broadcast failed:", err)
		}
		printSummary(summary)

	case "send-reminders":
		cmd := flag.NewFlagSet("send-reminders", flag.ExitOnError)
		force := cmd.Bool("force", false, "run even when today is not the 1st of the month")
		cmd.Parse(os.Args[2:])

		dispatcher := mustDispatcher(cfg)
		summary, err := dispatcher.RunDueDateReminders(*force)
		if err != nil {
			log.Fatal("Due-date reminders failed:", err)
		}
		printSummary(summary)

	case "health-check":
		cmd := flag.NewFlagSet("health-check", flag.ExitOnError)
		alert := cmd.Bool("alert", false, "email operators when issues are found")
		cmd.Parse(os.Args[2:])

		os.Exit(runHealthCheck(cfg, *alert))

	default:
		printUsage()
		os.Exit(2)
	}
}

// mustDispatcher wires the batch dispatcher or exits.
func mustDispatcher(cfg *config.Config) *reminder.Dispatcher {
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	store := database.NewStore(database.GetDB())
	gateway := wablas.NewClient(cfg.WablasBaseURL, cfg.WablasAPIKey, cfg.WablasSecretKey)
	return reminder.NewDispatcher(cfg, store, gateway)
}

// runHealthCheck runs all checks and returns the process exit code. A
// broken database connection is reported as an issue, not a fatal error.
func runHealthCheck(cfg *config.Config, alert bool) int {
	var store health.Store
	if err := database.InitDB(cfg); err != nil {
		log.Printf("Database unavailable, checks will report it: %v", err)
	} else {
		store = database.NewStore(database.GetDB())
	}

	report := health.NewChecker(cfg, store).Run()

	fmt.Printf("Health check: %d/%d passed\n", report.Passed, report.TotalChecks)
	for _, issue := range report.Issues {
		fmt.Printf("  FAIL: %s\n", issue)
	}
	if report.OK() {
		fmt.Println("All checks passed")
	}

	if !report.OK() && alert {
		if err := services.NewAlertService(cfg).SendHealthAlert(report.Issues); err != nil {
			log.Printf("Failed to send alert: %v", err)
		}
	}

	return report.ExitCode()
}

func printSummary(summary *reminder.RunSummary) {
	if summary.Skipped {
		fmt.Printf("Run skipped: %s\n", summary.SkipReason)
		return
	}
	fmt.Printf("Run %s finished: %d sent, %d failed, %d total in %v\n",
		summary.Mode, summary.SuccessCount, summary.FailureCount, summary.TotalProcessed, summary.Duration)
}
