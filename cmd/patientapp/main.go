package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/NoeOnDev/MoodProblemsApp/internal/client/api"
	"github.com/NoeOnDev/MoodProblemsApp/internal/client/patientview"
	"github.com/NoeOnDev/MoodProblemsApp/internal/client/ui"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/config"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/logger"
)

// consoleNotifier prints alerts to stderr
type consoleNotifier struct{}

func (consoleNotifier) Notify(title, message string) {
	fmt.Fprintf(os.Stderr, "[%s] %s\n", title, message)
}

// exitNavigator records a back-navigation request
type exitNavigator struct {
	requested bool
}

func (n *exitNavigator) GoBack() {
	n.requested = true
}

func main() {
	serverURL := flag.String("server", envOr("PATIENTAPP_SERVER", "http://localhost:8080"), "platform base URL")
	token := flag.String("token", os.Getenv("PATIENTAPP_TOKEN"), "bearer token")
	patientID := flag.String("patient", os.Getenv("PATIENTAPP_PATIENT"), "patient ID")
	flag.Parse()

	log, err := logger.New(config.LogConfig{
		Level:  envOr("LOG_LEVEL", "warn"),
		Format: "console",
	}, "patientapp")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *patientID == "" {
		fmt.Fprintln(os.Stderr, "patient ID is required (-patient or PATIENTAPP_PATIENT)")
		os.Exit(2)
	}

	mode := flag.Arg(0)
	if mode == "" {
		mode = "info"
	}

	client := api.New(*serverURL, *token)

	switch mode {
	case "info":
		runInfo(client, *patientID, log)
	case "report":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "usage: patientapp report <history-id>")
			os.Exit(2)
		}
		historyID, err := strconv.ParseInt(flag.Arg(1), 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid history ID: %s\n", flag.Arg(1))
			os.Exit(2)
		}
		runReport(client, *patientID, historyID, log)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode: %s (expected 'info' or 'report')\n", mode)
		os.Exit(2)
	}
}

// runInfo shows the Patient Info screen with an interactive refresh
// loop. Commands: r = refresh, <history-id> = open report, q = quit.
func runInfo(client *api.Client, patientID string, log *zap.Logger) {
	navigator := &exitNavigator{}
	coordinator := patientview.New(client, consoleNotifier{}, navigator, patientID)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	coordinator.Start(ctx)
	cancel()

	if navigator.requested {
		log.Debug("record fetch failed, leaving screen")
		os.Exit(1)
	}

	fmt.Print(ui.RenderPatientInfo(coordinator.State()))

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("\n[r]efresh, <history-id> for report, [q]uit > ")
	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())

		switch {
		case input == "q":
			return
		case input == "r":
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			coordinator.Refresh(ctx)
			cancel()
			fmt.Print(ui.RenderPatientInfo(coordinator.State()))
		case input != "":
			historyID, err := strconv.ParseInt(input, 10, 64)
			if err != nil {
				fmt.Fprintf(os.Stderr, "unknown command: %s\n", input)
				break
			}
			coordinator.PressIn(historyID)
			coordinator.Press(historyID)
			runReport(client, patientID, historyID, log)
		}

		fmt.Print("\n[r]efresh, <history-id> for report, [q]uit > ")
	}
}

// runReport shows a single analysis report
func runReport(client *api.Client, patientID string, historyID int64, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	report, err := client.GetReport(ctx, historyID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[Error] %s\n", err)
		return
	}

	// Demographics are shown on the report header; a missing record is
	// not fatal here.
	patient, err := client.GetPatientData(ctx, patientID)
	if err != nil {
		log.Debug("patient record unavailable for report header", zap.Error(err))
		patient = nil
	}

	fmt.Print(ui.RenderReport(patient, report))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
