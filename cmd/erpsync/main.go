// Command erpsync runs one full synchronization for a tenant and prints the report.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appsync "github.com/rahulmuralitechnology/cartzilla-sub003/internal/application/erpsync"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/bootstrap"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/domain/erpsync"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/config"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/logger"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/telemetry"
)

const logShutdownTimeout = 5 * time.Second

func main() {
	os.Exit(realMain())
}

// realMain returns the exit code so deferred cleanup runs before os.Exit
func realMain() int {
	var (
		tenant    string
		kinds     string
		batchSize int
		timeout   time.Duration
		asJSON    bool
		checkOnly bool
	)

	flag.StringVar(&tenant, "tenant", "", "Tenant ID (required)")
	flag.StringVar(&kinds, "kinds", "", "Comma-separated entity kinds (default: erp.default_entity_kinds)")
	flag.IntVar(&batchSize, "batch", 0, "Page size (default: erp.default_batch_size)")
	flag.DurationVar(&timeout, "timeout", 30*time.Minute, "Upper bound for the whole run")
	flag.BoolVar(&asJSON, "json", false, "Print the full report as JSON")
	flag.BoolVar(&checkOnly, "check", false, "Only test the tenant's ERP connection")
	flag.Parse()

	tenantID, err := uuid.Parse(tenant)
	if err != nil {
		fmt.Fprintln(os.Stderr, "a valid -tenant UUID is required")
		flag.Usage()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log, logs, err := bootstrap.NewLogger(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer closeLogs(logs, log)

	return run(ctx, cfg, log, tenantID, splitKinds(kinds), batchSize, asJSON, checkOnly)
}

// closeLogs exports buffered OTEL records, then flushes the zap logger.
// The run context may already be cancelled, so shutdown gets its own deadline.
func closeLogs(logs *telemetry.LoggerProvider, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), logShutdownTimeout)
	defer cancel()
	if err := logs.Shutdown(ctx); err != nil {
		log.Error("Error shutting down log export", zap.Error(err))
	}
	_ = log.Sync()
}

func run(
	ctx context.Context,
	cfg *config.Config,
	log *zap.Logger,
	tenantID uuid.UUID,
	kinds []string,
	batchSize int,
	asJSON, checkOnly bool,
) int {
	db, err := bootstrap.OpenDatabase(cfg, log)
	if err != nil {
		log.Error("Failed to connect to database", zap.Error(err))
		return 1
	}
	defer db.Close()

	core, err := bootstrap.NewCore(ctx, cfg, db, nil, log)
	if err != nil {
		log.Error("Failed to initialize sync engine", zap.Error(err))
		return 1
	}
	defer core.Close()

	ctx = logger.WithTenantID(ctx, tenantID.String())

	if checkOnly {
		diag, err := core.Checker.Check(ctx, tenantID)
		if err != nil {
			log.Error("Connection check failed", zap.Error(err))
			return 1
		}
		printJSON(diag)
		if diag.Status != appsync.DiagnosticOK {
			return 1
		}
		return 0
	}

	report, err := core.Runs.Run(ctx, tenantID, kinds, batchSize)
	status := appsync.RunStatus(report, err)
	if err != nil {
		log.Error("Full sync failed", zap.String("status", status), zap.Error(err))
		return 1
	}

	if asJSON {
		printJSON(report)
	} else {
		printSummary(report, status)
	}
	if status != appsync.RunStatusCompleted {
		return 3
	}
	return 0
}

func splitKinds(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func printSummary(report *erpsync.BatchReport, status string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tDOCTYPE\tCREATED\tEXISTS\tFAILED\tERROR")
	for _, k := range report.Kinds {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n", k.Kind, k.DocumentType, k.Created, k.Exists, k.Failed, k.Error)
	}
	created, exists, failed := report.Totals()
	fmt.Fprintf(w, "TOTAL\t\t%d\t%d\t%d\t\n", created, exists, failed)
	_ = w.Flush()
	fmt.Printf("status=%s duration=%s\n", status, report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
