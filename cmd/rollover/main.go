// Command rollover creates the year instances of every active module and lecturer profile
// of an organisation and prints the per-item outcome.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	"github.com/SMTech-UK/workload-wizard-sub001/internal/repository"
	"github.com/SMTech-UK/workload-wizard-sub001/internal/service"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/config"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/database"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/logger"
)

func main() {
	orgID := flag.String("org", "", "organisation id")
	yearID := flag.String("year", "", "target academic year id")
	userID := flag.String("user", "rollover-cli", "user id recorded in the audit trail")
	only := flag.String("only", "all", "what to roll over: modules, lecturers or all")
	flag.Parse()

	if *orgID == "" || *yearID == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	audit := service.NewAuditRecorder(repository.NewAuditRepository(db), logr)
	batches := service.NewBatchService(service.BatchDeps{
		ModuleProfiles:   repository.NewModuleProfileRepository(db),
		Modules:          repository.NewModuleRepository(db),
		LecturerProfiles: repository.NewLecturerProfileRepository(db),
		Lecturers:        repository.NewLecturerRepository(db),
		Years:            repository.NewAcademicYearRepository(db),
		Audit:            audit,
		Policies: service.BatchPolicies{
			BulkImport: service.ParseAuditPolicy(cfg.Audit.BulkMode, service.AuditPolicyBatch),
			Rollover:   service.ParseAuditPolicy(cfg.Audit.RolloverMode, service.AuditPolicyNone),
		},
	}, nil, logr)

	if _, err := service.NewOrganisationService(repository.NewOrganisationRepository(db)).Resolve(ctx, *orgID); err != nil {
		color.Red("organisation %s: %v", *orgID, err)
		os.Exit(1)
	}

	actor := models.Actor{UserID: *userID, OrganisationID: *orgID}
	req := service.RolloverRequest{AcademicYearID: *yearID}
	failed := false

	if *only == "all" || *only == "modules" {
		results, err := batches.RolloverModules(ctx, actor, req)
		if err != nil {
			color.Red("module rollover: %v", err)
			os.Exit(1)
		}
		failed = renderResults(os.Stdout, "Module rollover", results) || failed
	}
	if *only == "all" || *only == "lecturers" {
		results, err := batches.RolloverLecturers(ctx, actor, req)
		if err != nil {
			color.Red("lecturer rollover: %v", err)
			os.Exit(1)
		}
		failed = renderResults(os.Stdout, "Lecturer rollover", results) || failed
	}

	if failed {
		os.Exit(1)
	}
}

// renderResults prints one table row per item and a summary line. Items already present
// in the year count as skipped. It reports whether any item failed for another reason.
func renderResults(w io.Writer, title string, results []models.BulkResult) bool {
	color.New(color.FgCyan).Fprintf(w, "\n=== %s ===\n", title) //nolint:errcheck

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Code", "Result", "ID", "Error"})
	created, skipped, failed := 0, 0, 0
	for _, r := range results {
		outcome := "created"
		switch {
		case r.Success:
			created++
		case r.Error == service.MessageAlreadyInYear:
			outcome = "skipped"
			skipped++
		default:
			outcome = "failed"
			failed++
		}
		table.Append([]string{r.Code, outcome, r.ID, r.Error})
	}
	table.Render()

	line := fmt.Sprintf("%d total, %d created, %d skipped, %d failed", len(results), created, skipped, failed)
	switch {
	case failed > 0:
		color.New(color.FgRed).Fprintln(w, line) //nolint:errcheck
	case skipped > 0:
		color.New(color.FgYellow).Fprintln(w, line) //nolint:errcheck
	default:
		color.New(color.FgGreen).Fprintln(w, line) //nolint:errcheck
	}
	return failed > 0
}
