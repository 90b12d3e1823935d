package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/sahilchouksey/campus-api/app"
	"github.com/sahilchouksey/campus-api/services"
)

// audit walks the hierarchy of the configured college and exits 1 when a
// batch no longer has the shape provisioning gave it.
func main() {
	asJSON := flag.Bool("json", false, "print the report as JSON")
	flag.Parse()

	ctx := context.Background()
	cfg, logger, store, _, err := app.Bootstrap(ctx)
	if err != nil {
		log.Fatalf("Failed to open document store: %v", err)
	}
	defer store.Close()
	defer logger.Sync()

	report, err := services.NewAuditService(store, cfg.CollegeID, logger).Run(ctx)
	if err != nil {
		log.Fatalf("Audit failed: %v", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			log.Fatalf("Failed to print report: %v", err)
		}
	} else {
		fmt.Printf("College %s: %d degrees, %d batches, %d sections\n",
			cfg.CollegeID, report.Degrees, report.Batches, report.Sections)
		for _, v := range report.Violations {
			fmt.Printf("  %s: %s\n", v.Path, v.Problem)
		}
	}

	if !report.OK() {
		fmt.Printf("%d violations found\n", len(report.Violations))
		store.Close()
		os.Exit(1)
	}
	fmt.Println("No violations found")
}
