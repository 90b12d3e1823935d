package cron

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// RefreshStructureTree rebuilds the cached overview so current-year labels
// follow the calendar.
func (m *CronManager) RefreshStructureTree(ctx context.Context) (string, error) {
	batches, err := m.refresher.RefreshTree(ctx)
	if err != nil {
		return "", errors.Wrap(err, "refresh structure tree")
	}
	return fmt.Sprintf("Refreshed structure tree with %d batches", batches), nil
}

// ReconcileStreamCounts rewrites stream counts that drifted from the real
// number of streams
func (m *CronManager) ReconcileStreamCounts(ctx context.Context) (string, error) {
	fixed, err := m.streams.ReconcileStreamCounts(ctx)
	if err != nil {
		return "", errors.Wrap(err, "reconcile stream counts")
	}
	if len(fixed) == 0 {
		return "All stream counts up to date", nil
	}
	m.logger.Warn("stream counts corrected", zap.Strings("degrees", fixed))
	return fmt.Sprintf("Corrected stream count of %s", strings.Join(fixed, ", ")), nil
}

// AuditStructure walks the hierarchy and logs every violation it finds
func (m *CronManager) AuditStructure(ctx context.Context) (string, error) {
	report, err := m.auditor.Run(ctx)
	if err != nil {
		return "", errors.Wrap(err, "audit structure")
	}
	for _, v := range report.Violations {
		m.logger.Warn("structure violation", zap.String("path", v.Path), zap.String("problem", v.Problem))
	}
	return fmt.Sprintf("Checked %d batches and %d sections, %d violations",
		report.Batches, report.Sections, len(report.Violations)), nil
}
