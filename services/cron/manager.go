package cron

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/pkg/errors"
	"github.com/sahilchouksey/campus-api/database"
	"github.com/sahilchouksey/campus-api/model"
	"github.com/sahilchouksey/campus-api/services"
	"go.uber.org/zap"
)

const (
	JobRefreshStructureTree = "refresh_structure_tree"
	JobReconcileStreams     = "reconcile_stream_counts"
	JobAuditStructure       = "audit_structure"

	jobTimeout = 10 * time.Minute
)

// TreeRefresher rebuilds the cached structure overview
type TreeRefresher interface {
	RefreshTree(ctx context.Context) (int, error)
}

// StreamReconciler fixes drifted stream counts
type StreamReconciler interface {
	ReconcileStreamCounts(ctx context.Context) ([]string, error)
}

// Auditor walks the hierarchy looking for broken structure
type Auditor interface {
	Run(ctx context.Context) (*services.AuditReport, error)
}

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron      *cron.Cron
	store     database.DocumentStore
	tree      services.Hierarchy
	logger    *zap.Logger
	refresher TreeRefresher
	streams   StreamReconciler
	auditor   Auditor
	now       func() time.Time
}

// NewCronManager creates a new cron manager. Job runs are recorded under
// colleges/<collegeID>/cron_logs.
func NewCronManager(store database.DocumentStore, collegeID string, logger *zap.Logger, refresher TreeRefresher, streams StreamReconciler, auditor Auditor) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cronLogger{logger})))

	return &CronManager{
		cron:      c,
		store:     store,
		tree:      services.Hierarchy{CollegeID: collegeID},
		logger:    logger,
		refresher: refresher,
		streams:   streams,
		auditor:   auditor,
		now:       time.Now,
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	m.logger.Info("starting cron jobs")

	if err := m.registerJobs(); err != nil {
		return err
	}
	m.cron.Start()

	m.logger.Info("cron jobs started", zap.Int("jobs", len(m.cron.Entries())))
	return nil
}

// Stop stops all cron jobs and waits for running ones
func (m *CronManager) Stop() {
	m.logger.Info("stopping cron jobs")
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.logger.Info("cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// Shortly after midnight so year labels roll over with the calendar
	if _, err := m.cron.AddFunc("0 5 0 * * *", func() {
		m.RunJob(JobRefreshStructureTree, m.RefreshStructureTree)
	}); err != nil {
		return err
	}

	if _, err := m.cron.AddFunc("0 0 * * * *", func() {
		m.RunJob(JobReconcileStreams, m.ReconcileStreamCounts)
	}); err != nil {
		return err
	}

	if _, err := m.cron.AddFunc("0 0 2 * * *", func() {
		m.RunJob(JobAuditStructure, m.AuditStructure)
	}); err != nil {
		return err
	}

	return nil
}

// RunJob runs one job with a timeout and records its outcome
func (m *CronManager) RunJob(jobName string, job func(ctx context.Context) (string, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	started := m.now()
	logID := m.logJobStart(ctx, jobName, started)

	message, err := job(ctx)
	if err != nil {
		m.logJobError(ctx, logID, jobName, started, err)
		return
	}
	m.logJobComplete(ctx, logID, jobName, started, message)
}

func (m *CronManager) logPath(id string) string {
	return database.JoinPath(m.tree.Collection("cron_logs"), id)
}

// logJobStart records a running job and returns the id of its log document
func (m *CronManager) logJobStart(ctx context.Context, jobName string, started time.Time) string {
	m.logger.Info("cron job starting", zap.String("job", jobName))

	id := uuid.NewString()
	b := m.store.Batch()
	b.Set(m.logPath(id), map[string]interface{}{
		"job_name":   jobName,
		"status":     "running",
		"started_at": started.UnixMilli(),
	}, false)
	if err := b.Commit(ctx); err != nil {
		m.logger.Warn("failed to record cron job start", zap.String("job", jobName), zap.Error(err))
	}
	return id
}

// logJobComplete logs successful completion of a cron job
func (m *CronManager) logJobComplete(ctx context.Context, id, jobName string, started time.Time, message string) {
	done := m.now()
	m.logger.Info("cron job completed",
		zap.String("job", jobName),
		zap.String("message", message),
		zap.Duration("took", done.Sub(started)))

	m.finishLog(ctx, id, jobName, map[string]interface{}{
		"status":       "completed",
		"completed_at": done.UnixMilli(),
		"duration_ms":  done.Sub(started).Milliseconds(),
		"message":      message,
	})
}

// logJobError logs a cron job error
func (m *CronManager) logJobError(ctx context.Context, id, jobName string, started time.Time, err error) {
	done := m.now()
	m.logger.Error("cron job failed", zap.String("job", jobName), zap.Error(err))

	m.finishLog(ctx, id, jobName, map[string]interface{}{
		"status":       "failed",
		"completed_at": done.UnixMilli(),
		"duration_ms":  done.Sub(started).Milliseconds(),
		"error_msg":    err.Error(),
	})
}

func (m *CronManager) finishLog(ctx context.Context, id, jobName string, data map[string]interface{}) {
	b := m.store.Batch()
	b.Set(m.logPath(id), data, true)
	if err := b.Commit(ctx); err != nil {
		m.logger.Warn("failed to record cron job result", zap.String("job", jobName), zap.Error(err))
	}
}

// Runs returns the most recent job runs, newest first. A limit of zero
// returns every recorded run.
func (m *CronManager) Runs(ctx context.Context, limit int) ([]model.CronJobLog, error) {
	docs, err := m.store.List(ctx, m.tree.Collection("cron_logs"))
	if err != nil {
		return nil, errors.Wrap(err, "list cron logs")
	}

	runs := make([]model.CronJobLog, 0, len(docs))
	for _, doc := range docs {
		raw, err := json.Marshal(doc.Data)
		if err != nil {
			return nil, errors.Wrapf(err, "encode cron log %s", doc.ID)
		}
		var run model.CronJobLog
		if err := json.Unmarshal(raw, &run); err != nil {
			return nil, errors.Wrapf(err, "decode cron log %s", doc.ID)
		}
		run.ID = doc.ID
		runs = append(runs, run)
	}

	sort.SliceStable(runs, func(i, j int) bool { return runs[i].StartedAt > runs[j].StartedAt })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Infow(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().With(zap.Error(err)).Errorw(msg, keysAndValues...)
}
