package model

// CronJobLog is the run record a cron job leaves under colleges/<id>/cron_logs
type CronJobLog struct {
	ID          string `json:"id"`
	JobName     string `json:"job_name"`
	Status      string `json:"status"` // running, completed, failed
	StartedAt   int64  `json:"started_at"`
	CompletedAt int64  `json:"completed_at,omitempty"`
	Duration    int64  `json:"duration_ms"`
	Message     string `json:"message,omitempty"`
	ErrorMsg    string `json:"error_msg,omitempty"`
}
