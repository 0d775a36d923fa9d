package health

import (
	"fmt"
	"os"
	"path/filepath"

	"sekolahpay/internal/config"
)

// Warning thresholds for the housekeeping checks.
const (
	ExpiredOtpWarningCount = 100
	LogSizeWarningBytes    = 100 * 1024 * 1024
)

// Store is the datastore view the health check needs. A nil Store is
// treated as an unreachable datastore.
type Store interface {
	Ping() error
	CountStudentsWithPhone() (int64, error)
	CountExpiredUnverifiedOtps() (int64, error)
}

// Report is the outcome of one pre-flight run.
type Report struct {
	TotalChecks int      `json:"total_checks"`
	Passed      int      `json:"passed"`
	Issues      []string `json:"issues"`
}

// OK reports whether every check passed.
func (r *Report) OK() bool {
	return len(r.Issues) == 0
}

// ExitCode returns the process exit code automation should use.
func (r *Report) ExitCode() int {
	if r.OK() {
		return 0
	}
	return 1
}

func (r *Report) record(issue string) {
	r.TotalChecks++
	if issue == "" {
		r.Passed++
		return
	}
	r.Issues = append(r.Issues, issue)
}

// Checker runs the pre-flight validation. Every check runs regardless of
// earlier failures.
type Checker struct {
	cfg   *config.Config
	store Store
}

// NewChecker creates a health checker
func NewChecker(cfg *config.Config, store Store) *Checker {
	return &Checker{cfg: cfg, store: store}
}

// Run executes all checks and returns the report.
func (c *Checker) Run() *Report {
	report := &Report{}

	report.record(c.checkDatabase())
	report.record(c.checkTimezone())
	for _, issue := range c.checkWablasConfig() {
		report.record(issue)
	}
	report.record(c.checkStorageWritable())
	report.record(c.checkRecipientsExist())
	report.record(c.checkExpiredOtps())
	report.record(c.checkLogSize())

	return report
}

func (c *Checker) checkDatabase() string {
	if c.store == nil {
		return "Database unreachable: no connection"
	}
	if err := c.store.Ping(); err != nil {
		return fmt.Sprintf("Database unreachable: %v", err)
	}
	return ""
}

func (c *Checker) checkTimezone() string {
	if c.cfg.Timezone != config.ExpectedTimezone {
		return fmt.Sprintf("Timezone is %q, expected %q", c.cfg.Timezone, config.ExpectedTimezone)
	}
	return ""
}

// checkWablasConfig returns one entry per credential so the report shows
// exactly which variables are missing. Empty strings mean the check passed.
func (c *Checker) checkWablasConfig() []string {
	creds := []struct {
		name  string
		value string
	}{
		{"WABLAS_BASE_URL", c.cfg.WablasBaseURL},
		{"WABLAS_API_KEY", c.cfg.WablasAPIKey},
		{"WABLAS_SECRET_KEY", c.cfg.WablasSecretKey},
		{"WABLAS_DEVICE_ID", c.cfg.WablasDeviceID},
	}

	issues := make([]string, len(creds))
	for i, cred := range creds {
		if cred.value == "" {
			issues[i] = fmt.Sprintf("Missing Wablas configuration: %s", cred.name)
		}
	}
	return issues
}

func (c *Checker) checkStorageWritable() string {
	if err := os.MkdirAll(c.cfg.StoragePath, 0o755); err != nil {
		return fmt.Sprintf("Storage directory not writable: %v", err)
	}
	probe := filepath.Join(c.cfg.StoragePath, ".health-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return fmt.Sprintf("Storage directory not writable: %v", err)
	}
	os.Remove(probe)
	return ""
}

func (c *Checker) checkRecipientsExist() string {
	if c.store == nil {
		return "Cannot count recipients: no database connection"
	}
	count, err := c.store.CountStudentsWithPhone()
	if err != nil {
		return fmt.Sprintf("Cannot count recipients: %v", err)
	}
	if count == 0 {
		return "No students with a guardian phone on file"
	}
	return ""
}

func (c *Checker) checkExpiredOtps() string {
	if c.store == nil {
		return "Cannot count expired OTP challenges: no database connection"
	}
	count, err := c.store.CountExpiredUnverifiedOtps()
	if err != nil {
		return fmt.Sprintf("Cannot count expired OTP challenges: %v", err)
	}
	if count >= ExpiredOtpWarningCount {
		return fmt.Sprintf("%d expired unverified OTP challenges pending cleanup (threshold %d)", count, ExpiredOtpWarningCount)
	}
	return ""
}

func (c *Checker) checkLogSize() string {
	info, err := os.Stat(c.cfg.LogFile)
	if err != nil {
		// A missing log file is fine; it just has not been created yet.
		return ""
	}
	if info.Size() >= LogSizeWarningBytes {
		return fmt.Sprintf("Log file %s is %d bytes (threshold %d)", c.cfg.LogFile, info.Size(), LogSizeWarningBytes)
	}
	return ""
}
