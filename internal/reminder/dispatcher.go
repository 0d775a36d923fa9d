package reminder

import (
	"fmt"
	"log"
	"time"

	"sekolahpay/internal/config"
	"sekolahpay/internal/models"
	"sekolahpay/internal/wablas"
)

// Sender sends one WhatsApp message. Satisfied by *wablas.Client.
type Sender interface {
	SendMessage(phone, message string) wablas.SendResult
}

// Default pacing between sends. The fixed sleep is the only rate limiting
// applied against the gateway.
const (
	DefaultMonthlyDelay  = 500 * time.Millisecond
	DefaultReminderDelay = 1000 * time.Millisecond
)

// RunSummary is the aggregate outcome of one batch run.
type RunSummary struct {
	Mode           string        `json:"mode"`
	TestMode       bool          `json:"test_mode"`
	Skipped        bool          `json:"skipped"`
	SkipReason     string        `json:"skip_reason,omitempty"`
	DueDate        time.Time     `json:"due_date,omitempty"`
	SuccessCount   int           `json:"success_count"`
	FailureCount   int           `json:"failure_count"`
	TotalProcessed int           `json:"total_processed"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
}

// Dispatcher orchestrates batch sends: it pulls targets from the policy
// engine, sends one message per target through the gateway, paces sends
// with a fixed delay, and accumulates counts. A failure on one recipient
// never aborts the batch.
type Dispatcher struct {
	cfg    *config.Config
	store  Store
	policy *Policy
	sender Sender

	// MonthlyDelay and ReminderDelay pace sends; tests set them to zero.
	MonthlyDelay  time.Duration
	ReminderDelay time.Duration

	now func() time.Time
}

// NewDispatcher creates a dispatcher over the given registry and gateway.
// The clock reads in the configured timezone so the day-of-month gate and
// the due date follow school time, not the process-local zone.
func NewDispatcher(cfg *config.Config, store Store, sender Sender) *Dispatcher {
	return &Dispatcher{
		cfg:           cfg,
		store:         store,
		policy:        NewPolicy(cfg, store),
		sender:        sender,
		MonthlyDelay:  DefaultMonthlyDelay,
		ReminderDelay: DefaultReminderDelay,
		now:           func() time.Time { return time.Now().In(cfg.Location()) },
	}
}

// RunMonthlyBroadcast sends the blanket monthly reminder to every student
// with a guardian phone on file, regardless of paid status. In test mode
// messages are logged instead of sent and recorded as successes.
func (d *Dispatcher) RunMonthlyBroadcast(testMode bool) (*RunSummary, error) {
	start := d.now()
	summary := &RunSummary{Mode: "monthly-broadcast", TestMode: testMode, StartedAt: start}

	students, err := d.store.StudentsWithPhone()
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	if len(students) == 0 {
		summary.Skipped = true
		summary.SkipReason = "no students with a guardian phone on file"
		log.Println("Monthly broadcast: nothing to send")
		return summary, nil
	}

	log.Printf("Monthly broadcast: sending to %d students (test mode: %v)", len(students), testMode)
	for i, student := range students {
		d.processOne(summary, student.GuardianPhone, testMode, func() string {
			return d.policy.BuildMonthlyMessage(student, start)
		})
		log.Printf("Monthly broadcast progress: %d/%d", i+1, len(students))
		if i < len(students)-1 {
			time.Sleep(d.MonthlyDelay)
		}
	}

	summary.Duration = d.now().Sub(start)
	log.Printf("Monthly broadcast done: %d sent, %d failed, %d total in %v",
		summary.SuccessCount, summary.FailureCount, summary.TotalProcessed, summary.Duration)
	return summary, nil
}

// RunDueDateReminders sends targeted reminders for every mandatory active
// payment type to students without an approved payment in the due month.
// Without force it only runs on the 1st of the month.
func (d *Dispatcher) RunDueDateReminders(force bool) (*RunSummary, error) {
	start := d.now()
	summary := &RunSummary{Mode: "due-date-reminders", StartedAt: start}

	if !force && start.Day() != 1 {
		summary.Skipped = true
		summary.SkipReason = "not the 1st of the month; use force to override"
		log.Println("Due-date reminders: skipped, not the 1st of the month")
		return summary, nil
	}

	dueDate := ComputeDueDate(start)
	summary.DueDate = dueDate
	dueDateText := FormatDateIndonesian(dueDate)

	paymentTypes, err := d.store.ActiveMandatoryPaymentTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to list payment types: %w", err)
	}

	for _, paymentType := range paymentTypes {
		unpaid, err := d.policy.FindUnpaidStudents(paymentType, dueDate)
		if err != nil {
			log.Printf("Skipping payment type %s: %v", paymentType.Code, err)
			continue
		}
		log.Printf("Payment type %s: %d students unpaid for %s", paymentType.Code, len(unpaid), dueDateText)

		for i, student := range unpaid {
			d.processOne(summary, student.GuardianPhone, false, func() string {
				return d.policy.BuildReminderMessage(student, paymentType, dueDateText)
			})
			if i < len(unpaid)-1 {
				time.Sleep(d.ReminderDelay)
			}
		}
	}

	summary.Duration = d.now().Sub(start)
	log.Printf("Due-date reminders done: %d sent, %d failed, %d total in %v",
		summary.SuccessCount, summary.FailureCount, summary.TotalProcessed, summary.Duration)
	return summary, nil
}

// processOne builds and sends one message inside a recover boundary so a
// panic while handling a single recipient is counted as a failure and the
// batch continues.
func (d *Dispatcher) processOne(summary *RunSummary, phone string, testMode bool, build func() string) {
	summary.TotalProcessed++

	defer func() {
		if r := recover(); r != nil {
			summary.FailureCount++
			log.Printf("Recovered while processing %s: %v", phone, r)
		}
	}()

	message := build()

	if testMode {
		log.Printf("[TEST MODE] would send to %s:\n%s", wablas.NormalizePhone(phone), message)
		summary.SuccessCount++
		return
	}

	result := d.sender.SendMessage(phone, message)
	if result.Succeeded {
		summary.SuccessCount++
	} else {
		summary.FailureCount++
		log.Printf("Send to %s failed: %s", phone, result.ErrorDetail)
	}
}

// BuildConfirmationTask builds the queued task carrying the status
// confirmation for a validated payment. Delivery happens asynchronously in
// the notification worker.
func BuildConfirmationTask(policy *Policy, payment models.Payment) *models.NotificationTask {
	paymentID := payment.ID
	return &models.NotificationTask{
		PaymentID: &paymentID,
		Phone:     wablas.NormalizePhone(payment.Student.GuardianPhone),
		Message:   policy.BuildConfirmationMessage(payment),
		Status:    models.NotificationPending,
	}
}
