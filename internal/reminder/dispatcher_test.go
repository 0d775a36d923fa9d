package reminder

import (
	"testing"
	"time"

	"sekolahpay/internal/config"
	"sekolahpay/internal/models"
	"sekolahpay/internal/wablas"
)

// fakeSender records sends and fails for phones listed in failPhones.
type fakeSender struct {
	sent       []string
	failPhones map[string]bool
}

func (f *fakeSender) SendMessage(phone, message string) wablas.SendResult {
	normalized := wablas.NormalizePhone(phone)
	f.sent = append(f.sent, normalized)
	if f.failPhones[normalized] {
		return wablas.SendResult{ErrorDetail: "simulated gateway failure"}
	}
	return wablas.SendResult{Succeeded: true, ProviderResponse: []byte(`{"status":true}`)}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestDispatcher(store Store, sender Sender, now time.Time) *Dispatcher {
	d := NewDispatcher(testConfig(), store, sender)
	d.MonthlyDelay = 0
	d.ReminderDelay = 0
	d.now = fixedClock(now)
	return d
}

func TestRunMonthlyBroadcast_SkipsEmptyPhones(t *testing.T) {
	store := &fakeStore{
		students: []models.Student{
			{ID: 1, Name: "Aisyah", NIS: "2301", GuardianPhone: "081111111111"},
			{ID: 2, Name: "Budi", NIS: "2302", GuardianPhone: ""},
			{ID: 3, Name: "Citra", NIS: "2303", GuardianPhone: "082222222222"},
		},
	}
	sender := &fakeSender{}
	d := newTestDispatcher(store, sender, time.Date(2026, time.September, 1, 6, 0, 0, 0, time.UTC))

	summary, err := d.RunMonthlyBroadcast(false)
	if err != nil {
		t.Fatalf("RunMonthlyBroadcast: %v", err)
	}

	if summary.TotalProcessed != 2 {
		t.Errorf("TotalProcessed = %d, want 2 (empty phone skipped)", summary.TotalProcessed)
	}
	if summary.SuccessCount != 2 || summary.FailureCount != 0 {
		t.Errorf("summary = {success:%d, failure:%d}, want {success:2, failure:0}",
			summary.SuccessCount, summary.FailureCount)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sender.sent))
	}
	// Deterministic name-ascending order.
	if sender.sent[0] != "6281111111111" || sender.sent[1] != "6282222222222" {
		t.Errorf("send order = %v", sender.sent)
	}
}

func TestRunMonthlyBroadcast_Accounting(t *testing.T) {
	store := &fakeStore{
		students: []models.Student{
			{ID: 1, Name: "Aisyah", NIS: "2301", GuardianPhone: "081111111111"},
			{ID: 2, Name: "Budi", NIS: "2302", GuardianPhone: "082222222222"},
			{ID: 3, Name: "Citra", NIS: "2303", GuardianPhone: "083333333333"},
		},
	}
	sender := &fakeSender{failPhones: map[string]bool{"6282222222222": true}}
	d := newTestDispatcher(store, sender, time.Date(2026, time.September, 1, 6, 0, 0, 0, time.UTC))

	summary, err := d.RunMonthlyBroadcast(false)
	if err != nil {
		t.Fatalf("RunMonthlyBroadcast: %v", err)
	}

	if summary.SuccessCount+summary.FailureCount != summary.TotalProcessed {
		t.Errorf("success %d + failure %d != total %d",
			summary.SuccessCount, summary.FailureCount, summary.TotalProcessed)
	}
	if summary.FailureCount != 1 {
		t.Errorf("FailureCount = %d, want 1", summary.FailureCount)
	}
	if summary.SuccessCount != 2 {
		t.Errorf("SuccessCount = %d, want 2", summary.SuccessCount)
	}
}

func TestRunMonthlyBroadcast_TestMode(t *testing.T) {
	store := &fakeStore{
		students: []models.Student{
			{ID: 1, Name: "Aisyah", NIS: "2301", GuardianPhone: "081111111111"},
		},
	}
	sender := &fakeSender{}
	d := newTestDispatcher(store, sender, time.Date(2026, time.September, 1, 6, 0, 0, 0, time.UTC))

	summary, err := d.RunMonthlyBroadcast(true)
	if err != nil {
		t.Fatalf("RunMonthlyBroadcast: %v", err)
	}

	if len(sender.sent) != 0 {
		t.Errorf("test mode must not hit the gateway, sent %v", sender.sent)
	}
	if summary.SuccessCount != 1 {
		t.Errorf("test mode records synthetic successes, got %d", summary.SuccessCount)
	}
}

func TestRunMonthlyBroadcast_NoStudents(t *testing.T) {
	d := newTestDispatcher(&fakeStore{}, &fakeSender{}, time.Date(2026, time.September, 1, 6, 0, 0, 0, time.UTC))

	summary, err := d.RunMonthlyBroadcast(false)
	if err != nil {
		t.Fatalf("RunMonthlyBroadcast: %v", err)
	}
	if !summary.Skipped {
		t.Error("empty recipient set should be an informational no-op")
	}
}

func TestNewDispatcher_ClockUsesConfiguredZone(t *testing.T) {
	cfg := testConfig()
	cfg.Timezone = config.ExpectedTimezone

	d := NewDispatcher(cfg, &fakeStore{}, &fakeSender{})
	if got := d.now().Location().String(); got != config.ExpectedTimezone {
		t.Errorf("dispatcher clock zone = %q, want %q", got, config.ExpectedTimezone)
	}
}

func TestRunDueDateReminders_GateFollowsSchoolTime(t *testing.T) {
	// 23:00 UTC on August 31 is already September 1 in Jakarta. The
	// day-of-month gate reads the run clock, which the dispatcher keeps in
	// school time, so this run must not skip even when the process zone
	// says it is still the 31st.
	loc := jakarta(t)
	instant := time.Date(2026, time.August, 31, 23, 0, 0, 0, time.UTC).In(loc)
	if instant.Day() != 1 {
		t.Fatalf("instant is day %d in Jakarta, want 1", instant.Day())
	}

	store := &fakeStore{
		students: []models.Student{
			{ID: 1, Name: "Aisyah", NIS: "2301", GuardianPhone: "081111111111"},
		},
		paymentTypes: []models.PaymentType{
			{ID: 1, Name: "SPP", Code: "SPP", DefaultAmount: 150000, IsMandatory: true, IsActive: true},
		},
	}
	sender := &fakeSender{}
	d := newTestDispatcher(store, sender, instant)

	summary, err := d.RunDueDateReminders(false)
	if err != nil {
		t.Fatalf("RunDueDateReminders: %v", err)
	}
	if summary.Skipped {
		t.Fatal("run on the 1st in school time must not skip")
	}
	if len(sender.sent) != 1 {
		t.Errorf("sent = %v, want 1 send", sender.sent)
	}
	wantDue := time.Date(2026, time.September, 10, 0, 0, 0, 0, loc)
	if !summary.DueDate.Equal(wantDue) {
		t.Errorf("DueDate = %v, want %v", summary.DueDate, wantDue)
	}
}

func TestRunDueDateReminders_NoOpOffSchedule(t *testing.T) {
	sender := &fakeSender{}
	d := newTestDispatcher(&fakeStore{}, sender, time.Date(2026, time.September, 14, 6, 0, 0, 0, time.UTC))

	summary, err := d.RunDueDateReminders(false)
	if err != nil {
		t.Fatalf("RunDueDateReminders: %v", err)
	}
	if !summary.Skipped {
		t.Error("run on the 14th without force must be a no-op")
	}
	if len(sender.sent) != 0 {
		t.Errorf("no-op run must not send, sent %v", sender.sent)
	}
}

func TestRunDueDateReminders_TargetsUnpaidOnly(t *testing.T) {
	store := &fakeStore{
		students: []models.Student{
			{ID: 1, Name: "Aisyah", NIS: "2301", GuardianPhone: "081111111111"},
			{ID: 2, Name: "Budi", NIS: "2302", GuardianPhone: "082222222222"},
		},
		paymentTypes: []models.PaymentType{
			{ID: 1, Name: "SPP", Code: "SPP", DefaultAmount: 150000, IsMandatory: true, IsActive: true},
			{ID: 2, Name: "Seragam", Code: "SRG", DefaultAmount: 300000, IsMandatory: false, IsActive: true},
			{ID: 3, Name: "Uang Gedung", Code: "GDG", DefaultAmount: 500000, IsMandatory: true, IsActive: false},
		},
		approved: map[string]bool{
			approvedKey(2, 1, 2026, time.September): true,
		},
	}
	sender := &fakeSender{}
	d := newTestDispatcher(store, sender, time.Date(2026, time.September, 1, 6, 0, 0, 0, time.UTC))

	summary, err := d.RunDueDateReminders(false)
	if err != nil {
		t.Fatalf("RunDueDateReminders: %v", err)
	}

	// Only the mandatory+active SPP type generates reminders, and only
	// Aisyah still owes it.
	if len(sender.sent) != 1 || sender.sent[0] != "6281111111111" {
		t.Errorf("sent = %v, want only Aisyah", sender.sent)
	}
	if summary.SuccessCount != 1 || summary.FailureCount != 0 {
		t.Errorf("summary = {success:%d, failure:%d}, want {1, 0}",
			summary.SuccessCount, summary.FailureCount)
	}
	wantDue := time.Date(2026, time.September, 10, 0, 0, 0, 0, time.UTC)
	if !summary.DueDate.Equal(wantDue) {
		t.Errorf("DueDate = %v, want %v", summary.DueDate, wantDue)
	}
}

func TestRunDueDateReminders_Forced(t *testing.T) {
	store := &fakeStore{
		students: []models.Student{
			{ID: 1, Name: "Aisyah", NIS: "2301", GuardianPhone: "081111111111"},
		},
		paymentTypes: []models.PaymentType{
			{ID: 1, Name: "SPP", Code: "SPP", DefaultAmount: 150000, IsMandatory: true, IsActive: true},
		},
	}
	sender := &fakeSender{}
	// The 15th: past the 10th, so the due date rolls to next month.
	d := newTestDispatcher(store, sender, time.Date(2026, time.September, 15, 6, 0, 0, 0, time.UTC))

	summary, err := d.RunDueDateReminders(true)
	if err != nil {
		t.Fatalf("RunDueDateReminders: %v", err)
	}
	if summary.Skipped {
		t.Fatal("forced run must not skip")
	}
	wantDue := time.Date(2026, time.October, 10, 0, 0, 0, 0, time.UTC)
	if !summary.DueDate.Equal(wantDue) {
		t.Errorf("DueDate = %v, want rolled %v", summary.DueDate, wantDue)
	}
	if len(sender.sent) != 1 {
		t.Errorf("sent = %v, want 1 send", sender.sent)
	}
}

// panicSender simulates an unexpected fault while processing one recipient.
type panicSender struct {
	panicPhone string
	sent       []string
}

func (p *panicSender) SendMessage(phone, message string) wablas.SendResult {
	normalized := wablas.NormalizePhone(phone)
	if normalized == p.panicPhone {
		panic("unexpected fault")
	}
	p.sent = append(p.sent, normalized)
	return wablas.SendResult{Succeeded: true}
}

func TestRunMonthlyBroadcast_PanicCountedAsFailure(t *testing.T) {
	store := &fakeStore{
		students: []models.Student{
			{ID: 1, Name: "Aisyah", NIS: "2301", GuardianPhone: "081111111111"},
			{ID: 2, Name: "Budi", NIS: "2302", GuardianPhone: "082222222222"},
		},
	}
	sender := &panicSender{panicPhone: "6281111111111"}
	d := newTestDispatcher(store, sender, time.Date(2026, time.September, 1, 6, 0, 0, 0, time.UTC))

	summary, err := d.RunMonthlyBroadcast(false)
	if err != nil {
		t.Fatalf("RunMonthlyBroadcast: %v", err)
	}
	if summary.FailureCount != 1 || summary.SuccessCount != 1 {
		t.Errorf("summary = {success:%d, failure:%d}, want {1, 1}",
			summary.SuccessCount, summary.FailureCount)
	}
	if len(sender.sent) != 1 || sender.sent[0] != "6282222222222" {
		t.Errorf("batch must continue past the fault, sent %v", sender.sent)
	}
}

func TestBuildConfirmationTask(t *testing.T) {
	policy := NewPolicy(testConfig(), &fakeStore{})
	payment := models.Payment{
		ID:          42,
		Reference:   "ref-42",
		Amount:      150000,
		Status:      models.PaymentApproved,
		Student:     models.Student{Name: "Aisyah", GuardianPhone: "081111111111"},
		PaymentType: models.PaymentType{Name: "SPP"},
	}

	task := BuildConfirmationTask(policy, payment)
	if task.PaymentID == nil || *task.PaymentID != 42 {
		t.Error("task must reference the payment")
	}
	if task.Phone != "6281111111111" {
		t.Errorf("task phone = %q, want normalized", task.Phone)
	}
	if task.Status != models.NotificationPending {
		t.Errorf("task status = %q, want pending", task.Status)
	}
}
