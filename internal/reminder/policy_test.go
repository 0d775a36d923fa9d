package reminder

import (
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"sekolahpay/internal/config"
	"sekolahpay/internal/models"
)

// fakeStore is an in-memory Store for tests.
type fakeStore struct {
	students     []models.Student
	paymentTypes []models.PaymentType
	// approved payments keyed "studentID-typeID-year-month"
	approved map[string]bool
	err      error
}

func approvedKey(studentID, typeID uint, year int, month time.Month) string {
	return fmt.Sprintf("%d-%d-%d-%d", studentID, typeID, year, int(month))
}

func (f *fakeStore) AllStudents() ([]models.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Student, len(f.students))
	copy(out, f.students)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) StudentsWithPhone() ([]models.Student, error) {
	all, err := f.AllStudents()
	if err != nil {
		return nil, err
	}
	var out []models.Student
	for _, s := range all {
		if s.HasPhone() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) ActiveMandatoryPaymentTypes() ([]models.PaymentType, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.PaymentType
	for _, pt := range f.paymentTypes {
		if pt.IsMandatory && pt.IsActive {
			out = append(out, pt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) HasApprovedPayment(studentID, typeID uint, dueDate time.Time) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.approved[approvedKey(studentID, typeID, dueDate.Year(), dueDate.Month())], nil
}

func testConfig() *config.Config {
	return &config.Config{
		SchoolName: "SMP IT Al-Fikri",
		AdminPhone: "6281999888777",
		AppBaseURL: "https://bayar.alfikri.sch.id",
	}
}

func jakarta(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		t.Fatalf("load Asia/Jakarta: %v", err)
	}
	return loc
}

func TestComputeDueDate(t *testing.T) {
	loc := jakarta(t)

	// Invoked on the 1st: the 10th of the same month has not passed yet.
	today := time.Date(2026, time.September, 1, 7, 0, 0, 0, loc)
	due := ComputeDueDate(today)
	want := time.Date(2026, time.September, 10, 0, 0, 0, 0, loc)
	if !due.Equal(want) {
		t.Errorf("ComputeDueDate(%v) = %v, want %v", today, due, want)
	}

	// The 10th itself is still the due date.
	today = time.Date(2026, time.September, 10, 9, 0, 0, 0, loc)
	due = ComputeDueDate(today)
	if !due.Equal(want) {
		t.Errorf("ComputeDueDate(%v) = %v, want %v", today, due, want)
	}

	// The 10th already passed: roll to the 10th of next month.
	today = time.Date(2026, time.September, 15, 9, 0, 0, 0, loc)
	due = ComputeDueDate(today)
	want = time.Date(2026, time.October, 10, 0, 0, 0, 0, loc)
	if !due.Equal(want) {
		t.Errorf("ComputeDueDate(%v) = %v, want %v", today, due, want)
	}

	// December rolls into January of the next year.
	today = time.Date(2026, time.December, 20, 9, 0, 0, 0, loc)
	due = ComputeDueDate(today)
	want = time.Date(2027, time.January, 10, 0, 0, 0, 0, loc)
	if !due.Equal(want) {
		t.Errorf("ComputeDueDate(%v) = %v, want %v", today, due, want)
	}
}

func TestFindUnpaidStudents(t *testing.T) {
	loc := jakarta(t)
	dueDate := time.Date(2026, time.September, 10, 0, 0, 0, 0, loc)
	spp := models.PaymentType{ID: 1, Name: "SPP", Code: "SPP", DefaultAmount: 150000, IsMandatory: true, IsActive: true}

	store := &fakeStore{
		students: []models.Student{
			{ID: 1, Name: "Aisyah", NIS: "2301", GuardianPhone: "081111111111"},
			{ID: 2, Name: "Budi", NIS: "2302", GuardianPhone: "082222222222"},
			{ID: 3, Name: "Citra", NIS: "2303", GuardianPhone: ""},
			{ID: 4, Name: "Dewi", NIS: "2304", GuardianPhone: "083333333333"},
		},
		approved: map[string]bool{
			// Budi paid SPP for September: excluded.
			approvedKey(2, 1, 2026, time.September): true,
			// Dewi paid SPP for August only: still owes September.
			approvedKey(4, 1, 2026, time.August): true,
		},
	}

	policy := NewPolicy(testConfig(), store)
	unpaid, err := policy.FindUnpaidStudents(spp, dueDate)
	if err != nil {
		t.Fatalf("FindUnpaidStudents: %v", err)
	}

	var names []string
	for _, s := range unpaid {
		names = append(names, s.Name)
	}
	want := []string{"Aisyah", "Dewi"}
	if len(names) != len(want) {
		t.Fatalf("unpaid = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("unpaid[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestFindUnpaidStudents_PendingAndRejectedStillOwe(t *testing.T) {
	// Only approved payments exclude; the fake keys map holds approved
	// records only, so a student with pending/rejected records simply has
	// no entry and must be included.
	loc := jakarta(t)
	dueDate := time.Date(2026, time.September, 10, 0, 0, 0, 0, loc)
	spp := models.PaymentType{ID: 1, Name: "SPP", Code: "SPP", IsMandatory: true, IsActive: true}

	store := &fakeStore{
		students: []models.Student{{ID: 1, Name: "Aisyah", NIS: "2301", GuardianPhone: "081111111111"}},
		approved: map[string]bool{},
	}

	policy := NewPolicy(testConfig(), store)
	unpaid, err := policy.FindUnpaidStudents(spp, dueDate)
	if err != nil {
		t.Fatalf("FindUnpaidStudents: %v", err)
	}
	if len(unpaid) != 1 {
		t.Fatalf("got %d unpaid, want 1", len(unpaid))
	}
}

func TestFormatRupiah(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "Rp 0"},
		{500, "Rp 500"},
		{1500, "Rp 1.500"},
		{150000, "Rp 150.000"},
		{1250000, "Rp 1.250.000"},
		{100000000, "Rp 100.000.000"},
	}
	for _, c := range cases {
		if got := FormatRupiah(c.in); got != c.want {
			t.Errorf("FormatRupiah(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatDateIndonesian(t *testing.T) {
	d := time.Date(2026, time.September, 10, 0, 0, 0, 0, time.UTC)
	if got := FormatDateIndonesian(d); got != "10 September 2026" {
		t.Errorf("FormatDateIndonesian = %q", got)
	}
	d = time.Date(2027, time.January, 10, 0, 0, 0, 0, time.UTC)
	if got := FormatDateIndonesian(d); got != "10 Januari 2027" {
		t.Errorf("FormatDateIndonesian = %q", got)
	}
}

func TestBuildReminderMessage(t *testing.T) {
	policy := NewPolicy(testConfig(), &fakeStore{})
	student := models.Student{Name: "Aisyah", ClassLabel: "7A", NIS: "2301", GuardianPhone: "081111111111"}
	spp := models.PaymentType{Name: "SPP Bulanan", DefaultAmount: 150000}

	msg := policy.BuildReminderMessage(student, spp, "10 September 2026")

	for _, want := range []string{
		"SMP IT Al-Fikri",
		"Aisyah",
		"7A",
		"2301",
		"SPP Bulanan",
		"Rp 150.000",
		"10 September 2026",
		"https://bayar.alfikri.sch.id",
		"6281999888777",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("reminder message missing %q:\n%s", want, msg)
		}
	}
}

func TestBuildMonthlyMessage(t *testing.T) {
	policy := NewPolicy(testConfig(), &fakeStore{})
	student := models.Student{Name: "Budi", ClassLabel: "8B", NIS: "2302"}
	now := time.Date(2026, time.September, 1, 6, 0, 0, 0, time.UTC)

	msg := policy.BuildMonthlyMessage(student, now)

	for _, want := range []string{"Budi", "8B", "September 2026", "SPP", "kegiatan", "https://bayar.alfikri.sch.id"} {
		if !strings.Contains(msg, want) {
			t.Errorf("monthly message missing %q:\n%s", want, msg)
		}
	}
}

func TestBuildConfirmationMessage(t *testing.T) {
	policy := NewPolicy(testConfig(), &fakeStore{})
	payment := models.Payment{
		Reference:   "ref-123",
		Amount:      150000,
		Student:     models.Student{Name: "Aisyah"},
		PaymentType: models.PaymentType{Name: "SPP Bulanan"},
	}

	payment.Status = models.PaymentApproved
	msg := policy.BuildConfirmationMessage(payment)
	if !strings.Contains(msg, "DIVERIFIKASI") {
		t.Errorf("approved message missing DIVERIFIKASI:\n%s", msg)
	}

	payment.Status = models.PaymentRejected
	payment.Note = "Nominal tidak sesuai"
	msg = policy.BuildConfirmationMessage(payment)
	if !strings.Contains(msg, "DITOLAK") {
		t.Errorf("rejected message missing DITOLAK:\n%s", msg)
	}
	if !strings.Contains(msg, "Nominal tidak sesuai") {
		t.Errorf("rejected message missing note:\n%s", msg)
	}

	payment.Status = models.PaymentPending
	msg = policy.BuildConfirmationMessage(payment)
	if !strings.Contains(msg, "menunggu verifikasi") {
		t.Errorf("pending message missing status wording:\n%s", msg)
	}

	if !strings.Contains(msg, "ref-123") {
		t.Errorf("confirmation message missing reference:\n%s", msg)
	}
}
