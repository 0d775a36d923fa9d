package reminder

import (
	"fmt"
	"log"
	"strings"
	"time"

	"sekolahpay/internal/config"
	"sekolahpay/internal/models"
)

// DueDay is the day of month mandatory fees are due.
const DueDay = 10

// Store is the read-only view of the registry the reminder workflow needs.
// Student and payment-type listings must come back in name-ascending order
// so run output is deterministic.
type Store interface {
	AllStudents() ([]models.Student, error)
	StudentsWithPhone() ([]models.Student, error)
	ActiveMandatoryPaymentTypes() ([]models.PaymentType, error)
	HasApprovedPayment(studentID, paymentTypeID uint, dueDate time.Time) (bool, error)
}

// Policy decides who is due a reminder and composes the message text.
type Policy struct {
	cfg   *config.Config
	store Store
}

// NewPolicy creates a policy engine over the given registry
func NewPolicy(cfg *config.Config, store Store) *Policy {
	return &Policy{cfg: cfg, store: store}
}

// ComputeDueDate returns the due date for a run started at today: the 10th
// of the current month, rolled to the 10th of next month when the 10th has
// already passed.
func ComputeDueDate(today time.Time) time.Time {
	startOfDay := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	due := time.Date(today.Year(), today.Month(), DueDay, 0, 0, 0, 0, today.Location())
	if due.Before(startOfDay) {
		due = due.AddDate(0, 1, 0)
	}
	return due
}

// FindUnpaidStudents returns the students owing paymentType for the due
// date's month, in name order. Students with an approved payment in that
// month are excluded; students without a guardian phone are skipped with a
// warning and do not count as failures.
func (p *Policy) FindUnpaidStudents(paymentType models.PaymentType, dueDate time.Time) ([]models.Student, error) {
	students, err := p.store.AllStudents()
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}

	var unpaid []models.Student
	for _, student := range students {
		if !student.HasPhone() {
			log.Printf("Skipping %s (%s): no guardian phone on file", student.Name, student.NIS)
			continue
		}
		paid, err := p.store.HasApprovedPayment(student.ID, paymentType.ID, dueDate)
		if err != nil {
			return nil, fmt.Errorf("failed to check payments for %s: %w", student.NIS, err)
		}
		if paid {
			continue
		}
		unpaid = append(unpaid, student)
	}
	return unpaid, nil
}

// BuildReminderMessage composes the targeted due-date reminder for one
// student and payment type.
func (p *Policy) BuildReminderMessage(student models.Student, paymentType models.PaymentType, dueDateText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n\n", p.cfg.SchoolName)
	b.WriteString("Yth. Bapak/Ibu Wali Murid dari:\n")
	fmt.Fprintf(&b, "Nama: %s\n", student.Name)
	fmt.Fprintf(&b, "Kelas: %s\n", student.ClassLabel)
	fmt.Fprintf(&b, "NIS: %s\n\n", student.NIS)
	fmt.Fprintf(&b, "Kami mengingatkan bahwa pembayaran *%s* sebesar *%s* belum kami terima. Mohon melakukan pembayaran sebelum *%s*.\n\n",
		paymentType.Name, FormatRupiah(paymentType.DefaultAmount), dueDateText)
	fmt.Fprintf(&b, "Pembayaran dapat dilakukan melalui aplikasi: %s\n\n", p.cfg.AppBaseURL)
	fmt.Fprintf(&b, "Apabila sudah melakukan pembayaran, mohon abaikan pesan ini. Informasi lebih lanjut hubungi %s.\n\n", p.cfg.AdminPhone)
	b.WriteString("Terima kasih.")
	return b.String()
}

// BuildMonthlyMessage composes the blanket start-of-month reminder covering
// all obligation categories, independent of paid status.
func (p *Policy) BuildMonthlyMessage(student models.Student, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n\n", p.cfg.SchoolName)
	fmt.Fprintf(&b, "Yth. Bapak/Ibu Wali Murid dari %s (Kelas %s),\n\n", student.Name, student.ClassLabel)
	fmt.Fprintf(&b, "Memasuki bulan %s %d, kami mengingatkan kembali kewajiban pembayaran bulanan:\n", MonthIndonesian(now.Month()), now.Year())
	b.WriteString("1. SPP bulanan\n")
	b.WriteString("2. Uang kegiatan\n")
	b.WriteString("3. Tagihan lainnya (jika ada)\n\n")
	fmt.Fprintf(&b, "Silakan periksa tagihan dan lakukan pembayaran melalui aplikasi: %s\n\n", p.cfg.AppBaseURL)
	fmt.Fprintf(&b, "Abaikan pesan ini apabila seluruh tagihan telah dibayar. Informasi lebih lanjut hubungi %s.\n\n", p.cfg.AdminPhone)
	b.WriteString("Terima kasih.")
	return b.String()
}

// BuildConfirmationMessage composes the status notification sent after a
// payment is validated. The payment must have Student and PaymentType
// preloaded.
func (p *Policy) BuildConfirmationMessage(payment models.Payment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n\n", p.cfg.SchoolName)
	fmt.Fprintf(&b, "Yth. Bapak/Ibu Wali Murid dari %s,\n\n", payment.Student.Name)

	switch payment.Status {
	case models.PaymentApproved:
		fmt.Fprintf(&b, "Pembayaran *%s* sebesar *%s* telah *DIVERIFIKASI*. Terima kasih atas pembayaran Anda.\n",
			payment.PaymentType.Name, FormatRupiah(payment.Amount))
	case models.PaymentRejected:
		fmt.Fprintf(&b, "Mohon maaf, pembayaran *%s* sebesar *%s* *DITOLAK*.\n",
			payment.PaymentType.Name, FormatRupiah(payment.Amount))
		if payment.Note != "" {
			fmt.Fprintf(&b, "Alasan: %s\n", payment.Note)
		}
		b.WriteString("Silakan unggah ulang bukti pembayaran yang benar melalui aplikasi.\n")
	default:
		fmt.Fprintf(&b, "Pembayaran *%s* sebesar *%s* sedang %s. Kami akan mengabarkan hasilnya segera.\n",
			payment.PaymentType.Name, FormatRupiah(payment.Amount), payment.Status.Display())
	}

	fmt.Fprintf(&b, "\nNomor referensi: %s\n", payment.Reference)
	fmt.Fprintf(&b, "Informasi lebih lanjut hubungi %s.", p.cfg.AdminPhone)
	return b.String()
}

// FormatRupiah renders an integer amount with Indonesian thousands grouping,
// e.g. 150000 -> "Rp 150.000".
func FormatRupiah(amount int64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	digits := fmt.Sprintf("%d", amount)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}

	if negative {
		return "Rp -" + b.String()
	}
	return "Rp " + b.String()
}

var indonesianMonths = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// MonthIndonesian returns the Indonesian name of a month.
func MonthIndonesian(m time.Month) string {
	return indonesianMonths[m-1]
}

// FormatDateIndonesian renders a date as "10 September 2026".
func FormatDateIndonesian(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), MonthIndonesian(t.Month()), t.Year())
}
