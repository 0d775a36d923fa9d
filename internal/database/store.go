package database

import (
	"time"

	"sekolahpay/internal/models"

	"gorm.io/gorm"
)

// Store provides the read/query views the reminder workflow, health check
// and OTP service need, backed by gorm.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store over the given connection
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AllStudents returns every student in name-ascending order.
func (s *Store) AllStudents() ([]models.Student, error) {
	var students []models.Student
	if err := s.db.Order("name asc").Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

// StudentsWithPhone returns students with a guardian phone on file, in
// name-ascending order.
func (s *Store) StudentsWithPhone() ([]models.Student, error) {
	var students []models.Student
	if err := s.db.Where("guardian_phone <> ''").Order("name asc").Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

// ActiveMandatoryPaymentTypes returns the fee categories that generate
// due-date reminders, in name-ascending order.
func (s *Store) ActiveMandatoryPaymentTypes() ([]models.PaymentType, error) {
	var types []models.PaymentType
	if err := s.db.Where("is_mandatory = ? AND is_active = ?", true, true).
		Order("name asc").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

// HasApprovedPayment reports whether the student has an approved payment
// for the type whose paid date falls in the due date's month. The month
// window is built in the due date's location so it matches school time.
func (s *Store) HasApprovedPayment(studentID, paymentTypeID uint, dueDate time.Time) (bool, error) {
	monthStart := time.Date(dueDate.Year(), dueDate.Month(), 1, 0, 0, 0, 0, dueDate.Location())
	nextMonth := monthStart.AddDate(0, 1, 0)

	var count int64
	err := s.db.Model(&models.Payment{}).
		Where("student_id = ? AND payment_type_id = ? AND status = ? AND paid_date >= ? AND paid_date < ?",
			studentID, paymentTypeID, models.PaymentApproved, monthStart, nextMonth).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ping checks datastore connectivity.
func (s *Store) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CountStudentsWithPhone counts reachable recipients.
func (s *Store) CountStudentsWithPhone() (int64, error) {
	var count int64
	err := s.db.Model(&models.Student{}).Where("guardian_phone <> ''").Count(&count).Error
	return count, err
}

// CountExpiredUnverifiedOtps counts challenges past expiry that were never
// verified, a housekeeping backlog signal.
func (s *Store) CountExpiredUnverifiedOtps() (int64, error) {
	var count int64
	err := s.db.Model(&models.OtpChallenge{}).
		Where("verified = ? AND expires_at < ?", false, time.Now()).
		Count(&count).Error
	return count, err
}

// DeleteUnverifiedChallenges removes prior unverified challenges for a
// phone so at most one stays active.
func (s *Store) DeleteUnverifiedChallenges(phone string) error {
	return s.db.Where("phone = ? AND verified = ?", phone, false).
		Delete(&models.OtpChallenge{}).Error
}

// CreateChallenge persists a new OTP challenge.
func (s *Store) CreateChallenge(challenge *models.OtpChallenge) error {
	return s.db.Create(challenge).Error
}

// LatestChallenge returns the newest unverified challenge for a phone, or
// gorm.ErrRecordNotFound.
func (s *Store) LatestChallenge(phone string) (*models.OtpChallenge, error) {
	var challenge models.OtpChallenge
	err := s.db.Where("phone = ? AND verified = ?", phone, false).
		Order("created_at desc").First(&challenge).Error
	if err != nil {
		return nil, err
	}
	return &challenge, nil
}

// SaveChallenge persists attempt/verification updates.
func (s *Store) SaveChallenge(challenge *models.OtpChallenge) error {
	return s.db.Save(challenge).Error
}

// PendingNotificationTasks returns queued notification tasks in enqueue
// order.
func (s *Store) PendingNotificationTasks() ([]models.NotificationTask, error) {
	var tasks []models.NotificationTask
	if err := s.db.Where("status = ?", models.NotificationPending).
		Order("id asc").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// SaveNotificationTask persists a task status update.
func (s *Store) SaveNotificationTask(task *models.NotificationTask) error {
	return s.db.Save(task).Error
}
