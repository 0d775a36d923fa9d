package models

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationStatus tracks the lifecycle of a queued message.
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
)

// NotificationTask is a queued outbound WhatsApp message, processed one at
// a time by the notification worker. Failed tasks are kept for audit but
// are not retried automatically.
type NotificationTask struct {
	ID               uint               `gorm:"primaryKey;autoIncrement" json:"id"`
	PaymentID        *uint              `gorm:"index" json:"payment_id,omitempty"`
	Phone            string             `gorm:"size:20;not null" json:"phone"`
	Message          string             `gorm:"type:text;not null" json:"message"`
	Status           NotificationStatus `gorm:"size:10;not null;default:'pending';index" json:"status"`
	Attempts         int                `gorm:"not null;default:0" json:"attempts"`
	ProviderResponse datatypes.JSON     `json:"provider_response,omitempty"`
	ErrorDetail      string             `gorm:"size:500" json:"error_detail,omitempty"`
	SentAt           *time.Time         `json:"sent_at,omitempty"`
	CreatedAt        time.Time          `gorm:"not null" json:"created_at"`
}

// TableName specifies the table name for the NotificationTask model
func (NotificationTask) TableName() string {
	return "notification_task"
}
