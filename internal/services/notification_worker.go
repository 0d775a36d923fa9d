package services

import (
	"log"
	"time"

	"sekolahpay/internal/models"
	"sekolahpay/internal/reminder"

	"gorm.io/datatypes"
)

// NotificationQueue is the view of the task queue the worker needs.
// Satisfied by *database.Store.
type NotificationQueue interface {
	PendingNotificationTasks() ([]models.NotificationTask, error)
	SaveNotificationTask(task *models.NotificationTask) error
}

// NotificationWorker drains the queued confirmation messages one at a time.
// Delivery is at-least-once: a task is marked sent only after the gateway
// accepts it, so a crash between send and mark can cause a duplicate.
// Failed tasks stay failed and are not retried automatically.
type NotificationWorker struct {
	queue    NotificationQueue
	sender   reminder.Sender
	interval time.Duration
}

// NewNotificationWorker creates a worker polling the queue every 30 seconds
func NewNotificationWorker(queue NotificationQueue, sender reminder.Sender) *NotificationWorker {
	return &NotificationWorker{
		queue:    queue,
		sender:   sender,
		interval: 30 * time.Second,
	}
}

func (w *NotificationWorker) Start() {
	go w.run()
}

func (w *NotificationWorker) run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for range ticker.C {
		w.ProcessPending()
	}
}

// ProcessPending sends every pending task in queue order.
func (w *NotificationWorker) ProcessPending() {
	tasks, err := w.queue.PendingNotificationTasks()
	if err != nil {
		log.Printf("Notification worker: failed to fetch pending tasks: %v", err)
		return
	}

	for _, task := range tasks {
		w.processTask(task)
	}
}

func (w *NotificationWorker) processTask(task models.NotificationTask) {
	result := w.sender.SendMessage(task.Phone, task.Message)

	task.Attempts++
	if len(result.ProviderResponse) > 0 {
		task.ProviderResponse = datatypes.JSON(result.ProviderResponse)
	}
	if result.Succeeded {
		now := time.Now()
		task.Status = models.NotificationSent
		task.SentAt = &now
	} else {
		task.Status = models.NotificationFailed
		task.ErrorDetail = result.ErrorDetail
		log.Printf("Notification task %d to %s failed: %s", task.ID, task.Phone, result.ErrorDetail)
	}

	if err := w.queue.SaveNotificationTask(&task); err != nil {
		log.Printf("Notification worker: failed to update task %d: %v", task.ID, err)
	}
}
