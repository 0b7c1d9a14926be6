package cron

import (
	"context"
	"encoding/json"
	"time"

	"dentaflow/config"
	"dentaflow/models"
	"dentaflow/services/audit"
	"dentaflow/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeAppointmentReminder = "reminder:appointment"

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// ReminderQueue enqueues appointment reminders to fire ahead of the start
// time. Delivery itself is handled by the messaging gateway that polls the
// audit trail; this worker's job is firing at the right instant.
type ReminderQueue struct {
	client *asynq.Client
	lead   time.Duration
}

func NewReminderQueue() *ReminderQueue {
	return &ReminderQueue{
		client: asynq.NewClient(redisOpts()),
		lead:   time.Duration(config.AppConfig.ReminderLeadMinutes) * time.Minute,
	}
}

// ScheduleReminder queues one reminder for the booking. Appointments closer
// than the lead time get no reminder rather than an immediate one.
func (q *ReminderQueue) ScheduleReminder(ctx context.Context, booking models.Booking) error {
	fireAt := booking.Start.Add(-q.lead)
	if !fireAt.After(time.Now()) {
		return nil
	}

	payload, err := json.Marshal(models.ReminderPayload{
		Phone:       booking.PatientPhone,
		PatientName: booking.PatientName,
		Treatment:   booking.Treatment,
		Resource:    booking.Resource,
		EventID:     booking.ExternalEventID,
		Start:       booking.Start,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TypeAppointmentReminder, payload)
	_, err = q.client.EnqueueContext(ctx, task, asynq.ProcessAt(fireAt))
	return err
}

func (q *ReminderQueue) Close() error {
	return q.client.Close()
}

// InitReminderWorker runs the async reminder worker in the background.
func InitReminderWorker(recorder audit.Recorder) {
	logger := utils.GetLogger()

	srv := asynq.NewServer(
		redisOpts(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeAppointmentReminder, handleReminderTask(recorder))

	go func() {
		logger.Info("reminder worker starting")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				logger.Error("reminder worker failed to start",
					zap.Int("attempt", attempts), zap.Error(err))
				if attempts == maxAttempts {
					logger.Fatal("reminder worker: max retry attempts reached")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handleReminderTask(recorder audit.Recorder) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		logger := utils.GetLogger()

		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("reminder task with invalid payload", zap.Error(err))
			return err
		}

		logger.Info("appointment reminder due",
			zap.String("phone", p.Phone),
			zap.String("treatment", p.Treatment),
			zap.Time("start", p.Start))

		recorder.Record(ctx, models.AuditRecord{
			Action:   "reminder",
			Phone:    p.Phone,
			Resource: p.Resource,
			EventID:  p.EventID,
			Detail:   "appointment at " + p.Start.Format(time.RFC3339),
		})
		return nil
	}
}
