package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskReminderSweep = "financing.reminder_sweep"

const TaskScoreSweep = "scoring.refresh_sweep"

const TaskPaymentReminder = "financing.payment_reminder"

// SystemActor is recorded as author of history entries written by jobs.
const SystemActor = "system:scheduler"

type PaymentReminderPayload struct {
	LeadID         string `json:"leadId"`
	OrganizationID string `json:"organizationId"`
}

func NewReminderSweepTask() *asynq.Task {
	return asynq.NewTask(TaskReminderSweep, nil)
}

func NewScoreSweepTask() *asynq.Task {
	return asynq.NewTask(TaskScoreSweep, nil)
}

func NewPaymentReminderTask(payload PaymentReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPaymentReminder, data), nil
}

func ParsePaymentReminderPayload(task *asynq.Task) (PaymentReminderPayload, error) {
	var payload PaymentReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return PaymentReminderPayload{}, err
	}
	return payload, nil
}
