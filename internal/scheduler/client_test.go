package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentReminderTaskIDIsPerLeadAndDay(t *testing.T) {
	morning := time.Date(2026, 3, 9, 6, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 9, 22, 0, 0, 0, time.UTC)

	assert.Equal(t, "payment-reminder:abc:2026-03-09", paymentReminderTaskID("abc", morning))
	assert.Equal(t, paymentReminderTaskID("abc", morning), paymentReminderTaskID("abc", evening))
	assert.NotEqual(t, paymentReminderTaskID("abc", morning), paymentReminderTaskID("abc", morning.Add(24*time.Hour)))
}

func TestParseRedisURL(t *testing.T) {
	opt, err := parseRedisURL("redis://:secret@cache.internal:6380/2", false)
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opt.Addr)
	assert.Equal(t, "secret", opt.Password)
	assert.Equal(t, 2, opt.DB)
	assert.Nil(t, opt.TLSConfig)

	opt, err = parseRedisURL("rediss://cache.internal:6380", true)
	require.NoError(t, err)
	require.NotNil(t, opt.TLSConfig)
	assert.True(t, opt.TLSConfig.InsecureSkipVerify)
}

func TestPaymentReminderPayloadRoundTrip(t *testing.T) {
	task, err := NewPaymentReminderTask(PaymentReminderPayload{LeadID: "lead-1", OrganizationID: "org-1"})
	require.NoError(t, err)
	assert.Equal(t, TaskPaymentReminder, task.Type())
	assert.JSONEq(t, `{"leadId":"lead-1","organizationId":"org-1"}`, string(task.Payload()))

	payload, err := ParsePaymentReminderPayload(task)
	require.NoError(t, err)
	assert.Equal(t, "lead-1", payload.LeadID)
}

type schedulerConfig struct {
	url   string
	queue string
}

func (c schedulerConfig) GetRedisURL() string          { return c.url }
func (c schedulerConfig) GetRedisTLSInsecure() bool    { return false }
func (c schedulerConfig) GetAsynqQueueName() string    { return c.queue }
func (c schedulerConfig) GetAsynqConcurrency() int     { return 0 }
func (c schedulerConfig) GetReminderSweepCron() string { return "" }
func (c schedulerConfig) GetScoreSweepCron() string    { return "" }

func TestNewBackend(t *testing.T) {
	_, err := newBackend(schedulerConfig{})
	assert.ErrorIs(t, err, errNoRedis)

	b, err := newBackend(schedulerConfig{url: "redis://localhost:6379"})
	require.NoError(t, err)
	assert.Equal(t, defaultQueue, b.queue)

	b, err = newBackend(schedulerConfig{url: "redis://localhost:6379", queue: "leads"})
	require.NoError(t, err)
	assert.Equal(t, "leads", b.queue)
}
