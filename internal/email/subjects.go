package email

const (
	subjectLeadEnrolledFmt       = "Lead %s enrolled"
	subjectLeadArchivedFmt       = "Lead %s archived"
	subjectReminderEscalationFmt = "Lead %s: payment reminder %d sent"
)
