package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	tmplLeadEnrolled       = mustParse("lead_enrolled.html")
	tmplLeadArchived       = mustParse("lead_archived.html")
	tmplReminderEscalation = mustParse("reminder_escalation.html")
)

// message is the data handed to every template. Each template reads only
// the fields that apply to it.
type message struct {
	Heading        string
	OwnerName      string
	LeadRef        string
	AmountPaid     string
	Total          string
	Reason         string
	ReminderNumber int
}

func mustParse(name string) *template.Template {
	return template.Must(template.New(name).ParseFS(templateFS, "templates/base.html", "templates/"+name))
}

func render(t *template.Template, m message) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "email", m); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// euros formats integer cents, e.g. 27000 as €270.00.
func euros(cents int64) string {
	return fmt.Sprintf("€%d.%02d", cents/100, cents%100)
}
