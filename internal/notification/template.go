package notification

import (
	"html/template"
	"strings"
)

var statusUpdateTmpl = template.Must(template.New("status_update").Parse(`
<div style="max-width:600px;margin:0 auto;padding:24px;font-family:sans-serif">
  <h1 style="font-size:20px;color:#1f2937">Ticket Update</h1>
  <p>Hello {{.Name}},</p>
  <p>Your ticket status has been updated:</p>
  <div style="background:#f9fafb;padding:16px;border-radius:8px">
    <span style="display:inline-block;padding:4px 12px;border-radius:9999px;background:#dbeafe;color:#1e40af;font-size:12px;font-weight:600">{{.Status}}</span>
    <h2 style="font-size:16px;color:#1f2937;margin-top:12px">{{.Title}}</h2>
  </div>
  <p style="margin-top:24px;font-size:12px;color:#6b7280">Need help? Reply to this email to reach the support team.</p>
</div>`))

type statusUpdateData struct {
	Name   string
	Title  string
	Status string
}

// StatusUpdateHTML renders the email body sent to a ticket creator when an
// admin changes the ticket status.
func StatusUpdateHTML(userName, ticketTitle, ticketStatus string) string {
	var b strings.Builder
	_ = statusUpdateTmpl.Execute(&b, statusUpdateData{
		Name:   userName,
		Title:  ticketTitle,
		Status: strings.ToUpper(ticketStatus),
	})
	return b.String()
}
