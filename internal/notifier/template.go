package notifier

import (
	"fmt"
	"html"

	"bantayani/internal/event"
)

// emailTypes are the notification types that are also sent by e-mail.
var emailTypes = map[event.NotificationType]bool{
	event.TypeDetectionReviewed: true,
	event.TypeInfoRequested:     true,
	event.TypeAdvisory:          true,
}

func EmailTemplate(name string, ev event.NotificationEvent) (subject, body string) {
	subject = "BantayAni: " + ev.Title
	body = fmt.Sprintf(`
		<html>
		<body>
			<h2>%s</h2>
			<p>Hello %s,</p>
			<p>%s</p>
			<br>
			<p>Open the BantayAni app for details.</p>
			<p>BantayAni Pest Monitoring</p>
		</body>
		</html>
		`, html.EscapeString(ev.Title), html.EscapeString(name), html.EscapeString(ev.Body))
	return subject, body
}
