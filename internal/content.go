package site

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html templates/email/*.html
var templateFS embed.FS

var (
	pageTemplates  = template.Must(template.ParseFS(templateFS, "templates/*.html"))
	emailTemplates = template.Must(template.ParseFS(templateFS, "templates/email/*.html"))
)

// pageData parameterizes the public pages: the reCAPTCHA site key for the
// resolved environment and the Unix-seconds render stamp the form echoes back.
type pageData struct {
	SiteKey    string
	RenderedAt string
}

func renderPage(w io.Writer, name string, data pageData) error {
	if err := pageTemplates.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("render page %s: %w", name, err)
	}
	return nil
}

func renderEmail(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render email %s: %w", name, err)
	}
	return buf.String(), nil
}

func contactNotification(sub ContactSubmission) (string, error) {
	return renderEmail("contact_notification.html", sub)
}

func resumeNotification(sub CareersSubmission) (string, error) {
	return renderEmail("resume_notification.html", sub)
}

func contactAck(name string) (string, error) {
	return renderEmail("contact_ack.html", struct{ Name string }{name})
}

func resumeAck(firstName string) (string, error) {
	return renderEmail("resume_ack.html", struct{ Name string }{firstName})
}
