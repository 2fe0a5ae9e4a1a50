package site

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ContactSubmission is one contact form post. Phone and
// PreferredContactWindow are honeypot fields hidden from human visitors; a
// non-empty value marks the submission as automated.
type ContactSubmission struct {
	Name    string `validate:"required"`
	Email   string `validate:"required,email"`
	Age     string `validate:"required"`
	Message string `validate:"required"`

	Phone                  string
	PreferredContactWindow string
	RecaptchaToken         string
	FormRenderedAt         string
}

func (s ContactSubmission) honeypots() []string {
	return []string{s.Phone, s.PreferredContactWindow}
}

// CareersSubmission is one careers form post with the uploaded resume. The
// visible email field is named email2 in the markup; the plain email field is
// a honeypot, as is PortfolioWindow.
type CareersSubmission struct {
	FirstName      string `validate:"required"`
	LastName       string `validate:"required"`
	Phone          string `validate:"required"`
	Email          string `validate:"required,email"`
	Location       string `validate:"required"`
	Experience     string `validate:"required"`
	Position       string `validate:"required"`
	AdditionalInfo string

	Resume Attachment

	EmailHoneypot   string
	PortfolioWindow string
	RecaptchaToken  string
	FormRenderedAt  string
}

func (s CareersSubmission) honeypots() []string {
	return []string{s.EmailHoneypot, s.PortfolioWindow}
}

func parseContactForm(r *http.Request) (ContactSubmission, error) {
	if err := r.ParseForm(); err != nil {
		return ContactSubmission{}, fmt.Errorf("parse form: %w", err)
	}
	sub := ContactSubmission{
		Name:                   r.Form.Get("name"),
		Email:                  r.Form.Get("email"),
		Age:                    r.Form.Get("age"),
		Message:                r.Form.Get("message"),
		Phone:                  r.Form.Get("phone"),
		PreferredContactWindow: r.Form.Get("preferred_contact_window"),
		RecaptchaToken:         r.Form.Get("recaptcha_token"),
		FormRenderedAt:         r.Form.Get("form_rendered_at"),
	}
	return sub, nil
}

func parseCareersForm(r *http.Request, maxUploadBytes int64) (CareersSubmission, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return CareersSubmission{}, fmt.Errorf("parse multipart form: %w", err)
	}
	sub := CareersSubmission{
		FirstName:       r.FormValue("first_name"),
		LastName:        r.FormValue("last_name"),
		Phone:           r.FormValue("phone"),
		Email:           r.FormValue("email2"),
		Location:        r.FormValue("location"),
		Experience:      r.FormValue("experience"),
		Position:        r.FormValue("position"),
		AdditionalInfo:  r.FormValue("additional_info"),
		EmailHoneypot:   r.FormValue("email"),
		PortfolioWindow: r.FormValue("portfolio_window"),
		RecaptchaToken:  r.FormValue("recaptcha_token"),
		FormRenderedAt:  r.FormValue("form_rendered_at"),
	}

	file, header, err := r.FormFile("resume")
	if err != nil {
		return sub, fmt.Errorf("resume file: %w", err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return sub, fmt.Errorf("read resume: %w", err)
	}
	sub.Resume = Attachment{Filename: header.Filename, Data: data}
	return sub, nil
}
