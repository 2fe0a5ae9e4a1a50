package site

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"
)

const (
	subjectContact = "Contact Form"
	subjectCareers = "Careers"

	subjectContactAck = "Thank You for Contacting Learn & Play Daycare"
	subjectCareersAck = "Thanks for Your Resume Submission"

	msgSuccess = "Form has been successfully submitted"
	// One generic rejection message for every admission failure so a spammer
	// cannot tell which check tripped; the real reason is only logged.
	msgRejected = "Unable to submit the form. Please try again."
	msgInvalid  = "All required fields must be filled in correctly."
	msgTooLarge = "The uploaded file is too large."
	msgServer   = "An unexpected error occurred. Please try again later."
)

type formResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Server holds the immutable configuration and the collaborators every
// handler needs. Nothing in here mutates after construction, so handlers are
// safe to run concurrently without locking.
type Server struct {
	cfg        *Config
	verifier   ScoreVerifier
	dispatcher Dispatcher
}

func NewServer(cfg *Config, verifier ScoreVerifier, dispatcher Dispatcher) *Server {
	return &Server{cfg: cfg, verifier: verifier, dispatcher: dispatcher}
}

// Routes wires the HTTP surface onto a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/careers", s.handleCareers)
	mux.HandleFunc("/team", s.handleTeam)
	mux.HandleFunc("/health", HandleHealth)
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(s.cfg.StaticDir))))
	return mux
}

func HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.handleNotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.servePage(w, r, "onepage.html")
	case http.MethodPost:
		s.handleContactPost(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCareers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.servePage(w, r, "careers.html")
	case http.MethodPost:
		s.handleCareersPost(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleTeam(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	logger := LoggerFromContext(r.Context())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, "team.html", nil); err != nil {
		logger.Error("render team page", "err", err)
	}
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	logger := LoggerFromContext(r.Context())
	logger.Warn("page not found", "path", r.URL.Path)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_ = pageTemplates.ExecuteTemplate(w, "notfound.html", nil)
}

// servePage renders a form page with the environment's site key and a fresh
// render stamp the form echoes back on submission.
func (s *Server) servePage(w http.ResponseWriter, r *http.Request, name string) {
	logger := LoggerFromContext(r.Context())
	rctx := RequestContextFrom(r)
	rc := s.cfg.RecaptchaFor(rctx.Host)
	logger.Info("serving page", "page", name, "host", rctx.Host, "environment", rc.Environment)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := pageData{
		SiteKey:    rc.SiteKey,
		RenderedAt: strconv.FormatInt(time.Now().Unix(), 10),
	}
	if err := renderPage(w, name, data); err != nil {
		logger.Error("render page failed", "page", name, "err", err)
	}
}

func (s *Server) handleContactPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := LoggerFromContext(ctx)
	rctx := RequestContextFrom(r)
	rc := s.cfg.RecaptchaFor(rctx.Host)
	logger.Info("contact form submission started", "ip", rctx.ClientIP, "environment", rc.Environment)

	sub, err := parseContactForm(r)
	if err != nil {
		logger.Warn("bad contact form", "ip", rctx.ClientIP, "err", err)
		writeJSON(w, http.StatusBadRequest, formResponse{Status: "error", Message: msgInvalid})
		return
	}
	if err := validate.Struct(sub); err != nil {
		logger.Warn("contact form validation failed", "ip", rctx.ClientIP, "err", err)
		writeJSON(w, http.StatusBadRequest, formResponse{Status: "error", Message: msgInvalid})
		return
	}

	decision := admit(ctx, s.verifier, submissionChecks{
		renderedAt: sub.FormRenderedAt,
		minElapsed: time.Duration(s.cfg.ContactMinSeconds) * time.Second,
		token:      sub.RecaptchaToken,
		honeypots:  sub.honeypots(),
		recaptcha:  rc,
		clientIP:   rctx.ClientIP,
	}, time.Now())
	if !decision.Admitted {
		writeJSON(w, http.StatusBadRequest, formResponse{Status: "error", Message: msgRejected})
		return
	}

	body, err := contactNotification(sub)
	if err != nil {
		logger.Error("contact notification render failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, formResponse{Status: "error", Message: msgServer})
		return
	}
	ack, err := contactAck(sub.Name)
	if err != nil {
		logger.Error("contact ack render failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, formResponse{Status: "error", Message: msgServer})
		return
	}

	for _, recipient := range s.cfg.StaffRecipients {
		logger.Info("scheduling contact form email", "to", recipient)
		s.dispatcher.Submit(MailTask{
			To:      recipient,
			Subject: subjectContact,
			HTML:    body,
			ReplyTo: sub.Email,
		})
	}
	logger.Info("scheduling auto-reply to form submitter", "to", sub.Email)
	s.dispatcher.Submit(MailTask{
		To:      sub.Email,
		Subject: subjectContactAck,
		HTML:    ack,
	})

	writeJSON(w, http.StatusOK, formResponse{Status: "success", Message: msgSuccess})
}

func (s *Server) handleCareersPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := LoggerFromContext(ctx)
	rctx := RequestContextFrom(r)
	rc := s.cfg.RecaptchaFor(rctx.Host)
	logger.Info("careers form submission started", "ip", rctx.ClientIP, "environment", rc.Environment)

	// Enforce the upload cap on the whole body; ParseMultipartForm's own
	// argument only bounds memory use, not request size.
	maxBytes := int64(s.cfg.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	sub, err := parseCareersForm(r, maxBytes)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			logger.Warn("careers form over the upload limit", "ip", rctx.ClientIP, "limit_bytes", maxBytes)
			writeJSON(w, http.StatusRequestEntityTooLarge, formResponse{Status: "error", Message: msgTooLarge})
			return
		}
		logger.Warn("bad careers form", "ip", rctx.ClientIP, "err", err)
		writeJSON(w, http.StatusBadRequest, formResponse{Status: "error", Message: msgInvalid})
		return
	}
	if err := validate.Struct(sub); err != nil {
		logger.Warn("careers form validation failed", "ip", rctx.ClientIP, "err", err)
		writeJSON(w, http.StatusBadRequest, formResponse{Status: "error", Message: msgInvalid})
		return
	}
	logger.Info("received resume file", "name", sub.Resume.Filename, "bytes", len(sub.Resume.Data))

	decision := admit(ctx, s.verifier, submissionChecks{
		renderedAt: sub.FormRenderedAt,
		minElapsed: time.Duration(s.cfg.CareersMinSeconds) * time.Second,
		token:      sub.RecaptchaToken,
		honeypots:  sub.honeypots(),
		recaptcha:  rc,
		clientIP:   rctx.ClientIP,
	}, time.Now())
	if !decision.Admitted {
		writeJSON(w, http.StatusBadRequest, formResponse{Status: "error", Message: msgRejected})
		return
	}

	body, err := resumeNotification(sub)
	if err != nil {
		logger.Error("resume notification render failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, formResponse{Status: "error", Message: msgServer})
		return
	}
	ack, err := resumeAck(sub.FirstName)
	if err != nil {
		logger.Error("resume ack render failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, formResponse{Status: "error", Message: msgServer})
		return
	}

	attachment := sub.Resume
	for _, recipient := range s.cfg.StaffRecipients {
		logger.Info("scheduling careers email", "to", recipient, "attachment", attachment.Filename)
		s.dispatcher.Submit(MailTask{
			To:         recipient,
			Subject:    subjectCareers,
			HTML:       body,
			ReplyTo:    sub.Email,
			Attachment: &attachment,
		})
	}
	// The acknowledgement never carries the resume back to the candidate.
	logger.Info("scheduling auto-reply to resume submitter", "to", sub.Email)
	s.dispatcher.Submit(MailTask{
		To:      sub.Email,
		Subject: subjectCareersAck,
		HTML:    ack,
	})

	writeJSON(w, http.StatusOK, formResponse{Status: "success", Message: msgSuccess})
}

func writeJSON(w http.ResponseWriter, status int, resp formResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
