package site

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingDispatcher captures scheduled tasks instead of sending mail.
type recordingDispatcher struct {
	tasks []MailTask
}

func (d *recordingDispatcher) Submit(task MailTask) {
	d.tasks = append(d.tasks, task)
}

func newTestServer(verifier ScoreVerifier) (*Server, *recordingDispatcher) {
	cfg := &Config{
		StaffRecipients:    []string{"sires_mary@yahoo.com", "jonnysires@yahoo.com"},
		ProductionHosts:    []string{"learnandplaycv.com", "www.learnandplaycv.com"},
		ProductionSiteKey:  "prod-site",
		ProductionMinScore: 0.7,
		TestSiteKey:        "test-site",
		ContactMinSeconds:  60,
		CareersMinSeconds:  60,
		MaxUploadMB:        10,
		StaticDir:          "static",
	}
	dispatcher := &recordingDispatcher{}
	return NewServer(cfg, verifier, dispatcher), dispatcher
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) formResponse {
	t.Helper()
	var resp formResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func contactForm(renderedAt, token string) url.Values {
	return url.Values{
		"name":             {"Alice Walker"},
		"email":            {"alice@example.com"},
		"age":              {"2019-04-12"},
		"message":          {"Do you have openings for toddlers?"},
		"recaptcha_token":  {token},
		"form_rendered_at": {renderedAt},
	}
}

func postContact(server *Server, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Forwarded-Host", "www.learnandplaycv.com")
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	rec := httptest.NewRecorder()
	server.Routes().ServeHTTP(rec, req)
	return rec
}

func TestContactSubmissionAdmitted(t *testing.T) {
	verifier := &fakeVerifier{ok: true, score: 0.9}
	server, dispatcher := newTestServer(verifier)

	rec := postContact(server, contactForm(renderedSecondsAgo(90), "tok"))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, msgSuccess, resp.Message)

	require.Len(t, dispatcher.tasks, 3, "two staff notifications plus one acknowledgement")

	for _, task := range dispatcher.tasks[:2] {
		assert.Equal(t, subjectContact, task.Subject)
		assert.Equal(t, "alice@example.com", task.ReplyTo)
		assert.Contains(t, task.HTML, "Alice Walker")
		assert.Contains(t, task.HTML, "Do you have openings for toddlers?")
		assert.Nil(t, task.Attachment)
	}
	assert.Equal(t, "sires_mary@yahoo.com", dispatcher.tasks[0].To)
	assert.Equal(t, "jonnysires@yahoo.com", dispatcher.tasks[1].To)

	ack := dispatcher.tasks[2]
	assert.Equal(t, "alice@example.com", ack.To)
	assert.Equal(t, subjectContactAck, ack.Subject)
	assert.Contains(t, ack.HTML, "Alice Walker")
	assert.Empty(t, ack.ReplyTo)
	assert.Nil(t, ack.Attachment)

	assert.Equal(t, 1, verifier.calls)
}

func TestContactSubmissionHoneypotRejected(t *testing.T) {
	verifier := &fakeVerifier{ok: true, score: 0.9}
	server, dispatcher := newTestServer(verifier)

	form := contactForm(renderedSecondsAgo(90), "tok")
	form.Set("phone", "555-0100")

	rec := postContact(server, form)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, msgRejected, resp.Message, "rejection message must not reveal the check that tripped")
	assert.Empty(t, dispatcher.tasks)
	assert.Equal(t, 1, verifier.calls, "verifier runs before the honeypot check")
}

func TestContactSubmissionWithoutTokenStillAdmitted(t *testing.T) {
	verifier := &fakeVerifier{ok: false}
	server, dispatcher := newTestServer(verifier)

	rec := postContact(server, contactForm(renderedSecondsAgo(90), ""))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, dispatcher.tasks, 3)
	assert.Zero(t, verifier.calls)
}

func TestContactSubmissionValidation(t *testing.T) {
	verifier := &fakeVerifier{ok: true, score: 0.9}
	server, dispatcher := newTestServer(verifier)

	form := contactForm(renderedSecondsAgo(90), "tok")
	form.Set("email", "not-an-email")

	rec := postContact(server, form)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, msgInvalid, resp.Message)
	assert.Empty(t, dispatcher.tasks)
}

func careersBody(t *testing.T, fields map[string]string, filename string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	fw, err := w.CreateFormFile("resume", filename)
	require.NoError(t, err)
	_, err = fw.Write(file)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func careersFields(renderedAt, token string) map[string]string {
	return map[string]string{
		"first_name":       "Maya",
		"last_name":        "Lopez",
		"phone":            "555-0142",
		"email2":           "maya@example.com",
		"location":         "Colorado Springs",
		"experience":       "5 years",
		"position":         "Lead Teacher",
		"additional_info":  "Available weekdays",
		"recaptcha_token":  token,
		"form_rendered_at": renderedAt,
	}
}

func postCareers(t *testing.T, server *Server, fields map[string]string, filename string, file []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := careersBody(t, fields, filename, file)
	req := httptest.NewRequest(http.MethodPost, "/careers", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	rec := httptest.NewRecorder()
	server.Routes().ServeHTTP(rec, req)
	return rec
}

func TestCareersSubmissionAdmitted(t *testing.T) {
	verifier := &fakeVerifier{ok: true, score: 0.8}
	server, dispatcher := newTestServer(verifier)

	resume := []byte("%PDF-1.4 fake resume")
	rec := postCareers(t, server, careersFields(renderedSecondsAgo(120), "tok"), "resume.pdf", resume)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "success", resp.Status)

	require.Len(t, dispatcher.tasks, 3)

	for _, task := range dispatcher.tasks[:2] {
		assert.Equal(t, subjectCareers, task.Subject)
		assert.Equal(t, "maya@example.com", task.ReplyTo)
		assert.Contains(t, task.HTML, "Maya")
		assert.Contains(t, task.HTML, "Lead Teacher")
		require.NotNil(t, task.Attachment, "staff notifications carry the resume")
		assert.Equal(t, "resume.pdf", task.Attachment.Filename)
		assert.Equal(t, resume, task.Attachment.Data)
	}

	ack := dispatcher.tasks[2]
	assert.Equal(t, "maya@example.com", ack.To)
	assert.Equal(t, subjectCareersAck, ack.Subject)
	assert.Nil(t, ack.Attachment, "the acknowledgement never includes the resume")
}

func TestCareersSubmissionTooFast(t *testing.T) {
	verifier := &fakeVerifier{ok: true, score: 0.9}
	server, dispatcher := newTestServer(verifier)

	rec := postCareers(t, server, careersFields(renderedSecondsAgo(5), "tok"), "resume.pdf", []byte("data"))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, msgRejected, resp.Message)
	assert.Empty(t, dispatcher.tasks, "no dispatch tasks after a rejection")
	assert.Zero(t, verifier.calls)
}

func TestCareersSubmissionOverUploadLimit(t *testing.T) {
	verifier := &fakeVerifier{ok: true, score: 0.9}
	server, dispatcher := newTestServer(verifier)
	server.cfg.MaxUploadMB = 1

	oversized := bytes.Repeat([]byte("x"), 2<<20)
	rec := postCareers(t, server, careersFields(renderedSecondsAgo(120), "tok"), "resume.pdf", oversized)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, msgTooLarge, resp.Message)
	assert.Empty(t, dispatcher.tasks, "an oversized resume must never be attached or dispatched")
}

func TestCareersSubmissionMissingResume(t *testing.T) {
	server, dispatcher := newTestServer(&fakeVerifier{ok: true, score: 0.9})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range careersFields(renderedSecondsAgo(120), "tok") {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/careers", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	server.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, dispatcher.tasks)
}

func TestContactPageCarriesSiteKeyAndStamp(t *testing.T) {
	server, _ := newTestServer(&fakeVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Host", "www.learnandplaycv.com")
	rec := httptest.NewRecorder()
	server.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "prod-site")
	assert.Contains(t, body, `name="form_rendered_at"`)
	assert.Contains(t, body, `name="phone"`)
	assert.Contains(t, body, `name="preferred_contact_window"`)
}

func TestCareersPageUsesDevelopmentKeysForUnknownHost(t *testing.T) {
	server, _ := newTestServer(&fakeVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/careers", nil)
	req.Host = "localhost:8000"
	rec := httptest.NewRecorder()
	server.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test-site")
}

func TestTeamPageOnlyAcceptsGet(t *testing.T) {
	server, _ := newTestServer(&fakeVerifier{})
	mux := server.Routes()

	req := httptest.NewRequest(http.MethodGet, "/team", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Our Team")

	req = httptest.NewRequest(http.MethodPost, "/team", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestUnknownPathServes404Page(t *testing.T) {
	server, _ := newTestServer(&fakeVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/no-such-page", nil)
	rec := httptest.NewRecorder()
	server.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page Not Found")
}

func TestHandleHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	HandleHealth(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
