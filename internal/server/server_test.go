package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/ryan-gang/dbalert/internal/config"
	"github.com/ryan-gang/dbalert/internal/logger"
	"github.com/ryan-gang/dbalert/internal/mail"
	"github.com/ryan-gang/dbalert/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	calls  int
	to     string
	subj   string
	body   string
	result mail.Result
	err    error
}

func (m *fakeMailer) Send(receivers, subject, body string) (mail.Result, error) {
	m.calls++
	m.to, m.subj, m.body = receivers, subject, body
	return m.result, m.err
}

func testConfig(addr string) config.ConfigProvider {
	c := config.NewConfig()
	c.Server.Addr = addr
	return config.NewConfigProvider(c)
}

func newTestServer(mailer mail.MailSender) *Server {
	return NewServer(testConfig("127.0.0.1:0"), mailer, logger.NewNop(), false)
}

func postForm(t *testing.T, h http.Handler, form url.Values) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/send_email", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

func validForm() url.Values {
	return url.Values{
		"receiver_email": {"a@x.com, b@y.com"},
		"subject":        {"Maintenance"},
		"body":           {"Tonight 22:00"},
	}
}

func TestSendEmail(t *testing.T) {
	tests := []struct {
		name         string
		mailer       *fakeMailer
		wantStatus   int
		wantCategory string
		wantMessage  string
	}{
		{
			name:         "sent",
			mailer:       &fakeMailer{result: mail.Result{Recipients: []string{"a@x.com", "b@y.com"}}},
			wantStatus:   http.StatusOK,
			wantCategory: CategorySuccess,
			wantMessage:  msgSent,
		},
		{
			name:         "malformed acknowledgment",
			mailer:       &fakeMailer{result: mail.Result{Uncertain: true}},
			wantStatus:   http.StatusOK,
			wantCategory: CategorySuccess,
			wantMessage:  msgMaybeSent,
		},
		{
			name:         "authentication failure",
			mailer:       &fakeMailer{err: fmt.Errorf("%w: 535 5.7.8", util.ErrAuth)},
			wantStatus:   http.StatusBadRequest,
			wantCategory: CategoryError,
			wantMessage:  msgAuthFailed,
		},
		{
			name:         "send failure",
			mailer:       &fakeMailer{err: fmt.Errorf("%w: connection refused", util.ErrSend)},
			wantStatus:   http.StatusInternalServerError,
			wantCategory: CategoryError,
			wantMessage:  msgSendFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := postForm(t, newTestServer(tt.mailer).Handler(), validForm())

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCategory, resp.Category)
			assert.Equal(t, tt.wantMessage, resp.Message)

			assert.Equal(t, 1, tt.mailer.calls)
			assert.Equal(t, "a@x.com, b@y.com", tt.mailer.to)
			assert.Equal(t, "Maintenance", tt.mailer.subj)
			assert.Equal(t, "Tonight 22:00", tt.mailer.body)
		})
	}
}

func TestSendEmailMissingFields(t *testing.T) {
	for _, field := range []string{"receiver_email", "subject", "body"} {
		t.Run(field, func(t *testing.T) {
			mailer := &fakeMailer{}
			form := validForm()
			form.Del(field)

			rec, resp := postForm(t, newTestServer(mailer).Handler(), form)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, CategoryError, resp.Category)
			assert.Equal(t, 0, mailer.calls)
		})
	}
}

func TestSendEmailEmptyBodyAllowed(t *testing.T) {
	mailer := &fakeMailer{}
	form := validForm()
	form.Set("body", "")

	rec, _ := postForm(t, newTestServer(mailer).Handler(), form)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, mailer.calls)
}

func TestIndexPage(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(&fakeMailer{}).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "/send_email")
	assert.Contains(t, rec.Body.String(), `name="receiver_email"`)
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(&fakeMailer{}).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetrics(t *testing.T) {
	h := newTestServer(&fakeMailer{}).Handler()
	postForm(t, h, validForm())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `dbalert_trigger_requests_total{category="success"}`)
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/send_email", strings.NewReader(validForm().Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", "http://intranet.example.com")
	rec := httptest.NewRecorder()

	newTestServer(&fakeMailer{}).Handler().ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestListenAndServeShutsDown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newTestServer(&fakeMailer{})

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestListenAndServeInvalidAddress(t *testing.T) {
	s := NewServer(testConfig("127.0.0.1:99999"), &fakeMailer{}, logger.NewNop(), false)

	err := s.ListenAndServe(context.Background())
	assert.Error(t, err)
}
