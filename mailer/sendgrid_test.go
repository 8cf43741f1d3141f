package mailer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestBuildPayload(t *testing.T) {
	from := EmailAddress{Email: "reports@homiestan.app", Name: "HomieStan"}
	req := &SendEmailRequest{
		To:          []EmailAddress{{Email: "tenant@example.com", Name: "Tenant"}},
		CC:          []EmailAddress{{Email: "owner@example.com"}},
		Subject:     "Inspection report",
		TextContent: "Your report is attached.",
		Attachments: []Attachment{PDFAttachment("report.pdf", []byte("%PDF-1.4"))},
	}

	payload := buildPayload(from, req)

	if len(payload.Personalizations) != 1 {
		t.Fatalf("want one personalization, got %d", len(payload.Personalizations))
	}
	p := payload.Personalizations[0]
	if len(p.To) != 1 || p.To[0].Email != "tenant@example.com" {
		t.Fatalf("to = %v", p.To)
	}
	if len(p.CC) != 1 || p.CC[0].Email != "owner@example.com" {
		t.Fatalf("cc = %v", p.CC)
	}
	if payload.From.Email != "reports@homiestan.app" {
		t.Fatalf("from = %v", payload.From)
	}
	if len(payload.Content) != 1 || payload.Content[0].Type != "text/plain" {
		t.Fatalf("content = %v", payload.Content)
	}

	att := payload.Attachments[0]
	if att.Type != "application/pdf" || att.Disposition != "attachment" {
		t.Fatalf("attachment = %+v", att)
	}
	decoded, err := base64.StdEncoding.DecodeString(att.Content)
	if err != nil || string(decoded) != "%PDF-1.4" {
		t.Fatalf("attachment content round-trip failed: %v %q", err, decoded)
	}
}

func TestSendEmail(t *testing.T) {
	var gotAuth string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/mail/send" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("X-Message-Id", "msg-123")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	svc := &SendGridService{
		apiKey:     "test-key",
		from:       EmailAddress{Email: "reports@homiestan.app"},
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    server.URL,
	}

	resp, err := svc.SendEmail(context.Background(), &SendEmailRequest{
		To:          []EmailAddress{{Email: "tenant@example.com"}},
		Subject:     "Inspection report",
		TextContent: "attached",
	})
	if err != nil {
		t.Fatalf("SendEmail: %v", err)
	}
	if resp.MessageId != "msg-123" {
		t.Fatalf("message id = %q", resp.MessageId)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("auth header = %q", gotAuth)
	}

	var payload sendGridPayload
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("payload was not valid JSON: %v", err)
	}
	if payload.Subject != "Inspection report" {
		t.Fatalf("subject = %q", payload.Subject)
	}
}

func TestSendEmailRejectsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	svc := &SendGridService{
		apiKey:     "bad-key",
		from:       EmailAddress{Email: "reports@homiestan.app"},
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    server.URL,
	}

	_, err := svc.SendEmail(context.Background(), &SendEmailRequest{
		To:      []EmailAddress{{Email: "tenant@example.com"}},
		Subject: "x",
	})
	if err == nil {
		t.Fatal("want error on non-202 response")
	}
}

func TestSendEmailRequiresRecipient(t *testing.T) {
	svc := &SendGridService{apiKey: "k", httpClient: http.DefaultClient, baseURL: "http://localhost"}
	if _, err := svc.SendEmail(context.Background(), &SendEmailRequest{}); err == nil {
		t.Fatal("want error when no recipients")
	}
}
