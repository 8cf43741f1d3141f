// Package mailer sends transactional email through the SendGrid v3 API.
package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const sendGridBaseURL = "https://api.sendgrid.com/v3"

type EmailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type Attachment struct {
	Content     string `json:"content"` // base64
	Type        string `json:"type"`
	Filename    string `json:"filename"`
	Disposition string `json:"disposition"`
}

type personalization struct {
	To []EmailAddress `json:"to"`
	CC []EmailAddress `json:"cc,omitempty"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridPayload struct {
	Personalizations []personalization `json:"personalizations"`
	From             EmailAddress      `json:"from"`
	Subject          string            `json:"subject"`
	Content          []mailContent     `json:"content"`
	Attachments      []Attachment      `json:"attachments,omitempty"`
}

type SendEmailRequest struct {
	To          []EmailAddress
	CC          []EmailAddress
	Subject     string
	TextContent string
	HTMLContent string
	Attachments []Attachment
}

type SendEmailResponse struct {
	MessageId string    `json:"message_id"`
	SentAt    time.Time `json:"sent_at"`
}

type SendGridService struct {
	apiKey     string
	from       EmailAddress
	httpClient *http.Client
	baseURL    string
}

func NewSendGridService() (*SendGridService, error) {
	apiKey := strings.TrimSpace(os.Getenv("SENDGRID_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("SENDGRID_API_KEY is required")
	}

	fromEmail := strings.TrimSpace(os.Getenv("EMAIL_FROM_ADDRESS"))
	if fromEmail == "" {
		return nil, errors.New("EMAIL_FROM_ADDRESS is required")
	}
	fromName := strings.TrimSpace(os.Getenv("EMAIL_FROM_NAME"))
	if fromName == "" {
		fromName = "HomieStan"
	}

	return &SendGridService{
		apiKey: apiKey,
		from:   EmailAddress{Email: fromEmail, Name: fromName},
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: sendGridBaseURL,
	}, nil
}

// PDFAttachment wraps raw PDF bytes for the API payload.
func PDFAttachment(filename string, data []byte) Attachment {
	return Attachment{
		Content:     base64.StdEncoding.EncodeToString(data),
		Type:        "application/pdf",
		Filename:    filename,
		Disposition: "attachment",
	}
}

func (s *SendGridService) SendEmail(ctx context.Context, request *SendEmailRequest) (*SendEmailResponse, error) {
	if len(request.To) == 0 {
		return nil, errors.New("at least one recipient is required")
	}

	payload := buildPayload(s.from, request)
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sendgrid payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/mail/send", bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("sendgrid api error: %d - %s", resp.StatusCode, string(bodyBytes))
	}

	messageID := resp.Header.Get("X-Message-Id")
	if messageID == "" {
		messageID = fmt.Sprintf("sg_%d", time.Now().UnixNano())
	}

	return &SendEmailResponse{
		MessageId: messageID,
		SentAt:    time.Now(),
	}, nil
}

func buildPayload(from EmailAddress, request *SendEmailRequest) sendGridPayload {
	var content []mailContent
	if request.TextContent != "" {
		content = append(content, mailContent{Type: "text/plain", Value: request.TextContent})
	}
	if request.HTMLContent != "" {
		content = append(content, mailContent{Type: "text/html", Value: request.HTMLContent})
	}

	return sendGridPayload{
		Personalizations: []personalization{{To: request.To, CC: request.CC}},
		From:             from,
		Subject:          request.Subject,
		Content:          content,
		Attachments:      request.Attachments,
	}
}
