package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Notifier delivers a short text message to a seller or customer.
type Notifier interface {
	Send(ctx context.Context, phone, message string) error
}

const fast2smsEndpoint = "https://www.fast2sms.com/dev/bulkV2"

// Fast2SMS sends messages through the Fast2SMS quick route.
type Fast2SMS struct {
	APIKey   string
	Endpoint string
	Client   *http.Client
}

func NewFast2SMS(apiKey string) *Fast2SMS {
	return &Fast2SMS{
		APIKey:   apiKey,
		Endpoint: fast2smsEndpoint,
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *Fast2SMS) Send(ctx context.Context, phone, message string) error {
	q := url.Values{}
	q.Set("authorization", s.APIKey)
	q.Set("route", "q")
	q.Set("message", message)
	q.Set("language", "english")
	q.Set("flash", "0")
	q.Set("numbers", normalizePhone(phone))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create SMS request: %w", err)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("SMS API error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp struct {
		Return  bool        `json:"return"`
		Message interface{} `json:"message"`
	}
	if err := json.Unmarshal(body, &apiResp); err != nil || !apiResp.Return {
		return fmt.Errorf("SMS API error: %s", string(body))
	}
	return nil
}

// normalizePhone keeps the last ten digits, which is what Fast2SMS expects
// for Indian numbers.
func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return digits
}

// LogNotifier only writes the message to the log. It is used when no SMS
// provider is configured.
type LogNotifier struct {
	Logger *logrus.Logger
}

func (n LogNotifier) Send(_ context.Context, phone, message string) error {
	n.Logger.WithFields(logrus.Fields{
		"phone":   phone,
		"message": message,
	}).Info("Notification (SMS disabled)")
	return nil
}

// SubmissionDecision renders the text sent to a seller after review.
func SubmissionDecision(title, status, notes string) string {
	msg := fmt.Sprintf("Your listing %q has been %s.", title, status)
	if notes != "" {
		msg += " Note: " + notes
	}
	return msg
}

// OrderStatus renders the text sent to a customer when their order moves.
func OrderStatus(number, status, trackingNumber string) string {
	msg := fmt.Sprintf("Your order %s is now %s.", number, status)
	if status == "shipped" && trackingNumber != "" {
		msg += " Tracking number: " + trackingNumber
	}
	return msg
}
