// Package notify delivers operator notifications for inbound quote requests.
package notify

import (
	"fmt"
	"io"
	"log"
	"net/smtp"
	"strings"

	"studiosite/internal/domain"
)

// Notifier alerts the site operator about a new quote request.
type Notifier interface {
	QuoteReceived(q domain.Quote) error
}

// LogNotifier writes notifications to the application log. Used in
// development and as the fallback when no SMTP endpoint is configured.
type LogNotifier struct {
	Logger *log.Logger
}

// QuoteReceived logs the quote summary.
func (n LogNotifier) QuoteReceived(q domain.Quote) error {
	logger := n.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	logger.Printf("notify: quote received id=%s name=%q email=%s type=%s budget=%s",
		q.PublicID, q.Name, q.Email, q.ProjectType, q.BudgetRange)
	return nil
}

// SMTPNotifier mails quote notifications to the configured operator address.
type SMTPNotifier struct {
	Addr string
	From string
	To   string
}

// QuoteReceived sends the notification mail.
func (n SMTPNotifier) QuoteReceived(q domain.Quote) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.From)
	fmt.Fprintf(&b, "To: %s\r\n", n.To)
	fmt.Fprintf(&b, "Subject: New quote request from %s\r\n", q.Name)
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Name: %s\r\n", q.Name)
	fmt.Fprintf(&b, "Email: %s\r\n", q.Email)
	if q.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\r\n", q.Phone)
	}
	if q.Company != "" {
		fmt.Fprintf(&b, "Company: %s\r\n", q.Company)
	}
	fmt.Fprintf(&b, "Project type: %s\r\n", q.ProjectType)
	fmt.Fprintf(&b, "Budget: %s\r\n", q.BudgetRange)
	fmt.Fprintf(&b, "Timeline: %s\r\n", q.Timeline)
	fmt.Fprintf(&b, "\r\n%s\r\n", q.Description)

	if err := smtp.SendMail(n.Addr, nil, n.From, []string{n.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("send quote notification: %w", err)
	}
	return nil
}
