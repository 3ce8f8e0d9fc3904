package sendgrid

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMessage is returned before any network call when a message
// cannot be sent as built.
var ErrInvalidMessage = errors.New("sendgrid: invalid message")

type EmailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// SendEmailRequest is one transactional email. From falls back to the
// client's configured sender. At least one of Text or HTML is required.
type SendEmailRequest struct {
	From       EmailAddress
	To         []EmailAddress
	Subject    string
	Text       string
	HTML       string
	Categories []string
	CustomArgs map[string]string
}

type SendEmailResult struct {
	StatusCode int
	MessageID  string
}

// v3 /mail/send body.
type mailSend struct {
	Personalizations []personalization `json:"personalizations"`
	From             EmailAddress      `json:"from"`
	Subject          string            `json:"subject"`
	Content          []mailContent     `json:"content"`
	Categories       []string          `json:"categories,omitempty"`
}

type personalization struct {
	To         []EmailAddress    `json:"to"`
	CustomArgs map[string]string `json:"custom_args,omitempty"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func buildMailSend(req SendEmailRequest, sender EmailAddress) (mailSend, error) {
	from := EmailAddress{Email: strings.TrimSpace(req.From.Email), Name: strings.TrimSpace(req.From.Name)}
	if from.Email == "" {
		from = sender
	}
	m := mailSend{
		Personalizations: []personalization{{To: req.To, CustomArgs: req.CustomArgs}},
		From:             from,
		Subject:          strings.TrimSpace(req.Subject),
		Categories:       req.Categories,
	}
	if text := strings.TrimSpace(req.Text); text != "" {
		m.Content = append(m.Content, mailContent{Type: "text/plain", Value: text})
	}
	if html := strings.TrimSpace(req.HTML); html != "" {
		m.Content = append(m.Content, mailContent{Type: "text/html", Value: html})
	}

	switch {
	case m.From.Email == "":
		return m, fmt.Errorf("%w: no sender, set SENDGRID_FROM_EMAIL", ErrInvalidMessage)
	case len(req.To) == 0:
		return m, fmt.Errorf("%w: no recipients", ErrInvalidMessage)
	case m.Subject == "":
		return m, fmt.Errorf("%w: empty subject", ErrInvalidMessage)
	case len(m.Content) == 0:
		return m, fmt.Errorf("%w: empty body", ErrInvalidMessage)
	}
	return m, nil
}
