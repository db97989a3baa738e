package digest

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/emersion/go-message/mail"
)

// Envelope holds the headers of the outgoing digest.
type Envelope struct {
	From    string
	To      string
	Subject string
	Date    time.Time
}

// Compose renders d as a text/plain RFC 5322 message.
func Compose(d Digest, env Envelope) ([]byte, error) {
	if env.From == "" || env.To == "" {
		return nil, errors.New("digest from/to address is required")
	}
	from, err := mail.ParseAddress(env.From)
	if err != nil {
		return nil, fmt.Errorf("digest from %q: %w", env.From, err)
	}
	to, err := mail.ParseAddressList(env.To)
	if err != nil {
		return nil, fmt.Errorf("digest to %q: %w", env.To, err)
	}
	if env.Date.IsZero() {
		env.Date = time.Now()
	}

	var h mail.Header
	h.SetDate(env.Date)
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", to)
	h.SetSubject(env.Subject)
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("digest message id: %w", err)
	}
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("digest writer: %w", err)
	}
	if _, err := w.Write([]byte(d.Text())); err != nil {
		return nil, fmt.Errorf("digest write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("digest close: %w", err)
	}
	return buf.Bytes(), nil
}
