package mailbox

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"

	// Register charset decoders (iso-8859-*, windows-125x, ...).
	_ "github.com/emersion/go-message/charset"

	"rekrybot/internal/domain"
)

const maxPartBytes = 20 << 20

// ParseMessage decodes an RFC 5322 message into a domain.Message.
// The body is the largest text/plain part, or the largest text/html part
// rendered to text when there is no plain part. Attachments are skipped.
// A message that cannot be parsed at all is returned with the raw bytes as body.
func ParseMessage(raw []byte) domain.Message {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return domain.Message{Body: string(raw)}
	}

	var m domain.Message
	h := mr.Header
	if s, err := h.Subject(); err == nil {
		m.Subject = strings.TrimSpace(s)
	} else {
		m.Subject = strings.TrimSpace(h.Get("Subject"))
	}
	if id, err := h.MessageID(); err == nil {
		m.MessageID = id
	}
	if d, err := h.Date(); err == nil {
		m.Date = d
	}
	if from, err := h.AddressList("From"); err == nil && len(from) > 0 {
		m.From = from[0].Address
	} else {
		m.From = strings.TrimSpace(h.Get("From"))
	}

	var bestPlain, bestHTML string
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && (p == nil || !message.IsUnknownCharset(err)) {
			break
		}

		ih, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := ih.ContentType()
		b, rerr := io.ReadAll(io.LimitReader(p.Body, maxPartBytes))
		if rerr != nil && len(b) == 0 {
			continue
		}

		switch {
		case ct == "" || strings.HasPrefix(ct, "text/plain"):
			if len(b) > len(bestPlain) {
				bestPlain = string(b)
			}
		case strings.HasPrefix(ct, "text/html"):
			if len(b) > len(bestHTML) {
				bestHTML = string(b)
			}
		}
	}

	switch {
	case bestPlain != "":
		m.Body = bestPlain
	case bestHTML != "":
		m.Body = htmlToText(bestHTML)
	}
	return m
}

const blockSelector = "p,div,li,tr,table,h1,h2,h3,h4,h5,h6,blockquote,pre"

// htmlToText keeps one line per block element so that line oriented
// heuristics still see the structure of the mail.
func htmlToText(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("script,style,head").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(blockSelector).Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml("\n")
	})

	var lines []string
	blank := false
	for _, line := range strings.Split(doc.Text(), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(lines) > 0 {
				lines = append(lines, "")
			}
			blank = true
			continue
		}
		blank = false
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
