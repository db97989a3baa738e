package mailbox

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

const alternativeMail = `From: Acme HR <hr@acme.example>
To: rekry@example.com
Subject: =?utf-8?q?Avoin_ty=C3=B6paikka=3A_Kehitt=C3=A4j=C3=A4?=
Date: Mon, 02 Mar 2026 10:00:00 +0200
Message-ID: <abc@acme.example>
MIME-Version: 1.0
Content-Type: multipart/alternative; boundary="b1"

--b1
Content-Type: text/plain; charset=utf-8

Hei,
DL: 15.3.
--b1
Content-Type: text/html; charset=utf-8

<p>Hei,</p><p>DL: 15.3.</p>
--b1--
`

func TestParseMessage_Alternative(t *testing.T) {
	m := ParseMessage(crlf(alternativeMail))

	assert.Equal(t, "Avoin työpaikka: Kehittäjä", m.Subject)
	assert.Equal(t, "abc@acme.example", m.MessageID)
	assert.Equal(t, "hr@acme.example", m.From)
	assert.True(t, m.Date.Equal(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)), "date %v", m.Date)
	assert.Contains(t, m.Body, "DL: 15.3.")
	assert.NotContains(t, m.Body, "<p>")
}

const latin1Mail = `From: rekry@firma.example
Subject: Kesaharjoittelija
Content-Type: text/plain; charset=iso-8859-1
Content-Transfer-Encoding: quoted-printable

Hakuaika p=E4=E4ttyy 31.3.
`

func TestParseMessage_Charset(t *testing.T) {
	m := ParseMessage(crlf(latin1Mail))

	assert.Equal(t, "Kesaharjoittelija", m.Subject)
	assert.Contains(t, m.Body, "Hakuaika päättyy 31.3.")
}

const htmlOnlyMail = `From: jobs@example.com
Subject: Trainee
Content-Type: text/html; charset=utf-8

<html><head><style>p{color:red}</style></head><body><p>Hei,</p><p>Apply by <b>12.4.</b></p><br>Thanks</body></html>
`

func TestParseMessage_HTMLOnly(t *testing.T) {
	m := ParseMessage(crlf(htmlOnlyMail))

	assert.Equal(t, "Hei,\nApply by 12.4.\n\nThanks", m.Body)
}

const attachmentMail = `From: jobs@example.com
Subject: Summer job
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="m1"

--m1
Content-Type: text/plain; charset=utf-8

See the attached brochure. DL 1.6.
--m1
Content-Type: application/pdf
Content-Disposition: attachment; filename="brochure.pdf"
Content-Transfer-Encoding: base64

JVBERi0xLjQKJcfsj6IKNSAwIG9iago8PC9MZW5ndGggNiAwIFI+PgpzdHJlYW0K
--m1--
`

func TestParseMessage_SkipsAttachments(t *testing.T) {
	m := ParseMessage(crlf(attachmentMail))

	assert.Contains(t, m.Body, "DL 1.6.")
	assert.NotContains(t, m.Body, "JVBER")
}

func TestAddr(t *testing.T) {
	assert.Equal(t, "imap.example.com:993", Addr("imap.example.com", 0))
	assert.Equal(t, "imap.example.com:143", Addr("imap.example.com", 143))
	assert.Equal(t, "localhost:1143", Addr(" localhost:1143 ", 993))
	assert.Equal(t, "[::1]:993", Addr("::1", 0))
	assert.Equal(t, "[::1]:1143", Addr("[::1]:1143", 993))
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "imap.example.com", hostOf("imap.example.com:993"))
	assert.Equal(t, "::1", hostOf("[::1]:993"))
	assert.Equal(t, "imap.example.com", hostOf("imap.example.com"))
}
