package digest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rekrybot/internal/deadline"
	"rekrybot/internal/domain"
)

func sampleMessages() []domain.Message {
	return []domain.Message{
		{Subject: "Re: [Atalent Recruiting] Trainee", Body: "Hei,\nTervetuloa hakemaan!\nDL: 15.3.\n"},
		{Subject: "Re: Työpaikka", Body: "Starting 1st of May\nApply asap"},
		{Subject: "Data Engineer", Body: "No dates here."},
	}
}

func TestBuildAndText(t *testing.T) {
	a := NewAssembler(nil, nil)
	d, err := a.Build(context.Background(), sampleMessages())
	require.NoError(t, err)
	require.Len(t, d.Postings, 3)

	assert.Equal(t, deadline.Result{Kind: deadline.Found, Text: "DL: 15.3."}, d.Postings[0].Deadline)
	assert.Equal(t, deadline.Asap, d.Postings[1].Deadline.Kind)
	assert.Equal(t, deadline.NotFound, d.Postings[2].Deadline.Kind)

	wantSummary := "1: Trainee - DL: DL: 15.3.\n" +
		"2: Deleted whole subjectline - DL: ASAP\n" +
		"3: Data Engineer - DL: Couldn't find deadline\n"
	assert.Equal(t, wantSummary, d.Summary())

	want := wantSummary + "\n\n-----\n" +
		"1: Trainee - DL: DL: 15.3.\n\n\nHei,\nTervetuloa hakemaan!\nDL: 15.3.\n\n\n\n\n----\n" +
		"2: Deleted whole subjectline - DL: ASAP\n\n\nStarting 1st of May\nApply asap\n\n\n\n----\n" +
		"3: Data Engineer - DL: Couldn't find deadline\n\n\nNo dates here.\n\n\n\n----\n"
	assert.Equal(t, want, d.Text())
}

func TestBuildKeepsOrder(t *testing.T) {
	msgs := make([]domain.Message, 50)
	for i := range msgs {
		msgs[i] = domain.Message{Subject: fmt.Sprintf("Posting %d", i+1), Body: fmt.Sprintf("DL: %d.%d.", i%28+1, i%12+1)}
	}

	d, err := NewAssembler(nil, nil, WithWorkers(8)).Build(context.Background(), msgs)
	require.NoError(t, err)
	require.Len(t, d.Postings, 50)
	for i, p := range d.Postings {
		assert.Equal(t, i+1, p.Index)
		assert.Equal(t, msgs[i].Subject, p.Subject)
		assert.Equal(t, msgs[i].Body, p.Deadline.Text)
	}
}

func TestBuildEmpty(t *testing.T) {
	d, err := NewAssembler(nil, nil).Build(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, d.Postings)
	assert.Equal(t, "\n\n-----\n", d.Text())
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewAssembler(nil, nil).Build(ctx, sampleMessages())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompose(t *testing.T) {
	d, err := NewAssembler(nil, nil).Build(context.Background(), []domain.Message{
		{Subject: "Kesätyö", Body: "Hakuaika päättyy, DL 31.3."},
	})
	require.NoError(t, err)

	raw, err := Compose(d, Envelope{
		From:    "rekrybot@example.com",
		To:      "rekry@example.com",
		Subject: "Recruitment mail",
		Date:    time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	require.NoError(t, err)

	subj, err := mr.Header.Subject()
	require.NoError(t, err)
	assert.Equal(t, "Recruitment mail", subj)

	from, err := mr.Header.AddressList("From")
	require.NoError(t, err)
	require.Len(t, from, 1)
	assert.Equal(t, "rekrybot@example.com", from[0].Address)

	id, err := mr.Header.MessageID()
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	p, err := mr.NextPart()
	require.NoError(t, err)
	body, err := io.ReadAll(p.Body)
	require.NoError(t, err)
	text := strings.ReplaceAll(string(body), "\r\n", "\n")
	assert.True(t, strings.HasPrefix(text, "1: Kesätyö - DL: Hakuaika päättyy, DL 31.3.\n"), "body %q", text)
}

func TestComposeRequiresAddresses(t *testing.T) {
	_, err := Compose(Digest{}, Envelope{To: "rekry@example.com"})
	assert.Error(t, err)

	_, err = Compose(Digest{}, Envelope{From: "not an address", To: "rekry@example.com"})
	assert.Error(t, err)
}
