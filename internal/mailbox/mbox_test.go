package mailbox

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMboxRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recruitment.mbox")
	at := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	sink := MboxSink{Path: path, From: "hr@acme.example"}
	require.NoError(t, sink.Deliver(context.Background(), testMail("Trainee", "DL: 15.3."), at))
	require.NoError(t, sink.Deliver(context.Background(), testMail("Developer", "From now on, apply asap"), at))

	msgs, err := MboxSource{Path: path}.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Trainee", msgs[0].Subject)
	assert.Equal(t, "Developer", msgs[1].Subject)
	assert.Contains(t, msgs[1].Body, "apply asap")
	assert.Zero(t, msgs[0].UID)
	assert.Equal(t, "mbox:"+path, MboxSource{Path: path}.Name())
}

func TestReadMbox_Missing(t *testing.T) {
	_, err := ReadMbox(filepath.Join(t.TempDir(), "nope.mbox"))
	assert.Error(t, err)
}
