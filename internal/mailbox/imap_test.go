package mailbox

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapserver"
	"github.com/emersion/go-imap/v2/imapserver/imapmemserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	testUser = "rekry"
	testPass = "hunter2"
)

// startTestServer runs an in-memory IMAP server with the folders a digest run needs.
func startTestServer(t *testing.T) string {
	t.Helper()

	memServer := imapmemserver.New()
	user := imapmemserver.NewUser(testUser, testPass)
	for _, name := range []string{"INBOX", "Recruitment", "Drafts"} {
		require.NoError(t, user.Create(name, nil))
	}
	memServer.AddUser(user)

	server := imapserver.New(&imapserver.Options{
		NewSession: func(*imapserver.Conn) (imapserver.Session, *imapserver.GreetingData, error) {
			return memServer.NewSession(), nil, nil
		},
		Caps: imap.CapSet{
			imap.CapIMAP4rev1: {},
			imap.CapIMAP4rev2: {},
		},
		InsecureAuth: true,
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = server.Serve(ln) }()
	t.Cleanup(func() { _ = server.Close() })

	return ln.Addr().String()
}

func dialTest(t *testing.T, ctx context.Context, addr string) *Client {
	t.Helper()
	c, err := Dial(ctx, Options{Addr: addr, Username: testUser, Password: testPass, Insecure: true}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func testMail(subject, body string) []byte {
	return crlf(fmt.Sprintf("From: hr@acme.example\nTo: rekry@example.com\nSubject: %s\nDate: Mon, 02 Mar 2026 10:00:00 +0200\nContent-Type: text/plain; charset=utf-8\n\n%s\n", subject, body))
}

func TestClient_FetchArchive(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	addr := startTestServer(t)
	c := dialTest(t, ctx, addr)

	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	require.NoError(t, c.AppendDraft(ctx, "Recruitment", testMail("Trainee", "DL: 15.3."), now))
	require.NoError(t, c.AppendDraft(ctx, "Recruitment", testMail("Developer", "Apply asap"), now))

	msgs, err := c.FetchAll(ctx, "Recruitment")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Trainee", msgs[0].Subject)
	assert.Equal(t, "Developer", msgs[1].Subject)
	assert.Less(t, msgs[0].UID, msgs[1].UID)
	assert.Contains(t, msgs[0].Body, "DL: 15.3.")

	dest := "Recruitment/archive/2026-03-02"
	require.NoError(t, c.Archive(ctx, []uint32{msgs[0].UID, msgs[1].UID}, dest, false))

	archived, err := c.FetchAll(ctx, dest)
	require.NoError(t, err)
	assert.Len(t, archived, 2)

	// Copy leaves the source alone.
	msgs, err = c.FetchAll(ctx, "Recruitment")
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	// Archiving into an existing folder works, and move empties the source.
	require.NoError(t, c.Archive(ctx, []uint32{msgs[0].UID, msgs[1].UID}, dest, true))
	msgs, err = c.FetchAll(ctx, "Recruitment")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	archived, err = c.FetchAll(ctx, dest)
	require.NoError(t, err)
	assert.Len(t, archived, 4)
}

func TestClient_FetchEmptyFolder(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := dialTest(t, ctx, startTestServer(t))
	msgs, err := c.FetchAll(ctx, "Recruitment")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	_, err = c.FetchAll(ctx, "Nope")
	assert.Error(t, err)
}

func TestSession(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := dialTest(t, ctx, startTestServer(t))
	require.NoError(t, c.AppendDraft(ctx, "Recruitment", testMail("Trainee", "DL: 15.3."), time.Now()))

	s := &Session{Client: c, Folder: "Recruitment", Drafts: "Drafts", Move: true}
	msgs, err := s.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	require.NoError(t, s.Deliver(ctx, testMail("Recruitment mail", "1: Trainee - DL: DL: 15.3."), time.Now()))
	require.NoError(t, s.Archive(ctx, msgs, "Recruitment/archive/today"))

	drafts, err := c.FetchAll(ctx, "Drafts")
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "Recruitment mail", drafts[0].Subject)

	left, err := c.FetchAll(ctx, "Recruitment")
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestDial_BadPassword(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	addr := startTestServer(t)
	_, err := Dial(ctx, Options{Addr: addr, Username: testUser, Password: "wrong", Insecure: true}, nil)
	assert.Error(t, err)

	_, err = Dial(ctx, Options{Addr: addr}, nil)
	assert.Error(t, err)
}
