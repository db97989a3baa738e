// Package mailbox reads recruitment mail from IMAP folders and mbox files and
// writes the digest back.
package mailbox

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"go.uber.org/zap"

	"rekrybot/internal/domain"
)

// Options describes how to reach and log in to the IMAP server.
type Options struct {
	Addr     string // host:port
	Username string
	Password string

	// TLSConfig is used for implicit TLS. Nil means TLS 1.2+ with the host
	// taken from Addr.
	TLSConfig *tls.Config

	// Insecure dials without TLS (local bridges, tests).
	Insecure bool
}

// Client is a logged in IMAP connection.
type Client struct {
	c    *imapclient.Client
	stop func() bool
	log  *zap.Logger
}

// Dial connects and logs in. Cancelling ctx closes the connection.
func Dial(ctx context.Context, opts Options, log *zap.Logger) (*Client, error) {
	if opts.Addr == "" {
		return nil, errors.New("imap addr is required")
	}
	if opts.Username == "" || opts.Password == "" {
		return nil, errors.New("imap username/password is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	var (
		c   *imapclient.Client
		err error
	)
	if opts.Insecure {
		c, err = imapclient.DialInsecure(opts.Addr, nil)
	} else {
		tlsCfg := opts.TLSConfig
		if tlsCfg == nil {
			tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12, ServerName: hostOf(opts.Addr)}
		}
		c, err = imapclient.DialTLS(opts.Addr, &imapclient.Options{TLSConfig: tlsCfg})
	}
	if err != nil {
		return nil, fmt.Errorf("imap dial %s: %w", opts.Addr, err)
	}

	stop := context.AfterFunc(ctx, func() { _ = c.Close() })

	if err := c.Login(opts.Username, opts.Password).Wait(); err != nil {
		stop()
		_ = c.Close()
		return nil, fmt.Errorf("imap login: %w", err)
	}

	log.Debug("logged in", zap.String("addr", opts.Addr), zap.String("user", opts.Username))
	return &Client{c: c, stop: stop, log: log}, nil
}

// FetchAll selects folder and returns every message in it, ascending by UID.
// Bodies are fetched with BODY.PEEK[] so \Seen is left alone.
// The folder stays selected afterwards.
func (c *Client) FetchAll(ctx context.Context, folder string) ([]domain.Message, error) {
	if _, err := c.c.Select(folder, &imap.SelectOptions{ReadOnly: false}).Wait(); err != nil {
		return nil, fmt.Errorf("imap select %q: %w", folder, err)
	}

	searchData, err := c.c.UIDSearch(&imap.SearchCriteria{}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap uid search: %w", err)
	}
	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return []domain.Message{}, nil
	}

	bodyAll := &imap.FetchItemBodySection{
		Specifier: imap.PartSpecifierNone,
		Peek:      true,
	}
	fetchCmd := c.c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:         true,
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodyAll},
	})
	defer func() { _ = fetchCmd.Close() }()

	out := make([]domain.Message, 0, len(uids))
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		msgData := fetchCmd.Next()
		if msgData == nil {
			break
		}
		buf, err := msgData.Collect()
		if err != nil {
			return nil, fmt.Errorf("imap fetch collect: %w", err)
		}

		m := ParseMessage(buf.FindBodySection(bodyAll))
		m.UID = uint32(buf.UID)
		fillFromEnvelope(&m, buf.Envelope)
		out = append(out, m)
	}
	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("imap fetch close: %w", err)
	}

	slices.SortFunc(out, func(a, b domain.Message) int { return cmp.Compare(a.UID, b.UID) })
	c.log.Info("fetched", zap.String("folder", folder), zap.Int("messages", len(out)))
	return out, nil
}

// AppendDraft stores raw in folder with the \Draft flag.
func (c *Client) AppendDraft(ctx context.Context, folder string, raw []byte, t time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cmd := c.c.Append(folder, int64(len(raw)), &imap.AppendOptions{
		Flags: []imap.Flag{imap.FlagDraft},
		Time:  t,
	})
	if _, err := cmd.Write(raw); err != nil {
		_ = cmd.Close()
		return fmt.Errorf("imap append %q: %w", folder, err)
	}
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("imap append %q: %w", folder, err)
	}
	if _, err := cmd.Wait(); err != nil {
		return fmt.Errorf("imap append %q: %w", folder, err)
	}
	c.log.Info("appended draft", zap.String("folder", folder), zap.Int("bytes", len(raw)))
	return nil
}

// Archive copies (or moves) uids of the selected folder into dest, creating
// dest first when needed.
func (c *Client) Archive(ctx context.Context, uids []uint32, dest string, move bool) error {
	if len(uids) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.ensureMailbox(dest); err != nil {
		return err
	}

	set := imap.UIDSetNum(toIMAPUIDs(uids)...)
	if move {
		if _, err := c.c.Move(set, dest).Wait(); err != nil {
			return fmt.Errorf("imap move to %q: %w", dest, err)
		}
	} else {
		if _, err := c.c.Copy(set, dest).Wait(); err != nil {
			return fmt.Errorf("imap copy to %q: %w", dest, err)
		}
	}
	c.log.Info("archived", zap.String("dest", dest), zap.Int("messages", len(uids)), zap.Bool("move", move))
	return nil
}

// ensureMailbox creates name unless it already exists.
func (c *Client) ensureMailbox(name string) error {
	createErr := c.c.Create(name, nil).Wait()
	if createErr == nil {
		return nil
	}
	boxes, err := c.c.List("", name, nil).Collect()
	if err == nil && len(boxes) > 0 {
		return nil
	}
	return fmt.Errorf("imap create %q: %w", name, createErr)
}

// Close logs out and closes the connection.
func (c *Client) Close() {
	if c == nil || c.c == nil {
		return
	}
	if err := c.c.Logout().Wait(); err != nil {
		c.log.Debug("logout", zap.Error(err))
	}
	_ = c.c.Close()
	if c.stop != nil {
		c.stop()
	}
}

func fillFromEnvelope(m *domain.Message, env *imap.Envelope) {
	if env == nil {
		return
	}
	if m.Subject == "" {
		m.Subject = strings.TrimSpace(env.Subject)
	}
	if m.MessageID == "" {
		m.MessageID = env.MessageID
	}
	if m.Date.IsZero() {
		m.Date = env.Date
	}
	if m.From == "" && len(env.From) > 0 {
		m.From = env.From[0].Addr()
	}
}

func toIMAPUIDs(uids []uint32) []imap.UID {
	out := make([]imap.UID, len(uids))
	for i, u := range uids {
		out[i] = imap.UID(u)
	}
	return out
}

func hostOf(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// Addr joins host and port, defaulting to the IMAPS port. A host that already
// carries a port is returned unchanged.
func Addr(host string, port int) string {
	host = strings.TrimSpace(host)
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	if port == 0 {
		port = 993
	}
	return net.JoinHostPort(strings.Trim(host, "[]"), strconv.Itoa(port))
}
