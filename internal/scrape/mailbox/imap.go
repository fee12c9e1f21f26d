package mailbox

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// IMAPInbox reads alert mails over IMAPS. Mails are fetched with
// BODY.PEEK[] so their \Seen flag is left alone.
type IMAPInbox struct {
	Addr     string // host:port
	Username string
	Password string
	Mailbox  string // defaults to INBOX
	TLS      *tls.Config
}

// Recent returns up to max mails received since the given time, newest
// first.
func (in *IMAPInbox) Recent(ctx context.Context, since time.Time, max int) ([]Message, error) {
	c, err := in.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer logoutAndClose(c)

	box := in.Mailbox
	if box == "" {
		box = "INBOX"
	}
	if _, err := c.Select(box, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		return nil, fmt.Errorf("imap select %s: %w", box, err)
	}

	searchData, err := c.UIDSearch(&imap.SearchCriteria{Since: since}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap uid search: %w", err)
	}
	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return []Message{}, nil
	}
	slices.Reverse(uids)
	if max > 0 && len(uids) > max {
		uids = uids[:max]
	}

	bodyAll := &imap.FetchItemBodySection{Specifier: imap.PartSpecifierNone, Peek: true}
	fetchCmd := c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:         true,
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodyAll},
	})
	defer func() { _ = fetchCmd.Close() }()

	out := make([]Message, 0, len(uids))
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

		m := Message{UID: uint32(buf.UID)}
		if buf.Envelope != nil {
			m.Subject = buf.Envelope.Subject
			m.Date = buf.Envelope.Date
			if len(buf.Envelope.From) > 0 {
				m.From = buf.Envelope.From[0].Addr()
			}
		}
		if b := buf.FindBodySection(bodyAll); b != nil {
			m.Raw = append([]byte(nil), b...)
		}
		if m.Subject == "" || m.From == "" {
			fillHeaders(&m)
		}
		out = append(out, m)
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("imap fetch close: %w", err)
	}
	// newest first; the server returns fetch results in UID order
	slices.SortFunc(out, func(a, b Message) int { return int(b.UID) - int(a.UID) })
	return out, nil
}

func (in *IMAPInbox) dial(ctx context.Context) (*imapclient.Client, error) {
	if in.Addr == "" {
		return nil, errors.New("imap addr is required")
	}
	if in.Username == "" || in.Password == "" {
		return nil, errors.New("imap username/password is required")
	}
	tlsCfg := in.TLS
	if tlsCfg == nil {
		tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	c, err := imapclient.DialTLS(in.Addr, &imapclient.Options{TLSConfig: tlsCfg})
	if err != nil {
		return nil, fmt.Errorf("imap dial tls: %w", err)
	}

	// unblock pending commands when the caller gives up
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	if err := c.Login(in.Username, in.Password).Wait(); err != nil {
		stop()
		_ = c.Close()
		return nil, fmt.Errorf("imap login: %w", err)
	}
	return c, nil
}

func logoutAndClose(c *imapclient.Client) {
	if err := c.Logout().Wait(); err != nil {
		log.Printf("[mailbox] imap logout: %v", err)
	}
	_ = c.Close()
}

func fillHeaders(m *Message) {
	if len(m.Raw) == 0 {
		return
	}
	msg, err := mail.ReadMessage(bytes.NewReader(m.Raw))
	if err != nil {
		return
	}
	if m.Subject == "" {
		m.Subject = decodeHeader(msg.Header.Get("Subject"))
	}
	if m.From == "" {
		if a, err := mail.ParseAddress(msg.Header.Get("From")); err == nil {
			m.From = a.Address
		} else {
			m.From = strings.TrimSpace(msg.Header.Get("From"))
		}
	}
	if m.Date.IsZero() {
		if t, err := mail.ParseDate(msg.Header.Get("Date")); err == nil {
			m.Date = t
		}
	}
}
