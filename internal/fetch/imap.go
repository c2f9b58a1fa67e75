package fetch

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"mailtriage/internal/config"
	"mailtriage/internal/domain"
)

// State persists fetch progress between runs: the per-folder UID checkpoint
// and the seen-markers keyed by transport message id.
type State interface {
	GetFolderLastUID(ctx context.Context, folder string) (uint32, error)
	SetFolderLastUID(ctx context.Context, folder string, uid uint32) error
	IsSeen(ctx context.Context, messageID string) (bool, error)
	MarkSeen(ctx context.Context, messageID string) error
}

// Result is the fetch-level outcome handed to the pipeline: everything
// pulled, and the deduplicated inbound list.
type Result struct {
	Fetched int
	Inbound int
	Emails  []domain.Email
}

// Client pulls new mail from one IMAP mailbox. Each Fetch opens a fresh
// connection; there is no persistent session between runs.
type Client struct {
	cfg   *config.Config
	state State
	log   *logrus.Logger
}

func New(cfg *config.Config, state State, log *logrus.Logger) *Client {
	return &Client{cfg: cfg, state: state, log: log}
}

// Check dials the IMAP endpoint and logs in, verifying the whole chain is up
// before the pipeline commits to a run.
func (c *Client) Check(ctx context.Context) error {
	conn, err := c.dial()
	if err != nil {
		return err
	}
	defer conn.Logout()
	return nil
}

// Fetch pulls messages with UID above the stored checkpoint, parses them and
// returns the batch deduplicated by message id. Messages seen in an earlier
// run are dropped; messages over the size cap are skipped.
func (c *Client) Fetch(ctx context.Context) (Result, error) {
	var res Result

	conn, err := c.dial()
	if err != nil {
		return res, err
	}
	defer conn.Logout()

	mbox, err := conn.Select(c.cfg.IMAPFolder, true)
	if err != nil {
		return res, fmt.Errorf("select %s: %w", c.cfg.IMAPFolder, err)
	}

	lastUID, err := c.state.GetFolderLastUID(ctx, c.cfg.IMAPFolder)
	if err != nil {
		return res, fmt.Errorf("load uid checkpoint: %w", err)
	}
	if mbox.UidNext > 0 && lastUID >= mbox.UidNext {
		return res, nil
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddRange(lastUID+1, mbox.UidNext)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, imap.FetchInternalDate, section.FetchItem()}

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- conn.UidFetch(seqSet, items, messages)
	}()

	newMaxUID := lastUID
	seen := make(map[string]bool)

	for msg := range messages {
		if msg.Uid > newMaxUID {
			newMaxUID = msg.Uid
		}
		res.Fetched++

		email, err := c.parseMessage(msg, section)
		if err != nil {
			c.log.WithError(err).WithField("uid", msg.Uid).Warn("failed to parse message")
			continue
		}

		// Dedupe: within the batch, then against earlier runs.
		if email.MessageID != "" {
			if seen[email.MessageID] {
				continue
			}
			seen[email.MessageID] = true

			processed, err := c.state.IsSeen(ctx, email.MessageID)
			if err != nil {
				return res, fmt.Errorf("check seen marker: %w", err)
			}
			if processed {
				continue
			}
		}

		res.Emails = append(res.Emails, email)
	}

	if err := <-done; err != nil {
		return res, fmt.Errorf("uid fetch: %w", err)
	}

	if newMaxUID > lastUID {
		if err := c.state.SetFolderLastUID(ctx, c.cfg.IMAPFolder, newMaxUID); err != nil {
			c.log.WithError(err).Error("failed to advance uid checkpoint")
		}
	}

	res.Inbound = len(res.Emails)
	return res, nil
}

// MarkProcessed records seen-markers for a stored batch so the next run
// skips these messages even if the UID checkpoint regresses.
func (c *Client) MarkProcessed(ctx context.Context, emails []domain.Email) {
	for _, e := range emails {
		if e.MessageID == "" {
			continue
		}
		if err := c.state.MarkSeen(ctx, e.MessageID); err != nil {
			c.log.WithError(err).WithField("message_id", e.MessageID).Warn("failed to mark message seen")
		}
	}
}

func (c *Client) dial() (*client.Client, error) {
	addr := fmt.Sprintf("%s:%d", c.cfg.IMAPHost, c.cfg.IMAPPort)
	conn, err := client.DialTLS(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial imap %s: %w", addr, err)
	}
	if err := conn.Login(c.cfg.IMAPUser, c.cfg.IMAPPass); err != nil {
		conn.Logout()
		return nil, fmt.Errorf("imap login: %w", err)
	}
	return conn, nil
}

func (c *Client) parseMessage(msg *imap.Message, section *imap.BodySectionName) (domain.Email, error) {
	var email domain.Email

	r := msg.GetBody(section)
	if r == nil {
		return email, fmt.Errorf("server returned no body")
	}

	bodyBytes, err := io.ReadAll(r)
	if err != nil {
		return email, fmt.Errorf("read body: %w", err)
	}
	if len(bodyBytes) > c.cfg.MaxEmailBytes {
		return email, fmt.Errorf("message too large: %d bytes", len(bodyBytes))
	}

	mr, err := mail.CreateReader(strings.NewReader(string(bodyBytes)))
	if err != nil {
		return email, fmt.Errorf("create mail reader: %w", err)
	}

	header := mr.Header

	if fromList, err := header.AddressList("From"); err == nil && len(fromList) > 0 {
		email.From = strings.ToLower(fromList[0].Address)
	}
	if toList, err := header.AddressList("To"); err == nil && len(toList) > 0 {
		email.To = strings.ToLower(toList[0].Address)
	}
	if email.To == "" {
		email.To = strings.ToLower(c.cfg.Mailbox)
	}

	email.Subject, err = header.Subject()
	if err != nil {
		email.Subject = "(no subject)"
	}

	email.Date, err = header.Date()
	if err != nil || email.Date.IsZero() {
		email.Date = msg.InternalDate
	}

	email.MessageID, _ = header.MessageID()
	email.FetchID = ulid.Make().String()

	var text strings.Builder
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		if h, ok := p.Header.(*mail.InlineHeader); ok {
			t, _, _ := h.ContentType()
			if t == "text/plain" {
				b, _ := io.ReadAll(p.Body)
				text.Write(b)
			}
		}
	}
	email.Body = text.String()

	return email, nil
}
