package mail

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	netmail "net/mail"
	"sort"
	"strings"

	"github.com/bnema/crowdcast/internal/domain"
	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

const (
	DefaultIMAPServer = "imap.gmail.com:993"
	inbox             = "INBOX"
)

// IMAPMailbox opens a fresh TLS connection per call.
type IMAPMailbox struct {
	addr  string
	creds domain.Credentials
}

var _ Mailbox = (*IMAPMailbox)(nil)

func NewIMAPMailbox(creds domain.Credentials, fallbackServer string) *IMAPMailbox {
	addr := strings.TrimSpace(creds.IMAPServer)
	if addr == "" {
		addr = strings.TrimSpace(fallbackServer)
	}
	if addr == "" {
		addr = DefaultIMAPServer
	}
	if !strings.Contains(addr, ":") {
		addr += ":993"
	}
	return &IMAPMailbox{addr: addr, creds: creds}
}

func (m *IMAPMailbox) Unseen(ctx context.Context, query Query) ([]Message, error) {
	c, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = c.Logout() }()

	ids, err := search(c, query)
	if err != nil || len(ids) == 0 {
		return nil, err
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)
	section := &imap.BodySectionName{}

	fetched := make(chan *imap.Message, len(ids))
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, []imap.FetchItem{section.FetchItem()}, fetched)
	}()

	var messages []Message
	for msg := range fetched {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		parsed, err := parseMessage(body)
		if err != nil {
			continue
		}
		messages = append(messages, parsed)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	return messages, nil
}

func (m *IMAPMailbox) MarkSeen(ctx context.Context, query Query) (int, error) {
	c, err := m.connect(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = c.Logout() }()

	ids, err := search(c, query)
	if err != nil || len(ids) == 0 {
		return 0, err
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := c.Store(seqset, item, []interface{}{imap.SeenFlag}, nil); err != nil {
		return 0, fmt.Errorf("mark messages seen: %w", err)
	}
	return len(ids), nil
}

func (m *IMAPMailbox) connect(ctx context.Context) (*client.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := client.DialTLS(m.addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", m.addr, err)
	}
	if err := c.Login(m.creds.Email, m.creds.Password); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("login %s: %w", m.creds.Email, err)
	}
	if _, err := c.Select(inbox, false); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("select %s: %w", inbox, err)
	}
	return c, nil
}

// search runs one UNSEEN query per sender and merges the sequence numbers.
func search(c *client.Client, query Query) ([]uint32, error) {
	seen := map[uint32]struct{}{}
	for _, sender := range normalizeSenders(query.Senders) {
		criteria := imap.NewSearchCriteria()
		criteria.WithoutFlags = []string{imap.SeenFlag}
		criteria.Header.Add("From", sender)
		if subject := strings.TrimSpace(query.Subject); subject != "" {
			criteria.Header.Add("Subject", subject)
		}

		ids, err := c.Search(criteria)
		if err != nil {
			return nil, fmt.Errorf("search mail from %s: %w", sender, err)
		}
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}

	ids := make([]uint32, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	return ids, nil
}

func parseMessage(r io.Reader) (Message, error) {
	msg, err := netmail.ReadMessage(r)
	if err != nil {
		return Message{}, fmt.Errorf("parse message: %w", err)
	}

	decoder := new(mime.WordDecoder)
	subject, err := decoder.DecodeHeader(msg.Header.Get("Subject"))
	if err != nil {
		subject = msg.Header.Get("Subject")
	}

	text, err := plainText(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
	if err != nil {
		return Message{}, err
	}

	return Message{From: msg.Header.Get("From"), Subject: subject, Text: text}, nil
}

// plainText prefers a text/plain part and falls back to the first readable part.
func plainText(contentType, encoding string, body io.Reader) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if !strings.HasPrefix(mediaType, "multipart/") {
		data, err := io.ReadAll(decodeTransfer(encoding, body))
		if err != nil {
			return "", fmt.Errorf("read message body: %w", err)
		}
		return string(data), nil
	}

	reader := multipart.NewReader(body, params["boundary"])
	var fallback string
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fallback, nil
		}

		text, err := plainText(part.Header.Get("Content-Type"), part.Header.Get("Content-Transfer-Encoding"), part)
		if err != nil {
			continue
		}
		partType, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if partType == "text/plain" {
			return text, nil
		}
		if fallback == "" {
			fallback = text
		}
	}
	return fallback, nil
}

func decodeTransfer(encoding string, body io.Reader) io.Reader {
	if strings.EqualFold(strings.TrimSpace(encoding), "quoted-printable") {
		return quotedprintable.NewReader(body)
	}
	return body
}
