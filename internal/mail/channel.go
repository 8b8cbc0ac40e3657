// Package mail wraps the outbound SMTP channel the scan report is sent
// through.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"

	gomail "github.com/wneessen/go-mail"

	"github.com/xxxhand/scan-ota-status/internal/core"
)

// Attachment is a named payload carried with a message.
type Attachment struct {
	FileName string
	Content  []byte
}

// Message is the channel's view of one outbound mail.
type Message struct {
	From        string
	Sender      string
	To          []string
	Cc          []string
	Bcc         []string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Options configure the relay connection.
type Options struct {
	Host     string
	Port     int
	User     string
	Password string
	// MinTLS pins the lowest negotiable protocol version. Zero means
	// TLS 1.2. Certificate validation is always on; there is no knob to
	// weaken it.
	MinTLS uint16
}

// Channel wraps the SMTP client. Verify and Send dial and release their
// own relay connections, so no mail session outlives the run that opened
// it; Close releases the client once at process shutdown.
type Channel struct {
	client *gomail.Client
}

// NewChannel configures the SMTP client. TLS is mandatory with the minimum
// version pinned; credentials are attached only when a user is set.
func NewChannel(opts Options) (*Channel, error) {
	minTLS := opts.MinTLS
	if minTLS == 0 {
		minTLS = tls.VersionTLS12
	}
	clientOpts := []gomail.Option{
		gomail.WithPort(opts.Port),
		gomail.WithTLSPortPolicy(gomail.TLSMandatory),
		gomail.WithTLSConfig(&tls.Config{
			MinVersion: minTLS,
			ServerName: opts.Host,
		}),
	}
	if opts.Port == 465 {
		clientOpts = append(clientOpts, gomail.WithSSLPort(false))
	}
	if opts.User != "" {
		clientOpts = append(clientOpts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(opts.User),
			gomail.WithPassword(opts.Password),
		)
	}

	client, err := gomail.NewClient(opts.Host, clientOpts...)
	if err != nil {
		return nil, core.NewConnectionError("configure mail client", err)
	}
	return &Channel{client: client}, nil
}

// Verify probes the relay handshake and releases the connection.
func (c *Channel) Verify(ctx context.Context) error {
	if c == nil || c.client == nil {
		return core.NewConnectionError("mail channel not initialized", nil)
	}
	if err := c.client.DialWithContext(ctx); err != nil {
		return core.NewConnectionError("verify mail relay", err)
	}
	_ = c.client.Close()
	return nil
}

// Send normalizes and dispatches one message. The connection is dialed and
// closed inside the call.
func (c *Channel) Send(ctx context.Context, msg *Message) error {
	if c == nil || c.client == nil {
		return core.NewConnectionError("mail channel not initialized", nil)
	}
	m, err := buildMsg(msg)
	if err != nil {
		return core.NewDeliveryError("build message", err)
	}
	if err := c.client.DialAndSendWithContext(ctx, m); err != nil {
		return core.NewDeliveryError("send message", err)
	}
	return nil
}

// Close releases the client. Call exactly once, at process shutdown; a
// close on an idle client is harmless.
func (c *Channel) Close() {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Close()
}

// buildMsg converts a Message to the transport's wire shape: the sender
// defaults to from, absent cc/bcc/text/html are elided, attachments become
// reader parts.
func buildMsg(msg *Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, err
	}
	sender := msg.Sender
	if sender == "" {
		sender = msg.From
	}
	if err := m.EnvelopeFrom(sender); err != nil {
		return nil, err
	}
	if err := m.To(msg.To...); err != nil {
		return nil, err
	}
	if len(msg.Cc) > 0 {
		if err := m.Cc(msg.Cc...); err != nil {
			return nil, err
		}
	}
	if len(msg.Bcc) > 0 {
		if err := m.Bcc(msg.Bcc...); err != nil {
			return nil, err
		}
	}
	m.Subject(msg.Subject)
	if msg.Text != "" {
		m.SetBodyString(gomail.TypeTextPlain, msg.Text)
	}
	if msg.HTML != "" {
		if msg.Text == "" {
			m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
		} else {
			m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
		}
	}
	for _, a := range msg.Attachments {
		if err := m.AttachReader(a.FileName, bytes.NewReader(a.Content)); err != nil {
			return nil, err
		}
	}
	return m, nil
}
