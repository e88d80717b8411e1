package mail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
)

// Attachment 附件內容直接給bytes, 不落地暫存檔
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

type EmailSender interface {
	SendEmail(subject, htmlContent string, to, cc, bcc []string, attachments []Attachment) error
}

/*
SMTPSender 走SMTP PLAIN auth寄HTML信
附件以multipart/mixed + base64掛上, 發票PDF就是走這條路
*/
type SMTPSender struct {
	senderName  string
	fromAddress string
	authKey     string
	host        string
	port        string
}

func NewSMTPSender(senderName, fromAddress, authKey, host, port string) *SMTPSender {
	return &SMTPSender{
		senderName:  senderName,
		fromAddress: fromAddress,
		authKey:     authKey,
		host:        host,
		port:        port,
	}
}

var _ EmailSender = (*SMTPSender)(nil)

func (s *SMTPSender) SendEmail(subject, htmlContent string, to, cc, bcc []string, attachments []Attachment) error {
	msg, err := buildMessage(s.senderName, s.fromAddress, subject, htmlContent, to, cc, attachments)
	if err != nil {
		return err
	}

	recipients := make([]string, 0, len(to)+len(cc)+len(bcc))
	recipients = append(recipients, to...)
	recipients = append(recipients, cc...)
	recipients = append(recipients, bcc...)

	auth := smtp.PlainAuth("", s.fromAddress, s.authKey, s.host)
	if err := smtp.SendMail(s.host+":"+s.port, auth, s.fromAddress, recipients, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

const mixedBoundary = "rj-mail-boundary-5c1f"

func buildMessage(senderName, fromAddress, subject, htmlContent string, to, cc []string, attachments []Attachment) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s <%s>\r\n", mime.QEncoding.Encode("utf-8", senderName), fromAddress)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(to, ", "))
	if len(cc) > 0 {
		fmt.Fprintf(&buf, "Cc: %s\r\n", strings.Join(cc, ", "))
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if len(attachments) == 0 {
		buf.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
		buf.WriteString(htmlContent)
		return buf.Bytes(), nil
	}

	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mixedBoundary)

	fmt.Fprintf(&buf, "--%s\r\n", mixedBoundary)
	buf.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	buf.WriteString(htmlContent)
	buf.WriteString("\r\n")

	for _, att := range attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		fmt.Fprintf(&buf, "--%s\r\n", mixedBoundary)
		fmt.Fprintf(&buf, "Content-Type: %s\r\n", contentType)
		buf.WriteString("Content-Transfer-Encoding: base64\r\n")
		fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=%q\r\n\r\n", att.Filename)

		encoded := base64.StdEncoding.EncodeToString(att.Content)
		// RFC 2045每行上限76字元
		for len(encoded) > 76 {
			buf.WriteString(encoded[:76])
			buf.WriteString("\r\n")
			encoded = encoded[76:]
		}
		buf.WriteString(encoded)
		buf.WriteString("\r\n")
	}
	fmt.Fprintf(&buf, "--%s--\r\n", mixedBoundary)

	return buf.Bytes(), nil
}
