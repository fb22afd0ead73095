package mail

import (
	"encoding/base64"
	"mime"
	netmail "net/mail"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-reader/internal/format"
)

const (
	// MaxMIMEDepth bounds recursion into nested multipart bodies.
	MaxMIMEDepth = 10

	// DateLayout formats message timestamps.
	DateLayout = "2006-01-02 15:04:05"

	unknown     = "(unknown)"
	noSubject   = "(no subject)"
	invalidDate = "(invalid date)"
)

// Summarize projects headers, snippet and labels of msg.
func Summarize(msg *gmail.Message) MessageSummary {
	s := MessageSummary{
		ID:        msg.Id,
		ThreadID:  msg.ThreadId,
		Snippet:   msg.Snippet,
		Timestamp: msg.InternalDate,
		Date:      FormatDate(msg.InternalDate, time.Local),
		From:      Address{Email: unknown},
		Subject:   noSubject,
		LabelIDs:  msg.LabelIds,
	}

	if msg.Payload != nil {
		extractHeadersToSummary(msg.Payload.Headers, &s)
	}

	return s
}

// Project builds the full record of msg, decoding its bodies.
func Project(msg *gmail.Message) Message {
	m := Message{
		Summary:      Summarize(msg),
		SizeEstimate: msg.SizeEstimate,
	}

	if msg.Payload != nil {
		m.TextBody, m.HTMLBody = extractMessageBodies(msg.Payload, 0)
		m.Attachments = extractAttachments(msg.Payload, 0)
	}

	if m.TextBody == "" && m.HTMLBody != "" {
		m.TextBody = format.HTMLToText(m.HTMLBody)
	}

	return m
}

// ProjectThread keeps the message order of the service.
func ProjectThread(t *gmail.Thread) Thread {
	out := Thread{ID: t.Id, Messages: make([]Message, 0, len(t.Messages))}
	for _, msg := range t.Messages {
		if msg.ThreadId == "" {
			msg.ThreadId = t.Id
		}
		out.Messages = append(out.Messages, Project(msg))
	}
	return out
}

// ProjectLabels converts labels, keeping service order.
func ProjectLabels(labels []*gmail.Label) []Label {
	out := make([]Label, 0, len(labels))
	for _, l := range labels {
		out = append(out, Label{ID: l.Id, Name: l.Name, Type: l.Type})
	}
	return out
}

// ProjectProfile converts the mailbox profile.
func ProjectProfile(p *gmail.Profile) Profile {
	return Profile{
		EmailAddress:  p.EmailAddress,
		MessagesTotal: p.MessagesTotal,
		ThreadsTotal:  p.ThreadsTotal,
	}
}

// FormatDate renders Gmail's internalDate (Unix milliseconds) in loc.
func FormatDate(ms int64, loc *time.Location) string {
	if ms <= 0 {
		return invalidDate
	}
	return time.UnixMilli(ms).In(loc).Format(DateLayout)
}

func extractHeadersToSummary(headers []*gmail.MessagePartHeader, s *MessageSummary) {
	for _, h := range headers {
		switch strings.ToLower(h.Name) {
		case "from":
			if addrs := parseAddressList(h.Value); len(addrs) > 0 {
				s.From = addrs[0]
			}
		case "to":
			s.To = parseAddressList(h.Value)
		case "cc":
			s.Cc = parseAddressList(h.Value)
		case "subject":
			if v := strings.TrimSpace(h.Value); v != "" {
				s.Subject = v
			}
		}
	}
}

var wordDecoder = &mime.WordDecoder{}

// parseAddressList parses an address header, falling back to a lenient split
// for headers net/mail rejects.
func parseAddressList(value string) []Address {
	if strings.TrimSpace(value) == "" {
		return nil
	}

	if list, err := netmail.ParseAddressList(value); err == nil {
		out := make([]Address, 0, len(list))
		for _, a := range list {
			out = append(out, Address{Name: a.Name, Email: a.Address})
		}
		return out
	}

	parts := strings.Split(value, ",")
	out := make([]Address, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, parseEmailAddress(trimmed))
		}
	}
	return out
}

func parseEmailAddress(from string) Address {
	addr := Address{}

	if idx := strings.Index(from, "<"); idx != -1 {
		addr.Name = strings.TrimSpace(from[:idx])
		if endIdx := strings.Index(from[idx:], ">"); endIdx != -1 {
			addr.Email = strings.TrimSpace(from[idx+1 : idx+endIdx])
		}
	} else {
		addr.Email = strings.TrimSpace(from)
	}

	addr.Name = strings.Trim(addr.Name, "\"")
	if decoded, err := wordDecoder.DecodeHeader(addr.Name); err == nil {
		addr.Name = decoded
	}

	return addr
}

// extractMessageBodies returns the first text/plain and text/html bodies
// found depth first. Parts deeper than MaxMIMEDepth are ignored.
func extractMessageBodies(part *gmail.MessagePart, depth int) (textBody, htmlBody string) {
	if depth > MaxMIMEDepth {
		return "", ""
	}

	textBody, htmlBody = extractBodyFromPart(part)

	for _, child := range part.Parts {
		childText, childHTML := extractMessageBodies(child, depth+1)
		if textBody == "" {
			textBody = childText
		}
		if htmlBody == "" {
			htmlBody = childHTML
		}
		if textBody != "" && htmlBody != "" {
			break
		}
	}

	return textBody, htmlBody
}

func extractBodyFromPart(part *gmail.MessagePart) (textBody, htmlBody string) {
	if part.Body == nil || part.Body.Data == "" || part.Filename != "" {
		return "", ""
	}

	mediaType := strings.ToLower(part.MimeType)
	switch {
	case mediaType == "text/plain":
		return decodeBody(part), ""
	case mediaType == "text/html":
		return "", decodeBody(part)
	default:
		return "", ""
	}
}

func decodeBody(part *gmail.MessagePart) string {
	return format.DecodeText(decodeBase64URL(part.Body.Data), partCharset(part))
}

func partCharset(part *gmail.MessagePart) string {
	for _, h := range part.Headers {
		if !strings.EqualFold(h.Name, "Content-Type") {
			continue
		}
		if _, params, err := mime.ParseMediaType(h.Value); err == nil {
			return params["charset"]
		}
	}
	return ""
}

func decodeBase64URL(data string) []byte {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
		if err != nil {
			return []byte(data)
		}
	}
	return decoded
}

func extractAttachments(part *gmail.MessagePart, depth int) []Attachment {
	if depth > MaxMIMEDepth {
		return nil
	}

	var attachments []Attachment
	if part.Filename != "" && part.Body != nil {
		attachments = append(attachments, Attachment{
			PartID:   part.PartId,
			Filename: part.Filename,
			MimeType: part.MimeType,
			Size:     part.Body.Size,
		})
	}

	for _, child := range part.Parts {
		attachments = append(attachments, extractAttachments(child, depth+1)...)
	}

	return attachments
}
