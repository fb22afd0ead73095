// Package mail projects raw Gmail resources into the read-only records handed
// to the CLI and the MCP tools.
package mail

// Address is an email address with optional display name.
type Address struct {
	Name  string `json:"name,omitempty" jsonschema:"the display name"`
	Email string `json:"email" jsonschema:"the email address"`
}

// MessageSummary contains essential message metadata.
type MessageSummary struct {
	ID        string    `json:"id" jsonschema:"message ID"`
	ThreadID  string    `json:"thread_id" jsonschema:"thread ID"`
	Date      string    `json:"date" jsonschema:"received time, local, YYYY-MM-DD HH:MM:SS"`
	Timestamp int64     `json:"timestamp_ms" jsonschema:"received time in Unix milliseconds"`
	From      Address   `json:"from" jsonschema:"sender"`
	To        []Address `json:"to,omitempty" jsonschema:"recipients"`
	Cc        []Address `json:"cc,omitempty" jsonschema:"CC recipients"`
	Subject   string    `json:"subject" jsonschema:"email subject"`
	Snippet   string    `json:"snippet" jsonschema:"message preview"`
	LabelIDs  []string  `json:"label_ids,omitempty" jsonschema:"label IDs"`
}

// Message is a message with decoded bodies.
type Message struct {
	Summary      MessageSummary `json:"summary" jsonschema:"summary"`
	TextBody     string         `json:"text_body,omitempty" jsonschema:"plain text body, derived from HTML when missing"`
	HTMLBody     string         `json:"html_body,omitempty" jsonschema:"HTML body"`
	SizeEstimate int64          `json:"size_estimate,omitempty" jsonschema:"estimated size in bytes"`
	Attachments  []Attachment   `json:"attachments,omitempty" jsonschema:"attachment metadata"`
}

// Attachment represents email attachment metadata.
type Attachment struct {
	PartID   string `json:"part_id" jsonschema:"MIME part ID"`
	Filename string `json:"filename" jsonschema:"original filename"`
	MimeType string `json:"mime_type" jsonschema:"MIME type"`
	Size     int64  `json:"size" jsonschema:"size in bytes"`
}

// Thread is a conversation, messages in service order.
type Thread struct {
	ID       string    `json:"id" jsonschema:"thread ID"`
	Messages []Message `json:"messages" jsonschema:"messages in the thread, oldest first"`
}

// Label is a mailbox label.
type Label struct {
	ID   string `json:"id" jsonschema:"label ID"`
	Name string `json:"name" jsonschema:"label name"`
	Type string `json:"type,omitempty" jsonschema:"system or user"`
}

// Profile describes the authenticated mailbox.
type Profile struct {
	EmailAddress  string `json:"email_address"`
	MessagesTotal int64  `json:"messages_total"`
	ThreadsTotal  int64  `json:"threads_total"`
}
