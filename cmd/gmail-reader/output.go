package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/hal9000y/gmail-reader/internal/mail"
	"github.com/hal9000y/gmail-reader/internal/reader"
)

const (
	outputTable = "table"
	outputJSON  = "json"

	snippetMaxLength = 100
	subjectMaxLength = 60
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json.Encode failed: %w", err)
	}
	return nil
}

func printListing(w io.Writer, format string, l reader.Listing) error {
	if format == outputJSON {
		return printJSON(w, l.Messages)
	}

	if len(l.Messages) == 0 {
		_, err := fmt.Fprintln(w, "No messages found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tDATE\tFROM\tSUBJECT\tSNIPPET")
	for _, m := range l.Messages {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			m.ID, m.Date, oneLine(formatAddress(m.From)), truncate(oneLine(m.Subject), subjectMaxLength), truncate(oneLine(m.Snippet), snippetMaxLength))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("tw.Flush failed: %w", err)
	}

	_, err := fmt.Fprintf(w, "\n%d message(s)%s\n", len(l.Messages), listingNote(l))
	return err
}

func listingNote(l reader.Listing) string {
	var notes []string
	if l.Skipped > 0 {
		notes = append(notes, fmt.Sprintf("%d skipped", l.Skipped))
	}
	if l.Summary.Truncated {
		notes = append(notes, fmt.Sprintf("truncated: %s", l.Summary.StopReason))
	}
	if len(notes) == 0 {
		return ""
	}
	return " (" + strings.Join(notes, ", ") + ")"
}

func printMessage(w io.Writer, format string, m mail.Message, detail reader.Detail) error {
	if format == outputJSON {
		return printJSON(w, m)
	}

	printHeaders(w, m.Summary)
	if len(m.Summary.LabelIDs) > 0 {
		_, _ = fmt.Fprintf(w, "Labels:  %s\n", strings.Join(m.Summary.LabelIDs, ", "))
	}

	if detail == reader.DetailSnippet {
		_, err := fmt.Fprintf(w, "\n%s\n", m.Summary.Snippet)
		return err
	}

	body := m.TextBody
	if body == "" {
		body = "(no text body)"
	}
	_, _ = fmt.Fprintf(w, "\n%s\n", body)

	if len(m.Attachments) > 0 {
		_, _ = fmt.Fprintln(w, "\nAttachments:")
		for _, a := range m.Attachments {
			_, _ = fmt.Fprintf(w, "  - %s (%s, %d bytes)\n", a.Filename, a.MimeType, a.Size)
		}
	}

	return nil
}

func printThread(w io.Writer, format string, t mail.Thread) error {
	if format == outputJSON {
		return printJSON(w, t)
	}

	_, _ = fmt.Fprintf(w, "Thread %s (%d message(s))\n", t.ID, len(t.Messages))
	for i, m := range t.Messages {
		_, _ = fmt.Fprintf(w, "\n--- Message %d/%d (%s) ---\n", i+1, len(t.Messages), m.Summary.ID)
		printHeaders(w, m.Summary)
		_, _ = fmt.Fprintf(w, "Snippet: %s\n", truncate(oneLine(m.Summary.Snippet), snippetMaxLength))
	}

	return nil
}

func printHeaders(w io.Writer, s mail.MessageSummary) {
	_, _ = fmt.Fprintf(w, "From:    %s\n", formatAddress(s.From))
	if len(s.To) > 0 {
		_, _ = fmt.Fprintf(w, "To:      %s\n", formatAddresses(s.To))
	}
	if len(s.Cc) > 0 {
		_, _ = fmt.Fprintf(w, "Cc:      %s\n", formatAddresses(s.Cc))
	}
	_, _ = fmt.Fprintf(w, "Date:    %s\n", s.Date)
	_, _ = fmt.Fprintf(w, "Subject: %s\n", s.Subject)
}

func printLabels(w io.Writer, format string, labels []mail.Label) error {
	if format == outputJSON {
		return printJSON(w, labels)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tTYPE")
	for _, l := range labels {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", l.ID, l.Name, l.Type)
	}
	return tw.Flush()
}

func printProfile(w io.Writer, format string, p mail.Profile) error {
	if format == outputJSON {
		return printJSON(w, p)
	}

	_, _ = fmt.Fprintf(w, "Authenticated as: %s\n", p.EmailAddress)
	_, _ = fmt.Fprintf(w, "Total messages: %d\n", p.MessagesTotal)
	_, err := fmt.Fprintf(w, "Total threads: %d\n", p.ThreadsTotal)
	return err
}

func formatAddress(a mail.Address) string {
	if a.Name == "" {
		return a.Email
	}
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

func formatAddresses(as []mail.Address) string {
	parts := make([]string, 0, len(as))
	for _, a := range as {
		parts = append(parts, formatAddress(a))
	}
	return strings.Join(parts, ", ")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n]) + "..."
}
