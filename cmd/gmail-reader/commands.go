package main

import (
	"github.com/spf13/cobra"

	"github.com/hal9000y/gmail-reader/internal/reader"
)

func newTestCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Check authentication and show mailbox totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, closeFn, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			p, err := a.reader.Profile(cmd.Context())
			if err != nil {
				return err
			}
			return printProfile(opts.stdout, opts.output, p)
		},
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var maxResults int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent messages, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, closeFn, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			l, err := a.reader.ListRecent(cmd.Context(), maxResults)
			if err != nil && len(l.Messages) == 0 {
				return err
			}
			if perr := printListing(opts.stdout, opts.output, l); perr != nil {
				return perr
			}
			return err
		},
	}
	cmd.Flags().IntVar(&maxResults, "max", reader.DefaultMaxResults, "Maximum number of results")

	return cmd
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		query      string
		maxResults int
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search messages using Gmail query syntax",
		Long: `Search messages using Gmail query operators, for example:

  from:boss@company.com is:unread after:2026/02/01
  subject:invoice has:attachment
  label:work -is:read`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if query == "" && len(args) == 1 {
				query = args[0]
			}

			a, closeFn, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			l, err := a.reader.Search(cmd.Context(), query, maxResults)
			if err != nil && len(l.Messages) == 0 {
				return err
			}
			if perr := printListing(opts.stdout, opts.output, l); perr != nil {
				return perr
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "Gmail search query")
	cmd.Flags().IntVar(&maxResults, "max", reader.DefaultMaxResults, "Maximum number of results")

	return cmd
}

func newReadCmd(opts *rootOptions) *cobra.Command {
	var (
		messageID string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "read [message-id]",
		Short: "Show a message with headers and body",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if messageID == "" && len(args) == 1 {
				messageID = args[0]
			}
			detail, err := reader.ParseDetail(format)
			if err != nil {
				return err
			}

			a, closeFn, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			m, err := a.reader.GetMessage(cmd.Context(), messageID, detail)
			if err != nil {
				return err
			}
			return printMessage(opts.stdout, opts.output, m, detail)
		},
	}
	cmd.Flags().StringVar(&messageID, "message-id", "", "Message ID")
	cmd.Flags().StringVar(&format, "format", string(reader.DetailSnippet), "Detail level: snippet or full")

	return cmd
}

func newThreadsCmd(opts *rootOptions) *cobra.Command {
	var threadID string

	cmd := &cobra.Command{
		Use:   "threads [thread-id]",
		Short: "Show every message of a thread",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if threadID == "" && len(args) == 1 {
				threadID = args[0]
			}

			a, closeFn, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			t, err := a.reader.GetThread(cmd.Context(), threadID)
			if err != nil {
				return err
			}
			return printThread(opts.stdout, opts.output, t)
		},
	}
	cmd.Flags().StringVar(&threadID, "thread-id", "", "Thread ID")

	return cmd
}

func newLabelsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "labels",
		Short: "List all labels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, closeFn, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			labels, err := a.reader.ListLabels(cmd.Context())
			if err != nil {
				return err
			}
			return printLabels(opts.stdout, opts.output, labels)
		},
	}
}
