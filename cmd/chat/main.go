package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dzeya/mensor-construction-4/internal/relay"
	"github.com/dzeya/mensor-construction-4/internal/widget"
)

var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
)

type options struct {
	url          string
	stream       bool
	timeout      time.Duration
	historyLimit int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := options{}
	cmd := &cobra.Command{
		Use:   "mensor-chat",
		Short: "Talk to the Mensor site assistant from a terminal",
		Long: `mensor-chat connects to a running Mensor backend and drives the same
conversation flow as the site widget. Ctrl-C aborts a reply in flight; press it
again while idle, or type /quit, to leave.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "http://localhost:8080", "Base URL of the Mensor backend")
	cmd.Flags().BoolVar(&opts.stream, "stream", true, "Use the streaming endpoint")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 60*time.Second, "Per-reply timeout")
	cmd.Flags().IntVar(&opts.historyLimit, "history-limit", 20, "Prior turns sent with each message (0 sends all)")

	return cmd
}

func run(ctx context.Context, opts options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := relay.NewClient(opts.url)
	if err != nil {
		return err
	}
	var r widget.Relay = client
	if !opts.stream {
		r = relay.Atomic{Client: client}
	}

	out := newPrinter(os.Stdout)
	ctrl, err := widget.New(r,
		widget.WithGreeting(widget.Greeting),
		widget.WithHistoryLimit(opts.historyLimit),
		widget.WithTimeout(opts.timeout),
		widget.WithObserver(out.Render),
	)
	if err != nil {
		return err
	}
	out.Render(ctrl.Snapshot())
	fmt.Println(hintStyle.Render("Type a question, /quit to exit."))

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	quit := make(chan struct{})
	go func() {
		for sig := range sigs {
			if sig == syscall.SIGINT && ctrl.State() == widget.StateAwaitingReply {
				ctrl.Cancel()
				continue
			}
			close(quit)
			return
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	for {
		fmt.Print(promptStyle.Render("You › "))
		var line string
		var ok bool
		select {
		case <-quit:
			fmt.Println()
			return nil
		case line, ok = <-lines:
			if !ok {
				fmt.Println()
				return nil
			}
		}

		if strings.TrimSpace(line) == "/quit" {
			return nil
		}

		ctrl.SetInput(line)
		err := ctrl.Submit(ctx)
		switch {
		case err == nil, errors.Is(err, widget.ErrEmptyInput):
		case errors.Is(err, context.Canceled):
			fmt.Fprintln(os.Stderr, hintStyle.Render("(reply cancelled)"))
		default:
			fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		}
	}
}
