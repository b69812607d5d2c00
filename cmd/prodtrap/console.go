package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/c360studio/prodtrap/sessionlog"
	"github.com/c360studio/prodtrap/sim"
)

// Console styles, one per transcript role.
var (
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true) // cyan
	alertStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)  // red
	promptStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))            // green
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// console drives one interactive session: it renders new transcript events
// after each engine turn and collects multiline submissions.
type console struct {
	in  *bufio.Scanner
	out io.Writer

	// printed tracks event IDs already rendered in this session, so a
	// merged-but-unchanged transcript renders each event once. Lives with
	// the session, never shared across sessions.
	printed map[string]bool
}

func newConsole(in io.Reader, out io.Writer) *console {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &console{
		in:      scanner,
		out:     out,
		printed: make(map[string]bool),
	}
}

// runSession runs a full simulation session for one learner.
func (c *console) runSession(ctx context.Context, engine *sim.Engine, store *sessionlog.Store, learnerID string) error {
	state, err := engine.NewSession(ctx, learnerID)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	if store != nil {
		if err := store.CreateSession(ctx, state); err != nil {
			return fmt.Errorf("record session: %w", err)
		}
	}

	// Welcome turn, then task presentation. Neither consumes input.
	for i := 0; i < 2 && !sim.Done(state); i++ {
		state, err = c.turn(ctx, engine, store, state, "")
		if err != nil {
			return err
		}
	}

	for !sim.Done(state) {
		submission, err := c.readSubmission()
		if err != nil {
			return err
		}

		state, err = c.turn(ctx, engine, store, state, submission)
		if err != nil {
			return err
		}
	}

	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, promptStyle.Render(fmt.Sprintf(
		"Session resolved in %d attempt(s). Well done.", state.Attempts)))
	return nil
}

// turn advances the engine once, persists the transcript, and renders any
// events not yet shown.
func (c *console) turn(ctx context.Context, engine *sim.Engine, store *sessionlog.Store, state *sim.SessionState, submission string) (*sim.SessionState, error) {
	next, err := engine.Advance(ctx, state, submission)
	if err != nil {
		return nil, fmt.Errorf("advance session: %w", err)
	}

	if store != nil {
		// Appends are keyed by event ID, so re-persisting the full
		// transcript is safe.
		if err := store.AppendEvents(ctx, next.SessionID, next.Messages); err != nil {
			return nil, fmt.Errorf("record transcript: %w", err)
		}
	}

	c.render(next)
	return next, nil
}

// render prints transcript events that have not been shown yet. Learner
// events are skipped; the learner just typed them.
func (c *console) render(state *sim.SessionState) {
	for _, e := range state.Messages {
		if c.printed[e.ID] {
			continue
		}
		c.printed[e.ID] = true

		switch e.Role {
		case sim.RoleAssistant:
			fmt.Fprintln(c.out)
			fmt.Fprintln(c.out, assistantStyle.Render("[Team]")+" "+e.Content)
		case sim.RoleSystem:
			fmt.Fprintln(c.out)
			fmt.Fprintln(c.out, alertStyle.Render("[Alert]")+" "+e.Content)
		case sim.RoleLearner:
			// Own input; not echoed.
		}
	}
}

// readSubmission collects multiline input until a line containing only
// DONE. Empty submissions are rejected here, before the engine runs, and
// the learner is re-prompted.
func (c *console) readSubmission() (string, error) {
	for {
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, promptStyle.Render("You (dev) - type or paste your code below."))
		fmt.Fprintln(c.out, dimStyle.Render("(Type DONE on its own line to submit)"))

		var lines []string
		eof := false
		for {
			if !c.in.Scan() {
				eof = true
				break
			}
			line := c.in.Text()
			if strings.ToUpper(strings.TrimSpace(line)) == "DONE" {
				break
			}
			lines = append(lines, line)
		}
		if err := c.in.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}

		submission := strings.TrimSpace(strings.Join(lines, "\n"))
		if submission != "" {
			return submission, nil
		}
		if eof {
			return "", io.ErrUnexpectedEOF
		}

		fmt.Fprintln(c.out, dimStyle.Render("Empty submission; please try again."))
	}
}
