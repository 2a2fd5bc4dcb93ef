// Package shell implements the interactive operator console.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"codeberg.org/mutker/scadactl/internal/advisor"
	"codeberg.org/mutker/scadactl/internal/app"
	"codeberg.org/mutker/scadactl/internal/collector"
	"codeberg.org/mutker/scadactl/internal/logger"
	"codeberg.org/mutker/scadactl/internal/scada"
)

const historyDisplayCount = 10

// Shell reads operator commands line by line. Anything that is not a
// known command is forwarded to the advisor; proposed actions stay
// pending until the operator approves or denies them.
type Shell struct {
	app *app.App
	in  io.Reader
	out io.Writer

	pending *pendingAction
}

type pendingAction struct {
	Tag     string
	Value   float64
	Thought string
}

func New(a *app.App) *Shell {
	return &Shell{app: a, in: os.Stdin, out: os.Stdout}
}

// NewWithIO is the test constructor.
func NewWithIO(a *app.App, in io.Reader, out io.Writer) *Shell {
	return &Shell{app: a, in: in, out: out}
}

// Run processes commands until EOF, "quit" or context cancellation.
func (s *Shell) Run(ctx context.Context) error {
	s.printBanner()

	scanner := bufio.NewScanner(s.in)
	for {
		fmt.Fprint(s.out, "\n> ")

		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if quit := s.dispatch(ctx, line); quit {
			return nil
		}
	}
}

// dispatch handles one input line, returning true to exit the loop.
func (s *Shell) dispatch(ctx context.Context, line string) bool {
	command, arg, _ := strings.Cut(line, " ")

	switch strings.ToLower(command) {
	case "quit", "exit", "q":
		fmt.Fprintln(s.out, "Bye.")
		return true
	case "help", "?":
		s.printHelp()
	case "approve", "yes", "y":
		s.approvePending()
	case "deny", "no", "n":
		s.denyPending()
	case "status":
		fmt.Fprintln(s.out, s.app.Collector.FormatCurrentReadings())
	case "history":
		s.printHistory()
	case "stats":
		s.printStats()
	case "analyze":
		fmt.Fprintln(s.out, "Agent: analyzing...")
		s.handleResult(s.app.Advisor.AnalyzeCurrentState(ctx))
	case "diagnose":
		if arg == "" {
			fmt.Fprintln(s.out, "Usage: diagnose <symptom>")
			break
		}
		fmt.Fprintln(s.out, "Agent: analyzing problem...")
		s.handleResult(s.app.Advisor.DiagnoseIssue(ctx, arg))
	case "optimize":
		fmt.Fprintln(s.out, "Agent: looking for optimizations...")
		s.handleResult(s.app.Advisor.SuggestOptimization(ctx))
	case "explain":
		if arg == "" {
			fmt.Fprintln(s.out, "Usage: explain <observation>")
			break
		}
		fmt.Fprintln(s.out, "Agent: explaining...")
		s.handleResult(s.app.Advisor.ExplainBehavior(ctx, arg))
	case "conversation":
		fmt.Fprintln(s.out, s.app.Advisor.HistorySummary())
	case "export":
		s.exportHistory(arg)
	case "clear":
		s.app.Advisor.ClearHistory()
		fmt.Fprintln(s.out, "Conversation history cleared.")
	default:
		fmt.Fprintln(s.out, "Agent: thinking...")
		s.handleResult(s.app.Advisor.Ask(ctx, line))
	}

	return false
}

// handleResult prints an advisor result. Action results are parked as
// pending until the operator decides.
func (s *Shell) handleResult(result advisor.Result, err error) {
	if err != nil {
		fmt.Fprintf(s.out, "Agent error: %v\n", err)
		return
	}

	fmt.Fprintf(s.out, "\nAgent: %s\n", result.Text)

	if result.Action == nil {
		return
	}

	s.pending = &pendingAction{
		Tag:     result.Action.Tag,
		Value:   result.Action.Value,
		Thought: result.Action.Thought,
	}

	fmt.Fprintf(s.out, "\nProposed action: write %g to %s\n", s.pending.Value, s.pending.Tag)
	fmt.Fprintln(s.out, "Type 'approve' to execute or 'deny' to discard.")
}

func (s *Shell) approvePending() {
	if s.pending == nil {
		fmt.Fprintln(s.out, "No action pending approval.")
		return
	}

	action := *s.pending
	s.pending = nil

	safe, reason := s.app.Catalog.CheckSafe(action.Tag, action.Value)
	if !safe {
		fmt.Fprintf(s.out, "Blocked by safety check: %s\n", reason)
		return
	}

	if err := s.app.Client.WritePoint(action.Tag, action.Value, scada.DataTypeNumeric); err != nil {
		fmt.Fprintf(s.out, "Write failed: %v\n", err)
		return
	}

	logger.Info().Str("tag", action.Tag).Float64("value", action.Value).Msg("Approved action executed")
	fmt.Fprintf(s.out, "Written %g to %s.\n", action.Value, action.Tag)
}

func (s *Shell) denyPending() {
	if s.pending == nil {
		fmt.Fprintln(s.out, "No action pending approval.")
		return
	}

	fmt.Fprintf(s.out, "Discarded proposed write to %s.\n", s.pending.Tag)
	s.pending = nil
}

func (s *Shell) printHistory() {
	snapshots := s.app.Collector.GetHistory(historyDisplayCount, 0)
	if len(snapshots) == 0 {
		fmt.Fprintln(s.out, "History buffer is empty.")
		return
	}

	fmt.Fprintf(s.out, "Last %d readings:\n", len(snapshots))
	for _, snapshot := range snapshots {
		parts := make([]string, 0, len(snapshot.Values))
		for name, value := range snapshot.Values {
			if collector.IsMissing(value) {
				parts = append(parts, name+"=ERROR")
				continue
			}
			parts = append(parts, fmt.Sprintf("%s=%.2f", name, value))
		}
		fmt.Fprintf(s.out, "  [%s] %s\n",
			snapshot.Timestamp.Format("15:04:05"), strings.Join(parts, " "))
	}
}

func (s *Shell) printStats() {
	stats, err := s.app.Collector.AllStatistics()
	if err != nil {
		fmt.Fprintf(s.out, "No statistics available: %v\n", err)
		return
	}

	fmt.Fprintln(s.out, "Statistics:")
	for name, ps := range stats {
		fmt.Fprintf(s.out, "  %s: mean=%.2f, min=%.2f, max=%.2f, trend=%s\n",
			name, ps.Mean, ps.Min, ps.Max, ps.Trend)
	}
}

func (s *Shell) exportHistory(format string) {
	if format == "" {
		format = collector.FormatCSV
	}

	filename := fmt.Sprintf("scadactl-%s.%s", time.Now().Format("20060102-150405"), format)

	f, err := os.Create(filename)
	if err != nil {
		fmt.Fprintf(s.out, "Export failed: %v\n", err)
		return
	}
	defer f.Close()

	if err := s.app.Collector.Export(f, format); err != nil {
		fmt.Fprintf(s.out, "Export failed: %v\n", err)
		return
	}

	fmt.Fprintf(s.out, "Data exported to %s\n", filename)
}

func (s *Shell) printBanner() {
	fmt.Fprintln(s.out, "scadactl interactive console. Type 'help' for commands.")
}

func (s *Shell) printHelp() {
	fmt.Fprint(s.out, `Commands:
  status              current readings
  history             last readings from the buffer
  stats               per-point statistics and trends
  analyze             ask the agent for a full analysis
  diagnose <symptom>  ask the agent to diagnose a problem
  optimize            ask the agent for optimization suggestions
  explain <observed>  ask the agent to explain an observed behavior
  export [format]     dump history to a csv or json file
  conversation        summary of the agent conversation
  clear               clear the agent conversation history
  approve / deny      decide on a pending proposed action
  help                this text
  quit                exit
Anything else is sent to the agent as a question.
`)
}
