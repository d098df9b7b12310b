package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/rlch/graphplan"
)

// quitWords end a REPL session.
var quitWords = map[string]bool{"sair": true, "exit": true, "quit": true}

// Answer is what one question produced.
type Answer struct {
	// Plan is nil when the question was not planned.
	Plan    *graphplan.Plan
	Records []graphplan.Record

	// Note explains an answer without records, e.g. a question that is not
	// about the graph.
	Note string
}

// AskFunc answers one question.
type AskFunc func(ctx context.Context, question string) (Answer, error)

// REPL is an interactive question loop. On a terminal it runs a bubbletea
// prompt; otherwise it reads one question per line.
type REPL struct {
	ask    AskFunc
	in     io.Reader
	out    io.Writer
	styles *Styles
}

// NewREPL creates a REPL reading from in and writing to out.
func NewREPL(ask AskFunc, in io.Reader, out io.Writer) *REPL {
	styles := PlainStyles()
	if isTerminal(out) {
		styles = DefaultStyles()
	}

	return &REPL{ask: ask, in: in, out: out, styles: styles}
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)

	return ok && isatty.IsTerminal(f.Fd())
}

// Run starts the loop and returns when the user quits or input ends.
func (r *REPL) Run(ctx context.Context) error {
	if !isTerminal(r.in) || !isTerminal(r.out) {
		return r.RunLines(ctx)
	}

	p := tea.NewProgram(newREPLModel(ctx, r.ask, r.styles),
		tea.WithContext(ctx),
		tea.WithInput(r.in),
		tea.WithOutput(r.out))

	_, err := p.Run()
	if err != nil {
		return fmt.Errorf("repl: %w", err)
	}

	return nil
}

// RunLines answers one question per input line.
func (r *REPL) RunLines(ctx context.Context) error {
	scanner := bufio.NewScanner(r.in)

	for scanner.Scan() {
		q := strings.TrimSpace(scanner.Text())
		if q == "" {
			continue
		}

		if quitWords[strings.ToLower(q)] {
			return nil
		}

		a, err := r.ask(ctx, q)

		_, werr := io.WriteString(r.out, renderAnswer(r.styles, q, a, err))
		if werr != nil {
			return werr
		}
	}

	return scanner.Err()
}

// renderAnswer renders the question, the plan and its records or error.
func renderAnswer(s *Styles, question string, a Answer, err error) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", s.Prompt.Render(s.SymbolPointer), s.Bold.Render(question))

	if err != nil {
		fmt.Fprintf(&b, "%s %s\n\n", s.Error.Render(s.SymbolFail), graphplan.UserMessage(err))

		return b.String()
	}

	if a.Plan != nil {
		for _, step := range a.Plan.Steps {
			fmt.Fprintf(&b, "%s %s %s\n",
				s.Dim.Render(fmt.Sprintf("step %d", step.Step)),
				s.Intent.Render(step.Description),
				s.Muted.Render("("+step.Value+")"))
		}
	}

	if a.Note != "" {
		fmt.Fprintf(&b, "%s %s\n", s.Warn.Render(s.SymbolWarn), a.Note)
	}

	if a.Plan != nil {
		b.WriteString(NewTextFormatter(s).Render(a.Records))
	}

	b.WriteString("\n")

	return b.String()
}

// replModel is the bubbletea model behind the interactive prompt. Answers
// are printed above the prompt so they stay in the scrollback.
type replModel struct {
	ctx     context.Context //nolint:containedctx // bubbletea commands outlive Update
	ask     AskFunc
	styles  *Styles
	input   textinput.Model
	spinner spinner.Model

	busy     bool
	pending  string
	started  time.Time
	quitting bool
}

// Messages.
type answerMsg struct {
	question string
	answer   Answer
	err      error
}

func newREPLModel(ctx context.Context, ask AskFunc, styles *Styles) *replModel {
	in := textinput.New()
	in.Placeholder = "Ask about the graph (exit to quit)"
	in.Prompt = styles.Prompt.Render(styles.SymbolPointer) + " "
	in.Focus()

	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: SpinnerFrames(),
		FPS:    time.Second / 10,
	}
	s.Style = styles.Busy

	return &replModel{
		ctx:     ctx,
		ask:     ask,
		styles:  styles,
		input:   in,
		spinner: s,
	}
}

func (m *replModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) { //nolint:ireturn // bubbletea.Model interface required by tea.Program
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type { //nolint:exhaustive
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true

			return m, tea.Quit
		case tea.KeyEnter:
			if m.busy {
				return m, nil
			}

			return m, m.submit()
		}

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}

		var cmd tea.Cmd

		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case answerMsg:
		m.busy = false
		m.pending = ""

		return m, tea.Println(strings.TrimSuffix(renderAnswer(m.styles, msg.question, msg.answer, msg.err), "\n"))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

// submit takes the typed question and starts answering it.
func (m *replModel) submit() tea.Cmd {
	q := strings.TrimSpace(m.input.Value())
	m.input.Reset()

	if q == "" {
		return nil
	}

	if quitWords[strings.ToLower(q)] {
		m.quitting = true

		return tea.Quit
	}

	m.busy = true
	m.pending = q
	m.started = time.Now()

	ask, ctx := m.ask, m.ctx

	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		a, err := ask(ctx, q)

		return answerMsg{question: q, answer: a, err: err}
	})
}

func (m *replModel) View() string {
	if m.quitting {
		return ""
	}

	if m.busy {
		return fmt.Sprintf("%s %s %s\n", m.spinner.View(), m.pending,
			m.styles.Dim.Render(formatDuration(time.Since(m.started))))
	}

	return m.input.View() + "\n"
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return "<1ms"
	}

	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
