package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"reviewrec/internal/domain"
	"reviewrec/internal/explain"
	"reviewrec/internal/service"
)

// SimilarPort is the TUI-facing subset of the recommender.
type SimilarPort interface {
	Similar(ctx context.Context, q service.Query) ([]domain.Result, error)
	Review(id string) (domain.Review, bool)
	Suggest(id string, n int) []string
}

// Model is the Bubble Tea model for the review browser.
type Model struct {
	service  SimilarPort
	k        int
	input    textinput.Model
	viewport viewport.Model
	results  []domain.Result
	query    domain.Review
	summary  string
	status   string
	cursor   int
	ready    bool
}

// New creates a browser returning k results per query.
func New(service SimilarPort, k int, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "review id> "
	ti.Placeholder = "Type a review id and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{service: service, k: k, input: ti, viewport: vp, summary: summary, status: "Loaded. Type a review id."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header+summary, status, spacer
		vh := max(3, msg.Height-reserved)
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if id := strings.TrimSpace(m.input.Value()); id != "" {
				m = m.lookup(id)
				m.viewport.SetContent(m.renderCurrentResult())
				m.viewport.GotoTop()
				return m, nil
			}
		case "down", "right":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "up", "left":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "pgdown":
			m.viewport.HalfViewDown()
			return m, nil
		case "pgup":
			m.viewport.HalfViewUp()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) lookup(id string) Model {
	res, err := m.service.Similar(context.Background(), service.Query{ReviewID: id, K: m.k})
	switch {
	case errors.Is(err, domain.ErrNotFound):
		m.status = fmt.Sprintf("Unknown review %q", id)
		if s := m.service.Suggest(id, 3); len(s) > 0 {
			m.status += ", did you mean " + strings.Join(s, ", ") + "?"
		}
		m.results = nil
		m.query = domain.Review{}
	case err != nil:
		m.status = "Error: " + err.Error()
		m.results = nil
		m.query = domain.Review{}
	default:
		m.query, _ = m.service.Review(id)
		m.results = res
		m.cursor = 0
		m.status = fmt.Sprintf("%d similar reviews for %s (%s)", len(res), id, m.query.MovieTitle)
	}
	return m
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Similar Reviews")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrentResult() string {
	if len(m.results) == 0 {
		return "No results yet."
	}
	r := m.results[m.cursor]
	var b strings.Builder
	fmt.Fprintf(&b, "Result %d/%d  %s  similarity=%.4f score=%.4f", m.cursor+1, len(m.results), r.ReviewID, r.Similarity, r.Score)
	if r.Rating != nil {
		fmt.Fprintf(&b, "  rating=%g", *r.Rating)
	}
	b.WriteString("\n")
	if r.Title != "" {
		b.WriteString(titleStyle.Render(r.Title) + "\n")
	}
	b.WriteString("\n" + highlightSentences(r.Snippet, r.Explanations.MatchingSentences) + "\n")
	if len(r.Explanations.Keywords) > 0 {
		b.WriteString("\n" + mutedStyle.Render("keywords: "+strings.Join(r.Explanations.Keywords, ", ")))
	}
	if m.query.Body != "" {
		b.WriteString("\n\n" + mutedStyle.Render("query: "+service.Snippet(m.query.Body, 160)))
	}
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	titleStyle     = lipgloss.NewStyle().Underline(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// highlightSentences renders the sentences of text that appear in matches
// with the highlight style.
func highlightSentences(text string, matches []string) string {
	sentences := explain.SplitSentences(text)
	if len(sentences) == 0 {
		return text
	}
	want := make(map[string]struct{}, len(matches))
	for _, s := range matches {
		want[strings.TrimSpace(s)] = struct{}{}
	}
	for i, s := range sentences {
		if _, ok := want[s]; ok {
			sentences[i] = highlightStyle.Render(s)
		}
	}
	return strings.Join(sentences, " ")
}
