package application

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/bnema/mailctl/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	DefaultPromptMaxChars = 4000
	DefaultPromptMinChars = 5
	DefaultFallbackPrompt = "Write a short, professional marketing email for our subscribers."
)

var ErrUnknownPreset = errors.New("unknown preset")

type ExtractOptions struct {
	MaxChars int
	MinChars int
	Fallback string
}

func (o ExtractOptions) withDefaults() ExtractOptions {
	if o.MaxChars <= 0 {
		o.MaxChars = DefaultPromptMaxChars
	}
	if o.MinChars <= 0 {
		o.MinChars = DefaultPromptMinChars
	}
	if o.Fallback == "" {
		o.Fallback = DefaultFallbackPrompt
	}
	return o
}

var skippedElements = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Style:    true,
	atom.Script:   true,
	atom.Meta:     true,
	atom.Title:    true,
	atom.Link:     true,
	atom.Noscript: true,
	atom.Template: true,
}

var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Br: true, atom.Center: true, atom.Dd: true, atom.Div: true, atom.Dl: true,
	atom.Dt: true, atom.Footer: true, atom.Form: true, atom.H1: true, atom.H2: true,
	atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true, atom.Header: true,
	atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true, atom.Ol: true,
	atom.P: true, atom.Pre: true, atom.Section: true, atom.Table: true, atom.Tbody: true,
	atom.Thead: true, atom.Tfoot: true, atom.Tr: true, atom.Ul: true,
}

var (
	// cssRulePattern matches "selector { prop: value; }" left behind by
	// editors that inline style blocks as text.
	cssRulePattern  = regexp.MustCompile(`[\w \t#.,:>*@\-\[\]="'()]*\{[^{}]*:[^{}]*\}`)
	blankRunPattern = regexp.MustCompile(`\n{3,}`)
)

// Extract turns exported template markup into a bounded plain-text prompt
// body. Applying it to its own output returns the same text.
func Extract(markup string, opts ExtractOptions) string {
	opts = opts.withDefaults()

	text := markup
	if doc, err := html.Parse(strings.NewReader(markup)); err == nil {
		var b strings.Builder
		project(&b, doc)
		text = b.String()
	}

	text = cssRulePattern.ReplaceAllString(text, " ")
	text = strings.NewReplacer("{", "", "}", "").Replace(text)
	text = normalizeWhitespace(text)
	text = truncateRunes(text, opts.MaxChars)
	text = strings.TrimSpace(text)

	if utf8.RuneCountInString(text) < opts.MinChars {
		return opts.Fallback
	}
	return text
}

func project(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		if skippedElements[n.DataAtom] {
			return
		}
	}

	block := n.Type == html.ElementNode && blockElements[n.DataAtom]
	cell := n.Type == html.ElementNode && (n.DataAtom == atom.Td || n.DataAtom == atom.Th)
	if block {
		b.WriteByte('\n')
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		project(b, child)
	}
	switch {
	case block:
		b.WriteByte('\n')
	case cell:
		b.WriteByte(' ')
	}
}

func normalizeWhitespace(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	text = strings.Join(lines, "\n")
	text = blankRunPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func truncateRunes(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max])
}

type Preset struct {
	Name        string
	Instruction string
}

var presets = []Preset{
	{Name: "Fix grammar", Instruction: "Fix grammar and spelling issues in the following text:"},
	{Name: "Make formal", Instruction: "Rewrite the following email in a formal and professional tone:"},
	{Name: "Make friendly", Instruction: "Rewrite this email to sound warm, positive, and conversational:"},
	{Name: "Summarize", Instruction: "Summarize the following email in 3 concise bullet points:"},
	{Name: "Make concise", Instruction: "Rewrite this email to be short, clear, and direct:"},
	{Name: "Add subject line", Instruction: "Suggest 3 good subject lines for the following email content:"},
	{Name: "Polish tone", Instruction: "Refine the tone of this email to make it polite and confident:"},
	{Name: "Fix structure", Instruction: "Improve the sentence structure and readability of the following email:"},
	{Name: "Convert to reply", Instruction: "Convert the following email into a polite and professional reply:"},
	{Name: "Extract key points", Instruction: "List the key points or action items from the following email:"},
	{Name: "Summarize meeting notes", Instruction: "Summarize the following meeting notes into clear points:"},
	{Name: "Rewrite for clarity", Instruction: "Rewrite the following email so it's easier to understand:"},
	{Name: "Generate follow-up", Instruction: "Write a short follow-up email for this conversation:"},
	{Name: "Translate to English", Instruction: "Translate the following email into English clearly:"},
}

// Presets returns the preset library in display order.
func Presets() []Preset {
	return append([]Preset(nil), presets...)
}

func LookupPreset(name string) (Preset, bool) {
	for _, p := range presets {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Preset{}, false
}

type DialogState struct {
	ID      uuid.UUID
	Preset  string
	Prompt  string
	Running bool
	Result  *domain.AIResult
	Err     error
}

// PromptDialog is one AI dialog session over a fixed piece of content.
// Choosing a preset replaces the prompt; edits made afterwards stick until
// the next preset is chosen.
type PromptDialog struct {
	id      uuid.UUID
	content string

	mu      sync.Mutex
	preset  string
	prompt  string
	running bool
	result  *domain.AIResult
	err     error
	runSeq  uint64
	cancel  func()
}

func NewPromptDialog(content string) *PromptDialog {
	return &PromptDialog{
		id:      uuid.New(),
		content: content,
		prompt:  content,
	}
}

func (d *PromptDialog) ID() uuid.UUID {
	return d.id
}

func (d *PromptDialog) Content() string {
	return d.content
}

// SelectPreset sets the prompt to the preset instruction followed by the
// content. The empty name clears the preset and restores the bare content.
func (d *PromptDialog) SelectPreset(name string) error {
	prompt := d.content
	if name != "" {
		p, ok := LookupPreset(name)
		if !ok {
			return fmt.Errorf("select preset %q: %w", name, ErrUnknownPreset)
		}
		name = p.Name
		prompt = p.Instruction
		if d.content != "" {
			prompt += "\n\n" + d.content
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.preset = name
	d.prompt = prompt
	return nil
}

func (d *PromptDialog) SetPrompt(prompt string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prompt = prompt
}

func (d *PromptDialog) Prompt() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.prompt
}

func (d *PromptDialog) State() DialogState {
	d.mu.Lock()
	defer d.mu.Unlock()

	state := DialogState{
		ID:      d.id,
		Preset:  d.preset,
		Prompt:  d.prompt,
		Running: d.running,
		Err:     d.err,
	}
	if d.result != nil {
		result := *d.result
		state.Result = &result
	}
	return state
}

// Cancel aborts the in-flight run, if any. Its result is discarded.
func (d *PromptDialog) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.runSeq++
	d.running = false
}

func (d *PromptDialog) begin(cancel func()) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
	}
	d.runSeq++
	d.cancel = cancel
	d.running = true
	d.result = nil
	d.err = nil
	return d.runSeq
}

// finish records the outcome of run seq and reports whether it was still the
// current run.
func (d *PromptDialog) finish(seq uint64, result *domain.AIResult, err error) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if seq != d.runSeq {
		return false
	}
	d.running = false
	d.cancel = nil
	d.result = result
	d.err = err
	return true
}
