package preview

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/glamour"
)

const (
	// SyntaxTheme is the chroma style used for text previews
	SyntaxTheme = "monokai"

	// MinWidthForMarkdown is the narrowest pane glamour renders into
	MinWidthForMarkdown = 30

	maxCacheEntries = 64
)

// Highlight colours source for the terminal using the lexer matching name
func Highlight(source, name string) (string, error) {
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, source, name, "terminal256", SyntaxTheme); err != nil {
		return "", fmt.Errorf("highlight: %w", err)
	}
	return buf.String(), nil
}

// Markdown renders markdown through glamour and caches results per
// content and width
type Markdown struct {
	mu        sync.Mutex
	renderer  *glamour.TermRenderer
	lastWidth int
	cache     map[uint64][]string
}

// NewMarkdown creates an empty renderer; glamour is set up on first use
func NewMarkdown() *Markdown {
	return &Markdown{cache: make(map[uint64][]string)}
}

// Render returns the styled lines of content wrapped to width. Narrow panes
// and render errors fall back to the raw lines.
func (m *Markdown) Render(content string, width int) []string {
	if content == "" {
		return nil
	}
	if width < MinWidthForMarkdown {
		return strings.Split(content, "\n")
	}

	key := cacheKey(content, width)

	m.mu.Lock()
	defer m.mu.Unlock()

	if cached, ok := m.cache[key]; ok {
		return cached
	}

	renderer, err := m.rendererFor(width)
	if err != nil {
		return strings.Split(content, "\n")
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return strings.Split(content, "\n")
	}

	lines := strings.Split(strings.TrimRight(rendered, "\n\r\t "), "\n")
	if len(m.cache) >= maxCacheEntries {
		m.cache = make(map[uint64][]string)
	}
	m.cache[key] = lines
	return lines
}

func cacheKey(content string, width int) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(content)
	_, _ = h.Write([]byte{byte(width >> 8), byte(width)})
	return h.Sum64()
}

// rendererFor must be called with mu held
func (m *Markdown) rendererFor(width int) (*glamour.TermRenderer, error) {
	if m.renderer != nil && m.lastWidth == width {
		return m.renderer, nil
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	m.renderer = renderer
	m.lastWidth = width
	m.cache = make(map[uint64][]string)
	return renderer, nil
}
