package ui

import (
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
)

var (
	mdMu        sync.Mutex
	mdRenderers = map[string]*glamour.TermRenderer{}
)

// Markdown renders an item description for the terminal at the given
// wrap width. The mono theme uses glamour's no-color style.
func Markdown(text string, width int) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	if width < 20 {
		width = 20
	}
	style := styles.DarkStyle
	if current.Name == "mono" {
		style = styles.NoTTYStyle
	}

	mdMu.Lock()
	defer mdMu.Unlock()
	key := style + ":" + strconv.Itoa(width)
	r, ok := mdRenderers[key]
	if !ok {
		var err error
		r, err = glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return "", err
		}
		mdRenderers[key] = r
	}
	out, err := r.Render(text)
	if err != nil {
		return "", err
	}
	return strings.Trim(out, "\n"), nil
}
