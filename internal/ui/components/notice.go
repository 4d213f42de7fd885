package components

import (
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/placify/placify/internal/ui/theme"
)

// NoticeKind selects the color of a notice.
type NoticeKind string

const (
	NoticeInfo    NoticeKind = "info"
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// NoticeTTL is how long a notice stays up without a key press.
const NoticeTTL = 5 * time.Second

// NoticeMsg asks the application to show a notice.
type NoticeMsg struct {
	Kind NoticeKind
	Text string
}

// Notify returns a command that shows text as a notice.
func Notify(kind NoticeKind, text string) tea.Cmd {
	return func() tea.Msg { return NoticeMsg{Kind: kind, Text: text} }
}

type noticeExpiredMsg struct{ seq int }

// Notice shows at most one transient message. A newer notice replaces
// the current one and restarts its timer.
type Notice struct {
	kind NoticeKind
	text string
	seq  int
	ttl  time.Duration
}

func NewNotice() Notice {
	return Notice{ttl: NoticeTTL}
}

// Visible reports whether a notice is showing.
func (n Notice) Visible() bool { return n.text != "" }

// Text returns the current notice text.
func (n Notice) Text() string { return n.text }

// Kind returns the current notice kind.
func (n Notice) Kind() NoticeKind { return n.kind }

// Update handles NoticeMsg and expiry ticks. Any key press dismisses
// the current notice.
func (n Notice) Update(msg tea.Msg) (Notice, tea.Cmd) {
	switch msg := msg.(type) {
	case NoticeMsg:
		n.seq++
		n.kind, n.text = msg.Kind, msg.Text
		seq := n.seq
		return n, tea.Tick(n.ttl, func(time.Time) tea.Msg { return noticeExpiredMsg{seq: seq} })
	case noticeExpiredMsg:
		if msg.seq == n.seq {
			n.text = ""
		}
	case tea.KeyPressMsg:
		n.text = ""
	}
	return n, nil
}

func (n Notice) View(width int) string {
	if n.text == "" {
		return ""
	}
	fg := theme.Info
	switch n.kind {
	case NoticeSuccess:
		fg = theme.Success
	case NoticeError:
		fg = theme.Error
	}
	return lipgloss.NewStyle().
		Width(width).
		Foreground(fg).
		Bold(true).
		Padding(0, 2).
		Render(n.text)
}
