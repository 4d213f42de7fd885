package screen

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/placify/placify/internal/api"
	"github.com/placify/placify/internal/coach"
	"github.com/placify/placify/internal/pages"
	"github.com/placify/placify/internal/session"
	"github.com/placify/placify/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Addressed is implemented by messages meant for one screen instance,
// typically the result of a request that screen started. The router drops
// them once the recipient has left the stack.
type Addressed interface {
	Recipient() Screen
}

// Env is shared by every screen of one program run.
type Env struct {
	Gateway *api.Gateway
	Flow    *session.Flow

	// Coach is nil when no LLM provider is configured.
	Coach *coach.Service

	// CoachTimeout bounds one practice-plan request, retries included.
	CoachTimeout time.Duration

	// User is the signed-in account, nil when signed out.
	User *api.UserInfo

	// Now defaults to time.Now.
	Now func() time.Time

	// Timeout bounds each request a screen starts.
	Timeout time.Duration

	// Open builds the screen for a top-level page. Screens use it to
	// navigate without importing each other.
	Open func(p pages.Page) Screen
}

// IsAdmin reports whether the signed-in user has the admin role.
func (e *Env) IsAdmin() bool {
	return e.User != nil && e.User.IsAdmin()
}

// Context returns a context for one request started by a screen.
func (e *Env) Context() (context.Context, context.CancelFunc) {
	if e.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), e.Timeout)
}

// CoachContext returns a context for one practice-plan request.
func (e *Env) CoachContext() (context.Context, context.CancelFunc) {
	if e.CoachTimeout <= 0 {
		return e.Context()
	}
	return context.WithTimeout(context.Background(), e.CoachTimeout)
}

// Clock returns the current time.
func (e *Env) Clock() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// SignedInMsg records a successful login. Page is where the server
// redirected the user.
type SignedInMsg struct {
	User api.UserInfo
	Page pages.Page
}

// SignedOutMsg records a logout.
type SignedOutMsg struct{}

// BackHandler is implemented by screens that need to act on Esc instead
// of being popped.
type BackHandler interface {
	Back() tea.Cmd
}
