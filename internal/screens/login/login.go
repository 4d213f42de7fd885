package login

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/placify/placify/internal/api"
	"github.com/placify/placify/internal/pages"
	"github.com/placify/placify/internal/screen"
	"github.com/placify/placify/internal/ui/components"
	"github.com/placify/placify/internal/ui/layout"
	"github.com/placify/placify/internal/ui/theme"
)

// Register form field order.
const (
	regUsername = iota
	regEmail
	regPassword
	regFullName
	regDepartment
	regYear
)

type loginDoneMsg struct {
	to     screen.Screen
	result api.Result[api.LoginResult]
	user   api.Result[api.UserInfo]
}

func (m loginDoneMsg) Recipient() screen.Screen { return m.to }

type registerDoneMsg struct {
	to       screen.Screen
	username string
	result   api.Result[string]
}

func (m registerDoneMsg) Recipient() screen.Screen { return m.to }

// LoginScreen signs a user in, or registers a new student account.
type LoginScreen struct {
	env      *screen.Env
	login    components.Form
	register components.Form
	onReg    bool
	busy     bool
}

var _ screen.Screen = (*LoginScreen)(nil)
var _ screen.KeyHintProvider = (*LoginScreen)(nil)
var _ screen.BackHandler = (*LoginScreen)(nil)

func New(env *screen.Env) *LoginScreen {
	year := components.NewField("Year", "1-4", 1)
	year.NumericOnly = true
	return &LoginScreen{
		env: env,
		login: components.NewForm("Login",
			components.NewField("Username", "", 64),
			components.NewPasswordField("Password"),
		),
		register: components.NewForm("Register",
			components.NewField("Username", "", 64),
			components.NewField("Email", "you@college.edu", 128),
			components.NewPasswordField("Password"),
			components.NewField("Full Name", "", 128),
			components.NewField("Department", "CSE", 64),
			year,
		),
	}
}

func (s *LoginScreen) Init() tea.Cmd {
	return s.login.Init()
}

func (s *LoginScreen) Title() string {
	if s.onReg {
		return "Register"
	}
	return "Login"
}

func (s *LoginScreen) KeyHints() []layout.KeyHint {
	toggle := layout.KeyHint{Key: "Ctrl+R", Description: "Register"}
	if s.onReg {
		toggle = layout.KeyHint{Key: "Esc", Description: "Back to login"}
	}
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Submit"},
		toggle,
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// Back leaves the registration form.
func (s *LoginScreen) Back() tea.Cmd {
	if !s.onReg {
		return nil
	}
	s.onReg = false
	return s.login.Init()
}

// Registering reports whether the registration form is shown.
func (s *LoginScreen) Registering() bool { return s.onReg }

func (s *LoginScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loginDoneMsg:
		return s, s.handleLogin(msg)
	case registerDoneMsg:
		return s, s.handleRegister(msg)
	case tea.KeyMsg:
		if s.busy {
			return s, nil
		}
		switch msg.String() {
		case "ctrl+r":
			if !s.onReg {
				s.onReg = true
				return s, s.register.Init()
			}
			return s, nil
		case "enter":
			if s.onReg && s.register.OnSubmit() {
				return s, s.submitRegister()
			}
			if !s.onReg && s.login.OnSubmit() {
				return s, s.submitLogin()
			}
		}
	}

	var cmd tea.Cmd
	if s.onReg {
		s.register, cmd = s.register.Update(msg)
	} else {
		s.login, cmd = s.login.Update(msg)
	}
	return s, cmd
}

func (s *LoginScreen) submitLogin() tea.Cmd {
	creds := api.Credentials{Username: s.login.Value(0), Password: s.login.Fields[1].Model.Value()}
	if creds.Username == "" || creds.Password == "" {
		return components.Notify(components.NoticeError, "Username and password are required")
	}
	s.busy = true
	env := s.env
	return func() tea.Msg {
		ctx, cancel := env.Context()
		defer cancel()
		msg := loginDoneMsg{to: s, result: env.Gateway.Login(api.WithPurpose(ctx, "login"), creds)}
		if msg.result.OK {
			msg.user = env.Gateway.UserInfo(ctx)
		}
		return msg
	}
}

func (s *LoginScreen) handleLogin(msg loginDoneMsg) tea.Cmd {
	s.busy = false
	if !msg.result.OK {
		return components.Notify(components.NoticeError, msg.result.MessageOr("Login failed"))
	}
	if !msg.user.OK {
		return components.Notify(components.NoticeError, msg.user.MessageOr("Login failed"))
	}

	page, ok := pages.Resolve(msg.result.Value.Redirect)
	if !ok {
		page = pages.Student
	}
	signedIn := screen.SignedInMsg{User: msg.user.Value, Page: page}
	return func() tea.Msg { return signedIn }
}

func (s *LoginScreen) submitRegister() tea.Cmd {
	year, err := s.register.Fields[regYear].IntValue()
	if err != nil {
		return components.Notify(components.NoticeError, "Year must be a number")
	}
	reg := api.Registration{
		Username:   s.register.Value(regUsername),
		Email:      s.register.Value(regEmail),
		Password:   s.register.Fields[regPassword].Model.Value(),
		FullName:   s.register.Value(regFullName),
		Department: s.register.Value(regDepartment),
		Year:       year,
	}
	if reg.Username == "" || reg.Email == "" || reg.Password == "" || reg.FullName == "" {
		return components.Notify(components.NoticeError, "All fields are required")
	}
	s.busy = true
	env := s.env
	return func() tea.Msg {
		ctx, cancel := env.Context()
		defer cancel()
		return registerDoneMsg{to: s, username: reg.Username, result: env.Gateway.Register(api.WithPurpose(ctx, "register"), reg)}
	}
}

func (s *LoginScreen) handleRegister(msg registerDoneMsg) tea.Cmd {
	s.busy = false
	if !msg.result.OK {
		return components.Notify(components.NoticeError, msg.result.MessageOr("Registration failed"))
	}
	for i := range s.register.Fields {
		s.register.Set(i, "")
	}
	s.onReg = false
	s.login.Set(0, msg.username)
	return tea.Batch(
		components.Notify(components.NoticeSuccess, "Registration successful! Please login."),
		s.login.Init(),
	)
}

func (s *LoginScreen) View(width, height int) string {
	var b strings.Builder
	heading := "Welcome to Placify"
	sub := "Sign in to take tests and track your placement readiness"
	form := s.login.View()
	if s.onReg {
		heading = "Create your account"
		sub = "Student registration"
		form = s.register.View()
	}
	b.WriteString(theme.Title.Render(heading))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Render(sub))
	b.WriteString("\n\n")
	b.WriteString(form)
	if s.busy {
		b.WriteString("\n\n")
		b.WriteString(theme.Hint.Render("Please wait..."))
	}

	card := theme.Card.Width(min(width-4, 60)).Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}
