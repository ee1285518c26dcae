package ui

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/quasar/mctui/internal/authchain"
	"github.com/quasar/mctui/internal/core"
)

type AuthState int

const (
	AuthStateWaitingForPaste AuthState = iota
	AuthStateExchange
	AuthStateSuccess
	AuthStateError
)

// AuthModel drives the authorization-code sign-in flow: it opens the
// Microsoft sign-in page in the system browser and asks the user to paste
// back the URL their browser lands on afterward.
type AuthModel struct {
	width  int
	height int

	state AuthState
	input textinput.Model
	err   error

	account *core.Account

	spinner spinner.Model

	client  *authchain.Client
	manager *core.AccountManager
	state_  string // the anti-CSRF state cookie for this attempt
}

func NewAuthModel(clientID string, manager *core.AccountManager) *AuthModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = "https://login.live.com/oauth20_desktop.srf?code=..."
	ti.CharLimit = 2048
	ti.Width = 72
	ti.Focus()

	return &AuthModel{
		state:   AuthStateWaitingForPaste,
		spinner: s,
		input:   ti,
		manager: manager,
		client:  authchain.New(clientID),
		state_:  authchain.NewStateToken(),
	}
}

func (m *AuthModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.openSignInPage)
}

func (m *AuthModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m *AuthModel) openSignInPage() tea.Msg {
	openBrowser(m.client.AuthorizeURL(m.state_))
	return nil
}

func (m *AuthModel) exchange(redirectURL string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		code, err := authchain.ParseRedirect(redirectURL, m.state_)
		if err != nil {
			return errMsg{err: err}
		}

		msaAccess, msaRefresh, _, err := m.client.ExchangeCode(ctx, code)
		if err != nil {
			return errMsg{err: err}
		}

		acc, err := m.client.SignIn(ctx, msaAccess, msaRefresh)
		if err != nil {
			return errMsg{err: err}
		}
		return accountCreatedMsg{acc: acc}
	}
}

func (m *AuthModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return NavigateToHome{} }
		case "ctrl+c":
			return m, tea.Quit
		case "enter":
			switch m.state {
			case AuthStateWaitingForPaste:
				pasted := m.input.Value()
				if pasted == "" {
					return m, nil
				}
				m.state = AuthStateExchange
				return m, m.exchange(pasted)
			case AuthStateSuccess, AuthStateError:
				return m, func() tea.Msg { return NavigateToHome{} }
			}
		case "o":
			if m.state == AuthStateWaitingForPaste {
				return m, m.openSignInPage
			}
		}

	case accountCreatedMsg:
		m.state = AuthStateSuccess
		m.account = msg.acc
		m.manager.Add(msg.acc)
		m.manager.Save()
		return m, tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
			return NavigateToHome{}
		})

	case errMsg:
		m.state = AuthStateError
		m.err = msg.err
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.state == AuthStateWaitingForPaste {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *AuthModel) View() string {
	doc := lipgloss.NewStyle().Padding(2, 4).Width(m.width).Height(m.height)

	var content string

	switch m.state {
	case AuthStateWaitingForPaste:
		content = fmt.Sprintf(`Microsoft Authentication

A sign-in page has been opened in your browser. Sign in, then copy the
URL your browser ends up on (it starts with %s) and paste it below.

%s

[Enter] Continue  [o] Reopen browser  [Esc] Back`,
			lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Render("login.live.com/oauth20_desktop.srf"),
			m.input.View())

	case AuthStateExchange:
		content = fmt.Sprintf("%s Signing in to Minecraft...", m.spinner.View())

	case AuthStateSuccess:
		content = fmt.Sprintf("Signed in as %s.\n\nReturning home...", m.account.Name)

	case AuthStateError:
		content = fmt.Sprintf("Sign-in failed: %v\n\n[Enter] Back", m.err)
	}

	return doc.Render(content)
}

// Messages
type accountCreatedMsg struct{ acc *core.Account }
type errMsg struct{ err error }

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		return
	}
	_ = cmd.Start()
}
