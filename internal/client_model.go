package internal

import (
	"context"
	"log"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"electrocord/internal/storage"
)

// ClientOptions wires the TUI to the backend and the local state store.
// Store may be nil when the local db could not be opened.
type ClientOptions struct {
	APIBase   string
	SocketURL string
	Email     string
	Store     *storage.Store
	Logger    *log.Logger
}

// tui model struct for all the components and modes
type TUIModel struct {
	opts      ClientOptions
	textInput textinput.Model
	session   *SessionManager
	stats     *ClientStats

	identity Identity
	rooms    []Room
	lastRoom string

	mode        appMode
	authEmail   string
	signup      SignUpProfile
	signupStep  int
	roomIndex   int
	pending     []PendingFile
	browsePath  string
	browseItems []FileItem
	browseIndex int

	errText string
}

type appMode int

const (
	modeAuthMenu appMode = iota
	modeLoginEmail
	modeLoginPassword
	modeSignup
	modeRooms
	modeChat
	modeBrowse
)

// async events owned by the TUI itself; session events live in session.go
type (
	signedInMsg struct {
		identity Identity
		err      error
	}
	roomsFetchedMsg struct {
		rooms []Room
		err   error
	}
)

// signup prompts in form order
var signupFields = []struct {
	label  string
	secret bool
}{
	{label: "Username", secret: false},
	{label: "Full name", secret: false},
	{label: "Email", secret: false},
	{label: "Date of birth (YYYY-MM-DD)", secret: false},
	{label: "Password", secret: true},
	{label: "Confirm password", secret: true},
}

func NewTUIModel(opts ClientOptions) *TUIModel {
	input := textinput.New()
	input.CharLimit = 0
	input.Prompt = "> "

	stats := NewClientStats()
	model := &TUIModel{
		opts:      opts,
		textInput: input,
		stats:     stats,
		mode:      modeAuthMenu,
		authEmail: opts.Email,
	}

	// A saved login whose token still decodes skips the sign-in screen.
	if opts.Store != nil {
		ctx := context.Background()
		if saved, err := opts.Store.LoadSession(ctx); err == nil && saved != nil {
			if identity, err := identityFromToken(saved.Token); err == nil {
				model.identity = identity
				model.mode = modeRooms
			} else {
				_ = opts.Store.ClearSession(ctx)
			}
		}
		if last, err := opts.Store.LastRoom(ctx); err == nil {
			model.lastRoom = last
		}
	}

	model.session = NewSessionManager(
		NewHistoryFetcher(opts.APIBase, model.identity.Token),
		NewUploader(opts.APIBase, model.identity.Token),
		NewDialer(opts.SocketURL),
		stats,
		opts.Logger,
	)
	return model
}

// rebindSession points the session manager's collaborators at a fresh
// credential; called after every successful sign-in.
func (model *TUIModel) rebindSession() {
	model.session = NewSessionManager(
		NewHistoryFetcher(model.opts.APIBase, model.identity.Token),
		NewUploader(model.opts.APIBase, model.identity.Token),
		NewDialer(model.opts.SocketURL),
		model.stats,
		model.opts.Logger,
	)
}

func (model *TUIModel) Init() tea.Cmd {
	if model.mode == modeRooms {
		return model.fetchRoomsCmd()
	}
	return nil
}

// RunClient launches the bubbletea program so the user can chat from the terminal.
func RunClient(opts ClientOptions) error {
	program := tea.NewProgram(NewTUIModel(opts))
	_, err := program.Run()
	return err
}
