package internal

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"electrocord/internal/storage"
)

func (model *TUIModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch typedMessage := message.(type) {
	case tea.KeyMsg:
		// Any mode should respect Ctrl+C so the user can bail out quickly.
		// Teardown leaves the room before the transport drops.
		if typedMessage.Type == tea.KeyCtrlC {
			model.session.Teardown()
			return model, tea.Quit
		}
		return model.handleKey(typedMessage)

	case signedInMsg:
		if typedMessage.err != nil {
			model.errText = typedMessage.err.Error()
			return model, nil
		}
		model.identity = typedMessage.identity
		model.errText = ""
		model.rebindSession()
		model.persistSession()
		model.textInput.SetValue("")
		model.textInput.Blur()
		model.mode = modeRooms
		return model, model.fetchRoomsCmd()

	case roomsFetchedMsg:
		if typedMessage.err != nil {
			// Directory fetch failure degrades to the cached list.
			model.errText = typedMessage.err.Error()
			model.rooms = model.cachedRooms()
		} else {
			model.errText = ""
			model.rooms = typedMessage.rooms
			model.persistRooms(typedMessage.rooms)
		}
		model.roomIndex = 0
		for i, room := range model.rooms {
			if room.ID == model.lastRoom {
				model.roomIndex = i
				break
			}
		}
		return model, nil

	case sendResultMsg:
		cmd := model.session.Update(typedMessage)
		if typedMessage.gen == model.session.gen && typedMessage.err == nil {
			// Composer clears only when the whole upload phase succeeded.
			model.textInput.SetValue("")
			model.pending = nil
		}
		return model, cmd

	case historyFetchedMsg, channelOpenedMsg, channelInboundMsg, channelLostMsg:
		return model, model.session.Update(message)
	}
	return model, nil
}

func (model *TUIModel) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch model.mode {
	case modeAuthMenu:
		switch key.String() {
		case "1", "l", "L":
			model.mode = modeLoginEmail
			model.errText = ""
			model.promptInput("Email…", "email> ", model.authEmail, false)
			return model, nil
		case "2", "s", "S":
			model.mode = modeSignup
			model.signup = SignUpProfile{}
			model.signupStep = 0
			model.errText = ""
			model.promptInput(signupFields[0].label+"…", "signup> ", "", false)
			return model, nil
		case "q", "Q", "3":
			return model, tea.Quit
		}
		return model, nil

	case modeLoginEmail:
		switch key.Type {
		case tea.KeyEnter:
			trimmed := strings.TrimSpace(model.textInput.Value())
			if trimmed == "" {
				return model, nil
			}
			model.authEmail = trimmed
			model.mode = modeLoginPassword
			model.promptInput("Password…", "password> ", "", true)
			return model, nil
		case tea.KeyEsc:
			model.backToAuthMenu()
			return model, nil
		}
		return model.forwardToInput(key)

	case modeLoginPassword:
		switch key.Type {
		case tea.KeyEnter:
			password := model.textInput.Value()
			if password == "" {
				return model, nil
			}
			model.textInput.SetValue("")
			return model, model.signInCmd(model.authEmail, password)
		case tea.KeyEsc:
			model.backToAuthMenu()
			return model, nil
		}
		return model.forwardToInput(key)

	case modeSignup:
		switch key.Type {
		case tea.KeyEnter:
			value := strings.TrimSpace(model.textInput.Value())
			if value == "" {
				return model, nil
			}
			model.setSignupField(model.signupStep, value)
			model.signupStep++
			if model.signupStep < len(signupFields) {
				field := signupFields[model.signupStep]
				model.promptInput(field.label+"…", "signup> ", "", field.secret)
				return model, nil
			}
			if model.signup.Password1 != model.signup.Password2 {
				model.errText = "passwords do not match"
				model.signupStep = len(signupFields) - 2
				model.promptInput(signupFields[model.signupStep].label+"…", "signup> ", "", true)
				return model, nil
			}
			return model, model.signUpCmd(model.signup)
		case tea.KeyEsc:
			model.backToAuthMenu()
			return model, nil
		}
		return model.forwardToInput(key)

	case modeRooms:
		switch key.String() {
		case "up", "k":
			if model.roomIndex > 0 {
				model.roomIndex--
			}
			return model, nil
		case "down", "j":
			if model.roomIndex < len(model.rooms)-1 {
				model.roomIndex++
			}
			return model, nil
		case "r", "R":
			return model, model.fetchRoomsCmd()
		case "enter":
			if len(model.rooms) == 0 {
				return model, nil
			}
			room := model.rooms[model.roomIndex]
			model.persistLastRoom(room.ID)
			model.mode = modeChat
			model.promptInput("Type a message…", "> ", "", false)
			if model.session.State() == StateIdle {
				return model, model.session.Activate(model.identity, room.ID, room.Name)
			}
			return model, model.session.SelectRoom(room.ID, room.Name)
		}
		return model, nil

	case modeChat:
		switch key.Type {
		case tea.KeyEsc:
			// back to the directory; the session keeps running
			model.mode = modeRooms
			model.textInput.Blur()
			return model, nil
		case tea.KeyEnter:
			trimmed := strings.TrimSpace(model.textInput.Value())
			if strings.HasPrefix(trimmed, "/") {
				return model.handleChatCommand(strings.ToLower(trimmed))
			}
			model.errText = ""
			cmd := model.session.Send(model.textInput.Value(), model.pending)
			return model, cmd
		}
		return model.forwardToInput(key)

	case modeBrowse:
		switch key.String() {
		case "esc", "q":
			model.mode = modeChat
			model.textInput.Focus()
			return model, nil
		case "up", "k":
			if model.browseIndex > 0 {
				model.browseIndex--
			}
			return model, nil
		case "down", "j":
			if model.browseIndex < len(model.browseItems)-1 {
				model.browseIndex++
			}
			return model, nil
		case "enter":
			if len(model.browseItems) == 0 {
				return model, nil
			}
			item := model.browseItems[model.browseIndex]
			if item.IsDir {
				if items, err := browseDirectory(item.Path); err == nil {
					model.browsePath = item.Path
					model.browseItems = items
					model.browseIndex = 0
				} else {
					model.errText = err.Error()
				}
				return model, nil
			}
			if len(model.pending) >= maxAttachments {
				model.errText = "you can only attach up to 5 files"
				return model, nil
			}
			pending, err := pendingFromItem(item)
			if err != nil {
				model.errText = err.Error()
				return model, nil
			}
			model.pending = append(model.pending, pending)
			model.errText = ""
			return model, nil
		}
		return model, nil
	}
	return model, nil
}

func (model *TUIModel) handleChatCommand(command string) (tea.Model, tea.Cmd) {
	model.textInput.SetValue("")
	switch command {
	case "/quit", "/exit":
		model.session.Teardown()
		return model, tea.Quit
	case "/rooms":
		model.mode = modeRooms
		model.textInput.Blur()
		return model, nil
	case "/attach":
		path := model.browsePath
		if path == "" {
			path = getDefaultBrowsePath()
		}
		items, err := browseDirectory(path)
		if err != nil {
			model.errText = err.Error()
			return model, nil
		}
		model.mode = modeBrowse
		model.browsePath = path
		model.browseItems = items
		model.browseIndex = 0
		model.textInput.Blur()
		return model, nil
	case "/clear":
		model.pending = nil
		model.errText = ""
		return model, nil
	case "/reconnect":
		return model, model.session.Reconnect()
	case "/logout":
		model.session.Teardown()
		model.identity = Identity{}
		model.rooms = nil
		model.pending = nil
		model.clearSavedSession()
		model.backToAuthMenu()
		return model, nil
	}
	model.errText = "unknown command " + command
	return model, nil
}

func (model *TUIModel) forwardToInput(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	model.textInput, cmd = model.textInput.Update(key)
	return model, cmd
}

func (model *TUIModel) promptInput(placeholder, prompt, value string, secret bool) {
	model.textInput.Placeholder = placeholder
	model.textInput.Prompt = prompt
	model.textInput.SetValue(value)
	if secret {
		model.textInput.EchoMode = textinput.EchoPassword
		model.textInput.EchoCharacter = '•'
	} else {
		model.textInput.EchoMode = textinput.EchoNormal
	}
	model.textInput.Focus()
}

func (model *TUIModel) backToAuthMenu() {
	model.mode = modeAuthMenu
	model.errText = ""
	model.textInput.SetValue("")
	model.textInput.Blur()
	model.textInput.Prompt = ""
	model.textInput.Placeholder = ""
}

func (model *TUIModel) setSignupField(step int, value string) {
	switch step {
	case 0:
		model.signup.Username = value
	case 1:
		model.signup.Fullname = value
	case 2:
		model.signup.Email = value
	case 3:
		model.signup.DOB = value
	case 4:
		model.signup.Password1 = value
	case 5:
		model.signup.Password2 = value
	}
}

func (model *TUIModel) signInCmd(email, password string) tea.Cmd {
	baseURL := model.opts.APIBase
	return func() tea.Msg {
		identity, err := apiSignIn(baseURL, email, password)
		return signedInMsg{identity: identity, err: err}
	}
}

func (model *TUIModel) signUpCmd(profile SignUpProfile) tea.Cmd {
	baseURL := model.opts.APIBase
	return func() tea.Msg {
		identity, err := apiSignUp(baseURL, profile)
		return signedInMsg{identity: identity, err: err}
	}
}

func (model *TUIModel) fetchRoomsCmd() tea.Cmd {
	baseURL := model.opts.APIBase
	token := model.identity.Token
	return func() tea.Msg {
		rooms, err := apiFetchRooms(baseURL, token)
		return roomsFetchedMsg{rooms: rooms, err: err}
	}
}

func (model *TUIModel) persistSession() {
	if model.opts.Store == nil {
		return
	}
	_ = model.opts.Store.SaveSession(context.Background(), storage.SavedSession{
		Token:       model.identity.Token,
		UserID:      model.identity.UserID,
		DisplayName: model.identity.DisplayName,
		Admin:       model.identity.Admin,
	})
}

func (model *TUIModel) clearSavedSession() {
	if model.opts.Store == nil {
		return
	}
	_ = model.opts.Store.ClearSession(context.Background())
}

func (model *TUIModel) persistRooms(rooms []Room) {
	if model.opts.Store == nil {
		return
	}
	cached := make([]storage.CachedRoom, 0, len(rooms))
	for _, room := range rooms {
		cached = append(cached, storage.CachedRoom{ID: room.ID, Name: room.Name})
	}
	_ = model.opts.Store.ReplaceRooms(context.Background(), cached)
}

func (model *TUIModel) cachedRooms() []Room {
	if model.opts.Store == nil {
		return nil
	}
	cached, err := model.opts.Store.ListRooms(context.Background())
	if err != nil {
		return nil
	}
	rooms := make([]Room, 0, len(cached))
	for _, room := range cached {
		rooms = append(rooms, Room{ID: room.ID, Name: room.Name})
	}
	return rooms
}

func (model *TUIModel) persistLastRoom(roomID string) {
	model.lastRoom = roomID
	if model.opts.Store == nil {
		return
	}
	_ = model.opts.Store.SetLastRoom(context.Background(), roomID)
}
