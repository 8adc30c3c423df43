package internal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// pre styled colors, all from lipgloss
var (
	appTitleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213")).Padding(0, 1)
	subtitleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("110")).MarginTop(1)
	menuBoxStyle       = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(1, 2).MarginTop(1)
	menuItemStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).PaddingLeft(1)
	menuHotkeyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	menuHintStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).MarginTop(1)
	chatHeaderStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213")).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("109")).MarginTop(1)
	connectedStyle     = statusStyle.Copy().Foreground(lipgloss.Color("42")).Bold(true)
	connectingStyle    = statusStyle.Copy().Foreground(lipgloss.Color("178")).Italic(true)
	messageBodyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("253"))
	messageBoxStyle    = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("60")).Padding(1, 2).MarginTop(1)
	inputBoxStyle      = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1).MarginTop(1)
	attachmentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
	usernameStyle      = lipgloss.NewStyle().Bold(true)
	activeUserStyle    = usernameStyle.Copy().Foreground(lipgloss.Color("213"))
	systemMessageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Italic(true)
	errorStyle         = statusStyle.Copy().Foreground(lipgloss.Color("196")).Bold(true)
	dividerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("237")).Render(" ┃ ")
	selectedItemStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	listItemStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	userColorPalette   = []lipgloss.Color{
		lipgloss.Color("45"),
		lipgloss.Color("81"),
		lipgloss.Color("141"),
		lipgloss.Color("98"),
		lipgloss.Color("63"),
		lipgloss.Color("135"),
		lipgloss.Color("32"),
	}
)

func (model TUIModel) View() string {
	switch model.mode {
	case modeAuthMenu:
		return model.renderAuthMenuView()
	case modeLoginEmail, modeLoginPassword:
		return model.renderPromptView("Log in", "Enter your credentials and press Enter.")
	case modeSignup:
		return model.renderPromptView("Sign up", "Fill each field and press Enter. Esc goes back.")
	case modeRooms:
		return model.renderRoomsView()
	case modeBrowse:
		return model.renderBrowseView()
	default:
		return model.renderChatView()
	}
}

func (model TUIModel) renderAuthMenuView() string {
	title := appTitleStyle.Render("Electrocord")
	subtitle := subtitleStyle.Render("Campus chat rooms from your terminal")

	options := []string{
		renderMenuOption("1", "Log in"),
		renderMenuOption("2", "Sign up"),
		renderMenuOption("q", "Quit"),
	}

	viewSections := []string{
		lipgloss.JoinVertical(lipgloss.Left, title, subtitle),
		menuBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, options...)),
	}
	if model.errText != "" {
		viewSections = append(viewSections, errorStyle.Render(model.errText))
	}
	viewSections = append(viewSections, menuHintStyle.Render("Press 1 or 2 to choose an option."))

	return lipgloss.JoinVertical(lipgloss.Left, viewSections...)
}

func (model TUIModel) renderPromptView(title, hint string) string {
	viewSections := []string{
		appTitleStyle.Render(title),
		menuHintStyle.Render(hint),
	}
	if model.errText != "" {
		viewSections = append(viewSections, errorStyle.Render(model.errText))
	}
	viewSections = append(viewSections, inputBoxStyle.Render(model.textInput.View()))
	return lipgloss.JoinVertical(lipgloss.Left, viewSections...)
}

func (model TUIModel) renderRoomsView() string {
	title := appTitleStyle.Render("Chat rooms")
	hint := menuHintStyle.Render("Enter joins, r refreshes, Esc from chat comes back here.")

	var lines []string
	for i, room := range model.rooms {
		line := room.Name
		if room.ID == model.session.Room().ID && model.session.State() != StateIdle {
			line += " (active)"
		}
		if i == model.roomIndex {
			lines = append(lines, selectedItemStyle.Render("> "+line))
		} else {
			lines = append(lines, listItemStyle.Render("  "+line))
		}
	}
	if len(lines) == 0 {
		lines = append(lines, systemMessageStyle.Render("No rooms available."))
	}

	viewSections := []string{
		title,
		menuBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)),
	}
	if model.errText != "" {
		viewSections = append(viewSections, errorStyle.Render(model.errText))
	}
	viewSections = append(viewSections, hint)
	return lipgloss.JoinVertical(lipgloss.Left, viewSections...)
}

func (model TUIModel) renderBrowseView() string {
	title := appTitleStyle.Render("Attach a file")
	hint := menuHintStyle.Render(fmt.Sprintf("%s — Enter picks, Esc returns to chat (%d/%d attached)", model.browsePath, len(model.pending), maxAttachments))

	var lines []string
	for i, item := range model.browseItems {
		label := item.Name
		if item.IsDir {
			label += "/"
		} else {
			label += "  " + formatFileSize(item.Size)
		}
		if i == model.browseIndex {
			lines = append(lines, selectedItemStyle.Render("> "+label))
		} else {
			lines = append(lines, listItemStyle.Render("  "+label))
		}
	}
	if len(lines) == 0 {
		lines = append(lines, systemMessageStyle.Render("Empty directory."))
	}

	viewSections := []string{
		title,
		menuBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)),
	}
	if model.errText != "" {
		viewSections = append(viewSections, errorStyle.Render(model.errText))
	}
	viewSections = append(viewSections, hint)
	return lipgloss.JoinVertical(lipgloss.Left, viewSections...)
}

func (model TUIModel) renderChatView() string {
	headerSegments := []string{
		"Electrocord",
		fmt.Sprintf("Room %s", model.session.Room().Name),
		fmt.Sprintf("User %s", model.identity.DisplayName),
	}
	header := chatHeaderStyle.Render(strings.Join(headerSegments, dividerStyle))

	var statusLine string
	switch model.session.ConnState() {
	case Connected:
		statusLine = connectedStyle.Render("Connected")
	case Connecting:
		statusLine = connectingStyle.Render("Connecting…")
	default:
		statusLine = errorStyle.Render("Disconnected — /reconnect to retry")
	}

	var messageLines []string
	for _, chat := range model.session.Log() {
		messageLines = append(messageLines, model.renderChatMessage(chat))
	}
	if len(messageLines) == 0 {
		messageLines = append(messageLines, systemMessageStyle.Render("No messages yet. Say hi and start the conversation."))
	}

	messagesView := messageBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, messageLines...))
	inputView := inputBoxStyle.Render(model.textInput.View())

	sent, received, uploads := model.stats.Snapshot()
	footerHint := menuHintStyle.Render(fmt.Sprintf(
		"Commands: /attach /clear /rooms /reconnect /logout /quit %s sent %d · received %d · uploads %d",
		dividerStyle, sent, received, uploads,
	))

	sections := []string{header, statusLine, messagesView}
	if len(model.pending) > 0 {
		sections = append(sections, model.renderPendingBar())
	}
	if banner := model.renderErrorBanner(); banner != "" {
		sections = append(sections, banner)
	}
	sections = append(sections, inputView, footerHint)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (model TUIModel) renderPendingBar() string {
	names := make([]string, 0, len(model.pending))
	for _, file := range model.pending {
		names = append(names, fmt.Sprintf("%s (%s)", file.Name, formatFileSize(file.Size)))
	}
	return attachmentStyle.Render("Attachments: " + strings.Join(names, ", "))
}

// renderErrorBanner folds the composer-level error and the session's inline
// failure into one line.
func (model TUIModel) renderErrorBanner() string {
	text := model.errText
	if text == "" && model.session.InlineErr() != nil {
		err := model.session.InlineErr()
		var uploadErr *UploadError
		var validationErr *ValidationError
		var channelErr *ChannelError
		switch {
		case errors.As(err, &uploadErr):
			text = "Upload failed: " + uploadErr.Error()
		case errors.As(err, &validationErr):
			text = validationErr.Reason
		case errors.As(err, &channelErr):
			text = "Connection trouble: " + channelErr.Err.Error()
		default:
			text = err.Error()
		}
	}
	if text == "" {
		return ""
	}
	return errorStyle.Render(text)
}

func (model TUIModel) renderChatMessage(chat Message) string {
	var nameStyle lipgloss.Style
	if chat.SenderID == model.identity.UserID {
		nameStyle = activeUserStyle
	} else {
		nameStyle = usernameStyle.Copy().Foreground(colorForUser(chat.SenderName))
	}

	name := nameStyle.Render(chat.SenderName)
	bodyText := messageBodyStyle.Render(strings.ReplaceAll(chat.Body, "\n", "\n   "))
	line := lipgloss.JoinHorizontal(lipgloss.Left, name, ": ", bodyText)

	if len(chat.Attachments) == 0 {
		return line
	}
	attachmentLines := []string{line}
	for _, ref := range chat.Attachments {
		attachmentLines = append(attachmentLines, attachmentStyle.Render(fmt.Sprintf("   📎 %s (%s)", ref.OriginalName, ref.StoragePath)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, attachmentLines...)
}

func renderMenuOption(hotkey string, label string) string {
	key := menuHotkeyStyle.Render(hotkey)
	return lipgloss.JoinHorizontal(lipgloss.Left, key, menuItemStyle.Render(label))
}

func colorForUser(name string) lipgloss.Color {
	if len(userColorPalette) == 0 {
		return lipgloss.Color("249")
	}
	if name == "" {
		return userColorPalette[0]
	}
	var sum int
	for _, r := range name {
		sum += int(r)
	}
	return userColorPalette[sum%len(userColorPalette)]
}
