package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/karhula/forumdb/internal/admin/app"
	"github.com/karhula/forumdb/internal/message"
)

type messagesModel struct {
	app *app.App

	width  int
	height int

	Done bool

	state messagesState
	list  list.Model
	err   error

	filter message.Filter

	selectedID string
	selected   *message.Message

	form *huh.Form
	save bool

	filterNickname string
	filterLimit    string
	filterBefore   string
	filterAfter    string

	composeTitle  string
	composeBody   string
	composeSender string
	composeIP     string
	composeReply  string

	editTitle  string
	editBody   string
	editEditor string

	deleteConfirm bool
}

type messagesState int

const (
	messagesStateList messagesState = iota
	messagesStateDetail
	messagesStateFilter
	messagesStateCompose
	messagesStateEdit
	messagesStateDelete
)

type msgItem struct {
	id    string
	title string
	desc  string
	kind  string
}

func (i msgItem) Title() string       { return i.title }
func (i msgItem) Description() string { return i.desc }
func (i msgItem) FilterValue() string { return i.title }

func newMessagesModel(a *app.App) *messagesModel {
	m := &messagesModel{app: a, state: messagesStateList, filter: message.Unfiltered()}
	m.reloadList()
	return m
}

func (m *messagesModel) SetSize(w, h int) {
	m.width, m.height = w, h
	m.list.SetSize(w, h-2)
}

func (m *messagesModel) Update(msg tea.Msg) tea.Cmd {
	if m.err != nil {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			if msg.String() == "esc" || msg.String() == "q" || msg.String() == "enter" {
				m.err = nil
				m.state = messagesStateList
				m.form = nil
				m.reloadList()
			}
		}
		return nil
	}

	switch m.state {
	case messagesStateList:
		switch msg := msg.(type) {
		case tea.KeyMsg:
			switch msg.String() {
			case "q":
				m.Done = true
				return nil
			case "esc":
				m.Done = true
				return nil
			case "f":
				m.startFilter()
				return nil
			case "c":
				m.startCompose()
				return nil
			}
		}
		return m.updateList(msg)
	case messagesStateDetail:
		switch msg := msg.(type) {
		case tea.KeyMsg:
			switch msg.String() {
			case "esc":
				m.state = messagesStateList
				m.reloadList()
				return nil
			case "e":
				m.startEdit()
				return nil
			case "d":
				m.startDelete()
				return nil
			}
		}
		return nil
	default:
		switch msg := msg.(type) {
		case tea.KeyMsg:
			if msg.String() == "esc" {
				m.form = nil
				m.state = messagesStateList
				m.reloadList()
				return nil
			}
		}
		return m.updateForm(msg)
	}
}

func (m *messagesModel) updateList(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" {
			it, ok := m.list.SelectedItem().(msgItem)
			if !ok {
				return cmd
			}
			full, err := m.app.Messages.Get(it.id)
			if err != nil {
				m.err = err
				return nil
			}
			if full == nil {
				m.err = fmt.Errorf("message %s no longer exists", it.id)
				return nil
			}
			m.selectedID = it.id
			m.selected = full
			m.state = messagesStateDetail
			return nil
		}
	}

	return cmd
}

func (m *messagesModel) updateForm(msg tea.Msg) tea.Cmd {
	if m.form == nil {
		m.err = fmt.Errorf("internal error: form not initialized")
		return nil
	}
	var cmd tea.Cmd
	updated, cmd := m.form.Update(msg)
	f, ok := updated.(*huh.Form)
	if !ok {
		m.err = fmt.Errorf("internal error: unexpected form model type")
		return nil
	}
	m.form = f
	if m.form.State != huh.StateCompleted {
		return cmd
	}

	switch m.state {
	case messagesStateFilter:
		filter, err := m.buildFilter()
		if err != nil {
			m.err = err
			return nil
		}
		m.filter = filter
	case messagesStateCompose:
		if m.save {
			d := message.Draft{
				Title:    m.composeTitle,
				Body:     m.composeBody,
				Sender:   strings.TrimSpace(m.composeSender),
				SourceIP: strings.TrimSpace(m.composeIP),
			}
			if reply := strings.TrimSpace(m.composeReply); reply != "" {
				d.ReplyTo = &reply
			}
			id, err := m.app.Messages.Create(d)
			if err != nil {
				m.err = err
				return nil
			}
			if id == "" {
				m.err = fmt.Errorf("parent message %s not found", m.composeReply)
				return nil
			}
		}
	case messagesStateEdit:
		if m.save {
			out, err := m.app.Messages.Modify(m.selectedID, m.editTitle, m.editBody, strings.TrimSpace(m.editEditor))
			if err != nil {
				m.err = err
				return nil
			}
			if out == "" {
				m.err = fmt.Errorf("message %s no longer exists", m.selectedID)
				return nil
			}
		}
	case messagesStateDelete:
		if m.deleteConfirm {
			if _, err := m.app.Messages.Delete(m.selectedID); err != nil {
				m.err = err
				return nil
			}
		}
	}

	m.form = nil
	m.state = messagesStateList
	m.reloadList()
	return nil
}

func (m *messagesModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Messages error: %v\n\nPress Enter/Esc to go back.", m.err)
	}

	switch m.state {
	case messagesStateList:
		m.list.Title = m.listTitle()
		return m.list.View() + "\n(f filter, c compose, enter to open, q back)"
	case messagesStateDetail:
		if m.selected == nil {
			return "No message selected\n\n(esc to go back)"
		}
		header := fmt.Sprintf("Id: %s\nTitle: %s\nSender: %s\nEditor: %s\nReply to: %s\nDate: %s\nSource: %s",
			m.selected.ID, m.selected.Title,
			orDash(m.selected.Sender), orDash(m.selected.Editor), orDash(m.selected.ReplyTo),
			time.Unix(m.selected.Timestamp, 0).Format("2006-01-02 15:04"),
			m.selected.SourceIP,
		)
		return header + "\n\n" + m.selected.Body + "\n\n(e edit, d delete, esc back)"
	default:
		return m.form.View() + "\n\n(esc to cancel)"
	}
}

func (m *messagesModel) listTitle() string {
	parts := []string{"Messages"}
	if m.filter.Nickname != "" {
		parts = append(parts, "by "+m.filter.Nickname)
	}
	if m.filter.Limit >= 0 {
		parts = append(parts, fmt.Sprintf("limit %d", m.filter.Limit))
	}
	return strings.Join(parts, " ")
}

func (m *messagesModel) reloadList() {
	summaries, err := m.app.Messages.List(m.filter)
	if err != nil {
		m.err = err
		return
	}

	items := make([]list.Item, 0, len(summaries))
	for _, s := range summaries {
		desc := fmt.Sprintf("%s by %s",
			time.Unix(s.Timestamp, 0).Format("2006-01-02 15:04"), orDash(s.Sender))
		items = append(items, msgItem{id: s.ID, title: s.Title, desc: desc, kind: "msg"})
	}

	m.list = list.New(items, list.NewDefaultDelegate(), m.width, m.height-2)
	m.list.SetShowStatusBar(false)
	m.list.SetFilteringEnabled(true)
	m.list.SetShowHelp(true)
}

func (m *messagesModel) startFilter() {
	m.state = messagesStateFilter
	m.filterNickname = m.filter.Nickname
	m.filterLimit = ""
	m.filterBefore = ""
	m.filterAfter = ""
	if m.filter.Limit >= 0 {
		m.filterLimit = strconv.Itoa(m.filter.Limit)
	}
	if m.filter.Before >= 0 {
		m.filterBefore = strconv.FormatInt(m.filter.Before, 10)
	}
	if m.filter.After >= 0 {
		m.filterAfter = strconv.FormatInt(m.filter.After, 10)
	}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Author nickname (empty = all)").Value(&m.filterNickname),
			huh.NewInput().Title("Max results (empty = unlimited)").Value(&m.filterLimit).Validate(optionalInt("max results")),
			huh.NewInput().Title("Before timestamp, exclusive (empty = no bound)").Value(&m.filterBefore).Validate(optionalInt("before")),
			huh.NewInput().Title("After timestamp, exclusive (empty = no bound)").Value(&m.filterAfter).Validate(optionalInt("after")),
		),
	)
}

func (m *messagesModel) buildFilter() (message.Filter, error) {
	f := message.Unfiltered()
	f.Nickname = strings.TrimSpace(m.filterNickname)
	if s := strings.TrimSpace(m.filterLimit); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return f, fmt.Errorf("max results must be a number")
		}
		f.Limit = n
	}
	if s := strings.TrimSpace(m.filterBefore); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return f, fmt.Errorf("before must be a timestamp")
		}
		f.Before = n
	}
	if s := strings.TrimSpace(m.filterAfter); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return f, fmt.Errorf("after must be a timestamp")
		}
		f.After = n
	}
	return f, nil
}

func (m *messagesModel) startCompose() {
	m.state = messagesStateCompose
	m.composeTitle = ""
	m.composeBody = ""
	m.composeSender = ""
	m.composeIP = ""
	m.composeReply = ""
	m.save = true
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(&m.composeTitle).Validate(nonEmpty("title")),
			huh.NewText().Title("Body").Value(&m.composeBody),
			huh.NewInput().Title("Sender (empty = Anonymous)").Value(&m.composeSender),
			huh.NewInput().Title("Source address (empty = 0.0.0.0)").Value(&m.composeIP),
			huh.NewInput().Title("Reply to (msg-<n>, empty = new thread)").Value(&m.composeReply),
		),
		huh.NewGroup(
			huh.NewConfirm().Title("Post message?").Value(&m.save),
		),
	)
}

func (m *messagesModel) startEdit() {
	m.state = messagesStateEdit
	m.editTitle = m.selected.Title
	m.editBody = m.selected.Body
	m.editEditor = ""
	m.save = true
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(&m.editTitle).Validate(nonEmpty("title")),
			huh.NewText().Title("Body").Value(&m.editBody),
			huh.NewInput().Title("Editor (empty = anonymous edit)").Value(&m.editEditor),
		),
		huh.NewGroup(
			huh.NewConfirm().Title("Save changes?").Value(&m.save),
		),
	)
}

func (m *messagesModel) startDelete() {
	m.state = messagesStateDelete
	m.deleteConfirm = false
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete message %s? Replies are removed with it.", m.selectedID)).
				Value(&m.deleteConfirm),
		),
	)
}
