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
	"github.com/karhula/forumdb/internal/user"
)

type usersModel struct {
	app *app.App

	width  int
	height int

	Done bool

	state usersState

	list list.Model
	err  error

	selectedNickname string
	selected         *user.Profile

	form *huh.Form

	createNickname string
	fields         profileFields
	save           bool

	deleteConfirm bool
}

type usersState int

const (
	usersStateList usersState = iota
	usersStateDetail
	usersStateCreate
	usersStateEdit
	usersStateDelete
)

// profileFields backs the huh inputs; empty strings become NULL columns.
type profileFields struct {
	Firstname string
	Lastname  string
	Email     string
	Website   string
	Mobile    string
	Skype     string
	Age       string
	Residence string
	Gender    string
	Signature string
	Avatar    string
	Picture   string
}

type userItem struct {
	title string
	desc  string
	kind  string
}

func (i userItem) Title() string       { return i.title }
func (i userItem) Description() string { return i.desc }
func (i userItem) FilterValue() string { return i.title }

func newUsersModel(a *app.App) *usersModel {
	m := &usersModel{app: a, state: usersStateList}
	m.reloadList()
	return m
}

func (m *usersModel) SetSize(w, h int) {
	m.width, m.height = w, h
	m.list.SetSize(w, h-2)
}

func (m *usersModel) Update(msg tea.Msg) tea.Cmd {
	if m.err != nil {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			if msg.String() == "esc" || msg.String() == "q" || msg.String() == "enter" {
				m.err = nil
				m.state = usersStateList
				m.form = nil
				m.selected = nil
				m.reloadList()
			}
		}
		return nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q":
			if m.state == usersStateList {
				m.Done = true
				return nil
			}
		case "esc":
			m.back()
			return nil
		}
	}

	switch m.state {
	case usersStateList:
		return m.updateList(msg)
	case usersStateDetail:
		return m.updateDetail(msg)
	case usersStateCreate, usersStateEdit, usersStateDelete:
		return m.updateForm(msg)
	default:
		return nil
	}
}

func (m *usersModel) updateList(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" {
			it, ok := m.list.SelectedItem().(userItem)
			if !ok {
				return cmd
			}
			if it.kind == "create" {
				m.startCreate()
				return nil
			}

			p, err := m.app.Users.Get(it.title)
			if err != nil {
				m.err = err
				return nil
			}
			if p == nil {
				m.err = fmt.Errorf("user %s no longer exists", it.title)
				return nil
			}
			m.selectedNickname = it.title
			m.selected = p
			m.state = usersStateDetail
			m.list = newUserActionList(m.width, m.height)
			return nil
		}
	}

	return cmd
}

func (m *usersModel) updateDetail(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" {
			it, ok := m.list.SelectedItem().(userItem)
			if !ok {
				return cmd
			}
			switch it.kind {
			case "edit":
				m.startEdit()
			case "delete":
				m.startDelete()
			case "back":
				m.back()
			}
			return nil
		}
	}

	return cmd
}

func (m *usersModel) updateForm(msg tea.Msg) tea.Cmd {
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
	case usersStateCreate:
		if m.save {
			profile, err := m.fields.toProfile()
			if err != nil {
				m.err = err
				return nil
			}
			out, err := m.app.Users.Create(m.createNickname, profile)
			if err != nil {
				m.err = err
				return nil
			}
			if out == "" {
				m.err = fmt.Errorf("nickname %s already exists", m.createNickname)
				return nil
			}
		}
		m.form = nil
		m.state = usersStateList
		m.reloadList()
	case usersStateEdit:
		if m.save {
			profile, err := m.fields.toProfile()
			if err != nil {
				m.err = err
				return nil
			}
			out, err := m.app.Users.Modify(m.selectedNickname, profile)
			if err != nil {
				m.err = err
				return nil
			}
			if out == "" {
				m.err = fmt.Errorf("user %s no longer exists", m.selectedNickname)
				return nil
			}
		}
		m.refreshSelected()
		m.form = nil
		m.state = usersStateDetail
		m.list = newUserActionList(m.width, m.height)
	case usersStateDelete:
		if m.deleteConfirm {
			if _, err := m.app.Users.Delete(m.selectedNickname); err != nil {
				m.err = err
				return nil
			}
			m.form = nil
			m.selected = nil
			m.state = usersStateList
			m.reloadList()
			return nil
		}
		m.form = nil
		m.state = usersStateDetail
		m.list = newUserActionList(m.width, m.height)
	}
	return nil
}

func (m *usersModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Users error: %v\n\nPress Enter/Esc to go back.", m.err)
	}

	switch m.state {
	case usersStateList:
		m.list.Title = "Users"
		return m.list.View() + "\n(q to quit, enter to select)"
	case usersStateDetail:
		if m.selected == nil {
			return "No user selected\n\n(esc to go back)"
		}
		header := fmt.Sprintf("User: %s\nRegistered: %s\n",
			m.selected.Public.Nickname,
			time.Unix(m.selected.Public.Registered, 0).Format("2006-01-02 15:04"),
		)
		meta := fmt.Sprintf("Signature: %s\nAvatar: %s\nName: %s %s\nEmail: %s\nResidence: %s\n\n",
			orDash(m.selected.Public.Signature), orDash(m.selected.Public.Avatar),
			orDash(m.selected.Restricted.Firstname), orDash(m.selected.Restricted.Lastname),
			orDash(m.selected.Restricted.Email), orDash(m.selected.Restricted.Residence),
		)
		m.list.Title = "Actions"
		return header + meta + m.list.View() + "\n(esc to go back)"
	default:
		return m.form.View() + "\n\n(esc to go back)"
	}
}

func (m *usersModel) reloadList() {
	users, err := m.app.Users.List()
	if err != nil {
		m.err = err
		return
	}

	items := make([]list.Item, 0, len(users)+1)
	items = append(items, userItem{title: "+ Create new user", desc: "Register a nickname with a profile", kind: "create"})
	for _, u := range users {
		desc := "registered " + time.Unix(u.Registered, 0).Format("2006-01-02")
		items = append(items, userItem{title: u.Nickname, desc: desc, kind: "user"})
	}

	m.list = list.New(items, list.NewDefaultDelegate(), m.width, m.height-2)
	m.list.SetShowStatusBar(false)
	m.list.SetFilteringEnabled(true)
	m.list.SetShowHelp(true)
	m.list.Title = "Users"
}

func newUserActionList(w, h int) list.Model {
	items := []list.Item{
		userItem{title: "Edit profile", desc: "Replace all profile fields", kind: "edit"},
		userItem{title: "Delete user", desc: "Remove the user and its profile", kind: "delete"},
		userItem{title: "Back", desc: "Return to users list", kind: "back"},
	}
	l := list.New(items, list.NewDefaultDelegate(), w, h-8)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(true)
	return l
}

func (m *usersModel) startCreate() {
	m.state = usersStateCreate
	m.createNickname = ""
	m.fields = profileFields{}
	m.save = true
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Nickname").Value(&m.createNickname).Validate(nonEmpty("nickname")),
			huh.NewInput().Title("First name").Value(&m.fields.Firstname),
			huh.NewInput().Title("Last name").Value(&m.fields.Lastname),
			huh.NewInput().Title("Email").Value(&m.fields.Email),
			huh.NewInput().Title("Website").Value(&m.fields.Website),
			huh.NewInput().Title("Mobile").Value(&m.fields.Mobile),
			huh.NewInput().Title("Skype").Value(&m.fields.Skype),
			huh.NewInput().Title("Age").Value(&m.fields.Age).Validate(optionalInt("age")),
			huh.NewInput().Title("Residence").Value(&m.fields.Residence),
			huh.NewInput().Title("Gender").Value(&m.fields.Gender),
			huh.NewInput().Title("Signature").Value(&m.fields.Signature),
			huh.NewInput().Title("Avatar").Value(&m.fields.Avatar),
			huh.NewInput().Title("Picture").Value(&m.fields.Picture),
		),
		huh.NewGroup(
			huh.NewConfirm().Title("Create user?").Value(&m.save),
		),
	)
}

func (m *usersModel) startEdit() {
	m.state = usersStateEdit
	m.fields = fieldsFromProfile(m.selected)
	m.save = true
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("First name").Value(&m.fields.Firstname),
			huh.NewInput().Title("Last name").Value(&m.fields.Lastname),
			huh.NewInput().Title("Email").Value(&m.fields.Email),
			huh.NewInput().Title("Website").Value(&m.fields.Website),
			huh.NewInput().Title("Mobile").Value(&m.fields.Mobile),
			huh.NewInput().Title("Skype").Value(&m.fields.Skype),
			huh.NewInput().Title("Age").Value(&m.fields.Age).Validate(optionalInt("age")),
			huh.NewInput().Title("Residence").Value(&m.fields.Residence),
			huh.NewInput().Title("Gender").Value(&m.fields.Gender),
			huh.NewInput().Title("Signature").Value(&m.fields.Signature),
			huh.NewInput().Title("Avatar").Value(&m.fields.Avatar),
			huh.NewInput().Title("Picture").Value(&m.fields.Picture),
		),
		huh.NewGroup(
			huh.NewConfirm().Title("Save changes? Empty fields clear the stored value.").Value(&m.save),
		),
	)
}

func (m *usersModel) startDelete() {
	m.state = usersStateDelete
	m.deleteConfirm = false
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete user %s and its profile?", m.selectedNickname)).
				Value(&m.deleteConfirm),
		),
	)
}

func (m *usersModel) back() {
	switch m.state {
	case usersStateList:
		m.Done = true
	case usersStateDetail:
		m.state = usersStateList
		m.selected = nil
		m.form = nil
		m.reloadList()
	default:
		m.state = usersStateDetail
		m.form = nil
		m.list = newUserActionList(m.width, m.height)
	}
}

func (m *usersModel) refreshSelected() {
	if m.selectedNickname == "" {
		return
	}
	p, err := m.app.Users.Get(m.selectedNickname)
	if err == nil && p != nil {
		m.selected = p
	}
}

func (f *profileFields) toProfile() (*user.Profile, error) {
	p := &user.Profile{
		Public: user.PublicProfile{
			Signature: emptyNil(f.Signature),
			Avatar:    emptyNil(f.Avatar),
		},
		Restricted: user.RestrictedProfile{
			Firstname: emptyNil(f.Firstname),
			Lastname:  emptyNil(f.Lastname),
			Email:     emptyNil(f.Email),
			Website:   emptyNil(f.Website),
			Mobile:    emptyNil(f.Mobile),
			Skype:     emptyNil(f.Skype),
			Residence: emptyNil(f.Residence),
			Gender:    emptyNil(f.Gender),
			Picture:   emptyNil(f.Picture),
		},
	}
	if s := strings.TrimSpace(f.Age); s != "" {
		age, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("age must be a number")
		}
		p.Restricted.Age = &age
	}
	return p, nil
}

func fieldsFromProfile(p *user.Profile) profileFields {
	f := profileFields{
		Firstname: deref(p.Restricted.Firstname),
		Lastname:  deref(p.Restricted.Lastname),
		Email:     deref(p.Restricted.Email),
		Website:   deref(p.Restricted.Website),
		Mobile:    deref(p.Restricted.Mobile),
		Skype:     deref(p.Restricted.Skype),
		Residence: deref(p.Restricted.Residence),
		Gender:    deref(p.Restricted.Gender),
		Signature: deref(p.Public.Signature),
		Avatar:    deref(p.Public.Avatar),
		Picture:   deref(p.Restricted.Picture),
	}
	if p.Restricted.Age != nil {
		f.Age = strconv.FormatInt(*p.Restricted.Age, 10)
	}
	return f
}

func emptyNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func orDash(p *string) string {
	if p == nil || *p == "" {
		return "-"
	}
	return *p
}

func nonEmpty(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}
		return nil
	}
}

func optionalInt(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
			return fmt.Errorf("%s must be a number", field)
		}
		return nil
	}
}
