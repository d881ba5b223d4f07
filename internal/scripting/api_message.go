package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/karhula/forumdb/internal/message"
)

// MessageAPI exposes the message repository to Lua.
type MessageAPI struct {
	repo     *message.Repo
	validate ValidateInput
}

// NewMessageAPI creates a Lua message API.
func NewMessageAPI(repo *message.Repo) *MessageAPI {
	return &MessageAPI{repo: repo}
}

// Register installs message functions in the Lua state under the global
// msg table.
func (api *MessageAPI) Register(L *lua.LState) {
	mod := L.NewTable()

	mod.RawSetString("get", L.NewFunction(api.luaGet))
	mod.RawSetString("list", L.NewFunction(api.luaList))
	mod.RawSetString("create", L.NewFunction(api.luaCreate))
	mod.RawSetString("reply", L.NewFunction(api.luaReply))
	mod.RawSetString("modify", L.NewFunction(api.luaModify))
	mod.RawSetString("delete", L.NewFunction(api.luaDelete))
	mod.RawSetString("exists", L.NewFunction(api.luaExists))

	L.SetGlobal("msg", mod)
}

func (api *MessageAPI) luaGet(L *lua.LState) int {
	id := L.CheckString(1)

	m, err := api.repo.Get(id)
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	if m == nil {
		L.Push(lua.LNil)
		return 1
	}

	L.Push(api.msgToTable(L, m))
	return 1
}

// luaList accepts an optional filter table with the keys nickname,
// limit, before and after.
func (api *MessageAPI) luaList(L *lua.LState) int {
	f := message.Unfiltered()
	if L.GetTop() >= 1 {
		tbl := L.CheckTable(1)
		if v, ok := tbl.RawGetString("nickname").(lua.LString); ok {
			f.Nickname = string(v)
		}
		if v, ok := tbl.RawGetString("limit").(lua.LNumber); ok {
			f.Limit = int(v)
		}
		if v, ok := tbl.RawGetString("before").(lua.LNumber); ok {
			f.Before = int64(v)
		}
		if v, ok := tbl.RawGetString("after").(lua.LNumber); ok {
			f.After = int64(v)
		}
	}

	summaries, err := api.repo.List(f)
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}

	tbl := L.NewTable()
	for i, s := range summaries {
		st := L.NewTable()
		st.RawSetString("id", lua.LString(s.ID))
		st.RawSetString("title", lua.LString(s.Title))
		st.RawSetString("timestamp", lua.LNumber(s.Timestamp))
		if s.Sender != nil {
			st.RawSetString("sender", lua.LString(*s.Sender))
		}
		tbl.RawSetInt(i+1, st)
	}
	L.Push(tbl)
	return 1
}

func (api *MessageAPI) luaCreate(L *lua.LState) int {
	d := message.Draft{
		Title:    L.CheckString(1),
		Body:     L.CheckString(2),
		Sender:   L.OptString(3, ""),
		SourceIP: L.OptString(4, ""),
	}
	if parent := L.OptString(5, ""); parent != "" {
		d.ReplyTo = &parent
	}

	if err := api.checkDraft(d); err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}

	id, err := api.repo.Create(d)
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	if id == "" {
		L.Push(lua.LNil)
		L.Push(lua.LString("parent message not found"))
		return 2
	}

	L.Push(lua.LString(id))
	return 1
}

func (api *MessageAPI) luaReply(L *lua.LState) int {
	replyTo := L.CheckString(1)
	title := L.CheckString(2)
	body := L.CheckString(3)
	sender := L.OptString(4, "")
	sourceIP := L.OptString(5, "")

	if err := api.checkDraft(message.Draft{Title: title, Body: body, SourceIP: sourceIP}); err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}

	id, err := api.repo.AppendAnswer(replyTo, title, body, sender, sourceIP)
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	if id == "" {
		L.Push(lua.LNil)
		L.Push(lua.LString("parent message not found"))
		return 2
	}

	L.Push(lua.LString(id))
	return 1
}

func (api *MessageAPI) luaModify(L *lua.LState) int {
	id := L.CheckString(1)
	title := L.CheckString(2)
	body := L.CheckString(3)
	editor := L.OptString(4, "")

	if err := api.validate.ValidateTitle(title); err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	if err := api.validate.ValidateBody(body); err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}

	out, err := api.repo.Modify(id, title, body, editor)
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	if out == "" {
		L.Push(lua.LNil)
		return 1
	}

	L.Push(lua.LString(out))
	return 1
}

func (api *MessageAPI) luaDelete(L *lua.LState) int {
	id := L.CheckString(1)

	removed, err := api.repo.Delete(id)
	if err != nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}

	L.Push(lua.LBool(removed))
	return 1
}

func (api *MessageAPI) luaExists(L *lua.LState) int {
	id := L.CheckString(1)

	ok, err := api.repo.Exists(id)
	if err != nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}

	L.Push(lua.LBool(ok))
	return 1
}

func (api *MessageAPI) checkDraft(d message.Draft) error {
	if err := api.validate.ValidateTitle(d.Title); err != nil {
		return err
	}
	if err := api.validate.ValidateBody(d.Body); err != nil {
		return err
	}
	return api.validate.ValidateSourceIP(d.SourceIP)
}

// msgToTable converts a full message record to a Lua table.
func (api *MessageAPI) msgToTable(L *lua.LState, m *message.Message) *lua.LTable {
	mt := L.NewTable()
	mt.RawSetString("id", lua.LString(m.ID))
	mt.RawSetString("title", lua.LString(m.Title))
	mt.RawSetString("body", lua.LString(m.Body))
	mt.RawSetString("timestamp", lua.LNumber(m.Timestamp))
	mt.RawSetString("source_ip", lua.LString(m.SourceIP))
	if m.ReplyTo != nil {
		mt.RawSetString("reply_to", lua.LString(*m.ReplyTo))
	}
	if m.Sender != nil {
		mt.RawSetString("sender", lua.LString(*m.Sender))
	}
	if m.Editor != nil {
		mt.RawSetString("editor", lua.LString(*m.Editor))
	}
	return mt
}
