package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/karhula/forumdb/internal/user"
)

// UserAPI exposes the user repository to Lua.
type UserAPI struct {
	repo     *user.Repo
	validate ValidateInput
}

// NewUserAPI creates a Lua user API.
func NewUserAPI(repo *user.Repo) *UserAPI {
	return &UserAPI{repo: repo}
}

// Register installs user functions in the Lua state under the global
// users table.
func (api *UserAPI) Register(L *lua.LState) {
	mod := L.NewTable()

	mod.RawSetString("list", L.NewFunction(api.luaList))
	mod.RawSetString("get", L.NewFunction(api.luaGet))
	mod.RawSetString("exists", L.NewFunction(api.luaExists))
	mod.RawSetString("create", L.NewFunction(api.luaCreate))
	mod.RawSetString("modify", L.NewFunction(api.luaModify))
	mod.RawSetString("delete", L.NewFunction(api.luaDelete))

	L.SetGlobal("users", mod)
}

func (api *UserAPI) luaList(L *lua.LState) int {
	summaries, err := api.repo.List()
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}

	tbl := L.NewTable()
	for i, s := range summaries {
		st := L.NewTable()
		st.RawSetString("nickname", lua.LString(s.Nickname))
		st.RawSetString("registered", lua.LNumber(s.Registered))
		tbl.RawSetInt(i+1, st)
	}
	L.Push(tbl)
	return 1
}

func (api *UserAPI) luaGet(L *lua.LState) int {
	nickname := L.CheckString(1)

	p, err := api.repo.Get(nickname)
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	if p == nil {
		L.Push(lua.LNil)
		return 1
	}

	L.Push(api.profileToTable(L, p))
	return 1
}

func (api *UserAPI) luaExists(L *lua.LState) int {
	nickname := L.CheckString(1)

	ok, err := api.repo.Exists(nickname)
	if err != nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}

	L.Push(lua.LBool(ok))
	return 1
}

func (api *UserAPI) luaCreate(L *lua.LState) int {
	nickname := L.CheckString(1)
	var profile *user.Profile
	if L.GetTop() >= 2 {
		profile = api.tableToProfile(L.CheckTable(2))
	}

	if err := api.validate.ValidateNickname(nickname); err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	if profile != nil && profile.Restricted.Email != nil {
		if err := api.validate.ValidateEmail(*profile.Restricted.Email); err != nil {
			L.Push(lua.LNil)
			L.Push(lua.LString(err.Error()))
			return 2
		}
	}

	out, err := api.repo.Create(nickname, profile)
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	if out == "" {
		L.Push(lua.LNil)
		L.Push(lua.LString("nickname already taken"))
		return 2
	}

	L.Push(lua.LString(out))
	return 1
}

func (api *UserAPI) luaModify(L *lua.LState) int {
	nickname := L.CheckString(1)
	profile := api.tableToProfile(L.CheckTable(2))

	out, err := api.repo.Modify(nickname, profile)
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

func (api *UserAPI) luaDelete(L *lua.LState) int {
	nickname := L.CheckString(1)

	removed, err := api.repo.Delete(nickname)
	if err != nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}

	L.Push(lua.LBool(removed))
	return 1
}

func (api *UserAPI) profileToTable(L *lua.LState, p *user.Profile) *lua.LTable {
	pub := L.NewTable()
	pub.RawSetString("registered", lua.LNumber(p.Public.Registered))
	pub.RawSetString("nickname", lua.LString(p.Public.Nickname))
	setOptStr(pub, "signature", p.Public.Signature)
	setOptStr(pub, "avatar", p.Public.Avatar)

	res := L.NewTable()
	setOptStr(res, "firstname", p.Restricted.Firstname)
	setOptStr(res, "lastname", p.Restricted.Lastname)
	setOptStr(res, "email", p.Restricted.Email)
	setOptStr(res, "website", p.Restricted.Website)
	setOptStr(res, "mobile", p.Restricted.Mobile)
	setOptStr(res, "skype", p.Restricted.Skype)
	if p.Restricted.Age != nil {
		res.RawSetString("age", lua.LNumber(*p.Restricted.Age))
	}
	setOptStr(res, "residence", p.Restricted.Residence)
	setOptStr(res, "gender", p.Restricted.Gender)
	setOptStr(res, "picture", p.Restricted.Picture)

	tbl := L.NewTable()
	tbl.RawSetString("public", pub)
	tbl.RawSetString("restricted", res)
	return tbl
}

// tableToProfile reads public/restricted sections from a Lua table.
// Missing keys stay nil, which Modify writes through as NULL.
func (api *UserAPI) tableToProfile(tbl *lua.LTable) *user.Profile {
	p := &user.Profile{}

	if pub, ok := tbl.RawGetString("public").(*lua.LTable); ok {
		p.Public.Signature = optStr(pub, "signature")
		p.Public.Avatar = optStr(pub, "avatar")
	}
	if res, ok := tbl.RawGetString("restricted").(*lua.LTable); ok {
		p.Restricted.Firstname = optStr(res, "firstname")
		p.Restricted.Lastname = optStr(res, "lastname")
		p.Restricted.Email = optStr(res, "email")
		p.Restricted.Website = optStr(res, "website")
		p.Restricted.Mobile = optStr(res, "mobile")
		p.Restricted.Skype = optStr(res, "skype")
		if v, ok := res.RawGetString("age").(lua.LNumber); ok {
			age := int64(v)
			p.Restricted.Age = &age
		}
		p.Restricted.Residence = optStr(res, "residence")
		p.Restricted.Gender = optStr(res, "gender")
		p.Restricted.Picture = optStr(res, "picture")
	}

	return p
}

func setOptStr(tbl *lua.LTable, key string, v *string) {
	if v != nil {
		tbl.RawSetString(key, lua.LString(*v))
	}
}

func optStr(tbl *lua.LTable, key string) *string {
	if v, ok := tbl.RawGetString(key).(lua.LString); ok {
		s := string(v)
		return &s
	}
	return nil
}
