package script

import (
	lua "github.com/yuin/gopher-lua"
	"golang.org/x/xerrors"
)

func asString(v lua.LValue) (string, bool) {
	s, ok := v.(lua.LString)
	return string(s), ok
}

func asBool(v lua.LValue) (bool, bool) {
	b, ok := v.(lua.LBool)
	return bool(b), ok
}

func asInt(v lua.LValue) (int, bool) {
	n, ok := v.(lua.LNumber)
	return int(n), ok
}

func asTable(v lua.LValue) (*lua.LTable, bool) {
	t, ok := v.(*lua.LTable)
	return t, ok
}

// kindOf returns the __kind tag a prelude constructor stamped onto tbl, or
// "" if tbl carries none.
func kindOf(tbl *lua.LTable) string {
	v := tbl.RawGetString("__kind")
	s, _ := asString(v)
	return s
}

func requiredStringField(tbl *lua.LTable, field, context string) (string, error) {
	v := tbl.RawGetString(field)
	if v == lua.LNil {
		return "", xerrors.Errorf("%s: missing required field %q", context, field)
	}
	s, ok := asString(v)
	if !ok {
		return "", xerrors.Errorf("%s: field %q must be a string", context, field)
	}
	return s, nil
}

func optionalStringField(tbl *lua.LTable, field string) (string, error) {
	v := tbl.RawGetString(field)
	if v == lua.LNil {
		return "", nil
	}
	s, ok := asString(v)
	if !ok {
		return "", xerrors.Errorf("field %q must be a string", field)
	}
	return s, nil
}

func requiredBoolField(tbl *lua.LTable, field, context string) (bool, error) {
	v := tbl.RawGetString(field)
	if v == lua.LNil {
		return false, xerrors.Errorf("%s: missing required field %q", context, field)
	}
	b, ok := asBool(v)
	if !ok {
		return false, xerrors.Errorf("%s: field %q must be a bool", context, field)
	}
	return b, nil
}

func optionalBoolField(tbl *lua.LTable, field string) (bool, error) {
	v := tbl.RawGetString(field)
	if v == lua.LNil {
		return false, nil
	}
	b, ok := asBool(v)
	if !ok {
		return false, xerrors.Errorf("field %q must be a bool", field)
	}
	return b, nil
}

func requiredIntField(tbl *lua.LTable, field, context string) (int, error) {
	v := tbl.RawGetString(field)
	if v == lua.LNil {
		return 0, xerrors.Errorf("%s: missing required field %q", context, field)
	}
	n, ok := asInt(v)
	if !ok {
		return 0, xerrors.Errorf("%s: field %q must be a number", context, field)
	}
	return n, nil
}

func optionalStringSliceField(tbl *lua.LTable, field string) ([]string, error) {
	v := tbl.RawGetString(field)
	if v == lua.LNil {
		return nil, nil
	}
	items, ok := asTable(v)
	if !ok {
		return nil, xerrors.Errorf("field %q must be an array of strings", field)
	}
	out := make([]string, 0, items.Len())
	for i := 1; i <= items.Len(); i++ {
		s, ok := asString(items.RawGetInt(i))
		if !ok {
			return nil, xerrors.Errorf("field %q must be an array of strings", field)
		}
		out = append(out, s)
	}
	return out, nil
}

// callZeroArg invokes the zero-argument function stored at field on tbl
// (spec.md §4.5 treats metadata/download/dependencies/environment/build/
// pre_build/post_install as callables, not plain attributes). The second
// return reports whether the field is defined at all; an undefined field
// is not an error, matching the original runtime's optional-attribute
// semantics.
func callZeroArg(L *lua.LState, tbl *lua.LTable, field string) (lua.LValue, bool, error) {
	fn := tbl.RawGetString(field)
	if fn == lua.LNil {
		return nil, false, nil
	}
	fv, ok := fn.(*lua.LFunction)
	if !ok {
		return nil, true, xerrors.Errorf("%q is not a function", field)
	}
	if err := L.CallByParam(lua.P{Fn: fv, NRet: 1, Protect: true}); err != nil {
		return nil, true, xerrors.Errorf("failed to call %q: %w", field, err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	return ret, true, nil
}
