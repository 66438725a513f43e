package script

// prelude is preloaded as the `sccmod` module inside every script's Lua
// state (spec.md §4.5's "prepended sys.path entry pointing at the tool's
// helper library"). Each constructor tags the table it returns with a
// `__kind` field so the loader can dispatch on it the way the original
// duck-typed runtime dispatched on a script object's class name.
const prelude = `
local M = {}

local function tag(kind, t)
  t = t or {}
  t.__kind = kind
  return t
end

function M.Class(name) return tag("Class", {name = name}) end
function M.Depends(name) return tag("Depends", {name = name}) end
function M.Deny(name) return tag("Deny", {name = name}) end
function M.Module(name) return tag("Module", {name = name}) end

function M.GitClone(t) return tag("GitClone", t) end
function M.Curl(t) return tag("Curl", t) end

function M.CMake(t) return tag("CMake", t) end
function M.Make(t) return tag("Make", t) end

return M
`
