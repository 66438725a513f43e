// Package shellx implements the shell composer (spec.md §4.1, C1): a
// builder for ordered, working-directory-scoped shell command sequences
// whose execution semantics (env-module loading, chained
// `cd && cmd1 && cmd2`) cannot be expressed with a plain one-shot
// subprocess API, because loading an Environment Modules module and then
// running `cmake`/`make` against it must happen in the very same shell.
package shellx

import (
	"os/exec"

	"sccmod/internal/pump"
)

// Shell accumulates a working directory and an ordered list of commands,
// then execs them all as one `<shell> -c '...'` invocation.
type Shell struct {
	shell   string
	cwd     string
	command []string
}

// New constructs a Shell that will invoke the named shell executable
// (e.g. the configured `shell` field, spec.md §6).
func New(shell string) *Shell {
	return &Shell{shell: shell, cwd: "/"}
}

// SetCurrentDir sets the working directory the composed command chain
// will `cd` into before running anything.
func (s *Shell) SetCurrentDir(dir string) {
	s.cwd = dir
}

// AddCommand appends one raw shell command to the chain.
func (s *Shell) AddCommand(cmd string) {
	s.command = append(s.command, cmd)
}

// Commands returns the accumulated command list, in order.
func (s *Shell) Commands() []string {
	return s.command
}

// buildScript renders the `cd "<cwd>" && cmd1 && cmd2 && ...` string.
//
// Quoting of cwd uses double quotes only; callers must not supply paths
// containing unescaped double quotes (spec.md §4.1).
func (s *Shell) buildScript() string {
	script := `cd "` + s.cwd + `"`
	for _, c := range s.command {
		script += " && " + c
	}
	return script
}

// Exec spawns `<shell> -c "<script>"`, piping stdout/stderr through the
// process pump (C2), and returns the pump result. Stdin is not connected:
// the child reads from the null device.
//
// Commands chained with && guarantee early termination on failure and
// inherit whatever environment modules a preceding `module load` put in
// place (spec.md §4.1).
func (s *Shell) Exec() (pump.Result, error) {
	cmd := exec.Command(s.shell, "-c", s.buildScript())
	return pump.Run(cmd)
}
