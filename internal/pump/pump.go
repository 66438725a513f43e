// Package pump runs a spawned child process, draining its stdout and
// stderr concurrently onto a single redrawn terminal line while capturing
// every line in full, as required by spec.md §4.2 (process pump, C2) and
// §5 (concurrency model).
package pump

import (
	"bufio"
	"io"
	"os"
	"os/exec"

	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
	"golang.org/x/xerrors"

	"sccmod/internal/logx"
)

// defaultWidth is used when the terminal width cannot be determined,
// matching spec.md §4.2's "default to 80 columns" fallback.
const defaultWidth = 80

// consoleWidth samples the terminal width once per pump invocation, as
// spec.md §4.2 requires ("sampled once before pumping").
func consoleWidth() int {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return defaultWidth
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

// truncateWidth is the maximum number of runes of a line that may be
// drawn on the terminal, per spec.md §4.2/§8 property 5:
// max(13, console_width) - 13.
func truncateWidth(width int) int {
	if width < 13 {
		width = 13
	}
	return width - 13
}

func truncate(line string, width int) string {
	r := []rune(line)
	if len(r) <= width {
		return line
	}
	return string(r[:width])
}

// Result is the outcome of running and pumping a child process: its exit
// status plus every line it wrote to each stream, in emission order.
type Result struct {
	ExitCode int
	Stdout   []string
	Stderr   []string
}

// Run starts cmd (which must not already have Stdout/Stderr assigned) and
// pumps its output per spec.md §4.2: two parallel drain tasks, one per
// stream, each both buffering the full line and printing a truncated,
// carriage-returned copy; the parent waits for both drain tasks and then
// the child itself.
//
// On pipe-open failure or drain-task-spawn failure, Run returns an error
// with empty buffers, matching spec.md §4.2's contract.
func Run(cmd *exec.Cmd) (Result, error) {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, xerrors.Errorf("failed to open stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, xerrors.Errorf("failed to open stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return Result{}, xerrors.Errorf("failed to start command: %w", err)
	}

	width := truncateWidth(consoleWidth())

	var stdoutLines, stderrLines []string
	var g errgroup.Group

	g.Go(func() error {
		stdoutLines = drain(stdout, width, logx.InfoCarriage)
		return nil
	})
	g.Go(func() error {
		stderrLines = drain(stderr, width, logx.WarnCarriage)
		return nil
	})

	// errgroup.Group.Wait never returns a non-nil error here (drain never
	// returns one), but propagate the shape anyway for symmetry with a
	// drain task that fails to spawn.
	if err := g.Wait(); err != nil {
		return Result{}, xerrors.Errorf("failed to drain child output: %w", err)
	}

	logx.ClearLine()

	waitErr := cmd.Wait()
	exitCode := 0
	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return Result{Stdout: stdoutLines, Stderr: stderrLines}, xerrors.Errorf("failed to wait for command: %w", waitErr)
		}
	}

	return Result{ExitCode: exitCode, Stdout: stdoutLines, Stderr: stderrLines}, nil
}

func drain(r io.Reader, width int, show func(string)) []string {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		lines = append(lines, line)
		show(truncate(line, width))
	}
	return lines
}
