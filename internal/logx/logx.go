// Package logx provides the leveled, ANSI-colored logging primitives the
// rest of sccmod treats as fixed vocabulary: Info, Warn, Status, Error, and
// the carriage-return variants used while a child process is streaming
// output on a single redrawn terminal line.
package logx

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var isTerminal = isatty.IsTerminal(os.Stdout.Fd())

var (
	errStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff0000"))
	errMsgStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#ff6419"))

	warnStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffff00"))
	warnMsgStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#e1e132"))

	infoStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3296ff"))
	infoMsgStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#3296ff"))

	statusStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#c841d7"))
	statusMsgStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#e637eb"))
)

// slogger backs the leveled tags above with structured records, so any
// component that wants attrs (module, flavour, step) can log through it
// directly instead of formatting a string by hand.
var slogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

func removeTabs(msg string) string {
	return strings.ReplaceAll(msg, "\t", " ")
}

func render(tag string, tagStyle, msgStyle lipgloss.Style, msg string) string {
	msg = removeTabs(msg)
	if !isTerminal {
		return fmt.Sprintf("%s: %s", tag, msg)
	}
	return fmt.Sprintf("%s: %s", tagStyle.Render(tag), msgStyle.Render(msg))
}

// Info prints an informative message.
func Info(msg string) {
	fmt.Println(render("SCCMod Info", infoStyle, infoMsgStyle, msg))
	slogger.Info(msg)
}

// Warn prints a warning message. Per spec.md §7, warnings (e.g. a failed
// patch apply, a skipped builder) are non-fatal.
func Warn(msg string) {
	fmt.Println(render("SCCMod Warn", warnStyle, warnMsgStyle, msg))
	slogger.Warn(msg)
}

// Status prints a status message marking a pipeline stage transition.
func Status(msg string) {
	fmt.Println(render("SCCMod Status", statusStyle, statusMsgStyle, msg))
	slogger.Info(msg, "kind", "status")
}

// FatalError is returned by callers that want to propagate a fatal
// condition logged with Error up through a normal error return instead of
// via panic/exit, matching spec.md §7's "single error value" propagation
// policy at the CLI boundary.
type FatalError struct{ Message string }

func (e *FatalError) Error() string { return e.Message }

// Error logs msg at error level and returns a FatalError wrapping it. The
// caller is expected to propagate the returned error up to the CLI
// boundary, which prints it and exits non-zero (spec.md §7).
func Error(msg string) error {
	fmt.Println(render("SCCMod Err", errStyle, errMsgStyle, msg))
	slogger.Error(msg)
	return &FatalError{Message: msg}
}

// InfoCarriage prints msg terminated with a carriage return instead of a
// newline, clearing the rest of the line first. Used by the process pump
// (internal/pump) to redraw stdout on a single terminal line.
func InfoCarriage(msg string) {
	msg = removeTabs(msg)
	if !isTerminal {
		fmt.Print(msg + "\n")
		return
	}
	fmt.Print("\x1b[K")
	fmt.Printf("%s: %s\r", infoStyle.Render("SCCMod Info"), infoMsgStyle.Render(msg))
}

// WarnCarriage is the stderr-drain analogue of InfoCarriage.
func WarnCarriage(msg string) {
	msg = removeTabs(msg)
	if !isTerminal {
		fmt.Print(msg + "\n")
		return
	}
	fmt.Print("\x1b[K")
	fmt.Printf("%s: %s\r", warnStyle.Render("SCCMod Warn"), warnMsgStyle.Render(msg))
}

// ClearLine emits the clear-to-end-of-line + carriage-return sequence used
// once a child process pump has finished draining, so the next line of
// output starts clean (mirrors original_source/src/cli.rs's
// `print!("\x1b[K\r")` after both drain threads join).
func ClearLine() {
	if isTerminal {
		fmt.Print("\x1b[K\r")
	}
}
