package logging

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/thiremani/calculon/compiler"
	"github.com/thiremani/calculon/jit"
	"github.com/thiremani/calculon/token"
)

var (
	SuccessColorFG = pterm.FgLightGreen
	SuccessStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	WarnColorFG    = pterm.FgYellow
	WarnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	ErrorColorFG   = pterm.FgRed
	ErrorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	InfoColorFG    = SuccessColorFG
	InfoStyleBG    = SuccessStyleBG
	DebugColorFG   = pterm.FgGray
)

func errorMessage(tag string, err error) string {
	return ErrorStyleBG.Sprint(tag) + ErrorColorFG.Sprint(" "+err.Error()) + "\n"
}

func warningMessage(tag, msg string) string {
	return WarnStyleBG.Sprint(tag) + WarnColorFG.Sprint(" "+msg) + "\n"
}

func infoMessage(tag, msg string) string {
	return InfoStyleBG.Sprint(tag) + InfoColorFG.Sprint(" "+msg) + "\n"
}

// PrintErrorMessage prints a standard Go error to the console
func PrintErrorMessage(tag string, err error) {
	fmt.Print(errorMessage(tag, err))
}

// PrintWarningMessage prints a warning message to the console
func PrintWarningMessage(tag, msg string) {
	fmt.Print(warningMessage(tag, msg))
}

// PrintInfoMessage prints an informational message to the user
func PrintInfoMessage(tag, msg string) {
	fmt.Print(infoMessage(tag, msg))
}

// classify names the kind of a compilation error and extracts its position.
func classify(err error) (kind string, pos token.Position) {
	var ce *token.CompileError
	var se *compiler.SymbolError
	var te *compiler.TypeError
	var setup *jit.SetupError
	switch {
	case errors.As(err, &ce):
		return "Compile", ce.Pos
	case errors.As(err, &se):
		return "Name", se.Pos
	case errors.As(err, &te):
		return "Type", te.Pos()
	case errors.As(err, &setup):
		return "Backend", token.Position{}
	}
	return "Build", token.Position{}
}

func compileErrorMessage(name, src string, err error) string {
	kind, pos := classify(err)

	var sb strings.Builder
	sb.WriteString(banner(kind+" Error", name))
	sb.WriteString(err.Error() + "\n")
	if pos.IsValid() {
		if sel := codeSelection(src, pos); sel != "" {
			sb.WriteString("\n" + sel + "\n")
		}
	}
	return sb.String()
}

// banner is the header line above a compile error.
func banner(title, name string) string {
	bannerLen := pterm.GetTerminalWidth() / 2
	if bannerLen > 50 {
		bannerLen = 50
	}
	dashCount := bannerLen - len(name) - len(title) - 1
	if dashCount < 3 {
		dashCount = 3
	}
	return "\n-- " + ErrorStyleBG.Sprint(title) + " " + strings.Repeat("-", dashCount) + " " + InfoColorFG.Sprint(name) + "\n"
}

// codeSelection renders line pos.Line of src with a caret under pos.Column.
// Tabs are expanded to four spaces and the caret follows them.
func codeSelection(src string, pos token.Position) string {
	lines := strings.Split(src, "\n")
	if pos.Line > len(lines) {
		return ""
	}
	line := strings.TrimRight(lines[pos.Line-1], "\r")

	col := 0
	for i, r := range []rune(line) {
		if i >= pos.Column-1 {
			break
		}
		if r == '\t' {
			col += 4
		} else {
			col++
		}
	}

	width := len(strconv.Itoa(pos.Line)) + 1
	numberFmt := "%-" + strconv.Itoa(width) + "v"

	var sb strings.Builder
	sb.WriteString(InfoColorFG.Sprint(fmt.Sprintf(numberFmt, pos.Line)))
	sb.WriteString("|  " + strings.ReplaceAll(line, "\t", "    ") + "\n")
	sb.WriteString(strings.Repeat(" ", width) + "|  " + strings.Repeat(" ", col))
	sb.WriteString(ErrorColorFG.Sprint("^"))
	return sb.String()
}
