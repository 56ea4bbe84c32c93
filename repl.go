package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/thiremani/calculon/parser"
)

const defaultReplSignature = "(): real"

const replHelp = `:sig <signature>  change the signature
:args <arguments> set the arguments
:show             print the signature and arguments
:quit             leave`

// session is the state of an interactive run.
type session struct {
	app  *app
	sig  string
	args string
}

// handle evaluates one line of input. It returns false to end the session.
func (s *session) handle(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	if !strings.HasPrefix(line, ":") {
		s.app.eval("repl", line, s.sig, s.args)
		return true
	}

	cmd, rest, _ := strings.Cut(line[1:], " ")
	rest = strings.TrimSpace(rest)
	switch cmd {
	case "quit", "q":
		return false
	case "sig":
		if _, err := parser.ParseSignature(rest); err != nil {
			s.app.log.Error("Signature Error", err)
			return true
		}
		s.sig = rest
	case "args":
		if _, err := parseArgs(rest); err != nil {
			s.app.log.Error("Argument Error", err)
			return true
		}
		s.args = rest
	case "show":
		fmt.Fprintf(s.app.out, "signature: %s\narguments: %s\n", s.sig, s.args)
	case "help":
		fmt.Fprintln(s.app.out, replHelp)
	default:
		s.app.log.Warn("REPL", fmt.Sprintf("unknown command ':%s' (try :help)", cmd))
	}
	return true
}

// repl runs a read, eval, print loop on the terminal.
func (a *app) repl(sig string) bool {
	if _, err := parser.ParseSignature(sig); err != nil {
		a.log.Error("Signature Error", err)
		return false
	}

	cfg := &readline.Config{Prompt: "calculon> "}
	if err := os.MkdirAll(a.cfg.Cache(), 0755); err == nil {
		cfg.HistoryFile = filepath.Join(a.cfg.Cache(), "history")
	}
	rl, err := readline.NewEx(cfg)
	if err != nil {
		a.log.Error("REPL", err)
		return false
	}
	defer rl.Close()

	s := &session{app: a, sig: sig}
	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				fmt.Fprintln(a.out, err)
				continue
			}
			if errors.Is(err, io.EOF) {
				break
			}
			a.log.Error("REPL", err)
			return false
		}
		if !s.handle(line) {
			break
		}
	}
	fmt.Fprintln(a.out)
	return true
}
