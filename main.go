package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ComedicChimera/olive"
	"github.com/thiremani/calculon/cache"
	"github.com/thiremani/calculon/config"
	"github.com/thiremani/calculon/jit"
	"github.com/thiremani/calculon/logging"
)

// SRC_SUFFIX is stripped from file names to form module names.
var SRC_SUFFIX = ".calc"

// app carries the settings shared by every command.
type app struct {
	cfg *config.Config
	log *logging.Logger
	out io.Writer
}

// parseCommandLine builds the argument parser and runs it over args.
func parseCommandLine(args []string) (*olive.ArgParseResult, error) {
	cli := olive.NewCLI("calculon", "calculon compiles numeric expressions to native code", true)
	cli.AddSelectorArg("loglevel", "ll", "the log level", false, logging.LevelNames())

	evalCmd := cli.AddSubcommand("eval", "compile and run a program", true)
	evalCmd.AddPrimaryArg("file", "the program to run", true)
	evalCmd.AddStringArg("signature", "s", "the program signature, e.g. '(x, v: vector*3): (r)'", true)
	evalCmd.AddStringArg("args", "a", "comma separated arguments, vectors as [a b c]", false)
	evalCmd.AddStringArg("config", "c", "path to the settings file", false)

	emitCmd := cli.AddSubcommand("emit", "write optimised IR to the cache", true)
	emitCmd.AddPrimaryArg("file", "the program to compile", true)
	emitCmd.AddStringArg("signature", "s", "the program signature", true)
	emitCmd.AddStringArg("config", "c", "path to the settings file", false)

	replCmd := cli.AddSubcommand("repl", "evaluate programs interactively", true)
	replCmd.AddStringArg("signature", "s", "the initial signature", false)
	replCmd.AddStringArg("config", "c", "path to the settings file", false)

	configCmd := cli.AddSubcommand("config", "manage the settings file", true)
	initCmd := configCmd.AddSubcommand("init", "write a default settings file", true)
	initCmd.AddFlag("force", "f", "overwrite an existing file")
	initCmd.AddStringArg("config", "c", "path to the settings file", false)

	cli.AddSubcommand("version", "print the calculon version", false)
	return olive.ParseArgs(cli, args)
}

// stringArg returns an optional named argument.
func stringArg(result *olive.ArgParseResult, name string) (string, bool) {
	v, ok := result.Arguments[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func configPath(result *olive.ArgParseResult) (string, bool) {
	if path, ok := stringArg(result, "config"); ok {
		return path, false
	}
	return config.FileName, true
}

// newApp loads the settings for a command. An explicit --loglevel wins over
// the settings file.
func newApp(root, sub *olive.ArgParseResult, out io.Writer) (*app, bool) {
	path, optional := configPath(sub)
	cfg, err := config.Load(path, optional)
	if err != nil {
		logging.PrintErrorMessage("Config Error", err)
		return nil, false
	}

	level := cfg.Level()
	if name, ok := stringArg(root, "loglevel"); ok {
		level, _ = logging.ParseLevel(name)
	}
	return &app{cfg: cfg, log: logging.New(level, out), out: out}, true
}

func run(args []string) int {
	logging.DetectColor(os.Stdout)

	result, err := parseCommandLine(args)
	if err != nil {
		logging.PrintErrorMessage("CLI Usage Error", err)
		return 2
	}

	subcmdName, subResult, _ := result.Subcommand()
	switch subcmdName {
	case "version":
		printVersion(os.Stdout)
		return 0
	case "config":
		return execConfigCommand(subResult)
	}

	a, ok := newApp(result, subResult, os.Stdout)
	if !ok {
		return 1
	}

	ok = false
	switch subcmdName {
	case "eval":
		file, _ := subResult.PrimaryArg()
		sig, _ := stringArg(subResult, "signature")
		argSrc, _ := stringArg(subResult, "args")
		if src, readOK := a.readSource(file); readOK {
			ok = a.eval(moduleName(file), src, sig, argSrc)
		}
	case "emit":
		file, _ := subResult.PrimaryArg()
		sig, _ := stringArg(subResult, "signature")
		if src, readOK := a.readSource(file); readOK {
			_, ok = a.emit(moduleName(file), src, sig)
		}
	case "repl":
		sig, hasSig := stringArg(subResult, "signature")
		if !hasSig {
			sig = defaultReplSignature
		}
		ok = a.repl(sig)
	}
	if !ok {
		return 1
	}
	return 0
}

func execConfigCommand(result *olive.ArgParseResult) int {
	subcmdName, subResult, _ := result.Subcommand()
	switch subcmdName {
	case "init":
		path, _ := configPath(subResult)
		if err := initConfig(path, subResult.HasFlag("force")); err != nil {
			logging.PrintErrorMessage("Config Error", err)
			return 1
		}
		logging.PrintInfoMessage("Config", "wrote "+path)
	}
	return 0
}

// initConfig writes the default settings to path.
func initConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return config.Default().Save(path)
}

func moduleName(file string) string {
	return strings.TrimSuffix(filepath.Base(file), SRC_SUFFIX)
}

func (a *app) readSource(file string) (string, bool) {
	source, err := os.ReadFile(file)
	if err != nil {
		a.log.Error("File Error", err)
		return "", false
	}
	return string(source), true
}

func (a *app) compile(name, src, sig string) (*jit.Program, error) {
	opts := append(a.cfg.JITOptions(), jit.WithLogger(a.log), jit.WithModuleName(name))
	return jit.Compile(src, sig, opts...)
}

// eval compiles src, calls it with the arguments in argSrc and prints each
// result as "name = value".
func (a *app) eval(name, src, sig, argSrc string) bool {
	args, err := parseArgs(argSrc)
	if err != nil {
		a.log.Error("Argument Error", err)
		return false
	}

	p, err := a.compile(name, src, sig)
	if err != nil {
		a.log.CompileError(name, src, err)
		return false
	}
	defer p.Close()

	results, err := p.Call(args...)
	if err != nil {
		a.log.Error("Argument Error", err)
		return false
	}
	for _, line := range formatResults(p.Signature(), results) {
		fmt.Fprintln(a.out, line)
	}
	return true
}

// emit stores the optimised IR of src in the cache and prints its path.
func (a *app) emit(name, src, sig string) (cache.Entry, bool) {
	key := cache.Key{
		Source:    src,
		Signature: sig,
		Settings: []string{
			a.cfg.Real,
			strconv.Itoa(a.cfg.OptLevel),
			strconv.Itoa(a.cfg.InlineThreshold),
		},
	}

	var compileErr error
	store := cache.New(a.cfg.Cache())
	store.Warn = func(msg string) { a.log.Warn("Cache", msg) }
	entry, err := store.PutIR(key, func() (string, error) {
		p, err := a.compile(name, src, sig)
		if err != nil {
			compileErr = err
			return "", err
		}
		defer p.Close()
		return p.IR(), nil
	})
	switch {
	case compileErr != nil:
		a.log.CompileError(name, src, compileErr)
		return cache.Entry{}, false
	case err != nil:
		a.log.Error("Cache Error", err)
		return cache.Entry{}, false
	}

	if entry.Cached {
		a.log.Info("Cached", name)
	} else {
		a.log.Info("Compiled", name)
	}
	fmt.Fprintln(a.out, entry.Path)
	return entry, true
}

func main() {
	os.Exit(run(os.Args))
}
