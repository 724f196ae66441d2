package cliframe

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"go.uber.org/zap"
)

// Exit codes returned by Run.
const (
	ExitSuccess   = 0
	ExitError     = 1
	ExitInterrupt = 255
)

var (
	signalNotify = signal.Notify
	osExit       = os.Exit
)

// SubcommandFunc handles one subcommand. It receives the non-option
// arguments that followed the subcommand name.
type SubcommandFunc func(app *Application, args []string) error

// Application drives a Unix-like command line program: it parses
// options, loads config files, sets up logging, opens the output, and
// then hands control to the application's own handlers. Programs
// provide the per-line or per-argument logic; everything else is
// scaffolding the driver supplies.
type Application struct {
	// Settings is the settings store used by the application. Declare
	// application settings in the WithSetup hook, before Run parses
	// the command line.
	Settings *Settings

	progname    string
	version     string
	description string

	setup       func(*Application)
	argsHandler func(*Application, []string) error
	lineHandler func(app *Application, filename, line string) error
	opener      func(app *Application, name string) (io.ReadCloser, error)

	subcommands map[string]SubcommandFunc

	logger *zap.Logger
	output io.Writer

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	fileno       int
	lineno       int
	globalLineno int
}

// AppOpt customises an Application at construction time.
type AppOpt func(*Application)

// WithDescription sets the description shown in --help output.
func WithDescription(description string) AppOpt {
	return func(a *Application) { a.description = description }
}

// WithSetup registers a hook that runs before argument parsing; use it
// to declare application settings.
func WithSetup(setup func(*Application)) AppOpt {
	return func(a *Application) { a.setup = setup }
}

// WithArgsHandler replaces the default handling of non-option
// arguments. Without it, arguments dispatch to a subcommand when any
// are registered, and are otherwise treated as input files.
func WithArgsHandler(handler func(app *Application, args []string) error) AppOpt {
	return func(a *Application) { a.argsHandler = handler }
}

// WithInputLineHandler registers the handler called for each input
// line. The line is passed without its trailing newline.
func WithInputLineHandler(handler func(app *Application, filename, line string) error) AppOpt {
	return func(a *Application) { a.lineHandler = handler }
}

// WithInputOpener replaces how input names are opened, for applications
// whose arguments are not local file names.
func WithInputOpener(opener func(app *Application, name string) (io.ReadCloser, error)) AppOpt {
	return func(a *Application) { a.opener = opener }
}

// New creates an application. An empty progname is filled in from the
// executable name when Run starts.
func New(progname, version string, opts ...AppOpt) *Application {
	a := &Application{
		progname:    progname,
		version:     version,
		subcommands: make(map[string]SubcommandFunc),
		logger:      zap.NewNop(),
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.Settings = NewSettings(progname, version)
	a.Settings.Description = a.description
	a.output = a.stdout
	return a
}

// AddSubcommand registers a subcommand. When any subcommands are
// registered, the first non-option argument selects one and the rest
// are passed to its handler. Options remain global.
func (a *Application) AddSubcommand(name string, fn SubcommandFunc) {
	if _, dup := a.subcommands[name]; dup {
		panic(fmt.Sprintf("cliframe: subcommand %q registered twice", name))
	}
	a.subcommands[name] = fn
}

// Logger returns the application logger. Before Run has set up logging
// it is a no-op logger.
func (a *Application) Logger() *zap.Logger { return a.logger }

// Output returns the destination selected with --output, or standard
// output.
func (a *Application) Output() io.Writer { return a.output }

// Fileno returns the ordinal of the input file being processed,
// starting at 1.
func (a *Application) Fileno() int { return a.fileno }

// Lineno returns the current line number within the current input file.
func (a *Application) Lineno() int { return a.lineno }

// GlobalLineno returns the current line number as if all input files
// were one.
func (a *Application) GlobalLineno() int { return a.globalLineno }

// Main runs the application on os.Args and exits the process with the
// resulting code.
func (a *Application) Main() {
	osExit(a.Run(os.Args[1:]))
}

// Run runs the application on the given arguments and returns the
// process exit code: 0 on success, 1 on any application error (reported
// as a one-line ERROR: message, without a stack trace), 255 on
// interrupt.
func (a *Application) Run(args []string) int {
	if a.progname == "" && len(os.Args) > 0 {
		a.progname = filepath.Base(os.Args[0])
		a.Settings.Progname = a.progname
	}

	interrupted := make(chan os.Signal, 1)
	signalNotify(interrupted, os.Interrupt)
	go func() {
		<-interrupted
		osExit(ExitInterrupt)
	}()
	defer signal.Stop(interrupted)

	if err := a.run(args); err != nil {
		fmt.Fprintf(a.stderr, "ERROR: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}

func (a *Application) run(args []string) error {
	if a.setup != nil {
		a.setup(a)
	}

	// Parse the command line once just to pick up --config and
	// --no-default-configs, then read the config files, then re-parse
	// so that options override config file settings.
	if _, err := a.Settings.ParseArgs(args, true); err != nil {
		return err
	}
	if err := a.Settings.LoadConfigs(); err != nil {
		return err
	}
	rest, err := a.Settings.ParseArgs(args, false)
	if err != nil {
		return err
	}

	logger, closeLog, err := a.setupLogging()
	if err != nil {
		return err
	}
	a.logger = logger
	defer closeLog()

	a.logger.Info("starting",
		zap.String("program", a.progname),
		zap.String("version", a.version))

	if path := a.Settings.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("open output: %w", err)
		}
		defer f.Close()
		a.output = f
	} else {
		a.output = a.stdout
	}

	if err := a.processArgs(rest); err != nil {
		a.logger.Error("failed", zap.Error(err))
		return err
	}
	a.logger.Info("finished")
	return nil
}

func (a *Application) processArgs(args []string) error {
	if a.argsHandler != nil {
		return a.argsHandler(a, args)
	}
	if len(a.subcommands) > 0 {
		if len(args) == 0 {
			return errors.New("must give subcommand")
		}
		fn, ok := a.subcommands[args[0]]
		if !ok {
			return fmt.Errorf("unknown subcommand %s", args[0])
		}
		return fn(a, args[1:])
	}
	return a.ProcessInputs(args)
}

// ProcessInputs processes each argument as an input file name. With no
// arguments, standard input is read, following the usual convention
// for Unix filters. An args handler that wants something to happen
// after the last input line can call this and then do it.
func (a *Application) ProcessInputs(args []string) error {
	if len(args) == 0 {
		args = []string{"-"}
	}
	for _, name := range args {
		if err := a.processInput(name); err != nil {
			return err
		}
	}
	return nil
}

// OpenInput opens one input. The name "-" selects standard input.
func (a *Application) OpenInput(name string) (io.ReadCloser, error) {
	if a.opener != nil {
		return a.opener(a, name)
	}
	if name == "-" {
		return io.NopCloser(a.stdin), nil
	}
	return os.Open(name)
}

func (a *Application) processInput(name string) error {
	a.fileno++
	a.lineno = 0

	f, err := a.OpenInput(name)
	if err != nil {
		return err
	}
	defer f.Close()

	a.logger.Debug("processing input", zap.String("name", name))

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		a.lineno++
		a.globalLineno++
		if a.lineHandler != nil {
			if err := a.lineHandler(a, name, scanner.Text()); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	return nil
}
