package cliframe

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kingpin/v2"
)

// Names of the option groups used by the built-in settings. Applications
// may attach their own settings to these groups.
const (
	LogGroupName    = "Logging"
	ConfigGroupName = "Configuration files and settings"
)

// Settings is an ordered store of typed settings. Settings are declared
// once at startup, then filled in from configuration files and command
// line options; the current value of each is available through the typed
// getters.
//
// Value precedence is established by the caller running two parse passes
// around LoadConfigs:
//
//	ParseArgs(args, true)   // discover --config/--no-default-configs
//	LoadConfigs()           // apply config files, in list order
//	ParseArgs(args, false)  // apply all options
//
// Only after the second pass do settings reflect command line > config
// file > programmatic default precedence. Settings is not safe for
// concurrent use.
type Settings struct {
	Progname    string
	Version     string
	Description string

	byName    map[string]Setting
	canonical []string

	configFiles     []string
	haveConfigFiles bool
	requiredConfigs []string
	extraData       map[string]map[string]string

	stdout    io.Writer
	stderr    io.Writer
	terminate func(int)
}

// NewSettings creates a settings store with the built-in settings
// (--output, --log, --log-level, --log-max, --log-keep, --log-mode)
// already declared.
func NewSettings(progname, version string) *Settings {
	s := &Settings{
		Progname:  progname,
		Version:   version,
		byName:    make(map[string]Setting),
		extraData: make(map[string]map[string]string),
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		terminate: os.Exit,
	}
	s.addDefaultSettings()
	return s
}

func (s *Settings) addDefaultSettings() {
	s.AddString([]string{"output"},
		"write output to FILE, instead of standard output", "",
		Metavar("FILE"))

	s.AddString([]string{"log"},
		`write log entries to FILE (default is to not write log files at `+
			`all); use "syslog" to log to the system log, "stderr" to log to `+
			`the standard error output, or "none" to disable logging`, "",
		Metavar("FILE"), Group(LogGroupName))
	s.AddChoice([]string{"log-level"},
		[]string{"debug", "info", "warning", "error", "critical", "fatal"},
		"log at LEVEL, one of debug, info, warning, error, critical, fatal",
		Metavar("LEVEL"), Group(LogGroupName))
	s.AddByteSize([]string{"log-max"},
		"rotate logs larger than SIZE, zero for never", 0,
		Metavar("SIZE"), Group(LogGroupName))
	s.AddInteger([]string{"log-keep"}, "keep last N logs", 10,
		Metavar("N"), Group(LogGroupName))
	s.AddString([]string{"log-mode"},
		"set permissions of new log files to MODE (octal)", "0600",
		Metavar("MODE"), Group(LogGroupName))
}

func (s *Settings) addSetting(set Setting) {
	for _, name := range set.Names() {
		if _, dup := s.byName[name]; dup {
			panic(fmt.Sprintf("cliframe: setting name %q declared twice", name))
		}
	}
	s.canonical = append(s.canonical, set.Name())
	for _, name := range set.Names() {
		s.byName[name] = set
	}
}

func defaultMetavar(names []string) string { return strings.ToUpper(names[0]) }

// AddString declares a string setting.
func (s *Settings) AddString(names []string, help, deflt string, opts ...SettingOpt) {
	set := &StringSetting{settingBase: newBase(names, help, defaultMetavar(names), opts)}
	set.value = deflt
	s.addSetting(set)
}

// AddStringList declares a setting holding multiple string values, for
// options that can be given several times, such as "--exclude=foo
// --exclude=bar".
func (s *Settings) AddStringList(names []string, help string, deflt []string, opts ...SettingOpt) {
	set := &StringListSetting{settingBase: newBase(names, help, defaultMetavar(names), opts)}
	set.values = append([]string(nil), deflt...)
	s.addSetting(set)
}

// AddChoice declares a setting restricted to the given choices. The
// default value is the first choice.
func (s *Settings) AddChoice(names []string, choices []string, help string, opts ...SettingOpt) {
	if len(choices) == 0 {
		panic(fmt.Sprintf("cliframe: choice setting %q needs at least one choice", names[0]))
	}
	set := &ChoiceSetting{settingBase: newBase(names, help, defaultMetavar(names), opts)}
	set.choices = append([]string(nil), choices...)
	set.value = choices[0]
	s.addSetting(set)
}

// AddBoolean declares a boolean setting. Besides --name, the command
// line accepts --no-name to set it false, unless no-name is itself a
// declared setting.
func (s *Settings) AddBoolean(names []string, help string, deflt bool, opts ...SettingOpt) {
	set := &BooleanSetting{settingBase: newBase(names, help, "", opts)}
	set.value = deflt
	s.addSetting(set)
}

// AddByteSize declares a setting holding a size in bytes. Values may use
// the k/m/g/t and ki/mi/gi/ti suffixes.
func (s *Settings) AddByteSize(names []string, help string, deflt int64, opts ...SettingOpt) {
	set := &ByteSizeSetting{settingBase: newBase(names, help, "SIZE", opts)}
	set.value = deflt
	s.addSetting(set)
}

// AddInteger declares an integer setting.
func (s *Settings) AddInteger(names []string, help string, deflt int64, opts ...SettingOpt) {
	set := &IntegerSetting{settingBase: newBase(names, help, defaultMetavar(names), opts)}
	set.value = deflt
	s.addSetting(set)
}

// Lookup resolves a setting name or alias.
func (s *Settings) Lookup(name string) (Setting, bool) {
	set, ok := s.byName[name]
	return set, ok
}

// Keys returns the canonical setting names in declaration order.
func (s *Settings) Keys() []string {
	return append([]string(nil), s.canonical...)
}

// setting resolves a name and panics if it is unknown. Reading an
// undeclared setting is a programming error, not a user error.
func (s *Settings) setting(name string) Setting {
	set, ok := s.byName[name]
	if !ok {
		panic(fmt.Sprintf("cliframe: unknown setting %q", name))
	}
	return set
}

// String returns the value of a string or choice setting.
func (s *Settings) String(name string) string {
	switch set := s.setting(name).(type) {
	case *StringSetting:
		return set.Value()
	case *ChoiceSetting:
		return set.Value()
	default:
		panic(fmt.Sprintf("cliframe: setting %q is not a string setting", name))
	}
}

// Strings returns the value of a string list setting.
func (s *Settings) Strings(name string) []string {
	set, ok := s.setting(name).(*StringListSetting)
	if !ok {
		panic(fmt.Sprintf("cliframe: setting %q is not a string list setting", name))
	}
	return set.Value()
}

// Bool returns the value of a boolean setting.
func (s *Settings) Bool(name string) bool {
	set, ok := s.setting(name).(*BooleanSetting)
	if !ok {
		panic(fmt.Sprintf("cliframe: setting %q is not a boolean setting", name))
	}
	return set.Value()
}

// Int returns the value of an integer setting.
func (s *Settings) Int(name string) int64 {
	set, ok := s.setting(name).(*IntegerSetting)
	if !ok {
		panic(fmt.Sprintf("cliframe: setting %q is not an integer setting", name))
	}
	return set.Value()
}

// Size returns the value of a byte size setting.
func (s *Settings) Size(name string) int64 {
	set, ok := s.setting(name).(*ByteSizeSetting)
	if !ok {
		panic(fmt.Sprintf("cliframe: setting %q is not a byte size setting", name))
	}
	return set.Value()
}

// SetString assigns a string or choice setting. Assigning an invalid
// choice value panics, since programmatic assignment of a bad value is
// a programming error.
func (s *Settings) SetString(name, value string) {
	switch set := s.setting(name).(type) {
	case *StringSetting:
		set.value = value
	case *ChoiceSetting:
		if err := set.ParseValue(value); err != nil {
			panic(fmt.Sprintf("cliframe: %v", err))
		}
	default:
		panic(fmt.Sprintf("cliframe: setting %q is not a string setting", name))
	}
}

// SetStrings assigns a string list setting.
func (s *Settings) SetStrings(name string, values []string) {
	set, ok := s.setting(name).(*StringListSetting)
	if !ok {
		panic(fmt.Sprintf("cliframe: setting %q is not a string list setting", name))
	}
	set.values = append([]string(nil), values...)
}

// SetBool assigns a boolean setting.
func (s *Settings) SetBool(name string, value bool) {
	set, ok := s.setting(name).(*BooleanSetting)
	if !ok {
		panic(fmt.Sprintf("cliframe: setting %q is not a boolean setting", name))
	}
	set.value = value
}

// SetInt assigns an integer setting.
func (s *Settings) SetInt(name string, value int64) {
	set, ok := s.setting(name).(*IntegerSetting)
	if !ok {
		panic(fmt.Sprintf("cliframe: setting %q is not an integer setting", name))
	}
	set.value = value
}

// SetSize assigns a byte size setting.
func (s *Settings) SetSize(name string, value int64) {
	set, ok := s.setting(name).(*ByteSizeSetting)
	if !ok {
		panic(fmt.Sprintf("cliframe: setting %q is not a byte size setting", name))
	}
	set.value = value
}

// Require returns an error if any of the named settings has no value.
// A default value satisfies the requirement.
func (s *Settings) Require(names ...string) error {
	var missing []string
	for _, name := range names {
		if !s.setting(name).HasValue() {
			missing = append(missing,
				fmt.Sprintf("setting %s has no value, but one is required", name))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s", strings.Join(missing, "\n"))
	}
	return nil
}

// ParseArgs parses command line options and returns the non-option
// arguments. With configsOnly true, only --config and
// --no-default-configs take effect; every other option is recognised
// but ignored, so config files can be discovered before they are
// loaded. Deferred options such as --dump-config run only after the
// whole command line has been parsed, so they see the final state.
func (s *Settings) ParseArgs(args []string, configsOnly bool) ([]string, error) {
	if !configsOnly {
		for _, name := range s.canonical {
			if set, ok := s.byName[name].(*StringListSetting); ok {
				set.replaceNext = true
			}
		}
	}
	app := s.buildParser(configsOnly, false)
	rest := app.Arg("arg", "non-option arguments").Strings()
	if _, err := app.Parse(args); err != nil {
		return nil, err
	}
	return *rest, nil
}

// buildParser constructs the option parser for one parse pass. With
// allOptions true, hidden settings show up in help output; --help-all
// uses that to build its parser.
func (s *Settings) buildParser(configsOnly, allOptions bool) *kingpin.Application {
	app := kingpin.New(s.Progname, s.Description)
	app.Version(s.Version)
	app.Terminate(s.terminate)
	app.UsageWriter(s.stdout)
	app.ErrorWriter(s.stderr)

	s.addBuiltinFlags(app, configsOnly)

	for _, name := range s.canonical {
		set := s.byName[name]
		value := s.cliValue(set, configsOnly)

		clause := app.Flag(name, set.Help())
		if mv := set.Metavar(); mv != "" {
			clause.PlaceHolder(mv)
		}
		if set.Hidden() && !allOptions {
			clause.Hidden()
		}
		clause.SetValue(value)

		haveShort := false
		if len(name) == 1 {
			clause.Short(rune(name[0]))
			haveShort = true
		}
		for _, alias := range set.Names()[1:] {
			if len(alias) == 1 && !haveShort {
				clause.Short(rune(alias[0]))
				haveShort = true
				continue
			}
			app.Flag(alias, set.Help()).Hidden().SetValue(value)
		}

		if _, ok := set.(*BooleanSetting); ok {
			s.addNegationFlags(app, set, configsOnly)
		}
	}
	return app
}

// addNegationFlags registers --no-NAME for a boolean setting and its
// long aliases, skipping any name that is itself a declared setting.
func (s *Settings) addNegationFlags(app *kingpin.Application, set Setting, configsOnly bool) {
	boolean := set.(*BooleanSetting)
	first := true
	for _, name := range set.Names() {
		if len(name) == 1 {
			continue
		}
		neg := "no-" + name
		if _, taken := s.byName[neg]; taken {
			continue
		}
		var value kingpin.Value = negBoolValue{boolean}
		if configsOnly {
			value = boolSinkValue{sinkValue{set}}
		}
		clause := app.Flag(neg, "opposite of --"+set.Name())
		if !first || set.Hidden() {
			clause.Hidden()
		}
		clause.SetValue(value)
		first = false
	}
}

func (s *Settings) addBuiltinFlags(app *kingpin.Application, configsOnly bool) {
	app.Flag("config", "add FILE to config files").
		PlaceHolder("FILE").
		SetValue(configFileValue{s})
	app.Flag("no-default-configs", "clear list of configuration files to read").
		SetValue(resetConfigsValue{s})

	// The remaining built-ins print and exit. They run as post-parse
	// actions so that --dump-config and friends reflect the state after
	// every other option on the line has been applied. In the
	// configs-only pass they are accepted but do nothing.
	s.deferredFlag(app, configsOnly, "dump-config",
		"write out the entire current configuration",
		func() error { return s.DumpConfig(s.stdout) })
	s.deferredFlag(app, configsOnly, "dump-setting-names",
		"write out all names of settings and quit",
		func() error {
			for _, name := range s.canonical {
				fmt.Fprintln(s.stdout, name)
			}
			return nil
		})
	s.deferredFlag(app, configsOnly, "list-config-files",
		"list all possible config files",
		func() error {
			for _, path := range s.ConfigFiles() {
				fmt.Fprintln(s.stdout, path)
			}
			return nil
		})
	s.deferredFlag(app, configsOnly, "help-all",
		"show help, including hidden options",
		func() error {
			s.buildParser(configsOnly, true).Usage([]string{})
			return nil
		})
}

func (s *Settings) deferredFlag(app *kingpin.Application, configsOnly bool, name, help string, run func() error) {
	clause := app.Flag(name, help)
	clause.SetValue(boolSinkValue{sinkValue{nil}})
	if configsOnly {
		return
	}
	clause.Action(func(*kingpin.ParseContext) error {
		if err := run(); err != nil {
			return err
		}
		s.terminate(0)
		return nil
	})
}

// cliValue adapts a setting to the flag parser. In the configs-only
// pass the adapter swallows values so nothing is applied yet.
func (s *Settings) cliValue(set Setting, configsOnly bool) kingpin.Value {
	if configsOnly {
		if _, ok := set.(*BooleanSetting); ok {
			return boolSinkValue{sinkValue{set}}
		}
		return sinkValue{set}
	}
	switch v := set.(type) {
	case *BooleanSetting:
		return cliBoolValue{v}
	case *StringListSetting:
		return cliListValue{v}
	default:
		return cliSettingValue{set}
	}
}

// cliSettingValue routes a scalar option through the setting's normal
// raw string decoding.
type cliSettingValue struct{ set Setting }

func (v cliSettingValue) Set(raw string) error { return v.set.ParseValue(raw) }
func (v cliSettingValue) String() string       { return v.set.Format() }

// cliBoolValue marks a boolean setting as a no-argument flag; the
// parser hands it "true", or "false" for the --no- form.
type cliBoolValue struct{ set *BooleanSetting }

func (v cliBoolValue) Set(raw string) error { return v.set.ParseValue(raw) }
func (v cliBoolValue) String() string       { return v.set.Format() }
func (cliBoolValue) IsBoolFlag() bool       { return true }

// negBoolValue backs an explicit --no-NAME flag; using it always sets
// the setting false.
type negBoolValue struct{ set *BooleanSetting }

func (v negBoolValue) Set(string) error { v.set.value = false; return nil }
func (v negBoolValue) String() string   { return v.set.Format() }
func (negBoolValue) IsBoolFlag() bool   { return true }

// cliListValue accumulates repeated option values. The first occurrence
// in a parse replaces the pre-parse value, further ones append.
type cliListValue struct{ set *StringListSetting }

func (v cliListValue) Set(raw string) error {
	if v.set.replaceNext {
		v.set.values = []string{raw}
		v.set.replaceNext = false
	} else {
		v.set.values = append(v.set.values, raw)
	}
	return nil
}
func (v cliListValue) String() string   { return v.set.Format() }
func (cliListValue) IsCumulative() bool { return true }

// sinkValue accepts and discards values during the configs-only pass.
type sinkValue struct{ set Setting }

func (sinkValue) Set(string) error { return nil }
func (v sinkValue) String() string {
	if v.set == nil {
		return ""
	}
	return v.set.Format()
}
func (sinkValue) IsCumulative() bool { return true }

type boolSinkValue struct{ sinkValue }

func (boolSinkValue) IsBoolFlag() bool { return true }

// configFileValue implements --config; it is live in both parse passes.
type configFileValue struct{ s *Settings }

func (v configFileValue) Set(path string) error {
	v.s.addRequiredConfig(path)
	return nil
}
func (configFileValue) String() string     { return "" }
func (configFileValue) IsCumulative() bool { return true }

// resetConfigsValue implements --no-default-configs; it is live in both
// parse passes.
type resetConfigsValue struct{ s *Settings }

func (v resetConfigsValue) Set(string) error {
	v.s.SetConfigFiles(nil)
	v.s.requiredConfigs = nil
	return nil
}
func (resetConfigsValue) String() string   { return "" }
func (resetConfigsValue) IsBoolFlag() bool { return true }
