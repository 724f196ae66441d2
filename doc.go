// Package cliframe is a scaffolding framework for Unix-like command
// line programs: non-interactive filters that read input files named on
// the command line (or standard input), process them line by line, and
// write to standard output.
//
// The framework supplies the boilerplate every such program repeats:
// option parsing, configuration file loading, logging setup, output
// redirection, input iteration, and subcommand dispatch. Programs
// declare their settings and provide per-line or per-argument handlers;
// everything else comes from the Application driver.
//
// Settings unify command line options and config file keys under one
// model. A setting declared as
//
//	app.Settings.AddBoolean([]string{"verbose", "v"}, "show what is going on", false)
//
// is available as --verbose and -v on the command line, as "verbose"
// under the [config] section of an INI config file or the config key of
// a YAML one, and as app.Settings.Bool("verbose") in code. Values merge
// with command line > config file > programmatic default precedence,
// implemented by parsing the command line twice: once to discover
// --config and --no-default-configs before the files are read, and once
// afterwards to apply overrides.
package cliframe
