package cmd

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/AdguardTeam/dnsreport/internal/version"
	"github.com/AdguardTeam/golibs/osutil"
)

// options contains all command-line options for the dnsreport binary.
type options struct {
	// confFile is the path to the configuration file.
	confFile string

	// checkConfig, if true, instructs dnsreport to check the configuration
	// file, optionally print an error message to stdout, and exit with a
	// corresponding exit code.
	checkConfig bool

	// help, if true, instructs dnsreport to print the command-line option help
	// message and quit with a successful exit-code.
	help bool

	// verbose, if true, instructs dnsreport to enable verbose logging
	// regardless of the configuration file.
	verbose bool

	// version, if true, instructs dnsreport to print the version to stdout and
	// quit with a successful exit-code.  If verbose is also true, print a more
	// detailed version description.
	version bool
}

// defaultConfFile is the default path to the configuration file.
const defaultConfFile = "dnsreport.yaml"

// option describes a single command-line option.  field is a pointer to the
// corresponding field of [options], either a *string or a *bool.
type option struct {
	field       any
	description string
	long        string
	short       string

	// hint is the value placeholder shown in the usage message.  It is empty
	// for boolean options.
	hint string
}

// optionTable returns the descriptions of all command-line options of the
// dnsreport binary bound to the fields of opts, sorted by their long names.
func optionTable(opts *options) (table []*option) {
	return []*option{{
		field:       &opts.checkConfig,
		description: "Check configuration, print errors to stdout, and quit.",
		long:        "check-config",
	}, {
		field:       &opts.confFile,
		description: "Path to the config file.",
		long:        "config",
		short:       "c",
		hint:        "path",
	}, {
		field:       &opts.help,
		description: "Print this help message and quit.",
		long:        "help",
		short:       "h",
	}, {
		field:       &opts.verbose,
		description: "Enable verbose logging.",
		long:        "verbose",
		short:       "v",
	}, {
		field: &opts.version,
		description: "Print the version to stdout and quit.  " +
			"Print a more detailed version description with -v.",
		long: "version",
	}}
}

// parseOptions parses the command-line options for dnsreport.
func parseOptions(cmdName string, args []string, output io.Writer) (opts *options, err error) {
	flags := flag.NewFlagSet(cmdName, flag.ContinueOnError)
	flags.SetOutput(output)

	opts = &options{
		confFile: defaultConfFile,
	}

	for _, o := range optionTable(opts) {
		o.register(flags)
	}

	flags.Usage = func() { usage(cmdName, output) }

	err = flags.Parse(args)
	if err != nil {
		// Don't wrap the error, because it's informative enough as is.
		return nil, err
	}

	if flags.NArg() > 0 {
		usage(cmdName, output)

		return nil, fmt.Errorf("unexpected arguments: %q", flags.Args())
	}

	return opts, nil
}

// register adds o to flags under its long and, if any, short names.  The
// current value of the field is used as the default.
func (o *option) register(flags *flag.FlagSet) {
	names := []string{o.long}
	if o.short != "" {
		names = append(names, o.short)
	}

	for _, name := range names {
		switch f := o.field.(type) {
		case *string:
			flags.StringVar(f, name, *f, o.description)
		case *bool:
			flags.BoolVar(f, name, *f, o.description)
		default:
			panic(fmt.Errorf("option %q: unexpected field type %T", o.long, f))
		}
	}
}

// usage prints a usage message similar to the one printed by package flag but
// showing long and short forms together along with the value hints.
func usage(cmdName string, output io.Writer) {
	b := &strings.Builder{}
	_, _ = fmt.Fprintf(b, "Usage of %s:\n", cmdName)

	for _, o := range optionTable(&options{confFile: defaultConfFile}) {
		b.WriteString("  " + o.forms() + "\n")

		// Use four spaces before the tab to trigger good alignment for both 4-
		// and 8-space tab stops.
		if def, ok := o.field.(*string); ok && *def != "" {
			_, _ = fmt.Fprintf(b, "    \t%s  (Default value: %q)\n", o.description, *def)
		} else {
			_, _ = fmt.Fprintf(b, "    \t%s\n", o.description)
		}
	}

	_, _ = io.WriteString(output, b.String())
}

// forms returns the long and short forms of o as shown in the usage message,
// for example "--config=path/-c path".
func (o *option) forms() (s string) {
	s = "--" + o.long
	if o.hint != "" {
		s += "=" + o.hint
	}

	if o.short == "" {
		return s
	}

	s += "/-" + o.short
	if o.hint != "" {
		s += " " + o.hint
	}

	return s
}

// processOptions decides if dnsreport should exit depending on the results of
// command-line option parsing.  Messages are written to output.
func processOptions(
	opts *options,
	cmdName string,
	parseErr error,
	output io.Writer,
) (exitCode int, needExit bool) {
	if parseErr != nil {
		// Assume that usage has already been printed.
		return osutil.ExitCodeArgumentError, true
	}

	if opts.help {
		usage(cmdName, output)

		return osutil.ExitCodeSuccess, true
	}

	if opts.version {
		if opts.verbose {
			_, _ = io.WriteString(output, version.Verbose())
		} else {
			_, _ = io.WriteString(output, version.Full()+"\n")
		}

		return osutil.ExitCodeSuccess, true
	}

	if opts.checkConfig {
		_, err := readConfig(opts.confFile)
		if err != nil {
			_, _ = io.WriteString(output, err.Error()+"\n")

			return osutil.ExitCodeFailure, true
		}

		return osutil.ExitCodeSuccess, true
	}

	return 0, false
}
