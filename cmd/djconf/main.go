package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/vivaneiona/djconf"
	"github.com/vivaneiona/djconf/internal/logging"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "djconf: %v\n", err)
		os.Exit(1)
	}
}

type globals struct {
	prefix   string
	envFiles []string
	caps     []string
	logLevel string
}

func (g *globals) options(logger *zap.Logger, extraDotenv ...string) []djconf.Option {
	return []djconf.Option{
		djconf.WithPrefix(g.prefix),
		djconf.WithDotenv(append(extraDotenv, g.envFiles...)...),
		djconf.WithCapabilities(g.caps...),
		djconf.WithLogger(logger),
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	app := kingpin.New("djconf", "Resolve and inspect dj_core settings")
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)

	g := &globals{}
	app.Flag("prefix", "Environment variable prefix").Default(djconf.DefaultPrefix).StringVar(&g.prefix)
	app.Flag("env-file", "Dotenv file layered under the environment (repeatable, earlier wins)").StringsVar(&g.envFiles)
	app.Flag("capability", "Optional module the host provides (repeatable)").StringsVar(&g.caps)
	app.Flag("log-level", "Log level: debug|info|warn|error").Default("warn").StringVar(&g.logLevel)

	printCmd := app.Command("print", "Print the resolved settings with secrets masked")
	format := printCmd.Flag("format", "Output format").Default("json").Enum("json", "yaml")

	describeCmd := app.Command("describe", "List the default value table")

	diffCmd := app.Command("diff", "Show settings that change when a dotenv file is applied")
	against := diffCmd.Flag("against", "Dotenv file to compare with").Required().ExistingFile()

	cmd, err := app.Parse(args)
	if err != nil {
		return err
	}

	logger, err := logging.New(g.logLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	switch cmd {
	case printCmd.FullCommand():
		return printSettings(stdout, g, logger, *format)
	case describeCmd.FullCommand():
		return describe(stdout, g, logger)
	case diffCmd.FullCommand():
		return diff(stdout, g, logger, *against)
	}
	return nil
}

func resolve(g *globals, logger *zap.Logger, extraDotenv ...string) (*djconf.Namespace, error) {
	r, err := djconf.New(g.options(logger, extraDotenv...)...)
	if err != nil {
		return nil, err
	}
	return r.Resolve()
}

func printSettings(w io.Writer, g *globals, logger *zap.Logger, format string) error {
	ns, err := resolve(g, logger)
	if err != nil {
		return err
	}
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(ns.Masked()); err != nil {
			return err
		}
		return enc.Close()
	}
	_, err = fmt.Fprintln(w, djconf.PrettyString(ns))
	return err
}

func describe(w io.Writer, g *globals, logger *zap.Logger) error {
	r, err := djconf.New(g.options(logger)...)
	if err != nil {
		return err
	}
	b, err := r.Bootstrap()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ENV VAR\tKIND\tLAYER\tDEFAULT")
	for _, s := range djconf.Describe(b.Profile, r.Env().Prefix(""), b.Debug, djconf.NewCapabilities(g.caps...)) {
		def := s.Default
		if s.Computed && def == "" {
			def = "<computed>"
		}
		if s.Required {
			def = "<required>"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.EnvVar, s.Kind, s.Layer, def)
	}
	return tw.Flush()
}

func diff(w io.Writer, g *globals, logger *zap.Logger, against string) error {
	base, err := resolve(g, logger)
	if err != nil {
		return err
	}
	other, err := resolve(g, logger, against)
	if err != nil {
		return err
	}
	for _, c := range djconf.Diff(base.Masked(), other.Masked()) {
		switch c.Type {
		case djconf.Added:
			fmt.Fprintf(w, "+ %s: %s\n", c.Key, djconf.Render(c.New))
		case djconf.Changed:
			fmt.Fprintf(w, "~ %s: %s -> %s\n", c.Key, djconf.Render(c.Old), djconf.Render(c.New))
		case djconf.Removed:
			fmt.Fprintf(w, "- %s: %s\n", c.Key, djconf.Render(c.Old))
		}
	}
	return nil
}
