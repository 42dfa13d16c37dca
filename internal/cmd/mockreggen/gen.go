// Package mockreggen implements the gen subcommand of the mockreggen tool.
package mockreggen

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/google/subcommands"

	"github.com/Versent/go-mockreg/internal/gen"
)

// GenCmd writes a mock_gen.go file for every package holding mockstub files.
type GenCmd struct {
	log *log.Logger

	header string // -header
	prefix string // -prefix
	tags   string // -tags
}

// NewGenCmd returns a GenCmd logging to l with its flags registered on f.
// A nil l logs to the standard logger.
func NewGenCmd(l *log.Logger, f *flag.FlagSet) *GenCmd {
	if l == nil {
		l = log.Default()
	}
	cmd := &GenCmd{log: l}
	cmd.SetFlags(f)
	return cmd
}

func (*GenCmd) Name() string { return "gen" }

func (*GenCmd) Synopsis() string {
	return "generate the mock_gen.go file for each package"
}

func (*GenCmd) Usage() string {
	return `gen [-header file] [-prefix name] [-tags buildtags] [package ...]

  Given one or more packages, gen creates mock_gen.go files for each. Every
  struct declared in a file with the mockstub build tag becomes a mock: each
  embedded interface is replaced by a registry and its methods forward to it.

  If no package is listed, it defaults to ".".

`
}

func (cmd *GenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.header, "header", "", "path to file to insert as a header in mock_gen.go")
	f.StringVar(&cmd.prefix, "prefix", "", "string to prepend to the mock_gen.go file name")
	f.StringVar(&cmd.tags, "tags", "", "append build tags to the default mockstub")
}

// Execute generates the mocks for the packages named by f, "." by default.
// Any gen.Option in args overrides the defaults taken from the environment
// and the flags, except the header, which is read relative to the final
// directory.
func (cmd *GenCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if cmd.log == nil {
		cmd.log = log.Default()
	}
	opts, err := cmd.options(args)
	if err != nil {
		cmd.log.Println(err)
		return subcommands.ExitFailure
	}

	patterns := f.Args()
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	results, errs := gen.Generate(ctx, patterns, opts)
	if len(errs) > 0 {
		cmd.fail("", errs)
		return subcommands.ExitFailure
	}
	if failed := cmd.write(results); failed > 0 {
		cmd.log.Printf("%d of %d packages failed", failed, len(results))
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (cmd *GenCmd) options(args []any) (opts gen.GenerateOptions, err error) {
	err = gen.WithArgs(
		gen.WithEnv(os.Environ()),
		gen.WithPrefixFileName(cmd.prefix),
		gen.WithTags(cmd.tags),
		gen.WithArgs(args...),
		gen.WithWDFallback(),
		gen.WithHeaderFile(cmd.header),
	)(&opts)
	return opts, err
}

// write commits every generated file and returns the number of packages
// that failed to generate or to be written.
func (cmd *GenCmd) write(results []gen.GenerateResult) (failed int) {
	for _, res := range results {
		if len(res.Errs) > 0 {
			cmd.fail(res.PkgPath, res.Errs)
			failed++
			continue
		}
		if len(res.Content) == 0 {
			continue
		}
		if err := res.Commit(); err != nil {
			cmd.log.Printf("%s: failed to write %s: %v", res.PkgPath, res.OutputPath, err)
			failed++
			continue
		}
		cmd.log.Printf("%s: wrote %s", res.PkgPath, res.OutputPath)
	}
	return failed
}

// fail logs errs followed by a summary line for pkg, or for the whole run
// when pkg is empty.
func (cmd *GenCmd) fail(pkg string, errs []error) {
	logErrors(cmd.log, errs...)
	if pkg == "" {
		cmd.log.Println("generate failed")
		return
	}
	cmd.log.Printf("%s: generate failed", pkg)
}
