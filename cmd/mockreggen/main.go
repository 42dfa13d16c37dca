// Command mockreggen writes mocks backed by a mockreg.Registry for the stub
// structs of a package. Run it with go generate or directly:
//
//	mockreggen [gen] [-header file] [-prefix name] [-tags buildtags] [package ...]
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/google/subcommands"

	"github.com/Versent/go-mockreg/internal/cmd/mockreggen"
)

func main() {
	os.Exit(run(context.Background(), filepath.Base(os.Args[0]), os.Args[1:], os.Stderr))
}

// run executes the command line args and returns the exit status. Without a
// known subcommand the gen subcommand is run. Extra values are passed on to
// the subcommand.
func run(ctx context.Context, name string, args []string, stderr io.Writer, extra ...any) int {
	l := log.New(stderr, name+": ", 0)

	top := flag.NewFlagSet(name, flag.ContinueOnError)
	top.SetOutput(stderr)
	cdr := subcommands.NewCommander(top, name)
	cdr.Output = stderr
	cdr.Error = stderr
	cdr.Register(cdr.CommandsCommand(), "")
	cdr.Register(cdr.FlagsCommand(), "")
	cdr.Register(cdr.HelpCommand(), "")
	cdr.Register(mockreggen.NewGenCmd(l, flag.NewFlagSet("gen", flag.ContinueOnError)), "")

	allCmds := map[string]bool{}
	cdr.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) { allCmds[cmd.Name()] = true })
	// Default to running the "gen" command.
	if len(args) == 0 || !allCmds[args[0]] {
		f := flag.NewFlagSet("gen", flag.ContinueOnError)
		f.SetOutput(stderr)
		genCmd := mockreggen.NewGenCmd(l, f)
		f.Usage = func() {
			cdr.ExplainCommand(stderr, genCmd)
		}
		if f.Parse(args) != nil {
			return int(subcommands.ExitUsageError)
		}
		return int(genCmd.Execute(ctx, f, extra...))
	}
	if top.Parse(args) != nil {
		return int(subcommands.ExitUsageError)
	}
	return int(cdr.Execute(ctx, extra...))
}
