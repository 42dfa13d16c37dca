package gen_test

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rsc.io/script"
	"rsc.io/script/scripttest"

	"github.com/Versent/go-mockreg/internal/cmd/mockreggen"
	"github.com/Versent/go-mockreg/internal/gen"
)

func TestGenerate(t *testing.T) {
	engine := script.NewEngine()
	engine.Cmds["mockreggen"] = &genCmd{}
	mutdir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	mutdir = filepath.Join(mutdir, "..", "..")
	scripttest.Test(
		t,
		context.Background(),
		engine,
		[]string{
			"MUT=" + mutdir,
			"HOME=" + os.Getenv("HOME"),
			"PATH=" + os.Getenv("PATH"),
		},
		"testdata/*.txt",
	)
}

// genCmd runs the gen subcommand in process, in the script's directory.
type genCmd struct{}

func (m *genCmd) Run(s *script.State, args ...string) (script.WaitFunc, error) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	f := flag.NewFlagSet("gen", flag.ContinueOnError)
	f.SetOutput(stderr)
	l := log.New(stderr, "mockreggen: ", 0)
	genCmd := mockreggen.NewGenCmd(l, f)
	if err := f.Parse(args); err != nil {
		return nil, err
	}
	status := genCmd.Execute(s.Context(), f, gen.WithDir(s.Getwd()))
	return func(s *script.State) (_, _ string, err error) {
		if status != 0 {
			err = fmt.Errorf("exit status %d", status)
		}
		return stdout.String(), stderr.String(), err
	}, nil
}

func (m *genCmd) Usage() *script.CmdUsage {
	genCmd := &mockreggen.GenCmd{}
	usage := strings.Split(genCmd.Usage(), "\n")
	args, detail := usage[0], usage[1:]
	for len(detail) > 0 && detail[0] == "" {
		detail = detail[1:]
	}
	return &script.CmdUsage{
		Summary: genCmd.Synopsis(),
		Args:    args,
		Detail:  detail,
	}
}
