package mockreggen_test

import (
	"bytes"
	"context"
	"flag"
	"log"
	"testing"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Versent/go-mockreg/internal/cmd/mockreggen"
	"github.com/Versent/go-mockreg/internal/gen"
)

func TestSetFlags(t *testing.T) {
	f := flag.NewFlagSet("mockreggen", flag.ContinueOnError)
	mockreggen.NewGenCmd(nil, f)
	expected := []string{"header", "prefix", "tags"}
	f.VisitAll(func(f *flag.Flag) {
		if len(expected) == 0 {
			t.Errorf("unexpected flag %q", f.Name)
			return
		}

		var got, want string
		got, want, expected = f.Name, expected[0], expected[1:]
		if got != want {
			t.Errorf("unexpected name, got %q, want %q", got, want)
		}
	})
	assert.Empty(t, expected)
}

func TestExecute_missingHeader(t *testing.T) {
	var buf bytes.Buffer
	l := log.New(&buf, "", 0)
	f := flag.NewFlagSet("mockreggen", flag.ContinueOnError)
	cmd := mockreggen.NewGenCmd(l, f)
	require.NoError(t, f.Parse([]string{"-header", "does-not-exist.txt"}))

	status := cmd.Execute(context.Background(), f, gen.WithDir(t.TempDir()))
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, buf.String(), "failed to read header file")
}

func TestUsage(t *testing.T) {
	cmd := &mockreggen.GenCmd{}
	assert.Equal(t, "gen", cmd.Name())
	assert.Contains(t, cmd.Usage(), "mockstub")
	assert.NotEmpty(t, cmd.Synopsis())
}
