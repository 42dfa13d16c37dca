package gen

import (
	"fmt"
	"os"
	"path/filepath"
)

// GenerateOptions holds options for Generate.
type GenerateOptions struct {
	// Header will be inserted at the start of each generated file.
	Header []byte

	// PrefixOutputFile is the prefix of the file name to write the generated
	// output to. The suffix will be "mock_gen.go".
	PrefixOutputFile string

	// Tags is a comma separated list of build tags used in addition to the
	// mockstub tag when loading packages. They are also recorded in the
	// go:generate directive of the generated file.
	Tags string

	// Dir is the directory in which the build system's query tool is run.
	// If Dir is empty, the tool is run in the current directory.
	Dir string

	// Env is the environment of the build system's query tool. If Env is
	// nil, the current environment is used. As in os/exec's Cmd, only the
	// last value in the slice for each environment key is used.
	Env []string
}

// Option sets a field of GenerateOptions.
type Option func(*GenerateOptions) error

// WithArgs applies every Option found in args, in order. Values of other
// types are ignored so that subcommand arguments can be passed through.
func WithArgs(args ...any) Option {
	return func(opts *GenerateOptions) error {
		for _, arg := range args {
			opt, ok := arg.(Option)
			if !ok || opt == nil {
				continue
			}
			if err := opt(opts); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithEnv sets the environment of the build system's query tool.
func WithEnv(env []string) Option {
	return func(opts *GenerateOptions) error {
		opts.Env = env
		return nil
	}
}

// WithDir sets the directory packages are loaded from.
func WithDir(dir string) Option {
	return func(opts *GenerateOptions) error {
		opts.Dir = dir
		return nil
	}
}

// WithWDFallback sets the directory to the working directory unless one was
// already set.
func WithWDFallback() Option {
	return func(opts *GenerateOptions) (err error) {
		if opts.Dir != "" {
			return nil
		}
		opts.Dir, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		return nil
	}
}

// WithHeaderFile reads the header inserted at the top of generated files.
// A relative path is resolved against the directory set so far. An empty
// path leaves the header unchanged.
func WithHeaderFile(path string) Option {
	return func(opts *GenerateOptions) (err error) {
		if path == "" {
			return nil
		}
		if !filepath.IsAbs(path) && opts.Dir != "" {
			path = filepath.Join(opts.Dir, path)
		}
		opts.Header, err = os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read header file %q: %w", path, err)
		}
		return nil
	}
}

// WithPrefixFileName sets the prefix of generated file names.
func WithPrefixFileName(prefix string) Option {
	return func(opts *GenerateOptions) error {
		opts.PrefixOutputFile = prefix
		return nil
	}
}

// WithTags sets extra build tags.
func WithTags(tags string) Option {
	return func(opts *GenerateOptions) error {
		opts.Tags = tags
		return nil
	}
}
