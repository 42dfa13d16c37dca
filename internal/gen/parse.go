package gen

import (
	"context"
	"fmt"

	"golang.org/x/tools/go/packages"
)

const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedImports |
	packages.NeedTypes |
	packages.NeedSyntax |
	packages.NeedTypesInfo |
	packages.NeedDeps

// load typechecks the packages matching patterns with the mockstub build tag
// and any extra tags in opts. Patterns are passed to the go tool as is, see
// https://golang.org/cmd/go/#hdr-Package_lists_and_patterns
//
// Every package error is returned; on error no packages are returned.
func load(ctx context.Context, opts GenerateOptions, patterns []string) ([]*packages.Package, []error) {
	tags := "-tags=" + stubTag
	if opts.Tags != "" {
		tags += "," + opts.Tags
	}
	cfg := &packages.Config{
		Context:    ctx,
		Mode:       loadMode,
		Dir:        opts.Dir,
		Env:        opts.Env,
		BuildFlags: []string{tags},
	}
	escaped := make([]string, len(patterns))
	for i, p := range patterns {
		escaped[i] = "pattern=" + p
	}
	pkgs, err := packages.Load(cfg, escaped...)
	if err != nil {
		return nil, []error{fmt.Errorf("loading packages: %w", err)}
	}
	var errs []error
	packages.Visit(pkgs, nil, func(p *packages.Package) {
		for _, e := range p.Errors {
			errs = append(errs, e)
		}
	})
	if len(errs) > 0 {
		return nil, errs
	}
	return pkgs, nil
}
