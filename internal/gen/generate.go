package gen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/build/constraint"
	"go/format"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/tools/go/packages"
)

const (
	stubTag       = "mockstub"
	runtimePath   = "github.com/Versent/go-mockreg"
	runtimeName   = "mockreg"
	registryField = "registry"
)

// GenerateResult stores the result for a package from a call to Generate.
type GenerateResult struct {
	// PkgPath is the package's PkgPath.
	PkgPath string
	// OutputPath is the path where the generated output should be written.
	// May be empty if there were errors.
	OutputPath string
	// Content is the gofmt'd source code that was generated. May be nil if
	// there were errors during generation.
	Content []byte
	// Errs is a slice of errors identified during generation.
	Errs []error
}

// Commit writes the generated file to disk.
func (gen GenerateResult) Commit() error {
	if len(gen.Content) == 0 {
		return nil
	}
	return os.WriteFile(gen.OutputPath, gen.Content, 0666)
}

// Generate generates a code file for each package matching the given patterns.
// The code file contains a mock for each struct type declared in a file of the
// package guarded by the mockstub build tag. Each interface embedded in such a
// struct is replaced by a registry, and for every method of the interface the
// mock gets a method forwarding to mockreg.Call, an Expect<Method> helper and,
// where needed, struct types packing the arguments and results.
// The generated files are named mock_gen.go, with an optional prefix, and are
// excluded from builds using the mockstub tag.
func Generate(ctx context.Context, patterns []string, opts GenerateOptions) ([]GenerateResult, []error) {
	pkgs, errs := load(ctx, opts, patterns)
	if len(errs) > 0 {
		return nil, errs
	}
	generated := make([]GenerateResult, len(pkgs))
	for i, pkg := range pkgs {
		generated[i].PkgPath = pkg.PkgPath
		outDir, err := detectOutputDir(pkg.GoFiles)
		if err != nil {
			generated[i].Errs = append(generated[i].Errs, err)
			continue
		}
		outputFile := opts.PrefixOutputFile + "mock_gen"
		if strings.HasSuffix(pkg.Name, "_test") {
			outputFile += "_test"
		}
		outputFile += ".go"
		generated[i].OutputPath = filepath.Join(outDir, outputFile)
		g := newGen(pkg)
		if errs := generateMocks(g, pkg); len(errs) > 0 {
			generated[i].Errs = errs
			continue
		}
		goSrc := g.frame(opts.Tags)
		if len(goSrc) == 0 {
			continue
		}
		if len(opts.Header) > 0 {
			goSrc = append(append([]byte{}, opts.Header...), goSrc...)
		}
		fmtSrc, err := format.Source(goSrc)
		if err != nil {
			// This is likely a bug from a poorly generated source file.
			// Add an error but also the unformatted source.
			generated[i].Errs = append(generated[i].Errs, err)
		} else {
			goSrc = fmtSrc
		}
		generated[i].Content = goSrc
	}

	return generated, nil
}

func detectOutputDir(paths []string) (string, error) {
	if len(paths) == 0 {
		return "", errors.New("no files to derive output directory from")
	}
	dir := filepath.Dir(paths[0])
	for _, p := range paths[1:] {
		if dir2 := filepath.Dir(p); dir2 != dir {
			return "", fmt.Errorf("found conflicting directories %q and %q", dir, dir2)
		}
	}
	return dir, nil
}

// isMockStub reports whether the build constraint of the file requires the
// mockstub tag: it mentions the tag and cannot be satisfied without it.
func isMockStub(syntax *ast.File) bool {
	for _, group := range syntax.Comments {
		if group.Pos() > syntax.Package {
			break
		}
		for _, comment := range group.List {
			if !constraint.IsGoBuild(comment.Text) && !constraint.IsPlusBuild(comment.Text) {
				continue
			}
			expr, err := constraint.Parse(comment.Text)
			if err != nil {
				continue
			}
			if mentionsTag(expr, stubTag) && !expr.Eval(func(tag string) bool { return tag != stubTag }) {
				return true
			}
		}
	}
	return false
}

func mentionsTag(expr constraint.Expr, tag string) bool {
	switch e := expr.(type) {
	case *constraint.TagExpr:
		return e.Tag == tag
	case *constraint.NotExpr:
		return mentionsTag(e.X, tag)
	case *constraint.AndExpr:
		return mentionsTag(e.X, tag) || mentionsTag(e.Y, tag)
	case *constraint.OrExpr:
		return mentionsTag(e.X, tag) || mentionsTag(e.Y, tag)
	}
	return false
}

func generateMocks(g *gen, pkg *packages.Package) (errs []error) {
	for _, syntax := range pkg.Syntax {
		if !isMockStub(syntax) {
			continue
		}

		for _, decl := range syntax.Decls {
			genDecl, ok := decl.(*ast.GenDecl)
			if !ok || genDecl.Tok != token.TYPE {
				if err := g.addDecl(nil, decl); err != nil {
					errs = append(errs, err)
				}
				continue
			}

			for _, spec := range genDecl.Specs {
				typeSpec, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}

				obj := pkg.TypesInfo.ObjectOf(typeSpec.Name)
				astStruct, isAST := typeSpec.Type.(*ast.StructType)
				if _, ok := obj.Type().Underlying().(*types.Struct); !ok || !isAST || typeSpec.Assign.IsValid() {
					decl := &ast.GenDecl{
						Tok:   token.TYPE,
						Specs: []ast.Spec{clone(typeSpec)},
					}
					if err := g.addDecl(nil, decl); err != nil {
						errs = append(errs, err)
					}
					continue
				}

				errs = append(errs, generateMock(g, typeSpec, astStruct)...)
			}
		}
	}

	return errs
}

// typeParams is the type parameter list of a generic stub, both as declared
// ("[K comparable, V any]") and as used to instantiate it ("[K, V]"). Both
// are empty for other stubs.
type typeParams struct {
	decl, use string
}

func (g *gen) typeParamsOf(obj types.Object) typeParams {
	named, ok := obj.Type().(*types.Named)
	if !ok || named.TypeParams().Len() == 0 {
		return typeParams{}
	}
	list := named.TypeParams()
	decl := make([]string, list.Len())
	use := make([]string, list.Len())
	for i := range list.Len() {
		tp := list.At(i)
		use[i] = tp.Obj().Name()
		decl[i] = use[i] + " " + g.typeString(tp.Constraint())
	}
	return typeParams{
		decl: "[" + strings.Join(decl, ", ") + "]",
		use:  "[" + strings.Join(use, ", ") + "]",
	}
}

// generateMock writes the mock struct for typeSpec, its constructor and the
// methods of every embedded interface. Generic stubs keep their type
// parameters, which are also given to the packing structs.
func generateMock(g *gen, typeSpec *ast.TypeSpec, astStruct *ast.StructType) (errs []error) {
	structName := typeSpec.Name.Name
	tp := g.typeParamsOf(g.pkg.TypesInfo.ObjectOf(typeSpec.Name))
	mockFields := &ast.FieldList{
		List: []*ast.Field{{
			Names: []*ast.Ident{{Name: registryField}},
			Type: &ast.StarExpr{
				X: &ast.SelectorExpr{
					X:   ast.NewIdent(g.runtime()),
					Sel: ast.NewIdent("Registry"),
				},
			},
		}},
	}
	var (
		methods []*types.Func
		seen    = make(map[string]*types.Func)
	)
	for _, field := range astStruct.Fields.List {
		iface, ok := g.pkg.TypesInfo.TypeOf(field.Type).Underlying().(*types.Interface)
		if len(field.Names) > 0 || !ok {
			mockFields.List = append(mockFields.List, clone(field))
			continue
		}
		// Type parameters are out of scope at package level, so generic
		// mocks get no assertion.
		if tp.use == "" {
			if err := g.addInterfaceAssertion(*clone(&field.Type), ast.NewIdent(structName)); err != nil {
				errs = append(errs, err)
			}
		}
		for i := 0; i < iface.NumMethods(); i++ {
			method := iface.Method(i)
			if prev, ok := seen[method.Name()]; ok {
				if !types.Identical(prev.Type(), method.Type()) {
					errs = append(errs, fmt.Errorf("%s: conflicting signatures for method %s", structName, method.Name()))
				}
				continue
			}
			seen[method.Name()] = method
			methods = append(methods, method)
		}
	}

	mockDecl := &ast.GenDecl{
		Tok: token.TYPE,
		Specs: []ast.Spec{
			&ast.TypeSpec{
				Doc:        clone(typeSpec.Doc),
				Comment:    clone(typeSpec.Comment),
				Name:       clone(typeSpec.Name),
				TypeParams: clone(typeSpec.TypeParams),
				Type:       &ast.StructType{Fields: mockFields},
			},
		},
	}
	if err := g.addDecl(typeSpec.Name, mockDecl); err != nil {
		errs = append(errs, err)
	}
	g.writeConstructor(structName, tp)
	for _, method := range methods {
		g.writeMethod(structName, tp, method)
	}
	return errs
}

// writeConstructor writes new<StructName>, which attaches a fresh registry.
func (g *gen) writeConstructor(structName string, tp typeParams) {
	prefix := "new"
	if token.IsExported(structName) {
		prefix = "New"
	}
	rt := g.runtime()
	mock := structName + tp.use
	fmt.Fprintf(&g.buf, "// %s%s returns a %s with an empty registry reporting to t.\n", prefix, g.title.String(structName), structName)
	fmt.Fprintf(&g.buf, "func %s%s%s(t %s.TestingT, opts ...%s.Option) *%s {\n", prefix, g.title.String(structName), tp.decl, rt, rt, mock)
	fmt.Fprintf(&g.buf, "\treturn &%s{%s: %s.New(t, opts...)}\n}\n\n", mock, registryField, rt)
}

// packed describes how a tuple of parameters or results is carried through
// the registry as a single value.
type packed struct {
	typ    string   // type passed to mockreg
	names  []string // identifiers in the forwarding method
	fields []string // struct fields, nil unless typ is a generated struct
	types  []string
}

// pack returns the packed representation of tuple. Empty tuples use
// mockreg.Unit, single values are passed as is and longer tuples get a
// struct named structName, generic over tp.
func (g *gen) pack(tuple *types.Tuple, prefix, structName string, tp typeParams) packed {
	p := packed{types: make([]string, tuple.Len())}
	for i := 0; i < tuple.Len(); i++ {
		p.types[i] = g.typeString(tuple.At(i).Type())
	}
	switch tuple.Len() {
	case 0:
		p.typ = g.runtime() + ".Unit"
		return p
	case 1:
		p.typ = p.types[0]
		return p
	}
	p.typ = structName + tp.use
	p.fields = make([]string, tuple.Len())
	taken := make(map[string]bool)
	fmt.Fprintf(&g.buf, "type %s%s struct {\n", structName, tp.decl)
	for i := 0; i < tuple.Len(); i++ {
		field := prefix + strconv.Itoa(i)
		if name := tuple.At(i).Name(); name != "" && name != "_" && !taken[g.title.String(name)] {
			field = g.title.String(name)
		}
		taken[field] = true
		p.fields[i] = field
		fmt.Fprintf(&g.buf, "\t%s %s\n", p.fields[i], p.types[i])
	}
	g.buf.WriteString("}\n\n")
	return p
}

// value returns the expression packing p's identifiers.
func (p packed) value(unit string) string {
	switch len(p.names) {
	case 0:
		return unit + "{}"
	case 1:
		return p.names[0]
	}
	elems := make([]string, len(p.names))
	for i := range p.names {
		elems[i] = p.fields[i] + ": " + p.names[i]
	}
	return p.typ + "{" + strings.Join(elems, ", ") + "}"
}

var identRE = regexp.MustCompile(`[\pL_][\pL\pN_]*`)

// reservedNames returns the identifiers a forwarding method body refers to.
// Parameters must not shadow any of them.
func (g *gen) reservedNames(typs ...string) map[string]bool {
	reserved := map[string]bool{"m": true, "r": true, g.runtime(): true}
	for _, imp := range g.imports {
		reserved[imp.name] = true
	}
	for _, typ := range typs {
		for _, ident := range identRE.FindAllString(typ, -1) {
			reserved[ident] = true
		}
	}
	return reserved
}

// paramNames returns the parameter identifiers of a forwarding method.
// Unnamed and blank parameters, and those clashing with reserved, are named
// v<i>, skipping numbers already taken.
func paramNames(tuple *types.Tuple, reserved map[string]bool) []string {
	names := make([]string, tuple.Len())
	used := make(map[string]bool)
	for i := range names {
		if name := tuple.At(i).Name(); name != "" && name != "_" && !reserved[name] {
			names[i] = name
			used[name] = true
		}
	}
	for i := range names {
		for n := i; names[i] == ""; n++ {
			if name := "v" + strconv.Itoa(n); !used[name] && !reserved[name] {
				names[i] = name
				used[name] = true
			}
		}
	}
	return names
}

// writeMethod writes the forwarding method and its Expect helper.
func (g *gen) writeMethod(structName string, tp typeParams, method *types.Func) {
	sig := method.Type().(*types.Signature)
	name := method.Name()
	base := structName + g.title.String(name)
	rt := g.runtime()

	args := g.pack(sig.Params(), "A", base+"Args", tp)
	rets := g.pack(sig.Results(), "R", base+"Returns", tp)
	args.names = paramNames(sig.Params(), g.reservedNames(args.typ, rets.typ))

	params := make([]string, len(args.names))
	for i := range args.names {
		typ := args.types[i]
		if sig.Variadic() && i == len(args.names)-1 {
			typ = "..." + g.typeString(sig.Params().At(i).Type().(*types.Slice).Elem())
		}
		params[i] = args.names[i] + " " + typ
	}
	var results string
	switch len(rets.types) {
	case 0:
	case 1:
		results = " " + rets.types[0]
	default:
		results = " (" + strings.Join(rets.types, ", ") + ")"
	}

	recv := structName + tp.use
	call := fmt.Sprintf("%s.Call[%s, %s](m.%s, %q, %s)", rt, args.typ, rets.typ, registryField, name, args.value(rt+".Unit"))
	fmt.Fprintf(&g.buf, "func (m *%s) %s(%s)%s {\n", recv, name, strings.Join(params, ", "), results)
	switch len(rets.types) {
	case 0:
		fmt.Fprintf(&g.buf, "\t%s\n", call)
	case 1:
		fmt.Fprintf(&g.buf, "\treturn %s\n", call)
	default:
		fmt.Fprintf(&g.buf, "\tr := %s\n", call)
		fields := make([]string, len(rets.fields))
		for i, f := range rets.fields {
			fields[i] = "r." + f
		}
		fmt.Fprintf(&g.buf, "\treturn %s\n", strings.Join(fields, ", "))
	}
	g.buf.WriteString("}\n\n")

	fmt.Fprintf(&g.buf, "// Expect%s registers an expectation for calls to %s.\n", g.title.String(name), name)
	fmt.Fprintf(&g.buf, "func (m *%s) Expect%s() *%s.Expectation[%s, %s] {\n", recv, g.title.String(name), rt, args.typ, rets.typ)
	fmt.Fprintf(&g.buf, "\treturn %s.Expect[%s, %s](m.%s, %q)\n}\n\n", rt, args.typ, rets.typ, registryField, name)
}

// importInfo holds info about an import.
type importInfo struct {
	// name is the identifier that is used in the generated source.
	name string
	// differs is true if the import is given an identifier that does not
	// match the package's identifier.
	differs bool
	// copied is true if the import is copied from the stub file
	copied bool
}

// gen is the file-wide generator state.
type gen struct {
	pkg     *packages.Package
	buf     bytes.Buffer
	imports map[string]importInfo
	title   cases.Caser
}

func newGen(pkg *packages.Package) *gen {
	return &gen{
		pkg:     pkg,
		imports: make(map[string]importInfo),
		title:   cases.Title(language.Und, cases.NoLower),
	}
}

func (g *gen) addDecl(name fmt.Stringer, decl ast.Decl) error {
	if genDecl, ok := decl.(*ast.GenDecl); ok && genDecl.Tok == token.IMPORT {
		decl = g.copyImports(genDecl)
		if decl == nil {
			return nil
		}
	}
	var buf bytes.Buffer
	if err := format.Node(&buf, g.pkg.Fset, decl); err != nil {
		if name == nil {
			name = g.pkg.Fset.Position(decl.Pos())
		}
		return fmt.Errorf("%s: error formatting declaration: %w", name, err)
	}
	g.buf.Write(buf.Bytes())
	g.buf.WriteString("\n\n") // Add some spacing between decls
	return nil
}

// copyImports records the imports of a stub file and returns a declaration
// holding those not copied before, or nil if there are none.
func (g *gen) copyImports(genDecl *ast.GenDecl) ast.Decl {
	var specs []ast.Spec
	for _, spec := range genDecl.Specs {
		importSpec := spec.(*ast.ImportSpec)
		path, err := strconv.Unquote(importSpec.Path.Value)
		if err != nil {
			continue
		}
		if imp, ok := g.imports[path]; ok && imp.copied {
			continue
		}
		var (
			name string
			ok   bool
		)
		if importSpec.Name != nil {
			name = importSpec.Name.Name
		} else if name, ok = g.resolvePackageName(path); !ok {
			continue
		}
		specs = append(specs, &ast.ImportSpec{
			Name: clone(importSpec.Name),
			Path: clone(importSpec.Path),
		})
		if name == "_" || name == "." {
			continue
		}
		g.imports[path] = importInfo{
			name:    name,
			differs: importSpec.Name != nil,
			copied:  true,
		}
	}
	if len(specs) == 0 {
		return nil
	}
	return &ast.GenDecl{Tok: token.IMPORT, Specs: specs}
}

func (g *gen) resolvePackageName(path string) (string, bool) {
	for _, pkg := range g.pkg.Imports {
		if pkg.PkgPath == path {
			return pkg.Name, true
		}
	}
	return "", false
}

// resolveImportName returns the identifier for the package at path, adding
// an import named name when the stub file does not import it.
func (g *gen) resolveImportName(name, path string) string {
	imp, ok := g.imports[path]
	if !ok {
		imp = importInfo{name: name}
		g.imports[path] = imp
	}
	return imp.name
}

func (g *gen) runtime() string {
	return g.resolveImportName(runtimeName, runtimePath)
}

func (g *gen) typeString(t types.Type) string {
	return types.TypeString(t, func(p *types.Package) string {
		if p == g.pkg.Types {
			return ""
		}
		return g.resolveImportName(p.Name(), p.Path())
	})
}

func (g *gen) addInterfaceAssertion(ifaceType, structName ast.Expr) error {
	varDecl := &ast.GenDecl{
		Tok: token.VAR,
		Specs: []ast.Spec{
			&ast.ValueSpec{
				Names: []*ast.Ident{{Name: "_"}},
				Type:  ifaceType,
				Values: []ast.Expr{
					&ast.CallExpr{
						Fun: &ast.ParenExpr{
							X: &ast.StarExpr{
								X: structName,
							},
						},
						Args: []ast.Expr{
							ast.NewIdent("nil"),
						},
					},
				},
			},
		},
	}
	var buf bytes.Buffer
	if err := format.Node(&buf, g.pkg.Fset, varDecl); err != nil {
		return fmt.Errorf("%s: error formatting var: %w", ifaceType, err)
	}
	g.buf.Write(buf.Bytes())
	g.buf.WriteString("\n\n") // Add some spacing between decls
	return nil
}

// frame bakes the built up source body into an unformatted Go source file.
func (g *gen) frame(tags string) []byte {
	if g.buf.Len() == 0 {
		return nil
	}
	var buf bytes.Buffer
	if len(tags) > 0 {
		tags = fmt.Sprintf(" -tags %q", tags)
	}
	buf.WriteString("// Code generated by mockreggen. DO NOT EDIT.\n\n")
	buf.WriteString("//go:generate go run -mod=mod " + runtimePath + "/cmd/mockreggen" + tags + "\n")
	buf.WriteString("//go:build !" + stubTag + "\n\n")
	buf.WriteString("package ")
	buf.WriteString(g.pkg.Name)
	buf.WriteString("\n\n")
	imps := make([]string, 0, len(g.imports))
	for path, imp := range g.imports {
		if !imp.copied {
			imps = append(imps, path)
		}
	}
	if len(imps) > 0 {
		buf.WriteString("import (\n")
		sort.Strings(imps)
		for _, path := range imps {
			// Omit the local package identifier if it matches the package name.
			info := g.imports[path]
			if info.differs || info.name != lastElem(path) {
				fmt.Fprintf(&buf, "\t%s %q\n", info.name, path)
			} else {
				fmt.Fprintf(&buf, "\t%q\n", path)
			}
		}
		buf.WriteString(")\n\n")
	}
	buf.Write(g.buf.Bytes())
	return buf.Bytes()
}

func lastElem(path string) string {
	return path[strings.LastIndex(path, "/")+1:]
}

// clone returns a deep copy of v without position information.
func clone[T any](v *T) *T {
	if v == nil {
		return nil
	}
	x := new(T)
	switch cloned := any(x).(type) {
	case *[]*ast.Ident:
		v := any(v).(*[]*ast.Ident)
		if *v == nil {
			break
		}
		*cloned = make([]*ast.Ident, len(*v))
		for i, ident := range *v {
			(*cloned)[i] = clone(ident)
		}
	case *ast.Ident:
		cloned.Name = any(v).(*ast.Ident).Name
	case *ast.StarExpr:
		cloned.X = *clone(&any(v).(*ast.StarExpr).X)
	case *ast.SelectorExpr:
		v := any(v).(*ast.SelectorExpr)
		cloned.X = *clone(&v.X)
		cloned.Sel = clone(v.Sel)
	case *ast.Expr:
		switch e := (*any(v).(*ast.Expr)).(type) {
		case *ast.Ident:
			*cloned = clone(e)
		case *ast.StarExpr:
			*cloned = clone(e)
		case *ast.SelectorExpr:
			*cloned = clone(e)
		default:
			*cloned = e
		}
	case *ast.Comment:
		cloned.Text = any(v).(*ast.Comment).Text
	case *ast.CommentGroup:
		v := any(v).(*ast.CommentGroup)
		if v.List == nil {
			break
		}
		cloned.List = make([]*ast.Comment, len(v.List))
		for i, c := range v.List {
			cloned.List[i] = clone(c)
		}
	case *ast.BasicLit:
		cloned.Value = any(v).(*ast.BasicLit).Value
		cloned.Kind = any(v).(*ast.BasicLit).Kind
	case *ast.Field:
		v := any(v).(*ast.Field)
		cloned.Doc = clone(v.Doc)
		cloned.Comment = clone(v.Comment)
		cloned.Tag = clone(v.Tag)
		cloned.Names = *clone(&v.Names)
		cloned.Type = *clone(&v.Type)
	case *ast.FieldList:
		v := any(v).(*ast.FieldList)
		if v.List == nil {
			break
		}
		cloned.List = make([]*ast.Field, len(v.List))
		for i, f := range v.List {
			cloned.List[i] = clone(f)
		}
	case *ast.TypeSpec:
		v := any(v).(*ast.TypeSpec)
		cloned.Doc = clone(v.Doc)
		cloned.Comment = clone(v.Comment)
		cloned.Name = clone(v.Name)
		cloned.Assign = v.Assign
		cloned.TypeParams = clone(v.TypeParams)
		cloned.Type = *clone(&v.Type)
	default:
		*x = *v
	}
	return x
}
