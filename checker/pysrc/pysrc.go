// Package pysrc parses Python source into the structural model the checker
// catalog consumes. It uses tree-sitter so that imports, calls, and
// definitions quoted inside docstrings are never mistaken for real code.
//
// Parsing happens once per file; checkers only read the resulting File.
package pysrc

import (
	"context"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Import is one import statement.
type Import struct {
	// Module is the imported module path ("os", "requests", "widgets.db").
	Module string

	// Line is the 1-based source line.
	Line int

	// Relative reports a relative import (from . import x).
	Relative bool

	// Stdlib reports whether Module's top-level package is in the Python
	// standard library.
	Stdlib bool
}

// Param is one function parameter.
type Param struct {
	Name      string
	Annotated bool
}

// Function is a function or method definition.
type Function struct {
	Name       string
	Class      string // enclosing class, empty for top-level functions
	StartLine  int
	EndLine    int
	Doc        string
	Decorators []string
	Params     []Param
	// ReturnAnnotated reports a return type annotation.
	ReturnAnnotated bool
}

// Lines returns the function's length in lines.
func (f Function) Lines() int { return f.EndLine - f.StartLine + 1 }

// Public reports whether the function is part of the module's surface.
func (f Function) Public() bool { return !strings.HasPrefix(f.Name, "_") }

// Class is a class definition.
type Class struct {
	Name      string
	StartLine int
	EndLine   int
	Doc       string
}

// Assignment is a module-level name binding.
type Assignment struct {
	Name string
	Line int
	// EndLine is the last line of the assigned value expression.
	EndLine int
	// Literal reports a dict/list/tuple/string literal value.
	Literal bool
}

// Call is one call expression anywhere in the file.
type Call struct {
	// Name is the dotted callee text ("print", "logger.critical",
	// "json.dump").
	Name string
	Line int
}

// Except is one except clause.
type Except struct {
	// Type is the caught expression text; empty for a bare "except:".
	Type      string
	StartLine int
	EndLine   int
}

// Try is one try statement.
type Try struct {
	StartLine int
	EndLine   int
	Excepts   []Except
}

// File is the parsed source model for one file.
type File struct {
	// RelPath is the path relative to the owning project root, slashed.
	RelPath string

	// Content is the raw file content.
	Content []byte

	// Lines are the content split on newlines, 0-indexed (line N is
	// Lines[N-1]).
	Lines []string

	// Shebang is the interpreter directive, empty when absent.
	Shebang string

	// HeaderComments are the contiguous '#' lines at the top of the file,
	// after the shebang, with the leading '#' stripped.
	HeaderComments []string

	// ModuleDoc is the module-level docstring.
	ModuleDoc string

	// Parsed reports whether the AST pass succeeded. When false only
	// RelPath, Content, Lines, Shebang, and HeaderComments are populated
	// and ParseErr describes the failure.
	Parsed   bool
	ParseErr string

	Imports     []Import
	Functions   []Function
	Classes     []Class
	Assignments []Assignment
	Calls       []Call
	Tries       []Try

	// MainGuardStart/End bound the `if __name__ == "__main__":` block.
	// Zero when the file has no main guard.
	MainGuardStart int
	MainGuardEnd   int

	// FirstDefLine is the line of the first top-level function or class
	// definition, zero when the file defines none.
	FirstDefLine int

	// docRanges are [start, end] line ranges of docstrings.
	docRanges [][2]int
}

// InDocstring reports whether a line falls inside a docstring.
func (f *File) InDocstring(line int) bool {
	for _, r := range f.docRanges {
		if line >= r[0] && line <= r[1] {
			return true
		}
	}
	return false
}

// InMainGuard reports whether a line falls inside the main-guard block.
func (f *File) InMainGuard(line int) bool {
	return f.MainGuardStart > 0 && line >= f.MainGuardStart && line <= f.MainGuardEnd
}

// InTry reports whether a line falls inside any try block's guarded range.
func (f *File) InTry(line int) bool {
	for _, t := range f.Tries {
		if line >= t.StartLine && line <= t.EndLine {
			return true
		}
	}
	return false
}

// CallsBetween returns the calls whose lines fall within [start, end].
func (f *File) CallsBetween(start, end int) []Call {
	var out []Call
	for _, c := range f.Calls {
		if c.Line >= start && c.Line <= end {
			out = append(out, c)
		}
	}
	return out
}

// Name returns the file's base name.
func (f *File) Name() string { return filepath.Base(f.RelPath) }

// Parse builds the source model for one file. AST failure is not an error:
// the returned File degrades to a lines-only model with ParseErr set, and
// checkers that need structure report that as a finding.
func Parse(ctx context.Context, relPath string, content []byte) *File {
	f := &File{
		RelPath: filepath.ToSlash(relPath),
		Content: content,
		Lines:   splitLines(content),
	}
	f.scanPreamble()

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		f.ParseErr = err.Error()
		return f
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		f.ParseErr = "empty parse tree"
		return f
	}

	f.Parsed = true
	f.extractModuleDocstring(root)

	for i := 0; i < int(root.NamedChildCount()); i++ {
		f.extractTopLevel(root.NamedChild(i))
	}
	f.walk(root)

	return f
}

// scanPreamble captures the shebang and header comment block without the
// AST, so they survive parse failures.
func (f *File) scanPreamble() {
	lines := f.Lines
	i := 0
	if len(lines) > 0 && strings.HasPrefix(lines[0], "#!") {
		f.Shebang = lines[0]
		i = 1
	}
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, "#") {
			break
		}
		f.HeaderComments = append(f.HeaderComments, strings.TrimSpace(strings.TrimPrefix(trimmed, "#")))
	}
}

func (f *File) text(n *sitter.Node) string {
	return string(f.Content[n.StartByte():n.EndByte()])
}

func line(n *sitter.Node) int    { return int(n.StartPoint().Row) + 1 }
func endLine(n *sitter.Node) int { return int(n.EndPoint().Row) + 1 }

// extractModuleDocstring records the module docstring, if the first
// statement is a string expression.
func (f *File) extractModuleDocstring(root *sitter.Node) {
	first := firstStatement(root)
	if first == nil {
		return
	}
	if doc, ok := f.docstringOf(first); ok {
		f.ModuleDoc = doc
		f.docRanges = append(f.docRanges, [2]int{line(first), endLine(first)})
	}
}

// firstStatement returns a block's first named child that is not a comment.
// Comments are tree-sitter extras and show up between statements.
func firstStatement(node *sitter.Node) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "comment" {
			return child
		}
	}
	return nil
}

// docstringOf returns the string content when node is an
// expression_statement wrapping a string literal.
func (f *File) docstringOf(node *sitter.Node) (string, bool) {
	if node.Type() != "expression_statement" || node.NamedChildCount() == 0 {
		return "", false
	}
	expr := node.NamedChild(0)
	if expr.Type() != "string" {
		return "", false
	}
	return stripQuotes(f.text(expr)), true
}

// extractTopLevel handles module-level statements: imports, definitions,
// assignments, and the main guard.
func (f *File) extractTopLevel(node *sitter.Node) {
	switch node.Type() {
	case "import_statement", "import_from_statement":
		f.extractImport(node)

	case "function_definition":
		f.addFunction(node, "")
		f.noteFirstDef(node)

	case "class_definition":
		f.addClass(node)
		f.noteFirstDef(node)

	case "decorated_definition":
		if def := definitionIn(node); def != nil {
			decorators := f.decoratorsOf(node)
			switch def.Type() {
			case "function_definition":
				if fn := f.addFunction(def, ""); fn != nil {
					fn.Decorators = decorators
				}
			case "class_definition":
				f.addClass(def)
			}
			f.noteFirstDef(node)
		}

	case "expression_statement":
		f.extractAssignment(node)

	case "if_statement":
		if cond := node.ChildByFieldName("condition"); cond != nil {
			text := f.text(cond)
			if strings.Contains(text, "__name__") && strings.Contains(text, "__main__") {
				f.MainGuardStart = line(node)
				f.MainGuardEnd = endLine(node)
			}
		}
	}
}

func (f *File) noteFirstDef(node *sitter.Node) {
	if f.FirstDefLine == 0 || line(node) < f.FirstDefLine {
		f.FirstDefLine = line(node)
	}
}

func (f *File) extractImport(node *sitter.Node) {
	imp := Import{Line: line(node)}

	switch node.Type() {
	case "import_statement":
		// import a.b, c → one Import per dotted name
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			switch child.Type() {
			case "dotted_name":
				f.addImport(Import{Module: f.text(child), Line: imp.Line})
			case "aliased_import":
				if name := child.ChildByFieldName("name"); name != nil {
					f.addImport(Import{Module: f.text(name), Line: imp.Line})
				}
			}
		}
	case "import_from_statement":
		module := node.ChildByFieldName("module_name")
		if module == nil {
			return
		}
		text := f.text(module)
		f.addImport(Import{
			Module:   strings.TrimLeft(text, "."),
			Line:     imp.Line,
			Relative: strings.HasPrefix(text, "."),
		})
	}
}

func (f *File) addImport(imp Import) {
	imp.Stdlib = !imp.Relative && IsStdlib(imp.Module)
	f.Imports = append(f.Imports, imp)
}

func (f *File) addFunction(node *sitter.Node, class string) *Function {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	fn := Function{
		Name:      f.text(nameNode),
		Class:     class,
		StartLine: line(node),
		EndLine:   endLine(node),
	}

	if params := node.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			child := params.NamedChild(i)
			switch child.Type() {
			case "identifier":
				fn.Params = append(fn.Params, Param{Name: f.text(child)})
			case "typed_parameter", "typed_default_parameter":
				name := ""
				if n := child.NamedChild(0); n != nil {
					name = f.text(n)
				}
				fn.Params = append(fn.Params, Param{Name: name, Annotated: true})
			case "default_parameter":
				if n := child.ChildByFieldName("name"); n != nil {
					fn.Params = append(fn.Params, Param{Name: f.text(n)})
				}
			}
		}
	}
	fn.ReturnAnnotated = node.ChildByFieldName("return_type") != nil

	if body := node.ChildByFieldName("body"); body != nil {
		fn.Doc = f.bodyDocstring(body)
	}

	f.Functions = append(f.Functions, fn)
	return &f.Functions[len(f.Functions)-1]
}

func (f *File) addClass(node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	cls := Class{
		Name:      f.text(nameNode),
		StartLine: line(node),
		EndLine:   endLine(node),
	}

	body := node.ChildByFieldName("body")
	if body != nil {
		cls.Doc = f.bodyDocstring(body)
	}
	f.Classes = append(f.Classes, cls)

	if body == nil {
		return
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		switch child.Type() {
		case "function_definition":
			f.addFunction(child, cls.Name)
		case "decorated_definition":
			if def := definitionIn(child); def != nil && def.Type() == "function_definition" {
				if fn := f.addFunction(def, cls.Name); fn != nil {
					fn.Decorators = f.decoratorsOf(child)
				}
			}
		}
	}
}

// bodyDocstring returns the docstring of a block and records its range.
func (f *File) bodyDocstring(body *sitter.Node) string {
	first := firstStatement(body)
	if first == nil {
		return ""
	}
	doc, ok := f.docstringOf(first)
	if !ok {
		return ""
	}
	f.docRanges = append(f.docRanges, [2]int{line(first), endLine(first)})
	return doc
}

func (f *File) decoratorsOf(node *sitter.Node) []string {
	var out []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "decorator" {
			out = append(out, f.text(child))
		}
	}
	return out
}

func (f *File) extractAssignment(node *sitter.Node) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "assignment" {
			continue
		}
		left := child.ChildByFieldName("left")
		if left == nil || left.Type() != "identifier" {
			continue
		}
		a := Assignment{
			Name:    f.text(left),
			Line:    line(child),
			EndLine: endLine(child),
		}
		if right := child.ChildByFieldName("right"); right != nil {
			switch right.Type() {
			case "dictionary", "list", "tuple", "set", "string":
				a.Literal = true
				a.EndLine = endLine(right)
			}
		}
		f.Assignments = append(f.Assignments, a)
	}
}

// walk collects calls and try statements from the whole tree.
func (f *File) walk(node *sitter.Node) {
	switch node.Type() {
	case "call":
		if fn := node.ChildByFieldName("function"); fn != nil {
			f.Calls = append(f.Calls, Call{Name: f.text(fn), Line: line(node)})
		}
	case "try_statement":
		f.addTry(node)
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		f.walk(node.NamedChild(i))
	}
}

func (f *File) addTry(node *sitter.Node) {
	t := Try{StartLine: line(node), EndLine: endLine(node)}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "except_clause" {
			continue
		}
		ex := Except{StartLine: line(child), EndLine: endLine(child)}
		// The caught expression is the first named child that is not the
		// handler block; a bare "except:" has only the block.
		for j := 0; j < int(child.NamedChildCount()); j++ {
			sub := child.NamedChild(j)
			if sub.Type() != "block" {
				ex.Type = f.text(sub)
				break
			}
		}
		// "except ValueError as e" yields "ValueError as e"; keep the type.
		if idx := strings.Index(ex.Type, " as "); idx >= 0 {
			ex.Type = ex.Type[:idx]
		}
		t.Excepts = append(t.Excepts, ex)
	}

	f.Tries = append(f.Tries, t)
}

func splitLines(content []byte) []string {
	s := strings.ReplaceAll(string(content), "\r\n", "\n")
	return strings.Split(s, "\n")
}

func stripQuotes(s string) string {
	for _, q := range []string{`"""`, `'''`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return strings.TrimSpace(s[len(q) : len(s)-len(q)])
		}
	}
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

func definitionIn(decorated *sitter.Node) *sitter.Node {
	if def := decorated.ChildByFieldName("definition"); def != nil {
		return def
	}
	for i := 0; i < int(decorated.NamedChildCount()); i++ {
		child := decorated.NamedChild(i)
		if child.Type() == "function_definition" || child.Type() == "class_definition" {
			return child
		}
	}
	return nil
}
