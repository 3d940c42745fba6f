// Package main renders the rules audit event catalog from the event name
// constants and the code that references them.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	eventsPackageDir = "internal/services/rules/observability/audit/events"
	emitterScanDir   = "internal/services/rules"
)

type eventDef struct {
	Name      string
	Value     string
	Doc       string
	DefinedAt string
}

func main() {
	var outPath string
	var rootFlag string
	flag.StringVar(&outPath, "out", "docs/events/audit-catalog.md", "output path for the catalog")
	flag.StringVar(&rootFlag, "root", "", "repo root (defaults to locating go.mod)")
	flag.Parse()

	root, err := resolveRoot(rootFlag)
	if err != nil {
		fatal(err)
	}
	output := outPath
	if !filepath.IsAbs(output) {
		output = filepath.Join(root, outPath)
	}

	defs, err := parseEvents(filepath.Join(root, eventsPackageDir), root)
	if err != nil {
		fatal(err)
	}
	emitters, err := scanEmitters(filepath.Join(root, emitterScanDir), root)
	if err != nil {
		fatal(err)
	}

	content := renderCatalog(defs, emitters)
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		fatal(fmt.Errorf("create output dir: %w", err))
	}
	if err := os.WriteFile(output, []byte(content), 0o644); err != nil {
		fatal(fmt.Errorf("write catalog: %w", err))
	}
}

func resolveRoot(flagRoot string) (string, error) {
	if flagRoot != "" {
		return filepath.Clean(flagRoot), nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working dir: %w", err)
	}
	return findModuleRoot(wd)
}

func findModuleRoot(start string) (string, error) {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("go.mod not found above %s", start)
}

// parseEvents collects exported string constants from the events package.
func parseEvents(dir, root string) ([]eventDef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	fset := token.NewFileSet()
	var defs []eventDef
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		for _, decl := range file.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.CONST {
				continue
			}
			defs = append(defs, parseConstDecl(gen, fset, root)...)
		}
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Value < defs[j].Value })
	return defs, nil
}

func parseConstDecl(decl *ast.GenDecl, fset *token.FileSet, root string) []eventDef {
	var defs []eventDef
	for _, spec := range decl.Specs {
		valueSpec, ok := spec.(*ast.ValueSpec)
		if !ok {
			continue
		}
		for idx, name := range valueSpec.Names {
			if !name.IsExported() || idx >= len(valueSpec.Values) {
				continue
			}
			lit, ok := valueSpec.Values[idx].(*ast.BasicLit)
			if !ok || lit.Kind != token.STRING {
				continue
			}
			value, err := strconv.Unquote(lit.Value)
			if err != nil {
				continue
			}
			defs = append(defs, eventDef{
				Name:      name.Name,
				Value:     value,
				Doc:       strings.TrimSpace(valueSpec.Doc.Text()),
				DefinedAt: formatPosition(fset.Position(name.Pos()), root),
			})
		}
	}
	return defs
}

// scanEmitters maps constant names to the non-test locations that
// reference them as events.<Name>.
func scanEmitters(dir, root string) (map[string][]string, error) {
	emitters := make(map[string][]string)
	err := filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".go") || strings.HasSuffix(entry.Name(), "_test.go") {
			return nil
		}
		fset := token.NewFileSet()
		file, err := parser.ParseFile(fset, path, nil, 0)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if file.Name.Name == "events" {
			return nil
		}
		ast.Inspect(file, func(node ast.Node) bool {
			selector, ok := node.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			ident, ok := selector.X.(*ast.Ident)
			if !ok || ident.Name != "events" {
				return true
			}
			location := formatPosition(fset.Position(selector.Pos()), root)
			emitters[selector.Sel.Name] = append(emitters[selector.Sel.Name], location)
			return true
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	for key := range emitters {
		sort.Strings(emitters[key])
	}
	return emitters, nil
}

func renderCatalog(defs []eventDef, emitters map[string][]string) string {
	var buf bytes.Buffer
	buf.WriteString("# Audit Event Catalog\n\n")
	buf.WriteString("Generated by `go run ./internal/tools/eventdocgen`.\n\n")

	var unused []string
	for _, evt := range defs {
		buf.WriteString(fmt.Sprintf("## `%s` (`%s`)\n", evt.Value, evt.Name))
		if evt.Doc != "" {
			buf.WriteString("\n" + evt.Doc + "\n\n")
		}
		buf.WriteString(fmt.Sprintf("- Defined at: `%s`\n", evt.DefinedAt))
		locations := emitters[evt.Name]
		if len(locations) == 0 {
			unused = append(unused, evt.Name)
		} else {
			buf.WriteString("- Emitters:\n")
			for _, location := range locations {
				buf.WriteString(fmt.Sprintf("  - `%s`\n", location))
			}
		}
		buf.WriteString("\n")
	}
	if len(unused) > 0 {
		buf.WriteString("## Unreferenced Events\n\n")
		for _, name := range unused {
			buf.WriteString(fmt.Sprintf("- `%s`\n", name))
		}
	}
	return buf.String()
}

func formatPosition(pos token.Position, root string) string {
	rel, err := filepath.Rel(root, pos.Filename)
	if err != nil {
		rel = pos.Filename
	}
	return fmt.Sprintf("%s:%d", filepath.ToSlash(rel), pos.Line)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
