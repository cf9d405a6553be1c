package pysource

import (
	"sort"
	"strings"
)

// ImportGroup classifies an import statement by where its module comes from
type ImportGroup int

const (
	// GroupStdlib is a standard library import
	GroupStdlib ImportGroup = iota

	// GroupThirdParty is an installed package import
	GroupThirdParty

	// GroupLocal is a relative or project-local import
	GroupLocal
)

// String returns a string representation of the import group
func (g ImportGroup) String() string {
	switch g {
	case GroupStdlib:
		return "stdlib"
	case GroupThirdParty:
		return "third_party"
	case GroupLocal:
		return "local"
	default:
		return "unknown"
	}
}

// ImportLine is one top-level import statement
type ImportLine struct {
	Line   int    // 1-based line number
	Text   string // trimmed statement text
	Module string // leading module name, "" for bare relative imports
	Group  ImportGroup
}

// pythonStdlibModules is the allowlist used to classify stdlib imports.
// Top-level package names only; dotted paths are cut to their first segment
// before lookup.
var pythonStdlibModules = map[string]bool{
	"abc": true, "argparse": true, "array": true, "ast": true,
	"asyncio": true, "base64": true, "binascii": true, "bisect": true,
	"builtins": true, "calendar": true, "codecs": true, "collections": true,
	"concurrent": true, "configparser": true, "contextlib": true, "copy": true,
	"csv": true, "ctypes": true, "dataclasses": true, "datetime": true,
	"decimal": true, "difflib": true, "dis": true, "email": true,
	"enum": true, "errno": true, "fnmatch": true, "fractions": true,
	"functools": true, "gc": true, "getpass": true, "glob": true,
	"gzip": true, "hashlib": true, "heapq": true, "hmac": true,
	"html": true, "http": true, "importlib": true, "inspect": true,
	"io": true, "ipaddress": true, "itertools": true, "json": true,
	"keyword": true, "linecache": true, "locale": true, "logging": true,
	"math": true, "mimetypes": true, "multiprocessing": true, "numbers": true,
	"operator": true, "os": true, "pathlib": true, "pickle": true,
	"platform": true, "pprint": true, "pstats": true, "pty": true,
	"queue": true, "random": true, "re": true, "sched": true,
	"secrets": true, "select": true, "shelve": true, "shlex": true,
	"shutil": true, "signal": true, "site": true, "smtplib": true,
	"socket": true, "sqlite3": true, "ssl": true, "stat": true,
	"statistics": true, "string": true, "struct": true, "subprocess": true,
	"sys": true, "sysconfig": true, "tarfile": true, "tempfile": true,
	"textwrap": true, "threading": true, "time": true, "timeit": true,
	"token": true, "tokenize": true, "tomllib": true, "traceback": true,
	"types": true, "typing": true, "unicodedata": true, "unittest": true,
	"urllib": true, "uuid": true, "venv": true, "warnings": true,
	"weakref": true, "webbrowser": true, "wsgiref": true, "xml": true,
	"zipfile": true, "zlib": true, "zoneinfo": true,
}

// ScanImports returns the top-level import statements in order of
// appearance. localPrefixes marks additional module prefixes as local on top
// of the relative-import heuristic.
func ScanImports(lines []string, localPrefixes []string) []ImportLine {
	var imports []ImportLine
	for i, raw := range lines {
		if raw == "" || raw[0] == ' ' || raw[0] == '\t' {
			continue
		}
		trimmed := strings.TrimSpace(raw)
		isImport := strings.HasPrefix(trimmed, "import ")
		isFrom := strings.HasPrefix(trimmed, "from ") && strings.Contains(trimmed, " import ")
		if !isImport && !isFrom {
			continue
		}

		module, relative := importModule(trimmed)
		imports = append(imports, ImportLine{
			Line:   i + 1,
			Text:   trimmed,
			Module: module,
			Group:  classifyModule(module, relative, localPrefixes),
		})
	}
	return imports
}

// importModule extracts the leading module name of an import statement and
// whether the import is relative
func importModule(stmt string) (string, bool) {
	var rest string
	switch {
	case strings.HasPrefix(stmt, "import "):
		rest = strings.TrimSpace(strings.TrimPrefix(stmt, "import "))
	case strings.HasPrefix(stmt, "from "):
		rest = strings.TrimSpace(strings.TrimPrefix(stmt, "from "))
	default:
		return "", false
	}
	if rest == "" {
		return "", false
	}
	if rest[0] == '.' {
		rel := strings.TrimSpace(strings.TrimLeft(rest, "."))
		// "from . import x" leaves no module of its own
		if rel == "" || strings.HasPrefix(rel, "import ") {
			return "", true
		}
		end := len(rel)
		for idx := 0; idx < len(rel); idx++ {
			if rel[idx] == ' ' || rel[idx] == '.' {
				end = idx
				break
			}
		}
		return rel[:end], true
	}

	end := len(rest)
	for idx := 0; idx < len(rest); idx++ {
		if rest[idx] == ' ' || rest[idx] == ',' || rest[idx] == ';' {
			end = idx
			break
		}
	}
	module := rest[:end]
	if dot := strings.IndexByte(module, '.'); dot > 0 {
		module = module[:dot]
	}
	return module, false
}

func classifyModule(module string, relative bool, localPrefixes []string) ImportGroup {
	if relative || module == "" {
		return GroupLocal
	}
	for _, prefix := range localPrefixes {
		if module == prefix || strings.HasPrefix(module, prefix+".") {
			return GroupLocal
		}
	}
	if pythonStdlibModules[module] {
		return GroupStdlib
	}
	return GroupThirdParty
}

// SortImports returns the canonical ordering: stdlib, then third-party, then
// local, sorted by module then statement text within each group
func SortImports(imports []ImportLine) []ImportLine {
	sorted := make([]ImportLine, len(imports))
	copy(sorted, imports)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Group != sorted[j].Group {
			return sorted[i].Group < sorted[j].Group
		}
		if sorted[i].Module != sorted[j].Module {
			return sorted[i].Module < sorted[j].Module
		}
		return sorted[i].Text < sorted[j].Text
	})
	return sorted
}

// ImportsSorted reports whether the imports already appear in canonical order
func ImportsSorted(imports []ImportLine) bool {
	sorted := SortImports(imports)
	for i := range imports {
		if imports[i].Text != sorted[i].Text {
			return false
		}
	}
	return true
}

// RenderImportBlock renders sorted imports as source lines with one blank
// line between groups
func RenderImportBlock(sorted []ImportLine) []string {
	var out []string
	for i, imp := range sorted {
		if i > 0 && imp.Group != sorted[i-1].Group {
			out = append(out, "")
		}
		out = append(out, imp.Text)
	}
	return out
}
