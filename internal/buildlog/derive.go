package buildlog

import (
	"strings"
	"unicode"
)

// UnknownCompiler is shown when no executable name can be derived.
const UnknownCompiler = "???"

// CompilerName derives a short executable name from a raw command line.
//
// This is a heuristic, not a shell parser: the command is split at the first
// whitespace and the final path component of that token is returned. Quoting
// and escaping are not understood. When nothing usable remains the result is
// UnknownCompiler.
func CompilerName(command string) string {
	fields := strings.FieldsFunc(command, unicode.IsSpace)
	if len(fields) == 0 {
		return UnknownCompiler
	}
	name := BaseName(fields[0])
	if name == "" {
		return UnknownCompiler
	}
	return name
}

// BaseName returns the text after the last '/' or '\' in path. It returns ""
// when path ends in a separator.
func BaseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// ExplicitInputs returns the paths of explicit inputs, in order.
func ExplicitInputs(bindings []InputBinding) []string {
	return inputsOfKind(bindings, InputExplicit)
}

// ImplicitInputs returns the paths of implicit inputs, in order.
func ImplicitInputs(bindings []InputBinding) []string {
	return inputsOfKind(bindings, InputImplicit)
}

// OrderOnlyInputs returns the paths of order-only inputs, in order.
func OrderOnlyInputs(bindings []InputBinding) []string {
	return inputsOfKind(bindings, InputOrderOnly)
}

func inputsOfKind(bindings []InputBinding, kind InputKind) []string {
	paths := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if b.Kind == kind {
			paths = append(paths, b.Path)
		}
	}
	return paths
}

// OutputPaths returns every output path in order, whatever its kind.
func OutputPaths(bindings []OutputBinding) []string {
	paths := make([]string, 0, len(bindings))
	for _, b := range bindings {
		paths = append(paths, b.Path)
	}
	return paths
}
