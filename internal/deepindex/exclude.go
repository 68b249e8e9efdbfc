package deepindex

// DefaultExcludes is the built-in set of directory basenames skipped at
// every nesting level during a walk, regardless of any user-supplied
// additional exclusions.
var DefaultExcludes = []string{
	".git", ".svn", ".hg",
	"node_modules", "vendor", ".venv", "venv", "__pycache__",
	"dist", "build", ".idea", ".vscode", "target", "bin", "obj",
}

// exclusionSet is a lookup-ready union of DefaultExcludes and a project's
// additional_excludes.
type exclusionSet struct {
	names map[string]struct{}
}

func newExclusionSet(additional []string) exclusionSet {
	set := exclusionSet{names: make(map[string]struct{}, len(DefaultExcludes)+len(additional))}
	for _, n := range DefaultExcludes {
		set.names[n] = struct{}{}
	}
	for _, n := range additional {
		set.names[n] = struct{}{}
	}
	return set
}

func (s exclusionSet) excludes(basename string) bool {
	_, ok := s.names[basename]
	return ok
}
