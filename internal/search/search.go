package search

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Query describes a content search: either a literal substring or,
// when IsRegex is set, a pattern compiled with regexp.Compile.
type Query struct {
	Pattern string
	IsRegex bool
}

// Search scans every file under projectRoot named by relativePaths for
// lines matching q, returning the raw map Paginate consumes. This
// supplements the spec's pagination section with the upstream search it
// assumes but doesn't itself define how rows are produced (see the
// original_source search_code_advanced tool, which offers the same
// literal/regex toggle).
func Search(projectRoot string, relativePaths []string, q Query) (map[string][]LineMatch, error) {
	var re *regexp.Regexp
	if q.IsRegex {
		compiled, err := regexp.Compile(q.Pattern)
		if err != nil {
			return nil, err
		}
		re = compiled
	}

	raw := make(map[string][]LineMatch)
	for _, rel := range relativePaths {
		matches, err := searchFile(filepath.Join(projectRoot, rel), q.Pattern, re)
		if err != nil {
			continue
		}
		if len(matches) > 0 {
			raw[rel] = matches
		}
	}
	return raw, nil
}

func searchFile(absPath, literal string, re *regexp.Regexp) ([]LineMatch, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var matches []LineMatch
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		hit := false
		if re != nil {
			hit = re.MatchString(text)
		} else {
			hit = strings.Contains(text, literal)
		}
		if hit {
			matches = append(matches, LineMatch{Line: line, Text: text})
		}
	}
	return matches, scanner.Err()
}
