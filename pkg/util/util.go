// Package util holds path-matching helpers used by the directory walker.
package util

import (
	"path"
	"path/filepath"
	"strings"
)

// MatchesGitignore checks if a path matches a gitignore-style pattern.
//
// pattern has already been stripped of any leading "!", leading "/" (reported
// through isRooted) and trailing "/". patternBaseAbsPath is the directory the
// pattern was defined in, walkerBaseAbsPath the walk root, and pathToMatchRel
// the candidate relative to the walk root. A pattern is anchored to its base
// when it is rooted or contains an inner slash, otherwise it may match at any
// depth. "**" matches zero or more whole path segments. A path inside a
// matched directory matches as well.
func MatchesGitignore(pattern, patternBaseAbsPath, walkerBaseAbsPath, pathToMatchRel string, isRooted bool) bool {
	pattern = strings.Trim(filepath.ToSlash(pattern), "/")
	pathToMatchRel = filepath.ToSlash(pathToMatchRel)
	if pattern == "" || pathToMatchRel == "" || pathToMatchRel == "." {
		return false
	}

	abs := filepath.Join(walkerBaseAbsPath, filepath.FromSlash(pathToMatchRel))
	rel, err := filepath.Rel(patternBaseAbsPath, abs)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return false // outside the pattern's base
	}

	patternSegs := strings.Split(pattern, "/")
	pathSegs := strings.Split(rel, "/")
	anchored := isRooted || len(patternSegs) > 1
	// A match on any leading directory also excludes everything beneath it.
	for end := len(pathSegs); end > 0; end-- {
		if matchPrefix(patternSegs, pathSegs[:end], anchored) {
			return true
		}
	}
	return false
}

func matchPrefix(patternSegs, pathSegs []string, anchored bool) bool {
	if anchored {
		return matchSegments(patternSegs, pathSegs)
	}
	for i := range pathSegs {
		if matchSegments(patternSegs, pathSegs[i:]) {
			return true
		}
	}
	return false
}

// matchSegments matches pattern segments against path segments.
// A trailing "**" needs at least one segment to match ("dir/**" is the contents of dir).
func matchSegments(pattern, segs []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			rest := pattern[1:]
			if len(rest) == 0 {
				return len(segs) > 0
			}
			for i := 0; i <= len(segs); i++ {
				if matchSegments(rest, segs[i:]) {
					return true
				}
			}
			return false
		}
		if len(segs) == 0 {
			return false
		}
		if ok, err := path.Match(pattern[0], segs[0]); err != nil || !ok {
			return false
		}
		pattern, segs = pattern[1:], segs[1:]
	}
	return len(segs) == 0
}
