// Package changes extracts the lines added by a unified diff.
package changes

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/huangsam/diffcover/schema"
	"github.com/sourcegraph/go-diff/diff"
)

const devNull = "/dev/null"

// ParseUnifiedDiff parses unified diff text, as printed by git diff, into
// changed files keyed by their path in the new revision. Empty input yields an
// empty map.
func ParseUnifiedDiff(text []byte) (map[string]schema.ChangedFile, error) {
	files := make(map[string]schema.ChangedFile)
	if len(bytes.TrimSpace(text)) == 0 {
		return files, nil
	}

	fileDiffs, err := diff.ParseMultiFileDiff(text)
	if err != nil {
		return nil, fmt.Errorf("could not parse diff output: %w", err)
	}

	for _, fd := range fileDiffs {
		cf, ok := changedFileFrom(fd)
		if !ok {
			continue
		}
		files[cf.Path] = mergeChangedFile(files[cf.Path], cf)
	}
	return files, nil
}

// changedFileFrom converts one file section. The boolean is false for
// sections that name no file.
func changedFileFrom(fd *diff.FileDiff) (schema.ChangedFile, bool) {
	origName := stripPrefix(fd.OrigName, "a/")
	newName := stripPrefix(fd.NewName, "b/")

	cf := schema.ChangedFile{
		IsNewFile: origName == devNull,
		IsDeleted: newName == devNull,
	}
	switch {
	case cf.IsDeleted:
		cf.Path = origName
	default:
		cf.Path = newName
	}
	if cf.Path == "" || cf.Path == devNull {
		return cf, false
	}
	if cf.IsDeleted {
		return cf, true
	}

	for _, h := range fd.Hunks {
		cf.AddedLines = append(cf.AddedLines, addedLines(h)...)
	}
	cf.AddedLines = normalizeLines(cf.AddedLines)
	return cf, true
}

// addedLines walks a hunk body and returns the new-file line numbers of its
// '+' lines. Context lines advance the counter and '-' lines do not.
func addedLines(h *diff.Hunk) []int {
	var lines []int
	line := int(h.NewStartLine)
	for raw := range bytes.SplitSeq(h.Body, []byte{'\n'}) {
		if len(raw) == 0 {
			continue
		}
		switch raw[0] {
		case '+':
			lines = append(lines, line)
			line++
		case ' ':
			line++
		case '-', '\\':
			// Removed lines and "\ No newline at end of file" markers do not exist in the new file
		}
	}
	return lines
}

// stripPrefix removes git's a/ or b/ prefix and surrounding quotes.
func stripPrefix(name, prefix string) string {
	name = strings.Trim(strings.TrimSpace(name), `"`)
	if name == devNull {
		return name
	}
	return strings.TrimPrefix(name, prefix)
}

// normalizeLines sorts and de-duplicates line numbers, dropping non-positive ones.
func normalizeLines(lines []int) []int {
	lines = slices.DeleteFunc(lines, func(n int) bool { return n <= 0 })
	slices.Sort(lines)
	return slices.Compact(lines)
}

// mergeChangedFile combines two observations of the same path. Added lines are
// unioned and IsNewFile is sticky. IsDeleted follows next, unless next is a
// deletion that carries no information about added lines in a later revision.
func mergeChangedFile(prev, next schema.ChangedFile) schema.ChangedFile {
	if prev.Path == "" {
		return next
	}
	merged := schema.ChangedFile{
		Path:      next.Path,
		IsNewFile: prev.IsNewFile || next.IsNewFile,
		IsDeleted: next.IsDeleted,
	}
	if !merged.IsDeleted {
		merged.AddedLines = normalizeLines(slices.Concat(prev.AddedLines, next.AddedLines))
	}
	return merged
}

// Union merges changed file sets in order, so later sets describe later states of the tree.
func Union(sets ...map[string]schema.ChangedFile) map[string]schema.ChangedFile {
	out := make(map[string]schema.ChangedFile)
	for _, set := range sets {
		for p, cf := range set {
			out[p] = mergeChangedFile(out[p], cf)
		}
	}
	return out
}
