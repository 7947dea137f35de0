// patch.go wraps diff-match-patch patches.
//
// A patch records each change together with surrounding context instead of
// absolute offsets, so it can be applied to a base that differs slightly
// from the text it was made against. Each hunk reports whether it applied.

package diff

import "github.com/sergi/go-diff/diffmatchpatch"

// Patch is a reusable set of hunks decoupled from a specific base string.
type Patch struct {
	hunks []diffmatchpatch.Patch
}

// MakePatch builds a patch that turns oldText into newText.
func MakePatch(oldText, newText string) Patch {
	dmp := diffmatchpatch.New()
	return Patch{hunks: dmp.PatchMake(oldText, newText)}
}

// Apply applies the patch to base.
func (p Patch) Apply(base string) (string, []bool) {
	if len(p.hunks) == 0 {
		return base, nil
	}
	dmp := diffmatchpatch.New()
	return dmp.PatchApply(p.hunks, base)
}

// Len returns the number of hunks.
func (p Patch) Len() int { return len(p.hunks) }

// AllApplied reports whether every hunk applied.
func AllApplied(flags []bool) bool {
	for _, ok := range flags {
		if !ok {
			return false
		}
	}
	return true
}
