// flags.go defines constants for all CLI flag names.
//
// Naming convention: Flag<PascalCaseName> where name matches the kebab-case
// CLI flag (e.g., "dry-run" -> FlagDryRun).

package extension

// Flag name constants for CLI commands.
const (
	// Boolean flags

	FlagAll        = "all"        // Replace every occurrence
	FlagDiff       = "diff"       // Show diff output
	FlagLocal      = "local"      // Use local scope (gitignored)
	FlagLong       = "long"       // Long format output
	FlagNumber     = "number"     // Number output lines
	FlagRaw        = "raw"        // Raw output without formatting
	FlagReferences = "references" // Also remove the references section
	FlagReverse    = "reverse"    // Reverse sort order

	// String flags

	FlagAnchor   = "anchor"   // Anchor text or section title for insert
	FlagBase     = "base"     // Expected current version id
	FlagFile     = "file"     // Read content from a filesystem file
	FlagLines    = "lines"    // Line range specification (e.g., "10:20")
	FlagPosition = "position" // Insert position
	FlagSort     = "sort"     // Sort field
	FlagStep     = "step"     // Plan step as "title" or "title: description"
	FlagTitle    = "title"    // Document or plan title
	FlagVersions = "versions" // Version range (e.g., "3:5")

	// Integer flags

	FlagLimit   = "limit"   // Limit number of results
	FlagLine    = "line"    // 0-based line number
	FlagVersion = "version" // Specific version number
)
