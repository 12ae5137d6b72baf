package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// CoverageFormat represents a coverage report format.
	CoverageFormat string

	// DatabaseBackend represents the database backend for caching.
	DatabaseBackend string
)

// All output modes supported.
const (
	CSVOut      OutputMode = "csv"
	TextOut     OutputMode = "text" // default
	JSONOut     OutputMode = "json"
	MarkdownOut OutputMode = "markdown"
	HTMLOut     OutputMode = "html"
	ParquetOut  OutputMode = "parquet"
)

// All coverage formats supported.
const (
	AutoFormat       CoverageFormat = "auto" // default
	CoberturaFormat  CoverageFormat = "cobertura"
	JaCoCoFormat     CoverageFormat = "jacoco"
	GoCoverFormat    CoverageFormat = "gocover"
	CoveragePyFormat CoverageFormat = "coveragepy"
	GcovrFormat      CoverageFormat = "gcovr"
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:      {},
	TextOut:     {},
	JSONOut:     {},
	MarkdownOut: {},
	HTMLOut:     {},
	ParquetOut:  {},
}

// ValidCoverageFormats lists all valid coverage formats.
var ValidCoverageFormats = map[CoverageFormat]struct{}{
	AutoFormat:       {},
	CoberturaFormat:  {},
	JaCoCoFormat:     {},
	GoCoverFormat:    {},
	CoveragePyFormat: {},
	GcovrFormat:      {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// DefaultSrcRoots are tried in order when a coverage path does not match the diff directly.
var DefaultSrcRoots = []string{"src/main/java", "src/test/java"}

// DefaultCompareBranch is the branch the working tree is diffed against.
const DefaultCompareBranch = "origin/master"
