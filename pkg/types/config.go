package types

// MatchConfig holds settings for deciding whether two records under
// different keys describe the same work.
type MatchConfig struct {
	// IdentifierFields lists the strong-identifier fields checked first
	// (default ["doi"]).
	IdentifierFields []string `json:"identifier_fields" yaml:"identifier_fields" mapstructure:"identifier_fields"`

	// NormalizeAuthorTitle compares author and title with the normalizer in
	// the author/title rule. The default (false) keeps the legacy byte
	// equality.
	NormalizeAuthorTitle bool `json:"normalize_author_title" yaml:"normalize_author_title" mapstructure:"normalize_author_title"`
}

// DefaultIdentifierFields is the identifier set used when none is configured.
var DefaultIdentifierFields = []string{FieldDOI}

// Identifiers returns the configured identifier fields, or the defaults.
func (c MatchConfig) Identifiers() []string {
	if len(c.IdentifierFields) == 0 {
		return DefaultIdentifierFields
	}
	return c.IdentifierFields
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is the minimum level written: debug, info, warn or error
	// (default warn).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format selects console or json output (default console).
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// IndexConfig holds settings for the SQLite alias index.
type IndexConfig struct {
	// Path is the database file. Empty disables indexing on merge.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// OutputFormat selects an export format for the alias index.
type OutputFormat string

const (
	OutputYAML OutputFormat = "yaml"
	OutputJSON OutputFormat = "json"
	OutputCSL  OutputFormat = "csl"
)

// Config groups all bibmerge settings.
type Config struct {
	Match MatchConfig `json:"match" yaml:"match" mapstructure:"match"`
	Log   LogConfig   `json:"log" yaml:"log" mapstructure:"log"`
	Index IndexConfig `json:"index" yaml:"index" mapstructure:"index"`
}
