package dbf

import "time"

// FieldSpec overrides the descriptor the writer derives for a column.
type FieldSpec struct {
	Type     FieldType
	Length   int
	Decimals int
}

// Options holds the optional parameters for reading and writing table
// files.
type Options struct {
	// Encoding names the charset of character data, e.g. "gbk". Empty
	// means ASCII with an ISO-8859-1 fallback.
	Encoding string

	// Logger receives recovery and diagnostic messages.
	Logger Logger

	// Recovery configures the fallback parser.
	Recovery RecoveryPolicy

	// FieldSpecs maps column names to explicit field specifications.
	FieldSpecs map[string]FieldSpec

	// ModTime is stored as the last-modified date. Defaults to now.
	ModTime time.Time

	// ReadOnly opens files for reading only; Append then fails.
	ReadOnly bool
}

// EnsureDefaults ensures that the default values for all options are set if
// a valid value was not already specified. Returns the new options.
func (o *Options) EnsureDefaults() *Options {
	if o == nil {
		o = &Options{}
	}
	if o.Logger == nil {
		o.Logger = DefaultLogger{}
	}
	o.Recovery.EnsureDefaults()
	return o
}

func (o *Options) modTime() time.Time {
	if o.ModTime.IsZero() {
		return time.Now()
	}
	return o.ModTime
}
