package config

import (
	"os"
	"strconv"
	"strings"

	dbf "github.com/actuaria/dbfkit"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds settings read from the environment.
type Config struct {
	Encoding           string
	RecoveryMaxRecords int
	FieldSpecsPath     string
}

// LoadConfig loads .env (if present) into the environment and reads the
// DBF_* variables. Variables already set in the environment win.
func LoadConfig() (Config, error) {
	_ = godotenv.Load(".env")
	cfg := Config{
		Encoding:       os.Getenv("DBF_ENCODING"),
		FieldSpecsPath: os.Getenv("DBF_FIELD_SPECS"),
	}
	if s := os.Getenv("DBF_RECOVERY_MAX_RECORDS"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return cfg, dbf.ValidationErrorf("config: DBF_RECOVERY_MAX_RECORDS=%q is not a positive integer", s)
		}
		cfg.RecoveryMaxRecords = n
	}
	return cfg, nil
}

// Options converts the configuration into table options, loading the
// field specification file when one is configured.
func (c Config) Options() (*dbf.Options, error) {
	opts := &dbf.Options{
		Encoding: c.Encoding,
		Recovery: dbf.RecoveryPolicy{MaxRecords: c.RecoveryMaxRecords},
	}
	if c.FieldSpecsPath != "" {
		specs, err := LoadFieldSpecs(c.FieldSpecsPath)
		if err != nil {
			return nil, err
		}
		opts.FieldSpecs = specs
	}
	return opts.EnsureDefaults(), nil
}

type fieldSpec struct {
	Type    string `yaml:"type"`
	Length  int    `yaml:"length"`
	Decimal int    `yaml:"decimal"`
}

// LoadFieldSpecs reads a YAML (or JSON) mapping of column names to
// {type, length, decimal}.
func LoadFieldSpecs(path string) (map[string]dbf.FieldSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Mark(errors.Wrapf(err, "config: read %s", path), dbf.ErrNotFound)
		}
		return nil, errors.Wrapf(err, "config: read %s", path)
	}
	return ParseFieldSpecs(data)
}

// ParseFieldSpecs parses the contents of a field specification file.
func ParseFieldSpecs(data []byte) (map[string]dbf.FieldSpec, error) {
	var raw map[string]fieldSpec
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "config: parse field specs"), dbf.ErrValidation)
	}
	specs := make(map[string]dbf.FieldSpec, len(raw))
	for name, s := range raw {
		t := strings.ToUpper(strings.TrimSpace(s.Type))
		if len(t) != 1 || !dbf.FieldType(t[0]).Known() {
			return nil, dbf.ValidationErrorf("config: field %s: unknown type %q", name, s.Type)
		}
		if s.Length < 1 || s.Length > 255 {
			return nil, dbf.ValidationErrorf("config: field %s: length %d out of range [1, 255]", name, s.Length)
		}
		if s.Decimal < 0 || s.Decimal >= s.Length {
			return nil, dbf.ValidationErrorf("config: field %s: decimal %d out of range", name, s.Decimal)
		}
		specs[name] = dbf.FieldSpec{Type: dbf.FieldType(t[0]), Length: s.Length, Decimals: s.Decimal}
	}
	return specs, nil
}
