package parser

import (
	"errors"
	"fmt"
)

// Column names accepted in TablePolicy.Columns.
const (
	ColumnReason = "reason"
	ColumnOrigin = "origin"
	ColumnAction = "action"
	ColumnCount  = "count"
)

const (
	defaultSkipLines       = 2
	defaultDelimiter       = "|"
	defaultStripPrefix     = "crowdsecurity/"
	defaultSeparatorMarker = "----"
)

var (
	// ErrInvalidDelimiter is returned when the column delimiter is empty.
	ErrInvalidDelimiter = errors.New("table delimiter must not be empty")

	// ErrInvalidSkipLines is returned when the header offset is negative.
	ErrInvalidSkipLines = errors.New("table skip_lines must not be negative")

	// ErrInvalidColumns is returned when the column order is not a permutation of the known columns.
	ErrInvalidColumns = errors.New("table columns must list reason, origin, action and count exactly once")
)

// TablePolicy describes how the security agent's metrics table is laid out.
// The column order is a contract with the upstream tool, so it is configured
// rather than detected.
type TablePolicy struct {
	SkipLines       int      `yaml:"skip_lines"`
	Delimiter       string   `yaml:"delimiter"`
	Columns         []string `yaml:"columns"`
	StripPrefix     string   `yaml:"strip_prefix"`
	SeparatorMarker string   `yaml:"separator_marker"`
}

// DefaultTablePolicy returns the layout produced by `cscli metrics`.
func DefaultTablePolicy() TablePolicy {
	return TablePolicy{
		SkipLines:       defaultSkipLines,
		Delimiter:       defaultDelimiter,
		Columns:         []string{ColumnReason, ColumnOrigin, ColumnAction, ColumnCount},
		StripPrefix:     defaultStripPrefix,
		SeparatorMarker: defaultSeparatorMarker,
	}
}

// Validate checks that the policy can be applied to a table.
func (p TablePolicy) Validate() error {
	if p.SkipLines < 0 {
		return ErrInvalidSkipLines
	}
	if p.Delimiter == "" {
		return ErrInvalidDelimiter
	}
	if _, err := p.columnIndexes(); err != nil {
		return err
	}
	return nil
}

// columnIndexes maps each known column to its position in a row.
type columnIndexes struct {
	reason, origin, action, count int
}

func (p TablePolicy) columnIndexes() (columnIndexes, error) {
	const knownColumns = 4
	if len(p.Columns) != knownColumns {
		return columnIndexes{}, fmt.Errorf("%w: got %d columns", ErrInvalidColumns, len(p.Columns))
	}

	idx := columnIndexes{reason: -1, origin: -1, action: -1, count: -1}
	for pos, name := range p.Columns {
		var slot *int
		switch name {
		case ColumnReason:
			slot = &idx.reason
		case ColumnOrigin:
			slot = &idx.origin
		case ColumnAction:
			slot = &idx.action
		case ColumnCount:
			slot = &idx.count
		default:
			return columnIndexes{}, fmt.Errorf("%w: unknown column %q", ErrInvalidColumns, name)
		}
		if *slot != -1 {
			return columnIndexes{}, fmt.Errorf("%w: duplicate column %q", ErrInvalidColumns, name)
		}
		*slot = pos
	}

	return idx, nil
}
