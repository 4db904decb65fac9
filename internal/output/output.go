// Package output renders CLI results as tables, JSON or compact lines.
package output

import (
	"os"
	"strings"
)

// EnvOutput selects the default format when no flag is given.
const EnvOutput = "PROTODO_OUTPUT"

// Format is an output format.
type Format int

const (
	FormatAuto Format = iota
	FormatJSON
	FormatTable
	FormatCompact
)

var formatNames = map[string]Format{
	"json":    FormatJSON,
	"table":   FormatTable,
	"compact": FormatCompact,
	"oneline": FormatCompact,
}

// ParseFormat maps a format name to a Format. Unknown names yield FormatAuto.
func ParseFormat(name string) Format {
	return formatNames[strings.ToLower(strings.TrimSpace(name))]
}

// Detect picks the format from flags, then PROTODO_OUTPUT, then table.
// --json beats --compact beats --table.
func Detect(jsonFlag, tableFlag, compactFlag bool) Format {
	switch {
	case jsonFlag:
		return FormatJSON
	case compactFlag:
		return FormatCompact
	case tableFlag:
		return FormatTable
	}
	if f := ParseFormat(os.Getenv(EnvOutput)); f != FormatAuto {
		return f
	}
	return FormatTable
}
