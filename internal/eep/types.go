// Package eep implements the EnOcean Equipment Profile catalogue: loading
// the (RORG, FUNC, TYPE) telegram grammar from XML and decoding/encoding
// radio payloads against it.
package eep

import "github.com/dduransseau/enocean2mqtt/internal/esp3"

// FieldKind selects a Field's decode/encode behaviour, mirroring the XML
// element it was parsed from (<status>, <value>, <enum>).
type FieldKind uint8

const (
	FieldStatus FieldKind = iota
	FieldValue
	FieldEnum
)

// Shortcuts with conventional meaning used by the decode pipeline.
const (
	ShortcutCommand         = "CMD"
	ShortcutMultiplier      = "MUL"
	ShortcutDivisor         = "DIV"
	ShortcutUnit            = "UNIT"
	ShortcutTemperatureFlag = "TSN"
	ShortcutHumidityFlag    = "HSN"
	ShortcutTemperature     = "TMP"
	ShortcutHumidity        = "HUM"
)

// EnumItem is a single discrete (value -> description) mapping inside an
// <enum>'s <item> elements.
type EnumItem struct {
	Value       int
	Description string
}

// EnumRangeItem is a <rangeitem>: either a plain [Start, End] integer band,
// or (when Scaled is true) a band with its own linear range->scale map.
type EnumRangeItem struct {
	Start, End int
	Description string

	Scaled     bool
	RangeMin   float64
	RangeMax   float64
	ScaleMin   float64
	ScaleMax   float64
	Multiplier float64
}

// Contains reports whether raw falls within [Start, End].
func (r EnumRangeItem) Contains(raw int) bool { return raw >= r.Start && raw <= r.End }

// Field is one decoded/encoded element of a FunctionGroup: a <status>,
// <value>, or <enum> entry from the profile's XML.
type Field struct {
	Kind        FieldKind
	Description string
	Shortcut    string
	Offset      int
	Size        int
	Unit        string

	// FieldValue only.
	RangeMin, RangeMax float64
	ScaleMin, ScaleMax float64
	Multiplier         float64

	// FieldEnum only.
	Items      []EnumItem
	RangeItems []EnumRangeItem
}

// ParseRaw extracts the field's raw integer out of the documentation-numbered
// bit range [Offset, Offset+Size) of buf.
func (f Field) ParseRaw(buf []byte) uint64 {
	return esp3.GetBits(buf, f.Offset, f.Size)
}

// FunctionGroup is one <data command? direction?> block: a set of fields
// sharing a payload layout, keyed by an optional command id and direction.
type FunctionGroup struct {
	Command   *int
	Direction *int
	Bits      int
	Fields    []Field
}

// FieldByShortcut returns the field with the given shortcut, or nil.
func (g *FunctionGroup) FieldByShortcut(shortcut string) *Field {
	for i := range g.Fields {
		if g.Fields[i].Shortcut == shortcut {
			return &g.Fields[i]
		}
	}
	return nil
}

// Profile is one <profile type="..."> element: an EEP (RORG, FUNC, TYPE)
// telegram grammar, optionally declaring a command enum and one or more
// FunctionGroups keyed by (command, direction).
type Profile struct {
	RORG        esp3.RORG
	Func        uint8
	Type        uint8
	Description string

	Command *CommandEnum
	Data    map[dataKey]*FunctionGroup
}

// CommandEnum is the profile's <command> declaration: the discrete values
// the first payload byte (or designated command field) may take.
type CommandEnum struct {
	Shortcut string
	Items    []EnumItem
}

// Get returns the command item whose value matches, or nil.
func (c *CommandEnum) Get(value int) *EnumItem {
	for i := range c.Items {
		if c.Items[i].Value == value {
			return &c.Items[i]
		}
	}
	return nil
}

// GetByDescription returns the command item with the given description, or nil.
func (c *CommandEnum) GetByDescription(description string) *EnumItem {
	for i := range c.Items {
		if c.Items[i].Description == description {
			return &c.Items[i]
		}
	}
	return nil
}

type dataKey struct {
	command   int
	direction int
	hasCmd    bool
	hasDir    bool
}

// Code returns the profile's canonical "RR-FF-TT" hex identifier.
func (p *Profile) Code() string {
	return formatHex(uint8(p.RORG)) + "-" + formatHex(p.Func) + "-" + formatHex(p.Type)
}

func formatHex(b uint8) string {
	const hexDigits = "0123456789ABCDEF"
	return string([]byte{hexDigits[b>>4], hexDigits[b&0xF]})
}
