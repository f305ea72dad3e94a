package eep

import (
	"math"

	"github.com/dduransseau/enocean2mqtt/internal/esp3"
)

// DecodedField is one output record from FunctionGroup.GetValues: a decoded
// (shortcut, value) pair plus its raw bits and metadata.
type DecodedField struct {
	Shortcut    string
	Description string
	Unit        string
	Value       interface{}
	RawValue    uint64
	IsStatus    bool
}

// Decode resolves a FunctionGroup for (command, direction) and decodes
// payload/status against it, substituting the profile's own command enum
// for the CMD field if the group declares one.
func (p *Profile) Decode(payload []byte, status byte, command, direction *int) ([]DecodedField, error) {
	fg, err := p.GetTelegramForm(command, direction)
	if err != nil {
		return nil, err
	}
	return fg.GetValues(payload, status, true, p.Command), nil
}

// GetValues decodes payload (the radio telegram's data bytes, with rorg and
// trailing sender/status stripped by the caller) and status (the telegram's
// status byte) against the group's fields.
//
// When globalProcess is true, a lone MUL/DIV field scales every value field
// in the group, and a lone UNIT field supplies the unit string attached to
// them; both driver fields are still decoded normally like any other field.
// commandEnum, if non-nil, resolves the CMD field's integer payload to the
// declared command's description. Output order follows g.Fields; a group
// built by LoadXML holds its status fields first, then its value fields,
// then its enum fields, each kind in XML order, so fields of different kinds
// do not keep their interleaved XML order.
func (g *FunctionGroup) GetValues(payload []byte, status byte, globalProcess bool, commandEnum *CommandEnum) []DecodedField {
	factor := 1.0
	unit := ""

	if globalProcess {
		if op := g.soleOperatorField(); op != nil {
			raw := op.ParseRaw(payload)
			if op.Shortcut == ShortcutDivisor {
				if raw != 0 {
					factor = 1 / float64(raw)
				}
			} else {
				factor = float64(raw)
			}
		}
		if u := g.soleUnitField(); u != nil {
			unit = decodeUnit(*u, payload)
		}
	}

	suppressTemperature := false
	suppressHumidity := false
	for _, f := range g.Fields {
		if f.Shortcut == ShortcutTemperatureFlag && f.ParseRaw(payload) == 0 {
			suppressTemperature = true
		}
		if f.Shortcut == ShortcutHumidityFlag && f.ParseRaw(payload) == 0 {
			suppressHumidity = true
		}
	}

	var out []DecodedField
	for _, f := range g.Fields {
		if suppressTemperature && (f.Shortcut == ShortcutTemperatureFlag || f.Shortcut == ShortcutTemperature) {
			continue
		}
		if suppressHumidity && (f.Shortcut == ShortcutHumidityFlag || f.Shortcut == ShortcutHumidity) {
			continue
		}
		if commandEnum != nil && f.Shortcut == ShortcutCommand {
			out = append(out, decodeCommandField(f, payload, commandEnum))
			continue
		}
		out = append(out, decodeField(f, payload, status, factor, unit))
	}
	return out
}

func (g *FunctionGroup) soleOperatorField() *Field {
	var found *Field
	count := 0
	for i := range g.Fields {
		if g.Fields[i].Shortcut == ShortcutMultiplier || g.Fields[i].Shortcut == ShortcutDivisor {
			found = &g.Fields[i]
			count++
		}
	}
	if count == 1 {
		return found
	}
	return nil
}

func (g *FunctionGroup) soleUnitField() *Field {
	var found *Field
	count := 0
	for i := range g.Fields {
		if g.Fields[i].Shortcut == ShortcutUnit {
			found = &g.Fields[i]
			count++
		}
	}
	if count == 1 {
		return found
	}
	return nil
}

func decodeUnit(f Field, payload []byte) string {
	if f.Kind != FieldEnum {
		return ""
	}
	raw := int(f.ParseRaw(payload))
	return findEnumDescription(f, raw)
}

func findEnumDescription(f Field, raw int) string {
	if item := findDiscreteItem(f, raw); item != nil {
		return item.Description
	}
	if r := findRangeItem(f, raw); r != nil {
		return r.Description
	}
	return ""
}

func decodeCommandField(f Field, payload []byte, commandEnum *CommandEnum) DecodedField {
	raw := f.ParseRaw(payload)
	item := commandEnum.Get(int(raw))
	value := ""
	if item != nil {
		value = item.Description
	}
	return DecodedField{
		Shortcut: ShortcutCommand,
		Value:    value,
		RawValue: raw,
	}
}

func decodeField(f Field, payload []byte, status byte, factor float64, unit string) DecodedField {
	switch f.Kind {
	case FieldStatus:
		raw := esp3.GetBitsFromByte(status, f.Offset, f.Size)
		return DecodedField{
			Shortcut:    f.Shortcut,
			Description: f.Description,
			Unit:        f.Unit,
			Value:       raw != 0,
			RawValue:    uint64(raw),
			IsStatus:    true,
		}
	case FieldValue:
		raw := f.ParseRaw(payload)
		scaled := f.Multiplier*(float64(raw)-f.RangeMin) + f.ScaleMin
		scaled *= factor
		scaled = roundTo(scaled, 3)
		fieldUnit := f.Unit
		if fieldUnit == "" {
			fieldUnit = unit
		}
		return DecodedField{
			Shortcut:    f.Shortcut,
			Description: f.Description,
			Unit:        fieldUnit,
			Value:       scaled,
			RawValue:    raw,
		}
	case FieldEnum:
		raw := int(f.ParseRaw(payload))
		var value interface{}
		description := ""
		if item := findDiscreteItem(f, raw); item != nil {
			description = item.Description
			value = item.Description
		} else if r := findRangeItem(f, raw); r != nil {
			description = r.Description
			value = float64(raw) * r.Multiplier
		}
		return DecodedField{
			Shortcut:    f.Shortcut,
			Description: description,
			Unit:        f.Unit,
			Value:       value,
			RawValue:    uint64(raw),
		}
	}
	return DecodedField{Shortcut: f.Shortcut}
}

func findDiscreteItem(f Field, raw int) *EnumItem {
	for i := range f.Items {
		if f.Items[i].Value == raw {
			return &f.Items[i]
		}
	}
	return nil
}

func findRangeItem(f Field, raw int) *EnumRangeItem {
	for i := range f.RangeItems {
		if f.RangeItems[i].Contains(raw) {
			return &f.RangeItems[i]
		}
	}
	return nil
}

func roundTo(v float64, places int) float64 {
	mult := math.Pow(10, float64(places))
	return math.Round(v*mult) / mult
}
