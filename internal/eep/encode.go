package eep

import (
	"math"

	"github.com/dduransseau/enocean2mqtt/internal/apperrors"
	"github.com/dduransseau/enocean2mqtt/internal/esp3"
)

// Encode resolves a FunctionGroup for (command, direction) and writes values
// into a freshly allocated payload/status pair sized to the group's bit width.
//
// When the profile declares a command enum and the caller did not pass an
// explicit command, the CMD entry in values (its string description or raw
// int) is resolved and used instead, per the inbound contract where the
// command selector travels as the first field of the request payload.
func (p *Profile) Encode(values map[string]interface{}, command, direction *int) (payload []byte, status byte, err error) {
	if command == nil && p.Command != nil {
		if v, ok := values[ShortcutCommand]; ok {
			raw, err := resolveCommandRaw(v, p.Command)
			if err != nil {
				return nil, 0, err
			}
			cmd := int(raw)
			command = &cmd
		}
	}
	fg, err := p.GetTelegramForm(command, direction)
	if err != nil {
		return nil, 0, err
	}
	payload = make([]byte, (fg.Bits+7)/8)
	if err := fg.SetValues(payload, &status, values, p.Command); err != nil {
		return nil, 0, err
	}
	return payload, status, nil
}

// SetValues writes values (keyed by field shortcut) into payload and status
// according to the group's field declarations. CMD field values are matched
// against commandEnum's descriptions (or accepted as a raw int) when
// commandEnum is non-nil.
//
// Value fields accept any numeric value, are inverse-scaled through the
// field's linear range/scale mapping, and truncated to an integer raw code
// (after allowing for the 3-decimal rounding that decoding applies).
// Enum fields accept either the item's raw int or its description string.
func (g *FunctionGroup) SetValues(payload []byte, status *byte, values map[string]interface{}, commandEnum *CommandEnum) error {
	for _, f := range g.Fields {
		v, ok := values[f.Shortcut]
		if !ok {
			continue
		}
		if commandEnum != nil && f.Shortcut == ShortcutCommand {
			raw, err := resolveCommandRaw(v, commandEnum)
			if err != nil {
				return err
			}
			if err := esp3.SetBits(payload, f.Offset, f.Size, raw); err != nil {
				return apperrors.Wrap(err, apperrors.CodeOutOfRangeRaw, "command field "+f.Shortcut)
			}
			continue
		}
		if err := setField(f, payload, status, v); err != nil {
			return err
		}
	}
	return nil
}

func setField(f Field, payload []byte, status *byte, v interface{}) error {
	switch f.Kind {
	case FieldStatus:
		raw, err := boolOrIntToRaw(v)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeOutOfRangeRaw, "status field "+f.Shortcut)
		}
		updated, err := esp3.SetBitsToByte(*status, f.Offset, raw, f.Size)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeOutOfRangeRaw, "status field "+f.Shortcut)
		}
		*status = updated
		return nil

	case FieldValue:
		n, err := toFloat64(v)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeOutOfRangeRaw, "value field "+f.Shortcut)
		}
		raw := inverseScale(f, n)
		if err := esp3.SetBits(payload, f.Offset, f.Size, raw); err != nil {
			return apperrors.Wrap(err, apperrors.CodeOutOfRangeRaw, "value field "+f.Shortcut)
		}
		return nil

	case FieldEnum:
		raw, err := resolveEnumRaw(f, v)
		if err != nil {
			return err
		}
		if err := esp3.SetBits(payload, f.Offset, f.Size, raw); err != nil {
			return apperrors.Wrap(err, apperrors.CodeOutOfRangeRaw, "enum field "+f.Shortcut)
		}
		return nil
	}
	return nil
}

func inverseScale(f Field, scaled float64) uint64 {
	if f.Multiplier == 0 {
		return uint64(scaled)
	}
	raw := (scaled-f.ScaleMin)/f.Multiplier + f.RangeMin
	// Decoded values are rounded to 3 decimals, which can leave this inverse
	// a fraction below the raw code they came from; allow for that rounding
	// before truncating so a decoded value re-encodes to its own raw code.
	raw += 0.0005 / math.Abs(f.Multiplier)
	if raw < 0 {
		raw = 0
	}
	return uint64(raw)
}

func resolveEnumRaw(f Field, v interface{}) (uint64, error) {
	switch val := v.(type) {
	case string:
		for _, it := range f.Items {
			if it.Description == val {
				return uint64(it.Value), nil
			}
		}
		return 0, apperrors.New(apperrors.CodeInvalidEnumValue, "no enum item "+val+" for field "+f.Shortcut)
	default:
		n, err := toFloat64(v)
		if err != nil {
			return 0, apperrors.Wrap(err, apperrors.CodeInvalidEnumValue, "enum field "+f.Shortcut)
		}
		return uint64(n), nil
	}
}

func resolveCommandRaw(v interface{}, commandEnum *CommandEnum) (uint64, error) {
	switch val := v.(type) {
	case string:
		item := commandEnum.GetByDescription(val)
		if item == nil {
			return 0, apperrors.New(apperrors.CodeInvalidEnumValue, "no command "+val)
		}
		return uint64(item.Value), nil
	default:
		n, err := toFloat64(v)
		if err != nil {
			return 0, apperrors.Wrap(err, apperrors.CodeInvalidEnumValue, "command value")
		}
		return uint64(n), nil
	}
}

func boolOrIntToRaw(v interface{}) (uint8, error) {
	if b, ok := v.(bool); ok {
		if b {
			return 1, nil
		}
		return 0, nil
	}
	n, err := toFloat64(v)
	if err != nil {
		return 0, err
	}
	return uint8(n), nil
}

func toFloat64(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	default:
		return 0, apperrors.New(apperrors.CodeOutOfRangeRaw, "value is not numeric")
	}
}
