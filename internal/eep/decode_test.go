package eep

import (
	"testing"

	"github.com/dduransseau/enocean2mqtt/internal/esp3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S5 — operator + unit composition: one DIV field (raw=2), one unit field
// ("m/s"), one value field (raw=100, linear range 0..200 -> scale 0..200)
// whose final value is divided by the DIV factor.
func TestGetValuesOperatorAndUnitComposition(t *testing.T) {
	div := Field{Kind: FieldValue, Shortcut: ShortcutDivisor, Offset: 0, Size: 8, Multiplier: 1}
	unit := Field{
		Kind: FieldEnum, Shortcut: ShortcutUnit, Offset: 8, Size: 8,
		Items: []EnumItem{{Value: 1, Description: "m/s"}},
	}
	value := Field{
		Kind: FieldValue, Shortcut: "SPD", Offset: 16, Size: 8,
		RangeMin: 0, RangeMax: 200, ScaleMin: 0, ScaleMax: 200, Multiplier: 1,
	}
	fg := &FunctionGroup{Bits: 24, Fields: []Field{div, unit, value}}

	payload := make([]byte, 3)
	require.NoError(t, setRaw(payload, div, 2))
	require.NoError(t, setRaw(payload, unit, 1))
	require.NoError(t, setRaw(payload, value, 100))

	out := fg.GetValues(payload, 0, true, nil)
	spd := findDecoded(out, "SPD")
	require.NotNil(t, spd)
	assert.Equal(t, 50.0, spd.Value)
	assert.Equal(t, "m/s", spd.Unit)
}

// S6 — HSN=0 suppresses HUM and HSN itself from the output.
func TestGetValuesAvailabilitySuppression(t *testing.T) {
	hsn := Field{Kind: FieldValue, Shortcut: ShortcutHumidityFlag, Offset: 0, Size: 8, Multiplier: 1}
	hum := Field{
		Kind: FieldValue, Shortcut: ShortcutHumidity, Offset: 8, Size: 8,
		RangeMin: 0, RangeMax: 255, ScaleMin: 0, ScaleMax: 100, Multiplier: 100.0 / 255,
	}
	other := Field{Kind: FieldValue, Shortcut: "OTH", Offset: 16, Size: 8, Multiplier: 1}
	fg := &FunctionGroup{Bits: 24, Fields: []Field{hsn, hum, other}}

	payload := make([]byte, 3)
	require.NoError(t, setRaw(payload, hsn, 0))
	require.NoError(t, setRaw(payload, hum, 128))
	require.NoError(t, setRaw(payload, other, 5))

	out := fg.GetValues(payload, 0, true, nil)
	assert.Nil(t, findDecoded(out, ShortcutHumidityFlag))
	assert.Nil(t, findDecoded(out, ShortcutHumidity))
	assert.NotNil(t, findDecoded(out, "OTH"))
}

func TestGetValuesCommandFieldSynthesis(t *testing.T) {
	cmdField := Field{Kind: FieldValue, Shortcut: ShortcutCommand, Offset: 0, Size: 4, Multiplier: 1}
	fg := &FunctionGroup{Bits: 4, Fields: []Field{cmdField}}
	commandEnum := &CommandEnum{Shortcut: "CMD", Items: []EnumItem{
		{Value: 1, Description: "on"},
		{Value: 2, Description: "off"},
	}}

	payload := []byte{0x10} // raw=1 in top nibble
	out := fg.GetValues(payload, 0, true, commandEnum)
	cmd := findDecoded(out, ShortcutCommand)
	require.NotNil(t, cmd)
	assert.Equal(t, "on", cmd.Value)
	assert.Equal(t, uint64(1), cmd.RawValue)
}

func TestGetValuesEnumDiscreteAndRange(t *testing.T) {
	discrete := Field{
		Kind: FieldEnum, Shortcut: "BTN", Offset: 0, Size: 4,
		Items: []EnumItem{{Value: 3, Description: "button_a"}},
	}
	rng := Field{
		Kind: FieldEnum, Shortcut: "LVL", Offset: 4, Size: 4,
		RangeItems: []EnumRangeItem{{Start: 0, End: 15, Description: "dimmer", Multiplier: 2}},
	}
	fg := &FunctionGroup{Bits: 8, Fields: []Field{discrete, rng}}

	payload := []byte{0x35} // BTN=3, LVL=5
	out := fg.GetValues(payload, 0, false, nil)
	btn := findDecoded(out, "BTN")
	require.NotNil(t, btn)
	assert.Equal(t, "button_a", btn.Value)

	lvl := findDecoded(out, "LVL")
	require.NotNil(t, lvl)
	assert.Equal(t, 10.0, lvl.Value)
}

// Invariant #3: for a Value field with integer raw r in [range_min, range_max],
// encode(decode(r)) == r.
func TestValueFieldRoundTripsIntegerRaw(t *testing.T) {
	f := Field{
		Kind: FieldValue, Shortcut: "TMP", Offset: 0, Size: 8,
		RangeMin: 0, RangeMax: 255, ScaleMin: 0, ScaleMax: 40, Multiplier: 40.0 / 255,
	}
	fg := &FunctionGroup{Bits: 8, Fields: []Field{f}}

	for _, raw := range []uint64{0, 17, 128, 255} {
		payload := []byte{0}
		require.NoError(t, setRaw(payload, f, raw))

		decoded := fg.GetValues(payload, 0, false, nil)
		scaled := findDecoded(decoded, "TMP").Value.(float64)

		out := make([]byte, 1)
		require.NoError(t, fg.SetValues(out, new(byte), map[string]interface{}{"TMP": scaled}, nil))
		assert.Equal(t, raw, esp3.GetBits(out, f.Offset, f.Size))
	}
}

func setRaw(buf []byte, f Field, raw uint64) error {
	return esp3.SetBits(buf, f.Offset, f.Size, raw)
}

func findDecoded(fields []DecodedField, shortcut string) *DecodedField {
	for i := range fields {
		if fields[i].Shortcut == shortcut {
			return &fields[i]
		}
	}
	return nil
}
