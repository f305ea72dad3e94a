package eep

import (
	"testing"

	"github.com/dduransseau/enocean2mqtt/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Invariant #4: encode(description_of(i)) -> raw = i.value, for enum items.
func TestSetValuesEnumByDescription(t *testing.T) {
	f := Field{
		Kind: FieldEnum, Shortcut: "BTN", Offset: 0, Size: 4,
		Items: []EnumItem{
			{Value: 3, Description: "button_a"},
			{Value: 5, Description: "button_b"},
		},
	}
	fg := &FunctionGroup{Bits: 4, Fields: []Field{f}}

	payload := make([]byte, 1)
	require.NoError(t, fg.SetValues(payload, new(byte), map[string]interface{}{"BTN": "button_b"}, nil))

	out := fg.GetValues(payload, 0, false, nil)
	btn := findDecoded(out, "BTN")
	require.NotNil(t, btn)
	assert.Equal(t, "button_b", btn.Value)
}

func TestSetValuesEnumUnmatchedDescriptionFails(t *testing.T) {
	f := Field{Kind: FieldEnum, Shortcut: "BTN", Offset: 0, Size: 4, Items: []EnumItem{{Value: 1, Description: "a"}}}
	fg := &FunctionGroup{Bits: 4, Fields: []Field{f}}

	err := fg.SetValues(make([]byte, 1), new(byte), map[string]interface{}{"BTN": "nonexistent"}, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidEnumValue, apperrors.CodeOf(err))
}

func TestSetValuesStatusFieldWritesStatusByte(t *testing.T) {
	f := Field{Kind: FieldStatus, Shortcut: "LRN", Offset: 3, Size: 1}
	fg := &FunctionGroup{Fields: []Field{f}}

	var status byte
	require.NoError(t, fg.SetValues(nil, &status, map[string]interface{}{"LRN": true}, nil))
	assert.Equal(t, byte(0b00010000), status)
}

func TestSetValuesCommandByDescription(t *testing.T) {
	f := Field{Kind: FieldValue, Shortcut: ShortcutCommand, Offset: 0, Size: 4, Multiplier: 1}
	fg := &FunctionGroup{Bits: 4, Fields: []Field{f}}
	commandEnum := &CommandEnum{Items: []EnumItem{{Value: 2, Description: "dim"}}}

	payload := make([]byte, 1)
	require.NoError(t, fg.SetValues(payload, new(byte), map[string]interface{}{ShortcutCommand: "dim"}, commandEnum))
	assert.Equal(t, uint8(2), payload[0]>>4)
}
