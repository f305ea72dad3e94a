package eep

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dduransseau/enocean2mqtt/internal/esp3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalogue = `<?xml version="1.0"?>
<eep>
  <telegram rorg="0xA5">
    <profiles func="0x02">
      <profile type="0x05" description="Temperature Sensor">
        <data bits="32">
          <value description="Temperature" shortcut="TMP" offset="16" size="8" unit="&#176;C">
            <range><min>255</min><max>0</max></range>
            <scale><min>0</min><max>40</max></scale>
          </value>
        </data>
      </profile>
    </profiles>
  </telegram>
  <telegram rorg="0xD2">
    <profiles func="0x01">
      <profile type="0x01" description="Generic actuator">
        <command shortcut="CMD">
          <item value="1" description="on"/>
          <item value="2" description="off"/>
        </command>
        <data command="1" bits="8">
          <enum description="Output" shortcut="OUT" offset="0" size="8">
            <rangeitem start="0" end="100" description="percent"/>
          </enum>
        </data>
      </profile>
    </profiles>
  </telegram>
</eep>
`

func writeTempCatalogue(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "eep.xml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalogue), 0o644))
	return path
}

func TestLoadXMLBuildsCatalogue(t *testing.T) {
	path := writeTempCatalogue(t)
	cat, err := LoadXML(path)
	require.NoError(t, err)

	profile, err := cat.GetProfile(esp3.RORG(0xA5), 0x02, 0x05)
	require.NoError(t, err)
	assert.Equal(t, "Temperature Sensor", profile.Description)
	assert.Equal(t, "A5-02-05", profile.Code())

	fg, err := profile.GetTelegramForm(nil, nil)
	require.NoError(t, err)
	tmp := fg.FieldByShortcut("TMP")
	require.NotNil(t, tmp)
	// Range 255->0 maps onto scale 0->40, so the slope is negative.
	assert.InDelta(t, -40.0/255, tmp.Multiplier, 1e-9)
}

func TestLoadXMLCommandEnumAndRangeItem(t *testing.T) {
	path := writeTempCatalogue(t)
	cat, err := LoadXML(path)
	require.NoError(t, err)

	profile, err := cat.GetProfile(esp3.RORG(0xD2), 0x01, 0x01)
	require.NoError(t, err)
	require.NotNil(t, profile.Command)
	assert.Equal(t, "off", profile.Command.Get(2).Description)

	cmd := 1
	fg, err := profile.GetTelegramForm(&cmd, nil)
	require.NoError(t, err)
	out := fg.FieldByShortcut("OUT")
	require.NotNil(t, out)
	require.Len(t, out.RangeItems, 1)
	assert.Equal(t, "percent", out.RangeItems[0].Description)
}

func TestGetProfileNotFoundErrors(t *testing.T) {
	path := writeTempCatalogue(t)
	cat, err := LoadXML(path)
	require.NoError(t, err)

	_, err = cat.GetProfile(esp3.RORG(0x99), 0, 0)
	assert.Error(t, err)
}

func TestGetTelegramFormRequiresCommand(t *testing.T) {
	path := writeTempCatalogue(t)
	cat, err := LoadXML(path)
	require.NoError(t, err)

	profile, err := cat.GetProfile(esp3.RORG(0xD2), 0x01, 0x01)
	require.NoError(t, err)

	_, err = profile.GetTelegramForm(nil, nil)
	assert.Error(t, err)
}

// Profile.Encode must resolve the command telegram form from a CMD entry
// in the inbound values map, the shape an MQTT command-topic payload
// arrives in, rather than requiring the caller to already know which
// FunctionGroup to target.
func TestProfileEncodeResolvesCommandFromValues(t *testing.T) {
	path := writeTempCatalogue(t)
	cat, err := LoadXML(path)
	require.NoError(t, err)

	profile, err := cat.GetProfile(esp3.RORG(0xD2), 0x01, 0x01)
	require.NoError(t, err)

	payload, _, err := profile.Encode(map[string]interface{}{"CMD": "on", "OUT": 50.0}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, byte(50), payload[0])
}
