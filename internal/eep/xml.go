package eep

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dduransseau/enocean2mqtt/internal/esp3"
)

// xmlTelegram/xmlFunction/xmlProfile mirror the minimal element grammar:
// <telegram rorg> / <profiles func> / <profile type description>.
type xmlTelegram struct {
	RORG    string        `xml:"rorg,attr"`
	Profiles []xmlProfiles `xml:"profiles"`
}

type xmlProfiles struct {
	Func     string      `xml:"func,attr"`
	Profiles []xmlProfile `xml:"profile"`
}

type xmlProfile struct {
	Type        string       `xml:"type,attr"`
	Description string       `xml:"description,attr"`
	Command     *xmlCommand  `xml:"command"`
	Data        []xmlData    `xml:"data"`
}

type xmlCommand struct {
	Shortcut  string      `xml:"shortcut,attr"`
	Items     []xmlItem   `xml:"item"`
}

type xmlData struct {
	Command   string    `xml:"command,attr"`
	Direction string    `xml:"direction,attr"`
	Bits      string    `xml:"bits,attr"`
	Status    []xmlStatus `xml:"status"`
	Value     []xmlValue  `xml:"value"`
	Enum      []xmlEnum   `xml:"enum"`
}

type xmlBase struct {
	Description string `xml:"description,attr"`
	Shortcut    string `xml:"shortcut,attr"`
	Offset      string `xml:"offset,attr"`
	Size        string `xml:"size,attr"`
	Unit        string `xml:"unit,attr"`
}

type xmlStatus struct {
	xmlBase
}

type xmlRange struct {
	Min string `xml:"min"`
	Max string `xml:"max"`
}

type xmlValue struct {
	xmlBase
	Range *xmlRange `xml:"range"`
	Scale *xmlRange `xml:"scale"`
}

type xmlEnum struct {
	xmlBase
	Items      []xmlItem      `xml:"item"`
	RangeItems []xmlRangeItem `xml:"rangeitem"`
}

type xmlItem struct {
	Description string `xml:"description,attr"`
	Value       string `xml:"value,attr"`
}

type xmlRangeItem struct {
	Description string    `xml:"description,attr"`
	Start       string    `xml:"start,attr"`
	End         string    `xml:"end,attr"`
	Range       *xmlRange `xml:"range"`
	Scale       *xmlRange `xml:"scale"`
}

type xmlRoot struct {
	Telegrams []xmlTelegram `xml:"telegram"`
}

// LoadXML reads the EEP catalogue from an XML file on disk, per the grammar
// in the gateway's profile reference documentation.
func LoadXML(path string) (*Catalogue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("eep: open catalogue: %w", err)
	}
	defer f.Close()

	var root xmlRoot
	if err := xml.NewDecoder(f).Decode(&root); err != nil {
		return nil, fmt.Errorf("eep: decode catalogue: %w", err)
	}

	telegrams := make(map[esp3.RORG]map[uint8]map[uint8]*Profile)
	for _, t := range root.Telegrams {
		rorgVal, err := parseHexByte(t.RORG)
		if err != nil {
			return nil, fmt.Errorf("eep: telegram rorg=%q: %w", t.RORG, err)
		}
		rorg := esp3.RORG(rorgVal)
		byFunc := make(map[uint8]map[uint8]*Profile)
		for _, fn := range t.Profiles {
			fnVal, err := parseHexByte(fn.Func)
			if err != nil {
				return nil, fmt.Errorf("eep: profiles func=%q: %w", fn.Func, err)
			}
			byType := make(map[uint8]*Profile)
			for _, pr := range fn.Profiles {
				typVal, err := parseHexByte(pr.Type)
				if err != nil {
					return nil, fmt.Errorf("eep: profile type=%q: %w", pr.Type, err)
				}
				profile, err := buildProfile(pr, rorg, fnVal)
				if err != nil {
					return nil, err
				}
				byType[typVal] = profile
			}
			byFunc[fnVal] = byType
		}
		telegrams[rorg] = byFunc
	}

	return NewCatalogue(telegrams), nil
}

func buildProfile(pr xmlProfile, rorg esp3.RORG, fn uint8) (*Profile, error) {
	typVal, err := parseHexByte(pr.Type)
	if err != nil {
		return nil, err
	}
	profile := &Profile{
		RORG:        rorg,
		Func:        fn,
		Type:        typVal,
		Description: pr.Description,
		Data:        make(map[dataKey]*FunctionGroup),
	}

	if pr.Command != nil {
		cmd := &CommandEnum{Shortcut: pr.Command.Shortcut}
		for _, it := range pr.Command.Items {
			value, err := strconv.Atoi(it.Value)
			if err != nil {
				return nil, fmt.Errorf("eep: command item value=%q: %w", it.Value, err)
			}
			cmd.Items = append(cmd.Items, EnumItem{Value: value, Description: it.Description})
		}
		profile.Command = cmd
	}

	for _, d := range pr.Data {
		fg, key, err := buildFunctionGroup(d)
		if err != nil {
			return nil, fmt.Errorf("eep: profile %s: %w", profile.Code(), err)
		}
		profile.Data[key] = fg
	}

	return profile, nil
}

func buildFunctionGroup(d xmlData) (*FunctionGroup, dataKey, error) {
	fg := &FunctionGroup{}
	var command, direction *int

	if d.Command != "" {
		v, err := strconv.Atoi(d.Command)
		if err != nil {
			return nil, dataKey{}, fmt.Errorf("data command=%q: %w", d.Command, err)
		}
		command = &v
		fg.Command = &v
	}
	if d.Direction != "" {
		v, err := strconv.Atoi(d.Direction)
		if err != nil {
			return nil, dataKey{}, fmt.Errorf("data direction=%q: %w", d.Direction, err)
		}
		direction = &v
		fg.Direction = &v
	}
	if d.Bits != "" {
		v, err := strconv.Atoi(d.Bits)
		if err != nil {
			return nil, dataKey{}, fmt.Errorf("data bits=%q: %w", d.Bits, err)
		}
		fg.Bits = v
	}

	for _, s := range d.Status {
		field, err := buildBaseField(FieldStatus, s.xmlBase)
		if err != nil {
			return nil, dataKey{}, err
		}
		fg.Fields = append(fg.Fields, field)
	}
	for _, v := range d.Value {
		field, err := buildValueField(v)
		if err != nil {
			return nil, dataKey{}, err
		}
		fg.Fields = append(fg.Fields, field)
	}
	for _, e := range d.Enum {
		field, err := buildEnumField(e)
		if err != nil {
			return nil, dataKey{}, err
		}
		fg.Fields = append(fg.Fields, field)
	}

	return fg, dataKeyFrom(command, direction), nil
}

func buildBaseField(kind FieldKind, b xmlBase) (Field, error) {
	offset, size, err := parseOffsetSize(b.Offset, b.Size)
	if err != nil {
		return Field{}, err
	}
	return Field{
		Kind:        kind,
		Description: b.Description,
		Shortcut:    b.Shortcut,
		Offset:      offset,
		Size:        size,
		Unit:        b.Unit,
	}, nil
}

func buildValueField(v xmlValue) (Field, error) {
	field, err := buildBaseField(FieldValue, v.xmlBase)
	if err != nil {
		return Field{}, err
	}
	if v.Range != nil && v.Scale != nil {
		rangeMin, err := strconv.ParseFloat(v.Range.Min, 64)
		if err != nil {
			return Field{}, fmt.Errorf("value range min=%q: %w", v.Range.Min, err)
		}
		rangeMax, err := strconv.ParseFloat(v.Range.Max, 64)
		if err != nil {
			return Field{}, fmt.Errorf("value range max=%q: %w", v.Range.Max, err)
		}
		scaleMin, err := strconv.ParseFloat(v.Scale.Min, 64)
		if err != nil {
			return Field{}, fmt.Errorf("value scale min=%q: %w", v.Scale.Min, err)
		}
		scaleMax, err := strconv.ParseFloat(v.Scale.Max, 64)
		if err != nil {
			return Field{}, fmt.Errorf("value scale max=%q: %w", v.Scale.Max, err)
		}
		field.RangeMin, field.RangeMax = rangeMin, rangeMax
		field.ScaleMin, field.ScaleMax = scaleMin, scaleMax
		if rangeMax != rangeMin {
			field.Multiplier = (scaleMax - scaleMin) / (rangeMax - rangeMin)
		} else {
			field.Multiplier = 1
		}
	} else {
		field.Multiplier = 1
	}
	return field, nil
}

func buildEnumField(e xmlEnum) (Field, error) {
	field, err := buildBaseField(FieldEnum, e.xmlBase)
	if err != nil {
		return Field{}, err
	}
	for _, it := range e.Items {
		value, err := strconv.Atoi(it.Value)
		if err != nil {
			return Field{}, fmt.Errorf("enum item value=%q: %w", it.Value, err)
		}
		field.Items = append(field.Items, EnumItem{Value: value, Description: it.Description})
	}
	for _, r := range e.RangeItems {
		item, err := buildRangeItem(r)
		if err != nil {
			return Field{}, err
		}
		field.RangeItems = append(field.RangeItems, item)
	}
	return field, nil
}

func buildRangeItem(r xmlRangeItem) (EnumRangeItem, error) {
	item := EnumRangeItem{Description: r.Description, Multiplier: 1}
	if r.Range != nil && r.Scale != nil {
		rangeMin, err := strconv.ParseFloat(r.Range.Min, 64)
		if err != nil {
			return item, fmt.Errorf("rangeitem range min=%q: %w", r.Range.Min, err)
		}
		rangeMax, err := strconv.ParseFloat(r.Range.Max, 64)
		if err != nil {
			return item, fmt.Errorf("rangeitem range max=%q: %w", r.Range.Max, err)
		}
		scaleMin, err := strconv.ParseFloat(r.Scale.Min, 64)
		if err != nil {
			return item, fmt.Errorf("rangeitem scale min=%q: %w", r.Scale.Min, err)
		}
		scaleMax, err := strconv.ParseFloat(r.Scale.Max, 64)
		if err != nil {
			return item, fmt.Errorf("rangeitem scale max=%q: %w", r.Scale.Max, err)
		}
		item.Scaled = true
		item.RangeMin, item.RangeMax = rangeMin, rangeMax
		item.ScaleMin, item.ScaleMax = scaleMin, scaleMax
		if rangeMax != rangeMin {
			item.Multiplier = (scaleMax - scaleMin) / (rangeMax - rangeMin)
		}
		item.Start = int(rangeMin)
		item.End = int(rangeMax)
	} else {
		start, err := strconv.Atoi(r.Start)
		if err != nil {
			return item, fmt.Errorf("rangeitem start=%q: %w", r.Start, err)
		}
		end, err := strconv.Atoi(r.End)
		if err != nil {
			return item, fmt.Errorf("rangeitem end=%q: %w", r.End, err)
		}
		item.Start, item.End = start, end
	}
	return item, nil
}

func parseOffsetSize(offsetStr, sizeStr string) (int, int, error) {
	var offset, size int
	var err error
	if offsetStr != "" {
		offset, err = strconv.Atoi(offsetStr)
		if err != nil {
			return 0, 0, fmt.Errorf("offset=%q: %w", offsetStr, err)
		}
	}
	if sizeStr != "" {
		size, err = strconv.Atoi(sizeStr)
		if err != nil {
			return 0, 0, fmt.Errorf("size=%q: %w", sizeStr, err)
		}
	}
	return offset, size, nil
}

func parseHexByte(s string) (uint8, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	s = strings.TrimPrefix(s, "0X")
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}
