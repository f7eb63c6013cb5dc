package factory

import (
	"fmt"
	"sort"

	"github.com/warp/capacity-engine/generic"
)

// NormPresets are common norms selectable by name.
var NormPresets = map[string]NormJSON{
	"full_time": {
		Commercial: 8,
		Weekdays:   []int{1, 2, 3, 4, 5},
	},
	"part_time": {
		Commercial: 4,
		Weekdays:   []int{1, 2, 3, 4, 5},
	},
	"presale_heavy": {
		Commercial: 4,
		Presale:    3,
		Internal:   1,
		Weekdays:   []int{1, 2, 3, 4, 5},
	},
	"internal_only": {
		Internal: 8,
		Weekdays: []int{1, 2, 3, 4, 5},
	},
	"shift_24_7": {
		Commercial:      8,
		Weekdays:        []int{1, 2, 3, 4, 5, 6, 7},
		WorksOnHolidays: true,
	},
}

// PresetNames lists the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(NormPresets))
	for name := range NormPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// expandPreset replaces the allotments and pattern of nj with the named
// preset's, keeping its ID and ValidFrom.
func expandPreset(nj NormJSON) (NormJSON, error) {
	if nj.Preset == "" {
		return nj, nil
	}
	preset, ok := NormPresets[nj.Preset]
	if !ok {
		return NormJSON{}, fmt.Errorf("%w: %q", generic.ErrUnknownPreset, nj.Preset)
	}
	preset.ID = nj.ID
	preset.ValidFrom = nj.ValidFrom
	preset.Preset = nj.Preset
	return preset, nil
}
