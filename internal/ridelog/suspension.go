package ridelog

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultPresetName names the preset that always exists.
const DefaultPresetName = "Default"

// Preset is one named set of clicker and spring settings.
type Preset struct {
	ForkComp    int    `json:"forkComp"`
	ForkReb     int    `json:"forkReb"`
	ForkSpring  string `json:"forkSpring"`
	ForkOil     string `json:"forkOil"`
	ForkSag     int    `json:"forkSag"`
	ShockHiComp int    `json:"shockHiComp"`
	ShockLoComp int    `json:"shockLoComp"`
	ShockReb    int    `json:"shockReb"`
	ShockSpring string `json:"shockSpring"`
	ShockSag    int    `json:"shockSag"`
	Notes       string `json:"notes"`
}

// Suspension is the presets document (data/suspension.json). Default always
// exists and ActivePreset always names a key of Presets.
type Suspension struct {
	ActivePreset string            `json:"activePreset"`
	Presets      map[string]Preset `json:"presets"`
}

// DefaultPreset returns the stock settings.
func DefaultPreset() Preset {
	return Preset{
		ForkComp:    12,
		ForkReb:     12,
		ForkSag:     100,
		ShockHiComp: 2,
		ShockLoComp: 12,
		ShockReb:    12,
		ShockSag:    100,
	}
}

// DefaultSuspension returns a document holding only the Default preset.
func DefaultSuspension() Suspension {
	return Suspension{
		ActivePreset: DefaultPresetName,
		Presets:      map[string]Preset{DefaultPresetName: DefaultPreset()},
	}
}

// Names returns the preset names with Default first and the rest sorted.
func (s *Suspension) Names() []string {
	names := make([]string, 0, len(s.Presets))
	for name := range s.Presets {
		if name != DefaultPresetName {
			names = append(names, name)
		}
	}

	sort.Strings(names)

	if _, ok := s.Presets[DefaultPresetName]; ok {
		names = append([]string{DefaultPresetName}, names...)
	}

	return names
}

// Active returns the active preset.
func (s *Suspension) Active() (string, Preset) {
	return s.ActivePreset, s.Presets[s.ActivePreset]
}

// Get looks up a preset by user-typed name and returns its stored name.
func (s *Suspension) Get(name string) (string, Preset, bool) {
	name = presetName(name)
	p, ok := s.Presets[name]

	return name, p, ok
}

// presetName trims a user-typed name and puts it in NFC, so that names
// typed on different keyboards address the same preset.
func presetName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// SavePreset overwrites the values of an existing preset.
func (s *Suspension) SavePreset(name string, p Preset) error {
	name = presetName(name)
	if _, ok := s.Presets[name]; !ok {
		return fmt.Errorf("%w: %q", ErrPresetNotFound, name)
	}

	s.Presets[name] = p

	return nil
}

// CreatePreset adds a preset named name holding a copy of the active
// preset's values, and makes it active.
func (s *Suspension) CreatePreset(name string) error {
	name = presetName(name)
	if name == "" {
		return fmt.Errorf("%w: preset name is required", ErrInvalid)
	}

	s.Normalize()

	if _, ok := s.Presets[name]; ok {
		return fmt.Errorf("%w: %q", ErrPresetExists, name)
	}

	_, current := s.Active()
	s.Presets[name] = current
	s.ActivePreset = name

	return nil
}

// DeletePreset removes a preset and makes Default active.
func (s *Suspension) DeletePreset(name string) error {
	name = presetName(name)
	if name == DefaultPresetName {
		return ErrDefaultPreset
	}

	if _, ok := s.Presets[name]; !ok {
		return fmt.Errorf("%w: %q", ErrPresetNotFound, name)
	}

	delete(s.Presets, name)
	s.ActivePreset = DefaultPresetName

	return nil
}

// SelectPreset makes name the active preset.
func (s *Suspension) SelectPreset(name string) error {
	name = presetName(name)
	if _, ok := s.Presets[name]; !ok {
		return fmt.Errorf("%w: %q", ErrPresetNotFound, name)
	}

	s.ActivePreset = name

	return nil
}

// Normalize repairs a loaded document so that Default exists and
// ActivePreset names an existing preset. It reports whether anything changed.
func (s *Suspension) Normalize() bool {
	changed := false

	if s.Presets == nil {
		s.Presets = make(map[string]Preset)
		changed = true
	}

	if _, ok := s.Presets[DefaultPresetName]; !ok {
		s.Presets[DefaultPresetName] = DefaultPreset()
		changed = true
	}

	if _, ok := s.Presets[s.ActivePreset]; !ok {
		s.ActivePreset = DefaultPresetName
		changed = true
	}

	return changed
}
