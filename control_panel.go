package donuts

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var ErrInvalidOption = errors.New("invalid option")

// EnumBinding is a panel entry that picks one of a fixed set of strings.
type EnumBinding struct {
	Name     string
	Options  []string
	OnChange func(value string)

	value string
}

func NewEnumBinding(name string, options []string, initial string) (*EnumBinding, error) {
	b := &EnumBinding{Name: name, Options: slices.Clone(options)}
	if !slices.Contains(b.Options, initial) {
		return nil, fmt.Errorf("%s: %w %q", name, ErrInvalidOption, initial)
	}
	b.value = initial
	return b, nil
}

func (b *EnumBinding) Value() string {
	return b.value
}

// Set selects value and fires OnChange when the selection changed.
func (b *EnumBinding) Set(value string) error {
	if !slices.Contains(b.Options, value) {
		return fmt.Errorf("%s: %w %q", b.Name, ErrInvalidOption, value)
	}
	if value == b.value {
		return nil
	}
	b.value = value
	if b.OnChange != nil {
		b.OnChange(value)
	}
	return nil
}

// SelectIndex selects the option at idx.
func (b *EnumBinding) SelectIndex(idx int) error {
	if idx < 0 || idx >= len(b.Options) {
		return fmt.Errorf("%s: %w index %d", b.Name, ErrInvalidOption, idx)
	}
	return b.Set(b.Options[idx])
}

func (b *EnumBinding) String() string {
	return fmt.Sprintf("%s: %s  [%s]", b.Name, b.value, strings.Join(b.Options, " "))
}

// RangeBinding is an integer slider. Values are clamped to [Min, Max] and
// snapped to Min + k*Step.
type RangeBinding struct {
	Name     string
	Min      int
	Max      int
	Step     int
	OnChange func(value int)

	value int
}

func NewRangeBinding(name string, lo, hi, step, initial int) (*RangeBinding, error) {
	if lo > hi || step <= 0 {
		return nil, fmt.Errorf("%s: %w range [%d, %d] step %d", name, ErrInvalidOption, lo, hi, step)
	}
	b := &RangeBinding{Name: name, Min: lo, Max: hi, Step: step}
	b.value = b.Normalize(initial)
	return b, nil
}

func (b *RangeBinding) Value() int {
	return b.value
}

// Normalize clamps v to the range and snaps it to the nearest step.
func (b *RangeBinding) Normalize(v int) int {
	v = min(max(v, b.Min), b.Max)
	k := (v - b.Min + b.Step/2) / b.Step
	v = b.Min + k*b.Step
	if v > b.Max {
		v -= b.Step
	}
	return v
}

// Set stores the normalized value and fires OnChange when it differs from
// the current one. It returns the stored value.
func (b *RangeBinding) Set(v int) int {
	v = b.Normalize(v)
	if v == b.value {
		return v
	}
	b.value = v
	if b.OnChange != nil {
		b.OnChange(v)
	}
	return v
}

// Nudge moves the value by steps increments.
func (b *RangeBinding) Nudge(steps int) int {
	return b.Set(b.value + steps*b.Step)
}

func (b *RangeBinding) String() string {
	return fmt.Sprintf("%s: %d  [%d..%d]", b.Name, b.value, b.Min, b.Max)
}

type panelEntry interface {
	String() string
}

// ControlPanel is the debug panel: an ordered list of bindings rendered as
// overlay text.
type ControlPanel struct {
	Title   string
	Help    []string
	entries []panelEntry
	enums   map[string]*EnumBinding
	ranges  map[string]*RangeBinding
}

func NewControlPanel(title string) *ControlPanel {
	return &ControlPanel{
		Title:  title,
		enums:  make(map[string]*EnumBinding),
		ranges: make(map[string]*RangeBinding),
	}
}

func (p *ControlPanel) AddEnum(b *EnumBinding) *EnumBinding {
	p.entries = append(p.entries, b)
	p.enums[b.Name] = b
	return b
}

func (p *ControlPanel) AddRange(b *RangeBinding) *RangeBinding {
	p.entries = append(p.entries, b)
	p.ranges[b.Name] = b
	return b
}

// Enum returns the enum binding registered under name, or nil.
func (p *ControlPanel) Enum(name string) *EnumBinding {
	return p.enums[name]
}

// Range returns the range binding registered under name, or nil.
func (p *ControlPanel) Range(name string) *RangeBinding {
	return p.ranges[name]
}

// Lines renders the panel top to bottom.
func (p *ControlPanel) Lines() []string {
	lines := make([]string, 0, len(p.entries)+len(p.Help)+1)
	if p.Title != "" {
		lines = append(lines, p.Title)
	}
	for _, e := range p.entries {
		lines = append(lines, e.String())
	}
	return append(lines, p.Help...)
}
