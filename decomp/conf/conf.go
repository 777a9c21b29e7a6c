package conf

import (
	"gopkg.in/yaml.v3"
	"tlog.app/go/errors"
)

type (
	// Settings control code generation and rewriting.
	Settings struct {
		// NoDecompile emits memory accesses as MEMOF/MEMASSIGN macros.
		NoDecompile bool `yaml:"no_decompile"`

		// NoRemoveLabels keeps labels no goto refers to.
		NoRemoveLabels bool `yaml:"no_remove_labels"`

		// PrintRTL logs each procedure's statements before generation.
		PrintRTL bool `yaml:"print_rtl"`

		// WordBits is the machine word width constant folding wraps to.
		WordBits int `yaml:"word_bits"`

		// Debug enables generator tracing.
		Debug bool `yaml:"debug"`
	}
)

const DefaultWordBits = 32

func Default() *Settings {
	return &Settings{
		WordBits: DefaultWordBits,
	}
}

// Parse decodes YAML settings over the defaults.
func Parse(data []byte) (*Settings, error) {
	s := Default()

	err := yaml.Unmarshal(data, s)
	if err != nil {
		return nil, errors.Wrap(err, "settings")
	}

	if err = s.Check(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Settings) Check() error {
	if s.WordBits < 0 || s.WordBits > 64 {
		return errors.New("word_bits: %d out of range", s.WordBits)
	}

	if s.WordBits == 0 {
		s.WordBits = DefaultWordBits
	}

	return nil
}

// Merge sets the options enabled in x.
func (s *Settings) Merge(x *Settings) {
	if x == nil {
		return
	}

	s.NoDecompile = s.NoDecompile || x.NoDecompile
	s.NoRemoveLabels = s.NoRemoveLabels || x.NoRemoveLabels
	s.PrintRTL = s.PrintRTL || x.PrintRTL
	s.Debug = s.Debug || x.Debug

	if x.WordBits != 0 {
		s.WordBits = x.WordBits
	}
}

func (s *Settings) Get() *Settings {
	if s == nil {
		return Default()
	}

	return s
}
