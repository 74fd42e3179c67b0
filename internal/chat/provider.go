package chat

import (
	"errors"
	"fmt"
)

// InputMode is a kind of input a provider can accept.
type InputMode string

const (
	ModeText  InputMode = "text"
	ModeAudio InputMode = "audio"
	ModeImage InputMode = "image"
	ModeVideo InputMode = "video"
	ModeFile  InputMode = "file"
)

// OptionType discriminates the ProviderOption union.
type OptionType string

const (
	OptionBoolean OptionType = "boolean"
	OptionEnum    OptionType = "enum"
)

// OptionChoice is one selectable value of an enum option.
type OptionChoice struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ProviderOption describes a mutable runtime-held setting of a provider.
// Type selects the variant: boolean options use BoolDefault, enum options
// use EnumDefault and Choices.
type ProviderOption struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Type OptionType `json:"type"`

	BoolDefault bool           `json:"bool_default,omitempty"`
	EnumDefault string         `json:"enum_default,omitempty"`
	Choices     []OptionChoice `json:"choices,omitempty"`
}

// ErrBadOption reports a structurally invalid ProviderOption.
var ErrBadOption = errors.New("invalid provider option")

// Validate checks the option's structural invariants, notably that an
// enum default names one of its choices.
func (o ProviderOption) Validate() error {
	switch o.Type {
	case OptionBoolean:
		return nil
	case OptionEnum:
		for _, c := range o.Choices {
			if c.ID == o.EnumDefault {
				return nil
			}
		}
		return fmt.Errorf("%w: option %q default %q is not among its choices", ErrBadOption, o.ID, o.EnumDefault)
	default:
		return fmt.Errorf("%w: option %q has unknown type %q", ErrBadOption, o.ID, o.Type)
	}
}

// Provider describes a capability surface exposed by a runtime, e.g. one
// vendor+model pairing. The descriptor is immutable for the lifetime of a
// runtime instance; only option values change, via SetProviderOption.
type Provider struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Options    []ProviderOption `json:"options,omitempty"`
	InputModes []InputMode      `json:"input_modes"`
}

// Option returns the option with the given ID, if present.
func (p Provider) Option(optionID string) (ProviderOption, bool) {
	for _, o := range p.Options {
		if o.ID == optionID {
			return o, true
		}
	}
	return ProviderOption{}, false
}

// Supports reports whether the provider accepts the given input mode.
func (p Provider) Supports(mode InputMode) bool {
	for _, m := range p.InputModes {
		if m == mode {
			return true
		}
	}
	return false
}

// Validate checks the provider descriptor and all of its options.
func (p Provider) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: provider has empty id", ErrBadOption)
	}
	for _, o := range p.Options {
		if err := o.Validate(); err != nil {
			return err
		}
	}
	return nil
}
