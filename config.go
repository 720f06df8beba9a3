package di

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Sanchous98/go-ioc/scan"
)

// Mode selects how Initialize discovers components.
type Mode uint8

const (
	// ModeAll registers tagged components and descendants of the base type.
	ModeAll Mode = iota
	// ModeTag registers components carrying the tag.
	ModeTag
	// ModeInherit registers descendants of the base type.
	ModeInherit
)

func (m Mode) String() string {
	switch m {
	case ModeAll:
		return "all"
	case ModeTag:
		return "tag"
	case ModeInherit:
		return "inherit"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ParseMode maps a mode name back to its Mode.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "all", "both":
		return ModeAll, nil
	case "tag", "attribute":
		return ModeTag, nil
	case "inherit", "inheritor", "base":
		return ModeInherit, nil
	default:
		return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfiguration, name)
	}
}

// Configuration describes how Initialize discovers and registers components.
// It is immutable once built.
type Configuration struct {
	mode         Mode
	tag          reflect.Type
	base         reflect.Type
	registerBase bool
	modules      []scan.Module
}

func (c Configuration) Mode() Mode { return c.mode }
func (c Configuration) Tag() reflect.Type { return c.tag }
func (c Configuration) Base() reflect.Type { return c.base }
func (c Configuration) RegisterBase() bool { return c.registerBase }
func (c Configuration) Modules() []scan.Module { return append([]scan.Module(nil), c.modules...) }

// ConfigBuilder accumulates settings for a Configuration.
type ConfigBuilder struct {
	mode         Mode
	tag          reflect.Type
	base         reflect.Type
	registerBase bool
	modules      []scan.Module
}

func NewConfigBuilder() *ConfigBuilder { return &ConfigBuilder{mode: ModeAll} }

func (b *ConfigBuilder) WithMode(mode Mode) *ConfigBuilder {
	b.mode = mode
	return b
}

// WithTag sets the marker type of tag discovery. Pointer types resolve to their element.
func (b *ConfigBuilder) WithTag(tag reflect.Type) *ConfigBuilder {
	b.tag = typeIndirect(tag)
	return b
}

// WithBase sets the base type of inheritance discovery.
func (b *ConfigBuilder) WithBase(base reflect.Type) *ConfigBuilder {
	b.base = typeIndirect(base)
	return b
}

// WithRegisterBase makes inheritance discovery register the base type itself.
func (b *ConfigBuilder) WithRegisterBase(register bool) *ConfigBuilder {
	b.registerBase = register
	return b
}

// WithModules sets the modules to scan. No modules means the modules already
// loaded into the manager's scanner.
func (b *ConfigBuilder) WithModules(modules ...scan.Module) *ConfigBuilder {
	b.modules = append([]scan.Module(nil), modules...)
	return b
}

// Build validates the settings and returns the Configuration. Tag mode drops
// the base type and inheritance mode drops the tag.
func (b *ConfigBuilder) Build() (Configuration, error) {
	if err := validate.Struct(settings{
		Mode:    b.mode,
		HasTag:  b.tag != nil,
		HasBase: b.base != nil,
	}); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			return Configuration{}, fmt.Errorf("%w: %s", ErrInvalidConfiguration, describe(fields[0]))
		}

		return Configuration{}, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	cfg := Configuration{mode: b.mode, modules: append([]scan.Module(nil), b.modules...)}

	switch b.mode {
	case ModeAll:
		cfg.tag, cfg.base, cfg.registerBase = b.tag, b.base, b.registerBase && b.base != nil
	case ModeTag:
		cfg.tag = b.tag
	case ModeInherit:
		cfg.base, cfg.registerBase = b.base, b.registerBase
	}

	return cfg, nil
}

// settings is the validated view of a ConfigBuilder.
type settings struct {
	Mode    Mode `validate:"lte=2"`
	HasTag  bool
	HasBase bool
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(validateSettings, settings{})

	return v
}

func validateSettings(sl validator.StructLevel) {
	s := sl.Current().Interface().(settings)

	switch s.Mode {
	case ModeTag:
		if !s.HasTag {
			sl.ReportError(s.HasTag, "Tag", "HasTag", "required_for_tag_mode", "")
		}
	case ModeInherit:
		if !s.HasBase {
			sl.ReportError(s.HasBase, "Base", "HasBase", "required_for_inherit_mode", "")
		}
	case ModeAll:
		if !s.HasTag && !s.HasBase {
			sl.ReportError(s.HasTag, "Tag", "HasTag", "tag_or_base_required", "")
		}
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "lte":
		return fmt.Sprintf("invalid mode %v", fe.Value())
	case "required_for_tag_mode":
		return "tag mode requires a tag type"
	case "required_for_inherit_mode":
		return "inherit mode requires a base type"
	case "tag_or_base_required":
		return "mode all requires a tag or a base type"
	default:
		return fe.Error()
	}
}
