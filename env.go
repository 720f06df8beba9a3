package di

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// Use envTag to fill a field from an environment variable: `env:"NAME"` or `env:"NAME:-default"`
	envTag = "env"

	envDefaultSep = ":-"
)

// LoadEnv parses dotenv formatted variables from r. They take precedence
// over the process environment when env-tagged fields are filled.
func (m *Manager) LoadEnv(r io.Reader) error {
	vars, err := godotenv.Parse(r)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEnv, err)
	}

	for k, v := range vars {
		m.env.Store(k, v)
	}

	return nil
}

// LoadEnvFiles reads dotenv files, later files overriding earlier ones.
func (m *Manager) LoadEnvFiles(paths ...string) error {
	vars, err := godotenv.Read(paths...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEnv, err)
	}

	for k, v := range vars {
		m.env.Store(k, v)
	}

	return nil
}

func (m *Manager) lookupEnv(key string) (string, bool) {
	if v, ok := m.env.Load(key); ok {
		return v, true
	}

	return os.LookupEnv(key)
}

// fillEnv assigns every env slot of target. It returns the first parse error
// but keeps filling the remaining slots.
func (m *Manager) fillEnv(target reflect.Value, slots []slot) error {
	var first error

	for _, s := range slots {
		key, def, hasDefault := strings.Cut(s.env, envDefaultSep)

		raw, ok := m.lookupEnv(key)
		if !ok {
			if !hasDefault {
				continue
			}

			raw = def
		}

		if err := setScalar(s.field(target), raw); err != nil {
			if first == nil {
				first = fmt.Errorf("%w: %s.%s from %s: %v", ErrInvalidEnv, typeName(target.Type()), s.name, key, err)
			}
		}
	}

	return first
}

var durationType = reflect.TypeFor[time.Duration]()

func setScalar(field reflect.Value, raw string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}

		field.SetInt(int64(d))

		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u, err := strconv.ParseUint(raw, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Complex64, reflect.Complex128:
		c, err := strconv.ParseComplex(raw, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetComplex(c)
	default:
		return fmt.Errorf("unsupported kind %s", field.Kind())
	}

	return nil
}
