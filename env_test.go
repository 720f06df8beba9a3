package di

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Sanchous98/go-ioc/index"
	"github.com/Sanchous98/go-ioc/scan"
	"github.com/Sanchous98/go-ioc/store"
)

type EnvTestStruct struct {
	i64        int64         `env:"INT64"`
	i          int           `env:"INT"`
	i32        int32         `env:"INT32"`
	i16        int16         `env:"INT16"`
	i8         int8          `env:"INT8"`
	ui64       uint64        `env:"UINT64"`
	ui         uint          `env:"UINT"`
	ui32       uint32        `env:"UINT32"`
	ui16       uint16        `env:"UINT16:-80"`
	ui8        uint8         `env:"UINT8"`
	b          byte          `env:"UINT8"`
	bl         bool          `env:"BOOL"`
	float64    float64       `env:"FLOAT64"`
	float32    float32       `env:"FLOAT32"`
	complex128 complex128    `env:"COMPLEX128"`
	complex64  complex64     `env:"COMPLEX64"`
	str        string        `env:"STRING"`
	timeout    time.Duration `env:"TIMEOUT:-5s"`
	untouched  string        `env:"DI_TEST_UNSET"`
}

type envComponent struct {
	D    *plainD `inject:""`
	Port int     `env:"DI_TEST_PORT:-8080"`
	Host string  `env:"DI_TEST_HOST"`
}

type embeddedEnv struct {
	EnvTestStruct

	name string `env:"NAME"`
}

var envVars = map[string]string{
	"INT64":      "-64",
	"INT":        "-1",
	"INT32":      "-32",
	"INT16":      "-16",
	"INT8":       "-8",
	"UINT64":     "64",
	"UINT":       "1",
	"UINT32":     "32",
	"UINT8":      "8",
	"BOOL":       "true",
	"FLOAT64":    "6.4",
	"FLOAT32":    "3.2",
	"COMPLEX128": "1+2i",
	"COMPLEX64":  "3+4i",
	"STRING":     "string",
}

type EnvTestSuite struct {
	suite.Suite
	manager *Manager
}

func (s *EnvTestSuite) SetupTest() {
	s.manager = NewManager(WithScanner(scan.New()), WithAllocator(index.New()), WithEnv(envVars))
	s.Require().NoError(s.manager.InitializeWith(store.Mutable))
}

func (s *EnvTestSuite) TestEnvTags() {
	target := &EnvTestStruct{untouched: "kept"}
	s.Require().NoError(s.manager.WireInstance(target))

	s.Equal(int64(-64), target.i64)
	s.Equal(-1, target.i)
	s.Equal(int32(-32), target.i32)
	s.Equal(int16(-16), target.i16)
	s.Equal(int8(-8), target.i8)
	s.Equal(uint64(64), target.ui64)
	s.Equal(uint(1), target.ui)
	s.Equal(uint32(32), target.ui32)
	s.Equal(uint16(80), target.ui16)
	s.Equal(uint8(8), target.ui8)
	s.Equal(byte(8), target.b)
	s.True(target.bl)
	s.Equal(6.4, target.float64)
	s.Equal(float32(3.2), target.float32)
	s.Equal(complex(1, 2), target.complex128)
	s.Equal(complex64(complex(3, 4)), target.complex64)
	s.Equal("string", target.str)
	s.Equal(5*time.Second, target.timeout)
	s.Equal("kept", target.untouched)
}

func (s *EnvTestSuite) TestEmbeddedEnvTags() {
	s.Require().NoError(s.manager.LoadEnv(strings.NewReader("NAME=embedded\nTIMEOUT=1m\n")))

	target := new(embeddedEnv)
	s.Require().NoError(s.manager.WireInstance(target))

	s.Equal("embedded", target.name)
	s.Equal("string", target.str)
	s.Equal(time.Minute, target.timeout)
}

func (s *EnvTestSuite) TestLoadedOverridesProcessEnv() {
	s.T().Setenv("STRING", "process")
	s.T().Setenv("DI_TEST_HOST", "localhost")

	target := new(EnvTestStruct)
	s.Require().NoError(s.manager.WireInstance(target))
	s.Equal("string", target.str)

	c := new(envComponent)
	s.Require().NoError(s.manager.Register(TypeOf[envComponent](), c))

	_, err := s.manager.WireAll()
	s.Require().NoError(err)
	s.Equal("localhost", c.Host)
	s.Equal(8080, c.Port)
	s.Nil(c.D)
}

func (s *EnvTestSuite) TestLoadEnvFiles() {
	dir := s.T().TempDir()
	first := filepath.Join(dir, "first.env")
	second := filepath.Join(dir, "second.env")
	s.Require().NoError(os.WriteFile(first, []byte("DI_TEST_PORT=9000\nDI_TEST_HOST=first\n"), 0o600))
	s.Require().NoError(os.WriteFile(second, []byte("DI_TEST_HOST=second\n"), 0o600))

	s.Require().NoError(s.manager.LoadEnvFiles(first, second))

	target := new(envComponent)
	s.Require().NoError(s.manager.Register(TypeOf[plainD](), new(plainD)))
	s.Require().NoError(s.manager.WireInstance(target))

	s.Equal(9000, target.Port)
	s.Equal("second", target.Host)
	s.NotNil(target.D)

	s.ErrorIs(s.manager.LoadEnvFiles(filepath.Join(dir, "absent.env")), ErrInvalidEnv)
}

func (s *EnvTestSuite) TestInvalidValue() {
	s.Require().NoError(s.manager.LoadEnv(strings.NewReader("INT8=300\n")))

	s.ErrorIs(s.manager.WireInstance(new(EnvTestStruct)), ErrInvalidEnv)
}

func (s *EnvTestSuite) TestWireAllToleratesInvalidValue() {
	s.Require().NoError(s.manager.LoadEnv(strings.NewReader("DI_TEST_PORT=http\nDI_TEST_HOST=tolerant\n")))

	c := new(envComponent)
	s.Require().NoError(s.manager.Register(TypeOf[envComponent](), c))

	_, err := s.manager.WireAll()
	s.Require().NoError(err)
	s.Zero(c.Port)
	s.Equal("tolerant", c.Host)
}

func TestEnv(t *testing.T) {
	suite.Run(t, new(EnvTestSuite))
}
