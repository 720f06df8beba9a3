package scan

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/suite"
)

type (
	marker    struct{}
	otherMark struct{}

	base    struct{ Name string }
	child   struct{ base }
	grand   struct{ *child }
	unrated struct{}

	taggedDirect   struct{ marker }
	taggedInherits struct{ taggedDirect }
	declaredOnly   struct{}
	declaredChild  struct{ declaredOnly }

	speaker  interface{ Speak() string }
	talker   struct{}
	loop     struct{ *loop }
	composed interface{ speaker }
)

func (*talker) Speak() string { return "hi" }

type ScannerTestSuite struct {
	suite.Suite
	scanner *Scanner
	module  *Manifest
}

func (s *ScannerTestSuite) SetupTest() {
	s.scanner = New()
	s.module = NewManifest("test").
		Add(reflect.TypeFor[base]()).
		Add(reflect.TypeFor[child]()).
		Add(reflect.TypeFor[*grand]()).
		Add(reflect.TypeFor[unrated]()).
		Add(reflect.TypeFor[taggedDirect]()).
		Add(reflect.TypeFor[taggedInherits]()).
		Add(reflect.TypeFor[declaredOnly](), reflect.TypeFor[otherMark]()).
		Add(reflect.TypeFor[declaredChild]()).
		Add(reflect.TypeFor[talker]()).
		Add(reflect.TypeFor[loop]())
}

func (s *ScannerTestSuite) TestLoadCachesEveryComponent() {
	s.scanner.LoadModules(s.module)

	s.Equal(10, s.scanner.Len())
	s.Len(s.scanner.FindAll(), 10)
	s.Contains(s.scanner.FindAll(), reflect.TypeFor[grand]())
	s.Len(s.scanner.Modules(), 1)
}

func (s *ScannerTestSuite) TestEmptyLoadIsNoop() {
	s.scanner.LoadModules(s.module)
	s.scanner.LoadModules()

	s.Equal(10, s.scanner.Len())
	s.Len(s.scanner.Modules(), 1)
}

func (s *ScannerTestSuite) TestRepeatedLoadDuplicates() {
	s.scanner.LoadModules(s.module)
	s.scanner.LoadModules(s.module)

	s.Equal(20, s.scanner.Len())
	s.Len(s.scanner.FindByBase(reflect.TypeFor[base]()), 4)
}

func (s *ScannerTestSuite) TestLoadAppendsNewModules() {
	s.scanner.LoadModules(s.module)
	s.scanner.LoadModules(NewManifest("extra").Add(reflect.TypeFor[otherMark]()))

	s.Equal(11, s.scanner.Len())
	s.Contains(s.scanner.FindAll(), reflect.TypeFor[otherMark]())
}

func (s *ScannerTestSuite) TestFindByBaseExcludesBase() {
	s.scanner.LoadModules(s.module)

	found := s.scanner.FindByBase(reflect.TypeFor[base]())
	s.ElementsMatch([]reflect.Type{reflect.TypeFor[child](), reflect.TypeFor[grand]()}, found)
	s.Equal(found, s.scanner.FindByBase(reflect.TypeFor[*base]()))
}

func (s *ScannerTestSuite) TestFindByInterfaceBase() {
	s.scanner.LoadModules(s.module, NewManifest("ifaces").Add(reflect.TypeFor[speaker]()).Add(reflect.TypeFor[composed]()))

	found := s.scanner.FindByBase(reflect.TypeFor[speaker]())
	s.ElementsMatch([]reflect.Type{reflect.TypeFor[talker](), reflect.TypeFor[composed]()}, found)
}

func (s *ScannerTestSuite) TestFindByTag() {
	s.scanner.LoadModules(s.module)

	s.ElementsMatch(
		[]reflect.Type{reflect.TypeFor[taggedDirect](), reflect.TypeFor[taggedInherits]()},
		s.scanner.FindByTag(reflect.TypeFor[marker]()),
	)
	s.ElementsMatch(
		[]reflect.Type{reflect.TypeFor[declaredOnly](), reflect.TypeFor[declaredChild]()},
		s.scanner.FindByTag(reflect.TypeFor[otherMark]()),
	)
}

func (s *ScannerTestSuite) TestFindWithNilCriteria() {
	s.scanner.LoadModules(s.module)

	s.Empty(s.scanner.FindByTag(nil))
	s.Empty(s.scanner.FindByBase(nil))
}

func (s *ScannerTestSuite) TestSelfEmbeddingTerminates() {
	s.scanner.LoadModules(s.module)

	s.NotContains(s.scanner.FindByBase(reflect.TypeFor[loop]()), reflect.TypeFor[loop]())
}

func (s *ScannerTestSuite) TestConstructors() {
	s.scanner.LoadModules(NewManifest("ctors").AddConstructor(func() *talker { return new(talker) }, reflect.TypeFor[marker]()))

	fn, ok := s.scanner.Constructor(reflect.TypeFor[talker]())
	s.True(ok)
	s.Equal(reflect.Func, fn.Kind())

	_, ok = s.scanner.Constructor(reflect.TypeFor[base]())
	s.False(ok)

	s.Equal([]reflect.Type{reflect.TypeFor[talker]()}, s.scanner.FindByTag(reflect.TypeFor[marker]()))
}

func (s *ScannerTestSuite) TestManifestRejectsBadConstructors() {
	m := NewManifest("bad")

	s.Panics(func() { m.AddConstructor(42) })
	s.Panics(func() { m.AddConstructor(func() {}) })
	s.Panics(func() { m.Add(nil) })
}

func (s *ScannerTestSuite) TestDefaultIsShared() {
	s.Same(Default(), Default())
}

func TestScanner(t *testing.T) { suite.Run(t, new(ScannerTestSuite)) }
