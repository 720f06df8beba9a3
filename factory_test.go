package di

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/Sanchous98/go-ioc/index"
	"github.com/Sanchous98/go-ioc/scan"
	"github.com/Sanchous98/go-ioc/store"
)

type built struct {
	name string
}

type failing struct{}

type missing struct{}

type byValue struct {
	name string
}

var errBoom = errors.New("boom")

type FactoryTestSuite struct {
	suite.Suite
	manager *Manager
	factory *Factory
}

func (s *FactoryTestSuite) SetupTest() {
	scanner := scan.New()
	scanner.LoadModules(scan.NewManifest("constructors").
		AddConstructor(func() *built { return &built{name: "built"} }).
		AddConstructor(func() (*failing, error) { return nil, errBoom }).
		AddConstructor(func() *missing { return nil }).
		AddConstructor(func() greeter { return new(english) }).
		AddConstructor(func() byValue { return byValue{name: "copy"} }))

	s.manager = NewManager(WithScanner(scanner), WithAllocator(index.New()))
	s.Require().NoError(s.manager.InitializeWith(store.Mutable))
	s.factory = s.manager.Factory()
}

func (s *FactoryTestSuite) TestCreateStruct() {
	instance, err := s.factory.Create(TypeOf[compA](), false)
	s.Require().NoError(err)

	a, ok := instance.(*compA)
	s.Require().True(ok)
	s.Equal(1, a.constructed)

	_, registered := s.manager.TryResolve(TypeOf[compA]())
	s.False(registered)
}

func (s *FactoryTestSuite) TestCreateWithConstructor() {
	instance, err := s.factory.Create(TypeOf[*built](), false)
	s.Require().NoError(err)
	s.Equal("built", instance.(*built).name)
}

func (s *FactoryTestSuite) TestCreateInterface() {
	instance, err := s.factory.Create(TypeOf[greeter](), false)
	s.Require().NoError(err)
	s.Equal("hello", instance.(greeter).Greet())
}

func (s *FactoryTestSuite) TestCreateFromValueConstructor() {
	instance, err := s.factory.Create(TypeOf[byValue](), false)
	s.Require().NoError(err)
	s.Equal("copy", instance.(*byValue).name)
}

func (s *FactoryTestSuite) TestCreateConstructorError() {
	_, err := s.factory.Create(TypeOf[failing](), false)
	s.ErrorIs(err, ErrConstruction)
	s.ErrorIs(err, errBoom)
}

func (s *FactoryTestSuite) TestCreateNullInstance() {
	_, err := s.factory.Create(TypeOf[missing](), true)
	s.ErrorIs(err, ErrNullInstance)

	_, ok := s.manager.TryResolve(TypeOf[missing]())
	s.False(ok)
}

func (s *FactoryTestSuite) TestCreateWithoutZeroArgumentPath() {
	_, err := s.factory.Create(TypeOf[count](), false)
	s.ErrorIs(err, ErrConstruction)

	_, err = s.factory.Create(TypeOf[Resolver](), false)
	s.ErrorIs(err, ErrConstruction)

	_, err = s.factory.Create(nil, false)
	s.ErrorIs(err, ErrConstruction)
}

func (s *FactoryTestSuite) TestCreateAutoRegister() {
	instance, err := s.factory.Create(TypeOf[plainD](), true)
	s.Require().NoError(err)

	got, err := s.manager.Resolve(TypeOf[plainD]())
	s.Require().NoError(err)
	s.Same(instance, got)

	_, err = s.factory.Create(TypeOf[plainD](), true)
	s.ErrorIs(err, ErrAlreadyExists)
}

func (s *FactoryTestSuite) TestCreateMany() {
	instances, err := s.factory.CreateMany([]reflect.Type{TypeOf[compA](), TypeOf[compB](), TypeOf[*compA]()}, true)
	s.Require().NoError(err)
	s.Len(instances, 2)

	for t, instance := range instances {
		got, err := s.manager.Resolve(t)
		s.Require().NoError(err)
		s.Same(instance, got)
	}
}

func (s *FactoryTestSuite) TestCreateManyAllOrNothing() {
	instances, err := s.factory.CreateMany([]reflect.Type{TypeOf[compA](), TypeOf[count](), TypeOf[compB]()}, true)
	s.ErrorIs(err, ErrConstruction)
	s.Nil(instances)

	s.Zero(s.manager.Store().Len())
}

func (s *FactoryTestSuite) TestCreateManyCollision() {
	s.Require().NoError(s.manager.Register(TypeOf[compB](), new(compB)))

	instances, err := s.factory.CreateMany([]reflect.Type{TypeOf[compA](), TypeOf[compB]()}, true)
	s.ErrorIs(err, ErrAlreadyExists)
	s.Nil(instances)

	_, ok := s.manager.TryResolve(TypeOf[compA]())
	s.False(ok)
}

func TestFactory(t *testing.T) {
	suite.Run(t, new(FactoryTestSuite))
}
