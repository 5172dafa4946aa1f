package gotype_test

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specshape/specshape/api"
	"github.com/specshape/specshape/provider/gotype"
	"github.com/specshape/specshape/shape"
)

func inputString(t *testing.T, p *gotype.Provider, operand any) string {
	t.Helper()
	s, err := p.ProjectInput(operand)
	require.NoError(t, err)
	return s.String()
}

func outputString(t *testing.T, p *gotype.Provider, operand any) string {
	t.Helper()
	s, err := p.ProjectOutput(operand)
	require.NoError(t, err)
	return s.String()
}

func TestPrimitives(t *testing.T) {
	t.Parallel()

	p := gotype.New()
	cases := []struct {
		operand any
		want    string
	}{
		{"", "string"},
		{0, "int"},
		{int64(0), "int64"},
		{uint8(0), "uint8"},
		{0.0, "float64"},
		{float32(0), "float32"},
		{false, "bool"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, inputString(t, p, tc.operand))
			assert.Equal(t, tc.want, outputString(t, p, tc.operand))
		})
	}
}

func TestStructTagNames(t *testing.T) {
	t.Parallel()

	type user struct {
		ID     int    `json:"id"`
		Name   string `json:"name,omitempty"`
		Secret string `json:"-"`
		hidden string `json:"hidden"`
		Plain  bool
	}
	_ = user{hidden: ""}

	p := gotype.New()
	assert.Equal(t, "{id: int, name?: string, Plain: bool}", inputString(t, p, user{}))
	assert.Equal(t, "{id: int, name: string, Plain: bool}", outputString(t, p, user{}))
}

func TestDashNameAndTagOptions(t *testing.T) {
	t.Parallel()

	type odd struct {
		Dash string `json:"-,"`
	}
	p := gotype.New()
	assert.Equal(t, "{-: string}", inputString(t, p, odd{}))
}

func TestPointerNullable(t *testing.T) {
	t.Parallel()

	type patch struct {
		Note *string `json:"note,omitempty"`
	}
	p := gotype.New()

	in, err := p.ProjectInput(patch{})
	require.NoError(t, err)
	assert.Equal(t, "{note?: string?}", in.String())

	obj, ok := in.(shape.Object)
	require.True(t, ok)
	f, ok := obj.Field("note")
	require.True(t, ok)
	assert.True(t, f.Optional)
	assert.Equal(t, shape.KindNullable, f.Shape.Kind())

	assert.Equal(t, "string?", inputString(t, p, (*string)(nil)))
}

func TestCollections(t *testing.T) {
	t.Parallel()

	p := gotype.New()
	assert.Equal(t, "[]string", inputString(t, p, []string{}))
	assert.Equal(t, "[]int", inputString(t, p, [3]int{}))
	assert.Equal(t, "map[string]int", inputString(t, p, map[string]int{}))
	assert.Equal(t, "[][]bool", inputString(t, p, [][]bool{}))

	s, err := p.ProjectInput(map[int]string{})
	require.NoError(t, err)
	assert.Equal(t, shape.KindOpaque, s.Kind())
	assert.Equal(t, "opaque<map[int]string>", s.String())
}

func TestBytesAndTime(t *testing.T) {
	t.Parallel()

	p := gotype.New()
	assert.Equal(t, "string", inputString(t, p, []byte{}))
	assert.Equal(t, "string", inputString(t, p, json.RawMessage{}))
	assert.Equal(t, "string", inputString(t, p, time.Time{}))
	assert.Equal(t, "string?", inputString(t, p, (*time.Time)(nil)))
}

func TestInterfaceFieldsAreAny(t *testing.T) {
	t.Parallel()

	type envelope struct {
		Data any          `json:"data"`
		Err  error        `json:"err"`
		Raw  []interface{} `json:"raw"`
	}
	p := gotype.New()
	assert.Equal(t, "{data: any, err: any, raw: []any}", inputString(t, p, envelope{}))
}

func TestChanAndFuncAreOpaque(t *testing.T) {
	t.Parallel()

	type wild struct {
		C chan int `json:"c"`
		F func()   `json:"f"`
	}
	p := gotype.New()
	assert.Equal(t, "{c: opaque<chan int>, f: opaque<func()>}", inputString(t, p, wild{}))
}

func TestEmbeddedStructsFlatten(t *testing.T) {
	t.Parallel()

	type base struct {
		ID      int    `json:"id"`
		Created string `json:"created"`
	}
	type wrapped struct {
		base
		Name string `json:"name"`
	}
	type shadowed struct {
		base
		ID string `json:"id"`
	}
	type viaPointer struct {
		*base
		Name string `json:"name"`
	}
	type tagged struct {
		Base base `json:"base"`
	}

	p := gotype.New()
	assert.Equal(t, "{id: int, created: string, name: string}", inputString(t, p, wrapped{}))
	assert.Equal(t, "{created: string, id: string}", inputString(t, p, shadowed{}),
		"declared fields shadow promoted ones")
	assert.Equal(t, "{id: int, created: string, name: string}", inputString(t, p, viaPointer{}))
	assert.Equal(t, "{base: {id: int, created: string}}", inputString(t, p, tagged{}),
		"a tag name turns the embed into a regular field")
}

func TestOmitemptyAsymmetry(t *testing.T) {
	t.Parallel()

	type page struct {
		Items []string `json:"items"`
		Next  string   `json:"next,omitempty"`
	}
	p := gotype.New()
	assert.Equal(t, "{items: []string, next?: string}", inputString(t, p, page{}))
	assert.Equal(t, "{items: []string, next: string}", outputString(t, p, page{}))
}

func TestTagNameOption(t *testing.T) {
	t.Parallel()

	type doc struct {
		Title string `json:"jsonTitle" yaml:"yamlTitle"`
	}
	assert.Equal(t, "{jsonTitle: string}", inputString(t, gotype.New(), doc{}))
	assert.Equal(t, "{yamlTitle: string}", inputString(t, gotype.New(gotype.WithTagName("yaml")), doc{}))
}

type node struct {
	Val  int   `json:"val"`
	Next *node `json:"next,omitempty"`
}

func TestRecursiveTypesTerminate(t *testing.T) {
	t.Parallel()

	s, err := gotype.New().ProjectInput(node{})
	require.NoError(t, err)
	assert.Equal(t, shape.KindObject, s.Kind())

	shallow := gotype.New(gotype.WithMaxDepth(1))
	assert.Equal(t, "{val: any, next?: any}", inputString(t, shallow, node{}))
}

func TestOperandForms(t *testing.T) {
	t.Parallel()

	type user struct {
		ID int `json:"id"`
	}
	p := gotype.New()

	t.Run("nil is unconstrained", func(t *testing.T) {
		t.Parallel()
		s, err := p.ProjectInput(nil)
		require.NoError(t, err)
		assert.Equal(t, shape.KindAny, s.Kind())
	})

	t.Run("reflect.Type matches plain value", func(t *testing.T) {
		t.Parallel()
		fromValue, err := p.ProjectInput(user{})
		require.NoError(t, err)
		fromType, err := p.ProjectInput(reflect.TypeOf(user{}))
		require.NoError(t, err)
		assert.True(t, fromValue.Equal(fromType))
	})

	t.Run("parameter schema unwrapped", func(t *testing.T) {
		t.Parallel()
		param := &api.Parameter{Schema: reflect.TypeOf(user{})}
		assert.Equal(t, "{id: int}", inputString(t, p, param))

		body := &api.BodyParameter{Schema: user{}}
		assert.Equal(t, "{id: int}", inputString(t, p, body))
	})

	t.Run("schema-less parameter is unconstrained", func(t *testing.T) {
		t.Parallel()
		s, err := p.ProjectInput(&api.Parameter{})
		require.NoError(t, err)
		assert.Equal(t, shape.KindAny, s.Kind())

		s, err = p.ProjectInput((*api.BodyParameter)(nil))
		require.NoError(t, err)
		assert.Equal(t, shape.KindAny, s.Kind())
	})
}

func TestProjectionDeterminism(t *testing.T) {
	t.Parallel()

	type user struct {
		ID   int      `json:"id"`
		Tags []string `json:"tags,omitempty"`
	}
	p := gotype.New()
	first, err := p.ProjectInput(user{})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := p.ProjectInput(user{})
		require.NoError(t, err)
		assert.True(t, first.Equal(again))
	}
}
