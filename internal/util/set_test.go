package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Set_AddHasRemove(t *testing.T) {
	s := NewSet[string]("a", "b")

	assert.True(t, s.Has("a"))
	assert.True(t, s.Has("b"))
	assert.False(t, s.Has("c"))
	assert.Equal(t, 2, s.Len())

	s.Add("c")
	assert.True(t, s.Has("c"))
	assert.Equal(t, 3, s.Len())

	s.Remove("a")
	assert.False(t, s.Has("a"))
	assert.Equal(t, 2, s.Len())
}

func Test_Set_UnionIntersection(t *testing.T) {
	s1 := NewSet[int](1, 2, 3)
	s2 := NewSet[int](2, 3, 4)

	union := s1.Union(s2)
	assert.Equal(t, 4, union.Len())

	inter := s1.Intersection(s2)
	assert.Equal(t, 2, inter.Len())
	assert.True(t, inter.Has(2))
	assert.True(t, inter.Has(3))
	assert.False(t, inter.Has(1))
}

func Test_Set_Copy_isIndependent(t *testing.T) {
	s1 := NewSet[string]("a")
	s2 := s1.Copy()
	s2.Add("b")

	assert.False(t, s1.Has("b"))
	assert.True(t, s2.Has("b"))
}

func Test_VSet_SetGet(t *testing.T) {
	vs := NewVSet[int]()
	vs.Set("x", 10)
	vs.Set("y", 20)

	assert.Equal(t, 10, vs.Get("x"))
	assert.True(t, vs.Has("y"))
	assert.False(t, vs.Has("z"))
	assert.Equal(t, []string{"x", "y"}, vs.KeysOrdered())
}

func Test_MakeTextList(t *testing.T) {
	assert.Equal(t, "", MakeTextList(nil))
	assert.Equal(t, "a", MakeTextList([]string{"a"}))
	assert.Equal(t, "a and b", MakeTextList([]string{"a", "b"}))
	assert.Equal(t, "a, b, and c", MakeTextList([]string{"a", "b", "c"}))
}

func Test_Fingerprint_distinguishesParts(t *testing.T) {
	a := Fingerprint("S", 0, 3)
	b := Fingerprint("S", 0, 4)
	c := Fingerprint("S", 0, 3)

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, c)
}
