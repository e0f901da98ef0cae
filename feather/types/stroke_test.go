package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validStroke(id string) Stroke {
	return Stroke{Id: id, Tool: ToolPen, Color: "#ff0000", Width: 2, Points: []Point{{X: 1, Y: 2}}}
}

func TestStrokeValidate(t *testing.T) {
	assert.Nil(t, validStroke("s1").Validate())

	invalid := map[string]func(s *Stroke){
		"no id":        func(s *Stroke) { s.Id = "" },
		"unknown tool": func(s *Stroke) { s.Tool = "laser" },
		"bad color":    func(s *Stroke) { s.Color = "red" },
		"zero width":   func(s *Stroke) { s.Width = 0 },
		"wide":         func(s *Stroke) { s.Width = MaxStrokeWidth + 1 },
		"no points":    func(s *Stroke) { s.Points = nil },
	}
	for name, mutate := range invalid {
		s := validStroke("s1")
		mutate(&s)
		assert.NotNil(t, s.Validate(), name)
	}
}

func TestStrokesValidate(t *testing.T) {
	assert.Nil(t, Strokes{}.Validate())
	assert.Nil(t, Strokes{validStroke("a"), validStroke("b")}.Validate())
	assert.NotNil(t, Strokes{validStroke("a"), validStroke("a")}.Validate())
}

func TestStrokesSorted(t *testing.T) {
	now := time.Now()
	a, b, c := validStroke("a"), validStroke("b"), validStroke("c")
	a.CreatedAt = now.Add(2 * time.Second)
	b.CreatedAt = now
	c.CreatedAt = now

	original := Strokes{a, b, c}
	sorted := original.Sorted()
	assert.Equal(t, []string{"b", "c", "a"}, []string{sorted[0].Id, sorted[1].Id, sorted[2].Id})
	assert.Equal(t, "a", original[0].Id)
	assert.True(t, sorted.Contains("c"))
	assert.False(t, sorted.Contains("d"))
}

func TestStrokesValueScan(t *testing.T) {
	v, err := Strokes(nil).Value()
	assert.Nil(t, err)
	assert.Equal(t, []byte("[]"), v)

	s := Strokes{}
	assert.Nil(t, s.Scan([]byte(`[{"id":"a","tool":"pen","color":"#000","width":1,"points":[{"x":1,"y":1}]}]`)))
	assert.Len(t, s, 1)
	assert.Equal(t, "a", s[0].Id)

	assert.Nil(t, s.Scan(nil))
	assert.Empty(t, s)

	assert.NotNil(t, s.Scan(42))
}
