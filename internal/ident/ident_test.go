package ident

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSequence(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := NewSequence("b", start, time.Second)

	assert.Equal(t, "b-1", s.NewID())
	assert.Equal(t, "b-2", s.NewID())
	assert.Equal(t, start, s.Now())
	assert.Equal(t, start.Add(time.Second), s.Now())
}

func TestSystem(t *testing.T) {
	var p Provider = System{}

	a, b := p.NewID(), p.NewID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
	assert.Equal(t, time.UTC, p.Now().Location())
}
