package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLatencies(t *testing.T) {
	l := newLatencies()
	start := time.Now()
	for i := 1; i <= 100; i++ {
		id := string(rune('a'+i%26)) + time.Duration(i).String()
		l.Sent(id, start)
		l.Received(id, start.Add(time.Duration(i)*time.Millisecond))
		l.Received(id, start.Add(time.Hour))
	}
	l.Sent("lost", start)
	l.Received("unknown", start)

	r := l.Report()
	assert.Equal(t, 100, r.Received)
	assert.Equal(t, 1, r.Lost)
	assert.Equal(t, 50*time.Millisecond, r.P50)
	assert.Equal(t, 95*time.Millisecond, r.P95)
	assert.Equal(t, 99*time.Millisecond, r.P99)
	assert.Equal(t, 100*time.Millisecond, r.Max)

	buf := &bytes.Buffer{}
	r.Print(buf)
	assert.Contains(t, buf.String(), "lost: 1")
}

func TestLatencies_Empty(t *testing.T) {
	assert.Equal(t, report{}, newLatencies().Report())
}
