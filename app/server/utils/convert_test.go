package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPV(t *testing.T) {
	p := P("x")
	assert.Equal(t, "x", *p)
	assert.Equal(t, "x", V(p))

	var nilString *string
	assert.Equal(t, "", V(nilString))
	assert.Equal(t, 0, V[int](nil))
}
