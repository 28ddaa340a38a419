package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCAP(t *testing.T) {
	s := Ready
	assert.True(t, CAP(&s, Ready, Running))
	assert.False(t, CAP(&s, Ready, Running))
	assert.True(t, Load(&s).Running())
	assert.Equal(t, "running", s.String())
}

func TestClose(t *testing.T) {
	s := Running
	assert.True(t, Close(&s))
	assert.False(t, Close(&s))
	assert.True(t, Load(&s).Closed())
}
