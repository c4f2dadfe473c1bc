package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodePolarsDurationNeverPluralizes(t *testing.T) {
	assert.Equal(t, "20200 milisecond", EncodePolarsDuration(20200, Milisecond))
	assert.Equal(t, "56 microsecond", EncodePolarsDuration(56, Microsecond))
	assert.Equal(t, "1 microsecond", EncodePolarsDuration(1, Microsecond))
}

func TestEncodePolarsDurationNanosecondConvertsToFractionalMicrosecond(t *testing.T) {
	assert.Equal(t, "9.87 microsecond", EncodePolarsDuration(9865.0/1000.0, Microsecond))
}
