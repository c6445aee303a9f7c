package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvelopeNormalizeDefaults(t *testing.T) {
	norm := Envelope{}.normalize()
	assert.Equal(t, defaultLimit, norm.Limit)
	assert.Equal(t, 0, norm.Offset)
	assert.Equal(t, "desc", norm.Order)
}

func TestEnvelopeNormalizeClampsLimit(t *testing.T) {
	assert.Equal(t, defaultLimit, Envelope{Limit: -5}.normalize().Limit)
	assert.Equal(t, defaultLimit, Envelope{Limit: 0}.normalize().Limit)
	assert.Equal(t, maxLimit, Envelope{Limit: 100000}.normalize().Limit)
	assert.Equal(t, 50, Envelope{Limit: 50}.normalize().Limit)
}

func TestEnvelopeNormalizeClampsOffset(t *testing.T) {
	assert.Equal(t, 0, Envelope{Offset: -10}.normalize().Offset)
	assert.Equal(t, 20, Envelope{Offset: 20}.normalize().Offset)
}

func TestEnvelopeNormalizeOrder(t *testing.T) {
	assert.Equal(t, "asc", Envelope{Order: "asc"}.normalize().Order)
	assert.Equal(t, "desc", Envelope{Order: "nonsense"}.normalize().Order)
}

func TestValidateOp(t *testing.T) {
	assert.NoError(t, validateOp(OpEq))
	assert.NoError(t, validateOp(OpExists))
	assert.Error(t, validateOp("bogus"))
}
