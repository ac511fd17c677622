package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeE164(t *testing.T) {
	assert.Equal(t, "+33612345678", NormalizeE164("06 12 34 56 78", "FR"))
	assert.Equal(t, "+33612345678", NormalizeE164("+33 6 12 34 56 78", ""))
	assert.Equal(t, "12", NormalizeE164(" 12 ", "FR"))
	assert.Equal(t, "", NormalizeE164("   ", "FR"))
}

func TestDigitCount(t *testing.T) {
	assert.Equal(t, 10, DigitCount("06.12.34.56.78"))
	assert.Equal(t, 11, DigitCount("+33 6 12 34 56 78"))
	assert.Equal(t, 0, DigitCount(""))
}
