package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"ana@x.pt", true},
		{"admin@sunset.pt", true},
		{"a.b+c@sub.domain.com", true},
		{"a@b.c", true},
		{"", false},
		{"ana", false},
		{"ana@x", false},
		{"@x.pt", false},
		{"ana@.pt", false},
		{"ana@x.", false},
		{"an a@x.pt", false},
		{"ana@@x.pt", false},
		{"ana\u00a0@x.pt", false},
		{"ana@x.pt\u2028", false},
		{"\vana@x.pt", false},
		{"ana@x\u3000y.pt", false},
		{"\ufeffana@x.pt", false},
		{"joão@exemplo.pt", true},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateEmail(tt.email))
		})
	}
}

func TestValidatePassword(t *testing.T) {
	assert.False(t, ValidatePassword(""))
	assert.False(t, ValidatePassword("12345"))
	assert.True(t, ValidatePassword("123456"))
	assert.True(t, ValidatePassword("çãõéíó"))
	assert.False(t, ValidatePassword("çãõéí"))
}
