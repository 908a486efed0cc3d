package keyvaluestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchKey(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		pattern string
		key     string
		want    bool
	}{
		"empty pattern":    {pattern: "", key: "14A12F09BCFA", want: true},
		"star":             {pattern: "*", key: "14A12F09BCFA", want: true},
		"prefix":           {pattern: "14A*", key: "14A12F09BCFA", want: true},
		"prefix mismatch":  {pattern: "15A*", key: "14A12F09BCFA", want: false},
		"malformed glob":   {pattern: "[", key: "14A12F09BCFA", want: false},
		"single character": {pattern: "K?", key: "K1", want: true},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, MatchKey(tt.pattern, tt.key))
		})
	}
}
