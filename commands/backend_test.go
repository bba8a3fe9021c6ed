package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskConnectionString(t *testing.T) {
	cases := map[string]string{
		"postgres://app:s3cret@db:5432/estate": "postgres://app:****@db:5432/estate",
		"postgres://app@db/estate":             "postgres://app@db/estate",
		"host=db user=app":                     "host=db user=app",
	}
	for in, want := range cases {
		assert.Equal(t, want, maskConnectionString(in), in)
	}
}
