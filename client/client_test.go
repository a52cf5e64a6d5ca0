package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	req := require.New(t)

	frame, err := parseLine("42: hello: world ")
	req.NoError(err)
	req.Equal(outgoing{To: 42, Content: "hello: world"}, frame)

	for _, bad := range []string{"no separator", "abc:hi", "0:hi", "-3:hi"} {
		_, err := parseLine(bad)
		req.Error(err, bad)
	}
}
