//go:build !viture || !cgo

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsoleWithoutSDK(t *testing.T) {
	code, _, errOut := runCLI(t, "quit\n", "console")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "error: viture sdk")
}
