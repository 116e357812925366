package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "bad input", New(CodeParse, "bad input").Error())
	assert.Equal(t, "dial failed: refused", Wrap(CodeNetwork, "dial failed", errors.New("refused")).Error())
	assert.Equal(t, "network foo is not supported", Newf(CodeUnsupportedNetwork, "network %s is not supported", "foo").Error())
}

func TestAsThroughWrapping(t *testing.T) {
	base := New(CodeInsufficientBalance, "Insufficient USDC balance")
	wrapped := fmt.Errorf("allowance gate: %w", base)

	got, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeInsufficientBalance, got.Code)
	assert.True(t, Is(wrapped, CodeInsufficientBalance))
	assert.False(t, Is(wrapped, CodeAllowance))

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := errors.New("execution reverted")
	err := Wrap(CodeGasEstimation, "gas estimation failed", cause)
	assert.ErrorIs(t, err, cause)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	for _, code := range []Code{CodeUsage, CodeConfiguration, CodeParse, CodeNetwork, CodeGasEstimation} {
		t.Run(code.String(), func(t *testing.T) {
			assert.Equal(t, 1, ExitCode(New(code, "x")))
		})
	}
	assert.Equal(t, 1, ExitCode(errors.New("untyped")))
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "usage", CodeUsage.String())
	assert.Equal(t, "code(99)", Code(99).String())
}
