package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotSupported, "unsupported file extension .vue")
		assert.Equal(t, "[NOT_SUPPORTED] unsupported file extension .vue", err.Error())
	})

	t.Run("Wrap", func(t *testing.T) {
		err := Wrap(fs.ErrNotExist, CodeNotFound, "lint target")
		assert.Equal(t, "[NOT_FOUND] lint target: file does not exist", err.Error())
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("ContextSortedInMessage", func(t *testing.T) {
		err := (&DomainError{
			Code:    CodeValidationError,
			Message: "unknown option",
		}).WithContext(CtxRule, "prefer-enum").WithContext(CtxOption, "casing")
		assert.Equal(t, "[VALIDATION_ERROR] unknown option option=casing rule=prefer-enum", err.Error())
	})
}

func TestIsCode(t *testing.T) {
	invalidGlob := (&DomainError{
		Code:    CodeValidationError,
		Message: `invalid exclude pattern "[a"`,
	}).WithContext(CtxPattern, "[a")

	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"direct", invalidGlob, CodeValidationError, true},
		{"other code", invalidGlob, CodeNotFound, false},
		{"wrapped by fmt", fmt.Errorf("compile globs: %w", invalidGlob), CodeValidationError, true},
		{"inner domain code", Wrap(New(CodeConflict, "overlapping edits"), CodeInternal, "apply fix"), CodeConflict, true},
		{"outer domain code", Wrap(New(CodeConflict, "overlapping edits"), CodeInternal, "apply fix"), CodeInternal, true},
		{"plain error", errors.New("boom"), CodeInternal, false},
		{"nil", nil, CodeInternal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCode(tt.err, tt.code))
		})
	}
}

func TestAddContext(t *testing.T) {
	t.Run("DomainErrorInChain", func(t *testing.T) {
		base := New(CodeValidationError, "config: unknown rule")
		wrapped := fmt.Errorf("load: %w", base)

		got := AddContext(wrapped, CtxPath, "zodlint.toml")
		assert.Same(t, wrapped, got, "the original chain is returned")

		var de *DomainError
		require.ErrorAs(t, got, &de)
		assert.Equal(t, "zodlint.toml", de.Context[CtxPath])
		assert.True(t, IsCode(got, CodeValidationError))
	})

	t.Run("PlainError", func(t *testing.T) {
		got := AddContext(fs.ErrPermission, CtxPath, "src/user.ts")
		assert.True(t, IsCode(got, CodeInternal))
		assert.ErrorIs(t, got, fs.ErrPermission)

		var de *DomainError
		require.ErrorAs(t, got, &de)
		assert.Equal(t, map[string]any{CtxPath: "src/user.ts"}, de.Context)
	})

	t.Run("Nil", func(t *testing.T) {
		assert.NoError(t, AddContext(nil, CtxRule, "no-any"))
	})
}
