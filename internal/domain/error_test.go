package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Format(t *testing.T) {
	assert.Equal(t, "manifest.load: MANIFEST: not found", E(CodeManifest, "manifest.load", "not found", nil).Error())
	assert.Equal(t, "NETWORK: refused", E(CodeNetwork, "", "", errors.New("refused")).Error())
	assert.Equal(t, "probe.tools: PROTOCOL", (&Error{Code: CodeProtocol, Op: "probe.tools"}).Error())
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(CodeNetwork, "op", nil))

	inner := E(CodeProtocol, "", "bad body", nil)
	wrapped := Wrap(CodeNetwork, "probe.tools", inner)
	assert.Equal(t, CodeProtocol, wrapped.Code)
	assert.Equal(t, "probe.tools", wrapped.Op)

	plain := Wrap(CodeConfigParse, "configscan.scan", errors.New("eof"))
	assert.Equal(t, CodeConfigParse, plain.Code)
	assert.Equal(t, "eof", plain.Message)
}

func TestCodeFrom(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
		ok   bool
	}{
		{name: "nil", err: nil},
		{name: "domain", err: fmt.Errorf("wrapped: %w", E(CodeManifest, "", "", nil)), want: CodeManifest, ok: true},
		{name: "unsupported", err: ErrUnsupportedPlatform, want: CodeUnsupportedPlatform, ok: true},
		{name: "gone", err: ErrProcessGone, want: CodeProcessAccess, ok: true},
		{name: "denied", err: fmt.Errorf("x: %w", ErrAccessDenied), want: CodeProcessAccess, ok: true},
		{name: "canceled", err: context.Canceled, want: CodeCanceled, ok: true},
		{name: "deadline", err: context.DeadlineExceeded, want: CodeDeadlineExceeded, ok: true},
		{name: "plain", err: errors.New("x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CodeFrom(tt.err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(E(CodeManifest, "", "", nil)))
	assert.False(t, IsFatal(E(CodeUnsupportedPlatform, "", "", ErrUnsupportedPlatform)))
	assert.False(t, IsFatal(E(CodeConfigParse, "", "", nil)))
	assert.False(t, IsFatal(nil))
}

func TestOutcome(t *testing.T) {
	ok := Ok(3)
	assert.True(t, ok.OK())
	assert.Equal(t, ErrorCode(""), ok.Code())

	failed := Fail[int](E(CodeNetwork, "", "", nil))
	assert.False(t, failed.OK())
	assert.Equal(t, CodeNetwork, failed.Code())

	assert.Equal(t, CodeInternal, Fail[int](errors.New("x")).Code())
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, StatusSuccess, StatusOf(nil))
	assert.Equal(t, StatusError, StatusOf(errors.New("x")))
}
