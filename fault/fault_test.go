// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fault

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string { return "deadline exceeded" }
func (timeoutErr) Timeout() bool { return true }

func TestKindName(t *testing.T) {
	names := map[Kind]string{
		Network:      "Network",
		Timeout:      "Timeout",
		NoConnection: "NoConnection",
		Auth:         "Auth",
		Server:       "Server",
		Parse:        "Parse",
	}
	for k, name := range names {
		assert.Equal(t, name, k.Name())
		assert.Equal(t, name, k.String())
	}
	assert.Equal(t, "Kind(99)", Kind(99).String())
}

func TestCategorize(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected Kind
	}{
		{"nil", nil, Network},
		{"plain", errors.New("boom"), Network},
		{"timeout", timeoutErr{}, Timeout},
		{"wrapped timeout", &url.Error{Op: "Get", URL: "http://example.com", Err: timeoutErr{}}, Timeout},
		{"conn refused", syscall.ECONNREFUSED, NoConnection},
		{"conn reset", syscall.ECONNRESET, NoConnection},
		{"wrapped errno", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), NoConnection},
		{"dns", &net.DNSError{Err: "no such host", Name: "nowhere.invalid"}, NoConnection},
		{"other errno", syscall.EPIPE, Network},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, Categorize(testCase.err))
		})
	}
}

func TestWrap(t *testing.T) {
	t.Run("already typed", func(t *testing.T) {
		fe := New(Auth, nil)
		assert.Same(t, fe, Wrap(fe))
	})
	t.Run("typed but wrapped", func(t *testing.T) {
		fe := New(Server, nil)
		assert.Same(t, fe, Wrap(fmt.Errorf("dispatch: %w", fe)))
	})
	t.Run("raw transport error", func(t *testing.T) {
		fe := Wrap(timeoutErr{})
		assert.Equal(t, Timeout, fe.Kind)
		assert.True(t, fe.Timeout())
	})
}

func TestError(t *testing.T) {
	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("underlying")
		fe := New(Timeout, cause)
		assert.Equal(t, "httpq: Timeout: underlying", fe.Error())
		assert.Same(t, cause, fe.Unwrap())
		assert.True(t, errors.Is(fe, cause))
	})
	t.Run("with response", func(t *testing.T) {
		fe := WithResponse(Server, 503, []byte("unavailable"), http.Header{"Retry-After": []string{"1"}})
		assert.Equal(t, "httpq: Server: status code 503", fe.Error())
		assert.Equal(t, 503, fe.StatusCode)
		assert.Equal(t, []byte("unavailable"), fe.Body)
		assert.False(t, fe.Timeout())
	})
	t.Run("bare", func(t *testing.T) {
		assert.Equal(t, "httpq: Parse", New(Parse, nil).Error())
	})
}

func TestAs(t *testing.T) {
	fe, ok := As(fmt.Errorf("outer: %w", New(NoConnection, nil)))
	require.True(t, ok)
	assert.Equal(t, NoConnection, fe.Kind)

	_, ok = As(errors.New("untyped"))
	assert.False(t, ok)
}
