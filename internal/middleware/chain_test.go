//go:build unit

package middleware

import (
	"errors"
	"go-sessiond/internal/message"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tag records its name on the way in and appends it to the body on the way
// out.
func tag(name string, trace *[]string) Middleware {
	return MiddlewareFunc(func(r *http.Request, next Handler) (*message.Response, error) {
		*trace = append(*trace, name)
		resp, err := next.Handle(r)
		if err != nil {
			return nil, err
		}
		resp.Body = append(resp.Body, name...)
		return resp, nil
	})
}

func TestChainOrder(t *testing.T) {
	var trace []string
	h := Chain(HandlerFunc(func(r *http.Request) (*message.Response, error) {
		trace = append(trace, "handler")
		return message.Text(http.StatusOK, ""), nil
	}), tag("a", &trace), tag("b", &trace))

	resp, err := h.Handle(emptyRequest())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "handler"}, trace)
	assert.Equal(t, "ba", string(resp.Body), "the outermost middleware sees the response last")
}

func TestChainWithoutMiddlewares(t *testing.T) {
	h := HandlerFunc(func(r *http.Request) (*message.Response, error) {
		return message.Text(http.StatusOK, "plain"), nil
	})
	resp, err := Chain(h).Handle(emptyRequest())
	require.NoError(t, err)
	assert.Equal(t, "plain", string(resp.Body))
}

func TestChainWithNativeSession(t *testing.T) {
	rig := newTestRig(t)
	h := Chain(counterHandler(rig.engine), rig.middleware, NoStore())

	resp, err := h.Handle(emptyRequest())
	require.NoError(t, err)
	assert.Equal(t, "1", string(resp.Body))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	c, ok := message.Cookie(resp, "SESSID")
	require.True(t, ok)

	resp, err = h.Handle(requestWithCookiesFrom(resp))
	require.NoError(t, err)
	assert.Equal(t, "2", string(resp.Body))
	again, _ := message.Cookie(resp, "SESSID")
	assert.Equal(t, c.Value, again.Value)
}

func TestNoStoreLeavesErrorsAlone(t *testing.T) {
	boom := errors.New("boom")
	h := Chain(HandlerFunc(func(r *http.Request) (*message.Response, error) {
		return nil, boom
	}), NoStore())

	resp, err := h.Handle(emptyRequest())
	assert.Same(t, boom, err)
	assert.Nil(t, resp)

	h = Chain(HandlerFunc(func(r *http.Request) (*message.Response, error) {
		return &message.Response{StatusCode: http.StatusOK}, nil
	}), NoStore())
	resp, err = h.Handle(emptyRequest())
	require.NoError(t, err)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}
