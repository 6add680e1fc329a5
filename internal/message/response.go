// Package message holds the response value passed through the middleware
// pipeline before it is written to the client.
package message

import (
	"net/http"
)

// Response is a fully materialized HTTP response. Nothing is sent to the
// client until Write is called, so middlewares can still change headers.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// New creates a response with the given status code and body.
func New(status int, body []byte) *Response {
	return &Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       body,
	}
}

// Text creates a plain-text response.
func Text(status int, body string) *Response {
	resp := New(status, []byte(body))
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	return resp
}

// AppendCookie adds a Set-Cookie header to resp. Cookies already present on
// the response are kept. Invalid cookies are dropped, as http.SetCookie does.
func AppendCookie(resp *Response, c *http.Cookie) *Response {
	if resp.Header == nil {
		resp.Header = make(http.Header)
	}
	if v := c.String(); v != "" {
		resp.Header.Add("Set-Cookie", v)
	}
	return resp
}

// Cookies parses every Set-Cookie header of resp.
func Cookies(resp *Response) []*http.Cookie {
	return (&http.Response{Header: resp.Header}).Cookies()
}

// Cookie returns the last Set-Cookie entry named name.
func Cookie(resp *Response, name string) (*http.Cookie, bool) {
	var found *http.Cookie
	for _, c := range Cookies(resp) {
		if c.Name == name {
			found = c
		}
	}
	return found, found != nil
}

// Write emits resp on w.
func Write(w http.ResponseWriter, resp *Response) error {
	h := w.Header()
	for k, vv := range resp.Header {
		for _, v := range vv {
			h.Add(k, v)
		}
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(resp.Body) == 0 {
		return nil
	}
	_, err := w.Write(resp.Body)
	return err
}
