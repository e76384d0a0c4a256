package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
)

func newTestContext(target string) *HTTPContext {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return &HTTPContext{Request: req, Writer: httptest.NewRecorder()}
}

func TestGetPaginationParams(t *testing.T) {
	c := qt.New(t)

	page, pageSize, err := newTestContext("/spots").GetPaginationParams()
	c.Assert(err, qt.IsNil)
	c.Assert(page, qt.Equals, 0)
	c.Assert(pageSize, qt.Equals, 20)

	page, pageSize, err = newTestContext("/spots?page=3&pageSize=50").GetPaginationParams()
	c.Assert(err, qt.IsNil)
	c.Assert(page, qt.Equals, 3)
	c.Assert(pageSize, qt.Equals, 50)

	// Oversized page size is clamped, not rejected.
	_, pageSize, err = newTestContext("/spots?pageSize=5000").GetPaginationParams()
	c.Assert(err, qt.IsNil)
	c.Assert(pageSize, qt.Equals, 100)

	_, _, err = newTestContext("/spots?page=-1").GetPaginationParams()
	c.Assert(err, qt.IsNotNil)

	_, _, err = newTestContext("/spots?pageSize=zero").GetPaginationParams()
	c.Assert(err, qt.IsNotNil)
}

func TestCalculatePagination(t *testing.T) {
	c := qt.New(t)

	info := CalculatePagination(0, 20, 45)
	c.Assert(info.Pages, qt.Equals, 3)
	c.Assert(info.Total, qt.Equals, int64(45))

	info = CalculatePagination(2, 20, 40)
	c.Assert(info.Pages, qt.Equals, 2)
	c.Assert(info.Current, qt.Equals, 2)

	info = CalculatePagination(0, 20, 0)
	c.Assert(info.Pages, qt.Equals, 0)
}

func TestParseBBox(t *testing.T) {
	c := qt.New(t)

	bbox, err := parseBBox("135.6,34.8,135.9,35.1")
	c.Assert(err, qt.IsNil)
	c.Assert(bbox[0], qt.Equals, 135.6)
	c.Assert(bbox[3], qt.Equals, 35.1)

	_, err = parseBBox("135.6,34.8,135.9")
	c.Assert(err, qt.IsNotNil)

	_, err = parseBBox("135.6,34.8,135.9,abc")
	c.Assert(err, qt.IsNotNil)

	// South above north.
	_, err = parseBBox("135.6,35.1,135.9,34.8")
	c.Assert(err, qt.IsNotNil)

	_, err = parseBBox("-200,34.8,135.9,35.1")
	c.Assert(err, qt.IsNotNil)
}

func TestClientIP(t *testing.T) {
	c := qt.New(t)

	ctx := newTestContext("/spots")
	ctx.Request.RemoteAddr = "192.0.2.1:1234"
	c.Assert(ctx.ClientIP(), qt.Equals, "192.0.2.1:1234")

	ctx.Request.Header.Set("X-Real-Ip", "198.51.100.7")
	c.Assert(ctx.ClientIP(), qt.Equals, "198.51.100.7")

	// The first hop of X-Forwarded-For wins over everything.
	ctx.Request.Header.Set("X-Forwarded-For", "203.0.113.9, 198.51.100.7")
	c.Assert(ctx.ClientIP(), qt.Equals, "203.0.113.9")
}

func TestRouterHandlerEnvelope(t *testing.T) {
	c := qt.New(t)
	a := &API{rateLimiter: NewRateLimiter()}
	defer a.rateLimiter.Close()

	handler := a.routerHandler(func(r *Request) (interface{}, error) {
		return map[string]string{"hello": "world"}, nil
	})
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	var resp Response
	c.Assert(json.Unmarshal(rec.Body.Bytes(), &resp), qt.IsNil)
	c.Assert(resp.Header.Success, qt.IsTrue)

	failing := a.routerHandler(func(r *Request) (interface{}, error) {
		return nil, ErrSpotNotFound
	})
	rec = httptest.NewRecorder()
	failing(rec, httptest.NewRequest(http.MethodGet, "/spots/deadbeef", nil))

	c.Assert(rec.Code, qt.Equals, http.StatusNotFound)
	c.Assert(json.Unmarshal(rec.Body.Bytes(), &resp), qt.IsNil)
	c.Assert(resp.Header.Success, qt.IsFalse)
	c.Assert(resp.Header.Message, qt.Equals, ErrSpotNotFound.Message)
}

func TestRouterHandlerIdentityHeaders(t *testing.T) {
	c := qt.New(t)
	a := &API{rateLimiter: NewRateLimiter()}
	defer a.rateLimiter.Close()

	var got *Request
	handler := a.routerHandler(func(r *Request) (interface{}, error) {
		got = r
		return nil, nil
	})

	req := httptest.NewRequest(http.MethodPost, "/spots", strings.NewReader(`{"title":"x"}`))
	req.Header.Set("X-User-Id", "64f000000000000000000001")
	req.Header.Set("X-User-Role", "editor")
	handler(httptest.NewRecorder(), req)

	c.Assert(got, qt.IsNotNil)
	c.Assert(got.UserID, qt.Equals, "64f000000000000000000001")
	c.Assert(got.Role, qt.Equals, "editor")
	c.Assert(string(got.Data), qt.Equals, `{"title":"x"}`)
}
