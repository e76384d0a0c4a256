package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// RouterHandlerFn is the function signature for adding handlers to the HTTP router.
type RouterHandlerFn = func(r *Request) (interface{}, error)

// Request represents an HTTP request to the API. It carries the decoded body
// data, the HTTP context and the identity resolved by the authenticator
// middleware (empty for public routes).
type Request struct {
	Data    []byte
	Context *HTTPContext
	UserID  string
	Role    string
}

// HTTPContext is the Context for an HTTP request.
type HTTPContext struct {
	Writer  http.ResponseWriter
	Request *http.Request
}

// URLParam gets a URL parameter. For path parameters (specified in the path
// pattern as {key}), it uses chi.URLParam. For query parameters it uses
// URL.Query(). Returns nil if the key is not found.
func (h *HTTPContext) URLParam(key string) []string {
	if param := chi.URLParam(h.Request, key); param != "" {
		return []string{param}
	}
	keys := h.Request.URL.Query()
	if k, ok := keys[key]; ok {
		return k
	}
	return nil
}

// GetPage returns the page number from the query parameters, 0 when absent.
func (h *HTTPContext) GetPage() (int, error) {
	pageParam := h.URLParam("page")
	if pageParam == nil {
		return 0, nil
	}
	page, err := strconv.Atoi(pageParam[0])
	if err != nil {
		return 0, fmt.Errorf("invalid page number")
	}
	if page < 0 {
		return 0, fmt.Errorf("page number cannot be negative")
	}
	return page, nil
}

// ClientIP returns the client address for rate-limiting purposes, honoring
// the usual proxy headers.
func (h *HTTPContext) ClientIP() string {
	if fwd := h.Request.Header.Get("X-Forwarded-For"); fwd != "" {
		for i := 0; i < len(fwd); i++ {
			if fwd[i] == ',' {
				return fwd[:i]
			}
		}
		return fwd
	}
	if real := h.Request.Header.Get("X-Real-Ip"); real != "" {
		return real
	}
	return h.Request.RemoteAddr
}

// writeJSON marshals resp and writes it with the given status code.
func writeJSON(w http.ResponseWriter, code int, resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		if _, err := w.Write([]byte(`{"header":{"success":false,"message":"internal server error"}}`)); err != nil {
			log.Error().Err(err).Msg("failed to write response")
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

// routerHandler is a wrapper around the HTTP handler function to handle the
// request and response. It reads the request body, calls the handler function
// and sends the response inside the standard JSON envelope. Errors are logged
// and translated to their HTTP status code.
func (a *API) routerHandler(handlerFunc RouterHandlerFn) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body []byte
		if req.Body != nil {
			var err error
			body, err = io.ReadAll(req.Body)
			if err != nil {
				log.Warn().Err(err).Msg("failed to read request body")
				writeJSON(w, http.StatusBadRequest, &Response{
					Header: ResponseHeader{Success: false, Message: "failed to read request body"},
				})
				return
			}
			if err := req.Body.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close request body")
			}
			if len(body) > 0 {
				log.Debug().Msgf("request: %s", func() string {
					if len(body) > 1024 {
						return fmt.Sprintf("%s...", body[:1024])
					}
					return string(body)
				}())
			}
		}

		// Identity headers are set by the authenticator middleware.
		request := &Request{
			Data:    body,
			Context: &HTTPContext{Request: req, Writer: w},
			UserID:  req.Header.Get("X-User-Id"),
			Role:    req.Header.Get("X-User-Role"),
		}

		handlerResp, err := handlerFunc(request)
		if err != nil {
			log.Warn().Err(err).Str("path", req.URL.Path).Msg("failed request")
			httpErr, ok := err.(*HTTPError)
			if !ok {
				httpErr = ErrInternalServerError.WithErr(err)
			}
			writeJSON(w, httpErr.Code, &Response{
				Header: ResponseHeader{Success: false, Message: httpErr.Message},
			})
			return
		}

		writeJSON(w, http.StatusOK, &Response{
			Header: ResponseHeader{Success: true},
			Data:   handlerResp,
		})
	}
}
