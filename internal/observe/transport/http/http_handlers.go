// Package httptransport provides HTTP handlers.
package httptransport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"observe/internal/observe/core"
)

const defaultMaxBodyBytes = 1 << 20

var errIntentionalFault = errors.New("intentional unhandled error")

func (t *HTTPTransport) registerRoutes(mux *http.ServeMux) {
	t.route(mux, http.MethodGet, "/hello", t.handleHello)
	t.route(mux, http.MethodGet, "/fetch", t.handleFetch)
	t.route(mux, http.MethodGet, "/health", t.handleHealth)
	t.route(mux, http.MethodGet, "/error-500", t.handleError500)
	t.route(mux, http.MethodGet, "/raise-error", t.handleRaiseError)
	t.route(mux, http.MethodGet, "/random-error", t.handleRandomError)
	t.route(mux, http.MethodGet, "/timeout", t.handleTimeout)
	t.route(mux, http.MethodGet, "/bad-request", t.handleBadRequest)
	t.route(mux, http.MethodGet, "/redirect", t.handleRedirect)
	t.route(mux, http.MethodPost, "/sample/create", t.handleCreateSample)
	t.route(mux, http.MethodGet, "/readyz", t.handleReady)
	t.route(mux, http.MethodGet, "/metrics", t.handleMetrics)
}

// route registers path and its trailing-slash alias under one instrumented handler.
func (t *HTTPTransport) route(mux *http.ServeMux, method, path string, fn http.HandlerFunc) {
	handler := t.instrument(path, fn)
	mux.Handle(method+" "+path, handler)
	mux.Handle(method+" "+path+"/{$}", handler)
}

func (t *HTTPTransport) handleHello(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, t.demo.Hello())
}

func (t *HTTPTransport) handleFetch(w http.ResponseWriter, r *http.Request) {
	text, _ := t.demo.Fetch()
	writeText(w, http.StatusOK, text)
}

func (t *HTTPTransport) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, httpOKResponse{OK: true})
}

func (t *HTTPTransport) handleError500(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusInternalServerError, httpErrorResponse{Error: "Intentional 500"})
}

func (t *HTTPTransport) handleRaiseError(w http.ResponseWriter, r *http.Request) {
	panic(errIntentionalFault)
}

func (t *HTTPTransport) handleRandomError(w http.ResponseWriter, r *http.Request) {
	outcome := t.demo.RandomOutcome()
	writeJSON(w, outcome.Status, outcome.Body)
}

func (t *HTTPTransport) handleTimeout(w http.ResponseWriter, r *http.Request) {
	t.demo.Timeout()
	writeJSON(w, http.StatusOK, httpSlowResponse{Slow: true})
}

func (t *HTTPTransport) handleBadRequest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusBadRequest, httpErrorResponse{Error: "Intentional bad request"})
}

func (t *HTTPTransport) handleRedirect(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusFound)
}

func (t *HTTPTransport) handleCreateSample(w http.ResponseWriter, r *http.Request) {
	var httpReq HTTPCreateSampleRequest
	if err := t.decodeJSON(w, r, &httpReq); err != nil {
		t.writeError(w, r, err)
		return
	}
	if httpReq == nil {
		t.writeError(w, r, core.ErrInvalidBody)
		return
	}
	req, err := toCreateSampleRequest(httpReq)
	if err != nil {
		t.writeError(w, r, err)
		return
	}
	rec, err := t.samples.CreateSample(r.Context(), req)
	if err != nil {
		t.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HTTPCreateSampleResponse{
		Success: fmt.Sprintf("created sample model with id %d", rec.ID),
	})
}

func (t *HTTPTransport) handleReady(w http.ResponseWriter, r *http.Request) {
	if t.appReady != nil && t.appReady() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
}

func (t *HTTPTransport) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if t.metricsHandler == nil {
		writeJSON(w, http.StatusNotFound, httpErrorResponse{Error: "metrics disabled"})
		return
	}
	t.metricsHandler.ServeHTTP(w, r)
}

func (t *HTTPTransport) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return core.ErrInvalidJSON
	}
	maxBytes := t.maxBodyBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errBodyTooLarge
		}
		var wrongType *json.UnmarshalTypeError
		if errors.As(err, &wrongType) {
			return core.ErrInvalidBody
		}
		return core.ErrInvalidJSON
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return core.ErrInvalidJSON
	}
	return nil
}

var errBodyTooLarge = errors.New("request body too large")

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (t *HTTPTransport) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = http.StatusText(status)
	}
	t.logRequestError(r, status, err)
	writeJSON(w, status, httpErrorResponse{Error: message})
}

func statusForError(err error) int {
	if errors.Is(err, errBodyTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	switch core.CodeOf(err) {
	case core.CodeInvalidInput, core.CodeInvalidJSON:
		return http.StatusBadRequest
	case core.CodeNotFound:
		return http.StatusNotFound
	case core.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (t *HTTPTransport) logRequestError(r *http.Request, status int, err error) {
	if t == nil || t.logger == nil || r == nil || err == nil {
		return
	}
	fields := map[string]any{
		"method":     r.Method,
		"path":       r.URL.Path,
		"status":     status,
		"error":      err.Error(),
		"request_id": requestIDFrom(r.Context()),
	}
	if status >= http.StatusInternalServerError {
		t.logger.Error("http request error", fields)
		return
	}
	t.logger.Info("http request error", fields)
}
