// Package httptransport provides HTTP transport models.
package httptransport

import (
	"bytes"
	"encoding/json"

	"observe/internal/observe/core"
)

// HTTPCreateSampleRequest is the raw sample creation body. Keys are matched
// exactly and values stay raw so that any JSON value is accepted.
type HTTPCreateSampleRequest map[string]json.RawMessage

type HTTPCreateSampleResponse struct {
	Success string `json:"success"`
}

type httpErrorResponse struct {
	Error string `json:"error"`
}

type httpOKResponse struct {
	OK bool `json:"ok"`
}

type httpSlowResponse struct {
	Slow bool `json:"slow"`
}

func toCreateSampleRequest(req HTTPCreateSampleRequest) (*core.CreateSampleRequest, error) {
	value, err := rawValue(req["value"])
	if err != nil {
		return nil, err
	}
	return &core.CreateSampleRequest{
		Name:  rawName(req["name"]),
		Value: value,
	}, nil
}

// rawName unquotes JSON strings and keeps other JSON text compacted.
// Absent and null names render as "None", booleans as "True" and "False".
func rawName(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	switch string(raw) {
	case "", "null":
		return "None"
	case "true":
		return "True"
	case "false":
		return "False"
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return string(raw)
	}
	return compact.String()
}

func rawValue(raw json.RawMessage) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, core.ErrInvalidJSON
	}
	return value, nil
}
