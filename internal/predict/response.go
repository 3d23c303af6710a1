package predict

import (
	"bytes"
	"encoding/base64"

	"github.com/goccy/go-json"
)

// Envelope is the request body of api/predict.
type Envelope struct {
	FnIndex int  `json:"fn_index"`
	Data    Args `json:"data"`
}

// Result is the first output of a predict call: a FileResult or an
// InlineResult.
type Result interface {
	isResult()
}

// FileResult names a file written by the web ui. Name is either a path on the
// web ui's host or a name to be fetched through its file= route.
type FileResult struct {
	Name string
}

// InlineResult carries the decoded payload of a non-file output.
type InlineResult struct {
	Data []byte
}

func (FileResult) isResult()   {}
func (InlineResult) isResult() {}

// DecodeResponse resolves an api/predict body to its first output.
//
// A body that is empty or not JSON at all yields a nil Result and nil error.
// A body carrying a non-null "error" yields a *RemoteError without looking at
// "data". Any other deviation from
// {"data": [[{"is_file": bool, ...}]]} is a *ProtocolError.
func DecodeResponse(body []byte) (Result, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || !json.Valid(body) || isNull(body) {
		return nil, nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, &ProtocolError{Reason: "response is not an object", Err: err}
	}

	if e, ok := top["error"]; ok && !isNull(e) {
		return nil, &RemoteError{payload: e}
	}

	raw, ok := top["data"]
	if !ok || isNull(raw) {
		return nil, &ProtocolError{Reason: "missing data"}
	}
	var slots []json.RawMessage
	if err := json.Unmarshal(raw, &slots); err != nil {
		return nil, &ProtocolError{Reason: "data is not a list", Err: err}
	}
	if len(slots) == 0 {
		return nil, &ProtocolError{Reason: "missing data[0]"}
	}
	var outputs []json.RawMessage
	if err := json.Unmarshal(slots[0], &outputs); err != nil {
		return nil, &ProtocolError{Reason: "data[0] is not a list", Err: err}
	}
	if len(outputs) == 0 {
		return nil, &ProtocolError{Reason: "missing data[0][0]"}
	}

	var output map[string]json.RawMessage
	if err := json.Unmarshal(outputs[0], &output); err != nil || output == nil {
		return nil, &ProtocolError{Reason: "data[0][0] is not an object", Err: err}
	}

	var isFile bool
	if err := field(output, "is_file", &isFile); err != nil {
		return nil, err
	}

	if isFile {
		var name string
		if err := field(output, "name", &name); err != nil {
			return nil, err
		}
		return FileResult{Name: name}, nil
	}

	var encoded string
	if err := field(output, "data", &encoded); err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &ProtocolError{Reason: "data[0][0].data is not base64", Err: err}
	}
	return InlineResult{Data: data}, nil
}

func field(obj map[string]json.RawMessage, key string, v any) error {
	raw, ok := obj[key]
	if !ok || isNull(raw) {
		return &ProtocolError{Reason: "missing data[0][0]." + key}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &ProtocolError{Reason: "bad data[0][0]." + key, Err: err}
	}
	return nil
}

func isNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
