package transport

import (
	"encoding/json"
	"fmt"
	"io"
)

// encodeBody serializes a request body once, before the first attempt, so
// retries can replay the same bytes. Returns the payload and its content
// type; both are empty for a nil body.
func encodeBody(body any) ([]byte, string, *Error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return b, "application/octet-stream", nil
	case json.RawMessage:
		return b, "application/json", nil
	case string:
		return []byte(b), "text/plain; charset=utf-8", nil
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			serr := newError(KindSerialization, fmt.Sprintf("read request body: %v", err))
			serr.Err = err
			return nil, "", serr
		}
		return data, "application/octet-stream", nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			serr := newError(KindSerialization, fmt.Sprintf("encode request body %T: %v", body, err))
			serr.Target = fmt.Sprintf("%T", body)
			serr.Err = err
			return nil, "", serr
		}
		return data, "application/json", nil
	}
}

// decodeJSON unmarshals a success body into v. Decode failures carry the
// raw body and the target type name and are never retried.
func decodeJSON(data []byte, v any) *Error {
	if err := json.Unmarshal(data, v); err != nil {
		return NewSerializationError(fmt.Sprintf("%T", v), data, err)
	}
	return nil
}
