package api

import "encoding/json"

// NetworkError is the message of every failure that happened below the
// application protocol: transport errors, non-JSON bodies and payloads
// that do not match their response schema.
const NetworkError = "Network error"

// Envelope is the normalized outcome of one API call. Callers branch on
// Success; the gateway never surfaces a Go error.
type Envelope struct {
	Success bool
	Message string
	Status  int
	Raw     json.RawMessage
}

// Ok returns a successful envelope carrying the raw response body.
func Ok(status int, raw json.RawMessage) Envelope {
	return Envelope{Success: true, Status: status, Raw: raw}
}

// Fail returns a failed envelope with the given message.
func Fail(message string) Envelope {
	return Envelope{Message: message}
}

// failure is the error shape the server uses on every endpoint.
type failure struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// businessFailure reports whether raw is an object with success:false.
func businessFailure(raw json.RawMessage) (string, bool) {
	var f failure
	if err := json.Unmarshal(raw, &f); err != nil {
		// Arrays and scalars are never failure envelopes.
		return "", false
	}
	if f.Success == nil || *f.Success {
		return "", false
	}
	return f.Message, true
}

// Result is the typed outcome of a gateway endpoint.
type Result[T any] struct {
	OK      bool
	Value   T
	Message string
}

// MessageOr returns the failure message, or fallback when the server
// sent none.
func (r Result[T]) MessageOr(fallback string) string {
	if r.Message == "" {
		return fallback
	}
	return r.Message
}

func failed[T any](msg string) Result[T] {
	return Result[T]{Message: msg}
}

// decode converts a successful envelope into a typed result.
func decode[T any](env Envelope) Result[T] {
	if !env.Success {
		return failed[T](env.Message)
	}
	var v T
	if len(env.Raw) > 0 {
		if err := json.Unmarshal(env.Raw, &v); err != nil {
			return failed[T](NetworkError)
		}
	}
	return Result[T]{OK: true, Value: v}
}

// decodeList decodes list endpoints, which answer with a bare JSON array
// on success and an envelope object on failure. A JSON null decodes to
// an empty list.
func decodeList[T any](env Envelope) Result[[]T] {
	res := decode[[]T](env)
	if res.OK && res.Value == nil {
		res.Value = []T{}
	}
	return res
}
