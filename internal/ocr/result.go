package ocr

import (
	"encoding/json"
	"errors"
)

const unknownError = "unknown error"

// Result is the normalized outcome of a recognition attempt.
// A successful result carries Text (possibly empty) and no Error; a failed
// result always carries a non-empty Error and no Text.
type Result struct {
	Success bool
	Text    string
	Error   string
}

// Success builds a successful result.
func Success(text string) Result {
	return Result{Success: true, Text: text}
}

// Failure builds a failed result from err.
func Failure(err error) Result {
	if err == nil {
		return Result{Error: unknownError}
	}
	return Failed(err.Error())
}

// Failed builds a failed result from a message.
func Failed(msg string) Result {
	if msg == "" {
		msg = unknownError
	}
	return Result{Error: msg}
}

// Err returns the failure as an error, or nil for a successful result.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return errors.New(r.Error)
}

type resultJSON struct {
	Success bool    `json:"success"`
	Text    *string `json:"text,omitempty"`
	Error   *string `json:"error,omitempty"`
}

// MarshalJSON emits success plus exactly one of text or error.
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{Success: r.Success}
	if r.Success {
		text := r.Text
		out.Text = &text
	} else {
		msg := r.Error
		if msg == "" {
			msg = unknownError
		}
		out.Error = &msg
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the wire form produced by MarshalJSON.
func (r *Result) UnmarshalJSON(data []byte) error {
	var in resultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = Result{Success: in.Success}
	if in.Success {
		if in.Text != nil {
			r.Text = *in.Text
		}
		return nil
	}
	if in.Error != nil {
		r.Error = *in.Error
	}
	if r.Error == "" {
		r.Error = unknownError
	}
	return nil
}
