package ocr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// Kind classifies a provider failure.
type Kind int

const (
	// KindTransport covers network failures and timeouts.
	KindTransport Kind = iota
	// KindVendor is a well-formed response reporting failure.
	KindVendor
	// KindProtocol is a response that does not have the expected shape.
	KindProtocol
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindVendor:
		return "vendor"
	case KindProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// Error is a classified provider failure.
type Error struct {
	// Provider is the vendor tag used in messages, e.g. "Baidu".
	Provider string
	Kind     Kind
	// Timeout is set for transport errors caused by a deadline.
	Timeout bool
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Timeout {
		return e.Provider + " timeout"
	}
	switch e.Kind {
	case KindVendor:
		return fmt.Sprintf("%s error: %s", e.Provider, e.Message)
	case KindProtocol:
		return fmt.Sprintf("%s protocol error: %s", e.Provider, e.Message)
	default:
		return fmt.Sprintf("%s transport error: %s", e.Provider, e.Message)
	}
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// VendorError reports a vendor-side failure.
func VendorError(provider, msg string) *Error {
	if msg == "" {
		msg = unknownError
	}
	return &Error{Provider: provider, Kind: KindVendor, Message: msg}
}

// ProtocolError reports an unexpected response shape.
func ProtocolError(provider, msg string, err error) *Error {
	return &Error{Provider: provider, Kind: KindProtocol, Message: msg, Err: err}
}

// TransportError classifies a network failure, detecting timeouts. The
// request URL is reduced to scheme, host and path, since vendor query
// strings carry credentials.
func TransportError(provider string, err error) *Error {
	e := &Error{Provider: provider, Kind: KindTransport, Err: err}
	e.Timeout = isTimeout(err)

	var ue *url.Error
	switch {
	case errors.As(err, &ue):
		e.Message = fmt.Sprintf("%s %q: %v", ue.Op, redactURL(ue.URL), ue.Err)
	case err != nil:
		e.Message = err.Error()
	}
	return e
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
