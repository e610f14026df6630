package domain

import "fmt"

// ErrorKind classifies provider failures so the aggregator can handle them
// exhaustively.
type ErrorKind int

const (
	// ErrorNetwork means the request could not be completed (DNS, connect,
	// timeout).
	ErrorNetwork ErrorKind = iota
	// ErrorProtocol means the provider answered with a non-success status.
	ErrorProtocol
	// ErrorParse means the payload could not be decoded.
	ErrorParse
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorNetwork:
		return "network"
	case ErrorProtocol:
		return "protocol"
	case ErrorParse:
		return "parse"
	default:
		return "unknown"
	}
}

// ProviderError is a typed failure from an alert provider adapter. Provider
// names the adapter ("nws", "meteoalarm", "eccc") for logging and metrics.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err as a ProviderError for the named provider.
func NewProviderError(provider string, kind ErrorKind, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}
