package gateway

import "fmt"

// TransportError reports that the API was not reached or did not answer at
// the HTTP level: connection failure, timeout, or a non-200 status.
type TransportError struct {
	Endpoint string
	Status   int
	Message  string
	Err      error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("slack api %s: %v", e.Endpoint, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("slack api %s: http %d %s", e.Endpoint, e.Status, e.Message)
	default:
		return fmt.Sprintf("slack api %s: transport failure", e.Endpoint)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError reports that the API answered with ok:false. Code is the
// remote-supplied error string, e.g. "channel_not_found" or "invalid_auth".
type RemoteError struct {
	Endpoint string
	Code     string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("slack api %s: %s", e.Endpoint, e.Code)
}

// CodeChannelNotFound is the remote code for a history or mark call against
// an identifier the endpoint does not know, which for the split
// channels.*/groups.* API families also means "wrong resource kind".
const CodeChannelNotFound = "channel_not_found"
