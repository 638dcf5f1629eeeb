// Package inet sends JSON requests to the owner REST API.
package inet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/teslamotors/climate-agent/internal/log"
	"github.com/teslamotors/climate-agent/pkg/protocol"
)

// MaxResponseLength caps the maximum byte-length of response bodies.
const MaxResponseLength = 100000

func ReadWithContext(ctx context.Context, r io.Reader, p []byte) ([]byte, error) {
	bytesRead := 0
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		n, err := r.Read(p[bytesRead:])
		bytesRead += n
		if err == io.EOF {
			return p[:bytesRead], nil
		}
		if err != nil {
			return p[:bytesRead], err
		}
		if bytesRead == len(p) {
			return p[:bytesRead], nil
		}
	}
}

var (
	ErrVehicleNotAwake = protocol.NewError("vehicle unavailable: vehicle is offline or asleep", false, true)
	// ErrUnauthorized means the server rejected the access token. The caller should refresh the
	// token and retry.
	ErrUnauthorized = protocol.NewError("access token rejected", false, true)
)

type HttpError struct {
	Code    int
	Message string
}

func (e *HttpError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Code)
	}
	return e.Message
}

func (e *HttpError) MayHaveSucceeded() bool {
	if e.Code >= 400 && e.Code < 500 {
		return false
	}
	return e.Code != http.StatusServiceUnavailable
}

func (e *HttpError) Temporary() bool {
	return e.Code == http.StatusServiceUnavailable ||
		e.Code == http.StatusGatewayTimeout ||
		e.Code == http.StatusRequestTimeout ||
		e.Code == http.StatusTooManyRequests
}

// IsUnauthorized returns true if err reports an HTTP 401 response.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// SendRequest issues a single HTTP request and returns the response body if the server replies
// with a 2xx status.
//
// A nil body is sent as an empty request body for GET and as "{}" for POST. A body that is already
// a []byte is sent unmodified; anything else is JSON-encoded. An empty authHeader omits the
// Authorization header. Request and response bodies are logged at debug level.
func SendRequest(ctx context.Context, client *http.Client, method, userAgent, authHeader, url string, command interface{}) ([]byte, error) {
	return send(ctx, client, method, userAgent, authHeader, url, command, true)
}

// SendCredentialRequest is SendRequest for requests and replies that carry secrets. Bodies are
// never logged, only the method, URL and status.
func SendCredentialRequest(ctx context.Context, client *http.Client, method, userAgent, url string, command interface{}) ([]byte, error) {
	return send(ctx, client, method, userAgent, "", url, command, false)
}

func send(ctx context.Context, client *http.Client, method, userAgent, authHeader, url string, command interface{}, logBodies bool) ([]byte, error) {
	var body []byte
	if command != nil {
		var ok bool
		if body, ok = command.([]byte); !ok {
			var err error
			body, err = json.Marshal(command)
			if err != nil {
				return nil, err
			}
		}
	} else if method == http.MethodPost {
		body = []byte("{}")
	}

	if logBodies {
		log.Debug("Sending %s request to %s: %s", method, url, body)
	} else {
		log.Debug("Sending %s request to %s", method, url)
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	request, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &protocol.CommandError{Err: err, PossibleSuccess: false, PossibleTemporary: false}
	}

	request.Header.Set("User-Agent", userAgent)
	request.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		request.Header.Set("Authorization", authHeader)
	}
	request.Header.Set("Accept", "*/*")

	result, err := client.Do(request)
	if err != nil {
		return nil, &protocol.CommandError{Err: err, PossibleSuccess: false, PossibleTemporary: true}
	}
	defer result.Body.Close()

	body = make([]byte, MaxResponseLength+1)
	body, err = ReadWithContext(ctx, result.Body, body)
	if err != nil {
		return nil, &protocol.CommandError{Err: err, PossibleSuccess: true, PossibleTemporary: true}
	}

	if len(body) == MaxResponseLength+1 {
		return nil, protocol.NewError("response exceeds maximum length", true, false)
	}

	if logBodies {
		log.Debug("Server returned %d: %s: %s", result.StatusCode, http.StatusText(result.StatusCode), body)
	} else {
		log.Debug("Server returned %d: %s", result.StatusCode, http.StatusText(result.StatusCode))
	}
	if result.StatusCode >= 200 && result.StatusCode < 300 {
		return body, nil
	}
	switch result.StatusCode {
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case http.StatusServiceUnavailable:
		return nil, ErrVehicleNotAwake
	case http.StatusRequestTimeout:
		if bytes.Contains(body, []byte("vehicle is offline")) {
			return nil, ErrVehicleNotAwake
		}
	}
	if !logBodies {
		// Error replies from a credential endpoint may echo the request.
		return nil, &HttpError{Code: result.StatusCode}
	}
	return nil, &HttpError{Code: result.StatusCode, Message: string(body)}
}
