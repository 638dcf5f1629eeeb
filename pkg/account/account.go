package account

import (
	"context"
	_ "embed" // Used to embed version for use with user agent
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/teslamotors/climate-agent/internal/clock"
	"github.com/teslamotors/climate-agent/internal/log"
	"github.com/teslamotors/climate-agent/pkg/connector/inet"
	"github.com/teslamotors/climate-agent/pkg/oauth"
	"github.com/teslamotors/climate-agent/pkg/protocol"
)

var (
	//go:embed version.txt
	libraryVersion string
)

const (
	DefaultBaseURL     = "https://owner-api.teslamotors.com/api/1"
	DefaultAttempts    = 3
	DefaultRetryDelay  = 2 * time.Second
	DefaultGetTimeout  = 30 * time.Second
	DefaultPostTimeout = 30 * time.Second
)

func buildUserAgent(app string) string {
	library := strings.TrimSpace("tesla-climate-agent/" + libraryVersion)
	build, ok := debug.ReadBuildInfo()
	if !ok {
		return library
	}
	path := strings.Split(build.Path, "/")
	if len(path) == 0 {
		return library
	}

	if app == "" {
		app = path[len(path)-1]
		var version string
		if build.Main.Version != "(devel)" && build.Main.Version != "" {
			version = build.Main.Version
		} else {
			for _, info := range build.Settings {
				if info.Key == "vcs.revision" {
					if len(info.Value) > 8 {
						version = info.Value[0:8]
					}
					break
				}
			}
		}

		if version != "" {
			app = fmt.Sprintf("%s/%s", app, version)
		}
	}

	return fmt.Sprintf("%s %s", app, library)
}

// Credentials supplies access tokens to an Account. [oauth.TokenSource] implements this interface.
type Credentials interface {
	// Token returns the current access token, obtaining one if necessary.
	Token(ctx context.Context) (*oauth.Token, error)
	// Refresh obtains a new access token, replacing the current one.
	Refresh(ctx context.Context) (*oauth.Token, error)
}

// Account sends authenticated requests to the owner API.
//
// Failed requests are retried up to Attempts times, waiting RetryDelay between attempts. If the
// server rejects the access token, the Account refreshes it and repeats the request once without
// counting the rejection against Attempts.
type Account struct {
	// The default UserAgent is constructed from the build info, but can be overridden.
	UserAgent   string
	BaseURL     string
	Attempts    int
	RetryDelay  time.Duration
	GetTimeout  time.Duration
	PostTimeout time.Duration

	credentials Credentials
	client      http.Client
	clock       clock.Clock
}

// New returns an [Account] that authenticates using credentials. Optional userAgent can be passed
// in; otherwise it will be generated from the build info. Pass a nil clk to use the system clock.
func New(credentials Credentials, userAgent string, clk clock.Clock) *Account {
	if clk == nil {
		clk = clock.System{}
	}
	return &Account{
		UserAgent:   buildUserAgent(userAgent),
		BaseURL:     DefaultBaseURL,
		Attempts:    DefaultAttempts,
		RetryDelay:  DefaultRetryDelay,
		GetTimeout:  DefaultGetTimeout,
		PostTimeout: DefaultPostTimeout,
		credentials: credentials,
		clock:       clk,
	}
}

// Get sends an HTTP GET request to endpoint and returns the response body.
//
// The endpoint should contain only the path below the API root (e.g., "/vehicles/123/vehicle_data").
// If every attempt fails the error wraps [protocol.ErrRequestFailure], or
// [protocol.ErrAuthFailure] if no access token could be obtained.
func (a *Account) Get(ctx context.Context, endpoint string) ([]byte, error) {
	return a.send(ctx, http.MethodGet, endpoint, nil, a.GetTimeout)
}

// Post sends an HTTP POST request to endpoint and returns the response body. The command is
// JSON-encoded; a nil command sends an empty JSON object.
func (a *Account) Post(ctx context.Context, endpoint string, command interface{}) ([]byte, error) {
	return a.send(ctx, http.MethodPost, endpoint, command, a.PostTimeout)
}

func (a *Account) url(endpoint string) string {
	return strings.TrimSuffix(a.BaseURL, "/") + "/" + strings.TrimPrefix(endpoint, "/")
}

func (a *Account) attempt(ctx context.Context, method, url string, command interface{}, timeout time.Duration, token *oauth.Token) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return inet.SendRequest(ctx, &a.client, method, a.UserAgent, token.AuthHeader(), url, command)
}

func (a *Account) send(ctx context.Context, method, endpoint string, command interface{}, timeout time.Duration) ([]byte, error) {
	url := a.url(endpoint)
	attempts := a.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		token, err := a.credentials.Token(ctx)
		if err != nil {
			return nil, err
		}

		body, err := a.attempt(ctx, method, url, command, timeout, token)
		if inet.IsUnauthorized(err) {
			log.Info("Access token expired, refreshing...")
			if token, err = a.credentials.Refresh(ctx); err != nil {
				return nil, err
			}
			body, err = a.attempt(ctx, method, url, command, timeout, token)
		}
		if err == nil {
			return body, nil
		}

		lastErr = err
		log.Warning("%s %s attempt %d failed (%s): %s", method, endpoint, attempt, classify(err), err)
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			break
		}
		if attempt == attempts {
			break
		}
		if err := clock.Sleep(ctx, a.clock, a.RetryDelay); err != nil {
			lastErr = err
			break
		}
	}
	log.Error("%s %s failed after %d attempts.", method, endpoint, attempts)
	return nil, fmt.Errorf("%w: %s %s: %w", protocol.ErrRequestFailure, method, endpoint, lastErr)
}

// classify describes err for retry logs.
func classify(err error) string {
	class := "permanent"
	if protocol.Temporary(err) {
		class = "temporary"
	}
	if protocol.MayHaveSucceeded(err) {
		class += ", may have been executed"
	}
	return class
}
