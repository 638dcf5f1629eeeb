// Package oauth exchanges a long-lived refresh token for short-lived access tokens.
//
// A [TokenSource] holds the current access token. The token is replaced every time an exchange
// succeeds, and callers drop it with [TokenSource.Invalidate] when the API rejects it. The source
// is not safe for concurrent use; the agent only touches it from its scheduling loop.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/teslamotors/climate-agent/internal/clock"
	"github.com/teslamotors/climate-agent/internal/log"
	"github.com/teslamotors/climate-agent/pkg/connector/inet"
	"github.com/teslamotors/climate-agent/pkg/protocol"
)

const (
	DefaultURL      = "https://auth.tesla.com/oauth2/v3/token"
	DefaultClientID = "ownerapi"
	DefaultAttempts = 3
	DefaultBackoff  = 2 * time.Second
	DefaultTimeout  = 10 * time.Second
)

// Token is an access token and the claims we could read from it.
//
// Access tokens are usually JWTs, but the source treats them as opaque: Subject and Expiry are
// informational and are zero if the token could not be decoded.
type Token struct {
	AccessToken string
	Subject     string
	Expiry      time.Time
}

// AuthHeader returns the value of the HTTP Authorization header for t.
func (t *Token) AuthHeader() string {
	return "Bearer " + strings.TrimSpace(t.AccessToken)
}

type grantRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	RefreshToken string `json:"refresh_token"`
}

type grantResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// TokenSource obtains access tokens using the refresh-token grant.
type TokenSource struct {
	URL       string
	ClientID  string
	UserAgent string
	Attempts  int
	Backoff   time.Duration
	Timeout   time.Duration

	// OnRotate, if set, is called when the server issues a new refresh token. Errors are logged.
	OnRotate func(refreshToken string) error

	refreshToken string
	token        *Token
	client       http.Client
	clock        clock.Clock
}

// NewTokenSource returns a TokenSource with default settings. Pass a nil clk to use the system
// clock.
func NewTokenSource(clientID, refreshToken string, clk clock.Clock) *TokenSource {
	if clk == nil {
		clk = clock.System{}
	}
	if clientID == "" {
		clientID = DefaultClientID
	}
	return &TokenSource{
		URL:          DefaultURL,
		ClientID:     clientID,
		Attempts:     DefaultAttempts,
		Backoff:      DefaultBackoff,
		Timeout:      DefaultTimeout,
		refreshToken: strings.TrimSpace(refreshToken),
		clock:        clk,
	}
}

// Token returns the current access token, performing an exchange if none is held.
func (s *TokenSource) Token(ctx context.Context) (*Token, error) {
	if s.token != nil {
		return s.token, nil
	}
	return s.Refresh(ctx)
}

// Invalidate discards the current access token.
func (s *TokenSource) Invalidate() {
	s.token = nil
}

// Refresh performs the refresh-token exchange, retrying up to s.Attempts times. On success the new
// token replaces any token already held. If every attempt fails, the returned error wraps
// [protocol.ErrAuthFailure].
func (s *TokenSource) Refresh(ctx context.Context) (*Token, error) {
	attempts := s.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		token, err := s.exchange(ctx)
		if err == nil {
			s.token = token
			log.Info("Obtained new access token.")
			if !token.Expiry.IsZero() {
				log.Debug("Access token for %s expires at %s", token.Subject, token.Expiry.Format(time.RFC3339))
			}
			return token, nil
		}
		lastErr = err
		log.Warning("Token fetch attempt %d failed: %s", attempt, err)
		if attempt == attempts {
			break
		}
		if err := clock.Sleep(ctx, s.clock, s.Backoff); err != nil {
			lastErr = err
			break
		}
	}
	log.Error("Failed to obtain access token after %d attempts.", attempts)
	return nil, fmt.Errorf("%w: %w", protocol.ErrAuthFailure, lastErr)
}

func (s *TokenSource) exchange(ctx context.Context) (*Token, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	request := grantRequest{
		GrantType:    "refresh_token",
		ClientID:     s.ClientID,
		RefreshToken: s.refreshToken,
	}
	body, err := inet.SendCredentialRequest(ctx, &s.client, http.MethodPost, s.UserAgent, s.URL, &request)
	if err != nil {
		return nil, err
	}
	var reply grantResponse
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("%w: %s", protocol.ErrBadResponse, err)
	}
	if reply.AccessToken == "" {
		return nil, fmt.Errorf("%w: no access_token in reply", protocol.ErrBadResponse)
	}
	if reply.RefreshToken != "" && reply.RefreshToken != s.refreshToken {
		s.refreshToken = reply.RefreshToken
		log.Info("Server issued a new refresh token.")
		if s.OnRotate != nil {
			if err := s.OnRotate(reply.RefreshToken); err != nil {
				log.Warning("Failed to store new refresh token: %s", err)
			}
		}
	}

	token := parseToken(reply.AccessToken)
	if token.Expiry.IsZero() && reply.ExpiresIn > 0 {
		token.Expiry = s.clock.Now().Add(time.Duration(reply.ExpiresIn) * time.Second)
	}
	return token, nil
}

// parseToken reads the claims of an access token without verifying its signature. We only use the
// claims for logging; the server is the authority on whether a token is valid.
func parseToken(accessToken string) *Token {
	token := &Token{AccessToken: accessToken}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		log.Debug("Access token is not a JWT: %s", err)
		return token
	}
	token.Subject = claims.Subject
	if claims.ExpiresAt != nil {
		token.Expiry = claims.ExpiresAt.Time
	}
	return token
}
