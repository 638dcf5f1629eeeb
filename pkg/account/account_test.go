package account_test

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jarcoal/httpmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teslamotors/climate-agent/internal/clock"
	"github.com/teslamotors/climate-agent/internal/log"
	"github.com/teslamotors/climate-agent/pkg/account"
	"github.com/teslamotors/climate-agent/pkg/oauth"
	"github.com/teslamotors/climate-agent/pkg/protocol"
)

const (
	dataURL  = account.DefaultBaseURL + "/vehicles/42/vehicle_data"
	wakeURL  = account.DefaultBaseURL + "/vehicles/42/wake_up"
	dataKey  = "GET " + dataURL
	authKey  = "POST " + oauth.DefaultURL
	okReply  = `{"response":{"state":"online"}}`
	endpoint = "/vehicles/42/vehicle_data"
)

var _ = Describe("Account", func() {
	var (
		fake    *clock.Fake
		acct    *account.Account
		ctx     context.Context
		tokens  []string
		issued  int
		headers []string
	)

	// Each successful exchange issues the next token in the list.
	authResponder := func(r *http.Request) (*http.Response, error) {
		if issued >= len(tokens) {
			return httpmock.NewStringResponse(http.StatusBadRequest, `{"error":"invalid_grant"}`), nil
		}
		token := tokens[issued]
		issued++
		return httpmock.NewJsonResponse(http.StatusOK, map[string]string{"access_token": token})
	}

	// record wraps a responder and remembers the Authorization header of each call.
	record := func(responder httpmock.Responder) httpmock.Responder {
		return func(r *http.Request) (*http.Response, error) {
			headers = append(headers, r.Header.Get("Authorization"))
			return responder(r)
		}
	}

	BeforeEach(func() {
		httpmock.Activate()
		DeferCleanup(httpmock.DeactivateAndReset)
		fake = clock.NewFake(time.Date(2024, time.January, 8, 7, 55, 0, 0, time.UTC))
		tokens = []string{"token-1", "token-2", "token-3"}
		issued = 0
		headers = nil
		httpmock.RegisterResponder(http.MethodPost, oauth.DefaultURL, authResponder)
		acct = account.New(oauth.NewTokenSource("ownerapi", "refresh", fake), "test", fake)
		ctx = context.Background()
	})

	It("lazily obtains a token and attaches it", func() {
		httpmock.RegisterResponder(http.MethodGet, dataURL, record(httpmock.NewStringResponder(http.StatusOK, okReply)))
		body, err := acct.Get(ctx, endpoint)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(Equal(okReply))
		Expect(headers).To(Equal([]string{"Bearer token-1"}))
		Expect(httpmock.GetCallCountInfo()[authKey]).To(Equal(1))
		Expect(fake.Sleeps()).To(BeEmpty())
	})

	It("refreshes once on 401 without consuming an attempt", func() {
		calls := 0
		httpmock.RegisterResponder(http.MethodGet, dataURL, record(func(r *http.Request) (*http.Response, error) {
			calls++
			if calls == 1 {
				return httpmock.NewStringResponse(http.StatusUnauthorized, `{"error":"invalid bearer token"}`), nil
			}
			return httpmock.NewStringResponse(http.StatusOK, okReply), nil
		}))
		acct.Attempts = 1

		_, err := acct.Get(ctx, endpoint)
		Expect(err).NotTo(HaveOccurred())
		Expect(headers).To(Equal([]string{"Bearer token-1", "Bearer token-2"}))
		Expect(httpmock.GetCallCountInfo()[authKey]).To(Equal(2))
		Expect(fake.Sleeps()).To(BeEmpty())
	})

	It("resumes normal retry counting when the call fails after a refresh", func() {
		calls := 0
		httpmock.RegisterResponder(http.MethodGet, dataURL, record(func(r *http.Request) (*http.Response, error) {
			calls++
			switch calls {
			case 1:
				return httpmock.NewStringResponse(http.StatusUnauthorized, ""), nil
			case 2:
				return httpmock.NewStringResponse(http.StatusInternalServerError, "boom"), nil
			}
			return httpmock.NewStringResponse(http.StatusOK, okReply), nil
		}))

		_, err := acct.Get(ctx, endpoint)
		Expect(err).NotTo(HaveOccurred())
		Expect(httpmock.GetCallCountInfo()[dataKey]).To(Equal(3))
		Expect(httpmock.GetCallCountInfo()[authKey]).To(Equal(2))
		Expect(fake.Sleeps()).To(Equal([]time.Duration{account.DefaultRetryDelay}))
	})

	It("returns ErrRequestFailure after exhausting the retry budget", func() {
		httpmock.RegisterResponder(http.MethodGet, dataURL, httpmock.NewErrorResponder(errors.New("network unreachable")))

		body, err := acct.Get(ctx, endpoint)
		Expect(body).To(BeNil())
		Expect(err).To(MatchError(protocol.ErrRequestFailure))
		Expect(httpmock.GetCallCountInfo()[dataKey]).To(Equal(account.DefaultAttempts))
		Expect(fake.Sleeps()).To(HaveLen(account.DefaultAttempts - 1))
	})

	It("treats a second 401 in the same attempt as a generic failure", func() {
		httpmock.RegisterResponder(http.MethodGet, dataURL, httpmock.NewStringResponder(http.StatusUnauthorized, ""))
		acct.Attempts = 1

		_, err := acct.Get(ctx, endpoint)
		Expect(err).To(MatchError(protocol.ErrRequestFailure))
		Expect(httpmock.GetCallCountInfo()[dataKey]).To(Equal(2))
		Expect(httpmock.GetCallCountInfo()[authKey]).To(Equal(2))
	})

	It("gives up immediately if no token can be obtained", func() {
		tokens = nil
		httpmock.RegisterResponder(http.MethodGet, dataURL, httpmock.NewStringResponder(http.StatusOK, okReply))

		_, err := acct.Get(ctx, endpoint)
		Expect(err).To(MatchError(protocol.ErrAuthFailure))
		Expect(httpmock.GetCallCountInfo()[dataKey]).To(Equal(0))
	})

	It("posts JSON bodies", func() {
		httpmock.RegisterResponder(http.MethodPost, wakeURL, func(r *http.Request) (*http.Response, error) {
			Expect(r.Header.Get("Content-Type")).To(Equal("application/json"))
			Expect(r.Header.Get("User-Agent")).To(HavePrefix("test tesla-climate-agent/"))
			return httpmock.NewStringResponse(http.StatusOK, `{"response":{"state":"asleep"}}`), nil
		})
		body, err := acct.Post(ctx, "/vehicles/42/wake_up", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(body).To(MatchJSON(`{"response":{"state":"asleep"}}`))
	})

	It("counts a call that exceeds GetTimeout as one failed attempt", func() {
		acct.GetTimeout = 20 * time.Millisecond
		httpmock.RegisterResponder(http.MethodGet, dataURL, func(r *http.Request) (*http.Response, error) {
			<-r.Context().Done()
			return nil, r.Context().Err()
		})

		_, err := acct.Get(ctx, endpoint)
		Expect(err).To(MatchError(protocol.ErrRequestFailure))
		Expect(err).To(MatchError(context.DeadlineExceeded))
		Expect(ctx.Err()).NotTo(HaveOccurred())
		Expect(httpmock.GetCallCountInfo()[dataKey]).To(Equal(account.DefaultAttempts))
		Expect(httpmock.GetCallCountInfo()[authKey]).To(Equal(1))
		Expect(fake.Sleeps()).To(Equal([]time.Duration{account.DefaultRetryDelay, account.DefaultRetryDelay}))
	})

	It("classifies failures in retry warnings", func() {
		core, logs := observer.New(zapcore.WarnLevel)
		DeferCleanup(log.Replace(zap.New(core)))
		calls := 0
		httpmock.RegisterResponder(http.MethodGet, dataURL, func(r *http.Request) (*http.Response, error) {
			calls++
			if calls == 1 {
				return httpmock.NewStringResponse(http.StatusTooManyRequests, ""), nil
			}
			return httpmock.NewStringResponse(http.StatusBadRequest, ""), nil
		})
		acct.Attempts = 2

		_, err := acct.Get(ctx, endpoint)
		Expect(err).To(MatchError(protocol.ErrRequestFailure))
		warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
		Expect(warnings).To(HaveLen(2))
		Expect(warnings[0].Message).To(ContainSubstring("attempt 1 failed (temporary"))
		Expect(warnings[1].Message).To(ContainSubstring("attempt 2 failed (permanent)"))
	})
})
