/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/atomic"
)

type AuthBearerRoundTripperTestSuite struct {
	suite.Suite
}

func TestAuthBearerRoundTripperSuite(t *testing.T) {
	suite.Run(t, &AuthBearerRoundTripperTestSuite{})
}

func (s *AuthBearerRoundTripperTestSuite) TestRoundTrip() {
	server := newEchoHeadersServer(http.StatusNoContent)
	defer server.Close()

	var calls atomic.Int32
	provider := AuthProviderFunc(func(ctx context.Context) (string, error) {
		calls.Inc()
		return "xxx", nil
	})
	client := http.Client{Transport: NewAuthBearerRoundTripper(http.DefaultTransport, provider)}

	resp := doRequest(s.T(), &client, context.Background(), server.URL)
	s.Require().Equal("Bearer xxx", resp.Header.Get("X-Echo-Authorization"))
	s.Require().EqualValues(1, calls.Load())
}

func (s *AuthBearerRoundTripperTestSuite) TestExistingHeaderIsKept() {
	server := newEchoHeadersServer(http.StatusNoContent)
	defer server.Close()

	client := http.Client{Transport: NewAuthBearerRoundTripper(http.DefaultTransport, StaticToken("xxx"))}
	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	resp, err := client.Do(req)
	s.Require().NoError(err)
	s.Require().NoError(resp.Body.Close())
	s.Require().Equal("Basic dXNlcjpwYXNz", resp.Header.Get("X-Echo-Authorization"))
}

func (s *AuthBearerRoundTripperTestSuite) TestProviderError() {
	server := newEchoHeadersServer(http.StatusNoContent)
	defer server.Close()

	providerErr := errors.New("token endpoint is down")
	failing := AuthProviderFunc(func(ctx context.Context) (string, error) { return "", providerErr })
	client := http.Client{Transport: NewAuthBearerRoundTripper(http.DefaultTransport, failing)}

	resp, err := client.Get(server.URL)
	if resp != nil {
		s.Require().NoError(resp.Body.Close())
	}
	var authErr *AuthBearerRoundTripperError
	s.Require().ErrorAs(err, &authErr)
	s.Require().ErrorIs(err, providerErr)
}
