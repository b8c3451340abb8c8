package signature

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/flexprice/contractflow/internal/config"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/httpclient"
	"github.com/flexprice/contractflow/internal/logger"
	"github.com/flexprice/contractflow/internal/types"
)

// vendorClient is the HTTP plumbing shared by the hosted providers
type vendorClient struct {
	provider   types.ProviderType
	config     config.VendorConfig
	httpClient httpclient.Client
	logger     *logger.Logger
}

func newVendorClient(provider types.ProviderType, cfg config.VendorConfig, client httpclient.Client, log *logger.Logger) vendorClient {
	return vendorClient{
		provider:   provider,
		config:     cfg,
		httpClient: client,
		logger:     log,
	}
}

func (c *vendorClient) ensureConfigured() error {
	if c.config.BaseURL == "" || c.config.APIKey == "" {
		return ierr.NewError("signature provider not configured").
			WithHintf("Configure base URL and API key for %s", c.provider).
			WithReportableDetails(map[string]interface{}{
				"provider": c.provider,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	return nil
}

// makeRequest sends body as JSON to the vendor and decodes the reply into
// response
func (c *vendorClient) makeRequest(ctx context.Context, method, endpoint string, headers map[string]string, body interface{}, response interface{}) error {
	if err := c.ensureConfigured(); err != nil {
		return err
	}

	fullURL := fmt.Sprintf("%s%s", strings.TrimSuffix(c.config.BaseURL, "/"), endpoint)

	var jsonBody []byte
	if body != nil {
		var err error
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return ierr.WithError(err).
				WithHint("Invalid request data").
				Mark(ierr.ErrSystem)
		}
	}

	reqHeaders := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}
	for k, v := range headers {
		reqHeaders[k] = v
	}

	resp, err := c.httpClient.Send(ctx, &httpclient.Request{
		Method:  method,
		URL:     fullURL,
		Headers: reqHeaders,
		Body:    jsonBody,
	})
	if err != nil {
		c.logger.Errorw("signature provider request failed",
			"provider", c.provider,
			"error", err,
			"method", method,
			"endpoint", endpoint,
		)
		details := map[string]interface{}{
			"provider": c.provider,
			"endpoint": endpoint,
		}
		if httpErr, ok := httpclient.IsHTTPError(err); ok {
			details["status_code"] = httpErr.StatusCode
		}
		return ierr.WithError(err).
			WithHintf("Unable to create signing request with %s", c.provider).
			WithReportableDetails(details).
			Mark(ierr.ErrHTTPClient)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ierr.NewError("signature provider returned error").
			WithHintf("%s returned status %d", c.provider, resp.StatusCode).
			WithReportableDetails(map[string]interface{}{
				"provider":    c.provider,
				"status_code": resp.StatusCode,
				"endpoint":    endpoint,
			}).
			Mark(ierr.ErrHTTPClient)
	}

	if response != nil {
		if err := json.Unmarshal(resp.Body, response); err != nil {
			c.logger.Errorw("failed to unmarshal provider response",
				"provider", c.provider,
				"error", err,
				"body", string(resp.Body),
			)
			return ierr.WithError(err).
				WithHintf("Invalid response from %s", c.provider).
				Mark(ierr.ErrHTTPClient)
		}
	}

	return nil
}

// missingField is returned when a vendor reply lacks the external id or URL
func (c *vendorClient) missingField(field string) error {
	return ierr.NewError("incomplete signature provider response").
		WithHintf("%s did not return a %s", c.provider, field).
		WithReportableDetails(map[string]interface{}{
			"provider": c.provider,
			"field":    field,
		}).
		Mark(ierr.ErrHTTPClient)
}
