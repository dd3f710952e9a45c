// Package bridge implements the control-plane bridge: an HTTP client that
// POSTs an acceptance-rule XML document (with affected endpoints attached)
// to the control plane and returns the filled document it responds with.
package bridge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vorgateway/gateway/pkg/contracts"
)

const processXMLPath = "/process_xml"

// Client posts acceptance documents to the control plane's process_xml
// endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a Client targeting baseURL (e.g. "http://host:5000").
// A nil httpClient is replaced by a new http.Client with a 10-second timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// ProcessXML POSTs xmlDocument to the control plane. A 200 response body is
// the filled XML document; any other status rejects the request.
func (c *Client) ProcessXML(ctx context.Context, xmlDocument []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+processXMLPath, bytes.NewReader(xmlDocument))
	if err != nil {
		return nil, fmt.Errorf("bridge: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: control-plane bridge: %v", contracts.ErrConnectionLost, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("bridge: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: control-plane bridge returned %d: %s", contracts.ErrConnectionLost, resp.StatusCode, string(body))
	}
	return body, nil
}
