package irweb

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const clientTimeout = 10 // seconds

// Client drives a remote irblaster over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient returns a Client for the device at baseURL (e.g.
// http://tvremote). A timeout of 0 selects the default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = clientTimeout * time.Second
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Press sends the named button.
func (c *Client) Press(ctx context.Context, token string) error {
	return c.get(ctx, ButtonPrefix+token)
}

// Send sends a raw RC5 function code.
func (c *Client) Send(ctx context.Context, function int) error {
	return c.get(ctx, fmt.Sprintf("%s%d", RawPrefix, function))
}

// SendRC6 sends an RC6 command. The device only reads a single address
// digit.
func (c *Client) SendRC6(ctx context.Context, address, function int) error {
	if address < 0 || address > 9 {
		return fmt.Errorf("RC6 address %d must be a single digit", address)
	}
	return c.get(ctx, fmt.Sprintf("%s%d/%d", RC6Prefix, address, function))
}

func (c *Client) get(ctx context.Context, path string) error {
	url := c.baseURL + path
	log.Printf("sending request to %s", url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("error while creating request: %v", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("error making request to %v: %v", c.baseURL, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received %d status code", resp.StatusCode)
	}
	return nil
}
