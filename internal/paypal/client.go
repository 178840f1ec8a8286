package paypal

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	clientID   string
	secret     string
	oauthURL   string
	ordersURL  string
	httpClient *http.Client
}

func NewClient(clientID, secret, oauthURL, ordersURL string) *Client {
	return &Client{
		clientID:  clientID,
		secret:    secret,
		oauthURL:  oauthURL,
		ordersURL: ordersURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// BearerToken exchanges the client credentials for a service-to-service
// bearer token.
func (c *Client) BearerToken(ctx context.Context) (string, error) {
	body := strings.NewReader("grant_type=client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauthURL, body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	basic := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.secret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange failed with status: %d", resp.StatusCode)
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("empty access token in response")
	}

	return result.AccessToken, nil
}

// TransactionStatus is the provider's view of one transaction: the reported
// status string and the captured amount, verbatim.
type TransactionStatus struct {
	Status string
	Amount string
}

func (c *Client) GetTransactionStatus(ctx context.Context, bearer, transactionID string) (*TransactionStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ordersURL+"/"+transactionID, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status fetch failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Status        string `json:"status"`
		PurchaseUnits []struct {
			Amount struct {
				Value string `json:"value"`
			} `json:"amount"`
		} `json:"purchase_units"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(result.PurchaseUnits) == 0 {
		return nil, fmt.Errorf("no purchase units in response")
	}

	return &TransactionStatus{
		Status: result.Status,
		Amount: result.PurchaseUnits[0].Amount.Value,
	}, nil
}
