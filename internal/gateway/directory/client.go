// Package directory talks to the user service for identity resolution and
// agent attendance.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/TegaJeremy/Take-Am-Platform/internal/domain"
)

// Trader is the profile shape the user service returns for traders. Bank
// fields may be absent for traders who have not completed onboarding.
type Trader struct {
	ID                string  `json:"id"`
	PhoneNumber       string  `json:"phoneNumber"`
	FullName          string  `json:"fullName"`
	BankAccountNumber *string `json:"bankAccountNumber"`
	BankName          *string `json:"bankName"`
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type clockedInResponse struct {
	ClockedIn bool `json:"clockedIn"`
}

// IsAgentOnDuty reports whether the agent has clocked in. Any transport or
// non-2xx failure is an error, not a false: the accept transition must not
// proceed on a guess.
func (c *Client) IsAgentOnDuty(ctx context.Context, agentID string) (bool, error) {
	var out clockedInResponse
	err := c.getJSON(ctx, "/api/v1/agents/attendance/is-clocked-in", url.Values{"agentId": {agentID}}, &out)
	if err != nil {
		return false, domain.Upstream(err, "failed to verify agent clock-in status")
	}
	return out.ClockedIn, nil
}

// GetTrader resolves a trader profile by id. A missing profile is (nil,
// nil): read-side enrichment degrades instead of failing.
func (c *Client) GetTrader(ctx context.Context, traderID string) (*Trader, error) {
	var out Trader
	err := c.getJSON(ctx, "/api/v1/traders/"+url.PathEscape(traderID), nil, &out)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return nil, nil
		}
		return nil, domain.Upstream(err, "failed to fetch trader profile")
	}
	return &out, nil
}

type lookupResponse struct {
	Success bool   `json:"success"`
	Data    Trader `json:"data"`
}

// FindTraderByPhone resolves a trader by phone number. 404 from the user
// service maps to a NotFound domain error; everything else is Upstream.
func (c *Client) FindTraderByPhone(ctx context.Context, phone string) (*Trader, error) {
	var out lookupResponse
	err := c.getJSON(ctx, "/api/v1/users/phone/"+url.PathEscape(phone), nil, &out)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return nil, domain.NotFound("trader not found with phone number %s", phone)
		}
		return nil, domain.Upstream(err, "failed to look up trader by phone")
	}
	return &out.Data, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("user service http %d: %s", e.code, e.body)
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if c == nil || c.BaseURL == "" {
		return errors.New("directory base url is empty")
	}
	target := c.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(b))}
	}
	return json.Unmarshal(b, out)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 10 * time.Second}
}
