package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"realty-payments/internal/domain/ports/adapter"
	"realty-payments/internal/infra/redis"
)

var _ adapter.MobileMoneyGateway = (*AirtelGateway)(nil)

// AirtelGateway implements adapter.MobileMoneyGateway against the Airtel Money
// merchant API: OAuth2 client-credentials token, push-payment request, and
// transaction status query.
type AirtelGateway struct {
	baseURL      string
	clientID     string
	clientSecret string
	country      string // ISO alpha-2, e.g. "GA"
	currency     string // e.g. "XAF"
	client       *http.Client
	tokens       *redis.TokenCache
}

func NewAirtelGateway(baseURL, clientID, clientSecret, country, currency string, timeout time.Duration, tokens *redis.TokenCache) (*AirtelGateway, error) {
	if clientID == "" || clientSecret == "" {
		return nil, errors.New("airtel client credentials empty")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &AirtelGateway{
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		country:      country,
		currency:     currency,
		client:       &http.Client{Timeout: timeout},
		tokens:       tokens,
	}, nil
}

func (g *AirtelGateway) Name() string { return "airtel" }

// token returns a bearer token, preferring the cache. A fresh grant is retried
// with backoff because transient token failures must not surface to payers.
func (g *AirtelGateway) token(ctx context.Context) (string, error) {
	if g.tokens != nil {
		if tok := g.tokens.Get(ctx, g.clientID); tok != "" {
			return tok, nil
		}
	}

	payload := map[string]string{
		"client_id":     g.clientID,
		"client_secret": g.clientSecret,
		"grant_type":    "client_credentials",
	}
	b, _ := json.Marshal(payload)

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/auth/oauth2/token", bytes.NewReader(b))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.client.Do(req)
		if err != nil {
			lastErr = err
		} else {
			var out struct {
				AccessToken string `json:"access_token"`
				ExpiresIn   int64  `json:"expires_in"`
			}
			err = json.NewDecoder(resp.Body).Decode(&out)
			resp.Body.Close()
			if err == nil && resp.StatusCode == http.StatusOK && out.AccessToken != "" {
				if g.tokens != nil {
					g.tokens.Put(ctx, g.clientID, out.AccessToken, time.Duration(out.ExpiresIn)*time.Second)
				}
				return out.AccessToken, nil
			}
			lastErr = fmt.Errorf("token grant http %d", resp.StatusCode)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
		}
	}
	return "", fmt.Errorf("airtel token: %w", lastErr)
}

// RequestCharge posts a push payment. The payer authorizes out-of-band after
// the provider accepts the request.
func (g *AirtelGateway) RequestCharge(ctx context.Context, cr adapter.ChargeRequest) (*adapter.ChargeResult, error) {
	tok, err := g.token(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"reference": cr.Reference,
		"subscriber": map[string]any{
			"country":  g.country,
			"currency": g.currency,
			"msisdn":   cr.MSISDN,
		},
		"transaction": map[string]any{
			"amount":   cr.Amount,
			"country":  g.country,
			"currency": g.currency,
			"id":       cr.Reference,
		},
	}
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/merchant/v1/payments/", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	g.setHeaders(req, tok)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out struct {
		Data struct {
			Transaction struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"transaction"`
		} `json:"data"`
		Status struct {
			Success bool   `json:"success"`
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !out.Status.Success {
		return nil, fmt.Errorf("airtel charge rejected: code=%s %s", out.Status.Code, out.Status.Message)
	}
	return &adapter.ChargeResult{TxnID: out.Data.Transaction.ID, Status: out.Data.Transaction.Status}, nil
}

// QueryStatus is the pull half of reconciliation: same status vocabulary as the
// callback ("TS" settled, "TF" failed, "TIP"/"TA" in progress).
func (g *AirtelGateway) QueryStatus(ctx context.Context, reference string) (*adapter.TxnStatus, error) {
	tok, err := g.token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/standard/v1/payments/"+reference, nil)
	if err != nil {
		return nil, err
	}
	g.setHeaders(req, tok)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out struct {
		Data struct {
			Transaction struct {
				ID            string `json:"id"`
				AirtelMoneyID string `json:"airtel_money_id"`
				Status        string `json:"status"`
				Amount        int64  `json:"amount"`
			} `json:"transaction"`
		} `json:"data"`
		Status struct {
			Success bool   `json:"success"`
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !out.Status.Success {
		return nil, fmt.Errorf("airtel status query failed: code=%s %s", out.Status.Code, out.Status.Message)
	}
	return &adapter.TxnStatus{
		Reference: out.Data.Transaction.ID,
		Status:    out.Data.Transaction.Status,
		TxnID:     out.Data.Transaction.AirtelMoneyID,
		Amount:    out.Data.Transaction.Amount,
		CreatedAt: time.Now(),
	}, nil
}

func (g *AirtelGateway) setHeaders(req *http.Request, token string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("X-Country", g.country)
	req.Header.Set("X-Currency", g.currency)
	req.Header.Set("Authorization", "Bearer "+token)
}
