package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

type ZarinpalConfig struct {
	MerchantID  string
	APIURL      string
	StartPayURL string
	CallbackURL string
	Timeout     time.Duration
}

// ZarinpalClient implements Gateway over the v4 REST API.
type ZarinpalClient struct {
	cfg    ZarinpalConfig
	client *http.Client
}

func NewZarinpalClient(cfg ZarinpalConfig) *ZarinpalClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ZarinpalClient{cfg: cfg, client: &http.Client{Timeout: timeout}}
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors json.RawMessage `json:"errors"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type requestData struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Authority string `json:"authority"`
}

type verifyData struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	RefID   json.Number `json:"ref_id"`
	CardPAN string      `json:"card_pan"`
}

func (z *ZarinpalClient) Authorize(ctx context.Context, amount int64, description, contact string) (*Authorization, error) {
	body := map[string]any{
		"merchant_id":  z.cfg.MerchantID,
		"amount":       amount,
		"description":  description,
		"callback_url": z.cfg.CallbackURL,
		"metadata":     map[string]string{"mobile": contact},
	}

	env, raw, err := z.post(ctx, "/request.json", body)
	if err != nil {
		return nil, err
	}
	if apiErr, ok := decodeError(env.Errors); ok {
		return nil, classify(apiErr)
	}

	var data requestData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: decode request response: %v (%s)", ErrGatewayUnavailable, err, raw)
	}
	if data.Code != CodeSuccess || data.Authority == "" {
		return nil, fmt.Errorf("%w: code %d", ErrAuthorizeRejected, data.Code)
	}

	return &Authorization{
		Authority:   data.Authority,
		RedirectURL: z.cfg.StartPayURL + data.Authority,
	}, nil
}

// Verify returns the provider's result code. A rejected payment is not an
// error; callers decide with Accepted.
func (z *ZarinpalClient) Verify(ctx context.Context, authority string, amount int64) (*Verification, error) {
	body := map[string]any{
		"merchant_id": z.cfg.MerchantID,
		"amount":      amount,
		"authority":   authority,
	}

	env, raw, err := z.post(ctx, "/verify.json", body)
	if err != nil {
		return nil, err
	}
	if apiErr, ok := decodeError(env.Errors); ok {
		if apiErr.Code == -10 || apiErr.Code == -11 {
			return nil, classify(apiErr)
		}
		return &Verification{Code: apiErr.Code, Raw: raw}, nil
	}

	var data verifyData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: decode verify response: %v", ErrGatewayUnavailable, err)
	}

	return &Verification{
		Code:    data.Code,
		RefID:   data.RefID.String(),
		CardPAN: data.CardPAN,
		Raw:     raw,
	}, nil
}

func (z *ZarinpalClient) post(ctx context.Context, path string, body any) (*envelope, json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, z.cfg.APIURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := z.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read body: %v", ErrGatewayUnavailable, err)
	}
	if resp.StatusCode >= 500 {
		return nil, nil, fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, nil, fmt.Errorf("%w: decode body: %v", ErrGatewayUnavailable, err)
	}
	return &env, raw, nil
}

// decodeError reads the "errors" member, which is an empty array on success
// and an object on failure.
func decodeError(raw json.RawMessage) (apiError, bool) {
	var e apiError
	if len(raw) == 0 || raw[0] != '{' {
		return e, false
	}
	if err := json.Unmarshal(raw, &e); err != nil || e.Code == 0 {
		return e, false
	}
	return e, true
}

func classify(e apiError) error {
	switch e.Code {
	case -10, -11:
		return fmt.Errorf("%w: %s", ErrInvalidMerchant, e.Message)
	default:
		return fmt.Errorf("%w: code %s: %s", ErrAuthorizeRejected, strconv.Itoa(e.Code), e.Message)
	}
}
