package gateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"sokopay/pkg/utils"
)

const (
	sandboxBaseURL = "https://sandbox.safaricom.co.ke"
	defaultTimeout = 20 * time.Second

	// Refresh the cached token while it still has this much life left, so a
	// request never goes out with a token about to expire mid-flight.
	tokenRefreshMargin = 5 * time.Minute
)

// Config carries the Daraja app credentials. All fields except BaseURL and
// Timeout are required for the client to be considered configured.
type Config struct {
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	CallbackURL    string
	BaseURL        string
	Timeout        time.Duration
}

// DarajaClient isolates all network interaction with the M-PESA gateway.
// The bearer token cache lives on the instance, never in package globals.
type DarajaClient struct {
	cfg  Config
	http *resty.Client

	mu             sync.Mutex
	token          string
	tokenExpiresAt time.Time
}

func NewDarajaClient(cfg Config) *DarajaClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = sandboxBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout)

	return &DarajaClient{cfg: cfg, http: client}
}

// Configured reports whether all required credentials were supplied.
func (d *DarajaClient) Configured() bool {
	return d.cfg.ConsumerKey != "" && d.cfg.ConsumerSecret != "" &&
		d.cfg.ShortCode != "" && d.cfg.Passkey != "" && d.cfg.CallbackURL != ""
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

type darajaError struct {
	RequestID    string `json:"requestId"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// AccessToken returns the cached bearer token, performing the credentials
// exchange only when the cache is empty or about to expire. Concurrent
// refreshes at worst repeat the exchange, which is harmless.
func (d *DarajaClient) AccessToken(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.token != "" && time.Now().Before(d.tokenExpiresAt) {
		return d.token, nil
	}

	var tok tokenResponse
	resp, err := d.http.R().
		SetContext(ctx).
		SetBasicAuth(d.cfg.ConsumerKey, d.cfg.ConsumerSecret).
		SetQueryParam("grant_type", "client_credentials").
		SetResult(&tok).
		Get("/oauth/v1/generate")

	if err != nil {
		return "", fmt.Errorf("%w: token exchange: %v", utils.ErrGatewayUnavailable, err)
	}
	if resp.IsError() || tok.AccessToken == "" {
		return "", fmt.Errorf("%w: token exchange returned %s", utils.ErrGatewayUnavailable, resp.Status())
	}

	lifetime := time.Hour
	if secs, convErr := strconv.Atoi(tok.ExpiresIn); convErr == nil && secs > 0 {
		lifetime = time.Duration(secs) * time.Second
	}

	d.token = tok.AccessToken
	d.tokenExpiresAt = time.Now().Add(lifetime - tokenRefreshMargin)
	return d.token, nil
}

type StkPushRequest struct {
	PhoneNumber      string
	Amount           decimal.Decimal
	AccountReference string
	Description      string
}

// StkPushResponse is the synchronous acknowledgment of an initiate call.
// A non-zero ResponseCode (or a populated ErrorMessage) is a business-level
// rejection, not a transport failure, and is for the caller to interpret.
type StkPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
	ErrorMessage        string `json:"errorMessage,omitempty"`
}

func (r *StkPushResponse) Accepted() bool {
	return r.ResponseCode == "0"
}

// RejectionMessage returns the gateway's own description of why the push was
// not accepted.
func (r *StkPushResponse) RejectionMessage() string {
	if r.ErrorMessage != "" {
		return r.ErrorMessage
	}
	return r.ResponseDescription
}

func (d *DarajaClient) InitiatePush(ctx context.Context, req StkPushRequest) (*StkPushResponse, error) {
	token, err := d.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	ts := utils.DarajaTimestamp(time.Now())

	payload := map[string]interface{}{
		"BusinessShortCode": d.cfg.ShortCode,
		"Password":          d.password(ts),
		"Timestamp":         ts,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            req.Amount.Round(0).IntPart(),
		"PartyA":            req.PhoneNumber,
		"PartyB":            d.cfg.ShortCode,
		"PhoneNumber":       req.PhoneNumber,
		"CallBackURL":       d.cfg.CallbackURL,
		"AccountReference":  req.AccountReference,
		"TransactionDesc":   req.Description,
	}

	var success StkPushResponse
	var apiErr darajaError

	resp, err := d.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		SetResult(&success).
		SetError(&apiErr).
		Post("/mpesa/stkpush/v1/processrequest")

	if err != nil {
		log.Printf("ERROR: STK push request failed for %s: %v", req.AccountReference, err)
		return nil, fmt.Errorf("%w: stk push: %v", utils.ErrGatewayUnavailable, err)
	}

	if resp.IsError() {
		if apiErr.ErrorMessage == "" {
			return nil, fmt.Errorf("%w: stk push returned %s", utils.ErrGatewayUnavailable, resp.Status())
		}
		// Daraja reports business rejections as 4xx with an errorMessage.
		code := apiErr.ErrorCode
		if code == "" {
			code = "1"
		}
		return &StkPushResponse{ResponseCode: code, ErrorMessage: apiErr.ErrorMessage}, nil
	}

	return &success, nil
}

// StkQueryResponse is the synchronous answer to a status query. ResultCode
// follows the callback code mapping: "0" paid, "1032" cancelled by user,
// anything else failed.
type StkQueryResponse struct {
	ResponseCode      string `json:"ResponseCode"`
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResultCode        string `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
}

func (d *DarajaClient) QueryStatus(ctx context.Context, checkoutRequestID string) (*StkQueryResponse, error) {
	token, err := d.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	ts := utils.DarajaTimestamp(time.Now())

	payload := map[string]interface{}{
		"BusinessShortCode": d.cfg.ShortCode,
		"Password":          d.password(ts),
		"Timestamp":         ts,
		"CheckoutRequestID": checkoutRequestID,
	}

	var success StkQueryResponse
	var apiErr darajaError

	resp, err := d.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		SetResult(&success).
		SetError(&apiErr).
		Post("/mpesa/stkpushquery/v1/query")

	if err != nil {
		return nil, fmt.Errorf("%w: stk query: %v", utils.ErrGatewayUnavailable, err)
	}
	if resp.IsError() {
		// Includes "transaction is being processed"; the resolver keeps the
		// row pending when the query cannot produce a final answer.
		return nil, fmt.Errorf("%w: stk query returned %s (%s)", utils.ErrGatewayUnavailable, resp.Status(), apiErr.ErrorMessage)
	}

	return &success, nil
}

// password derives the request signature Daraja expects:
// base64(shortcode + passkey + timestamp).
func (d *DarajaClient) password(timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(d.cfg.ShortCode + d.cfg.Passkey + timestamp))
}
