package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"revokeradar/internal/constant"
	"revokeradar/internal/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/zeromicro/go-zero/core/jsonx"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest/httpc"
)

const (
	serviceName       = "ethplorer"
	addressInfoPath   = "/getAddressInfo/:address"
	maxErrorBodyBytes = 512
)

// StatusError is returned when Ethplorer answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ethplorer returned status %d: %s", e.StatusCode, e.Body)
}

// APIError is an error object inside a 2xx Ethplorer response, e.g. an invalid API key.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ethplorer error %d: %s", e.Code, e.Message)
}

// EthplorerClient lists the ERC-20 tokens an address holds.
type EthplorerClient struct {
	apiUrl string
	apiKey string
	svc    httpc.Service
}

func NewEthplorerClient(apiUrl, apiKey string, timeout time.Duration) *EthplorerClient {
	if apiUrl == "" {
		apiUrl = constant.DefaultEthplorerApiUrl
	}
	return &EthplorerClient{
		apiUrl: strings.TrimRight(apiUrl, "/"),
		apiKey: apiKey,
		svc:    httpc.NewServiceWithClient(serviceName, &http.Client{Timeout: timeout}),
	}
}

// ListTokens returns the tokens of owner in the order Ethplorer reports them.
func (c *EthplorerClient) ListTokens(ctx context.Context, owner common.Address) ([]types.TokenRecord, error) {
	logger := logx.WithContext(ctx)

	resp, err := c.svc.Do(ctx, http.MethodGet, c.apiUrl+addressInfoPath, types.EthplorerAddressInfoReq{
		Address: owner.Hex(),
		ApiKey:  c.apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("ethplorer request failed: %w", c.redact(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var info types.EthplorerAddressInfoResp
	if err := jsonx.UnmarshalFromReader(resp.Body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse ethplorer response: %w", err)
	}
	if info.Error != nil {
		return nil, &APIError{Code: info.Error.Code, Message: info.Error.Message}
	}

	tokens := make([]types.TokenRecord, 0, len(info.Tokens))
	for _, item := range info.Tokens {
		record, ok := toTokenRecord(item.TokenInfo)
		if !ok {
			logger.Errorf("skip token with invalid address %q", item.TokenInfo.Address)
			continue
		}
		tokens = append(tokens, record)
	}

	logger.Infof("ethplorer reported %d tokens for %s", len(tokens), owner.Hex())
	return tokens, nil
}

func toTokenRecord(info types.EthplorerTokenInfo) (types.TokenRecord, bool) {
	if !common.IsHexAddress(info.Address) {
		return types.TokenRecord{}, false
	}

	symbol := strings.TrimSpace(info.Symbol)
	if symbol == "" {
		symbol = constant.UnknownTokenSymbol
	}

	return types.TokenRecord{
		Address:  common.HexToAddress(info.Address),
		Symbol:   symbol,
		Decimals: info.Decimals.Or(constant.DefaultTokenDecimals),
	}, true
}

// redact strips the query, and with it the apiKey parameter, from transport errors so the
// key never reaches logs or the status endpoint.
func (c *EthplorerClient) redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		redacted := &url.Error{Op: urlErr.Op, URL: urlErr.URL, Err: urlErr.Err}
		if u, perr := url.Parse(urlErr.URL); perr == nil {
			u.RawQuery = ""
			redacted.URL = u.String()
		} else {
			redacted.URL = strings.SplitN(urlErr.URL, "?", 2)[0]
		}
		err = redacted
	}

	if c.apiKey != "" && strings.Contains(err.Error(), c.apiKey) {
		return errors.New(strings.ReplaceAll(err.Error(), c.apiKey, "***"))
	}
	return err
}
