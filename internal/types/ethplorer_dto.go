package types

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"revokeradar/internal/constant"
)

// EthplorerAddressInfoReq is the getAddressInfo request, path and query are filled by httpc.
type EthplorerAddressInfoReq struct {
	Address string `path:"address"`
	ApiKey  string `form:"apiKey"`
}

// EthplorerAddressInfoResp 只解析需要的字段
type EthplorerAddressInfoResp struct {
	Address string           `json:"address"`
	Tokens  []EthplorerToken `json:"tokens"`
	Error   *EthplorerError  `json:"error,omitempty"`
}

type EthplorerToken struct {
	TokenInfo  EthplorerTokenInfo `json:"tokenInfo"`
	RawBalance string             `json:"rawBalance,omitempty"`
}

type EthplorerTokenInfo struct {
	Address  string        `json:"address"`
	Name     string        `json:"name,omitempty"`
	Symbol   string        `json:"symbol,omitempty"`
	Decimals TokenDecimals `json:"decimals"`
}

type EthplorerError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// TokenDecimals accepts both "6" and 6, Ethplorer uses either depending on the token.
type TokenDecimals struct {
	Value int32
	Valid bool
}

func (d *TokenDecimals) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*d = TokenDecimals{}
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}

	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || v < 0 || v > constant.MaxTokenDecimals {
		// unparsable or out of uint8 range decimals fall back to the default instead of failing the whole response
		*d = TokenDecimals{}
		return nil
	}
	*d = TokenDecimals{Value: int32(v), Valid: true}
	return nil
}

// Or returns the decimals, or fallback when the indexer did not report any.
func (d TokenDecimals) Or(fallback int32) int32 {
	if !d.Valid {
		return fallback
	}
	return d.Value
}
