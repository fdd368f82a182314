package config

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"revokeradar/internal/constant"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/rest"
)

// Environment variables read by Load. They override the config file.
const (
	EnvRpcUrl           = "ETH_RPC_URL"
	EnvRpcRateLimit     = "RPC_RATE_LIMIT"
	EnvEthplorerKey     = "ETHPLORER_API_KEY"
	EnvEthplorerUrl     = "ETHPLORER_API_URL"
	EnvEthplorerTimeout = "ETHPLORER_TIMEOUT"
	EnvWalletAddress    = "WALLET_ADDRESS"
	EnvSpenderList      = "SPENDER_LIST"
	EnvPrivateKey       = "PRIVATE_KEY"
	EnvDryRun           = "DRY_RUN"
	EnvPollInterval     = "POLL_INTERVAL"
	EnvStatusPort       = "STATUS_PORT"
	EnvLogLevel         = "LOG_LEVEL"
	EnvLogEncoding      = "LOG_ENCODING"
)

const serviceName = "revokeradar"

type ChainConf struct {
	Name   string `json:",default=ETH"`
	RpcUrl string `json:",optional"`
	// RateLimit caps RPC calls per second, 0 disables the limiter.
	RateLimit float64 `json:",default=10"`
}

type EthplorerConf struct {
	ApiUrl string `json:",default=https://api.ethplorer.io"`
	ApiKey string `json:",optional"`
	// Timeout is in seconds.
	Timeout int64 `json:",default=30"`
}

type RadarConf struct {
	WalletAddress string   `json:",optional"`
	Spenders      []string `json:",optional"`
	PrivateKey    string   `json:",optional"`
	DryRun        bool     `json:",default=true"`
	// PollInterval is in seconds.
	PollInterval int64 `json:",default=3600"`
}

// Config is built once at startup and handed to svc.NewServiceContext.
// A zero Port disables the status server.
type Config struct {
	rest.RestConf
	Chain     ChainConf
	Ethplorer EthplorerConf
	Radar     RadarConf
}

// Error reports a configuration problem; keys name the offending settings.
type Error struct {
	Keys   []string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %s", strings.Join(e.Keys, ", "), e.Reason)
}

func newError(key, format string, args ...any) *Error {
	return &Error{Keys: []string{key}, Reason: fmt.Sprintf(format, args...)}
}

// Load reads the optional YAML file, applies environment overrides and validates
// the result. Addresses in the returned config are checksummed.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		if err := conf.Load(path, &c, conf.UseEnv()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	} else {
		if err := conf.FillDefault(&c); err != nil {
			return nil, fmt.Errorf("fill config defaults: %w", err)
		}
		// logx defaults to json, plain reads better on a terminal
		c.Log.Encoding = "plain"
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	c.applyServiceDefaults()

	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyEnv() error {
	if v := getEnv(EnvRpcUrl); v != "" {
		c.Chain.RpcUrl = v
	}
	if v := getEnv(EnvEthplorerKey); v != "" {
		c.Ethplorer.ApiKey = v
	}
	if v := getEnv(EnvEthplorerUrl); v != "" {
		c.Ethplorer.ApiUrl = strings.TrimRight(v, "/")
	}
	if v := getEnv(EnvWalletAddress); v != "" {
		c.Radar.WalletAddress = v
	}
	if v := getEnv(EnvSpenderList); v != "" {
		c.Radar.Spenders = splitList(v)
	}
	if v := getEnv(EnvPrivateKey); v != "" {
		c.Radar.PrivateKey = v
	}
	if v := getEnv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := getEnv(EnvLogEncoding); v != "" {
		c.Log.Encoding = v
	}

	if v := getEnv(EnvDryRun); v != "" {
		dryRun, err := strconv.ParseBool(v)
		if err != nil {
			return newError(EnvDryRun, "must be a boolean, got %q", v)
		}
		c.Radar.DryRun = dryRun
	}

	var err error
	if c.Radar.PollInterval, err = envSeconds(EnvPollInterval, c.Radar.PollInterval); err != nil {
		return err
	}
	if c.Ethplorer.Timeout, err = envSeconds(EnvEthplorerTimeout, c.Ethplorer.Timeout); err != nil {
		return err
	}
	if v := getEnv(EnvRpcRateLimit); v != "" {
		limit, err := strconv.ParseFloat(v, 64)
		if err != nil || limit < 0 {
			return newError(EnvRpcRateLimit, "must be a non-negative number of calls per second, got %q", v)
		}
		c.Chain.RateLimit = limit
	}
	if v := getEnv(EnvStatusPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 0 || port > 65535 {
			return newError(EnvStatusPort, "must be a port number, got %q", v)
		}
		c.Port = port
	}

	return nil
}

func (c *Config) applyServiceDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Log.ServiceName == "" {
		c.Log.ServiceName = c.Name
	}
	if c.Log.Mode == "" {
		c.Log.Mode = "console"
	}
	if c.Log.Encoding == "" {
		c.Log.Encoding = "plain"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Ethplorer.ApiUrl == "" {
		c.Ethplorer.ApiUrl = constant.DefaultEthplorerApiUrl
	}
}

func (c *Config) validate() error {
	var missing []string
	if c.Chain.RpcUrl == "" {
		missing = append(missing, EnvRpcUrl)
	}
	if c.Ethplorer.ApiKey == "" {
		missing = append(missing, EnvEthplorerKey)
	}
	if c.Radar.WalletAddress == "" {
		missing = append(missing, EnvWalletAddress)
	}
	if len(c.Radar.Spenders) == 0 {
		missing = append(missing, EnvSpenderList)
	}
	if len(missing) > 0 {
		return &Error{Keys: missing, Reason: "required"}
	}

	wallet, err := ChecksumAddress(c.Radar.WalletAddress)
	if err != nil {
		return newError(EnvWalletAddress, "%v", err)
	}
	c.Radar.WalletAddress = wallet.Hex()

	seen := make(map[common.Address]struct{}, len(c.Radar.Spenders))
	spenders := make([]string, 0, len(c.Radar.Spenders))
	for _, s := range c.Radar.Spenders {
		spender, err := ChecksumAddress(s)
		if err != nil {
			return newError(EnvSpenderList, "%v", err)
		}
		if _, ok := seen[spender]; ok {
			continue
		}
		seen[spender] = struct{}{}
		spenders = append(spenders, spender.Hex())
	}
	c.Radar.Spenders = spenders

	if c.Radar.PollInterval < 0 {
		return newError(EnvPollInterval, "must not be negative")
	}
	if c.Chain.RateLimit < 0 {
		return newError(EnvRpcRateLimit, "must not be negative")
	}
	if c.Ethplorer.Timeout <= 0 {
		return newError(EnvEthplorerTimeout, "must be positive")
	}

	if c.Radar.DryRun {
		return nil
	}
	if c.Radar.PrivateKey == "" {
		return newError(EnvPrivateKey, "required when %s=false", EnvDryRun)
	}
	key, err := c.Radar.SigningKey()
	if err != nil {
		return newError(EnvPrivateKey, "%v", err)
	}
	if signer := crypto.PubkeyToAddress(key.PublicKey); signer != wallet {
		return newError(EnvPrivateKey, "key belongs to %s, not %s", signer.Hex(), wallet.Hex())
	}
	return nil
}

// Wallet returns the monitored address.
func (r RadarConf) Wallet() common.Address {
	return common.HexToAddress(r.WalletAddress)
}

// SpenderAddresses returns the spenders in configured order.
func (r RadarConf) SpenderAddresses() []common.Address {
	addrs := make([]common.Address, 0, len(r.Spenders))
	for _, s := range r.Spenders {
		addrs = append(addrs, common.HexToAddress(s))
	}
	return addrs
}

func (r RadarConf) Interval() time.Duration {
	return time.Duration(r.PollInterval) * time.Second
}

// SigningKey parses PrivateKey, with or without the 0x prefix.
func (r RadarConf) SigningKey() (*ecdsa.PrivateKey, error) {
	hexKey := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(r.PrivateKey), "0x"), "0X")
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

func (e EthplorerConf) RequestTimeout() time.Duration {
	return time.Duration(e.Timeout) * time.Second
}

// ChecksumAddress validates a hex address and returns it in EIP-55 form.
// All-lowercase and all-uppercase input is accepted, mixed case must carry a valid checksum.
func ChecksumAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("malformed address %q", s)
	}

	addr := common.HexToAddress(s)
	body := s
	if has0xPrefix(body) {
		body = body[2:]
	}
	if body != strings.ToLower(body) && body != strings.ToUpper(body) && body != addr.Hex()[2:] {
		return common.Address{}, fmt.Errorf("bad checksum for address %q", s)
	}
	return addr, nil
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func splitList(v string) []string {
	var items []string
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func envSeconds(key string, fallback int64) (int64, error) {
	v := getEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, newError(key, "must be a non-negative integer number of seconds, got %q", v)
	}
	return n, nil
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
