package lark

import (
	"time"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"go.uber.org/zap"
)

const defaultRequestTimeout = 10 * time.Second

// Config holds Lark client configuration
type Config struct {
	AppID     string
	AppSecret string

	// ChatID is the newsroom group that receives workflow notifications
	ChatID string

	// BaseURL selects the open platform host; empty means Lark international.
	// Feishu tenants use https://open.feishu.cn.
	BaseURL string

	// RequestTimeout bounds each API call; zero means 10s
	RequestTimeout time.Duration
}

// Enabled reports whether enough is configured to send messages
func (c Config) Enabled() bool {
	return c.AppID != "" && c.AppSecret != "" && c.ChatID != ""
}

// SDKClient owns the Lark SDK client and its tenant token cache
type SDKClient struct {
	client  *lark.Client
	appID   string
	baseURL string
}

// NewSDKClient creates a Lark SDK client for cfg
func NewSDKClient(cfg Config, logger *zap.Logger) *SDKClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = lark.LarkBaseUrl
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	client := lark.NewClient(cfg.AppID, cfg.AppSecret,
		lark.WithOpenBaseUrl(baseURL),
		lark.WithReqTimeout(timeout),
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
	)

	logger.Info("Lark client created",
		zap.String("app_id", cfg.AppID),
		zap.String("base_url", baseURL),
		zap.Duration("request_timeout", timeout))

	return &SDKClient{client: client, appID: cfg.AppID, baseURL: baseURL}
}

// Messages returns the IM message API used to post into chats
func (c *SDKClient) Messages() MessageCreator {
	return c.client.Im.Message
}

// AppID returns the application the client authenticates as
func (c *SDKClient) AppID() string {
	return c.appID
}

// BaseURL returns the open platform host in use
func (c *SDKClient) BaseURL() string {
	return c.baseURL
}
