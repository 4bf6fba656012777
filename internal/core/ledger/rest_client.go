package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/weisyn/recordjoin/pkg/interfaces/infrastructure/log"
	ledgeriface "github.com/weisyn/recordjoin/pkg/interfaces/ledger"
	"github.com/weisyn/recordjoin/pkg/txerrors"
	"github.com/weisyn/recordjoin/pkg/types"
)

// 接口路径
const (
	PathStateRoot   = "/state/root"
	PathInclusion   = "/inclusion"
	PathCommitments = "/commitments"
	PathSpent       = "/spent"
)

// ErrorCodeUnknownCommitment 节点对未收录承诺返回 404 时携带的错误代码
//
// 只有带此代码的 404 才视为过期状态；其他 404（路径错误、非账本节点）属于网络/配置错误。
const ErrorCodeUnknownCommitment = "UNKNOWN_COMMITMENT"

// apiResponse 节点响应信封
type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// RESTClient 账本节点 REST 客户端
type RESTClient struct {
	baseURL    string
	httpClient *http.Client
	logger     log.Logger
}

var _ ledgeriface.Client = (*RESTClient)(nil)

// NewRESTClient 创建REST客户端
func NewRESTClient(baseURL string, timeout time.Duration, logger log.Logger) *RESTClient {
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	// 确保baseURL以/api/v1结尾
	if !strings.HasSuffix(baseURL, "/api/v1") {
		baseURL = strings.TrimRight(baseURL, "/") + "/api/v1"
	}

	return &RESTClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger,
	}
}

// NewClientFactory 返回按地址创建 RESTClient 的工厂
func NewClientFactory(timeout time.Duration, logger log.Logger) ledgeriface.ClientFactory {
	return func(nodeURL string) ledgeriface.Client {
		return NewRESTClient(nodeURL, timeout, logger)
	}
}

// BaseURL 规范化后的接口地址
func (c *RESTClient) BaseURL() string { return c.baseURL }

// do 发送请求并解析响应信封
func (c *RESTClient) do(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return txerrors.WrapNetworkError(path, fmt.Errorf("create request: %w", err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return txerrors.WrapNetworkError(path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Debugf("关闭响应体失败: %v", err)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return txerrors.WrapNetworkError(path, fmt.Errorf("read response: %w", err))
	}

	var envelope apiResponse
	decodeErr := json.Unmarshal(raw, &envelope)

	switch {
	case resp.StatusCode == http.StatusConflict:
		return txerrors.WrapStaleStateError(describe(resp.StatusCode, &envelope, raw))
	case resp.StatusCode == http.StatusNotFound && decodeErr == nil &&
		envelope.Error != nil && envelope.Error.Code == ErrorCodeUnknownCommitment:
		return txerrors.WrapStaleStateError(describe(resp.StatusCode, &envelope, raw))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return txerrors.WrapNetworkError(path, errors.New(describe(resp.StatusCode, &envelope, raw)))
	case decodeErr != nil:
		return txerrors.WrapNetworkError(path, fmt.Errorf("decode response: %w", decodeErr))
	case !envelope.Success:
		return txerrors.WrapNetworkError(path, errors.New(describe(resp.StatusCode, &envelope, raw)))
	}

	if result != nil {
		if err := json.Unmarshal(envelope.Data, result); err != nil {
			return txerrors.WrapNetworkError(path, fmt.Errorf("decode response data: %w", err))
		}
	}
	return nil
}

func describe(status int, envelope *apiResponse, raw []byte) string {
	if envelope.Error != nil {
		return fmt.Sprintf("http %d: %s: %s", status, envelope.Error.Code, envelope.Error.Message)
	}
	const maxBody = 256
	if len(raw) > maxBody {
		raw = raw[:maxBody]
	}
	return fmt.Sprintf("http %d: %s", status, string(raw))
}

// ===== 接口实现 =====

// StateRoot 查询当前状态根
func (c *RESTClient) StateRoot(ctx context.Context) (*types.StateRootInfo, error) {
	var info types.StateRootInfo
	if err := c.do(ctx, http.MethodGet, PathStateRoot, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Inclusion 查询 Merkle 路径
func (c *RESTClient) Inclusion(ctx context.Context, query *types.InclusionQuery) (*types.InclusionProof, error) {
	var proof types.InclusionProof
	if err := c.do(ctx, http.MethodPost, PathInclusion, query, &proof); err != nil {
		return nil, err
	}
	return &proof, nil
}

// ===== 开发节点扩展接口 =====

// RegisterCommitments 向开发节点登记新承诺
func (c *RESTClient) RegisterCommitments(ctx context.Context, commitments []string) (*types.StateRootInfo, error) {
	var info types.StateRootInfo
	body := map[string][]string{"commitments": commitments}
	if err := c.do(ctx, http.MethodPost, PathCommitments, body, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// MarkSpent 在开发节点标记序列号已花费
func (c *RESTClient) MarkSpent(ctx context.Context, serialNumbers []string) error {
	body := map[string][]string{"serial_numbers": serialNumbers}
	return c.do(ctx, http.MethodPost, PathSpent, body, nil)
}
