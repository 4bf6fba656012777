package keycache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/weisyn/recordjoin/pkg/txerrors"
	"github.com/weisyn/recordjoin/pkg/types"
)

// 单个密钥文件的下载上限
const maxKeyDownloadSize = 512 << 20

// FetchFunctionKeys 下载预先合成的证明/验证密钥
//
// 🎯 **使用场景**：调用方希望跳过本地合成，直接使用发布的密钥，
// 下载结果可以作为 SuppliedKeys 传给 Join，或通过 Put 放入缓存。
func FetchFunctionKeys(ctx context.Context, client *http.Client, proverURL, verifierURL string) (*types.KeyPair, error) {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	pkData, err := download(ctx, client, proverURL)
	if err != nil {
		return nil, txerrors.WrapNetworkError("fetch proving key", err)
	}
	vkData, err := download(ctx, client, verifierURL)
	if err != nil {
		return nil, txerrors.WrapNetworkError("fetch verifying key", err)
	}
	kp, err := types.UnmarshalKeyPair(pkData, vkData)
	if err != nil {
		return nil, fmt.Errorf("decode downloaded keys: %w", err)
	}
	return kp, nil
}

func download(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxKeyDownloadSize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}
