//go:build e2e

package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

// E2E 测试靶向一个已部署的实例:
//   SNSDM_E2E_BASE_URL  服务基地址(未设置时跳过全部 E2E)
//   SNSDM_E2E_TOKEN     平台用户的 Bearer Token
// X 回调链路依赖真实的 X 应用,无法在 CI 内闭环,E2E 只覆盖
// API 面:connect 发起、账号列表、规则 CRUD、DM 触发。

const (
	baseURLEnv = "SNSDM_E2E_BASE_URL"
	tokenEnv   = "SNSDM_E2E_TOKEN"
)

var httpClient = &http.Client{Timeout: 15 * time.Second}

func baseURL(t *testing.T) string {
	t.Helper()
	base := strings.TrimSpace(os.Getenv(baseURLEnv))
	if base == "" {
		t.Skipf("未设置 %s,跳过 E2E 测试", baseURLEnv)
	}
	return strings.TrimRight(base, "/")
}

func bearerToken(t *testing.T) string {
	t.Helper()
	token := strings.TrimSpace(os.Getenv(tokenEnv))
	if token == "" {
		t.Skipf("未设置 %s,跳过 E2E 测试", tokenEnv)
	}
	return token
}

func doRequest(t *testing.T, method, path string, payload any, token string) (int, map[string]any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, baseURL(t)+path, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}

	var parsed map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &parsed); err != nil {
			t.Fatalf("%s %s: non-JSON response %q", method, path, string(raw))
		}
	}
	return resp.StatusCode, parsed
}

func dataOf(t *testing.T, envelope map[string]any) map[string]any {
	t.Helper()
	data, ok := envelope["data"].(map[string]any)
	if !ok {
		t.Fatalf("response has no data object: %v", envelope)
	}
	return data
}
