// Package oauth1 实现 OAuth 1.0a HMAC-SHA1 请求签名（RFC 5849）。
package oauth1

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Credentials 一次签名所需的全部密钥。Token/TokenSecret 在
// request token 阶段为空。
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	Token          string
	TokenSecret    string
}

// 测试中可替换，固定 nonce 与时间戳后签名可复现。
var (
	nonceFunc     = newNonce
	timestampFunc = func() string { return strconv.FormatInt(time.Now().Unix(), 10) }
)

// AuthorizationHeader 对请求签名并返回 Authorization 头的值。
// extra 为额外协议参数（oauth_callback、oauth_verifier 等），
// 会同时进入签名与头部；rawURL 中的查询参数只进入签名。
func AuthorizationHeader(creds Credentials, method, rawURL string, extra map[string]string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("oauth1: parse url: %w", err)
	}

	oauthParams := map[string]string{
		"oauth_consumer_key":     creds.ConsumerKey,
		"oauth_nonce":            nonceFunc(),
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        timestampFunc(),
		"oauth_version":          "1.0",
	}
	if creds.Token != "" {
		oauthParams["oauth_token"] = creds.Token
	}
	for k, v := range extra {
		oauthParams[k] = v
	}

	sigParams := make(map[string]string, len(oauthParams)+8)
	for k, v := range oauthParams {
		sigParams[k] = v
	}
	for k, vs := range u.Query() {
		for _, v := range vs {
			sigParams[k] = v
		}
	}

	baseURL := u.Scheme + "://" + u.Host + u.EscapedPath()
	base := signatureBase(strings.ToUpper(method), baseURL, sigParams)
	oauthParams["oauth_signature"] = sign(base, creds.ConsumerSecret, creds.TokenSecret)

	keys := make([]string, 0, len(oauthParams))
	for k := range oauthParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("OAuth ")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(percentEncode(k))
		b.WriteString(`="`)
		b.WriteString(percentEncode(oauthParams[k]))
		b.WriteString(`"`)
	}
	return b.String(), nil
}

// signatureBase 构造签名基串：METHOD&encode(url)&encode(归一化参数)。
func signatureBase(method, baseURL string, params map[string]string) string {
	pairs := make([]string, 0, len(params))
	for k, v := range params {
		pairs = append(pairs, percentEncode(k)+"="+percentEncode(v))
	}
	sort.Strings(pairs)
	return method + "&" + percentEncode(baseURL) + "&" + percentEncode(strings.Join(pairs, "&"))
}

func sign(base, consumerSecret, tokenSecret string) string {
	key := percentEncode(consumerSecret) + "&" + percentEncode(tokenSecret)
	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// percentEncode 按 RFC 3986，只保留 unreserved 字符。
func percentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') ||
		(c >= '0' && c <= '9') || c == '-' || c == '.' || c == '_' || c == '~'
}

func newNonce() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand 失败时退化为时间戳，签名仍然有效
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return hex.EncodeToString(buf)
}
