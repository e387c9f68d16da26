// Package urlvalidator 校验并规范化外部 URL。
package urlvalidator

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ValidationOptions 控制 ValidateHTTPURL 的主机策略。
type ValidationOptions struct {
	// RequireAllowlist 为 true 时 AllowedHosts 不能为空。
	RequireAllowlist bool
	// AllowedHosts 允许的主机名，支持 "*.example.com" 通配。
	AllowedHosts []string
	// AllowPrivate 允许回环和内网地址。
	AllowPrivate bool
}

// ValidateURLFormat 校验 URL 基本格式并移除末尾斜杠。
// allowInsecureHTTP 为 false 时只接受 https。
func ValidateURLFormat(raw string, allowInsecureHTTP bool) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("url is empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	switch u.Scheme {
	case "https":
	case "http":
		if !allowInsecureHTTP {
			return "", fmt.Errorf("http url is not allowed")
		}
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("url has no host")
	}
	if port := u.Port(); port == "" && strings.Contains(u.Host, ":") && !strings.HasPrefix(u.Host, "[") {
		return "", fmt.Errorf("invalid port in %q", u.Host)
	}

	return strings.TrimRight(raw, "/"), nil
}

// ValidateHTTPURL 在格式校验之上执行主机策略。
func ValidateHTTPURL(raw string, allowInsecureHTTP bool, opts ValidationOptions) (string, error) {
	normalized, err := ValidateURLFormat(raw, allowInsecureHTTP)
	if err != nil {
		return "", err
	}

	u, err := url.Parse(normalized)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	host := u.Hostname()

	if opts.RequireAllowlist && len(opts.AllowedHosts) == 0 {
		return "", fmt.Errorf("host allowlist required but empty")
	}
	if len(opts.AllowedHosts) > 0 && !hostAllowed(host, opts.AllowedHosts) {
		return "", fmt.Errorf("host %q not in allowlist", host)
	}
	if !opts.AllowPrivate && isPrivateHost(host) {
		return "", fmt.Errorf("private host %q is not allowed", host)
	}

	return normalized, nil
}

func hostAllowed(host string, allowed []string) bool {
	host = strings.ToLower(host)
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(a, "*."); ok {
			if host == rest || strings.HasSuffix(host, "."+rest) {
				return true
			}
			continue
		}
		if host == a {
			return true
		}
	}
	return false
}

func isPrivateHost(host string) bool {
	lower := strings.ToLower(host)
	if lower == "localhost" || strings.HasSuffix(lower, ".localhost") || strings.HasSuffix(lower, ".local") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
	}
	return false
}
