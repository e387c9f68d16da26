// Package logredact 在日志写出前抹除凭证。
package logredact

import "regexp"

// 覆盖 JSON 键值、query 串和常见密钥前缀三类形态。
var redactPatterns = []*regexp.Regexp{
	regexp.MustCompile(`("(?:access_token|refresh_token|request_token|oauth_token_secret|client_secret|consumer_secret|secret)"\s*:\s*)"[^"]*"`),
	regexp.MustCompile(`\b((?:access_token|refresh_token|request_token|oauth_token_secret|oauth_verifier|client_secret|consumer_secret)=)[^&\s]+`),
	regexp.MustCompile(`\bGOCSPX-[0-9A-Za-z_\-]+`),
}

var redactReplacements = []string{
	`$1"***"`,
	`$1***`,
	`***`,
}

// RedactText 返回抹除已知凭证形态后的文本。
func RedactText(s string) string {
	for i, re := range redactPatterns {
		s = re.ReplaceAllString(s, redactReplacements[i])
	}
	return s
}
