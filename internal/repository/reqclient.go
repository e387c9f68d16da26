package repository

import (
	"sync"
	"time"

	"github.com/imroc/req/v3"
)

type reqClientOptions struct {
	ProxyURL string
	Timeout  time.Duration
}

var (
	reqClientMu    sync.Mutex
	reqClientCache = make(map[reqClientOptions]*req.Client)
)

// getSharedReqClient 按配置复用 req 客户端，避免每次请求重建连接池。
func getSharedReqClient(opts reqClientOptions) *req.Client {
	reqClientMu.Lock()
	defer reqClientMu.Unlock()

	if c, ok := reqClientCache[opts]; ok {
		return c
	}

	c := req.C().SetTimeout(opts.Timeout)
	if opts.ProxyURL != "" {
		c.SetProxyURL(opts.ProxyURL)
	}
	reqClientCache[opts] = c
	return c
}
