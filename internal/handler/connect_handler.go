package handler

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sivira/snsdm/internal/handler/dto"
	infraerrors "github.com/sivira/snsdm/internal/pkg/errors"
	"github.com/sivira/snsdm/internal/pkg/logger"
	"github.com/sivira/snsdm/internal/pkg/response"
	"github.com/sivira/snsdm/internal/server/middleware"
	"github.com/sivira/snsdm/internal/service"
)

// ConnectHandler exposes the OAuth connect flow: the JSON begin
// endpoint and the HTML callback terminal pages the popup lands on.
type ConnectHandler struct {
	connectSvc *service.ConnectService
}

// NewConnectHandler creates a ConnectHandler.
func NewConnectHandler(connectSvc *service.ConnectService) *ConnectHandler {
	return &ConnectHandler{connectSvc: connectSvc}
}

// ConnectRequest is the begin-connect request body.
type ConnectRequest struct {
	Provider string `json:"provider" binding:"required"`
}

// Connect handles POST /api/v1/sns/connect.
func (h *ConnectHandler) Connect(c *gin.Context) {
	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "provider is required")
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "unauthenticated")
		return
	}

	start, err := h.connectSvc.BeginConnect(c.Request.Context(), userID, req.Provider)
	if response.ErrorFrom(c, err) {
		return
	}

	response.Success(c, gin.H{
		"provider":     start.Provider,
		"auth_url":     start.AuthURL,
		"dm_supported": start.DMSupported,
	})
}

// Callback handles GET /callback/:provider. The response is an HTML
// page that posts the outcome to the opener window and closes itself;
// providers without an implemented exchange redirect to the frontend.
func (h *ConnectHandler) Callback(c *gin.Context) {
	provider := c.Param("provider")

	if provider != service.ProviderX {
		c.Redirect(http.StatusFound, h.connectSvc.FrontendRedirectURL(provider))
		return
	}

	// 用户在授权页面点了拒绝
	if denied := c.Query("denied"); denied != "" {
		h.renderError(c, http.StatusOK, provider, "ACCESS_DENIED", "authorization was denied")
		return
	}

	res, err := h.connectSvc.CompleteCallback(c.Request.Context(),
		provider, c.Query("oauth_token"), c.Query("oauth_verifier"), c.Query("state"))
	if err != nil {
		appErr := infraerrors.FromError(err)
		logger.L().With(
			zap.String("component", "handler.connect"),
			zap.String("provider", provider),
			zap.String("reason", appErr.Reason),
		).Warn("oauth callback failed")
		h.renderError(c, appErr.Code, provider, appErr.Reason, appErr.Message)
		return
	}

	h.renderSuccess(c, res)
}

type callbackPageData struct {
	Title   string
	Heading string
	Detail  string
	// Payload is the JSON message posted to the opener window.
	Payload template.JS
}

func (h *ConnectHandler) renderSuccess(c *gin.Context, res *service.CallbackResult) {
	payload, err := json.Marshal(gin.H{
		"type":       "oauth_success",
		"provider":   res.Provider,
		"account":    dto.LinkedAccountFromService(res.Account),
		"isExisting": res.IsExisting,
	})
	if err != nil {
		response.InternalError(c, "failed to render callback page")
		return
	}
	renderCallbackPage(c, http.StatusOK, callbackPageData{
		Title:   "Connected",
		Heading: "Account connected",
		Detail:  "You can close this window.",
		Payload: template.JS(payload),
	})
}

func (h *ConnectHandler) renderError(c *gin.Context, status int, provider, reason, message string) {
	payload, err := json.Marshal(gin.H{
		"type":     "oauth_error",
		"provider": provider,
		"reason":   reason,
		"message":  message,
	})
	if err != nil {
		response.InternalError(c, "failed to render callback page")
		return
	}
	renderCallbackPage(c, status, callbackPageData{
		Title:   "Connection failed",
		Heading: "Connection failed",
		Detail:  message,
		Payload: template.JS(payload),
	})
}

func renderCallbackPage(c *gin.Context, status int, data callbackPageData) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := callbackPageTemplate.Execute(c.Writer, data); err != nil {
		logger.L().With(
			zap.String("component", "handler.connect"),
			zap.Error(err),
		).Error("failed to write callback page")
	}
}

// callbackPageTemplate 回调终端页：把结果 postMessage 给打开它的窗口
// 然后自行关闭。没有 opener 时仅展示文案。
var callbackPageTemplate = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, sans-serif; display: flex; align-items: center; justify-content: center; height: 100vh; margin: 0; }
.box { text-align: center; }
</style>
</head>
<body>
<div class="box">
<h2>{{.Heading}}</h2>
<p>{{.Detail}}</p>
</div>
<script>
(function () {
  if (window.opener) {
    window.opener.postMessage({{.Payload}}, "*");
  }
  window.close();
})();
</script>
</body>
</html>
`))
