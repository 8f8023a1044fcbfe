package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"social-hub/domain/dto"
	"social-hub/domain/model"
	"social-hub/infrastructure/logger"
	"social-hub/usecase"
)

// IOAuthHandler serves the per-platform OAuth surface. The platform comes
// from the :platform path segment; unknown names are rejected up front.
type IOAuthHandler interface {
	Login(c *gin.Context)
	Callback(c *gin.Context)
	Status(c *gin.Context)
	Revoke(c *gin.Context)
}

type OAuthHandler struct {
	flow usecase.IOAuthFlow
}

func NewOAuthHandler(flow usecase.IOAuthFlow) IOAuthHandler {
	return &OAuthHandler{flow: flow}
}

func parsePlatformParam(c *gin.Context) (model.Platform, bool) {
	platform, ok := model.ParsePlatform(c.Param("platform"))
	if !ok {
		c.JSON(http.StatusNotFound, dto.Res{ResponseCode: "404", ResponseMessage: "unknown platform"})
	}
	return platform, ok
}

// Login issues the provider consent URL for the given user.
func (h *OAuthHandler) Login(c *gin.Context) {
	platform, ok := parsePlatformParam(c)
	if !ok {
		return
	}
	userID := c.Query("userId")
	if userID == "" {
		userID = c.GetString("user_id")
	}
	if userID == "" {
		userID = "demo-user"
	}
	res, err := h.flow.AuthorizationURL(c.Request.Context(), userID, platform)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while building authorization URL")
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: err.Error()})
		return
	}
	// Browsers can be sent straight to the consent screen.
	if c.Query("redirect") == "true" {
		c.Redirect(http.StatusFound, res.AuthURL)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Callback is the provider redirect target; the state record identifies the
// user and platform, so the path platform is only a sanity check.
func (h *OAuthHandler) Callback(c *gin.Context) {
	if _, ok := parsePlatformParam(c); !ok {
		return
	}
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: "missing code or state"})
		return
	}
	token, err := h.flow.HandleCallback(c.Request.Context(), code, state)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while handling OAuth callback")
		c.JSON(http.StatusBadGateway, dto.Res{ResponseCode: "502", ResponseMessage: err.Error()})
		return
	}
	resp := gin.H{"connected": true, "platform": token.Platform}
	if token.PlatformUsername != nil {
		resp["platform_username"] = *token.PlatformUsername
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OAuthHandler) Status(c *gin.Context) {
	platform, ok := parsePlatformParam(c)
	if !ok {
		return
	}
	userID := c.Query("userId")
	if userID == "" {
		userID = c.GetString("user_id")
	}
	if userID == "" {
		userID = "demo-user"
	}
	res, err := h.flow.ConnectionStatus(c.Request.Context(), userID, platform)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while fetching connection status")
		c.JSON(http.StatusInternalServerError, dto.Res{ResponseCode: "500", ResponseMessage: err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *OAuthHandler) Revoke(c *gin.Context) {
	platform, ok := parsePlatformParam(c)
	if !ok {
		return
	}
	userID := c.Param("userId")
	if err := h.flow.Revoke(c.Request.Context(), userID, platform); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while revoking connection")
		c.JSON(http.StatusInternalServerError, dto.Res{ResponseCode: "500", ResponseMessage: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"revoked": true, "platform": platform})
}
