package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"social-hub/domain/dto"
	"social-hub/infrastructure/logger"
	"social-hub/usecase"
)

const (
	ErrorUnmarshal = "Error while unmarshal"
)

type IPostHandler interface {
	CreateMultiPlatform(c *gin.Context)
	GetStatus(c *gin.Context)
	Retry(c *gin.Context)
}

type PostHandler struct {
	postUsecase usecase.IPostUsecase
}

func NewPostHandler(postUsecase usecase.IPostUsecase) IPostHandler {
	return &PostHandler{postUsecase: postUsecase}
}

func (postHandler *PostHandler) CreateMultiPlatform(c *gin.Context) {
	var req dto.CreatePostRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		c.JSON(http.StatusBadRequest, fmt.Sprintf("%s %v", ErrorUnmarshal, err.Error()))
		return
	}

	userID := c.GetString("user_id")
	if userID == "" { // fallback for dev
		userID = "demo-user"
	}

	res, err := postHandler.postUsecase.CreateMultiPlatformPost(c.Request.Context(), userID, &req)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while creating multi-platform post")
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: err.Error()})
		return
	}

	c.JSON(http.StatusOK, res)
}

func (postHandler *PostHandler) GetStatus(c *gin.Context) {
	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: "invalid post id"})
		return
	}

	res, err := postHandler.postUsecase.GetPostStatus(c.Request.Context(), postID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while fetching post status")
		c.JSON(http.StatusInternalServerError, dto.Res{ResponseCode: "500", ResponseMessage: err.Error()})
		return
	}
	if res == nil {
		c.JSON(http.StatusNotFound, dto.Res{ResponseCode: "404", ResponseMessage: "post not found"})
		return
	}

	c.JSON(http.StatusOK, res)
}

// Retry re-enqueues the failed platform entries of a post.
func (postHandler *PostHandler) Retry(c *gin.Context) {
	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: "invalid post id"})
		return
	}

	res, err := postHandler.postUsecase.RetryPost(c.Request.Context(), postID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while retrying post")
		c.JSON(http.StatusInternalServerError, dto.Res{ResponseCode: "500", ResponseMessage: err.Error()})
		return
	}
	if res == nil {
		c.JSON(http.StatusNotFound, dto.Res{ResponseCode: "404", ResponseMessage: "post not found"})
		return
	}

	c.JSON(http.StatusOK, res)
}
