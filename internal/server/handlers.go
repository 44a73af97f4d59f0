package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ryan-gang/dbalert/internal/metrics"
	"github.com/ryan-gang/dbalert/internal/util"
)

const (
	CategorySuccess = "success"
	CategoryError   = "error"
)

// Response is the body of every /send_email reply
type Response struct {
	Message  string `json:"message"`
	Category string `json:"category"`
}

const (
	msgSent          = "邮件发送成功!"
	msgMaybeSent     = "邮件可能已成功发送"
	msgAuthFailed    = "认证失败，请检查用户名和密码"
	msgSendFailed    = "发送邮件时出错，请稍后重试"
	msgMissingFields = "缺少必填字段: receiver_email, subject, body"
)

func (s *Server) sendEmail(c *gin.Context) {
	receiver, okReceiver := c.GetPostForm("receiver_email")
	subject, okSubject := c.GetPostForm("subject")
	body, okBody := c.GetPostForm("body")
	if !okReceiver || !okSubject || !okBody || receiver == "" {
		respond(c, http.StatusBadRequest, msgMissingFields, CategoryError)
		return
	}

	s.log.Infof("Sending ad-hoc mail to %s", receiver)
	result, err := s.mailer.Send(receiver, subject, body)
	switch {
	case err == nil && result.Uncertain:
		respond(c, http.StatusOK, msgMaybeSent, CategorySuccess)
	case err == nil:
		respond(c, http.StatusOK, msgSent, CategorySuccess)
	case errors.Is(err, util.ErrAuth):
		s.log.Errorf("Authentication failed: %v", err)
		respond(c, http.StatusBadRequest, msgAuthFailed, CategoryError)
	default:
		s.log.Errorf("Unexpected error: %v", err)
		respond(c, http.StatusInternalServerError, msgSendFailed, CategoryError)
	}
}

func respond(c *gin.Context, status int, message, category string) {
	metrics.TriggerRequests.WithLabelValues(category).Inc()
	c.JSON(status, Response{Message: message, Category: category})
}
