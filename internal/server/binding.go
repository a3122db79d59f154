package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// bindMessages maps a field and a failed tag to the message returned to the client.
type bindMessages map[string]map[string]string

var commonBindMessages = bindMessages{
	"Name": {
		"required": "name is required",
		"name":     "name must be 1 to 20 printable characters",
		"roomname": "room name must be 1 to 40 printable characters",
	},
	"Password": {
		"required": "password is required",
		"password": "password must be 3 to 32 printable characters",
	},
	"Role": {
		"required": "role is required",
		"oneof":    "role must be dealer or player",
	},
	"UserID": {
		"required": "user_id is required",
	},
	"Text": {
		"required": "answer is required",
		"answer":   "answer must be 1 to 100 characters",
	},
	"AnswerID": {
		"required": "answer_id is required",
	},
}

func bindJSON(c *gin.Context, req any, messages bindMessages, fallback string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": resolveBindError(err, messages, fallback)})
		return false
	}
	return true
}

// normalized runs validate on value and aborts with 400 when it fails. The
// binding tags run the same validators, so this only trips if they drift apart.
func normalized(c *gin.Context, validate func(string) (string, error), value string) (string, bool) {
	out, err := validate(value)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return out, true
}

func resolveBindError(err error, messages bindMessages, fallback string) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, verr := range verrs {
			if fieldMsgs, ok := messages[verr.Field()]; ok {
				if msg, ok := fieldMsgs[verr.Tag()]; ok {
					return msg
				}
			}
		}
	}
	if fallback != "" {
		return fallback
	}
	return "invalid request"
}
