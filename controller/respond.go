package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"dunzo/model"
	"dunzo/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// OK writes the success envelope.
func OK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// Fail maps a planner failure onto a status code and writes the error
// envelope. Unexpected errors are logged and hidden from the client.
func Fail(c *gin.Context, err error) {
	var rule *services.RuleError
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
	case errors.As(err, &rule):
		c.JSON(statusOf(rule.Kind), gin.H{"success": false, "error": rule.Message})
	default:
		log.Printf("[%s] %s %s: %v", c.GetString("requestId"), c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
	}
}

func statusOf(kind error) int {
	switch kind {
	case services.ErrPermissionDenied:
		return http.StatusForbidden
	case services.ErrNotFound:
		return http.StatusNotFound
	case services.ErrConflict, services.ErrInvalidOperation, services.ErrValidation:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Invalid writes a 400 for a request that never reached the planner.
func Invalid(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": message})
}

// Bind decodes the JSON body into req and writes a 400 naming the offending
// field when it does not validate.
func Bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		Invalid(c, BindingMessage(err))
		return false
	}
	return true
}

// BindQuery is Bind for query parameters.
func BindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		Invalid(c, BindingMessage(err))
		return false
	}
	return true
}

func BindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			return fmt.Sprintf("%s is required", field)
		case "min":
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		case "max":
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		case "email":
			return fmt.Sprintf("%s must be a valid email address", field)
		case "gt", "gte":
			return fmt.Sprintf("%s must be a valid id", field)
		case "hexcolor":
			return fmt.Sprintf("%s must be a hex color such as #1a2b3c", field)
		case "dive":
			return fmt.Sprintf("%s contains an invalid entry", field)
		case "oneof", "project_role", "task_role", "task_status", "task_priority", "event_type":
			return fmt.Sprintf("%s has an unsupported value %v", field, fe.Value())
		}
		return fmt.Sprintf("%s is invalid", field)
	}
	var syntax *json.SyntaxError
	var typed *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typed):
		return fmt.Sprintf("%s has the wrong type", typed.Field)
	case errors.As(err, &syntax), errors.Is(err, io.ErrUnexpectedEOF):
		return "Request body is not valid JSON"
	}
	if errors.Is(err, io.EOF) {
		return "Request body is required"
	}
	return "Invalid input"
}

// Requester returns the user id set by the access token middleware.
func Requester(c *gin.Context) int {
	return c.MustGet("userId").(int)
}

// ParamID reads a positive integer path parameter. It writes the 400 itself
// and reports false when the value is malformed.
func ParamID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		Invalid(c, fmt.Sprintf("Invalid %s", name))
		return 0, false
	}
	return id, true
}

func oneOf(values ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		if v == "" {
			return true
		}
		for _, allowed := range values {
			if v == allowed {
				return true
			}
		}
		return false
	}
}

// RegisterValidators adds the domain tags used by dto binding rules. Empty
// values pass so that optional fields can fall back to defaults.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	custom := map[string]validator.Func{
		"project_role":  oneOf(model.RoleLeader, model.RoleManager, model.RoleMember),
		"task_role":     oneOf(model.AssignOwner, model.AssignContributor, model.AssignReviewer),
		"task_status":   oneOf(model.StatusToDo, model.StatusInProgress, model.StatusDone, model.StatusBlocked, model.StatusArchived),
		"task_priority": oneOf(model.PriorityLow, model.PriorityMedium, model.PriorityHigh),
		"event_type":    oneOf(model.EventTypeDeadline, model.EventTypeMeeting, model.EventTypeEvent),
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}
