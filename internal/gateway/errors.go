package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"jobgate-appointment-api/internal/middleware"
)

var httpStatus = map[codes.Code]int{
	codes.InvalidArgument:    http.StatusBadRequest,
	codes.FailedPrecondition: http.StatusBadRequest,
	codes.OutOfRange:         http.StatusBadRequest,
	codes.Unauthenticated:    http.StatusUnauthorized,
	codes.PermissionDenied:   http.StatusForbidden,
	codes.NotFound:           http.StatusNotFound,
	codes.AlreadyExists:      http.StatusConflict,
	codes.Aborted:            http.StatusConflict,
	codes.ResourceExhausted:  http.StatusTooManyRequests,
	codes.Unimplemented:      http.StatusNotImplemented,
	codes.Unavailable:        http.StatusServiceUnavailable,
	codes.DeadlineExceeded:   http.StatusGatewayTimeout,
	codes.Canceled:           499,
}

// HTTPStatus maps a gRPC code onto the closest HTTP status.
func HTTPStatus(c codes.Code) int {
	if s, ok := httpStatus[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// writeError renders a service error as {"error": msg, "fields": {...}}.
func writeError(c *gin.Context, err error) {
	st := status.Convert(err)
	code := HTTPStatus(st.Code())
	body := gin.H{"error": st.Message()}

	fields := map[string]string{}
	for _, d := range st.Details() {
		if br, ok := d.(*errdetails.BadRequest); ok {
			for _, v := range br.GetFieldViolations() {
				if _, seen := fields[v.GetField()]; !seen {
					fields[v.GetField()] = v.GetDescription()
				}
			}
		}
	}
	if len(fields) > 0 {
		body["fields"] = fields
	}
	if retry, ok := middleware.RetryAfter(err); ok {
		c.Header("Retry-After", retryAfter(retry))
	}
	if code >= http.StatusInternalServerError {
		_ = c.Error(err)
		body["error"] = "internal error"
	}
	c.AbortWithStatusJSON(code, body)
}
