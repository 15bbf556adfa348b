package gateway

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"jobgate-appointment-api/internal/auth"
	"jobgate-appointment-api/internal/rpc"
)

// binding says where a request message is read from. Path parameters are
// applied last so the URL wins over a conflicting body field.
type binding int

const (
	fromBody binding = 1 << iota
	fromQuery
	fromPath
)

const (
	accessCookie  = "access_token"
	refreshCookie = "refresh_token"
)

func bind[Req any](c *gin.Context, from binding) (*Req, bool) {
	req := new(Req)
	if from&fromBody != 0 && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return nil, false
		}
	}
	if from&fromQuery != 0 {
		if err := c.ShouldBindQuery(req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
			return nil, false
		}
	}
	if from&fromPath != 0 {
		if err := c.ShouldBindUri(req); err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
			return nil, false
		}
	}
	return req, true
}

// handle adapts one service method to a gin handler.
func handle[Req, Resp any](fn func(context.Context, *Req) (*Resp, error), from binding, code int) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := bind[Req](c, from)
		if !ok {
			return
		}
		resp, err := fn(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(code, resp)
	}
}

// download serves a rendered file as an attachment.
func download(fn func(context.Context, *rpc.ExportRequest) (*rpc.File, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := bind[rpc.ExportRequest](c, fromQuery)
		if !ok {
			return
		}
		f, err := fn(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+f.Filename+`"`)
		c.Data(http.StatusOK, f.ContentType, f.Data)
	}
}

type cookies struct {
	secure bool
}

func (ck cookies) set(c *gin.Context, resp *rpc.AuthResponse) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessCookie, resp.AccessToken, int(auth.AccessTTL.Seconds()), "/", "", ck.secure, true)
	c.SetCookie(refreshCookie, resp.RefreshToken, int(auth.RefreshTTL.Seconds()), "/api/auth", "", ck.secure, true)
}

func (ck cookies) clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessCookie, "", -1, "/", "", ck.secure, true)
	c.SetCookie(refreshCookie, "", -1, "/api/auth", "", ck.secure, true)
}

// issue runs a call that hands out tokens and mirrors them into cookies.
func issue[Req any](ck cookies, fn func(context.Context, *Req) (*rpc.AuthResponse, error), code int) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := bind[Req](c, fromBody)
		if !ok {
			return
		}
		resp, err := fn(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		ck.set(c, resp)
		c.JSON(code, resp)
	}
}

// refresh takes the refresh token from the body or, for browsers, from its
// cookie.
func (ck cookies) refresh(fn func(context.Context, *rpc.RefreshTokenRequest) (*rpc.AuthResponse, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := bind[rpc.RefreshTokenRequest](c, fromBody)
		if !ok {
			return
		}
		if req.RefreshToken == "" {
			req.RefreshToken, _ = c.Cookie(refreshCookie)
		}
		resp, err := fn(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		ck.set(c, resp)
		c.JSON(http.StatusOK, resp)
	}
}

func (ck cookies) logout(fn func(context.Context, *rpc.LogoutRequest) (*rpc.Empty, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := bind[rpc.LogoutRequest](c, fromBody)
		if !ok {
			return
		}
		if _, err := fn(c.Request.Context(), req); err != nil {
			writeError(c, err)
			return
		}
		ck.clear(c)
		c.Status(http.StatusNoContent)
	}
}

func bearer(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	if v, err := c.Cookie(accessCookie); err == nil {
		return v
	}
	return ""
}
