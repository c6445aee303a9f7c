// Package middleware provides HTTP middleware for the Raphael API.
// This file implements HTTP method restriction to prevent abuse through uncommon methods.
//
// AllowedHTTPMethods takes a whitelist approach (only known-safe methods pass).
// DisallowedHTTPMethods takes a blacklist approach (explicitly blocks TRACE/TRACK/CONNECT,
// which can be used for response-splitting and proxy-tunneling attacks). Use both for
// defense in depth.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AllowedHTTPMethods restricts incoming requests to the set of methods the API
// actually uses, rejecting everything else with 405.
func AllowedHTTPMethods() gin.HandlerFunc {
	allowedMethods := map[string]bool{
		http.MethodGet:     true,
		http.MethodPost:    true,
		http.MethodPut:     true,
		http.MethodPatch:   true,
		http.MethodDelete:  true,
		http.MethodOptions: true,
		http.MethodHead:    true,
	}

	return func(c *gin.Context) {
		method := c.Request.Method

		if !allowedMethods[method] {
			c.Header("Allow", "GET, POST, PUT, PATCH, DELETE, OPTIONS, HEAD")
			c.JSON(http.StatusMethodNotAllowed, gin.H{
				"error":   "Method not allowed",
				"message": "The HTTP method " + method + " is not allowed for this resource.",
				"allowed_methods": []string{
					"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD",
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// DisallowedHTTPMethods explicitly blocks methods that have no legitimate use
// against this API (TRACE/TRACK enable response-splitting XSS, CONNECT is for
// proxy tunneling).
func DisallowedHTTPMethods() gin.HandlerFunc {
	disallowedMethods := map[string]bool{
		"TRACE":   true,
		"TRACK":   true,
		"CONNECT": true,
	}

	return func(c *gin.Context) {
		method := c.Request.Method

		if disallowedMethods[method] {
			c.JSON(http.StatusMethodNotAllowed, gin.H{
				"error":   "Method not allowed",
				"message": "The HTTP method " + method + " is not permitted.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
