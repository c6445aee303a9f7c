// Package middleware provides HTTP middleware for the Raphael API.
// This file implements HTTP response compression using gzip.
//
// Trace and event query responses are JSON and compress well; Gzip wraps the
// response writer transparently so handlers stay unaware of it. WebSocket
// upgrades and Server-Sent Events are skipped since they aren't compressible
// streams.
package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// Gzip compression levels.
const (
	DefaultCompression = gzip.DefaultCompression
	NoCompression      = gzip.NoCompression
	BestSpeed          = gzip.BestSpeed
	BestCompression    = gzip.BestCompression
)

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		return gzip.NewWriter(io.Discard)
	},
}

// gzipWriter wraps gin.ResponseWriter with gzip compression.
type gzipWriter struct {
	gin.ResponseWriter
	writer *gzip.Writer
}

func (g *gzipWriter) Write(data []byte) (int, error) {
	return g.writer.Write(data)
}

func (g *gzipWriter) WriteString(s string) (int, error) {
	return g.writer.Write([]byte(s))
}

// Gzip returns a middleware that compresses HTTP responses using gzip.
func Gzip(level int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !shouldCompress(c.Request) {
			c.Next()
			return
		}

		var gz *gzip.Writer
		if level == DefaultCompression {
			gz = gzipWriterPool.Get().(*gzip.Writer)
			gz.Reset(c.Writer)
			defer gzipWriterPool.Put(gz)
		} else {
			var err error
			gz, err = gzip.NewWriterLevel(c.Writer, level)
			if err != nil {
				c.Next()
				return
			}
		}
		defer gz.Close()

		c.Header("Content-Encoding", "gzip")
		c.Header("Vary", "Accept-Encoding")

		c.Writer = &gzipWriter{
			ResponseWriter: c.Writer,
			writer:         gz,
		}

		c.Next()

		gz.Flush()
	}
}

// shouldCompress determines if the response should be compressed.
func shouldCompress(r *http.Request) bool {
	if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
		return false
	}

	if r.Header.Get("Upgrade") == "websocket" {
		return false
	}

	if r.Header.Get("Accept") == "text/event-stream" {
		return false
	}

	return true
}

// GzipWithExclusions returns a gzip middleware that skips the given path prefixes.
func GzipWithExclusions(level int, excludePaths []string) gin.HandlerFunc {
	gz := Gzip(level)
	return func(c *gin.Context) {
		for _, path := range excludePaths {
			if strings.HasPrefix(c.Request.URL.Path, path) {
				c.Next()
				return
			}
		}
		gz(c)
	}
}
