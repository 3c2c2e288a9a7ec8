package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const loggerKey = "request_logger"

// Logger attaches a request-scoped logger (tagged with the trace id and,
// on battle routes, the battle id) and writes one access line per request.
// Paths in skip are served without the access line.
func Logger(log *zap.Logger, skip ...string) gin.HandlerFunc {
	quiet := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		quiet[p] = struct{}{}
	}
	return func(c *gin.Context) {
		start := time.Now()
		fields := []zap.Field{zap.String("trace_id", GetTraceID(c))}
		if id := c.Param("id"); id != "" {
			fields = append(fields, zap.String("battle_id", id))
		}
		reqLog := log.With(fields...)
		c.Set(loggerKey, reqLog)

		c.Next()

		if _, ok := quiet[c.FullPath()]; ok {
			return
		}
		status := c.Writer.Status()
		lvl := zapcore.InfoLevel
		switch {
		case status >= 500:
			lvl = zapcore.ErrorLevel
		case status >= 400:
			lvl = zapcore.WarnLevel
		}
		if ce := reqLog.Check(lvl, "http"); ce != nil {
			ce.Write(
				zap.String("method", c.Request.Method),
				zap.String("route", c.FullPath()),
				zap.String("path", c.Request.URL.Path),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
				zap.String("client_ip", c.ClientIP()),
				zap.Strings("errors", c.Errors.Errors()),
			)
		}
	}
}

// Log returns the request-scoped logger, or a no-op logger outside Logger.
func Log(c *gin.Context) *zap.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return zap.NewNop()
}
