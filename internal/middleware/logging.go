package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// RequestLogger writes single log entry per request
func RequestLogger(logger logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// let error handler render the response so status is final
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			entry := logger.WithFields(logrus.Fields{
				"method":  req.Method,
				"uri":     req.RequestURI,
				"status":  res.Status,
				"latency": time.Since(start).String(),
				"remote":  c.RealIP(),
			})

			switch {
			case res.Status >= 500:
				entry.Error("request failed")
			case res.Status >= 400:
				entry.Warn("request rejected")
			default:
				entry.Info("request served")
			}
			return nil
		}
	}
}
