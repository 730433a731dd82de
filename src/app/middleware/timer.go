package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// ProcessTimeHeader carries the handler duration in seconds.
const ProcessTimeHeader = "X-Process-Time"

// Timer measures how long the rest of the chain takes and reports it in the
// X-Process-Time response header. Headers must be set before the body is
// written, so the writer is wrapped.
func Timer() gin.HandlerFunc {
	return func(c *gin.Context) {
		tw := &timedWriter{ResponseWriter: c.Writer, start: time.Now()}
		c.Writer = tw
		c.Next()
		tw.stamp()
	}
}

type timedWriter struct {
	gin.ResponseWriter
	start   time.Time
	stamped bool
}

func (w *timedWriter) stamp() {
	if w.stamped || w.ResponseWriter.Written() {
		return
	}
	w.stamped = true
	elapsed := time.Since(w.start).Seconds()
	w.Header().Set(ProcessTimeHeader, strconv.FormatFloat(elapsed, 'f', 6, 64))
}

func (w *timedWriter) WriteHeader(code int) {
	w.stamp()
	w.ResponseWriter.WriteHeader(code)
}

func (w *timedWriter) WriteHeaderNow() {
	w.stamp()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *timedWriter) Write(b []byte) (int, error) {
	w.stamp()
	return w.ResponseWriter.Write(b)
}

func (w *timedWriter) WriteString(s string) (int, error) {
	w.stamp()
	return w.ResponseWriter.WriteString(s)
}
