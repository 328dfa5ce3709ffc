package api

import (
	"haidetect.com/hai/logger"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"net/http"
	"time"
)

var defaultLogger = logger.NewLogger("API")

type endpointLoggerFields struct {
	Method    string `json:"method"`
	Url       string `json:"url"`
	RequestId string `json:"request_id,omitempty"`
}

const RequestInfoFieldsKey = "request_info"

func makeRequestLogger(request *http.Request) zerolog.Logger {
	fields := endpointLoggerFields{
		Method:    request.Method,
		Url:       request.URL.String(),
		RequestId: middleware.GetReqID(request.Context()),
	}
	return defaultLogger.
		With().Interface(RequestInfoFieldsKey, fields).Logger()
}

// requestLogger writes one line per served request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		l := makeRequestLogger(r)
		l.Debug().
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Msg("Served request")
	})
}
