package metrics

import (
	"net/http"
	"strconv"

	"github.com/newrelic/go-agent/v3/newrelic"
)

const (
	httpRequestPathAttributeKey             = "http.request.path"
	httpResponseStatusCodeAttributeKey      = "http.response.statusCode"
	httpResponseStatusCodeLevelAttributeKey = "http.response.statusCodeLevel"

	infoLevel    = "info"
	warningLevel = "warning"
	errorLevel   = "error"
)

// StatusCodeLevel classifies an HTTP status code into the level reported
// alongside the transaction.
func StatusCodeLevel(statusCode int) string {
	switch {
	case statusCode >= http.StatusInternalServerError:
		return errorLevel
	case statusCode == http.StatusTooManyRequests, statusCode == http.StatusRequestTimeout:
		return warningLevel
	default:
		return infoLevel
	}
}

// CustomNewRelicHTTPMiddleware wraps an HTTP handler in a New Relic web
// transaction named after path. With a nil app the handler is returned as is.
func CustomNewRelicHTTPMiddleware(app *newrelic.Application, path string, next http.Handler) http.Handler {
	if app == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		txn := app.StartTransaction(r.Method + " " + path)
		defer txn.End()

		txn.SetWebRequestHTTP(r)
		txn.AddAttribute(httpRequestPathAttributeKey, r.URL.Path)

		recorder := &statusRecorder{ResponseWriter: txn.SetWebResponse(w), statusCode: http.StatusOK}

		// Inject the application to allow for any custom metrics, events, etc
		// in downstream code.
		ctx := NewContext(r.Context(), app)
		ctx = newrelic.NewContext(ctx, txn)

		next.ServeHTTP(recorder, r.WithContext(ctx))

		level := StatusCodeLevel(recorder.statusCode)
		txn.AddAttribute(httpResponseStatusCodeAttributeKey, recorder.statusCode)
		txn.AddAttribute(httpResponseStatusCodeLevelAttributeKey, level)
		if level == errorLevel {
			txn.NoticeError(&newrelic.Error{
				Message: http.StatusText(recorder.statusCode),
				Class:   "HTTP Status: " + strconv.Itoa(recorder.statusCode),
			})
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
