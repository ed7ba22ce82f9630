package spotify

import (
	"context"
	"net/http"
)

type statusKey struct{}

// statusRecorder holds the HTTP status of the last non-2xx response seen for
// one outbound call. The Spotify client only surfaces a status when the error
// body is a well-formed envelope.
type statusRecorder struct {
	code int
}

func withStatusRecorder(ctx context.Context) (context.Context, *statusRecorder) {
	rec := &statusRecorder{}
	return context.WithValue(ctx, statusKey{}, rec), rec
}

// statusTransport records failed response statuses into the recorder carried
// by the request context, if any.
type statusTransport struct {
	base http.RoundTripper
}

func (t *statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if rec, ok := req.Context().Value(statusKey{}).(*statusRecorder); ok {
			rec.code = resp.StatusCode
		}
	}
	return resp, nil
}
