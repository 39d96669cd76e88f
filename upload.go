package filesharing

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aws/aws-lambda-go/events"

	"github.com/filesharinghq/core/activity"
	"github.com/filesharinghq/core/internal"
	"github.com/filesharinghq/core/logger"
	"github.com/filesharinghq/core/metrics"
	"github.com/filesharinghq/core/storage"
)

// CorsHeaders returns the headers sent with every upload API response.
func CorsHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,X-Amz-Date,Authorization,X-Api-Key",
		"Access-Control-Allow-Methods": "GET,OPTIONS",
	}
}

// UploadURLs is the body of a successful upload URL request.
type UploadURLs struct {
	SignedURL string `json:"signedUrl"`
	MediaURL  string `json:"mediaUrl"`
}

type badRequest struct {
	Error string `json:"error"`
}

type serverError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Uploader hands out signed upload URLs.
type Uploader struct {
	Storage  storage.Storer
	Activity activity.Recorder
	Log      *logger.Logger
}

// Handle answers an API gateway proxy request for an upload URL. Errors are
// reported through the response, the returned error is always nil.
func (u *Uploader) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if req.HTTPMethod == http.MethodOptions {
		return u.respond(http.StatusOK, nil)
	}

	fileName := req.QueryStringParameters["fileName"]
	if len(fileName) == 0 {
		return u.respond(http.StatusBadRequest, badRequest{Error: "fileName is required"})
	}

	signedURL, err := u.Storage.PresignUpload(ctx, fileName, internal.ContentType(fileName))
	if err != nil {
		u.Log.Error().Err(err).Str("fileName", fileName).Msg("error processing request")

		return u.respond(http.StatusInternalServerError, serverError{
			Error:   "Internal Server Error",
			Message: err.Error(),
		})
	}

	u.Activity.Record(ctx, activity.ActionUpload, fileName, "")

	return u.respond(http.StatusOK, UploadURLs{
		SignedURL: signedURL,
		MediaURL:  u.Storage.MediaURL(fileName),
	})
}

// ServeHTTP adapts Handle for the local server.
func (u *Uploader) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := events.APIGatewayProxyRequest{
		HTTPMethod:            r.Method,
		Path:                  r.URL.Path,
		Headers:               map[string]string{},
		QueryStringParameters: map[string]string{},
	}

	for k := range r.Header {
		req.Headers[k] = r.Header.Get(k)
	}
	for k := range r.URL.Query() {
		req.QueryStringParameters[k] = r.URL.Query().Get(k)
	}

	resp, err := u.Handle(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeProxyResponse(w, resp)
}

func (u *Uploader) respond(code int, v interface{}) (events.APIGatewayProxyResponse, error) {
	metrics.UploadURLs.WithLabelValues(strconv.Itoa(code)).Inc()
	return respond(code, CorsHeaders(), v)
}
