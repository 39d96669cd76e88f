package filesharing

import (
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

func respond(code int, headers map[string]string, v interface{}) (events.APIGatewayProxyResponse, error) {
	body := ""
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			return events.APIGatewayProxyResponse{}, err
		}
		body = string(b)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: code,
		Headers:    headers,
		Body:       body,
	}, nil
}

// writeProxyResponse copies a proxy response to w.
func writeProxyResponse(w http.ResponseWriter, resp events.APIGatewayProxyResponse) {
	h := w.Header()
	for k, v := range resp.Headers {
		h.Set(k, v)
	}

	if len(resp.Body) > 0 && len(h.Get("Content-Type")) == 0 {
		h.Set("Content-Type", "application/json")
	}

	w.WriteHeader(resp.StatusCode)
	w.Write([]byte(resp.Body))
}
