package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxRequestBody = 1 << 20

// NewRouter exposes the Lambda handler as a plain net/http handler for local
// serving. Each request is translated into an API Gateway proxy event.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Post(pathChat, h.ServeHTTP)
	r.Post(pathChatResult, h.ServeHTTP)
	r.Get(pathModelInfo, h.ServeHTTP)
	r.NotFound(h.ServeHTTP)
	r.MethodNotAllowed(h.ServeHTTP)
	return r
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		writeResponse(w, jsonResponse(http.StatusRequestEntityTooLarge, errorResponse{Error: "Request body too large"}))
		return
	}

	headers := make(map[string]string, len(r.Header)+1)
	for k := range r.Header {
		headers[k] = r.Header.Get(k)
	}
	if _, ok := headers[correlationHeader]; !ok {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			headers[correlationHeader] = reqID
		}
	}

	query := make(map[string]string, len(r.URL.Query()))
	for k := range r.URL.Query() {
		query[k] = r.URL.Query().Get(k)
	}

	resp, _ := h.Handle(r.Context(), events.APIGatewayProxyRequest{
		HTTPMethod:            r.Method,
		Path:                  r.URL.Path,
		Headers:               headers,
		QueryStringParameters: query,
		Body:                  string(body),
	})
	writeResponse(w, resp)
}

func writeResponse(w http.ResponseWriter, resp events.APIGatewayProxyResponse) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, strings.NewReader(resp.Body))
}
