// Package lax implements tools for building easy RESTful APIs.
//
//      ^ ^
//  ("\(-_-)/")
//  )(       )(
// ((...) (...))
//
// Take it easy!
package lax

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

// Request wraps http.Request to provide convenience methods.
type Request struct {
	*http.Request
}

// JSON loads JSON data from a request into the given address.
func (request *Request) JSON(ptr any) error {
	return json.NewDecoder(request.Body).Decode(ptr)
}

// Var returns a path variable captured by the router.
func (request *Request) Var(name string) string {
	return mux.Vars(request.Request)[name]
}

// Int64Var parses a path variable as a base 10 integer.
func (request *Request) Int64Var(name string) (int64, error) {
	return strconv.ParseInt(request.Var(name), 10, 64)
}

// QueryInt parses an integer query parameter, with a fallback for when the
// parameter is absent.
func (request *Request) QueryInt(name string, fallback int) (int, error) {
	raw := request.URL.Query().Get(name)

	if len(raw) == 0 {
		return fallback, nil
	}

	return strconv.Atoi(raw)
}

// QueryTime parses an RFC 3339 timestamp query parameter.
func (request *Request) QueryTime(name string) (time.Time, error) {
	return time.Parse(time.RFC3339, request.URL.Query().Get(name))
}

// MethodHandler is a handler for an HTTP method.
type MethodHandler = func(request *Request) any

// View represents a view for a RESTful API.
type View struct {
	// The handler for HEAD requests.
	Head MethodHandler
	// The handler for GET requests.
	Get MethodHandler
	// The handler for POST requests.
	Post MethodHandler
	// The handler for PUT requests.
	Put MethodHandler
	// The handler for DELETE requests.
	Delete MethodHandler
}

// Response represents a response to return.
type Response struct {
	Status int
	Data   any
}

// IssueDescription is an issue created with Issue.
type IssueDescription struct {
	Path    string `json:"path"`
	Problem string `json:"problem"`
}

// Issue creates an issue for use with MakeErrorListResponse.
func Issue(path, problem string) IssueDescription {
	return IssueDescription{path, problem}
}

// MakeResponse creates a response with a status code and data.
func MakeResponse(status int, data any) *Response {
	return &Response{status, data}
}

// MakeBadRequestResponse creates a 400 error response from one object.
func MakeBadRequestResponse(data any) *Response {
	switch v := data.(type) {
	case error:
		// Get the string from errors for 400 responses.
		return &Response{http.StatusBadRequest, v.Error()}
	default:
		return &Response{http.StatusBadRequest, v}
	}
}

// MakeNotFoundResponse creates a 404 error response.
func MakeNotFoundResponse() *Response {
	return &Response{http.StatusNotFound, "Not Found"}
}

// MakeErrorListResponse creates a 400 error response from parts.
func MakeErrorListResponse(parts ...IssueDescription) *Response {
	return &Response{http.StatusBadRequest, parts}
}

// A default handler for handling methods that are not allowed.
func methodNotAllowedHandler(request *Request) any {
	return &Response{http.StatusMethodNotAllowed, "Method Not Allowed"}
}

// Get the handler for the HTTP request method.
func dispatch(view *View, requestMethod string) (MethodHandler, int) {
	var handler MethodHandler
	defaultStatus := http.StatusOK

	if strings.EqualFold(requestMethod, "get") {
		handler = view.Get
	} else if strings.EqualFold(requestMethod, "post") {
		handler = view.Post
		defaultStatus = http.StatusCreated
	} else if strings.EqualFold(requestMethod, "put") {
		handler = view.Put
	} else if strings.EqualFold(requestMethod, "delete") {
		handler = view.Delete
		defaultStatus = http.StatusNoContent
	} else if strings.EqualFold(requestMethod, "head") {
		handler = view.Head
	}

	if handler == nil {
		handler = methodNotAllowedHandler
		defaultStatus = http.StatusMethodNotAllowed
	}

	return handler, defaultStatus
}

// Normalise response data so we can consume it.
func normalise(response any, defaultStatus int) (*Response, error) {
	switch v := response.(type) {
	case *Response:
		return v, nil
	case error:
		return &Response{http.StatusInternalServerError, nil}, v
	default:
		return &Response{defaultStatus, v}, nil
	}
}

// Wrap creates a HandlerFunc from a View.
func Wrap(view View) http.HandlerFunc {
	return func(writer http.ResponseWriter, httpRequest *http.Request) {
		request := Request{httpRequest}
		method, defaultStatus := dispatch(&view, request.Method)
		response, responseErr := normalise(method(&request), defaultStatus)

		if responseErr != nil {
			log.Printf("internal error: %+v\n", responseErr)
			http.Error(writer, "Internal Server Error", response.Status)

			return
		}

		writer.Header().Set("Content-Type", "application/json")

		outputEncoder := json.NewEncoder(writer)
		outputEncoder.SetEscapeHTML(false)
		writer.WriteHeader(response.Status)

		if err := outputEncoder.Encode(response.Data); err != nil {
			log.Printf("encoding error: %+v\n", err)
		}
	}
}
