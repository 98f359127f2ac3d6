package lax

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(view View, method string, target string, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader

	if len(body) > 0 {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	request := httptest.NewRequest(method, target, reader)
	recorder := httptest.NewRecorder()
	Wrap(view)(recorder, request)

	return recorder
}

func TestWrapEncodesJSONWithDefaultStatus(t *testing.T) {
	t.Parallel()

	recorder := serve(View{
		Get: func(request *Request) any {
			return map[string]string{"status": "ok"}
		},
	}, "GET", "/thing", "")

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status": "ok"}`, recorder.Body.String())
}

func TestWrapDefaultsPostToCreated(t *testing.T) {
	t.Parallel()

	recorder := serve(View{
		Post: func(request *Request) any {
			return map[string]int{"id": 1}
		},
	}, "POST", "/thing", "{}")

	assert.Equal(t, http.StatusCreated, recorder.Code)
}

func TestWrapHonoursExplicitResponses(t *testing.T) {
	t.Parallel()

	recorder := serve(View{
		Get: func(request *Request) any {
			return MakeResponse(http.StatusTeapot, "short and stout")
		},
	}, "GET", "/thing", "")

	assert.Equal(t, http.StatusTeapot, recorder.Code)
}

func TestWrapTurnsErrorsInto500s(t *testing.T) {
	t.Parallel()

	recorder := serve(View{
		Get: func(request *Request) any {
			return errors.New("database is on fire")
		},
	}, "GET", "/thing", "")

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Internal Server Error")
	assert.NotContains(t, recorder.Body.String(), "on fire")
}

func TestWrapRejectsMissingMethods(t *testing.T) {
	t.Parallel()

	recorder := serve(View{
		Get: func(request *Request) any {
			return "fine"
		},
	}, "DELETE", "/thing", "")

	assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
}

func TestErrorListResponse(t *testing.T) {
	t.Parallel()

	recorder := serve(View{
		Post: func(request *Request) any {
			return MakeErrorListResponse(
				Issue("amount", "amount must not be negative"),
			)
		},
	}, "POST", "/thing", "{}")

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.JSONEq(
		t,
		`[{"path": "amount", "problem": "amount must not be negative"}]`,
		recorder.Body.String(),
	)
}

func TestRequestJSON(t *testing.T) {
	t.Parallel()

	recorder := serve(View{
		Post: func(request *Request) any {
			body := struct {
				Name string `json:"name"`
			}{}

			if err := request.JSON(&body); err != nil {
				return MakeBadRequestResponse(err)
			}

			return body.Name
		},
	}, "POST", "/thing", `{"name": "gold"}`)

	assert.Equal(t, http.StatusCreated, recorder.Code)
	assert.JSONEq(t, `"gold"`, recorder.Body.String())
}

func TestRequestVars(t *testing.T) {
	t.Parallel()

	router := mux.NewRouter()
	router.Handle("/users/{id}", Wrap(View{
		Get: func(request *Request) any {
			id, err := request.Int64Var("id")
			require.NoError(t, err)

			return id
		},
	}))

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("GET", "/users/42", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, "42", recorder.Body.String())
}

func TestRequestQueryHelpers(t *testing.T) {
	t.Parallel()

	request := Request{httptest.NewRequest("GET", "/x?page=3&start=2024-01-01T00:00:00Z&bad=zzz", nil)}

	page, err := request.QueryInt("page", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, page)

	fallback, err := request.QueryInt("missing", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, fallback)

	_, err = request.QueryInt("bad", 0)
	assert.Error(t, err)

	start, err := request.QueryTime("start")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), start)

	_, err = request.QueryTime("missing")
	assert.Error(t, err)
}
