package api

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queryRequest(t *testing.T) *Request {
	t.Helper()
	req, err := testBuilder().Query("count(//x)", "x")
	require.NoError(t, err)
	return req
}

func TestCheckStatus(t *testing.T) {
	req := queryRequest(t)
	for _, status := range []int{200, 202} {
		assert.NoError(t, checkStatus(req, &Response{StatusCode: status}))
	}
	for _, status := range []int{201, 204, 301, 400, 401, 404, 500, 503} {
		err := checkStatus(req, &Response{StatusCode: status, Reason: "Nope", Body: []byte("body")})
		var se *ServiceError
		require.ErrorAs(t, err, &se, "status %d", status)
		assert.Equal(t, status, se.StatusCode)
	}
}

func TestClassify404(t *testing.T) {
	req := queryRequest(t)
	for _, body := range []string{"", "not json", `{"error":"missing"}`} {
		var out any
		_, err := classifyJSON(req, &Response{StatusCode: 404, Reason: "Not Found", Body: []byte(body)}, &out)
		var se *ServiceError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, 404, se.StatusCode)
		assert.Equal(t, "Not Found", se.Reason)
		assert.Equal(t, body, se.Body)
		assert.Contains(t, err.Error(), "404")
		assert.Contains(t, err.Error(), "Not Found")
		assert.False(t, IsClientError(err))
	}
}

func TestClassifyInvalidJSON(t *testing.T) {
	var out map[string]any
	_, err := classifyJSON(queryRequest(t), &Response{StatusCode: 200, Body: []byte("{nope")}, &out)
	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.True(t, errors.Is(err, ErrInvalidBody))
	assert.Equal(t, 200, se.StatusCode)
}

func TestClassifyEmptyBody(t *testing.T) {
	var out map[string]any
	decoded, err := classifyJSON(queryRequest(t), &Response{StatusCode: 202, Body: []byte("  ")}, &out)
	require.NoError(t, err)
	assert.False(t, decoded)
	assert.Nil(t, out)

	req, err := testBuilder().Delete("x")
	require.NoError(t, err)
	assert.NoError(t, classifyEmpty(req, &Response{StatusCode: 200, Body: []byte("ignored")}))
	assert.Error(t, classifyEmpty(req, &Response{StatusCode: 500}))
}

func decodeEnvelope(t *testing.T, body string) *QueryEnvelope {
	t.Helper()
	var env QueryEnvelope
	require.NoError(t, json.Unmarshal([]byte(body), &env))
	return &env
}

func TestSummarizeQuery(t *testing.T) {
	env := decodeEnvelope(t, `{"errors":[],"serverErrors":[],"warnings":[],"data":[0]}`)
	data, err := summarizeQuery(env, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{float64(0)}, data)
}

func TestSummarizeQueryErrorsBeforeServerErrors(t *testing.T) {
	env := decodeEnvelope(t, `{"errors":["bad token"],"serverErrors":["boom"],"warnings":[],"data":[]}`)
	_, err := summarizeQuery(env, nil)
	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "query reported errors", ce.Message)
	assert.Equal(t, []string{"bad token"}, ce.Details)
	assert.Equal(t, ErrQueryFailed, ce.Code)

	env = decodeEnvelope(t, `{"errors":[],"serverErrors":["boom"],"warnings":[],"data":[1]}`)
	_, err = summarizeQuery(env, nil)
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "server reported errors", ce.Message)
	assert.Equal(t, []string{"boom"}, ce.Details)
}

func TestSummarizeQueryWarnings(t *testing.T) {
	env := decodeEnvelope(t, `{"errors":[],"serverErrors":[],"warnings":["w1",{"message":"w2","position":3}],"data":[7]}`)
	var got []string
	data, err := summarizeQuery(env, func(m Message) { got = append(got, m.Text) })
	require.NoError(t, err)
	assert.Equal(t, []any{float64(7)}, data)
	assert.Equal(t, []string{"w1", "w2"}, got)
}

func TestSummarizeQueryNilData(t *testing.T) {
	data, err := summarizeQuery(&QueryEnvelope{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{}, data)
}

func TestMessageRoundTrip(t *testing.T) {
	in := `["plain",{"message":"structured","line":2},42]`
	var ms []Message
	require.NoError(t, json.Unmarshal([]byte(in), &ms))
	assert.Equal(t, []string{"plain", "structured", "42"}, messageTexts(ms))

	out, err := json.Marshal(ms)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))

	out, err = json.Marshal(NewMessage("fresh"))
	require.NoError(t, err)
	assert.Equal(t, `"fresh"`, string(out))
}
