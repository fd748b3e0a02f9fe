package jobs

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingHandler struct {
	jobs []Job
	err  error
}

func (h *recordingHandler) Handle(_ context.Context, job Job) error {
	h.jobs = append(h.jobs, job)
	return h.err
}

func newPushRouter(handler Handler, verifier PushVerifier) *gin.Engine {
	dispatcher := NewDispatcher()
	if handler != nil {
		dispatcher.Register(TypeProcessItem, handler)
	}
	router := gin.New()
	router.POST("/pubsub/push", NewPushHandler(dispatcher, verifier).Handle)
	return router
}

func pushBody(data string) []byte {
	return []byte(`{"message":{"data":"` + data + `","messageId":"m-1"},"subscription":"projects/p/subscriptions/worker"}`)
}

func encode(payload string) string {
	return base64.StdEncoding.EncodeToString([]byte(payload))
}

func doPush(router http.Handler, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/pubsub/push", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPushDispatchesKnownType(t *testing.T) {
	handler := &recordingHandler{}
	router := newPushRouter(handler, nil)

	rec := doPush(router, pushBody(encode(`{"type":"process_item","item_id":7,"requested_by":"u"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":true,"data":{"status":"ok"}}`, rec.Body.String())
	require.Len(t, handler.jobs, 1)
	require.Equal(t, "m-1", handler.jobs[0].MessageID)

	var payload ProcessItemPayload
	require.NoError(t, handler.jobs[0].Decode(&payload))
	require.EqualValues(t, 7, payload.ItemID)
}

func TestPushRedeliveryRunsHandlerAgain(t *testing.T) {
	handler := &recordingHandler{}
	router := newPushRouter(handler, nil)
	body := pushBody(encode(`{"type":"process_item","item_id":7}`))

	require.Equal(t, http.StatusOK, doPush(router, body).Code)
	require.Equal(t, http.StatusOK, doPush(router, body).Code)
	require.Len(t, handler.jobs, 2)
}

func TestPushMalformedEnvelopes(t *testing.T) {
	handler := &recordingHandler{}
	router := newPushRouter(handler, nil)

	cases := map[string][]byte{
		"not json":           []byte(`{`),
		"missing message":    []byte(`{"subscription":"s"}`),
		"missing data":       []byte(`{"message":{"messageId":"m"},"subscription":"s"}`),
		"empty data":         pushBody(""),
		"invalid base64":     pushBody("!!!not-base64!!!"),
		"payload not json":   pushBody(encode("hello")),
		"payload not object": pushBody(encode(`[1,2,3]`)),
		"payload null":       pushBody(encode(`null`)),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := doPush(router, body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
	require.Empty(t, handler.jobs)
}

func TestPushUnknownOrMissingTypeIsAcknowledged(t *testing.T) {
	handler := &recordingHandler{}
	router := newPushRouter(handler, nil)

	for _, payload := range []string{`{"type":"unknown_type"}`, `{"item_id":7}`, `{"type":42}`} {
		rec := doPush(router, pushBody(encode(payload)))
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"success":true,"data":{"status":"ok"}}`, rec.Body.String())
	}
	require.Empty(t, handler.jobs)
}

func TestPushHandlerFailureRequestsRedelivery(t *testing.T) {
	router := newPushRouter(&recordingHandler{err: errors.New("database is locked")}, nil)

	rec := doPush(router, pushBody(encode(`{"type":"process_item","item_id":7}`)))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "locked")
}

func TestPushPermanentFailureIsAcknowledged(t *testing.T) {
	router := newPushRouter(&recordingHandler{err: Permanent(errors.New("item 7 not found"))}, nil)

	rec := doPush(router, pushBody(encode(`{"type":"process_item","item_id":7}`)))
	require.Equal(t, http.StatusOK, rec.Code)
}

type denyVerifier struct{}

func (denyVerifier) VerifyPush(context.Context, *http.Request) error {
	return errors.New("no token")
}

func TestPushVerifierRejection(t *testing.T) {
	handler := &recordingHandler{}
	router := newPushRouter(handler, denyVerifier{})

	rec := doPush(router, pushBody(encode(`{"type":"process_item","item_id":7}`)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, handler.jobs)
}
