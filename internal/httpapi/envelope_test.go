package httpapi

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bdp-project/bdp/internal/bdperr"
)

func TestWriteDataWrapsPayloadInDataEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeData(rec, 200, map[string]string{"ok": "yes"}, nil)

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Nil(t, body.Error)
	require.Equal(t, "yes", body.Data.(map[string]any)["ok"])
}

func TestWriteErrorMapsKindToHTTPStatusAndBody(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, bdperr.New(bdperr.KindNotFound, "no such organization"))

	require.Equal(t, 404, rec.Code)

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	require.Equal(t, "not_found", body.Error.Kind)
	require.Equal(t, "no such organization", body.Error.Message)
}

func TestWriteErrorOnPlainErrorFallsBackToInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("boom"))

	require.Equal(t, 500, rec.Code)

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "internal", body.Error.Kind)
}

func TestWriteErrorIncludesFieldInDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, bdperr.New(bdperr.KindValidation, "bad input").WithField("slug"))

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "slug", body.Error.Details["field"])
}
