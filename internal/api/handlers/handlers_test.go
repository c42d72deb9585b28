package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/cognisync/cognisync-api/internal/api/handlers"
	"github.com/cognisync/cognisync-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadSession(t *testing.T, ts *testutil.TestServer, token string, fileName string, audio []byte) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("patient_code", "PT-042"))
	require.NoError(t, mw.WriteField("therapy_type", "CBT"))
	require.NoError(t, mw.WriteField("summary_format", "SOAP"))

	part, err := mw.CreateFormFile("audio_file", fileName)
	require.NoError(t, err)
	_, err = part.Write(audio)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, ts.APIURL("/sessions/"), &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func authedGet(t *testing.T, ts *testutil.TestServer, token, path string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, ts.APIURL(path), nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestSessionEndpoints(t *testing.T) {
	ts := testutil.NewTestServer(t, &testutil.FakeAnalyzer{})

	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	audio := []byte("fake mp3 payload")

	resp := uploadSession(t, ts, token, "visit.mp3", audio)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created handlers.SessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.NotEmpty(t, created.SessionID)
	assert.Equal(t, "PT-042", created.PatientCode)
	assert.Equal(t, "completed", created.Status)

	// List shows it.
	resp = authedGet(t, ts, token, "/sessions/")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []handlers.SessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)

	// Download returns the original bytes.
	resp = authedGet(t, ts, token, fmt.Sprintf("/sessions/%s/download", created.SessionID))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, audio, body)

	// Export in every supported format.
	for _, format := range []string{"pdf", "docx", "markdown", "text", "json"} {
		resp = authedGet(t, ts, token, fmt.Sprintf("/sessions/%s/export/%s", created.SessionID, format))
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, "format %s", format)
	}

	resp = authedGet(t, ts, token, fmt.Sprintf("/sessions/%s/export/xlsx", created.SessionID))
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionEndpointsRejectBadUploads(t *testing.T) {
	ts := testutil.NewTestServer(t, &testutil.FakeAnalyzer{})

	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	resp := uploadSession(t, ts, token, "notes.txt", []byte("not audio"))
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionEndpointsHideOtherUsersRecords(t *testing.T) {
	ts := testutil.NewTestServer(t, &testutil.FakeAnalyzer{})

	_, ownerToken := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	_, otherToken := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	resp := uploadSession(t, ts, ownerToken, "visit.mp3", []byte("audio"))
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created handlers.SessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	// Another clinician gets 404, not 403: existence is not leaked.
	resp = authedGet(t, ts, otherToken, "/sessions/"+created.SessionID)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = authedGet(t, ts, otherToken, "/sessions/does_not_exist")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEndpointsRequireAuth(t *testing.T) {
	ts := testutil.NewTestServer(t, nil)

	resp, err := http.Get(ts.APIURL("/sessions/"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(ts.APIURL("/admin/audit"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminEndpoints(t *testing.T) {
	ts := testutil.NewTestServer(t, &testutil.FakeAnalyzer{})

	_, adminToken := testutil.NewUserBuilder().AsAdmin().BuildAndAuthenticate(t, ts)
	_, clinicianToken := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	// Clinicians are shut out of the admin surface.
	resp := authedGet(t, ts, clinicianToken, "/admin/audit")
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The logins above are already on the trail.
	resp = authedGet(t, ts, adminToken, "/admin/audit")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []handlers.AuditEntryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	assert.NotEmpty(t, entries)

	resp = authedGet(t, ts, adminToken, "/admin/retention/stats")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
