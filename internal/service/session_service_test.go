package service_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/cognisync/cognisync-api/internal/cryptox"
	"github.com/cognisync/cognisync-api/internal/domain"
	"github.com/cognisync/cognisync-api/internal/filestore"
	"github.com/cognisync/cognisync-api/internal/repository/postgres"
	"github.com/cognisync/cognisync-api/internal/service"
	"github.com/cognisync/cognisync-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionService(t *testing.T, testDB *testutil.TestDB, analyzer *testutil.FakeAnalyzer) (*service.Services, filestore.Store) {
	t.Helper()

	cfg := testutil.TestConfig(t)
	repos := postgres.NewRepositories(testDB.DB)

	cipher, err := cryptox.NewFieldCipher(cfg.EncryptionKey)
	require.NoError(t, err)

	files := filestore.NewLocal(cfg.UploadDir, cipher)

	if analyzer == nil {
		return service.NewServices(repos, files, cipher, nil, cfg), files
	}
	return service.NewServices(repos, files, cipher, analyzer, cfg), files
}

func validInput(audio []byte) service.CreateSessionInput {
	return service.CreateSessionInput{
		PatientCode:   "PT-001",
		TherapyType:   "CBT",
		SummaryFormat: "SOAP",
		FileName:      "session.mp3",
		ContentType:   "audio/mpeg",
		Audio:         audio,
	}
}

func TestSessionService_CreateAndGet(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	svcs, _ := newSessionService(t, testDB, &testutil.FakeAnalyzer{})
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	audio := bytes.Repeat([]byte{0xAB}, 2048)

	rec, err := svcs.Session.Create(ctx, user, validInput(audio))
	require.NoError(t, err)
	assert.NotEmpty(t, rec.SessionID)
	assert.Equal(t, "PT-001", rec.PatientCode)
	assert.NotEmpty(t, rec.PatientCodeEncrypted)
	assert.NotEqual(t, "PT-001", rec.PatientCodeEncrypted)
	assert.Equal(t, domain.SessionStatusCompleted, rec.Status)
	assert.NotEmpty(t, rec.Transcript)
	assert.NotNil(t, rec.RetentionUntil)

	got, err := svcs.Session.Get(ctx, user, rec.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "PT-001", got.PatientCode)
	assert.Equal(t, rec.FileSize, got.FileSize)

	// The stored audio survives the round trip byte for byte.
	data, _, err := svcs.Session.Download(ctx, user, rec.SessionID)
	require.NoError(t, err)
	assert.Equal(t, audio, data)
}

func TestSessionService_CreateValidation(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	svcs, _ := newSessionService(t, testDB, &testutil.FakeAnalyzer{})
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*service.CreateSessionInput)
		wantErr error
	}{
		{
			name:    "missing patient code",
			mutate:  func(in *service.CreateSessionInput) { in.PatientCode = "" },
			wantErr: domain.ErrMissingField,
		},
		{
			name:    "missing therapy type",
			mutate:  func(in *service.CreateSessionInput) { in.TherapyType = "" },
			wantErr: domain.ErrMissingField,
		},
		{
			name:    "disallowed extension",
			mutate:  func(in *service.CreateSessionInput) { in.FileName = "notes.txt" },
			wantErr: domain.ErrFileTypeNotAllowed,
		},
		{
			name:    "disallowed content type",
			mutate:  func(in *service.CreateSessionInput) { in.ContentType = "application/pdf" },
			wantErr: domain.ErrFileTypeNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clean slate for each case
			testDB.Truncate(t)
			user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

			input := validInput([]byte("audio"))
			tt.mutate(&input)

			_, err := svcs.Session.Create(ctx, user, input)
			assert.ErrorIs(t, err, tt.wantErr)

			// Nothing persisted after the rejection.
			recs, err := svcs.Session.List(ctx, user)
			require.NoError(t, err)
			assert.Empty(t, recs)
		})
	}
}

func TestSessionService_CreateOversizeLeavesNothing(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	cfg := testutil.TestConfig(t)
	cfg.MaxUploadBytes = 16

	repos := postgres.NewRepositories(testDB.DB)
	cipher, err := cryptox.NewFieldCipher(cfg.EncryptionKey)
	require.NoError(t, err)
	files := filestore.NewLocal(cfg.UploadDir, cipher)
	svcs := service.NewServices(repos, files, cipher, &testutil.FakeAnalyzer{}, cfg)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	_, err = svcs.Session.Create(ctx, user, validInput(bytes.Repeat([]byte{1}, 64)))
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)

	recs, err := svcs.Session.List(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestSessionService_AnalysisFailureStillCreates(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	analyzer := &testutil.FakeAnalyzer{Err: errors.New("upstream timeout")}
	svcs, _ := newSessionService(t, testDB, analyzer)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	rec, err := svcs.Session.Create(ctx, user, validInput([]byte("audio")))
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusAnalysisFailed, rec.Status)
	assert.Empty(t, rec.Transcript)
	assert.Equal(t, 1, analyzer.Calls)

	// The file is still downloadable.
	data, _, err := svcs.Session.Download(ctx, user, rec.SessionID)
	require.NoError(t, err)
	assert.Equal(t, []byte("audio"), data)
}

func TestSessionService_NoAnalyzerStaysPending(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	svcs, _ := newSessionService(t, testDB, nil)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	rec, err := svcs.Session.Create(ctx, user, validInput([]byte("audio")))
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusPending, rec.Status)
}

func TestSessionService_Ownership(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	svcs, _ := newSessionService(t, testDB, &testutil.FakeAnalyzer{})
	ctx := context.Background()

	owner, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	other, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	admin, _ := testutil.NewUserBuilder().AsAdmin().Build(t, testDB.DB)

	rec, err := svcs.Session.Create(ctx, owner, validInput([]byte("audio")))
	require.NoError(t, err)

	// Another clinician cannot see, download, export or delete it.
	_, err = svcs.Session.Get(ctx, other, rec.SessionID)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
	_, _, err = svcs.Session.Download(ctx, other, rec.SessionID)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
	_, err = svcs.Session.Export(ctx, other, rec.SessionID, "json")
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
	err = svcs.Session.Delete(ctx, other, rec.SessionID)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	// Their listing stays empty while the owner and the admin see it.
	recs, err := svcs.Session.List(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, recs)

	recs, err = svcs.Session.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	recs, err = svcs.Session.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, "PT-001", recs[0].PatientCode)

	// An admin can read any record.
	got, err := svcs.Session.Get(ctx, admin, rec.SessionID)
	require.NoError(t, err)
	assert.Equal(t, rec.SessionID, got.SessionID)
}

func TestSessionService_UnknownSession(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	svcs, _ := newSessionService(t, testDB, &testutil.FakeAnalyzer{})
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	_, err := svcs.Session.Get(ctx, user, "session_20300101_000000")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionService_Delete(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	svcs, files := newSessionService(t, testDB, &testutil.FakeAnalyzer{})
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	rec, err := svcs.Session.Create(ctx, user, validInput([]byte("audio")))
	require.NoError(t, err)

	require.NoError(t, svcs.Session.Delete(ctx, user, rec.SessionID))

	_, err = svcs.Session.Get(ctx, user, rec.SessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = files.Retrieve(ctx, rec.FilePath)
	assert.ErrorIs(t, err, domain.ErrFileNotFound)

	// Deleting again is not-found, not an error cascade.
	err = svcs.Session.Delete(ctx, user, rec.SessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionService_Export(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	svcs, _ := newSessionService(t, testDB, &testutil.FakeAnalyzer{})
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	rec, err := svcs.Session.Create(ctx, user, validInput([]byte("audio")))
	require.NoError(t, err)

	for _, format := range []string{"pdf", "docx", "markdown", "text", "json"} {
		t.Run(format, func(t *testing.T) {
			result, err := svcs.Session.Export(ctx, user, rec.SessionID, format)
			require.NoError(t, err)
			assert.NotEmpty(t, result.Data)
			assert.NotEmpty(t, result.ContentType)
			assert.Contains(t, result.FileName, rec.SessionID)
		})
	}

	_, err = svcs.Session.Export(ctx, user, rec.SessionID, "xlsx")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}
