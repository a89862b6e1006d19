package upload_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/ledgerdesk/internal/accounts"
	"github.com/dvloznov/ledgerdesk/internal/api"
	"github.com/dvloznov/ledgerdesk/internal/api/apitest"
	"github.com/dvloznov/ledgerdesk/internal/domain"
	"github.com/dvloznov/ledgerdesk/internal/events"
	"github.com/dvloznov/ledgerdesk/internal/upload"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const companyID = "co-1"

type recordingSink struct {
	mu       sync.Mutex
	calls    []string
	reports  []int
	message  string
	onFinish func()
}

func (s *recordingSink) Indeterminate() { s.add("indeterminate") }
func (s *recordingSink) Report(p int) {
	s.mu.Lock()
	s.reports = append(s.reports, p)
	s.mu.Unlock()
	s.add("report")
}
func (s *recordingSink) Complete() {
	s.add("complete")
	if s.onFinish != nil {
		s.onFinish()
	}
}
func (s *recordingSink) Failed(msg string) {
	s.mu.Lock()
	s.message = msg
	s.mu.Unlock()
	s.add("failed")
}

func (s *recordingSink) add(c string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
}

func (s *recordingSink) snapshot() ([]string, []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...), append([]int(nil), s.reports...)
}

type recordingNav struct {
	mu     sync.Mutex
	routes []string
}

func (n *recordingNav) Navigate(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

type fixture struct {
	srv      *apitest.Server
	client   *api.Client
	registry *accounts.Registry
	sink     *recordingSink
	nav      *recordingNav
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)
	client, err := api.NewClient(srv.URL)
	require.NoError(t, err)
	return &fixture{
		srv:      srv,
		client:   client,
		registry: accounts.NewRegistry(accounts.NewHTTPService(client, domain.AccountTypeBank), companyID, zerolog.Nop()),
		sink:     &recordingSink{},
		nav:      &recordingNav{},
	}
}

func (f *fixture) orchestrator(src upload.EventSource) *upload.Orchestrator {
	return upload.NewOrchestrator(upload.Deps{
		Accounts: f.registry,
		Loader:   upload.NewLoader(nil),
		Backend:  upload.NewHTTPBackend(f.client),
		Events:   src,
	}, companyID, zerolog.Nop(),
		upload.WithProgress(f.sink),
		upload.WithNavigator(f.nav),
		upload.WithSuccessDelay(10*time.Millisecond),
	)
}

func writeStatement(t *testing.T, name string, size int) string {
	t.Helper()
	data := bytes.Repeat([]byte{' '}, size)
	copy(data, "%PDF-1.4\n")
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func callIndex(calls []apitest.Call, method, path string) int {
	for i, c := range calls {
		if c.Method == method && c.Path == path {
			return i
		}
	}
	return -1
}

func TestRun_NewChaseCheckingAccount(t *testing.T) {
	f := newFixture(t)
	const size = 2 << 20
	path := writeStatement(t, "statement.pdf", size)
	period, err := domain.ParsePeriod("2025-01-01..2025-01-31")
	require.NoError(t, err)

	sess := &upload.Session{
		Files:       []string{path},
		Target:      upload.NewAccountTarget,
		AccountType: domain.AccountTypeBank,
		NewAccount:  domain.AccountInput{Name: "Chase Checking", Institution: "Chase", LastFour: "4821"},
		Period:      period,
	}

	res, err := f.orchestrator(nil).Run(context.Background(), sess)
	require.NoError(t, err)

	calls := f.srv.Calls()
	require.Len(t, f.srv.CallsTo(http.MethodPost, api.PathAccounts), 1)
	uploads := f.srv.CallsTo(http.MethodPost, api.PathUpload)
	require.Len(t, uploads, 1)
	require.Less(t, callIndex(calls, http.MethodPost, api.PathAccounts), callIndex(calls, http.MethodPost, api.PathUpload))

	var body apitest.UploadRequest
	require.NoError(t, json.Unmarshal(uploads[0].Body, &body))
	require.Equal(t, "statement.pdf", body.FileName)
	require.Equal(t, domain.AccountTypeBank, body.AccountType)
	require.Equal(t, res.AccountID, body.AccountID)
	require.Equal(t, "application/pdf", upload.MediaType(body.FileData))
	require.Equal(t, *period, *body.StatementPeriod)
	require.Equal(t, res.RequestID, uploads[0].RequestID)
	require.Equal(t, size, f.srv.UploadedBytes(res.Statement.ID))

	created := f.srv.Accounts(domain.AccountTypeBank)
	require.Len(t, created, 1)
	require.Equal(t, "Chase Checking", created[0].Name)
	require.Equal(t, created[0].ID, f.registry.SelectedID())

	require.True(t, res.Navigated)
	require.Equal(t, []string{upload.RouteStatements}, f.nav.routes)
	require.Empty(t, sess.Files)

	progress, _ := f.sink.snapshot()
	require.Equal(t, []string{"indeterminate", "complete"}, progress)
}

func TestRun_AccountCreateFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.srv.Fail(http.MethodPost, api.PathAccounts, http.StatusInternalServerError, "Database unavailable")
	path := writeStatement(t, "statement.pdf", 1024)

	sess := &upload.Session{
		Files:       []string{path},
		Target:      upload.NewAccountTarget,
		AccountType: domain.AccountTypeBank,
		NewAccount:  domain.AccountInput{Name: "Chase Checking"},
	}
	_, err := f.orchestrator(nil).Run(context.Background(), sess)
	require.Error(t, err)

	require.Empty(t, f.srv.CallsTo(http.MethodPost, api.PathUpload))
	require.Equal(t, []string{path}, sess.Files)
	require.Equal(t, upload.OutcomeFailed, sess.Outcome)
	require.Equal(t, "Database unavailable", sess.Message)
	require.Equal(t, "Database unavailable", f.sink.message)
	require.Empty(t, f.nav.routes)
}

func TestRun_UploadFailureKeepsSelectionAndCreatedAccount(t *testing.T) {
	f := newFixture(t)
	f.srv.Fail(http.MethodPost, api.PathUpload, http.StatusRequestEntityTooLarge, "File is too large")
	path := writeStatement(t, "statement.pdf", 1024)

	sess := &upload.Session{
		Files:       []string{path},
		Target:      upload.NewAccountTarget,
		AccountType: domain.AccountTypeBank,
		NewAccount:  domain.AccountInput{Name: "Chase Checking"},
	}
	orch := f.orchestrator(nil)
	_, err := orch.Run(context.Background(), sess)
	require.Error(t, err)
	require.Equal(t, "File is too large", api.UserMessage(err, ""))
	require.Equal(t, []string{path}, sess.Files)
	require.NotEqual(t, upload.NewAccountTarget, sess.Target)

	f.srv.ClearFailures()
	_, err = orch.Run(context.Background(), sess)
	require.NoError(t, err)
	require.Len(t, f.srv.CallsTo(http.MethodPost, api.PathAccounts), 1)
	require.Len(t, f.srv.CallsTo(http.MethodPost, api.PathUpload), 2)
}

// typelessCreator returns an existing account without echoing its type.
type typelessCreator struct {
	id string
}

func (c typelessCreator) Create(ctx context.Context, in domain.AccountInput) (*domain.Account, error) {
	return &domain.Account{ID: c.id, CompanyID: in.CompanyID, Name: in.Name}, nil
}

func TestRun_CreatedAccountWithoutTypeKeepsSessionType(t *testing.T) {
	f := newFixture(t)
	acc := f.srv.SeedAccount(domain.Account{CompanyID: companyID, Name: "Chase Checking", Type: domain.AccountTypeBank})
	path := writeStatement(t, "statement.pdf", 256)

	orch := upload.NewOrchestrator(upload.Deps{
		Accounts: typelessCreator{id: acc.ID},
		Loader:   upload.NewLoader(nil),
		Backend:  upload.NewHTTPBackend(f.client),
	}, companyID, zerolog.Nop(), upload.WithProgress(f.sink), upload.WithSuccessDelay(0))

	sess := &upload.Session{
		Files:       []string{path},
		Target:      upload.NewAccountTarget,
		AccountType: domain.AccountTypeBank,
		NewAccount:  domain.AccountInput{Name: "Chase Checking"},
	}
	_, err := orch.Run(context.Background(), sess)
	require.NoError(t, err)

	uploads := f.srv.CallsTo(http.MethodPost, api.PathUpload)
	require.Len(t, uploads, 1)
	var body apitest.UploadRequest
	require.NoError(t, json.Unmarshal(uploads[0].Body, &body))
	require.Equal(t, domain.AccountTypeBank, body.AccountType)
	require.Equal(t, acc.ID, body.AccountID)
	require.Equal(t, domain.AccountTypeBank, sess.AccountType)
}

func TestRun_ReadFailureSendsNothing(t *testing.T) {
	f := newFixture(t)
	acc := f.srv.SeedAccount(domain.Account{CompanyID: companyID, Name: "Ops", Type: domain.AccountTypeBank})

	sess := &upload.Session{
		Files:       []string{filepath.Join(t.TempDir(), "gone.pdf")},
		Target:      acc.ID,
		AccountType: domain.AccountTypeBank,
	}
	_, err := f.orchestrator(nil).Run(context.Background(), sess)
	require.True(t, api.IsKind(err, api.KindValidation))
	require.Empty(t, f.srv.Calls())
	require.Equal(t, upload.OutcomeFailed, sess.Outcome)
}

func TestRun_PreconditionsMakeNoCalls(t *testing.T) {
	path := writeStatement(t, "a.pdf", 64)

	tests := []struct {
		name string
		sess *upload.Session
		kind api.Kind
	}{
		{"no files", &upload.Session{Target: "a1", AccountType: domain.AccountTypeBank}, api.KindValidation},
		{"no target", &upload.Session{Files: []string{path}, AccountType: domain.AccountTypeBank}, api.KindUnauthorized},
		{"no account type", &upload.Session{Files: []string{path}, Target: "a1"}, api.KindValidation},
		{"inverted period", &upload.Session{
			Files: []string{path}, Target: "a1", AccountType: domain.AccountTypeBank,
			Period: &domain.Period{Start: mustDate(t, "2025-02-01"), End: mustDate(t, "2025-01-01")},
		}, api.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.orchestrator(nil).Run(context.Background(), tt.sess)
			require.True(t, api.IsKind(err, tt.kind), "got %v", err)
			require.Empty(t, f.srv.Calls())
		})
	}
}

func TestRun_OnlyFirstFileSubmitted(t *testing.T) {
	f := newFixture(t)
	acc := f.srv.SeedAccount(domain.Account{CompanyID: companyID, Name: "Ops", Type: domain.AccountTypeBank})
	first := writeStatement(t, "jan.pdf", 128)
	second := writeStatement(t, "feb.pdf", 128)

	res, err := f.orchestrator(nil).Run(context.Background(), &upload.Session{
		Files:       []string{first, second},
		Target:      acc.ID,
		AccountType: domain.AccountTypeBank,
	})
	require.NoError(t, err)
	require.Equal(t, []string{second}, res.Ignored)
	require.Len(t, f.srv.CallsTo(http.MethodPost, api.PathUpload), 1)
	require.Equal(t, "jan.pdf", res.Statement.FileName)
}

func TestRun_ReportsBackendProgress(t *testing.T) {
	f := newFixture(t)
	acc := f.srv.SeedAccount(domain.Account{CompanyID: companyID, Name: "Ops", Type: domain.AccountTypeBank})
	path := writeStatement(t, "jan.pdf", 256)

	f.srv.OnUpload = func(req apitest.UploadRequest, requestID string) {
		waitFor(func() bool { return f.srv.Subscribers(companyID) > 0 })
		for _, p := range []int{30, 20, 60, 100} {
			f.srv.Publish(companyID, events.Event{Type: events.TypeUploadProgress, CompanyID: companyID, RequestID: requestID, Progress: p})
		}
		f.srv.Publish(companyID, events.Event{Type: events.TypeUploadProgress, CompanyID: companyID, RequestID: "someone-else", Progress: 90})
		waitFor(func() bool { _, r := f.sink.snapshot(); return len(r) == 2 })
	}

	base, err := url.Parse(f.srv.URL)
	require.NoError(t, err)
	src := events.NewSubscriber(events.URLFor(base), "", zerolog.Nop())

	_, err = f.orchestrator(src).Run(context.Background(), &upload.Session{
		Files: []string{path}, Target: acc.ID, AccountType: domain.AccountTypeBank,
	})
	require.NoError(t, err)

	calls, reports := f.sink.snapshot()
	require.Equal(t, []int{30, 60}, reports)
	require.Equal(t, "indeterminate", calls[0])
	require.Equal(t, "complete", calls[len(calls)-1])
}

func TestRun_CancelDuringSuccessDelaySkipsNavigation(t *testing.T) {
	f := newFixture(t)
	acc := f.srv.SeedAccount(domain.Account{CompanyID: companyID, Name: "Ops", Type: domain.AccountTypeBank})
	path := writeStatement(t, "jan.pdf", 64)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.sink.onFinish = cancel

	orch := upload.NewOrchestrator(upload.Deps{
		Backend: upload.NewHTTPBackend(f.client),
	}, companyID, zerolog.Nop(),
		upload.WithProgress(f.sink),
		upload.WithNavigator(f.nav),
		upload.WithSuccessDelay(time.Hour),
	)
	sess := &upload.Session{Files: []string{path}, Target: acc.ID, AccountType: domain.AccountTypeBank}

	res, err := orch.Run(ctx, sess)
	require.NoError(t, err)
	require.False(t, res.Navigated)
	require.Empty(t, f.nav.routes)
	require.Equal(t, upload.OutcomeSucceeded, sess.Outcome)
}

func waitFor(cond func() bool) {
	deadline := time.Now().Add(2 * time.Second)
	for !cond() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
}

func mustDate(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	require.NoError(t, err)
	return d
}
