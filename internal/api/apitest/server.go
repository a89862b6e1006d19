// Package apitest runs an in-memory stand-in for the bookkeeping REST API so that
// services and commands can be exercised end to end in tests.
package apitest

import (
	"bytes"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dvloznov/ledgerdesk/internal/api"
	"github.com/dvloznov/ledgerdesk/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Call records one request the server received.
type Call struct {
	Method    string
	Path      string
	Query     string
	Body      []byte
	RequestID string
}

// UploadRequest is the decoded body of POST /documents/upload.
type UploadRequest struct {
	FileName        string             `json:"fileName"`
	FileData        string             `json:"fileData"`
	AccountID       string             `json:"accountId"`
	AccountType     domain.AccountType `json:"accountType"`
	StatementPeriod *domain.Period     `json:"statementPeriod,omitempty"`
}

type failure struct {
	status  int
	message string
}

// Server is the fake backend.
type Server struct {
	*httptest.Server

	// VerificationCode is the code VerifyEmail accepts.
	VerificationCode string

	// OnUpload runs after an upload body is decoded and before the response is written.
	OnUpload func(req UploadRequest, requestID string)

	mu          sync.Mutex
	calls       []Call
	failures    map[string]failure
	accounts    map[string]*domain.Account
	accountSeq  map[string]int
	statements  map[string]*domain.Statement
	uploads     map[string]int // statement id -> decoded byte count
	members     map[string]*domain.Member
	invitations map[string]*domain.Invitation
	bills       map[string]*domain.Bill
	users       map[string]bool // email -> verified
	linkTokens  map[string]string

	upgrader websocket.Upgrader
	subs     map[*websocket.Conn]string // conn -> company id
}

// NewServer starts a fake backend. Close it with t.Cleanup(srv.Close).
func NewServer() *Server {
	s := &Server{
		VerificationCode: "123456",
		failures:         make(map[string]failure),
		accounts:         make(map[string]*domain.Account),
		accountSeq:       make(map[string]int),
		statements:       make(map[string]*domain.Statement),
		uploads:          make(map[string]int),
		members:          make(map[string]*domain.Member),
		invitations:      make(map[string]*domain.Invitation),
		bills:            make(map[string]*domain.Bill),
		users:            make(map[string]bool),
		linkTokens:       make(map[string]string),
		subs:             make(map[*websocket.Conn]string),
	}

	mux := http.NewServeMux()
	s.routeAccounts(mux, api.PathAccounts, domain.AccountTypeBank)
	s.routeAccounts(mux, api.PathCreditCards, domain.AccountTypeCreditCard)

	mux.HandleFunc("GET "+api.PathDocuments, s.listStatements)
	mux.HandleFunc("POST "+api.PathUpload, s.uploadStatement)
	mux.HandleFunc("DELETE "+api.PathDocuments+"/{id}", s.deleteStatement)

	mux.HandleFunc("GET /companies/{cid}/members", s.listMembers)
	mux.HandleFunc("PUT /companies/{cid}/members/{mid}", s.updateMember)
	mux.HandleFunc("DELETE /companies/{cid}/members/{mid}", s.deleteMember)
	mux.HandleFunc("GET /companies/{cid}/invitations", s.listInvitations)
	mux.HandleFunc("POST /companies/{cid}/invitations", s.createInvitation)
	mux.HandleFunc("DELETE /companies/{cid}/invitations/{iid}", s.revokeInvitation)
	mux.HandleFunc("POST /invitations/{token}/{action}", s.answerInvitation)

	mux.HandleFunc("POST "+api.PathLinkToken, s.createLinkToken)
	mux.HandleFunc("POST "+api.PathLinkExchange, s.exchangePublicToken)
	mux.HandleFunc("POST "+api.PathLinkSync, s.syncItem)

	mux.HandleFunc("POST "+api.PathRegister, s.register)
	mux.HandleFunc("POST "+api.PathVerifyEmail, s.verifyEmail)
	mux.HandleFunc("POST "+api.PathResendCode, s.resendCode)

	mux.HandleFunc("GET "+api.PathBills, s.listBills)
	mux.HandleFunc("GET "+api.PathBills+"/{id}", s.getBill)
	mux.HandleFunc("PUT "+api.PathBills+"/{id}", s.putBill)

	mux.HandleFunc("GET "+api.PathEvents, s.events)

	s.Server = httptest.NewServer(s.record(mux))
	return s
}

// Fail makes every request matching method and exact path answer success=false.
func (s *Server) Fail(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, message: message}
}

// ClearFailures removes all rules installed by Fail.
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]failure)
}

// Calls returns every request received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsTo returns the requests matching method and path.
func (s *Server) CallsTo(method, path string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// UploadedBytes returns the decoded size of the file behind a statement.
func (s *Server) UploadedBytes(statementID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads[statementID]
}

// SeedAccount stores an account, assigning an id when missing.
func (s *Server) SeedAccount(a domain.Account) domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.UpdatedAt = a.CreatedAt
	if _, ok := s.accountSeq[a.ID]; !ok {
		s.accountSeq[a.ID] = len(s.accountSeq)
	}
	s.accounts[a.ID] = &a
	return a
}

// SeedStatement stores a statement, assigning an id when missing.
func (s *Server) SeedStatement(st domain.Statement) domain.Statement {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	s.statements[st.ID] = &st
	return st
}

// SeedMember stores a member, assigning an id when missing.
func (s *Server) SeedMember(m domain.Member) domain.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = domain.MemberActive
	}
	s.members[m.ID] = &m
	return m
}

// SeedBill stores a bill, assigning an id when missing.
func (s *Server) SeedBill(b domain.Bill) domain.Bill {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	s.bills[b.ID] = &b
	return b
}

// Accounts returns the stored accounts of a type, oldest first.
func (s *Server) Accounts(t domain.AccountType) []domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Account
	for _, a := range s.accounts {
		if a.Type == t {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.accountSeq[out[i].ID] < s.accountSeq[out[j].ID] })
	return out
}

// InvitationToken returns the token of the invitation sent to email.
func (s *Server) InvitationToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.invitations {
		if inv.Email == email {
			return inv.Token
		}
	}
	return ""
}

// Publish sends v as JSON to every event subscriber of companyID.
func (s *Server) Publish(companyID string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn, cid := range s.subs {
		if cid != companyID {
			continue
		}
		if err := conn.WriteJSON(v); err != nil {
			conn.Close()
			delete(s.subs, conn)
		}
	}
}

// Subscribers returns how many event connections are open for companyID.
func (s *Server) Subscribers(companyID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, cid := range s.subs {
		if cid == companyID {
			n++
		}
	}
	return n
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil && r.Method != http.MethodGet {
			body, _ = readAll(r)
		}

		s.mu.Lock()
		s.calls = append(s.calls, Call{
			Method:    r.Method,
			Path:      r.URL.Path,
			Query:     r.URL.RawQuery,
			Body:      body,
			RequestID: r.Header.Get(api.RequestIDHeader),
		})
		f, failing := s.failures[r.Method+" "+r.URL.Path]
		s.mu.Unlock()

		if failing {
			writeError(w, f.status, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) routeAccounts(mux *http.ServeMux, base string, t domain.AccountType) {
	mux.HandleFunc("GET "+base, func(w http.ResponseWriter, r *http.Request) {
		companyID := r.URL.Query().Get("companyId")
		var out []domain.Account
		for _, a := range s.Accounts(t) {
			if companyID == "" || a.CompanyID == companyID {
				out = append(out, a)
			}
		}
		if out == nil {
			out = []domain.Account{}
		}
		writeData(w, http.StatusOK, out, nil)
	})

	mux.HandleFunc("POST "+base, func(w http.ResponseWriter, r *http.Request) {
		var in domain.AccountInput
		if !decodeBody(w, r, &in) {
			return
		}
		if in.Name == "" {
			writeError(w, http.StatusBadRequest, "Account name is required")
			return
		}
		now := time.Now()
		a := s.SeedAccount(domain.Account{
			CompanyID:   in.CompanyID,
			Name:        in.Name,
			Institution: in.Institution,
			LastFour:    in.LastFour,
			Type:        t,
			CreatedAt:   now,
		})
		writeData(w, http.StatusCreated, a, nil)
	})

	mux.HandleFunc("PUT "+base+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		var in domain.AccountInput
		if !decodeBody(w, r, &in) {
			return
		}
		s.mu.Lock()
		a, ok := s.accounts[r.PathValue("id")]
		if ok {
			a.Name = in.Name
			a.Institution = in.Institution
			a.LastFour = in.LastFour
			a.UpdatedAt = time.Now()
		}
		var out domain.Account
		if ok {
			out = *a
		}
		s.mu.Unlock()
		if !ok {
			writeError(w, http.StatusNotFound, "Account not found")
			return
		}
		writeData(w, http.StatusOK, out, nil)
	})

	mux.HandleFunc("DELETE "+base+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		s.mu.Lock()
		_, ok := s.accounts[id]
		if ok {
			delete(s.accounts, id)
			for sid, st := range s.statements {
				if st.AccountID == id {
					delete(s.statements, sid)
				}
			}
		}
		s.mu.Unlock()
		if !ok {
			writeError(w, http.StatusNotFound, "Account not found")
			return
		}
		writeData(w, http.StatusOK, nil, nil)
	})
}

func (s *Server) listStatements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	accountID := q.Get("accountId")
	companyID := q.Get("companyId")

	s.mu.Lock()
	var out []domain.Statement
	for _, st := range s.statements {
		if accountID != "" && st.AccountID != accountID {
			continue
		}
		if companyID != "" {
			if a, ok := s.accounts[st.AccountID]; ok && a.CompanyID != companyID {
				continue
			}
		}
		out = append(out, *st)
	}
	s.mu.Unlock()

	// Newest first, the way the backend pages them.
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	items, pag := paginate(out, q)
	writeData(w, http.StatusOK, items, pag)
}

func (s *Server) uploadStatement(w http.ResponseWriter, r *http.Request) {
	var req UploadRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.FileName == "" || req.AccountID == "" {
		writeError(w, http.StatusBadRequest, "fileName and accountId are required")
		return
	}
	comma := strings.Index(req.FileData, ",")
	if !strings.HasPrefix(req.FileData, "data:") || comma < 0 || !strings.Contains(req.FileData[:comma], ";base64") {
		writeError(w, http.StatusBadRequest, "fileData must be a base64 data URI")
		return
	}
	raw, err := base64.StdEncoding.DecodeString(req.FileData[comma+1:])
	if err != nil {
		writeError(w, http.StatusBadRequest, "fileData is not valid base64")
		return
	}

	s.mu.Lock()
	_, known := s.accounts[req.AccountID]
	s.mu.Unlock()
	if !known {
		writeError(w, http.StatusNotFound, "Account not found")
		return
	}

	if s.OnUpload != nil {
		s.OnUpload(req, r.Header.Get(api.RequestIDHeader))
	}

	st := s.SeedStatement(domain.Statement{
		AccountID:  req.AccountID,
		FileName:   req.FileName,
		Period:     req.StatementPeriod,
		Status:     domain.StatementPending,
		UploadedAt: time.Now(),
	})
	s.mu.Lock()
	s.uploads[st.ID] = len(raw)
	s.mu.Unlock()

	writeData(w, http.StatusCreated, st, nil)
}

func (s *Server) deleteStatement(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	_, ok := s.statements[id]
	delete(s.statements, id)
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Statement not found")
		return
	}
	writeData(w, http.StatusOK, nil, nil)
}

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	cid := r.PathValue("cid")
	s.mu.Lock()
	var out []domain.Member
	for _, m := range s.members {
		if m.CompanyID == cid {
			out = append(out, *m)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	items, pag := paginate(out, r.URL.Query())
	writeData(w, http.StatusOK, items, pag)
}

type memberUpdate struct {
	Role        domain.Role        `json:"role"`
	Permissions domain.Permissions `json:"permissions"`
}

func (s *Server) updateMember(w http.ResponseWriter, r *http.Request) {
	var in memberUpdate
	if !decodeBody(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[r.PathValue("mid")]
	if !ok || m.CompanyID != r.PathValue("cid") {
		writeError(w, http.StatusNotFound, "Member not found")
		return
	}
	if m.Role == domain.RoleOwner || in.Role == domain.RoleOwner {
		writeError(w, http.StatusForbidden, "The owner role cannot be changed")
		return
	}
	m.Role = in.Role
	m.Permissions = in.Permissions
	m.UpdatedAt = time.Now()
	writeData(w, http.StatusOK, *m, nil)
}

func (s *Server) deleteMember(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[r.PathValue("mid")]
	if !ok || m.CompanyID != r.PathValue("cid") {
		writeError(w, http.StatusNotFound, "Member not found")
		return
	}
	if m.Role == domain.RoleOwner {
		writeError(w, http.StatusForbidden, "The owner cannot be removed")
		return
	}
	delete(s.members, m.ID)
	writeData(w, http.StatusOK, nil, nil)
}

func (s *Server) listInvitations(w http.ResponseWriter, r *http.Request) {
	cid := r.PathValue("cid")
	s.mu.Lock()
	var out []domain.Invitation
	for _, inv := range s.invitations {
		if inv.CompanyID == cid {
			out = append(out, *inv)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	writeData(w, http.StatusOK, out, nil)
}

func (s *Server) createInvitation(w http.ResponseWriter, r *http.Request) {
	var in domain.Invitation
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}
	if in.Role == domain.RoleOwner {
		writeError(w, http.StatusForbidden, "The owner role cannot be assigned")
		return
	}
	now := time.Now()
	inv := domain.Invitation{
		ID:          uuid.NewString(),
		CompanyID:   r.PathValue("cid"),
		Email:       in.Email,
		Role:        in.Role,
		Permissions: in.Permissions,
		Token:       uuid.NewString(),
		ExpiresAt:   now.Add(7 * 24 * time.Hour),
		CreatedAt:   now,
	}
	s.mu.Lock()
	s.invitations[inv.ID] = &inv
	s.members[inv.ID] = &domain.Member{
		ID:          inv.ID,
		CompanyID:   inv.CompanyID,
		Email:       inv.Email,
		Role:        inv.Role,
		Permissions: inv.Permissions,
		Status:      domain.MemberInvited,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.mu.Unlock()

	resp := inv
	resp.Token = ""
	writeData(w, http.StatusCreated, resp, nil)
}

func (s *Server) revokeInvitation(w http.ResponseWriter, r *http.Request) {
	iid := r.PathValue("iid")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invitations[iid]; !ok {
		writeError(w, http.StatusNotFound, "Invitation not found")
		return
	}
	delete(s.invitations, iid)
	if m, ok := s.members[iid]; ok && m.Status == domain.MemberInvited {
		delete(s.members, iid)
	}
	writeData(w, http.StatusOK, nil, nil)
}

func (s *Server) answerInvitation(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	action := r.PathValue("action")

	s.mu.Lock()
	defer s.mu.Unlock()
	var inv *domain.Invitation
	for _, candidate := range s.invitations {
		if candidate.Token == token {
			inv = candidate
			break
		}
	}
	if inv == nil {
		writeError(w, http.StatusNotFound, "Invitation not found or expired")
		return
	}

	switch action {
	case "accept":
		m := s.members[inv.ID]
		m.Status = domain.MemberActive
		m.UpdatedAt = time.Now()
		delete(s.invitations, inv.ID)
		writeData(w, http.StatusOK, *m, nil)
	case "decline":
		delete(s.invitations, inv.ID)
		delete(s.members, inv.ID)
		writeData(w, http.StatusOK, nil, nil)
	default:
		writeError(w, http.StatusNotFound, "Unknown invitation action")
	}
}

func (s *Server) createLinkToken(w http.ResponseWriter, r *http.Request) {
	var in struct {
		CompanyID string `json:"companyId"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	token := "link-sandbox-" + uuid.NewString()
	s.mu.Lock()
	s.linkTokens[token] = in.CompanyID
	s.mu.Unlock()
	writeData(w, http.StatusOK, map[string]any{
		"linkToken":  token,
		"expiration": time.Now().Add(4 * time.Hour),
	}, nil)
}

type linkedAccount struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Mask    string `json:"mask"`
	Type    string `json:"type"`
	Subtype string `json:"subtype"`
}

func (s *Server) exchangePublicToken(w http.ResponseWriter, r *http.Request) {
	var in struct {
		CompanyID   string `json:"companyId"`
		PublicToken string `json:"publicToken"`
		Metadata    struct {
			Institution struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"institution"`
			Accounts []linkedAccount `json:"accounts"`
		} `json:"metadata"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if !strings.HasPrefix(in.PublicToken, "public-") {
		writeError(w, http.StatusBadRequest, "Invalid public token")
		return
	}

	itemID := "item-" + uuid.NewString()
	out := []domain.Account{}
	for _, la := range in.Metadata.Accounts {
		t := domain.AccountTypeBank
		if la.Type == "credit" {
			t = domain.AccountTypeCreditCard
		}
		out = append(out, s.SeedAccount(domain.Account{
			CompanyID:   in.CompanyID,
			Name:        la.Name,
			Institution: in.Metadata.Institution.Name,
			LastFour:    la.Mask,
			Type:        t,
			LinkRef:     &domain.LinkRef{ItemID: itemID, AccountID: la.ID},
			CreatedAt:   time.Now(),
		}))
	}
	writeData(w, http.StatusOK, map[string]any{"itemId": itemID, "accounts": out}, nil)
}

func (s *Server) syncItem(w http.ResponseWriter, r *http.Request) {
	var in struct {
		CompanyID string `json:"companyId"`
		ItemID    string `json:"itemId"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if in.ItemID == "" {
		writeError(w, http.StatusBadRequest, "itemId is required")
		return
	}
	writeData(w, http.StatusOK, map[string]int{"added": 3, "modified": 1, "removed": 0}, nil)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[in.Email]; exists {
		writeError(w, http.StatusConflict, "An account with this email already exists")
		return
	}
	s.users[in.Email] = false
	writeData(w, http.StatusCreated, map[string]string{"email": in.Email}, nil)
}

func (s *Server) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[in.Email]; !ok || in.Code != s.VerificationCode {
		writeError(w, http.StatusBadRequest, "Invalid verification code")
		return
	}
	s.users[in.Email] = true
	writeData(w, http.StatusOK, map[string]string{"token": "session-" + uuid.NewString()}, nil)
}

func (s *Server) resendCode(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	writeData(w, http.StatusOK, nil, nil)
}

func (s *Server) listBills(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cid := q.Get("companyId")
	s.mu.Lock()
	var out []domain.Bill
	for _, b := range s.bills {
		if cid == "" || b.CompanyID == cid {
			out = append(out, *b)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	items, pag := paginate(out, q)
	writeData(w, http.StatusOK, items, pag)
}

func (s *Server) getBill(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	b, ok := s.bills[r.PathValue("id")]
	var out domain.Bill
	if ok {
		out = *b
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Bill not found")
		return
	}
	writeData(w, http.StatusOK, out, nil)
}

func (s *Server) putBill(w http.ResponseWriter, r *http.Request) {
	var in domain.Bill
	if !decodeBody(w, r, &in) {
		return
	}
	id := r.PathValue("id")
	s.mu.Lock()
	_, ok := s.bills[id]
	if ok {
		in.ID = id
		s.bills[id] = &in
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Bill not found")
		return
	}
	writeData(w, http.StatusOK, in, nil)
}

func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.subs[conn] = r.URL.Query().Get("companyId")
	s.mu.Unlock()

	// Drain until the client goes away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.mu.Lock()
				delete(s.subs, conn)
				s.mu.Unlock()
				conn.Close()
				return
			}
		}
	}()
}

func paginate[T any](items []T, q map[string][]string) ([]T, *api.Pagination) {
	page, _ := strconv.Atoi(first(q["page"]))
	limit, _ := strconv.Atoi(first(q["limit"]))
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	pag := &api.Pagination{Page: page, Limit: limit, Total: len(items)}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}, pag
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], pag
}

func first(v []string) string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

func readAll(r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(b))
	return b, err
}
