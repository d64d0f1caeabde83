package announcements_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/schoolhub/internal/app/features/announcements"
	announcementstore "github.com/dalemusser/schoolhub/internal/app/store/announcements"
	"github.com/dalemusser/schoolhub/internal/app/store/audit"
	teacherstore "github.com/dalemusser/schoolhub/internal/app/store/teachers"
	"github.com/dalemusser/schoolhub/internal/app/system/apierr"
	"github.com/dalemusser/schoolhub/internal/app/system/auditlog"
	"github.com/dalemusser/schoolhub/internal/app/system/auth"
	"github.com/dalemusser/schoolhub/internal/domain/models"
	"github.com/dalemusser/schoolhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

// memStore is an in-memory Store keeping insertion order.
type memStore struct {
	mu     sync.Mutex
	order  []primitive.ObjectID
	byID   map[primitive.ObjectID]models.Announcement
	writes int
	fail   error
}

func newMemStore() *memStore {
	return &memStore{byID: map[primitive.ObjectID]models.Announcement{}}
}

func (m *memStore) ListActive(_ context.Context, now time.Time) ([]models.Announcement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	out := []models.Announcement{}
	for _, id := range m.order {
		if a, ok := m.byID[id]; ok && a.ActiveAt(now) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) Create(_ context.Context, a models.Announcement) (models.Announcement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return models.Announcement{}, m.fail
	}
	a.ID = primitive.NewObjectID()
	m.byID[a.ID] = a
	m.order = append(m.order, a.ID)
	m.writes++
	return a, nil
}

func (m *memStore) Update(_ context.Context, id primitive.ObjectID, p models.AnnouncementPatch) (models.Announcement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return models.Announcement{}, announcementstore.ErrNotFound
	}
	if p.IsEmpty() {
		return a, nil
	}
	if p.Message != nil {
		a.Message = *p.Message
	}
	if p.StartDate != nil {
		a.StartDate = p.StartDate
	}
	if p.ExpirationDate != nil {
		a.ExpirationDate = *p.ExpirationDate
	}
	m.byID[id] = a
	m.writes++
	return a, nil
}

func (m *memStore) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return announcementstore.ErrNotFound
	}
	delete(m.byID, id)
	m.writes++
	return nil
}

func (m *memStore) seed(msg string, exp time.Time) models.Announcement {
	a, _ := m.Create(context.Background(), models.Announcement{Message: msg, ExpirationDate: exp})
	m.writes = 0
	return a
}

type teacherMap map[string]models.Teacher

func (tm teacherMap) GetByUsername(_ context.Context, u string) (models.Teacher, error) {
	if t, ok := tm[u]; ok {
		return t, nil
	}
	return models.Teacher{}, teacherstore.ErrNotFound
}

func newTestRouter(t *testing.T) (http.Handler, *memStore) {
	t.Helper()
	store := newMemStore()
	h := announcements.NewHandler(store, nil, zap.NewNop())
	h.Now = func() time.Time { return fixedNow }

	gate := &auth.Gate{
		Teachers: teacherMap{
			"mrodriguez": {ID: "mrodriguez", Username: "mrodriguez", DisplayName: "Ms. Rodriguez", Role: "teacher"},
		},
		AllowLegacyUsername: true,
		Log:                 zap.NewNop(),
	}
	return announcements.Routes(h, gate), store
}

func serve(h http.Handler, req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type announcementJSON struct {
	ID             string     `json:"_id"`
	Message        string     `json:"message"`
	StartDate      *time.Time `json:"start_date"`
	ExpirationDate time.Time  `json:"expiration_date"`
}

func TestList_EmptyIsArray(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := serve(router, testutil.NewJSONRequest("GET", "/", ""))
	rec.AssertStatus(t, http.StatusOK)
	if got := rec.Body.String(); got != "[]\n" {
		t.Errorf("body: got %q, want []", got)
	}
}

func TestList_OnlyActive(t *testing.T) {
	router, store := newTestRouter(t)
	store.seed("expired yesterday", fixedNow.Add(-24*time.Hour))
	store.seed("expires right now", fixedNow)
	store.seed("next week", fixedNow.Add(7*24*time.Hour))

	rec := serve(router, testutil.NewJSONRequest("GET", "/", ""))
	rec.AssertStatus(t, http.StatusOK)

	var got []announcementJSON
	rec.DecodeJSON(t, &got)
	if len(got) != 2 {
		t.Fatalf("expected 2 active announcements, got %d: %+v", len(got), got)
	}
	if got[0].Message != "expires right now" || got[1].Message != "next week" {
		t.Errorf("unexpected order or content: %+v", got)
	}
}

func TestList_NoAuthNeeded(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := serve(router, testutil.NewJSONRequest("GET", "/?username=nobody", ""))
	rec.AssertStatus(t, http.StatusOK)
}

func TestList_StoreFailure(t *testing.T) {
	router, store := newTestRouter(t)
	store.fail = errors.New("connection reset")

	rec := serve(router, testutil.NewJSONRequest("GET", "/", ""))
	rec.AssertStatus(t, http.StatusInternalServerError)
	rec.AssertDetail(t, apierr.DetailInternal)
}

func TestCreate_ThenListed(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := serve(router, testutil.NewJSONRequest("POST", "/?username=mrodriguez",
		`{"message":"Exam moved","expiration_date":"2099-01-01T00:00:00"}`))
	rec.AssertStatus(t, http.StatusOK)

	var created announcementJSON
	rec.DecodeJSON(t, &created)
	if _, err := primitive.ObjectIDFromHex(created.ID); err != nil {
		t.Errorf("_id should be an ObjectID hex string, got %q", created.ID)
	}
	if created.Message != "Exam moved" {
		t.Errorf("message: got %q", created.Message)
	}
	if !created.ExpirationDate.Equal(time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expiration_date: got %v", created.ExpirationDate)
	}
	if created.StartDate != nil {
		t.Errorf("start_date should be omitted when not supplied, got %v", created.StartDate)
	}

	rec = serve(router, testutil.NewJSONRequest("GET", "/", ""))
	var list []announcementJSON
	rec.DecodeJSON(t, &list)
	if len(list) != 1 || list[0].ID != created.ID {
		t.Errorf("created announcement not listed: %+v", list)
	}
}

func TestCreate_IgnoresClientID(t *testing.T) {
	router, _ := newTestRouter(t)
	clientID := primitive.NewObjectID().Hex()

	rec := serve(router, testutil.NewJSONRequest("POST", "/?username=mrodriguez",
		`{"_id":"`+clientID+`","message":"Hi","expiration_date":"2099-01-01"}`))
	rec.AssertStatus(t, http.StatusOK)

	var created announcementJSON
	rec.DecodeJSON(t, &created)
	if created.ID == clientID {
		t.Error("client-supplied _id must not be used")
	}
}

func TestCreate_Unauthenticated(t *testing.T) {
	router, store := newTestRouter(t)

	rec := serve(router, testutil.NewJSONRequest("POST", "/",
		`{"message":"Exam moved","expiration_date":"2099-01-01T00:00:00"}`))
	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertDetail(t, apierr.DetailNotAuthenticated)
	if store.writes != 0 {
		t.Errorf("store must be untouched, got %d writes", store.writes)
	}
}

func TestCreate_UnknownUser(t *testing.T) {
	router, store := newTestRouter(t)

	req := testutil.NewJSONRequest("POST", "/",
		`{"message":"Exam moved","expiration_date":"2099-01-01T00:00:00"}`)
	req.Header.Set(auth.UsernameHeader, "ghost")

	rec := serve(router, req)
	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertDetail(t, apierr.DetailInvalidUser)
	if store.writes != 0 {
		t.Errorf("store must be untouched, got %d writes", store.writes)
	}
}

func TestCreate_Validation(t *testing.T) {
	router, store := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", ``},
		{"missing message", `{"expiration_date":"2099-01-01"}`},
		{"missing expiration", `{"message":"x"}`},
		{"null expiration", `{"message":"x","expiration_date":null}`},
		{"message wrong type", `{"message":42,"expiration_date":"2099-01-01"}`},
		{"bad date", `{"message":"x","expiration_date":"next tuesday"}`},
		{"date wrong type", `{"message":"x","expiration_date":20990101}`},
		{"not json", `message=x`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, testutil.NewJSONRequest("POST", "/?username=mrodriguez", tt.body))
			rec.AssertStatus(t, http.StatusUnprocessableEntity)
		})
	}
	if store.writes != 0 {
		t.Errorf("invalid bodies must not write, got %d writes", store.writes)
	}
}

func TestCreate_WithStartDate(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := serve(router, testutil.NewJSONRequest("POST", "/?username=mrodriguez",
		`{"message":"Field trip","start_date":"2026-05-10T08:30:00-05:00","expiration_date":"2026-05-11"}`))
	rec.AssertStatus(t, http.StatusOK)

	var created announcementJSON
	rec.DecodeJSON(t, &created)
	want := time.Date(2026, 5, 10, 13, 30, 0, 0, time.UTC)
	if created.StartDate == nil || !created.StartDate.Equal(want) {
		t.Errorf("start_date: got %v, want %v", created.StartDate, want)
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	router, store := newTestRouter(t)
	a := store.seed("Exam moved", time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC))

	req := testutil.NewJSONRequest("PUT", "/"+a.ID.Hex()+"?username=mrodriguez", `{"message":"Exam moved to Friday"}`)
	rec := serve(router, req)
	rec.AssertStatus(t, http.StatusOK)

	var got announcementJSON
	rec.DecodeJSON(t, &got)
	if got.Message != "Exam moved to Friday" {
		t.Errorf("message: got %q", got.Message)
	}
	if !got.ExpirationDate.Equal(a.ExpirationDate) {
		t.Errorf("expiration_date should be unchanged, got %v", got.ExpirationDate)
	}
	if got.ID != a.ID.Hex() {
		t.Errorf("_id: got %q, want %q", got.ID, a.ID.Hex())
	}
}

func TestUpdate_EmptyBodyReturnsCurrent(t *testing.T) {
	router, store := newTestRouter(t)
	a := store.seed("unchanged", fixedNow.Add(time.Hour))

	rec := serve(router, testutil.NewJSONRequest("PUT", "/"+a.ID.Hex()+"?username=mrodriguez", `{}`))
	rec.AssertStatus(t, http.StatusOK)
	if store.writes != 0 {
		t.Errorf("empty patch must not write, got %d writes", store.writes)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	router, store := newTestRouter(t)
	store.seed("other", fixedNow.Add(time.Hour))

	for _, id := range []string{primitive.NewObjectID().Hex(), "not-an-object-id"} {
		rec := serve(router, testutil.NewJSONRequest("PUT", "/"+id+"?username=mrodriguez", `{"message":"x"}`))
		rec.AssertStatus(t, http.StatusNotFound)
		rec.AssertDetail(t, apierr.DetailAnnouncementMissing)
	}
	if store.writes != 0 {
		t.Errorf("store must be unchanged, got %d writes", store.writes)
	}
}

func TestUpdate_Unauthenticated(t *testing.T) {
	router, store := newTestRouter(t)
	a := store.seed("x", fixedNow.Add(time.Hour))

	rec := serve(router, testutil.NewJSONRequest("PUT", "/"+a.ID.Hex(), `{"message":"y"}`))
	rec.AssertStatus(t, http.StatusUnauthorized)
	if store.writes != 0 {
		t.Errorf("store must be unchanged, got %d writes", store.writes)
	}
}

func TestUpdate_BadDate(t *testing.T) {
	router, store := newTestRouter(t)
	a := store.seed("x", fixedNow.Add(time.Hour))

	rec := serve(router, testutil.NewJSONRequest("PUT", "/"+a.ID.Hex()+"?username=mrodriguez", `{"expiration_date":"soon"}`))
	rec.AssertStatus(t, http.StatusUnprocessableEntity)
}

func TestDelete(t *testing.T) {
	router, store := newTestRouter(t)
	a := store.seed("to remove", fixedNow.Add(time.Hour))

	rec := serve(router, testutil.NewJSONRequest("DELETE", "/"+a.ID.Hex()+"?username=mrodriguez", ""))
	rec.AssertStatus(t, http.StatusOK)

	var body map[string]bool
	rec.DecodeJSON(t, &body)
	if !body["success"] {
		t.Errorf("expected success:true, got %v", body)
	}

	rec = serve(router, testutil.NewJSONRequest("GET", "/", ""))
	var list []announcementJSON
	rec.DecodeJSON(t, &list)
	if len(list) != 0 {
		t.Errorf("deleted announcement still listed: %+v", list)
	}

	rec = serve(router, testutil.NewJSONRequest("PUT", "/"+a.ID.Hex()+"?username=mrodriguez", `{"message":"back"}`))
	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertDetail(t, apierr.DetailAnnouncementMissing)

	// second delete of the same id
	rec = serve(router, testutil.NewJSONRequest("DELETE", "/"+a.ID.Hex()+"?username=mrodriguez", ""))
	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertDetail(t, apierr.DetailAnnouncementMissing)
}

func TestCreate_RejectsNonJSONWithSessionCookie(t *testing.T) {
	sessions, err := auth.NewSessionManager("test-secret-key-for-unit-testing-2026-xx", "test-session", "", time.Hour, true, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	login := httptest.NewRecorder()
	if err := sessions.SignIn(login, httptest.NewRequest("POST", "/auth/login", nil), "mrodriguez"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	cookies := login.Result().Cookies()
	for _, c := range cookies {
		if c.SameSite != http.SameSiteLaxMode {
			t.Errorf("session cookie SameSite: got %v, want Lax", c.SameSite)
		}
	}

	store := newMemStore()
	h := announcements.NewHandler(store, nil, zap.NewNop())
	h.Now = func() time.Time { return fixedNow }
	gate := &auth.Gate{
		Teachers: teacherMap{"mrodriguez": {ID: "mrodriguez", Username: "mrodriguez", Role: "teacher"}},
		Sessions: sessions,
		Log:      zap.NewNop(),
	}
	router := announcements.Routes(h, gate)

	body := `{"message":"hello","expiration_date":"2099-01-01","x":"="}`
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Origin", "https://other.example")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := serve(router, req)
	rec.AssertStatus(t, http.StatusUnsupportedMediaType)
	rec.AssertDetail(t, apierr.DetailUnsupportedMedia)
	if store.writes != 0 {
		t.Errorf("writes: got %d, want 0", store.writes)
	}

	req = testutil.NewJSONRequest("POST", "/", body)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	serve(router, req).AssertStatus(t, http.StatusOK)
}

func TestUpdate_JSONWithCharsetAccepted(t *testing.T) {
	router, store := newTestRouter(t)
	a := store.seed("old", fixedNow.Add(time.Hour))

	req := httptest.NewRequest("PUT", "/"+a.ID.Hex()+"?username=mrodriguez", strings.NewReader(`{"message":"new"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec := serve(router, req)
	rec.AssertStatus(t, http.StatusOK)
}

func TestDelete_Unauthenticated(t *testing.T) {
	router, store := newTestRouter(t)
	a := store.seed("keep", fixedNow.Add(time.Hour))

	rec := serve(router, testutil.NewJSONRequest("DELETE", "/"+a.ID.Hex(), ""))
	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertDetail(t, apierr.DetailNotAuthenticated)
	if _, ok := store.byID[a.ID]; !ok {
		t.Error("announcement should still exist")
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2099-01-01T00:00:00", time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"2099-01-01T00:00:00Z", time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"2099-01-01T02:00:00+02:00", time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"2099-01-01 00:00:00.5", time.Date(2099, 1, 1, 0, 0, 0, 500000000, time.UTC), true},
		{"2099-01-01T07:45", time.Date(2099, 1, 1, 7, 45, 0, 0, time.UTC), true},
		{"2099-01-01", time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"01/01/2099", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := announcements.ParseTimestamp(tt.in)
			if (err == nil) != tt.ok {
				t.Fatalf("err: got %v, want ok=%v", err, tt.ok)
			}
			if tt.ok && !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

type auditSink struct{ events []audit.Event }

func (s *auditSink) Log(_ context.Context, e audit.Event) error {
	s.events = append(s.events, e)
	return nil
}

func TestCreate_RecordsAuditEvent(t *testing.T) {
	store := newMemStore()
	sink := &auditSink{}
	h := announcements.NewHandler(store, auditlog.New(sink, zap.NewNop(), auditlog.Config{Admin: auditlog.ModeDB}), zap.NewNop())
	h.Now = func() time.Time { return fixedNow }

	req := testutil.NewJSONRequest("POST", "/", `{"message":"Exam moved","expiration_date":"2099-01-01"}`)
	req = auth.WithTeacher(req, models.Teacher{ID: "principal", Username: "principal"})
	rec := testutil.NewRecorder()
	h.Create(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	if len(sink.events) != 1 {
		t.Fatalf("expected one audit event, got %d", len(sink.events))
	}
	if e := sink.events[0]; e.EventType != audit.EventAnnouncementCreated || e.Username != "principal" {
		t.Errorf("unexpected event: %+v", e)
	}
}
