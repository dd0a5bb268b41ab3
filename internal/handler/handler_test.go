package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"classattend/internal/attendance"
	"classattend/internal/auth"
	"classattend/internal/classsession"
	"classattend/internal/config"
	"classattend/internal/metrics"
	"classattend/internal/schedule"
	"classattend/internal/user"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSigningKey = "handler-test-signing-key-32-chars!!!"

func testConfig() config.App {
	return config.App{
		JWTIssuer:     "classattend",
		JWTSigningKey: testSigningKey,
		TokenTTL:      time.Hour,
	}
}

// --- fakes ---

type fakeUsers struct {
	registerErr error
	authErr     error
	profileErr  error
	u           user.User
	view        user.ProfileView
}

func (f *fakeUsers) Register(context.Context, user.RegisterInput) (user.User, error) {
	return f.u, f.registerErr
}

func (f *fakeUsers) Authenticate(context.Context, string, string) (user.User, error) {
	return f.u, f.authErr
}

func (f *fakeUsers) Profile(_ context.Context, userID int64) (user.ProfileView, error) {
	if f.profileErr != nil {
		return user.ProfileView{}, f.profileErr
	}
	v := f.view
	v.Username = fmt.Sprintf("user-%d", userID)
	return v, nil
}

type fakeDirectory struct {
	student    user.StudentProfile
	studentErr error
	faculty    user.FacultyProfile
	facultyErr error
}

func (f *fakeDirectory) StudentByUserID(context.Context, int64) (user.StudentProfile, error) {
	return f.student, f.studentErr
}

func (f *fakeDirectory) FacultyByUserID(context.Context, int64) (user.FacultyProfile, error) {
	return f.faculty, f.facultyErr
}

type fakeSessions struct {
	createErr error
	getErr    error
	s         classsession.Session
}

func (f *fakeSessions) Create(context.Context, int64, string, string, string, string) (classsession.Session, error) {
	return f.s, f.createErr
}

func (f *fakeSessions) Get(context.Context, string) (classsession.Session, error) {
	return f.s, f.getErr
}

type fakeMarker struct {
	err error
	rec attendance.Record
}

func (f *fakeMarker) Mark(context.Context, int64, string, string) (attendance.Record, error) {
	return f.rec, f.err
}

type fakeHistory struct {
	user    []attendance.HistoryEntry
	faculty []attendance.HistoryEntry
}

func (f *fakeHistory) ListForUser(context.Context, int64) ([]attendance.HistoryEntry, error) {
	return f.user, nil
}

func (f *fakeHistory) ListForFaculty(context.Context, int64) ([]attendance.HistoryEntry, error) {
	return f.faculty, nil
}

type fakeTimetable struct {
	division []schedule.Entry
	faculty  []schedule.Entry
}

func (f *fakeTimetable) ForDivision(context.Context, string, int) ([]schedule.Entry, error) {
	return f.division, nil
}

func (f *fakeTimetable) ForFaculty(context.Context, int64) ([]schedule.Entry, error) {
	return f.faculty, nil
}

type fakeLimiter struct {
	allowed  bool
	recorded int
}

func (f *fakeLimiter) Check(context.Context, string) (bool, error) { return f.allowed, nil }
func (f *fakeLimiter) Record(context.Context, string) error {
	f.recorded++
	return nil
}

type deps struct {
	users     *fakeUsers
	directory *fakeDirectory
	sessions  *fakeSessions
	marker    *fakeMarker
	history   *fakeHistory
	timetable *fakeTimetable
	limiter   *fakeLimiter
}

func newTestRouter(t *testing.T) (*gin.Engine, *deps) {
	t.Helper()
	d := &deps{
		users:     &fakeUsers{u: user.User{ID: 1, Username: "alice", Role: user.RoleStudent}},
		directory: &fakeDirectory{},
		sessions:  &fakeSessions{},
		marker:    &fakeMarker{},
		history:   &fakeHistory{},
		timetable: &fakeTimetable{},
		limiter:   &fakeLimiter{allowed: true},
	}
	cfg := testConfig()
	h := New(cfg, d.users, d.directory, d.sessions, d.marker, d.history, d.timetable, d.limiter, metrics.NewCollector(prometheus.NewRegistry()))

	r := gin.New()
	r.POST("/v1/register", h.Register)
	r.POST("/v1/login", h.Login)
	authed := r.Group("/v1", auth.RequireAuth(cfg.JWTSigningKey, cfg.JWTIssuer))
	authed.POST("/sessions", auth.RequireRole(auth.RoleFaculty), h.CreateSession)
	authed.GET("/sessions/:id", h.GetSession)
	authed.POST("/attendance", auth.RequireRole(auth.RoleStudent), h.Mark)
	authed.GET("/attendance", h.AttendanceHistory)
	authed.GET("/profile", h.Profile)
	authed.GET("/schedule", h.Schedule)
	return r, d
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func tokenFor(t *testing.T, userID int64, role string) string {
	t.Helper()
	tok, _, err := auth.Issue(userID, "someone", role, "classattend", testSigningKey, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

// --- tests ---

func TestLoginSuccessIssuesToken(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/v1/login", "", gin.H{"username": "alice", "password": "Sup3rSecret"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := auth.Parse(resp.Token, testSigningKey, "classattend")
	if err != nil {
		t.Fatalf("returned token invalid: %v", err)
	}
	if claims.UserID != 1 {
		t.Errorf("token user = %d, want 1", claims.UserID)
	}
}

func TestLoginInvalidCredentialsRecordsAttempt(t *testing.T) {
	r, d := newTestRouter(t)
	d.users.authErr = user.ErrInvalidCredentials

	w := doJSON(t, r, http.MethodPost, "/v1/login", "", gin.H{"username": "alice", "password": "nope"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if d.limiter.recorded != 1 {
		t.Errorf("recorded %d attempts, want 1", d.limiter.recorded)
	}
}

func TestLoginRateLimited(t *testing.T) {
	r, d := newTestRouter(t)
	d.limiter.allowed = false

	w := doJSON(t, r, http.MethodPost, "/v1/login", "", gin.H{"username": "alice", "password": "nope"})
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
	if d.limiter.recorded != 0 {
		t.Error("denied request should not record another attempt")
	}
}

func TestRegisterConflict(t *testing.T) {
	r, d := newTestRouter(t)
	d.users.registerErr = user.ErrUsernameTaken

	w := doJSON(t, r, http.MethodPost, "/v1/register", "", gin.H{
		"username": "alice", "password": "Sup3rSecret", "full_name": "Alice Smith",
		"role": "student", "branch": "CS", "division": "A", "semester": 4,
	})
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}

func TestRegisterValidationFailure(t *testing.T) {
	r, d := newTestRouter(t)
	d.users.registerErr = &user.ValidationError{Msg: "semester must be between 1 and 8"}

	w := doJSON(t, r, http.MethodPost, "/v1/register", "", gin.H{
		"username": "alice", "password": "Sup3rSecret", "full_name": "Alice Smith",
		"role": "student", "branch": "CS", "division": "A", "semester": 12,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCreateSessionRequiresFacultyRole(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/v1/sessions", tokenFor(t, 1, auth.RoleStudent),
		gin.H{"branch": "CS", "division": "A"})
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestCreateSessionBranchMismatch(t *testing.T) {
	r, d := newTestRouter(t)
	d.sessions.createErr = classsession.ErrBranchMismatch

	w := doJSON(t, r, http.MethodPost, "/v1/sessions", tokenFor(t, 2, auth.RoleFaculty),
		gin.H{"branch": "EE", "division": "A"})
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestMarkStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"marked", nil, http.StatusCreated},
		{"no profile", attendance.ErrNoProfile, http.StatusForbidden},
		{"session missing", attendance.ErrSessionNotFound, http.StatusNotFound},
		{"expired", attendance.ErrSessionExpired, http.StatusGone},
		{"not enrolled", attendance.ErrNotEnrolled, http.StatusForbidden},
		{"off network", attendance.ErrNotOnNetwork, http.StatusForbidden},
		{"duplicate", attendance.ErrAlreadyMarked, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, d := newTestRouter(t)
			d.marker.err = tt.err
			d.marker.rec = attendance.Record{ClassID: "CS-A-1000", Status: attendance.StatusPresent}

			w := doJSON(t, r, http.MethodPost, "/v1/attendance", tokenFor(t, 1, auth.RoleStudent),
				gin.H{"class_id": "CS-A-1000"})
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestMarkRequiresAuth(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/v1/attendance", "", gin.H{"class_id": "CS-A-1000"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestProfileOwnership(t *testing.T) {
	r, _ := newTestRouter(t)

	// A student reading their own profile is fine.
	w := doJSON(t, r, http.MethodGet, "/v1/profile", tokenFor(t, 1, auth.RoleStudent), nil)
	if w.Code != http.StatusOK {
		t.Errorf("own profile: status = %d, want 200", w.Code)
	}

	// A student reading someone else's is not.
	w = doJSON(t, r, http.MethodGet, "/v1/profile?user_id=2", tokenFor(t, 1, auth.RoleStudent), nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("other profile as student: status = %d, want 403", w.Code)
	}

	// Faculty may read anyone's.
	w = doJSON(t, r, http.MethodGet, "/v1/profile?user_id=2", tokenFor(t, 3, auth.RoleFaculty), nil)
	if w.Code != http.StatusOK {
		t.Errorf("other profile as faculty: status = %d, want 200", w.Code)
	}
}

func TestSessionGetNotFound(t *testing.T) {
	r, d := newTestRouter(t)
	d.sessions.getErr = classsession.ErrNotFound

	w := doJSON(t, r, http.MethodGet, "/v1/sessions/CS-A-1", tokenFor(t, 1, auth.RoleStudent), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestScheduleByRole(t *testing.T) {
	r, d := newTestRouter(t)
	d.directory.student = user.StudentProfile{Branch: "CS", Division: "A", Semester: 4}
	d.directory.faculty = user.FacultyProfile{ID: 7, Branch: "CS"}
	d.timetable.division = []schedule.Entry{{DayOfWeek: "Monday", TimeSlot: "09:00", Subject: "Networks"}}
	d.timetable.faculty = []schedule.Entry{{DayOfWeek: "Tuesday", TimeSlot: "10:00", Subject: "OS", Division: "B"}}

	w := doJSON(t, r, http.MethodGet, "/v1/schedule", tokenFor(t, 1, auth.RoleStudent), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("student schedule: status = %d", w.Code)
	}
	if got := w.Body.String(); !bytes.Contains([]byte(got), []byte("Networks")) {
		t.Errorf("student schedule body = %s", got)
	}

	w = doJSON(t, r, http.MethodGet, "/v1/schedule", tokenFor(t, 3, auth.RoleFaculty), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("faculty schedule: status = %d", w.Code)
	}
	if got := w.Body.String(); !bytes.Contains([]byte(got), []byte("OS")) {
		t.Errorf("faculty schedule body = %s", got)
	}
}

func TestFacultyHistoryUsesSessions(t *testing.T) {
	r, d := newTestRouter(t)
	d.directory.faculty = user.FacultyProfile{ID: 7, Branch: "CS"}
	d.history.faculty = []attendance.HistoryEntry{{ClassID: "CS-A-1", Student: "Alice Smith"}}

	w := doJSON(t, r, http.MethodGet, "/v1/attendance", tokenFor(t, 3, auth.RoleFaculty), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("Alice Smith")) {
		t.Errorf("body = %s", w.Body.String())
	}
}
