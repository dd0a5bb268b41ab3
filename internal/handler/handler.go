// Package handler maps HTTP requests onto the domain services. Every
// component failure translates to exactly one status code here; nothing below
// this layer knows about HTTP.
package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"classattend/internal/attendance"
	"classattend/internal/auth"
	"classattend/internal/classsession"
	"classattend/internal/config"
	"classattend/internal/metrics"
	"classattend/internal/ratelimit"
	"classattend/internal/schedule"
	"classattend/internal/user"
)

// Users is the identity surface. *user.Service satisfies it.
type Users interface {
	Register(ctx context.Context, in user.RegisterInput) (user.User, error)
	Authenticate(ctx context.Context, username, password string) (user.User, error)
	Profile(ctx context.Context, userID int64) (user.ProfileView, error)
}

// Directory resolves role profiles. *user.Repository satisfies it.
type Directory interface {
	StudentByUserID(ctx context.Context, userID int64) (user.StudentProfile, error)
	FacultyByUserID(ctx context.Context, userID int64) (user.FacultyProfile, error)
}

// Sessions is the class-session surface. *classsession.Manager satisfies it.
type Sessions interface {
	Create(ctx context.Context, facultyUserID int64, branch, division, subject, creatorIP string) (classsession.Session, error)
	Get(ctx context.Context, id string) (classsession.Session, error)
}

// Marker records attendance. *attendance.Recorder satisfies it.
type Marker interface {
	Mark(ctx context.Context, studentUserID int64, classID, clientIP string) (attendance.Record, error)
}

// History reads attendance back. *attendance.Repository satisfies it.
type History interface {
	ListForUser(ctx context.Context, userID int64) ([]attendance.HistoryEntry, error)
	ListForFaculty(ctx context.Context, facultyID int64) ([]attendance.HistoryEntry, error)
}

// Timetable reads the weekly schedule. *schedule.Repository satisfies it.
type Timetable interface {
	ForDivision(ctx context.Context, division string, semester int) ([]schedule.Entry, error)
	ForFaculty(ctx context.Context, facultyID int64) ([]schedule.Entry, error)
}

// Handler carries the wired services.
type Handler struct {
	cfg       config.App
	users     Users
	directory Directory
	sessions  Sessions
	marker    Marker
	history   History
	timetable Timetable
	limiter   ratelimit.FailureLimiter
	collector *metrics.Collector
}

// New builds a handler.
func New(cfg config.App, users Users, directory Directory, sessions Sessions, marker Marker, history History, timetable Timetable, limiter ratelimit.FailureLimiter, collector *metrics.Collector) *Handler {
	return &Handler{
		cfg:       cfg,
		users:     users,
		directory: directory,
		sessions:  sessions,
		marker:    marker,
		history:   history,
		timetable: timetable,
		limiter:   limiter,
		collector: collector,
	}
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
	Role     string `json:"role" binding:"required"`
	Branch   string `json:"branch" binding:"required"`
	Division string `json:"division"`
	Semester int    `json:"semester"`
}

// Register creates a user with its role profile and logs them in immediately.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "required fields: username, password, full_name, role, branch"})
		return
	}

	u, err := h.users.Register(c.Request.Context(), user.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
		Role:     req.Role,
		Branch:   req.Branch,
		Division: req.Division,
		Semester: req.Semester,
	})
	if err != nil {
		var vErr *user.ValidationError
		switch {
		case errors.As(err, &vErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Msg})
		case errors.Is(err, user.ErrUsernameTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
		default:
			h.internal(c, "register", err)
		}
		return
	}

	token, _, err := auth.Issue(u.ID, u.Username, u.Role, h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.TokenTTL)
	if err != nil {
		h.internal(c, "register token issue", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"user_id":  u.ID,
		"username": u.Username,
		"role":     u.Role,
		"token":    token,
	})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login checks credentials behind the failed-attempt limiter. Only failures
// count against the limit.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	ctx := c.Request.Context()
	identifier := c.ClientIP() + "_login"

	allowed, err := h.limiter.Check(ctx, identifier)
	if err != nil {
		h.internal(c, "login limiter", err)
		return
	}
	if !allowed {
		h.collector.RecordLogin("limited")
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts, please try again later"})
		return
	}

	u, err := h.users.Authenticate(ctx, req.Username, req.Password)
	if errors.Is(err, user.ErrInvalidCredentials) {
		if recErr := h.limiter.Record(ctx, identifier); recErr != nil {
			log.Printf("record login attempt: %v", recErr)
		}
		h.collector.RecordLogin("invalid")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		h.internal(c, "login", err)
		return
	}

	token, exp, err := auth.Issue(u.ID, u.Username, u.Role, h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.TokenTTL)
	if err != nil {
		h.internal(c, "login token issue", err)
		return
	}
	h.collector.RecordLogin("ok")
	c.JSON(http.StatusOK, gin.H{
		"user_id":    u.ID,
		"username":   u.Username,
		"full_name":  u.FullName,
		"role":       u.Role,
		"token":      token,
		"expires_at": exp.Unix(),
	})
}

type createSessionRequest struct {
	Branch   string `json:"branch" binding:"required"`
	Division string `json:"division" binding:"required"`
	Subject  string `json:"subject"`
}

// CreateSession opens a class session for the authenticated faculty member.
func (h *Handler) CreateSession(c *gin.Context) {
	claims, _ := auth.FromContext(c)

	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "branch and division are required"})
		return
	}

	s, err := h.sessions.Create(c.Request.Context(), claims.UserID, req.Branch, req.Division, req.Subject, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, classsession.ErrFacultyUnknown):
			c.JSON(http.StatusForbidden, gin.H{"error": "faculty record not found"})
		case errors.Is(err, classsession.ErrBranchMismatch):
			c.JSON(http.StatusForbidden, gin.H{"error": "you can only create sessions for your assigned branch"})
		case errors.Is(err, classsession.ErrDuplicateID):
			c.JSON(http.StatusConflict, gin.H{"error": "a session for this class was just created, try again"})
		default:
			h.internal(c, "create session", err)
		}
		return
	}

	h.collector.RecordSessionCreated()
	c.JSON(http.StatusCreated, gin.H{
		"class_id":          s.ID,
		"expires_at":        s.ExpiresAt,
		"valid_for_minutes": int(time.Until(s.ExpiresAt).Minutes()),
	})
}

// GetSession returns a session with its computed active flag.
func (h *Handler) GetSession(c *gin.Context) {
	s, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, classsession.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "class session not found"})
		return
	}
	if err != nil {
		h.internal(c, "get session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s, "active": !s.ExpiredAt(time.Now())})
}

type markRequest struct {
	ClassID string `json:"class_id" binding:"required"`
}

// Mark records attendance for the authenticated student.
func (h *Handler) Mark(c *gin.Context) {
	claims, _ := auth.FromContext(c)

	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "class_id is required"})
		return
	}

	rec, err := h.marker.Mark(c.Request.Context(), claims.UserID, req.ClassID, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, attendance.ErrNoProfile):
			h.collector.RecordMark("no_profile")
			c.JSON(http.StatusForbidden, gin.H{"error": "student record not found"})
		case errors.Is(err, attendance.ErrSessionNotFound):
			h.collector.RecordMark("not_found")
			c.JSON(http.StatusNotFound, gin.H{"error": "class session not found"})
		case errors.Is(err, attendance.ErrSessionExpired):
			h.collector.RecordMark("expired")
			c.JSON(http.StatusGone, gin.H{"error": "class session has expired"})
		case errors.Is(err, attendance.ErrNotEnrolled):
			h.collector.RecordMark("not_enrolled")
			c.JSON(http.StatusForbidden, gin.H{"error": "you are not enrolled in this class"})
		case errors.Is(err, attendance.ErrNotOnNetwork):
			h.collector.RecordMark("off_network")
			c.JSON(http.StatusForbidden, gin.H{"error": "you must be connected to the same network as the faculty"})
		case errors.Is(err, attendance.ErrAlreadyMarked):
			h.collector.RecordMark("duplicate")
			c.JSON(http.StatusConflict, gin.H{"error": "attendance already marked for this class today"})
		default:
			h.internal(c, "mark attendance", err)
		}
		return
	}

	h.collector.RecordMark("ok")
	c.JSON(http.StatusCreated, gin.H{
		"class_id":    rec.ClassID,
		"status":      rec.Status,
		"marked_time": rec.MarkedTime,
	})
}

// Profile returns the caller's profile, or another user's for faculty.
func (h *Handler) Profile(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	targetID, ok := h.targetUser(c, claims)
	if !ok {
		return
	}

	view, err := h.users.Profile(c.Request.Context(), targetID)
	if errors.Is(err, user.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	if err != nil {
		h.internal(c, "profile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": view})
}

// AttendanceHistory lists marks. Students see their own records; faculty with
// no user_id see the marks collected by their sessions, and may pass user_id
// to inspect a particular student.
func (h *Handler) AttendanceHistory(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	ctx := c.Request.Context()

	if claims.Role == auth.RoleFaculty && c.Query("user_id") == "" {
		prof, err := h.directory.FacultyByUserID(ctx, claims.UserID)
		if errors.Is(err, user.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "faculty record not found"})
			return
		}
		if err != nil {
			h.internal(c, "attendance history", err)
			return
		}
		entries, err := h.history.ListForFaculty(ctx, prof.ID)
		if err != nil {
			h.internal(c, "attendance history", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": entries})
		return
	}

	targetID, ok := h.targetUser(c, claims)
	if !ok {
		return
	}
	entries, err := h.history.ListForUser(ctx, targetID)
	if err != nil {
		h.internal(c, "attendance history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": entries})
}

// Schedule returns the weekly timetable for the caller's role.
func (h *Handler) Schedule(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	ctx := c.Request.Context()

	var entries []schedule.Entry
	switch claims.Role {
	case auth.RoleStudent:
		prof, err := h.directory.StudentByUserID(ctx, claims.UserID)
		if errors.Is(err, user.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "student record not found"})
			return
		}
		if err != nil {
			h.internal(c, "schedule", err)
			return
		}
		entries, err = h.timetable.ForDivision(ctx, prof.Division, prof.Semester)
		if err != nil {
			h.internal(c, "schedule", err)
			return
		}
	case auth.RoleFaculty:
		prof, err := h.directory.FacultyByUserID(ctx, claims.UserID)
		if errors.Is(err, user.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "faculty record not found"})
			return
		}
		if err != nil {
			h.internal(c, "schedule", err)
			return
		}
		entries, err = h.timetable.ForFaculty(ctx, prof.ID)
		if err != nil {
			h.internal(c, "schedule", err)
			return
		}
	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "access forbidden"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedule": entries})
}

// targetUser resolves the optional user_id query parameter. Non-faculty may
// only target themselves.
func (h *Handler) targetUser(c *gin.Context, claims auth.Claims) (int64, bool) {
	raw := c.Query("user_id")
	if raw == "" {
		return claims.UserID, true
	}
	target, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id must be numeric"})
		return 0, false
	}
	if target != claims.UserID && claims.Role != auth.RoleFaculty {
		c.JSON(http.StatusForbidden, gin.H{"error": "access forbidden"})
		return 0, false
	}
	return target, true
}

// internal logs the cause and returns a generic 500; store details never
// reach the client.
func (h *Handler) internal(c *gin.Context, op string, err error) {
	log.Printf("%s failed: %v", op, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
