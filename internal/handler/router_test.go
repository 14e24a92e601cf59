package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Singh4599/techno-sapiens/internal/config"
	"github.com/Singh4599/techno-sapiens/internal/livesync"
	"github.com/Singh4599/techno-sapiens/internal/model"
	"github.com/Singh4599/techno-sapiens/internal/repository"
	"github.com/Singh4599/techno-sapiens/internal/service"
	"github.com/Singh4599/techno-sapiens/pkg/crypto"
	jwtpkg "github.com/Singh4599/techno-sapiens/pkg/jwt"
)

type harness struct {
	router   *gin.Engine
	db       *gorm.DB
	manager  *jwtpkg.Manager
	profiles repository.ProfileRepository
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, model.AutoMigrate(db))

	eventRepo := repository.NewPGEventRepository(db)
	regRepo := repository.NewPGRegistrationRepository(db)
	profileRepo := repository.NewPGProfileRepository(db)
	state := repository.NewMemoryStateStore()
	bus := livesync.NewMemoryBus()
	t.Cleanup(func() { _ = bus.Close() })

	manager := jwtpkg.NewManager("test-signing-key", "techno-sapiens-test", time.Hour)

	eventSvc := service.NewEventService(eventRepo, state, bus)
	regSvc := service.NewRegistrationService(eventRepo, regRepo, state, bus)
	capSvc := service.NewCapacityService(eventRepo, regRepo, state, bus)
	authSvc := service.NewAuthService(profileRepo, manager)

	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "test"},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type", "Idempotency-Key"},
		},
	}

	router := SetupRouter(
		cfg,
		zap.NewNop(),
		manager,
		NewAuthHandler(authSvc),
		NewEventHandler(eventSvc, capSvc),
		NewRegistrationHandler(eventSvc, regSvc, profileRepo),
		NewAdminHandler(eventSvc, regSvc),
	)

	return &harness{router: router, db: db, manager: manager, profiles: profileRepo}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (h *harness) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

// newUser inserts a profile directly and returns a token for it.
func (h *harness) newUser(t *testing.T, role model.Role) (*model.Profile, string) {
	t.Helper()

	hash, err := crypto.HashPassword("melon$tusk88")
	require.NoError(t, err)
	profile := &model.Profile{
		Email:        fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		FullName:     "Test User",
		Role:         role,
		PasswordHash: hash,
	}
	require.NoError(t, h.db.Create(profile).Error)

	token, err := h.manager.Generate(profile.ID, string(role))
	require.NoError(t, err)
	return profile, token
}

func (h *harness) seedEvent(t *testing.T, mutate func(*model.Event)) *model.Event {
	t.Helper()
	event := &model.Event{
		Slug:             "paper-presentation-" + uuid.NewString()[:8],
		Name:             "Paper Presentation",
		Category:         "general",
		TeamSizeMin:      1,
		TeamSizeMax:      1,
		MaxParticipants:  10,
		RegistrationOpen: true,
		Status:           model.EventStatusPublished,
	}
	if mutate != nil {
		mutate(event)
	}
	require.NoError(t, h.db.Create(event).Error)
	return event
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	w, _ := h.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthEndpoints(t *testing.T) {
	h := newHarness(t)

	signup := gin.H{
		"email":     "priya@example.com",
		"password":  "long enough",
		"full_name": "Priya S",
		"college":   "IIT Bombay",
	}

	w, env := h.do(t, http.MethodPost, "/api/v1/auth/signup", "", signup)
	require.Equal(t, http.StatusCreated, w.Code, env.Message)

	var created struct {
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
		Profile model.Profile `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.NotEmpty(t, created.Tokens.AccessToken)
	assert.Equal(t, model.RoleUser, created.Profile.Role)

	// The hash never leaves the server.
	assert.NotContains(t, string(env.Data), "password")

	w, _ = h.do(t, http.MethodPost, "/api/v1/auth/signup", "", signup)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = h.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "priya@example.com", "password": "long enough",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = h.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "priya@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = h.do(t, http.MethodPost, "/api/v1/auth/signup", "", gin.H{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublicEventEndpoints(t *testing.T) {
	h := newHarness(t)

	pub := h.seedEvent(t, func(e *model.Event) { e.Category = "coding" })
	h.seedEvent(t, func(e *model.Event) { e.Status = model.EventStatusDraft })

	w, env := h.do(t, http.MethodGet, "/api/v1/events", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var events []model.Event
	require.NoError(t, json.Unmarshal(env.Data, &events))
	assert.Len(t, events, 1) // drafts are hidden

	w, env = h.do(t, http.MethodGet, "/api/v1/events?category=robotics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	events = nil
	require.NoError(t, json.Unmarshal(env.Data, &events))
	assert.Empty(t, events)

	w, env = h.do(t, http.MethodGet, "/api/v1/events/"+pub.Slug, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got model.Event
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, pub.ID, got.ID)

	w, _ = h.do(t, http.MethodGet, "/api/v1/events/no-such-slug", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = h.do(t, http.MethodGet, "/api/v1/events/"+pub.Slug+"/capacity", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var capacity model.Capacity
	require.NoError(t, json.Unmarshal(env.Data, &capacity))
	assert.Equal(t, 10, capacity.Total)
	assert.Equal(t, 10, capacity.Remaining)
}

func TestRegisterEndpoint(t *testing.T) {
	h := newHarness(t)
	event := h.seedEvent(t, func(e *model.Event) { e.MaxParticipants = 2 })
	registerPath := "/api/v1/events/" + event.Slug + "/register"
	body := gin.H{"team_size": 1}

	t.Run("requires auth", func(t *testing.T) {
		w, _ := h.do(t, http.MethodPost, registerPath, "", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w, _ = h.do(t, http.MethodPost, registerPath, "garbage-token", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	_, token := h.newUser(t, model.RoleUser)

	t.Run("happy path", func(t *testing.T) {
		w, env := h.do(t, http.MethodPost, registerPath, token, body)
		require.Equal(t, http.StatusCreated, w.Code, env.Message)

		var reg model.Registration
		require.NoError(t, json.Unmarshal(env.Data, &reg))
		assert.Equal(t, model.RegistrationConfirmed, reg.Status)
		assert.Equal(t, model.PaymentFree, reg.PaymentStatus)
	})

	t.Run("duplicate is a conflict", func(t *testing.T) {
		w, _ := h.do(t, http.MethodPost, registerPath, token, body)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("full event is a conflict", func(t *testing.T) {
		_, second := h.newUser(t, model.RoleUser)
		w, _ := h.do(t, http.MethodPost, registerPath, second, body)
		require.Equal(t, http.StatusCreated, w.Code)

		_, third := h.newUser(t, model.RoleUser)
		w, env := h.do(t, http.MethodPost, registerPath, third, body)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, env.Message, "full")
	})

	t.Run("closed event is a conflict", func(t *testing.T) {
		closed := h.seedEvent(t, func(e *model.Event) { e.RegistrationOpen = false })
		w, _ := h.do(t, http.MethodPost, "/api/v1/events/"+closed.Slug+"/register", token, body)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("bad team size", func(t *testing.T) {
		open := h.seedEvent(t, nil)
		w, _ := h.do(t, http.MethodPost, "/api/v1/events/"+open.Slug+"/register", token, gin.H{"team_size": 4})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown or draft slug", func(t *testing.T) {
		w, _ := h.do(t, http.MethodPost, "/api/v1/events/nope/register", token, body)
		assert.Equal(t, http.StatusNotFound, w.Code)

		draft := h.seedEvent(t, func(e *model.Event) { e.Status = model.EventStatusDraft })
		w, _ = h.do(t, http.MethodPost, "/api/v1/events/"+draft.Slug+"/register", token, body)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing body", func(t *testing.T) {
		open := h.seedEvent(t, nil)
		w, _ := h.do(t, http.MethodPost, "/api/v1/events/"+open.Slug+"/register", token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRegisterIdempotencyHeader(t *testing.T) {
	h := newHarness(t)
	event := h.seedEvent(t, nil)
	_, token := h.newUser(t, model.RoleUser)

	path := "/api/v1/events/" + event.Slug + "/register"
	send := func() (*httptest.ResponseRecorder, envelope) {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(gin.H{"team_size": 1}))
		req := httptest.NewRequest(http.MethodPost, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", "client-retry-42")
		w := httptest.NewRecorder()
		h.router.ServeHTTP(w, req)
		var env envelope
		_ = json.Unmarshal(w.Body.Bytes(), &env)
		return w, env
	}

	w, env := send()
	require.Equal(t, http.StatusCreated, w.Code)
	var first model.Registration
	require.NoError(t, json.Unmarshal(env.Data, &first))

	// The retried request replays the original registration.
	w, env = send()
	require.Equal(t, http.StatusCreated, w.Code)
	var second model.Registration
	require.NoError(t, json.Unmarshal(env.Data, &second))
	assert.Equal(t, first.ID, second.ID)
}

func TestMyRegistrations(t *testing.T) {
	h := newHarness(t)
	_, token := h.newUser(t, model.RoleUser)

	w, env := h.do(t, http.MethodGet, "/api/v1/registrations", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var regs []model.Registration
	require.NoError(t, json.Unmarshal(env.Data, &regs))
	assert.Empty(t, regs)

	event := h.seedEvent(t, nil)
	w, _ = h.do(t, http.MethodPost, "/api/v1/events/"+event.Slug+"/register", token, gin.H{"team_size": 1})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env = h.do(t, http.MethodGet, "/api/v1/registrations", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	regs = nil
	require.NoError(t, json.Unmarshal(env.Data, &regs))
	require.Len(t, regs, 1)
	assert.Equal(t, event.ID, regs[0].EventID)
}

func TestAdminAccessControl(t *testing.T) {
	h := newHarness(t)

	w, _ := h.do(t, http.MethodGet, "/api/v1/admin/events", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	_, userToken := h.newUser(t, model.RoleUser)
	w, _ = h.do(t, http.MethodGet, "/api/v1/admin/events", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	_, adminToken := h.newUser(t, model.RoleAdmin)
	w, _ = h.do(t, http.MethodGet, "/api/v1/admin/events", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminEventManagement(t *testing.T) {
	h := newHarness(t)
	_, adminToken := h.newUser(t, model.RoleAdmin)

	create := gin.H{
		"name":              "Laser Tag Arena",
		"category":          "gaming",
		"team_size_min":     1,
		"team_size_max":     4,
		"max_participants":  16,
		"registration_open": true,
		"status":            "published",
	}
	w, env := h.do(t, http.MethodPost, "/api/v1/admin/events", adminToken, create)
	require.Equal(t, http.StatusCreated, w.Code, env.Message)
	var event model.Event
	require.NoError(t, json.Unmarshal(env.Data, &event))
	assert.Equal(t, "laser-tag-arena", event.Slug)

	w, _ = h.do(t, http.MethodPost, "/api/v1/admin/events", adminToken, gin.H{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	update := create
	update["max_participants"] = 32
	update["slug"] = event.Slug
	w, env = h.do(t, http.MethodPut, "/api/v1/admin/events/"+event.ID.String(), adminToken, update)
	require.Equal(t, http.StatusOK, w.Code, env.Message)
	var updated model.Event
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, 32, updated.MaxParticipants)

	w, _ = h.do(t, http.MethodPut, "/api/v1/admin/events/not-a-uuid", adminToken, update)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Admin listing shows drafts too.
	h.seedEvent(t, func(e *model.Event) { e.Status = model.EventStatusDraft })
	w, env = h.do(t, http.MethodGet, "/api/v1/admin/events", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []model.Event
	require.NoError(t, json.Unmarshal(env.Data, &all))
	assert.Len(t, all, 2)

	w, _ = h.do(t, http.MethodDelete, "/api/v1/admin/events/"+event.ID.String(), adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = h.do(t, http.MethodDelete, "/api/v1/admin/events/"+event.ID.String(), adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminRegistrationManagement(t *testing.T) {
	h := newHarness(t)
	_, adminToken := h.newUser(t, model.RoleAdmin)
	_, userToken := h.newUser(t, model.RoleUser)

	event := h.seedEvent(t, func(e *model.Event) { e.RegistrationFee = 250 })
	w, env := h.do(t, http.MethodPost, "/api/v1/events/"+event.Slug+"/register", userToken, gin.H{"team_size": 1})
	require.Equal(t, http.StatusCreated, w.Code)
	var reg model.Registration
	require.NoError(t, json.Unmarshal(env.Data, &reg))
	assert.Equal(t, model.PaymentPending, reg.PaymentStatus)

	regPath := "/api/v1/admin/registrations/" + reg.ID.String()

	w, env = h.do(t, http.MethodGet, "/api/v1/admin/events/"+event.ID.String()+"/registrations", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var roster []model.Registration
	require.NoError(t, json.Unmarshal(env.Data, &roster))
	assert.Len(t, roster, 1)

	w, _ = h.do(t, http.MethodPatch, regPath+"/payment", adminToken, gin.H{"payment_status": "paid"})
	assert.Equal(t, http.StatusOK, w.Code)

	// free/refund rules: paid -> paid again is rejected
	w, _ = h.do(t, http.MethodPatch, regPath+"/payment", adminToken, gin.H{"payment_status": "paid"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env = h.do(t, http.MethodPatch, regPath+"/status", adminToken, gin.H{"status": "cancelled"})
	require.Equal(t, http.StatusOK, w.Code)
	var cancelled model.Registration
	require.NoError(t, json.Unmarshal(env.Data, &cancelled))
	assert.Equal(t, model.RegistrationCancelled, cancelled.Status)

	w, _ = h.do(t, http.MethodPatch, regPath+"/status", adminToken, gin.H{"status": "confirmed"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = h.do(t, http.MethodDelete, regPath, adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = h.do(t, http.MethodDelete, regPath, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = h.do(t, http.MethodPatch, "/api/v1/admin/registrations/"+uuid.NewString()+"/status", adminToken, gin.H{"status": "cancelled"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
