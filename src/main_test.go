package main

import (
	"encoding/hex"
	"encoding/json"
	"ers/src/lib"
	"ers/src/middlewares"
	"ers/src/models"
	"ers/src/store"
	"ers/src/types"
	"ers/src/utils"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/stripe/stripe-go/v82"
	"github.com/tidwall/gjson"
)

type TestSuite struct {
	suite.Suite
	Router *gin.Engine
	Mem    *store.MemoryStore
	Token  string
}

func generateJWT(email, name string, id uint) (string, error) {
	now := time.Now()
	claims := &types.Claims{
		Name:  name,
		Email: email,
		Role:  "attendee",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(int(id)),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

func seedEvent(mem *store.MemoryStore) {
	mem.SeedEvent(&models.Event{
		ID:       1,
		Title:    "Blockchain Summit 2026",
		Location: "Moscone Center",
		DateTime: time.Date(2026, 9, 12, 18, 30, 0, 0, time.UTC),
		Status:   types.EVENT_PUBLISHED,
		Tiers: []models.TicketTier{
			{
				ID:        7,
				EventID:   1,
				Name:      "VIP Access",
				Price:     decimal.NewFromInt(299),
				Currency:  "USD",
				Available: true,
			},
			{
				ID:        8,
				EventID:   1,
				Name:      "Sold Out Tier",
				Price:     decimal.NewFromInt(99),
				Currency:  "USD",
				Available: false,
			},
		},
	})
}

func (s *TestSuite) SetupSuite() {
	lib.NewRedisClient(redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"}))
	os.Setenv("API_QRC_SECRET", strings.Repeat("ab", 32))
	tempdir, err := os.MkdirTemp("", "ers-test")
	require.NoError(s.T(), err)
	os.Setenv("TEMP_DIR", tempdir)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("bookabledate", eventDateTimeValidatorFunc)
	}

	s.Mem = store.NewMemoryStore()
	store.NewStore(s.Mem)
	seedEvent(s.Mem)

	lib.NewStripeClient(stripe.NewClient("sk_test_ers"))
	registerGateways()

	router := setupRouter()
	guestAuthRoutes(router)
	publicEventRoutes(router)
	authorized := router.Group(apiPrefix)
	authorized.Use(middlewares.AuthMiddleware)
	registrationHandlers(authorized)
	ticketHandlers(authorized)
	rewardHandlers(authorized)
	s.Router = router

	user, err := s.Mem.FindOrCreateUser(nil, "ada@example.com", "Ada Lovelace")
	if err != nil {
		log.Fatalf("Could not create user due to error: %s\n", err.Error())
	}
	token, err := generateJWT(user.Email, user.Name, user.ID)
	if err != nil {
		log.Fatalf("Error generating JWT token: %s\n", err.Error())
	}
	s.Token = token
}

func (s *TestSuite) doJSON(method, url string, body any) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.T(), err)
		reader = strings.NewReader(string(b))
	} else {
		reader = strings.NewReader("")
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(s.T(), err)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.Token))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func (s *TestSuite) TestPingRoute() {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	s.Router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestAuthRequired() {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/tickets", nil)
	s.Router.ServeHTTP(w, req)

	assert.Equal(s.T(), 401, w.Code)
}

func (s *TestSuite) TestLogin() {
	w := httptest.NewRecorder()
	body := strings.NewReader(`{"email":"grace@example.com","name":"Grace Hopper"}`)
	req, _ := http.NewRequest("POST", "/api/v1/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	s.Router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
	token := gjson.Get(w.Body.String(), "token").String()
	assert.NotEmpty(s.T(), token)
}

func (s *TestSuite) TestPublicEventListing() {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/events/1", nil)
	s.Router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
	sjson := w.Body.String()
	assert.Equal(s.T(), "Blockchain Summit 2026", gjson.Get(sjson, "data.title").String())
	assert.Equal(s.T(), int64(2), gjson.Get(sjson, "data.ticket_tiers.#").Int())

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/v1/events/999", nil)
	s.Router.ServeHTTP(w, req)
	assert.Equal(s.T(), 404, w.Code)
}

func (s *TestSuite) TestRegistrationValidationGate() {
	w := s.doJSON("POST", "/api/v1/events/1/registrations", map[string]any{"provider": "stellar"})
	require.Equal(s.T(), 201, w.Code)
	sid := gjson.Get(w.Body.String(), "session_id").String()
	require.NotEmpty(s.T(), sid)

	// phone and tier missing, the gate must hold the step
	w = s.doJSON("POST", fmt.Sprintf("/api/v1/registrations/%s/advance", sid), nil)
	assert.Equal(s.T(), 422, w.Code)
	sjson := w.Body.String()
	assert.Greater(s.T(), gjson.Get(sjson, "fields.#").Int(), int64(0))

	w = s.doJSON("GET", fmt.Sprintf("/api/v1/registrations/%s", sid), nil)
	require.Equal(s.T(), 200, w.Code)
	sjson = w.Body.String()
	assert.Equal(s.T(), "personal_info", gjson.Get(sjson, "state").String())
	// prefill from the token claims survived the failed advance
	assert.Equal(s.T(), "Ada Lovelace", gjson.Get(sjson, "draft.contact.name").String())

	w = s.doJSON("DELETE", fmt.Sprintf("/api/v1/registrations/%s", sid), nil)
	assert.Equal(s.T(), 204, w.Code)
}

func (s *TestSuite) TestFullRegistrationFlow() {
	w := s.doJSON("POST", "/api/v1/events/1/registrations", map[string]any{"provider": "stellar"})
	require.Equal(s.T(), 201, w.Code)
	sid := gjson.Get(w.Body.String(), "session_id").String()
	require.NotEmpty(s.T(), sid)

	for _, f := range []map[string]any{
		{"field": "contact.phone", "value": "+1-555-0100"},
		{"field": "ticket_tier_id", "value": 7},
	} {
		w = s.doJSON("PUT", fmt.Sprintf("/api/v1/registrations/%s/fields", sid), f)
		require.Equal(s.T(), 200, w.Code)
	}

	w = s.doJSON("POST", fmt.Sprintf("/api/v1/registrations/%s/advance", sid), nil)
	require.Equal(s.T(), 200, w.Code)
	assert.Equal(s.T(), "extras", gjson.Get(w.Body.String(), "state").String())

	w = s.doJSON("PUT", fmt.Sprintf("/api/v1/registrations/%s/team/0", sid), map[string]any{"name": "Grace Hopper"})
	require.Equal(s.T(), 200, w.Code)
	w = s.doJSON("POST", fmt.Sprintf("/api/v1/registrations/%s/team", sid), nil)
	require.Equal(s.T(), 200, w.Code)
	assert.Equal(s.T(), int64(2), gjson.Get(w.Body.String(), "draft.extras.team_members.#").Int())

	w = s.doJSON("POST", fmt.Sprintf("/api/v1/registrations/%s/advance", sid), nil)
	require.Equal(s.T(), 200, w.Code)
	assert.Equal(s.T(), "confirmation", gjson.Get(w.Body.String(), "state").String())

	// terms not accepted yet
	w = s.doJSON("POST", fmt.Sprintf("/api/v1/registrations/%s/submit", sid), nil)
	require.Equal(s.T(), 422, w.Code)

	w = s.doJSON("PUT", fmt.Sprintf("/api/v1/registrations/%s/fields", sid), map[string]any{
		"field": "agreed_to_terms", "value": true,
	})
	require.Equal(s.T(), 200, w.Code)

	w = s.doJSON("POST", fmt.Sprintf("/api/v1/registrations/%s/submit", sid), nil)
	require.Equal(s.T(), 201, w.Code)
	sjson := w.Body.String()
	assert.Equal(s.T(), "succeeded", gjson.Get(sjson, "state").String())
	ticketNumber := gjson.Get(sjson, "ticket.ticket_number").String()
	assert.True(s.T(), strings.HasPrefix(ticketNumber, "TIX-"))
	assert.Equal(s.T(), "VIP Access", gjson.Get(sjson, "ticket.ticket_type").String())
	assert.Equal(s.T(), "upcoming", gjson.Get(sjson, "ticket.status").String())
	ticketId := gjson.Get(sjson, "ticket.id").Uint()
	require.Greater(s.T(), ticketId, uint64(0))

	// the session is gone once the flow completes
	w = s.doJSON("GET", fmt.Sprintf("/api/v1/registrations/%s", sid), nil)
	assert.Equal(s.T(), 404, w.Code)

	s.Run("ticket is listed and fetchable", func() {
		w := s.doJSON("GET", "/api/v1/tickets", nil)
		require.Equal(s.T(), 200, w.Code)
		assert.Greater(s.T(), gjson.Get(w.Body.String(), "data.#").Int(), int64(0))

		w = s.doJSON("GET", fmt.Sprintf("/api/v1/tickets/%d", ticketId), nil)
		require.Equal(s.T(), 200, w.Code)
		assert.Equal(s.T(), ticketNumber, gjson.Get(w.Body.String(), "data.ticket_number").String())
	})

	s.Run("points were credited for the purchase", func() {
		w := s.doJSON("GET", "/api/v1/rewards", nil)
		require.Equal(s.T(), 200, w.Code)
		assert.Equal(s.T(), int64(299), gjson.Get(w.Body.String(), "total_points").Int())
	})

	s.Run("qr code is generated for the upcoming ticket", func() {
		w := s.doJSON("GET", fmt.Sprintf("/api/v1/tickets/%d/qrcode", ticketId), nil)
		require.Equal(s.T(), 200, w.Code)
		assert.Contains(s.T(), w.Header().Get("Content-Disposition"), "eticket.jpeg")
	})

	s.Run("check-in verifies the e-ticket code", func() {
		key, err := hex.DecodeString(os.Getenv("API_QRC_SECRET"))
		require.NoError(s.T(), err)
		payload, err := json.Marshal(map[string]any{"ticketId": ticketId, "ticketNumber": ticketNumber})
		require.NoError(s.T(), err)
		code, err := utils.EncryptMessage(key, string(payload))
		require.NoError(s.T(), err)

		w := s.doJSON("PATCH", fmt.Sprintf("/api/v1/tickets/%d/checkin", ticketId), map[string]any{"code": "bogus"})
		assert.Equal(s.T(), 400, w.Code)

		w = s.doJSON("PATCH", fmt.Sprintf("/api/v1/tickets/%d/checkin", ticketId), map[string]any{"code": code})
		assert.Equal(s.T(), 204, w.Code)

		// a second admission with the same code is rejected
		w = s.doJSON("PATCH", fmt.Sprintf("/api/v1/tickets/%d/checkin", ticketId), map[string]any{"code": code})
		assert.Equal(s.T(), 409, w.Code)
	})
}

func (s *TestSuite) TestRetreatFromFirstStepCancelsSession() {
	w := s.doJSON("POST", "/api/v1/events/1/registrations", map[string]any{})
	require.Equal(s.T(), 201, w.Code)
	sid := gjson.Get(w.Body.String(), "session_id").String()

	w = s.doJSON("POST", fmt.Sprintf("/api/v1/registrations/%s/retreat", sid), nil)
	require.Equal(s.T(), 200, w.Code)
	assert.Equal(s.T(), "cancelled", gjson.Get(w.Body.String(), "state").String())

	w = s.doJSON("GET", fmt.Sprintf("/api/v1/registrations/%s", sid), nil)
	assert.Equal(s.T(), 404, w.Code)
}

func (s *TestSuite) TestEventListingWithoutRedis() {
	// an unparsable REDIS_HOST leaves the process without a cache client; the
	// listing must fall back to the store instead of panicking
	prev := lib.GetRedisClient()
	os.Setenv("REDIS_HOST", "not-a-url")
	lib.NewRedisClient(nil)
	defer lib.NewRedisClient(prev)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/events", nil)
	s.Router.ServeHTTP(w, req)

	require.Equal(s.T(), 200, w.Code)
	assert.Greater(s.T(), gjson.Get(w.Body.String(), "data.#").Int(), int64(0))
}

func (s *TestSuite) TestUnknownProviderRejected() {
	w := s.doJSON("POST", "/api/v1/events/1/registrations", map[string]any{"provider": "paypal"})
	assert.Equal(s.T(), 400, w.Code)
}

func TestRunner(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
