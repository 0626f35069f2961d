package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Abiorh001/notify-hub/internal/config"
	"github.com/Abiorh001/notify-hub/internal/middleware"
	"github.com/Abiorh001/notify-hub/internal/models"
	"github.com/Abiorh001/notify-hub/internal/repository"
	"github.com/Abiorh001/notify-hub/internal/service"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "handlers-test-secret-0123456789abcdefgh"

var claimsIdentity = models.Identity{ID: "u-123", IsActive: true}

type memUsers struct {
	mu      sync.Mutex
	byID    map[string]*models.User
	byEmail map[string]string
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*models.User{}, byEmail: map[string]string{}}
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	id, ok := m.byEmail[email]
	m.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return m.GetByID(ctx, id)
}

func (m *memUsers) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.byEmail[user.Email]; taken {
		return repository.ErrEmailTaken
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	c := *user
	m.byID[user.ID] = &c
	m.byEmail[user.Email] = user.ID
	return nil
}

func (m *memUsers) Update(ctx context.Context, user *models.User, previousEmail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[user.ID]; !ok {
		return repository.ErrNotFound
	}
	if owner, taken := m.byEmail[user.Email]; taken && owner != user.ID {
		return repository.ErrEmailTaken
	}
	delete(m.byEmail, previousEmail)
	c := *user
	m.byID[user.ID] = &c
	m.byEmail[user.Email] = user.ID
	return nil
}

func (m *memUsers) Delete(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, user.ID)
	delete(m.byEmail, user.Email)
	return nil
}

func (m *memUsers) AssignRole(ctx context.Context, userID, roleID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return nil, nil
	}
	u.RoleID = roleID
	c := *u
	return &c, nil
}

type memRoles struct {
	mu    sync.Mutex
	byID  map[string]*models.Role
	names map[string]bool
}

func newMemRoles() *memRoles {
	return &memRoles{byID: map[string]*models.Role{}, names: map[string]bool{}}
}

func (m *memRoles) GetByID(ctx context.Context, id string) (*models.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id], nil
}

func (m *memRoles) Create(ctx context.Context, role *models.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.names[role.Name] {
		return repository.ErrRoleExists
	}
	role.ID = uuid.New().String()
	m.byID[role.ID] = role
	m.names[role.Name] = true
	return nil
}

type memRecipients struct {
	mu    sync.Mutex
	items []models.Recipient
}

func (m *memRecipients) Create(ctx context.Context, recipient *models.Recipient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	recipient.ID = uuid.New().String()
	recipient.CreatedAt = time.Now().UTC()
	m.items = append(m.items, *recipient)
	return nil
}

func (m *memRecipients) GetByID(ctx context.Context, id string) (*models.Recipient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			c := m.items[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memRecipients) ListByCreator(ctx context.Context, ownerID string) ([]models.Recipient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Recipient{}
	for _, r := range m.items {
		if r.CreatedBy == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fixture struct {
	users      *memUsers
	roles      *memRoles
	recipients *memRecipients
	tokens     *service.TokenService
	hasher     *service.PasswordHasher
	mini       *miniredis.Miniredis

	auth      *AuthHandlers
	user      *UserHandlers
	recipient *RecipientHandlers
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { client.Close() })

	codec, err := service.NewTokenCodec(testSecret, "HS256")
	require.NoError(t, err)
	tokens := service.NewTokenService(codec, service.NewRevocationStore(client, time.Hour, logger), &config.JWTConfig{
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
	}, logger)

	f := &fixture{
		users:      newMemUsers(),
		roles:      newMemRoles(),
		recipients: &memRecipients{},
		tokens:     tokens,
		hasher:     service.NewPasswordHasher(bcrypt.MinCost),
		mini:       mini,
	}
	v := NewValidator()
	f.auth = NewAuthHandlers(tokens, f.hasher, f.users, v, logger)
	f.user = NewUserHandlers(f.users, f.roles, f.hasher, v, logger)
	f.recipient = NewRecipientHandlers(f.recipients, v, logger)
	return f
}

func (f *fixture) seedUser(t *testing.T, email, password string) *models.User {
	t.Helper()
	digest, err := f.hasher.HashPassword(password)
	require.NoError(t, err)
	user := &models.User{Email: email, Password: digest, FirstName: "Ada", LastName: "Lovelace", IsActive: true}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

// accessClaims issues an access token for subject and returns its decoded claims.
func (f *fixture) accessClaims(t *testing.T, subject string) *service.Claims {
	t.Helper()
	token, err := f.tokens.IssueAccessToken(subject)
	require.NoError(t, err)
	claims := f.tokens.Decode(token)
	require.NotNil(t, claims)
	return claims
}

type call struct {
	method   string
	path     string
	body     interface{}
	identity *models.Identity
	claims   *service.Claims
	vars     map[string]string
}

func (c call) serve(h http.HandlerFunc) *httptest.ResponseRecorder {
	var body io.Reader = http.NoBody
	switch b := c.body.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(c.method, c.path, body)
	if c.identity != nil {
		req = req.WithContext(middleware.WithIdentity(req.Context(), c.identity, c.claims))
	}
	if c.vars != nil {
		req = mux.SetURLVars(req, c.vars)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body middleware.ErrorResponse
	decodeBody(t, rec, &body)
	return body.Error.Code
}
