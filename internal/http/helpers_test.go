package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"marketplace/internal/config"
	"marketplace/internal/domain"
	"marketplace/internal/http/handlers"
	"marketplace/internal/repos"
)

const password = "Str0ng!pass"

// envelope mirrors handlers.Envelope with a raw data payload.
type envelope struct {
	Status  bool              `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
	Code    string            `json:"code"`
}

// keys records confirmation keys instead of mailing them.
type keys map[string]string

func (k keys) SendConfirmation(_ context.Context, u *domain.User, token string) error {
	k[u.Email] = token
	return nil
}

type server struct {
	t    *testing.T
	app  *fiber.App
	db   *sqlx.DB
	deps *handlers.Deps
	keys keys
}

func newServer(t *testing.T, mutate ...func(*config.Config)) *server {
	t.Helper()
	cfg := config.Test()
	for _, m := range mutate {
		m(&cfg)
	}
	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	deps := handlers.NewDeps(db, cfg, nil)
	k := keys{}
	deps.Auth.Notify = k
	return &server{t: t, app: handlers.NewApp(deps), db: db, deps: deps, keys: k}
}

// call sends a JSON request and decodes the envelope.
func (s *server) call(method, path, token string, body any) (int, envelope) {
	s.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		s.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			s.t.Fatalf("%s %s: body is not an envelope: %s", method, path, raw)
		}
	}
	return resp.StatusCode, env
}

func (s *server) mustCall(want int, method, path, token string, body any, out any) envelope {
	s.t.Helper()
	status, env := s.call(method, path, token, body)
	if status != want {
		s.t.Fatalf("%s %s: want %d, got %d (%s: %s %v)", method, path, want, status, env.Code, env.Message, env.Errors)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			s.t.Fatalf("%s %s: decode data: %v", method, path, err)
		}
	}
	return env
}

// signup registers, confirms and logs in an account, returning its token.
func (s *server) signup(email string, role domain.Role) string {
	s.t.Helper()
	body := map[string]string{
		"first_name": "Test",
		"last_name":  "User",
		"email":      email,
		"password":   password,
	}
	path := "/api/v1/user/registration"
	if role == domain.RoleSeller {
		path = "/api/v1/partner/registration"
		body["company"] = "Acme Ltd"
		body["position"] = "Manager"
	}
	s.mustCall(http.StatusCreated, "POST", path, "", body, nil)
	s.mustCall(http.StatusOK, "POST", "/api/v1/user/registration/confirm", "",
		map[string]string{"email": email, "token": s.keys[email]}, nil)

	var out struct {
		Token string `json:"token"`
	}
	s.mustCall(http.StatusOK, "POST", "/api/v1/user/login", "",
		map[string]string{"email": email, "password": password}, &out)
	if out.Token == "" {
		s.t.Fatal("login returned no token")
	}
	return out.Token
}

// servePriceList publishes a YAML document over HTTP and returns its URL.
func servePriceList(t *testing.T, doc string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")
		_, _ = io.WriteString(w, doc)
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/pricelist.yaml"
}

const shopList = `
shop: Gadget Hub
categories:
  - id: 10
    name: Phones
goods:
  - name: Phone X
    category: 10
    model: px-1
    price: 900
    price_rrc: 1000
    quantity: 5
    parameters:
      Color: black
      Memory: 128
  - name: Phone Mini
    category: 10
    model: pm-2
    price: 400
    price_rrc: 500
    quantity: 2
    parameters: {}
`
