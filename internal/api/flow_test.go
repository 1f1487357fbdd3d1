// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/samber/oops"

	"github.com/wabbit/wabbit/internal/api"
	"github.com/wabbit/wabbit/internal/auth"
	"github.com/wabbit/wabbit/internal/sessionstore"
)

// userTable is an in-memory auth.UserRepository.
type userTable struct {
	mu    sync.Mutex
	users []auth.User
}

func (t *userTable) Create(_ context.Context, u *auth.User) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, existing := range t.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return oops.Wrap(auth.ErrDuplicateUsername)
		}
		if strings.EqualFold(existing.Email, u.Email) {
			return oops.Wrap(auth.ErrDuplicateEmail)
		}
	}
	u.ID = int64(len(t.users) + 1)
	t.users = append(t.users, *u)
	return nil
}

func (t *userTable) get(match func(auth.User) bool) (*auth.User, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, u := range t.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (t *userTable) GetByID(_ context.Context, id int64) (*auth.User, error) {
	return t.get(func(u auth.User) bool { return u.ID == id })
}

func (t *userTable) GetByUsername(_ context.Context, name string) (*auth.User, error) {
	return t.get(func(u auth.User) bool { return strings.EqualFold(u.Username, name) })
}

func (t *userTable) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	return t.get(func(u auth.User) bool { return strings.EqualFold(u.Email, email) })
}

func (t *userTable) UpdatePassword(_ context.Context, id int64, hash string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.users {
		if t.users[i].ID == id {
			t.users[i].PasswordHash = hash
			return nil
		}
	}
	return auth.ErrNotFound
}

type inbox struct {
	mu     sync.Mutex
	bodies []string
}

func (b *inbox) Send(_ context.Context, _, _, body string) error {
	b.mu.Lock()
	b.bodies = append(b.bodies, body)
	b.mu.Unlock()
	return nil
}

func (b *inbox) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.bodies)
}

var tokenInLink = regexp.MustCompile(`/change-password/([0-9a-f]+)`)

func (b *inbox) lastToken() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	Expect(b.bodies).NotTo(BeEmpty())
	m := tokenInLink.FindStringSubmatch(b.bodies[len(b.bodies)-1])
	Expect(m).To(HaveLen(2))
	return m[1]
}

// client posts operations with a cookie jar, like a browser.
type client struct {
	http *http.Client
	url  string
}

type envelope struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []api.ErrorBody            `json:"errors"`
}

type userPayload struct {
	User *struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Avatar   string `json:"avatar"`
	} `json:"user"`
	Errors []auth.FieldError `json:"errors"`
}

func (c *client) call(operation string, variables any) (int, envelope) {
	body, err := json.Marshal(map[string]any{"operation": operation, "variables": variables})
	Expect(err).NotTo(HaveOccurred())

	resp, err := c.http.Post(c.url+"/graphql", "application/json", bytes.NewReader(body))
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()

	var env envelope
	Expect(json.NewDecoder(resp.Body).Decode(&env)).To(Succeed())
	return resp.StatusCode, env
}

func (c *client) user(operation string, variables any) userPayload {
	status, env := c.call(operation, variables)
	Expect(status).To(Equal(http.StatusOK))
	var p userPayload
	Expect(json.Unmarshal(env.Data[operation], &p)).To(Succeed())
	return p
}

func (c *client) boolean(operation string, variables any) bool {
	status, env := c.call(operation, variables)
	Expect(status).To(Equal(http.StatusOK))
	var b bool
	Expect(json.Unmarshal(env.Data[operation], &b)).To(Succeed())
	return b
}

func (c *client) me() *auth.User {
	status, env := c.call("me", nil)
	Expect(status).To(Equal(http.StatusOK))
	var u *auth.User
	Expect(json.Unmarshal(env.Data["me"], &u)).To(Succeed())
	return u
}

var _ = Describe("auth flow over HTTP", func() {
	var (
		server   *httptest.Server
		sessions *sessionstore.Memory
		mail     *inbox
		newClient func() *client
	)

	BeforeEach(func() {
		hasher, err := auth.NewArgon2idHasherWithParams(auth.Argon2idParams{Time: 1, Memory: 1024, Threads: 1})
		Expect(err).NotTo(HaveOccurred())

		sessions = sessionstore.NewMemory()
		mail = &inbox{}
		svc, err := auth.NewService(&userTable{}, sessions, hasher, mail, auth.Config{
			ResetBaseURL: "http://localhost:3000",
		})
		Expect(err).NotTo(HaveOccurred())

		h, err := api.NewHandler(api.Operations(svc), api.CookieConfig{Name: "qid", TTL: time.Hour}, nil, nil)
		Expect(err).NotTo(HaveOccurred())
		server = httptest.NewServer(api.NewRouter(h, nil, nil))

		newClient = func() *client {
			jar, err := cookiejar.New(nil)
			Expect(err).NotTo(HaveOccurred())
			return &client{http: &http.Client{Jar: jar}, url: server.URL}
		}
	})

	AfterEach(func() {
		server.Close()
		Expect(sessions.Close()).To(Succeed())
	})

	register := func(c *client, username, email string) userPayload {
		return c.user("register", map[string]any{
			"options": map[string]any{"username": username, "email": email, "password": "carrot"},
		})
	}

	It("logs a user in on register and out on logout", func() {
		c := newClient()
		Expect(c.me()).To(BeNil())

		p := register(c, "bunny", "bunny@example.com")
		Expect(p.Errors).To(BeEmpty())
		Expect(p.User.Username).To(Equal("bunny"))

		me := c.me()
		Expect(me).NotTo(BeNil())
		Expect(me.ID).To(Equal(p.User.ID))

		Expect(c.boolean("logout", nil)).To(BeTrue())
		Expect(c.me()).To(BeNil())
		Expect(sessions.Len()).To(BeZero())
	})

	It("reports field errors without setting a cookie", func() {
		c := newClient()
		p := register(c, "bun", "bunny@example.com")
		Expect(p.User).To(BeNil())
		Expect(p.Errors).To(Equal([]auth.FieldError{{Field: "username", Message: "username length should be greater than 3"}}))
		Expect(c.me()).To(BeNil())
	})

	It("logs in by username or email", func() {
		register(newClient(), "bunny", "bunny@example.com")

		for _, id := range []string{"bunny", "BUNNY@example.com"} {
			c := newClient()
			p := c.user("login", map[string]any{"usernameOrEmail": id, "password": "carrot"})
			Expect(p.Errors).To(BeEmpty())
			Expect(c.me()).NotTo(BeNil())
		}

		p := newClient().user("login", map[string]any{"usernameOrEmail": "hare", "password": "carrot"})
		Expect(p.Errors).To(Equal([]auth.FieldError{{Field: "usernameOrEmail", Message: "username does not exist"}}))
	})

	It("resets a forgotten password once", func() {
		owner := newClient()
		created := register(owner, "bunny", "bunny@example.com")

		stranger := newClient()
		Expect(stranger.boolean("forgotPassword", map[string]any{"email": "nobody@example.com"})).To(BeTrue())
		Expect(mail.count()).To(BeZero())

		Expect(stranger.boolean("forgotPassword", map[string]any{"email": "bunny@example.com"})).To(BeTrue())
		token := mail.lastToken()

		p := stranger.user("changePassword", map[string]any{"token": token, "newPassword": "lettuce"})
		Expect(p.Errors).To(BeEmpty())
		Expect(stranger.me().ID).To(Equal(created.User.ID))

		again := newClient().user("changePassword", map[string]any{"token": token, "newPassword": "radish"})
		Expect(again.Errors).To(Equal([]auth.FieldError{{Field: "token", Message: "token expired"}}))

		Expect(owner.me()).NotTo(BeNil())
		login := newClient().user("login", map[string]any{"usernameOrEmail": "bunny", "password": "lettuce"})
		Expect(login.Errors).To(BeEmpty())
	})

	It("looks users up by id", func() {
		created := register(newClient(), "bunny", "bunny@example.com")

		status, env := newClient().call("user", map[string]any{"id": created.User.ID})
		Expect(status).To(Equal(http.StatusOK))
		Expect(string(env.Data["user"])).To(ContainSubstring(`"username":"bunny"`))
		Expect(string(env.Data["user"])).NotTo(ContainSubstring("argon2id"))

		status, env = newClient().call("user", map[string]any{"id": 999})
		Expect(status).To(Equal(http.StatusOK))
		Expect(string(env.Data["user"])).To(Equal("null"))
	})

	It("rejects variables that do not match the operation schema", func() {
		status, env := newClient().call("login", map[string]any{"usernameOrEmail": "bunny"})
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(env.Errors).To(HaveLen(1))
		Expect(env.Errors[0].Code).To(Equal("INVALID_VARIABLES"))
	})
})
