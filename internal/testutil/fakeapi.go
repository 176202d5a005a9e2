// Package testutil provides an in-memory stand-in for the remote REST API the
// board client consumes, with hooks to inject failures and malformed bodies.
package testutil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/yukikurage/taskboard-web/internal/models"
	"github.com/yukikurage/taskboard-web/internal/session"
)

const tokenSecret = "fake-api-secret"

// Account is a user registered with the fake API.
type Account struct {
	User     models.User
	Password string
}

type override struct {
	status int
	body   string
	times  int
}

// FakeAPI records every request and serves tasks, auth and admin endpoints.
type FakeAPI struct {
	URL string

	mu        sync.Mutex
	tasks     []models.Task
	nextID    int
	accounts  map[string]*Account
	tokens    map[string]string
	products  []models.Product
	overrides map[string]*override
	requests  []string
	uploads   map[string]string
}

// NewFakeAPI starts the fake on an httptest server closed at test cleanup.
func NewFakeAPI(t testing.TB) *FakeAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &FakeAPI{
		nextID:    100,
		accounts:  map[string]*Account{},
		tokens:    map[string]string{},
		overrides: map[string]*override{},
		uploads:   map[string]string{},
	}
	srv := httptest.NewServer(f.router())
	t.Cleanup(srv.Close)
	f.URL = srv.URL
	return f
}

// SetTasks replaces the stored tasks.
func (f *FakeAPI) SetTasks(tasks ...models.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append([]models.Task(nil), tasks...)
}

// Tasks returns the stored tasks.
func (f *FakeAPI) Tasks() []models.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Task(nil), f.tasks...)
}

// SetNextID sets the id given to the next created task.
func (f *FakeAPI) SetNextID(id int) {
	f.mu.Lock()
	f.nextID = id
	f.mu.Unlock()
}

// SetProducts replaces the admin product list.
func (f *FakeAPI) SetProducts(products ...models.Product) {
	f.mu.Lock()
	f.products = append([]models.Product(nil), products...)
	f.mu.Unlock()
}

// AddAccount registers a user and returns a valid token for it.
func (f *FakeAPI) AddAccount(u models.User, password string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == "" {
		u.ID = "u" + strconv.Itoa(len(f.accounts)+1)
	}
	f.accounts[u.Email] = &Account{User: u, Password: password}
	return f.issueLocked(u)
}

// Account returns the registered account for email.
func (f *FakeAPI) Account(email string) (Account, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[email]
	if !ok {
		return Account{}, false
	}
	return *a, true
}

// Upload returns the content of the image uploaded at signup for email.
func (f *FakeAPI) Upload(email string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.uploads[email]
	return v, ok
}

// Fail makes the next times requests to "METHOD /path" answer status and body.
// times <= 0 means until Reset.
func (f *FakeAPI) Fail(method, path string, status int, body string, times int) {
	f.mu.Lock()
	f.overrides[method+" "+path] = &override{status: status, body: body, times: times}
	f.mu.Unlock()
}

// Reset removes every injected failure.
func (f *FakeAPI) Reset() {
	f.mu.Lock()
	f.overrides = map[string]*override{}
	f.mu.Unlock()
}

// Requests returns "METHOD /path" for every request served so far.
func (f *FakeAPI) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// CountRequests counts served requests whose "METHOD /path" starts with prefix.
func (f *FakeAPI) CountRequests(prefix string) int {
	n := 0
	for _, r := range f.Requests() {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func (f *FakeAPI) issueLocked(u models.User) string {
	claims := session.Claims{
		UserID:   u.ID,
		Email:    u.Email,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(7 * 24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        strconv.Itoa(len(f.tokens) + 1),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(tokenSecret))
	if err != nil {
		panic(err)
	}
	f.tokens[tok] = u.Email
	return tok
}

func (f *FakeAPI) router() *gin.Engine {
	r := gin.New()
	r.Use(f.record())

	r.GET("/tasks", f.listTasks)
	r.POST("/tasks", f.createTask)
	r.PUT("/tasks/:id", f.updateTask)
	r.DELETE("/tasks/:id", f.deleteTask)

	r.POST("/auth/login", f.login)
	r.POST("/auth/signup", f.signup)
	r.POST("/auth/logout", f.requireToken, f.logout)
	r.GET("/auth/current-user", f.requireToken, f.currentUser)
	r.PUT("/auth/update-profile", f.requireToken, f.updateProfile)

	r.GET("/admin/users", f.requireToken, f.requireAdmin, f.listUsers)
	r.GET("/admin/products", f.requireToken, f.requireAdmin, f.listProducts)
	return r
}

func (f *FakeAPI) record() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Request.Method + " " + c.Request.URL.Path
		f.mu.Lock()
		f.requests = append(f.requests, key)
		o, ok := f.overrides[key]
		if ok && o.times > 0 {
			o.times--
			if o.times == 0 {
				delete(f.overrides, key)
			}
		}
		f.mu.Unlock()

		if ok {
			c.Data(o.status, "application/json", []byte(o.body))
			c.Abort()
			return
		}
		c.Next()
	}
}

func (f *FakeAPI) listTasks(c *gin.Context) {
	tasks := f.Tasks()
	if tasks == nil {
		tasks = []models.Task{}
	}
	c.JSON(http.StatusOK, tasks)
}

func (f *FakeAPI) createTask(c *gin.Context) {
	var draft models.Draft
	if err := c.ShouldBindJSON(&draft); err != nil || strings.TrimSpace(draft.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Title is required"})
		return
	}
	if draft.Status == "" {
		draft.Status = models.StatusTodo
	}
	if !draft.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid status"})
		return
	}

	f.mu.Lock()
	task := draft.Task(strconv.Itoa(f.nextID))
	f.nextID++
	f.tasks = append(f.tasks, task)
	f.mu.Unlock()

	c.JSON(http.StatusCreated, task)
}

func (f *FakeAPI) updateTask(c *gin.Context) {
	var task models.Task
	if err := c.ShouldBindJSON(&task); err != nil || strings.TrimSpace(task.Title) == "" || !task.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid task"})
		return
	}
	id := c.Param("id")
	task.ID = id

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks[i] = task
			c.JSON(http.StatusOK, task)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "Task not found"})
}

func (f *FakeAPI) deleteTask(c *gin.Context) {
	id := c.Param("id")

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "Task not found"})
}

func (f *FakeAPI) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[req.Email]
	if !ok || a.Password != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": f.issueLocked(a.User)})
}

func (f *FakeAPI) signup(c *gin.Context) {
	u := models.User{
		Username: c.PostForm("username"),
		Email:    c.PostForm("email"),
		Address:  c.PostForm("address"),
		Country:  c.PostForm("country"),
		City:     c.PostForm("city"),
	}
	password := c.PostForm("password")
	if u.Email == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email and password are required"})
		return
	}

	var upload string
	if fh, err := c.FormFile("image"); err == nil {
		if src, err := fh.Open(); err == nil {
			data, _ := io.ReadAll(src)
			src.Close()
			upload = string(data)
		}
		u.Image = "/uploads/" + fh.Filename
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.accounts[u.Email]; exists {
		c.JSON(http.StatusConflict, gin.H{"message": "User already exists"})
		return
	}
	u.ID = "u" + strconv.Itoa(len(f.accounts)+1)
	f.accounts[u.Email] = &Account{User: u, Password: password}
	if upload != "" {
		f.uploads[u.Email] = upload
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Account created"})
}

func (f *FakeAPI) requireToken(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")

	f.mu.Lock()
	email, ok := f.tokens[token]
	f.mu.Unlock()
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
		return
	}
	c.Set("email", email)
	c.Set("token", token)
	c.Next()
}

func (f *FakeAPI) requireAdmin(c *gin.Context) {
	a, _ := f.Account(c.GetString("email"))
	if a.User.Role != "admin" {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Admin only"})
		return
	}
	c.Next()
}

func (f *FakeAPI) logout(c *gin.Context) {
	f.mu.Lock()
	delete(f.tokens, c.GetString("token"))
	f.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (f *FakeAPI) currentUser(c *gin.Context) {
	a, ok := f.Account(c.GetString("email"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": a.User})
}

func (f *FakeAPI) updateProfile(c *gin.Context) {
	var in models.ProfileUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[c.GetString("email")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if in.Username != "" {
		a.User.Username = in.Username
	}
	if in.Address != "" {
		a.User.Address = in.Address
	}
	if in.Country != "" {
		a.User.Country = in.Country
	}
	if in.City != "" {
		a.User.City = in.City
	}
	c.JSON(http.StatusOK, gin.H{"user": a.User})
}

func (f *FakeAPI) listUsers(c *gin.Context) {
	f.mu.Lock()
	users := make([]models.User, 0, len(f.accounts))
	for _, a := range f.accounts {
		users = append(users, a.User)
	}
	f.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (f *FakeAPI) listProducts(c *gin.Context) {
	f.mu.Lock()
	products := append([]models.Product{}, f.products...)
	f.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// Task is a shorthand for building tasks in tests.
func Task(id, title string, status models.Status) models.Task {
	return models.Task{ID: id, Title: title, Status: status}
}

// String renders tasks as "id:status" pairs for compact assertions.
func String(tasks []models.Task) string {
	parts := make([]string, len(tasks))
	for i, t := range tasks {
		parts[i] = fmt.Sprintf("%s:%s", t.ID, t.Status)
	}
	return strings.Join(parts, ",")
}
