package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "clinicare/cli/internal/errors"
)

// fakeAPI mirrors the subset of the ClinicCare API the client talks to.
type fakeAPI struct {
	mu       sync.Mutex
	requests []*http.Request
	token    string
	codes    map[int64]DiagnosisCode
	notes    map[int64]Consultation
	nextID   int64
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{
		token: "tok-1",
		codes: map[int64]DiagnosisCode{
			1: {ID: 1, Code: "J10.1", Description: "Influenza with other respiratory manifestations"},
			2: {ID: 2, Code: "I10", Description: "Essential (primary) hypertension"},
		},
		notes:  map[int64]Consultation{},
		nextID: 1,
	}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			f.mu.Lock()
			f.requests = append(f.requests, req.Clone(context.Background()))
			f.mu.Unlock()
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
		})
		r.Post("/auth/login-json", func(w http.ResponseWriter, req *http.Request) {
			var c Credentials
			_ = json.NewDecoder(req.Body).Decode(&c)
			if c.Password != "secret" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect username or password"})
				return
			}
			writeJSON(w, http.StatusOK, AuthResponse{AccessToken: f.token, TokenType: "bearer", Doctor: Doctor{ID: 7, Username: c.Username}})
		})
		r.Post("/auth/register", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": []map[string]any{
				{"loc": []any{"body", "email"}, "msg": "value is not a valid email address"},
				{"loc": []any{"body", "password"}, "msg": "too short"},
			}})
		})
		r.Group(func(r chi.Router) {
			r.Use(f.requireBearer)
			r.Get("/auth/me", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, Doctor{ID: 7, Username: "house", FullName: "Gregory House"})
			})
			r.Get("/auth/doctors", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, []Doctor{{ID: 7, Username: "house"}, {ID: 8, Username: "wilson"}})
			})
			r.Get("/consultation", func(w http.ResponseWriter, _ *http.Request) {
				f.mu.Lock()
				defer f.mu.Unlock()
				list := ConsultationList{Consultations: []Consultation{}}
				for _, n := range f.notes {
					list.Consultations = append(list.Consultations, n)
				}
				list.Total = len(list.Consultations)
				writeJSON(w, http.StatusOK, list)
			})
			r.Get("/consultation/{id}", func(w http.ResponseWriter, req *http.Request) {
				id, _ := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
				f.mu.Lock()
				n, ok := f.notes[id]
				f.mu.Unlock()
				if !ok {
					writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Consultation not found"})
					return
				}
				writeJSON(w, http.StatusOK, n)
			})
			r.Post("/consultation", func(w http.ResponseWriter, req *http.Request) {
				var in ConsultationCreate
				if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
					writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
					return
				}
				f.mu.Lock()
				defer f.mu.Unlock()
				out := Consultation{ID: f.nextID, PatientName: in.PatientName, ConsultationDate: in.ConsultationDate, Notes: in.Notes}
				for _, id := range in.DiagnosisCodeIDs {
					out.DiagnosisCodes = append(out.DiagnosisCodes, f.codes[id])
				}
				f.notes[out.ID] = out
				f.nextID++
				writeJSON(w, http.StatusCreated, out)
			})
		})
		r.Get("/diagnosis", func(w http.ResponseWriter, req *http.Request) {
			res := DiagnosisSearchResult{Results: []DiagnosisCode{}}
			for _, c := range f.codes {
				if s := req.URL.Query().Get("search"); s == "" || s == c.Code {
					res.Results = append(res.Results, c)
				}
			}
			res.Total = len(res.Results)
			writeJSON(w, http.StatusOK, res)
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeAPI) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("Authorization") != "Bearer "+f.token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (f *fakeAPI) last() *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// mutableToken lets a test change the token between calls.
type mutableToken struct {
	mu  sync.Mutex
	tok string
}

func (m *mutableToken) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tok
}

func (m *mutableToken) set(tok string) {
	m.mu.Lock()
	m.tok = tok
	m.mu.Unlock()
}

func TestSearchDiagnosisCodesQuery(t *testing.T) {
	f, srv := newFakeAPI(t)
	c := New(srv.URL + "/api")
	ctx := context.Background()

	tests := []struct {
		name     string
		term     string
		opts     []QueryOption
		rawQuery string
	}{
		{name: "empty term omits search", term: "", rawQuery: ""},
		{name: "term is sent", term: "flu", rawQuery: "search=flu"},
		{name: "term is url-encoded", term: "heart & lung", rawQuery: "search=heart+%26+lung"},
		{name: "limit without term", term: "", opts: []QueryOption{WithLimit(5)}, rawQuery: "limit=5"},
		{name: "term and limit", term: "J10.1", opts: []QueryOption{WithLimit(10)}, rawQuery: "limit=10&search=J10.1"},
		{name: "zero limit ignored", term: "", opts: []QueryOption{WithLimit(0)}, rawQuery: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.SearchDiagnosisCodes(ctx, tt.term, tt.opts...)
			require.NoError(t, err)
			req := f.last()
			assert.Equal(t, "/api/diagnosis", req.URL.Path)
			assert.Equal(t, tt.rawQuery, req.URL.RawQuery)
			_, hasSearch := req.URL.Query()["search"]
			assert.Equal(t, tt.term != "", hasSearch)
		})
	}
}

func TestSearchDiagnosisCodesIsUnauthenticated(t *testing.T) {
	f, srv := newFakeAPI(t)
	c := New(srv.URL+"/api", WithTokenSource(StaticToken("tok-1")))

	res, err := c.SearchDiagnosisCodes(context.Background(), "I10")
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "I10", res.Results[0].Code)
	assert.Equal(t, 1, res.Total)
	assert.Empty(t, f.last().Header.Get("Authorization"))
}

func TestAuthHeadersReflectTokenChanges(t *testing.T) {
	ts := &mutableToken{}
	c := New("http://unused", WithTokenSource(ts))

	assert.Empty(t, c.authHeaders().Get("Authorization"))
	ts.set("abc")
	assert.Equal(t, "Bearer abc", c.authHeaders().Get("Authorization"))
	ts.set("")
	assert.Empty(t, c.authHeaders())
}

func TestAuthenticatedCallsFollowTokenSource(t *testing.T) {
	f, srv := newFakeAPI(t)
	ts := &mutableToken{}
	c := New(srv.URL+"/api", WithTokenSource(ts))
	ctx := context.Background()

	_, err := c.ListConsultations(ctx)
	require.Error(t, err)
	assert.True(t, apperr.IsUnauthorized(err))
	assert.Empty(t, f.last().Header.Get("Authorization"))

	ts.set("tok-1")
	list, err := c.ListConsultations(ctx, WithSkip(10), WithPageSize(20))
	require.NoError(t, err)
	assert.Equal(t, 0, list.Total)
	req := f.last()
	assert.Equal(t, "Bearer tok-1", req.Header.Get("Authorization"))
	assert.Equal(t, "10", req.URL.Query().Get("skip"))
	assert.Equal(t, "20", req.URL.Query().Get("limit"))
}

func TestStandardHeaders(t *testing.T) {
	f, srv := newFakeAPI(t)
	c := New(srv.URL+"/api", WithUserAgent("clinicare-test"))
	ctx := context.Background()

	_, err := c.Health(ctx)
	require.NoError(t, err)
	first := f.last()
	assert.Equal(t, "application/json", first.Header.Get("Accept"))
	assert.Equal(t, "clinicare-test", first.Header.Get("User-Agent"))
	require.NotEmpty(t, first.Header.Get("X-Request-ID"))

	_, err = c.Health(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.Header.Get("X-Request-ID"), f.last().Header.Get("X-Request-ID"))
}

func TestLoginAndMe(t *testing.T) {
	f, srv := newFakeAPI(t)
	c := New(srv.URL + "/api")
	ctx := context.Background()

	resp, err := c.Login(ctx, Credentials{Username: "house", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", resp.AccessToken)
	assert.Equal(t, "house", resp.Doctor.Username)
	assert.Equal(t, "application/json", f.last().Header.Get("Content-Type"))

	doc, err := c.Me(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "Gregory House", doc.FullName)
	assert.Equal(t, "Bearer tok-1", f.last().Header.Get("Authorization"))

	_, err = c.Login(ctx, Credentials{Username: "house", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, apperr.IsUnauthorized(err))
	var e *apperr.E
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "Incorrect username or password", e.Detail)
}

func TestValidationDetailIsJoined(t *testing.T) {
	_, srv := newFakeAPI(t)
	c := New(srv.URL + "/api")

	_, err := c.Register(context.Background(), Registration{Username: "new"})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, apperr.StatusOf(err))
	var e *apperr.E
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "email: value is not a valid email address; password: too short", e.Detail)
}

func TestCreateAndGetConsultation(t *testing.T) {
	_, srv := newFakeAPI(t)
	c := New(srv.URL+"/api", WithTokenSource(StaticToken("tok-1")))
	ctx := context.Background()

	date, err := ParseTime("2025-03-14T09:30:00")
	require.NoError(t, err)
	created, err := c.CreateConsultation(ctx, ConsultationCreate{
		PatientName:      "Jane Doe",
		ConsultationDate: date,
		Notes:            "Fever and cough for three days.",
		DiagnosisCodeIDs: []int64{1, 2},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	require.Len(t, created.DiagnosisCodes, 2)
	assert.Equal(t, "J10.1", created.DiagnosisCodes[0].Code)
	assert.Equal(t, "2025-03-14T09:30:00", created.ConsultationDate.String())

	got, err := c.GetConsultation(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.PatientName)

	_, err = c.GetConsultation(ctx, 999)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
	assert.True(t, apperr.Is(err, apperr.HTTP))
}

func TestListDoctors(t *testing.T) {
	_, srv := newFakeAPI(t)
	c := New(srv.URL+"/api/", WithTokenSource(StaticToken("tok-1")))

	docs, err := c.ListDoctors(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.Equal(t, srv.URL+"/api", c.BaseURL())
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := New(base, WithTimeout(2*time.Second))
	_, err := c.Health(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Transport))
	assert.Zero(t, apperr.StatusOf(err))
}

func TestDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>proxy page</html>"))
	}))
	t.Cleanup(srv.Close)

	_, err := New(srv.URL).Health(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Decode))
}

func TestCustomEndpoints(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		writeJSON(w, http.StatusOK, Health{Status: "ok"})
	}))
	t.Cleanup(srv.Close)

	eps := DefaultEndpoints()
	eps.Health = "/v2/healthz"
	h, err := New(srv.URL, WithEndpoints(eps)).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "/v2/healthz", path)
}

func TestExtractDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string detail", `{"detail":"Doctor not found"}`, "Doctor not found"},
		{"list detail", `{"detail":[{"loc":["body","username"],"msg":"too short"}]}`, "username: too short"},
		{"list without loc", `{"detail":[{"msg":"bad"}]}`, "bad"},
		{"object detail", `{"detail":{"code":1}}`, `{"code":1}`},
		{"plain text", "Internal Server Error\n", "Internal Server Error"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractDetail([]byte(tt.body)))
		})
	}
}
