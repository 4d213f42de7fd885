package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placify/placify/internal/api/apitest"
	"github.com/placify/placify/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := store.Open(fmt.Sprintf("file:api_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newGateway(t *testing.T, srv *apitest.Server, st *store.Store) (*Gateway, *PersistentJar) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Server = srv.URL
	g, jar, err := New(context.Background(), cfg, st.CookieRepo(), st.CallRepo())
	require.NoError(t, err)
	return g, jar
}

func login(t *testing.T, g *Gateway, user, pass string) {
	t.Helper()
	res := g.Login(context.Background(), Credentials{Username: user, Password: pass})
	require.True(t, res.OK, "login: %s", res.Message)
}

func TestGatewayLoginPersistsSession(t *testing.T) {
	srv := apitest.New(t)
	st := openStore(t)
	ctx := context.Background()

	g, jar := newGateway(t, srv, st)
	assert.False(t, jar.HasSession())

	res := g.Login(ctx, Credentials{Username: apitest.StudentUsername, Password: apitest.StudentPassword})
	require.True(t, res.OK)
	assert.Equal(t, "student", res.Value.Role)
	assert.Equal(t, "/student", res.Value.Redirect)
	assert.True(t, jar.HasSession())

	// A second gateway on the same store picks the session up.
	g2, _ := newGateway(t, srv, st)
	info := g2.UserInfo(ctx)
	require.True(t, info.OK, info.Message)
	assert.Equal(t, apitest.StudentUsername, info.Value.Username)
	assert.False(t, info.Value.IsAdmin())

	require.True(t, g2.Logout(ctx).OK)
	g3, jar3 := newGateway(t, srv, st)
	assert.False(t, jar3.HasSession(), "logout expires the stored cookie")
	assert.Equal(t, "Not logged in", g3.UserInfo(ctx).Message)
}

func TestGatewayLoginRejected(t *testing.T) {
	srv := apitest.New(t)
	g, _ := newGateway(t, srv, openStore(t))

	res := g.Login(context.Background(), Credentials{Username: "asha", Password: "wrong"})
	assert.False(t, res.OK)
	assert.Equal(t, "Invalid credentials", res.Message)
}

func TestGatewayRegister(t *testing.T) {
	srv := apitest.New(t)
	g, _ := newGateway(t, srv, openStore(t))
	ctx := context.Background()

	reg := Registration{Username: "ravi", Email: "ravi@example.com", Password: "pw", FullName: "Ravi K", Department: "ECE", Year: 2}
	res := g.Register(ctx, reg)
	require.True(t, res.OK)
	assert.Equal(t, "Registration successful", res.Value)

	again := g.Register(ctx, reg)
	assert.False(t, again.OK)
	assert.Equal(t, "Username or email already exists", again.Message)
}

func TestGatewaySectionsAndQuestions(t *testing.T) {
	srv := apitest.New(t)
	g, _ := newGateway(t, srv, openStore(t))
	ctx := context.Background()

	sections := g.TestSections(ctx)
	require.True(t, sections.OK)
	require.Len(t, sections.Value, 2)
	assert.Equal(t, "Aptitude", sections.Value[0].Name)
	assert.Equal(t, 30, sections.Value[0].TimeLimit)

	qs := g.Questions(ctx, 1)
	require.True(t, qs.OK)
	require.Len(t, qs.Value, 2)
	assert.Equal(t, "4", qs.Value[0].Option(ChoiceA))

	none := g.Questions(ctx, 99)
	require.True(t, none.OK)
	assert.Empty(t, none.Value)
}

func TestGatewaySubmitTest(t *testing.T) {
	srv := apitest.New(t)
	g, _ := newGateway(t, srv, openStore(t))
	ctx := context.Background()
	login(t, g, apitest.StudentUsername, apitest.StudentPassword)

	res := g.SubmitTest(ctx, SubmitRequest{
		SectionID: 1,
		Answers:   map[int]Choice{1: ChoiceA, 2: ChoiceC},
		TimeTaken: 62,
	})
	require.True(t, res.OK, res.Message)
	assert.Equal(t, 50.0, res.Value.Score)
	assert.Equal(t, 1, res.Value.Correct)
	assert.Equal(t, 2, res.Value.Total)

	subs := srv.Submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, map[string]string{"1": "A", "2": "C"}, subs[0].Answers)
	assert.Equal(t, 62, subs[0].TimeTaken)

	scores := g.UserScores(ctx)
	require.True(t, scores.OK)
	require.Len(t, scores.Value, 1)
	assert.Equal(t, "Aptitude", scores.Value[0].SectionName)

	perf := g.SectionPerformance(ctx)
	require.True(t, perf.OK)
	require.Len(t, perf.Value, 1)
	assert.Equal(t, 1, perf.Value[0].Attempts)

	rec := g.AIRecommendations(ctx)
	require.True(t, rec.OK)
	require.NotNil(t, rec.Value.ReadinessScore)
	assert.Equal(t, 60.0, *rec.Value.ReadinessScore)
	assert.Equal(t, `["Aptitude"]`, rec.Value.WeakSections)
}

func TestGatewaySubmitRequiresLogin(t *testing.T) {
	srv := apitest.New(t)
	g, _ := newGateway(t, srv, openStore(t))

	res := g.SubmitTest(context.Background(), SubmitRequest{SectionID: 1})
	assert.False(t, res.OK)
	assert.Equal(t, "Not logged in", res.Message)
}

func TestGatewayRecommendationsEmpty(t *testing.T) {
	srv := apitest.New(t)
	g, _ := newGateway(t, srv, openStore(t))
	login(t, g, apitest.StudentUsername, apitest.StudentPassword)

	rec := g.AIRecommendations(context.Background())
	require.True(t, rec.OK)
	assert.Nil(t, rec.Value.ReadinessScore)
}

func TestGatewayResume(t *testing.T) {
	srv := apitest.New(t)
	g, _ := newGateway(t, srv, openStore(t))
	ctx := context.Background()
	login(t, g, apitest.StudentUsername, apitest.StudentPassword)

	missing := g.GetResume(ctx)
	assert.False(t, missing.OK)
	assert.Equal(t, "No resume found", missing.Message)

	saved := g.SaveResume(ctx, Resume{
		FullName:  "Asha Rao",
		Email:     "asha@example.com",
		Phone:     "99999",
		Education: "B.Tech CSE",
		Skills:    "python sql git",
		Projects:  "team project",
	})
	require.True(t, saved.OK, saved.Message)
	assert.Equal(t, 100.0, saved.Value.ATSScore)
	assert.NotEmpty(t, saved.Value.Feedback)

	got := g.GetResume(ctx)
	require.True(t, got.OK, got.Message)
	assert.Equal(t, "B.Tech CSE", got.Value.Education)
	scores := got.Value.Scores()
	require.NotNil(t, scores)
	assert.Equal(t, saved.Value.OverallScore, scores.OverallScore)
}

func TestGatewayAdmin(t *testing.T) {
	srv := apitest.New(t)
	ctx := context.Background()

	student, _ := newGateway(t, srv, openStore(t))
	login(t, student, apitest.StudentUsername, apitest.StudentPassword)
	denied := student.AdminStudents(ctx)
	assert.False(t, denied.OK)
	assert.Equal(t, "Unauthorized", denied.Message)

	admin, _ := newGateway(t, srv, openStore(t))
	login(t, admin, apitest.AdminUsername, apitest.AdminPassword)

	students := admin.AdminStudents(ctx)
	require.True(t, students.OK, students.Message)
	require.Len(t, students.Value, 1)
	assert.Nil(t, students.Value[0].AvgScore)
	require.NotNil(t, students.Value[0].Department)
	assert.Equal(t, "CSE", *students.Value[0].Department)

	depts := admin.DepartmentStats(ctx)
	require.True(t, depts.OK)
	require.Len(t, depts.Value, 1)
	assert.Equal(t, 1, depts.Value[0].StudentCount)
}

func TestGatewayJournalsCalls(t *testing.T) {
	srv := apitest.New(t)
	st := openStore(t)
	g, _ := newGateway(t, srv, st)
	ctx := WithPurpose(context.Background(), "login")

	g.Login(ctx, Credentials{Username: "asha", Password: "nope"})
	srv.Override(PathTestSections, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("bad gateway"))
	})
	env := g.TestSections(context.Background())
	assert.Equal(t, NetworkError, env.Message)

	calls, err := st.CallRepo().QueryCalls(context.Background(), store.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, calls, 2)

	sections := calls[0]
	assert.Equal(t, PathTestSections, sections.Endpoint)
	assert.Equal(t, http.StatusBadGateway, sections.StatusCode)
	assert.False(t, sections.Success)
	assert.Equal(t, "HTTP 502", sections.ErrorMessage)

	loginCall := calls[1]
	assert.Equal(t, "POST", loginCall.Method)
	assert.Equal(t, "login", loginCall.Purpose)
	assert.Equal(t, "Invalid credentials", loginCall.ErrorMessage)
	assert.Contains(t, loginCall.RequestBody, `"username":"asha"`)
	assert.NotEmpty(t, loginCall.RequestID)
}
