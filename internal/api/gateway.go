package api

import (
	"context"
	"strconv"
)

// Gateway exposes the Placify endpoints as typed calls over a Caller.
type Gateway struct {
	caller Caller
}

// NewGateway returns a Gateway issuing calls through caller.
func NewGateway(caller Caller) *Gateway {
	return &Gateway{caller: caller}
}

// Call forwards a raw call to the underlying Caller.
func (g *Gateway) Call(ctx context.Context, endpoint, method string, body any) Envelope {
	return g.caller.Call(ctx, endpoint, method, body)
}

// Login authenticates and starts a server session.
func (g *Gateway) Login(ctx context.Context, creds Credentials) Result[LoginResult] {
	return decode[LoginResult](g.caller.Call(ctx, PathLogin, "POST", creds))
}

// Register creates a student account. The server's message is returned
// on success as well.
func (g *Gateway) Register(ctx context.Context, reg Registration) Result[string] {
	env := g.caller.Call(ctx, PathRegister, "POST", reg)
	if !env.Success {
		return failed[string](env.Message)
	}
	ack := decode[failure](env)
	return Result[string]{OK: true, Value: ack.Value.Message}
}

// Logout ends the server session.
func (g *Gateway) Logout(ctx context.Context) Result[struct{}] {
	return decode[struct{}](g.caller.Call(ctx, PathLogout, "POST", nil))
}

// UserInfo returns the logged-in user.
func (g *Gateway) UserInfo(ctx context.Context) Result[UserInfo] {
	return decode[UserInfo](g.caller.Call(ctx, PathUserInfo, "GET", nil))
}

// TestSections lists the available test sections.
func (g *Gateway) TestSections(ctx context.Context) Result[[]Section] {
	return decodeList[Section](g.caller.Call(ctx, PathTestSections, "GET", nil))
}

// Questions returns the questions of one section.
func (g *Gateway) Questions(ctx context.Context, sectionID int) Result[[]Question] {
	endpoint := PathQuestions + strconv.Itoa(sectionID)
	return decodeList[Question](g.caller.Call(ctx, endpoint, "GET", nil))
}

// SubmitTest submits answers for scoring.
func (g *Gateway) SubmitTest(ctx context.Context, req SubmitRequest) Result[ScoreResult] {
	if req.Answers == nil {
		req.Answers = map[int]Choice{}
	}
	return decode[ScoreResult](g.caller.Call(ctx, PathSubmitTest, "POST", req))
}

// UserScores returns the user's attempt history, newest first.
func (g *Gateway) UserScores(ctx context.Context) Result[[]ScoreRow] {
	return decodeList[ScoreRow](g.caller.Call(ctx, PathUserScores, "GET", nil))
}

// SectionPerformance returns the user's per-section averages.
func (g *Gateway) SectionPerformance(ctx context.Context) Result[[]SectionPerformance] {
	return decodeList[SectionPerformance](g.caller.Call(ctx, PathSectionPerformance, "GET", nil))
}

// AIRecommendations returns the readiness payload. An empty object
// decodes to a zero Recommendation.
func (g *Gateway) AIRecommendations(ctx context.Context) Result[Recommendation] {
	return decode[Recommendation](g.caller.Call(ctx, PathAIRecommendations, "GET", nil))
}

// GetResume returns the saved resume. A user without one gets a failed
// result with the server's "No resume found" message.
func (g *Gateway) GetResume(ctx context.Context) Result[StoredResume] {
	return decode[StoredResume](g.caller.Call(ctx, PathGetResume, "GET", nil))
}

// SaveResume stores the resume and returns its score analysis.
func (g *Gateway) SaveResume(ctx context.Context, r Resume) Result[ResumeScores] {
	type saved struct {
		Scores ResumeScores `json:"scores"`
	}
	res := decode[saved](g.caller.Call(ctx, PathSaveResume, "POST", r))
	return Result[ResumeScores]{OK: res.OK, Value: res.Value.Scores, Message: res.Message}
}

// AdminStudents lists every student with aggregate scores. Admin only.
func (g *Gateway) AdminStudents(ctx context.Context) Result[[]Student] {
	return decodeList[Student](g.caller.Call(ctx, PathAdminStudents, "GET", nil))
}

// DepartmentStats aggregates performance per department. Admin only.
func (g *Gateway) DepartmentStats(ctx context.Context) Result[[]DepartmentStat] {
	return decodeList[DepartmentStat](g.caller.Call(ctx, PathDepartmentStats, "GET", nil))
}
