package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Endpoint paths of the Placify service.
const (
	PathLogin              = "/api/login"
	PathRegister           = "/api/register"
	PathLogout             = "/api/logout"
	PathUserInfo           = "/api/user_info"
	PathTestSections       = "/api/test_sections"
	PathQuestions          = "/api/questions/"
	PathSubmitTest         = "/api/submit_test"
	PathUserScores         = "/api/user_scores"
	PathSectionPerformance = "/api/section_performance"
	PathAIRecommendations  = "/api/ai_recommendations"
	PathGetResume          = "/api/get_resume"
	PathSaveResume         = "/api/save_resume"
	PathAdminStudents      = "/api/admin/students"
	PathDepartmentStats    = "/api/admin/department_stats"
)

var (
	nullableNumber  = map[string]any{"type": []any{"number", "null"}}
	nullableInteger = map[string]any{"type": []any{"integer", "null"}}
	nullableString  = map[string]any{"type": []any{"string", "null"}}
	str             = map[string]any{"type": "string"}
	integer         = map[string]any{"type": "integer"}
	number          = map[string]any{"type": "number"}
	boolean         = map[string]any{"type": "boolean"}
)

func object(required []string, props map[string]any) map[string]any {
	req := make([]any, len(required))
	for i, r := range required {
		req[i] = r
	}
	return map[string]any{
		"type":       "object",
		"required":   req,
		"properties": props,
	}
}

func arrayOf(item map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": item}
}

var actionSchema = object([]string{"success"}, map[string]any{
	"success": boolean,
	"message": str,
})

// responseSchemas maps endpoint paths to the shape of their successful
// responses.
var responseSchemas = map[string]map[string]any{
	PathLogin: object([]string{"success", "role"}, map[string]any{
		"success":  boolean,
		"role":     str,
		"redirect": str,
	}),
	PathRegister: actionSchema,
	PathLogout:   actionSchema,
	PathUserInfo: object([]string{"user_id", "username", "role"}, map[string]any{
		"user_id":   integer,
		"username":  str,
		"full_name": nullableString,
		"role":      str,
	}),
	PathTestSections: arrayOf(object([]string{"id", "section_name"}, map[string]any{
		"id":              integer,
		"section_name":    str,
		"description":     nullableString,
		"total_questions": nullableInteger,
		"time_limit":      nullableInteger,
	})),
	PathQuestions: arrayOf(object(
		[]string{"id", "question_text", "option_a", "option_b", "option_c", "option_d"},
		map[string]any{
			"id":            integer,
			"question_text": str,
			"option_a":      str,
			"option_b":      str,
			"option_c":      str,
			"option_d":      str,
		},
	)),
	PathSubmitTest: object([]string{"success", "score", "correct", "total"}, map[string]any{
		"success":    boolean,
		"score":      number,
		"correct":    integer,
		"total":      integer,
		"attempt_id": nullableInteger,
	}),
	PathUserScores: arrayOf(object([]string{"section_name", "score"}, map[string]any{
		"section_name":    str,
		"score":           number,
		"correct_answers": integer,
		"total_questions": integer,
		"time_taken":      nullableInteger,
		"completed_at":    nullableString,
	})),
	PathSectionPerformance: arrayOf(object([]string{"section_name", "avg_score"}, map[string]any{
		"section_name": str,
		"avg_score":    nullableNumber,
		"attempts":     integer,
	})),
	PathAIRecommendations: object(nil, map[string]any{
		"readiness_score":   nullableNumber,
		"weak_sections":     nullableString,
		"improvement_areas": nullableString,
		"practice_focus":    nullableString,
	}),
	PathGetResume: object(nil, map[string]any{
		"full_name":     nullableString,
		"overall_score": nullableNumber,
	}),
	PathSaveResume: object([]string{"success"}, map[string]any{
		"success": boolean,
		"scores": object(nil, map[string]any{
			"ats_score":     nullableNumber,
			"keyword_score": nullableNumber,
			"format_score":  nullableNumber,
			"overall_score": nullableNumber,
			"feedback":      nullableString,
			"suggestions":   arrayOf(str),
		}),
	}),
	PathAdminStudents: arrayOf(object([]string{"id", "username"}, map[string]any{
		"id":                 integer,
		"username":           str,
		"full_name":          nullableString,
		"email":              nullableString,
		"department":         nullableString,
		"year":               nullableInteger,
		"avg_score":          nullableNumber,
		"sections_attempted": nullableInteger,
	})),
	PathDepartmentStats: arrayOf(object([]string{"department", "student_count"}, map[string]any{
		"department":     str,
		"student_count":  integer,
		"avg_score":      nullableNumber,
		"total_attempts": nullableInteger,
	})),
}

// schemaCache caches compiled response schemas by route.
var schemaCache sync.Map // map[string]*jsonschema.Schema

// routeFor maps a request endpoint to its schema route. Query strings are
// ignored and /api/questions/<id> collapses to its prefix.
func routeFor(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		endpoint = endpoint[:i]
	}
	if strings.HasPrefix(endpoint, PathQuestions) {
		return PathQuestions
	}
	return endpoint
}

// validateResponse checks a decoded successful payload against the
// schema of its endpoint. Endpoints without a schema accept any JSON.
func validateResponse(endpoint string, parsed any) error {
	route := routeFor(endpoint)
	def, ok := responseSchemas[route]
	if !ok {
		return nil
	}

	compiled, err := compiledSchema(route, def)
	if err != nil {
		return err
	}
	if err := compiled.Validate(parsed); err != nil {
		return fmt.Errorf("response of %s: %w", route, err)
	}
	return nil
}

func compiledSchema(route string, def map[string]any) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(route); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The compiler wants the generic JSON representation.
	defBytes, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(defBytes, &doc); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	url := "schema://placify" + route + ".json"
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", route, err)
	}

	schemaCache.Store(route, compiled)
	return compiled, nil
}
