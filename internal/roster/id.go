package roster

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/domain"
)

// EvaluatorID задаёт канонический идентификатор оценщика.
type EvaluatorID int64

// ProjectID идентифицирует проект (стартап).
type ProjectID int64

// String возвращает десятичное представление идентификатора.
func (id EvaluatorID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// String возвращает десятичное представление идентификатора проекта.
func (id ProjectID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseProjectID разбирает идентификатор проекта из строки (например, из URL).
func ParseProjectID(raw string) (ProjectID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n <= 0 {
		return 0, domain.NewNotFoundError(fmt.Sprintf("project %q", raw))
	}
	return ProjectID(n), nil
}

// поля, в которых разные эндпоинты кладут идентификатор пользователя.
var idKeys = []string{"id", "user_id", "evaluator_id", "userId", "evaluatorId"}

// вложенные объекты, внутри которых может лежать пользователь.
var nestedKeys = []string{"user", "evaluator"}

// ParseEvaluatorID приводит идентификатор из любого известного представления
// (число, строка с числом, объект пользователя) к EvaluatorID.
func ParseEvaluatorID(v any) (EvaluatorID, error) {
	switch val := v.(type) {
	case EvaluatorID:
		return checkPositive(int64(val), v)
	case int:
		return checkPositive(int64(val), v)
	case int32:
		return checkPositive(int64(val), v)
	case int64:
		return checkPositive(val, v)
	case uint32:
		return checkPositive(int64(val), v)
	case float64:
		if val != math.Trunc(val) || val >= 1<<63 {
			return 0, domain.NewInvalidEvaluatorIDError(v)
		}
		return checkPositive(int64(val), v)
	case json.Number:
		return parseDecimal(val.String(), v)
	case string:
		return parseDecimal(val, v)
	case json.RawMessage:
		return parseRaw(val)
	case map[string]any:
		return parseObject(val)
	default:
		return 0, domain.NewInvalidEvaluatorIDError(v)
	}
}

// ParseEvaluatorIDs нормализует список идентификаторов, убирая дубли с сохранением порядка.
func ParseEvaluatorIDs(values []any) ([]EvaluatorID, error) {
	seen := make(map[EvaluatorID]struct{}, len(values))
	ids := make([]EvaluatorID, 0, len(values))
	for _, raw := range values {
		id, err := ParseEvaluatorID(raw)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseDecimal(s string, orig any) (EvaluatorID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, domain.NewInvalidEvaluatorIDError(orig)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// "101.0" встречается в ответах некоторых эндпоинтов.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0, domain.NewInvalidEvaluatorIDError(orig)
		}
		return ParseEvaluatorID(f)
	}
	return checkPositive(n, orig)
}

func parseRaw(raw json.RawMessage) (EvaluatorID, error) {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, domain.NewInvalidEvaluatorIDError(string(raw))
	}
	return ParseEvaluatorID(v)
}

func parseObject(obj map[string]any) (EvaluatorID, error) {
	for _, key := range idKeys {
		if v, ok := obj[key]; ok && v != nil {
			return ParseEvaluatorID(v)
		}
	}
	for _, key := range nestedKeys {
		if nested, ok := obj[key].(map[string]any); ok {
			return parseObject(nested)
		}
	}
	return 0, domain.NewInvalidEvaluatorIDError(obj)
}

func checkPositive(n int64, orig any) (EvaluatorID, error) {
	if n <= 0 {
		return 0, domain.NewInvalidEvaluatorIDError(orig)
	}
	return EvaluatorID(n), nil
}

// UnmarshalJSON позволяет принимать идентификатор и числом, и строкой.
func (id *EvaluatorID) UnmarshalJSON(data []byte) error {
	parsed, err := parseRaw(json.RawMessage(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
