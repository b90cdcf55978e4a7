package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/models"
	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/roster"
)

// ключи-обёртки, под которыми разные эндпоинты возвращают списки.
var listKeys = []string{"evaluators", "data", "users", "items", "results"}

// decodeList разбирает тело ответа как массив или объект-обёртку с массивом.
func decodeList(body []byte) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return unwrapList(v)
}

func unwrapList(v any) ([]any, error) {
	switch val := v.(type) {
	case nil:
		return []any{}, nil
	case []any:
		return val, nil
	case map[string]any:
		for _, key := range listKeys {
			if inner, ok := val[key]; ok {
				return unwrapList(inner)
			}
		}
		return nil, fmt.Errorf("unexpected response object without list")
	default:
		return nil, fmt.Errorf("unexpected response of type %T", v)
	}
}

// normalizeRoster превращает элементы ответа (числа, строки, объекты) в множество EvaluatorID.
func normalizeRoster(items []any) (roster.Set, error) {
	set := roster.NewSet()
	for _, item := range items {
		id, err := roster.ParseEvaluatorID(item)
		if err != nil {
			return nil, err
		}
		set.Add(id)
	}
	return set, nil
}

// normalizeEvaluators приводит объекты пользователей к models.Evaluator.
func normalizeEvaluators(items []any) ([]*models.Evaluator, error) {
	result := make([]*models.Evaluator, 0, len(items))
	seen := make(map[roster.EvaluatorID]struct{}, len(items))
	for _, item := range items {
		id, err := roster.ParseEvaluatorID(item)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		ev := &models.Evaluator{UserId: id, Role: models.RoleEvaluator}
		if obj, ok := item.(map[string]any); ok {
			if nested, ok := obj["user"].(map[string]any); ok {
				obj = nested
			}
			ev.FullName = firstString(obj, "full_name", "fullName", "name")
			ev.Email = firstString(obj, "email")
			if role := firstString(obj, "role"); role != "" {
				ev.Role = normalizeRole(role)
			}
			ev.IsVerified = firstBool(obj, "is_verified", "isVerified", "verified")
		}
		result = append(result, ev)
	}
	return result, nil
}

// normalizeRole сводит "Super Admin", "super-admin" и т.п. к одному виду.
func normalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	r = strings.NewReplacer(" ", "_", "-", "_").Replace(r)
	return r
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok {
			return s
		}
	}
	return ""
}

func firstBool(obj map[string]any, keys ...string) bool {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case bool:
			return v
		case string:
			return strings.EqualFold(v, "true")
		}
	}
	return false
}
