package models

import "github.com/AlekseyZapadovnikov/evaluator-roster/internal/roster"

// Роли пользователей админ-панели.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleEvaluator  = "evaluator"
)

// Evaluator описывает пользователя, которого можно назначить оценщиком.
type Evaluator struct {
	UserId     roster.EvaluatorID `json:"user_id"`
	FullName   string             `json:"full_name"`
	Email      string             `json:"email"`
	Role       string             `json:"role"`
	IsVerified bool               `json:"is_verified"`
}

// CandidateFilter задаёт фильтр списка кандидатов.
type CandidateFilter struct {
	// Role пустая строка означает роль evaluator.
	Role string
	// Verified == nil отключает фильтр по верификации.
	Verified *bool
}

// GetEvaluatorsParams описывает query-параметры списка кандидатов.
type GetEvaluatorsParams struct {
	Role     string `form:"role" json:"role" validate:"omitempty,oneof=super_admin admin evaluator"`
	Verified string `form:"verified" json:"verified" validate:"omitempty,oneof=true false"`
}
