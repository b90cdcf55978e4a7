package models

import "github.com/AlekseyZapadovnikov/evaluator-roster/internal/roster"

// ProjectRoster описывает текущий состав оценщиков проекта.
type ProjectRoster struct {
	ProjectId  roster.ProjectID     `json:"project_id"`
	Evaluators []roster.EvaluatorID `json:"evaluators"`
}

// PostProjectEvaluatorsJSONBody описывает тело запроса "назначить всех".
type PostProjectEvaluatorsJSONBody struct {
	EvaluatorIds []roster.EvaluatorID `json:"evaluator_ids" validate:"required,min=1"`
}
