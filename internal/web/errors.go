package web

import (
	"net/http"

	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/models"
)

// writeError формирует стандартный JSON с кодом и сообщением об ошибке.
func writeError(w http.ResponseWriter, status int, code models.ErrorCode, message string) {
	writeJSON(w, status, models.ErrorResponse{
		Error: models.ErrorBody{Code: code, Message: message},
	})
}

// writeDomainError отвечает статусом и кодом, соответствующими доменной ошибке.
func writeDomainError(w http.ResponseWriter, err error) {
	status, code, msg := mapDomainError(err)
	writeError(w, status, code, msg)
}
