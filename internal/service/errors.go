package service

import (
	"errors"

	"github.com/ivd-portal/inscription-service/internal/repository"
	apperrors "github.com/ivd-portal/inscription-service/pkg/util/errorutil"
)

// notFoundOr converts repository.ErrNotFound into an API NotFound for resource.
func notFoundOr(err error, resource, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return err
}

func duplicateInscription(athleteID, convocatoriaID string) error {
	return apperrors.ErrDuplicateInscription.WithDetails(map[string]any{
		"result":          apperrors.CodeDuplicateInscription,
		"athlete_id":      athleteID,
		"convocatoria_id": convocatoriaID,
	})
}
