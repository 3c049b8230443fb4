package services

import "errors"

// Error kinds. Handlers map these to HTTP status codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation failed")
)

// DomainError carries a message that is safe to show to the client.
type DomainError struct {
	Kind error
	Msg  string
}

func (e *DomainError) Error() string { return e.Msg }

func (e *DomainError) Unwrap() error { return e.Kind }

func newError(kind error, msg string) *DomainError {
	return &DomainError{Kind: kind, Msg: msg}
}

var (
	ErrPlaceNotFound      = newError(ErrNotFound, "Lugar no encontrado")
	ErrPhotoNotFound      = newError(ErrNotFound, "Foto no encontrada en este lugar")
	ErrRatingNotFound     = newError(ErrNotFound, "Calificación no encontrada")
	ErrExperienceNotFound = newError(ErrNotFound, "Experiencia no encontrada")
	ErrAdminNotFound      = newError(ErrNotFound, "Administrador no encontrado")

	ErrSolePrincipal  = newError(ErrConflict, "No se puede eliminar la foto principal del lugar; asigna otra foto como principal primero")
	ErrDuplicateAdmin = newError(ErrConflict, "El email o el nombre de usuario ya están registrados")
	ErrNoPDF          = newError(ErrNotFound, "El lugar no tiene un PDF asociado")

	ErrInvalidCredentials = newError(ErrUnauthorized, "Credenciales inválidas")
	ErrWrongPassword      = newError(ErrUnauthorized, "La contraseña actual es incorrecta")
	ErrEmailNotAllowed    = newError(ErrForbidden, "Este email no está autorizado como administrador")
	ErrEmailNotVerified   = newError(ErrForbidden, "El email de Google no está verificado")
	ErrRegistrationClosed = newError(ErrForbidden, "El registro de administradores está cerrado")
	ErrInvalidToken       = newError(ErrUnauthorized, "Token inválido o expirado")

	ErrInvalidScore        = newError(ErrValidation, "La calificación debe ser un entero entre 1 y 5")
	ErrInvalidEstado       = newError(ErrValidation, "Estado inválido: usa 'aprobado' o 'rechazado'")
	ErrInvalidEstadoFilter = newError(ErrValidation, "Estado inválido: usa 'pendiente', 'aprobado' o 'rechazado'")
	ErrTooManyPhotos       = newError(ErrValidation, "Máximo 10 imágenes por solicitud")
	ErrNoPhotos            = newError(ErrValidation, "Se requiere al menos una imagen")
	ErrDescriptionTooLong  = newError(ErrValidation, "La descripción no puede superar 1000 caracteres")
	ErrPasswordTooShort    = newError(ErrValidation, "La contraseña debe tener al menos 8 caracteres")
)

// errPrincipalInvariant means a gallery write would leave a place without
// exactly one principal photo. The transaction is rolled back.
var errPrincipalInvariant = errors.New("gallery must have exactly one principal photo")
