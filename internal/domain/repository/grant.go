package repository

import (
	"context"
	"time"
)

// Grant representa los permisos que un usuario otorgó (o negó) a un client.
type Grant struct {
	ID                 string
	UserID             string
	ClientID           string
	PermissionsAllowed []string
	PermissionsDenied  []string
	CreatedAt          time.Time
	ModifiedAt         time.Time // se actualiza en el flujo oauth y al administrar permisos
	AccessedAt         time.Time // se actualiza cuando el client accede a datos del usuario
}

// Allowed filtra los permisos solicitados contra los otorgados.
func (g *Grant) Allowed(requested []string) []string {
	out := make([]string, 0, len(requested))
	for _, p := range requested {
		if containsString(g.PermissionsAllowed, p) {
			out = append(out, p)
		}
	}
	return out
}

// Apply hace merge-union del update sobre el grant y actualiza timestamps.
// No existe retracción de permisos previamente otorgados: el update solo agrega.
func (g *Grant) Apply(update GrantUpdate) {
	now := time.Now().UTC()
	g.ModifiedAt = now
	g.AccessedAt = now
	g.PermissionsAllowed = mergeUnion(g.PermissionsAllowed, update.PermissionsAdded)
	g.PermissionsDenied = mergeUnion(g.PermissionsDenied, update.PermissionsRemoved)
}

// GrantUpdate contiene el delta de permisos de una decisión de consentimiento.
type GrantUpdate struct {
	UserID             string
	ClientID           string
	PermissionsAdded   []string
	PermissionsRemoved []string
}

// GrantRepository define operaciones sobre grants por (user, client).
type GrantRepository interface {
	// Get obtiene el grant de un usuario para un client.
	// Retorna ErrNotFound si no existe.
	Get(ctx context.Context, userID, clientID string) (*Grant, error)

	// CreateOrUpdate crea el grant si no existe, o hace merge-union del
	// update sobre el existente.
	CreateOrUpdate(ctx context.Context, update GrantUpdate) (*Grant, error)

	// ListByUser lista todos los grants de un usuario.
	ListByUser(ctx context.Context, userID string) ([]Grant, error)
}

func mergeUnion(a, b []string) []string {
	for _, s := range b {
		if !containsString(a, s) {
			a = append(a, s)
		}
	}
	return a
}

func containsString(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
