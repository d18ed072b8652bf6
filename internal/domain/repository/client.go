package repository

import (
	"context"

	"golang.org/x/crypto/bcrypt"
)

const (
	ClientTypePublic       = "public"
	ClientTypeConfidential = "confidential"
)

// Client representa una relying party (aplicación cliente) registrada.
type Client struct {
	ID           string
	ClientID     string // identificador público
	Name         string
	Type         string // "public" | "confidential"
	RedirectURIs []string
	SecretHash   string // bcrypt del secret; vacío para clients públicos
}

// MatchesRedirectURI verifica que la URI coincida exactamente con alguna
// de las registradas. Sin normalización: la comparación es case-sensitive.
func (c *Client) MatchesRedirectURI(uri string) bool {
	for _, registered := range c.RedirectURIs {
		if registered == uri {
			return true
		}
	}
	return false
}

// VerifySecret compara el secret en claro contra el hash almacenado.
func (c *Client) VerifySecret(secret string) bool {
	if c.SecretHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(c.SecretHash), []byte(secret)) == nil
}

// HashClientSecret genera el bcrypt hash de un secret para persistir.
func HashClientSecret(secret string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// ClientInput contiene los datos para registrar un client.
type ClientInput struct {
	ClientID     string
	Name         string
	Type         string
	RedirectURIs []string
	Secret       string // plain, se hashea al persistir
}

// ClientRepository define operaciones sobre relying parties.
type ClientRepository interface {
	// Get obtiene un client por su client_id público.
	// Retorna ErrNotFound si no existe.
	Get(ctx context.Context, clientID string) (*Client, error)

	// Create registra un nuevo client.
	// Retorna ErrConflict si el client_id ya existe.
	Create(ctx context.Context, input ClientInput) (*Client, error)

	// List lista todos los clients registrados.
	List(ctx context.Context) ([]Client, error)

	// Delete elimina un client.
	Delete(ctx context.Context, clientID string) error
}
