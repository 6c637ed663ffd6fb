package proxy

import (
	"context"
	"errors"

	"github.com/eorzealink/server/model"
	"gorm.io/gorm"
)

// ErrNoCredentials means no credentials are stored for the proxy yet.
var ErrNoCredentials = errors.New("proxy: no stored credentials")

// CredentialStore persists the client id/secret issued by the proxy's
// register endpoint.
type CredentialStore interface {
	Load(ctx context.Context, baseURL string) (clientID, secret string, err error)
	Save(ctx context.Context, baseURL, clientID, secret string) error
}

// GormCredentialStore keeps credentials in the service database.
type GormCredentialStore struct {
	db *gorm.DB
}

// NewCredentialStore creates a DB-backed credential store.
func NewCredentialStore(db *gorm.DB) *GormCredentialStore {
	return &GormCredentialStore{db: db}
}

func (s *GormCredentialStore) Load(ctx context.Context, baseURL string) (string, string, error) {
	var cred model.ProxyCredential
	err := s.db.WithContext(ctx).Where("base_url = ?", baseURL).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", "", ErrNoCredentials
	}
	if err != nil {
		return "", "", err
	}
	return cred.ClientID, cred.Secret, nil
}

func (s *GormCredentialStore) Save(ctx context.Context, baseURL, clientID, secret string) error {
	var cred model.ProxyCredential
	err := s.db.WithContext(ctx).Where("base_url = ?", baseURL).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.WithContext(ctx).Create(&model.ProxyCredential{
			BaseURL:  baseURL,
			ClientID: clientID,
			Secret:   secret,
		}).Error
	}
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&cred).Updates(map[string]interface{}{
		"client_id": clientID,
		"secret":    secret,
	}).Error
}
