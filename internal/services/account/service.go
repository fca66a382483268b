package account

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/rahul01879/chat-app/internal/crypto"
	"github.com/rahul01879/chat-app/internal/domain"
)

var (
	// ErrValidation is returned when registration details fail the policy
	// checks before any vault access happens.
	ErrValidation = errors.New("account: invalid account details")

	// ErrInvalidCredentials is returned for wrong passwords and unknown
	// usernames alike.
	ErrInvalidCredentials = errors.New("account: invalid username or password")
)

// credentials is validated before any vault access.
type credentials struct {
	Username    string `validate:"required,min=3,max=20,alphanum"`
	DisplayName string `validate:"required,max=50"`
	Password    string `validate:"required,min=6,max=128"`
}

// passwordChange carries only the field that needs revalidation.
type passwordChange struct {
	NewPassword string `validate:"required,min=6,max=128"`
}

// Service manages vault-backed accounts. Profiles are sealed under a
// password-derived key; a successful decrypt is the password check, so no
// password hash is ever stored.
type Service struct {
	vault    domain.VaultStore
	validate *validator.Validate
}

// New returns an account service backed by the given vault.
func New(vault domain.VaultStore) *Service {
	return &Service{vault: vault, validate: validator.New()}
}

// Register creates a profile, seals it under password and stores the
// record. The username must be free.
func (s *Service) Register(username, displayName, password string) (domain.Profile, error) {
	creds := credentials{Username: username, DisplayName: displayName, Password: password}
	if err := s.validate.Struct(creds); err != nil {
		return domain.Profile{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	profile := domain.Profile{
		ID:          uuid.NewString(),
		Username:    username,
		DisplayName: displayName,
		CreatedAt:   time.Now().UTC(),
	}
	rec, err := seal(profile, password)
	if err != nil {
		return domain.Profile{}, err
	}
	if err := s.vault.Put(rec); err != nil {
		return domain.Profile{}, err
	}
	return profile, nil
}

// Login opens the stored profile with password. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Login(username, password string) (domain.Profile, error) {
	rec, ok, err := s.vault.Get(username)
	if err != nil {
		return domain.Profile{}, err
	}
	if !ok {
		return domain.Profile{}, ErrInvalidCredentials
	}
	return open(rec, password)
}

// ChangePassword reseals the profile under a fresh salt and the new
// password. The old password must still open the record.
func (s *Service) ChangePassword(username, oldPassword, newPassword string) error {
	if err := s.validate.Struct(passwordChange{NewPassword: newPassword}); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	profile, err := s.Login(username, oldPassword)
	if err != nil {
		return err
	}
	rec, err := seal(profile, newPassword)
	if err != nil {
		return err
	}
	return s.vault.Replace(rec)
}

// Remove deletes an account after proving ownership with its password.
func (s *Service) Remove(username, password string) error {
	if _, err := s.Login(username, password); err != nil {
		return err
	}
	return s.vault.Delete(username)
}

// List returns every registered username.
func (s *Service) List() ([]string, error) {
	return s.vault.List()
}

// seal encrypts profile under a fresh salt and a key derived from
// password.
func seal(profile domain.Profile, password string) (domain.VaultRecord, error) {
	raw, err := json.Marshal(profile)
	if err != nil {
		return domain.VaultRecord{}, err
	}
	salt, err := crypto.GenerateSalt()
	if err != nil {
		return domain.VaultRecord{}, err
	}
	key := crypto.DeriveKey(password, salt)
	defer key.Destroy()
	data, err := crypto.Encrypt(string(raw), key)
	if err != nil {
		return domain.VaultRecord{}, err
	}
	return domain.VaultRecord{
		Username:   profile.Username,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Ciphertext: data.Encrypted,
		IV:         data.IV,
		CreatedAt:  time.Now().Unix(),
	}, nil
}

// open derives the record's key from password and decrypts the profile.
// Every failure collapses to ErrInvalidCredentials.
func open(rec domain.VaultRecord, password string) (domain.Profile, error) {
	salt, err := base64.StdEncoding.DecodeString(rec.Salt)
	if err != nil {
		return domain.Profile{}, ErrInvalidCredentials
	}
	key := crypto.DeriveKey(password, salt)
	defer key.Destroy()
	plaintext, err := crypto.Decrypt(crypto.CipherData{Encrypted: rec.Ciphertext, IV: rec.IV}, key)
	if err != nil {
		return domain.Profile{}, ErrInvalidCredentials
	}
	var profile domain.Profile
	if err := json.Unmarshal([]byte(plaintext), &profile); err != nil {
		return domain.Profile{}, ErrInvalidCredentials
	}
	return profile, nil
}

// Compile-time assertion that Service implements domain.AccountService.
var _ domain.AccountService = (*Service)(nil)
