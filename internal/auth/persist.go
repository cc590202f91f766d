package auth

import (
	"encoding/json"
	"errors"

	"clinicare/cli/internal/backend"
	apperr "clinicare/cli/internal/errors"
	"clinicare/cli/internal/keychain"
	"clinicare/cli/internal/logging"
)

// persist writes id to storage, or removes both entries when id is nil.
// Callers must hold s.mu.
func (s *Session) persist(id *Identity) error {
	if s.store == nil {
		return nil
	}

	if id == nil {
		var errs []error
		for _, k := range []string{keychain.KeyAuthToken, keychain.KeyDoctorData} {
			if err := s.store.Delete(k); err != nil {
				errs = append(errs, err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			return apperr.Wrap(apperr.Storage, "clear stored session", err)
		}
		return nil
	}

	data, err := json.Marshal(id.Doctor)
	if err != nil {
		return apperr.Wrap(apperr.Storage, "encode doctor profile", err)
	}
	if err := s.store.Set(keychain.KeyAuthToken, id.Token); err != nil {
		return apperr.Wrap(apperr.Storage, "store token", err)
	}
	if err := s.store.Set(keychain.KeyDoctorData, string(data)); err != nil {
		return apperr.Wrap(apperr.Storage, "store doctor profile", err)
	}
	return nil
}

// restore reads the persisted identity. A missing token means logged out.
// An unreadable profile still yields an authenticated session with an empty profile.
func (s *Session) restore() (*Identity, error) {
	if s.store == nil {
		return nil, nil
	}

	token, err := s.store.Get(keychain.KeyAuthToken)
	if errors.Is(err, keychain.ErrNotFound) || (err == nil && token == "") {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "read stored token", err)
	}

	id := &Identity{Token: token}
	raw, err := s.store.Get(keychain.KeyDoctorData)
	switch {
	case errors.Is(err, keychain.ErrNotFound):
		s.log.Debug("stored session has no doctor profile")
	case err != nil:
		s.log.Warn("could not read stored doctor profile", s.log.Args("error", logging.Mask(err.Error())))
	case raw != "":
		if err := json.Unmarshal([]byte(raw), &id.Doctor); err != nil {
			id.Doctor = backend.Doctor{}
			s.log.Warn("stored doctor profile is corrupt", s.log.Args("error", err.Error()))
		}
	}
	return id, nil
}
