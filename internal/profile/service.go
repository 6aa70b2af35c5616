// Package profile manages the session-scoped user document.
package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boosthub/boosthub/internal/auth"
	"github.com/boosthub/boosthub/internal/blob"
	"github.com/boosthub/boosthub/internal/bus"
	"github.com/boosthub/boosthub/internal/docstore"
	"github.com/boosthub/boosthub/internal/model"
	"github.com/boosthub/boosthub/internal/notify"
	"github.com/boosthub/boosthub/internal/session"
	"go.uber.org/zap"
)

// Collection holding one user document per identity, keyed by uid.
const Collection = "user"

var (
	// ErrReauthRejected means the current password did not check out.
	ErrReauthRejected = errors.New("re-authentication rejected")
	// ErrUpdateRejected means re-auth succeeded but the provider refused the change.
	ErrUpdateRejected = errors.New("password update rejected")
)

// Service orchestrates sign-up/sign-in and the profile document workflows.
type Service struct {
	sessions *session.Manager
	provider auth.Provider
	docs     docstore.Store
	blobs    blob.Store
	bus      *bus.Bus
	notices  *notify.Center
	logger   *zap.Logger
}

// NewService creates the profile service.
func NewService(sessions *session.Manager, provider auth.Provider, docs docstore.Store, blobs blob.Store, b *bus.Bus, notices *notify.Center, logger *zap.Logger) *Service {
	return &Service{
		sessions: sessions,
		provider: provider,
		docs:     docs,
		blobs:    blobs,
		bus:      b,
		notices:  notices,
		logger:   logger,
	}
}

// SignUp creates a new account and provisions its user document.
func (s *Service) SignUp(ctx context.Context, email, password string) error {
	sess, err := s.sessions.SignUp(ctx, email, password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrWeakPassword):
			s.notices.Post("invalid password. the password should be at least 6 characters long.")
		case errors.Is(err, auth.ErrInvalidCredentials):
			s.notices.Post("invalid e-mail")
		case errors.Is(err, session.ErrAlreadySignedIn):
			s.notices.Post("you are already signed in")
		default:
			s.notices.Post("signup failed, please try again")
		}
		return err
	}
	if err := s.Provision(ctx, sess); err != nil {
		s.notices.Post("account created, but the profile could not be written")
		return err
	}
	return nil
}

// SignIn authenticates an existing account.
func (s *Service) SignIn(ctx context.Context, email, password string) error {
	_, err := s.sessions.SignIn(ctx, email, password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			s.notices.Post("email or password is not correct")
		case errors.Is(err, session.ErrAlreadySignedIn):
			s.notices.Post("you are already signed in")
		default:
			s.notices.Post("login failed, please try again")
		}
		return err
	}
	return nil
}

// SignOut drains in-flight operations and drops the identity.
func (s *Service) SignOut() {
	s.sessions.SignOut()
}

// Provision writes the new identity's user document. The write is a full
// replace keyed by uid, so re-provisioning overwrites instead of duplicating.
func (s *Service) Provision(ctx context.Context, sess session.Session) error {
	user := model.User{ID: sess.UID, Email: sess.Email}
	if err := s.docs.Set(ctx, Collection, sess.UID, user.Fields()); err != nil {
		return fmt.Errorf("provision profile: %w", err)
	}
	s.logger.Info("profile provisioned", zap.String("uid", sess.UID))
	s.publish("profile.provisioned", sess.UID)
	return nil
}

// Current reads the signed-in user's document.
func (s *Service) Current(ctx context.Context) (model.User, error) {
	sess, err := s.sessions.Current()
	if err != nil {
		return model.User{}, err
	}
	doc, err := s.docs.Get(ctx, Collection, sess.UID)
	if err != nil {
		return model.User{}, fmt.Errorf("read profile: %w", err)
	}
	return model.UserFromFields(sess.UID, doc.Fields), nil
}

// UpdateUserName changes the userName field of the user document. A missing
// document is surfaced, not swallowed.
func (s *Service) UpdateUserName(ctx context.Context, name string) error {
	sess, done, err := s.sessions.Begin()
	if err != nil {
		return err
	}
	defer done()

	if err := s.docs.Update(ctx, Collection, sess.UID, map[string]any{"userName": name}); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			s.notices.Post("your profile does not exist yet")
		} else {
			s.notices.Post("could not update the username")
		}
		return fmt.Errorf("update username: %w", err)
	}
	s.publish("profile.username_updated", sess.UID)
	return nil
}

// ChangePassword re-authenticates with the current password before applying
// the new one. The three outcomes stay distinguishable: success, rejected
// re-auth, rejected update.
func (s *Service) ChangePassword(ctx context.Context, newPassword, currentPassword string) error {
	_, done, err := s.sessions.Begin()
	if err != nil {
		return err
	}
	defer done()

	if err := s.provider.Reauthenticate(ctx, currentPassword); err != nil {
		s.notices.Post("current password is not correct")
		return fmt.Errorf("%w: %v", ErrReauthRejected, err)
	}
	if err := s.provider.UpdatePassword(ctx, newPassword); err != nil {
		s.notices.Post("password change unsuccessful")
		return fmt.Errorf("%w: %v", ErrUpdateRejected, err)
	}
	s.notices.Post("password changed successfully")
	return nil
}

// UploadImage uploads a profile image, fetches its download reference and
// links it on the user document. The steps are strictly sequential; a
// failed step stops the chain and leaves earlier results in place.
func (s *Service) UploadImage(ctx context.Context, image []byte) error {
	sess, done, err := s.sessions.Begin()
	if err != nil {
		return err
	}
	defer done()

	path := fmt.Sprintf("user/%s/image", sess.UID)
	if err := s.blobs.Put(ctx, path, image, "image/jpeg"); err != nil {
		s.notices.Post("image upload failed")
		return fmt.Errorf("upload profile image: %w", err)
	}
	url, err := s.blobs.DownloadURL(ctx, path)
	if err != nil {
		s.notices.Post("image upload failed")
		return fmt.Errorf("fetch image url: %w", err)
	}
	if err := s.docs.Update(ctx, Collection, sess.UID, map[string]any{"image": url}); err != nil {
		s.notices.Post("image uploaded, but could not be linked to your profile")
		return fmt.Errorf("link profile image: %w", err)
	}

	s.logger.Info("profile image linked", zap.String("uid", sess.UID))
	s.publish("profile.image_updated", sess.UID)
	return nil
}

func (s *Service) publish(kind, uid string) {
	s.bus.Publish(bus.Event{
		Kind:      kind,
		Timestamp: time.Now(),
		Payload:   map[string]string{"uid": uid},
	})
}
