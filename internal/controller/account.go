package controller

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jarviz-io/jarviz-api/internal/auth"
	"github.com/jarviz-io/jarviz-api/internal/geo"
	"github.com/jarviz-io/jarviz-api/internal/notify"
	"github.com/jarviz-io/jarviz-api/internal/query"
	"github.com/jarviz-io/jarviz-api/internal/storage"
)

// Mail subjects.
const (
	SubjectWelcome = "Welcome to Jarviz.io"
	SubjectRestore = "Restore password on Jarviz.io"
)

// DefaultSessionTTL is the lifetime of tokens issued on registration, login and password restore.
const DefaultSessionTTL = 14 * 24 * time.Hour

// maxPasswordLength is in bytes and keeps password plus salt within bcrypt's 72 byte input.
const maxPasswordLength = 32

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ()\-]{5,18}[0-9]$`)

var (
	opAccountRegister        = Operation{"account.register", auth.LevelAnonymous}
	opAccountForgotPassword  = Operation{"account.forgot_password", auth.LevelAnonymous}
	opAccountRestorePassword = Operation{"account.restore_password", auth.LevelAnonymous}
	opAccountLogin           = Operation{"account.login", auth.LevelAnonymous}
)

// RegisterRequest is a sign-up form. Referer is the referral source and is stored as src_ref.
type RegisterRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required,phone"`
	Name       string `json:"name" validate:"required"`
	Password   string `json:"password" validate:"required,password"`
	Webpage    string `json:"webpage"`
	Referer    string `json:"referer"`
	UTMSource  string `json:"utm_source"`
	UTMName    string `json:"utm_name"`
	UTMMedium  string `json:"utm_medium"`
	UTMTerm    string `json:"utm_term"`
	UTMContent string `json:"utm_content"`
}

// Session is the result of a successful sign-in.
type Session struct {
	Email      string `json:"email,omitempty"`
	Token      string `json:"token,omitempty"`
	ValidToken bool   `json:"valid_token,omitempty"`
}

// AccountService handles registration, sign-in and password recovery.
type AccountService struct {
	clients  *ClientController
	tokens   *auth.TokenService
	mailer   notify.Mailer
	locator  geo.Locator
	validate *validator.Validate
	ttl      time.Duration
	now      func() time.Time
}

// NewAccountService creates an AccountService. A nil locator records every
// address as unknown; ttl <= 0 selects DefaultSessionTTL.
func NewAccountService(clients *ClientController, tokens *auth.TokenService, mailer notify.Mailer, locator geo.Locator, ttl time.Duration) *AccountService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &AccountService{
		clients:  clients,
		tokens:   tokens,
		mailer:   mailer,
		locator:  locator,
		validate: newValidator(),
		ttl:      ttl,
		now:      time.Now,
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	// max counts runes; bcrypt limits bytes.
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= maxPasswordLength
	})
	return v
}

// registerError converts the first failed field of a sign-up form into its client-facing error.
func registerError(req RegisterRequest, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("failed to validate registration: %w", err)
	}
	switch verrs[0].Field() {
	case "Email":
		return query.InvalidParams(1, "%s is not valid email address", req.Email)
	case "Phone":
		return query.InvalidParams(2, "%s is not valid phone number", req.Phone)
	case "Name":
		return query.InvalidParams(3, "name is required")
	default:
		return query.InvalidParams(4, "password must be 1 to %d bytes", maxPasswordLength)
	}
}

func (s *AccountService) checkPassword(password string) error {
	if err := s.validate.Var(password, "required,password"); err != nil {
		return query.InvalidParams(4, "password must be 1 to %d bytes", maxPasswordLength)
	}
	return nil
}

// UTMHash fingerprints a campaign as the md5 of its utm values joined by ':'.
func UTMHash(source, name, medium, term, content string) string {
	sum := md5.Sum([]byte(strings.Join([]string{source, name, medium, term, content}, ":")))
	return hex.EncodeToString(sum[:])
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// Register creates a client from req, signs it in and sends the welcome mail.
// ip is the address the request came from.
func (s *AccountService) Register(ctx context.Context, req RegisterRequest, ip string) (*Session, error) {
	return run(ctx, opAccountRegister, func(auth.Credential) (*Session, error) {
		if err := s.validate.Struct(req); err != nil {
			return nil, registerError(req, err)
		}

		_, err := s.clients.ByEmail(ctx, req.Email)
		switch {
		case err == nil:
			return nil, query.InvalidParams(1, "user with email %s already registered", req.Email)
		case !errors.Is(err, storage.ErrNotFound):
			return nil, err
		}

		salt := uuid.NewString()
		hash, err := auth.HashPassword(req.Password, salt)
		if err != nil {
			return nil, err
		}

		loc, err := geo.Resolve(s.locator, ip)
		if err != nil {
			return nil, fmt.Errorf("failed to locate %s: %w", ip, err)
		}

		utm := [5]string{
			orNone(req.UTMSource), orNone(req.UTMName), orNone(req.UTMMedium),
			orNone(req.UTMTerm), orNone(req.UTMContent),
		}
		params, err := query.Normalize(s.clients.res.schema, query.Payload{
			"active":      1,
			"restore_key": uuid.NewString(),
			"password":    hash,
			"salt":        salt,
			"referer":     0,
			"name":        req.Name,
			"email":       req.Email,
			"webpage":     orNone(req.Webpage),
			"phone":       req.Phone,
			"src_ref":     orNone(req.Referer),
			"utm_source":  utm[0],
			"utm_name":    utm[1],
			"utm_medium":  utm[2],
			"utm_term":    utm[3],
			"utm_content": utm[4],
			"geo_country": loc.Country,
			"geo_city":    loc.City,
			"ip":          orNone(ip),
			"created_at":  s.now().UTC().Format(TimestampLayout),
			"utm_hash":    UTMHash(utm[0], utm[1], utm[2], utm[3], utm[4]),
		})
		if err != nil {
			return nil, err
		}

		id, err := s.clients.res.insert(ctx, opAccountRegister.Name, params)
		if err != nil {
			return nil, err
		}

		token, err := s.tokens.Issue(ctx, id, s.ttl, auth.LevelUser)
		if err != nil {
			return nil, err
		}

		if err := s.mailer.Send(ctx, notify.Message{
			Template: notify.TemplateWelcome,
			To:       req.Email,
			Subject:  SubjectWelcome,
			Vars:     map[string]any{"name": req.Name},
		}); err != nil {
			return nil, err
		}

		return &Session{Email: req.Email, Token: token}, nil
	})
}

// ForgotPassword rotates the restore key of the client registered with email and
// mails it. An unknown email is not an error.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	_, err := run(ctx, opAccountForgotPassword, func(auth.Credential) (struct{}, error) {
		client, err := s.clients.ByEmail(ctx, email)
		if errors.Is(err, storage.ErrNotFound) {
			return struct{}{}, nil
		}
		if err != nil {
			return struct{}{}, err
		}

		key := uuid.NewString()
		if err := s.clients.setCredentials(ctx, opAccountForgotPassword.Name, client.ID, key, ""); err != nil {
			return struct{}{}, err
		}

		return struct{}{}, s.mailer.Send(ctx, notify.Message{
			Template: notify.TemplateRestore,
			To:       email,
			Subject:  SubjectRestore,
			Vars:     map[string]any{"name": client.Name, "key": key},
		})
	})
	return err
}

// RestorePassword sets a new password for the client holding restore key key,
// rotates the key and signs the client in.
func (s *AccountService) RestorePassword(ctx context.Context, key, password string) (*Session, error) {
	return run(ctx, opAccountRestorePassword, func(auth.Credential) (*Session, error) {
		// "none" is the stored default and never a key that was sent out.
		if key == "" || key == "none" {
			return nil, query.InvalidParams(1, "wrong restore key")
		}
		if err := s.checkPassword(password); err != nil {
			return nil, err
		}

		client, err := s.clients.ByRestoreKey(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, query.InvalidParams(1, "wrong restore key")
		}
		if err != nil {
			return nil, err
		}

		hash, err := auth.HashPassword(password, client.Salt)
		if err != nil {
			return nil, err
		}
		if err := s.clients.setCredentials(ctx, opAccountRestorePassword.Name, client.ID, uuid.NewString(), hash); err != nil {
			return nil, err
		}

		token, err := s.tokens.Issue(ctx, client.ID, s.ttl, auth.LevelUser)
		if err != nil {
			return nil, err
		}
		return &Session{Email: client.Email, Token: token}, nil
	})
}

// Login signs a client in with email and password. The token carries the
// client's initial token level.
func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	return run(ctx, opAccountLogin, func(auth.Credential) (*Session, error) {
		if email == "" || password == "" {
			return nil, query.InvalidParams(0, "invalid arguments")
		}
		wrong := query.InvalidParams(1, "wrong email or password")

		client, err := s.clients.ByEmail(ctx, email)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, wrong
		}
		if err != nil {
			return nil, err
		}
		if err := auth.VerifyPassword(password, client.Salt, client.Password); err != nil {
			return nil, wrong
		}

		level := auth.Level(client.InitTokenLevel)
		if !level.Valid() {
			return nil, fmt.Errorf("client %d has undefined token level %d", client.ID, client.InitTokenLevel)
		}
		token, err := s.tokens.Issue(ctx, client.ID, s.ttl, level)
		if err != nil {
			return nil, err
		}
		return &Session{Email: email, Token: token}, nil
	})
}

// ValidateOrLogin reports a valid session when token belongs to an admin and
// otherwise signs in with email and password.
func (s *AccountService) ValidateOrLogin(ctx context.Context, token, email, password string) (*Session, error) {
	if token != "" {
		cred, err := s.tokens.Resolve(ctx, token)
		switch {
		case err == nil && cred.Level >= auth.LevelAdmin:
			return &Session{ValidToken: true}, nil
		case err != nil && !errors.Is(err, auth.ErrInvalidToken):
			return nil, err
		}
	}
	return s.Login(ctx, email, password)
}

// IssueToken creates a token for principalID at level.
func (s *AccountService) IssueToken(ctx context.Context, principalID int64, ttl time.Duration, level auth.Level) (string, error) {
	return run(ctx, opAccountIssueToken, func(auth.Credential) (string, error) {
		return s.tokens.Issue(ctx, principalID, ttl, level)
	})
}
