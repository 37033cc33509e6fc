// Package auth содержит бизнес-логику регистрации, входа и самостоятельного
// редактирования профиля. Учётная запись и профиль студента создаются и
// изменяются в одной транзакции хранилища.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/student-records/internal/cache"
	"github.com/magabrotheeeer/student-records/internal/events"
	"github.com/magabrotheeeer/student-records/internal/lib/apperr"
	"github.com/magabrotheeeer/student-records/internal/lib/jwt"
	"github.com/magabrotheeeer/student-records/internal/lib/password"
	"github.com/magabrotheeeer/student-records/internal/lib/sl"
	"github.com/magabrotheeeer/student-records/internal/lib/validate"
	"github.com/magabrotheeeer/student-records/internal/models"
	"github.com/magabrotheeeer/student-records/internal/storage"
)

// Store описывает операции хранилища, нужные сервису.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	GetAccountWithCredentials(ctx context.Context, email string) (*models.Account, error)
	UpdateAccount(ctx context.Context, id string, upd models.AccountUpdate) error
	SetLastLogin(ctx context.Context, id string, at time.Time) error
	CreateProfile(ctx context.Context, profile *models.Profile) error
	GetProfileByAccount(ctx context.Context, accountID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) error
}

// Revoker запоминает отозванные при выходе токены.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
}

// Invalidator сбрасывает закэшированные значения.
type Invalidator interface {
	Invalidate(ctx context.Context, key string) error
}

// EventEmitter публикует события жизненного цикла студента.
type EventEmitter interface {
	Emit(ctx context.Context, e events.StudentEvent)
}

// Option настраивает необязательные зависимости сервиса.
type Option func(*Service)

// WithRevoker включает отзыв токенов при выходе.
func WithRevoker(r Revoker) Option { return func(s *Service) { s.revoker = r } }

// WithStatsCache включает сброс кэша статистики при изменениях.
func WithStatsCache(c Invalidator) Option { return func(s *Service) { s.stats = c } }

// WithEvents включает публикацию событий.
func WithEvents(e EventEmitter) Option { return func(s *Service) { s.events = e } }

// Service отвечает за регистрацию, вход и профиль текущего пользователя.
type Service struct {
	log      *slog.Logger
	store    Store
	tokens   jwt.Maker
	validate *validate.Validator

	revoker Revoker
	stats   Invalidator
	events  EventEmitter

	now func() time.Time
	// dummyHash сравнивается с паролем, когда учётная запись не найдена,
	// чтобы время ответа не выдавало существование email.
	dummyHash string
}

// New создаёт сервис.
func New(log *slog.Logger, store Store, tokens jwt.Maker, opts ...Option) *Service {
	s := &Service{
		log:      log,
		store:    store,
		tokens:   tokens,
		validate: validate.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if h, err := password.GetHash(uuid.NewString()); err == nil {
		s.dummyHash = h
	}
	return s
}

// RegisterInput: данные регистрации.
type RegisterInput struct {
	Name            string       `json:"name" validate:"required,min=2,max=50"`
	Email           string       `json:"email" validate:"required,email"`
	Password        string       `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string       `json:"confirmPassword" validate:"required,eqfield=Password"`
	Role            models.Role  `json:"role" validate:"omitempty,oneof=admin student"`
	Course          string       `json:"course" validate:"omitempty,min=2,max=100"`
	EnrollmentDate  *models.Date `json:"enrollmentDate"`
}

// LoginInput: данные входа.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileInput: поля, которые пользователь может изменить у себя.
// Роль, пароль и флаг активности сюда не входят.
type UpdateProfileInput struct {
	Name           *string      `json:"name" validate:"omitempty,min=2,max=50"`
	Email          *string      `json:"email" validate:"omitempty,email"`
	Course         *string      `json:"course" validate:"omitempty,min=2,max=100"`
	EnrollmentDate *models.Date `json:"enrollmentDate"`
}

// Session: учётная запись и выпущенный для неё токен.
type Session struct {
	Account *models.Account `json:"account"`
	Token   string          `json:"token"`
}

// ProfileView: учётная запись и, для студента, его профиль.
type ProfileView struct {
	Account *models.Account `json:"account"`
	Profile *models.Profile `json:"profile,omitempty"`
}

// Register создаёт учётную запись и, для роли student, профиль студента.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	const op = "services.auth.Register"

	in.Name = strings.TrimSpace(in.Name)
	in.Email = models.NormalizeEmail(in.Email)
	in.Course = strings.TrimSpace(in.Course)
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = models.RoleStudent
	}

	now := s.now().UTC()
	enrollment := now
	if in.Role == models.RoleStudent {
		var msgs []string
		if in.Course == "" {
			msgs = append(msgs, "course is required for students")
		}
		if d := in.EnrollmentDate.Ptr(); d != nil {
			if d.After(now) {
				msgs = append(msgs, "enrollmentDate cannot be in the future")
			}
			enrollment = *d
		}
		if len(msgs) > 0 {
			return nil, apperr.NewValidation(msgs...)
		}
	}

	hash, err := password.GetHash(in.Password)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return nil, apperr.NewValidation(password.ErrTooLong.Error())
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	account := &models.Account{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	token, err := s.tokens.GenerateToken(account.ID, string(account.Role))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var profile *models.Profile
	if account.Role == models.RoleStudent {
		profile = &models.Profile{
			ID:             uuid.NewString(),
			Name:           account.Name,
			Email:          account.Email,
			Course:         in.Course,
			EnrollmentDate: enrollment,
			IsActive:       true,
			AccountID:      account.ID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
	}

	err = s.store.InTx(ctx, func(ctx context.Context) error {
		if err := s.store.CreateAccount(ctx, account); err != nil {
			return err
		}
		if profile != nil {
			return s.store.CreateProfile(ctx, profile)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, apperr.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if profile != nil {
		s.invalidateStats(ctx)
		s.emit(ctx, events.NewStudentEvent(events.StudentRegistered, profile))
	}
	s.log.Info("account registered",
		slog.String("op", op),
		slog.String("account_id", account.ID),
		slog.String("role", string(account.Role)))

	return &Session{Account: account.Public(), Token: token}, nil
}

// Login проверяет email и пароль и выпускает токен. Для неизвестного email,
// неактивной учётной записи и неверного пароля возвращается одна и та же ошибка.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	const op = "services.auth.Login"

	in.Email = models.NormalizeEmail(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	account, err := s.store.GetAccountWithCredentials(ctx, in.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			_ = password.CompareHash(s.dummyHash, in.Password)
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := password.CompareHash(account.PasswordHash, in.Password); err != nil || !account.IsActive {
		return nil, apperr.ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.store.SetLastLogin(ctx, account.ID, now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	account.LastLogin = &now

	token, err := s.tokens.GenerateToken(account.ID, string(account.Role))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Session{Account: account.Public(), Token: token}, nil
}

// GetProfile возвращает учётную запись и, если это студент, его профиль.
// Профиль может отсутствовать, тогда поле остаётся пустым.
func (s *Service) GetProfile(ctx context.Context, accountID string) (*ProfileView, error) {
	const op = "services.auth.GetProfile"

	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.ErrAccountNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	view := &ProfileView{Account: account.Public()}
	if account.Role != models.RoleStudent {
		return view, nil
	}

	profile, err := s.store.GetProfileByAccount(ctx, accountID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.log.Warn("student account without profile",
			slog.String("op", op), slog.String("account_id", accountID))
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	default:
		view.Profile = profile
	}
	return view, nil
}

// UpdateProfile меняет имя и email учётной записи; для студента те же поля,
// а также курс и дата зачисления переносятся в профиль, если он есть.
func (s *Service) UpdateProfile(ctx context.Context, accountID string, in UpdateProfileInput) (*models.Account, error) {
	const op = "services.auth.UpdateProfile"

	if in.Name != nil {
		v := strings.TrimSpace(*in.Name)
		in.Name = &v
	}
	if in.Email != nil {
		v := models.NormalizeEmail(*in.Email)
		in.Email = &v
	}
	if in.Course != nil {
		v := strings.TrimSpace(*in.Course)
		in.Course = &v
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	date := in.EnrollmentDate.Ptr()
	if in.Name == nil && in.Email == nil && in.Course == nil && date == nil {
		return nil, apperr.NewValidation("at least one field must be provided")
	}
	if date != nil && date.After(s.now()) {
		return nil, apperr.NewValidation("enrollmentDate cannot be in the future")
	}

	var (
		updated *models.Account
		student bool
	)
	err := s.store.InTx(ctx, func(ctx context.Context) error {
		account, err := s.store.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		accUpd := models.AccountUpdate{Name: in.Name, Email: in.Email}
		if !accUpd.Empty() {
			if err := s.store.UpdateAccount(ctx, accountID, accUpd); err != nil {
				return err
			}
		}

		if account.Role == models.RoleStudent {
			student = true
			profUpd := models.ProfileUpdate{
				Name: in.Name, Email: in.Email, Course: in.Course, EnrollmentDate: date,
			}
			profile, err := s.store.GetProfileByAccount(ctx, accountID)
			switch {
			case errors.Is(err, storage.ErrNotFound):
				s.log.Warn("student account without profile, profile update skipped",
					slog.String("op", op), slog.String("account_id", accountID))
			case err != nil:
				return err
			default:
				if err := s.store.UpdateProfile(ctx, profile.ID, profUpd); err != nil {
					return err
				}
			}
		}

		updated, err = s.store.GetAccount(ctx, accountID)
		return err
	})
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, apperr.ErrAccountNotFound
	case errors.Is(err, storage.ErrDuplicate):
		return nil, apperr.ErrDuplicateEmail
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if student {
		s.invalidateStats(ctx)
	}
	return updated.Public(), nil
}

// Logout завершает сессию. Без настроенного хранилища отзыва токен остаётся
// действительным до истечения срока.
func (s *Service) Logout(ctx context.Context, claims *jwt.CustomClaims) error {
	const op = "services.auth.Logout"

	if s.revoker == nil || claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) invalidateStats(ctx context.Context) {
	if s.stats == nil {
		return
	}
	if err := s.stats.Invalidate(ctx, cache.StatsKey); err != nil {
		s.log.Warn("failed to invalidate stats cache", sl.Err(err))
	}
}

func (s *Service) emit(ctx context.Context, e events.StudentEvent) {
	if s.events != nil {
		s.events.Emit(ctx, e)
	}
}
