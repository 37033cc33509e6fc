// Package students содержит бизнес-логику управления записями студентов:
// административный CRUD, самостоятельное редактирование профиля и статистику.
// Учётная запись и профиль всегда изменяются вместе, в одной транзакции.
package students

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/student-records/internal/cache"
	"github.com/magabrotheeeer/student-records/internal/events"
	"github.com/magabrotheeeer/student-records/internal/lib/apperr"
	"github.com/magabrotheeeer/student-records/internal/lib/password"
	"github.com/magabrotheeeer/student-records/internal/lib/sl"
	"github.com/magabrotheeeer/student-records/internal/lib/validate"
	"github.com/magabrotheeeer/student-records/internal/models"
	"github.com/magabrotheeeer/student-records/internal/storage"
)

// Значения пагинации по умолчанию.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Store описывает операции хранилища, нужные сервису.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateAccount(ctx context.Context, account *models.Account) error
	UpdateAccount(ctx context.Context, id string, upd models.AccountUpdate) error
	DeleteAccount(ctx context.Context, id string) error
	CreateProfile(ctx context.Context, profile *models.Profile) error
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	GetProfileByAccount(ctx context.Context, accountID string) (*models.Profile, error)
	ProfileEmailExists(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) error
	DeleteProfile(ctx context.Context, id string) error
	ListProfiles(ctx context.Context, filter models.ProfileFilter) ([]*models.Profile, int64, error)
	ProfileStats(ctx context.Context) (*models.Stats, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// EventEmitter публикует события жизненного цикла студента.
type EventEmitter interface {
	Emit(ctx context.Context, e events.StudentEvent)
}

// Option настраивает необязательные зависимости сервиса.
type Option func(*Service)

// WithCache включает кэширование статистики на ttl.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.statsTTL = ttl
	}
}

// WithEvents включает публикацию событий.
func WithEvents(e EventEmitter) Option { return func(s *Service) { s.events = e } }

// Service реализует операции над записями студентов.
type Service struct {
	log      *slog.Logger
	store    Store
	validate *validate.Validator

	cache    Cache
	statsTTL time.Duration
	events   EventEmitter

	now func() time.Time
}

// New создаёт сервис.
func New(log *slog.Logger, store Store, opts ...Option) *Service {
	s := &Service{
		log:      log,
		store:    store,
		validate: validate.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListParams: параметры списка, как они пришли в запросе.
type ListParams struct {
	Page   int
	Limit  int
	Search string
}

// CreateInput: данные новой записи студента, создаваемой администратором.
type CreateInput struct {
	Name           string       `json:"name" validate:"required,min=2,max=50"`
	Email          string       `json:"email" validate:"required,email"`
	Course         string       `json:"course" validate:"required,min=2,max=100"`
	EnrollmentDate *models.Date `json:"enrollmentDate"`
}

// AdminUpdateInput: поля, которые администратор может изменить у записи.
type AdminUpdateInput struct {
	Name           *string      `json:"name" validate:"omitempty,min=2,max=50"`
	Email          *string      `json:"email" validate:"omitempty,email"`
	Course         *string      `json:"course" validate:"omitempty,min=2,max=100"`
	EnrollmentDate *models.Date `json:"enrollmentDate"`
	IsActive       *bool        `json:"isActive"`
}

// SelfUpdateInput: поля, которые студент может изменить в своём профиле.
type SelfUpdateInput struct {
	Name           *string      `json:"name" validate:"omitempty,min=2,max=50"`
	Email          *string      `json:"email" validate:"omitempty,email"`
	Course         *string      `json:"course" validate:"omitempty,min=2,max=100"`
	EnrollmentDate *models.Date `json:"enrollmentDate"`
}

// List возвращает страницу профилей, новые первыми.
func (s *Service) List(ctx context.Context, p ListParams) (*models.ProfilePage, error) {
	const op = "services.students.List"

	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}

	items, total, err := s.store.ListProfiles(ctx, models.ProfileFilter{
		Search: strings.TrimSpace(p.Search),
		Limit:  p.Limit,
		Offset: (p.Page - 1) * p.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if items == nil {
		items = []*models.Profile{}
	}
	return &models.ProfilePage{
		Students:    items,
		TotalPages:  int(math.Ceil(float64(total) / float64(p.Limit))),
		CurrentPage: p.Page,
		Total:       total,
	}, nil
}

// Get возвращает профиль по id.
func (s *Service) Get(ctx context.Context, id string) (*models.Profile, error) {
	const op = "services.students.Get"

	profile, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return nil, s.translate(op, err)
	}
	return profile, nil
}

// GetByAccount возвращает профиль, принадлежащий учётной записи.
func (s *Service) GetByAccount(ctx context.Context, accountID string) (*models.Profile, error) {
	const op = "services.students.GetByAccount"

	profile, err := s.store.GetProfileByAccount(ctx, accountID)
	if err != nil {
		return nil, s.translate(op, err)
	}
	return profile, nil
}

// Create создаёт учётную запись студента со случайным временным паролем и профиль.
// Пароль нигде не возвращается и не логируется: студент получает доступ через
// сброс пароля.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Profile, error) {
	const op = "services.students.Create"

	in.Name = strings.TrimSpace(in.Name)
	in.Email = models.NormalizeEmail(in.Email)
	in.Course = strings.TrimSpace(in.Course)
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	enrollment := now
	if d := in.EnrollmentDate.Ptr(); d != nil {
		if d.After(now) {
			return nil, apperr.NewValidation("enrollmentDate cannot be in the future")
		}
		enrollment = *d
	}

	temp, err := password.Temporary()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	hash, err := password.GetHash(temp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	account := &models.Account{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         models.RoleStudent,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	profile := &models.Profile{
		ID:             uuid.NewString(),
		Name:           in.Name,
		Email:          in.Email,
		Course:         in.Course,
		EnrollmentDate: enrollment,
		IsActive:       true,
		AccountID:      account.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var created *models.Profile
	err = s.store.InTx(ctx, func(ctx context.Context) error {
		taken, err := s.store.ProfileEmailExists(ctx, in.Email)
		if err != nil {
			return err
		}
		if taken {
			return storage.ErrDuplicate
		}
		if err := s.store.CreateAccount(ctx, account); err != nil {
			return err
		}
		if err := s.store.CreateProfile(ctx, profile); err != nil {
			return err
		}
		created, err = s.store.GetProfile(ctx, profile.ID)
		return err
	})
	if err != nil {
		return nil, s.translate(op, err)
	}

	s.log.Info("student created",
		slog.String("op", op),
		slog.String("profile_id", created.ID),
		slog.String("account_id", account.ID))
	s.changed(ctx)
	s.emit(ctx, events.NewStudentEvent(events.StudentCreated, created))
	return created, nil
}

// Update применяет административный патч к профилю. Имя и email переносятся
// и в учётную запись.
func (s *Service) Update(ctx context.Context, id string, in AdminUpdateInput) (*models.Profile, error) {
	const op = "services.students.Update"

	self := SelfUpdateInput{
		Name: in.Name, Email: in.Email, Course: in.Course, EnrollmentDate: in.EnrollmentDate,
	}
	upd, err := s.patch(self, in.IsActive)
	if err != nil {
		return nil, err
	}
	profile, err := s.apply(ctx, upd, func(ctx context.Context) (*models.Profile, error) {
		return s.store.GetProfile(ctx, id)
	})
	if err != nil {
		return nil, s.translate(op, err)
	}
	return profile, nil
}

// UpdateSelf применяет патч студента к его собственному профилю.
func (s *Service) UpdateSelf(ctx context.Context, accountID string, in SelfUpdateInput) (*models.Profile, error) {
	const op = "services.students.UpdateSelf"

	upd, err := s.patch(in, nil)
	if err != nil {
		return nil, err
	}
	profile, err := s.apply(ctx, upd, func(ctx context.Context) (*models.Profile, error) {
		return s.store.GetProfileByAccount(ctx, accountID)
	})
	if err != nil {
		return nil, s.translate(op, err)
	}
	return profile, nil
}

// Delete удаляет профиль и связанную с ним учётную запись.
func (s *Service) Delete(ctx context.Context, id string) error {
	const op = "services.students.Delete"

	var deleted *models.Profile
	err := s.store.InTx(ctx, func(ctx context.Context) error {
		profile, err := s.store.GetProfile(ctx, id)
		if err != nil {
			return err
		}
		if err := s.store.DeleteProfile(ctx, profile.ID); err != nil {
			return err
		}
		if err := s.store.DeleteAccount(ctx, profile.AccountID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		deleted = profile
		return nil
	})
	if err != nil {
		return s.translate(op, err)
	}

	s.log.Info("student deleted",
		slog.String("op", op),
		slog.String("profile_id", deleted.ID),
		slog.String("account_id", deleted.AccountID))
	s.changed(ctx)
	s.emit(ctx, events.NewStudentEvent(events.StudentDeleted, deleted))
	return nil
}

// Stats возвращает сводную статистику, по возможности из кэша.
func (s *Service) Stats(ctx context.Context) (*models.Stats, error) {
	const op = "services.students.Stats"
	log := s.log.With(slog.String("op", op))

	if s.cache != nil {
		var cached models.Stats
		found, err := s.cache.Get(ctx, cache.StatsKey, &cached)
		if err != nil {
			log.Warn("failed to read stats from cache", sl.Err(err))
		}
		if found {
			return &cached, nil
		}
	}

	stats, err := s.store.ProfileStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if stats.CourseStats == nil {
		stats.CourseStats = []models.CourseStat{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.StatsKey, stats, s.statsTTL); err != nil {
			log.Warn("failed to cache stats", sl.Err(err))
		}
	}
	return stats, nil
}

// patch проверяет входные поля и собирает из них обновление профиля.
func (s *Service) patch(in SelfUpdateInput, isActive *bool) (models.ProfileUpdate, error) {
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
		return models.ProfileUpdate{}, err
	}

	upd := models.ProfileUpdate{
		Name:           in.Name,
		Email:          in.Email,
		Course:         in.Course,
		EnrollmentDate: in.EnrollmentDate.Ptr(),
		IsActive:       isActive,
	}
	if upd.Empty() {
		return upd, apperr.NewValidation("at least one field must be provided")
	}
	if upd.EnrollmentDate != nil && upd.EnrollmentDate.After(s.now()) {
		return upd, apperr.NewValidation("enrollmentDate cannot be in the future")
	}
	return upd, nil
}

// apply находит профиль через find и в одной транзакции обновляет его и учётную запись.
func (s *Service) apply(
	ctx context.Context,
	upd models.ProfileUpdate,
	find func(ctx context.Context) (*models.Profile, error),
) (*models.Profile, error) {
	var updated *models.Profile
	err := s.store.InTx(ctx, func(ctx context.Context) error {
		profile, err := find(ctx)
		if err != nil {
			return err
		}
		if err := s.store.UpdateProfile(ctx, profile.ID, upd); err != nil {
			return err
		}
		accUpd := models.AccountUpdate{Name: upd.Name, Email: upd.Email}
		if !accUpd.Empty() {
			if err := s.store.UpdateAccount(ctx, profile.AccountID, accUpd); err != nil {
				return err
			}
		}
		updated, err = s.store.GetProfile(ctx, profile.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx)
	return updated, nil
}

func (s *Service) translate(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperr.ErrStudentNotFound
	case errors.Is(err, storage.ErrDuplicate):
		return apperr.ErrDuplicateEmail
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func (s *Service) changed(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, cache.StatsKey); err != nil {
		s.log.Warn("failed to invalidate stats cache", sl.Err(err))
	}
}

func (s *Service) emit(ctx context.Context, e events.StudentEvent) {
	if s.events != nil {
		s.events.Emit(ctx, e)
	}
}
