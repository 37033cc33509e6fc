package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/magabrotheeeer/student-records/internal/models"
	"github.com/magabrotheeeer/student-records/internal/storage"
)

// CreateProfile сохраняет новый профиль студента.
func (s *Store) CreateProfile(ctx context.Context, profile *models.Profile) error {
	const op = "mongostore.CreateProfile"
	if err := insertOne(ctx, s.col(ColStudents), profile); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetProfile возвращает профиль по id вместе с публичными полями учётной записи.
func (s *Store) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	const op = "mongostore.GetProfile"
	return s.getProfile(ctx, op, bson.D{{Key: "_id", Value: id}})
}

// GetProfileByAccount возвращает профиль, принадлежащий учётной записи.
func (s *Store) GetProfileByAccount(ctx context.Context, accountID string) (*models.Profile, error) {
	const op = "mongostore.GetProfileByAccount"
	return s.getProfile(ctx, op, bson.D{{Key: "account_id", Value: accountID}})
}

func (s *Store) getProfile(ctx context.Context, op string, filter bson.D) (*models.Profile, error) {
	p, err := findOne[models.Profile](ctx, s.col(ColStudents), filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.attachAccounts(ctx, []*models.Profile{p}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ProfileEmailExists сообщает, занят ли email каким-либо профилем.
func (s *Store) ProfileEmailExists(ctx context.Context, email string) (bool, error) {
	const op = "mongostore.ProfileEmailExists"
	err := s.col(ColStudents).FindOne(ctx, bson.D{{Key: "email", Value: email}},
		options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 1}})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// UpdateProfile применяет к профилю заданные поля.
func (s *Store) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) error {
	const op = "mongostore.UpdateProfile"

	set := bson.D{{Key: "updated_at", Value: time.Now().UTC()}}
	if upd.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *upd.Name})
	}
	if upd.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *upd.Email})
	}
	if upd.Course != nil {
		set = append(set, bson.E{Key: "course", Value: *upd.Course})
	}
	if upd.EnrollmentDate != nil {
		set = append(set, bson.E{Key: "enrollment_date", Value: *upd.EnrollmentDate})
	}
	if upd.IsActive != nil {
		set = append(set, bson.E{Key: "is_active", Value: *upd.IsActive})
	}
	if err := updateFields(ctx, s.col(ColStudents), id, set); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteProfile удаляет профиль по id.
func (s *Store) DeleteProfile(ctx context.Context, id string) error {
	const op = "mongostore.DeleteProfile"
	if err := deleteByID(ctx, s.col(ColStudents), id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func searchFilter(search string) bson.D {
	if search == "" {
		return bson.D{}
	}
	re := bson.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	return bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "name", Value: re}},
		bson.D{{Key: "email", Value: re}},
		bson.D{{Key: "course", Value: re}},
	}}}
}

// ListProfiles возвращает страницу профилей, новые первыми, и общее число совпадений.
func (s *Store) ListProfiles(ctx context.Context, filter models.ProfileFilter) ([]*models.Profile, int64, error) {
	const op = "mongostore.ListProfiles"

	query := searchFilter(filter.Search)
	total, err := s.col(ColStudents).CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: count: %w", op, err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(filter.Offset))
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	profiles, err := findMany[models.Profile](ctx, s.col(ColStudents), query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.attachAccounts(ctx, profiles); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return profiles, total, nil
}

// ProfileStats считает студентов по статусу и по курсам.
func (s *Store) ProfileStats(ctx context.Context) (*models.Stats, error) {
	const op = "mongostore.ProfileStats"

	col := s.col(ColStudents)
	total, err := col.CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	active, err := col.CountDocuments(ctx, bson.D{{Key: "is_active", Value: true}})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$course"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("%s: aggregate: %w", op, err)
	}
	var groups []struct {
		Course string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}

	stats := &models.Stats{
		TotalStudents:    total,
		ActiveStudents:   active,
		InactiveStudents: total - active,
		TotalCourses:     len(groups),
		CourseStats:      make([]models.CourseStat, 0, len(groups)),
	}
	for _, g := range groups {
		stats.CourseStats = append(stats.CourseStats, models.CourseStat{Course: g.Course, Count: g.Count})
	}
	return stats, nil
}

// attachAccounts подмешивает к профилям публичные поля учётных записей.
func (s *Store) attachAccounts(ctx context.Context, profiles []*models.Profile) error {
	ids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.AccountID)
	}
	summaries, err := s.accountSummaries(ctx, ids)
	if err != nil {
		return fmt.Errorf("join accounts: %w", err)
	}
	for _, p := range profiles {
		p.Account = summaries[p.AccountID]
	}
	return nil
}

var _ storage.ProfileStore = (*Store)(nil)
