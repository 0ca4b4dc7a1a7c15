package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/edutask-api/internal/access"
	"github.com/noah-isme/edutask-api/internal/dto"
	"github.com/noah-isme/edutask-api/internal/models"
	"github.com/noah-isme/edutask-api/internal/repository"
)

// ReportService rolls tasks, assignments and review outcomes up into
// per-class reports bucketed by time window.
type ReportService interface {
	BuildClassReport(ctx context.Context, actor access.Actor, classID uint, rng string) (dto.ClassReportResponse, error)
}

type reportService struct {
	tasks       repository.TaskRepository
	assignments repository.AssignmentRepository
	classes     repository.ClassRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewReportService constructs the reporting service. The Redis client may be
// nil, in which case every report is recomputed.
func NewReportService(tasks repository.TaskRepository, assignments repository.AssignmentRepository, classes repository.ClassRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ReportService {
	return &reportService{
		tasks:       tasks,
		assignments: assignments,
		classes:     classes,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "report_service").Logger(),
		now:         time.Now,
	}
}

func (s *reportService) BuildClassReport(ctx context.Context, actor access.Actor, classID uint, rng string) (dto.ClassReportResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/edutask-api/internal/service/report")
	ctx, span := tracer.Start(ctx, "report.build")
	span.SetAttributes(
		attribute.Int64("report.class_id", int64(classID)),
		attribute.String("report.range", rng),
	)
	defer span.End()

	if rng == "" {
		rng = dto.RangeAll
	}
	if !dto.ValidRange(rng) {
		return dto.ClassReportResponse{}, ErrInvalidRange
	}

	class, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "class_not_found")
			return dto.ClassReportResponse{}, ErrClassNotFound
		}
		span.RecordError(err)
		return dto.ClassReportResponse{}, err
	}

	if !access.CanViewClassReport(actor, class.OwnerID) {
		span.SetStatus(codes.Error, "forbidden")
		return dto.ClassReportResponse{}, ErrForbidden
	}

	cacheKey := fmt.Sprintf("report:class:%d:%s", classID, rng)
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var report dto.ClassReportResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &report); unmarshalErr == nil {
				report.CacheHit = true
				span.SetAttributes(attribute.Bool("report.cache_hit", true))
				return report, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read report cache")
			span.RecordError(err)
		}
	}

	now := s.now().UTC()
	since := windowStart(now, rng)

	tasks, err := s.tasks.ListByClass(ctx, classID, since)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_tasks_failed")
		return dto.ClassReportResponse{}, err
	}

	report := dto.ClassReportResponse{
		ClassID:      classID,
		ClassName:    class.Name,
		Range:        rng,
		Students:     []dto.StudentReportRow{},
		WeeklySeries: []dto.WeeklyRewardPoint{},
		GeneratedAt:  now,
	}

	// A class with no tasks in the window yields a zeroed report, not an error.
	if len(tasks) > 0 {
		taskIDs := make([]uint, 0, len(tasks))
		for _, task := range tasks {
			taskIDs = append(taskIDs, task.ID)
		}

		assignments, err := s.assignments.ListByTaskIDs(ctx, taskIDs, since)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "list_assignments_failed")
			return dto.ClassReportResponse{}, err
		}

		members, err := s.classes.MembersOf(ctx, classID)
		if err != nil {
			span.RecordError(err)
			return dto.ClassReportResponse{}, err
		}

		report = buildReport(report, len(tasks), members, assignments)
	}

	span.SetAttributes(
		attribute.Int("report.total_tasks", report.TotalTasks),
		attribute.Int("report.total_assignments", report.TotalAssignments),
	)

	if s.cache != nil {
		payload, err := json.Marshal(report)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store report cache")
				span.RecordError(err)
			}
		}
	}

	return report, nil
}

// windowStart returns the inclusive lower bound of the range, or nil for the
// unbounded all-time range.
func windowStart(now time.Time, rng string) *time.Time {
	var since time.Time
	switch rng {
	case dto.RangeLast30:
		since = now.AddDate(0, 0, -30)
	case dto.RangeLast90:
		since = now.AddDate(0, 0, -90)
	default:
		return nil
	}

	return &since
}

func buildReport(report dto.ClassReportResponse, totalTasks int, members []uint, assignments []models.Assignment) dto.ClassReportResponse {
	report.TotalTasks = totalTasks
	report.TotalAssignments = len(assignments)

	perStudent := make(map[uint]*dto.StudentReportRow, len(members))
	rows := make([]dto.StudentReportRow, 0, len(members))
	for _, studentID := range members {
		rows = append(rows, dto.StudentReportRow{StudentID: studentID})
	}
	for i := range rows {
		perStudent[rows[i].StudentID] = &rows[i]
	}

	weekly := map[time.Time]int{}

	for _, assignment := range assignments {
		row := perStudent[assignment.StudentID]
		if row != nil {
			row.TotalAssignments++
		}

		switch assignment.Status {
		case models.AssignmentStatusSubmitted:
			report.SubmittedCount++
			report.StatusBreakdown.Submitted++
			if row != nil {
				row.SubmittedCount++
			}
		case models.AssignmentStatusReviewed:
			report.SubmittedCount++
			report.ReviewedCount++
			if row != nil {
				row.SubmittedCount++
				row.ReviewedCount++
			}
		}

		report.TotalRewardScore += assignment.RewardScore
		if row != nil {
			row.TotalRewardScore += assignment.RewardScore
		}

		if assignment.IsReviewed() && assignment.RewardScore > 0 && assignment.ReviewedAt != nil {
			week := startOfWeek(*assignment.ReviewedAt)
			weekly[week] += assignment.RewardScore
		}
	}

	report.StatusBreakdown.Assigned = report.TotalAssignments
	report.StatusBreakdown.Reviewed = report.ReviewedCount
	report.Students = rows
	report.WeeklySeries = buildWeeklySeries(weekly)

	return report
}

func buildWeeklySeries(weekly map[time.Time]int) []dto.WeeklyRewardPoint {
	weeks := make([]time.Time, 0, len(weekly))
	for week := range weekly {
		weeks = append(weeks, week)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

	series := make([]dto.WeeklyRewardPoint, 0, len(weeks))
	for _, week := range weeks {
		series = append(series, dto.WeeklyRewardPoint{
			WeekLabel:      week.Format("Jan 2"),
			Date:           week.Format("2006-01-02"),
			RewardScoreSum: weekly[week],
		})
	}

	return series
}

// startOfWeek truncates to the UTC Sunday that begins the week. All bucket
// math stays in UTC to keep week boundaries stable across timezones.
func startOfWeek(t time.Time) time.Time {
	utc := t.UTC()
	start := utc.AddDate(0, 0, -int(utc.Weekday()))
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
}
