package storage

import (
	"context"
	"errors"
	"time"

	"github.com/sandeepkv93/daylog/internal/model"
)

var (
	ErrNotFound    = errors.New("storage: not found")
	ErrUnavailable = errors.New("storage: unavailable")
)

// Repository is the local record store. Reads return copies; a write is
// visible to the next read.
type Repository interface {
	AddTask(ctx context.Context, in model.Task) (int64, error)
	UpdateTask(ctx context.Context, in model.Task) error
	GetTask(ctx context.Context, id int64) (model.Task, error)
	ListTasks(ctx context.Context) ([]model.Task, error)
	TasksByDate(ctx context.Context, date string) ([]model.Task, error)
	TasksByRule(ctx context.Context, ruleID int64) ([]model.Task, error)
	TaskByStableID(ctx context.Context, uuid string) (model.Task, error)
	TasksModifiedAfter(ctx context.Context, ts time.Time) ([]model.Task, error)
	SoftDeleteTask(ctx context.Context, id int64, at time.Time) error

	AddSummary(ctx context.Context, in model.Summary) (int64, error)
	UpdateSummary(ctx context.Context, in model.Summary) error
	GetSummary(ctx context.Context, id int64) (model.Summary, error)
	ListSummaries(ctx context.Context) ([]model.Summary, error)
	SummariesByDate(ctx context.Context, date string) ([]model.Summary, error)
	SummaryByStableID(ctx context.Context, uuid string) (model.Summary, error)
	SummariesModifiedAfter(ctx context.Context, ts time.Time) ([]model.Summary, error)

	AddRule(ctx context.Context, in model.RecurrenceRule) (int64, error)
	UpdateRule(ctx context.Context, in model.RecurrenceRule) error
	GetRule(ctx context.Context, id int64) (model.RecurrenceRule, error)
	ListRules(ctx context.Context) ([]model.RecurrenceRule, error)
	RuleByStableID(ctx context.Context, uuid string) (model.RecurrenceRule, error)
	RulesModifiedAfter(ctx context.Context, ts time.Time) ([]model.RecurrenceRule, error)
	SoftDeleteRule(ctx context.Context, id int64, at time.Time) error

	// GetMeta decodes the value stored under key into dst and reports
	// whether the key exists.
	GetMeta(ctx context.Context, key string, dst any) (bool, error)
	SetMeta(ctx context.Context, key string, value any) error
}
