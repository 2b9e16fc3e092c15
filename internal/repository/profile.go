package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/entity"
)

const (
	fieldWins   = "wins"
	fieldDraws  = "draws"
	fieldLosses = "losses"
)

// ProfileRepository keeps per-player win/draw/loss totals as a Redis hash.
type ProfileRepository interface {
	RecordWin(ctx context.Context, participantID string) error
	RecordDraw(ctx context.Context, participantID string) error
	RecordLoss(ctx context.Context, participantID string) error
	GetByID(ctx context.Context, participantID string) (*entity.Profile, error)
}

type dbProfile struct {
	client *redis.Client
}

func NewProfileRepository(client *redis.Client) ProfileRepository {
	return &dbProfile{
		client: client,
	}
}

func (that *dbProfile) RecordWin(ctx context.Context, participantID string) error {
	return that.increment(ctx, participantID, fieldWins)
}

func (that *dbProfile) RecordDraw(ctx context.Context, participantID string) error {
	return that.increment(ctx, participantID, fieldDraws)
}

func (that *dbProfile) RecordLoss(ctx context.Context, participantID string) error {
	return that.increment(ctx, participantID, fieldLosses)
}

func (that *dbProfile) increment(ctx context.Context, participantID, field string) error {
	profileKey := "profile:" + participantID
	if err := that.client.HIncrBy(ctx, profileKey, field, 1).Err(); err != nil {
		return fmt.Errorf("failed to increment %s for %s: %w", field, participantID, err)
	}

	return nil
}

func (that *dbProfile) GetByID(ctx context.Context, participantID string) (*entity.Profile, error) {
	profileKey := "profile:" + participantID

	fields, err := that.client.HGetAll(ctx, profileKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get profile by ID: %w", err)
	}

	profile := &entity.Profile{ParticipantID: participantID}
	profile.Wins = parseCounter(fields[fieldWins])
	profile.Draws = parseCounter(fields[fieldDraws])
	profile.Losses = parseCounter(fields[fieldLosses])

	return profile, nil
}

// parseCounter treats a missing field as zero. Values are written by HIncrBy
// and are always integers.
func parseCounter(raw string) int64 {
	if raw == "" {
		return 0
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}

	return n
}
