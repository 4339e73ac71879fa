package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rl-arena/arena-matchmaker/internal/models"
	"go.uber.org/zap"
)

// StatsLedger 플레이어 이름 기준 append-only 전적 저장소
type StatsLedger interface {
	Append(ctx context.Context, entry *models.StatsEntry) error
	ListByPlayer(ctx context.Context, playerName string) ([]models.StatsEntry, error)
}

type StatsService struct {
	ledger StatsLedger
	clock  func() time.Time
	logger *zap.Logger
}

func NewStatsService(ledger StatsLedger, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{
		ledger: ledger,
		clock:  time.Now,
		logger: logger,
	}
}

// Submit 경기 결과 기록
func (s *StatsService) Submit(ctx context.Context, req models.SubmitStatsRequest) (*models.StatsEntry, error) {
	name := strings.TrimSpace(req.PlayerName)
	if name == "" || req.Kills < 0 || req.Deaths < 0 {
		return nil, ErrInvalidInput
	}

	entry := &models.StatsEntry{
		PlayerName: name,
		MatchID:    req.MatchID,
		Kills:      req.Kills,
		Deaths:     req.Deaths,
		Score:      req.Score,
		RecordedAt: s.clock().UTC(),
	}

	if err := s.ledger.Append(ctx, entry); err != nil {
		s.logger.Error("Failed to append stats", zap.String("player", name), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStatsUnavailable, err)
	}

	s.logger.Debug("Stats recorded",
		zap.String("player", name),
		zap.String("matchId", req.MatchID),
		zap.Int("score", req.Score))

	return entry, nil
}

// Summary 플레이어 누적 전적
func (s *StatsService) Summary(ctx context.Context, playerName string) (*models.PlayerStatsSummary, error) {
	name := strings.TrimSpace(playerName)
	if name == "" {
		return nil, ErrInvalidInput
	}

	entries, err := s.ledger.ListByPlayer(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStatsUnavailable, err)
	}

	summary := &models.PlayerStatsSummary{PlayerName: name}
	matches := make(map[string]bool)
	for _, e := range entries {
		summary.Kills += e.Kills
		summary.Deaths += e.Deaths
		summary.Score += e.Score
		if e.MatchID == "" {
			summary.Matches++ // 매치 ID 없는 기록은 각각 한 경기로 센다
		} else if !matches[e.MatchID] {
			matches[e.MatchID] = true
			summary.Matches++
		}
	}

	if summary.Deaths > 0 {
		summary.KDRatio = float64(summary.Kills) / float64(summary.Deaths)
	} else {
		summary.KDRatio = float64(summary.Kills)
	}

	return summary, nil
}
