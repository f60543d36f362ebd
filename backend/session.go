package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yeseung/omok-extension/game"
	"github.com/zeromicro/go-zero/core/logx"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotHumanTurn    = errors.New("not human turn")
	ErrIllegalMove     = errors.New("illegal move")
	ErrGameOver        = errors.New("game is over")
	ErrAiThinking      = errors.New("ai is thinking")
	ErrUndoUnavailable = errors.New("nothing to undo")
)

const (
	humanSide = game.PlayerBlack
	aiSide    = game.PlayerWhite
)

// Session is one human-versus-AI game. The human always plays Black.
type Session struct {
	id       string
	playerID string
	config   *ConfigStore
	points   PointsStore
	onChange func(StatusResponse)

	mu         sync.Mutex
	board      *game.Board
	ai         *game.Evaluator
	aiPending  bool
	aiTimer    *time.Timer
	generation uint64
	settled    bool
	closed     bool
	lastActive time.Time
}

func NewSession(id, playerID string, board *game.Board, ai *game.Evaluator, config *ConfigStore, points PointsStore) *Session {
	return &Session{
		id:         id,
		playerID:   playerID,
		config:     config,
		points:     points,
		board:      board,
		ai:         ai,
		lastActive: time.Now(),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) PlayerID() string {
	return s.playerID
}

// SetPublisher registers the callback that receives every status change. It
// runs with the session locked and must not block.
func (s *Session) SetPublisher(publish func(StatusResponse)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = publish
}

func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) HumanMove(ctx context.Context, move game.Move) (StatusResponse, error) {
	s.mu.Lock()
	s.lastActive = time.Now()
	switch {
	case s.finishedLocked():
		s.mu.Unlock()
		return StatusResponse{}, ErrGameOver
	case s.aiPending:
		s.mu.Unlock()
		return StatusResponse{}, ErrAiThinking
	case s.board.CurrentPlayer() != humanSide:
		s.mu.Unlock()
		return StatusResponse{}, ErrNotHumanTurn
	}
	if !s.board.MakeMove(move.Row, move.Col) {
		s.mu.Unlock()
		return StatusResponse{}, ErrIllegalMove
	}
	if !s.finishedLocked() {
		delay := s.config.Get().AiDelay()
		if delay <= 0 {
			s.playAiLocked()
		} else {
			s.scheduleAiLocked(delay)
		}
	}
	delta := s.settleLocked()
	status := s.publishLocked()
	s.mu.Unlock()

	s.applyPoints(ctx, delta)
	return status, nil
}

// Undo takes back the AI reply and the human move before it.
func (s *Session) Undo(ctx context.Context) (StatusResponse, error) {
	s.mu.Lock()
	s.lastActive = time.Now()
	switch {
	case s.aiPending:
		s.mu.Unlock()
		return StatusResponse{}, ErrAiThinking
	case s.finishedLocked():
		s.mu.Unlock()
		return StatusResponse{}, ErrGameOver
	case s.board.MoveCount() < 2:
		s.mu.Unlock()
		return StatusResponse{}, ErrUndoUnavailable
	}
	s.board.Undo()
	s.board.Undo()
	s.generation++
	status := s.publishLocked()
	cost := s.config.Get().PointsUndoCost
	s.mu.Unlock()

	if cost > 0 {
		s.applyPoints(ctx, -cost)
	}
	return status, nil
}

func (s *Session) Reset() StatusResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
	s.cancelAiLocked()
	s.generation++
	s.board.Reset()
	s.settled = false
	return s.publishLocked()
}

func (s *Session) Status() StatusResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// Scores evaluates every empty cell for the AI side, for hint overlays.
func (s *Session) Scores() []game.ScoredMove {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ai.ScoreBoard(s.board)
}

// Close stops a pending AI reply. The session accepts no further AI moves.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cancelAiLocked()
}

func (s *Session) scheduleAiLocked(delay time.Duration) {
	s.aiPending = true
	generation := s.generation
	s.aiTimer = time.AfterFunc(delay, func() {
		s.runScheduledAi(generation)
	})
}

func (s *Session) runScheduledAi(generation uint64) {
	s.mu.Lock()
	if s.closed || !s.aiPending || generation != s.generation {
		s.mu.Unlock()
		return
	}
	s.aiPending = false
	s.aiTimer = nil
	s.playAiLocked()
	delta := s.settleLocked()
	s.publishLocked()
	s.mu.Unlock()

	s.applyPoints(context.Background(), delta)
}

// publishLocked snapshots the status and hands it to the publisher before the
// lock is released, so subscribers see updates in the order they happened.
func (s *Session) publishLocked() StatusResponse {
	status := s.statusLocked()
	if s.onChange != nil {
		s.onChange(status)
	}
	return status
}

// finishedLocked reports a win or a full board.
func (s *Session) finishedLocked() bool {
	return s.board.GameOver() || s.board.Full()
}

func (s *Session) cancelAiLocked() {
	if s.aiTimer != nil {
		s.aiTimer.Stop()
		s.aiTimer = nil
	}
	s.aiPending = false
}

func (s *Session) playAiLocked() {
	if s.finishedLocked() || s.board.CurrentPlayer() != s.ai.Side() {
		return
	}
	move, ok := s.ai.FindBestMove(s.board)
	if !ok {
		return
	}
	if !s.board.MakeMove(move.Row, move.Col) {
		logx.Errorf("[session] %s: ai produced illegal move %v", s.id, move)
	}
}

// settleLocked returns the points owed for a game that just finished, once
// per game. Guests and draws earn nothing.
func (s *Session) settleLocked() int64 {
	if s.settled || s.playerID == "" {
		return 0
	}
	winner, ok := s.board.Winner()
	if !ok {
		return 0
	}
	s.settled = true
	cfg := s.config.Get()
	if winner == humanSide {
		return cfg.PointsWin
	}
	return cfg.PointsLoss
}

func (s *Session) applyPoints(ctx context.Context, delta int64) {
	if delta == 0 || s.playerID == "" || s.points == nil {
		return
	}
	total, err := s.points.Add(ctx, s.playerID, delta)
	if err != nil {
		logx.WithContext(ctx).Errorf("[points] %s: failed to apply %+d: %v", s.playerID, delta, err)
		return
	}
	logx.WithContext(ctx).Infof("[points] %s: %+d, balance %d", s.playerID, delta, total)
}

func (s *Session) statusLocked() StatusResponse {
	status := StatusResponse{
		SessionID:  s.id,
		PlayerID:   s.playerID,
		BoardSize:  s.board.Size(),
		Board:      boardToSlice(s.board),
		NextPlayer: playerToInt(s.board.CurrentPlayer()),
		Status:     s.statusStringLocked(),
		History:    historyToDTO(s.board.History()),
		AiThinking: s.aiPending,
		MoveCount:  s.board.MoveCount(),
	}
	if winner, ok := s.board.Winner(); ok {
		status.Winner = playerToInt(winner)
		status.GameOver = true
	}
	if s.board.Full() {
		status.GameOver = true
	}
	if last, ok := s.board.LastMove(); ok {
		status.LastMove = &last
	}
	return status
}

func (s *Session) statusStringLocked() string {
	if winner, ok := s.board.Winner(); ok {
		if winner == game.PlayerBlack {
			return "black_won"
		}
		return "white_won"
	}
	if s.board.Full() {
		return "draw"
	}
	if s.board.CurrentPlayer() == humanSide {
		return "human_turn"
	}
	return "ai_turn"
}
