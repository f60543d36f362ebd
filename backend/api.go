package main

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/yeseung/omok-extension/game"
	"github.com/zeromicro/go-zero/core/logx"
)

var errInvalidPayload = errors.New("invalid payload")

type StatusResponse struct {
	SessionID  string            `json:"session_id"`
	PlayerID   string            `json:"player_id,omitempty"`
	BoardSize  int               `json:"board_size"`
	Board      [][]int           `json:"board"`
	NextPlayer int               `json:"next_player"`
	Winner     int               `json:"winner"`
	GameOver   bool              `json:"game_over"`
	Status     string            `json:"status"`
	LastMove   *game.Move        `json:"last_move"`
	History    []historyEntryDTO `json:"history"`
	AiThinking bool              `json:"ai_thinking"`
	MoveCount  int               `json:"move_count"`
}

type historyEntryDTO struct {
	Row    int  `json:"row"`
	Col    int  `json:"col"`
	Player int  `json:"player"`
	IsAi   bool `json:"is_ai"`
}

type createSessionRequest struct {
	PlayerID string `json:"player_id"`
}

type moveRequest struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}

type configResponse struct {
	BoardSize         int    `json:"board_size"`
	AiDelayMs         int    `json:"ai_delay_ms"`
	SessionTTLSeconds int    `json:"session_ttl_seconds"`
	PointsWin         int64  `json:"points_win"`
	PointsLoss        int64  `json:"points_loss"`
	PointsUndoCost    int64  `json:"points_undo_cost"`
	PointsBackend     string `json:"points_backend"`
}

// configUpdateRequest carries the settings that may change at runtime. Absent
// fields keep their current value.
type configUpdateRequest struct {
	BoardSize         *int   `json:"board_size"`
	AiDelayMs         *int   `json:"ai_delay_ms"`
	SessionTTLSeconds *int   `json:"session_ttl_seconds"`
	PointsWin         *int64 `json:"points_win"`
	PointsLoss        *int64 `json:"points_loss"`
	PointsUndoCost    *int64 `json:"points_undo_cost"`
}

func (u configUpdateRequest) apply(cfg Config) Config {
	if u.BoardSize != nil {
		cfg.BoardSize = *u.BoardSize
	}
	if u.AiDelayMs != nil {
		cfg.AiDelayMs = *u.AiDelayMs
	}
	if u.SessionTTLSeconds != nil {
		cfg.SessionTTLSeconds = *u.SessionTTLSeconds
	}
	if u.PointsWin != nil {
		cfg.PointsWin = *u.PointsWin
	}
	if u.PointsLoss != nil {
		cfg.PointsLoss = *u.PointsLoss
	}
	if u.PointsUndoCost != nil {
		cfg.PointsUndoCost = *u.PointsUndoCost
	}
	return cfg
}

type scoresResponse struct {
	SessionID string            `json:"session_id"`
	Scores    []game.ScoredMove `json:"scores"`
}

type pointsResponse struct {
	PlayerID string `json:"player_id"`
	Points   int64  `json:"points"`
}

type server struct {
	config   *ConfigStore
	sessions *SessionManager
	points   PointsStore
	hub      *Hub
}

func newRouter(srv *server) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	if srv.config.Get().EnableProfiler {
		r.Mount("/debug", middleware.Profiler())
	}

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Get("/api/config", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, configToResponse(srv.config.Get()))
	})

	r.Put("/api/config", func(w http.ResponseWriter, r *http.Request) {
		var payload configUpdateRequest
		if err := decodeJSON(r, &payload); err != nil {
			writeError(w, r, err)
			return
		}
		if err := srv.config.Update(payload.apply(srv.config.Get())); err != nil {
			writeError(w, r, err)
			return
		}
		cfg := srv.config.Get()
		logx.WithContext(r.Context()).Infof("[backend] config updated: board_size=%d ai_delay_ms=%d session_ttl_seconds=%d",
			cfg.BoardSize, cfg.AiDelayMs, cfg.SessionTTLSeconds)
		writeJSON(w, http.StatusOK, configToResponse(cfg))
	})

	r.Post("/api/sessions", func(w http.ResponseWriter, r *http.Request) {
		var payload createSessionRequest
		if err := decodeOptionalJSON(r, &payload); err != nil {
			writeError(w, r, err)
			return
		}
		session, err := srv.sessions.Create(strings.TrimSpace(payload.PlayerID))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, session.Status())
	})

	r.Route("/api/sessions/{id}", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			session, ok := srv.session(w, r)
			if !ok {
				return
			}
			writeJSON(w, http.StatusOK, session.Status())
		})

		r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
			if err := srv.sessions.Delete(chi.URLParam(r, "id")); err != nil {
				writeError(w, r, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Post("/move", func(w http.ResponseWriter, r *http.Request) {
			session, ok := srv.session(w, r)
			if !ok {
				return
			}
			var payload moveRequest
			if err := decodeJSON(r, &payload); err != nil || payload.Row == nil || payload.Col == nil {
				writeError(w, r, errInvalidPayload)
				return
			}
			status, err := session.HumanMove(r.Context(), game.NewMove(*payload.Row, *payload.Col))
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, status)
		})

		r.Post("/undo", func(w http.ResponseWriter, r *http.Request) {
			session, ok := srv.session(w, r)
			if !ok {
				return
			}
			status, err := session.Undo(r.Context())
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, status)
		})

		r.Post("/reset", func(w http.ResponseWriter, r *http.Request) {
			session, ok := srv.session(w, r)
			if !ok {
				return
			}
			status := session.Reset()
			writeJSON(w, http.StatusOK, status)
		})

		r.Get("/scores", func(w http.ResponseWriter, r *http.Request) {
			session, ok := srv.session(w, r)
			if !ok {
				return
			}
			writeJSON(w, http.StatusOK, scoresResponse{SessionID: session.ID(), Scores: session.Scores()})
		})
	})

	r.Get("/api/points/{player}", func(w http.ResponseWriter, r *http.Request) {
		player := chi.URLParam(r, "player")
		balance, err := srv.points.Get(r.Context(), player)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, pointsResponse{PlayerID: player, Points: balance})
	})

	r.Get("/ws/{id}", func(w http.ResponseWriter, r *http.Request) {
		session, ok := srv.session(w, r)
		if !ok {
			return
		}
		serveWS(srv.hub, session, w, r)
	})

	return r
}

func (srv *server) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	session, err := srv.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return session, true
}

func configToResponse(cfg Config) configResponse {
	backend := "memory"
	if cfg.PointsRedisHost != "" {
		backend = "redis"
	}
	return configResponse{
		BoardSize:         cfg.BoardSize,
		AiDelayMs:         cfg.AiDelayMs,
		SessionTTLSeconds: cfg.SessionTTLSeconds,
		PointsWin:         cfg.PointsWin,
		PointsLoss:        cfg.PointsLoss,
		PointsUndoCost:    cfg.PointsUndoCost,
		PointsBackend:     backend,
	}
}

func boardToSlice(board *game.Board) [][]int {
	grid := board.Grid()
	rows := make([][]int, len(grid))
	for row := range grid {
		rows[row] = make([]int, len(grid[row]))
		for col, cell := range grid[row] {
			rows[row][col] = cellToInt(cell)
		}
	}
	return rows
}

func cellToInt(cell game.Cell) int {
	player, err := game.PlayerFromCell(cell)
	if err != nil {
		return 0
	}
	return playerToInt(player)
}

func playerToInt(player game.PlayerColor) int {
	if player == game.PlayerBlack {
		return 1
	}
	return 2
}

func historyToDTO(entries []game.HistoryEntry) []historyEntryDTO {
	result := make([]historyEntryDTO, 0, len(entries))
	for _, entry := range entries {
		result = append(result, historyEntryDTO{
			Row:    entry.Move.Row,
			Col:    entry.Move.Col,
			Player: playerToInt(entry.Player),
			IsAi:   entry.Player == aiSide,
		})
	}
	return result
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrIllegalMove), errors.Is(err, errInvalidPayload), errors.Is(err, ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotHumanTurn),
		errors.Is(err, ErrGameOver),
		errors.Is(err, ErrAiThinking),
		errors.Is(err, ErrUndoUnavailable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusCode(err)
	if status == http.StatusInternalServerError {
		logx.WithContext(r.Context()).Errorf("[backend] %s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return errInvalidPayload
	}
	if err := sonic.Unmarshal(body, v); err != nil {
		return errInvalidPayload
	}
	return nil
}

// decodeOptionalJSON accepts an empty body and leaves v untouched.
func decodeOptionalJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return errInvalidPayload
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(body, v); err != nil {
		return errInvalidPayload
	}
	return nil
}

func mustMarshal(v any) []byte {
	data, _ := sonic.Marshal(v)
	return data
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(data)
}
