package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/wikicontest/internal/auth"
	"github.com/hitoshi/wikicontest/internal/contest"
	"github.com/hitoshi/wikicontest/internal/model"
	"github.com/hitoshi/wikicontest/internal/score"
	"github.com/hitoshi/wikicontest/internal/security"
)

// ContestServiceInterface はコンテストハンドラーが必要とするサービスインターフェース。
type ContestServiceInterface interface {
	Create(ctx context.Context, creator string, in *contest.CreateInput) (int64, error)
	List(ctx context.Context) ([]contest.Summary, error)
	Get(ctx context.Context, id int64) (*contest.Detail, error)
}

// ScoreServiceInterface は得点集計サービスのインターフェース。
type ScoreServiceInterface interface {
	ComputeDetail(ctx context.Context, c *model.Contest) ([]score.UserScore, error)
}

// IdentityResolver は呼び出し元のユーザー名を解決する。
type IdentityResolver interface {
	Resolve(ctx context.Context, forceRefresh bool) (string, error)
}

// ContestHandler はコンテスト関連のHTTPハンドラー。
type ContestHandler struct {
	contests ContestServiceInterface
	scores   ScoreServiceInterface
	resolver IdentityResolver
	scrubber security.ErrorTextScrubber
}

// NewContestHandler はContestHandlerを生成する。
func NewContestHandler(contests ContestServiceInterface, scores ScoreServiceInterface, resolver IdentityResolver, scrubber security.ErrorTextScrubber) *ContestHandler {
	return &ContestHandler{
		contests: contests,
		scores:   scores,
		resolver: resolver,
		scrubber: scrubber,
	}
}

// --- レスポンス型 ---

type createResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type contestResponse struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	CreatedBy         string `json:"created_by"`
	StartDate         string `json:"start_date"`
	EndDate           string `json:"end_date"`
	Status            bool   `json:"status"`
	PointPerProofread int    `json:"point_per_proofread"`
	PointPerValidate  int    `json:"point_per_validate"`
	Language          string `json:"lang"`
}

type pageResponse struct {
	ID                  int64  `json:"id"`
	Name                string `json:"name"`
	ProofreaderUsername string `json:"proofreader_username"`
	ValidatorUsername   string `json:"validator_username"`
}

type userScoreResponse struct {
	ProofreadCount int            `json:"proofread_count"`
	ValidatedCount int            `json:"validated_count"`
	Points         int            `json:"points"`
	Pages          []pageResponse `json:"pages"`
}

type contestDetailResponse struct {
	ContestDetails contestResponse                `json:"contest_details"`
	Administrators []string                       `json:"administrators"`
	Books          []string                       `json:"books"`
	Users          []map[string]userScoreResponse `json:"users"`
}

// --- ハンドラー ---

// List は全コンテストを返す。
// GET /contests
func (h *ContestHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.contests.List(r.Context())
	if err != nil {
		slog.Error("failed to list contests", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// Create はログイン中のユーザーを作成者としてコンテストを登録する。
// POST /contest/create
func (h *ContestHandler) Create(w http.ResponseWriter, r *http.Request) {
	username, err := h.resolver.Resolve(r.Context(), true)
	if err != nil && !errors.Is(err, auth.ErrNoAccessToken) {
		slog.Warn("failed to resolve caller identity", slog.String("error", err.Error()))
	}
	if username == "" {
		writeJSON(w, http.StatusForbidden, contest.ErrAuthRequired.Error())
		return
	}

	in, err := contest.DecodeCreateInput(r.Body)
	if err == nil {
		_, err = h.contests.Create(r.Context(), username, in)
	}
	if err != nil {
		if errors.Is(err, contest.ErrAuthRequired) {
			writeJSON(w, http.StatusForbidden, err.Error())
			return
		}
		writeJSON(w, http.StatusNotFound, createResponse{
			Success: false,
			Message: h.scrubber.Scrub(err.Error()),
		})
		return
	}

	writeJSON(w, http.StatusOK, createResponse{Success: true})
}

// Get はコンテストの詳細と参加者ごとの得点を返す。
// GET /contest/{id}
func (h *ContestHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, contest.ErrContestNotFound.Error())
		return
	}

	detail, err := h.contests.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, contest.ErrContestNotFound) {
			writeJSON(w, http.StatusNotFound, err.Error())
			return
		}
		slog.Error("failed to get contest",
			slog.Int64("contest_id", id),
			slog.String("error", err.Error()),
		)
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
		return
	}

	scores, err := h.scores.ComputeDetail(r.Context(), detail.Contest)
	if err != nil {
		slog.Error("failed to compute contest scores",
			slog.Int64("contest_id", id),
			slog.String("error", err.Error()),
		)
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
		return
	}

	writeJSON(w, http.StatusOK, toContestDetailResponse(detail, scores))
}

// GraphData はグラフ表示用データのプレースホルダー。
// GET /graph-data
func (h *ContestHandler) GraphData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, "graph data here")
}

func toContestDetailResponse(d *contest.Detail, scores []score.UserScore) contestDetailResponse {
	c := d.Contest
	resp := contestDetailResponse{
		ContestDetails: contestResponse{
			ID:                c.ID,
			Name:              c.Name,
			CreatedBy:         c.CreatedBy,
			StartDate:         c.StartDate.Format(model.DateLayout),
			EndDate:           c.EndDate.Format(model.DateLayout),
			Status:            bool(c.Status),
			PointPerProofread: c.PointPerProofread,
			PointPerValidate:  c.PointPerValidate,
			Language:          c.Language,
		},
		Administrators: nonNil(d.Admins),
		Books:          nonNil(d.Books),
		Users:          make([]map[string]userScoreResponse, 0, len(scores)),
	}

	for _, s := range scores {
		pages := make([]pageResponse, 0, len(s.Pages))
		for _, p := range s.Pages {
			pages = append(pages, pageResponse{
				ID:                  p.ID,
				Name:                p.Name,
				ProofreaderUsername: p.ProofreaderUsername,
				ValidatorUsername:   p.ValidatorUsername,
			})
		}
		resp.Users = append(resp.Users, map[string]userScoreResponse{
			s.Username: {
				ProofreadCount: s.ProofreadCount,
				ValidatedCount: s.ValidatedCount,
				Points:         s.Points,
				Pages:          pages,
			},
		})
	}
	return resp
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
