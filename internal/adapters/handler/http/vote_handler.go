package http

import (
	"log/slog"
	"net/http"

	"github.com/vncsmyrnk/predixarena/internal/core/domain"
	"github.com/vncsmyrnk/predixarena/internal/core/ports"
)

type VoteHandler struct {
	service ports.VoteService
	voters  *VoterResolver
	logger  *slog.Logger
}

func NewVoteHandler(service ports.VoteService, voters *VoterResolver, logger *slog.Logger) *VoteHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VoteHandler{
		service: service,
		voters:  voters,
		logger:  logger,
	}
}

// Either field names the outcome. outcome accepts a label or the legacy
// "outcome1"/"outcome2" names.
type voteRequest struct {
	OutcomeIndex *int   `json:"outcome_index"`
	Outcome      string `json:"outcome"`
}

type activeVoteResponse struct {
	Voted bool         `json:"voted"`
	Vote  *domain.Vote `json:"vote,omitempty"`
}

// CastVote godoc
// @Summary      Votes on an event
// @Description  Records the caller's choice. Voting again for the same outcome changes nothing; voting for another outcome moves the vote. Anonymous voters receive a `voter_token` cookie.
// @Tags         votes
// @Accept       json
// @Produce      json
// @Param        id    path  string       true  "Event ID"
// @Param        vote  body  voteRequest  true  "Outcome"
// @Success      200
// @Success      201
// @Failure      400
// @Failure      404
// @Router       /events/{id}/vote [post]
func (h *VoteHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r, h.logger)
	if !ok {
		return
	}
	var req voteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	voter, issued, err := h.voters.Resolve(r, true)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	receipt, err := h.service.CastVote(r.Context(), voter, id, ports.OutcomeChoice{Index: req.OutcomeIndex, Label: req.Outcome})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.voters.Remember(w, issued)

	status := http.StatusOK
	if receipt.Result == domain.CastCreated {
		status = http.StatusCreated
	}
	writeJSON(w, status, receipt)
}

// GetActiveVote godoc
// @Summary      Shows the caller's current vote on an event
// @Tags         votes
// @Produce      json
// @Param        id  path  string  true  "Event ID"
// @Success      200
// @Failure      404
// @Router       /events/{id}/vote [get]
func (h *VoteHandler) GetActiveVote(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r, h.logger)
	if !ok {
		return
	}

	voter, _, err := h.voters.Resolve(r, false)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	vote, err := h.service.GetActiveVote(r.Context(), voter, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, activeVoteResponse{Voted: vote != nil, Vote: vote})
}

func (h *VoteHandler) ListMyVotes(w http.ResponseWriter, r *http.Request) {
	voter, _, err := h.voters.Resolve(r, false)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if !voter.Valid() {
		writeJSON(w, http.StatusOK, []*domain.Vote{})
		return
	}

	votes, err := h.service.ListMyVotes(r.Context(), voter)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(votes))
}
