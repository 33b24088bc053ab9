// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ardanlabs/powchain/business/web/errs"
	"github.com/ardanlabs/powchain/business/web/metrics"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
	"github.com/ardanlabs/powchain/foundation/blockchain/state"
	"github.com/ardanlabs/powchain/foundation/validate"
	"github.com/ardanlabs/powchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// status is the response for a proposed block or chain.
type status struct {
	Status string `json:"status"`
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	ps, err := h.State.RetrieveStatus()
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, ps, http.StatusOK)
}

// Chain returns the full chain held by this node.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveChain(), http.StatusOK)
}

// BlocksByIndex returns all the blocks based on the specified to/from values.
func (h Handlers) BlocksByIndex(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	from, err := parseIndex(web.Param(r, "from"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	to, err := parseIndex(web.Param(r, "to"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if from > to {
		return errs.NewTrusted(errors.New("from greater than to"), http.StatusBadRequest)
	}

	blocks := h.State.QueryBlocksByRange(from, to)
	if len(blocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// ProposeBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the local blockchain.
func (h Handlers) ProposeBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Decode the JSON in the post call into the wire form of a block.
	var blockData database.BlockData
	if err := web.Decode(r, &blockData); err != nil {
		return decodeError(err)
	}

	block, err := database.ToBlock(blockData)
	if err != nil {
		return errs.NewRejected(err, http.StatusBadRequest, database.Reason(err))
	}

	h.Log.Infow("propose block", "traceid", v.TraceID, "block", block)

	// Ask the state package to validate the proposed block. If the block
	// passes validation, it will be added to the blockchain database.
	switch err := h.State.ProcessProposedBlock(block); {
	case errors.Is(err, state.ErrChainForked):
		return web.Respond(ctx, w, status{Status: state.StatusForked}, http.StatusOK)

	case err != nil:
		return errs.NewRejected(err, http.StatusNotAcceptable, database.Reason(err))
	}

	metrics.AddBlocksPeered()

	return web.Respond(ctx, w, status{Status: state.StatusAccepted}, http.StatusOK)
}

// ProposeChain takes a full chain received from a peer and adopts it if it
// carries more accumulated difficulty than the local chain.
func (h Handlers) ProposeChain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var blockData []database.BlockData
	if err := web.Decode(r, &blockData); err != nil {
		return decodeError(err)
	}

	chain, err := database.ToChain(blockData)
	if err != nil {
		return errs.NewRejected(err, http.StatusBadRequest, database.Reason(err))
	}

	h.Log.Infow("propose chain", "traceid", v.TraceID, "blocks", len(chain))

	switch err := h.State.ProcessProposedChain(chain); {
	case errors.Is(err, database.ErrNotHeavier):
		return web.Respond(ctx, w, status{Status: state.StatusIgnored}, http.StatusOK)

	case err != nil:
		return errs.NewRejected(err, http.StatusNotAcceptable, database.Reason(err))
	}

	metrics.AddChainReplacements()

	return web.Respond(ctx, w, status{Status: state.StatusAccepted}, http.StatusOK)
}

// AddPeer records a peer that announced itself to this node.
func (h Handlers) AddPeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var pr peer.Peer
	if err := web.Decode(r, &pr); err != nil {
		return decodeError(err)
	}

	if h.State.AddKnownPeer(pr) {
		h.Log.Infow("add peer", "traceid", web.GetTraceID(ctx), "host", pr.Host)
	}

	return web.Respond(ctx, w, nil, http.StatusNoContent)
}

// =============================================================================

// parseIndex converts a path value into a block index. An empty value or
// latest selects the latest block.
func parseIndex(s string) (uint64, error) {
	if s == "" || s == "latest" {
		return state.QueryLatest, nil
	}

	index, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid block index %q", s)
	}

	return index, nil
}

// decodeError keeps field errors for the error middleware and marks any
// other decoding failure as a bad request.
func decodeError(err error) error {
	if validate.IsFieldErrors(err) {
		return err
	}

	return errs.NewRejected(err, http.StatusBadRequest, database.Reason(database.ErrInvalidStructure))
}
