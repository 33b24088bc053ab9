// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/powchain/business/web/errs"
	"github.com/ardanlabs/powchain/business/web/metrics"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
	"github.com/ardanlabs/powchain/foundation/blockchain/state"
	"github.com/ardanlabs/powchain/foundation/events"
	"github.com/ardanlabs/powchain/foundation/validate"
	"github.com/ardanlabs/powchain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch, err := h.Evts.Acquire(v.TraceID)
	if err != nil {
		return err
	}
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis block.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveGenesis(), http.StatusOK)
}

// Blocks returns the full chain.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveChain(), http.StatusOK)
}

// LatestBlock returns the latest block in the chain.
func (h Handlers) LatestBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	block, err := h.State.RetrieveLatestBlock()
	if err != nil {
		return web.NewShutdownError(fmt.Sprintf("chain integrity: %s", err))
	}

	return web.Respond(ctx, w, block, http.StatusOK)
}

// BlockByIndex returns the block at the specified index.
func (h Handlers) BlockByIndex(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := strconv.ParseUint(web.Param(r, "index"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid block index %q", web.Param(r, "index")), http.StatusBadRequest)
	}

	block, err := h.State.QueryBlockByIndex(index)
	if err != nil {
		return errs.NewTrusted(err, http.StatusNotFound)
	}

	return web.Respond(ctx, w, block, http.StatusOK)
}

// Difficulty returns the difficulty the next block must be mined at and
// the work carried by the chain.
func (h Handlers) Difficulty(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	current, err := h.State.RetrieveCurrentDifficulty()
	if err != nil {
		return err
	}

	latest, err := h.State.RetrieveLatestBlock()
	if err != nil {
		return web.NewShutdownError(fmt.Sprintf("chain integrity: %s", err))
	}

	resp := difficulty{
		LatestIndex:           latest.Index,
		CurrentDifficulty:     current,
		AccumulatedDifficulty: h.State.RetrieveAccumulatedDifficulty().String(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// MineBlock mines a new block carrying the provided data. The request
// blocks until the block is solved or the round is cancelled.
func (h Handlers) MineBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req mineRequest
	if err := web.Decode(r, &req); err != nil {
		return decodeError(err)
	}

	h.Log.Infow("mine block", "traceid", v.TraceID, "size", len(*req.Data))

	block, err := h.State.MineNewBlock(ctx, *req.Data)
	if err != nil {
		switch {
		case errors.Is(err, state.ErrMiningCancelled):
			return errs.NewTrusted(err, http.StatusConflict)

		case errors.Is(err, state.ErrShutdown):
			return errs.NewTrusted(err, http.StatusServiceUnavailable)

		case database.Reason(err) != "":
			return errs.NewRejected(err, http.StatusConflict, database.Reason(err))
		}

		return err
	}

	metrics.AddBlocksMined()

	return web.Respond(ctx, w, block, http.StatusOK)
}

// Peers returns the set of known peers.
func (h Handlers) Peers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveKnownPeers(), http.StatusOK)
}

// AddPeer adds a peer to the known peer list.
func (h Handlers) AddPeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var pr peer.Peer
	if err := web.Decode(r, &pr); err != nil {
		return decodeError(err)
	}

	resp := addPeerResponse{
		Host:  pr.Host,
		Added: h.State.AddKnownPeer(pr),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

// decodeError keeps field errors for the error middleware and marks any
// other decoding failure as a bad request.
func decodeError(err error) error {
	if validate.IsFieldErrors(err) {
		return err
	}

	return errs.NewTrusted(err, http.StatusBadRequest)
}
