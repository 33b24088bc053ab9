package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ardanlabs/powchain/app/services/node/handlers"
	"github.com/ardanlabs/powchain/business/web/errs"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
	"github.com/ardanlabs/powchain/foundation/blockchain/state"
	"github.com/ardanlabs/powchain/foundation/events"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type nodeTest struct {
	public  http.Handler
	private http.Handler
	state   *state.State
}

func newNodeTest(t *testing.T) *nodeTest {
	t.Helper()

	st, err := state.New(state.Config{
		Host:         "localhost:9080",
		MinerWorkers: 2,
		KnownPeers:   peer.NewPeerSet(),
	})
	if err != nil {
		t.Fatalf("unable to construct state: %v", err)
	}

	cfg := handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      zap.NewNop().Sugar(),
		State:    st,
		Evts:     events.New(),
	}

	return &nodeTest{
		public:  handlers.PublicMux(cfg),
		private: handlers.PrivateMux(cfg),
		state:   st,
	}
}

func do(h http.Handler, method string, path string, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	return w
}

// =============================================================================

func Test_Public(t *testing.T) {
	nt := newNodeTest(t)

	t.Log("Given the need to work with the public api.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen reading the genesis block.", testID)
		{
			w := do(nt.public, http.MethodGet, "/v1/genesis", "")
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200 for the response : %v", failed, testID, w.Code)
			}

			var got database.Block
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal the response : %v", failed, testID, err)
			}

			if got != database.Genesis() {
				t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, got)
				t.Logf("\t%s\tTest %d:\texp: %v", failed, testID, database.Genesis())
				t.Fatalf("\t%s\tTest %d:\tShould get back the genesis block.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get back the genesis block.", success, testID)
		}

		testID = 1
		t.Logf("\tTest %d:\tWhen mining a block.", testID)
		{
			w := do(nt.public, http.MethodPost, "/v1/blocks/mine", `{"data":"hello"}`)
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200 for the response : %v : %s", failed, testID, w.Code, w.Body)
			}

			var got database.Block
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal the response : %v", failed, testID, err)
			}

			if got.Index != 1 || got.Data != "hello" || got.PreviousHash != database.Genesis().Hash {
				t.Fatalf("\t%s\tTest %d:\tShould get back the mined block : %s", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould get back the mined block.", success, testID)

			w = do(nt.public, http.MethodGet, "/v1/blocks/index/1", "")
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould find the block by index : %v", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould find the block by index.", success, testID)

			w = do(nt.public, http.MethodGet, "/v1/blocks/index/9", "")
			if w.Code != http.StatusNotFound {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 404 for a missing block : %v", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 404 for a missing block.", success, testID)
		}

		testID = 2
		t.Logf("\tTest %d:\tWhen mining without data.", testID)
		{
			w := do(nt.public, http.MethodPost, "/v1/blocks/mine", `{}`)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 400 for the response : %v", failed, testID, w.Code)
			}

			var got errs.Response
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal the response : %v", failed, testID, err)
			}

			if _, exists := got.Fields["data"]; !exists {
				t.Fatalf("\t%s\tTest %d:\tShould report the missing field : %+v", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould report the missing field.", success, testID)
		}
	}
}

func Test_Private(t *testing.T) {
	nt := newNodeTest(t)

	t.Log("Given the need to work with the node to node api.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a peer proposes a tampered block.", testID)
		{
			block := database.Genesis()
			block.Index = 1
			block.PreviousHash = database.Genesis().Hash

			data, _ := json.Marshal(block)

			w := do(nt.private, http.MethodPost, "/v1/node/block/propose", string(data))
			if w.Code != http.StatusNotAcceptable {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 406 for the response : %v : %s", failed, testID, w.Code, w.Body)
			}

			var got errs.Response
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal the response : %v", failed, testID, err)
			}

			if got.Reason != "hash" {
				t.Fatalf("\t%s\tTest %d:\tShould report the rejection reason : %+v", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould report the rejection reason.", success, testID)

			if len(nt.state.RetrieveChain()) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould leave the chain untouched.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould leave the chain untouched.", success, testID)
		}

		testID = 1
		t.Logf("\tTest %d:\tWhen a peer proposes a block with a missing field.", testID)
		{
			body := `{"index":1,"hash":"` + database.Genesis().Hash + `","timestamp":1,"data":"","difficulty":0,"nonce":0}`

			w := do(nt.private, http.MethodPost, "/v1/node/block/propose", body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 400 for the response : %v : %s", failed, testID, w.Code, w.Body)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 400 for the response.", success, testID)
		}

		testID = 2
		t.Logf("\tTest %d:\tWhen a peer asks for the status.", testID)
		{
			w := do(nt.private, http.MethodGet, "/v1/node/status", "")
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200 for the response : %v", failed, testID, w.Code)
			}

			var got peer.PeerStatus
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal the response : %v", failed, testID, err)
			}

			if got.LatestBlockHash != database.Genesis().Hash || got.AccumulatedDifficulty != "1" {
				t.Fatalf("\t%s\tTest %d:\tShould report the genesis status : %+v", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould report the genesis status.", success, testID)
		}

		testID = 3
		t.Logf("\tTest %d:\tWhen a peer proposes a chain that is not heavier.", testID)
		{
			data, _ := json.Marshal([]database.Block{database.Genesis()})

			w := do(nt.private, http.MethodPost, "/v1/node/chain/propose", string(data))
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200 for the response : %v : %s", failed, testID, w.Code, w.Body)
			}

			var got struct {
				Status string `json:"status"`
			}
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal the response : %v", failed, testID, err)
			}

			if got.Status != state.StatusIgnored {
				t.Fatalf("\t%s\tTest %d:\tShould ignore the chain : %s", failed, testID, got.Status)
			}
			t.Logf("\t%s\tTest %d:\tShould ignore the chain.", success, testID)
		}
	}
}
