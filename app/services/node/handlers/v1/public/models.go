package public

// mineRequest is the body of a mine request. The data may be empty but
// must be present.
type mineRequest struct {
	Data *string `json:"data" validate:"required"`
}

type difficulty struct {
	LatestIndex           uint64 `json:"latest_index"`
	CurrentDifficulty     uint   `json:"current_difficulty"`
	AccumulatedDifficulty string `json:"accumulated_difficulty"`
}

type addPeerResponse struct {
	Host  string `json:"host"`
	Added bool   `json:"added"`
}
