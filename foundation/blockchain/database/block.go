package database

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/ardanlabs/powchain/foundation/validate"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// genesisBlock is the pinned first block every valid chain must start with.
// Its hash is part of the constant and is never recomputed.
var genesisBlock = Block{
	Index:        0,
	Hash:         "816534932c2b7154836da6afc367695e6337db8a921823784c14378abed4f7d7",
	PreviousHash: "",
	Timestamp:    1465154705,
	Data:         "first genesis block!!",
	Difficulty:   0,
	Nonce:        0,
}

// Genesis returns a copy of the genesis block.
func Genesis() Block {
	return genesisBlock
}

// =============================================================================

// Block represents a single record in the chain. Blocks are values and are
// never modified once they are constructed.
type Block struct {
	Index        uint64 `json:"index"`         // Position in the chain, genesis is 0.
	Hash         string `json:"hash"`          // Lowercase hex SHA-256 digest of the other fields.
	PreviousHash string `json:"previous_hash"` // Hash of the block before this one, empty for genesis.
	Timestamp    int64  `json:"timestamp"`     // Seconds since the epoch.
	Data         string `json:"data"`          // Opaque payload.
	Difficulty   uint   `json:"difficulty"`    // Number of leading zero bits the hash must have.
	Nonce        uint64 `json:"nonce"`         // Value identified to solve the hash puzzle.
}

// CalculateHash recomputes the hash for the block from its fields.
func (b Block) CalculateHash() string {
	return CalculateHash(b.Index, b.PreviousHash, b.Timestamp, b.Data, b.Difficulty, b.Nonce)
}

// String implements the fmt.Stringer interface for logging.
func (b Block) String() string {
	return fmt.Sprintf("blk[%d]: hash[%s]: diff[%d]: nonce[%d]", b.Index, b.Hash, b.Difficulty, b.Nonce)
}

// =============================================================================

// BlockData is the wire representation of a block. Pointer fields allow a
// missing field to be told apart from a zero value.
type BlockData struct {
	Index        *uint64 `json:"index" validate:"required"`
	Hash         *string `json:"hash" validate:"required,hash256"`
	PreviousHash *string `json:"previous_hash" validate:"required"`
	Timestamp    *int64  `json:"timestamp" validate:"required,gte=0"`
	Data         *string `json:"data" validate:"required"`
	Difficulty   *uint   `json:"difficulty" validate:"required"`
	Nonce        *uint64 `json:"nonce" validate:"required"`
}

// Validate checks every field is present and well formed.
func (bd BlockData) Validate() error {
	if err := validate.Check(bd); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidStructure, err)
	}

	return nil
}

// ToBlock converts the wire representation into a Block after checking
// its structure.
func ToBlock(bd BlockData) (Block, error) {
	if err := bd.Validate(); err != nil {
		return Block{}, err
	}

	b := Block{
		Index:        *bd.Index,
		Hash:         *bd.Hash,
		PreviousHash: *bd.PreviousHash,
		Timestamp:    *bd.Timestamp,
		Data:         *bd.Data,
		Difficulty:   *bd.Difficulty,
		Nonce:        *bd.Nonce,
	}

	if err := ValidateBlockStructure(b); err != nil {
		return Block{}, err
	}

	return b, nil
}

// ParseBlock decodes a JSON document into a Block. A document with a
// missing or wrong-typed field is rejected as a structural failure.
func ParseBlock(data []byte) (Block, error) {
	var bd BlockData
	if err := json.Unmarshal(data, &bd); err != nil {
		return Block{}, fmt.Errorf("%w: %w", ErrInvalidStructure, err)
	}

	return ToBlock(bd)
}

// ParseChain decodes a JSON array of blocks.
func ParseChain(data []byte) ([]Block, error) {
	var bds []BlockData
	if err := json.Unmarshal(data, &bds); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidStructure, err)
	}

	return ToChain(bds)
}

// ToChain converts a set of wire blocks into a chain.
func ToChain(bds []BlockData) ([]Block, error) {
	chain := make([]Block, len(bds))
	for i, bd := range bds {
		b, err := ToBlock(bd)
		if err != nil {
			return nil, fmt.Errorf("block[%d]: %w", i, err)
		}
		chain[i] = b
	}

	return chain, nil
}

// =============================================================================

// CalculateHash concatenates the block fields, numbers rendered in decimal,
// and returns the lowercase hex SHA-256 digest of the result.
func CalculateHash(index uint64, previousHash string, timestamp int64, data string, difficulty uint, nonce uint64) string {
	content := hashContent(index, previousHash, timestamp, data, difficulty)
	content = strconv.AppendUint(content, nonce, 10)

	sum := sha256.Sum256(content)
	return common.Bytes2Hex(sum[:])
}

// hashContent renders every field that precedes the nonce. The miner
// reuses it so only the nonce changes between attempts.
func hashContent(index uint64, previousHash string, timestamp int64, data string, difficulty uint) []byte {
	b := make([]byte, 0, 20+len(previousHash)+20+len(data)+20+20)
	b = strconv.AppendUint(b, index, 10)
	b = append(b, previousHash...)
	b = strconv.AppendInt(b, timestamp, 10)
	b = append(b, data...)
	b = strconv.AppendUint(b, uint64(difficulty), 10)
	return b
}

// HexToBinary converts a hex digest into its binary digit string, four
// digits per hex character with leading zeros kept.
func HexToBinary(hex string) (string, error) {
	if len(hex) == 0 {
		return "", nil
	}

	raw, err := hexutil.Decode("0x" + hex)
	if err != nil {
		return "", fmt.Errorf("decoding hex %q: %w", hex, err)
	}

	var sb strings.Builder
	sb.Grow(len(raw) * 8)
	for _, c := range raw {
		fmt.Fprintf(&sb, "%08b", c)
	}

	return sb.String(), nil
}

// HashMatchesDifficulty reports whether the binary form of the hash starts
// with at least difficulty zero bits.
func HashMatchesDifficulty(hash string, difficulty uint) bool {
	binary, err := HexToBinary(hash)
	if err != nil {
		return false
	}

	if uint(len(binary)) < difficulty {
		return false
	}

	return strings.HasPrefix(binary, strings.Repeat("0", int(difficulty)))
}

// leadingZeroBits counts the leading zero bits of a raw digest.
func leadingZeroBits(sum [sha256.Size]byte) uint {
	var n uint
	for _, c := range sum {
		if c != 0 {
			return n + uint(bits.LeadingZeros8(c))
		}
		n += 8
	}
	return n
}
