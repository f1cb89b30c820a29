package model

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Entity types recorded on transitions.
const (
	EntityEscrow    = "escrow"
	EntityOffer     = "offer"
	EntityAuthority = "authority"
)

// Transition is the append-only audit record of a committed state transition.
// Its id is the commit identifier returned to callers; Amount is the funds
// moved by the transition (zero for pure status changes) and TxHash the
// on-chain mirror transaction when the chain client is configured.
type Transition struct {
	TransitionID string         `json:"transition_id"`
	EntityType   string         `json:"entity_type"`
	EntityID     string         `json:"entity_id"`
	FromStatus   string         `json:"from_status"`
	ToStatus     string         `json:"to_status"`
	Actor        common.Address `json:"actor"`
	Amount       *big.Int       `json:"amount"`
	TxHash       string         `json:"tx_hash,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// NewTransition builds a transition record with a fresh txn_ id.
func NewTransition(entityType, entityID, from, to string, actor common.Address, amount *big.Int) *Transition {
	return &Transition{
		TransitionID: GenerateUUIDWithSuffix("txn"),
		EntityType:   entityType,
		EntityID:     entityID,
		FromStatus:   from,
		ToStatus:     to,
		Actor:        actor,
		Amount:       CloneBigInt(amount),
		CreatedAt:    time.Now(),
	}
}
