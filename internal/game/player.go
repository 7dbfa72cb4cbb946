package game

type PlayerID string

// Identity is who is talking to the table: a stable id for the ledger and a
// name for announcements.
type Identity struct {
	ID   PlayerID
	Name string
}

type Player struct {
	Identity

	Wager        int
	Hands        []*Hand
	HasInsurance bool
	Insurance    int

	// staked is set once the wager for the coming round has been debited.
	staked     bool
	splitAces  bool
	extraStake int
}

func NewPlayer(id Identity, wager int) *Player {
	return &Player{
		Identity: id,
		Wager:    wager,
		Hands:    make([]*Hand, 0, 4),
	}
}

// fresh starts the next round for the same seat. Nothing is debited yet.
func (p *Player) fresh() *Player {
	return NewPlayer(p.Identity, p.Wager)
}

func (p *Player) Done() bool {
	for _, h := range p.Hands {
		if !h.Done() {
			return false
		}
	}
	return true
}

// Staked is everything the player has on the table this round.
func (p *Player) Staked() int {
	total := 0
	if p.staked {
		total += p.Wager
	}
	return total + p.extraStake + p.Insurance
}

// firstOpen is the index of the first hand still taking actions, or 0.
func (p *Player) firstOpen() int {
	for i, h := range p.Hands {
		if !h.Done() {
			return i
		}
	}
	return 0
}
