package game

// Settle returns the signed amount a finished hand wins or loses against the
// dealer, not counting the returned wager. It never modifies its arguments.
//
// A surrendered hand gets floor(wager/2) back. Blackjack pays floor(3*wager/2).
func Settle(hand *Hand, wager int, dealer *Hand) int {
	score := hand.Score()
	dealerScore := dealer.Score()

	switch hand.State {
	case HandSurrender:
		return wager/2 - wager
	case HandBust:
		return -wager
	}

	if dealer.State == HandBust {
		if hand.State == HandDoubleDown {
			return 2 * wager
		}
		return wager
	}

	// The dealer beats everything but a charlie on points.
	if dealerScore > score && hand.State != HandCharlie {
		return -wager
	}

	if dealerScore == score {
		switch {
		case dealer.Natural() && !hand.Natural():
			return -wager
		case hand.Natural() && !dealer.Natural():
			return blackjackWin(wager)
		default:
			return 0
		}
	}

	switch hand.State {
	case HandDoubleDown:
		return 2 * wager
	case HandBlackjack:
		return blackjackWin(wager)
	case HandCharlie:
		if dealer.Natural() {
			return -wager
		}
		return wager
	}

	return wager
}

func blackjackWin(wager int) int {
	return wager * 3 / 2
}

// InsuranceStake is the side bet taken by insure.
func InsuranceStake(wager int) int {
	return wager / 2
}

// SettleInsurance pays two to one on the stake when the dealer has a natural
// and forfeits the stake otherwise.
func SettleInsurance(stake int, dealer *Hand) int {
	if dealer.Natural() {
		return 2 * stake
	}
	return -stake
}
