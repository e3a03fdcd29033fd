// Package game implements one dice table: seat ledger, shooter rotation,
// pari-mutuel settlement, the timed betting/roll state machine and heartbeat
// liveness.
//
// A Table is a plain value owned by a single caller. It never starts
// goroutines or reads the wall clock; every time-dependent operation takes
// the current time, and dice come from an injected DiceSource:
//
//	tbl, _ := game.NewTable("main", game.DefaultConfig(), randutil.New(42), logger)
//	_ = tbl.Claim("conn-a", "seat1", now)
//	res := tbl.Tick(now) // once per second
//	if res.Roll != nil {
//	    // after the visible delay
//	    tbl.CompleteRoll(*res.Roll)
//	}
//
// # Rounds
//
// Bets are taken during BETTING. When the betting countdown ends the roll
// window opens; the shooter may throw, or the throw happens automatically
// when the window closes. A roll is two-phase: RequestRoll (or window expiry
// in Tick) draws the dice and marks the table rolling, CompleteRoll applies
// craps rules, settles deciding rolls and reopens betting.
//
// # Settlement
//
// Only the matched stake is at risk. With 100 on the shooter and 40 against,
// 40 of each side is matched; a shooter win returns 60 unmatched plus 80 to
// the shooter side and the fader side loses its 40.
package game
