package engine

// FlippableCards returns the ids the turn owner could legally flip right
// now. The engine does not need this to validate moves — ProcessMove checks
// on its own — but clients use it to highlight live tiles without guessing.
func FlippableCards(v Variant, g *GameState) []string {
	if g.Phase != PhasePlaying {
		return nil
	}
	var ids []string
	for i := range g.Dealt {
		if v.CanFlip(g.Dealt[i], g.Flipped, g.MismatchVisible) {
			ids = append(ids, g.Dealt[i].ID)
		}
	}
	return ids
}
