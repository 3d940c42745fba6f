package pool

// Cancel cancels an advantage pool against a disadvantage pool.
//
// Same-face pairs cancel first, face by face. If both sides still hold
// dice afterwards, the smaller side is emptied and the same number of dice
// is removed from the larger side, smallest faces first, so a surviving
// advantage pool keeps its most valuable dice. After Cancel at most one of
// the returned pools is non-empty.
func Cancel(advantage, disadvantage Pool) (Pool, Pool) {
	adv := advantage.Normalize()
	dis := disadvantage.Normalize()

	for _, face := range Faces {
		overlap := min(adv[face], dis[face])
		if overlap == 0 {
			continue
		}
		adv[face] -= overlap
		dis[face] -= overlap
	}

	advTotal, disTotal := adv.Total(), dis.Total()
	if advTotal == 0 || disTotal == 0 {
		return adv.Normalize(), dis.Normalize()
	}

	if advTotal >= disTotal {
		removeSmallestFirst(adv, disTotal)
		return adv.Normalize(), Pool{}
	}
	removeSmallestFirst(dis, advTotal)
	return Pool{}, dis.Normalize()
}

// Reduce returns only the advantage side of Cancel. It exists for callers
// that never need the disadvantage pool back.
func Reduce(advantage, disadvantage Pool) Pool {
	adv, _ := Cancel(advantage, disadvantage)
	return adv
}

// Net returns the signed dice count left after cancellation: positive for
// advantage, negative for disadvantage.
func Net(advantage, disadvantage Pool) int {
	adv, dis := Cancel(advantage, disadvantage)
	return adv.Total() - dis.Total()
}

func removeSmallestFirst(p Pool, n int) {
	for _, face := range Faces {
		if n == 0 {
			return
		}
		take := min(p[face], n)
		p[face] -= take
		n -= take
	}
}
