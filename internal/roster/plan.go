package roster

// Plan описывает разницу между двумя снимками состава.
// ToRemove и ToAdd всегда не пересекаются.
type Plan struct {
	Initial  Set
	Desired  Set
	ToRemove Set
	ToAdd    Set
}

// ComputePlan считает, кого убрать и кого добавить, чтобы из initial получить desired.
// Входные множества копируются: план не зависит от их дальнейших изменений.
func ComputePlan(initial, desired Set) Plan {
	initial = initial.Clone()
	desired = desired.Clone()
	return Plan{
		Initial:  initial,
		Desired:  desired,
		ToRemove: initial.Minus(desired),
		ToAdd:    desired.Minus(initial),
	}
}

// IsNoop сообщает, что менять нечего.
func (p Plan) IsNoop() bool {
	return p.ToRemove.Len() == 0 && p.ToAdd.Len() == 0
}

// Result возвращает состав, который получится после полного применения плана.
func (p Plan) Result() Set {
	return p.Initial.Minus(p.ToRemove).Union(p.ToAdd)
}
