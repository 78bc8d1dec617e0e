package workout

// Registry is the in-memory, type partitioned collection of workouts.
// Sequences only grow: there is no edit or delete.
type Registry struct {
	byType map[Type][]Workout
	order  []ref
}

type ref struct {
	t     Type
	index int
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{byType: make(map[Type][]Workout)}
}

// Append adds w to the sequence of its type. The caller guarantees w is valid.
func (r *Registry) Append(w Workout) {
	r.order = append(r.order, ref{t: w.Type, index: len(r.byType[w.Type])})
	r.byType[w.Type] = append(r.byType[w.Type], w)
}

// Restore appends previously persisted sequences in order.
func (r *Registry) Restore(groups [][]Workout) {
	for _, group := range groups {
		for _, w := range group {
			r.Append(w)
		}
	}
}

// FindByID scans the sequence of type t for id.
func (r *Registry) FindByID(t Type, id string) (Workout, bool) {
	for _, w := range r.byType[t] {
		if w.ID == id {
			return w, true
		}
	}
	return Workout{}, false
}

// AllNonEmpty returns the sequences with at least one workout, in AllTypes order.
func (r *Registry) AllNonEmpty() [][]Workout {
	result := make([][]Workout, 0, len(AllTypes))
	for _, t := range AllTypes {
		seq := r.byType[t]
		if len(seq) == 0 {
			continue
		}
		cp := make([]Workout, len(seq))
		copy(cp, seq)
		result = append(result, cp)
	}
	return result
}

// All returns every workout in the order it was appended.
func (r *Registry) All() []Workout {
	result := make([]Workout, 0, len(r.order))
	for _, ref := range r.order {
		result = append(result, r.byType[ref.t][ref.index])
	}
	return result
}

// Len returns the number of workouts of type t
func (r *Registry) Len(t Type) int {
	return len(r.byType[t])
}
