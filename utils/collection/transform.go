package collection

func Map[T any, V any](sources []T, f func(T) V) []V {
	results := make([]V, len(sources))
	for i, v := range sources {
		results[i] = f(v)
	}
	return results
}

func MapNotNil[T any, V any](sources []T, f func(T) *V) []V {
	results := make([]V, 0, len(sources))
	for _, v := range sources {
		result := f(v)
		if result != nil {
			results = append(results, *result)
		}
	}
	return results
}

func AssociateBy[T any, V comparable](sources []T, f func(T) V) map[V]T {
	var result = make(map[V]T)
	for _, v := range sources {
		result[f(v)] = v
	}
	return result
}
